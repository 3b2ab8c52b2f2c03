package ir

// Version constants for the descriptor schema and compiler.
const (
	// SchemaVersion is the stream descriptor schema version.
	SchemaVersion = "1"

	// CompilerVersion is the STLC compiler version.
	CompilerVersion = "0.1.0"
)
