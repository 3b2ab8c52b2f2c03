// Package profile loads stream sets from traffic profile files.
//
// A profile is either a directory (or single file) of CUE declaring
// `stream: <name>: {...}` entries, or a YAML/JSON document with a
// `streams:` list. Streams keep their declaration order, which determines
// compacted ids.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
)

// LoadMode controls how errors are handled during profile loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Format is the source format of a profile.
type Format string

// Profile formats.
const (
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
)

// Error codes shared by every command that loads a profile.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No profile files found
	ErrCodeLoadFailed    = "E004" // Load or parse failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeNoStreams     = "E008" // Profile declares no streams
	ErrCodeInvalidStream = "E009" // Stream declaration could not be decoded
)

// Profile is a loaded stream set.
type Profile struct {
	Path      string
	Format    Format
	FileCount int
	Streams   []ir.Stream
}

// Hash returns the content hash of the enabled streams.
func (p *Profile) Hash() (string, error) {
	return ir.ProfileHash(p.Streams)
}

// LoadError represents an error that occurred during profile loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a profile from a CUE directory, a .cue file, or a
// .yaml/.yml/.json file.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all stream errors.
// A nil Profile means nothing could be loaded at all.
func Load(path string, mode LoadMode) (*Profile, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("profile not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing profile: %v", err)}}
	}

	if info.IsDir() {
		return loadCUE(path, nil, mode)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return loadCUE(filepath.Dir(path), []string{filepath.Base(path)}, mode)
	case ".yaml", ".yml", ".json":
		return loadYAML(path, mode)
	}
	return nil, []error{&LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("unsupported profile file %s (want .cue, .yaml, .yml or .json)", path),
	}}
}

// FirstError returns the code and message of the first error, for commands
// that report a single failure.
func FirstError(errs []error) (code, message string) {
	if len(errs) == 0 {
		return "", ""
	}
	var loadErr *LoadError
	if errors.As(errs[0], &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, errs[0].Error()
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeInvalidStream
		if compileErr.Field == "cue" {
			code = ErrCodeBuildFailed
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeInvalidStream,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
