package compiler

import (
	"fmt"

	"go.uber.org/multierr"
)

// Code identifies a diagnostic kind.
type Code string

// Graph diagnostics (E201-E204, W301).
const (
	CodeDuplicateStreamID          Code = "E201"
	CodeDanglingReference          Code = "E202"
	CodeInvalidContinuousSuccessor Code = "E203"
	CodeUnreachableStream          Code = "E204"
	CodeMultipleParents            Code = "W301"
)

// Descriptor field diagnostics (E210-E216).
const (
	CodeInvalidRate   Code = "E210"
	CodeZeroPackets   Code = "E211"
	CodeZeroBursts    Code = "E212"
	CodeNegativeGap   Code = "E213"
	CodeFrameTooSmall Code = "E214"
	CodeInvalidFactor Code = "E215"
	CodeInvalidID     Code = "E216"
)

var codeKinds = map[Code]string{
	CodeDuplicateStreamID:          "DuplicateStreamId",
	CodeDanglingReference:          "DanglingReference",
	CodeInvalidContinuousSuccessor: "InvalidContinuousSuccessor",
	CodeUnreachableStream:          "UnreachableStream",
	CodeMultipleParents:            "MultipleParents",
	CodeInvalidRate:                "InvalidRate",
	CodeZeroPackets:                "ZeroPackets",
	CodeZeroBursts:                 "ZeroBursts",
	CodeNegativeGap:                "NegativeGap",
	CodeFrameTooSmall:              "FrameTooSmall",
	CodeInvalidFactor:              "InvalidFactor",
	CodeInvalidID:                  "InvalidStreamId",
}

// Kind returns the symbolic name of the code, e.g. "DanglingReference".
func (c Code) Kind() string {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return string(c)
}

// IsWarning reports whether the code is non-fatal.
func (c Code) IsWarning() bool {
	return len(c) > 0 && c[0] == 'W'
}

// Diagnostic is one structured finding about a stream set.
//
// StreamID and NextID are the caller's original ids. NextID is ir.NoNext
// unless the finding is about an edge.
type Diagnostic struct {
	Code     Code   `json:"code"`
	StreamID int    `json:"stream_id"`
	NextID   int    `json:"next_id"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Code == CodeInvalidFactor {
		return fmt.Sprintf("[%s] %s: %s", d.Code, d.Field, d.Message)
	}
	if d.Field != "" {
		return fmt.Sprintf("[%s] stream %d: %s: %s", d.Code, d.StreamID, d.Field, d.Message)
	}
	return fmt.Sprintf("[%s] stream %d: %s", d.Code, d.StreamID, d.Message)
}

// Is matches any diagnostic with the same code, so the Err* sentinels work
// with errors.Is.
func (d *Diagnostic) Is(target error) bool {
	t, ok := target.(*Diagnostic)
	return ok && t.Code == d.Code
}

// Sentinels for errors.Is.
var (
	ErrDuplicateStreamID          = &Diagnostic{Code: CodeDuplicateStreamID}
	ErrDanglingReference          = &Diagnostic{Code: CodeDanglingReference}
	ErrInvalidContinuousSuccessor = &Diagnostic{Code: CodeInvalidContinuousSuccessor}
	ErrUnreachableStream          = &Diagnostic{Code: CodeUnreachableStream}
)

// Diagnostics holds the findings of one compilation.
// Errors are fatal; Warnings are attached to successful results.
type Diagnostics struct {
	Errors   []*Diagnostic `json:"errors"`
	Warnings []*Diagnostic `json:"warnings"`
}

// OK reports whether there are no fatal findings.
func (d Diagnostics) OK() bool {
	return len(d.Errors) == 0
}

// Err combines all fatal findings into one error, or returns nil.
func (d Diagnostics) Err() error {
	var err error
	for _, e := range d.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

// Codes returns the codes of the fatal findings in order.
func (d Diagnostics) Codes() []Code {
	codes := make([]Code, 0, len(d.Errors))
	for _, e := range d.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func (d *Diagnostics) add(diag *Diagnostic) {
	if diag.Code.IsWarning() {
		d.Warnings = append(d.Warnings, diag)
	} else {
		d.Errors = append(d.Errors, diag)
	}
}

func (d *Diagnostics) merge(o Diagnostics) {
	d.Errors = append(d.Errors, o.Errors...)
	d.Warnings = append(d.Warnings, o.Warnings...)
}

func newDiagnostic(code Code, streamID int, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		StreamID: streamID,
		NextID:   -1,
		Message:  fmt.Sprintf(format, args...),
	}
}
