package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/stlc/internal/ir"
)

// requiredStreamFields must be present in every CUE stream declaration.
var requiredStreamFields = []string{"id", "type", "rate", "packet_size"}

// CompileStream parses a CUE value into a Stream.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the stream struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`stream: probe: { id: 1, type: "continuous", ... }`)
//	s, err := CompileStream(v.LookupPath(cue.ParsePath("stream.probe")))
//
// The struct label becomes the stream name unless a name field is given.
func CompileStream(v cue.Value) (ir.Stream, error) {
	if err := v.Err(); err != nil {
		return ir.Stream{}, formatCUEError(err)
	}

	for _, field := range requiredStreamFields {
		if !v.LookupPath(cue.ParsePath(field)).Exists() {
			return ir.Stream{}, &CompileError{
				Field:   field,
				Message: field + " is required",
				Pos:     v.Pos(),
			}
		}
	}

	var doc ir.StreamDoc
	if err := v.Decode(&doc); err != nil {
		return ir.Stream{}, formatCUEError(err)
	}
	if doc.Name == "" {
		if sels := v.Path().Selectors(); len(sels) > 0 {
			doc.Name = sels[len(sels)-1].String()
		}
	}

	s, err := doc.ToStream()
	if err != nil {
		return ir.Stream{}, &CompileError{
			Field:   "type",
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

// StreamError is the failure of one declaration in a `stream` struct.
type StreamError struct {
	Label string
	Err   error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Label, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// CompileStreams parses every field of a `stream` struct in declaration order.
// Failed declarations are reported as *StreamError. With failFast the
// iteration stops at the first of them.
func CompileStreams(v cue.Value, failFast bool) ([]ir.Stream, []error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}
	var (
		streams []ir.Stream
		errs    []error
	)
	for iter.Next() {
		s, err := CompileStream(iter.Value())
		if err != nil {
			errs = append(errs, &StreamError{Label: iter.Selector().String(), Err: err})
			if failFast {
				break
			}
			continue
		}
		streams = append(streams, s)
	}
	return streams, errs
}

// CompileError is a CUE decoding error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
