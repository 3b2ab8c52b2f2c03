// Package compiler turns a set of stream descriptors into a Program.
//
// Compilation builds a dependency graph over the enabled streams, validates
// it, and rewrites sparse caller ids to dense compacted ids. All findings are
// returned as Diagnostics; a failed compilation never yields a Program.
package compiler

import (
	"go.uber.org/zap"

	"github.com/roach88/stlc/internal/ir"
)

type options struct {
	factor    float64
	lineSpeed float64
	logger    *zap.Logger
}

// Option configures a Compiler.
type Option func(*options)

// WithFactor sets the global rate multiplier stored in the Program.
func WithFactor(f float64) Option {
	return func(o *options) { o.factor = f }
}

// WithLineSpeed sets the port line speed in bits/sec.
func WithLineSpeed(bps float64) Option {
	return func(o *options) { o.lineSpeed = bps }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Compiler compiles stream sets. It holds configuration only, so one Compiler
// may be used for any number of compilations, concurrently.
type Compiler struct {
	opts options
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	o := options{
		factor:    1,
		lineSpeed: ir.DefaultLineSpeed,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Compiler{opts: o}
}

// Check runs field validation, the graph builder and the validator and
// collects the findings of all three. The graph is returned only when there
// are no fatal findings.
func (c *Compiler) Check(streams []ir.Stream) (*Graph, Diagnostics) {
	var diags Diagnostics
	if d := validateFactor(c.opts.factor); d != nil {
		diags.add(d)
	}
	diags.merge(validateFields(streams, c.opts.lineSpeed))

	g, built := BuildGraph(streams)
	diags.merge(built)
	if g != nil {
		diags.merge(g.Validate())
	}
	if !diags.OK() {
		return nil, diags
	}
	return g, diags
}

// Compile validates the streams and emits a Program in input order.
// On any fatal finding the Program is nil.
func (c *Compiler) Compile(streams []ir.Stream) (*ir.Program, Diagnostics) {
	logger := c.opts.logger
	g, diags := c.Check(streams)
	for _, w := range diags.Warnings {
		logger.Warn("stream warning",
			zap.String("code", string(w.Code)),
			zap.Int("stream", w.StreamID),
			zap.String("message", w.Message),
		)
	}
	if g == nil {
		logger.Debug("compile failed",
			zap.Int("streams", len(streams)),
			zap.Int("errors", len(diags.Errors)),
			zap.Error(diags.Err()),
		)
		return nil, diags
	}

	prog := &ir.Program{
		Entries:       make([]ir.ProgramEntry, 0, g.Len()),
		AllContinuous: true,
		Factor:        c.opts.factor,
	}
	for _, s := range streams {
		if !s.Enabled {
			continue
		}
		id, _ := g.CompactedID(s.ID)
		prog.Entries = append(prog.Entries, ir.ProgramEntry{
			OriginalID: s.ID,
			Stream:     s.WithIDs(id, g.Next(id)),
		})
		if s.Kind() != ir.KindContinuous {
			prog.AllContinuous = false
		}
	}

	logger.Info("compiled",
		zap.Int("streams", prog.Len()),
		zap.Int("warnings", len(diags.Warnings)),
		zap.Bool("all-continuous", prog.AllContinuous),
		zap.Float64("factor", prog.Factor),
	)
	return prog, diags
}

// Compile compiles streams with default options.
func Compile(streams []ir.Stream, opts ...Option) (*ir.Program, Diagnostics) {
	return New(opts...).Compile(streams)
}
