// Package rategraph computes the offered-load timeline of a stream set.
//
// Each self-start stream is walked along its next chain, emitting signed
// rate events as streams start and stop. The events are merged into one
// timeline whose running sum gives the peak packets/sec and bits/sec.
// This is independent of compilation and keyed by original stream ids.
package rategraph

import (
	"math"

	"go.uber.org/zap"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLineSpeed sets the port line speed in bits/sec, used by percentage rates.
func WithLineSpeed(bps float64) Option {
	return func(b *Builder) { b.lineSpeed = bps }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// Builder walks stream chains and produces a Graph.
// A Builder may be reused; each Build call is independent.
type Builder struct {
	lineSpeed float64
	logger    *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		lineSpeed: ir.DefaultLineSpeed,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build generates the rate graph of the enabled streams.
//
// The only failure is a next_id that names no enabled stream, reported as a
// *compiler.Diagnostic with code E202.
func (b *Builder) Build(streams []ir.Stream) (*Graph, error) {
	w := walk{
		b:        b,
		g:        &Graph{},
		byID:     make(map[int]ir.Stream, len(streams)),
		disabled: make(map[int]bool),
		fixed:    make(map[int]bool),
	}
	var roots []int
	for _, s := range streams {
		if !s.Enabled {
			w.disabled[s.ID] = true
			continue
		}
		if _, dup := w.byID[s.ID]; dup {
			continue
		}
		w.byID[s.ID] = s
		if s.SelfStart {
			roots = append(roots, s.ID)
		}
	}

	for _, id := range roots {
		if err := w.root(id); err != nil {
			return nil, err
		}
	}

	w.g.Generate()
	b.logger.Debug("rate graph generated",
		zap.Int("roots", len(roots)),
		zap.Int("events", len(w.g.events)),
		zap.Float64("max-pps", w.g.MaxPPS()),
		zap.Float64("max-bps", w.g.MaxBPS()),
		zap.Bool("loop", w.g.loop),
	)
	return w.g, nil
}

// Build generates a rate graph with default options.
func Build(streams []ir.Stream, opts ...Option) (*Graph, error) {
	return NewBuilder(opts...).Build(streams)
}

type walk struct {
	b        *Builder
	g        *Graph
	byID     map[int]ir.Stream
	disabled map[int]bool
	fixed    map[int]bool
}

// root walks one chain until a dead end, a continuous stream or a loop.
func (w *walk) root(rootID int) error {
	visited := make(map[int]bool)
	cursor := 0.0
	s := w.byID[rootID]

	for {
		visited[s.ID] = true
		cursor = w.emit(cursor, s)
		if !s.HasNext() {
			return nil
		}

		if visited[s.NextID] {
			w.g.loop = true
			w.b.logger.Debug("loop detected",
				zap.Int("root", rootID),
				zap.Int("stream", s.ID),
				zap.Int("next", s.NextID),
			)
			return nil
		}
		if math.IsInf(cursor, 1) {
			return nil
		}

		next, ok := w.byID[s.NextID]
		if !ok {
			return compiler.DanglingReference(s.ID, s.NextID, w.disabled[s.NextID])
		}
		s = next
	}
}

// emit adds the events of one stream triggered at cursor and returns the
// cursor for its successor.
func (w *walk) emit(cursor float64, s ir.Stream) float64 {
	bw := s.Bandwidth(w.b.lineSpeed)

	if s.FixedRate {
		if !w.fixed[s.ID] {
			w.fixed[s.ID] = true
			w.g.addFixed(bw)
		}
		return cursor
	}

	start := cursor + s.ISG.Seconds()
	switch m := s.Mode.(type) {
	case ir.SingleBurst:
		stop := start + s.BurstDuration(w.b.lineSpeed)
		w.g.addEvent(ir.NewRateEvent(start, s.ID, bw))
		w.g.addEvent(ir.NewRateEvent(stop, s.ID, bw.Neg()))
		return stop

	case ir.MultiBurst:
		burst := s.BurstDuration(w.b.lineSpeed)
		ibg := m.IBG.Seconds()
		stop := cursor
		for i := uint32(0); i < m.Count; i++ {
			if i > 0 {
				start = stop + ibg
			}
			stop = start + burst
			w.g.addEvent(ir.NewRateEvent(start, s.ID, bw))
			w.g.addEvent(ir.NewRateEvent(stop, s.ID, bw.Neg()))
		}
		return stop

	default:
		w.g.addEvent(ir.NewRateEvent(start, s.ID, bw))
		w.g.infinite = true
		return math.Inf(1)
	}
}
