// Package testutil holds deterministic helpers shared by tests: stream
// builders, a resettable logical clock and fixed id generators.
package testutil

import (
	"time"

	"github.com/roach88/stlc/internal/ir"
)

// Default values used by the stream builders.
// At the defaults a stream resolves to 1000 pps and 800000 bps at L2.
const (
	DefaultPPS        = 1000
	DefaultPacketSize = 100
)

// StreamBuilder builds an enabled ir.Stream with no successor.
type StreamBuilder struct {
	s ir.Stream
}

func newBuilder(id int, mode ir.Mode) *StreamBuilder {
	return &StreamBuilder{s: ir.Stream{
		ID:         id,
		NextID:     ir.NoNext,
		Enabled:    true,
		Mode:       mode,
		Rate:       ir.PPS(DefaultPPS),
		PacketSize: DefaultPacketSize,
	}}
}

// Continuous starts a continuous stream.
func Continuous(id int) *StreamBuilder {
	return newBuilder(id, ir.Continuous{})
}

// SingleBurst starts a single-burst stream of packets packets.
func SingleBurst(id int, packets uint32) *StreamBuilder {
	return newBuilder(id, ir.SingleBurst{Packets: packets})
}

// MultiBurst starts a multi-burst stream.
func MultiBurst(id int, packets, bursts uint32, ibg time.Duration) *StreamBuilder {
	return newBuilder(id, ir.MultiBurst{Packets: packets, Count: bursts, IBG: ibg})
}

// Next sets the successor.
func (b *StreamBuilder) Next(id int) *StreamBuilder {
	b.s.NextID = id
	return b
}

// SelfStart marks the stream as a root.
func (b *StreamBuilder) SelfStart() *StreamBuilder {
	b.s.SelfStart = true
	return b
}

// Disabled marks the stream disabled.
func (b *StreamBuilder) Disabled() *StreamBuilder {
	b.s.Enabled = false
	return b
}

// Name sets the label.
func (b *StreamBuilder) Name(name string) *StreamBuilder {
	b.s.Name = name
	return b
}

// ISG sets the inter-stream gap.
func (b *StreamBuilder) ISG(d time.Duration) *StreamBuilder {
	b.s.ISG = d
	return b
}

// PPS sets a packets-per-second rate.
func (b *StreamBuilder) PPS(v float64) *StreamBuilder {
	b.s.Rate = ir.PPS(v)
	return b
}

// Rate sets an arbitrary rate.
func (b *StreamBuilder) Rate(r ir.Rate) *StreamBuilder {
	b.s.Rate = r
	return b
}

// Size sets the L2 frame size in bytes.
func (b *StreamBuilder) Size(n int) *StreamBuilder {
	b.s.PacketSize = n
	return b
}

// Fixed marks the stream as fixed-rate.
func (b *StreamBuilder) Fixed() *StreamBuilder {
	b.s.FixedRate = true
	return b
}

// Build returns the stream.
func (b *StreamBuilder) Build() ir.Stream {
	return b.s
}

// Streams builds every builder in order.
func Streams(builders ...*StreamBuilder) []ir.Stream {
	out := make([]ir.Stream, len(builders))
	for i, b := range builders {
		out[i] = b.Build()
	}
	return out
}
