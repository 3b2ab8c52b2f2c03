package ir

import (
	"fmt"
	"time"
)

// NoNext is the next-stream sentinel meaning "no successor".
const NoNext = -1

// Stream is one traffic stream descriptor as authored by the caller.
//
// Stream values are treated as immutable during compilation. The compiler
// clones them (see WithIDs) rather than mutating the caller's copy.
type Stream struct {
	ID        int    // sparse, caller-chosen, non-negative
	NextID    int    // id of the successor or NoNext
	Name      string // optional label, carried through for diagnostics
	Enabled   bool
	SelfStart bool

	// ISG is the delay between being triggered and the first packet.
	ISG time.Duration

	Mode Mode
	Rate Rate

	// PacketSize is the L2 frame size in bytes, FCS included.
	PacketSize int

	// FixedRate marks streams (e.g. latency probes) whose bandwidth is a
	// constant reservation instead of a timeline contribution.
	FixedRate bool
}

// Kind returns the kind of the stream's transmission mode.
func (s Stream) Kind() Kind {
	if s.Mode == nil {
		return KindContinuous
	}
	return s.Mode.Kind()
}

// HasNext reports whether the stream names a successor.
func (s Stream) HasNext() bool {
	return s.NextID != NoNext
}

// Bandwidth resolves the stream rate against its packet size and the port
// line speed.
func (s Stream) Bandwidth(lineSpeed float64) Bandwidth {
	return s.Rate.Resolve(s.PacketSize, lineSpeed)
}

// BurstDuration returns how long a single burst lasts at the stream rate.
// The first packet is sent at t=0, so a burst of N packets lasts (N-1)/pps.
// Continuous streams return 0.
func (s Stream) BurstDuration(lineSpeed float64) float64 {
	var packets uint32
	switch m := s.Mode.(type) {
	case SingleBurst:
		packets = m.Packets
	case MultiBurst:
		packets = m.Packets
	default:
		return 0
	}
	pps := s.Bandwidth(lineSpeed).PPS
	if packets <= 1 || pps <= 0 {
		return 0
	}
	return float64(packets-1) / pps
}

// WithIDs returns a copy of the stream with id and next id replaced.
// A dead end stays a dead end regardless of next.
func (s Stream) WithIDs(id, next int) Stream {
	clone := s
	clone.ID = id
	if s.NextID == NoNext {
		clone.NextID = NoNext
	} else {
		clone.NextID = next
	}
	return clone
}

func (s Stream) String() string {
	if s.Name != "" {
		return fmt.Sprintf("stream %d (%s)", s.ID, s.Name)
	}
	return fmt.Sprintf("stream %d", s.ID)
}

// Kind enumerates stream transmission modes.
type Kind int

// Kind values.
const (
	KindContinuous Kind = iota
	KindSingleBurst
	KindMultiBurst
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindContinuous:
		return "continuous"
	case KindSingleBurst:
		return "single_burst"
	case KindMultiBurst:
		return "multi_burst"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses a wire name produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "continuous", "":
		return KindContinuous, nil
	case "single_burst":
		return KindSingleBurst, nil
	case "multi_burst":
		return KindMultiBurst, nil
	}
	return KindContinuous, fmt.Errorf("unknown stream type %q", s)
}

// Mode is a sealed sum type over the three transmission modes.
// Only Continuous, SingleBurst and MultiBurst implement it.
type Mode interface {
	Kind() Kind
	mode()
}

// Continuous transmits until stopped. It never hands off to a successor.
type Continuous struct{}

func (Continuous) mode() {}

// Kind implements Mode.
func (Continuous) Kind() Kind { return KindContinuous }

// SingleBurst transmits Packets packets once.
type SingleBurst struct {
	Packets uint32
}

func (SingleBurst) mode() {}

// Kind implements Mode.
func (SingleBurst) Kind() Kind { return KindSingleBurst }

// MultiBurst transmits Count bursts of Packets packets separated by IBG.
type MultiBurst struct {
	Packets uint32
	Count   uint32
	IBG     time.Duration
}

func (MultiBurst) mode() {}

// Kind implements Mode.
func (MultiBurst) Kind() Kind { return KindMultiBurst }
