package rategraph

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/roach88/stlc/internal/ir"
)

// Graph is the rate graph object: the timeline of rate events of a stream set
// and its peak aggregate load.
//
// A Graph collects events until Generate is called, after which it is
// read-only. Builder returns generated graphs.
type Graph struct {
	events    []ir.RateEvent
	fixed     ir.Bandwidth
	variable  ir.Bandwidth
	duration  float64
	infinite  bool
	loop      bool
	generated bool
}

func (g *Graph) addEvent(ev ir.RateEvent) {
	if g.generated {
		panic("rategraph: event added after Generate")
	}
	g.events = append(g.events, ev)
}

func (g *Graph) addFixed(bw ir.Bandwidth) {
	if g.generated {
		panic("rategraph: fixed rate added after Generate")
	}
	g.fixed = g.fixed.Add(bw)
}

// Generate sorts events by time, keeping insertion order for equal times, and
// records the maximum of the running sums. Calling it again has no effect.
func (g *Graph) Generate() {
	if g.generated {
		return
	}
	g.generated = true

	sort.SliceStable(g.events, func(i, j int) bool {
		return g.events[i].Time < g.events[j].Time
	})

	var cur, peak ir.Bandwidth
	for _, ev := range g.events {
		cur = cur.Add(ev.Delta())
		peak = peak.Max(cur)
	}
	g.variable = peak

	switch {
	case g.infinite:
		g.duration = math.Inf(1)
	case len(g.events) > 0:
		g.duration = g.events[len(g.events)-1].Time
	}
}

// Generated reports whether Generate was called.
func (g *Graph) Generated() bool {
	return g.generated
}

// MaxPPS returns the peak aggregate packets/sec of the timeline.
func (g *Graph) MaxPPS() float64 {
	return g.variable.PPS
}

// MaxBPS returns the peak aggregate L2 bits/sec of the timeline.
func (g *Graph) MaxBPS() float64 {
	return g.variable.BPSL2
}

// MaxBPSL1 returns the peak aggregate L1 bits/sec of the timeline.
func (g *Graph) MaxBPSL1() float64 {
	return g.variable.BPSL1
}

// Variable returns the peak of the timeline.
func (g *Graph) Variable() ir.Bandwidth {
	return g.variable
}

// Fixed returns the sum of the fixed-rate streams.
func (g *Graph) Fixed() ir.Bandwidth {
	return g.fixed
}

// Total returns the timeline peak plus the fixed rate.
func (g *Graph) Total() ir.Bandwidth {
	return g.variable.Add(g.fixed)
}

// ExpectedDuration returns the time of the last event in seconds, or +Inf
// when a continuous stream is reached.
func (g *Graph) ExpectedDuration() float64 {
	return g.duration
}

// LoopDetected reports whether any walk ended on a stream it already visited.
func (g *Graph) LoopDetected() bool {
	return g.loop
}

// Events returns a copy of the events, sorted once generated.
func (g *Graph) Events() []ir.RateEvent {
	return append([]ir.RateEvent(nil), g.events...)
}

type graphJSON struct {
	MaxPPS           float64        `json:"max_pps"`
	MaxBPS           float64        `json:"max_bps"`
	MaxBPSL1         float64        `json:"max_bps_l1"`
	Fixed            ir.Bandwidth   `json:"fixed"`
	Total            ir.Bandwidth   `json:"total"`
	ExpectedDuration *float64       `json:"expected_duration"`
	LoopDetected     bool           `json:"loop_detected"`
	Events           []ir.RateEvent `json:"events"`
}

// MarshalJSON renders the summary and the event list.
// An unbounded duration is rendered as null.
func (g *Graph) MarshalJSON() ([]byte, error) {
	doc := graphJSON{
		MaxPPS:       g.MaxPPS(),
		MaxBPS:       g.MaxBPS(),
		MaxBPSL1:     g.MaxBPSL1(),
		Fixed:        g.fixed,
		Total:        g.Total(),
		LoopDetected: g.loop,
		Events:       g.events,
	}
	if doc.Events == nil {
		doc.Events = []ir.RateEvent{}
	}
	if d := g.duration; !math.IsInf(d, 0) {
		doc.ExpectedDuration = &d
	}
	return json.Marshal(doc)
}
