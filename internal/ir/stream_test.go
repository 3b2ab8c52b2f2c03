package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateResolve(t *testing.T) {
	tests := []struct {
		name string
		rate Rate
		want Bandwidth
	}{
		{"pps", PPS(1000), Bandwidth{PPS: 1000, BPSL2: 800000, BPSL1: 960000}},
		{"bps_l2", Rate{Type: RateBPSL2, Value: 800000}, Bandwidth{PPS: 1000, BPSL2: 800000, BPSL1: 960000}},
		{"bps_l1", Rate{Type: RateBPSL1, Value: 960000}, Bandwidth{PPS: 1000, BPSL2: 800000, BPSL1: 960000}},
		{"zero", PPS(0), Bandwidth{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rate.Resolve(100, DefaultLineSpeed)
			assert.InDelta(t, tt.want.PPS, got.PPS, 1e-6)
			assert.InDelta(t, tt.want.BPSL2, got.BPSL2, 1e-6)
			assert.InDelta(t, tt.want.BPSL1, got.BPSL1, 1e-6)
		})
	}
}

func TestRateResolvePercentage(t *testing.T) {
	r := Rate{Type: RatePercentage, Value: 1}
	bw := r.Resolve(100, 10e9)

	assert.InDelta(t, 1e8, bw.BPSL1, 1e-3)
	assert.InDelta(t, 1e8*100/120, bw.BPSL2, 1e-3)
	assert.InDelta(t, bw.BPSL2/800, bw.PPS, 1e-6)
	assert.InDelta(t, 1.0, r.Percentage(100, 10e9), 1e-9)
}

func TestBurstDuration(t *testing.T) {
	single := Stream{Mode: SingleBurst{Packets: 2001}, Rate: PPS(1000), PacketSize: 100}
	assert.Equal(t, 2.0, single.BurstDuration(0))

	one := Stream{Mode: SingleBurst{Packets: 1}, Rate: PPS(1000), PacketSize: 100}
	assert.Equal(t, 0.0, one.BurstDuration(0))

	multi := Stream{Mode: MultiBurst{Packets: 11, Count: 3}, Rate: PPS(10), PacketSize: 64}
	assert.Equal(t, 1.0, multi.BurstDuration(0))

	cont := Stream{Mode: Continuous{}, Rate: PPS(10), PacketSize: 64}
	assert.Equal(t, 0.0, cont.BurstDuration(0))
}

func TestStreamKindDefaultsToContinuous(t *testing.T) {
	assert.Equal(t, KindContinuous, Stream{}.Kind())
	assert.Equal(t, KindMultiBurst, Stream{Mode: MultiBurst{}}.Kind())
}

func TestWithIDsKeepsDeadEnd(t *testing.T) {
	s := Stream{ID: 700, NextID: NoNext, Name: "tail"}
	c := s.WithIDs(3, 9)
	assert.Equal(t, 3, c.ID)
	assert.Equal(t, NoNext, c.NextID)
	assert.Equal(t, 700, s.ID, "original must not be mutated")

	linked := Stream{ID: 700, NextID: 800}.WithIDs(0, 1)
	assert.Equal(t, 1, linked.NextID)
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindContinuous, KindSingleBurst, KindMultiBurst} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("burst")
	assert.Error(t, err)
}

func TestStreamDocDefaults(t *testing.T) {
	s, err := StreamDoc{ID: 4, Type: "single_burst", Packets: 10, Rate: 5, PacketSize: 64}.ToStream()
	require.NoError(t, err)

	assert.True(t, s.Enabled)
	assert.Equal(t, NoNext, s.NextID)
	assert.Equal(t, SingleBurst{Packets: 10}, s.Mode)
	assert.Equal(t, RatePPS, s.Rate.Type)
}

func TestStreamJSON(t *testing.T) {
	s := Stream{
		ID:         2,
		NextID:     7,
		Enabled:    true,
		SelfStart:  true,
		ISG:        1500 * time.Microsecond,
		Mode:       MultiBurst{Packets: 100, Count: 4, IBG: 2 * time.Millisecond},
		Rate:       Rate{Type: RateBPSL1, Value: 1e6},
		PacketSize: 128,
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"multi_burst"`)
	assert.Contains(t, string(data), `"isg_usec":1500`)

	var back Stream
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestProgramDecompile(t *testing.T) {
	p := &Program{
		Entries: []ProgramEntry{
			{OriginalID: 700, Stream: Stream{ID: 0, NextID: 1, Enabled: true}},
			{OriginalID: 800, Stream: Stream{ID: 1, NextID: 0, Enabled: true}},
		},
	}

	s, ok := p.Decompile(1)
	require.True(t, ok)
	assert.Equal(t, 800, s.ID)
	assert.Equal(t, 700, s.NextID)

	_, ok = p.Decompile(2)
	assert.False(t, ok)
}
