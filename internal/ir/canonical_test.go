package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"uint32", uint32(7), "7"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"no html escape", "<a&b>", `"<a&b>"`},
		{"sorted keys", map[string]any{"b": 1, "a": 2}, `{"a":2,"b":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsFloatAndNull(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": []any{0.1}})
	assert.Error(t, err)
}

func TestMarshalCanonicalNFC(t *testing.T) {
	result, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestCanonicalFloat(t *testing.T) {
	assert.Equal(t, "0.1", CanonicalFloat(0.1))
	assert.Equal(t, "1e+06", CanonicalFloat(1e6))
}

func TestProfileHash(t *testing.T) {
	streams := []Stream{
		{ID: 1, NextID: NoNext, Enabled: true, SelfStart: true, Mode: Continuous{}, Rate: PPS(10), PacketSize: 64},
		{ID: 2, NextID: NoNext, Enabled: false, Mode: SingleBurst{Packets: 3}, Rate: PPS(10), PacketSize: 64},
	}

	h1 := MustProfileHash(streams)
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, MustProfileHash(streams), "hash must be deterministic")

	// disabled streams do not participate
	assert.Equal(t, h1, MustProfileHash(streams[:1]))

	changed := append([]Stream(nil), streams...)
	changed[0].Rate = PPS(11)
	assert.NotEqual(t, h1, MustProfileHash(changed))
}
