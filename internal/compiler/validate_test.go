package compiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/testutil"
)

func TestValidateStream_Valid(t *testing.T) {
	tests := []ir.Stream{
		testutil.Continuous(1).Build(),
		testutil.SingleBurst(2, 1).Size(MinPacketSize).Build(),
		testutil.MultiBurst(3, 10, 5, time.Millisecond).Build(),
		testutil.Continuous(4).Rate(ir.Rate{Type: ir.RatePercentage, Value: 100}).Build(),
	}

	for _, s := range tests {
		assert.Empty(t, ValidateStream(s, ir.DefaultLineSpeed), "stream %d", s.ID)
	}
}

func TestValidateStream_Errors(t *testing.T) {
	tests := []struct {
		name   string
		stream ir.Stream
		codes  []Code
		field  string
	}{
		{"zero rate", testutil.Continuous(1).PPS(0).Build(), []Code{CodeInvalidRate}, "rate"},
		{"negative rate", testutil.Continuous(1).PPS(-5).Build(), []Code{CodeInvalidRate}, "rate"},
		{"above line", testutil.Continuous(1).Rate(ir.Rate{Type: ir.RatePercentage, Value: 101}).Build(), []Code{CodeInvalidRate}, "rate"},
		{"no packets", testutil.SingleBurst(1, 0).Build(), []Code{CodeZeroPackets}, "packets"},
		{"no bursts", testutil.MultiBurst(1, 1, 0, 0).Build(), []Code{CodeZeroBursts}, "bursts"},
		{"negative isg", testutil.Continuous(1).ISG(-time.Second).Build(), []Code{CodeNegativeGap}, "isg"},
		{"negative ibg", testutil.MultiBurst(1, 1, 1, -time.Second).Build(), []Code{CodeNegativeGap}, "ibg"},
		{"small frame", testutil.Continuous(1).Size(59).Build(), []Code{CodeFrameTooSmall}, "packet_size"},
		{"negative next", testutil.SingleBurst(1, 1).Next(-2).Build(), []Code{CodeInvalidID}, "next_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := ValidateStream(tt.stream, ir.DefaultLineSpeed)
			var codes []Code
			for _, d := range diags {
				codes = append(codes, d.Code)
			}
			assert.Equal(t, tt.codes, codes)
			assert.Equal(t, tt.field, diags[0].Field)
			assert.Equal(t, 1, diags[0].StreamID)
		})
	}
}

func TestValidateStream_CollectsAll(t *testing.T) {
	s := testutil.MultiBurst(8, 0, 0, -time.Microsecond).PPS(0).Size(10).Build()

	diags := ValidateStream(s, ir.DefaultLineSpeed)
	var codes []Code
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	assert.Equal(t, []Code{CodeFrameTooSmall, CodeInvalidRate, CodeZeroPackets, CodeZeroBursts, CodeNegativeGap}, codes)
}

func TestDiagnostic_Error(t *testing.T) {
	d := newDiagnostic(CodeDanglingReference, 1, "next stream %d does not exist", 99)
	assert.Equal(t, "[E202] stream 1: next stream 99 does not exist", d.Error())
	assert.Equal(t, "DanglingReference", d.Code.Kind())
	assert.False(t, d.Code.IsWarning())
	assert.True(t, CodeMultipleParents.IsWarning())

	d.Field = "next_id"
	assert.Equal(t, "[E202] stream 1: next_id: next stream 99 does not exist", d.Error())
}

func TestValidateStream_NegativeID(t *testing.T) {
	diags := ValidateStream(testutil.Continuous(-1).Build(), ir.DefaultLineSpeed)
	if assert.Len(t, diags, 1) {
		assert.Equal(t, CodeInvalidID, diags[0].Code)
		assert.Equal(t, "id", diags[0].Field)
		assert.Equal(t, -1, diags[0].StreamID)
		assert.Equal(t, "[E216] stream -1: id: stream id must not be negative", diags[0].Error())
	}

	assert.Empty(t, ValidateStream(testutil.SingleBurst(2, 1).Next(ir.NoNext).Build(), ir.DefaultLineSpeed))
}
