package compiler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/testutil"
)

func TestCompile_IDCompression(t *testing.T) {
	streams := testutil.Streams(
		testutil.SingleBurst(700, 10).SelfStart().Next(800),
		testutil.SingleBurst(800, 10).Next(700),
	)

	prog, diags := Compile(streams)
	require.NotNil(t, prog, diags.Err())
	require.Equal(t, 2, prog.Len())

	assert.Equal(t, 0, prog.Entries[0].Stream.ID)
	assert.Equal(t, 1, prog.Entries[0].Stream.NextID)
	assert.Equal(t, 700, prog.Entries[0].OriginalID)
	assert.Equal(t, 1, prog.Entries[1].Stream.ID)
	assert.Equal(t, 0, prog.Entries[1].Stream.NextID)
	assert.Equal(t, 800, prog.Entries[1].OriginalID)
	assert.False(t, prog.AllContinuous)
	assert.Equal(t, 1.0, prog.Factor)

	// caller's descriptors are untouched
	assert.Equal(t, 700, streams[0].ID)
	assert.Equal(t, 800, streams[0].NextID)
}

func TestCompile_CompactionIsBijection(t *testing.T) {
	streams := testutil.Streams(
		testutil.SingleBurst(40, 3).SelfStart().Next(12).Name("a"),
		testutil.Continuous(99).Disabled(),
		testutil.MultiBurst(12, 4, 2, time.Millisecond).Next(1000).Name("b"),
		testutil.SingleBurst(1000, 1).ISG(5*time.Microsecond).Name("c"),
		testutil.Continuous(7).SelfStart().Next(7),
	)

	prog, diags := Compile(streams)
	require.NotNil(t, prog, diags.Err())
	require.Equal(t, 4, prog.Len())

	seen := make(map[int]bool)
	enabled := 0
	for i, e := range prog.Entries {
		assert.Equal(t, i, e.Stream.ID, "compacted ids follow input order")
		assert.False(t, seen[e.Stream.ID])
		seen[e.Stream.ID] = true
	}
	for _, s := range streams {
		if !s.Enabled {
			continue
		}
		restored, ok := prog.Decompile(enabled)
		require.True(t, ok)
		assert.Equal(t, s, restored)
		enabled++
	}
}

func TestCompile_ContinuousSelfLoop(t *testing.T) {
	prog, diags := Compile(testutil.Streams(testutil.Continuous(1).SelfStart().Next(1)))
	require.NotNil(t, prog, diags.Err())
	assert.True(t, prog.AllContinuous)
	assert.Equal(t, 0, prog.Entries[0].Stream.NextID)
}

func TestCompile_AllContinuousIgnoresDisabled(t *testing.T) {
	prog, diags := Compile(testutil.Streams(
		testutil.Continuous(1).SelfStart(),
		testutil.SingleBurst(2, 5).Disabled(),
	))
	require.NotNil(t, prog, diags.Err())
	assert.True(t, prog.AllContinuous)
}

func TestCompile_Failures(t *testing.T) {
	tests := []struct {
		name     string
		streams  []ir.Stream
		codes    []Code
		sentinel error
	}{
		{
			name: "duplicate id",
			streams: testutil.Streams(
				testutil.SingleBurst(5, 1).SelfStart(),
				testutil.SingleBurst(5, 1).SelfStart(),
			),
			codes:    []Code{CodeDuplicateStreamID},
			sentinel: ErrDuplicateStreamID,
		},
		{
			name: "dangling next",
			streams: testutil.Streams(
				testutil.SingleBurst(1, 1).SelfStart().Next(99),
			),
			codes:    []Code{CodeDanglingReference},
			sentinel: ErrDanglingReference,
		},
		{
			name: "continuous chains",
			streams: testutil.Streams(
				testutil.Continuous(1).SelfStart().Next(2),
				testutil.SingleBurst(2, 1),
			),
			codes:    []Code{CodeInvalidContinuousSuccessor},
			sentinel: ErrInvalidContinuousSuccessor,
		},
		{
			name: "unreachable",
			streams: testutil.Streams(
				testutil.SingleBurst(1, 1).SelfStart(),
				testutil.SingleBurst(2, 1),
			),
			codes:    []Code{CodeUnreachableStream},
			sentinel: ErrUnreachableStream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, diags := Compile(tt.streams)
			assert.Nil(t, prog, "failed compilation must not yield a program")
			assert.False(t, diags.OK())
			assert.Equal(t, tt.codes, diags.Codes())
			assert.True(t, errors.Is(diags.Err(), tt.sentinel))
		})
	}
}

func TestCompile_ErrCombinesAllUnreachable(t *testing.T) {
	_, diags := Compile(testutil.Streams(
		testutil.SingleBurst(1, 1).SelfStart(),
		testutil.SingleBurst(41231, 1).Next(3928),
		testutil.SingleBurst(3928, 1).Next(41231),
	))

	err := diags.Err()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "stream 41231")
	assert.Contains(t, err.Error(), "stream 3928")

	var d *Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, CodeUnreachableStream, d.Code)
}

func TestCompile_WarningsDoNotFail(t *testing.T) {
	prog, diags := Compile(testutil.Streams(
		testutil.SingleBurst(1, 1).SelfStart().Next(1928),
		testutil.SingleBurst(2, 1).SelfStart().Next(1928),
		testutil.SingleBurst(1928, 1),
	))

	require.NotNil(t, prog)
	assert.True(t, diags.OK())
	assert.NoError(t, diags.Err())
	assert.Len(t, diags.Warnings, 1)
}

func TestCompile_Factor(t *testing.T) {
	streams := testutil.Streams(testutil.Continuous(1).SelfStart())

	prog, diags := Compile(streams, WithFactor(2.5))
	require.NotNil(t, prog, diags.Err())
	assert.Equal(t, 2.5, prog.Factor)

	prog, diags = Compile(streams, WithFactor(0))
	assert.Nil(t, prog)
	assert.Equal(t, []Code{CodeInvalidFactor}, diags.Codes())
	assert.Equal(t, "[E215] factor: rate factor must be positive, got 0", diags.Errors[0].Error())
}

func TestCompile_FieldAndGraphErrorsCollected(t *testing.T) {
	prog, diags := Compile(testutil.Streams(
		testutil.SingleBurst(1, 0).SelfStart(),
		testutil.SingleBurst(2, 1).Size(20),
	))

	assert.Nil(t, prog)
	assert.Equal(t, []Code{CodeZeroPackets, CodeFrameTooSmall, CodeUnreachableStream}, diags.Codes())

	prog, diags = Compile(testutil.Streams(
		testutil.SingleBurst(1, 10).PPS(0).SelfStart().Next(99),
	))
	assert.Nil(t, prog)
	assert.Equal(t, []Code{CodeInvalidRate, CodeDanglingReference}, diags.Codes())
}

func TestCompile_NegativeIDs(t *testing.T) {
	prog, diags := Compile(testutil.Streams(
		testutil.Continuous(-1).SelfStart(),
		testutil.SingleBurst(3, 10).SelfStart().Next(-1),
	))
	assert.Nil(t, prog)
	require.Equal(t, []Code{CodeInvalidID}, diags.Codes())
	assert.Equal(t, "[E216] stream -1: id: stream id must not be negative", diags.Errors[0].Error())

	prog, diags = Compile(testutil.Streams(
		testutil.SingleBurst(3, 10).SelfStart().Next(-7),
	))
	assert.Nil(t, prog)
	require.Equal(t, []Code{CodeInvalidID, CodeDanglingReference}, diags.Codes())
	assert.Equal(t, "next_id", diags.Errors[0].Field)
	assert.Equal(t, 3, diags.Errors[0].StreamID)
}

func TestCompile_Idempotent(t *testing.T) {
	streams := testutil.Streams(
		testutil.SingleBurst(10, 1).SelfStart().Next(20),
		testutil.SingleBurst(20, 1),
		testutil.SingleBurst(30, 1).SelfStart().Next(20),
	)
	c := New()

	p1, d1 := c.Compile(streams)
	p2, d2 := c.Compile(streams)
	assert.Equal(t, p1, p2)
	assert.Equal(t, d1, d2)
}

func TestCompile_EmptyInput(t *testing.T) {
	prog, diags := Compile(nil)
	require.NotNil(t, prog)
	assert.True(t, diags.OK())
	assert.Equal(t, 0, prog.Len())
}

func TestCompile_LogsWarningsAndOutcome(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := New(WithLogger(zap.New(core)))

	_, diags := c.Compile(testutil.Streams(
		testutil.SingleBurst(1, 1).SelfStart().Next(3),
		testutil.SingleBurst(2, 1).SelfStart().Next(3),
		testutil.SingleBurst(3, 1),
	))
	require.True(t, diags.OK())

	assert.Equal(t, 1, logs.FilterMessage("stream warning").Len())
	compiled := logs.FilterMessage("compiled").All()
	require.Len(t, compiled, 1)
	assert.Equal(t, int64(3), compiled[0].ContextMap()["streams"])
}
