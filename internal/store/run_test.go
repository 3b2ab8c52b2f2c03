package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
	"github.com/roach88/stlc/internal/testutil"
)

// createTestStore creates a store with deterministic ids and timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithIDGenerator(testutil.NewSequentialIDGenerator("")),
		WithClock(testutil.NewDeterministicClock()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func compileRun(t *testing.T, streams []ir.Stream) Run {
	t.Helper()
	prog, diags := compiler.Compile(streams)
	return NewRun("profile.yaml", ir.MustProfileHash(streams), 1, prog, diags)
}

func TestRecordRun_Success(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := compileRun(t, testutil.Streams(
		testutil.SingleBurst(1, 1).SelfStart().Next(3),
		testutil.SingleBurst(2, 1).SelfStart().Next(3),
		testutil.Continuous(3),
	))
	run.SetPeak(2000, 1600000)

	stored, err := s.RecordRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, "run-0001", stored.ID)
	assert.Equal(t, int64(1), stored.Seq)
	assert.Equal(t, testutil.Epoch, stored.CreatedAt)

	got, err := s.GetRun(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	assert.True(t, got.OK)
	assert.Equal(t, 3, got.StreamCount)
	assert.False(t, got.AllContinuous)
	assert.Equal(t, ir.CompilerVersion, got.CompilerVersion)
	require.NotNil(t, got.MaxPPS)
	assert.Equal(t, 2000.0, *got.MaxPPS)
	assert.Empty(t, got.Errors)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, compiler.CodeMultipleParents, got.Warnings[0].Code)
	assert.Equal(t, 3, got.Warnings[0].StreamID)
}

func TestRecordRun_Failure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := compileRun(t, testutil.Streams(
		testutil.SingleBurst(1, 1).SelfStart().Next(99),
	))
	stored, err := s.RecordRun(ctx, run)
	require.NoError(t, err)

	got, err := s.GetRun(ctx, stored.ID)
	require.NoError(t, err)
	assert.False(t, got.OK)
	assert.Equal(t, 0, got.StreamCount)
	assert.Nil(t, got.MaxPPS)
	require.Len(t, got.Errors, 1)
	assert.Equal(t, compiler.Diagnostic{
		Code:     compiler.CodeDanglingReference,
		StreamID: 1,
		NextID:   99,
		Message:  "next stream 99 does not exist",
	}, got.Errors[0])
	assert.Empty(t, got.Warnings)
}

func TestRecordRun_SeqIncrements(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	streams := testutil.Streams(testutil.Continuous(1).SelfStart())

	for i := 1; i <= 3; i++ {
		stored, err := s.RecordRun(ctx, compileRun(t, streams))
		require.NoError(t, err)
		assert.Equal(t, int64(i), stored.Seq)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{runs[0].Seq, runs[1].Seq, runs[2].Seq})

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunsForProfile(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := testutil.Streams(testutil.Continuous(1).SelfStart())
	b := testutil.Streams(testutil.Continuous(1).SelfStart().PPS(5))

	for _, streams := range [][]ir.Stream{a, b, a} {
		_, err := s.RecordRun(ctx, compileRun(t, streams))
		require.NoError(t, err)
	}

	runs, err := s.RunsForProfile(ctx, ir.MustProfileHash(a))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, int64(3), runs[1].Seq)

	runs, err = s.RunsForProfile(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NotNil(t, runs)
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestMarshalDiagnostics_Canonical(t *testing.T) {
	data, err := marshalDiagnostics([]compiler.Diagnostic{
		{Code: compiler.CodeUnreachableStream, StreamID: 2, NextID: -1, Message: "unreachable"},
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"code":"E204","field":"","message":"unreachable","next_id":-1,"stream_id":2}]`, data)

	back, err := unmarshalDiagnostics(data)
	require.NoError(t, err)
	assert.Equal(t, compiler.CodeUnreachableStream, back[0].Code)
}
