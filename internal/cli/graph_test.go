package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeGraph(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewGraphCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestGraphText(t *testing.T) {
	output, err := executeGraph(t, "text", profilePath("chain.yaml"))
	require.NoError(t, err)

	assert.Contains(t, output, "✓ Rate graph")
	assert.Contains(t, output, "peak:     100 pps, 51.2 kbps (L2), 67.2 kbps (L1)")
	assert.Contains(t, output, "duration: unbounded")
	assert.Contains(t, output, "events:   3")
	assert.NotContains(t, output, "loop:")
	assert.NotContains(t, output, "Events:")
}

func TestGraphEvents(t *testing.T) {
	output, err := executeGraph(t, "text", profilePath("chain.yaml"), "--events")
	require.NoError(t, err)

	assert.Contains(t, output, "Events:")
	assert.Contains(t, output, "stream 10     +10 pps")
	assert.Contains(t, output, "stream 10     -10 pps")
	assert.Contains(t, output, "stream 20     +100 pps")
}

func TestGraphJSON(t *testing.T) {
	output, err := executeGraph(t, "json", profilePath("shared.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			MaxPPS           float64  `json:"max_pps"`
			ExpectedDuration *float64 `json:"expected_duration"`
			LoopDetected     bool     `json:"loop_detected"`
			Events           []any    `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 200.0, resp.Data.MaxPPS, "the shared successor is triggered by both roots")
	assert.Nil(t, resp.Data.ExpectedDuration, "unbounded duration is null")
	assert.False(t, resp.Data.LoopDetected)
	assert.Len(t, resp.Data.Events, 6)
}

func TestGraphDanglingReference(t *testing.T) {
	output, err := executeGraph(t, "text", profilePath("dangling.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "Error [E202]")
	assert.Contains(t, output, "next stream 2 is disabled")
}
