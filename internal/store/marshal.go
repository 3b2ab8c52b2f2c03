package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/stlc/internal/compiler"
	"github.com/roach88/stlc/internal/ir"
)

// marshalDiagnostics converts diagnostics to canonical JSON TEXT for storage.
func marshalDiagnostics(diags []compiler.Diagnostic) (string, error) {
	list := make([]any, len(diags))
	for i, d := range diags {
		list[i] = map[string]any{
			"code":      string(d.Code),
			"stream_id": d.StreamID,
			"next_id":   d.NextID,
			"field":     d.Field,
			"message":   d.Message,
		}
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal diagnostics: %w", err)
	}
	return string(data), nil
}

// unmarshalDiagnostics parses diagnostics stored by marshalDiagnostics.
func unmarshalDiagnostics(data string) ([]compiler.Diagnostic, error) {
	diags := []compiler.Diagnostic{}
	if err := json.Unmarshal([]byte(data), &diags); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return diags, nil
}
