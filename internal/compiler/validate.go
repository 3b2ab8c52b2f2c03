package compiler

import (
	"github.com/roach88/stlc/internal/ir"
)

// MinPacketSize is the smallest L2 frame size accepted, in bytes.
const MinPacketSize = 60

// ValidateStream checks the descriptor fields of one stream.
// Returns all findings (does not fail-fast). lineSpeed is in bits/sec.
func ValidateStream(s ir.Stream, lineSpeed float64) []*Diagnostic {
	if lineSpeed <= 0 {
		lineSpeed = ir.DefaultLineSpeed
	}
	var diags []*Diagnostic
	add := func(code Code, field, format string, args ...any) {
		d := newDiagnostic(code, s.ID, format, args...)
		d.Field = field
		diags = append(diags, d)
	}

	// E216: ids; NoNext is the only negative next_id
	if s.ID < 0 {
		add(CodeInvalidID, "id", "stream id must not be negative")
	}
	if s.NextID < 0 && s.NextID != ir.NoNext {
		add(CodeInvalidID, "next_id", "next_id %d is neither a stream id nor %d", s.NextID, ir.NoNext)
	}

	// E214: frame size
	if s.PacketSize < MinPacketSize {
		add(CodeFrameTooSmall, "packet_size",
			"frame size %d is below the minimum of %d bytes", s.PacketSize, MinPacketSize)
	}

	// E210: rate must be positive and fit the line
	switch {
	case s.Rate.Value <= 0:
		add(CodeInvalidRate, "rate", "%s rate must be positive, got %v", s.Rate.Type, s.Rate.Value)
	case s.PacketSize >= MinPacketSize && s.Bandwidth(lineSpeed).BPSL1 > lineSpeed:
		add(CodeInvalidRate, "rate", "rate %.4g%% exceeds line speed",
			s.Rate.Percentage(s.PacketSize, lineSpeed))
	}

	// E213: gaps
	if s.ISG < 0 {
		add(CodeNegativeGap, "isg", "inter-stream gap must not be negative, got %v", s.ISG)
	}

	switch m := s.Mode.(type) {
	case ir.SingleBurst:
		if m.Packets == 0 {
			add(CodeZeroPackets, "packets", "single burst needs at least one packet")
		}
	case ir.MultiBurst:
		if m.Packets == 0 {
			add(CodeZeroPackets, "packets", "multi burst needs at least one packet per burst")
		}
		if m.Count == 0 {
			add(CodeZeroBursts, "bursts", "multi burst needs at least one burst")
		}
		if m.IBG < 0 {
			add(CodeNegativeGap, "ibg", "inter-burst gap must not be negative, got %v", m.IBG)
		}
	}

	return diags
}

// validateFactor checks the global rate multiplier.
func validateFactor(factor float64) *Diagnostic {
	if factor > 0 {
		return nil
	}
	d := newDiagnostic(CodeInvalidFactor, ir.NoNext, "rate factor must be positive, got %v", factor)
	d.Field = "factor"
	return d
}

// validateFields runs ValidateStream over every enabled stream.
func validateFields(streams []ir.Stream, lineSpeed float64) Diagnostics {
	var diags Diagnostics
	for _, s := range streams {
		if !s.Enabled {
			continue
		}
		for _, d := range ValidateStream(s, lineSpeed) {
			diags.add(d)
		}
	}
	return diags
}

