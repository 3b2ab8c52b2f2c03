package ir

import (
	"fmt"
	"math"
)

// Framing overhead added on the wire per packet at L1: preamble, SFD and
// inter-frame gap.
const L1Overhead = 20

// DefaultLineSpeed is the port line speed assumed when none is configured.
const DefaultLineSpeed = 10e9

// RateType selects which value a Rate is expressed in.
type RateType int

// RateType values.
const (
	RatePPS RateType = iota
	RateBPSL1
	RateBPSL2
	RatePercentage
)

// String returns the wire name of the rate type.
func (t RateType) String() string {
	switch t {
	case RatePPS:
		return "pps"
	case RateBPSL1:
		return "bps_l1"
	case RateBPSL2:
		return "bps_l2"
	case RatePercentage:
		return "percentage"
	default:
		return fmt.Sprintf("RateType(%d)", int(t))
	}
}

// ParseRateType parses a wire name produced by RateType.String.
func ParseRateType(s string) (RateType, error) {
	switch s {
	case "pps", "":
		return RatePPS, nil
	case "bps_l1":
		return RateBPSL1, nil
	case "bps_l2":
		return RateBPSL2, nil
	case "percentage":
		return RatePercentage, nil
	}
	return RatePPS, fmt.Errorf("unknown rate type %q", s)
}

// Rate is a stream's base rate. Other representations are derived from it.
type Rate struct {
	Type  RateType
	Value float64
}

// PPS returns a packets-per-second rate.
func PPS(v float64) Rate {
	return Rate{Type: RatePPS, Value: v}
}

// Resolve derives pps, L2 and L1 bit rates from the base value.
// packetSize is the L2 frame size in bytes; lineSpeed is in bits/sec and is
// only consulted for percentage rates.
func (r Rate) Resolve(packetSize int, lineSpeed float64) Bandwidth {
	size := float64(packetSize)
	if size <= 0 || r.Value <= 0 {
		return Bandwidth{}
	}
	if lineSpeed <= 0 {
		lineSpeed = DefaultLineSpeed
	}

	var bw Bandwidth
	switch r.Type {
	case RatePPS:
		bw.PPS = r.Value
		bw.BPSL2 = r.Value * size * 8
		bw.BPSL1 = r.Value * (size + L1Overhead) * 8
	case RateBPSL1:
		bw.BPSL1 = r.Value
		bw.BPSL2 = r.Value * size / (size + L1Overhead)
		bw.PPS = bw.BPSL2 / (8 * size)
	case RateBPSL2:
		bw.BPSL2 = r.Value
		bw.BPSL1 = r.Value * (size + L1Overhead) / size
		bw.PPS = r.Value / (8 * size)
	case RatePercentage:
		bw.BPSL1 = r.Value / 100 * lineSpeed
		bw.BPSL2 = bw.BPSL1 * size / (size + L1Overhead)
		bw.PPS = bw.BPSL2 / (8 * size)
	}
	return bw
}

// Percentage returns the L1 bit rate as a percentage of lineSpeed.
func (r Rate) Percentage(packetSize int, lineSpeed float64) float64 {
	if lineSpeed <= 0 {
		lineSpeed = DefaultLineSpeed
	}
	return r.Resolve(packetSize, lineSpeed).BPSL1 / lineSpeed * 100
}

// Bandwidth is an offered load in packets/sec and bits/sec.
type Bandwidth struct {
	PPS   float64 `json:"pps"`
	BPSL2 float64 `json:"bps_l2"`
	BPSL1 float64 `json:"bps_l1"`
}

// Add returns the sum of two bandwidths.
func (b Bandwidth) Add(o Bandwidth) Bandwidth {
	return Bandwidth{PPS: b.PPS + o.PPS, BPSL2: b.BPSL2 + o.BPSL2, BPSL1: b.BPSL1 + o.BPSL1}
}

// Neg returns the negated bandwidth.
func (b Bandwidth) Neg() Bandwidth {
	return Bandwidth{PPS: -b.PPS, BPSL2: -b.BPSL2, BPSL1: -b.BPSL1}
}

// Max returns the component-wise maximum.
func (b Bandwidth) Max(o Bandwidth) Bandwidth {
	return Bandwidth{
		PPS:   math.Max(b.PPS, o.PPS),
		BPSL2: math.Max(b.BPSL2, o.BPSL2),
		BPSL1: math.Max(b.BPSL1, o.BPSL1),
	}
}
