package ir

// RateEvent is a signed change in aggregate offered load at an absolute time
// offset (seconds) from program start.
type RateEvent struct {
	Time     float64 `json:"time"`
	DeltaPPS float64 `json:"delta_pps"`
	DeltaBPS float64 `json:"delta_bps"` // L2
	DeltaL1  float64 `json:"delta_bps_l1"`
	StreamID int     `json:"stream_id"`
}

// Delta returns the event's change as a Bandwidth.
func (e RateEvent) Delta() Bandwidth {
	return Bandwidth{PPS: e.DeltaPPS, BPSL2: e.DeltaBPS, BPSL1: e.DeltaL1}
}

// NewRateEvent builds an event from a bandwidth delta.
func NewRateEvent(t float64, streamID int, delta Bandwidth) RateEvent {
	return RateEvent{
		Time:     t,
		DeltaPPS: delta.PPS,
		DeltaBPS: delta.BPSL2,
		DeltaL1:  delta.BPSL1,
		StreamID: streamID,
	}
}
