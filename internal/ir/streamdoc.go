package ir

import (
	"encoding/json"
	"fmt"
	"time"
)

// StreamDoc is the flat, serializable form of a Stream used by profile files
// and by JSON output. Gaps are expressed in microseconds.
type StreamDoc struct {
	ID         int     `json:"id" yaml:"id"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	NextID     *int    `json:"next_id,omitempty" yaml:"next_id,omitempty"`
	Enabled    *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	SelfStart  bool    `json:"self_start" yaml:"self_start"`
	Type       string  `json:"type" yaml:"type"`
	ISGUsec    float64 `json:"isg_usec,omitempty" yaml:"isg_usec,omitempty"`
	IBGUsec    float64 `json:"ibg_usec,omitempty" yaml:"ibg_usec,omitempty"`
	Packets    uint32  `json:"packets,omitempty" yaml:"packets,omitempty"`
	Bursts     uint32  `json:"bursts,omitempty" yaml:"bursts,omitempty"`
	RateType   string  `json:"rate_type,omitempty" yaml:"rate_type,omitempty"`
	Rate       float64 `json:"rate" yaml:"rate"`
	PacketSize int     `json:"packet_size" yaml:"packet_size"`
	FixedRate  bool    `json:"fixed_rate,omitempty" yaml:"fixed_rate,omitempty"`
}

// ToStream converts the document into a Stream.
// Omitted next_id means NoNext; omitted enabled means true.
func (d StreamDoc) ToStream() (Stream, error) {
	kind, err := ParseKind(d.Type)
	if err != nil {
		return Stream{}, fmt.Errorf("stream %d: %w", d.ID, err)
	}
	rateType, err := ParseRateType(d.RateType)
	if err != nil {
		return Stream{}, fmt.Errorf("stream %d: %w", d.ID, err)
	}

	s := Stream{
		ID:         d.ID,
		NextID:     NoNext,
		Name:       d.Name,
		Enabled:    true,
		SelfStart:  d.SelfStart,
		ISG:        usec(d.ISGUsec),
		Rate:       Rate{Type: rateType, Value: d.Rate},
		PacketSize: d.PacketSize,
		FixedRate:  d.FixedRate,
	}
	if d.NextID != nil {
		s.NextID = *d.NextID
	}
	if d.Enabled != nil {
		s.Enabled = *d.Enabled
	}

	switch kind {
	case KindContinuous:
		s.Mode = Continuous{}
	case KindSingleBurst:
		s.Mode = SingleBurst{Packets: d.Packets}
	case KindMultiBurst:
		s.Mode = MultiBurst{Packets: d.Packets, Count: d.Bursts, IBG: usec(d.IBGUsec)}
	}
	return s, nil
}

// DocOf converts a Stream into its flat document form.
func DocOf(s Stream) StreamDoc {
	enabled := s.Enabled
	d := StreamDoc{
		ID:         s.ID,
		Name:       s.Name,
		Enabled:    &enabled,
		SelfStart:  s.SelfStart,
		Type:       s.Kind().String(),
		ISGUsec:    toUsec(s.ISG),
		RateType:   s.Rate.Type.String(),
		Rate:       s.Rate.Value,
		PacketSize: s.PacketSize,
		FixedRate:  s.FixedRate,
	}
	if s.HasNext() {
		next := s.NextID
		d.NextID = &next
	}
	switch m := s.Mode.(type) {
	case SingleBurst:
		d.Packets = m.Packets
	case MultiBurst:
		d.Packets = m.Packets
		d.Bursts = m.Count
		d.IBGUsec = toUsec(m.IBG)
	}
	return d
}

// MarshalJSON renders the stream in its flat document form.
func (s Stream) MarshalJSON() ([]byte, error) {
	return json.Marshal(DocOf(s))
}

// UnmarshalJSON parses the flat document form.
func (s *Stream) UnmarshalJSON(data []byte) error {
	var d StreamDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	parsed, err := d.ToStream()
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func usec(v float64) time.Duration {
	return time.Duration(v * float64(time.Microsecond))
}

func toUsec(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
