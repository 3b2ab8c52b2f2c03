package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// DomainProfile is the domain prefix for profile hashes.
// The version suffix leaves room for a future algorithm migration.
const DomainProfile = "stlc/profile/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProfileHash computes a content-addressed identity for a stream set.
// Only enabled streams participate, in input order; the hash is stable across
// runs given the same descriptors.
func ProfileHash(streams []Stream) (string, error) {
	list := make([]any, 0, len(streams))
	for _, s := range streams {
		if !s.Enabled {
			continue
		}
		list = append(list, canonicalStream(s))
	}

	canonical, err := MarshalCanonical(map[string]any{
		"schema":  SchemaVersion,
		"streams": list,
	})
	if err != nil {
		return "", fmt.Errorf("ProfileHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProfile, canonical), nil
}

// MustProfileHash is like ProfileHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProfileHash(streams []Stream) string {
	h, err := ProfileHash(streams)
	if err != nil {
		panic(err)
	}
	return h
}

func canonicalStream(s Stream) map[string]any {
	obj := map[string]any{
		"id":          s.ID,
		"next_id":     s.NextID,
		"name":        s.Name,
		"self_start":  s.SelfStart,
		"type":        s.Kind().String(),
		"isg_ns":      int64(s.ISG / time.Nanosecond),
		"rate_type":   s.Rate.Type.String(),
		"rate":        CanonicalFloat(s.Rate.Value),
		"packet_size": s.PacketSize,
		"fixed_rate":  s.FixedRate,
	}
	switch m := s.Mode.(type) {
	case SingleBurst:
		obj["packets"] = m.Packets
	case MultiBurst:
		obj["packets"] = m.Packets
		obj["bursts"] = m.Count
		obj["ibg_ns"] = int64(m.IBG / time.Nanosecond)
	}
	return obj
}
