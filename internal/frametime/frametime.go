// Package frametime is the single source of truth for converting between
// frame indices and elapsed seconds at a fixed sampling rate. Both the
// hydration of fetched records (which store seconds) and the persistence of
// frame-indexed edits go through this mapper.
package frametime

import (
	"math"
	"strconv"
	"strings"
)

// DefaultRate is the sampling rate in frames per second used when none is
// configured.
const DefaultRate = 30

// Mapper converts frame indices to seconds and back at a fixed rate.
type Mapper struct {
	rate int
}

// NewMapper returns a mapper for the given sampling rate, falling back to
// DefaultRate when the rate is not positive.
func NewMapper(rate int) Mapper {
	if rate <= 0 {
		rate = DefaultRate
	}
	return Mapper{rate: rate}
}

// Rate returns the sampling rate in frames per second.
func (m Mapper) Rate() int { return m.rate }

// FrameToSeconds converts a frame number to elapsed seconds.
func (m Mapper) FrameToSeconds(frame int) float64 {
	return float64(frame) / float64(m.rate)
}

// SecondsToFrame converts elapsed seconds to a frame number, truncating to
// the frame that contains the instant. The small epsilon absorbs binary
// rounding when the input sits exactly on a frame boundary, so the
// round-trip with FrameToSeconds is exact at frame granularity.
func (m Mapper) SecondsToFrame(seconds float64) int {
	return int(math.Floor(seconds*float64(m.rate) + 1e-6))
}

// ParseDuration canonicalizes a duration expressed as "HH:MM:SS", "MM:SS"
// or a raw second count into seconds. Unrecognized input yields 0 rather
// than an error; the value only ever bounds a seek range.
func ParseDuration(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0
	}
	var total float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v < 0 {
			return 0
		}
		total = total*60 + v
	}
	return total
}
