package link

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

const (
	// MaxFrameReadings caps the sweep payload per uplink line.
	MaxFrameReadings = 8

	// MaxFrameBytes is the hard ceiling for one encoded line, chosen to
	// fit the UART transmit buffer on the far side with room to spare.
	MaxFrameBytes = 512
)

// Reading is a single rangefinder sample as it crosses the wire.
type Reading struct {
	AngleDeg   float64 `json:"angle"`
	DistanceCm float64 `json:"distance"`
}

// Frame is one newline-terminated uplink record. Environment fields are
// pointers so that a robot without a working climate sensor simply omits
// them instead of reporting zeroes.
type Frame struct {
	TimestampMs uint32    `json:"timestamp_ms"`
	AirTempC    *float64  `json:"air_temp_c,omitempty"`
	HumidityPct *float64  `json:"humidity_pct,omitempty"`
	Readings    []Reading `json:"readings"`
}

// BuildFrame assembles an uplink frame from the most recent sweep readings
// and the latest environment sample. Only the newest MaxFrameReadings
// readings are kept; numeric fields are rounded to one decimal place to
// keep lines short.
func BuildFrame(readings []nav.PolarReading, sample env.Sample, envOK bool, elapsedMs uint32) Frame {
	if n := len(readings); n > MaxFrameReadings {
		readings = readings[n-MaxFrameReadings:]
	}
	out := make([]Reading, 0, len(readings))
	for _, r := range readings {
		out = append(out, Reading{
			AngleDeg:   round1(r.AngleDeg),
			DistanceCm: round1(r.DistanceCm),
		})
	}
	f := Frame{TimestampMs: elapsedMs, Readings: out}
	if envOK {
		t := round1(sample.AirTempC)
		h := round1(sample.HumidityPct)
		f.AirTempC = &t
		f.HumidityPct = &h
	}
	return f
}

// Encode renders the frame as a single JSON line. If the encoded form would
// exceed MaxFrameBytes the sweep payload is dropped and the smaller frame is
// sent instead, so the receiver never sees a truncated line.
func (f Frame) Encode() ([]byte, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	if len(b)+1 > MaxFrameBytes {
		small := f
		small.Readings = []Reading{}
		if b, err = json.Marshal(small); err != nil {
			return nil, fmt.Errorf("encoding frame: %w", err)
		}
	}
	return append(b, '\n'), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
