package sweep

import (
	"sort"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

// Rangefinder produces one time-of-flight distance measurement in
// centimeters. Zero means no echo within the hardware timeout.
type Rangefinder interface {
	MeasureOnce() float64
}

// Median window bounds. Below three samples the filter cannot reject an
// outlier; above eight a single step takes too long.
const (
	minMedianSamples = 3
	maxMedianSamples = 8
)

// MeasureMedian takes up to samples raw measurements (clamped to the
// window bounds), drops invalid ones, and returns the median of the
// rest. The result depends only on the multiset of samples, not their
// order. Returns 0 when no sample is valid; callers substitute the far
// default.
func MeasureMedian(r Rangefinder, samples int) float64 {
	if samples < minMedianSamples {
		samples = minMedianSamples
	}
	if samples > maxMedianSamples {
		samples = maxMedianSamples
	}

	valid := make([]float64, 0, samples)
	for i := 0; i < samples; i++ {
		d := r.MeasureOnce()
		if d <= 0 || d > nav.MaxValidCm {
			continue // no echo, or an implausible one
		}
		if d < nav.MinDistanceCm || d > nav.MaxDistanceCm {
			continue
		}
		valid = append(valid, d)
	}
	if len(valid) == 0 {
		return 0
	}

	sort.Float64s(valid)
	mid := len(valid) / 2
	if len(valid)%2 == 1 {
		return valid[mid]
	}
	return (valid[mid-1] + valid[mid]) / 2
}
