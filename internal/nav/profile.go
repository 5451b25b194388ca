package nav

import "math"

// Distance limits for the ultrasonic rangefinder, in centimeters.
const (
	MinDistanceCm = 2.0
	MaxDistanceCm = 400.0

	// FarDistanceCm stands in for headings without a valid echo. Unknown
	// space is treated as open so the robot keeps exploring instead of
	// freezing in place.
	FarDistanceCm = MaxDistanceCm

	// MaxValidCm cuts off implausible echoes (multi-path, crosstalk)
	// before they reach the median filter.
	MaxValidCm = 450.0
)

// The profile covers a full turn in fixed angular buckets. Only part of
// the circle is physically swept; unswept sectors keep the far default.
const (
	SectorCount    = 12
	SectorWidthDeg = 30.0
)

// Named sectors. Headings are clockwise-positive with 0 straight ahead,
// so +90 (right) lands in sector 3 and -90 (left) wraps to sector 9.
const (
	SectorForward = 0
	SectorRight   = 3
	SectorLeft    = 9
)

// PolarReading is one raw rangefinder sample taken at a sweep angle.
type PolarReading struct {
	AngleDeg   float64 `json:"angle"`
	DistanceCm float64 `json:"distance"`
}

// SectorProfile holds one smoothed distance per sector.
type SectorProfile [SectorCount]float64

// NewSectorProfile returns a profile with every sector at the far default.
func NewSectorProfile() SectorProfile {
	var p SectorProfile
	for i := range p {
		p[i] = FarDistanceCm
	}
	return p
}

// Forward returns the smoothed distance straight ahead.
func (p SectorProfile) Forward() float64 { return p[SectorForward] }

// Left returns the smoothed distance at -90 degrees.
func (p SectorProfile) Left() float64 { return p[SectorLeft] }

// Right returns the smoothed distance at +90 degrees.
func (p SectorProfile) Right() float64 { return p[SectorRight] }

// SectorIndex maps a heading in degrees onto its sector. Negative angles
// wrap, so -90 maps to sector 9.
func SectorIndex(angleDeg float64) int {
	i := int(math.Round(angleDeg/SectorWidthDeg)) % SectorCount
	if i < 0 {
		i += SectorCount
	}
	return i
}

// SectorHeading is the inverse of SectorIndex: the center heading of a
// sector, normalized into (-180, 180].
func SectorHeading(index int) float64 {
	deg := float64(index) * SectorWidthDeg
	if deg > 180 {
		deg -= 360
	}
	return deg
}

// sanitizeDistance replaces anything a sensor glitch could have left
// behind. Non-positive, NaN, and beyond-max values become the far
// default; values under the rangefinder floor clamp up to it.
func sanitizeDistance(d float64) float64 {
	if math.IsNaN(d) || d <= 0 || d > MaxDistanceCm {
		return FarDistanceCm
	}
	if d < MinDistanceCm {
		return MinDistanceCm
	}
	return d
}
