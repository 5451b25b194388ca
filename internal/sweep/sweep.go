// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sweep

import (
	"math"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

// Positioner points the rangefinder mast at a logical angle in degrees
// (clockwise-positive, 0 straight ahead). Implementations map the
// logical range onto hardware units and block until the mast settles.
type Positioner interface {
	Position(angleDeg float64) error
}

// Config shapes the sweep pattern and the sample classification.
type Config struct {
	MinAngleDeg float64 // left extreme
	MaxAngleDeg float64 // right extreme
	StepDeg     float64
	Samples     int // median window per step

	// Classification zones. Angles inside the forward cone update the
	// forward sector; angles at or past the side thresholds update the
	// left/right sectors; everything between updates no sector.
	ForwardConeDeg    float64
	LeftThresholdDeg  float64
	RightThresholdDeg float64

	RawCap int // raw readings retained per sweep
}

// DefaultConfig covers the mast's full physical range.
func DefaultConfig() Config {
	return Config{
		MinAngleDeg:       -90,
		MaxAngleDeg:       90,
		StepDeg:           10,
		Samples:           5,
		ForwardConeDeg:    15,
		LeftThresholdDeg:  -60,
		RightThresholdDeg: 60,
		RawCap:            24,
	}
}

// Scanner drives the mast through a triangle sweep and folds filtered
// samples into the sector profile. Not safe for concurrent use; the
// control loop is the only caller.
type Scanner struct {
	cfg    Config
	servo  Positioner
	ranger Rangefinder

	angle         float64
	direction     float64
	steps         int
	stepsPerSweep int

	profile nav.SectorProfile
	seeded  [nav.SectorCount]bool
	raw     []nav.PolarReading
}

// New builds a scanner parked at the left extreme, about to sweep right.
// Zero or missing config fields fall back to defaults.
func New(cfg Config, servo Positioner, ranger Rangefinder) *Scanner {
	def := DefaultConfig()
	if cfg.StepDeg <= 0 {
		cfg.StepDeg = def.StepDeg
	}
	if cfg.MaxAngleDeg <= cfg.MinAngleDeg {
		cfg.MinAngleDeg = def.MinAngleDeg
		cfg.MaxAngleDeg = def.MaxAngleDeg
	}
	if cfg.RawCap <= 0 {
		cfg.RawCap = def.RawCap
	}
	if cfg.ForwardConeDeg <= 0 {
		cfg.ForwardConeDeg = def.ForwardConeDeg
	}
	if cfg.LeftThresholdDeg == 0 {
		cfg.LeftThresholdDeg = def.LeftThresholdDeg
	}
	if cfg.RightThresholdDeg == 0 {
		cfg.RightThresholdDeg = def.RightThresholdDeg
	}

	return &Scanner{
		cfg:           cfg,
		servo:         servo,
		ranger:        ranger,
		angle:         cfg.MinAngleDeg,
		direction:     1,
		stepsPerSweep: int(math.Round((cfg.MaxAngleDeg - cfg.MinAngleDeg) / cfg.StepDeg)),
		profile:       nav.NewSectorProfile(),
		raw:           make([]nav.PolarReading, 0, cfg.RawCap),
	}
}

// Step advances the mast one increment, reversing at the extremes, then
// takes one filtered measurement and folds it into the profile. The
// returned reading is what was appended to the raw buffer. A servo error
// does not suppress the measurement; it is returned for logging only.
func (s *Scanner) Step() (nav.PolarReading, error) {
	if s.angle >= s.cfg.MaxAngleDeg {
		s.direction = -1
	} else if s.angle <= s.cfg.MinAngleDeg {
		s.direction = 1
	}
	s.angle += s.direction * s.cfg.StepDeg
	if s.angle > s.cfg.MaxAngleDeg {
		s.angle = s.cfg.MaxAngleDeg
	}
	if s.angle < s.cfg.MinAngleDeg {
		s.angle = s.cfg.MinAngleDeg
	}
	err := s.servo.Position(s.angle)
	s.steps++

	d := MeasureMedian(s.ranger, s.cfg.Samples)
	if d <= 0 || d > nav.MaxDistanceCm {
		d = nav.FarDistanceCm
	} else if d < nav.MinDistanceCm {
		d = nav.MinDistanceCm
	}

	if sector, ok := s.classify(s.angle); ok {
		if s.seeded[sector] {
			// Fixed-weight blend: one noisy sample cannot whipsaw a
			// sector the planner is about to steer by.
			s.profile[sector] = 0.6*s.profile[sector] + 0.4*d
		} else {
			s.profile[sector] = d
			s.seeded[sector] = true
		}
	}

	reading := nav.PolarReading{AngleDeg: s.angle, DistanceCm: d}
	if len(s.raw) == s.cfg.RawCap {
		copy(s.raw, s.raw[1:])
		s.raw[len(s.raw)-1] = reading
	} else {
		s.raw = append(s.raw, reading)
	}

	return reading, err
}

// classify buckets an angle into the forward, left, or right sector.
// Angles between the cone and the side thresholds leave the profile
// untouched; their raw readings still reach the uplink.
func (s *Scanner) classify(angle float64) (int, bool) {
	switch {
	case math.Abs(angle) <= s.cfg.ForwardConeDeg:
		return nav.SectorForward, true
	case angle <= s.cfg.LeftThresholdDeg:
		return nav.SectorLeft, true
	case angle >= s.cfg.RightThresholdDeg:
		return nav.SectorRight, true
	}
	return 0, false
}

// SweepComplete reports, exactly once per traversal, that the mast has
// crossed from one extreme to the other. The step counter resets when it
// fires, so callers may poll it after every Step.
func (s *Scanner) SweepComplete() bool {
	if s.steps < s.stepsPerSweep {
		return false
	}
	if s.angle != s.cfg.MinAngleDeg && s.angle != s.cfg.MaxAngleDeg {
		return false
	}
	s.steps = 0
	return true
}

// Profile returns a copy of the current sector profile.
func (s *Scanner) Profile() nav.SectorProfile { return s.profile }

// Readings returns a copy of the raw angle/distance pairs collected this
// sweep, oldest first.
func (s *Scanner) Readings() []nav.PolarReading {
	out := make([]nav.PolarReading, len(s.raw))
	copy(out, s.raw)
	return out
}

// Angle returns the mast's current logical angle.
func (s *Scanner) Angle() float64 { return s.angle }

// Buffered returns the number of raw readings waiting in the buffer.
func (s *Scanner) Buffered() int { return len(s.raw) }

// Drain hands back the buffered raw readings and empties the buffer.
// Telemetry streaming uses this to ship fixed-size chunks mid-sweep.
func (s *Scanner) Drain() []nav.PolarReading {
	out := make([]nav.PolarReading, len(s.raw))
	copy(out, s.raw)
	s.raw = s.raw[:0]
	return out
}

// Reset restores every sector to the far default and clears the raw
// buffer, ready for the next sweep. The mast stays where it is; the next
// traversal starts from the extreme it is parked at.
func (s *Scanner) Reset() {
	s.profile = nav.NewSectorProfile()
	s.seeded = [nav.SectorCount]bool{}
	s.raw = s.raw[:0]
	s.steps = 0
}
