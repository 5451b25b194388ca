package nav

import (
	"math"
	"time"
)

// Turn duration tier boundaries, in degrees of requested turn.
const (
	SmallTurnMaxDeg  = 20.0
	MediumTurnMaxDeg = 50.0
)

// Durations bucket commands into drive pulse lengths. The chassis has no
// encoders; turn angle is approximated by pulsing the motors for a tier
// matched to the turn magnitude.
type Durations struct {
	Small  time.Duration // |turn| <= SmallTurnMaxDeg
	Medium time.Duration // |turn| <= MediumTurnMaxDeg
	Large  time.Duration
	Move   time.Duration // forward/backward pulse
}

// DefaultDurations matches the pulse timing the chassis was tuned with.
var DefaultDurations = Durations{
	Small:  250 * time.Millisecond,
	Medium: 450 * time.Millisecond,
	Large:  800 * time.Millisecond,
	Move:   350 * time.Millisecond,
}

// For returns how long cmd should be applied. Stop is instantaneous.
func (d Durations) For(cmd Command, turnDeg float64) time.Duration {
	switch cmd {
	case Forward, Backward:
		return d.Move
	case TurnLeft, TurnRight:
		mag := math.Abs(turnDeg)
		switch {
		case mag <= SmallTurnMaxDeg:
			return d.Small
		case mag <= MediumTurnMaxDeg:
			return d.Medium
		default:
			return d.Large
		}
	}
	return 0
}
