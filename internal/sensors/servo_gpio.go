package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// Hobby servo timing: 50Hz frame, position encoded in the pulse width.
const (
	servoPWMFreq  = 50 * physic.Hertz
	servoPeriodUs = 20000
)

// MastServoConfig maps the logical sweep range onto pulse widths.
// A mirrored mounting is handled by swapping PulseMinUs and PulseMaxUs,
// not by changing the logical angles.
type MastServoConfig struct {
	Pin         string
	MinAngleDeg float64
	MaxAngleDeg float64
	PulseMinUs  int
	PulseMaxUs  int
	Settle      time.Duration
}

// MastServo drives the rangefinder mast through hardware PWM. It satisfies
// the sweep package's Positioner interface.
type MastServo struct {
	cfg MastServoConfig
	pin gpio.PinOut
}

func NewMastServo(cfg MastServoConfig) (*MastServo, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	pin := gpioreg.ByName(cfg.Pin)
	if pin == nil {
		return nil, fmt.Errorf("servo pin %q not found", cfg.Pin)
	}
	return &MastServo{cfg: cfg, pin: pin}, nil
}

// Position swings the mast to a logical angle and blocks for the settle
// time so the next distance sample is taken from a steady mast.
func (s *MastServo) Position(angleDeg float64) error {
	if angleDeg < s.cfg.MinAngleDeg {
		angleDeg = s.cfg.MinAngleDeg
	}
	if angleDeg > s.cfg.MaxAngleDeg {
		angleDeg = s.cfg.MaxAngleDeg
	}
	fraction := (angleDeg - s.cfg.MinAngleDeg) / (s.cfg.MaxAngleDeg - s.cfg.MinAngleDeg)
	pulseUs := float64(s.cfg.PulseMinUs) + fraction*float64(s.cfg.PulseMaxUs-s.cfg.PulseMinUs)
	duty := gpio.Duty(pulseUs / servoPeriodUs * float64(gpio.DutyMax))

	if err := s.pin.PWM(duty, servoPWMFreq); err != nil {
		return fmt.Errorf("servo pwm: %w", err)
	}
	time.Sleep(s.cfg.Settle)
	return nil
}

func (s *MastServo) Close() error {
	return s.pin.Halt()
}
