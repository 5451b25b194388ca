package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

// DrivePins names the four H-bridge direction inputs.
type DrivePins struct {
	LeftFwd  string
	LeftRev  string
	RightFwd string
	RightRev string
}

// Drivetrain is binary direction control over two independently driven
// sides: full forward, full reverse, or off. No PWM speed modulation.
// Turns are skid-steer pivots with one side reversed.
type Drivetrain struct {
	leftFwd  gpio.PinOut
	leftRev  gpio.PinOut
	rightFwd gpio.PinOut
	rightRev gpio.PinOut
}

// NewDrivetrain claims the four direction pins and parks them low.
func NewDrivetrain(pins DrivePins) (*Drivetrain, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	claim := func(name string) (gpio.PinOut, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("motor pin %q not found", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("motor pin %s init: %w", name, err)
		}
		return p, nil
	}

	d := &Drivetrain{}
	var err error
	if d.leftFwd, err = claim(pins.LeftFwd); err != nil {
		return nil, err
	}
	if d.leftRev, err = claim(pins.LeftRev); err != nil {
		return nil, err
	}
	if d.rightFwd, err = claim(pins.RightFwd); err != nil {
		return nil, err
	}
	if d.rightRev, err = claim(pins.RightRev); err != nil {
		return nil, err
	}
	return d, nil
}

// Apply sets the direction pins for a command.
func (d *Drivetrain) Apply(cmd nav.Command) error {
	var lf, lr, rf, rr gpio.Level
	switch cmd {
	case nav.Forward:
		lf, rf = gpio.High, gpio.High
	case nav.Backward:
		lr, rr = gpio.High, gpio.High
	case nav.TurnLeft:
		// Left side reversed, right side forward: pivot counter-clockwise.
		lr, rf = gpio.High, gpio.High
	case nav.TurnRight:
		lf, rr = gpio.High, gpio.High
	case nav.Stop:
		// everything stays low
	}
	return d.set(lf, lr, rf, rr)
}

// set drops every pin before raising the new pair. The two inputs of one
// bridge half must never be high at the same instant.
func (d *Drivetrain) set(lf, lr, rf, rr gpio.Level) error {
	pins := []gpio.PinOut{d.leftFwd, d.leftRev, d.rightFwd, d.rightRev}
	levels := []gpio.Level{lf, lr, rf, rr}
	for _, p := range pins {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("motor pin %s: %w", p.Name(), err)
		}
	}
	for i, p := range pins {
		if levels[i] == gpio.High {
			if err := p.Out(gpio.High); err != nil {
				return fmt.Errorf("motor pin %s: %w", p.Name(), err)
			}
		}
	}
	return nil
}

// Close stops both sides and leaves every pin low.
func (d *Drivetrain) Close() error {
	return d.set(gpio.Low, gpio.Low, gpio.Low, gpio.Low)
}
