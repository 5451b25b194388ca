// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Sonar is an HC-SR04 ultrasonic rangefinder on a trigger/echo pin pair.
// It satisfies the sweep package's Rangefinder interface.
type Sonar struct {
	trig        gpio.PinOut
	echo        gpio.PinIn
	echoTimeout time.Duration
}

// NewSonar claims both pins and arms edge detection on the echo line.
func NewSonar(trigPin, echoPin string, echoTimeout time.Duration) (*Sonar, error) {
	if err := initHost(); err != nil {
		return nil, err
	}
	trig := gpioreg.ByName(trigPin)
	if trig == nil {
		return nil, fmt.Errorf("sonar trigger pin %q not found", trigPin)
	}
	echo := gpioreg.ByName(echoPin)
	if echo == nil {
		return nil, fmt.Errorf("sonar echo pin %q not found", echoPin)
	}
	if err := trig.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("sonar trigger pin init: %w", err)
	}
	if err := echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("sonar echo pin init: %w", err)
	}
	return &Sonar{trig: trig, echo: echo, echoTimeout: echoTimeout}, nil
}

// MeasureOnce fires one ultrasonic pulse and times the echo, returning the
// distance in centimeters. A missing echo (open space beyond range, soft
// target, loose wiring) reads as 0; the median filter discards it.
func (s *Sonar) MeasureOnce() float64 {
	if s.trig.Out(gpio.High) != nil {
		return 0
	}
	time.Sleep(10 * time.Microsecond)
	if s.trig.Out(gpio.Low) != nil {
		return 0
	}

	// Echo goes high when the pulse leaves, low when it returns.
	if !s.echo.WaitForEdge(s.echoTimeout) {
		return 0
	}
	start := time.Now()
	if !s.echo.WaitForEdge(s.echoTimeout) {
		return 0
	}

	// Sound covers one round-trip centimeter in 58µs.
	return float64(time.Since(start).Microseconds()) / 58.0
}
