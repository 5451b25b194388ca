// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package sensors

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// BusServoConfig maps the logical sweep range onto a window of raw counts
// on an STS-series bus servo. The count window doubles as the calibration:
// CountMin is where MinAngleDeg points, CountMax where MaxAngleDeg points.
type BusServoConfig struct {
	Port        string
	Baud        int
	ID          int
	CountMin    int
	CountMax    int
	MinAngleDeg float64
	MaxAngleDeg float64
	Settle      time.Duration
}

// BusServo positions the mast through a Feetech serial bus servo. The
// variant of the robot with the metal-gear mast uses this instead of the
// PWM hobby servo.
type BusServo struct {
	cfg   BusServoConfig
	bus   *feetech.Bus
	group *feetech.ServoGroup
}

// NewBusServo opens the servo bus and enables torque on the mast servo.
func NewBusServo(cfg BusServoConfig) (*BusServo, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.Baud,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("feetech bus open: %w", err)
	}
	group := feetech.NewServoGroupByIDs(bus, cfg.ID)
	if err := group.EnableAll(context.Background()); err != nil {
		bus.Close()
		return nil, fmt.Errorf("servo torque enable: %w", err)
	}
	return &BusServo{cfg: cfg, bus: bus, group: group}, nil
}

// Position swings the mast to a logical angle and blocks for the settle
// time.
func (s *BusServo) Position(angleDeg float64) error {
	if angleDeg < s.cfg.MinAngleDeg {
		angleDeg = s.cfg.MinAngleDeg
	}
	if angleDeg > s.cfg.MaxAngleDeg {
		angleDeg = s.cfg.MaxAngleDeg
	}
	fraction := (angleDeg - s.cfg.MinAngleDeg) / (s.cfg.MaxAngleDeg - s.cfg.MinAngleDeg)
	count := s.cfg.CountMin + int(math.Round(fraction*float64(s.cfg.CountMax-s.cfg.CountMin)))

	if err := s.group.SetPositions(context.Background(), feetech.PositionMap{s.cfg.ID: count}); err != nil {
		return fmt.Errorf("servo position: %w", err)
	}
	time.Sleep(s.cfg.Settle)
	return nil
}

// Close drops torque so the mast can be moved by hand, then releases the
// bus.
func (s *BusServo) Close() error {
	if err := s.group.DisableAll(context.Background()); err != nil {
		s.bus.Close()
		return err
	}
	return s.bus.Close()
}
