// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/blackbox"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/config"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/link"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/motor"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/pilot"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/sensors"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/sweep"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/telemetry"
)

// RunScout wires the hardware to the control loop and runs it until the
// context is cancelled.
func RunScout(ctx context.Context, cfg *config.Config) error {
	log.Println("starting heat-mapping scout")

	// --- rangefinder ---
	sonar, err := sensors.NewSonar(cfg.SonarTrigPin, cfg.SonarEchoPin, ms(cfg.SonarEchoTimeoutMs))
	if err != nil {
		return fmt.Errorf("sonar init: %w", err)
	}

	// --- mast servo ---
	servo, closeServo, err := openServo(cfg)
	if err != nil {
		return err
	}
	defer closeServo()

	// --- drivetrain ---
	var motors motor.Driver = motor.Nop{}
	if cfg.MotorsEnabled {
		drive, err := sensors.NewDrivetrain(sensors.DrivePins{
			LeftFwd:  cfg.MotorLeftFwdPin,
			LeftRev:  cfg.MotorLeftRevPin,
			RightFwd: cfg.MotorRightFwdPin,
			RightRev: cfg.MotorRightRevPin,
		})
		if err != nil {
			return fmt.Errorf("drivetrain init: %w", err)
		}
		motors = drive
	} else {
		log.Println("motors disabled, running with a no-op drivetrain")
	}
	defer motors.Close()

	// --- climate sensor ---
	var monitor *env.Monitor
	if climate, err := sensors.NewClimate(cfg.I2CBus, cfg.BME280Addr); err != nil {
		log.Printf("WARNING: climate sensor unavailable: %v", err)
		monitor = env.NewMonitor(nil, 0)
	} else {
		defer climate.Close()
		monitor = env.NewMonitor(climate, ms(cfg.EnvIntervalMs))
	}

	// --- backend link ---
	var uplink *link.Link
	if cfg.Mode != config.ModeStandalone {
		port, err := openLink(cfg)
		if err != nil {
			return err
		}
		uplink = link.New(port)
		defer uplink.Close()
	}

	// --- sweep scanner ---
	scanCfg := sweep.DefaultConfig()
	scanCfg.MinAngleDeg = cfg.SweepMinDeg
	scanCfg.MaxAngleDeg = cfg.SweepMaxDeg
	scanCfg.StepDeg = cfg.SweepStepDeg
	scanCfg.Samples = cfg.SonarSamples
	scanner := sweep.New(scanCfg, servo, sonar)

	// --- MQTT mirror ---
	var mirror *telemetry.Publisher
	if cfg.MQTTBroker != "" {
		if p, err := telemetry.Connect(cfg.MQTTBroker, cfg.MQTTClientIDScout, telemetry.Topics{
			Frame:    cfg.TopicFrame,
			Decision: cfg.TopicDecision,
			Env:      cfg.TopicEnv,
		}); err != nil {
			log.Printf("WARNING: MQTT mirror unavailable: %v", err)
		} else {
			mirror = p
			defer mirror.Close()
			log.Printf("mirroring telemetry to %s", cfg.MQTTBroker)
		}
	}

	// --- blackbox recorder ---
	var recorder *blackbox.DB
	if cfg.BlackboxPath != "" {
		recorder, err = blackbox.Open(cfg.BlackboxPath)
		if err != nil {
			return fmt.Errorf("blackbox open: %w", err)
		}
		defer recorder.Close()
		log.Printf("recording sweeps to %s", cfg.BlackboxPath)
	}

	onCycle := func(r pilot.Report) {
		if mirror != nil {
			mirror.PublishFrame(r.Frame)
			if r.Source != pilot.SourceNone {
				mirror.PublishDecision(r.Decision)
			}
			if r.EnvOK {
				mirror.PublishEnv(r.Env)
			}
		}
		if recorder != nil {
			if err := recorder.RecordSweep(blackbox.SweepRecord{
				UptimeMs: r.Uptime.Milliseconds(),
				Profile:  r.Profile,
				Decision: r.Decision,
				Source:   r.Source,
				AirTempC: r.Env.AirTempC,
				Humidity: r.Env.HumidityPct,
				HaveEnv:  r.EnvOK,
			}); err != nil {
				log.Printf("blackbox write error: %v", err)
			}
		}
	}
	if mirror == nil && recorder == nil {
		onCycle = nil
	}

	pilotCfg := pilot.Config{
		Mode:            cfg.Mode,
		StabilizeEvery:  cfg.StabilizeEvery,
		StabilizeHold:   ms(cfg.StabilizeHoldMs),
		DownlinkTimeout: ms(cfg.DownlinkTimeoutMs),
		Durations: nav.Durations{
			Small:  ms(cfg.TurnSmallMs),
			Medium: ms(cfg.TurnMediumMs),
			Large:  ms(cfg.TurnLargeMs),
			Move:   ms(cfg.MoveMs),
		},
		OnCycle: onCycle,
	}
	return pilot.New(pilotCfg, scanner, motors, uplink, monitor).Run(ctx)
}

// openServo picks the mast servo backend from the config.
func openServo(cfg *config.Config) (sweep.Positioner, func() error, error) {
	switch cfg.ServoBackend {
	case config.ServoFeetech:
		s, err := sensors.NewBusServo(sensors.BusServoConfig{
			Port:        cfg.FeetechPort,
			Baud:        cfg.FeetechBaud,
			ID:          cfg.FeetechID,
			CountMin:    cfg.FeetechCountMin,
			CountMax:    cfg.FeetechCountMax,
			MinAngleDeg: cfg.SweepMinDeg,
			MaxAngleDeg: cfg.SweepMaxDeg,
			Settle:      ms(cfg.ServoSettleMs),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("bus servo init: %w", err)
		}
		log.Printf("mast servo: feetech id %d on %s", cfg.FeetechID, cfg.FeetechPort)
		return s, s.Close, nil

	default:
		s, err := sensors.NewMastServo(sensors.MastServoConfig{
			Pin:         cfg.ServoPin,
			MinAngleDeg: cfg.SweepMinDeg,
			MaxAngleDeg: cfg.SweepMaxDeg,
			PulseMinUs:  cfg.ServoPulseMinUs,
			PulseMaxUs:  cfg.ServoPulseMaxUs,
			Settle:      ms(cfg.ServoSettleMs),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("mast servo init: %w", err)
		}
		log.Printf("mast servo: pwm on %s", cfg.ServoPin)
		return s, s.Close, nil
	}
}

// openLink picks the planner transport from the config.
func openLink(cfg *config.Config) (io.ReadWriteCloser, error) {
	switch cfg.LinkTransport {
	case config.TransportTCP:
		log.Printf("dialing planner at %s", cfg.TCPAddr)
		return link.DialTCP(cfg.TCPAddr, 5*time.Second)
	default:
		log.Printf("opening planner serial port %s at %d baud", cfg.SerialPort, cfg.SerialBaud)
		return link.OpenSerial(cfg.SerialPort, cfg.SerialBaud)
	}
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
