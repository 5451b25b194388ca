// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


// Package pilot runs the robot's control loop: sweep, decide or exchange,
// move, repeat. One cooperative loop owns every actuator; nothing here is
// called from more than one goroutine.
package pilot

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/link"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/motor"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/sweep"
)

// Operating modes. Values match the MODE config key.
const (
	ModeStandalone = "standalone"
	ModeBackend    = "backend"
	ModeTelemetry  = "telemetry"
)

// Decision sources reported through OnCycle.
const (
	SourceLocal   = "local"   // standalone decision engine
	SourcePlanner = "planner" // downlink command from the backend
	SourceNone    = "none"    // telemetry mode, nobody is steering
)

// Config carries the loop's tunables. Zero values fall back to the same
// defaults the firmware shipped with.
type Config struct {
	Mode            string
	StabilizeEvery  int           // standalone: stop-and-settle every Nth cycle, 0 disables
	StabilizeHold   time.Duration // how long the settle stop lasts
	DownlinkTimeout time.Duration // backend: wait this long for a command byte
	Durations       nav.Durations
	TickInterval    time.Duration // move-phase poll tick
	ChunkSize       int           // telemetry: readings per frame

	// OnCycle, when set, receives a report after every completed cycle
	// (or every shipped chunk in telemetry mode). Called from the control
	// loop goroutine; keep it quick.
	OnCycle func(Report)
}

// Report is one cycle's worth of observable state, handed to OnCycle for
// mirrors and recorders.
type Report struct {
	Frame    link.Frame
	Profile  nav.SectorProfile
	Decision nav.Decision
	Env      env.Sample
	EnvOK    bool
	Uptime   time.Duration
	Source   string
}

// Controller owns the full loop state: scanner, motors, link, environment
// monitor, and the cross-cycle counters the decision engine feeds on.
type Controller struct {
	cfg     Config
	scanner *sweep.Scanner
	motors  motor.Driver
	link    *link.Link
	env     *env.Monitor

	start   time.Time
	lastCmd nav.Command
	stuck   int
	cycles  int
}

// New assembles a controller. The link may be nil in standalone mode; the
// environment monitor may be nil when no climate sensor is fitted.
func New(cfg Config, scanner *sweep.Scanner, motors motor.Driver, lk *link.Link, monitor *env.Monitor) *Controller {
	if cfg.Mode == "" {
		cfg.Mode = ModeStandalone
	}
	if cfg.Durations == (nav.Durations{}) {
		cfg.Durations = nav.DefaultDurations
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Millisecond
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > link.MaxFrameReadings {
		cfg.ChunkSize = link.MaxFrameReadings
	}
	if motors == nil {
		motors = motor.Nop{}
	}
	return &Controller{
		cfg:     cfg,
		scanner: scanner,
		motors:  motors,
		link:    lk,
		env:     monitor,
		// Downlink staleness rule: before any command has ever been
		// accepted, the fallback is Forward.
		lastCmd: nav.Forward,
	}
}

// Run drives the loop until the context is cancelled. The motors are
// stopped on the way out.
func (c *Controller) Run(ctx context.Context) error {
	c.start = time.Now()
	log.Printf("pilot starting in %s mode", c.cfg.Mode)

	if c.cfg.Mode == ModeTelemetry {
		if c.link == nil {
			return errors.New("telemetry mode requires a link")
		}
		return c.streamReadings(ctx)
	}

	for ctx.Err() == nil {
		c.cycle(ctx)
	}
	if err := c.motors.Apply(nav.Stop); err != nil {
		log.Printf("motor stop error: %v", err)
	}
	log.Println("pilot stopped")
	return ctx.Err()
}

// cycle is one full CollectSweep → Decide-or-Exchange → Move pass.
func (c *Controller) cycle(ctx context.Context) {
	c.scanner.Reset()

	for !c.scanner.SweepComplete() {
		if ctx.Err() != nil {
			return
		}
		if _, err := c.scanner.Step(); err != nil {
			log.Printf("sweep step error: %v", err)
		}
	}

	profile := c.scanner.Profile()
	readings := c.scanner.Readings()
	sample, envOK := c.sampleEnv()
	uptime := time.Since(c.start)
	frame := link.BuildFrame(readings, sample, envOK, uint32(uptime.Milliseconds()))

	var dec nav.Decision
	source := SourceLocal
	stabilized := false

	switch c.cfg.Mode {
	case ModeBackend:
		source = SourcePlanner
		cmd, fresh := c.lastCmd, false
		if c.link != nil {
			if err := c.link.SendFrame(frame); err != nil {
				log.Printf("uplink send error: %v", err)
			}
			cmd, fresh = c.link.ReadCommand(c.cfg.DownlinkTimeout, c.lastCmd)
		}
		if fresh {
			c.lastCmd = cmd
		}
		dec = decisionFromCommand(cmd, fresh)

	default: // standalone
		dec = nav.Decide(profile, c.stuck)
		c.stuck = dec.Stuck
		c.cycles++
		if c.cfg.StabilizeEvery > 0 && c.cycles%c.cfg.StabilizeEvery == 0 {
			c.stabilize(ctx)
			stabilized = true
		}
	}

	if !stabilized {
		c.move(ctx, dec)
	}

	if c.cfg.OnCycle != nil {
		c.cfg.OnCycle(Report{
			Frame:    frame,
			Profile:  profile,
			Decision: dec,
			Env:      sample,
			EnvOK:    envOK,
			Uptime:   uptime,
			Source:   source,
		})
	}
}

// streamReadings is the telemetry-only loop: sweep continuously and ship a
// frame every ChunkSize readings. The motors never move.
func (c *Controller) streamReadings(ctx context.Context) error {
	for ctx.Err() == nil {
		if _, err := c.scanner.Step(); err != nil {
			log.Printf("sweep step error: %v", err)
		}
		if c.scanner.Buffered() < c.cfg.ChunkSize {
			continue
		}

		chunk := c.scanner.Drain()
		sample, envOK := c.sampleEnv()
		uptime := time.Since(c.start)
		frame := link.BuildFrame(chunk, sample, envOK, uint32(uptime.Milliseconds()))
		if err := c.link.SendFrame(frame); err != nil {
			log.Printf("uplink send error: %v", err)
		}

		if c.cfg.OnCycle != nil {
			c.cfg.OnCycle(Report{
				Frame: frame,
				// The telemetry loop never resets the scanner, so this
				// is the rolling profile, not a per-sweep one.
				Profile: c.scanner.Profile(),
				Env:     sample,
				EnvOK:   envOK,
				Uptime:  uptime,
				Source:  SourceNone,
			})
		}
	}
	return ctx.Err()
}

// move applies the command for its duration tier, then stops. The wait is
// polled against the wall clock with environment sampling interleaved, so
// a slow climate sensor never stretches a turn.
func (c *Controller) move(ctx context.Context, dec nav.Decision) {
	hold := c.cfg.Durations.For(dec.Action, dec.TurnDeg)
	if err := c.motors.Apply(dec.Action); err != nil {
		log.Printf("motor apply error: %v", err)
	}
	c.holdFor(ctx, hold)
	if err := c.motors.Apply(nav.Stop); err != nil {
		log.Printf("motor stop error: %v", err)
	}
}

// stabilize stops the drivetrain and holds still so the sonar readings the
// next sweep starts from are not smeared by chassis vibration.
func (c *Controller) stabilize(ctx context.Context) {
	if err := c.motors.Apply(nav.Stop); err != nil {
		log.Printf("motor stop error: %v", err)
	}
	c.holdFor(ctx, c.cfg.StabilizeHold)
}

func (c *Controller) holdFor(ctx context.Context, d time.Duration) {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		c.sampleEnv()
		time.Sleep(c.cfg.TickInterval)
	}
}

func (c *Controller) sampleEnv() (env.Sample, bool) {
	if c.env == nil {
		return env.Sample{}, false
	}
	return c.env.Sample()
}

// decisionFromCommand wraps a planner byte in a Decision so Move and the
// mirrors see the same shape either way. Planner turns get the 45° tier;
// the planner owns the geometry, the robot only owns the clock.
func decisionFromCommand(cmd nav.Command, fresh bool) nav.Decision {
	d := nav.Decision{Action: cmd, Reason: "planner"}
	if !fresh {
		d.Reason = "planner-stale"
	}
	switch cmd {
	case nav.TurnLeft:
		d.TurnDeg = -nav.AvoidTurnDeg
	case nav.TurnRight:
		d.TurnDeg = nav.AvoidTurnDeg
	}
	return d
}
