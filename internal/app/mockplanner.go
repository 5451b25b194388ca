// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/link"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/sweep"
)

// RunMockPlanner serves the planner side of the robot link over TCP: it
// reads uplink frames, runs the same decision engine the robot carries,
// and answers each frame with one command byte. It stands in for the real
// mapping backend when bench-testing backend mode.
func RunMockPlanner(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer ln.Close()
	log.Printf("mock planner listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		go servePlannerConn(conn)
	}
}

func servePlannerConn(conn net.Conn) {
	defer conn.Close()
	log.Printf("robot connected from %s", conn.RemoteAddr())

	stuck := 0
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var f link.Frame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			log.Printf("bad frame from %s: %v", conn.RemoteAddr(), err)
			continue
		}

		dec := nav.Decide(profileFromReadings(f.Readings), stuck)
		stuck = dec.Stuck

		if _, err := conn.Write([]byte{dec.Action.Byte(), '\n'}); err != nil {
			log.Printf("downlink write error: %v", err)
			return
		}
	}
	log.Printf("robot disconnected from %s", conn.RemoteAddr())
}

// profileFromReadings rebuilds a sector profile from raw uplink readings,
// using the same zone boundaries as the onboard scanner but keeping the
// nearest reading per sector.
func profileFromReadings(readings []link.Reading) nav.SectorProfile {
	zones := sweep.DefaultConfig()
	profile := nav.NewSectorProfile()
	for _, r := range readings {
		var sector int
		switch {
		case math.Abs(r.AngleDeg) <= zones.ForwardConeDeg:
			sector = nav.SectorForward
		case r.AngleDeg <= zones.LeftThresholdDeg:
			sector = nav.SectorLeft
		case r.AngleDeg >= zones.RightThresholdDeg:
			sector = nav.SectorRight
		default:
			continue
		}
		if r.DistanceCm > 0 && r.DistanceCm < profile[sector] {
			profile[sector] = r.DistanceCm
		}
	}
	return profile
}
