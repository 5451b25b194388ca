// Copyright (c) 2026 Heat-Mapping Robot Project
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package nav

// Decision policy thresholds, in centimeters. These are shared with the
// off-device planner so standalone and backend-driven runs behave alike.
const (
	// ObstacleThresholdCm triggers an avoidance turn when the forward
	// sector drops below it.
	ObstacleThresholdCm = 25.0

	// StuckThresholdCm is tighter than the obstacle threshold. Staying
	// below it for StuckTriggerCount consecutive sweeps means avoidance
	// turns are not opening space anymore and recovery takes over.
	StuckThresholdCm  = 15.0
	StuckTriggerCount = 3

	// Wall following keeps the left wall at WallTargetCm, give or take
	// WallToleranceCm.
	WallTargetCm    = 30.0
	WallToleranceCm = 8.0

	// Turn magnitudes.
	AvoidTurnDeg   = 45.0
	WallCorrectDeg = 15.0
)

// Decision is what the chassis should do next. TurnDeg is signed:
// negative turns left, positive turns right.
type Decision struct {
	Action  Command `json:"action"`
	TurnDeg float64 `json:"turn_deg"`
	Stuck   int     `json:"stuck"`
	Reason  string  `json:"reason"`
}

// Decide maps a completed sector profile onto the next drive action.
// Three layers, highest priority first: stuck recovery, obstacle
// avoidance, left-wall following. Pure: the same profile and counter
// always produce the same decision, and the returned Stuck field is the
// caller's counter for the next sweep.
func Decide(profile SectorProfile, stuck int) Decision {
	for i := range profile {
		profile[i] = sanitizeDistance(profile[i])
	}
	forward := profile.Forward()
	left := profile.Left()
	right := profile.Right()

	// Layer 1: stuck recovery. Count consecutive sweeps with the nose
	// nearly touching something; on the trigger count, turn toward the
	// most open sector anywhere on the profile. Ties go to the first
	// sector in scan order.
	if forward < StuckThresholdCm {
		stuck++
		if stuck >= StuckTriggerCount {
			best := 0
			for i := 1; i < SectorCount; i++ {
				if profile[i] > profile[best] {
					best = i
				}
			}
			turn := SectorHeading(best)
			action := TurnRight
			if turn < 0 {
				action = TurnLeft
			}
			return Decision{Action: action, TurnDeg: turn, Stuck: 0, Reason: "stuck"}
		}
	} else {
		stuck = 0
	}

	// Layer 2: obstacle avoidance. Turn toward the more open side; an
	// exact tie goes right.
	if forward < ObstacleThresholdCm {
		if left > right {
			return Decision{Action: TurnLeft, TurnDeg: -AvoidTurnDeg, Stuck: stuck, Reason: "avoid"}
		}
		return Decision{Action: TurnRight, TurnDeg: AvoidTurnDeg, Stuck: stuck, Reason: "avoid"}
	}

	// Layer 3: left-wall following. Correct only outside the dead-band;
	// landing exactly on the tolerance boundary counts as inside.
	drift := left - WallTargetCm
	switch {
	case drift > WallToleranceCm:
		return Decision{Action: TurnLeft, TurnDeg: -WallCorrectDeg, Stuck: stuck, Reason: "wall"}
	case drift < -WallToleranceCm:
		return Decision{Action: TurnRight, TurnDeg: WallCorrectDeg, Stuck: stuck, Reason: "wall"}
	}
	return Decision{Action: Forward, Stuck: stuck, Reason: "cruise"}
}
