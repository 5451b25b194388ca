package nav

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// makeProfile builds a profile with every sector far except the named
// overrides.
func makeProfile(overrides map[int]float64) SectorProfile {
	p := NewSectorProfile()
	for i, d := range overrides {
		p[i] = d
	}
	return p
}

func TestDecide_WallFollowing(t *testing.T) {
	t.Parallel()

	t.Run("dead-band boundary is inclusive", func(t *testing.T) {
		t.Parallel()
		// left error = 38 - 30 = 8 = tolerance exactly: no correction.
		p := makeProfile(map[int]float64{SectorForward: 100, SectorLeft: 38})
		d := Decide(p, 0)
		assert.Equal(t, Forward, d.Action)
		assert.Equal(t, 0.0, d.TurnDeg)
		assert.Equal(t, "cruise", d.Reason)
	})

	t.Run("drifted away from wall corrects left", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 100, SectorLeft: 45})
		d := Decide(p, 0)
		assert.Equal(t, TurnLeft, d.Action)
		assert.Equal(t, -WallCorrectDeg, d.TurnDeg)
		assert.Equal(t, "wall", d.Reason)
	})

	t.Run("crowding the wall corrects right", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 100, SectorLeft: 21})
		d := Decide(p, 0)
		assert.Equal(t, TurnRight, d.Action)
		assert.Equal(t, WallCorrectDeg, d.TurnDeg)
	})

	t.Run("lower boundary is inclusive too", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 100, SectorLeft: 22})
		d := Decide(p, 0)
		assert.Equal(t, Forward, d.Action)
	})
}

func TestDecide_ObstacleAvoidance(t *testing.T) {
	t.Parallel()

	t.Run("turns toward the larger opening", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 20, SectorLeft: 50, SectorRight: 10})
		d := Decide(p, 0)
		assert.Equal(t, TurnLeft, d.Action)
		assert.Equal(t, -45.0, d.TurnDeg)
		assert.Equal(t, "avoid", d.Reason)
	})

	t.Run("right side larger turns right", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 20, SectorLeft: 10, SectorRight: 50})
		d := Decide(p, 0)
		assert.Equal(t, TurnRight, d.Action)
		assert.Equal(t, 45.0, d.TurnDeg)
	})

	t.Run("exact tie resolves right", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 20, SectorLeft: 30, SectorRight: 30})
		d := Decide(p, 0)
		assert.Equal(t, TurnRight, d.Action)
	})

	t.Run("below stuck threshold still avoids until trigger", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 10, SectorLeft: 40, SectorRight: 20})
		d := Decide(p, 0)
		assert.Equal(t, TurnLeft, d.Action)
		assert.Equal(t, 1, d.Stuck)
	})
}

func TestDecide_StuckRecovery(t *testing.T) {
	t.Parallel()

	t.Run("fires on the third consecutive sweep", func(t *testing.T) {
		t.Parallel()
		p := makeProfile(map[int]float64{SectorForward: 10, SectorLeft: 40, SectorRight: 20})

		d := Decide(p, 0)
		assert.Equal(t, "avoid", d.Reason)
		assert.Equal(t, 1, d.Stuck)

		d = Decide(p, d.Stuck)
		assert.Equal(t, "avoid", d.Reason)
		assert.Equal(t, 2, d.Stuck)

		d = Decide(p, d.Stuck)
		assert.Equal(t, "stuck", d.Reason)
		assert.Equal(t, 0, d.Stuck, "counter resets after recovery")
		// Sector 1 is the first far sector in scan order, so recovery
		// points 30 degrees right instead of taking the avoidance turn.
		assert.Equal(t, TurnRight, d.Action)
		assert.Equal(t, 30.0, d.TurnDeg)
	})

	t.Run("clear forward resets the counter", func(t *testing.T) {
		t.Parallel()
		blocked := makeProfile(map[int]float64{SectorForward: 10})
		open := makeProfile(map[int]float64{SectorForward: 100, SectorLeft: 30})

		d := Decide(blocked, 0)
		assert.Equal(t, 1, d.Stuck)
		d = Decide(open, d.Stuck)
		assert.Equal(t, 0, d.Stuck)
		d = Decide(blocked, d.Stuck)
		assert.Equal(t, 1, d.Stuck, "streak restarts after a clear sweep")
	})

	t.Run("best sector behind turns through the left half", func(t *testing.T) {
		t.Parallel()
		overrides := map[int]float64{}
		for i := 0; i < SectorCount; i++ {
			overrides[i] = 10
		}
		overrides[8] = 300 // 240 degrees clockwise = -120
		p := makeProfile(overrides)

		d := Decide(p, StuckTriggerCount-1)
		assert.Equal(t, "stuck", d.Reason)
		assert.Equal(t, TurnLeft, d.Action)
		assert.Equal(t, -120.0, d.TurnDeg)
	})

	t.Run("dead rear sector maps to +180", func(t *testing.T) {
		t.Parallel()
		overrides := map[int]float64{}
		for i := 0; i < SectorCount; i++ {
			overrides[i] = 10
		}
		overrides[6] = 300
		p := makeProfile(overrides)

		d := Decide(p, StuckTriggerCount-1)
		assert.Equal(t, TurnRight, d.Action)
		assert.Equal(t, 180.0, d.TurnDeg)
	})
}

func TestDecide_SanitizesProfile(t *testing.T) {
	t.Parallel()

	// Garbage in the side sectors must read as far, not as obstacles.
	p := makeProfile(map[int]float64{
		SectorForward: 100,
		SectorLeft:    -3,
		SectorRight:   math.NaN(),
	})
	d := Decide(p, 0)
	// left sanitized to far: error = 400 - 30 > 8, so the wall layer
	// steers back toward it.
	assert.Equal(t, TurnLeft, d.Action)

	p = makeProfile(map[int]float64{SectorForward: 0, SectorLeft: 38})
	d = Decide(p, 0)
	assert.Equal(t, Forward, d.Action, "zero forward means no echo, treated as open")
}

func TestDurations_For(t *testing.T) {
	t.Parallel()

	d := Durations{
		Small:  250 * time.Millisecond,
		Medium: 450 * time.Millisecond,
		Large:  800 * time.Millisecond,
		Move:   350 * time.Millisecond,
	}

	tests := []struct {
		name    string
		cmd     Command
		turnDeg float64
		want    time.Duration
	}{
		{"wall correction is small", TurnLeft, -15, 250 * time.Millisecond},
		{"tier boundary 20 is small", TurnRight, 20, 250 * time.Millisecond},
		{"avoidance turn is medium", TurnRight, 45, 450 * time.Millisecond},
		{"tier boundary 50 is medium", TurnLeft, -50, 450 * time.Millisecond},
		{"recovery turn is large", TurnLeft, -120, 800 * time.Millisecond},
		{"forward uses the move pulse", Forward, 0, 350 * time.Millisecond},
		{"backward uses the move pulse", Backward, 0, 350 * time.Millisecond},
		{"stop is instantaneous", Stop, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, d.For(tt.cmd, tt.turnDeg))
		})
	}
}

func TestSectorIndex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		angle float64
		want  int
	}{
		{0, SectorForward},
		{10, SectorForward},
		{90, SectorRight},
		{-90, SectorLeft},
		{-60, 10},
		{180, 6},
		{-180, 6},
		{350, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SectorIndex(tt.angle), "angle %v", tt.angle)
	}
}

func TestSectorHeading(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, SectorHeading(0))
	assert.Equal(t, 90.0, SectorHeading(3))
	assert.Equal(t, 180.0, SectorHeading(6))
	assert.Equal(t, -90.0, SectorHeading(9))
	assert.Equal(t, -30.0, SectorHeading(11))
}
