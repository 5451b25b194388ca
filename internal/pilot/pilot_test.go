package pilot

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/link"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/sweep"
)

type noopServo struct{}

func (noopServo) Position(float64) error { return nil }

type constantRanger struct{ v float64 }

func (r constantRanger) MeasureOnce() float64 { return r.v }

// recordingDriver logs every Apply in order. Only the control loop writes
// to it; tests read after Run has returned.
type recordingDriver struct {
	applied []nav.Command
}

func (d *recordingDriver) Apply(cmd nav.Command) error {
	d.applied = append(d.applied, cmd)
	return nil
}

func (d *recordingDriver) Close() error { return nil }

func testScanner(distanceCm float64) *sweep.Scanner {
	cfg := sweep.DefaultConfig()
	cfg.Samples = 3
	return sweep.New(cfg, noopServo{}, constantRanger{v: distanceCm})
}

func fastConfig() Config {
	return Config{
		Mode:         ModeStandalone,
		Durations:    nav.Durations{Small: time.Millisecond, Medium: time.Millisecond, Large: time.Millisecond, Move: time.Millisecond},
		TickInterval: time.Millisecond,
	}
}

// runCycles runs the controller until n reports have been produced, then
// cancels from inside the callback so no further cycle starts.
func runCycles(t *testing.T, ctx context.Context, cancel context.CancelFunc, c *Controller, n int, reports *[]Report) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("control loop did not finish")
	}
	require.GreaterOrEqual(t, len(*reports), n)
}

func TestController_StandaloneWallFollowCycle(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reports []Report
	cfg := fastConfig()
	cfg.OnCycle = func(r Report) {
		reports = append(reports, r)
		if len(reports) == 1 {
			cancel()
		}
	}

	motors := &recordingDriver{}
	c := New(cfg, testScanner(100), motors, nil, nil)
	runCycles(t, ctx, cancel, c, 1, &reports)

	r := reports[0]
	assert.Equal(t, SourceLocal, r.Source)
	// Left wall at 100cm, target 30cm: steer toward the wall.
	assert.Equal(t, nav.TurnLeft, r.Decision.Action)
	assert.Equal(t, -15.0, r.Decision.TurnDeg)
	assert.Equal(t, "wall", r.Decision.Reason)
	assert.False(t, r.EnvOK, "no climate sensor fitted")
	assert.Len(t, r.Frame.Readings, link.MaxFrameReadings)

	require.GreaterOrEqual(t, len(motors.applied), 2)
	assert.Equal(t, []nav.Command{nav.TurnLeft, nav.Stop}, motors.applied[:2])
	assert.Equal(t, nav.Stop, motors.applied[len(motors.applied)-1], "motors stopped on shutdown")
}

func TestController_StuckCounterPersistsAcrossCycles(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reports []Report
	cfg := fastConfig()
	cfg.OnCycle = func(r Report) {
		reports = append(reports, r)
		if len(reports) == 3 {
			cancel()
		}
	}

	// Boxed in at 10cm on every side: two avoidance turns, then the
	// stuck-recovery branch on the third consecutive sweep.
	c := New(cfg, testScanner(10), &recordingDriver{}, nil, nil)
	runCycles(t, ctx, cancel, c, 3, &reports)

	assert.Equal(t, "avoid", reports[0].Decision.Reason)
	assert.Equal(t, 1, reports[0].Decision.Stuck)
	assert.Equal(t, "avoid", reports[1].Decision.Reason)
	assert.Equal(t, 2, reports[1].Decision.Stuck)
	assert.Equal(t, "stuck", reports[2].Decision.Reason)
	assert.Equal(t, 0, reports[2].Decision.Stuck, "counter resets when recovery fires")
}

func TestController_StabilizeEveryNthCycle(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reports []Report
	cfg := fastConfig()
	cfg.StabilizeEvery = 2
	cfg.StabilizeHold = time.Millisecond
	cfg.OnCycle = func(r Report) {
		reports = append(reports, r)
		if len(reports) == 4 {
			cancel()
		}
	}

	motors := &recordingDriver{}
	c := New(cfg, testScanner(100), motors, nil, nil)
	runCycles(t, ctx, cancel, c, 4, &reports)

	// Cycles 2 and 4 route through the settle stop instead of moving:
	// move cycles contribute [turn, stop], settle cycles a bare stop.
	require.GreaterOrEqual(t, len(motors.applied), 6)
	want := []nav.Command{nav.TurnLeft, nav.Stop, nav.Stop, nav.TurnLeft, nav.Stop, nav.Stop}
	assert.Equal(t, want, motors.applied[:6])
}

func TestController_BackendObeysPlanner(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	planner, robot := net.Pipe()
	t.Cleanup(func() {
		planner.Close()
		robot.Close()
	})

	frames := make(chan link.Frame, 8)
	go func() {
		sc := bufio.NewScanner(planner)
		for sc.Scan() {
			var f link.Frame
			if json.Unmarshal(sc.Bytes(), &f) == nil {
				select {
				case frames <- f:
				default:
				}
			}
			planner.Write([]byte{'L'})
		}
	}()

	var reports []Report
	cfg := fastConfig()
	cfg.Mode = ModeBackend
	cfg.DownlinkTimeout = 500 * time.Millisecond
	cfg.OnCycle = func(r Report) {
		reports = append(reports, r)
		if len(reports) == 1 {
			cancel()
		}
	}

	motors := &recordingDriver{}
	c := New(cfg, testScanner(100), motors, link.New(robot), nil)
	runCycles(t, ctx, cancel, c, 1, &reports)

	r := reports[0]
	assert.Equal(t, SourcePlanner, r.Source)
	assert.Equal(t, nav.TurnLeft, r.Decision.Action)
	assert.Equal(t, -45.0, r.Decision.TurnDeg)
	assert.Equal(t, "planner", r.Decision.Reason)

	select {
	case f := <-frames:
		assert.NotEmpty(t, f.Readings, "planner saw the sweep")
	default:
		t.Fatal("planner never received a frame")
	}

	require.GreaterOrEqual(t, len(motors.applied), 2)
	assert.Equal(t, nav.TurnLeft, motors.applied[0])
}

func TestController_BackendTimeoutReusesLastCommand(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	planner, robot := net.Pipe()
	t.Cleanup(func() {
		planner.Close()
		robot.Close()
	})
	// Consume uplink, never answer.
	go io.Copy(io.Discard, planner)

	var reports []Report
	cfg := fastConfig()
	cfg.Mode = ModeBackend
	cfg.DownlinkTimeout = 30 * time.Millisecond
	cfg.OnCycle = func(r Report) {
		reports = append(reports, r)
		if len(reports) == 1 {
			cancel()
		}
	}

	c := New(cfg, testScanner(100), &recordingDriver{}, link.New(robot), nil)
	runCycles(t, ctx, cancel, c, 1, &reports)

	r := reports[0]
	assert.Equal(t, nav.Forward, r.Decision.Action, "no command ever accepted defaults to Forward")
	assert.Equal(t, "planner-stale", r.Decision.Reason)
}

func TestController_TelemetryStreamsChunks(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, robot := net.Pipe()
	t.Cleanup(func() {
		backend.Close()
		robot.Close()
	})

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(backend)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	var reports []Report
	cfg := fastConfig()
	cfg.Mode = ModeTelemetry
	cfg.OnCycle = func(r Report) {
		reports = append(reports, r)
		if len(reports) == 3 {
			cancel()
		}
	}

	motors := &recordingDriver{}
	c := New(cfg, testScanner(50), motors, link.New(robot), nil)
	runCycles(t, ctx, cancel, c, 3, &reports)

	for i := 0; i < 3; i++ {
		select {
		case line := <-lines:
			var f link.Frame
			require.NoError(t, json.Unmarshal([]byte(line), &f))
			assert.Len(t, f.Readings, link.MaxFrameReadings, "chunks are full frames")
		case <-time.After(time.Second):
			t.Fatal("missing telemetry chunk")
		}
	}

	assert.Equal(t, SourceNone, reports[0].Source)
	assert.Empty(t, motors.applied, "telemetry mode never touches the drivetrain")
}

func TestController_TelemetryRequiresLink(t *testing.T) {
	t.Parallel()

	cfg := fastConfig()
	cfg.Mode = ModeTelemetry
	c := New(cfg, testScanner(50), nil, nil, nil)
	err := c.Run(context.Background())
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	c := New(Config{Mode: ModeStandalone}, testScanner(50), nil, nil, nil)
	assert.Equal(t, nav.DefaultDurations, c.cfg.Durations)
	assert.Equal(t, link.MaxFrameReadings, c.cfg.ChunkSize)
	assert.Equal(t, nav.Forward, c.lastCmd)
	assert.NotNil(t, c.motors)
}
