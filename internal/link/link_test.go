package link

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/env"
	"github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"
)

func pipeLink(t *testing.T) (*Link, net.Conn) {
	t.Helper()
	backend, robot := net.Pipe()
	t.Cleanup(func() {
		backend.Close()
		robot.Close()
	})
	return New(robot), backend
}

func TestLink_SendFrame(t *testing.T) {
	t.Parallel()

	l, backend := pipeLink(t)
	lines := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(backend).ReadString('\n')
		lines <- line
	}()

	f := BuildFrame(
		[]nav.PolarReading{{AngleDeg: 30, DistanceCm: 88.1}},
		env.Sample{AirTempC: 23.0, HumidityPct: 41.5},
		true,
		1500,
	)
	require.NoError(t, l.SendFrame(f))

	select {
	case line := <-lines:
		var got Frame
		require.NoError(t, json.Unmarshal([]byte(line), &got))
		assert.Equal(t, uint32(1500), got.TimestampMs)
		require.Len(t, got.Readings, 1)
		assert.Equal(t, 88.1, got.Readings[0].DistanceCm)
	case <-time.After(time.Second):
		t.Fatal("backend never received a frame")
	}
}

func TestLink_ReadCommand_ValidByte(t *testing.T) {
	t.Parallel()

	l, backend := pipeLink(t)
	go backend.Write([]byte{'L'})

	cmd, ok := l.ReadCommand(500*time.Millisecond, nav.Stop)
	assert.True(t, ok)
	assert.Equal(t, nav.TurnLeft, cmd)
}

func TestLink_ReadCommand_SkipsFramingJunk(t *testing.T) {
	t.Parallel()

	l, backend := pipeLink(t)
	go backend.Write([]byte("\r\nB"))

	cmd, ok := l.ReadCommand(500*time.Millisecond, nav.Stop)
	assert.True(t, ok)
	assert.Equal(t, nav.Backward, cmd)
}

func TestLink_ReadCommand_TimeoutKeepsLast(t *testing.T) {
	t.Parallel()

	l, _ := pipeLink(t)

	start := time.Now()
	cmd, ok := l.ReadCommand(50*time.Millisecond, nav.Forward)
	assert.False(t, ok)
	assert.Equal(t, nav.Forward, cmd, "silent backend means carry on")
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestLink_ReadCommand_LowercaseIsJunk(t *testing.T) {
	t.Parallel()

	l, backend := pipeLink(t)
	go backend.Write([]byte{'f'})

	cmd, ok := l.ReadCommand(80*time.Millisecond, nav.Stop)
	assert.False(t, ok)
	assert.Equal(t, nav.Stop, cmd)
}
