package nav

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandByte(t *testing.T) {
	t.Parallel()

	valid := map[byte]Command{
		'F': Forward,
		'B': Backward,
		'L': TurnLeft,
		'R': TurnRight,
		'S': Stop,
	}
	for b, want := range valid {
		cmd, ok := ParseCommandByte(b)
		assert.True(t, ok, "byte %q", b)
		assert.Equal(t, want, cmd)
		assert.Equal(t, b, cmd.Byte(), "wire encoding round-trips")
	}

	for _, b := range []byte{'f', 'X', '\n', '\r', 0, ' ', '1'} {
		_, ok := ParseCommandByte(b)
		assert.False(t, ok, "byte %q must be rejected", b)
	}
}

func TestCommand_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	for _, cmd := range []Command{Stop, Forward, Backward, TurnLeft, TurnRight} {
		data, err := json.Marshal(cmd)
		require.NoError(t, err)

		var back Command
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, cmd, back)
	}

	var bad Command
	assert.Error(t, json.Unmarshal([]byte(`"sideways"`), &bad))
}
