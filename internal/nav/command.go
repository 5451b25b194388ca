package nav

import (
	"encoding/json"
	"fmt"
)

// Command is one drive action for the chassis. Both the onboard decision
// engine and the planner downlink produce these.
type Command int

const (
	Stop Command = iota
	Forward
	Backward
	TurnLeft
	TurnRight
)

func (c Command) String() string {
	switch c {
	case Stop:
		return "stop"
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case TurnLeft:
		return "turn_left"
	case TurnRight:
		return "turn_right"
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// Byte returns the single-character downlink encoding of the command.
func (c Command) Byte() byte {
	switch c {
	case Forward:
		return 'F'
	case Backward:
		return 'B'
	case TurnLeft:
		return 'L'
	case TurnRight:
		return 'R'
	}
	return 'S'
}

// ParseCommandByte maps one downlink byte onto a Command. ok is false for
// any byte outside the F/B/L/R/S alphabet; callers discard those bytes.
func ParseCommandByte(b byte) (Command, bool) {
	switch b {
	case 'F':
		return Forward, true
	case 'B':
		return Backward, true
	case 'L':
		return TurnLeft, true
	case 'R':
		return TurnRight, true
	case 'S':
		return Stop, true
	}
	return Stop, false
}

// ParseCommand is the inverse of String.
func ParseCommand(name string) (Command, bool) {
	switch name {
	case "stop":
		return Stop, true
	case "forward":
		return Forward, true
	case "backward":
		return Backward, true
	case "turn_left":
		return TurnLeft, true
	case "turn_right":
		return TurnRight, true
	}
	return Stop, false
}

// MarshalJSON encodes the command by name so MQTT consumers do not depend
// on the enum ordering.
func (c Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	cmd, ok := ParseCommand(s)
	if !ok {
		return fmt.Errorf("unknown command %q", s)
	}
	*c = cmd
	return nil
}
