// Package motor defines the drivetrain interface the pilot drives through.
package motor

import "github.com/Mr-Moody/Heat-Mapping-Robot/internal/nav"

// Driver turns navigation commands into wheel motion. Implementations live
// in internal/sensors next to the rest of the hardware bindings.
type Driver interface {
	Apply(cmd nav.Command) error
	Close() error
}

// Nop accepts every command and moves nothing. Used for bench runs with the
// drivetrain unpowered and as the fallback when MOTORS_ENABLED=false.
type Nop struct{}

func (Nop) Apply(nav.Command) error { return nil }

func (Nop) Close() error { return nil }
