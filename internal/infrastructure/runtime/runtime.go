// Package runtime abstracts the isolation runtime that hosts agent units.
// The lifecycle manager depends only on the Runtime interface; Docker is the
// production implementation.
package runtime

import "context"

// RunSpec describes a unit to create and start.
type RunSpec struct {
	Image string
	Name  string
	Env   map[string]string

	// InternalPort is the TCP port the unit's server listens on. It is
	// published to an anonymous (runtime-assigned) host port.
	InternalPort int

	// Binds are optional host:container volume bindings ("src:dst[:mode]").
	Binds []string

	// MemoryLimit caps unit memory in bytes. Zero means uncapped.
	MemoryLimit int64
}

// UnitState is the observable state of a unit.
type UnitState struct {
	// Status is the runtime's own status string (e.g. "running", "exited").
	Status string

	// HostPort is the externally assigned port publishing InternalPort,
	// empty while no assignment exists.
	HostPort string
}

// Runtime creates, inspects and destroys isolated execution units.
type Runtime interface {
	// Run creates and starts a unit, returning an opaque handle.
	Run(ctx context.Context, spec RunSpec) (string, error)

	// Inspect reports the current state of a unit. Unknown handles fail
	// with ErrUnitNotFound.
	Inspect(ctx context.Context, handle string) (*UnitState, error)

	// ForceRemove tears a unit down unconditionally.
	ForceRemove(ctx context.Context, handle string) error
}
