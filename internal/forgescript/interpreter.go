// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"context"
	"fmt"
)

// NoEnv is the zero EnvHandle. A module holds NoEnv until its first Run and
// again after every reload.
const NoEnv EnvHandle = 0

const (
	// SlotSettings holds the callback the overlay invokes to draw a module's
	// settings.
	SlotSettings Slot = iota + 1
	// SlotTeardown holds the callback run once when a module goes from
	// enabled to disabled.
	SlotTeardown
)

type (
	// EnvHandle identifies an isolated environment inside the interpreter.
	// Handles are created and released explicitly; the interpreter never
	// reclaims one on its own.
	EnvHandle int

	// Chunk is a compiled, not yet executed unit of source.
	Chunk interface {
		ChunkName() string
	}

	// Callback is an opaque function handle owned by the interpreter.
	Callback interface {
		CallbackName() string
	}

	// Slot names one of the two callback slots of a module.
	Slot int

	// Registrar receives callback registrations coming from script code. ctx
	// is the context the interpreter was executing under when the script
	// asked to register.
	Registrar func(ctx context.Context, slot string, cb Callback) error

	// Interpreter is the shared interpreter the registry and its modules run
	// on. It is owned by the embedder; the runtime never creates or closes it.
	Interpreter interface {
		// Compile parses src without running it.
		Compile(name string, src []byte) (Chunk, error)
		// NewEnvironment allocates an isolated environment whose global reads
		// fall back to the shared namespace.
		NewEnvironment() (EnvHandle, error)
		// ReleaseEnvironment frees h. Releasing NoEnv or an unknown handle is a
		// no-op.
		ReleaseEnvironment(h EnvHandle)
		// Exec runs chunk with env as its global namespace. Implementations
		// must honour ctx cancellation.
		Exec(ctx context.Context, chunk Chunk, env EnvHandle) error
		// Call invokes a callback with no arguments.
		Call(ctx context.Context, cb Callback) error
		// SetRegistrar installs the receiver of script-side registrations. A
		// nil Registrar rejects every registration.
		SetRegistrar(r Registrar)
	}
)

// ParseSlot maps a script-facing slot name to a Slot.
func ParseSlot(name string) (Slot, error) {
	switch name {
	case "settings":
		return SlotSettings, nil
	case "teardown":
		return SlotTeardown, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
	}
}

// String returns the script-facing name of the slot.
func (s Slot) String() string {
	switch s {
	case SlotSettings:
		return "settings"
	case SlotTeardown:
		return "teardown"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Valid reports whether s is one of the declared slots.
func (s Slot) Valid() bool {
	return s == SlotSettings || s == SlotTeardown
}
