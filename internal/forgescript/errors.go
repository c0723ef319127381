// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindDiscovery marks a file that could not be turned into a module while
	// scanning the scripts directory. The file is skipped.
	KindDiscovery ErrorKind = iota + 1
	// KindLoad marks a file that could not be read or compiled when a module
	// was explicitly added, or whose source could no longer be read on reload.
	KindLoad
	// KindValidation marks a reload candidate that failed to compile. The
	// previously loaded version stays active.
	KindValidation
	// KindRuntime marks a module that failed to compile or raised an error
	// while running. The registry disables the module.
	KindRuntime
	// KindCallback marks a settings callback that raised an error. The caller
	// decides what to do with the module.
	KindCallback
	// KindProtocol marks a callback registration outside a valid execution
	// context, or for an unknown slot. Nothing is mutated.
	KindProtocol
	// KindHost marks a failure of the shared interpreter itself. Such errors
	// abort the tick.
	KindHost
)

var (
	// ErrDiscovery is the sentinel wrapped by KindDiscovery errors.
	ErrDiscovery = errors.New("script discovery failed")
	// ErrLoad is the sentinel wrapped by KindLoad errors.
	ErrLoad = errors.New("script load failed")
	// ErrValidation is the sentinel wrapped by KindValidation errors.
	ErrValidation = errors.New("script validation failed")
	// ErrRuntime is the sentinel wrapped by KindRuntime errors.
	ErrRuntime = errors.New("script execution failed")
	// ErrCallback is the sentinel wrapped by KindCallback errors.
	ErrCallback = errors.New("script callback failed")
	// ErrProtocol is the sentinel wrapped by KindProtocol errors.
	ErrProtocol = errors.New("script protocol violation")
	// ErrHost is the sentinel wrapped by KindHost errors.
	ErrHost = errors.New("interpreter host failure")

	// ErrNoExecutingScript is returned when a callback is registered while no
	// module of the registry is executing.
	ErrNoExecutingScript = errors.New("no script is currently executing")
	// ErrUnknownSlot is returned for a callback slot name that is not recognized.
	ErrUnknownSlot = errors.New("unknown callback slot")
	// ErrNilCallback is returned when a nil callback is registered.
	ErrNilCallback = errors.New("callback is nil")
	// ErrDuplicateScript is returned when a path is added twice to a registry.
	ErrDuplicateScript = errors.New("script already loaded")
	// ErrScriptNotFound is returned when a path is not tracked by the registry.
	ErrScriptNotFound = errors.New("script not found")
)

type (
	// ErrorKind classifies a ScriptError. The kind decides which policy the
	// caller applies: skip, keep the old version, disable, or reject.
	ErrorKind int

	// ScriptError is the error returned by module and registry operations.
	// It unwraps to both the sentinel of its Kind and the underlying cause, so
	// callers can branch with errors.Is(err, ErrValidation) and still inspect
	// the interpreter error.
	ScriptError struct {
		Kind ErrorKind
		// Path is the module path, empty when no module is involved.
		Path string
		// Op is a short verb phrase such as "compile" or "register callback".
		Op  string
		Err error
	}
)

// String returns the lowercase name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindDiscovery:
		return "discovery"
	case KindLoad:
		return "load"
	case KindValidation:
		return "validation"
	case KindRuntime:
		return "runtime"
	case KindCallback:
		return "callback"
	case KindProtocol:
		return "protocol"
	case KindHost:
		return "host"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindDiscovery:
		return ErrDiscovery
	case KindLoad:
		return ErrLoad
	case KindValidation:
		return ErrValidation
	case KindRuntime:
		return ErrRuntime
	case KindCallback:
		return ErrCallback
	case KindProtocol:
		return ErrProtocol
	case KindHost:
		return ErrHost
	default:
		return nil
	}
}

func newScriptError(kind ErrorKind, path, op string, err error) *ScriptError {
	return &ScriptError{Kind: kind, Path: path, Op: op, Err: err}
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(" error: ")
	sb.WriteString(e.Op)
	if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the kind sentinel and the underlying cause.
func (e *ScriptError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the kind of the first ScriptError in err's chain, or zero.
func KindOf(err error) ErrorKind {
	var se *ScriptError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
