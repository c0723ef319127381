// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"context"
	"time"
)

type (
	execContextKey struct{}

	// ExecContext identifies the module a registry is executing. The registry
	// creates one per module per tick and threads it to the interpreter through
	// the context passed to Module.Run; it is live only until Run returns.
	ExecContext struct {
		registry *Registry
		module   *Module
	}
)

// Module returns the executing module.
func (ec *ExecContext) Module() *Module {
	if ec == nil {
		return nil
	}
	return ec.module
}

// ExecContextFrom returns the execution context carried by ctx, or nil. A nil
// ctx is allowed since interpreters report no context outside of execution.
func ExecContextFrom(ctx context.Context) *ExecContext {
	if ctx == nil {
		return nil
	}
	ec, _ := ctx.Value(execContextKey{}).(*ExecContext)
	return ec
}

func withExecContext(ctx context.Context, ec *ExecContext) context.Context {
	return context.WithValue(ctx, execContextKey{}, ec)
}

// withBudget bounds ctx by d. A zero or negative d leaves ctx unbounded.
func withBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
