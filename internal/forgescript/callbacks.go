// SPDX-License-Identifier: MPL-2.0

package forgescript

import "context"

// RegisterCallback stores cb in slot of the module executing under ctx,
// replacing any previous callback in that slot.
//
// ctx must carry an execution context created by this registry that is still
// live, which only holds while the module's Run is in progress. Anything else
// is rejected with a KindProtocol error, reported, and leaves every module
// untouched.
func (r *Registry) RegisterCallback(ctx context.Context, slot Slot, cb Callback) error {
	ec := ExecContextFrom(ctx)
	if ec == nil || ec.registry != r || ec != r.executing {
		return r.reject(newScriptError(KindProtocol, "", "register "+slot.String()+" callback", ErrNoExecutingScript))
	}

	m := ec.module
	if !slot.Valid() {
		return r.reject(newScriptError(KindProtocol, m.path, "register callback", ErrUnknownSlot))
	}
	if cb == nil {
		return r.reject(newScriptError(KindProtocol, m.path, "register "+slot.String()+" callback", ErrNilCallback))
	}

	m.setCallback(slot, cb)
	r.logger.Debug("registered callback", "script", m.FileName(), "slot", slot)
	return nil
}

// RegisterCallbackNamed is RegisterCallback with a script-facing slot name. It
// is the Registrar the registry installs on its interpreter.
func (r *Registry) RegisterCallbackNamed(ctx context.Context, name string, cb Callback) error {
	slot, err := ParseSlot(name)
	if err != nil {
		path := ""
		if ec := ExecContextFrom(ctx); ec != nil && ec == r.executing {
			path = ec.module.path
		}
		return r.reject(newScriptError(KindProtocol, path, "register callback", err))
	}
	return r.RegisterCallback(ctx, slot, cb)
}

func (r *Registry) reject(err *ScriptError) error {
	r.logger.Warn("rejected callback registration", "script", err.Path, "err", err.Err)
	r.opts.notifier.Notify(faultNotice(err, "callback registration rejected"))
	return err
}
