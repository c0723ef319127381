// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"context"
	"errors"
)

// RunScripts is the per-frame tick. It polls for on-disk changes when reload
// on save is due, applies every queued reload, then runs each enabled module
// in insertion order.
//
// A module that fails to run is reported and disabled; the tick carries on
// with the next one. Only host-level failures and the cancellation of ctx
// stop the tick and are returned. A cancelled tick leaves every module as it
// was: the module's own execution budget is what turns a hung script into a
// fault.
func (r *Registry) RunScripts(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.poll()
	r.drainReloads(ctx)
	return r.execute(ctx)
}

func (r *Registry) poll() {
	if !r.reload.enabled {
		return
	}

	now := r.opts.clock.Now()
	if !r.reload.lastPoll.IsZero() && now.Sub(r.reload.lastPoll) < r.reload.interval {
		return
	}
	r.reload.lastPoll = now

	for _, m := range r.modules {
		if !m.Enabled() {
			continue
		}
		if m.IsOutOfDateOnDisk() {
			r.logger.Debug("script changed on disk", "script", m.FileName())
			r.pending[m.path] = struct{}{}
		}
	}
}

// drainReloads applies the queued reloads in module order. Each request is
// dropped once applied, whatever its outcome; requests left when ctx is
// cancelled stay queued for the next tick.
func (r *Registry) drainReloads(ctx context.Context) {
	if len(r.pending) == 0 {
		return
	}

	for _, m := range r.modules {
		if _, ok := r.pending[m.path]; !ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		delete(r.pending, m.path)

		err := m.Reload(ctx)
		if err == nil {
			r.logger.Info("reloaded script", "script", m.FileName(), "fingerprint", m.Fingerprint())
			r.opts.notifier.Notify(Notice{
				Level:   NoticeInfo,
				Event:   EventScriptReloaded,
				Path:    m.path,
				Message: "script reloaded",
			})
			continue
		}

		se := asScriptError(err, KindLoad, m.path, "reload")
		if errors.Is(err, ErrHost) {
			r.logger.Error("interpreter failure while reloading", "script", m.FileName(), "err", err)
			r.opts.notifier.Notify(faultNotice(se, "could not reload "+m.FileName()))
			continue
		}
		if errors.Is(err, ErrValidation) {
			r.logger.Error("rejected script edit, keeping loaded version", "script", m.FileName(), "err", err)
			r.opts.notifier.Notify(faultNotice(se, "edit of "+m.FileName()+" does not compile, keeping the loaded version"))
			continue
		}

		r.logger.Error("failed to reload script", "script", m.FileName(), "err", err)
		r.opts.notifier.Notify(faultNotice(se, "could not reload "+m.FileName()+", script disabled"))
		m.DisableAfterFault(ctx)
	}
}

func (r *Registry) execute(ctx context.Context) error {
	defer func() { r.executing = nil }()

	for _, m := range r.modules {
		if !m.Enabled() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ec := &ExecContext{registry: r, module: m}
		r.executing = ec
		err := m.Run(withExecContext(ctx, ec))
		r.executing = nil
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.logger.Debug("tick cancelled", "script", m.FileName(), "err", err)
			return ctxErr
		}

		if errors.Is(err, ErrHost) {
			r.logger.Error("interpreter failure, aborting tick", "script", m.FileName(), "err", err)
			return err
		}

		r.logger.Error("script failed, disabling it", "script", m.FileName(), "err", err)
		r.opts.notifier.Notify(faultNotice(asScriptError(err, KindRuntime, m.path, "run"), m.FileName()+" failed and was disabled"))
		m.DisableAfterFault(ctx)
	}
	return nil
}
