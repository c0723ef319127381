// SPDX-License-Identifier: MPL-2.0

package forgescript

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultExtension is the file extension of discoverable script modules.
	DefaultExtension = ".lua"
	// DefaultExecBudget bounds a single Run, teardown or settings call.
	DefaultExecBudget = 250 * time.Millisecond
	// DefaultPollInterval is used when reload on save is enabled without an
	// explicit interval.
	DefaultPollInterval = time.Second
)

type (
	// Clock supplies the wall-clock time used for poll scheduling and reload
	// timestamps.
	Clock interface {
		Now() time.Time
	}

	// Option configures a Registry.
	Option func(*options)

	options struct {
		logger        *log.Logger
		notifier      Notifier
		extension     string
		enableOnLoad  bool
		execBudget    time.Duration
		clock         Clock
		reloadOnSave  bool
		pollInterval  time.Duration
		skipDiscovery bool
	}

	realClock struct{}
)

func (realClock) Now() time.Time { return time.Now() }

func defaultOptions() options {
	return options{
		logger:       log.NewWithOptions(os.Stderr, log.Options{Prefix: "forgescript"}),
		notifier:     discardNotifier,
		extension:    DefaultExtension,
		enableOnLoad: true,
		execBudget:   DefaultExecBudget,
		clock:        realClock{},
		pollInterval: DefaultPollInterval,
	}
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNotifier sets the user-facing notification channel.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithExtension sets the extension of discoverable files, with or without the
// leading dot.
func WithExtension(ext string) Option {
	return func(o *options) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		o.extension = ext
	}
}

// WithEnabledOnLoad decides whether newly constructed modules start enabled.
func WithEnabledOnLoad(enabled bool) Option {
	return func(o *options) {
		o.enableOnLoad = enabled
	}
}

// WithExecBudget bounds every Run, teardown and settings call. Zero disables
// the bound, leaving a hung module able to block the tick.
func WithExecBudget(d time.Duration) Option {
	return func(o *options) {
		o.execBudget = d
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithReloadOnSave enables mtime polling from construction on.
func WithReloadOnSave(enabled bool, interval time.Duration) Option {
	return func(o *options) {
		o.reloadOnSave = enabled
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithoutDiscovery creates an empty registry; modules are then added with
// AddScript or RefreshScripts.
func WithoutDiscovery() Option {
	return func(o *options) {
		o.skipDiscovery = true
	}
}
