// SPDX-License-Identifier: MPL-2.0

package forgescript

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarn
	NoticeError
)

const (
	// EventScriptAdded is sent when a module joins the registry after
	// construction (AddScript or RefreshScripts).
	EventScriptAdded Event = iota + 1
	// EventScriptRemoved is sent by RemoveScript.
	EventScriptRemoved
	// EventScriptReloaded is sent after a successful reload.
	EventScriptReloaded
	// EventScriptFault is sent for every reported ScriptError.
	EventScriptFault
)

type (
	// NoticeLevel is the severity of a Notice.
	NoticeLevel int

	// Event says what a Notice is about.
	Event int

	// Notice is a human-readable message for the user-facing notification
	// channel. Err is set for EventScriptFault notices and is always a
	// *ScriptError.
	Notice struct {
		Level   NoticeLevel
		Event   Event
		Path    string
		Message string
		Err     error
	}

	// Notifier receives notices. Implementations are called synchronously on
	// the tick goroutine and must not call back into the registry.
	Notifier interface {
		Notify(n Notice)
	}

	// NotifierFunc adapts a function to Notifier.
	NotifierFunc func(n Notice)
)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

func (l NoticeLevel) String() string {
	switch l {
	case NoticeInfo:
		return "info"
	case NoticeWarn:
		return "warn"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

func faultNotice(err *ScriptError, msg string) Notice {
	level := NoticeError
	if err.Kind == KindProtocol {
		level = NoticeWarn
	}
	return Notice{
		Level:   level,
		Event:   EventScriptFault,
		Path:    err.Path,
		Message: msg,
		Err:     err,
	}
}

var discardNotifier = NotifierFunc(func(Notice) {})
