// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/mmvest/User-Interface-Forge/internal/forgescript"
	"github.com/mmvest/User-Interface-Forge/internal/issue"
)

// issueStyle is the glamour style used for issue guides.
const issueStyle = "dark"

// noticePrinter is the user-facing notification channel of the CLI. It stands
// in for the overlay's toast messages: one styled line per notice and, in
// verbose mode, the full issue guide the first time each issue shows up.
type noticePrinter struct {
	out     io.Writer
	verbose bool
	render  func(*issue.Issue) (string, error)
	shown   map[issue.Id]bool
	faults  int
}

func newNoticePrinter(out io.Writer, verbose bool) *noticePrinter {
	return &noticePrinter{
		out:     out,
		verbose: verbose,
		render:  func(i *issue.Issue) (string, error) { return i.Render(issueStyle) },
		shown:   make(map[issue.Id]bool),
	}
}

// Notify implements forgescript.Notifier.
func (p *noticePrinter) Notify(n forgescript.Notice) {
	subject := "uiforge"
	if n.Path != "" {
		subject = filepath.Base(n.Path)
	}
	fmt.Fprintf(p.out, "%s %s: %s\n", noticeMarker(n.Level), CmdStyle.Render(subject), n.Message)

	if n.Event != forgescript.EventScriptFault || n.Err == nil {
		return
	}
	p.faults++
	fmt.Fprintf(p.out, "  %s\n", VerboseStyle.Render(n.Err.Error()))

	if !p.verbose {
		return
	}
	id := issueFor(forgescript.KindOf(n.Err))
	if id == 0 || p.shown[id] {
		return
	}
	p.shown[id] = true
	if rendered, err := p.render(issue.Get(id)); err == nil {
		fmt.Fprint(p.out, rendered)
	}
}

// Faults returns the number of fault notices seen so far.
func (p *noticePrinter) Faults() int {
	return p.faults
}

func noticeMarker(level forgescript.NoticeLevel) string {
	switch level {
	case forgescript.NoticeError:
		return ErrorStyle.Render("✗")
	case forgescript.NoticeWarn:
		return WarningStyle.Render("!")
	default:
		return SuccessStyle.Render("→")
	}
}

// issueFor maps an error kind to the guide explaining it. Host failures have
// no guide.
func issueFor(kind forgescript.ErrorKind) issue.Id {
	switch kind {
	case forgescript.KindDiscovery, forgescript.KindLoad:
		return issue.ScriptLoadFailedId
	case forgescript.KindValidation:
		return issue.ScriptReloadFailedId
	case forgescript.KindRuntime:
		return issue.ScriptRunFailedId
	case forgescript.KindCallback:
		return issue.SettingsCallbackFailedId
	case forgescript.KindProtocol:
		return issue.CallbackRejectedId
	default:
		return 0
	}
}
