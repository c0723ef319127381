// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ScriptLoadFailedId Id = iota + 1
	ScriptRunFailedId
	ScriptReloadFailedId
	CallbackRejectedId
	SettingsCallbackFailedId
	ConfigLoadFailedId
	ScriptsDirNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	name     string      // name accepted by `uiforge issue <name>`
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	scriptLoadFailedIssue = &Issue{
		id:   ScriptLoadFailedId,
		name: "script-load-failed",
		mdMsg: `
# A script could not be loaded!

The file was found in the scripts directory but it could not be read or it
does not compile. It was skipped; the other scripts keep running.

## Things you can try:
- Check the error above for the line and column of the syntax error
- Validate the script without running anything:
~~~
$ uiforge check uif_scripts/my_script.lua
~~~

- Make sure the file is readable by the current user
- Once fixed, the script is picked up by the next refresh, or on restart`,
		extLinks: []HttpLink{"https://www.lua.org/manual/5.1/manual.html#2"},
	}

	scriptRunFailedIssue = &Issue{
		id:   ScriptRunFailedId,
		name: "script-run-failed",
		mdMsg: `
# A script failed and was disabled!

The script raised an error while running, or took longer than the execution
budget. It has been disabled so it does not fail again on every frame.

## Things you can try:
- Read the error above; Lua errors include the file name and line
- Look for loops that never end if the error mentions a deadline
- Raise the budget if the script is legitimately slow:
~~~cue
exec_budget: "500ms"
~~~

- Save the fixed file while ` + "`uiforge run --watch`" + ` is running; it is
  reloaded and enabled again automatically`,
		extLinks: []HttpLink{"https://www.lua.org/pil/8.4.html"},
	}

	scriptReloadFailedIssue = &Issue{
		id:   ScriptReloadFailedId,
		name: "script-reload-failed",
		mdMsg: `
# A script edit was rejected!

The file changed on disk but the new version does not compile, or it could
no longer be read. A version that does not compile is never swapped in: the
previously loaded version keeps running untouched.

## Things you can try:
- Fix the syntax error reported above and save again
- Check the edit without reloading anything:
~~~
$ uiforge check uif_scripts/my_script.lua
~~~

- If the file was deleted or moved, the script is disabled; restore it or
  restart to drop it`,
	}

	callbackRejectedIssue = &Issue{
		id:   CallbackRejectedId,
		name: "callback-rejected",
		mdMsg: `
# A callback registration was rejected!

Callbacks can only be registered while the script itself is running, and only
for a known slot. Nothing was changed.

## Valid slots:
- ` + "`settings`" + ` draws the script's settings
- ` + "`teardown`" + ` runs once when the script is disabled

## Things you can try:
- Register callbacks from the top level of the script, not from inside
  another callback
- Check the slot name for typos:
~~~lua
UiForge.RegisterCallback("teardown", function()
  UiForge.Log("cleaning up")
end)
~~~`,
	}

	settingsCallbackFailedIssue = &Issue{
		id:   SettingsCallbackFailedId,
		name: "settings-callback-failed",
		mdMsg: `
# A settings callback failed!

The function the script registered with ` + "`UiForge.RegisterScriptSettings`" + `
raised an error. The script has been disabled.

## Things you can try:
- Read the Lua error above for the failing line
- Re-enable the script after fixing it, or save the file while
  ` + "`uiforge run --watch`" + ` is running`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config-load-failed",
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be read or does not match the
schema.

## Things you can try:
- Print where the configuration is looked up:
~~~
$ uiforge config path
~~~

- Write a fresh default file and compare:
~~~
$ uiforge config init
~~~

- Durations are strings such as "250ms" or "1s"; log_level is one of
  debug, info, warn or error`,
		extLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	scriptsDirNotFoundIssue = &Issue{
		id:   ScriptsDirNotFoundId,
		name: "scripts-dir-not-found",
		mdMsg: `
# Scripts directory not found!

The scripts directory could not be listed, so no script was loaded.

## Things you can try:
- Create the directory next to the working directory:
~~~
$ mkdir uif_scripts
~~~

- Point to another directory:
~~~
$ uiforge run --scripts /path/to/scripts
~~~

- Or set ` + "`scripts_dir`" + ` in your configuration file`,
	}

	issues = map[Id]*Issue{
		scriptLoadFailedIssue.Id():       scriptLoadFailedIssue,
		scriptRunFailedIssue.Id():        scriptRunFailedIssue,
		scriptReloadFailedIssue.Id():     scriptReloadFailedIssue,
		callbackRejectedIssue.Id():       callbackRejectedIssue,
		settingsCallbackFailedIssue.Id(): settingsCallbackFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		scriptsDirNotFoundIssue.Id():     scriptsDirNotFoundIssue,
	}
)

// Values returns every issue in ID order.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

// Names returns the issue names in ID order.
func Names() []string {
	values := Values()
	names := make([]string, 0, len(values))
	for _, i := range values {
		names = append(names, i.name)
	}
	return names
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup returns the issue called name, or nil.
func Lookup(name string) *Issue {
	for _, i := range issues {
		if i.name == name {
			return i
		}
	}
	return nil
}
