package app

import (
	"fmt"

	"github.com/dshills/keyrelay/internal/platform/terminal"
)

// statusLines describes the current state of the host. It must run on
// the looper.
func (app *Application) statusLines() []string {
	rs := app.processor.Responder().Stats()
	fs := app.runtime.Stats()

	field := "off (F2)"
	if conn := app.textInput.Connection(); conn != nil {
		field = fmt.Sprintf("[%s] (F2)", conn.Text())
	}

	return []string{
		fmt.Sprintf("keyrelay %s  channel %s  script %s", app.id[:8], app.channel.Name(), app.runtime.Source()),
		fmt.Sprintf("last key: %s", app.lastKey),
		fmt.Sprintf("pending: %d  peak: %d  handled: %d  declined: %d  replayed: %d",
			app.processor.Responder().Pending(), rs.PeakDepth, rs.Handled, rs.NotHandled, rs.Redispatched),
		fmt.Sprintf("framework: messages %d  errors %d  reloads %d", fs.Messages, fs.Errors, fs.Reloads),
		fmt.Sprintf("output: %s", app.output),
		fmt.Sprintf("text field: %s", field),
		"Ctrl+Q quits",
	}
}

// render redraws the status display. It must run on the looper.
func (app *Application) render() {
	app.mu.Lock()
	backend := app.backend
	app.mu.Unlock()
	if backend == nil {
		return
	}

	width, _ := backend.Size()
	lines := app.statusLines()
	for i, line := range lines {
		lines[i] = terminal.Truncate(line, width)
	}
	backend.DrawLines(lines)
}
