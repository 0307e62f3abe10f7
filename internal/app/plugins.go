package app

import (
	"github.com/dshills/keyrelay/internal/input/key"
	"github.com/dshills/keyrelay/internal/input/textinput"
	"github.com/dshills/keyrelay/internal/logging"
	"github.com/dshills/keyrelay/internal/platform"
)

// PluginInit wires one host plugin. Plugins are a fixed list handed to
// New; nothing is discovered at run time.
type PluginInit func(r *Registry) error

// Registry is what a plugin may touch while it is being wired.
type Registry struct {
	app *Application
}

// AddKeyHandler registers a handler for keys that neither the text field
// nor the framework consumed. Handlers run on the host loop in
// registration order.
func (r *Registry) AddKeyHandler(h platform.KeyHandler) {
	r.app.window.AddFallback(h)
}

// TextInput returns the text-input plugin.
func (r *Registry) TextInput() *textinput.Plugin {
	return r.app.textInput
}

// Logger returns the application logger.
func (r *Registry) Logger() *logging.Logger {
	return r.app.logger
}

// Quit asks the application to stop with ErrQuit.
func (r *Registry) Quit() {
	r.app.requestQuit()
}

// Refresh redraws the status display.
func (r *Registry) Refresh() {
	r.app.render()
}

// DefaultPlugins returns the built-in plugins.
func DefaultPlugins() []PluginInit {
	return []PluginInit{
		QuitKeyPlugin,
		TextFieldPlugin,
	}
}

// QuitKey is the key that stops the application.
const QuitKey = "<C-q>"

// QuitKeyPlugin stops the application on Ctrl+Q.
func QuitKeyPlugin(r *Registry) error {
	r.AddKeyHandler(func(ev key.Event) bool {
		if ev.IsDown() && ev.Matches(QuitKey) {
			r.Logger().Info("quit requested")
			r.Quit()
			return true
		}
		return false
	})
	return nil
}

// TextFieldPlugin toggles a local text field on F2. While the field is
// attached it consumes printable keys before the framework sees them.
func TextFieldPlugin(r *Registry) error {
	field := textinput.NewConnection("")
	field.OnChange(func(string, int) { r.Refresh() })

	r.AddKeyHandler(func(ev key.Event) bool {
		if ev.Key != key.KeyF2 {
			return false
		}
		if ev.IsDown() {
			ti := r.TextInput()
			if ti.Connection() == nil {
				ti.SetConnection(field)
				r.Logger().Debug("text field attached")
			} else {
				ti.ClearConnection()
				r.Logger().Debug("text field detached")
			}
			r.Refresh()
		}
		return true
	})
	return nil
}
