package platform

import (
	"github.com/dshills/keyrelay/internal/input/key"
	"github.com/dshills/keyrelay/internal/logging"
)

// View receives key events routed by a Window. Returning true stops
// propagation.
type View interface {
	OnKeyDown(ev key.Event) bool
	OnKeyUp(ev key.Event) bool
}

// KeyHandler handles a key event that no view claimed.
type KeyHandler func(ev key.Event) bool

// WindowStats counts dispatch outcomes.
type WindowStats struct {
	Dispatched uint64
	ByView     uint64
	ByFallback uint64
	Unhandled  uint64
}

// Window is the host Activity. It routes key events to the focused view
// and then to its fallback handlers in registration order.
//
// Window is confined to the looper goroutine.
type Window struct {
	name      string
	parent    Context
	focused   View
	fallbacks []KeyHandler
	depth     int
	stats     WindowStats
	logger    *logging.Logger
}

// NewWindow creates a root window.
func NewWindow(name string, logger *logging.Logger) *Window {
	if logger == nil {
		logger = logging.Null()
	}
	return &Window{
		name:   name,
		logger: logger.WithComponent("window"),
	}
}

// Parent returns nil; windows are roots unless attached with SetParent.
func (w *Window) Parent() Context {
	return w.parent
}

// SetParent attaches the window below another context.
func (w *Window) SetParent(parent Context) {
	w.parent = parent
}

// Name returns the window name.
func (w *Window) Name() string {
	return w.name
}

// SetFocus makes v the first receiver of key events.
func (w *Window) SetFocus(v View) {
	w.focused = v
}

// Focused returns the focused view.
func (w *Window) Focused() View {
	return w.focused
}

// AddFallback registers a handler for events the focused view declines.
func (w *Window) AddFallback(h KeyHandler) {
	if h != nil {
		w.fallbacks = append(w.fallbacks, h)
	}
}

// DispatchKeyEvent routes ev to the focused view, then to the fallbacks.
func (w *Window) DispatchKeyEvent(ev key.Event) bool {
	w.depth++
	defer func() { w.depth-- }()

	w.stats.Dispatched++

	if v := w.focused; v != nil {
		var handled bool
		if ev.IsUp() {
			handled = v.OnKeyUp(ev)
		} else {
			handled = v.OnKeyDown(ev)
		}
		if handled {
			w.stats.ByView++
			return true
		}
	}

	for _, h := range w.fallbacks {
		if h(ev) {
			w.stats.ByFallback++
			return true
		}
	}

	w.stats.Unhandled++
	w.logger.Debug("unhandled key %s %s", ev.Action, ev)
	return false
}

// Depth returns how many DispatchKeyEvent calls are currently on the stack.
func (w *Window) Depth() int {
	return w.depth
}

// Stats returns the dispatch counters.
func (w *Window) Stats() WindowStats {
	return w.stats
}
