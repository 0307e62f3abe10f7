package platform

import "github.com/dshills/keyrelay/internal/input/key"

// maxContextDepth bounds FindActivity against accidental parent cycles.
const maxContextDepth = 64

// Context is a node in the host ownership chain.
type Context interface {
	// Parent returns the enclosing context, or nil at the root.
	Parent() Context
}

// Activity is a context that owns a key dispatch path.
type Activity interface {
	Context

	// DispatchKeyEvent routes ev through the normal dispatch path and
	// reports whether anything handled it. It runs synchronously.
	DispatchKeyEvent(ev key.Event) bool
}

// Wrapper is a context that delegates to a base context.
type Wrapper struct {
	base Context
	name string
}

// NewWrapper wraps base.
func NewWrapper(base Context, name string) *Wrapper {
	return &Wrapper{base: base, name: name}
}

// Parent returns the wrapped base context.
func (w *Wrapper) Parent() Context {
	if w == nil {
		return nil
	}
	return w.base
}

// Name returns the wrapper's name.
func (w *Wrapper) Name() string {
	return w.name
}

// FindActivity returns the nearest Activity at or above ctx, or nil when
// the chain has none.
func FindActivity(ctx Context) Activity {
	for depth := 0; ctx != nil && depth < maxContextDepth; depth++ {
		if a, ok := ctx.(Activity); ok {
			return a
		}
		ctx = ctx.Parent()
	}
	return nil
}
