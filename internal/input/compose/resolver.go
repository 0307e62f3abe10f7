package compose

import "github.com/dshills/keyrelay/internal/input/key"

// Resolver tracks a single pending dead-key accent across calls.
//
// A Resolver is not safe for concurrent use; it belongs to one input
// pipeline.
type Resolver struct {
	combining rune
	combine   func(accent, c rune) rune
}

// NewResolver returns a Resolver that composes with DeadChar.
func NewResolver() *Resolver {
	return &Resolver{combine: DeadChar}
}

// NewResolverWithFunc returns a Resolver that composes with fn.
// fn signals failure by returning a value <= 0.
func NewResolverWithFunc(fn func(accent, c rune) rune) *Resolver {
	if fn == nil {
		fn = DeadChar
	}
	return &Resolver{combine: fn}
}

// Resolve feeds a platform code point to the resolver.
//
// It returns the character to report for this key, or false while an
// accent is still pending. A zero code point reports nothing and leaves the
// pending accent untouched.
func (r *Resolver) Resolve(codePoint uint32) (rune, bool) {
	if codePoint == 0 {
		return 0, false
	}

	if codePoint&key.CombiningAccent != 0 {
		plain := rune(codePoint & key.CombiningAccentMask)
		if r.combining != 0 {
			r.combining = r.sanitize(r.combine(r.combining, plain))
		} else {
			r.combining = plain
		}
		return 0, false
	}

	ch := rune(codePoint)
	if r.combining == 0 {
		return ch, true
	}

	combined := r.combine(r.combining, ch)
	r.combining = 0
	if combined > 0 {
		return combined, true
	}
	return ch, true
}

// Pending returns the accent waiting to be combined, if any.
func (r *Resolver) Pending() (rune, bool) {
	return r.combining, r.combining != 0
}

// Snapshot returns the pending accent, zero when none. Passing it to
// Restore undoes every Resolve made in between.
func (r *Resolver) Snapshot() rune {
	return r.combining
}

// Restore reinstates a pending accent taken with Snapshot.
func (r *Resolver) Restore(accent rune) {
	r.combining = r.sanitize(accent)
}

// Reset drops any pending accent.
func (r *Resolver) Reset() {
	r.combining = 0
}

// sanitize maps a failed combination to the empty state.
func (r *Resolver) sanitize(c rune) rune {
	if c <= 0 {
		return 0
	}
	return c
}
