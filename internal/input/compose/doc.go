// Package compose resolves dead-key accents into composed characters.
//
// A Resolver holds at most one pending accent. Feeding it platform code
// points (see key.Event.UnicodeChar) yields either nothing, while an accent
// is still being composed, or the final character to report alongside the
// raw event.
package compose
