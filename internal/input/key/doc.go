// Package key provides the raw platform key event model.
//
// An Event is the opaque payload that travels through the input pipeline:
// the platform produces it, the processor forwards a description of it to
// the framework, and the responder keeps the original value until the
// framework answers. Events carry a press/release Action, the key identity,
// modifiers, and the platform code point in UnicodeChar. Dead keys set the
// CombiningAccent bit on UnicodeChar; the plain accent is recovered with
// PlainCodePoint.
//
// # Key Specifications
//
// Parse accepts the notations used in configuration and tests:
//
//   - Simple keys: "a", "A", "1", "Enter", "Escape"
//   - With modifiers: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P"
//   - Vim-style: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
//   - Dead keys: "dead+´", "dead+^"
package key
