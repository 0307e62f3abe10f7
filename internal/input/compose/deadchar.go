package compose

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// accentToCombining maps the accents a keyboard layout reports for its dead
// keys to the Unicode combining mark they apply.
var accentToCombining = map[rune]rune{
	'`':      '\u0300', // grave (legacy)
	'\u02CB': '\u0300', // modifier letter grave
	'\u00B4': '\u0301', // acute
	'\'':     '\u0301',
	'^':      '\u0302', // circumflex (legacy)
	'\u02C6': '\u0302',
	'~':      '\u0303', // tilde (legacy)
	'\u02DC': '\u0303',
	'\u00AF': '\u0304', // macron
	'\u02D8': '\u0306', // breve
	'\u02D9': '\u0307', // dot above
	'\u00A8': '\u0308', // diaeresis
	'"':      '\u0308',
	'\u02C0': '\u0309', // hook above
	'\u02DA': '\u030A', // ring above
	'\u02DD': '\u030B', // double acute
	'\u02C7': '\u030C', // caron
	'\u02C8': '\u030D', // vertical line above
	'\u02BC': '\u0315', // comma above right
	'\u02CC': '\u0329', // vertical line below
	'\u02CD': '\u0331', // macron below
	'\u00B8': '\u0327', // cedilla
	'\u02DB': '\u0328', // ogonek
}

// combiningFor returns the combining mark for an accent, or 0 when the
// accent is unknown. Combining marks map to themselves.
func combiningFor(accent rune) rune {
	if accent >= '\u0300' && accent <= '\u036F' {
		return accent
	}
	return accentToCombining[accent]
}

// DeadChar combines a dead-key accent with the character typed after it.
//
// Typing the accent twice, or following it with a space, produces the
// accent itself. Otherwise the result is the canonical (NFC) composition of
// c with the accent's combining mark when that composition is a single code
// point. DeadChar returns 0 when no composition exists.
func DeadChar(accent, c rune) rune {
	if c == accent || c == ' ' {
		return accent
	}

	mark := combiningFor(accent)
	if mark == 0 || c <= 0 || !utf8.ValidRune(c) {
		return 0
	}

	composed := norm.NFC.String(string([]rune{c, mark}))
	r, size := utf8.DecodeRuneInString(composed)
	if r == utf8.RuneError || size != len(composed) {
		return 0
	}
	return r
}
