// Package framework runs the Lua side of the key event channel.
//
// A Runtime receives encoded key events, hands each one to the global Lua
// function on_key on a dedicated executor goroutine and answers with the
// function's verdict. A truthy return means the script consumed the key;
// anything else, including a missing function or a script error, sends
// the key back to the host.
//
// The script sees each event as a table:
//
//	event.type            "keydown" or "keyup"
//	event.id              event id
//	event.key             key name ("a", "Enter", "F5")
//	event.key_code        numeric key code
//	event.scan_code       hardware scan code
//	event.meta_state      platform meta state bits
//	event.modifiers       list of modifier names ("ctrl", "alt", "shift", "meta")
//	event.code_point      code point without the combining flag
//	event.plain_code_point
//	event.combining       true for a dead-key accent
//	event.character       resolved character, nil when there is none
//	event.repeat_count
//	event.device_id
//	event.source
//	event.keymap
//
// The keyrelay module offers log, has_modifier and emit. emit passes a
// string back to the host.
//
// Replies are posted to the host loop in the order the messages arrived.
package framework
