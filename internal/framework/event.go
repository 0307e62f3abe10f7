package framework

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyrelay/internal/channel"
)

// eventTable builds the table on_key receives.
func eventTable(L *lua.LState, msg channel.Message) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("type", lua.LString(msg.Type))
	t.RawSetString("id", lua.LNumber(msg.EventID))
	t.RawSetString("key", lua.LString(msg.Key))
	t.RawSetString("key_code", lua.LNumber(msg.KeyCode))
	t.RawSetString("scan_code", lua.LNumber(msg.ScanCode))
	t.RawSetString("meta_state", lua.LNumber(msg.MetaState))
	t.RawSetString("code_point", lua.LNumber(msg.CodePoint))
	t.RawSetString("plain_code_point", lua.LNumber(msg.PlainCodePoint))
	t.RawSetString("combining", lua.LBool(msg.Combining))
	t.RawSetString("repeat_count", lua.LNumber(msg.RepeatCount))
	t.RawSetString("device_id", lua.LNumber(msg.DeviceID))
	t.RawSetString("source", lua.LString(msg.Source))
	t.RawSetString("keymap", lua.LString(msg.Keymap))
	if msg.HasCharacter() {
		t.RawSetString("character", lua.LString(msg.Character))
	}

	mods := L.NewTable()
	for _, m := range msg.Modifiers {
		mods.Append(lua.LString(m))
	}
	t.RawSetString("modifiers", mods)
	return t
}

// hasModifier implements keyrelay.has_modifier(event, name).
func hasModifier(L *lua.LState) int {
	event := L.CheckTable(1)
	name := L.CheckString(2)

	found := false
	if mods, ok := event.RawGetString("modifiers").(*lua.LTable); ok {
		mods.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok && string(s) == name {
				found = true
			}
		})
	}
	L.Push(lua.LBool(found))
	return 1
}
