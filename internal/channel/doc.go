// Package channel carries raw key events to the framework and routes its
// answers back to a response handler.
//
// Messages are small JSON documents built with sjson and read with gjson.
// A key-down message looks like:
//
//	{"type":"keydown","keymap":"terminal","eventId":7,"keyCode":1,
//	 "scanCode":0,"metaState":4096,"modifiers":["ctrl"],"codePoint":115,
//	 "plainCodePoint":115,"flags":[],"repeatCount":0,"deviceId":0,
//	 "source":"tcell","key":"s"}
//
// The framework answers each message with {"handled":true} or
// {"handled":false}. Anything else counts as not handled.
package channel
