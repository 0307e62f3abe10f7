// Package platform models the host side of the input pipeline.
//
// A Context is anything positioned in the host's ownership chain; each
// context knows its parent. An Activity is a context that can dispatch key
// events through the host's normal routing: focused view first, then the
// window's fallback handlers. The Looper is the host's main thread; input
// handling and acknowledgments from the framework all run on it.
package platform
