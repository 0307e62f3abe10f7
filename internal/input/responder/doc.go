// Package responder tracks key events forwarded to the framework until the
// framework answers, and replays the ones it declines.
//
// Events are acknowledged strictly in the order they were sent. The ledger
// only ever inspects its head; an acknowledgment for any other id is a
// broken transport contract and panics with *OrderError.
//
// A declined event is replayed through the nearest platform.Activity while
// the re-dispatch guard is raised. Key entry points check Dispatching and
// let the replayed event propagate instead of forwarding it again.
package responder
