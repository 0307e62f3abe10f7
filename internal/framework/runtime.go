package framework

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyrelay/internal/channel"
	"github.com/dshills/keyrelay/internal/logging"
)

//go:embed default.lua
var defaultScript string

// EmbeddedSource is reported by Source when no script file is loaded.
const EmbeddedSource = "<embedded>"

// Stats counts runtime activity.
type Stats struct {
	Messages uint64
	Handled  uint64
	Declined uint64
	Errors   uint64
	Reloads  uint64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithChannel sets the channel name the runtime serves.
func WithChannel(name string) Option {
	return func(r *Runtime) {
		if name != "" {
			r.channel = name
		}
	}
}

// WithScript loads the script at path instead of the embedded default.
func WithScript(path string) Option {
	return func(r *Runtime) {
		r.scriptPath = path
	}
}

// WithQueueSize sets the executor queue size.
func WithQueueSize(n int) Option {
	return func(r *Runtime) {
		r.queueSize = n
	}
}

// WithTimeout bounds each on_key call.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// WithOutputHandler receives strings the script passes to keyrelay.emit.
// fn runs on the host loop.
func WithOutputHandler(fn func(text string)) Option {
	return func(r *Runtime) {
		r.onOutput = fn
	}
}

// Runtime serves the key event channel with a Lua script. It implements
// channel.Messenger.
type Runtime struct {
	poster    Poster
	exec      *Executor
	out       *outbox
	logger    *logging.Logger
	channel   string
	queueSize int
	timeout   time.Duration
	onOutput  func(string)

	pathMu     sync.Mutex
	scriptPath string

	// state and output are only touched on the executor goroutine.
	state  *State
	output []string

	started atomic.Bool
	closed  atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	messages atomic.Uint64
	handled  atomic.Uint64
	declined atomic.Uint64
	errs     atomic.Uint64
	reloads  atomic.Uint64
}

// NewRuntime creates a runtime that posts replies through poster.
func NewRuntime(poster Poster, opts ...Option) *Runtime {
	r := &Runtime{
		poster:    poster,
		out:       newOutbox(),
		logger:    logging.Null(),
		channel:   channel.DefaultName,
		queueSize: DefaultQueueSize,
		timeout:   DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent("framework")
	r.exec = NewExecutor(r.queueSize)
	return r
}

// Start launches the executor and loads the script. A script that fails
// to load is reported and leaves the runtime serving with no handler.
func (r *Runtime) Start(ctx context.Context) error {
	if r.closed.Load() {
		return ErrRuntimeClosed
	}
	if !r.started.CompareAndSwap(false, true) {
		return nil
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.exec.Run(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.out.pump(ctx, r.poster, r.logger)
	}()

	return r.Reload(ctx)
}

// Send implements channel.Messenger. Replies to messages sent before
// Start are delivered once the runtime starts.
func (r *Runtime) Send(name string, message []byte, reply channel.Reply) {
	r.messages.Add(1)

	if !r.started.Load() {
		r.out.push(func() { reply(nil, ErrNotStarted) })
		return
	}

	err := r.exec.Submit(func() error {
		payload, err := r.handle(name, message)
		r.out.push(func() { reply(payload, err) })
		r.flushOutput()
		return nil
	})
	if err != nil {
		r.out.push(func() { reply(nil, err) })
	}
}

// handle runs on the executor goroutine.
func (r *Runtime) handle(name string, message []byte) ([]byte, error) {
	if name != r.channel {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
	}

	msg, err := channel.DecodeRecord(message)
	if err != nil {
		r.errs.Add(1)
		return nil, err
	}

	handled, err := r.onKey(msg)
	if err != nil {
		r.errs.Add(1)
		r.logger.WithField("event", msg.EventID).Error("on_key failed: %v", err)
	}
	if handled {
		r.handled.Add(1)
	} else {
		r.declined.Add(1)
	}
	return channel.EncodeReply(handled), nil
}

func (r *Runtime) onKey(msg channel.Message) (bool, error) {
	if r.state == nil || !r.state.HasFunction("on_key") {
		return false, ErrNoHandler
	}

	ret, err := r.state.Call(context.Background(), "on_key", eventTable(r.state.L, msg))
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(ret), nil
}

// LoadScript switches to the script at path and reloads a running
// runtime. An empty path selects the embedded default.
func (r *Runtime) LoadScript(ctx context.Context, path string) error {
	r.pathMu.Lock()
	r.scriptPath = path
	r.pathMu.Unlock()

	if !r.started.Load() {
		return nil
	}
	return r.Reload(ctx)
}

// Source returns the loaded script path, or EmbeddedSource.
func (r *Runtime) Source() string {
	r.pathMu.Lock()
	defer r.pathMu.Unlock()
	if r.scriptPath == "" {
		return EmbeddedSource
	}
	return r.scriptPath
}

// Reload builds a fresh Lua state from the current script. On failure the
// previous state keeps serving.
func (r *Runtime) Reload(ctx context.Context) error {
	if !r.started.Load() {
		return ErrNotStarted
	}

	source := r.Source()
	code := defaultScript
	if source != EmbeddedSource {
		data, err := os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		code = string(data)
	}

	return r.exec.Execute(ctx, func() error {
		state := NewState(WithCallTimeout(r.timeout))
		state.RegisterModule("keyrelay", r.moduleFuncs())
		if err := state.DoString(code); err != nil {
			state.Close()
			r.output = nil
			r.logger.Error("script %s failed to load: %v", source, err)
			return fmt.Errorf("load script %s: %w", source, err)
		}
		if !state.HasFunction("on_key") {
			r.logger.Warn("script %s defines no on_key function", source)
		}

		if r.state != nil {
			r.state.Close()
		}
		r.state = state
		r.reloads.Add(1)
		r.logger.Info("loaded script %s", source)
		r.flushOutput()
		return nil
	})
}

func (r *Runtime) moduleFuncs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"log": func(L *lua.LState) int {
			r.logger.Info("%s", L.CheckString(1))
			return 0
		},
		"has_modifier": hasModifier,
		"emit": func(L *lua.LState) int {
			r.output = append(r.output, L.CheckString(1))
			return 0
		},
	}
}

// flushOutput posts text emitted during the last call. It runs on the
// executor goroutine after the call's reply has been queued.
func (r *Runtime) flushOutput() {
	texts := r.output
	r.output = nil
	if r.onOutput == nil {
		return
	}
	for _, text := range texts {
		r.out.push(func() { r.onOutput(text) })
	}
}

// Close stops the runtime. Messages still queued are dropped without a
// reply.
func (r *Runtime) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	r.exec.Close()
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()

	if r.state != nil {
		r.state.Close()
		r.state = nil
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (r *Runtime) IsClosed() bool {
	return r.closed.Load()
}

// Stats returns a snapshot of the counters.
func (r *Runtime) Stats() Stats {
	return Stats{
		Messages: r.messages.Load(),
		Handled:  r.handled.Load(),
		Declined: r.declined.Load(),
		Errors:   r.errs.Load(),
		Reloads:  r.reloads.Load(),
	}
}
