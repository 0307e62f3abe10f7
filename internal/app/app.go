// Package app wires the keyrelay host together: the terminal, the host
// loop, the key processor, the key event channel, and the Lua framework
// runtime. It manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyrelay/internal/channel"
	"github.com/dshills/keyrelay/internal/config"
	"github.com/dshills/keyrelay/internal/framework"
	"github.com/dshills/keyrelay/internal/input/key"
	"github.com/dshills/keyrelay/internal/input/processor"
	"github.com/dshills/keyrelay/internal/input/textinput"
	"github.com/dshills/keyrelay/internal/logging"
	"github.com/dshills/keyrelay/internal/platform"
	"github.com/dshills/keyrelay/internal/platform/terminal"
)

// Application is the host. All input handling runs on its looper.
type Application struct {
	mu sync.Mutex

	opts   Options
	config *config.Config
	id     string
	logger *logging.Logger

	// Host loop and views
	looper    *platform.Looper
	window    *platform.Window
	surface   *platform.Wrapper
	textInput *textinput.Plugin

	// Framework side
	channel   *channel.KeyEventChannel
	runtime   *framework.Runtime
	processor *processor.KeyProcessor

	backend *terminal.Terminal

	// Looper-confined display state
	lastKey string
	output  string

	quitErr      atomic.Pointer[error]
	running      atomic.Bool
	ready        chan struct{}
	readyOnce    sync.Once
	shutdownOnce sync.Once
	done         chan struct{}
}

// Options configures the application. Non-empty fields override the
// configuration file and environment.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// ScriptPath is the Lua script to load.
	ScriptPath string

	// LogLevel overrides the configured log level.
	LogLevel string

	// Debug forces debug logging.
	Debug bool

	// LogOutput receives log lines. Nil discards them, since the terminal
	// owns stdout and stderr while running.
	LogOutput io.Writer

	// Plugins are wired in order during New. Nil selects DefaultPlugins.
	Plugins []PluginInit
}

// New creates and wires a new application.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}
	if opts.LogLevel != "" {
		if !logging.ValidLevel(opts.LogLevel) {
			return nil, &InitError{Component: "config", Err: fmt.Errorf("invalid log level %q", opts.LogLevel)}
		}
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Debug {
		cfg.Logging.Level = "debug"
	}
	if opts.ScriptPath != "" {
		cfg.Framework.Script = opts.ScriptPath
	}

	app := &Application{
		opts:   opts,
		config: cfg,
		id:     uuid.NewString(),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	if opts.LogOutput != nil {
		app.logger = logging.New(logging.Config{
			Level:  cfg.LogLevel(),
			Output: opts.LogOutput,
			Prefix: "keyrelay",
		}).WithField("engine", app.id[:8])
	} else {
		app.logger = logging.Null()
	}

	app.bootstrap()

	plugins := opts.Plugins
	if plugins == nil {
		plugins = DefaultPlugins()
	}
	reg := &Registry{app: app}
	for i, plug := range plugins {
		if err := plug(reg); err != nil {
			_ = app.runtime.Close()
			return nil, &InitError{Component: fmt.Sprintf("plugin %d", i), Err: err}
		}
	}

	return app, nil
}

// bootstrap builds the input pipeline. The processor is the focused view
// of the main window, and its responder replays declined keys through
// that window.
func (app *Application) bootstrap() {
	cfg := app.config

	app.looper = platform.NewLooper(platform.DefaultLooperQueueSize)
	app.window = platform.NewWindow("main", app.logger)
	app.surface = platform.NewWrapper(app.window, "surface")
	app.textInput = textinput.NewPlugin()

	app.runtime = framework.NewRuntime(app.looper,
		framework.WithLogger(app.logger),
		framework.WithChannel(cfg.Channel.Name),
		framework.WithScript(cfg.Framework.Script),
		framework.WithQueueSize(cfg.Framework.QueueSize),
		framework.WithTimeout(cfg.CallTimeout()),
		framework.WithOutputHandler(app.onOutput),
	)
	app.channel = channel.New(app.runtime,
		channel.WithName(cfg.Channel.Name),
		channel.WithKeymap(cfg.Channel.Keymap),
		channel.WithLogger(app.logger),
	)
	app.processor = processor.New(app.surface, app.channel, app.textInput, processor.NewCounter(),
		processor.WithLogger(app.logger),
		processor.WithMaxPendingEvents(cfg.Input.MaxPendingEvents),
	)
	app.window.SetFocus(app.processor)
}

// ID returns the engine id of this instance.
func (app *Application) ID() string {
	return app.id
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Processor returns the key processor.
func (app *Application) Processor() *processor.KeyProcessor {
	return app.processor
}

// Runtime returns the framework runtime.
func (app *Application) Runtime() *framework.Runtime {
	return app.runtime
}

// SetBackend sets the terminal. It must be called before Run.
func (app *Application) SetBackend(t *terminal.Terminal) error {
	if app.running.Load() {
		return ErrAlreadyRunning
	}
	app.mu.Lock()
	app.backend = t
	app.mu.Unlock()
	return nil
}

// Ready is closed once Run has initialized the terminal and drawn the
// first frame on the looper.
func (app *Application) Ready() <-chan struct{} {
	return app.ready
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Run starts the framework and processes terminal input until Shutdown
// is called or the quit key is pressed. It returns ErrQuit on a normal
// quit.
func (app *Application) Run() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-app.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := app.runtime.Start(ctx); err != nil {
		// The previous script stays active; for a first load that is the
		// script-less runtime, which declines every key.
		app.logger.Error("framework start: %v", err)
	}
	if app.config.Framework.Watch && app.config.Framework.Script != "" {
		if err := app.runtime.Watch(ctx, app.config.Framework.Script); err != nil {
			app.logger.Warn("script watch disabled: %v", err)
		}
	}

	app.mu.Lock()
	backend := app.backend
	app.mu.Unlock()

	var polling sync.WaitGroup
	if backend != nil {
		if err := backend.Init(); err != nil {
			_ = app.runtime.Close()
			return &InitError{Component: "terminal", Err: err}
		}
		polling.Add(1)
		go func() {
			defer polling.Done()
			app.pollLoop(backend)
		}()
	}
	defer func() {
		app.looper.Quit()
		if backend != nil {
			backend.Shutdown()
		}
		polling.Wait()
		_ = app.runtime.Close()
	}()

	app.logger.Info("started on channel %s", app.channel.Name())
	_ = app.looper.Post(func() {
		app.render()
		app.readyOnce.Do(func() { close(app.ready) })
	})

	err := app.looper.Run(ctx)
	if qe := app.quitErr.Load(); qe != nil {
		return *qe
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollLoop feeds terminal events to the looper until the terminal shuts
// down or the looper closes.
func (app *Application) pollLoop(t *terminal.Terminal) {
	for {
		ev, ok := t.PollEvent()
		if !ok {
			return
		}

		var task func()
		switch ev.Type {
		case terminal.EventKey:
			k := ev.Key
			task = func() { app.HandleKey(k) }
		case terminal.EventResize:
			task = app.render
		default:
			continue
		}
		if err := app.looper.Post(task); err != nil {
			return
		}
	}
}

// HandleKey dispatches a terminal key press and its synthesized release
// through the main window. It must run on the looper.
func (app *Application) HandleKey(down key.Event) {
	down = down.WithAction(key.ActionDown)
	app.window.DispatchKeyEvent(down)

	up := down.WithAction(key.ActionUp)
	up.Timestamp = time.Now()
	app.window.DispatchKeyEvent(up)

	app.lastKey = down.String()
	app.render()
}

// Post runs fn on the looper.
func (app *Application) Post(fn func()) error {
	return app.looper.Post(fn)
}

func (app *Application) onOutput(text string) {
	app.output = text
	app.render()
}

func (app *Application) requestQuit() {
	err := ErrQuit
	app.quitErr.CompareAndSwap(nil, &err)
	app.looper.Quit()
}

// Shutdown stops the application. It is safe to call more than once and
// from any goroutine.
func (app *Application) Shutdown() {
	app.shutdownOnce.Do(func() {
		app.logger.Info("shutting down")
		close(app.done)
		app.looper.Quit()
		if !app.running.Load() {
			_ = app.runtime.Close()
		}
	})
}
