// Package app wires the kernos pieces together: configuration, logging,
// the console with its video backend, the process table, and the workload
// runner. It owns the lifecycle from New to Shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/dshills/kernos/internal/config"
	"github.com/dshills/kernos/internal/console"
	"github.com/dshills/kernos/internal/console/backend"
	"github.com/dshills/kernos/internal/console/core"
	"github.com/dshills/kernos/internal/task"
	"github.com/dshills/kernos/internal/workload"
)

const (
	// Grid for headless runs when the config does not pick one.
	defaultHeadlessRows = 25
	defaultHeadlessCols = 80

	// Lines one PgUp/PgDn press scrolls.
	scrollStep = 5

	// How long the reaper idles after draining before re-polling a
	// watched workload for newly appended tasks.
	reapRecheck = 200 * time.Millisecond
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the TOML configuration file.
	ConfigPath string

	// WorkloadPath is the path to the YAML workload file.
	WorkloadPath string

	// Watch spawns workload specs appended to the file while running.
	Watch bool

	// Headless renders to an in-memory grid instead of the terminal.
	Headless bool

	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Application is the assembled kernos demo.
type Application struct {
	opts Options
	cfg  config.Config
	log  *logrus.Logger

	table *task.Table

	// Set by Run; guarded against Shutdown arriving from the signal
	// goroutine mid-startup.
	mu     sync.Mutex
	term   *console.Term
	runner *workload.Runner
	screen *backend.Terminal
	grid   *backend.Memory

	ctx    context.Context
	cancel context.CancelFunc

	running  atomic.Bool
	shutdown sync.Once
}

// New loads the configuration, prepares logging and creates the process
// table. The console and its backend are created by Run, which knows
// whether a real terminal is available.
func New(opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Log, opts.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		opts:   opts,
		cfg:    cfg,
		log:    log,
		table:  task.NewTable(),
		ctx:    ctx,
		cancel: cancel,
	}

	fields := logrus.Fields{"run_id": uuid.NewString()}
	if opts.ConfigPath != "" {
		fields["config"] = opts.ConfigPath
	}
	log.WithFields(fields).Info("kernos starting")

	return app, nil
}

// Run brings up the backend, console and workload, then blocks: on a
// terminal until a quit key, headless until the workload drains. A
// key-requested exit returns ErrQuit.
func (app *Application) Run() error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	onTTY := !app.opts.Headless && term.IsTerminal(int(os.Stdout.Fd()))

	// 1. Video backend.
	var bk backend.Backend
	if onTTY {
		screen, err := backend.NewTerminal()
		if err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		if err := screen.Init(); err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		app.mu.Lock()
		app.screen = screen
		app.mu.Unlock()
		if app.ctx.Err() != nil {
			screen.Shutdown()
			return nil
		}
		bk = screen

		// The screen owns the tty now; keep stderr logging off it.
		if app.cfg.Log.File == "" {
			app.log.SetOutput(io.Discard)
		}
	} else {
		rows, cols := app.cfg.Console.Rows, app.cfg.Console.Cols
		if rows == 0 && cols == 0 {
			rows, cols = defaultHeadlessRows, defaultHeadlessCols
		}
		grid := backend.NewMemory(rows, cols)
		app.mu.Lock()
		app.grid = grid
		app.mu.Unlock()
		bk = grid
	}

	// 2. Console, with the ANSI filter installed.
	cons, err := console.New(bk, console.Options{
		Rows:            app.cfg.Console.Rows,
		Cols:            app.cfg.Console.Cols,
		TabSize:         app.cfg.Console.TabSize,
		ScrollbackRows:  app.cfg.Console.ScrollbackRows,
		DisableTabStops: app.cfg.Console.DisableTabStops,
		Filter:          console.NewEscapeFilter(),
	})
	if err != nil {
		return &InitError{Component: "console", Err: err}
	}

	// 3. Workload runner on a fresh root task.
	runner, err := workload.NewRunner(app.table, cons, app.log)
	if err != nil {
		return &InitError{Component: "runner", Err: err}
	}

	app.mu.Lock()
	app.term = cons
	app.runner = runner
	app.mu.Unlock()

	fmt.Fprintf(cons.Writer(core.DefaultColor), "kernos console %dx%d\r\n", cons.Rows(), cons.Cols())

	// 4. Workload.
	if app.opts.WorkloadPath != "" {
		f, err := workload.Load(app.opts.WorkloadPath)
		if err != nil {
			return err
		}
		if err := runner.SpawnAll(f); err != nil {
			return err
		}
		if app.opts.Watch {
			go func() {
				err := runner.Watch(app.ctx, app.opts.WorkloadPath)
				if err != nil && !errors.Is(err, context.Canceled) {
					app.log.WithError(err).Warn("workload watch stopped")
				}
			}()
		}
	}

	if !onTTY {
		return app.drain()
	}

	go func() {
		if err := app.drain(); err != nil {
			app.log.WithError(err).Warn("reaping stopped early")
			return
		}
		if app.opts.WorkloadPath != "" && !app.opts.Watch {
			fmt.Fprint(cons.Writer(core.DefaultColor), "workload complete; press q to quit\r\n")
		}
	}()
	return app.eventLoop()
}

// drain reaps children until none remain, then waits out the writer
// goroutines. When watching, appended specs may arrive at any time, so an
// empty table only pauses the loop. Cancellation counts as a clean stop;
// writers still in their delay sleeps are left to finish on their own.
func (app *Application) drain() error {
	for {
		err := app.runner.ReapAll(app.ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		}
		if !app.opts.Watch {
			app.runner.Wait()
			return nil
		}
		select {
		case <-app.ctx.Done():
			return nil
		case <-time.After(reapRecheck):
		}
	}
}

// eventLoop owns the tcell event stream. Shutdown finalizes the screen,
// which makes PollEvent return nil and ends the loop.
func (app *Application) eventLoop() error {
	for {
		ev := app.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape || ev.Rune() == 'q':
				return ErrQuit
			case ev.Key() == tcell.KeyPgUp:
				app.term.ScrollUp(scrollStep)
			case ev.Key() == tcell.KeyPgDn:
				app.term.ScrollDown(scrollStep)
			case ev.Key() == tcell.KeyUp:
				app.term.ScrollUp(1)
			case ev.Key() == tcell.KeyDown:
				app.term.ScrollDown(1)
			}
		case *tcell.EventResize:
			// The grid size is fixed at startup; repaint what we have.
			app.screen.Sync()
		}
	}
}

// Snapshot returns the final contents of the in-memory grid after a
// headless run, or "" when a real terminal was used.
func (app *Application) Snapshot() string {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.grid == nil {
		return ""
	}
	return app.grid.Snapshot()
}

// Shutdown stops the workload machinery and releases the terminal. It is
// safe to call more than once and from any goroutine.
func (app *Application) Shutdown() {
	app.shutdown.Do(func() {
		app.cancel()

		app.mu.Lock()
		term, screen := app.term, app.screen
		app.mu.Unlock()

		if screen != nil {
			if term != nil {
				// Park the console on a discard device so late writers
				// cannot touch the screen after Fini.
				term.PauseOutput()
			}
			screen.Shutdown()
		}
	})
}
