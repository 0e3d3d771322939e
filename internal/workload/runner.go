package workload

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/kernos/internal/console"
	"github.com/dshills/kernos/internal/console/core"
	"github.com/dshills/kernos/internal/task"
)

// reapPollInterval paces the WNOHANG polling in ReapAll between reaps.
const reapPollInterval = 10 * time.Millisecond

// taskPalette colors each spawned task's output; tasks cycle through it
// by id.
var taskPalette = []core.Color{
	core.MakeColor(core.Green, core.Black),
	core.MakeColor(core.Cyan, core.Black),
	core.MakeColor(core.Magenta, core.Black),
	core.MakeColor(core.Brown, core.Black),
	core.MakeColor(core.LightGray, core.Black),
}

// Runner spawns workload tasks into a process table and pipes their
// output through a console. Every spawned task is a child of the runner's
// root task, which is what ReapAll waits on.
type Runner struct {
	table *task.Table
	term  *console.Term
	log   *logrus.Logger
	root  *task.Task

	mu     sync.Mutex
	names  map[int]string
	loaded int

	wg sync.WaitGroup
}

// NewRunner builds a runner around the given table and console. The
// runner creates its own root task in the table.
func NewRunner(table *task.Table, term *console.Term, log *logrus.Logger) (*Runner, error) {
	root, err := table.Create(0, 0)
	if err != nil {
		return nil, err
	}
	return &Runner{
		table: table,
		term:  term,
		log:   log,
		root:  root,
		names: make(map[int]string),
	}, nil
}

// Root returns the runner's root task.
func (r *Runner) Root() *task.Task { return r.root }

// Spawn creates a child task for spec and starts its work on a new
// goroutine: write each line, pause, exit with the configured status.
func (r *Runner) Spawn(spec Spec) (*task.Task, error) {
	t, err := r.table.Create(r.root.ID(), spec.Group)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.names[t.ID()] = spec.Name
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"name": spec.Name,
		"pid":  t.ID(),
		"pgid": t.Pgid(),
	}).Debug("spawning workload task")

	r.wg.Add(1)
	go r.run(t, spec)
	return t, nil
}

// SpawnAll spawns every task in f and records how many specs are known,
// so a later reload only picks up appended ones.
func (r *Runner) SpawnAll(f *File) error {
	for _, spec := range f.Tasks {
		if _, err := r.Spawn(spec); err != nil {
			return err
		}
	}
	r.mu.Lock()
	if len(f.Tasks) > r.loaded {
		r.loaded = len(f.Tasks)
	}
	r.mu.Unlock()
	return nil
}

func (r *Runner) run(t *task.Task, spec Spec) {
	defer r.wg.Done()

	t.SetState(task.Running)
	color := taskPalette[t.ID()%len(taskPalette)]

	for _, line := range spec.Lines {
		r.term.WriteString(line+"\r\n", color)
		if spec.Delay > 0 {
			time.Sleep(time.Duration(spec.Delay))
		}
	}
	r.table.Exit(t, spec.Exit)
}

// ReapAll collects every child of the runner's root until none is left,
// logging each reap. It polls non-blocking so the context stays in
// charge between reaps.
func (r *Runner) ReapAll(ctx context.Context) error {
	for {
		var status task.StatusVar
		pid, err := r.table.Waitpid(r.root, -1, &status, task.WNOHANG)
		switch {
		case errors.Is(err, task.ErrNoChild):
			return nil
		case err != nil:
			return err
		case pid == 0:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reapPollInterval):
			}
			continue
		}

		r.mu.Lock()
		name := r.names[pid]
		delete(r.names, pid)
		r.mu.Unlock()

		r.log.WithFields(logrus.Fields{
			"name":   name,
			"pid":    pid,
			"status": int(status),
		}).Info("reaped workload task")
	}
}

// Wait blocks until every spawned goroutine has finished.
func (r *Runner) Wait() { r.wg.Wait() }
