package task

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is a task's lifecycle phase. Transitions are driven by the wait
// protocol (Sleeping, Zombie) and by the code running the task (Running).
type State int32

const (
	Runnable State = iota
	Running
	Sleeping
	Zombie
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Zombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// WaitOptions modifies Waitpid behavior.
type WaitOptions int

// WNOHANG makes Waitpid return (0, nil) instead of blocking when matching
// children exist but none is a zombie yet.
const WNOHANG WaitOptions = 0x1

// Task is one entry in a Table. The state field may be read from any
// goroutine; everything else is guarded by the owning table's mutex.
type Task struct {
	id     int
	pgid   int
	parent int

	state      atomic.Int32
	exitStatus int

	children []int

	// Wait bookkeeping. waitSel keeps the raw selector the task went to
	// sleep with; Exit's broad parent wake keys off its sign. waitTarget
	// names the child whose waiter list the task joined, if any.
	waiting    bool
	waitSel    int
	waitTarget int
	waiters    []int
	cond       *sync.Cond
}

// ID returns the task id.
func (t *Task) ID() int { return t.id }

// Pgid returns the process-group id.
func (t *Task) Pgid() int { return t.pgid }

// ParentID returns the parent task id, 0 for a root task.
func (t *Task) ParentID() int { return t.parent }

// State returns the current lifecycle state.
func (t *Task) State() State { return State(t.state.Load()) }

// SetState records a lifecycle transition the wait protocol does not drive
// itself, typically Runnable to Running when the task's work starts.
func (t *Task) SetState(s State) { t.state.Store(int32(s)) }

// ExitStatus returns the status recorded by Exit. It is meaningful only
// once the task is a zombie.
func (t *Task) ExitStatus() int { return t.exitStatus }

// StatusSink receives a reaped child's exit status. It stands in for the
// copy across the user-space boundary: delivery may fail, and the wait
// call reports that as ErrFault.
type StatusSink interface {
	PutStatus(status int) error
}

// StatusVar is the in-process StatusSink; delivery stores the status into
// the variable.
type StatusVar int

func (v *StatusVar) PutStatus(status int) error {
	*v = StatusVar(status)
	return nil
}

// Rusage is the resource accounting a Wait4 caller may ask for. The
// accounting itself is not implemented; Wait4 always delivers a zero
// value.
type Rusage struct {
	UserTime   time.Duration
	SystemTime time.Duration
	MaxRSS     int64
}

// RusageSink receives the Rusage of a reaped child, with the same fault
// semantics as StatusSink.
type RusageSink interface {
	PutRusage(ru Rusage) error
}

// RusageVar is the in-process RusageSink.
type RusageVar Rusage

func (v *RusageVar) PutRusage(ru Rusage) error {
	*v = RusageVar(ru)
	return nil
}
