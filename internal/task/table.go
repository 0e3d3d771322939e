package task

import "sync"

// Table is an arena of tasks indexed by id. Children reference parents by
// id, never by pointer, so reaping a task cannot leave dangling ownership.
//
// One mutex guards the whole tree. Every task's condition variable shares
// it, which lets Waitpid hold the lock across its scan-and-register
// sequence: "no zombie found, go to sleep" can never interleave with a
// concurrent "child became a zombie, wake the waiter".
type Table struct {
	mu     sync.Mutex
	tasks  map[int]*Task
	nextID int
}

// NewTable returns an empty table. Ids start at 1.
func NewTable() *Table {
	return &Table{tasks: make(map[int]*Task), nextID: 1}
}

// Create inserts a new runnable task. parentID 0 makes a root task. pgid 0
// inherits the parent's group, or starts a new group led by the task
// itself when it has no parent.
func (tb *Table) Create(parentID, pgid int) (*Task, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	var parent *Task
	if parentID != 0 {
		parent = tb.tasks[parentID]
		if parent == nil {
			return nil, ErrNoTask
		}
	}

	t := &Task{
		id:     tb.nextID,
		pgid:   pgid,
		parent: parentID,
		cond:   sync.NewCond(&tb.mu),
	}
	tb.nextID++

	if pgid == 0 {
		if parent != nil {
			t.pgid = parent.pgid
		} else {
			t.pgid = t.id
		}
	}

	tb.tasks[t.id] = t
	if parent != nil {
		parent.children = append(parent.children, t.id)
	}
	return t, nil
}

// Get returns the task with the given id, or nil.
func (tb *Table) Get(id int) *Task {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.tasks[id]
}

// Children returns a copy of a task's child id list.
func (tb *Table) Children(id int) []int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	t := tb.tasks[id]
	if t == nil {
		return nil
	}
	out := make([]int, len(t.children))
	copy(out, t.children)
	return out
}

// Len returns the number of live (unreaped) tasks.
func (tb *Table) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.tasks)
}

// Exit turns t into a zombie holding status and propagates the wake: every
// task blocked specifically on t, plus t's parent if the parent sleeps in
// a broad wait. Broad waits are the ones with a negative selector (any
// child, or an explicit process group); an own-group wait carries selector
// 0 and is deliberately not woken here, its re-scan happens on the next
// wake from anywhere else.
func (tb *Table) Exit(t *Task, status int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if State(t.state.Load()) == Zombie {
		return
	}
	t.exitStatus = status
	t.state.Store(int32(Zombie))

	for _, wid := range t.waiters {
		if w := tb.tasks[wid]; w != nil {
			tb.wakeLocked(w)
		}
	}
	t.waiters = t.waiters[:0]

	if p := tb.tasks[t.parent]; p != nil {
		if p.waiting && p.waitSel < 0 && State(p.state.Load()) == Sleeping {
			tb.wakeLocked(p)
		}
	}
}

// Wake makes a sleeping task re-evaluate its wait. Exits call the wake
// path internally; external callers stand in for out-of-band wake sources
// such as signal delivery. Waking a task whose wait condition still holds
// is harmless: the wait loop re-scans and goes back to sleep.
func (tb *Table) Wake(t *Task) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if State(t.state.Load()) != Sleeping {
		return
	}
	// An exact-pid waiter sits in its target's waiter list; leaving it
	// there would double it up when the re-scan registers again.
	if t.waitTarget != 0 {
		if child := tb.tasks[t.waitTarget]; child != nil {
			child.waiters = removeID(child.waiters, t.id)
		}
	}
	tb.wakeLocked(t)
}

func removeID(ids []int, id int) []int {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func (tb *Table) wakeLocked(w *Task) {
	w.waiting = false
	w.waitSel = 0
	w.waitTarget = 0
	w.state.Store(int32(Runnable))
	w.cond.Signal()
}

// Waitpid waits for a state change among the caller's children picked by
// pid:
//
//	pid > 0   exactly that child
//	pid == 0  any child in the caller's process group
//	pid == -1 any child
//	pid < -1  any child in process group -pid
//
// A zombie match is reaped: its status goes through sink (nil discards),
// the task leaves the table, and its id is returned. The child is reaped
// even when the sink fails; the failure surfaces as ErrFault. With no
// matching children the call fails with ErrNoChild. With live matches and
// WNOHANG it returns (0, nil); otherwise it sleeps until a wake and
// re-scans, since another waiter may have won the zombie in between.
func (tb *Table) Waitpid(caller *Task, pid int, sink StatusSink, opts WaitOptions) (int, error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	// An exact-pid wait must name an existing child of the caller.
	if pid > 0 {
		child := tb.tasks[pid]
		if child == nil || child.parent != caller.id {
			return 0, ErrNoChild
		}
	}

	for {
		matches := 0
		var zombie *Task
		for _, cid := range caller.children {
			child := tb.tasks[cid]
			if child == nil || !selectorMatches(pid, caller, child) {
				continue
			}
			matches++
			if State(child.state.Load()) == Zombie {
				zombie = child
				break
			}
		}

		if zombie != nil {
			return tb.reapLocked(zombie, sink)
		}
		if matches == 0 {
			return 0, ErrNoChild
		}
		if opts&WNOHANG != 0 {
			return 0, nil
		}

		tb.registerWaitLocked(caller, pid)
		caller.cond.Wait()
		caller.state.Store(int32(Running))
	}
}

// Wait4 is Waitpid plus resource accounting: a zero Rusage is delivered
// through ru before anything else. A failing rusage sink returns ErrFault
// without touching any child.
func (tb *Table) Wait4(caller *Task, pid int, sink StatusSink, opts WaitOptions, ru RusageSink) (int, error) {
	if ru != nil {
		if err := ru.PutRusage(Rusage{}); err != nil {
			return 0, ErrFault
		}
	}
	return tb.Waitpid(caller, pid, sink, opts)
}

func selectorMatches(pid int, caller, child *Task) bool {
	switch {
	case pid > 0:
		return child.id == pid
	case pid == 0:
		return child.pgid == caller.pgid
	case pid == -1:
		return true
	default:
		return child.pgid == -pid
	}
}

// reapLocked removes the zombie from the tree, then delivers its status.
// Removal comes first: a faulting sink loses the status but the child is
// gone either way.
func (tb *Table) reapLocked(child *Task, sink StatusSink) (int, error) {
	id := child.id
	status := child.exitStatus

	delete(tb.tasks, id)
	if p := tb.tasks[child.parent]; p != nil {
		p.children = removeID(p.children, id)
	}

	if sink != nil {
		if err := sink.PutStatus(status); err != nil {
			return 0, ErrFault
		}
	}
	return id, nil
}

// registerWaitLocked records what the caller is about to sleep on. An
// exact-pid wait also joins that child's waiter list; broad waits rely on
// the parent check in Exit. The list entry is cleaned up by whoever wakes
// the waiter: Exit drains the whole list, Wake removes the one entry.
func (tb *Table) registerWaitLocked(t *Task, selector int) {
	t.waiting = true
	t.waitSel = selector
	t.waitTarget = 0

	if selector > 0 {
		if child := tb.tasks[selector]; child != nil {
			child.waiters = append(child.waiters, t.id)
			t.waitTarget = selector
		}
	}
	t.state.Store(int32(Sleeping))
}
