// Package task implements a process table and the child-wait protocol on
// top of it: waitpid-style selectors, zombie reaping, and wake propagation
// from a child's exit to whoever is blocked on it.
//
// # Model
//
// A Table is an arena of tasks keyed by id. Tasks form a tree through
// parent ids and child id lists; no task holds a pointer to another, so
// removing a reaped zombie never leaves dangling references. A task moves
// through Runnable, Running, Sleeping and Zombie; the zombie keeps its
// exit status until a wait call collects it.
//
// # Waiting
//
// Waitpid picks children with the usual selector encoding: a positive pid
// names one child, -1 means any child, 0 means the caller's process
// group, and anything below -1 names group -pid. The scan, the decision
// to sleep, and the sleep itself all happen under one table-wide mutex,
// so a child turning zombie on another goroutine cannot slip between "no
// zombie found" and "go to sleep". Wakes re-run the whole scan: a woken
// waiter may find another waiter already took the zombie and correctly
// report no child instead.
//
// Status delivery crosses an explicit boundary, StatusSink, standing in
// for the copy out to user space. The copy can fail; the wait call then
// reports ErrFault, and the zombie is reaped regardless.
//
// # Waking
//
// Exit wakes every task in the exiting child's waiter list, and
// additionally the parent when the parent sleeps in a wait whose selector
// is negative. An own-group wait (selector 0) is not reached by that
// check and stays asleep until some other wake arrives; Table.Wake covers
// such out-of-band sources. Every wake is safe by construction because
// the waiter re-scans before trusting anything.
//
// # Usage
//
//	tb := task.NewTable()
//	root, _ := tb.Create(0, 0)
//	child, _ := tb.Create(root.ID(), 0)
//
//	go func() {
//		// ... do the child's work ...
//		tb.Exit(child, 0)
//	}()
//
//	var status task.StatusVar
//	pid, err := tb.Waitpid(root, -1, &status, 0)
package task
