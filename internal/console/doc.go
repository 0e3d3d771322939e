// Package console implements a scrollback terminal driven by a lock-free
// action queue, in the style of a kernel text console: callers from any
// goroutine post small actions, and exactly one of them at a time renders.
//
// # Architecture
//
//	 callers (any goroutine)
//	   │  Write / MoveCursor / ScrollUp / ...
//	   ▼
//	┌───────────────────────────────┐
//	│   action queue (ringbuf, 32)  │   whoever wins the drain flag
//	└───────────────────────────────┘   becomes the drain owner
//	   │  single drain loop
//	   ▼
//	┌───────────────────────────────┐
//	│   render engine               │   cursor, tabs, erase, scrollback
//	│   circular row buffer         │   rows + 9×rows history
//	└───────────────────────────────┘
//	   │
//	   ▼
//	backend.Backend (tcell / memory / noop)
//
// The queue hands out drain ownership through an atomic flag: every caller
// enqueues, and the one that claims the flag keeps executing actions,
// including ones racing in behind it, until the queue is empty again. Every
// other caller returns immediately. Handlers therefore run strictly one at
// a time and the render state carries no lock.
//
// # Scrollback
//
// The cell buffer holds the visible rows plus a history window, used
// circularly. Advancing past the bottom row grows maxScroll; ScrollUp and
// ScrollDown move the view within [maxScroll - scrollback, maxScroll], and
// any write snaps the view back to the live screen. Devices implementing
// backend.LineScroller advance in O(1); everything else gets a redraw.
//
// # Filters
//
// A FilterFunc sees every written byte first and may suppress it, rewrite
// the color, or synthesize a follow-up action. NewEscapeFilter provides a
// VT100-flavored interpreter on top of this hook.
//
// # Usage
//
//	bk := backend.NewMemory(25, 80)
//	term, err := console.New(bk, console.Options{Filter: console.NewEscapeFilter()})
//	if err != nil {
//		return err
//	}
//	term.WriteString("hello\n", core.DefaultColor)
//	term.WriteString("\x1b[31mred\x1b[0m\n", core.DefaultColor)
package console
