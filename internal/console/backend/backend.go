// Package backend defines the video surface the console engine renders
// through, plus the built-in implementations: Noop (installed while output
// is paused), Memory (tests and headless runs) and Terminal (tcell).
package backend

import "github.com/dshills/kernos/internal/console/core"

// Backend is the device a console draws on. The engine calls it only from
// its single drain context, so implementations need no locking of their own
// unless they are shared outside the console.
type Backend interface {
	// Size returns the device text grid dimensions.
	Size() (rows, cols int)

	// SetCellAt draws one cell.
	SetCellAt(row, col int, cell core.Cell)

	// SetRow draws a whole row. cells is valid only for the duration of
	// the call; implementations must copy anything they keep. flush asks
	// a batching device to present the row immediately.
	SetRow(row int, cells []core.Cell, flush bool)

	// ClearRow blanks a row in the given color.
	ClearRow(row int, color core.Color)

	// MoveCursor places the hardware cursor. color carries the attribute
	// of the cell under the new position for devices that paint their own
	// cursor.
	MoveCursor(row, col int, color core.Color)

	// EnableCursor makes the cursor visible.
	EnableCursor()

	// DisableCursor hides the cursor.
	DisableCursor()
}

// Optional capabilities, discovered by type assertion. A device advertises
// a capability by implementing the interface; the engine falls back to a
// generic path when the assertion fails.

// LineScroller is implemented by devices that can shift their own contents
// up one line, letting the console advance past the bottom row without a
// full redraw.
type LineScroller interface {
	ScrollOneLineUp()
}

// Flusher is implemented by devices that batch drawing and commit on Flush.
type Flusher interface {
	Flush()
}

// StaticElemRefresher is implemented by devices that periodically repaint
// persistent elements of their own (banners, borders) around the console
// area, and can suspend that repainting while the console owns the screen.
type StaticElemRefresher interface {
	DisableStaticElemsRefresh()
	RedrawStaticElements()
	EnableStaticElemsRefresh()
}
