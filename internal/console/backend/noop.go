package backend

import "github.com/dshills/kernos/internal/console/core"

// Noop discards every operation. The console installs it in place of the
// real device while output is paused, so writes keep landing in the
// scrollback buffer at full speed. It claims every optional capability so
// the cheap device paths stay taken while paused.
type Noop struct {
	rows, cols int
}

// NewNoop returns a Noop reporting the given grid size.
func NewNoop(rows, cols int) *Noop { return &Noop{rows: rows, cols: cols} }

func (n *Noop) Size() (int, int)                              { return n.rows, n.cols }
func (n *Noop) SetCellAt(row, col int, cell core.Cell)        {}
func (n *Noop) SetRow(row int, cells []core.Cell, flush bool) {}
func (n *Noop) ClearRow(row int, color core.Color)            {}
func (n *Noop) MoveCursor(row, col int, color core.Color)     {}
func (n *Noop) EnableCursor()                                 {}
func (n *Noop) DisableCursor()                                {}
func (n *Noop) ScrollOneLineUp()                              {}
func (n *Noop) Flush()                                        {}
func (n *Noop) DisableStaticElemsRefresh()                    {}
func (n *Noop) RedrawStaticElements()                         {}
func (n *Noop) EnableStaticElemsRefresh()                     {}

var (
	_ Backend             = (*Noop)(nil)
	_ LineScroller        = (*Noop)(nil)
	_ Flusher             = (*Noop)(nil)
	_ StaticElemRefresher = (*Noop)(nil)
)
