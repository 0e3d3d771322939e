package backend

import (
	"testing"

	"github.com/dshills/kernos/internal/console/core"
)

func TestMemory_SetRowCopies(t *testing.T) {
	m := NewMemory(3, 4)

	row := []core.Cell{
		core.MakeCell('a', core.DefaultColor),
		core.MakeCell('b', core.DefaultColor),
		core.MakeCell('c', core.DefaultColor),
		core.MakeCell('d', core.DefaultColor),
	}
	m.SetRow(1, row, true)
	row[0] = core.MakeCell('X', core.DefaultColor)

	if got := m.RowString(1); got != "abcd" {
		t.Errorf("RowString(1) = %q, want %q (SetRow must copy, not alias)", got, "abcd")
	}
	if m.Flushes() != 1 {
		t.Errorf("Flushes() = %d, want 1", m.Flushes())
	}
	if m.RowWrites() != 1 {
		t.Errorf("RowWrites() = %d, want 1", m.RowWrites())
	}
}

func TestMemory_ClearRow(t *testing.T) {
	m := NewMemory(2, 3)
	m.SetCellAt(0, 1, core.MakeCell('z', core.DefaultColor))

	color := core.MakeColor(core.White, core.Blue)
	m.ClearRow(0, color)

	for col := 0; col < 3; col++ {
		cell := m.CellAt(0, col)
		if cell.Char() != ' ' || cell.Color() != color {
			t.Errorf("cell (0,%d) = %q/%d, want blank in %d", col, cell.Char(), cell.Color(), color)
		}
	}
}

func TestMemory_CursorTracking(t *testing.T) {
	m := NewMemory(5, 10)
	if !m.CursorVisible() {
		t.Error("cursor hidden on a fresh grid")
	}

	m.MoveCursor(2, 7, core.DefaultColor)
	if r, c := m.CursorPosition(); r != 2 || c != 7 {
		t.Errorf("CursorPosition() = (%d,%d), want (2,7)", r, c)
	}

	m.DisableCursor()
	if m.CursorVisible() {
		t.Error("cursor still visible after DisableCursor")
	}
	m.EnableCursor()
	if !m.CursorVisible() {
		t.Error("cursor hidden after EnableCursor")
	}
}

func TestMemory_BoundsIgnored(t *testing.T) {
	m := NewMemory(2, 2)
	m.SetCellAt(-1, 0, core.MakeCell('x', core.DefaultColor))
	m.SetCellAt(0, 5, core.MakeCell('x', core.DefaultColor))
	m.ClearRow(9, core.DefaultColor)
	m.SetRow(4, nil, false)

	if got := m.RowString(0); got != "  " {
		t.Errorf("out-of-range draws leaked into the grid: %q", got)
	}
}

func TestCapabilitySurface(t *testing.T) {
	var mem Backend = NewMemory(1, 1)
	if _, ok := mem.(LineScroller); ok {
		t.Error("Memory advertises LineScroller; row advances must use the redraw path")
	}
	if _, ok := mem.(Flusher); !ok {
		t.Error("Memory does not advertise Flusher")
	}

	var noop Backend = NewNoop(1, 1)
	if _, ok := noop.(LineScroller); !ok {
		t.Error("Noop does not advertise LineScroller; paused scrolls would redraw")
	}
	if _, ok := noop.(StaticElemRefresher); !ok {
		t.Error("Noop does not advertise StaticElemRefresher")
	}
}
