package backend

import (
	"strings"

	"github.com/dshills/kernos/internal/console/core"
)

// Memory renders into an in-memory cell grid. Tests assert on its contents
// and the headless demo mode prints it on exit. It batches like a real
// framebuffer device, so it implements Flusher but not LineScroller; row
// advances go through the console's redraw path.
type Memory struct {
	rows, cols int
	cells      [][]core.Cell

	curRow, curCol int
	cursorOn       bool

	rowWrites int
	flushes   int
}

// NewMemory returns a Memory grid of the given size, blanked in the default
// color with the cursor visible at the origin.
func NewMemory(rows, cols int) *Memory {
	m := &Memory{rows: rows, cols: cols, cursorOn: true}
	m.cells = make([][]core.Cell, rows)
	for r := range m.cells {
		m.cells[r] = make([]core.Cell, cols)
		for c := range m.cells[r] {
			m.cells[r][c] = core.Blank(core.DefaultColor)
		}
	}
	return m
}

func (m *Memory) Size() (int, int) { return m.rows, m.cols }

func (m *Memory) SetCellAt(row, col int, cell core.Cell) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return
	}
	m.cells[row][col] = cell
}

func (m *Memory) SetRow(row int, cells []core.Cell, flush bool) {
	if row < 0 || row >= m.rows {
		return
	}
	copy(m.cells[row], cells)
	m.rowWrites++
	if flush {
		m.flushes++
	}
}

func (m *Memory) ClearRow(row int, color core.Color) {
	if row < 0 || row >= m.rows {
		return
	}
	for c := range m.cells[row] {
		m.cells[row][c] = core.Blank(color)
	}
}

func (m *Memory) MoveCursor(row, col int, color core.Color) {
	m.curRow, m.curCol = row, col
}

func (m *Memory) EnableCursor()  { m.cursorOn = true }
func (m *Memory) DisableCursor() { m.cursorOn = false }
func (m *Memory) Flush()         { m.flushes++ }

// CellAt returns the cell drawn at (row, col), or a default blank when out
// of range.
func (m *Memory) CellAt(row, col int) core.Cell {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return core.Blank(core.DefaultColor)
	}
	return m.cells[row][col]
}

// RowString returns the characters of one row as a string.
func (m *Memory) RowString(row int) string {
	if row < 0 || row >= m.rows {
		return ""
	}
	b := make([]byte, m.cols)
	for c, cell := range m.cells[row] {
		b[c] = cell.Char()
	}
	return string(b)
}

// Snapshot returns the whole grid, one line per row, right-trimmed.
func (m *Memory) Snapshot() string {
	var sb strings.Builder
	for r := 0; r < m.rows; r++ {
		sb.WriteString(strings.TrimRight(m.RowString(r), " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// CursorPosition returns the last cursor placement.
func (m *Memory) CursorPosition() (row, col int) { return m.curRow, m.curCol }

// CursorVisible reports whether the cursor is enabled.
func (m *Memory) CursorVisible() bool { return m.cursorOn }

// RowWrites returns how many whole-row draws have happened.
func (m *Memory) RowWrites() int { return m.rowWrites }

// Flushes returns how many flushes have been requested.
func (m *Memory) Flushes() int { return m.flushes }

var (
	_ Backend = (*Memory)(nil)
	_ Flusher = (*Memory)(nil)
)
