package backend

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/kernos/internal/console/core"
)

// Terminal renders through a tcell screen. The grid size is captured at
// Init and stays fixed for the console's lifetime; resize events are left
// to the caller's event loop.
type Terminal struct {
	screen     tcell.Screen
	rows, cols int

	cursorOn             bool
	cursorRow, cursorCol int

	mu sync.Mutex
}

// NewTerminal creates a tcell-backed terminal device.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen, cursorOn: true}, nil
}

// Init takes over the terminal. Call Shutdown to restore it.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	cols, rows := t.screen.Size()
	t.rows, t.cols = rows, cols
	return nil
}

// Shutdown releases the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rows, t.cols
}

func (t *Terminal) SetCellAt(row, col int, cell core.Cell) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetContent(col, row, rune(cell.Char()), nil, styleFor(cell.Color()))
}

func (t *Terminal) SetRow(row int, cells []core.Cell, flush bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for col, cell := range cells {
		if col >= t.cols {
			break
		}
		t.screen.SetContent(col, row, rune(cell.Char()), nil, styleFor(cell.Color()))
	}
	if flush {
		t.screen.Show()
	}
}

func (t *Terminal) ClearRow(row int, color core.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	blank := core.Blank(color)
	for col := 0; col < t.cols; col++ {
		t.screen.SetContent(col, row, rune(blank.Char()), nil, styleFor(blank.Color()))
	}
}

func (t *Terminal) MoveCursor(row, col int, color core.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cursorRow, t.cursorCol = row, col
	if t.cursorOn {
		t.screen.ShowCursor(col, row)
	}
}

func (t *Terminal) EnableCursor() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cursorOn = true
	t.screen.ShowCursor(t.cursorCol, t.cursorRow)
}

func (t *Terminal) DisableCursor() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cursorOn = false
	t.screen.HideCursor()
}

func (t *Terminal) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

// Sync repaints the whole screen, for use after a terminal resize.
func (t *Terminal) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Sync()
}

// PollEvent blocks for the next input event. Callers run this in their own
// loop; the console never reads input.
func (t *Terminal) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

// vgaPalette maps VGA attribute order (blue=1, red=4, brown=6) to the ANSI
// palette order tcell indexes by (red=1, blue=4, yellow=3).
var vgaPalette = [16]int{0, 4, 2, 6, 1, 5, 3, 7, 8, 12, 10, 14, 9, 13, 11, 15}

func styleFor(color core.Color) tcell.Style {
	return tcell.StyleDefault.
		Foreground(tcell.PaletteColor(vgaPalette[color.Fg()])).
		Background(tcell.PaletteColor(vgaPalette[color.Bg()]))
}

var (
	_ Backend = (*Terminal)(nil)
	_ Flusher = (*Terminal)(nil)
)
