package console

import (
	"github.com/dshills/kernos/internal/console/backend"
	"github.com/dshills/kernos/internal/console/core"
)

// The buffer holds totalRows rows used circularly; visible row r lives at
// buffer row (r + scroll) % totalRows.

func (t *Term) bufRow(row int) int { return (row + t.scroll) % t.totalRows }

func (t *Term) rowSlice(bufferRow int) []core.Cell {
	return t.buf[bufferRow*t.cols : (bufferRow+1)*t.cols]
}

func (t *Term) bufSetEntry(row, col int, cell core.Cell) {
	t.buf[t.bufRow(row)*t.cols+col] = cell
}

func (t *Term) bufGetEntry(row, col int) core.Cell {
	return t.buf[t.bufRow(row)*t.cols+col]
}

func (t *Term) atBottom() bool { return t.scroll == t.maxScroll }

func (t *Term) flush() {
	if f, ok := t.vi.(backend.Flusher); ok {
		f.Flush()
	}
}

func (t *Term) redraw() {
	for row := 0; row < t.rows; row++ {
		t.vi.SetRow(row, t.rowSlice(t.bufRow(row)), true)
	}
}

func (t *Term) bufClearRow(row int, color core.Color) {
	blank := core.Blank(color)
	rowb := t.rowSlice(t.bufRow(row))
	for i := range rowb {
		rowb[i] = blank
	}
}

func (t *Term) clearRow(row int, color core.Color) {
	t.bufClearRow(row, color)
	t.vi.ClearRow(row, color)
}

// setScroll clamps the requested scroll into the retained window: never
// past the live screen, never into rows the circular buffer has already
// recycled.
func (t *Term) setScroll(requested int) {
	minScroll := 0
	if t.maxScroll > t.scrollbackRows {
		minScroll = t.maxScroll - t.scrollbackRows
	}
	requested = min(max(requested, minScroll), t.maxScroll)

	if requested == t.scroll {
		return
	}
	t.scroll = requested
	t.redraw()
}

func (t *Term) scrollUpBy(lines int) {
	if lines > t.scroll {
		t.setScroll(0)
	} else {
		t.setScroll(t.scroll - lines)
	}
}

func (t *Term) scrollDownBy(lines int) {
	t.setScroll(t.scroll + lines)
}

func (t *Term) scrollToBottom() {
	if t.scroll != t.maxScroll {
		t.setScroll(t.maxScroll)
	}
}

// incrRow advances to the next line. At the bottom of the screen the
// scrollback grows instead; devices that scroll themselves get one cheap
// call, anything else gets a full redraw through setScroll.
func (t *Term) incrRow(color core.Color) {
	t.colOffset = 0

	if t.curRow < t.rows-1 {
		t.curRow++
		return
	}

	t.maxScroll++

	if ls, ok := t.vi.(backend.LineScroller); ok {
		t.scroll++
		ls.ScrollOneLineUp()
	} else {
		t.setScroll(t.maxScroll)
	}

	t.clearRow(t.rows-1, color)
}

func (t *Term) writePrintable(ch byte, color core.Color) {
	entry := core.MakeCell(ch, color)
	t.bufSetEntry(t.curRow, t.curCol, entry)
	t.vi.SetCellAt(t.curRow, t.curCol, entry)
	t.curCol++
}

func roundUpAt(n, unit int) int { return (n + unit - 1) / unit * unit }

func (t *Term) writeTab(color core.Color) {
	if t.tabs == nil {
		if t.cols-t.curCol-1 != 0 {
			t.writePrintable(' ', color)
		}
		return
	}

	stop := min(roundUpAt(t.curCol+1, t.tabSize), t.cols-2)
	t.tabs[t.curRow*t.cols+stop] = true
	t.curCol = stop + 1
}

func (t *Term) backspace(color core.Color) {
	if t.curCol == 0 || t.curCol <= t.colOffset {
		return
	}

	blank := core.Blank(color)
	t.curCol--

	if t.tabs == nil || !t.tabs[t.curRow*t.cols+t.curCol] {
		t.bufSetEntry(t.curRow, t.curCol, blank)
		t.vi.SetCellAt(t.curRow, t.curCol, blank)
		return
	}

	// The erased cell ends a tab jump: release the stop, then walk back
	// over the columns the tab skipped, stopping early at the col offset
	// or just right of a previous tab's stop.
	t.tabs[t.curRow*t.cols+t.curCol] = false

	for i := t.tabSize - 1; i >= 0; i-- {
		if t.curCol == 0 || t.curCol == t.colOffset {
			break
		}
		if t.tabs[t.curRow*t.cols+t.curCol-1] {
			break
		}
		if i != 0 {
			t.curCol--
		}
	}
}

// Control bytes the write path interprets.
const (
	charBell      = 0x07
	charBackspace = 0x08
	charVTab      = 0x0b
	charKillLine  = 0x15
	charWordErase = 0x17
	charEscape    = 0x1b
	charDelete    = 0x7f
)

func (t *Term) writeChar(ch byte, color core.Color) {
	switch ch {

	case charEscape, charBell, charVTab:
		// swallowed

	case '\n':
		t.incrRow(color)

	case '\r':
		t.curCol = 0

	case '\t':
		t.writeTab(color)

	case charBackspace, charDelete:
		t.backspace(color)

	case charWordErase, charKillLine:
		// TODO: canonical-mode WERASE/KILL line editing

	default:
		t.writePrintable(ch, color)

		if t.curCol == t.cols {
			t.curCol = 0
			t.incrRow(color)
		}
	}
}

func (t *Term) doWrite(data []byte, color core.Color) {
	t.scrollToBottom()
	t.vi.EnableCursor()

	for _, ch := range data {

		if t.filter == nil {
			t.writeChar(ch, color)
			continue
		}

		var out Action
		if t.filter(ch, &color, &out) {
			t.writeChar(ch, color)
		}
		if out.kind != actionNone {
			t.execute(&out)
		}
	}

	t.vi.MoveCursor(t.curRow, t.curCol, t.bufGetEntry(t.curRow, t.curCol).Color())
	t.flush()
}

func (t *Term) doScrollUpAction(lines int) {
	t.scrollUpBy(max(lines, 0))

	if !t.atBottom() {
		t.vi.DisableCursor()
	} else {
		t.vi.EnableCursor()
		t.vi.MoveCursor(t.curRow, t.curCol, t.bufGetEntry(t.curRow, t.curCol).Color())
	}
	t.flush()
}

func (t *Term) doScrollDownAction(lines int) {
	t.scrollDownBy(max(lines, 0))

	if t.atBottom() {
		t.vi.EnableCursor()
		t.vi.MoveCursor(t.curRow, t.curCol, t.bufGetEntry(t.curRow, t.curCol).Color())
	}
	t.flush()
}

func (t *Term) doMoveCursor(row, col int) {
	t.curRow = min(max(row, 0), t.rows-1)
	t.curCol = min(max(col, 0), t.cols-1)

	t.vi.MoveCursor(t.curRow, t.curCol, t.bufGetEntry(t.curRow, t.curCol).Color())
	t.flush()
}

func (t *Term) doReset() {
	t.vi.EnableCursor()
	t.doMoveCursor(0, 0)
	t.scroll, t.maxScroll = 0, 0

	for row := 0; row < t.rows; row++ {
		t.clearRow(row, core.DefaultColor)
	}
	if t.tabs != nil {
		clear(t.tabs)
	}
}

func (t *Term) doEraseInDisplay(mode int) {
	blank := core.Blank(core.DefaultColor)

	switch mode {

	case 0:
		// Cursor position (inclusive) to the end of the screen.
		for col := t.curCol; col < t.cols; col++ {
			t.bufSetEntry(t.curRow, col, blank)
			t.vi.SetCellAt(t.curRow, col, blank)
		}
		for row := t.curRow + 1; row < t.rows; row++ {
			t.clearRow(row, core.DefaultColor)
		}

	case 1:
		// Start of the screen to the cursor position (exclusive).
		for row := 0; row < t.curRow; row++ {
			t.clearRow(row, core.DefaultColor)
		}
		for col := 0; col < t.curCol; col++ {
			t.bufSetEntry(t.curRow, col, blank)
			t.vi.SetCellAt(t.curRow, col, blank)
		}

	case 2:
		for row := 0; row < t.rows; row++ {
			t.clearRow(row, core.DefaultColor)
		}

	case 3:
		// Screen plus scrollback. The buffer cursor homes with the
		// reset; only the device cursor returns to where it was.
		row, col := t.curRow, t.curCol
		t.doReset()
		t.vi.MoveCursor(row, col, core.DefaultColor)

	default:
		return
	}

	t.flush()
}

func (t *Term) doEraseInLine(mode int) {
	blank := core.Blank(core.DefaultColor)

	switch mode {

	case 0:
		for col := t.curCol; col < t.cols; col++ {
			t.bufSetEntry(t.curRow, col, blank)
			t.vi.SetCellAt(t.curRow, col, blank)
		}

	case 1:
		for col := 0; col < t.curCol; col++ {
			t.bufSetEntry(t.curRow, col, blank)
			t.vi.SetCellAt(t.curRow, col, blank)
		}

	case 2:
		t.clearRow(t.curRow, blank.Color())

	default:
		return
	}

	t.flush()
}

// doNonBufScroll moves the visible rows in place, leaving scroll and
// maxScroll alone. Vacated rows are blanked.
func (t *Term) doNonBufScroll(n int, up bool) {
	if n < 1 {
		return
	}
	n = min(n, t.rows)

	if up {
		for row := 0; row < t.rows-n; row++ {
			src := t.rowSlice((t.scroll + row + n) % t.totalRows)
			dst := t.rowSlice((t.scroll + row) % t.totalRows)
			copy(dst, src)
		}
		for row := t.rows - n; row < t.rows; row++ {
			t.bufClearRow(row, core.DefaultColor)
		}
	} else {
		for row := t.rows - n - 1; row >= 0; row-- {
			src := t.rowSlice((t.scroll + row) % t.totalRows)
			dst := t.rowSlice((t.scroll + row + n) % t.totalRows)
			copy(dst, src)
		}
		for row := 0; row < n; row++ {
			t.bufClearRow(row, core.DefaultColor)
		}
	}

	t.redraw()
}

func (t *Term) doPauseOutput() {
	if t.paused {
		return
	}

	if r, ok := t.vi.(backend.StaticElemRefresher); ok {
		r.DisableStaticElemsRefresh()
	}
	t.vi.DisableCursor()
	t.savedVI = t.vi
	t.vi = backend.NewNoop(t.rows, t.cols)
	t.paused = true
}

func (t *Term) doRestartOutput() {
	if !t.paused {
		return
	}

	t.vi = t.savedVI
	t.savedVI = nil
	t.paused = false

	t.redraw()
	t.vi.EnableCursor()

	if r, ok := t.vi.(backend.StaticElemRefresher); ok {
		r.RedrawStaticElements()
		r.EnableStaticElemsRefresh()
	}
}
