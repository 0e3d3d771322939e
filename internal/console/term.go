package console

import (
	"io"
	"runtime"
	"sync/atomic"

	"github.com/dshills/kernos/internal/console/backend"
	"github.com/dshills/kernos/internal/console/core"
	"github.com/dshills/kernos/internal/ringbuf"
)

const (
	// actionQueueSize bounds how many actions can pile up behind the
	// running drain loop.
	actionQueueSize = 32

	defaultTabSize         = 8
	defaultScrollbackRatio = 9
)

// FilterFunc examines each byte of a write before the console interprets
// it. Returning false suppresses the byte. The filter may rewrite color,
// which sticks for the remainder of the span, and may store one follow-up
// action in out, executed right after the byte.
type FilterFunc func(ch byte, color *core.Color, out *Action) bool

// Options configures a console. The zero value of each field selects a
// default: the backend's grid size, tab size 8, and a scrollback of nine
// times the visible rows.
type Options struct {
	Rows, Cols      int
	TabSize         int
	ScrollbackRows  int
	DisableTabStops bool
	Filter          FilterFunc
}

// Term is a scrollback terminal fed through an action queue. Any goroutine
// may call its methods; every caller enqueues, and whichever one wins the
// drain flag executes its own action and everything queued behind it, so
// handlers never run concurrently and the render state carries no lock.
//
// Getters reflect a consistent state only once posted work has drained;
// concurrent callers should treat them as advisory.
type Term struct {
	queue    *ringbuf.RingBuf[Action]
	draining atomic.Bool

	rows, cols int
	tabSize    int

	curRow, curCol int
	colOffset      int

	scroll, maxScroll int
	scrollbackRows    int
	totalRows         int
	buf               []core.Cell
	tabs              []bool

	vi      backend.Backend
	savedVI backend.Backend
	paused  bool

	filter FilterFunc
}

// New builds a console drawing on bk. If opts leaves Rows and Cols zero the
// backend's size is used. The visible rows are cleared and the cursor is
// homed before New returns.
func New(bk backend.Backend, opts Options) (*Term, error) {
	if bk == nil {
		return nil, ErrNilBackend
	}

	rows, cols := opts.Rows, opts.Cols
	if rows == 0 && cols == 0 {
		rows, cols = bk.Size()
	}
	if rows < 1 || cols < 2 {
		return nil, ErrInvalidSize
	}

	tabSize := opts.TabSize
	if tabSize == 0 {
		tabSize = defaultTabSize
	}
	if tabSize < 1 || tabSize > cols {
		return nil, ErrInvalidTabSize
	}

	scrollback := opts.ScrollbackRows
	if scrollback == 0 {
		scrollback = defaultScrollbackRatio * rows
	}
	if scrollback < 0 {
		return nil, ErrInvalidSize
	}

	queue, err := ringbuf.New[Action](actionQueueSize)
	if err != nil {
		return nil, err
	}

	t := &Term{
		queue:          queue,
		rows:           rows,
		cols:           cols,
		tabSize:        tabSize,
		scrollbackRows: scrollback,
		totalRows:      rows + scrollback,
		vi:             bk,
		filter:         opts.Filter,
	}
	t.buf = make([]core.Cell, t.totalRows*cols)
	if !opts.DisableTabStops {
		t.tabs = make([]bool, rows*cols)
	}

	t.vi.EnableCursor()
	t.doMoveCursor(0, 0)
	for row := 0; row < rows; row++ {
		t.clearRow(row, core.DefaultColor)
	}
	return t, nil
}

// post enqueues a and drains the queue if no other goroutine already is.
// The drain flag, not the queue's own emptiness, decides ownership: a
// momentarily empty queue whose last action is still being executed must
// not hand a second caller the render state. After releasing the flag the
// drainer re-checks the queue and re-claims if an action slipped in behind
// its last read, so nothing is stranded without an owner.
func (t *Term) post(a Action) {
	for {
		ok, _ := t.queue.Write(a)
		if ok {
			break
		}
		// Full while the flag is held elsewhere; the drainer is making
		// room. Handlers never post, so it cannot be this goroutine.
		runtime.Gosched()
	}
	for t.draining.CompareAndSwap(false, true) {
		for {
			next, ok := t.queue.Read()
			if !ok {
				break
			}
			t.execute(&next)
		}
		t.draining.Store(false)
		if t.queue.Empty() {
			return
		}
	}
}

// execute runs one action. Unknown kinds are programming errors.
func (t *Term) execute(a *Action) {
	switch a.kind {
	case actionWrite:
		t.doWrite(a.data, a.color)
	case actionScrollUp:
		t.doScrollUpAction(a.arg1)
	case actionScrollDown:
		t.doScrollDownAction(a.arg1)
	case actionSetColOffset:
		t.colOffset = a.arg1
	case actionMoveCursor:
		t.doMoveCursor(a.arg1, a.arg2)
	case actionMoveCursorRel:
		t.doMoveCursor(t.curRow+a.arg1, t.curCol+a.arg2)
	case actionReset:
		t.doReset()
	case actionEraseInDisplay:
		t.doEraseInDisplay(a.arg1)
	case actionEraseInLine:
		t.doEraseInLine(a.arg1)
	case actionNonBufScrollUp:
		t.doNonBufScroll(a.arg1, true)
	case actionNonBufScrollDown:
		t.doNonBufScroll(a.arg1, false)
	case actionPauseOutput:
		t.doPauseOutput()
	case actionRestartOutput:
		t.doRestartOutput()
	default:
		panic("console: action with unknown kind")
	}
}

// Write renders data in the given color, interpreting newline, carriage
// return, tab and backspace. data is copied before it is queued, so the
// caller may reuse it immediately.
func (t *Term) Write(data []byte, color core.Color) {
	span := make([]byte, len(data))
	copy(span, data)
	t.post(writeAction(span, color))
}

// WriteString renders s in the given color.
func (t *Term) WriteString(s string, color core.Color) {
	t.post(writeAction([]byte(s), color))
}

// MoveCursor places the cursor at (row, col), clamped to the grid.
func (t *Term) MoveCursor(row, col int) { t.post(MoveCursorAction(row, col)) }

// MoveCursorRel moves the cursor by a delta, clamped to the grid.
func (t *Term) MoveCursorRel(dRow, dCol int) { t.post(MoveCursorRelAction(dRow, dCol)) }

// ScrollUp scrolls the view toward older lines, bounded by the retained
// scrollback.
func (t *Term) ScrollUp(lines int) { t.post(ScrollUpAction(lines)) }

// ScrollDown scrolls the view toward newer lines, stopping at the live
// screen.
func (t *Term) ScrollDown(lines int) { t.post(ScrollDownAction(lines)) }

// SetColOffset sets the column backspace may not move left of. A newline
// resets it.
func (t *Term) SetColOffset(col int) { t.post(SetColOffsetAction(col)) }

// Reset clears the screen, scrollback accounting and tab stops, and homes
// the cursor.
func (t *Term) Reset() { t.post(ResetAction()) }

// EraseInDisplay erases part of the screen; see EraseInDisplayAction.
func (t *Term) EraseInDisplay(mode int) { t.post(EraseInDisplayAction(mode)) }

// EraseInLine erases part of the cursor row; see EraseInLineAction.
func (t *Term) EraseInLine(mode int) { t.post(EraseInLineAction(mode)) }

// NonBufScrollUp shifts the visible rows up n lines without touching the
// scrollback.
func (t *Term) NonBufScrollUp(n int) { t.post(NonBufScrollUpAction(n)) }

// NonBufScrollDown shifts the visible rows down n lines without touching
// the scrollback.
func (t *Term) NonBufScrollDown(n int) { t.post(NonBufScrollDownAction(n)) }

// PauseOutput detaches the video device. Output keeps accumulating in the
// buffer until RestartOutput.
func (t *Term) PauseOutput() { t.post(PauseOutputAction()) }

// RestartOutput reattaches the video device and redraws the screen.
func (t *Term) RestartOutput() { t.post(RestartOutputAction()) }

// SetFilter installs f on every subsequent write. A nil f removes the
// filter. Install before sharing the console across goroutines.
func (t *Term) SetFilter(f FilterFunc) { t.filter = f }

// Rows returns the visible row count.
func (t *Term) Rows() int { return t.rows }

// Cols returns the column count.
func (t *Term) Cols() int { return t.cols }

// TabSize returns the tab advance width.
func (t *Term) TabSize() int { return t.tabSize }

// CursorRow returns the cursor row.
func (t *Term) CursorRow() int { return t.curRow }

// CursorCol returns the cursor column.
func (t *Term) CursorCol() int { return t.curCol }

// CellAt returns the cell at a visible grid position, or a default blank
// out of range.
func (t *Term) CellAt(row, col int) core.Cell {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return core.Blank(core.DefaultColor)
	}
	return t.bufGetEntry(row, col)
}

// Writer adapts the console to io.Writer with a fixed color.
func (t *Term) Writer(color core.Color) io.Writer {
	return &termWriter{t: t, color: color}
}

type termWriter struct {
	t     *Term
	color core.Color
}

func (w *termWriter) Write(p []byte) (int, error) {
	w.t.Write(p, w.color)
	return len(p), nil
}
