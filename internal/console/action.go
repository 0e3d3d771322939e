package console

import "github.com/dshills/kernos/internal/console/core"

// actionKind tags the variant held by an Action.
type actionKind uint8

const (
	actionNone actionKind = iota
	actionWrite
	actionScrollUp
	actionScrollDown
	actionSetColOffset
	actionMoveCursor
	actionMoveCursorRel
	actionReset
	actionEraseInDisplay
	actionEraseInLine
	actionNonBufScrollUp
	actionNonBufScrollDown
	actionPauseOutput
	actionRestartOutput
)

// Action is one unit of console work. Actions flow through the console's
// queue by value; the zero Action means "nothing". Filters use the
// constructors below to synthesize follow-up work; everything else goes
// through the Term methods.
type Action struct {
	kind  actionKind
	data  []byte
	color core.Color
	arg1  int
	arg2  int
}

// MoveCursorAction places the cursor at (row, col), clamped to the grid.
func MoveCursorAction(row, col int) Action {
	return Action{kind: actionMoveCursor, arg1: row, arg2: col}
}

// MoveCursorRelAction moves the cursor by a row and column delta, clamped
// to the grid.
func MoveCursorRelAction(dRow, dCol int) Action {
	return Action{kind: actionMoveCursorRel, arg1: dRow, arg2: dCol}
}

// ScrollUpAction scrolls the view toward older lines.
func ScrollUpAction(lines int) Action {
	return Action{kind: actionScrollUp, arg1: lines}
}

// ScrollDownAction scrolls the view toward newer lines.
func ScrollDownAction(lines int) Action {
	return Action{kind: actionScrollDown, arg1: lines}
}

// SetColOffsetAction sets the column backspace may not move left of.
func SetColOffsetAction(col int) Action {
	return Action{kind: actionSetColOffset, arg1: col}
}

// ResetAction clears the screen, the scrollback accounting and the tab
// stops, and homes the cursor.
func ResetAction() Action {
	return Action{kind: actionReset}
}

// EraseInDisplayAction erases part of the screen: mode 0 from the cursor to
// the end, 1 from the start to the cursor, 2 the whole screen, 3 the whole
// screen plus the scrollback. Other modes do nothing.
func EraseInDisplayAction(mode int) Action {
	return Action{kind: actionEraseInDisplay, arg1: mode}
}

// EraseInLineAction erases part of the cursor row: mode 0 from the cursor
// to the end, 1 from the start to the cursor, 2 the whole row. Other modes
// do nothing.
func EraseInLineAction(mode int) Action {
	return Action{kind: actionEraseInLine, arg1: mode}
}

// NonBufScrollUpAction shifts the visible rows up n lines without touching
// the scrollback.
func NonBufScrollUpAction(n int) Action {
	return Action{kind: actionNonBufScrollUp, arg1: n}
}

// NonBufScrollDownAction shifts the visible rows down n lines without
// touching the scrollback.
func NonBufScrollDownAction(n int) Action {
	return Action{kind: actionNonBufScrollDown, arg1: n}
}

// PauseOutputAction detaches the video device; output keeps accumulating in
// the buffer.
func PauseOutputAction() Action {
	return Action{kind: actionPauseOutput}
}

// RestartOutputAction reattaches the video device and redraws.
func RestartOutputAction() Action {
	return Action{kind: actionRestartOutput}
}

// WriteAction renders data as Term.Write does. data is copied.
func WriteAction(data []byte, color core.Color) Action {
	span := make([]byte, len(data))
	copy(span, data)
	return writeAction(span, color)
}

func writeAction(data []byte, color core.Color) Action {
	return Action{kind: actionWrite, data: data, color: color}
}
