package console

import "github.com/dshills/kernos/internal/console/core"

// escState tracks progress through one escape sequence.
type escState int

const (
	escGround escState = iota
	escIntro           // after ESC
	escCSI             // after ESC [
	escSkip            // discarding a bad sequence up to its final byte
)

const (
	maxCSIParams   = 8
	maxCSIParamVal = 9999
)

// escapeFilter interprets a practical subset of VT100 control sequences and
// turns them into console actions: cursor moves (A B C D H f), erase (J K),
// region scrolls (S T) and SGR colors (m). ESC c is a full reset. Sequence
// bytes never reach the screen; malformed, private (ESC [ ?) and
// unsupported sequences are swallowed whole.
type escapeFilter struct {
	state   escState
	params  []int
	curPar  int
	private bool

	// Selected SGR color. Once a sequence picks one it applies to every
	// following byte, across writes, until another SGR changes it.
	color    core.Color
	override bool
}

// NewEscapeFilter returns a FilterFunc interpreting escape sequences,
// ready for Term.SetFilter or Options.Filter.
func NewEscapeFilter() FilterFunc {
	f := &escapeFilter{params: make([]int, 0, maxCSIParams)}
	return f.feed
}

func (f *escapeFilter) feed(ch byte, color *core.Color, out *Action) bool {
	switch f.state {

	case escIntro:
		switch ch {
		case '[':
			f.state = escCSI
		case 'c':
			f.state = escGround
			f.override = false
			*out = ResetAction()
		default:
			f.state = escGround
		}
		return false

	case escCSI:
		switch {
		case ch >= '0' && ch <= '9':
			f.curPar = f.curPar*10 + int(ch-'0')
			if f.curPar > maxCSIParamVal {
				f.abort()
			}
		case ch == ';':
			f.pushParam()
		case ch == '?':
			f.private = true
		case ch >= 0x40 && ch <= 0x7e:
			f.pushParam()
			if f.state == escSkip {
				// param list overflowed on the final byte itself
				f.state = escGround
				return false
			}
			if !f.private {
				f.dispatch(ch, color, out)
			}
			f.state = escGround
		default:
			f.abort()
		}
		return false

	case escSkip:
		if ch >= 0x40 && ch <= 0x7e {
			f.state = escGround
		}
		return false

	default: // escGround
		if ch == charEscape {
			f.startSequence()
			return false
		}
		if f.override {
			*color = f.color
		}
		return true
	}
}

func (f *escapeFilter) startSequence() {
	f.state = escIntro
	f.params = f.params[:0]
	f.curPar = 0
	f.private = false
}

// abort discards the sequence being parsed and swallows the rest of it.
func (f *escapeFilter) abort() {
	f.state = escSkip
	f.params = f.params[:0]
	f.curPar = 0
}

func (f *escapeFilter) pushParam() {
	if len(f.params) == maxCSIParams {
		f.abort()
		return
	}
	f.params = append(f.params, f.curPar)
	f.curPar = 0
}

func (f *escapeFilter) dispatch(final byte, color *core.Color, out *Action) {
	switch final {
	case 'A':
		*out = MoveCursorRelAction(-f.param(0, 1), 0)
	case 'B':
		*out = MoveCursorRelAction(f.param(0, 1), 0)
	case 'C':
		*out = MoveCursorRelAction(0, f.param(0, 1))
	case 'D':
		*out = MoveCursorRelAction(0, -f.param(0, 1))
	case 'H', 'f':
		*out = MoveCursorAction(f.param(0, 1)-1, f.param(1, 1)-1)
	case 'J':
		*out = EraseInDisplayAction(f.param(0, 0))
	case 'K':
		*out = EraseInLineAction(f.param(0, 0))
	case 'S':
		*out = NonBufScrollUpAction(f.param(0, 1))
	case 'T':
		*out = NonBufScrollDownAction(f.param(0, 1))
	case 'm':
		f.applySGR(color)
	}
}

// param returns the i-th parameter; absent or zero parameters take def.
func (f *escapeFilter) param(i, def int) int {
	if i >= len(f.params) || f.params[i] == 0 {
		return def
	}
	return f.params[i]
}

// sgrPalette maps the ANSI color order SGR parameters use onto the VGA
// palette entries.
var sgrPalette = [8]core.Color{
	core.Black, core.Red, core.Green, core.Brown,
	core.Blue, core.Magenta, core.Cyan, core.LightGray,
}

func (f *escapeFilter) applySGR(color *core.Color) {
	params := f.params
	if len(params) == 0 {
		params = []int{0}
	}

	fg, bg := color.Fg(), color.Bg()
	if f.override {
		fg, bg = f.color.Fg(), f.color.Bg()
	}

	for _, p := range params {
		switch {
		case p == 0:
			fg, bg = core.DefaultColor.Fg(), core.DefaultColor.Bg()
		case p == 1:
			fg |= 8
		case p == 2 || p == 22:
			fg &^= 8
		case 30 <= p && p <= 37:
			fg = sgrPalette[p-30] | fg&8
		case p == 39:
			fg = core.DefaultColor.Fg()
		case 40 <= p && p <= 47:
			bg = sgrPalette[p-40]
		case p == 49:
			bg = core.DefaultColor.Bg()
		case 90 <= p && p <= 97:
			fg = sgrPalette[p-90] | 8
		case 100 <= p && p <= 107:
			bg = sgrPalette[p-100] | 8
		}
	}

	f.color = core.MakeColor(fg, bg)
	f.override = true
	*color = f.color
}
