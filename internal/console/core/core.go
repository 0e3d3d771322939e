// Package core holds the packed cell and color types shared by the console
// engine and its video backends.
package core

// Color packs a VGA attribute pair into one byte: foreground in the low
// nibble, background in the high nibble.
type Color uint8

// The sixteen VGA text-mode palette entries.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	LightMagenta
	Yellow
	White
)

// DefaultColor is light gray text on a black background.
const DefaultColor Color = LightGray | Black<<4

// MakeColor combines a foreground and background entry into one attribute.
func MakeColor(fg, bg Color) Color { return fg&0x0f | bg<<4 }

// Fg returns the foreground palette entry.
func (c Color) Fg() Color { return c & 0x0f }

// Bg returns the background palette entry.
func (c Color) Bg() Color { return c >> 4 }

// Cell packs one screen position: character byte in the low half, color
// attribute in the high half.
type Cell uint16

// MakeCell combines a character and an attribute into a cell.
func MakeCell(ch byte, color Color) Cell { return Cell(ch) | Cell(color)<<8 }

// Char returns the cell's character byte.
func (c Cell) Char() byte { return byte(c) }

// Color returns the cell's color attribute.
func (c Cell) Color() Color { return Color(c >> 8) }

// Blank returns the cell a cleared position holds: a space in the given
// color.
func Blank(color Color) Cell { return MakeCell(' ', color) }
