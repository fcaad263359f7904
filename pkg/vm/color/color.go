/*
Package color defines the pixel color used both as an opcode identifier and
as a literal data value.

A Color has two numeric views that are never mixed: Packed returns the 24-bit
identifier (0xRRGGBB) used for exact palette matching, Magnitude returns the
channel sum (0..765) a data pixel pushes onto the stack.
*/
package color

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxMagnitude is the largest value a single pixel can represent.
const MaxMagnitude = 3 * 0xff

// Components is the number of channels in a Color.
const Components = 3

// ErrInvalidHex is returned by ParseHex for malformed strings.
var ErrInvalidHex = errors.New("invalid hex color")

// Color is an immutable RGB triple.
type Color struct {
	R, G, B uint8
}

// FromPacked builds a Color from a 0xRRGGBB identifier. Bits above 24 are
// ignored.
func FromPacked(v uint32) Color {
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// Packed returns the 24-bit identifier of c.
func (c Color) Packed() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Magnitude returns the channel sum of c, the value c represents as a data
// pixel.
func (c Color) Magnitude() int {
	return int(c.R) + int(c.G) + int(c.B)
}

// String returns c as six lowercase hex digits.
func (c Color) String() string {
	return fmt.Sprintf("%06x", c.Packed())
}

// ParseHex parses a color given as 3 or 6 hex digits without any prefix. The
// short form duplicates each digit, so "abc" is "aabbcc".
func ParseHex(s string) (Color, error) {
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return Color{}, fmt.Errorf("%w %q: want 3 or 6 digits", ErrInvalidHex, s)
	}
	v, err := strconv.ParseUint(s, 16, 24)
	if err != nil {
		return Color{}, fmt.Errorf("%w %q: %s", ErrInvalidHex, s, err)
	}
	return FromPacked(uint32(v)), nil
}
