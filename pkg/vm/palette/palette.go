/*
Package palette maps every non-payload opcode to the color the target machine
recognizes it by.

A Palette is built once, from compiled-in defaults plus optional overrides,
and is read-only afterwards, so it can be shared freely.
*/
package palette

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vilmos-lang/vasm/pkg/vm/color"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
)

// Configuration errors, all of them wrap ErrConfig.
var (
	ErrConfig          = errors.New("configuration error")
	ErrPayloadOverride = fmt.Errorf("%w: payload opcodes can't have a fixed color", ErrConfig)
	ErrUnknownName     = fmt.Errorf("%w: unknown opcode name", ErrConfig)
	ErrInvalidColor    = fmt.Errorf("%w: invalid color", ErrConfig)
)

var defaults = map[opcode.Opcode]string{
	opcode.LSHIFT:      "2d6a7d",
	opcode.RSHIFT:      "439dba",
	opcode.INPUTINT:    "ffffff",
	opcode.OUTPUTINT:   "000001",
	opcode.SUM:         "00ced1",
	opcode.SUB:         "ffa500",
	opcode.DIV:         "8a2be2",
	opcode.MUL:         "8b0000",
	opcode.MOD:         "ffdab9",
	opcode.RND:         "008000",
	opcode.AND:         "ecf3dc",
	opcode.OR:          "b7c6e6",
	opcode.XOR:         "f5e3d7",
	opcode.NAND:        "e1d3ef",
	opcode.NOT:         "ff9aa2",
	opcode.INPUTASCII:  "e3e3e3",
	opcode.OUTPUTASCII: "4b4b4b",
	opcode.POP:         "cc9e06",
	opcode.SWAP:        "ffbd4a",
	opcode.CYCLE:       "e37f9d",
	opcode.RCYCLE:      "e994ae",
	opcode.DUP:         "006994",
	opcode.REVERSE:     "a5a58d",
	opcode.QUIT:        "b7e4c7",
	opcode.OUTPUT:      "9b2242",
	opcode.WHILE:       "2e1a47",
	opcode.WHILEEND:    "68478d",
	opcode.FILEOPEN:    "91f68b",
	opcode.FILECLOSE:   "2fed23",
}

// Palette is an immutable opcode to color mapping.
type Palette struct {
	colors     map[opcode.Opcode]color.Color
	used       map[color.Color]struct{}
	overridden map[opcode.Opcode]bool
}

// DefaultColor returns the compiled-in color of op. ok is false for payload
// opcodes.
func DefaultColor(op opcode.Opcode) (c color.Color, ok bool) {
	s, ok := defaults[op]
	if !ok {
		return color.Color{}, false
	}
	c, err := color.ParseHex(s)
	if err != nil {
		panic(fmt.Sprintf("bad default color for %s: %s", op, err))
	}
	return c, true
}

// Default returns the palette of compiled-in colors.
func Default() *Palette {
	p := &Palette{
		colors:     make(map[opcode.Opcode]color.Color, len(defaults)),
		overridden: make(map[opcode.Opcode]bool),
	}
	for _, op := range opcode.List() {
		if c, ok := DefaultColor(op); ok {
			p.colors[op] = c
		}
	}
	p.index()
	return p
}

// New returns the default palette with overrides applied. Override keys are
// opcode names in any case, values are 3 or 6 hex digits; empty values are
// skipped.
func New(overrides map[string]string) (*Palette, error) {
	p := Default()
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		val := overrides[name]
		if val == "" {
			continue
		}
		op, err := opcode.FromString(strings.ToUpper(name))
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownName, name)
		}
		if op.IsPayload() {
			return nil, fmt.Errorf("%w: %s", ErrPayloadOverride, op)
		}
		c, err := color.ParseHex(val)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrInvalidColor, op, err)
		}
		p.colors[op] = c
		p.overridden[op] = true
	}
	p.index()
	return p, nil
}

func (p *Palette) index() {
	p.used = make(map[color.Color]struct{}, len(p.colors))
	for _, c := range p.colors {
		p.used[c] = struct{}{}
	}
}

// Get returns the color assigned to op. It panics for payload opcodes, their
// pixels are always computed.
func (p *Palette) Get(op opcode.Opcode) color.Color {
	c, ok := p.colors[op]
	if !ok {
		panic(fmt.Sprintf("no palette color for %s", op))
	}
	return c
}

// Contains reports whether c is assigned to any opcode.
func (p *Palette) Contains(c color.Color) bool {
	_, ok := p.used[c]
	return ok
}

// Lookup returns the opcode c is assigned to. When several opcodes share c
// the first one in table order is returned.
func (p *Palette) Lookup(c color.Color) (opcode.Opcode, bool) {
	if !p.Contains(c) {
		return 0, false
	}
	for _, op := range opcode.List() {
		if cc, ok := p.colors[op]; ok && cc == c {
			return op, true
		}
	}
	return 0, false
}

// IsOverridden reports whether op's color comes from an override.
func (p *Palette) IsOverridden(op opcode.Opcode) bool {
	return p.overridden[op]
}

// Duplicates returns groups of opcodes sharing one color. Such palettes are
// accepted, but the target machine can't tell those opcodes apart.
func (p *Palette) Duplicates() [][]opcode.Opcode {
	byColor := make(map[color.Color][]opcode.Opcode)
	for _, op := range opcode.List() {
		if c, ok := p.colors[op]; ok {
			byColor[c] = append(byColor[c], op)
		}
	}
	var res [][]opcode.Opcode
	for _, ops := range byColor {
		if len(ops) > 1 {
			res = append(res, ops)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i][0] < res[j][0] })
	return res
}
