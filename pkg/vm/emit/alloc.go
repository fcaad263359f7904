package emit

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/vilmos-lang/vasm/pkg/vm/color"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
)

// MaxAttempts is the number of random channel splits tried before an
// allocation gives up.
const MaxAttempts = 100

// Allocation errors.
var (
	// ErrAllocation is the umbrella for all user-visible allocation failures.
	ErrAllocation = errors.New("allocation error")
	// ErrOutOfRange is returned for magnitudes a single pixel can't hold.
	ErrOutOfRange = fmt.Errorf("%w: magnitude out of range", ErrAllocation)
	// ErrExhausted means every tried split collided with the palette. Emitter
	// handles it with a fallback, so it never reaches compiler users.
	ErrExhausted = errors.New("no collision-free color found")
)

// Allocator produces data pixels of the requested magnitude that never match
// a palette color exactly.
type Allocator struct {
	pal *palette.Palette
	rnd *rand.Rand
}

// NewAllocator creates an Allocator for p. A nil rnd makes it deterministic.
func NewAllocator(p *palette.Palette, rnd *rand.Rand) *Allocator {
	return &Allocator{pal: p, rnd: rnd}
}

// IsRandom reports whether a uses randomized splits.
func (a *Allocator) IsRandom() bool {
	return a.rnd != nil
}

// Exact returns a color with channel sum v not present in the palette.
func (a *Allocator) Exact(v int) (color.Color, error) {
	if v < 0 || v > color.MaxMagnitude {
		return color.Color{}, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	if a.rnd == nil {
		c := greedySplit(v)
		if a.pal.Contains(c) {
			return color.Color{}, fmt.Errorf("%w: %d (%s is taken)", ErrExhausted, v, c)
		}
		return c, nil
	}
	for i := 0; i < MaxAttempts; i++ {
		c := a.randomSplit(v)
		if !a.pal.Contains(c) {
			return c, nil
		}
	}
	return color.Color{}, fmt.Errorf("%w: %d after %d attempts", ErrExhausted, v, MaxAttempts)
}

// greedySplit fills red, then green, then blue.
func greedySplit(v int) color.Color {
	r := minInt(0xff, v)
	v -= r
	g := minInt(0xff, v)
	v -= g
	return color.Color{R: uint8(r), G: uint8(g), B: uint8(v)}
}

// randomSplit draws parts so that the rest always fits into the remaining
// channels, then shuffles which channel gets which part.
func (a *Allocator) randomSplit(v int) color.Color {
	var parts [color.Components]int
	rest := v
	for i := 0; i < color.Components-1; i++ {
		lo := maxInt(0, rest-(color.Components-1-i)*0xff)
		hi := minInt(0xff, rest)
		parts[i] = lo + a.rnd.Intn(hi-lo+1)
		rest -= parts[i]
	}
	parts[color.Components-1] = rest

	perm := a.rnd.Perm(color.Components)
	return color.Color{
		R: uint8(parts[perm[0]]),
		G: uint8(parts[perm[1]]),
		B: uint8(parts[perm[2]]),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
