package emit

import (
	"errors"
	"fmt"
	"math/rand"

	lru "github.com/hashicorp/golang-lru"
	"github.com/vilmos-lang/vasm/pkg/io"
	"github.com/vilmos-lang/vasm/pkg/vm/color"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
	"go.uber.org/zap"
)

const (
	// digitBits is the width of one literal group, a single pixel holds up
	// to 765 so 9 bits is the widest group that always fits.
	digitBits = 9
	digitMask = 1<<digitBits - 1

	// FallbackOffset is the K in M = (M+K) - K used when M itself can't be
	// allocated.
	FallbackOffset = 400
	// MaxFallbackDepth limits nested fallbacks of a single magnitude.
	MaxFallbackDepth = 32

	// DefaultCacheSize is the number of memoized integer encodings.
	DefaultCacheSize = 1024
)

// Emitter errors.
var (
	// ErrFallbackDepth is returned when a magnitude keeps colliding with the
	// palette through MaxFallbackDepth fallbacks.
	ErrFallbackDepth = fmt.Errorf("%w: fallback depth exceeded", ErrAllocation)
	// ErrNoFixedColor is returned when a payload opcode is emitted as a plain
	// operation.
	ErrNoFixedColor = errors.New("opcode has no fixed color")
)

// Options contains Emitter parameters.
type Options struct {
	// Rand enables randomized allocation. Deterministic if nil.
	Rand *rand.Rand
	// Logger is a nop logger if not set.
	Logger *zap.Logger
	// CacheSize limits memoized integer encodings (deterministic mode only).
	// DefaultCacheSize is used if zero, caching is disabled if negative.
	CacheSize int
}

// Emitter turns operations and literals into pixels for a fixed palette.
type Emitter struct {
	pal   *palette.Palette
	alloc *Allocator
	log   *zap.Logger
	cache *lru.Cache
}

// New creates an Emitter for the given palette.
func New(p *palette.Palette, o Options) (*Emitter, error) {
	e := &Emitter{
		pal:   p,
		alloc: NewAllocator(p, o.Rand),
		log:   o.Logger,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	// Random encodings differ on every call, there is nothing to reuse.
	if !e.alloc.IsRandom() && o.CacheSize >= 0 {
		size := o.CacheSize
		if size == 0 {
			size = DefaultCacheSize
		}
		c, err := lru.New(size)
		if err != nil {
			return nil, fmt.Errorf("can't create encoding cache: %w", err)
		}
		e.cache = c
	}
	return e, nil
}

// Palette returns the palette e emits for.
func (e *Emitter) Palette() *palette.Palette {
	return e.pal
}

// Opcode emits the palette color of op.
func (e *Emitter) Opcode(w *io.PixelWriter, op opcode.Opcode) {
	if w.Err != nil {
		return
	}
	if op.IsPayload() || !opcode.IsValid(op) {
		w.Err = fmt.Errorf("%w: %s", ErrNoFixedColor, op)
		return
	}
	w.WriteColor(e.pal.Get(op))
}

// Color emits c verbatim.
func (e *Emitter) Color(w *io.PixelWriter, c color.Color) {
	w.WriteColor(c)
}

type task struct {
	m     int
	depth int
	op    opcode.Opcode
	isOp  bool
}

// Magnitude emits pixels leaving m on the stack. A single data pixel is used
// whenever the allocator finds one, otherwise m is rebuilt from two other
// magnitudes: (m+K) - K, or (m-h) + h when m+K doesn't fit into a pixel.
func (e *Emitter) Magnitude(w *io.PixelWriter, m int) {
	if w.Err != nil {
		return
	}
	stack := []task{{m: m}}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.isOp {
			e.Opcode(w, t.op)
			continue
		}
		c, err := e.alloc.Exact(t.m)
		if err == nil {
			w.WriteColor(c)
			continue
		}
		if !errors.Is(err, ErrExhausted) {
			w.Err = err
			return
		}
		if t.depth >= MaxFallbackDepth {
			w.Err = fmt.Errorf("%w: magnitude %d: %s", ErrFallbackDepth, m, err)
			return
		}
		e.log.Debug("color allocation exhausted, using fallback",
			zap.Int("magnitude", t.m),
			zap.Int("depth", t.depth+1))

		var (
			first  = t.m + FallbackOffset
			second = FallbackOffset
			op     = opcode.SUB
		)
		if first > color.MaxMagnitude {
			second = t.m / 2
			first = t.m - second
			op = opcode.SUM
		}
		// LIFO, so pushed in reverse emission order.
		stack = append(stack,
			task{op: op, isOp: true},
			task{m: second, depth: t.depth + 1},
			task{m: first, depth: t.depth + 1})
	}
}

// Int emits pixels leaving n on the stack. n is split into 9-bit groups
// starting at every set bit not yet covered; each group is shifted into
// place and summed with the previous ones.
func (e *Emitter) Int(w *io.PixelWriter, n int32) {
	if w.Err != nil {
		return
	}
	if e.cache != nil {
		if v, ok := e.cache.Get(n); ok {
			w.WriteColors(v.([]color.Color))
			return
		}
	}
	sub := io.NewPixelWriter()
	e.int(sub, n)
	if sub.Err != nil {
		w.Err = sub.Err
		return
	}
	pix := sub.Colors()
	if e.cache != nil {
		e.cache.Add(n, pix)
	}
	w.WriteColors(pix)
}

func (e *Emitter) int(w *io.PixelWriter, n int32) {
	if n == 0 {
		e.Magnitude(w, 0)
		return
	}
	var (
		v     = uint32(n)
		shift int
		first = true
	)
	for v != 0 {
		if v&1 == 0 {
			v >>= 1
			shift++
			continue
		}
		e.Magnitude(w, int(v&digitMask))
		if shift != 0 {
			e.Magnitude(w, shift)
			e.Opcode(w, opcode.LSHIFT)
		}
		if !first {
			e.Opcode(w, opcode.SUM)
		}
		first = false
		v >>= digitBits
		shift += digitBits
	}
}

// String emits a NUL sentinel followed by the code points of s. A code point
// equal to the previous one is emitted as DUP.
func (e *Emitter) String(w *io.PixelWriter, s string) {
	e.Magnitude(w, 0)
	var prev rune
	for _, r := range s {
		if r == prev {
			e.Opcode(w, opcode.DUP)
			continue
		}
		e.Int(w, int32(r))
		prev = r
	}
}
