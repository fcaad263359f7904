package emit

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vilmos-lang/vasm/pkg/io"
	"github.com/vilmos-lang/vasm/pkg/vm/color"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
	"github.com/vilmos-lang/vasm/pkg/vm/palette"
	"go.uber.org/zap/zaptest"
)

var testInts = []int32{0, 1, 2, 65, 255, 256, 511, 512, 750, 765, 766, 1 << 20, 123456789, -1, -2, -512, math.MaxInt32, math.MinInt32}

// eval runs pix on a stack machine knowing only SUM, SUB, LSHIFT and DUP. Any
// color that is not in p pushes its magnitude.
func eval(t *testing.T, p *palette.Palette, pix []color.Color) []int32 {
	var st []int32
	pop := func() int32 {
		require.NotEmpty(t, st, "stack underflow")
		v := st[len(st)-1]
		st = st[:len(st)-1]
		return v
	}
	for _, c := range pix {
		op, ok := p.Lookup(c)
		if !ok {
			st = append(st, int32(c.Magnitude()))
			continue
		}
		switch op {
		case opcode.SUM:
			a, b := pop(), pop()
			st = append(st, b+a)
		case opcode.SUB:
			a, b := pop(), pop()
			st = append(st, b-a)
		case opcode.LSHIFT:
			a, b := pop(), pop()
			st = append(st, b<<uint32(a))
		case opcode.DUP:
			a := pop()
			st = append(st, a, a)
		default:
			t.Fatalf("unexpected opcode %s", op)
		}
	}
	return st
}

func newEmitter(t *testing.T, p *palette.Palette, rnd *rand.Rand) *Emitter {
	e, err := New(p, Options{Rand: rnd, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return e
}

func emitInt(t *testing.T, e *Emitter, n int32) []color.Color {
	w := io.NewPixelWriter()
	e.Int(w, n)
	require.NoError(t, w.Err)
	return w.Colors()
}

func TestIntReconstruction(t *testing.T) {
	p := palette.Default()
	t.Run("deterministic", func(t *testing.T) {
		e := newEmitter(t, p, nil)
		for _, n := range testInts {
			require.Equal(t, []int32{n}, eval(t, p, emitInt(t, e, n)), n)
		}
	})
	t.Run("random", func(t *testing.T) {
		for seed := int64(0); seed < 20; seed++ {
			e := newEmitter(t, p, rand.New(rand.NewSource(seed)))
			for _, n := range testInts {
				require.Equal(t, []int32{n}, eval(t, p, emitInt(t, e, n)), n)
			}
		}
	})
}

func TestIntDeterministic(t *testing.T) {
	p := palette.Default()
	for _, n := range testInts {
		a := emitInt(t, newEmitter(t, p, nil), n)
		b := emitInt(t, newEmitter(t, p, nil), n)
		require.Equal(t, a, b)
	}
}

func TestIntLayout(t *testing.T) {
	p := palette.Default()
	e := newEmitter(t, p, nil)
	var (
		lshift = p.Get(opcode.LSHIFT)
		sum    = p.Get(opcode.SUM)
	)

	t.Run("zero", func(t *testing.T) {
		require.Equal(t, []color.Color{{}}, emitInt(t, e, 0))
	})
	t.Run("one group", func(t *testing.T) {
		require.Equal(t, []color.Color{{R: 0xff, G: 0xff, B: 1}}, emitInt(t, e, 511))
	})
	t.Run("shifted group", func(t *testing.T) {
		require.Equal(t, []color.Color{{R: 1}, {R: 9}, lshift}, emitInt(t, e, 512))
		require.Equal(t, []color.Color{{R: 1}, {R: 31}, lshift}, emitInt(t, e, math.MinInt32))
	})
	t.Run("groups start at set bits", func(t *testing.T) {
		// 750 = 375 << 1
		require.Equal(t, []color.Color{{R: 0xff, G: 120}, {R: 1}, lshift}, emitInt(t, e, 750))
	})
	t.Run("several groups", func(t *testing.T) {
		d := color.Color{R: 0xff, G: 0xff, B: 1}
		require.Equal(t, []color.Color{
			d,
			d, {R: 9}, lshift, sum,
			d, {R: 18}, lshift, sum,
			{R: 31}, {R: 27}, lshift, sum,
		}, emitInt(t, e, -1))
	})
}

func TestIntCache(t *testing.T) {
	p := palette.Default()
	e := newEmitter(t, p, nil)
	require.False(t, e.alloc.IsRandom())
	a := emitInt(t, e, 123456)
	require.Equal(t, 1, e.cache.Len())
	b := emitInt(t, e, 123456)
	require.Equal(t, a, b)
	require.Equal(t, 1, e.cache.Len())

	r := newEmitter(t, p, rand.New(rand.NewSource(1)))
	require.True(t, r.alloc.IsRandom())
	require.Nil(t, r.cache)

	n, err := New(p, Options{CacheSize: -1})
	require.NoError(t, err)
	require.Nil(t, n.cache)
}

func TestString(t *testing.T) {
	p := palette.Default()
	e := newEmitter(t, p, nil)

	t.Run("repeated characters", func(t *testing.T) {
		w := io.NewPixelWriter()
		e.String(w, "AAB")
		require.NoError(t, w.Err)
		require.Equal(t, []color.Color{
			{},
			{R: 65},
			p.Get(opcode.DUP),
			{R: 33}, {R: 1}, p.Get(opcode.LSHIFT),
		}, w.Colors())
	})
	t.Run("empty", func(t *testing.T) {
		w := io.NewPixelWriter()
		e.String(w, "")
		require.Equal(t, []color.Color{{}}, w.Colors())
	})
	t.Run("evaluates to codes", func(t *testing.T) {
		for seed := int64(0); seed < 5; seed++ {
			r := newEmitter(t, p, rand.New(rand.NewSource(seed)))
			w := io.NewPixelWriter()
			r.String(w, "Hello,  wörld!\n")
			require.NoError(t, w.Err)
			var expected = []int32{0}
			for _, c := range "Hello,  wörld!\n" {
				expected = append(expected, c)
			}
			require.Equal(t, expected, eval(t, p, w.Colors()))
		}
	})
}

func TestMagnitudeFallback(t *testing.T) {
	t.Run("deterministic collision", func(t *testing.T) {
		p, err := palette.New(map[string]string{"NOT": "410000"})
		require.NoError(t, err)
		e := newEmitter(t, p, nil)
		w := io.NewPixelWriter()
		e.Magnitude(w, 65)
		require.NoError(t, w.Err)
		require.Equal(t, []color.Color{{R: 0xff, G: 210}, {R: 0xff, G: 145}, p.Get(opcode.SUB)}, w.Colors())
	})
	t.Run("above offset range", func(t *testing.T) {
		// ffffff is INPUT_INT, 765 = 383 + 382.
		p := palette.Default()
		e := newEmitter(t, p, nil)
		w := io.NewPixelWriter()
		e.Magnitude(w, color.MaxMagnitude)
		require.NoError(t, w.Err)
		pix := w.Colors()
		require.Equal(t, []color.Color{{R: 0xff, G: 128}, {R: 0xff, G: 127}, p.Get(opcode.SUM)}, pix)
		require.Equal(t, []int32{765}, eval(t, p, pix))
	})
	t.Run("random exhaustion", func(t *testing.T) {
		// Zero has a single split.
		p, err := palette.New(map[string]string{"RND": "000"})
		require.NoError(t, err)
		e := newEmitter(t, p, rand.New(rand.NewSource(7)))
		w := io.NewPixelWriter()
		e.Int(w, 0)
		require.NoError(t, w.Err)
		pix := w.Colors()
		require.Len(t, pix, 3)
		require.Equal(t, []int32{0}, eval(t, p, pix))
	})
	t.Run("depth ceiling", func(t *testing.T) {
		// 400 falls back to 200 + 200, 200 falls back to 600 - 400.
		p, err := palette.New(map[string]string{"NOT": "ff9100", "AND": "c80000"})
		require.NoError(t, err)
		e := newEmitter(t, p, nil)
		w := io.NewPixelWriter()
		e.Magnitude(w, 400)
		require.ErrorIs(t, w.Err, ErrFallbackDepth)
		require.ErrorIs(t, w.Err, ErrAllocation)
	})
	t.Run("out of range", func(t *testing.T) {
		e := newEmitter(t, palette.Default(), nil)
		for _, m := range []int{-1, color.MaxMagnitude + 1} {
			w := io.NewPixelWriter()
			e.Magnitude(w, m)
			require.ErrorIs(t, w.Err, ErrOutOfRange)
		}
	})
}

func TestNoCollisions(t *testing.T) {
	// A palette crowding small magnitudes.
	p, err := palette.New(map[string]string{
		"POP":     "010000",
		"SWAP":    "000100",
		"CYCLE":   "000001",
		"RCYCLE":  "020000",
		"REVERSE": "000200",
		"OUTPUT":  "410000",
		"RND":     "000000",
	})
	require.NoError(t, err)
	for _, rnd := range []*rand.Rand{nil, rand.New(rand.NewSource(3))} {
		e := newEmitter(t, p, rnd)
		for _, n := range testInts {
			pix := emitInt(t, e, n)
			require.Equal(t, []int32{n}, eval(t, p, pix), n)
		}
	}
}

func TestOpcode(t *testing.T) {
	p := palette.Default()
	e := newEmitter(t, p, nil)
	w := io.NewPixelWriter()
	e.Opcode(w, opcode.QUIT)
	e.Color(w, color.Color{R: 1, G: 2, B: 3})
	require.NoError(t, w.Err)
	require.Equal(t, []color.Color{p.Get(opcode.QUIT), {R: 1, G: 2, B: 3}}, w.Colors())

	w = io.NewPixelWriter()
	e.Opcode(w, opcode.RAWINT)
	require.ErrorIs(t, w.Err, ErrNoFixedColor)
	e.Opcode(w, opcode.QUIT)
	require.Equal(t, 0, w.Len())
}
