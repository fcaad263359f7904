package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vilmos-lang/vasm/pkg/io"
	"github.com/vilmos-lang/vasm/pkg/vm/color"
	"github.com/vilmos-lang/vasm/pkg/vm/emit"
	"github.com/vilmos-lang/vasm/pkg/vm/opcode"
)

// Resolution errors, all of them wrap ErrResolution.
var (
	ErrResolution     = errors.New("resolution error")
	ErrUnknownOpcode  = fmt.Errorf("%w: unknown instruction", ErrResolution)
	ErrOperandCount   = fmt.Errorf("%w: wrong number of operands", ErrResolution)
	ErrInvalidOperand = fmt.Errorf("%w: invalid operand", ErrResolution)
)

// Instruction is a single resolved source line. Only the field matching Op
// is meaningful: Int for RAW_INT, Text for RAW_STRING, Color for RAW_COLOR.
type Instruction struct {
	Op    opcode.Opcode
	Int   int32
	Text  string
	Color color.Color
}

func arity(op opcode.Opcode) int {
	switch op {
	case opcode.RAWINT, opcode.RAWSTRING:
		return 1
	case opcode.RAWCOLOR:
		return color.Components
	default:
		return 0
	}
}

// ParseLine tokenizes and resolves a source line. It returns nil without an
// error for lines having no instruction.
func ParseLine(line string) (*Instruction, error) {
	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return Resolve(tokens)
}

// Resolve converts tokens (instruction name first) into an Instruction.
func Resolve(tokens []string) (*Instruction, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrUnknownOpcode)
	}
	op, err := opcode.FromString(tokens[0])
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownOpcode, tokens[0])
	}
	args := tokens[1:]
	if n := arity(op); len(args) != n {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrOperandCount, op, n, len(args))
	}

	ins := &Instruction{Op: op}
	switch op {
	case opcode.RAWINT:
		v, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a 32-bit integer", ErrInvalidOperand, args[0])
		}
		ins.Int = int32(v)
	case opcode.RAWSTRING:
		ins.Text = args[0]
	case opcode.RAWCOLOR:
		var ch [color.Components]uint8
		for i, a := range args {
			v, err := strconv.ParseUint(a, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a byte", ErrInvalidOperand, a)
			}
			ch[i] = uint8(v)
		}
		ins.Color = color.Color{R: ch[0], G: ch[1], B: ch[2]}
	}
	return ins, nil
}

// Emit writes pixels of ins into w.
func (ins *Instruction) Emit(e *emit.Emitter, w *io.PixelWriter) {
	switch ins.Op {
	case opcode.RAWINT:
		e.Int(w, ins.Int)
	case opcode.RAWSTRING:
		e.String(w, ins.Text)
	case opcode.RAWCOLOR:
		e.Color(w, ins.Color)
	default:
		e.Opcode(w, ins.Op)
	}
}

// String implements the fmt.Stringer interface.
func (ins Instruction) String() string {
	switch ins.Op {
	case opcode.RAWINT:
		return fmt.Sprintf("%s %d", ins.Op, ins.Int)
	case opcode.RAWSTRING:
		return fmt.Sprintf("%s %s", ins.Op, strconv.Quote(ins.Text))
	case opcode.RAWCOLOR:
		return fmt.Sprintf("%s %d %d %d", ins.Op, ins.Color.R, ins.Color.G, ins.Color.B)
	default:
		return ins.Op.String()
	}
}
