package opcode

import (
	"errors"
	"fmt"
)

// Opcode represents a single operation of the pixel stack machine.
type Opcode byte

// Known operations. Payload-carrying operations go last.
const (
	// Arithmetic
	SUM Opcode = iota
	SUB
	MUL
	DIV
	MOD
	RND

	// Bitwise logic
	AND
	OR
	XOR
	NAND
	NOT
	LSHIFT
	RSHIFT

	// Stack
	POP
	SWAP
	CYCLE
	RCYCLE
	DUP
	REVERSE

	// I/O
	INPUTINT
	OUTPUTINT
	INPUTASCII
	OUTPUTASCII
	OUTPUT

	// Flow control
	WHILE
	WHILEEND
	QUIT

	// Files
	FILEOPEN
	FILECLOSE

	// Payload
	RAWINT
	RAWSTRING
	RAWCOLOR

	count
)

// ErrUnknown is returned for names that are not in the instruction table.
var ErrUnknown = errors.New("unknown opcode")

var names = [count]string{
	SUM:         "SUM",
	SUB:         "SUB",
	MUL:         "MUL",
	DIV:         "DIV",
	MOD:         "MOD",
	RND:         "RND",
	AND:         "AND",
	OR:          "OR",
	XOR:         "XOR",
	NAND:        "NAND",
	NOT:         "NOT",
	LSHIFT:      "LSHIFT",
	RSHIFT:      "RSHIFT",
	POP:         "POP",
	SWAP:        "SWAP",
	CYCLE:       "CYCLE",
	RCYCLE:      "RCYCLE",
	DUP:         "DUP",
	REVERSE:     "REVERSE",
	INPUTINT:    "INPUT_INT",
	OUTPUTINT:   "OUTPUT_INT",
	INPUTASCII:  "INPUT_ASCII",
	OUTPUTASCII: "OUTPUT_ASCII",
	OUTPUT:      "OUTPUT",
	WHILE:       "WHILE",
	WHILEEND:    "WHILE_END",
	QUIT:        "QUIT",
	FILEOPEN:    "FILE_OPEN",
	FILECLOSE:   "FILE_CLOSE",
	RAWINT:      "RAW_INT",
	RAWSTRING:   "RAW_STRING",
	RAWCOLOR:    "RAW_COLOR",
}

var fromName = make(map[string]Opcode, count)

func init() {
	for i, n := range names {
		fromName[n] = Opcode(i)
	}
}

// String implements the fmt.Stringer interface.
func (op Opcode) String() string {
	if op >= count {
		return fmt.Sprintf("Opcode(%d)", op)
	}
	return names[op]
}

// FromString converts a case-sensitive instruction name into an Opcode.
func FromString(s string) (Opcode, error) {
	op, ok := fromName[s]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
	}
	return op, nil
}

// IsValid checks whether op belongs to the instruction set.
func IsValid(op Opcode) bool {
	return op < count
}

// IsPayload reports whether instances of op carry data (and thus never get a
// fixed palette color).
func (op Opcode) IsPayload() bool {
	switch op {
	case RAWINT, RAWSTRING, RAWCOLOR:
		return true
	default:
		return false
	}
}

// List returns all valid opcodes in table order.
func List() []Opcode {
	res := make([]Opcode, count)
	for i := range res {
		res[i] = Opcode(i)
	}
	return res
}
