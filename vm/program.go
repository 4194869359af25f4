package vm

import (
	"fmt"
	"strings"

	"zsc/types"
)

// Instruction is one decoded machine word. Operand meaning depends on Op;
// see the opcode table.
type Instruction struct {
	Op OpCode
	A  int
	B  int
	C  int
}

// Address is a tagged entry of the address constant pool. The tag preserves
// what kind of object the pointer is so the disassembler and callers can
// interpret it.
type Address struct {
	Value any
	Tag   int
}

// Address pool tags.
const (
	ATAG_GENERIC = iota
	ATAG_OBJECT
	ATAG_STATE
	ATAG_FUNCTION
)

// Function is a compiled script function: code plus its four constant pools
// and the register-file sizes the interpreter must allocate.
type Function struct {
	Name types.Name
	Code []Instruction

	KInt     []int32
	KFloat   []float64
	KString  []string
	KAddress []Address

	// NumRegs holds the peak register count per class, indexed by RegType.
	NumRegs [types.NumRegClasses]int
	// NumParams counts implicit and explicit parameters together.
	NumParams int
	// IsAction marks functions that take the two extra context pointers.
	IsAction bool
}

// NativeFunction wraps a Go implementation so script code can call it
// through the address pool.
type NativeFunction struct {
	Name types.Name
	Call NativeCall
	// DefaultReturn, when non-nil, is what a direct zero-result invocation
	// yields; only used by the interpreter's tail-call path.
	DefaultReturn []Param
}

// Disassemble renders the function's code for debugging output.
func (f *Function) Disassemble() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d instructions, regs [d=%d f=%d s=%d a=%d]\n",
		f.Name, len(f.Code), f.NumRegs[0], f.NumRegs[1], f.NumRegs[2], f.NumRegs[3])
	for i, in := range f.Code {
		fmt.Fprintf(&b, "%4d  %-8s %d, %d, %d", i, in.Op, in.A, in.B, in.C)
		switch in.Op {
		case OP_JMP:
			fmt.Fprintf(&b, "   ; -> %d", i+1+in.A)
		case OP_LK:
			fmt.Fprintf(&b, "   ; %d", f.KInt[in.B])
		case OP_LKF:
			fmt.Fprintf(&b, "   ; %g", f.KFloat[in.B])
		case OP_LKS:
			fmt.Fprintf(&b, "   ; %q", f.KString[in.B])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
