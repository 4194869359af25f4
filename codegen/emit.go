package codegen

import (
	"zsc/types"
	"zsc/vm"
)

// Loc describes where an emitted expression's value lives. Ownership is
// strict: exactly one consumer frees a temporary, via Free or Reuse, and
// Fixed or Konst locations are never freed.
type Loc struct {
	Reg   int
	Class types.RegType
	// Konst marks Reg as a constant pool index rather than a register.
	Konst bool
	// Fixed marks a long-lived register (parameter or local) that outlives
	// the expression consuming it.
	Fixed bool
	// Final marks a tail call: no value was produced because the callee's
	// results become the caller's.
	Final bool
	// Target marks a register holding the address of the value instead of
	// the value itself.
	Target bool
}

// Free releases the location's register back to the allocator. Constants
// and fixed registers stay put.
func (l Loc) Free(b *Build) {
	if !l.Konst && !l.Fixed && l.Class < types.NumRegClasses {
		b.Registers[l.Class].Return(l.Reg, 1)
	}
}

// Reuse returns a destination register for an operation consuming this
// location: a temporary's own register is recycled in place, while fixed
// registers stay intact and a fresh one is allocated.
func (l Loc) Reuse(b *Build) int {
	if l.Konst {
		panic("cannot reuse a constant")
	}
	if l.Fixed {
		return b.Registers[l.Class].Get(1)
	}
	b.Registers[l.Class].Return(l.Reg, 1)
	if !b.Registers[l.Class].Reuse(l.Reg) {
		panic("register unavailable for reuse")
	}
	return l.Reg
}

// Build is the per-function emission state: the instruction builder plus
// the calling-convention facts emit code needs.
type Build struct {
	*vm.Builder

	// NumImplicits counts the hidden leading parameters (self and, for
	// action functions, the two context pointers).
	NumImplicits int
	// IsAction marks functions carrying the action context pointers.
	IsAction bool
}

// NewBuild returns emission state for a function with the given receiver
// convention. Implicit pointer parameters claim the low pointer registers
// permanently.
func NewBuild(fn *types.Function) *Build {
	b := &Build{Builder: vm.NewBuilder()}
	if fn != nil && fn.Flags&types.FlagStatic == 0 {
		b.NumImplicits = 1
		if fn.Flags&types.FlagAction != 0 {
			b.IsAction = true
			b.NumImplicits = 3
		}
		b.Registers[types.RegPointer].Get(b.NumImplicits)
	}
	return b
}

// SelfReg returns the register holding the receiver.
func (b *Build) SelfReg() int { return 0 }

// StateOwnerReg returns the register holding the state owner context
// pointer of an action function.
func (b *Build) StateOwnerReg() int { return 1 }

// StateInfoReg returns the register holding the state info context pointer
// of an action function.
func (b *Build) StateInfoReg() int { return 2 }

// ConstLoc builds a constant-pool location for v.
func ConstLoc(b *Build, v types.Value) Loc {
	cls := v.Type.RegType()
	loc := Loc{Class: cls, Konst: true}
	switch cls {
	case types.RegInt:
		loc.Reg = b.GetConstantInt(v.GetInt())
	case types.RegFloat:
		loc.Reg = b.GetConstantFloat(v.GetFloat())
	case types.RegString:
		loc.Reg = b.GetConstantString(v.Str)
	case types.RegPointer:
		tag := vm.ATAG_GENERIC
		if v.Type == types.TypeState {
			tag = vm.ATAG_STATE
		}
		loc.Reg = b.GetConstantAddress(v.Addr, tag)
	default:
		panic("constant of void type")
	}
	return loc
}

// moveTo copies a value into an already allocated destination register,
// loading constants and skipping self-moves.
func moveTo(b *Build, to Loc, from Loc) {
	if from.Konst {
		switch to.Class {
		case types.RegInt:
			b.Emit(vm.OP_LK, to.Reg, from.Reg, 0)
		case types.RegFloat:
			b.Emit(vm.OP_LKF, to.Reg, from.Reg, 0)
		case types.RegString:
			b.Emit(vm.OP_LKS, to.Reg, from.Reg, 0)
		case types.RegPointer:
			b.Emit(vm.OP_LKP, to.Reg, from.Reg, 0)
		}
		return
	}
	if from.Reg == to.Reg {
		return
	}
	switch to.Class {
	case types.RegInt:
		b.Emit(vm.OP_MOVE, to.Reg, from.Reg, 0)
	case types.RegFloat:
		b.Emit(vm.OP_MOVEF, to.Reg, from.Reg, 0)
	case types.RegString:
		b.Emit(vm.OP_MOVES, to.Reg, from.Reg, 0)
	case types.RegPointer:
		b.Emit(vm.OP_MOVEP, to.Reg, from.Reg, 0)
	}
}

// loadToRegister copies a constant location into a fresh register so ops
// lacking a konst variant can use it.
func (l Loc) loadToRegister(b *Build) Loc {
	if !l.Konst {
		return l
	}
	out := Loc{Reg: b.Registers[l.Class].Get(1), Class: l.Class}
	switch l.Class {
	case types.RegInt:
		b.Emit(vm.OP_LK, out.Reg, l.Reg, 0)
	case types.RegFloat:
		b.Emit(vm.OP_LKF, out.Reg, l.Reg, 0)
	case types.RegString:
		b.Emit(vm.OP_LKS, out.Reg, l.Reg, 0)
	case types.RegPointer:
		b.Emit(vm.OP_LKP, out.Reg, l.Reg, 0)
	}
	return out
}
