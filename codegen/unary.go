package codegen

import (
	"zsc/types"
	"zsc/vm"
)

// PlusSign is the unary + operator. It only checks that its operand is
// numeric and then vanishes.
type PlusSign struct {
	expBase
	Operand Expression
}

// NewPlusSign applies unary plus to x.
func NewPlusSign(pos Position, x Expression) *PlusSign {
	e := &PlusSign{Operand: x}
	e.pos = pos
	return e
}

func (e *PlusSign) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	if !e.Operand.Type().IsNumeric() {
		return nil, ctx.Errorf(e.pos, "numeric type expected for unary +")
	}
	return e.Operand, nil
}

func (e *PlusSign) Emit(b *Build) Loc {
	panic("unary plus not replaced during resolution")
}

// MinusSign negates a numeric value.
type MinusSign struct {
	expBase
	Operand Expression
}

// NewMinusSign applies unary minus to x.
func NewMinusSign(pos Position, x Expression) *MinusSign {
	e := &MinusSign{Operand: x}
	e.pos = pos
	return e
}

func (e *MinusSign) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if !t.IsNumeric() {
		return nil, ctx.Errorf(e.pos, "numeric type expected for unary -")
	}
	// Negating a bool promotes to int.
	if t == types.TypeBool {
		t = types.TypeInt
	}
	e.typ = t
	if IsConstant(e.Operand) {
		v := ConstValueOf(e.Operand)
		if t == types.TypeFloat {
			return NewFloatConstant(e.pos, -v.GetFloat()), nil
		}
		return NewIntConstant(e.pos, -v.GetInt()), nil
	}
	return e, nil
}

func (e *MinusSign) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	to := Loc{Reg: from.Reuse(b), Class: from.Class}
	if from.Class == types.RegFloat {
		b.Emit(vm.OP_FLOP, to.Reg, from.Reg, vm.FLOP_NEG)
	} else {
		b.Emit(vm.OP_NEG, to.Reg, from.Reg, 0)
	}
	return to
}

// BitNot is the unary ~ operator on integers.
type BitNot struct {
	expBase
	Operand Expression
}

// NewBitNot applies bitwise complement to x.
func NewBitNot(pos Position, x Expression) *BitNot {
	e := &BitNot{Operand: x}
	e.pos = pos
	e.typ = types.TypeInt
	return e
}

func (e *BitNot) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t != types.TypeInt && t != types.TypeBool {
		return nil, ctx.Errorf(e.pos, "integer type expected for ~")
	}
	if IsConstant(e.Operand) {
		return NewIntConstant(e.pos, ^ConstValueOf(e.Operand).GetInt()), nil
	}
	return e, nil
}

func (e *BitNot) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	to := Loc{Reg: from.Reuse(b), Class: types.RegInt}
	b.Emit(vm.OP_NOT, to.Reg, from.Reg, 0)
	return to
}

// BoolNot is the logical ! operator. Its operand coerces to bool, so the
// emitted value is always exactly 0 or 1 and a single xor flips it.
type BoolNot struct {
	expBase
	Operand Expression
}

// NewBoolNot applies logical negation to x.
func NewBoolNot(pos Position, x Expression) *BoolNot {
	e := &BoolNot{Operand: x}
	e.pos = pos
	e.typ = types.TypeBool
	return e
}

func (e *BoolNot) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = NewBoolCast(e.Operand).Resolve(ctx); err != nil {
		return nil, err
	}
	if IsConstant(e.Operand) {
		return NewBoolConstant(e.pos, !ConstValueOf(e.Operand).GetBool()), nil
	}
	return e, nil
}

func (e *BoolNot) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	to := Loc{Reg: from.Reuse(b), Class: types.RegInt}
	b.Emit(vm.OP_XOR_RK, to.Reg, from.Reg, b.GetConstantInt(1))
	return to
}

// SizeAlignWhich selects the query SizeAlign performs.
type SizeAlignWhich int

const (
	QuerySize SizeAlignWhich = iota
	QueryAlign
)

// SizeAlign is the sizeof/alignof operator. It always folds.
type SizeAlign struct {
	expBase
	Operand Expression
	Which   SizeAlignWhich
}

// NewSizeAlign queries the storage size or alignment of x's type.
func NewSizeAlign(pos Position, x Expression, which SizeAlignWhich) *SizeAlign {
	e := &SizeAlign{Operand: x, Which: which}
	e.pos = pos
	e.typ = types.TypeInt
	return e
}

func (e *SizeAlign) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t.Size == 0 {
		return nil, ctx.Errorf(e.pos, "type %s has no storage size", t)
	}
	if e.Which == QueryAlign {
		return NewIntConstant(e.pos, int32(t.Align)), nil
	}
	return NewIntConstant(e.pos, int32(t.Size)), nil
}

func (e *SizeAlign) Emit(b *Build) Loc {
	panic("sizeof not replaced during resolution")
}
