package codegen

import (
	"zsc/types"
	"zsc/vm"
)

// Assign stores a value into an lvalue. As an expression it yields the
// stored value.
type Assign struct {
	expBase
	Target Expression
	Value  Expression
}

// NewAssign builds target = value.
func NewAssign(pos Position, target, value Expression) *Assign {
	e := &Assign{Target: target, Value: value}
	e.pos = pos
	return e
}

func (e *Assign) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Target, err = e.Target.Resolve(ctx); err != nil {
		return nil, err
	}
	target, ok := e.Target.(assignable)
	if !ok {
		return nil, ctx.Errorf(e.pos, "left side of assignment is not assignable")
	}
	// Aggregates have no register class; only their elements can be stored.
	if e.Target.Type().RegType() >= types.NumRegClasses {
		return nil, ctx.Errorf(e.pos, "cannot assign to a value of type %s", e.Target.Type())
	}
	if err = target.CheckWritable(ctx, e.pos); err != nil {
		return nil, err
	}
	if e.Value, err = e.Value.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Value, err = coerceTo(ctx, e.Value, e.Target.Type()); err != nil {
		return nil, err
	}
	e.typ = e.Target.Type()
	return e, nil
}

func (e *Assign) Emit(b *Build) Loc {
	val := e.Value.Emit(b)
	e.Target.(assignable).EmitStore(b, val)
	return val
}

// selfRef stands in for the target's current value inside a compound
// assignment's operation. Its location is filled in at emit time, after the
// target has been loaded.
type selfRef struct {
	expBase
	loc Loc
}

func newSelfRef(pos Position, t *types.Type) *selfRef {
	e := &selfRef{}
	e.pos = pos
	e.typ = t
	return e
}

func (e *selfRef) Resolve(ctx *Context) (Expression, error) {
	e.checkResolved()
	return e, nil
}

func (e *selfRef) Emit(b *Build) Loc {
	return e.loc
}

// ModifyAssign is the op= family. The target location is evaluated once;
// its value feeds the operation and the result stores back.
type ModifyAssign struct {
	expBase
	Target Expression
	Op     BinOp
	Value  Expression

	ref    *selfRef
	opExpr Expression
}

// NewModifyAssign builds target op= value.
func NewModifyAssign(pos Position, target Expression, op BinOp, value Expression) *ModifyAssign {
	e := &ModifyAssign{Target: target, Op: op, Value: value}
	e.pos = pos
	return e
}

func (e *ModifyAssign) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Target, err = e.Target.Resolve(ctx); err != nil {
		return nil, err
	}
	target, ok := e.Target.(assignable)
	if !ok {
		return nil, ctx.Errorf(e.pos, "left side of assignment is not assignable")
	}
	if err = target.CheckWritable(ctx, e.pos); err != nil {
		return nil, err
	}
	e.typ = e.Target.Type()
	e.ref = newSelfRef(e.pos, e.typ)
	var op Expression
	switch e.Op {
	case BinAdd, BinSub:
		op = NewAddSub(e.pos, e.Op, e.ref, e.Value)
	case BinMul, BinDiv, BinMod:
		op = NewMulDiv(e.pos, e.Op, e.ref, e.Value)
	case BinAnd, BinOr, BinXor, BinShl, BinShr, BinUShr:
		op = NewBinaryInt(e.pos, e.Op, e.ref, e.Value)
	default:
		return nil, ctx.Errorf(e.pos, "operator %s cannot be used in a compound assignment", e.Op)
	}
	if e.opExpr, err = op.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.opExpr, err = coerceTo(ctx, e.opExpr, e.typ); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *ModifyAssign) Emit(b *Build) Loc {
	old := e.Target.Emit(b).loadToRegister(b)
	// The operation must not free the loaded value; it is released here
	// once the store is done.
	wasFixed := old.Fixed
	old.Fixed = true
	e.ref.loc = old
	res := e.opExpr.Emit(b)
	e.Target.(assignable).EmitStore(b, res)
	if !wasFixed && !old.Konst {
		b.Registers[old.Class].Return(old.Reg, 1)
	}
	return res
}

// IncrDecr is ++ and --, prefix or postfix.
type IncrDecr struct {
	expBase
	Target  Expression
	Dec     bool
	Postfix bool
}

// NewIncrDecr builds an increment or decrement of target.
func NewIncrDecr(pos Position, target Expression, dec, postfix bool) *IncrDecr {
	e := &IncrDecr{Target: target, Dec: dec, Postfix: postfix}
	e.pos = pos
	return e
}

func (e *IncrDecr) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Target, err = e.Target.Resolve(ctx); err != nil {
		return nil, err
	}
	target, ok := e.Target.(assignable)
	if !ok {
		return nil, ctx.Errorf(e.pos, "operand of ++/-- is not assignable")
	}
	if err = target.CheckWritable(ctx, e.pos); err != nil {
		return nil, err
	}
	t := e.Target.Type()
	if !t.IsNumeric() || t == types.TypeBool {
		return nil, ctx.Errorf(e.pos, "cannot increment a value of type %s", t)
	}
	e.typ = t
	return e, nil
}

// stepInto emits to = v ± 1.
func (e *IncrDecr) stepInto(b *Build, to, v Loc) {
	if v.Class == types.RegFloat {
		op := vm.OP_ADDF_RK
		if e.Dec {
			op = vm.OP_SUBF_RK
		}
		b.Emit(op, to.Reg, v.Reg, b.GetConstantFloat(1))
		return
	}
	op := vm.OP_ADD_RK
	if e.Dec {
		op = vm.OP_SUB_RK
	}
	b.Emit(op, to.Reg, v.Reg, b.GetConstantInt(1))
}

// emitStep emits new = v ± 1 into a destination that recycles v.
func (e *IncrDecr) emitStep(b *Build, v Loc) Loc {
	to := Loc{Reg: v.Reuse(b), Class: v.Class}
	e.stepInto(b, to, v)
	return to
}

func (e *IncrDecr) Emit(b *Build) Loc {
	target := e.Target.(assignable)
	v := e.Target.Emit(b).loadToRegister(b)
	if !e.Postfix {
		// A register-resident target steps in place; the arithmetic is the
		// store, and the result stays addressable.
		if v.Fixed {
			e.stepInto(b, v, v)
			return v
		}
		to := e.emitStep(b, v)
		target.EmitStore(b, to)
		return to
	}
	// Postfix keeps the original value as the expression result.
	old := Loc{Reg: b.Registers[v.Class].Get(1), Class: v.Class}
	moveTo(b, old, v)
	to := e.emitStep(b, v)
	target.EmitStore(b, to)
	to.Free(b)
	return old
}
