package codegen

import (
	"math"

	"zsc/types"
	"zsc/vm"
)

// flopNames maps intrinsic function names to their FLOP selector. The
// trigonometric ones work in degrees.
var flopNames = map[string]int{
	"exp":   vm.FLOP_EXP,
	"log":   vm.FLOP_LOG,
	"log10": vm.FLOP_LOG10,
	"sqrt":  vm.FLOP_SQRT,
	"ceil":  vm.FLOP_CEIL,
	"floor": vm.FLOP_FLOOR,
	"acos":  vm.FLOP_ACOS_DEG,
	"asin":  vm.FLOP_ASIN_DEG,
	"atan":  vm.FLOP_ATAN_DEG,
	"cos":   vm.FLOP_COS_DEG,
	"sin":   vm.FLOP_SIN_DEG,
	"tan":   vm.FLOP_TAN_DEG,
	"cosh":  vm.FLOP_COSH,
	"sinh":  vm.FLOP_SINH,
	"tanh":  vm.FLOP_TANH,
}

// FlopCall is a single-operand float intrinsic.
type FlopCall struct {
	expBase
	FlopID  int
	Operand Expression
}

// NewFlopCall applies the given float operation to x.
func NewFlopCall(pos Position, id int, x Expression) *FlopCall {
	e := &FlopCall{FlopID: id, Operand: x}
	e.pos = pos
	e.typ = types.TypeFloat
	return e
}

func (e *FlopCall) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = NewFloatCast(e.Operand).Resolve(ctx); err != nil {
		return nil, err
	}
	if IsConstant(e.Operand) {
		return NewFloatConstant(e.pos, vm.Flop(e.FlopID, ConstValueOf(e.Operand).GetFloat())), nil
	}
	return e, nil
}

func (e *FlopCall) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	to := Loc{Reg: from.Reuse(b), Class: types.RegFloat}
	b.Emit(vm.OP_FLOP, to.Reg, from.Reg, e.FlopID)
	return to
}

// AbsCall is abs() on either numeric type.
type AbsCall struct {
	expBase
	Operand Expression
}

// NewAbsCall applies abs to x.
func NewAbsCall(pos Position, x Expression) *AbsCall {
	e := &AbsCall{Operand: x}
	e.pos = pos
	return e
}

func (e *AbsCall) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if !t.IsNumeric() {
		return nil, ctx.Errorf(e.pos, "numeric argument expected for abs")
	}
	if t.RegType() == types.RegFloat {
		return NewFlopCall(e.pos, vm.FLOP_ABS, e.Operand).Resolve(ctx)
	}
	e.typ = types.TypeInt
	if IsConstant(e.Operand) {
		v := ConstValueOf(e.Operand).GetInt()
		if v < 0 {
			v = -v
		}
		return NewIntConstant(e.pos, v), nil
	}
	return e, nil
}

func (e *AbsCall) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	to := Loc{Reg: from.Reuse(b), Class: types.RegInt}
	b.Emit(vm.OP_ABS, to.Reg, from.Reg, 0)
	return to
}

// ATan2Call is atan2(y, x) in degrees.
type ATan2Call struct {
	expBase
	Y, X Expression
}

// NewATan2Call builds atan2(y, x).
func NewATan2Call(pos Position, y, x Expression) *ATan2Call {
	e := &ATan2Call{Y: y, X: x}
	e.pos = pos
	e.typ = types.TypeFloat
	return e
}

func (e *ATan2Call) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Y, err = NewFloatCast(e.Y).Resolve(ctx); err != nil {
		return nil, err
	}
	if e.X, err = NewFloatCast(e.X).Resolve(ctx); err != nil {
		return nil, err
	}
	if IsConstant(e.Y) && IsConstant(e.X) {
		v := math.Atan2(ConstValueOf(e.Y).GetFloat(), ConstValueOf(e.X).GetFloat()) * (180 / math.Pi)
		return NewFloatConstant(e.pos, v), nil
	}
	return e, nil
}

func (e *ATan2Call) Emit(b *Build) Loc {
	// No constant form exists for atan2, so both operands go to registers.
	y := e.Y.Emit(b).loadToRegister(b)
	x := e.X.Emit(b).loadToRegister(b)
	y.Free(b)
	x.Free(b)
	to := Loc{Reg: b.Registers[types.RegFloat].Get(1), Class: types.RegFloat}
	b.Emit(vm.OP_ATAN2, to.Reg, y.Reg, x.Reg)
	return to
}

// MinMax is min()/max() over two or more arguments.
type MinMax struct {
	expBase
	Max  bool
	Args []Expression
}

// NewMinMax builds a min or max intrinsic call.
func NewMinMax(pos Position, max bool, args []Expression) *MinMax {
	e := &MinMax{Max: max, Args: args}
	e.pos = pos
	return e
}

func (e *MinMax) name() string {
	if e.Max {
		return "max"
	}
	return "min"
}

func (e *MinMax) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if len(e.Args) < 2 {
		return nil, ctx.Errorf(e.pos, "%s requires at least 2 arguments", e.name())
	}
	isFloat := false
	for i := range e.Args {
		var err error
		if e.Args[i], err = e.Args[i].Resolve(ctx); err != nil {
			return nil, err
		}
		t := e.Args[i].Type()
		if !t.IsNumeric() {
			return nil, ctx.Errorf(e.pos, "numeric argument expected for %s", e.name())
		}
		if t.RegType() == types.RegFloat {
			isFloat = true
		}
	}
	e.typ = types.TypeInt
	if isFloat {
		e.typ = types.TypeFloat
		for i := range e.Args {
			var err error
			if e.Args[i], err = NewFloatCast(e.Args[i]).Resolve(ctx); err != nil {
				return nil, err
			}
		}
	}
	// Fold the constant arguments down to one; if that is all of them the
	// whole call folds.
	var rest []Expression
	var folded *Constant
	for _, a := range e.Args {
		if !IsConstant(a) {
			rest = append(rest, a)
			continue
		}
		if folded == nil {
			folded = a.(*Constant)
			continue
		}
		if isFloat {
			x, y := ConstValueOf(folded).GetFloat(), ConstValueOf(a).GetFloat()
			if (e.Max && y > x) || (!e.Max && y < x) {
				x = y
			}
			folded = NewFloatConstant(e.pos, x)
		} else {
			x, y := ConstValueOf(folded).GetInt(), ConstValueOf(a).GetInt()
			if (e.Max && y > x) || (!e.Max && y < x) {
				x = y
			}
			folded = NewIntConstant(e.pos, x)
		}
	}
	if len(rest) == 0 {
		return folded, nil
	}
	if folded != nil {
		rest = append(rest, folded)
	}
	if len(rest) == 1 {
		return rest[0], nil
	}
	e.Args = rest
	return e, nil
}

func (e *MinMax) Emit(b *Build) Loc {
	cls := e.typ.RegType()
	isFloat := cls == types.RegFloat
	to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
	first := e.Args[0].Emit(b)
	moveTo(b, to, first)
	first.Free(b)
	mv := vm.OP_MOVE
	if isFloat {
		mv = vm.OP_MOVEF
	}
	for _, a := range e.Args[1:] {
		v := a.Emit(b)
		// Keep the running extreme: replace it only when the candidate
		// wins the comparison. The jump after the compare runs when the
		// replacement should be skipped.
		lt := vm.OP_LT_RR
		if isFloat {
			lt = vm.OP_LTF_RR
		}
		if e.Max {
			// to < v means v wins.
			instr := lt
			if v.Konst {
				instr = lt + 1
			}
			b.Emit(instr, 0, to.Reg, v.Reg)
		} else {
			// v < to means v wins.
			instr := lt
			if v.Konst {
				instr = lt + 2
			}
			b.Emit(instr, 0, v.Reg, to.Reg)
		}
		b.Emit(vm.OP_JMP, 1, 0, 0)
		if v.Konst {
			if isFloat {
				b.Emit(vm.OP_LKF, to.Reg, v.Reg, 0)
			} else {
				b.Emit(vm.OP_LK, to.Reg, v.Reg, 0)
			}
		} else {
			b.Emit(mv, to.Reg, v.Reg, 0)
		}
		v.Free(b)
	}
	return to
}

// RandomCall is random(min, max) or frandom(min, max), range inclusive.
// Rng selects the named generator; the empty name is the default source.
type RandomCall struct {
	expBase
	Float    bool
	Rng      types.Name
	Min, Max Expression
}

// NewRandomCall builds a ranged random intrinsic.
func NewRandomCall(pos Position, float bool, min, max Expression) *RandomCall {
	e := &RandomCall{Float: float, Min: min, Max: max}
	e.pos = pos
	e.typ = types.TypeInt
	if float {
		e.typ = types.TypeFloat
	}
	return e
}

func (e *RandomCall) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Float {
		if e.Min, err = NewFloatCast(e.Min).Resolve(ctx); err != nil {
			return nil, err
		}
		if e.Max, err = NewFloatCast(e.Max).Resolve(ctx); err != nil {
			return nil, err
		}
	} else {
		if e.Min, err = NewIntCast(e.Min, false, false).Resolve(ctx); err != nil {
			return nil, err
		}
		if e.Max, err = NewIntCast(e.Max, false, false).Resolve(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *RandomCall) Emit(b *Build) Loc {
	name := "__random"
	cls := types.RegInt
	if e.Float {
		name = "__frandom"
		cls = types.RegFloat
	}
	fn := FindBuiltin(name)
	b.EmitParamInt(int32(e.Rng))
	emitParam(b, e.Min.Emit(b))
	emitParam(b, e.Max.Emit(b))
	b.Emit(vm.OP_CALL_K, b.GetConstantAddress(fn, vm.ATAG_FUNCTION), 3, 1)
	to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
	b.Emit(vm.OP_RESULT, 0, int(cls), to.Reg)
	return to
}

// Random2Call is random2(mask): a value in [-mask, mask] built from two
// draws.
type Random2Call struct {
	expBase
	Rng  types.Name
	Mask Expression
}

// NewRandom2Call builds random2 with an optional mask (nil means 255).
func NewRandom2Call(pos Position, mask Expression) *Random2Call {
	e := &Random2Call{Mask: mask}
	e.pos = pos
	e.typ = types.TypeInt
	return e
}

func (e *Random2Call) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if e.Mask == nil {
		e.Mask = NewIntConstant(e.pos, 255)
	}
	var err error
	e.Mask, err = NewIntCast(e.Mask, false, false).Resolve(ctx)
	return e, err
}

func (e *Random2Call) Emit(b *Build) Loc {
	fn := FindBuiltin("__random2")
	b.EmitParamInt(int32(e.Rng))
	emitParam(b, e.Mask.Emit(b))
	b.Emit(vm.OP_CALL_K, b.GetConstantAddress(fn, vm.ATAG_FUNCTION), 2, 1)
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_RESULT, 0, int(types.RegInt), to.Reg)
	return to
}

// RandomPick picks one of its arguments at random. The choices evaluate
// lazily: a computed jump lands on exactly one of them.
type RandomPick struct {
	expBase
	Float bool
	Rng   types.Name
	Args  []Expression
}

// NewRandomPick builds randompick/frandompick over the given choices.
func NewRandomPick(pos Position, float bool, args []Expression) *RandomPick {
	e := &RandomPick{Float: float, Args: args}
	e.pos = pos
	e.typ = types.TypeInt
	if float {
		e.typ = types.TypeFloat
	}
	return e
}

func (e *RandomPick) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if len(e.Args) == 0 {
		return nil, ctx.Errorf(e.pos, "randompick requires at least one choice")
	}
	for i := range e.Args {
		var err error
		if e.Float {
			e.Args[i], err = NewFloatCast(e.Args[i]).Resolve(ctx)
		} else {
			e.Args[i], err = NewIntCast(e.Args[i], false, false).Resolve(ctx)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(e.Args) == 1 {
		return e.Args[0], nil
	}
	return e, nil
}

func (e *RandomPick) Emit(b *Build) Loc {
	fn := FindBuiltin("__random")
	b.EmitParamInt(int32(e.Rng))
	b.EmitParamInt(0)
	b.EmitParamInt(int32(len(e.Args) - 1))
	b.Emit(vm.OP_CALL_K, b.GetConstantAddress(fn, vm.ATAG_FUNCTION), 3, 1)
	idx := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_RESULT, 0, int(types.RegInt), idx.Reg)
	idx.Free(b)
	cls := e.typ.RegType()
	to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
	// The computed jump lands on one slot of the table that follows; each
	// slot jumps to its choice.
	b.Emit(vm.OP_IJMP, idx.Reg, 0, 0)
	table := make([]int, len(e.Args))
	for i := range e.Args {
		table[i] = b.Emit(vm.OP_JMP, 0, 0, 0)
	}
	var ends []int
	for i, a := range e.Args {
		b.BackpatchToHere(table[i])
		v := a.Emit(b)
		moveTo(b, to, v)
		v.Free(b)
		if i != len(e.Args)-1 {
			ends = append(ends, b.Emit(vm.OP_JMP, 0, 0, 0))
		}
	}
	b.BackpatchList(ends)
	return to
}

// emitParam emits one PARAM instruction for an already emitted value and
// frees it.
func emitParam(b *Build, v Loc) {
	rt := int(v.Class)
	if v.Konst {
		rt |= vm.REGT_KONST
	}
	b.Emit(vm.OP_PARAM, 0, rt, v.Reg)
	v.Free(b)
}
