package codegen

import (
	"math"

	"zsc/types"
	"zsc/vm"
)

// BinOp names a binary operator for the nodes that handle several.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinUShr
	BinLT
	BinLE
	BinGT
	BinGE
	BinEQ
	BinNE
	BinAPX
)

var binOpNames = map[BinOp]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinMod: "%",
	BinAnd: "&", BinOr: "|", BinXor: "^", BinShl: "<<", BinShr: ">>",
	BinUShr: ">>>", BinLT: "<", BinLE: "<=", BinGT: ">", BinGE: ">=",
	BinEQ: "==", BinNE: "!=", BinAPX: "~==",
}

func (op BinOp) String() string { return binOpNames[op] }

// promoteNumeric coerces a numeric operand pair to a common type: float if
// either side is float, int otherwise. Bools promote to int.
func promoteNumeric(ctx *Context, pos Position, left, right Expression) (Expression, Expression, *types.Type, error) {
	lt, rt := left.Type(), right.Type()
	if !lt.IsNumeric() || !rt.IsNumeric() {
		// Names sneak into arithmetic in legacy scripts; the int cast
		// handles the fallback and its warning.
		var err error
		if lt == types.TypeName {
			if left, err = NewIntCast(left, true, false).Resolve(ctx); err != nil {
				return nil, nil, nil, err
			}
			lt = left.Type()
		}
		if rt == types.TypeName {
			if right, err = NewIntCast(right, true, false).Resolve(ctx); err != nil {
				return nil, nil, nil, err
			}
			rt = right.Type()
		}
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return nil, nil, nil, ctx.Errorf(pos, "numeric operands expected, have %s and %s", lt, rt)
		}
	}
	if lt.RegType() == types.RegFloat || rt.RegType() == types.RegFloat {
		var err error
		if left, err = NewFloatCast(left).Resolve(ctx); err != nil {
			return nil, nil, nil, err
		}
		if right, err = NewFloatCast(right).Resolve(ctx); err != nil {
			return nil, nil, nil, err
		}
		return left, right, types.TypeFloat, nil
	}
	return left, right, types.TypeInt, nil
}

// binaryOperands emits both sides of a binary operation, frees them, and
// allocates the destination. Freeing before allocating lets the result
// recycle an operand register; the instruction reads before it writes.
func binaryOperands(b *Build, cls types.RegType, left, right Expression) (Loc, Loc, Loc) {
	l := left.Emit(b)
	r := right.Emit(b)
	l.Free(b)
	r.Free(b)
	return l, r, Loc{Reg: b.Registers[cls].Get(1), Class: cls}
}

// AddSub is binary + and -.
type AddSub struct {
	expBase
	Op          BinOp
	Left, Right Expression
}

// NewAddSub builds an addition or subtraction node.
func NewAddSub(pos Position, op BinOp, left, right Expression) *AddSub {
	e := &AddSub{Op: op, Left: left, Right: right}
	e.pos = pos
	return e
}

func (e *AddSub) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = e.Left.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = e.Right.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Left, e.Right, e.typ, err = promoteNumeric(ctx, e.pos, e.Left, e.Right); err != nil {
		return nil, err
	}
	if IsConstant(e.Left) && IsConstant(e.Right) {
		l, r := ConstValueOf(e.Left), ConstValueOf(e.Right)
		if e.typ == types.TypeFloat {
			if e.Op == BinAdd {
				return NewFloatConstant(e.pos, l.GetFloat()+r.GetFloat()), nil
			}
			return NewFloatConstant(e.pos, l.GetFloat()-r.GetFloat()), nil
		}
		if e.Op == BinAdd {
			return NewIntConstant(e.pos, l.GetInt()+r.GetInt()), nil
		}
		return NewIntConstant(e.pos, l.GetInt()-r.GetInt()), nil
	}
	return e, nil
}

func (e *AddSub) Emit(b *Build) Loc {
	left, right := e.Left, e.Right
	if e.Op == BinAdd && IsConstant(left) {
		// Addition commutes, so the constant always goes on the right
		// where the RK form wants it.
		left, right = right, left
	}
	l, r, to := binaryOperands(b, e.typ.RegType(), left, right)
	var rr vm.OpCode
	if e.typ == types.TypeFloat {
		if e.Op == BinAdd {
			rr = vm.OP_ADDF_RR
		} else {
			rr = vm.OP_SUBF_RR
		}
	} else {
		if e.Op == BinAdd {
			rr = vm.OP_ADD_RR
		} else {
			rr = vm.OP_SUB_RR
		}
	}
	switch {
	case l.Konst:
		b.Emit(rr+2, to.Reg, l.Reg, r.Reg)
	case r.Konst:
		b.Emit(rr+1, to.Reg, l.Reg, r.Reg)
	default:
		b.Emit(rr, to.Reg, l.Reg, r.Reg)
	}
	return to
}

// MulDiv is binary *, / and %. Division by a constant zero is a resolve
// error rather than deferred to run time.
type MulDiv struct {
	expBase
	Op          BinOp
	Left, Right Expression
}

// NewMulDiv builds a multiplication, division or remainder node.
func NewMulDiv(pos Position, op BinOp, left, right Expression) *MulDiv {
	e := &MulDiv{Op: op, Left: left, Right: right}
	e.pos = pos
	return e
}

func (e *MulDiv) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = e.Left.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = e.Right.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Left, e.Right, e.typ, err = promoteNumeric(ctx, e.pos, e.Left, e.Right); err != nil {
		return nil, err
	}
	if e.Op != BinMul && IsConstant(e.Right) && ConstValueOf(e.Right).IsZero() {
		return nil, ctx.Errorf(e.pos, "division by zero")
	}
	if IsConstant(e.Left) && IsConstant(e.Right) {
		l, r := ConstValueOf(e.Left), ConstValueOf(e.Right)
		if e.typ == types.TypeFloat {
			switch e.Op {
			case BinMul:
				return NewFloatConstant(e.pos, l.GetFloat()*r.GetFloat()), nil
			case BinDiv:
				return NewFloatConstant(e.pos, l.GetFloat()/r.GetFloat()), nil
			default:
				return NewFloatConstant(e.pos, vm.FloatMod(l.GetFloat(), r.GetFloat())), nil
			}
		}
		switch e.Op {
		case BinMul:
			return NewIntConstant(e.pos, l.GetInt()*r.GetInt()), nil
		case BinDiv:
			return NewIntConstant(e.pos, l.GetInt()/r.GetInt()), nil
		default:
			return NewIntConstant(e.pos, l.GetInt()%r.GetInt()), nil
		}
	}
	return e, nil
}

func (e *MulDiv) Emit(b *Build) Loc {
	left, right := e.Left, e.Right
	if e.Op == BinMul && IsConstant(left) {
		left, right = right, left
	}
	l, r, to := binaryOperands(b, e.typ.RegType(), left, right)
	var rr vm.OpCode
	if e.typ == types.TypeFloat {
		switch e.Op {
		case BinMul:
			rr = vm.OP_MULF_RR
		case BinDiv:
			rr = vm.OP_DIVF_RR
		default:
			rr = vm.OP_MODF_RR
		}
	} else {
		switch e.Op {
		case BinMul:
			rr = vm.OP_MUL_RR
		case BinDiv:
			rr = vm.OP_DIV_RR
		default:
			rr = vm.OP_MOD_RR
		}
	}
	switch {
	case l.Konst:
		b.Emit(rr+2, to.Reg, l.Reg, r.Reg)
	case r.Konst:
		b.Emit(rr+1, to.Reg, l.Reg, r.Reg)
	default:
		b.Emit(rr, to.Reg, l.Reg, r.Reg)
	}
	return to
}

// Pow is the ** operator. Both operands convert to float.
type Pow struct {
	expBase
	Left, Right Expression
}

// NewPow builds an exponentiation node.
func NewPow(pos Position, left, right Expression) *Pow {
	e := &Pow{Left: left, Right: right}
	e.pos = pos
	e.typ = types.TypeFloat
	return e
}

func (e *Pow) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = NewFloatCast(e.Left).Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = NewFloatCast(e.Right).Resolve(ctx); err != nil {
		return nil, err
	}
	if IsConstant(e.Left) && IsConstant(e.Right) {
		return NewFloatConstant(e.pos,
			math.Pow(ConstValueOf(e.Left).GetFloat(), ConstValueOf(e.Right).GetFloat())), nil
	}
	return e, nil
}

func (e *Pow) Emit(b *Build) Loc {
	l, r, to := binaryOperands(b, types.RegFloat, e.Left, e.Right)
	switch {
	case l.Konst:
		b.Emit(vm.OP_POWF_KR, to.Reg, l.Reg, r.Reg)
	case r.Konst:
		b.Emit(vm.OP_POWF_RK, to.Reg, l.Reg, r.Reg)
	default:
		b.Emit(vm.OP_POWF_RR, to.Reg, l.Reg, r.Reg)
	}
	return to
}

// CompareRel is <, <=, > and >=. The ISA only has less-than forms, so the
// greater-than operators emit with swapped operands.
type CompareRel struct {
	expBase
	Op          BinOp
	Left, Right Expression
}

// NewCompareRel builds a relational comparison node.
func NewCompareRel(pos Position, op BinOp, left, right Expression) *CompareRel {
	e := &CompareRel{Op: op, Left: left, Right: right}
	e.pos = pos
	e.typ = types.TypeBool
	return e
}

func (e *CompareRel) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = e.Left.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = e.Right.Resolve(ctx); err != nil {
		return nil, err
	}
	var ot *types.Type
	if e.Left, e.Right, ot, err = promoteNumeric(ctx, e.pos, e.Left, e.Right); err != nil {
		return nil, err
	}
	if IsConstant(e.Left) && IsConstant(e.Right) {
		l, r := ConstValueOf(e.Left), ConstValueOf(e.Right)
		var res bool
		if ot == types.TypeFloat {
			a, b := l.GetFloat(), r.GetFloat()
			switch e.Op {
			case BinLT:
				res = a < b
			case BinLE:
				res = a <= b
			case BinGT:
				res = a > b
			default:
				res = a >= b
			}
		} else {
			a, b := l.GetInt(), r.GetInt()
			switch e.Op {
			case BinLT:
				res = a < b
			case BinLE:
				res = a <= b
			case BinGT:
				res = a > b
			default:
				res = a >= b
			}
		}
		return NewBoolConstant(e.pos, res), nil
	}
	return e, nil
}

func (e *CompareRel) Emit(b *Build) Loc {
	left, right, op := e.Left, e.Right, e.Op
	// a > b is b < a; a >= b is b <= a.
	if op == BinGT {
		left, right, op = right, left, BinLT
	} else if op == BinGE {
		left, right, op = right, left, BinLE
	}
	l := left.Emit(b)
	r := right.Emit(b)
	// The destination is written before the operands are read, so it must
	// not recycle an operand register.
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	isFloat := e.Left.Type().RegType() == types.RegFloat
	var rr vm.OpCode
	if op == BinLT {
		rr = vm.OP_LT_RR
		if isFloat {
			rr = vm.OP_LTF_RR
		}
	} else {
		rr = vm.OP_LE_RR
		if isFloat {
			rr = vm.OP_LEF_RR
		}
	}
	instr := rr
	switch {
	case l.Konst:
		instr = rr + 2
	case r.Konst:
		instr = rr + 1
	}
	// Materialize the comparison as 0/1: assume false, and when the test
	// fails the jump over the final load executes.
	b.Emit(vm.OP_LI, to.Reg, 0, 0)
	b.Emit(instr, 0, l.Reg, r.Reg)
	b.Emit(vm.OP_JMP, 1, 0, 0)
	b.Emit(vm.OP_LI, to.Reg, 1, 0)
	l.Free(b)
	r.Free(b)
	return to
}

// CompareEq is ==, != and the approximate ~==. Approximate comparison only
// differs for floats; everywhere else it means exact equality.
type CompareEq struct {
	expBase
	Op          BinOp
	Left, Right Expression
}

// NewCompareEq builds an equality comparison node.
func NewCompareEq(pos Position, op BinOp, left, right Expression) *CompareEq {
	e := &CompareEq{Op: op, Left: left, Right: right}
	e.pos = pos
	e.typ = types.TypeBool
	return e
}

func (e *CompareEq) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = e.Left.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = e.Right.Resolve(ctx); err != nil {
		return nil, err
	}
	lt, rt := e.Left.Type(), e.Right.Type()
	switch {
	case lt.IsNumeric() && rt.IsNumeric():
		if e.Left, e.Right, _, err = promoteNumeric(ctx, e.pos, e.Left, e.Right); err != nil {
			return nil, err
		}
	case lt.IsPointer() && rt.IsPointer():
		if !types.CompatiblePointers(lt, rt) && !types.CompatiblePointers(rt, lt) &&
			lt != types.TypeNullPtr && rt != types.TypeNullPtr &&
			lt.Kind != types.KindClassPointer && rt.Kind != types.KindClassPointer {
			return nil, ctx.Errorf(e.pos, "incompatible pointer comparison: %s and %s", lt, rt)
		}
	case lt.RegType() == types.RegString && rt.RegType() == types.RegString:
		// String equality runs on interned names: equal strings intern to
		// the same name, so an int compare suffices.
		if e.Left, err = NewNameCast(e.Left).Resolve(ctx); err != nil {
			return nil, err
		}
		if e.Right, err = NewNameCast(e.Right).Resolve(ctx); err != nil {
			return nil, err
		}
	case lt == rt && lt.RegType() == types.RegInt:
		// Same handle type (name, sound, color) compares directly.
	default:
		return nil, ctx.Errorf(e.pos, "incompatible comparison: %s and %s", lt, rt)
	}
	if IsConstant(e.Left) && IsConstant(e.Right) {
		l, r := ConstValueOf(e.Left), ConstValueOf(e.Right)
		var eq bool
		switch e.Left.Type().RegType() {
		case types.RegFloat:
			if e.Op == BinAPX {
				eq = math.Abs(l.GetFloat()-r.GetFloat()) < 1.0/65536.0
			} else {
				eq = l.GetFloat() == r.GetFloat()
			}
		case types.RegPointer:
			eq = l.Addr == r.Addr
		default:
			eq = l.GetInt() == r.GetInt()
		}
		if e.Op == BinNE {
			eq = !eq
		}
		return NewBoolConstant(e.pos, eq), nil
	}
	return e, nil
}

func (e *CompareEq) Emit(b *Build) Loc {
	left, right := e.Left, e.Right
	// Equality commutes and the konst form only takes a right-side
	// constant.
	if IsConstant(left) {
		left, right = right, left
	}
	l := left.Emit(b)
	r := right.Emit(b)
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	var instr vm.OpCode
	switch left.Type().RegType() {
	case types.RegFloat:
		instr = vm.OP_EQF_R
		if r.Konst {
			instr = vm.OP_EQF_K
		}
	case types.RegPointer:
		instr = vm.OP_EQA_R
		if r.Konst {
			instr = vm.OP_EQA_K
		}
	default:
		instr = vm.OP_EQ_R
		if r.Konst {
			instr = vm.OP_EQ_K
		}
	}
	// check=0 for ==: the jump over the final load runs when the operands
	// differ. != inverts the check.
	check := 0
	if e.Op == BinNE {
		check = 1
	}
	if e.Op == BinAPX && left.Type().RegType() == types.RegFloat {
		check |= vm.CMP_APPROX
	}
	b.Emit(vm.OP_LI, to.Reg, 0, 0)
	b.Emit(instr, check, l.Reg, r.Reg)
	b.Emit(vm.OP_JMP, 1, 0, 0)
	b.Emit(vm.OP_LI, to.Reg, 1, 0)
	l.Free(b)
	r.Free(b)
	return to
}

// BinaryInt is the bitwise and shift family. Operands must be integral.
type BinaryInt struct {
	expBase
	Op          BinOp
	Left, Right Expression
}

// NewBinaryInt builds a bitwise or shift node.
func NewBinaryInt(pos Position, op BinOp, left, right Expression) *BinaryInt {
	e := &BinaryInt{Op: op, Left: left, Right: right}
	e.pos = pos
	e.typ = types.TypeInt
	return e
}

func (e *BinaryInt) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = NewIntCast(e.Left, false, false).Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = NewIntCast(e.Right, false, false).Resolve(ctx); err != nil {
		return nil, err
	}
	if IsConstant(e.Left) && IsConstant(e.Right) {
		l, r := ConstValueOf(e.Left).GetInt(), ConstValueOf(e.Right).GetInt()
		var v int32
		switch e.Op {
		case BinAnd:
			v = l & r
		case BinOr:
			v = l | r
		case BinXor:
			v = l ^ r
		case BinShl:
			v = l << (uint32(r) & 31)
		case BinShr:
			v = l >> (uint32(r) & 31)
		case BinUShr:
			v = int32(uint32(l) >> (uint32(r) & 31))
		}
		return NewIntConstant(e.pos, v), nil
	}
	return e, nil
}

func (e *BinaryInt) Emit(b *Build) Loc {
	switch e.Op {
	case BinAnd, BinOr, BinXor:
		left, right := e.Left, e.Right
		if IsConstant(left) {
			left, right = right, left
		}
		l, r, to := binaryOperands(b, types.RegInt, left, right)
		var rr vm.OpCode
		switch e.Op {
		case BinAnd:
			rr = vm.OP_AND_RR
		case BinOr:
			rr = vm.OP_OR_RR
		default:
			rr = vm.OP_XOR_RR
		}
		if r.Konst {
			rr++
		}
		b.Emit(rr, to.Reg, l.Reg, r.Reg)
		return to
	}
	var rr vm.OpCode
	switch e.Op {
	case BinShl:
		rr = vm.OP_SLL_RR
	case BinShr:
		rr = vm.OP_SRA_RR
	default:
		rr = vm.OP_SRL_RR
	}
	// A constant shift count becomes an immediate, not a pool load.
	if IsConstant(e.Right) {
		l := e.Left.Emit(b)
		l.Free(b)
		to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
		b.Emit(rr+1, to.Reg, l.Reg, int(ConstValueOf(e.Right).GetInt())&31)
		return to
	}
	l, r, to := binaryOperands(b, types.RegInt, e.Left, e.Right)
	if l.Konst {
		b.Emit(rr+2, to.Reg, l.Reg, r.Reg)
	} else {
		b.Emit(rr, to.Reg, l.Reg, r.Reg)
	}
	return to
}

// LtGtEq is the three-way <>= operator: -1, 0 or 1 with both operands
// evaluated exactly once.
type LtGtEq struct {
	expBase
	Left, Right Expression
}

// NewLtGtEq builds a three-way comparison node.
func NewLtGtEq(pos Position, left, right Expression) *LtGtEq {
	e := &LtGtEq{Left: left, Right: right}
	e.pos = pos
	e.typ = types.TypeInt
	return e
}

func (e *LtGtEq) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = e.Left.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = e.Right.Resolve(ctx); err != nil {
		return nil, err
	}
	var ot *types.Type
	if e.Left, e.Right, ot, err = promoteNumeric(ctx, e.pos, e.Left, e.Right); err != nil {
		return nil, err
	}
	if IsConstant(e.Left) && IsConstant(e.Right) {
		l, r := ConstValueOf(e.Left), ConstValueOf(e.Right)
		var v int32
		if ot == types.TypeFloat {
			a, b := l.GetFloat(), r.GetFloat()
			switch {
			case a < b:
				v = -1
			case a > b:
				v = 1
			}
		} else {
			a, b := l.GetInt(), r.GetInt()
			switch {
			case a < b:
				v = -1
			case a > b:
				v = 1
			}
		}
		return NewIntConstant(e.pos, v), nil
	}
	return e, nil
}

func (e *LtGtEq) Emit(b *Build) Loc {
	l := e.Left.Emit(b)
	r := e.Right.Emit(b)
	isFloat := e.Left.Type().RegType() == types.RegFloat
	lt, eq := vm.OP_LT_RR, vm.OP_EQ_R
	if isFloat {
		lt, eq = vm.OP_LTF_RR, vm.OP_EQF_R
	}
	ltInstr := lt
	switch {
	case l.Konst:
		ltInstr = lt + 2
	case r.Konst:
		ltInstr = lt + 1
	}
	// Equality only takes a right-side constant; swapping is fine there.
	eqL, eqR := l, r
	eqInstr := eq
	if l.Konst {
		eqL, eqR = r, l
	}
	if eqR.Konst {
		eqInstr = eq + 1
	}
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_LI, to.Reg, -1, 0)
	b.Emit(ltInstr, 1, l.Reg, r.Reg)
	j1 := b.Emit(vm.OP_JMP, 0, 0, 0)
	b.Emit(vm.OP_LI, to.Reg, 0, 0)
	b.Emit(eqInstr, 1, eqL.Reg, eqR.Reg)
	j2 := b.Emit(vm.OP_JMP, 0, 0, 0)
	b.Emit(vm.OP_LI, to.Reg, 1, 0)
	b.BackpatchToHere(j1)
	b.BackpatchToHere(j2)
	l.Free(b)
	r.Free(b)
	return to
}

// BinaryLogical is short-circuit && and ||.
type BinaryLogical struct {
	expBase
	And         bool
	Left, Right Expression
}

// NewBinaryLogical builds a logical and/or node.
func NewBinaryLogical(pos Position, and bool, left, right Expression) *BinaryLogical {
	e := &BinaryLogical{And: and, Left: left, Right: right}
	e.pos = pos
	e.typ = types.TypeBool
	return e
}

func (e *BinaryLogical) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Left, err = NewBoolCast(e.Left).Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Right, err = NewBoolCast(e.Right).Resolve(ctx); err != nil {
		return nil, err
	}
	if IsConstant(e.Left) {
		lv := ConstValueOf(e.Left).GetBool()
		// A constant left side decides everything or defers to the right:
		// false && x and true || x never evaluate x.
		if e.And {
			if !lv {
				return NewBoolConstant(e.pos, false), nil
			}
			return e.Right, nil
		}
		if lv {
			return NewBoolConstant(e.pos, true), nil
		}
		return e.Right, nil
	}
	if IsConstant(e.Right) {
		rv := ConstValueOf(e.Right).GetBool()
		// The left side still runs for its side effects; only the neutral
		// element folds away.
		if e.And && rv {
			return e.Left, nil
		}
		if !e.And && !rv {
			return e.Left, nil
		}
	}
	return e, nil
}

func (e *BinaryLogical) Emit(b *Build) Loc {
	// Short-circuit: each operand tests against zero and bails to the
	// decided exit without evaluating what follows.
	check := 1
	if !e.And {
		check = 0
	}
	var exits []int
	l := e.Left.Emit(b).loadToRegister(b)
	l.Free(b)
	b.Emit(vm.OP_EQ_K, check, l.Reg, b.GetConstantInt(0))
	exits = append(exits, b.Emit(vm.OP_JMP, 0, 0, 0))
	r := e.Right.Emit(b).loadToRegister(b)
	r.Free(b)
	b.Emit(vm.OP_EQ_K, check, r.Reg, b.GetConstantInt(0))
	exits = append(exits, b.Emit(vm.OP_JMP, 0, 0, 0))
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	decided := int32(1)
	fallthru := int32(0)
	if e.And {
		decided, fallthru = 0, 1
	}
	b.Emit(vm.OP_LI, to.Reg, int(fallthru), 0)
	done := b.Emit(vm.OP_JMP, 0, 0, 0)
	b.BackpatchList(exits)
	b.Emit(vm.OP_LI, to.Reg, int(decided), 0)
	b.BackpatchToHere(done)
	return to
}

// Conditional is the ?: operator.
type Conditional struct {
	expBase
	Condition   Expression
	True, False Expression
}

// NewConditional builds a ?: node.
func NewConditional(pos Position, cond, t, f Expression) *Conditional {
	e := &Conditional{Condition: cond, True: t, False: f}
	e.pos = pos
	return e
}

func (e *Conditional) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Condition, err = NewBoolCast(e.Condition).Resolve(ctx); err != nil {
		return nil, err
	}
	if e.True, err = e.True.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.False, err = e.False.Resolve(ctx); err != nil {
		return nil, err
	}
	tt, ft := e.True.Type(), e.False.Type()
	switch {
	case tt == ft:
		e.typ = tt
	case tt.IsNumeric() && ft.IsNumeric():
		if e.True, e.False, e.typ, err = promoteNumeric(ctx, e.pos, e.True, e.False); err != nil {
			return nil, err
		}
	case tt.IsPointer() && ft == types.TypeNullPtr:
		e.typ = tt
	case ft.IsPointer() && tt == types.TypeNullPtr:
		e.typ = ft
	default:
		return nil, ctx.Errorf(e.pos, "incompatible branch types %s and %s", tt, ft)
	}
	if IsConstant(e.Condition) {
		if ConstValueOf(e.Condition).GetBool() {
			return e.True, nil
		}
		return e.False, nil
	}
	return e, nil
}

func (e *Conditional) Emit(b *Build) Loc {
	cond := e.Condition.Emit(b).loadToRegister(b)
	cond.Free(b)
	b.Emit(vm.OP_EQ_K, 1, cond.Reg, b.GetConstantInt(0))
	jfalse := b.Emit(vm.OP_JMP, 0, 0, 0)
	cls := e.typ.RegType()
	to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
	tl := e.True.Emit(b)
	tl.Free(b)
	moveTo(b, to, tl)
	jend := b.Emit(vm.OP_JMP, 0, 0, 0)
	b.BackpatchToHere(jfalse)
	fl := e.False.Emit(b)
	fl.Free(b)
	moveTo(b, to, fl)
	b.BackpatchToHere(jend)
	return to
}
