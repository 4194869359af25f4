package codegen

import (
	"fmt"
	"math"
	"os"
	"testing"

	"zsc/types"
	"zsc/vm"
)

var testPos = Position{File: "test", Line: 1}

// Deterministic stand-ins for the runtime natives so tests control every
// outcome. stubRandom.next is clamped into the requested range.
var stubRandom struct {
	next  int32
	fnext float64
	rng   types.Name
}

var stubTable *types.ClassTable

func TestMain(m *testing.M) {
	// args[0] of the random natives is the generator name; the stubs record
	// it and ignore it otherwise.
	RegisterBuiltin("__random", &vm.NativeFunction{
		Name: types.NewName("__random"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			stubRandom.rng = types.Name(args[0].I)
			v := stubRandom.next
			if v < args[1].I {
				v = args[1].I
			}
			if v > args[2].I {
				v = args[2].I
			}
			return []vm.Param{vm.IntParam(v)}, nil
		},
	})
	RegisterBuiltin("__frandom", &vm.NativeFunction{
		Name: types.NewName("__frandom"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			stubRandom.rng = types.Name(args[0].I)
			return []vm.Param{vm.FloatParam(args[1].F + stubRandom.fnext)}, nil
		},
	})
	RegisterBuiltin("__random2", &vm.NativeFunction{
		Name: types.NewName("__random2"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			stubRandom.rng = types.Name(args[0].I)
			return []vm.Param{vm.IntParam(stubRandom.next & args[1].I)}, nil
		},
	})
	RegisterBuiltin("__nametoclass", &vm.NativeFunction{
		Name: types.NewName("__nametoclass"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			cls := stubTable.Find(types.Name(args[0].I))
			base, _ := args[1].A.(*types.Class)
			if cls == nil || (base != nil && !cls.IsDescendantOf(base)) {
				return []vm.Param{vm.AddrParam(nil)}, nil
			}
			return []vm.Param{vm.AddrParam(cls)}, nil
		},
	})
	RegisterBuiltin("__callactionspecial", &vm.NativeFunction{
		Name: types.NewName("__callactionspecial"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			v := args[0].I * 1000
			for _, a := range args[1:] {
				v += a.I
			}
			return []vm.Param{vm.IntParam(v)}, nil
		},
	})
	os.Exit(m.Run())
}

// resolveIn resolves e in a throwaway strict context.
func resolveIn(t *testing.T, table *types.ClassTable, e Expression) Expression {
	t.Helper()
	ctx := NewContext(table, nil, nil, DialectStrict)
	r, err := e.Resolve(ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return r
}

// wantIntConst checks that e folded to the given int constant.
func wantIntConst(t *testing.T, e Expression, want int32) {
	t.Helper()
	if !IsConstant(e) {
		t.Fatalf("did not fold to a constant: %T", e)
	}
	if got := ConstValueOf(e).GetInt(); got != want {
		t.Fatalf("folded to %d, want %d", got, want)
	}
}

func wantFloatConst(t *testing.T, e Expression, want float64) {
	t.Helper()
	if !IsConstant(e) {
		t.Fatalf("did not fold to a constant: %T", e)
	}
	if got := ConstValueOf(e).GetFloat(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("folded to %v, want %v", got, want)
	}
}

// runExpr compiles a bare expression and executes it.
func runExpr(t *testing.T, table *types.ClassTable, e Expression) vm.Param {
	t.Helper()
	f, diag, err := CompileExpression(table, e, DialectStrict)
	if err != nil {
		t.Fatalf("compile: %v (%v)", err, diag.Messages)
	}
	res, err := vm.Exec(f, nil)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("got %d results, want 1", len(res))
	}
	return res[0]
}

// opaque is a builder for expressions whose leaves live in locals, keeping
// the folder out of the picture so the emitted code paths run.
type opaque struct {
	decls []Expression
}

func (o *opaque) intVar(v int32) Expression {
	name := fmt.Sprintf("i%d", len(o.decls))
	o.decls = append(o.decls, NewLocalVariableDeclaration(testPos, name, types.TypeInt, NewIntConstant(testPos, v)))
	return NewIdentifier(testPos, name)
}

func (o *opaque) floatVar(v float64) Expression {
	name := fmt.Sprintf("f%d", len(o.decls))
	o.decls = append(o.decls, NewLocalVariableDeclaration(testPos, name, types.TypeFloat, NewFloatConstant(testPos, v)))
	return NewIdentifier(testPos, name)
}

func (o *opaque) run(t *testing.T, table *types.ClassTable, e Expression) vm.Param {
	t.Helper()
	stmts := append(append([]Expression{}, o.decls...), NewReturnStatement(testPos, e))
	body := NewCompoundStatement(testPos, stmts...)
	fn := &types.Function{Name: types.NewName("test"), Flags: types.FlagStatic}
	f, diag, err := CompileFunction(table, nil, fn, nil, body, DialectStrict)
	if err != nil {
		t.Fatalf("compile: %v (%v)", err, diag.Messages)
	}
	res, err := vm.Exec(f, nil)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("got %d results, want 1", len(res))
	}
	return res[0]
}

func TestIntArithmetic(t *testing.T) {
	cases := []struct {
		name  string
		build func(l, r Expression) Expression
		l, r  int32
		want  int32
	}{
		{"add", func(l, r Expression) Expression { return NewAddSub(testPos, BinAdd, l, r) }, 7, 5, 12},
		{"sub", func(l, r Expression) Expression { return NewAddSub(testPos, BinSub, l, r) }, 7, 5, 2},
		{"mul", func(l, r Expression) Expression { return NewMulDiv(testPos, BinMul, l, r) }, -6, 7, -42},
		{"div", func(l, r Expression) Expression { return NewMulDiv(testPos, BinDiv, l, r) }, 7, 2, 3},
		{"div_trunc", func(l, r Expression) Expression { return NewMulDiv(testPos, BinDiv, l, r) }, -7, 2, -3},
		{"mod", func(l, r Expression) Expression { return NewMulDiv(testPos, BinMod, l, r) }, 7, 3, 1},
		{"mod_neg", func(l, r Expression) Expression { return NewMulDiv(testPos, BinMod, l, r) }, -7, 3, -1},
		{"and", func(l, r Expression) Expression { return NewBinaryInt(testPos, BinAnd, l, r) }, 12, 10, 8},
		{"or", func(l, r Expression) Expression { return NewBinaryInt(testPos, BinOr, l, r) }, 12, 10, 14},
		{"xor", func(l, r Expression) Expression { return NewBinaryInt(testPos, BinXor, l, r) }, 12, 10, 6},
		{"shl", func(l, r Expression) Expression { return NewBinaryInt(testPos, BinShl, l, r) }, 1, 4, 16},
		{"shl_wrap", func(l, r Expression) Expression { return NewBinaryInt(testPos, BinShl, l, r) }, 1, 33, 2},
		{"shr_arith", func(l, r Expression) Expression { return NewBinaryInt(testPos, BinShr, l, r) }, -8, 1, -4},
		{"ushr", func(l, r Expression) Expression { return NewBinaryInt(testPos, BinUShr, l, r) }, -1, 28, 15},
	}
	table := types.NewClassTable()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			folded := resolveIn(t, table,
				tc.build(NewIntConstant(testPos, tc.l), NewIntConstant(testPos, tc.r)))
			wantIntConst(t, folded, tc.want)

			var o opaque
			got := o.run(t, table, tc.build(o.intVar(tc.l), o.intVar(tc.r)))
			if got.I != tc.want {
				t.Fatalf("runtime result %d, want %d", got.I, tc.want)
			}

			// Konst-on-one-side emission takes the RK/KR paths.
			var ok opaque
			got = ok.run(t, table, tc.build(ok.intVar(tc.l), NewIntConstant(testPos, tc.r)))
			if got.I != tc.want {
				t.Fatalf("RK result %d, want %d", got.I, tc.want)
			}
			var ko opaque
			got = ko.run(t, table, tc.build(NewIntConstant(testPos, tc.l), ko.intVar(tc.r)))
			if got.I != tc.want {
				t.Fatalf("KR result %d, want %d", got.I, tc.want)
			}
		})
	}
}

func TestFloatArithmetic(t *testing.T) {
	cases := []struct {
		name  string
		build func(l, r Expression) Expression
		l, r  float64
		want  float64
	}{
		{"add", func(l, r Expression) Expression { return NewAddSub(testPos, BinAdd, l, r) }, 1.5, 2.25, 3.75},
		{"sub", func(l, r Expression) Expression { return NewAddSub(testPos, BinSub, l, r) }, 1.5, 2.25, -0.75},
		{"mul", func(l, r Expression) Expression { return NewMulDiv(testPos, BinMul, l, r) }, 1.5, 4, 6},
		{"div", func(l, r Expression) Expression { return NewMulDiv(testPos, BinDiv, l, r) }, 7, 2, 3.5},
		{"mod_divisor_sign", func(l, r Expression) Expression { return NewMulDiv(testPos, BinMod, l, r) }, -5.5, 2, 0.5},
		{"pow", func(l, r Expression) Expression { return NewPow(testPos, l, r) }, 2, 10, 1024},
	}
	table := types.NewClassTable()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			folded := resolveIn(t, table,
				tc.build(NewFloatConstant(testPos, tc.l), NewFloatConstant(testPos, tc.r)))
			wantFloatConst(t, folded, tc.want)

			var o opaque
			got := o.run(t, table, tc.build(o.floatVar(tc.l), o.floatVar(tc.r)))
			if math.Abs(got.F-tc.want) > 1e-12 {
				t.Fatalf("runtime result %v, want %v", got.F, tc.want)
			}
		})
	}
}

func TestMixedPromotion(t *testing.T) {
	table := types.NewClassTable()

	// int + float folds in float.
	folded := resolveIn(t, table, NewAddSub(testPos, BinAdd,
		NewIntConstant(testPos, 1), NewFloatConstant(testPos, 0.5)))
	wantFloatConst(t, folded, 1.5)
	if folded.Type() != types.TypeFloat {
		t.Fatalf("promoted type = %s, want float", folded.Type())
	}

	// bool promotes to int.
	folded = resolveIn(t, table, NewAddSub(testPos, BinAdd,
		NewBoolConstant(testPos, true), NewIntConstant(testPos, 2)))
	wantIntConst(t, folded, 3)

	// The same promotion happens at run time.
	var o opaque
	got := o.run(t, table, NewAddSub(testPos, BinAdd, o.intVar(1), o.floatVar(0.5)))
	if got.RegType != types.RegFloat || got.F != 1.5 {
		t.Fatalf("runtime mixed add = %+v", got)
	}
}

func TestDivisionByConstantZero(t *testing.T) {
	table := types.NewClassTable()
	ctx := NewContext(table, nil, nil, DialectStrict)
	_, err := NewMulDiv(testPos, BinDiv,
		NewIntConstant(testPos, 1), NewIntConstant(testPos, 0)).Resolve(ctx)
	if err == nil {
		t.Fatal("constant division by zero resolved")
	}

	// A non-constant zero divisor is only caught at run time.
	var o opaque
	div := NewMulDiv(testPos, BinDiv, NewIntConstant(testPos, 1), o.intVar(0))
	stmts := append(append([]Expression{}, o.decls...), NewReturnStatement(testPos, div))
	fn := &types.Function{Name: types.NewName("test"), Flags: types.FlagStatic}
	f, _, err := CompileFunction(table, nil, fn, nil, NewCompoundStatement(testPos, stmts...), DialectStrict)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := vm.Exec(f, nil); err == nil {
		t.Fatal("runtime division by zero succeeded")
	}
}

func TestUnaryOps(t *testing.T) {
	table := types.NewClassTable()

	wantIntConst(t, resolveIn(t, table, NewMinusSign(testPos, NewIntConstant(testPos, 5))), -5)
	wantFloatConst(t, resolveIn(t, table, NewMinusSign(testPos, NewFloatConstant(testPos, 2.5))), -2.5)
	wantIntConst(t, resolveIn(t, table, NewBitNot(testPos, NewIntConstant(testPos, 0))), -1)
	wantIntConst(t, resolveIn(t, table, NewBoolNot(testPos, NewIntConstant(testPos, 7))), 0)
	wantIntConst(t, resolveIn(t, table, NewBoolNot(testPos, NewIntConstant(testPos, 0))), 1)

	// +x vanishes entirely.
	x := NewIntConstant(testPos, 3)
	if got := resolveIn(t, table, NewPlusSign(testPos, x)); got != x {
		t.Fatalf("unary plus did not vanish: %T", got)
	}

	var o opaque
	if got := o.run(t, table, NewMinusSign(testPos, o.intVar(5))); got.I != -5 {
		t.Fatalf("-5 = %d", got.I)
	}
	o = opaque{}
	if got := o.run(t, table, NewBitNot(testPos, o.intVar(12))); got.I != ^int32(12) {
		t.Fatalf("~12 = %d", got.I)
	}
	o = opaque{}
	if got := o.run(t, table, NewBoolNot(testPos, o.intVar(12))); got.I != 0 {
		t.Fatalf("!12 = %d", got.I)
	}
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		name string
		op   BinOp
		l, r int32
		want int32
	}{
		{"lt_true", BinLT, 1, 2, 1},
		{"lt_false", BinLT, 2, 2, 0},
		{"le_true", BinLE, 2, 2, 1},
		{"gt_true", BinGT, 3, 2, 1},
		{"gt_false", BinGT, 2, 3, 0},
		{"ge_true", BinGE, 3, 3, 1},
		{"eq_true", BinEQ, 4, 4, 1},
		{"eq_false", BinEQ, 4, 5, 0},
		{"ne_true", BinNE, 4, 5, 1},
		{"ne_false", BinNE, 4, 4, 0},
	}
	table := types.NewClassTable()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			build := func(l, r Expression) Expression {
				if tc.op == BinEQ || tc.op == BinNE {
					return NewCompareEq(testPos, tc.op, l, r)
				}
				return NewCompareRel(testPos, tc.op, l, r)
			}
			folded := resolveIn(t, table,
				build(NewIntConstant(testPos, tc.l), NewIntConstant(testPos, tc.r)))
			wantIntConst(t, folded, tc.want)
			if folded.Type() != types.TypeBool {
				t.Fatalf("comparison type = %s", folded.Type())
			}

			var o opaque
			if got := o.run(t, table, build(o.intVar(tc.l), o.intVar(tc.r))); got.I != tc.want {
				t.Fatalf("runtime %d, want %d", got.I, tc.want)
			}
			var ok opaque
			if got := ok.run(t, table, build(ok.intVar(tc.l), NewIntConstant(testPos, tc.r))); got.I != tc.want {
				t.Fatalf("RK %d, want %d", got.I, tc.want)
			}
		})
	}
}

func TestApproxEquality(t *testing.T) {
	table := types.NewClassTable()

	tiny := 1.0 / (1 << 20)
	folded := resolveIn(t, table, NewCompareEq(testPos, BinAPX,
		NewFloatConstant(testPos, 1), NewFloatConstant(testPos, 1+tiny)))
	wantIntConst(t, folded, 1)
	folded = resolveIn(t, table, NewCompareEq(testPos, BinAPX,
		NewFloatConstant(testPos, 1), NewFloatConstant(testPos, 1.001)))
	wantIntConst(t, folded, 0)

	var o opaque
	if got := o.run(t, table, NewCompareEq(testPos, BinAPX, o.floatVar(1), o.floatVar(1+tiny))); got.I != 1 {
		t.Fatal("approx equality missed a near value at run time")
	}
	o = opaque{}
	if got := o.run(t, table, NewCompareEq(testPos, BinEQ, o.floatVar(1), o.floatVar(1+tiny))); got.I != 0 {
		t.Fatal("exact equality matched a near value at run time")
	}
}

func TestLtGtEq(t *testing.T) {
	cases := []struct {
		l, r int32
		want int32
	}{
		{1, 2, -1},
		{2, 2, 0},
		{3, 2, 1},
	}
	table := types.NewClassTable()
	for _, tc := range cases {
		folded := resolveIn(t, table, NewLtGtEq(testPos,
			NewIntConstant(testPos, tc.l), NewIntConstant(testPos, tc.r)))
		wantIntConst(t, folded, tc.want)

		var o opaque
		if got := o.run(t, table, NewLtGtEq(testPos, o.intVar(tc.l), o.intVar(tc.r))); got.I != tc.want {
			t.Fatalf("%d <>= %d: got %d, want %d", tc.l, tc.r, got.I, tc.want)
		}
	}
}

func TestShortCircuit(t *testing.T) {
	table := types.NewClassTable()

	// Constant left sides decide the whole expression.
	wantIntConst(t, resolveIn(t, table, NewBinaryLogical(testPos, true,
		NewBoolConstant(testPos, false), NewIntConstant(testPos, 1))), 0)
	wantIntConst(t, resolveIn(t, table, NewBinaryLogical(testPos, false,
		NewBoolConstant(testPos, true), NewIntConstant(testPos, 0))), 1)

	// Run time: the right side must not execute when the left decides.
	// a && (b = 9) leaves b untouched for a == 0.
	var o opaque
	a := o.intVar(0)
	bRef := o.intVar(5)
	assign := NewAssign(testPos, NewIdentifier(testPos, "i1"), NewIntConstant(testPos, 9))
	and := NewBinaryLogical(testPos, true, a, assign)
	sum := NewAddSub(testPos, BinAdd,
		NewMulDiv(testPos, BinMul, and, NewIntConstant(testPos, 100)), bRef)
	if got := o.run(t, table, sum); got.I != 5 {
		t.Fatalf("short-circuit && evaluated its right side: %d", got.I)
	}

	// With a true left side the assignment runs.
	o = opaque{}
	a = o.intVar(1)
	bRef = o.intVar(5)
	assign = NewAssign(testPos, NewIdentifier(testPos, "i1"), NewIntConstant(testPos, 9))
	and = NewBinaryLogical(testPos, true, a, assign)
	sum = NewAddSub(testPos, BinAdd,
		NewMulDiv(testPos, BinMul, and, NewIntConstant(testPos, 100)), bRef)
	if got := o.run(t, table, sum); got.I != 109 {
		t.Fatalf("&& result = %d, want 109", got.I)
	}

	// Same for ||.
	o = opaque{}
	a = o.intVar(1)
	bRef = o.intVar(5)
	assign = NewAssign(testPos, NewIdentifier(testPos, "i1"), NewIntConstant(testPos, 9))
	or := NewBinaryLogical(testPos, false, a, assign)
	sum = NewAddSub(testPos, BinAdd,
		NewMulDiv(testPos, BinMul, or, NewIntConstant(testPos, 100)), bRef)
	if got := o.run(t, table, sum); got.I != 105 {
		t.Fatalf("short-circuit || evaluated its right side: %d", got.I)
	}
}

func TestConditional(t *testing.T) {
	table := types.NewClassTable()

	// A constant condition selects its branch at resolve time.
	wantIntConst(t, resolveIn(t, table, NewConditional(testPos,
		NewBoolConstant(testPos, true),
		NewIntConstant(testPos, 1), NewIntConstant(testPos, 2))), 1)
	wantIntConst(t, resolveIn(t, table, NewConditional(testPos,
		NewBoolConstant(testPos, false),
		NewIntConstant(testPos, 1), NewIntConstant(testPos, 2))), 2)

	// Branches unify to float when either side is float.
	r := resolveIn(t, table, NewConditional(testPos,
		NewBoolConstant(testPos, true),
		NewIntConstant(testPos, 1), NewFloatConstant(testPos, 2.5)))
	if r.Type() != types.TypeFloat {
		t.Fatalf("conditional type = %s, want float", r.Type())
	}

	var o opaque
	cond := NewConditional(testPos, NewCompareRel(testPos, BinLT, o.intVar(1), o.intVar(2)),
		o.intVar(10), o.intVar(20))
	if got := o.run(t, table, cond); got.I != 10 {
		t.Fatalf("true branch: %d", got.I)
	}
	o = opaque{}
	cond = NewConditional(testPos, NewCompareRel(testPos, BinLT, o.intVar(2), o.intVar(1)),
		o.intVar(10), o.intVar(20))
	if got := o.run(t, table, cond); got.I != 20 {
		t.Fatalf("false branch: %d", got.I)
	}
}

func TestMinMax(t *testing.T) {
	table := types.NewClassTable()

	wantIntConst(t, resolveIn(t, table, NewMinMax(testPos, true, []Expression{
		NewIntConstant(testPos, 3), NewIntConstant(testPos, 7), NewIntConstant(testPos, 5),
	})), 7)
	wantIntConst(t, resolveIn(t, table, NewMinMax(testPos, false, []Expression{
		NewIntConstant(testPos, 3), NewIntConstant(testPos, 7), NewIntConstant(testPos, 5),
	})), 3)
	// Any float argument promotes the result.
	wantFloatConst(t, resolveIn(t, table, NewMinMax(testPos, true, []Expression{
		NewIntConstant(testPos, 3), NewFloatConstant(testPos, 3.5),
	})), 3.5)

	var o opaque
	got := o.run(t, table, NewMinMax(testPos, true, []Expression{
		o.intVar(3), o.intVar(7), o.intVar(5),
	}))
	if got.I != 7 {
		t.Fatalf("max = %d, want 7", got.I)
	}
	o = opaque{}
	got = o.run(t, table, NewMinMax(testPos, false, []Expression{
		o.intVar(3), NewIntConstant(testPos, 7), o.intVar(5),
	}))
	if got.I != 3 {
		t.Fatalf("min = %d, want 3", got.I)
	}
}

func TestFlopIntrinsics(t *testing.T) {
	table := types.NewClassTable()

	// Trig works in degrees.
	wantFloatConst(t, resolveIn(t, table,
		NewFlopCall(testPos, vm.FLOP_SIN_DEG, NewFloatConstant(testPos, 90))), 1)
	wantFloatConst(t, resolveIn(t, table,
		NewFlopCall(testPos, vm.FLOP_SQRT, NewFloatConstant(testPos, 9))), 3)
	wantFloatConst(t, resolveIn(t, table,
		NewATan2Call(testPos, NewFloatConstant(testPos, 1), NewFloatConstant(testPos, 1))), 45)

	wantIntConst(t, resolveIn(t, table,
		NewAbsCall(testPos, NewIntConstant(testPos, -4))), 4)
	wantFloatConst(t, resolveIn(t, table,
		NewAbsCall(testPos, NewFloatConstant(testPos, -4.5))), 4.5)

	var o opaque
	got := o.run(t, table, NewFlopCall(testPos, vm.FLOP_COS_DEG, o.floatVar(0)))
	if math.Abs(got.F-1) > 1e-12 {
		t.Fatalf("cos(0) = %v", got.F)
	}
	o = opaque{}
	got = o.run(t, table, NewAbsCall(testPos, o.intVar(-9)))
	if got.I != 9 {
		t.Fatalf("abs(-9) = %d", got.I)
	}
	o = opaque{}
	got = o.run(t, table, NewATan2Call(testPos, o.floatVar(1), o.floatVar(1)))
	if math.Abs(got.F-45) > 1e-9 {
		t.Fatalf("atan2(1, 1) = %v", got.F)
	}
}

func TestRandomIntrinsics(t *testing.T) {
	table := types.NewClassTable()

	stubRandom.next = 6
	var o opaque
	got := o.run(t, table, NewRandomCall(testPos, false,
		o.intVar(1), o.intVar(10)))
	if got.I != 6 {
		t.Fatalf("random(1, 10) = %d", got.I)
	}

	stubRandom.fnext = 0.25
	o = opaque{}
	got = o.run(t, table, NewRandomCall(testPos, true,
		o.floatVar(2), o.floatVar(3)))
	if got.F != 2.25 {
		t.Fatalf("frandom(2, 3) = %v", got.F)
	}

	stubRandom.next = 0xf0
	o = opaque{}
	got = o.run(t, table, NewRandom2Call(testPos, o.intVar(0xff)))
	if got.I != 0xf0 {
		t.Fatalf("random2(255) = %d", got.I)
	}
}

func TestRandomNamedGenerator(t *testing.T) {
	table := types.NewClassTable()

	stubRandom.next = 3
	stubRandom.rng = types.NameNone
	var o opaque
	call := NewRandomCall(testPos, false, o.intVar(1), o.intVar(10))
	call.Rng = types.NewName("sfx")
	got := o.run(t, table, call)
	if got.I != 3 {
		t.Fatalf("random[sfx](1, 10) = %d", got.I)
	}
	if stubRandom.rng != types.NewName("sfx") {
		t.Fatalf("generator name %q reached the native", stubRandom.rng)
	}

	// Unbound calls pass the empty name.
	o = opaque{}
	o.run(t, table, NewRandomCall(testPos, false, o.intVar(1), o.intVar(10)))
	if stubRandom.rng != types.NameNone {
		t.Fatalf("default call bound to %q", stubRandom.rng)
	}
}

func TestRngBindingRejectedElsewhere(t *testing.T) {
	table := types.NewClassTable()
	ctx := NewContext(table, nil, nil, DialectStrict)
	call := NewFunctionCall(testPos, "abs", []Expression{NewIntConstant(testPos, -1)})
	call.Rng = types.NewName("sfx")
	if _, err := call.Resolve(ctx); err == nil {
		t.Fatal("rng binding on abs resolved")
	}
}

func TestRandomPick(t *testing.T) {
	table := types.NewClassTable()

	for idx, want := range []int32{10, 20, 30} {
		stubRandom.next = int32(idx)
		var o opaque
		got := o.run(t, table, NewRandomPick(testPos, false, []Expression{
			o.intVar(10), o.intVar(20), o.intVar(30),
		}))
		if got.I != want {
			t.Fatalf("pick[%d] = %d, want %d", idx, got.I, want)
		}
	}
}

func TestClamp(t *testing.T) {
	table := types.NewClassTable()

	wantIntConst(t, resolveIn(t, table, NewFunctionCall(testPos, "clamp", []Expression{
		NewIntConstant(testPos, 15), NewIntConstant(testPos, 0), NewIntConstant(testPos, 10),
	})), 10)
	wantIntConst(t, resolveIn(t, table, NewFunctionCall(testPos, "clamp", []Expression{
		NewIntConstant(testPos, -4), NewIntConstant(testPos, 0), NewIntConstant(testPos, 10),
	})), 0)
	// Any float argument promotes the result.
	wantFloatConst(t, resolveIn(t, table, NewFunctionCall(testPos, "clamp", []Expression{
		NewFloatConstant(testPos, 2.5), NewIntConstant(testPos, 0), NewIntConstant(testPos, 10),
	})), 2.5)

	var o opaque
	got := o.run(t, table, NewFunctionCall(testPos, "clamp", []Expression{
		o.intVar(7), o.intVar(0), o.intVar(3),
	}))
	if got.I != 3 {
		t.Fatalf("clamp(7, 0, 3) = %d, want 3", got.I)
	}

	ctx := NewContext(table, nil, nil, DialectStrict)
	if _, err := NewFunctionCall(testPos, "clamp", []Expression{
		NewIntConstant(testPos, 1), NewIntConstant(testPos, 2),
	}).Resolve(ctx); err == nil {
		t.Fatal("two-argument clamp resolved")
	}
}

func TestIntCastTruncationWarns(t *testing.T) {
	table := types.NewClassTable()

	// The fold carries the warning the runtime path would raise.
	ctx := NewContext(table, nil, nil, DialectStrict)
	r, err := NewIntCast(NewFloatConstant(testPos, 3.9), false, false).Resolve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantIntConst(t, r, 3)
	if len(ctx.Diag.Warnings()) == 0 {
		t.Fatal("constant truncation raised no warning")
	}

	// A whole-valued constant converts silently.
	ctx = NewContext(table, nil, nil, DialectStrict)
	if _, err := NewIntCast(NewFloatConstant(testPos, 4), false, false).Resolve(ctx); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Diag.Warnings()) != 0 {
		t.Fatalf("exact conversion warned: %v", ctx.Diag.Warnings())
	}

	// Explicit casts warn the same way.
	ctx = NewContext(table, nil, nil, DialectStrict)
	if _, err := NewTypeCast(NewFloatConstant(testPos, 2.5), types.TypeInt).Resolve(ctx); err != nil {
		t.Fatal(err)
	}
	if len(ctx.Diag.Warnings()) == 0 {
		t.Fatal("explicit truncating cast raised no warning")
	}
}
