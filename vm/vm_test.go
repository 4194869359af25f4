package vm

import (
	"math"
	"strings"
	"testing"

	"zsc/types"
)

func TestRegAllocReusesFreedRegisters(t *testing.T) {
	var ra RegAlloc
	r0 := ra.Get(1)
	r1 := ra.Get(1)
	if r0 != 0 || r1 != 1 {
		t.Fatalf("got %d, %d, want 0, 1", r0, r1)
	}
	ra.Return(r0, 1)
	if r := ra.Get(1); r != 0 {
		t.Fatalf("freed register not reused: got %d", r)
	}
	if ra.MostUsed() != 2 {
		t.Fatalf("MostUsed = %d, want 2", ra.MostUsed())
	}
}

func TestRegAllocBlocks(t *testing.T) {
	var ra RegAlloc
	_ = ra.Get(1)
	blk := ra.Get(3)
	if blk != 1 {
		t.Fatalf("block start = %d, want 1", blk)
	}
	ra.Return(blk, 3)
	// A 2-wide hole then a single allocation should pack low.
	two := ra.Get(2)
	one := ra.Get(1)
	if two != 1 || one != 3 {
		t.Fatalf("got %d, %d, want 1, 3", two, one)
	}
}

func TestRegAllocDoubleFreePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("double free did not panic")
		}
	}()
	var ra RegAlloc
	r := ra.Get(1)
	ra.Return(r, 1)
	ra.Return(r, 1)
}

func TestRegAllocReuse(t *testing.T) {
	var ra RegAlloc
	r := ra.Get(1)
	ra.Return(r, 1)
	if !ra.Reuse(r) {
		t.Fatal("Reuse of freed register failed")
	}
	if ra.Reuse(r) {
		t.Fatal("Reuse of live register succeeded")
	}
}

func TestBuilderConstantPoolsDeduplicate(t *testing.T) {
	b := NewBuilder()
	if i, j := b.GetConstantInt(7), b.GetConstantInt(7); i != j {
		t.Errorf("int pool duplicated: %d vs %d", i, j)
	}
	if i, j := b.GetConstantFloat(1.5), b.GetConstantFloat(1.5); i != j {
		t.Errorf("float pool duplicated: %d vs %d", i, j)
	}
	if i, j := b.GetConstantString("x"), b.GetConstantString("x"); i != j {
		t.Errorf("string pool duplicated: %d vs %d", i, j)
	}
	obj := NewObject(nil)
	if i, j := b.GetConstantAddress(obj, ATAG_OBJECT), b.GetConstantAddress(obj, ATAG_OBJECT); i != j {
		t.Errorf("address pool duplicated: %d vs %d", i, j)
	}
	// Same pointer under a different tag is a distinct entry.
	if i, j := b.GetConstantAddress(obj, ATAG_OBJECT), b.GetConstantAddress(obj, ATAG_GENERIC); i == j {
		t.Errorf("address pool merged across tags: %d", i)
	}
}

func TestBuilderFinishRejectsUnpatchedJumps(t *testing.T) {
	b := NewBuilder()
	b.Emit(OP_JMP, 0, 0, 0)
	if _, err := b.Finish(types.NewName("broken"), 0); err == nil {
		t.Fatal("Finish accepted an unpatched jump")
	}

	b = NewBuilder()
	loc := b.Emit(OP_JMP, 0, 0, 0)
	b.Emit(OP_RETI, RET_FINAL, 0, 0)
	b.BackpatchToHere(loc)
	b.Emit(OP_RETI, RET_FINAL, 1, 0)
	f, err := b.Finish(types.NewName("patched"), 0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if f.Code[loc].A != 1 {
		t.Fatalf("patched offset = %d, want 1", f.Code[loc].A)
	}
}

// Variant selection arithmetic depends on this exact opcode layout.
func TestOpcodeVariantLayout(t *testing.T) {
	triples := []struct {
		name   string
		rr, rk OpCode
		kr     OpCode
	}{
		{"sub", OP_SUB_RR, OP_SUB_RK, OP_SUB_KR},
		{"div", OP_DIV_RR, OP_DIV_RK, OP_DIV_KR},
		{"mod", OP_MOD_RR, OP_MOD_RK, OP_MOD_KR},
		{"subf", OP_SUBF_RR, OP_SUBF_RK, OP_SUBF_KR},
		{"divf", OP_DIVF_RR, OP_DIVF_RK, OP_DIVF_KR},
		{"modf", OP_MODF_RR, OP_MODF_RK, OP_MODF_KR},
		{"powf", OP_POWF_RR, OP_POWF_RK, OP_POWF_KR},
		{"lt", OP_LT_RR, OP_LT_RK, OP_LT_KR},
		{"ltf", OP_LTF_RR, OP_LTF_RK, OP_LTF_KR},
		{"le", OP_LE_RR, OP_LE_RK, OP_LE_KR},
		{"lef", OP_LEF_RR, OP_LEF_RK, OP_LEF_KR},
	}
	for _, tr := range triples {
		if tr.rk != tr.rr+1 || tr.kr != tr.rr+2 {
			t.Errorf("%s: rk=%d kr=%d, want %d and %d", tr.name, tr.rk, tr.kr, tr.rr+1, tr.rr+2)
		}
	}
	pairs := []struct {
		name   string
		rr, rk OpCode
	}{
		{"add", OP_ADD_RR, OP_ADD_RK},
		{"mul", OP_MUL_RR, OP_MUL_RK},
		{"addf", OP_ADDF_RR, OP_ADDF_RK},
		{"mulf", OP_MULF_RR, OP_MULF_RK},
		{"and", OP_AND_RR, OP_AND_RK},
		{"or", OP_OR_RR, OP_OR_RK},
		{"xor", OP_XOR_RR, OP_XOR_RK},
	}
	for _, p := range pairs {
		if p.rk != p.rr+1 {
			t.Errorf("%s: rk=%d, want %d", p.name, p.rk, p.rr+1)
		}
	}
	loads := []struct {
		name string
		k, r OpCode
	}{
		{"lw", OP_LW, OP_LW_R},
		{"lf", OP_LF, OP_LF_R},
		{"ls", OP_LS, OP_LS_R},
		{"lp", OP_LP, OP_LP_R},
		{"lo", OP_LO, OP_LO_R},
		{"sw", OP_SW, OP_SW_R},
		{"sf", OP_SF, OP_SF_R},
		{"ss", OP_SS, OP_SS_R},
		{"sp", OP_SP, OP_SP_R},
	}
	for _, l := range loads {
		if l.r != l.k+1 {
			t.Errorf("%s: register variant %d, want %d", l.name, l.r, l.k+1)
		}
	}
}

func runInt(t *testing.T, f *Function, args ...Param) int32 {
	t.Helper()
	res, err := Exec(f, args)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(res) != 1 || res[0].RegType != types.RegInt {
		t.Fatalf("result = %+v, want one int", res)
	}
	return res[0].I
}

func TestExecArithmeticAndJumps(t *testing.T) {
	// sum(n): total = 0; i = 1; while (i <= n) { total += i; i++ }; return total
	b := NewBuilder()
	n := b.Registers[types.RegInt].Get(1)
	total := b.Registers[types.RegInt].Get(1)
	i := b.Registers[types.RegInt].Get(1)
	b.Emit(OP_LI, total, 0, 0)
	b.Emit(OP_LI, i, 1, 0)
	top := b.Position()
	b.Emit(OP_LE_RR, 0, i, n) // when i > n, take the jump out
	exit := b.Emit(OP_JMP, 0, 0, 0)
	b.Emit(OP_ADD_RR, total, total, i)
	b.Emit(OP_ADD_RK, i, i, b.GetConstantInt(1))
	back := b.Emit(OP_JMP, 0, 0, 0)
	b.Backpatch(back, top)
	b.BackpatchToHere(exit)
	b.Emit(OP_RET, RET_FINAL, int(types.RegInt), total)
	f, err := b.Finish(types.NewName("sum"), 1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	for _, tc := range []struct{ n, want int32 }{{0, 0}, {1, 1}, {10, 55}, {100, 5050}} {
		if got := runInt(t, f, IntParam(tc.n)); got != tc.want {
			t.Errorf("sum(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestExecNativeCall(t *testing.T) {
	double := &NativeFunction{
		Name: types.NewName("double"),
		Call: func(args []Param) ([]Param, error) {
			return []Param{IntParam(args[0].I * 2)}, nil
		},
	}
	b := NewBuilder()
	arg := b.Registers[types.RegInt].Get(1)
	b.Emit(OP_PARAM, 0, int(types.RegInt), arg)
	b.Emit(OP_CALL_K, b.GetConstantAddress(double, ATAG_FUNCTION), 1, 1)
	out := b.Registers[types.RegInt].Get(1)
	b.Emit(OP_RESULT, 0, int(types.RegInt), out)
	b.Emit(OP_RET, RET_FINAL, int(types.RegInt), out)
	f, err := b.Finish(types.NewName("callsite"), 1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got := runInt(t, f, IntParam(21)); got != 42 {
		t.Errorf("double(21) = %d, want 42", got)
	}
}

func TestExecTailCall(t *testing.T) {
	add := &NativeFunction{
		Name: types.NewName("add"),
		Call: func(args []Param) ([]Param, error) {
			return []Param{IntParam(args[0].I + args[1].I)}, nil
		},
	}
	b := NewBuilder()
	b.EmitParamInt(40)
	b.EmitParamInt(2)
	b.Emit(OP_TAIL_K, b.GetConstantAddress(add, ATAG_FUNCTION), 2, 0)
	f, err := b.Finish(types.NewName("tail"), 0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got := runInt(t, f); got != 42 {
		t.Errorf("tail call = %d, want 42", got)
	}
}

func TestExecTest(t *testing.T) {
	// Classic dispatch: TEST skips the following jump unless the register
	// matches the operand.
	b := NewBuilder()
	sel := b.Registers[types.RegInt].Get(1)
	b.Emit(OP_TEST, sel, 3, 0)
	taken := b.Emit(OP_JMP, 0, 0, 0)
	b.Emit(OP_RETI, RET_FINAL, 0, 0)
	b.BackpatchToHere(taken)
	b.Emit(OP_RETI, RET_FINAL, 1, 0)
	f, err := b.Finish(types.NewName("test"), 1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got := runInt(t, f, IntParam(3)); got != 1 {
		t.Errorf("match case = %d, want 1", got)
	}
	if got := runInt(t, f, IntParam(4)); got != 0 {
		t.Errorf("mismatch case = %d, want 0", got)
	}
}

func TestExecBound(t *testing.T) {
	b := NewBuilder()
	idx := b.Registers[types.RegInt].Get(1)
	b.Emit(OP_BOUND, idx, 4, 0)
	b.Emit(OP_RETI, RET_FINAL, 0, 0)
	f, err := b.Finish(types.NewName("bound"), 1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if _, err := Exec(f, []Param{IntParam(3)}); err != nil {
		t.Errorf("in-range index failed: %v", err)
	}
	if _, err := Exec(f, []Param{IntParam(4)}); err == nil {
		t.Error("index 4 of 4 passed the bounds check")
	}
	if _, err := Exec(f, []Param{IntParam(-1)}); err == nil {
		t.Error("negative index passed the bounds check")
	}
}

func TestExecDivisionByZero(t *testing.T) {
	b := NewBuilder()
	x := b.Registers[types.RegInt].Get(1)
	y := b.Registers[types.RegInt].Get(1)
	b.Emit(OP_DIV_RR, x, x, y)
	b.Emit(OP_RET, RET_FINAL, int(types.RegInt), x)
	f, err := b.Finish(types.NewName("div"), 2)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got := runInt(t, f, IntParam(7), IntParam(2)); got != 3 {
		t.Errorf("7/2 = %d, want 3", got)
	}
	if _, err := Exec(f, []Param{IntParam(7), IntParam(0)}); err == nil {
		t.Error("division by zero did not error")
	}
}

func TestExecObjectAccess(t *testing.T) {
	obj := NewObject(nil)
	obj.SetInt(8, 123)
	b := NewBuilder()
	self := b.Registers[types.RegPointer].Get(1)
	v := b.Registers[types.RegInt].Get(1)
	b.Emit(OP_LW, v, self, b.GetConstantInt(8))
	b.Emit(OP_ADD_RK, v, v, b.GetConstantInt(1))
	b.Emit(OP_SW, self, v, b.GetConstantInt(8))
	b.Emit(OP_RET, RET_FINAL, int(types.RegInt), v)
	f, err := b.Finish(types.NewName("bump"), 1)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got := runInt(t, f, AddrParam(obj)); got != 124 {
		t.Errorf("bump = %d, want 124", got)
	}
	if obj.GetInt(8) != 124 {
		t.Errorf("stored = %d, want 124", obj.GetInt(8))
	}
	if _, err := Exec(f, []Param{AddrParam(nil)}); err == nil {
		t.Error("null dereference did not error")
	}
}

func TestFlopDegrees(t *testing.T) {
	cases := []struct {
		id   int
		in   float64
		want float64
	}{
		{FLOP_SIN_DEG, 90, 1},
		{FLOP_COS_DEG, 180, -1},
		{FLOP_TAN_DEG, 45, 1},
		{FLOP_ASIN_DEG, 1, 90},
		{FLOP_ACOS_DEG, -1, 180},
		{FLOP_ATAN_DEG, 1, 45},
		{FLOP_SQRT, 9, 3},
		{FLOP_FLOOR, 2.7, 2},
		{FLOP_CEIL, 2.2, 3},
		{FLOP_NEG, 5, -5},
		{FLOP_ABS, -5, 5},
	}
	for _, tc := range cases {
		if got := Flop(tc.id, tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("flop %d(%g) = %g, want %g", tc.id, tc.in, got, tc.want)
		}
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want int32
	}{
		{"ff0000", 0xff0000},
		{"#00ff80", 0x00ff80},
		{"FFFFFF", 0xffffff},
		{"bogus", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseColor(tc.in); got != tc.want {
			t.Errorf("ParseColor(%q) = %#x, want %#x", tc.in, got, tc.want)
		}
	}
}

func TestDisassembleAnnotatesJumps(t *testing.T) {
	b := NewBuilder()
	loc := b.Emit(OP_JMP, 0, 0, 0)
	b.Emit(OP_RETI, RET_FINAL, 0, 0)
	b.BackpatchToHere(loc)
	b.Emit(OP_RETI, RET_FINAL, 1, 0)
	f, err := b.Finish(types.NewName("dis"), 0)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	out := f.Disassemble()
	if !strings.Contains(out, "jmp") || !strings.Contains(out, "-> 2") {
		t.Errorf("disassembly missing jump annotation:\n%s", out)
	}
}
