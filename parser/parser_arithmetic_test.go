package parser

import (
	"math"
	"testing"

	"zsc/codegen"
	"zsc/types"
	"zsc/vm"
)

// evalExpr parses and compiles an expression, then runs it.
func evalExpr(t *testing.T, src string) vm.Param {
	t.Helper()
	e, err := ParseExpressionString("test", src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	f, diag, err := codegen.CompileExpression(types.NewClassTable(), e, codegen.DialectStrict)
	if err != nil {
		t.Fatalf("compile %q: %v (%v)", src, err, diag.Messages)
	}
	res, err := vm.Exec(f, nil)
	if err != nil {
		t.Fatalf("exec %q: %v", src, err)
	}
	if len(res) != 1 {
		t.Fatalf("%q: %d results", src, len(res))
	}
	return res[0]
}

func evalInt(t *testing.T, src string) int32 {
	t.Helper()
	p := evalExpr(t, src)
	if p.RegType != types.RegInt {
		t.Fatalf("%q: result class %d, want int", src, p.RegType)
	}
	return p.I
}

func evalFloat(t *testing.T, src string) float64 {
	t.Helper()
	p := evalExpr(t, src)
	if p.RegType != types.RegFloat {
		t.Fatalf("%q: result class %d, want float", src, p.RegType)
	}
	return p.F
}

func TestParseArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want int32
	}{
		{"1 + 2", 3},
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 2 - 3", 5},
		{"7 / 2", 3},
		{"7 % 3", 1},
		{"-3 + 5", 2},
		{"- -4", 4},
		{"0x10 + 1", 17},
		{"1 << 4", 16},
		{"-8 >> 1", -4},
		{"-1 >>> 28", 15},
		{"12 & 10", 8},
		{"12 | 10", 14},
		{"12 ^ 10", 6},
		{"1 | 2 & 3", 3},
		{"~0", -1},
		{"2 + 3 << 1", 10},
	}
	for _, tc := range cases {
		if got := evalInt(t, tc.src); got != tc.want {
			t.Errorf("%q = %d, want %d", tc.src, got, tc.want)
		}
	}
}

func TestParseFloatArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"1.5 + 2.25", 3.75},
		{"7.0 / 2", 3.5},
		{"2 ** 10", 1024},
		{"2 ** 3 ** 2", 512}, // right associative
		{"1 + 0.5", 1.5},
		{".5 * 4", 2},
		{"1.5e2 + 0", 150},
	}
	for _, tc := range cases {
		if got := evalFloat(t, tc.src); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%q = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestParseIntrinsics(t *testing.T) {
	if got := evalInt(t, "abs(-7)"); got != 7 {
		t.Errorf("abs(-7) = %d", got)
	}
	if got := evalInt(t, "max(1, 9, 5)"); got != 9 {
		t.Errorf("max = %d", got)
	}
	if got := evalInt(t, "min(4, 2, 8)"); got != 2 {
		t.Errorf("min = %d", got)
	}
	if got := evalFloat(t, "sqrt(16)"); got != 4 {
		t.Errorf("sqrt(16) = %v", got)
	}
	if got := evalFloat(t, "sin(90)"); math.Abs(got-1) > 1e-12 {
		t.Errorf("sin(90) = %v", got)
	}
	if got := evalFloat(t, "atan2(1, 1)"); math.Abs(got-45) > 1e-9 {
		t.Errorf("atan2(1, 1) = %v", got)
	}
	if got := evalInt(t, "clamp(15, 0, 10)"); got != 10 {
		t.Errorf("clamp(15, 0, 10) = %d", got)
	}
	if got := evalInt(t, "clamp(-4, 0, 10)"); got != 0 {
		t.Errorf("clamp(-4, 0, 10) = %d", got)
	}
	if got := evalInt(t, "clamp(4, 0, 10)"); got != 4 {
		t.Errorf("clamp(4, 0, 10) = %d", got)
	}
	if got := evalFloat(t, "clamp(2.5, 0, 10)"); got != 2.5 {
		t.Errorf("clamp(2.5, 0, 10) = %v", got)
	}
}

func TestParseNamedRandom(t *testing.T) {
	e, err := ParseExpressionString("test", "random[sfx](1, 10)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	call, ok := e.(*codegen.FunctionCall)
	if !ok {
		t.Fatalf("parsed to %T, want FunctionCall", e)
	}
	if call.Rng != types.NewName("sfx") {
		t.Fatalf("generator = %q, want sfx", call.Rng)
	}
	if len(call.Args) != 2 {
		t.Fatalf("%d args", len(call.Args))
	}

	// The binding is case-insensitive on the keyword and requires an
	// identifier inside the brackets.
	if _, err := ParseExpressionString("test", "FRandom[Owl](0, 1)"); err != nil {
		t.Fatalf("FRandom[Owl]: %v", err)
	}
	if _, err := ParseExpressionString("test", "random[3](1, 2)"); err == nil {
		t.Fatal("numeric generator name parsed")
	}
	if _, err := ParseExpressionString("test", "random[sfx] + 1"); err == nil {
		t.Fatal("binding without a call parsed")
	}
}
