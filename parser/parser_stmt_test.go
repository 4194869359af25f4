package parser

import (
	"testing"

	"zsc/codegen"
	"zsc/types"
	"zsc/vm"
)

// runProgram parses a statement sequence, compiles it as a static
// function, and executes it.
func runProgram(t *testing.T, src string) []vm.Param {
	t.Helper()
	body, err := ParseProgramString("test", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fn := &types.Function{Name: types.NewName("test"), Flags: types.FlagStatic}
	f, diag, err := codegen.CompileFunction(types.NewClassTable(), nil, fn, nil, body, codegen.DialectStrict)
	if err != nil {
		t.Fatalf("compile: %v (%v)", err, diag.Messages)
	}
	res, err := vm.Exec(f, nil)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	return res
}

func runProgramInt(t *testing.T, src string) int32 {
	t.Helper()
	res := runProgram(t, src)
	if len(res) != 1 || res[0].RegType != types.RegInt {
		t.Fatalf("unexpected results %v", res)
	}
	return res[0].I
}

func TestProgramWhile(t *testing.T) {
	src := `
		int total = 0;
		int i = 0;
		while (i < 10) {
			total += i;
			i++;
		}
		return total;
	`
	if got := runProgramInt(t, src); got != 45 {
		t.Fatalf("sum = %d, want 45", got)
	}
}

func TestProgramForContinue(t *testing.T) {
	src := `
		int total = 0;
		for (int i = 0; i < 10; i++) {
			if (i & 1)
				continue;
			total += i;
		}
		return total;
	`
	if got := runProgramInt(t, src); got != 20 {
		t.Fatalf("even sum = %d, want 20", got)
	}
}

func TestProgramDoWhile(t *testing.T) {
	src := `
		int i = 0;
		do
			i++;
		while (false);
		return i;
	`
	if got := runProgramInt(t, src); got != 1 {
		t.Fatalf("i = %d, want 1", got)
	}
}

func TestProgramBreak(t *testing.T) {
	src := `
		int i = 0;
		while (true) {
			if (i >= 3)
				break;
			i++;
		}
		return i;
	`
	if got := runProgramInt(t, src); got != 3 {
		t.Fatalf("i = %d, want 3", got)
	}
}

func TestProgramIfElse(t *testing.T) {
	src := `
		int x = 7;
		if (x > 10)
			return 1;
		else if (x > 5)
			return 2;
		else
			return 3;
	`
	if got := runProgramInt(t, src); got != 2 {
		t.Fatalf("branch = %d, want 2", got)
	}
}

func TestProgramCompoundAssign(t *testing.T) {
	src := `
		int x = 6;
		x *= 7;
		x -= 2;
		x >>= 2;
		return x;
	`
	if got := runProgramInt(t, src); got != 10 {
		t.Fatalf("x = %d, want 10", got)
	}
}

func TestProgramIncrDecr(t *testing.T) {
	src := `
		int a = 5;
		int b = a++;
		int c = ++a;
		int d = a--;
		return a * 1000 + b * 100 + c * 10 + d;
	`
	// a ends at 6; b sees the old 5, c the incremented 7, d the 7
	// before the decrement.
	if got := runProgramInt(t, src); got != 6577 {
		t.Fatalf("got %d, want 6577", got)
	}
}

func TestProgramFloatLocals(t *testing.T) {
	src := `
		float f = 1.5;
		f *= 4;
		f += 0.25;
		return f;
	`
	res := runProgram(t, src)
	if len(res) != 1 || res[0].RegType != types.RegFloat || res[0].F != 6.25 {
		t.Fatalf("got %v, want 6.25", res)
	}
}

func TestProgramNestedScopes(t *testing.T) {
	src := `
		int x = 1;
		{
			int x = 2;
			x++;
		}
		return x;
	`
	if got := runProgramInt(t, src); got != 1 {
		t.Fatalf("outer x = %d, want 1", got)
	}
}

func TestProgramVoidReturn(t *testing.T) {
	src := `
		int x = 1;
		x++;
		return;
	`
	if res := runProgram(t, src); len(res) != 0 {
		t.Fatalf("void return produced %v", res)
	}
}

func TestProgramFoldedBranchInLoop(t *testing.T) {
	src := `
		int i = 0;
		while (i < 3) {
			if (true) {
				i++;
			} else {
				break;
			}
		}
		return i;
	`
	if got := runProgramInt(t, src); got != 3 {
		t.Fatalf("i = %d, want 3", got)
	}
}
