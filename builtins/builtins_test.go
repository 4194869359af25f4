package builtins

import (
	"testing"

	"zsc/codegen"
	"zsc/types"
	"zsc/vm"
)

func TestRNGDeterministic(t *testing.T) {
	a := NewRNG(12345)
	b := NewRNG(12345)
	for i := 0; i < 100; i++ {
		if got, want := a.Random(0, 255), b.Random(0, 255); got != want {
			t.Fatalf("draw %d: %d vs %d", i, got, want)
		}
	}
}

func TestRNGRandomRange(t *testing.T) {
	r := NewRNG(1)
	for i := 0; i < 1000; i++ {
		v := r.Random(3, 9)
		if v < 3 || v > 9 {
			t.Fatalf("Random(3, 9) = %d", v)
		}
	}
	// A reversed range means the same thing.
	for i := 0; i < 1000; i++ {
		v := r.Random(9, 3)
		if v < 3 || v > 9 {
			t.Fatalf("Random(9, 3) = %d", v)
		}
	}
	if v := r.Random(7, 7); v != 7 {
		t.Fatalf("Random(7, 7) = %d", v)
	}
}

func TestRNGFRandomRange(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 1000; i++ {
		v := r.FRandom(0.5, 2.5)
		if v < 0.5 || v >= 2.5 {
			t.Fatalf("FRandom(0.5, 2.5) = %v", v)
		}
	}
}

func TestRNGRandom2Bounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 1000; i++ {
		v := r.Random2(255)
		if v < -255 || v > 255 {
			t.Fatalf("Random2(255) = %d", v)
		}
	}
	if v := r.Random2(0); v != 0 {
		t.Fatalf("Random2(0) = %d", v)
	}
}

func TestRuntimeNamedGenerators(t *testing.T) {
	rt := NewRuntime(types.NewClassTable())

	if rt.RNGFor(types.NameNone) != rt.RNG {
		t.Fatal("empty name did not yield the default source")
	}
	sfx := rt.RNGFor(types.NewName("sfx"))
	if sfx == rt.RNG {
		t.Fatal("named generator aliases the default")
	}
	if rt.RNGFor(types.NewName("sfx")) != sfx {
		t.Fatal("repeat lookup built a new generator")
	}

	// Streams are independent: draining one leaves the other's sequence
	// untouched.
	other := NewRuntime(types.NewClassTable())
	for i := 0; i < 100; i++ {
		rt.RNGFor(types.NewName("pickup")).Random(0, 255)
	}
	a := rt.RNGFor(types.NewName("sfx"))
	b := other.RNGFor(types.NewName("sfx"))
	for i := 0; i < 10; i++ {
		if x, y := a.Random(0, 255), b.Random(0, 255); x != y {
			t.Fatalf("draw %d: %d vs %d", i, x, y)
		}
	}
}

func TestRuntimeSpecialDispatch(t *testing.T) {
	env := NewEnv()
	env.Runtime.HandleSpecial(11, func(args []int32) int32 {
		if len(args) != 2 {
			t.Fatalf("handler got %d args", len(args))
		}
		return args[0] + args[1]
	})

	fn := codegen.FindBuiltin("__callactionspecial")
	res, err := fn.Call([]vm.Param{vm.IntParam(11), vm.IntParam(3), vm.IntParam(4)})
	if err != nil {
		t.Fatal(err)
	}
	if res[0].I != 7 {
		t.Fatalf("special result = %d, want 7", res[0].I)
	}

	// Unhandled specials record the call and report failure.
	res, err = fn.Call([]vm.Param{vm.IntParam(243)})
	if err != nil {
		t.Fatal(err)
	}
	if res[0].I != 0 {
		t.Fatalf("unhandled special result = %d, want 0", res[0].I)
	}
	calls := env.Runtime.SpecialCalls()
	if len(calls) != 2 || calls[0].Number != 11 || calls[1].Number != 243 {
		t.Fatalf("recorded calls = %+v", calls)
	}
}

func TestNameToClass(t *testing.T) {
	env := NewEnv()
	fn := codegen.FindBuiltin("__nametoclass")

	lookup := func(name string, base *types.Class) any {
		t.Helper()
		res, err := fn.Call([]vm.Param{
			vm.IntParam(int32(types.NewName(name))),
			vm.AddrParam(base),
		})
		if err != nil {
			t.Fatal(err)
		}
		return res[0].A
	}

	if got := lookup("Actor", env.Thinker); got != env.Actor {
		t.Fatalf("Actor lookup = %v", got)
	}
	if got := lookup("NoSuchClass", env.Thinker); got != nil {
		t.Fatalf("unknown class = %v, want nil", got)
	}
	// A class outside the requested hierarchy is as good as unknown.
	if got := lookup("Thinker", env.Actor); got != nil {
		t.Fatalf("out-of-hierarchy class = %v, want nil", got)
	}
}

func TestEnvMethodCall(t *testing.T) {
	env := NewEnv()
	pos := codegen.Position{File: "test", Line: 1}

	// return GetHealth() + 1
	expr := codegen.NewFunctionCall(pos, "GetHealth", nil)
	sum := codegen.NewAddSub(pos, codegen.BinAdd,
		expr, codegen.NewIntConstant(pos, 1))

	fn := &types.Function{Name: types.NewName("probe"), Flags: types.FlagMethod}
	env.Actor.AddFunction(fn)
	body := codegen.NewReturnStatement(pos, sum)
	f, diag, err := codegen.CompileFunction(env.Table, env.Actor, fn, nil, body, codegen.DialectStrict)
	if err != nil {
		t.Fatalf("compile: %v (%v)", err, diag)
	}

	obj := env.NewActor()
	res, err := vm.Exec(f, []vm.Param{vm.AddrParam(obj)})
	if err != nil {
		t.Fatal(err)
	}
	if res[0].I != 101 {
		t.Fatalf("probe() = %d, want 101", res[0].I)
	}
}

func TestEnvActionDefaults(t *testing.T) {
	env := NewEnv()
	pos := codegen.Position{File: "test", Line: 1}

	// A_SetTranslucent(0.25) with the mode argument defaulted.
	call := codegen.NewFunctionCall(pos, "A_SetTranslucent",
		[]codegen.Expression{codegen.NewFloatConstant(pos, 0.25)})

	fn := &types.Function{Name: types.NewName("fade"), Flags: types.FlagMethod | types.FlagAction}
	env.Actor.AddFunction(fn)
	f, diag, err := codegen.CompileFunction(env.Table, env.Actor, fn, nil, call, codegen.DialectStrict)
	if err != nil {
		t.Fatalf("compile: %v (%v)", err, diag)
	}

	obj := env.NewActor()
	if _, err := vm.Exec(f, []vm.Param{vm.AddrParam(obj), vm.AddrParam(obj), vm.AddrParam(nil)}); err != nil {
		t.Fatal(err)
	}
	alphaField, _ := env.Actor.FindSymbol(types.NewName("alpha"), true)
	if got := obj.GetFloat(alphaField.(*types.Field).Offset); got != 0.25 {
		t.Fatalf("alpha = %v, want 0.25", got)
	}
}
