package builtins

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"zsc/codegen"
	"zsc/types"
	"zsc/vm"
)

// SpecialCall records one executed action special for inspection by tests
// and tooling.
type SpecialCall struct {
	Number int32
	Args   []int32
}

// Runtime owns the mutable state the support natives close over: the
// random sources, the class table for runtime class lookups, and the action
// special dispatcher.
type Runtime struct {
	RNG   *RNG
	Table *types.ClassTable

	mu       sync.Mutex
	rngs     map[types.Name]*RNG
	handlers map[int32]func(args []int32) int32
	calls    []SpecialCall
}

// NewRuntime builds a runtime over the given class table with a fixed
// default seed.
func NewRuntime(table *types.ClassTable) *Runtime {
	return &Runtime{
		RNG:      NewRNG(0x1d4a11),
		Table:    table,
		rngs:     map[types.Name]*RNG{},
		handlers: map[int32]func(args []int32) int32{},
	}
}

// RNGFor returns the generator bound to name, creating it on first use.
// The empty name is the default source. Named generators seed from their
// label, so replays stay deterministic per stream.
func (rt *Runtime) RNGFor(name types.Name) *RNG {
	if name == types.NameNone {
		return rt.RNG
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if r, ok := rt.rngs[name]; ok {
		return r
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(name.String())))
	r := NewRNG(h.Sum32())
	rt.rngs[name] = r
	return r
}

// HandleSpecial installs a handler for one action special number.
func (rt *Runtime) HandleSpecial(number int32, fn func(args []int32) int32) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.handlers[number] = fn
}

// SpecialCalls returns the action specials executed so far.
func (rt *Runtime) SpecialCalls() []SpecialCall {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]SpecialCall(nil), rt.calls...)
}

// Install registers the support natives the generated code depends on.
// It must run before compiling anything that uses random intrinsics, class
// casts or action specials.
func (rt *Runtime) Install() {
	codegen.RegisterBuiltin("__random", &vm.NativeFunction{
		Name: types.NewName("__random"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("__random: want 3 args, have %d", len(args))
			}
			rng := rt.RNGFor(types.Name(args[0].I))
			return []vm.Param{vm.IntParam(rng.Random(args[1].I, args[2].I))}, nil
		},
	})
	codegen.RegisterBuiltin("__frandom", &vm.NativeFunction{
		Name: types.NewName("__frandom"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			if len(args) != 3 {
				return nil, fmt.Errorf("__frandom: want 3 args, have %d", len(args))
			}
			rng := rt.RNGFor(types.Name(args[0].I))
			return []vm.Param{vm.FloatParam(rng.FRandom(args[1].F, args[2].F))}, nil
		},
	})
	codegen.RegisterBuiltin("__random2", &vm.NativeFunction{
		Name: types.NewName("__random2"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("__random2: want 2 args, have %d", len(args))
			}
			rng := rt.RNGFor(types.Name(args[0].I))
			return []vm.Param{vm.IntParam(rng.Random2(args[1].I))}, nil
		},
	})
	codegen.RegisterBuiltin("__nametoclass", &vm.NativeFunction{
		Name: types.NewName("__nametoclass"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("__nametoclass: want 2 args, have %d", len(args))
			}
			cls := rt.Table.Find(types.Name(args[0].I))
			base, _ := args[1].A.(*types.Class)
			// A class outside the required hierarchy degrades to null,
			// the same answer an unknown name gets.
			if cls == nil || (base != nil && !cls.IsDescendantOf(base)) {
				return []vm.Param{vm.AddrParam(nil)}, nil
			}
			return []vm.Param{vm.AddrParam(cls)}, nil
		},
	})
	codegen.RegisterBuiltin("__callactionspecial", &vm.NativeFunction{
		Name: types.NewName("__callactionspecial"),
		Call: func(args []vm.Param) ([]vm.Param, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("__callactionspecial: missing special number")
			}
			num := args[0].I
			rest := make([]int32, 0, len(args)-1)
			for _, a := range args[1:] {
				rest = append(rest, a.I)
			}
			rt.mu.Lock()
			rt.calls = append(rt.calls, SpecialCall{Number: num, Args: rest})
			h := rt.handlers[num]
			rt.mu.Unlock()
			if h == nil {
				return []vm.Param{vm.IntParam(0)}, nil
			}
			return []vm.Param{vm.IntParam(h(rest))}, nil
		},
	})
}
