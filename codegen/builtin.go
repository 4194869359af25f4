package codegen

import (
	"fmt"
	"sync"

	"zsc/vm"
)

// Support natives the generated code itself depends on (class lookup,
// random number sources) register here by well-known name before any
// compilation runs.
var builtinFuncs = struct {
	sync.Mutex
	m map[string]*vm.NativeFunction
}{m: map[string]*vm.NativeFunction{}}

// RegisterBuiltin installs a support native under a well-known name.
func RegisterBuiltin(name string, fn *vm.NativeFunction) {
	builtinFuncs.Lock()
	defer builtinFuncs.Unlock()
	builtinFuncs.m[name] = fn
}

// FindBuiltin returns a registered support native. Missing builtins are a
// setup bug, not a script error, so this panics.
func FindBuiltin(name string) *vm.NativeFunction {
	builtinFuncs.Lock()
	defer builtinFuncs.Unlock()
	fn, ok := builtinFuncs.m[name]
	if !ok {
		panic(fmt.Sprintf("support builtin %q not registered", name))
	}
	return fn
}
