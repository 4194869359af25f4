package builtins

import (
	"fmt"

	"zsc/codegen"
	"zsc/types"
	"zsc/vm"
)

// Env is the standard compilation environment: a class hierarchy with the
// fields, constants, methods and states the stock scripts expect, plus the
// runtime backing its natives.
type Env struct {
	Table   *types.ClassTable
	Runtime *Runtime

	Thinker *types.Class
	Actor   *types.Class
}

// selfObject unwraps the receiver parameter of a native method.
func selfObject(p vm.Param) (*vm.Object, error) {
	switch a := p.A.(type) {
	case *vm.Object:
		if a != nil {
			return a, nil
		}
	case vm.Pointer:
		if a.Obj != nil {
			return a.Obj, nil
		}
	}
	return nil, fmt.Errorf("null receiver")
}

func native(name string, call vm.NativeCall) *vm.NativeFunction {
	return &vm.NativeFunction{Name: types.NewName(name), Call: call}
}

func intDefault(v int32) *types.Value {
	d := types.IntValue(v)
	return &d
}

// NewEnv builds the standard environment and installs its natives. The
// layout mirrors the stock actor definitions: Thinker at the root, Actor
// deriving from it with the commonly scripted fields and action functions.
func NewEnv() *Env {
	table := types.NewClassTable()
	env := &Env{Table: table, Runtime: NewRuntime(table)}
	env.Runtime.Install()

	env.Thinker = table.Define("Thinker", nil)

	actor := table.Define("Actor", env.Thinker)
	env.Actor = actor
	actorPtr := types.NewPointer(types.NewInstance(actor))

	health, _ := actor.AddField("health", types.TypeInt, 0)
	actor.AddField("mass", types.TypeInt, 0)
	actor.AddField("reactiontime", types.TypeInt, 0)
	actor.AddField("radius", types.TypeFloat, types.FlagReadOnly)
	alpha, _ := actor.AddField("alpha", types.TypeFloat, 0)
	actor.AddField("speed", types.TypeFloat, 0)
	actor.AddField("species", types.TypeName, 0)
	actor.AddField("target", actorPtr, 0)
	actor.AddField("master", actorPtr, 0)
	actor.AddField("args", types.NewArray(types.TypeInt, 5), 0)

	actor.AddConst("DEFAULT_HEALTH", types.IntValue(100))
	table.AddGlobal(&types.ConstSymbol{Name: types.NewName("TICRATE"), Value: types.IntValue(35)})

	actor.AddFunction(&types.Function{
		Name:    types.NewName("GetHealth"),
		Flags:   types.FlagMethod,
		Returns: []*types.Type{types.TypeInt},
		Impl: native("GetHealth", func(args []vm.Param) ([]vm.Param, error) {
			obj, err := selfObject(args[0])
			if err != nil {
				return nil, err
			}
			return []vm.Param{vm.IntParam(obj.GetInt(health.Offset))}, nil
		}),
	})
	actor.AddFunction(&types.Function{
		Name:   types.NewName("SetHealth"),
		Flags:  types.FlagMethod,
		Params: []types.Param{{Type: types.TypeInt}},
		Impl: native("SetHealth", func(args []vm.Param) ([]vm.Param, error) {
			obj, err := selfObject(args[0])
			if err != nil {
				return nil, err
			}
			obj.SetInt(health.Offset, args[1].I)
			return nil, nil
		}),
	})
	actor.AddFunction(&types.Function{
		Name:   types.NewName("A_SetTranslucent"),
		Flags:  types.FlagMethod | types.FlagAction,
		Params: []types.Param{{Type: types.TypeFloat}, {Type: types.TypeInt, Default: intDefault(0)}},
		Impl: native("A_SetTranslucent", func(args []vm.Param) ([]vm.Param, error) {
			// args: self, stateowner, stateinfo, alpha, mode.
			obj, err := selfObject(args[0])
			if err != nil {
				return nil, err
			}
			obj.SetFloat(alpha.Offset, args[3].F)
			return nil, nil
		}),
	})
	actor.AddFunction(&types.Function{
		Name:  types.NewName("A_Explode"),
		Flags: types.FlagMethod | types.FlagAction,
		Params: []types.Param{
			{Type: types.TypeInt, Default: intDefault(128)},
			{Type: types.TypeInt, Default: intDefault(128)},
		},
		Impl: native("A_Explode", func(args []vm.Param) ([]vm.Param, error) {
			if _, err := selfObject(args[0]); err != nil {
				return nil, err
			}
			return nil, nil
		}),
	})
	actor.AddFunction(&types.Function{
		Name:    types.NewName("A_OldExplode"),
		Flags:   types.FlagMethod | types.FlagAction | types.FlagDeprecated,
		Impl:    native("A_OldExplode", func(args []vm.Param) ([]vm.Param, error) { return nil, nil }),
		Returns: nil,
	})

	actor.AddState("Spawn", 0)
	actor.AddState("See", 4)
	actor.AddState("Death", 10)
	actor.AddState("Death.Fire", 14)

	for _, sp := range []*codegen.ActionSpecial{
		{Name: "Door_Open", Number: 11, MinArgs: 1, MaxArgs: 3},
		{Name: "Floor_LowerToLowest", Number: 21, MinArgs: 2, MaxArgs: 2},
		{Name: "Teleport", Number: 70, MinArgs: 1, MaxArgs: 3},
		{Name: "Light_ChangeToValue", Number: 112, MinArgs: 2, MaxArgs: 2},
		{Name: "Exit_Normal", Number: 243, MinArgs: 0, MaxArgs: 1},
	} {
		codegen.RegisterActionSpecial(sp)
	}

	return env
}

// NewActor allocates an Actor instance with its defaulted fields filled.
func (env *Env) NewActor() *vm.Object {
	obj := vm.NewObject(env.Actor)
	if f, _ := env.Actor.FindSymbol(types.NewName("health"), true); f != nil {
		obj.SetInt(f.(*types.Field).Offset, 100)
	}
	if f, _ := env.Actor.FindSymbol(types.NewName("mass"), true); f != nil {
		obj.SetInt(f.(*types.Field).Offset, 100)
	}
	if f, _ := env.Actor.FindSymbol(types.NewName("alpha"), true); f != nil {
		obj.SetFloat(f.(*types.Field).Offset, 1.0)
	}
	return obj
}
