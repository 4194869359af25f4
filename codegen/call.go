package codegen

import (
	"strings"
	"sync"

	"zsc/types"
	"zsc/vm"
)

// ActionSpecial describes one entry of the action special table: a small
// numbered script primitive taking up to five int arguments.
type ActionSpecial struct {
	Name     string
	Number   int
	MinArgs  int
	MaxArgs  int
}

var actionSpecials = struct {
	sync.Mutex
	m map[string]*ActionSpecial
}{m: map[string]*ActionSpecial{}}

// RegisterActionSpecial installs a special in the lookup table.
func RegisterActionSpecial(s *ActionSpecial) {
	actionSpecials.Lock()
	defer actionSpecials.Unlock()
	actionSpecials.m[strings.ToLower(s.Name)] = s
}

// FindActionSpecial returns the named special, or nil.
func FindActionSpecial(name string) *ActionSpecial {
	actionSpecials.Lock()
	defer actionSpecials.Unlock()
	return actionSpecials.m[strings.ToLower(name)]
}

// checkArgCount validates an intrinsic's argument count.
func checkArgCount(ctx *Context, pos Position, name string, args []Expression, min, max int) error {
	if len(args) < min {
		return ctx.Errorf(pos, "not enough arguments to %s: have %d, want at least %d", name, len(args), min)
	}
	if max >= 0 && len(args) > max {
		return ctx.Errorf(pos, "too many arguments to %s: have %d, want at most %d", name, len(args), max)
	}
	return nil
}

// FunctionCall is an unresolved call by name. Resolution rewrites it to the
// matching intrinsic node, method call or action special.
type FunctionCall struct {
	expBase
	Name types.Name
	Args []Expression

	// Rng is the generator binding of the random family, written
	// random[sfx](...). Empty for everything else.
	Rng types.Name
}

// NewFunctionCall builds a call of name with args.
func NewFunctionCall(pos Position, name string, args []Expression) *FunctionCall {
	e := &FunctionCall{Name: types.NewName(name), Args: args}
	e.pos = pos
	return e
}

func (e *FunctionCall) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	name := strings.ToLower(e.Name.String())
	if e.Rng != types.NameNone {
		switch name {
		case "random", "frandom", "random2", "randompick", "frandompick":
		default:
			return nil, ctx.Errorf(e.pos, "%q does not take a random generator binding", e.Name)
		}
	}
	switch name {
	case "abs":
		if err := checkArgCount(ctx, e.pos, name, e.Args, 1, 1); err != nil {
			return nil, err
		}
		return NewAbsCall(e.pos, e.Args[0]).Resolve(ctx)
	case "atan2", "vectorangle":
		if err := checkArgCount(ctx, e.pos, name, e.Args, 2, 2); err != nil {
			return nil, err
		}
		// VectorAngle takes (x, y); atan2 takes (y, x).
		y, x := e.Args[0], e.Args[1]
		if name == "vectorangle" {
			y, x = e.Args[1], e.Args[0]
		}
		return NewATan2Call(e.pos, y, x).Resolve(ctx)
	case "min", "max":
		if err := checkArgCount(ctx, e.pos, name, e.Args, 2, -1); err != nil {
			return nil, err
		}
		return NewMinMax(e.pos, name == "max", e.Args).Resolve(ctx)
	case "clamp":
		if err := checkArgCount(ctx, e.pos, name, e.Args, 3, 3); err != nil {
			return nil, err
		}
		// clamp(v, lo, hi) = min(max(v, lo), hi)
		lo := NewMinMax(e.pos, true, []Expression{e.Args[0], e.Args[1]})
		return NewMinMax(e.pos, false, []Expression{lo, e.Args[2]}).Resolve(ctx)
	case "random":
		if len(e.Args) == 0 {
			e.Args = []Expression{NewIntConstant(e.pos, 0), NewIntConstant(e.pos, 255)}
		}
		if err := checkArgCount(ctx, e.pos, name, e.Args, 2, 2); err != nil {
			return nil, err
		}
		r := NewRandomCall(e.pos, false, e.Args[0], e.Args[1])
		r.Rng = e.Rng
		return r.Resolve(ctx)
	case "frandom":
		if err := checkArgCount(ctx, e.pos, name, e.Args, 2, 2); err != nil {
			return nil, err
		}
		r := NewRandomCall(e.pos, true, e.Args[0], e.Args[1])
		r.Rng = e.Rng
		return r.Resolve(ctx)
	case "random2":
		if err := checkArgCount(ctx, e.pos, name, e.Args, 0, 1); err != nil {
			return nil, err
		}
		var mask Expression
		if len(e.Args) == 1 {
			mask = e.Args[0]
		}
		r := NewRandom2Call(e.pos, mask)
		r.Rng = e.Rng
		return r.Resolve(ctx)
	case "randompick", "frandompick":
		if err := checkArgCount(ctx, e.pos, name, e.Args, 1, -1); err != nil {
			return nil, err
		}
		r := NewRandomPick(e.pos, name == "frandompick", e.Args)
		r.Rng = e.Rng
		return r.Resolve(ctx)
	}
	if id, ok := flopNames[name]; ok {
		if err := checkArgCount(ctx, e.pos, name, e.Args, 1, 1); err != nil {
			return nil, err
		}
		return NewFlopCall(e.pos, id, e.Args[0]).Resolve(ctx)
	}
	if ctx.Class != nil {
		if sym, holder := ctx.Class.FindSymbol(e.Name, true); sym != nil {
			if fn, ok := sym.(*types.Function); ok {
				var self Expression
				if fn.Flags&types.FlagStatic == 0 {
					self = NewSelf(e.pos)
				}
				return newVMFunctionCall(ctx, e.pos, self, fn, holder, e.Args)
			}
		}
	}
	if sym := ctx.Table.FindGlobal(e.Name); sym != nil {
		if fn, ok := sym.(*types.Function); ok {
			return newVMFunctionCall(ctx, e.pos, nil, fn, nil, e.Args)
		}
	}
	if sp := FindActionSpecial(e.Name.String()); sp != nil {
		return NewActionSpecialCall(e.pos, sp, e.Args).Resolve(ctx)
	}
	return nil, ctx.Errorf(e.pos, "unknown function %q", e.Name)
}

func (e *FunctionCall) Emit(b *Build) Loc {
	panic("function call not replaced during resolution")
}

// MemberFunctionCall is obj.method(args) before resolution.
type MemberFunctionCall struct {
	expBase
	Object Expression
	Member types.Name
	Args   []Expression
}

// NewMemberFunctionCall builds a method call on object.
func NewMemberFunctionCall(pos Position, object Expression, member string, args []Expression) *MemberFunctionCall {
	e := &MemberFunctionCall{Object: object, Member: types.NewName(member), Args: args}
	e.pos = pos
	return e
}

func (e *MemberFunctionCall) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Object, err = e.Object.Resolve(ctx); err != nil {
		return nil, err
	}
	cls := e.Object.Type().PointedClass()
	if cls == nil {
		return nil, ctx.Errorf(e.pos, "method call on non-object type %s", e.Object.Type())
	}
	sym, holder := cls.FindSymbol(e.Member, true)
	fn, ok := sym.(*types.Function)
	if !ok {
		return nil, ctx.Errorf(e.pos, "unknown method %q in %s", e.Member, cls.Name)
	}
	if fn.Flags&types.FlagStatic != 0 {
		return newVMFunctionCall(ctx, e.pos, nil, fn, holder, e.Args)
	}
	return newVMFunctionCall(ctx, e.pos, e.Object, fn, holder, e.Args)
}

func (e *MemberFunctionCall) Emit(b *Build) Loc {
	panic("method call not replaced during resolution")
}

// VMFunctionCall is a resolved call to a script or native function. The
// receiver and, for action functions, the two state context pointers pass
// as hidden leading parameters.
type VMFunctionCall struct {
	expBase
	Self     Expression
	Function *types.Function
	Args     []Expression

	// NoResult marks statement position: the call discards its returns.
	NoResult bool
}

func newVMFunctionCall(ctx *Context, pos Position, self Expression, fn *types.Function, holder *types.Class, args []Expression) (Expression, error) {
	if fn.Flags&types.FlagPrivate != 0 && holder != nil && holder != ctx.Class {
		return nil, ctx.Errorf(pos, "function %q is private to %s", fn.Name, holder.Name)
	}
	if fn.Flags&types.FlagDeprecated != 0 {
		ctx.Warnf(pos, "function %q is deprecated", fn.Name)
	}
	e := &VMFunctionCall{Self: self, Function: fn, Args: args}
	e.pos = pos
	return e.Resolve(ctx)
}

func (e *VMFunctionCall) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	fn := e.Function
	var err error
	if e.Self != nil {
		if e.Self, err = e.Self.Resolve(ctx); err != nil {
			return nil, err
		}
		selfCls := e.Self.Type().PointedClass()
		if selfCls == nil || !selfCls.IsDescendantOf(fn.SelfClass()) {
			return nil, ctx.Errorf(e.pos, "receiver of %q must be a %s", fn.Name, fn.SelfClass().Name)
		}
	}
	if len(e.Args) > len(fn.Params) {
		return nil, ctx.Errorf(e.pos, "too many arguments to %q: have %d, want %d",
			fn.Name, len(e.Args), len(fn.Params))
	}
	for i := range e.Args {
		if e.Args[i], err = e.Args[i].Resolve(ctx); err != nil {
			return nil, err
		}
		if e.Args[i], err = coerceTo(ctx, e.Args[i], fn.Params[i].Type); err != nil {
			return nil, err
		}
	}
	for i := len(e.Args); i < len(fn.Params); i++ {
		if fn.Params[i].Default == nil {
			return nil, ctx.Errorf(e.pos, "not enough arguments to %q: have %d, want %d",
				fn.Name, len(e.Args), len(fn.Params))
		}
		e.Args = append(e.Args, NewConstant(e.pos, *fn.Params[i].Default))
	}
	if len(fn.Returns) > 0 {
		e.typ = fn.Returns[0]
	} else {
		e.typ = types.TypeVoid
	}
	return e, nil
}

// DirectFunction reports the callee when the call can be invoked without
// any generated code: no explicit arguments, receiver is the implicit one.
func (e *VMFunctionCall) DirectFunction() *types.Function {
	if len(e.Args) > 0 {
		return nil
	}
	if e.Self != nil {
		if _, ok := e.Self.(*Self); !ok {
			return nil
		}
	}
	return e.Function
}

// emitParams pushes the implicit and explicit parameters and returns the
// count pushed.
func (e *VMFunctionCall) emitParams(b *Build) int {
	count := 0
	fn := e.Function
	if fn.Flags&types.FlagStatic == 0 {
		self := e.Self.Emit(b)
		emitParam(b, self)
		count++
		if fn.Flags&types.FlagAction != 0 {
			// Action functions receive the caller's state context, or
			// nulls when called from a plain method.
			if b.IsAction {
				b.Emit(vm.OP_PARAM, 0, int(types.RegPointer), b.StateOwnerReg())
				b.Emit(vm.OP_PARAM, 0, int(types.RegPointer), b.StateInfoReg())
			} else {
				b.Emit(vm.OP_PARAM, 0, vm.REGT_NIL, 0)
				b.Emit(vm.OP_PARAM, 0, vm.REGT_NIL, 0)
			}
			count += 2
		}
	}
	for _, a := range e.Args {
		emitParam(b, a.Emit(b))
		count++
	}
	return count
}

func (e *VMFunctionCall) callAddr(b *Build) int {
	return b.GetConstantAddress(e.Function.Impl, vm.ATAG_FUNCTION)
}

func (e *VMFunctionCall) Emit(b *Build) Loc {
	count := e.emitParams(b)
	want := 0
	if !e.NoResult && len(e.Function.Returns) > 0 {
		want = 1
	}
	b.Emit(vm.OP_CALL_K, e.callAddr(b), count, want)
	if want == 0 {
		return Loc{Class: types.RegNil}
	}
	cls := e.Function.Returns[0].RegType()
	to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
	b.Emit(vm.OP_RESULT, 0, int(cls), to.Reg)
	return to
}

// EmitTail emits the call in tail position: the callee's results become the
// caller's and control never returns.
func (e *VMFunctionCall) EmitTail(b *Build) Loc {
	count := e.emitParams(b)
	b.Emit(vm.OP_TAIL_K, e.callAddr(b), count, 0)
	return Loc{Class: types.RegNil, Final: true}
}

// ActionSpecialCall invokes a numbered action special with up to five int
// arguments through the runtime dispatcher.
type ActionSpecialCall struct {
	expBase
	Special *ActionSpecial
	Args    []Expression
}

// NewActionSpecialCall builds a call of the given special.
func NewActionSpecialCall(pos Position, sp *ActionSpecial, args []Expression) *ActionSpecialCall {
	e := &ActionSpecialCall{Special: sp, Args: args}
	e.pos = pos
	e.typ = types.TypeInt
	return e
}

func (e *ActionSpecialCall) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if err := checkArgCount(ctx, e.pos, e.Special.Name, e.Args, e.Special.MinArgs, e.Special.MaxArgs); err != nil {
		return nil, err
	}
	for i := range e.Args {
		var err error
		if e.Args[i], err = NewIntCast(e.Args[i], false, false).Resolve(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *ActionSpecialCall) Emit(b *Build) Loc {
	fn := FindBuiltin("__callactionspecial")
	b.EmitParamInt(int32(e.Special.Number))
	for _, a := range e.Args {
		emitParam(b, a.Emit(b))
	}
	b.Emit(vm.OP_CALL_K, b.GetConstantAddress(fn, vm.ATAG_FUNCTION), len(e.Args)+1, 1)
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_RESULT, 0, int(types.RegInt), to.Reg)
	return to
}
