package codegen

import (
	"zsc/types"
	"zsc/vm"
)

// tailCallable is implemented by calls that can emit themselves in tail
// position.
type tailCallable interface {
	EmitTail(b *Build) Loc
}

// emitStatement emits an expression for its effect and discards the value.
func emitStatement(b *Build, e Expression) {
	if call, ok := e.(*VMFunctionCall); ok {
		call.NoResult = true
	}
	loc := e.Emit(b)
	loc.Free(b)
}

// CompoundStatement is a braced statement list with its own local scope.
type CompoundStatement struct {
	expBase
	Statements []Expression
}

// NewCompoundStatement builds a statement block.
func NewCompoundStatement(pos Position, stmts ...Expression) *CompoundStatement {
	e := &CompoundStatement{Statements: stmts}
	e.pos = pos
	e.typ = types.TypeVoid
	return e
}

// Add appends a statement.
func (e *CompoundStatement) Add(s Expression) { e.Statements = append(e.Statements, s) }

func (e *CompoundStatement) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	mark := ctx.LocalsMark()
	defer ctx.ReleaseLocals(mark)
	out := e.Statements[:0]
	for _, s := range e.Statements {
		s, err := s.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		// A constant in statement position is dead.
		if IsConstant(s) {
			continue
		}
		if _, ok := s.(*Nop); ok {
			continue
		}
		out = append(out, s)
	}
	e.Statements = out
	if len(e.Statements) == 0 {
		return NewNop(e.pos), nil
	}
	return e, nil
}

func (e *CompoundStatement) Emit(b *Build) Loc {
	for _, s := range e.Statements {
		emitStatement(b, s)
	}
	// Locals declared in this block die with it.
	for _, s := range e.Statements {
		if d, ok := s.(*LocalVariableDeclaration); ok {
			d.Release(b)
		}
	}
	return Loc{Class: types.RegNil}
}

// IfStatement is if/else. A constant condition drops the untaken branch at
// resolve time.
type IfStatement struct {
	expBase
	Condition Expression
	Then      Expression
	Else      Expression
}

// NewIfStatement builds an if with an optional else branch.
func NewIfStatement(pos Position, cond, then, els Expression) *IfStatement {
	e := &IfStatement{Condition: cond, Then: then, Else: els}
	e.pos = pos
	e.typ = types.TypeVoid
	return e
}

func (e *IfStatement) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Condition, err = NewBoolCast(e.Condition).Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Then != nil {
		if e.Then, err = e.Then.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	if e.Else != nil {
		if e.Else, err = e.Else.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	if IsConstant(e.Condition) {
		taken := e.Then
		if !ConstValueOf(e.Condition).GetBool() {
			taken = e.Else
		}
		if taken == nil {
			return NewNop(e.pos), nil
		}
		return taken, nil
	}
	return e, nil
}

func (e *IfStatement) Emit(b *Build) Loc {
	cond := e.Condition.Emit(b).loadToRegister(b)
	cond.Free(b)
	b.Emit(vm.OP_EQ_K, 1, cond.Reg, b.GetConstantInt(0))
	jfalse := b.Emit(vm.OP_JMP, 0, 0, 0)
	if e.Then != nil {
		emitStatement(b, e.Then)
	}
	if e.Else != nil {
		jend := b.Emit(vm.OP_JMP, 0, 0, 0)
		b.BackpatchToHere(jfalse)
		emitStatement(b, e.Else)
		b.BackpatchToHere(jend)
	} else {
		b.BackpatchToHere(jfalse)
	}
	return Loc{Class: types.RegNil}
}

// loopBase links break and continue statements to their enclosing loop
// during resolution so the loop can patch their jumps during emission.
type loopBase struct {
	outer     *loopBase
	breaks    []*JumpStatement
	continues []*JumpStatement
}

func (l *loopBase) push(ctx *Context) {
	l.outer = ctx.loop
	ctx.loop = l
}

func (l *loopBase) pop(ctx *Context) {
	ctx.loop = l.outer
}

// patchBreaks points every break at the next instruction. A jump inside a
// branch folded away at resolve time never emits and is skipped.
func (l *loopBase) patchBreaks(b *Build) {
	for _, j := range l.breaks {
		if j.patch < 0 {
			continue
		}
		b.BackpatchToHere(j.patch)
	}
}

// patchContinues points every continue at target.
func (l *loopBase) patchContinues(b *Build, target int) {
	for _, j := range l.continues {
		if j.patch < 0 {
			continue
		}
		b.Backpatch(j.patch, target)
	}
}

// patchContinuesHere points every continue at the next instruction.
func (l *loopBase) patchContinuesHere(b *Build) {
	for _, j := range l.continues {
		if j.patch < 0 {
			continue
		}
		b.BackpatchToHere(j.patch)
	}
}

// JumpStatement is break or continue.
type JumpStatement struct {
	expBase
	Continue bool

	patch int
}

// NewJumpStatement builds a break (or continue) statement.
func NewJumpStatement(pos Position, isContinue bool) *JumpStatement {
	e := &JumpStatement{Continue: isContinue, patch: -1}
	e.pos = pos
	e.typ = types.TypeVoid
	return e
}

func (e *JumpStatement) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	loop := ctx.EnclosingLoop()
	if loop == nil {
		kw := "break"
		if e.Continue {
			kw = "continue"
		}
		return nil, ctx.Errorf(e.pos, "%s outside of a loop", kw)
	}
	if e.Continue {
		loop.continues = append(loop.continues, e)
	} else {
		loop.breaks = append(loop.breaks, e)
	}
	return e, nil
}

func (e *JumpStatement) Emit(b *Build) Loc {
	e.patch = b.Emit(vm.OP_JMP, 0, 0, 0)
	return Loc{Class: types.RegNil}
}

// emitLoopCondition emits the test at the top of a loop and returns the
// exit jump to patch, or -1 when the condition is constant true.
func emitLoopCondition(b *Build, cond Expression) int {
	if IsConstant(cond) {
		// Only constant true survives resolution.
		return -1
	}
	c := cond.Emit(b).loadToRegister(b)
	c.Free(b)
	b.Emit(vm.OP_EQ_K, 1, c.Reg, b.GetConstantInt(0))
	return b.Emit(vm.OP_JMP, 0, 0, 0)
}

// WhileLoop is a head-tested loop.
type WhileLoop struct {
	expBase
	loopBase
	Condition Expression
	Body      Expression
}

// NewWhileLoop builds while (cond) body.
func NewWhileLoop(pos Position, cond, body Expression) *WhileLoop {
	e := &WhileLoop{Condition: cond, Body: body}
	e.pos = pos
	e.typ = types.TypeVoid
	return e
}

func (e *WhileLoop) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Condition, err = NewBoolCast(e.Condition).Resolve(ctx); err != nil {
		return nil, err
	}
	e.loopBase.push(ctx)
	defer e.loopBase.pop(ctx)
	if e.Body != nil {
		if e.Body, err = e.Body.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	if IsConstant(e.Condition) && !ConstValueOf(e.Condition).GetBool() {
		return NewNop(e.pos), nil
	}
	return e, nil
}

func (e *WhileLoop) Emit(b *Build) Loc {
	top := b.Position()
	exit := emitLoopCondition(b, e.Condition)
	if e.Body != nil {
		emitStatement(b, e.Body)
	}
	jback := b.Emit(vm.OP_JMP, 0, 0, 0)
	b.Backpatch(jback, top)
	if exit >= 0 {
		b.BackpatchToHere(exit)
	}
	e.patchBreaks(b)
	e.patchContinues(b, top)
	return Loc{Class: types.RegNil}
}

// DoWhileLoop is a tail-tested loop; the body always runs once.
type DoWhileLoop struct {
	expBase
	loopBase
	Condition Expression
	Body      Expression
}

// NewDoWhileLoop builds do body while (cond).
func NewDoWhileLoop(pos Position, cond, body Expression) *DoWhileLoop {
	e := &DoWhileLoop{Condition: cond, Body: body}
	e.pos = pos
	e.typ = types.TypeVoid
	return e
}

func (e *DoWhileLoop) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Condition, err = NewBoolCast(e.Condition).Resolve(ctx); err != nil {
		return nil, err
	}
	e.loopBase.push(ctx)
	defer e.loopBase.pop(ctx)
	if e.Body != nil {
		if e.Body, err = e.Body.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *DoWhileLoop) Emit(b *Build) Loc {
	top := b.Position()
	if e.Body != nil {
		emitStatement(b, e.Body)
	}
	e.patchContinuesHere(b)
	if IsConstant(e.Condition) {
		if ConstValueOf(e.Condition).GetBool() {
			jback := b.Emit(vm.OP_JMP, 0, 0, 0)
			b.Backpatch(jback, top)
		}
	} else {
		c := e.Condition.Emit(b).loadToRegister(b)
		c.Free(b)
		// Loop back while the condition holds.
		b.Emit(vm.OP_EQ_K, 0, c.Reg, b.GetConstantInt(0))
		jback := b.Emit(vm.OP_JMP, 0, 0, 0)
		b.Backpatch(jback, top)
	}
	e.patchBreaks(b)
	return Loc{Class: types.RegNil}
}

// ForLoop is init; cond; iteration with a body.
type ForLoop struct {
	expBase
	loopBase
	Init      Expression
	Condition Expression
	Iteration Expression
	Body      Expression
}

// NewForLoop builds a for loop; any of the three headers may be nil.
func NewForLoop(pos Position, init, cond, iter, body Expression) *ForLoop {
	e := &ForLoop{Init: init, Condition: cond, Iteration: iter, Body: body}
	e.pos = pos
	e.typ = types.TypeVoid
	return e
}

func (e *ForLoop) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	mark := ctx.LocalsMark()
	defer ctx.ReleaseLocals(mark)
	if e.Init != nil {
		if e.Init, err = e.Init.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	if e.Condition == nil {
		e.Condition = NewBoolConstant(e.pos, true)
	}
	if e.Condition, err = NewBoolCast(e.Condition).Resolve(ctx); err != nil {
		return nil, err
	}
	e.loopBase.push(ctx)
	defer e.loopBase.pop(ctx)
	if e.Iteration != nil {
		if e.Iteration, err = e.Iteration.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	if e.Body != nil {
		if e.Body, err = e.Body.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *ForLoop) Emit(b *Build) Loc {
	if e.Init != nil {
		emitStatement(b, e.Init)
	}
	top := b.Position()
	exit := -1
	if !(IsConstant(e.Condition) && ConstValueOf(e.Condition).GetBool()) {
		exit = emitLoopCondition(b, e.Condition)
	}
	if e.Body != nil {
		emitStatement(b, e.Body)
	}
	e.patchContinuesHere(b)
	if e.Iteration != nil {
		emitStatement(b, e.Iteration)
	}
	jback := b.Emit(vm.OP_JMP, 0, 0, 0)
	b.Backpatch(jback, top)
	if exit >= 0 {
		b.BackpatchToHere(exit)
	}
	e.patchBreaks(b)
	if d, ok := e.Init.(*LocalVariableDeclaration); ok {
		d.Release(b)
	}
	return Loc{Class: types.RegNil}
}

// ReturnStatement leaves the function, with an optional value. A returned
// call whose signature matches the function's own becomes a tail call.
type ReturnStatement struct {
	expBase
	Value Expression

	tail bool
}

// NewReturnStatement builds a return with an optional value.
func NewReturnStatement(pos Position, value Expression) *ReturnStatement {
	e := &ReturnStatement{Value: value}
	e.pos = pos
	e.typ = types.TypeVoid
	return e
}

func (e *ReturnStatement) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Value != nil {
		if e.Value, err = e.Value.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	rts := ReturnTypesOf(e.Value)
	if err = ctx.CheckReturn(e.pos, rts); err != nil {
		return nil, err
	}
	if call, ok := e.Value.(*VMFunctionCall); ok {
		// The callee's full return list matching ours makes this a tail
		// call: its results pass straight through.
		proto := ctx.ReturnProto()
		if len(call.Function.Returns) == len(proto) {
			match := true
			for i, t := range call.Function.Returns {
				if t != proto[i] {
					match = false
					break
				}
			}
			e.tail = match
		}
	}
	if e.Value != nil && !e.tail && e.Value.Type() != types.TypeVoid {
		proto := ctx.ReturnProto()
		if len(proto) > 0 {
			if e.Value, err = coerceTo(ctx, e.Value, proto[0]); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

func (e *ReturnStatement) Emit(b *Build) Loc {
	if e.Value == nil {
		b.Emit(vm.OP_RET, vm.RET_FINAL, vm.REGT_NIL, 0)
		return Loc{Class: types.RegNil}
	}
	if e.tail {
		if tc, ok := e.Value.(tailCallable); ok {
			loc := tc.EmitTail(b)
			if loc.Final {
				return Loc{Class: types.RegNil}
			}
		}
	}
	v := e.Value.Emit(b)
	if v.Class == types.RegNil {
		b.Emit(vm.OP_RET, vm.RET_FINAL, vm.REGT_NIL, 0)
		return Loc{Class: types.RegNil}
	}
	rt := int(v.Class)
	if v.Konst {
		rt |= vm.REGT_KONST
	}
	b.Emit(vm.OP_RET, vm.RET_FINAL, rt, v.Reg)
	v.Free(b)
	return Loc{Class: types.RegNil}
}

// StateLabel resolves a dotted state label against the compiling class to
// the state's address.
type StateLabel struct {
	expBase
	Labels []string
}

// NewStateLabel references a state by its label path.
func NewStateLabel(pos Position, labels ...string) *StateLabel {
	e := &StateLabel{Labels: labels}
	e.pos = pos
	e.typ = types.TypeState
	return e
}

func (e *StateLabel) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if ctx.Class == nil {
		return nil, ctx.Errorf(e.pos, "state label outside of a class")
	}
	st := ctx.Class.FindState(e.Labels...)
	if st == nil {
		if ctx.Lenient() {
			ctx.Warnf(e.pos, "unknown state label %v, substituting null", e.Labels)
			return NewConstant(e.pos, types.AddrValue(types.TypeState, nil)), nil
		}
		return nil, ctx.Errorf(e.pos, "unknown state label %v", e.Labels)
	}
	return NewConstant(e.pos, types.AddrValue(types.TypeState, st)), nil
}

func (e *StateLabel) Emit(b *Build) Loc {
	panic("state label not replaced during resolution")
}
