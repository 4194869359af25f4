package codegen

import (
	"zsc/types"
)

// Expression is one node of the typed tree. Resolve type-checks the node
// and may return a different node in its place (a coercion wrapper, a
// folded constant, a rewritten intrinsic); callers must use the returned
// node. Emit produces code for an already resolved node.
type Expression interface {
	Pos() Position
	Type() *types.Type
	Resolve(ctx *Context) (Expression, error)
	Emit(b *Build) Loc
}

// directCallable is implemented by calls that can be invoked without any
// generated wrapper code.
type directCallable interface {
	DirectFunction() *types.Function
}

// DirectFunctionOf reports the function e calls when the call needs no
// generated code at all: no explicit arguments and the implicit receiver.
// State definitions use this to skip building a wrapper.
func DirectFunctionOf(e Expression) *types.Function {
	if dc, ok := e.(directCallable); ok {
		return dc.DirectFunction()
	}
	return nil
}

// expBase carries the position, resolved type and the idempotency flag
// every node shares. Resolve methods call checkResolved first; a node that
// already resolved returns itself unchanged.
type expBase struct {
	pos      Position
	typ      *types.Type
	resolved bool
}

func (e *expBase) Pos() Position     { return e.pos }
func (e *expBase) Type() *types.Type { return e.typ }

// checkResolved reports whether the node was already resolved and marks it
// resolved otherwise.
func (e *expBase) checkResolved() bool {
	if e.resolved {
		return true
	}
	e.resolved = true
	return false
}

// IsConstant reports whether e folded to a compile-time constant.
func IsConstant(e Expression) bool {
	_, ok := e.(*Constant)
	return ok
}

// ConstValueOf returns the folded constant value of e.
func ConstValueOf(e Expression) types.Value {
	return e.(*Constant).Value
}

// ReturnTypesOf reports the types an expression contributes to a return
// statement: none for void, its own type otherwise.
func ReturnTypesOf(e Expression) []*types.Type {
	if e == nil || e.Type() == types.TypeVoid {
		return nil
	}
	if call, ok := e.(*VMFunctionCall); ok {
		return call.Function.Returns
	}
	return []*types.Type{e.Type()}
}

// Nop resolves to nothing and emits nothing. Statement positions that fold
// away (a discarded constant, an empty branch) are replaced with it.
type Nop struct {
	expBase
}

// NewNop returns an empty statement.
func NewNop(pos Position) *Nop {
	n := &Nop{}
	n.pos = pos
	n.typ = types.TypeVoid
	return n
}

func (e *Nop) Resolve(ctx *Context) (Expression, error) {
	e.checkResolved()
	return e, nil
}

func (e *Nop) Emit(b *Build) Loc {
	return Loc{Class: types.RegNil}
}
