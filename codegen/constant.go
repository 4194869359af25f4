package codegen

import (
	"zsc/types"
)

// Constant is a fully folded value. It is what every constant-folding
// rewrite resolves to, and the only node whose Emit may produce a Konst
// location.
type Constant struct {
	expBase
	Value types.Value
}

// NewConstant wraps a value as an expression node.
func NewConstant(pos Position, v types.Value) *Constant {
	c := &Constant{Value: v}
	c.pos = pos
	c.typ = v.Type
	return c
}

// NewIntConstant returns an int literal node.
func NewIntConstant(pos Position, v int32) *Constant {
	return NewConstant(pos, types.IntValue(v))
}

// NewFloatConstant returns a float literal node.
func NewFloatConstant(pos Position, v float64) *Constant {
	return NewConstant(pos, types.FloatValue(v))
}

// NewBoolConstant returns a bool literal node.
func NewBoolConstant(pos Position, v bool) *Constant {
	return NewConstant(pos, types.BoolValue(v))
}

// NewStringConstant returns a string literal node.
func NewStringConstant(pos Position, s string) *Constant {
	return NewConstant(pos, types.StringValue(s))
}

// NewNameConstant returns a name literal node.
func NewNameConstant(pos Position, s string) *Constant {
	return NewConstant(pos, types.NameValue(types.NewName(s)))
}

// NewNullConstant returns the null pointer literal.
func NewNullConstant(pos Position) *Constant {
	return NewConstant(pos, types.AddrValue(types.TypeNullPtr, nil))
}

func (e *Constant) Resolve(ctx *Context) (Expression, error) {
	e.checkResolved()
	return e, nil
}

func (e *Constant) Emit(b *Build) Loc {
	return ConstLoc(b, e.Value)
}
