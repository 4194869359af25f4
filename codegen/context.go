package codegen

import (
	"zsc/types"
)

// Dialect selects how forgiving resolution is. The lenient dialect exists
// for legacy scripts: unknown identifiers degrade to constants with a
// warning instead of failing the compile.
type Dialect int

const (
	DialectStrict Dialect = iota
	DialectLenient
)

// Context carries everything resolution needs: the class table, the
// function being compiled, the diagnostics sink, and the scope stacks for
// locals and enclosing loops.
type Context struct {
	Table   *types.ClassTable
	Class   *types.Class
	Func    *types.Function
	Dialect Dialect
	Diag    *Diagnostics

	locals []*LocalVariableDeclaration
	loop   *loopBase

	// returnProto accumulates the function's return types from its return
	// statements when the declaration leaves them open.
	returnProto    []*types.Type
	returnProtoSet bool
}

// NewContext returns a context for compiling one function of cls.
func NewContext(table *types.ClassTable, cls *types.Class, fn *types.Function, dialect Dialect) *Context {
	ctx := &Context{
		Table:   table,
		Class:   cls,
		Func:    fn,
		Dialect: dialect,
		Diag:    &Diagnostics{},
	}
	if fn != nil && len(fn.Returns) > 0 {
		ctx.returnProto = fn.Returns
		ctx.returnProtoSet = true
	}
	return ctx
}

// Lenient reports whether legacy fallback behavior is active.
func (ctx *Context) Lenient() bool { return ctx.Dialect == DialectLenient }

// Errorf records and returns an error diagnostic.
func (ctx *Context) Errorf(pos Position, format string, args ...any) error {
	return ctx.Diag.Errorf(pos, format, args...)
}

// Warnf records a warning diagnostic.
func (ctx *Context) Warnf(pos Position, format string, args ...any) {
	ctx.Diag.Warnf(pos, format, args...)
}

// PushLocal brings a declaration into scope.
func (ctx *Context) PushLocal(decl *LocalVariableDeclaration) {
	ctx.locals = append(ctx.locals, decl)
}

// PopLocal removes the innermost declaration, which must be decl.
func (ctx *Context) PopLocal(decl *LocalVariableDeclaration) {
	if len(ctx.locals) == 0 || ctx.locals[len(ctx.locals)-1] != decl {
		panic("local scope stack out of order")
	}
	ctx.locals = ctx.locals[:len(ctx.locals)-1]
}

// LocalsMark returns a scope marker for ReleaseLocals.
func (ctx *Context) LocalsMark() int { return len(ctx.locals) }

// ReleaseLocals drops every declaration pushed since the marker was taken.
func (ctx *Context) ReleaseLocals(mark int) { ctx.locals = ctx.locals[:mark] }

// FindLocalVariable returns the innermost declaration of name, or nil.
func (ctx *Context) FindLocalVariable(name types.Name) *LocalVariableDeclaration {
	for i := len(ctx.locals) - 1; i >= 0; i-- {
		if ctx.locals[i].Name == name {
			return ctx.locals[i]
		}
	}
	return nil
}

// EnclosingLoop returns the innermost loop being resolved, or nil.
func (ctx *Context) EnclosingLoop() *loopBase { return ctx.loop }

// CheckReturn validates one return statement's types against the function's
// prototype, inferring the prototype from the first return when the
// declaration left it open.
func (ctx *Context) CheckReturn(pos Position, ts []*types.Type) error {
	if !ctx.returnProtoSet {
		ctx.returnProto = ts
		ctx.returnProtoSet = true
		return nil
	}
	if len(ts) != len(ctx.returnProto) {
		return ctx.Errorf(pos, "incorrect number of return values: have %d, want %d",
			len(ts), len(ctx.returnProto))
	}
	for i, t := range ts {
		if t != ctx.returnProto[i] {
			return ctx.Errorf(pos, "return value %d has type %s, want %s",
				i, t, ctx.returnProto[i])
		}
	}
	return nil
}

// ReturnProto returns the function's (possibly inferred) return types.
func (ctx *Context) ReturnProto() []*types.Type { return ctx.returnProto }
