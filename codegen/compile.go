package codegen

import (
	"fmt"

	"zsc/types"
	"zsc/vm"
)

// CompileFunction resolves body and emits it as the implementation of fn.
// paramNames gives the explicit parameters their in-scope names, matching
// fn.Params by position. The compiled function is stored in fn.Impl so
// resolved calls to fn can reach it.
func CompileFunction(table *types.ClassTable, cls *types.Class, fn *types.Function,
	paramNames []string, body Expression, dialect Dialect) (*vm.Function, *Diagnostics, error) {

	if len(paramNames) != len(fn.Params) {
		return nil, nil, fmt.Errorf("%s: %d parameter names for %d parameters",
			fn.Name, len(paramNames), len(fn.Params))
	}
	ctx := NewContext(table, cls, fn, dialect)

	// Parameters enter scope as pre-resolved locals; their registers are
	// claimed before the body emits so the calling convention lines up.
	decls := make([]*LocalVariableDeclaration, len(fn.Params))
	for i, p := range fn.Params {
		d := &LocalVariableDeclaration{Name: types.NewName(paramNames[i]), VarType: p.Type}
		d.typ = types.TypeVoid
		d.resolved = true
		decls[i] = d
		ctx.PushLocal(d)
	}

	body, err := body.Resolve(ctx)
	if err != nil {
		return nil, ctx.Diag, err
	}
	if ctx.Diag.HasErrors() {
		return nil, ctx.Diag, ctx.Diag.Messages[0]
	}

	// Recursive calls emit the function's own address before Finish runs,
	// so the address constant points at a shell filled in afterwards.
	shell := &vm.Function{}
	fn.Impl = shell

	build := NewBuild(fn)
	for _, d := range decls {
		d.RegNum = build.Registers[d.VarType.RegType()].Get(1)
	}
	emitStatement(build, body)
	// A function falling off its end returns nothing.
	build.Emit(vm.OP_RET, vm.RET_FINAL, vm.REGT_NIL, 0)

	f, err := build.Finish(fn.Name, build.NumImplicits+len(fn.Params))
	if err != nil {
		fn.Impl = nil
		return nil, ctx.Diag, err
	}
	f.IsAction = fn.Flags&types.FlagAction != 0
	if len(fn.Returns) == 0 {
		fn.Returns = ctx.ReturnProto()
	}
	*shell = *f
	return shell, ctx.Diag, nil
}

// CompileExpression compiles a bare expression into a function returning
// its value, the form the conformance harness and tests consume.
func CompileExpression(table *types.ClassTable, expr Expression, dialect Dialect) (*vm.Function, *Diagnostics, error) {
	fn := &types.Function{Name: types.NewName("<expr>"), Flags: types.FlagStatic}
	body := NewReturnStatement(expr.Pos(), expr)
	return CompileFunction(table, nil, fn, nil, body, dialect)
}
