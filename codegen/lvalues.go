package codegen

import (
	"math/bits"

	"zsc/types"
	"zsc/vm"
)

// assignable is implemented by expressions that denote a storage location.
// Emit loads the value; EmitStore writes one back.
type assignable interface {
	Expression
	EmitStore(b *Build, val Loc)
	CheckWritable(ctx *Context, pos Position) error
}

func loadOpFor(t *types.Type) vm.OpCode {
	switch t.RegType() {
	case types.RegInt:
		return vm.OP_LW
	case types.RegFloat:
		return vm.OP_LF
	case types.RegString:
		return vm.OP_LS
	case types.RegPointer:
		if t.PointedClass() != nil || t.Kind == types.KindClassPointer {
			return vm.OP_LO
		}
		return vm.OP_LP
	}
	panic("field type has no register class")
}

func storeOpFor(t *types.Type) vm.OpCode {
	switch t.RegType() {
	case types.RegInt:
		return vm.OP_SW
	case types.RegFloat:
		return vm.OP_SF
	case types.RegString:
		return vm.OP_SS
	case types.RegPointer:
		return vm.OP_SP
	}
	panic("field type has no register class")
}

// LocalVariableDeclaration introduces a named register-resident variable.
// The declaration owns the register; the enclosing compound statement
// releases it when the scope ends.
type LocalVariableDeclaration struct {
	expBase
	Name    types.Name
	VarType *types.Type
	Init    Expression

	// RegNum is assigned when the declaration emits.
	RegNum int
}

// NewLocalVariableDeclaration declares name with an optional initializer.
func NewLocalVariableDeclaration(pos Position, name string, t *types.Type, init Expression) *LocalVariableDeclaration {
	d := &LocalVariableDeclaration{Name: types.NewName(name), VarType: t, Init: init}
	d.pos = pos
	d.typ = types.TypeVoid
	return d
}

func (e *LocalVariableDeclaration) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if e.VarType.RegType() >= types.NumRegClasses {
		return nil, ctx.Errorf(e.pos, "cannot declare a local of type %s", e.VarType)
	}
	if e.Init != nil {
		var err error
		if e.Init, err = e.Init.Resolve(ctx); err != nil {
			return nil, err
		}
		if e.Init, err = coerceTo(ctx, e.Init, e.VarType); err != nil {
			return nil, err
		}
	}
	ctx.PushLocal(e)
	return e, nil
}

func (e *LocalVariableDeclaration) Emit(b *Build) Loc {
	e.RegNum = b.Registers[e.VarType.RegType()].Get(1)
	if e.Init != nil {
		val := e.Init.Emit(b)
		moveTo(b, Loc{Reg: e.RegNum, Class: e.VarType.RegType()}, val)
		val.Free(b)
	}
	return Loc{Class: types.RegNil}
}

// Release frees the variable's register at scope exit.
func (e *LocalVariableDeclaration) Release(b *Build) {
	b.Registers[e.VarType.RegType()].Return(e.RegNum, 1)
}

// LocalVariable is a reference to a declared local.
type LocalVariable struct {
	expBase
	Decl *LocalVariableDeclaration
}

// NewLocalVariable references decl.
func NewLocalVariable(pos Position, decl *LocalVariableDeclaration) *LocalVariable {
	e := &LocalVariable{Decl: decl}
	e.pos = pos
	e.typ = decl.VarType
	return e
}

func (e *LocalVariable) Resolve(ctx *Context) (Expression, error) {
	e.checkResolved()
	return e, nil
}

func (e *LocalVariable) Emit(b *Build) Loc {
	return Loc{Reg: e.Decl.RegNum, Class: e.Decl.VarType.RegType(), Fixed: true}
}

func (e *LocalVariable) EmitStore(b *Build, val Loc) {
	moveTo(b, Loc{Reg: e.Decl.RegNum, Class: e.Decl.VarType.RegType()}, val)
}

func (e *LocalVariable) CheckWritable(ctx *Context, pos Position) error { return nil }

// Self is the method receiver, always pointer register 0.
type Self struct {
	expBase
}

// NewSelf references the receiver.
func NewSelf(pos Position) *Self {
	e := &Self{}
	e.pos = pos
	return e
}

func (e *Self) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if ctx.Class == nil || ctx.Func == nil || ctx.Func.Flags&types.FlagStatic != 0 {
		return nil, ctx.Errorf(e.pos, "self used outside a method")
	}
	e.typ = types.NewPointer(types.NewInstance(ctx.Class))
	return e, nil
}

func (e *Self) Emit(b *Build) Loc {
	return Loc{Reg: b.SelfReg(), Class: types.RegPointer, Fixed: true}
}

// Identifier is an unresolved name. Resolution replaces it following the
// lookup order: local variable, class symbol, global symbol.
type Identifier struct {
	expBase
	Name types.Name
}

// NewIdentifier references name.
func NewIdentifier(pos Position, name string) *Identifier {
	e := &Identifier{Name: types.NewName(name)}
	e.pos = pos
	return e
}

func (e *Identifier) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	if decl := ctx.FindLocalVariable(e.Name); decl != nil {
		return NewLocalVariable(e.pos, decl).Resolve(ctx)
	}
	if ctx.Class != nil {
		if sym, holder := ctx.Class.FindSymbol(e.Name, true); sym != nil {
			return symbolExpression(ctx, e.pos, sym, holder, nil)
		}
	}
	if sym := ctx.Table.FindGlobal(e.Name); sym != nil {
		if cs, ok := sym.(*types.ConstSymbol); ok {
			return NewConstant(e.pos, cs.Value), nil
		}
		return nil, ctx.Errorf(e.pos, "global %q is not a value", e.Name)
	}
	if ctx.Lenient() {
		// Legacy scripts are full of misspelled flags; they evaluate to 0.
		ctx.Warnf(e.pos, "unknown identifier %q, treating as 0", e.Name)
		return NewIntConstant(e.pos, 0), nil
	}
	return nil, ctx.Errorf(e.pos, "unknown identifier %q", e.Name)
}

func (e *Identifier) Emit(b *Build) Loc {
	panic("identifier not replaced during resolution")
}

// symbolExpression converts a found class symbol into an expression,
// enforcing visibility. object is the instance expression, or nil for an
// implicit self access.
func symbolExpression(ctx *Context, pos Position, sym types.Symbol, holder *types.Class, object Expression) (Expression, error) {
	switch s := sym.(type) {
	case *types.ConstSymbol:
		return NewConstant(pos, s.Value), nil
	case *types.Field:
		if s.Flags&types.FlagPrivate != 0 && holder != ctx.Class {
			return nil, ctx.Errorf(pos, "field %q is private to %s", s.Name, holder.Name)
		}
		if s.Flags&types.FlagDeprecated != 0 {
			ctx.Warnf(pos, "field %q is deprecated", s.Name)
		}
		if object == nil {
			object = NewSelf(pos)
		}
		return NewClassMember(pos, object, s).Resolve(ctx)
	case *types.Function:
		return nil, ctx.Errorf(pos, "function %q used as a value", s.Name)
	}
	return nil, ctx.Errorf(pos, "symbol %q cannot be used in an expression", sym.SymName())
}

// MemberIdentifier is obj.member before resolution.
type MemberIdentifier struct {
	expBase
	Object Expression
	Member types.Name
}

// NewMemberIdentifier references member on object.
func NewMemberIdentifier(pos Position, object Expression, member string) *MemberIdentifier {
	e := &MemberIdentifier{Object: object, Member: types.NewName(member)}
	e.pos = pos
	return e
}

func (e *MemberIdentifier) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Object, err = e.Object.Resolve(ctx); err != nil {
		return nil, err
	}
	cls := e.Object.Type().PointedClass()
	if cls == nil {
		return nil, ctx.Errorf(e.pos, "member access on non-object type %s", e.Object.Type())
	}
	sym, holder := cls.FindSymbol(e.Member, true)
	if sym == nil {
		if ctx.Lenient() {
			ctx.Warnf(e.pos, "unknown member %q in %s, treating as 0", e.Member, cls.Name)
			return NewIntConstant(e.pos, 0), nil
		}
		return nil, ctx.Errorf(e.pos, "unknown member %q in %s", e.Member, cls.Name)
	}
	return symbolExpression(ctx, e.pos, sym, holder, e.Object)
}

func (e *MemberIdentifier) Emit(b *Build) Loc {
	panic("member identifier not replaced during resolution")
}

// ClassMember is a resolved instance field access through an object
// pointer.
type ClassMember struct {
	expBase
	Object Expression
	Field  *types.Field
}

// NewClassMember accesses field on object.
func NewClassMember(pos Position, object Expression, field *types.Field) *ClassMember {
	e := &ClassMember{Object: object, Field: field}
	e.pos = pos
	e.typ = field.Type
	return e
}

func (e *ClassMember) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Object, err = e.Object.Resolve(ctx); err != nil {
		return nil, err
	}
	if e.Object.Type().PointedClass() == nil {
		return nil, ctx.Errorf(e.pos, "field access on non-object type %s", e.Object.Type())
	}
	return e, nil
}

func (e *ClassMember) Emit(b *Build) Loc {
	obj := e.Object.Emit(b).loadToRegister(b)
	obj.Free(b)
	// Array fields yield their address; element access indexes through it.
	if e.Field.Type.Kind == types.KindArray {
		to := Loc{Reg: b.Registers[types.RegPointer].Get(1), Class: types.RegPointer, Target: true}
		b.Emit(vm.OP_ADDA_RK, to.Reg, obj.Reg, b.GetConstantInt(int32(e.Field.Offset)))
		return to
	}
	cls := e.Field.Type.RegType()
	to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
	b.Emit(loadOpFor(e.Field.Type), to.Reg, obj.Reg, b.GetConstantInt(int32(e.Field.Offset)))
	return to
}

func (e *ClassMember) EmitStore(b *Build, val Loc) {
	obj := e.Object.Emit(b).loadToRegister(b)
	v := val.loadToRegister(b)
	b.Emit(storeOpFor(e.Field.Type), obj.Reg, v.Reg, b.GetConstantInt(int32(e.Field.Offset)))
	if val.Konst {
		v.Free(b)
	}
	obj.Free(b)
}

func (e *ClassMember) CheckWritable(ctx *Context, pos Position) error {
	if e.Field.Flags&types.FlagReadOnly != 0 {
		return ctx.Errorf(pos, "field %q is read-only", e.Field.Name)
	}
	return nil
}

// ArrayElement indexes a fixed-size array field. Constant indices are
// checked at compile time; runtime indices get a bounds-check instruction.
type ArrayElement struct {
	expBase
	Array Expression
	Index Expression
}

// NewArrayElement indexes array with index.
func NewArrayElement(pos Position, array, index Expression) *ArrayElement {
	e := &ArrayElement{Array: array, Index: index}
	e.pos = pos
	return e
}

func (e *ArrayElement) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Array, err = e.Array.Resolve(ctx); err != nil {
		return nil, err
	}
	at := e.Array.Type()
	if at.Kind != types.KindArray {
		return nil, ctx.Errorf(e.pos, "cannot index a value of type %s", at)
	}
	if e.Index, err = NewIntCast(e.Index, false, false).Resolve(ctx); err != nil {
		return nil, err
	}
	if IsConstant(e.Index) {
		idx := ConstValueOf(e.Index).GetInt()
		if idx < 0 || int(idx) >= at.Count {
			return nil, ctx.Errorf(e.pos, "array index %d out of range (size %d)", idx, at.Count)
		}
	}
	e.typ = at.Elem
	return e, nil
}

func (e *ArrayElement) Emit(b *Build) Loc {
	at := e.Array.Type()
	base := e.Array.Emit(b)
	cls := at.Elem.RegType()
	if IsConstant(e.Index) {
		off := ConstValueOf(e.Index).GetInt() * int32(at.Elem.Size)
		base.Free(b)
		to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
		b.Emit(loadOpFor(at.Elem), to.Reg, base.Reg, b.GetConstantInt(off))
		return to
	}
	off := e.emitByteOffset(b, at)
	base.Free(b)
	off.Free(b)
	to := Loc{Reg: b.Registers[cls].Get(1), Class: cls}
	b.Emit(loadOpFor(at.Elem)+1, to.Reg, base.Reg, off.Reg)
	return to
}

func (e *ArrayElement) EmitStore(b *Build, val Loc) {
	at := e.Array.Type()
	base := e.Array.Emit(b)
	v := val.loadToRegister(b)
	if IsConstant(e.Index) {
		off := ConstValueOf(e.Index).GetInt() * int32(at.Elem.Size)
		b.Emit(storeOpFor(at.Elem), base.Reg, v.Reg, b.GetConstantInt(off))
	} else {
		off := e.emitByteOffset(b, at)
		b.Emit(storeOpFor(at.Elem)+1, base.Reg, v.Reg, off.Reg)
		off.Free(b)
	}
	if val.Konst {
		v.Free(b)
	}
	base.Free(b)
}

// emitByteOffset bounds-checks the index and scales it to a byte offset.
// Power-of-two element sizes scale by shift.
func (e *ArrayElement) emitByteOffset(b *Build, at *types.Type) Loc {
	idx := e.Index.Emit(b).loadToRegister(b)
	b.Emit(vm.OP_BOUND, idx.Reg, at.Count, 0)
	size := at.Elem.Size
	if size == 1 {
		return idx
	}
	off := Loc{Reg: idx.Reuse(b), Class: types.RegInt}
	if size&(size-1) == 0 {
		b.Emit(vm.OP_SLL_RI, off.Reg, idx.Reg, bits.TrailingZeros(uint(size)))
	} else {
		b.Emit(vm.OP_MUL_RK, off.Reg, idx.Reg, b.GetConstantInt(int32(size)))
	}
	return off
}

func (e *ArrayElement) CheckWritable(ctx *Context, pos Position) error {
	if a, ok := e.Array.(assignable); ok {
		return a.CheckWritable(ctx, pos)
	}
	return nil
}
