package codegen

import (
	"zsc/types"
	"zsc/vm"
)

// BoolCast converts any numeric or pointer value to a bool by testing it
// against the zero of its register class.
type BoolCast struct {
	expBase
	Operand Expression
}

// NewBoolCast wraps x in a to-bool conversion.
func NewBoolCast(x Expression) *BoolCast {
	c := &BoolCast{Operand: x}
	c.pos = x.Pos()
	c.typ = types.TypeBool
	return c
}

func (e *BoolCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t == types.TypeBool {
		return e.Operand, nil
	}
	if !t.IsNumeric() && !t.IsPointer() {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to bool", t)
	}
	if IsConstant(e.Operand) {
		return NewBoolConstant(e.pos, ConstValueOf(e.Operand).GetBool()), nil
	}
	return e, nil
}

func (e *BoolCast) Emit(b *Build) Loc {
	from := e.Operand.Emit(b)
	// The result register is written before the operand is read, so the
	// operand cannot be freed until the sequence is complete.
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_LI, to.Reg, 0, 0)
	switch from.Class {
	case types.RegInt:
		b.Emit(vm.OP_EQ_K, 1, from.Reg, b.GetConstantInt(0))
	case types.RegFloat:
		b.Emit(vm.OP_EQF_K, 1, from.Reg, b.GetConstantFloat(0))
	case types.RegPointer:
		b.Emit(vm.OP_EQA_K, 1, from.Reg, b.GetConstantAddress(nil, vm.ATAG_GENERIC))
	}
	b.Emit(vm.OP_JMP, 1, 0, 0)
	b.Emit(vm.OP_LI, to.Reg, 1, 0)
	from.Free(b)
	return to
}

// IntCast converts to int. Floats truncate toward zero; integer-class
// values reinterpret in place. NoWarn suppresses the truncation warning at
// call sites that truncate deliberately.
type IntCast struct {
	expBase
	Operand Expression
	NoWarn  bool
	// Explicit marks a source-level cast, which accepts more source types
	// than an implicit coercion.
	Explicit bool
}

// NewIntCast wraps x in a to-int conversion.
func NewIntCast(x Expression, nowarn, explicit bool) *IntCast {
	c := &IntCast{Operand: x, NoWarn: nowarn, Explicit: explicit}
	c.pos = x.Pos()
	c.typ = types.TypeInt
	return c
}

func (e *IntCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t == types.TypeInt {
		return e.Operand, nil
	}
	if t == types.TypeName {
		// Legacy scripts used name constants where numbers belong; they
		// read as 0 there, with a warning so the author can fix it.
		if ctx.Lenient() && IsConstant(e.Operand) {
			ctx.Warnf(e.pos, "name %q used as integer, treating as 0",
				ConstValueOf(e.Operand).GetName())
			return NewIntConstant(e.pos, 0), nil
		}
		return nil, ctx.Errorf(e.pos, "cannot convert name to int")
	}
	if !t.IsNumeric() && !e.Explicit {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to int", t)
	}
	if t.RegType() == types.RegInt {
		return e.Operand, nil
	}
	if t.RegType() != types.RegFloat {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to int", t)
	}
	if IsConstant(e.Operand) {
		v := ConstValueOf(e.Operand)
		// Folding must carry the same diagnostic the runtime path would:
		// warn exactly when the constant loses its fraction.
		if !e.NoWarn && float64(v.GetInt()) != v.GetFloat() {
			ctx.Warnf(e.pos, "truncation of floating point value")
		}
		return NewIntConstant(e.pos, v.GetInt()), nil
	}
	if !e.NoWarn {
		ctx.Warnf(e.pos, "truncation of floating point value")
	}
	return e, nil
}

func (e *IntCast) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	from.Free(b)
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_CAST, to.Reg, from.Reg, vm.CAST_F2I)
	return to
}

// FloatCast converts an integer-class numeric value to float.
type FloatCast struct {
	expBase
	Operand Expression
}

// NewFloatCast wraps x in a to-float conversion.
func NewFloatCast(x Expression) *FloatCast {
	c := &FloatCast{Operand: x}
	c.pos = x.Pos()
	c.typ = types.TypeFloat
	return c
}

func (e *FloatCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t.RegType() == types.RegFloat {
		return e.Operand, nil
	}
	if t == types.TypeName {
		if ctx.Lenient() && IsConstant(e.Operand) {
			ctx.Warnf(e.pos, "name %q used as float, treating as 0",
				ConstValueOf(e.Operand).GetName())
			return NewFloatConstant(e.pos, 0), nil
		}
		return nil, ctx.Errorf(e.pos, "cannot convert name to float")
	}
	if !t.IsNumeric() {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to float", t)
	}
	if IsConstant(e.Operand) {
		return NewFloatConstant(e.pos, ConstValueOf(e.Operand).GetFloat()), nil
	}
	return e, nil
}

func (e *FloatCast) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	from.Free(b)
	to := Loc{Reg: b.Registers[types.RegFloat].Get(1), Class: types.RegFloat}
	b.Emit(vm.OP_CAST, to.Reg, from.Reg, vm.CAST_I2F)
	return to
}

// NameCast converts a string to an interned name.
type NameCast struct {
	expBase
	Operand Expression
}

// NewNameCast wraps x in a to-name conversion.
func NewNameCast(x Expression) *NameCast {
	c := &NameCast{Operand: x}
	c.pos = x.Pos()
	c.typ = types.TypeName
	return c
}

func (e *NameCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t == types.TypeName {
		return e.Operand, nil
	}
	if t != types.TypeString {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to name", t)
	}
	if IsConstant(e.Operand) {
		v := ConstValueOf(e.Operand)
		return NewConstant(e.pos, types.NameValue(types.NewName(v.Str))), nil
	}
	return e, nil
}

func (e *NameCast) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	from.Free(b)
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_CAST, to.Reg, from.Reg, vm.CAST_S2N)
	return to
}

// StringCast converts a name or sound back to its text.
type StringCast struct {
	expBase
	Operand Expression
}

// NewStringCast wraps x in a to-string conversion.
func NewStringCast(x Expression) *StringCast {
	c := &StringCast{Operand: x}
	c.pos = x.Pos()
	c.typ = types.TypeString
	return c
}

func (e *StringCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t == types.TypeString {
		return e.Operand, nil
	}
	if t != types.TypeName && t != types.TypeSound {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to string", t)
	}
	if IsConstant(e.Operand) {
		v := ConstValueOf(e.Operand)
		return NewStringConstant(e.pos, types.Name(v.Int).String()), nil
	}
	return e, nil
}

func (e *StringCast) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	from.Free(b)
	to := Loc{Reg: b.Registers[types.RegString].Get(1), Class: types.RegString}
	op := vm.CAST_N2S
	if e.Operand.Type() == types.TypeSound {
		op = vm.CAST_So2S
	}
	b.Emit(vm.OP_CAST, to.Reg, from.Reg, op)
	return to
}

// ColorCast converts a string literal or an integer to a packed color.
type ColorCast struct {
	expBase
	Operand Expression
}

// NewColorCast wraps x in a to-color conversion.
func NewColorCast(x Expression) *ColorCast {
	c := &ColorCast{Operand: x}
	c.pos = x.Pos()
	c.typ = types.TypeColor
	return c
}

func (e *ColorCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t == types.TypeColor {
		return e.Operand, nil
	}
	if t == types.TypeInt {
		if IsConstant(e.Operand) {
			return NewConstant(e.pos, types.ColorValue(ConstValueOf(e.Operand).Int)), nil
		}
		e.Operand = NewReinterpret(e.Operand, types.TypeColor)
		return e.Operand, nil
	}
	if t != types.TypeString {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to color", t)
	}
	if IsConstant(e.Operand) {
		return NewConstant(e.pos, types.ColorValue(vm.ParseColor(ConstValueOf(e.Operand).Str))), nil
	}
	return e, nil
}

func (e *ColorCast) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	from.Free(b)
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_CAST, to.Reg, from.Reg, vm.CAST_S2Co)
	return to
}

// SoundCast converts a string or integer to a sound handle.
type SoundCast struct {
	expBase
	Operand Expression
}

// NewSoundCast wraps x in a to-sound conversion.
func NewSoundCast(x Expression) *SoundCast {
	c := &SoundCast{Operand: x}
	c.pos = x.Pos()
	c.typ = types.TypeSound
	return c
}

func (e *SoundCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t == types.TypeSound {
		return e.Operand, nil
	}
	if t == types.TypeInt {
		if IsConstant(e.Operand) {
			return NewConstant(e.pos, types.SoundValue(ConstValueOf(e.Operand).Int)), nil
		}
		e.Operand = NewReinterpret(e.Operand, types.TypeSound)
		return e.Operand, nil
	}
	if t != types.TypeString {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to sound", t)
	}
	if IsConstant(e.Operand) {
		id := int32(types.NewName(ConstValueOf(e.Operand).Str))
		return NewConstant(e.pos, types.SoundValue(id)), nil
	}
	return e, nil
}

func (e *SoundCast) Emit(b *Build) Loc {
	from := e.Operand.Emit(b).loadToRegister(b)
	from.Free(b)
	to := Loc{Reg: b.Registers[types.RegInt].Get(1), Class: types.RegInt}
	b.Emit(vm.OP_CAST, to.Reg, from.Reg, vm.CAST_S2So)
	return to
}

// Reinterpret retypes a value within the same register class, emitting no
// code. Int-backed handle types convert this way.
type Reinterpret struct {
	expBase
	Operand Expression
}

// NewReinterpret wraps x with a new type of the same register class.
func NewReinterpret(x Expression, t *types.Type) *Reinterpret {
	r := &Reinterpret{Operand: x}
	r.pos = x.Pos()
	r.typ = t
	return r
}

func (e *Reinterpret) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	e.Operand, err = e.Operand.Resolve(ctx)
	return e, err
}

func (e *Reinterpret) Emit(b *Build) Loc {
	return e.Operand.Emit(b)
}

// TypeCast is a source-level cast to an arbitrary target type. Resolution
// dispatches to the specific conversion node.
type TypeCast struct {
	expBase
	Operand Expression
}

// NewTypeCast wraps x in an explicit cast to t.
func NewTypeCast(x Expression, t *types.Type) *TypeCast {
	c := &TypeCast{Operand: x}
	c.pos = x.Pos()
	c.typ = t
	return c
}

func (e *TypeCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	var conv Expression
	switch e.typ {
	case types.TypeBool:
		conv = NewBoolCast(e.Operand)
	case types.TypeInt:
		conv = NewIntCast(e.Operand, false, true)
	case types.TypeFloat:
		conv = NewFloatCast(e.Operand)
	case types.TypeName:
		conv = NewNameCast(e.Operand)
	case types.TypeString:
		conv = NewStringCast(e.Operand)
	case types.TypeColor:
		conv = NewColorCast(e.Operand)
	case types.TypeSound:
		conv = NewSoundCast(e.Operand)
	default:
		if e.typ.Kind == types.KindClassPointer {
			conv = NewClassTypeCast(e.Operand, e.typ.Restriction)
			break
		}
		if e.Operand.Type() == e.typ {
			return e.Operand, nil
		}
		return nil, ctx.Errorf(e.pos, "cannot cast %s to %s", e.Operand.Type(), e.typ)
	}
	return conv.Resolve(ctx)
}

func (e *TypeCast) Emit(b *Build) Loc {
	panic("type cast not replaced during resolution")
}

// ClassTypeCast converts a name or string to a class pointer restricted to
// a base class. Constants resolve at compile time; runtime values go
// through the class lookup builtin.
type ClassTypeCast struct {
	expBase
	Operand Expression
	Base    *types.Class
}

// NewClassTypeCast wraps x in a conversion to class<base>.
func NewClassTypeCast(x Expression, base *types.Class) *ClassTypeCast {
	c := &ClassTypeCast{Operand: x, Base: base}
	c.pos = x.Pos()
	c.typ = types.NewClassPointer(base)
	return c
}

func (e *ClassTypeCast) Resolve(ctx *Context) (Expression, error) {
	if e.checkResolved() {
		return e, nil
	}
	var err error
	if e.Operand, err = e.Operand.Resolve(ctx); err != nil {
		return nil, err
	}
	t := e.Operand.Type()
	if t == e.typ {
		return e.Operand, nil
	}
	if t.Kind == types.KindClassPointer {
		if t.Restriction.IsDescendantOf(e.Base) {
			return NewReinterpret(e.Operand, e.typ).Resolve(ctx)
		}
		return nil, ctx.Errorf(e.pos, "class %s is not a descendant of %s",
			t.Restriction.Name, e.Base.Name)
	}
	if t != types.TypeName && t != types.TypeString {
		return nil, ctx.Errorf(e.pos, "cannot convert %s to class type", t)
	}
	if IsConstant(e.Operand) {
		name := ConstValueOf(e.Operand).GetName()
		if name == types.NameNone || name == types.NewName("none") {
			return NewConstant(e.pos, types.AddrValue(e.typ, nil)), nil
		}
		cls := ctx.Table.Find(name)
		if cls == nil {
			// Legacy scripts reference classes that may not be loaded;
			// those casts yield null at run time.
			if ctx.Lenient() {
				ctx.Warnf(e.pos, "unknown class %q, substituting null", name)
				return NewConstant(e.pos, types.AddrValue(e.typ, nil)), nil
			}
			return nil, ctx.Errorf(e.pos, "unknown class %q", name)
		}
		if !cls.IsDescendantOf(e.Base) {
			return nil, ctx.Errorf(e.pos, "class %s is not a descendant of %s",
				cls.Name, e.Base.Name)
		}
		return NewConstant(e.pos, types.AddrValue(e.typ, cls)), nil
	}
	if t == types.TypeString {
		e.Operand, err = NewNameCast(e.Operand).Resolve(ctx)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *ClassTypeCast) Emit(b *Build) Loc {
	lookup := FindBuiltin("__nametoclass")
	from := e.Operand.Emit(b)
	from.Free(b)
	if from.Konst {
		b.Emit(vm.OP_PARAM, 0, int(types.RegInt)|vm.REGT_KONST, from.Reg)
	} else {
		b.Emit(vm.OP_PARAM, 0, int(types.RegInt), from.Reg)
	}
	b.Emit(vm.OP_PARAM, 0, int(types.RegPointer)|vm.REGT_KONST,
		b.GetConstantAddress(e.Base, vm.ATAG_OBJECT))
	b.Emit(vm.OP_CALL_K, b.GetConstantAddress(lookup, vm.ATAG_FUNCTION), 2, 1)
	to := Loc{Reg: b.Registers[types.RegPointer].Get(1), Class: types.RegPointer}
	b.Emit(vm.OP_RESULT, 0, int(types.RegPointer), to.Reg)
	return to
}
