package codegen

import (
	"zsc/types"
)

// coerceTo converts x to the expected type t, inserting the appropriate
// cast node or failing when no conversion exists. This is the implicit
// conversion used by assignments, arguments and returns.
func coerceTo(ctx *Context, x Expression, t *types.Type) (Expression, error) {
	xt := x.Type()
	if xt == t {
		return x, nil
	}
	switch t {
	case types.TypeBool:
		return NewBoolCast(x).Resolve(ctx)
	case types.TypeInt:
		return NewIntCast(x, false, false).Resolve(ctx)
	case types.TypeFloat:
		return NewFloatCast(x).Resolve(ctx)
	case types.TypeName:
		return NewNameCast(x).Resolve(ctx)
	case types.TypeString:
		return NewStringCast(x).Resolve(ctx)
	case types.TypeColor:
		return NewColorCast(x).Resolve(ctx)
	case types.TypeSound:
		return NewSoundCast(x).Resolve(ctx)
	case types.TypeState:
		if xt == types.TypeNullPtr {
			return NewReinterpret(x, t).Resolve(ctx)
		}
	}
	if t.IsPointer() && xt == types.TypeNullPtr {
		return NewReinterpret(x, t).Resolve(ctx)
	}
	if types.CompatiblePointers(t, xt) {
		return NewReinterpret(x, t).Resolve(ctx)
	}
	if t.Kind == types.KindClassPointer {
		if xt.Kind == types.KindClassPointer || xt == types.TypeName || xt == types.TypeString {
			return NewClassTypeCast(x, t.Restriction).Resolve(ctx)
		}
	}
	return nil, ctx.Errorf(x.Pos(), "cannot convert %s to %s", xt, t)
}
