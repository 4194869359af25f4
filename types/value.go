package types

import (
	"fmt"
	"strconv"
)

// Value is a tagged compile-time constant. The Type field selects which
// payload is meaningful; the accessors apply the same conversions the
// runtime cast opcodes perform, so constant folding and emitted code agree.
type Value struct {
	Type  *Type
	Int   int32
	Float float64
	Str   string
	Addr  any
}

// IntValue returns an int constant.
func IntValue(v int32) Value { return Value{Type: TypeInt, Int: v} }

// FloatValue returns a float constant.
func FloatValue(v float64) Value { return Value{Type: TypeFloat, Float: v} }

// BoolValue returns a bool constant, stored as 0/1 in the int payload.
func BoolValue(v bool) Value {
	i := int32(0)
	if v {
		i = 1
	}
	return Value{Type: TypeBool, Int: i}
}

// StringValue returns a string constant.
func StringValue(s string) Value { return Value{Type: TypeString, Str: s} }

// NameValue returns an interned-name constant.
func NameValue(n Name) Value { return Value{Type: TypeName, Int: int32(n)} }

// SoundValue returns a sound-handle constant.
func SoundValue(id int32) Value { return Value{Type: TypeSound, Int: id} }

// ColorValue returns a color constant.
func ColorValue(c int32) Value { return Value{Type: TypeColor, Int: c} }

// AddrValue returns a tagged-address constant of the given pointer type.
func AddrValue(t *Type, addr any) Value { return Value{Type: t, Addr: addr} }

// GetInt converts the value to an integer. Floats truncate toward zero,
// exactly as the runtime float-to-int cast does.
func (v Value) GetInt() int32 {
	if v.Type.RegType() == RegFloat {
		return int32(v.Float)
	}
	return v.Int
}

// GetFloat converts the value to a float.
func (v Value) GetFloat() float64 {
	if v.Type.RegType() == RegInt {
		return float64(v.Int)
	}
	return v.Float
}

// GetBool tests the value against the zero/null of its register class.
func (v Value) GetBool() bool {
	switch v.Type.RegType() {
	case RegInt:
		return v.Int != 0
	case RegFloat:
		return v.Float != 0
	case RegString:
		return v.Str != ""
	case RegPointer:
		return v.Addr != nil
	}
	return false
}

// GetName returns the value as an interned name. Strings intern on demand.
func (v Value) GetName() Name {
	if v.Type.RegType() == RegString {
		return NewName(v.Str)
	}
	return Name(v.Int)
}

// GetString returns the value as a string. Names convert to their text.
func (v Value) GetString() string {
	if v.Type == TypeName {
		return Name(v.Int).String()
	}
	return v.Str
}

// IsZero reports whether the value is the zero of its class. Used to detect
// constant division by zero at compile time.
func (v Value) IsZero() bool { return !v.GetBool() }

func (v Value) String() string {
	switch v.Type.RegType() {
	case RegFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case RegString:
		return strconv.Quote(v.Str)
	case RegPointer:
		if v.Addr == nil {
			return "null"
		}
		return fmt.Sprintf("%v", v.Addr)
	}
	if v.Type == TypeName {
		return "'" + Name(v.Int).String() + "'"
	}
	return strconv.FormatInt(int64(v.Int), 10)
}
