package types

import (
	"fmt"
	"sync"
)

// Kind discriminates the closed set of type shapes the compiler understands.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindFloat
	KindName
	KindString
	KindSound
	KindColor
	KindState
	KindVoid
	KindNull
	KindPointer
	KindClassPointer
	KindClass
	KindArray
	KindStruct
	KindError
)

// Type describes a value type: its register class, storage size/alignment,
// and (for compound types) what it refers to. Predefined types and interned
// pointer types compare by identity.
type Type struct {
	Kind  Kind
	Size  int
	Align int

	name    string
	regType RegType

	// Pointed is the target type for KindPointer.
	Pointed *Type
	// Restriction is the class bound for KindClassPointer.
	Restriction *Class
	// Owner is the class a KindClass type denotes.
	Owner *Class
	// Elem/Count describe KindArray.
	Elem  *Type
	Count int
}

// Predefined types. Bool is a nominally distinct integer; Sound and Color are
// integer-class handles with their own identities so casts can tell them
// apart from plain ints.
var (
	TypeInt     = &Type{Kind: KindInt, name: "int", regType: RegInt, Size: 4, Align: 4}
	TypeBool    = &Type{Kind: KindBool, name: "bool", regType: RegInt, Size: 4, Align: 4}
	TypeFloat   = &Type{Kind: KindFloat, name: "float", regType: RegFloat, Size: 8, Align: 8}
	TypeName    = &Type{Kind: KindName, name: "name", regType: RegInt, Size: 4, Align: 4}
	TypeString  = &Type{Kind: KindString, name: "string", regType: RegString, Size: 8, Align: 8}
	TypeSound   = &Type{Kind: KindSound, name: "sound", regType: RegInt, Size: 4, Align: 4}
	TypeColor   = &Type{Kind: KindColor, name: "color", regType: RegInt, Size: 4, Align: 4}
	TypeState   = &Type{Kind: KindState, name: "state", regType: RegPointer, Size: 8, Align: 8}
	TypeVoid    = &Type{Kind: KindVoid, name: "void", regType: RegNil}
	TypeNullPtr = &Type{Kind: KindNull, name: "null", regType: RegPointer, Size: 8, Align: 8}
	TypeError   = &Type{Kind: KindError, name: "error", regType: RegNil}
)

// RegType reports the register class values of this type occupy.
func (t *Type) RegType() RegType { return t.regType }

// IsNumeric reports whether the type participates in arithmetic. Names are
// integer-class but symbolic, so they are excluded.
func (t *Type) IsNumeric() bool {
	return (t.regType == RegInt || t.regType == RegFloat) && t.Kind != KindName
}

// IsPointer reports whether the type lives in a pointer register.
func (t *Type) IsPointer() bool { return t.regType == RegPointer }

func (t *Type) String() string { return t.name }

var pointerTypes = struct {
	sync.Mutex
	byTarget   map[*Type]*Type
	byClass    map[*Class]*Type
	byInstance map[*Class]*Type
}{
	byTarget:   map[*Type]*Type{},
	byClass:    map[*Class]*Type{},
	byInstance: map[*Class]*Type{},
}

// NewInstance returns the interned type denoting instances of cls.
// Instances are only manipulated through pointers, so the type itself has
// no register class.
func NewInstance(cls *Class) *Type {
	pointerTypes.Lock()
	defer pointerTypes.Unlock()
	if t, ok := pointerTypes.byInstance[cls]; ok {
		return t
	}
	t := &Type{
		Kind:    KindClass,
		name:    cls.Name.String(),
		regType: RegNil,
		Owner:   cls,
	}
	pointerTypes.byInstance[cls] = t
	return t
}

// NewPointer returns the interned pointer-to-target type. Interning keeps
// pointer types comparable by identity, the same way the predefined types
// are.
func NewPointer(target *Type) *Type {
	pointerTypes.Lock()
	defer pointerTypes.Unlock()
	if p, ok := pointerTypes.byTarget[target]; ok {
		return p
	}
	p := &Type{
		Kind:    KindPointer,
		name:    fmt.Sprintf("pointer<%s>", target.name),
		regType: RegPointer,
		Size:    8,
		Align:   8,
		Pointed: target,
	}
	pointerTypes.byTarget[target] = p
	return p
}

// NewClassPointer returns the interned class-pointer type restricted to cls.
func NewClassPointer(cls *Class) *Type {
	pointerTypes.Lock()
	defer pointerTypes.Unlock()
	if p, ok := pointerTypes.byClass[cls]; ok {
		return p
	}
	p := &Type{
		Kind:        KindClassPointer,
		name:        fmt.Sprintf("class<%s>", cls.Name),
		regType:     RegPointer,
		Size:        8,
		Align:       8,
		Restriction: cls,
	}
	pointerTypes.byClass[cls] = p
	return p
}

// NewArray returns an array type of count elements.
func NewArray(elem *Type, count int) *Type {
	return &Type{
		Kind:    KindArray,
		name:    fmt.Sprintf("%s[%d]", elem.name, count),
		regType: RegNil,
		Size:    elem.Size * count,
		Align:   elem.Align,
		Elem:    elem,
		Count:   count,
	}
}

// PointedClass returns the class a pointer type refers to, or nil when the
// type is not a pointer-to-class-instance.
func (t *Type) PointedClass() *Class {
	if t.Kind != KindPointer || t.Pointed == nil {
		return nil
	}
	if t.Pointed.Kind == KindClass {
		return t.Pointed.Owner
	}
	return nil
}

// CompatiblePointers reports whether a value of type src may be used where
// dest is expected without a conversion: identical pointers, or both
// pointers-to-class-instances with src's class a descendant of dest's.
func CompatiblePointers(dest, src *Type) bool {
	if dest.Kind != KindPointer || src.Kind != KindPointer {
		return false
	}
	if dest == src {
		return true
	}
	fromcls, tocls := src.PointedClass(), dest.PointedClass()
	if fromcls != nil && tocls != nil {
		return fromcls.IsDescendantOf(tocls)
	}
	return false
}
