package types

// RegType is the register class a value occupies at runtime. Values of
// different classes never share a register pool.
type RegType int

const (
	RegInt     RegType = 0 // 32-bit integers, names, sounds, colors, bools
	RegFloat   RegType = 1 // double-precision floats
	RegString  RegType = 2 // string handles
	RegPointer RegType = 3 // object and raw addresses
	RegNil     RegType = 4 // no register (void results, terminal markers)

	// NumRegClasses is the number of allocatable register classes.
	NumRegClasses = 4
)

func (r RegType) String() string {
	switch r {
	case RegInt:
		return "int"
	case RegFloat:
		return "float"
	case RegString:
		return "string"
	case RegPointer:
		return "pointer"
	case RegNil:
		return "nil"
	}
	return "invalid"
}
