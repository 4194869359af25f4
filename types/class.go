package types

import "fmt"

// Flags qualify fields and functions.
type Flags int

const (
	FlagStatic Flags = 1 << iota
	FlagMethod       // receives the receiver as implicit argument zero
	FlagAction       // receives two extra context pointers beyond the receiver
	FlagReadOnly
	FlagPrivate
	FlagDeprecated
)

// Symbol is anything a class symbol table can hold.
type Symbol interface {
	SymName() Name
}

// ConstSymbol is a named compile-time constant.
type ConstSymbol struct {
	Name  Name
	Value Value
}

func (s *ConstSymbol) SymName() Name { return s.Name }

// Field is an instance member at a fixed byte offset.
type Field struct {
	Name   Name
	Type   *Type
	Offset int
	Flags  Flags
}

func (f *Field) SymName() Name { return f.Name }

// Param describes one declared function parameter.
type Param struct {
	Type    *Type
	Default *Value
}

// Function is a callable symbol. Impl carries the executable form (a
// *vm.Function or native wrapper); the compiler treats it as opaque and only
// emits its address.
type Function struct {
	Name    Name
	Owner   *Class
	Flags   Flags
	Params  []Param // explicit parameters only
	Returns []*Type
	Impl    any
}

func (f *Function) SymName() Name { return f.Name }

// SelfClass returns the class instances of which may receive this function,
// or nil for static functions.
func (f *Function) SelfClass() *Class {
	if f.Flags&FlagStatic != 0 {
		return nil
	}
	return f.Owner
}

// State is one step of a class's state machine.
type State struct {
	Owner *Class
	Index int
	Label string
}

// Class is a nominal type with single inheritance. Symbol lookup walks the
// parent chain.
type Class struct {
	Name    Name
	Parent  *Class
	symbols map[Name]Symbol
	states  map[string]*State

	// InstanceSize is the byte size of an instance, fields included.
	InstanceSize int
}

// NewClass creates a class deriving from parent (nil for a root).
func NewClass(name string, parent *Class) *Class {
	c := &Class{
		Name:    NewName(name),
		Parent:  parent,
		symbols: map[Name]Symbol{},
		states:  map[string]*State{},
	}
	if parent != nil {
		c.InstanceSize = parent.InstanceSize
	}
	return c
}

// IsDescendantOf reports whether c is other or derives from it.
func (c *Class) IsDescendantOf(other *Class) bool {
	for k := c; k != nil; k = k.Parent {
		if k == other {
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether other is c or derives from it.
func (c *Class) IsAncestorOf(other *Class) bool {
	return other != nil && other.IsDescendantOf(c)
}

// AddSymbol installs a symbol, failing on duplicates within the class.
func (c *Class) AddSymbol(s Symbol) error {
	if _, ok := c.symbols[s.SymName()]; ok {
		return fmt.Errorf("duplicate symbol %q in class %s", s.SymName(), c.Name)
	}
	c.symbols[s.SymName()] = s
	return nil
}

// AddField appends a field at the next aligned offset and grows the
// instance size.
func (c *Class) AddField(name string, t *Type, flags Flags) (*Field, error) {
	off := c.InstanceSize
	if t.Align > 0 && off%t.Align != 0 {
		off += t.Align - off%t.Align
	}
	f := &Field{Name: NewName(name), Type: t, Offset: off, Flags: flags}
	if err := c.AddSymbol(f); err != nil {
		return nil, err
	}
	c.InstanceSize = off + t.Size
	return f, nil
}

// AddConst installs a named constant.
func (c *Class) AddConst(name string, v Value) error {
	return c.AddSymbol(&ConstSymbol{Name: NewName(name), Value: v})
}

// AddFunction installs a function and binds its owner.
func (c *Class) AddFunction(f *Function) error {
	f.Owner = c
	return c.AddSymbol(f)
}

// FindSymbol looks name up in c and, when inherit is set, its ancestors.
// The second result is the class whose table held the symbol, which callers
// need for visibility checks.
func (c *Class) FindSymbol(name Name, inherit bool) (Symbol, *Class) {
	for k := c; k != nil; k = k.Parent {
		if s, ok := k.symbols[name]; ok {
			return s, k
		}
		if !inherit {
			break
		}
	}
	return nil, nil
}

// Symbols returns the class's own symbols, parents excluded, in no
// particular order.
func (c *Class) Symbols() []Symbol {
	out := make([]Symbol, 0, len(c.symbols))
	for _, s := range c.symbols {
		out = append(out, s)
	}
	return out
}

// AddState registers a state label.
func (c *Class) AddState(label string, index int) *State {
	s := &State{Owner: c, Index: index, Label: label}
	c.states[label] = s
	return s
}

// FindState resolves a dotted label path against c and its ancestors.
func (c *Class) FindState(labels ...string) *State {
	key := ""
	for i, l := range labels {
		if i > 0 {
			key += "."
		}
		key += l
	}
	for k := c; k != nil; k = k.Parent {
		if s, ok := k.states[key]; ok {
			return s
		}
	}
	return nil
}

// ClassTable is the compiler's view of all known classes plus the global
// constant table.
type ClassTable struct {
	classes map[Name]*Class
	globals map[Name]Symbol
}

// NewClassTable returns an empty table.
func NewClassTable() *ClassTable {
	return &ClassTable{classes: map[Name]*Class{}, globals: map[Name]Symbol{}}
}

// Define creates and registers a class.
func (ct *ClassTable) Define(name string, parent *Class) *Class {
	c := NewClass(name, parent)
	ct.classes[c.Name] = c
	return c
}

// Find returns the class with the given name, or nil.
func (ct *ClassTable) Find(name Name) *Class { return ct.classes[name] }

// AddGlobal installs a global symbol.
func (ct *ClassTable) AddGlobal(s Symbol) { ct.globals[s.SymName()] = s }

// FindGlobal returns the global symbol with the given name, or nil.
func (ct *ClassTable) FindGlobal(name Name) Symbol { return ct.globals[name] }
