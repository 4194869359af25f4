package types

import "sync"

// Name is an interned symbolic identifier. Two names built from the same
// string always compare equal as integers, which keeps name comparisons and
// name-valued constants cheap. Name 0 is the empty name.
type Name int

// NameNone is the empty name.
const NameNone Name = 0

var nameTable = struct {
	sync.Mutex
	byString map[string]Name
	strings  []string
}{
	byString: map[string]Name{"": NameNone},
	strings:  []string{""},
}

// NewName interns s and returns its Name.
func NewName(s string) Name {
	nameTable.Lock()
	defer nameTable.Unlock()
	if n, ok := nameTable.byString[s]; ok {
		return n
	}
	n := Name(len(nameTable.strings))
	nameTable.strings = append(nameTable.strings, s)
	nameTable.byString[s] = n
	return n
}

func (n Name) String() string {
	nameTable.Lock()
	defer nameTable.Unlock()
	if int(n) < len(nameTable.strings) {
		return nameTable.strings[n]
	}
	return ""
}
