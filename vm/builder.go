package vm

import (
	"fmt"

	"zsc/types"
)

// Builder accumulates instructions and constants for one function. It owns
// the per-class register allocators and the backpatch bookkeeping for
// forward jumps.
type Builder struct {
	Registers [types.NumRegClasses]RegAlloc

	code []Instruction

	kint  []int32
	kflt  []float64
	kstr  []string
	kaddr []Address

	intMap  map[int32]int
	fltMap  map[float64]int
	strMap  map[string]int
	addrMap map[addrKey]int

	unpatched map[int]bool
}

type addrKey struct {
	value any
	tag   int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		intMap:    map[int32]int{},
		fltMap:    map[float64]int{},
		strMap:    map[string]int{},
		addrMap:   map[addrKey]int{},
		unpatched: map[int]bool{},
	}
}

// Emit appends an instruction and returns its position.
func (b *Builder) Emit(op OpCode, a, bb, c int) int {
	if op == OP_JMP && a == 0 {
		// A zero offset is a placeholder awaiting Backpatch.
		b.unpatched[len(b.code)] = true
	}
	b.code = append(b.code, Instruction{Op: op, A: a, B: bb, C: c})
	return len(b.code) - 1
}

// EmitLoadInt loads value into int register reg with the shortest encoding.
func (b *Builder) EmitLoadInt(reg int, value int32) {
	if value >= -32768 && value <= 32767 {
		b.Emit(OP_LI, reg, int(value), 0)
	} else {
		b.Emit(OP_LK, reg, b.GetConstantInt(value), 0)
	}
}

// EmitParamInt passes an integer argument, preferring the immediate form.
func (b *Builder) EmitParamInt(value int32) {
	if value >= -32768 && value <= 32767 {
		b.Emit(OP_PARAMI, int(value), 0, 0)
	} else {
		b.Emit(OP_PARAM, 0, int(types.RegInt)|REGT_KONST, b.GetConstantInt(value))
	}
}

// EmitRetInt returns an integer value at the given result index.
func (b *Builder) EmitRetInt(index int, final bool, value int32) {
	flags := 0
	if final {
		flags = RET_FINAL
	}
	if value >= -32768 && value <= 32767 {
		b.Emit(OP_RETI, index|flags, int(value), 0)
	} else {
		b.Emit(OP_RET, index|flags, int(types.RegInt)|REGT_KONST, b.GetConstantInt(value))
	}
}

// GetConstantInt returns the pool index of value, adding it once.
func (b *Builder) GetConstantInt(value int32) int {
	if i, ok := b.intMap[value]; ok {
		return i
	}
	i := len(b.kint)
	b.kint = append(b.kint, value)
	b.intMap[value] = i
	return i
}

// GetConstantFloat returns the pool index of value, adding it once.
func (b *Builder) GetConstantFloat(value float64) int {
	if i, ok := b.fltMap[value]; ok {
		return i
	}
	i := len(b.kflt)
	b.kflt = append(b.kflt, value)
	b.fltMap[value] = i
	return i
}

// GetConstantString returns the pool index of value, adding it once.
func (b *Builder) GetConstantString(value string) int {
	if i, ok := b.strMap[value]; ok {
		return i
	}
	i := len(b.kstr)
	b.kstr = append(b.kstr, value)
	b.strMap[value] = i
	return i
}

// GetConstantAddress returns the pool index of the tagged pointer, adding it
// once. Deduplication keys on both value and tag.
func (b *Builder) GetConstantAddress(value any, tag int) int {
	key := addrKey{value: value, tag: tag}
	if i, ok := b.addrMap[key]; ok {
		return i
	}
	i := len(b.kaddr)
	b.kaddr = append(b.kaddr, Address{Value: value, Tag: tag})
	b.addrMap[key] = i
	return i
}

// Position returns the index the next instruction will occupy.
func (b *Builder) Position() int { return len(b.code) }

// Backpatch points the jump at loc to the instruction at target. Offsets
// are relative to the instruction after the jump.
func (b *Builder) Backpatch(loc, target int) {
	if loc < 0 || loc >= len(b.code) || b.code[loc].Op != OP_JMP {
		panic(fmt.Sprintf("backpatch target %d is not a jump", loc))
	}
	b.code[loc].A = target - (loc + 1)
	delete(b.unpatched, loc)
}

// BackpatchToHere points the jump at loc to the next emitted instruction.
func (b *Builder) BackpatchToHere(loc int) {
	b.Backpatch(loc, len(b.code))
}

// BackpatchList patches every jump in locs to the next emitted instruction.
func (b *Builder) BackpatchList(locs []int) {
	for _, loc := range locs {
		b.BackpatchToHere(loc)
	}
}

// Finish seals the builder into a Function. It fails if any placeholder
// jump was never patched, which would leave an infinite self-loop in the
// emitted code.
func (b *Builder) Finish(name types.Name, numParams int) (*Function, error) {
	if len(b.unpatched) > 0 {
		for loc := range b.unpatched {
			return nil, fmt.Errorf("unresolved jump at instruction %d in %s", loc, name)
		}
	}
	f := &Function{
		Name:      name,
		Code:      b.code,
		KInt:      b.kint,
		KFloat:    b.kflt,
		KString:   b.kstr,
		KAddress:  b.kaddr,
		NumParams: numParams,
	}
	for i := range b.Registers {
		f.NumRegs[i] = b.Registers[i].MostUsed()
	}
	return f, nil
}
