package vm

import "fmt"

// RegAlloc hands out registers of one class. Freed registers are reused
// lowest-first so the peak count stays tight; MostUsed is what the function
// header must reserve.
type RegAlloc struct {
	used     []bool
	mostUsed int
}

// Get allocates count consecutive registers and returns the first. Blocks of
// more than one are needed for multi-value parameters and jump tables.
func (ra *RegAlloc) Get(count int) int {
	if count < 1 {
		panic("register request of zero size")
	}
search:
	for first := 0; first+count <= len(ra.used); first++ {
		for i := 0; i < count; i++ {
			if ra.used[first+i] {
				continue search
			}
		}
		for i := 0; i < count; i++ {
			ra.used[first+i] = true
		}
		return first
	}
	first := len(ra.used)
	for i := 0; i < count; i++ {
		ra.used = append(ra.used, true)
	}
	if len(ra.used) > ra.mostUsed {
		ra.mostUsed = len(ra.used)
	}
	return first
}

// Return frees count registers starting at first. Double frees indicate a
// compiler bug and panic immediately rather than corrupting later codegen.
func (ra *RegAlloc) Return(first, count int) {
	for i := 0; i < count; i++ {
		if first+i >= len(ra.used) || !ra.used[first+i] {
			panic(fmt.Sprintf("returning unallocated register %d", first+i))
		}
		ra.used[first+i] = false
	}
}

// Reuse marks a specific register allocated again after it was freed, for
// the destination-reuses-source pattern.
func (ra *RegAlloc) Reuse(reg int) bool {
	if reg < len(ra.used) && ra.used[reg] {
		return false
	}
	for len(ra.used) <= reg {
		ra.used = append(ra.used, false)
	}
	ra.used[reg] = true
	if len(ra.used) > ra.mostUsed {
		ra.mostUsed = len(ra.used)
	}
	return true
}

// MostUsed returns the peak number of simultaneously live registers.
func (ra *RegAlloc) MostUsed() int { return ra.mostUsed }
