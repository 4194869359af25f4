package builtins

// RNG is the deterministic pseudo-random source behind the random
// intrinsics. Scripts replay identically for a given seed, which the
// conformance suites rely on.
type RNG struct {
	state uint32
}

// NewRNG returns a source seeded with seed.
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// Seed resets the generator.
func (r *RNG) Seed(seed uint32) { r.state = seed }

func (r *RNG) next() uint32 {
	// Numerical Recipes LCG constants.
	r.state = r.state*1664525 + 1013904223
	return r.state
}

// Random returns a value in [min, max], swapping a reversed range.
func (r *RNG) Random(min, max int32) int32 {
	if max < min {
		min, max = max, min
	}
	span := uint32(max-min) + 1
	if span == 0 {
		return min + int32(r.next())
	}
	return min + int32(r.next()%span)
}

// FRandom returns a value in [min, max).
func (r *RNG) FRandom(min, max float64) float64 {
	if max < min {
		min, max = max, min
	}
	f := float64(r.next()>>8) / (1 << 24)
	return min + f*(max-min)
}

// Random2 returns the difference of two masked draws, a value in
// [-mask, mask].
func (r *RNG) Random2(mask int32) int32 {
	a := int32(r.next()) & mask
	b := int32(r.next()) & mask
	return a - b
}
