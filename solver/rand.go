package solver

// A tiny multiplicative congruential generator. Search trajectories must be
// reproducible from the seed alone, so the solver does not use math/rand.
type rng struct {
	seed float64
}

// float returns a pseudo-random float in [0, 1).
func (r *rng) float() float64 {
	r.seed *= 1389796
	q := int(r.seed / 2147483647)
	r.seed -= float64(q) * 2147483647
	return r.seed / 2147483647
}

// intn returns a pseudo-random int in [0, size).
func (r *rng) intn(size int) int {
	return int(r.float() * float64(size))
}
