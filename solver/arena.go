package solver

import "math"

// Clauses are bump-allocated in a flat region of 32-bit units and referred to
// by their offset. References stay valid until the next garbage collection,
// which copies live clauses to a fresh region and leaves a forwarding offset
// behind the reloc flag of each moved clause.

// A ClauseRef is the offset of a clause within the solver's arena.
type ClauseRef uint32

// CRefUndef is the null clause reference.
const CRefUndef = ClauseRef(0xFFFFFFFF)

// Header layout: 2 bits mark, 1 bit learnt, 1 bit extra, 1 bit reloced,
// 27 bits size. The extra word holds the activity of a learnt clause or the
// abstraction bitmask of an original one.
const (
	hdrMarkMask uint32 = 0x3
	hdrLearnt   uint32 = 1 << 2
	hdrExtra    uint32 = 1 << 3
	hdrReloced  uint32 = 1 << 4
	hdrSizeOff         = 5
	hdrSizeMask uint32 = ^(uint32(1)<<hdrSizeOff - 1)
)

type arena struct {
	data   []uint32
	wasted int
}

// alloc appends a clause to the arena and returns its reference.
func (a *arena) alloc(lits []Lit, learnt bool) ClauseRef {
	cr := ClauseRef(len(a.data))
	hdr := uint32(len(lits))<<hdrSizeOff | hdrExtra
	if learnt {
		hdr |= hdrLearnt
	}
	a.data = append(a.data, hdr)
	for _, l := range lits {
		a.data = append(a.data, uint32(l))
	}
	if learnt {
		a.data = append(a.data, math.Float32bits(0))
	} else {
		a.data = append(a.data, abstraction(lits))
	}
	return cr
}

// allocCopy copies a clause from another arena, header and extra word included.
func (a *arena) allocCopy(c clause) ClauseRef {
	cr := ClauseRef(len(a.data))
	end := uint32(c.ref) + uint32(c.Len()) + 2
	a.data = append(a.data, c.ar.data[c.ref:end]...)
	return cr
}

// free records the units of cr as wasted. The data itself is only reclaimed
// by the next collection.
func (a *arena) free(cr ClauseRef) {
	a.wasted += a.clause(cr).Len() + 2
}

// freeLit records the space of a single shrunk-away literal.
func (a *arena) freeLit() {
	a.wasted++
}

// reloc rewrites cr so that it points into 'to', moving the clause on first
// visit and following the forwarding offset afterwards.
func (a *arena) reloc(cr *ClauseRef, to *arena) {
	c := a.clause(*cr)
	if c.reloced() {
		*cr = c.relocation()
		return
	}
	nr := to.allocCopy(c)
	c.setRelocation(nr)
	*cr = nr
}

func (a *arena) clause(cr ClauseRef) clause {
	return clause{ar: a, ref: cr}
}

// abstraction computes the variable-mod-32 bitmask used to screen subsumption
// candidates.
func abstraction(lits []Lit) uint32 {
	var abs uint32
	for _, l := range lits {
		abs |= 1 << (uint32(l.Var()) & 31)
	}
	return abs
}

// A clause is a cursor into the arena. It is only valid as long as no
// clause is allocated or relocated.
type clause struct {
	ar  *arena
	ref ClauseRef
}

func (c clause) hdr() uint32 {
	return c.ar.data[c.ref]
}

// Len returns the nb of lits in the clause.
func (c clause) Len() int {
	return int(c.hdr() >> hdrSizeOff)
}

// First returns the first lit from the clause.
func (c clause) First() Lit {
	return c.Get(0)
}

// Second returns the second lit from the clause.
func (c clause) Second() Lit {
	return c.Get(1)
}

// Get returns the ith literal from the clause.
func (c clause) Get(i int) Lit {
	return Lit(c.ar.data[int(c.ref)+1+i])
}

// Set sets the ith literal of the clause.
func (c clause) Set(i int, l Lit) {
	c.ar.data[int(c.ref)+1+i] = uint32(l)
}

func (c clause) learnt() bool {
	return c.hdr()&hdrLearnt != 0
}

func (c clause) mark() int {
	return int(c.hdr() & hdrMarkMask)
}

func (c clause) setMark(m int) {
	c.ar.data[c.ref] = c.hdr()&^hdrMarkMask | uint32(m)
}

func (c clause) reloced() bool {
	return c.hdr()&hdrReloced != 0
}

func (c clause) relocation() ClauseRef {
	return ClauseRef(c.ar.data[c.ref+1])
}

func (c clause) setRelocation(to ClauseRef) {
	c.ar.data[c.ref] = c.hdr() | hdrReloced
	c.ar.data[c.ref+1] = uint32(to)
}

func (c clause) extraIdx() int {
	return int(c.ref) + 1 + c.Len()
}

func (c clause) activity() float32 {
	return math.Float32frombits(c.ar.data[c.extraIdx()])
}

func (c clause) setActivity(act float32) {
	c.ar.data[c.extraIdx()] = math.Float32bits(act)
}

func (c clause) abstraction() uint32 {
	return c.ar.data[c.extraIdx()]
}

// pop removes the last literal, keeping the extra word adjacent to the
// shortened run.
func (c clause) pop() {
	n := c.Len()
	extra := c.ar.data[c.extraIdx()]
	c.ar.data[c.ref] = c.hdr()&^hdrSizeMask | uint32(n-1)<<hdrSizeOff
	c.ar.data[int(c.ref)+n] = extra
	c.ar.freeLit()
}

// lits returns a copy of the clause's literals.
func (c clause) lits() []Lit {
	res := make([]Lit, c.Len())
	for i := range res {
		res[i] = c.Get(i)
	}
	return res
}
