package solver

import "testing"

func TestArenaAlloc(t *testing.T) {
	var ar arena
	lits := []Lit{IntToLit(1), IntToLit(-2), IntToLit(3)}
	cr := ar.alloc(lits, false)
	c := ar.clause(cr)
	if c.Len() != 3 {
		t.Fatalf("expected size 3, got %d", c.Len())
	}
	for i, l := range lits {
		if c.Get(i) != l {
			t.Errorf("lit %d: expected %v, got %v", i, l, c.Get(i))
		}
	}
	if c.learnt() {
		t.Errorf("clause should not be learnt")
	}
	if c.abstraction() == 0 {
		t.Errorf("original clause should carry an abstraction")
	}

	lr := ar.alloc(lits, true)
	lc := ar.clause(lr)
	if !lc.learnt() {
		t.Errorf("clause should be learnt")
	}
	if lc.activity() != 0 {
		t.Errorf("fresh learnt clause should have activity 0")
	}
	lc.setActivity(2.5)
	if lc.activity() != 2.5 {
		t.Errorf("activity not stored, got %f", lc.activity())
	}
	// The first clause is untouched by the second allocation:
	if c.Len() != 3 || c.Get(1) != IntToLit(-2) {
		t.Errorf("allocation corrupted a previous clause")
	}
}

func TestArenaPop(t *testing.T) {
	var ar arena
	cr := ar.alloc([]Lit{IntToLit(1), IntToLit(2), IntToLit(3)}, true)
	c := ar.clause(cr)
	c.setActivity(1.5)
	c.pop()
	if c.Len() != 2 {
		t.Fatalf("expected size 2 after pop, got %d", c.Len())
	}
	if c.activity() != 1.5 {
		t.Errorf("pop lost the extra word: activity %f", c.activity())
	}
	if ar.wasted != 1 {
		t.Errorf("expected 1 wasted unit, got %d", ar.wasted)
	}
}

func TestArenaReloc(t *testing.T) {
	var ar arena
	ar.alloc([]Lit{IntToLit(9), IntToLit(10)}, false) // dead weight
	cr := ar.alloc([]Lit{IntToLit(1), IntToLit(-2)}, false)

	to := arena{}
	moved := cr
	ar.reloc(&moved, &to)
	if moved == cr && len(to.data) == 0 {
		t.Fatalf("clause not moved")
	}
	c := to.clause(moved)
	if c.Len() != 2 || c.Get(0) != IntToLit(1) || c.Get(1) != IntToLit(-2) {
		t.Errorf("relocated clause corrupted: %v", c.lits())
	}
	// A second reloc of the same origin follows the forwarding offset:
	other := cr
	ar.reloc(&other, &to)
	if other != moved {
		t.Errorf("forwarding offset not honored: %d vs %d", other, moved)
	}
}

// Forcing a collection between two solver operations must not change the
// outcome.
func TestGCTransparency(t *testing.T) {
	run := func(gc bool) (Status, int64) {
		s := ParseSlice(pigeons(6, 5))
		s.AssignLiteral(1)
		if gc {
			s.garbageCollect()
		}
		if err := s.Backtrack(1); err != nil {
			t.Fatalf("backtrack failed: %v", err)
		}
		if gc {
			s.garbageCollect()
		}
		status := s.Solve()
		return status, s.Stats.NbConflicts
	}
	st1, confl1 := run(false)
	st2, confl2 := run(true)
	if st1 != st2 || confl1 != confl2 {
		t.Errorf("garbage collection changed the outcome: %v/%d vs %v/%d", st1, confl1, st2, confl2)
	}
}

// After a collection triggered by clause removal, every held reference must
// point at a live clause.
func TestGCAfterReduce(t *testing.T) {
	s := ParseSlice(pigeons(6, 5))
	if status := s.Solve(); status != Unsat {
		t.Fatalf("expected Unsat, got %v", status)
	}
	s2 := ParseSlice(pigeons(6, 5))
	s2.opts.GcFrac = 0.01 // Collect aggressively
	if status := s2.Solve(); status != Unsat {
		t.Fatalf("expected Unsat with aggressive GC, got %v", status)
	}
	if s.Stats.NbConflicts != s2.Stats.NbConflicts {
		t.Errorf("GC frequency changed the search: %d vs %d conflicts", s.Stats.NbConflicts, s2.Stats.NbConflicts)
	}
	for _, cr := range s2.clauses {
		if s2.isRemoved(cr) || s2.ca.clause(cr).reloced() {
			t.Errorf("clause reference %d is stale after GC", cr)
		}
	}
}
