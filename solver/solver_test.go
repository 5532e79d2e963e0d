package solver

import "testing"

// checkInvariants verifies the structural invariants that must hold on a
// stable solver.
func checkInvariants(t *testing.T, s *Solver) {
	t.Helper()
	if s.qhead > len(s.trail) {
		t.Errorf("qhead %d beyond trail of size %d", s.qhead, len(s.trail))
	}
	for i := 1; i < len(s.trailLim); i++ {
		if s.trailLim[i-1] > s.trailLim[i] {
			t.Errorf("trailLim not monotonic: %v", s.trailLim)
		}
	}
	for i, l := range s.trail {
		r := s.reason(l.Var())
		if r == CRefUndef {
			continue
		}
		c := s.ca.clause(r)
		if c.First() != l {
			t.Errorf("reason of trail entry %d does not start with it", i)
		}
		for k := 1; k < c.Len(); k++ {
			if s.value(c.Get(k)) != Unsat {
				t.Errorf("reason of trail entry %d has non-false literal %d", i, c.Get(k).Int())
			}
		}
	}
	for v, mark := range s.seen {
		if mark != seenUndef {
			t.Errorf("variable %d still marked seen outside analysis", v)
		}
	}
	if s.cflr == CRefUndef {
		for _, cr := range append(append([]ClauseRef{}, s.clauses...), s.learnts...) {
			c := s.ca.clause(cr)
			if c.mark() == 1 || s.satisfied(c) {
				continue
			}
			if s.value(c.First()) == Unsat && s.value(c.Second()) == Unsat {
				t.Errorf("attached clause %v has both watches false", c.lits())
			}
		}
	}
}

// checkModel verifies that the last model satisfies every original clause.
func checkModel(t *testing.T, s *Solver, cnf [][]int) {
	t.Helper()
	for _, clause := range cnf {
		ok := false
		for _, l := range clause {
			if s.ModelValue(l) {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("model does not satisfy clause %v", clause)
		}
	}
}

func TestTrivialSat(t *testing.T) {
	s := New()
	for i := 0; i < 6; i++ {
		s.NewVar(Indet, true)
	}
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected Sat on the empty problem, got %v", status)
	}
	if len(s.Model()) != 6 {
		t.Errorf("expected a model over 6 vars, got %v", s.Model())
	}
	checkInvariants(t, s)
}

func TestRootConflict(t *testing.T) {
	s := New()
	s.AddClauseInts(1)
	s.AddClauseInts(-1)
	if status := s.Solve(); status != Unsat {
		t.Fatalf("expected Unsat, got %v", status)
	}
	if s.Stats.NbDecisions != 0 {
		t.Errorf("expected no decision on a root conflict, got %d", s.Stats.NbDecisions)
	}
	if s.Ok() {
		t.Errorf("solver should be permanently infeasible")
	}
	// Subsequent calls keep answering Unsat immediately.
	if status := s.Solve(); status != Unsat {
		t.Errorf("expected Unsat on the second call, got %v", status)
	}
}

func TestSimpleSat(t *testing.T) {
	cnf := [][]int{{1}, {-2, 3}, {-2, 4}, {-5, 3}, {-5, 6}, {-7, 3}, {-7, 8}, {-9, 10}, {-9, 4}, {-1, 10}, {-1, 6}, {3, 10}, {-3, -10}, {4, 6, 8}}
	s := ParseSlice(cnf)
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected Sat, got %v", status)
	}
	checkModel(t, s, cnf)
	checkInvariants(t, s)
}

// pigeons returns the clauses stating that p pigeons fit into h holes.
func pigeons(p, h int) [][]int {
	v := func(pigeon, hole int) int { return (pigeon-1)*h + hole }
	var cnf [][]int
	for pigeon := 1; pigeon <= p; pigeon++ {
		clause := make([]int, h)
		for hole := 1; hole <= h; hole++ {
			clause[hole-1] = v(pigeon, hole)
		}
		cnf = append(cnf, clause)
	}
	for hole := 1; hole <= h; hole++ {
		for p1 := 1; p1 <= p; p1++ {
			for p2 := p1 + 1; p2 <= p; p2++ {
				cnf = append(cnf, []int{-v(p1, hole), -v(p2, hole)})
			}
		}
	}
	return cnf
}

func TestPigeonhole(t *testing.T) {
	s := ParseSlice(pigeons(5, 4))
	if status := s.Solve(); status != Unsat {
		t.Fatalf("expected Unsat for 5 pigeons in 4 holes, got %v", status)
	}
	if s.Stats.NbConflicts == 0 {
		t.Errorf("expected a non-trivial search")
	}
}

func TestRestartDeterminism(t *testing.T) {
	run := func() (Status, int64, []bool) {
		s := ParseSlice(pigeons(6, 5))
		status := s.Solve()
		return status, s.Stats.NbConflicts, nil
	}
	st1, confl1, _ := run()
	st2, confl2, _ := run()
	if st1 != st2 || confl1 != confl2 {
		t.Errorf("two identical runs diverged: %v/%d vs %v/%d", st1, confl1, st2, confl2)
	}

	runSat := func() (Status, int64, []bool) {
		cnf := pigeons(5, 5)
		s := ParseSlice(cnf)
		status := s.Solve()
		return status, s.Stats.NbConflicts, s.Model()
	}
	st1, confl1, m1 := runSat()
	st2, confl2, m2 := runSat()
	if st1 != Sat || st2 != Sat || confl1 != confl2 {
		t.Fatalf("two identical runs diverged: %v/%d vs %v/%d", st1, confl1, st2, confl2)
	}
	for i := range m1 {
		if m1[i] != m2[i] {
			t.Errorf("models diverge at var %d", i+1)
		}
	}
}

func TestConflictBudget(t *testing.T) {
	s := ParseSlice(pigeons(7, 6))
	s.ConflictBudget = 1
	if status := s.Solve(); status != Indet {
		t.Fatalf("expected Indet on an exhausted budget, got %v", status)
	}
	if s.decisionLevel() != 0 {
		t.Errorf("solver should be back at root after an aborted solve")
	}
	// The solver stays usable:
	s.ConflictBudget = -1
	if status := s.Solve(); status != Unsat {
		t.Errorf("expected Unsat after lifting the budget, got %v", status)
	}
}

func TestInterrupt(t *testing.T) {
	s := ParseSlice(pigeons(7, 6))
	s.Interrupt()
	if status := s.Solve(); status != Indet {
		t.Fatalf("expected Indet on an interrupted solver, got %v", status)
	}
	s.ClearInterrupt()
	if status := s.Solve(); status != Unsat {
		t.Errorf("expected Unsat after clearing the interrupt, got %v", status)
	}
}

func TestAssumptions(t *testing.T) {
	s := ParseSlice([][]int{{1, 2}, {-1, 3}})
	s.SetAssumptions([]Lit{IntToLit(-3)})
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected Sat under assumption -3, got %v", status)
	}
	if s.ModelValue(3) {
		t.Errorf("assumption -3 not honored in model")
	}
	if s.ModelValue(1) {
		t.Errorf("expected 1 false: 1 implies 3")
	}

	s = ParseSlice([][]int{{1}, {-1, 3}})
	s.SetAssumptions([]Lit{IntToLit(-3)})
	if status := s.Solve(); status != Unsat {
		t.Fatalf("expected Unsat under assumption -3, got %v", status)
	}
	if s.Ok() != true {
		t.Errorf("an assumption failure must not make the solver permanently infeasible")
	}
	if len(s.conflict) == 0 {
		t.Errorf("expected a final conflict over the assumptions")
	}
}

func TestImplies(t *testing.T) {
	s := ParseSlice([][]int{{-1, 2}, {-2, 3}})
	implied, ok := s.Implies([]Lit{IntToLit(1)})
	if !ok {
		t.Fatalf("assumption 1 should be consistent")
	}
	got := map[int]bool{}
	for _, l := range implied {
		got[l.Int()] = true
	}
	if !got[2] || !got[3] {
		t.Errorf("expected 2 and 3 implied by 1, got %v", implied)
	}
	if s.decisionLevel() != 0 {
		t.Errorf("Implies must restore the root level")
	}
}

func TestReleaseVar(t *testing.T) {
	s := New()
	for i := 0; i < 4; i++ {
		s.NewVar(Indet, true)
	}
	s.AddClauseInts(1, 2)
	s.ReleaseVar(IntToLit(3))
	if !s.simplify() {
		t.Fatalf("simplify failed")
	}
	v := s.NewVar(Indet, true)
	if v != 2 {
		t.Errorf("expected released var 2 to be recycled, got %d", v)
	}
	if status := s.Solve(); status != Sat {
		t.Errorf("expected Sat, got %v", status)
	}
}

func TestUserPolarity(t *testing.T) {
	s := New()
	s.NewVar(Sat, true)
	s.NewVar(Unsat, true)
	if status := s.Solve(); status != Sat {
		t.Fatalf("expected Sat, got %v", status)
	}
	if !s.ModelValue(1) || s.ModelValue(2) {
		t.Errorf("user polarities not honored: got %v", s.Model())
	}
}
