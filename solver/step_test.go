package solver

import (
	"testing"
	"time"
)

// The stepwise flow mirrors the way an external agent co-drives the search:
// assign, inspect propagations, backtrack, learn from conflicts.
func TestStepwiseFlow(t *testing.T) {
	s := ParseSlice([][]int{{-1, 2}, {-2, 3}, {-3, 4}, {3, 4}})

	res := s.AssignLiteral(1)
	if res.Status != StatusSat {
		t.Fatalf("expected SAT after deciding 1, got %v", res.Status)
	}
	if res.NbPropagated != 4 {
		t.Errorf("expected 4 literals on the decision level, got %d", res.NbPropagated)
	}
	if !s.RequestPropagationScope(1) {
		t.Fatalf("level 1 should be a valid scope")
	}
	got := map[int]bool{}
	for l := s.NextPropLit(); l != 0; l = s.NextPropLit() {
		got[l] = true
	}
	for _, want := range []int{1, 2, 3, 4} {
		if !got[want] {
			t.Errorf("missing propagated literal %d in %v", want, got)
		}
	}
	if err := s.Backtrack(1); err != nil {
		t.Fatalf("backtrack failed: %v", err)
	}

	res = s.AssignLiteral(-4)
	if res.Status != StatusConflict {
		t.Fatalf("expected a conflict after deciding -4, got %v", res.Status)
	}
	res = s.LearnClause()
	if res.Status == StatusConflict {
		t.Fatalf("learning should have resolved the conflict")
	}
	if s.LitValue(4) != Sat {
		t.Errorf("expected 4 forced by the learnt clause")
	}
	if s.decisionLevel() != 0 {
		t.Errorf("expected a backjump to root, at level %d", s.decisionLevel())
	}
	if err := s.Backtrack(1); err == nil {
		t.Errorf("backtracking below root must fail")
	}
	checkInvariants(t, s)
}

func TestLearnClauseWithoutConflict(t *testing.T) {
	s := ParseSlice([][]int{{1, 2}})
	if res := s.LearnClause(); res.Status != StatusOpen {
		t.Errorf("expected OPEN without a cached conflict, got %v", res.Status)
	}
}

func TestPropagationScopeBounds(t *testing.T) {
	s := ParseSlice([][]int{{1, 2}})
	if s.RequestPropagationScope(3) {
		t.Errorf("scope beyond the decision level must be rejected")
	}
	if s.RequestPropagationScope(-1) {
		t.Errorf("negative scope must be rejected")
	}
	if !s.RequestPropagationScope(0) {
		t.Errorf("scope 0 must always be accepted")
	}
}

func TestFastSwitchAssignment(t *testing.T) {
	s := New()
	for i := 0; i < 6; i++ {
		s.NewVar(Indet, true)
	}
	s.AssignLiteral(1)
	s.AssignLiteral(-2)
	s.AssignLiteral(3)

	res := s.FastSwitchAssignment([]int{1, 3, -4})
	if res.Status != StatusOpen {
		t.Fatalf("expected OPEN, got %v", res.Status)
	}
	// The prefix [1] is kept; -2 is dropped since 2 is not in the target
	// set; 3 and -4 are re-decided.
	if res.NbDecisions != 2 {
		t.Errorf("expected 2 decisions executed, got %d", res.NbDecisions)
	}
	if s.decisionLevel() != 3 {
		t.Errorf("expected decision level 3, got %d", s.decisionLevel())
	}
	if s.LitValue(1) != Sat || s.LitValue(3) != Sat || s.LitValue(-4) != Sat {
		t.Errorf("target assignment not reached")
	}
	if s.LitValue(2) != Indet {
		t.Errorf("2 should have been unassigned by the switch")
	}
	if res.NbPropagated != 3 {
		t.Errorf("expected 3 assigned literals, got %d", res.NbPropagated)
	}
	checkInvariants(t, s)
}

func TestFastSwitchInconsistent(t *testing.T) {
	s := ParseSlice([][]int{{-1, 2}})
	s.AssignLiteral(1) // propagates 2
	res := s.FastSwitchAssignment([]int{1, -2})
	if res.Status != StatusInconsistentAssumptions {
		t.Fatalf("expected INCONSISTENT_ASSUMPTIONS, got %v", res.Status)
	}
	// The conflict clause over the assumptions is iterable:
	var confl []int
	for l := s.NextConflictLit(); l != 0; l = s.NextConflictLit() {
		confl = append(confl, l)
	}
	if len(confl) == 0 {
		t.Errorf("expected a non-empty assumption conflict")
	}
}

func TestEnumerate(t *testing.T) {
	// Three satisfying edge assignments over vars 1 and 2, plus an
	// auxiliary variable that must not multiply the count.
	s := New()
	for i := 0; i < 3; i++ {
		s.NewVar(Indet, true)
	}
	s.AddClauseInts(1, 2)
	s.SetEdgeVars(2)

	var models [][]bool
	res := s.Enumerate(0, 0, func(m []bool) {
		models = append(models, m)
	})
	if res.Status != EnumDone {
		t.Fatalf("expected DONE, got %v", res.Status)
	}
	if res.NbModels != 3 {
		t.Fatalf("expected 3 models, got %d", res.NbModels)
	}
	seen := map[[2]bool]bool{}
	for _, m := range models {
		if !m[0] && !m[1] {
			t.Errorf("model does not satisfy the formula: %v", m)
		}
		key := [2]bool{m[0], m[1]}
		if seen[key] {
			t.Errorf("edge assignment enumerated twice: %v", key)
		}
		seen[key] = true
	}
}

func TestEnumerateLimit(t *testing.T) {
	s := New()
	for i := 0; i < 3; i++ {
		s.NewVar(Indet, true)
	}
	s.SetEdgeVars(3)
	res := s.Enumerate(0, 2, nil)
	if res.Status != EnumLimit {
		t.Fatalf("expected LIMIT, got %v", res.Status)
	}
	if res.NbModels != 2 {
		t.Errorf("expected 2 models, got %d", res.NbModels)
	}
}

func TestEnumerateTimeout(t *testing.T) {
	s := ParseSlice(pigeons(8, 7))
	res := s.Enumerate(time.Nanosecond, 0, nil)
	if res.Status != EnumTime {
		t.Fatalf("expected TIME, got %v", res.Status)
	}
}

func TestBlockModel(t *testing.T) {
	s := New()
	for i := 0; i < 2; i++ {
		s.NewVar(Indet, true)
	}
	if s.Solve() != Sat {
		t.Fatalf("expected Sat")
	}
	first := s.Model()
	if !s.BlockModel() {
		t.Fatalf("blocking failed")
	}
	if s.Solve() != Sat {
		t.Fatalf("expected another model")
	}
	second := s.Model()
	if first[0] == second[0] && first[1] == second[1] {
		t.Errorf("blocked model found again")
	}
}
