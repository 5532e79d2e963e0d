package solver

import (
	"sort"
	"time"

	"github.com/pkg/errors"
)

// The stepwise interface lets an external agent co-drive the search:
// propagation, decisions, backtracking and conflict analysis are exposed as
// individual operations over the owning Solver.

// PropagationStatus is the verdict of a stepwise operation.
type PropagationStatus int

const (
	// StatusConflict means the last propagation ran into a conflict.
	StatusConflict = PropagationStatus(-1)
	// StatusOpen means the search can proceed: no conflict, some variables unassigned.
	StatusOpen = PropagationStatus(0)
	// StatusSat means every variable is assigned and no conflict arose.
	StatusSat = PropagationStatus(1)
	// StatusInconsistentAssumptions means a requested assignment contradicts
	// the propagated state; the conflict clause over the assumptions can be
	// iterated with NextConflictLit.
	StatusInconsistentAssumptions = PropagationStatus(2)
)

func (ps PropagationStatus) String() string {
	switch ps {
	case StatusConflict:
		return "CONFLICT"
	case StatusOpen:
		return "OPEN"
	case StatusSat:
		return "SAT"
	case StatusInconsistentAssumptions:
		return "INCONSISTENT_ASSUMPTIONS"
	default:
		panic("invalid propagation status")
	}
}

// PropResult reports the outcome of a propagation-like step.
type PropResult struct {
	Status       PropagationStatus
	NbPropagated int // Literals assigned on the current decision level
}

// SwitchResult reports the outcome of FastSwitchAssignment.
type SwitchResult struct {
	Status       PropagationStatus
	NbDecisions  int // Decisions executed to reach the target assignment
	NbPropagated int // Total assigned literals, prior propagations included
}

// EnumerationStatus tells why an enumeration stopped.
type EnumerationStatus int

const (
	// EnumDone means the model space was exhausted.
	EnumDone = EnumerationStatus(iota)
	// EnumTime means the time budget ran out.
	EnumTime
	// EnumLimit means the requested number of models was reached.
	EnumLimit
)

// EnumerationResult reports the outcome of Enumerate.
type EnumerationResult struct {
	NbModels int
	Status   EnumerationStatus
}

func (s *Solver) stepStatus() PropagationStatus {
	if s.cflr != CRefUndef {
		return StatusConflict
	}
	if s.nAssigns() == s.NVars() {
		return StatusSat
	}
	return StatusOpen
}

func (s *Solver) levelAssigns() int {
	base := 0
	if len(s.trailLim) > 0 {
		base = s.trailLim[len(s.trailLim)-1]
	}
	return s.nAssigns() - base
}

// Propagate closes the trail under unit propagation and caches the conflict
// clause, if any, for a later LearnClause call.
func (s *Solver) Propagate() PropResult {
	s.cflr = s.propagate()
	return PropResult{Status: s.stepStatus(), NbPropagated: s.levelAssigns()}
}

// AssignLiteral pushes a fresh decision level, enqueues the CNF literal lit
// and propagates. Assigning while a conflict is pending, or assigning an
// already bound literal, reports the current state without touching it.
func (s *Solver) AssignLiteral(lit int) PropResult {
	if lit == 0 || s.cflr != CRefUndef {
		return PropResult{Status: s.stepStatus(), NbPropagated: s.levelAssigns()}
	}
	l := IntToLit(lit)
	if s.value(l) != Indet {
		return PropResult{Status: s.stepStatus(), NbPropagated: s.levelAssigns()}
	}
	s.newDecisionLevel()
	s.uncheckedEnqueue(l, CRefUndef)
	return s.Propagate()
}

// Backtrack undoes n decision levels. It fails if n exceeds the current
// decision level.
func (s *Solver) Backtrack(n int) error {
	target := s.decisionLevel() - n
	if target < 0 {
		return errors.Errorf("cannot backtrack %d levels from level %d", n, s.decisionLevel())
	}
	s.cancelUntil(target)
	return nil
}

// LearnClause analyzes the cached conflict, backjumps, installs the learnt
// clause and propagates. Without a cached conflict it reports OPEN and does
// nothing.
func (s *Solver) LearnClause() PropResult {
	if s.cflr == CRefUndef {
		return PropResult{Status: StatusOpen}
	}
	if s.decisionLevel() == 0 {
		s.ok = false
		return PropResult{Status: StatusConflict}
	}
	learnt, btLevel := s.analyze(s.cflr)
	s.cancelUntil(btLevel)

	if len(learnt) == 1 {
		s.uncheckedEnqueue(learnt[0], CRefUndef)
		s.Stats.NbUnitLearned++
	} else {
		cr := s.ca.alloc(learnt, true)
		s.learnts = append(s.learnts, cr)
		s.attachClause(cr)
		s.claBumpActivity(s.ca.clause(cr))
		s.uncheckedEnqueue(learnt[0], cr)
	}
	s.Stats.NbLearned++
	return s.Propagate()
}

// RequestPropagationScope positions the trail iterator at the first literal
// of the given decision level (0 for the whole trail). It returns false for
// an out-of-range level.
func (s *Solver) RequestPropagationScope(level int) bool {
	switch {
	case level == 0:
		s.literator = 0
	case level < 0 || level > s.decisionLevel():
		return false
	default:
		s.literator = s.trailLim[level-1]
	}
	return true
}

// NextPropLit yields the next assigned literal of the requested scope as a
// CNF literal, or 0 once the trail is exhausted.
func (s *Solver) NextPropLit() int {
	if s.literator >= 0 && s.literator < len(s.trail) {
		l := s.trail[s.literator]
		s.literator++
		return l.Int()
	}
	s.literator = -1 // Iterator exhausted
	return 0
}

// NextConflictLit yields the next literal of the assumption conflict
// produced by an INCONSISTENT_ASSUMPTIONS outcome, or 0 once exhausted.
func (s *Solver) NextConflictLit() int {
	if s.conflictIdx >= 0 && s.conflictIdx < len(s.conflict) {
		l := s.conflict[s.conflictIdx]
		s.conflictIdx++
		return l.Int()
	}
	s.conflictIdx = -1
	return 0
}

// FastSwitchAssignment moves the solver toward the given target assignment:
// the deepest prefix of current decisions contained in the target set is
// kept, everything above it is undone, and the remaining target literals are
// applied as decisions with propagation in between.
func (s *Solver) FastSwitchAssignment(literals []int) SwitchResult {
	lits := make([]int, 0, len(literals))
	for _, li := range literals {
		if li != 0 {
			lits = append(lits, li)
		}
	}

	// Move unassigned literals to the front; the assigned rest is sorted for
	// binary-search membership tests.
	nUnassigned := 0
	for i, li := range lits {
		if s.value(IntToLit(li)) == Indet {
			lits[nUnassigned], lits[i] = lits[i], lits[nUnassigned]
			nUnassigned++
		}
	}
	assigned := lits[nUnassigned:]
	sort.Ints(assigned)

	btLevel := 0
	for btLevel < s.decisionLevel() {
		dec := s.trail[s.trailLim[btLevel]]
		idx := sort.SearchInts(assigned, dec.Int())
		if idx >= len(assigned) || assigned[idx] != dec.Int() {
			break
		}
		btLevel++
	}
	s.cancelUntil(btLevel)

	numDecisions := 0
	if btLevel == s.decisionLevel() && s.cflr != CRefUndef {
		return SwitchResult{Status: StatusConflict, NbDecisions: numDecisions, NbPropagated: s.nAssigns()}
	}

	for _, li := range lits {
		l := IntToLit(li)
		switch s.value(l) {
		case Indet:
			numDecisions++
			s.newDecisionLevel()
			s.uncheckedEnqueue(l, CRefUndef)
			if s.cflr = s.propagate(); s.cflr != CRefUndef {
				return SwitchResult{Status: StatusConflict, NbDecisions: numDecisions, NbPropagated: s.nAssigns()}
			}
		case Unsat:
			// The target contradicts the propagated state. The solver is not
			// in conflict yet, so no clause can be learnt the usual way;
			// reconstruct one over the assumptions instead.
			s.analyzeFinal(l, &s.conflict)
			s.conflictIdx = 0
			return SwitchResult{Status: StatusInconsistentAssumptions, NbDecisions: numDecisions + 1, NbPropagated: s.nAssigns() + 1}
		default:
			// Already propagated to the requested value: nothing to do.
		}
	}

	if s.nAssigns() == s.NVars() {
		return SwitchResult{Status: StatusSat, NbDecisions: numDecisions, NbPropagated: s.nAssigns()}
	}
	return SwitchResult{Status: StatusOpen, NbDecisions: numDecisions, NbPropagated: s.nAssigns()}
}

// BlockModel adds a clause forbidding the last model as a whole.
func (s *Solver) BlockModel() bool {
	blocking := make([]Lit, 0, len(s.model))
	for v := Var(0); int(v) < len(s.model); v++ {
		blocking = append(blocking, v.SignedLit(s.modelValue(v) == Sat))
	}
	return s.AddClause(blocking...)
}

// Enumerate solves repeatedly, blocking after each model the edge-variable
// portion of the assignment, until the model space is exhausted, the time
// budget runs out or maxModels models were found (0 for no limit). Each
// model is passed to emit, if non-nil, before being blocked.
func (s *Solver) Enumerate(timeout time.Duration, maxModels int, emit func(model []bool)) EnumerationResult {
	if timeout > 0 {
		s.TimeBudget = timeout.Seconds()
	}
	for {
		status := s.Solve()
		switch status {
		case Sat:
			s.numSol++
			if emit != nil {
				emit(s.Model())
			}
			m := s.edgeVars
			if m == 0 || m > len(s.model) {
				m = len(s.model)
			}
			blocking := make([]Lit, 0, m)
			for v := Var(0); int(v) < m; v++ {
				blocking = append(blocking, v.SignedLit(s.modelValue(v) == Sat))
			}
			s.AddClause(blocking...)
			if maxModels > 0 && s.numSol >= maxModels {
				return EnumerationResult{NbModels: s.numSol, Status: EnumLimit}
			}
		case Indet:
			return EnumerationResult{NbModels: s.numSol, Status: EnumTime}
		default:
			return EnumerationResult{NbModels: s.numSol, Status: EnumDone}
		}
	}
}
