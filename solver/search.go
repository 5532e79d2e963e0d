package solver

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

// pickBranchLit chooses the next decision literal, or LitUndef if every
// decision variable is assigned.
func (s *Solver) pickBranchLit() Lit {
	next := VarUndef

	// Random decision:
	if s.rand.float() < s.opts.RandomVarFreq && !s.varQueue.empty() {
		next = Var(s.varQueue.get(s.rand.intn(s.varQueue.len())))
		if s.assigns[next] == Indet && s.decision[next] {
			s.Stats.NbRndDecisions++
		}
	}

	// Activity based decision:
	for next == VarUndef || s.assigns[next] != Indet || !s.decision[next] {
		if s.varQueue.empty() {
			next = VarUndef
			break
		}
		next = Var(s.varQueue.removeMin())
	}

	if next == VarUndef {
		return LitUndef
	}
	// Choose the polarity, per-variable override first:
	if s.userPol[next] != Indet {
		return next.SignedLit(s.userPol[next] == Unsat)
	}
	if s.opts.RndPol {
		return next.SignedLit(s.rand.float() < 0.5)
	}
	return next.SignedLit(s.polarity[next])
}

// search looks for a model within the given number of conflicts (negative
// for no limit). It returns Sat if an assignment consistent with the clause
// set covering all decision variables was found, Unsat if the clause set is
// unsatisfiable, and Indet if a bound was reached.
func (s *Solver) search(nofConflicts int) Status {
	conflictC := 0
	s.Stats.NbRestarts++
	tick := time.Now()

	for {
		now := time.Now()
		s.solveTime += now.Sub(tick).Seconds()
		tick = now

		confl := s.propagate()
		if confl != CRefUndef {
			// CONFLICT
			s.Stats.NbConflicts++
			conflictC++
			if s.decisionLevel() == 0 {
				return Unsat
			}

			learnt, btLevel := s.analyze(confl)
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

			s.varDecayActivity()
			s.claDecayActivity()

			s.learntsizeAdjustCnt--
			if s.learntsizeAdjustCnt == 0 {
				s.learntsizeAdjustConfl *= s.opts.LearntsizeAdjustInc
				s.learntsizeAdjustCnt = int(s.learntsizeAdjustConfl)
				s.maxLearnts *= s.opts.LearntsizeInc

				if s.Verbose {
					logrus.WithFields(logrus.Fields{
						"conflicts":  s.Stats.NbConflicts,
						"clauses":    len(s.clauses),
						"learnts":    len(s.learnts),
						"maxLearnts": int(s.maxLearnts),
						"progress":   s.progressEstimate(),
					}).Info("search statistics")
				}
			}
			continue
		}

		// NO CONFLICT
		if (nofConflicts >= 0 && conflictC >= nofConflicts) || !s.withinBudget() {
			// Reached bound on the number of conflicts:
			s.cancelUntil(0)
			return Indet
		}

		// Simplify the set of problem clauses:
		if s.decisionLevel() == 0 && !s.simplify() {
			return Unsat
		}

		if len(s.learnts)-s.nAssigns() >= int(s.maxLearnts) {
			// Reduce the set of learnt clauses:
			s.reduceDB()
		}

		// Consult the external propagator on the stable trail:
		if s.ext != nil {
			switch s.ext.Check(s.fullEdgeAssignment()) {
			case ExtLemma:
				continue
			case ExtUnsat:
				return Unsat
			}
		}

		next := LitUndef
		for next == LitUndef && s.decisionLevel() < len(s.assumptions) {
			// Perform user provided assumption:
			p := s.assumptions[s.decisionLevel()]
			switch s.value(p) {
			case Sat:
				// Dummy decision level:
				s.newDecisionLevel()
			case Unsat:
				s.analyzeFinal(p.Negation(), &s.conflict)
				return Unsat
			default:
				next = p
			}
		}

		if next == LitUndef {
			// New variable decision:
			s.Stats.NbDecisions++
			next = s.pickBranchLit()
			if next == LitUndef {
				// Model found:
				return Sat
			}
		}

		// Increase the decision level and enqueue next
		s.newDecisionLevel()
		s.uncheckedEnqueue(next, CRefUndef)
	}
}

// fullEdgeAssignment is true iff every edge variable is assigned.
func (s *Solver) fullEdgeAssignment() bool {
	m := s.edgeVars
	if m == 0 || m > s.NVars() {
		m = s.NVars()
	}
	for v := Var(0); int(v) < m; v++ {
		if s.assigns[v] == Indet {
			return false
		}
	}
	return true
}

// progressEstimate is a rough search-space coverage metric in [0, 1].
func (s *Solver) progressEstimate() float64 {
	progress := 0.0
	f := 1.0 / float64(s.NVars())
	for i := 0; i <= s.decisionLevel(); i++ {
		beg := 0
		if i > 0 {
			beg = s.trailLim[i-1]
		}
		end := len(s.trail)
		if i < s.decisionLevel() {
			end = s.trailLim[i]
		}
		progress += math.Pow(f, float64(i)) * float64(end-beg)
	}
	return progress / float64(s.NVars())
}

// Solve solves the problem held by the solver and returns Sat, Unsat or,
// if a budget was exhausted or the solver interrupted, Indet.
func (s *Solver) Solve() Status {
	s.model = nil
	s.conflict = s.conflict[:0]
	if !s.ok {
		return Unsat
	}
	s.Stats.NbSolves++
	// The time budget is per Solve call: successive budgeted calls each get
	// the full allowance.
	s.solveTime = 0

	s.maxLearnts = float64(len(s.clauses)) * s.opts.LearntsizeFactor
	if s.maxLearnts < float64(s.opts.MinLearntsLim) {
		s.maxLearnts = float64(s.opts.MinLearntsLim)
	}
	s.learntsizeAdjustConfl = float64(s.opts.LearntsizeAdjustStartConfl)
	s.learntsizeAdjustCnt = int(s.learntsizeAdjustConfl)

	status := Indet
	currRestarts := 0
	for status == Indet {
		var restBase float64
		if s.opts.LubyRestart {
			restBase = luby(s.opts.RestartInc, currRestarts)
		} else {
			restBase = math.Pow(s.opts.RestartInc, float64(currRestarts))
		}
		status = s.search(int(restBase * float64(s.opts.RestartFirst)))
		if !s.withinBudget() {
			break
		}
		currRestarts++
	}

	if status == Sat {
		s.model = make([]Status, s.NVars())
		copy(s.model, s.assigns)
	} else if status == Unsat && len(s.conflict) == 0 {
		s.ok = false
	}
	s.cancelUntil(0)
	return status
}

// Implies pushes the given assumptions on a pseudo decision level,
// propagates them, and reports every implied literal. It returns false if
// the assumptions are contradictory under the current clause set.
func (s *Solver) Implies(assumps []Lit) (implied []Lit, ok bool) {
	s.trailLim = append(s.trailLim, len(s.trail))
	for _, a := range assumps {
		switch s.value(a) {
		case Unsat:
			s.cancelUntil(0)
			return nil, false
		case Indet:
			s.uncheckedEnqueue(a, CRefUndef)
		}
	}
	trailBefore := len(s.trail)
	ok = s.propagate() == CRefUndef
	if ok {
		implied = append(implied, s.trail[trailBefore:]...)
	}
	s.cancelUntil(0)
	return implied, ok
}
