package solver

import "sort"

// AddClauseDuringSearch adds a clause to a running solver at an arbitrary
// decision level, reconciling it with the current trail. Depending on how
// the clause evaluates under the (possibly rewound) assignment, it is either
// plainly attached, attached and unit-propagated, or treated as a conflict
// and analyzed. It returns false iff the clause is empty or falsified at
// root level, which makes the problem unsatisfiable.
func (s *Solver) AddClauseDuringSearch(lits []Lit) bool {
	if len(lits) == 0 {
		return false
	}
	c := make([]Lit, len(lits))
	copy(c, lits)

	// Unassigned literals first, then assigned ones by decreasing level, so
	// that the first two positions are always valid watches.
	sort.SliceStable(c, func(i, j int) bool {
		ui := s.value(c[i]) == Indet
		uj := s.value(c[j]) == Indet
		if ui || uj {
			return ui && !uj
		}
		return s.level(c[i].Var()) > s.level(c[j].Var())
	})

	u := 0
	for u < len(c) && s.value(c[u]) == Indet {
		u++
	}

	if u == len(c) {
		// Nothing assigned. A unit is enqueued at root; anything larger is
		// an ordinary attachment.
		if len(c) == 1 {
			s.cancelUntil(0)
			s.uncheckedEnqueue(c[0], CRefUndef)
			return true
		}
		cr := s.ca.alloc(c, false)
		s.clauses = append(s.clauses, cr)
		s.attachClause(cr)
		return true
	}

	h := s.level(c[u].Var()) // Highest level among assigned literals
	if h == 0 && u == 0 {
		return false // Falsified at root
	}
	m := 1 // Number of literals at level h
	for u+m < len(c) && s.level(c[u+m].Var()) == h {
		m++
	}

	switch {
	case u > 1:
		// At least two unassigned literals: the clause is neither unit nor
		// conflicting anywhere, attach it where we stand.
		cr := s.ca.alloc(c, false)
		s.clauses = append(s.clauses, cr)
		s.attachClause(cr)

	case u == 1:
		// Asserting once the trail is rewound to the highest assigned level.
		s.cancelUntil(h)
		cr := s.ca.alloc(c, false)
		for _, l := range c {
			s.varBumpActivity(l.Var())
		}
		s.clauses = append(s.clauses, cr)
		s.attachClause(cr)
		s.uncheckedEnqueue(c[0], cr)

	case m > 1:
		// Fully falsified with several literals at the top level: this is a
		// genuine conflict at level h. Install the clause, then learn from
		// it as if propagation had just discovered it.
		s.cancelUntil(h)
		cr := s.ca.alloc(c, false)
		s.clauses = append(s.clauses, cr)
		s.attachClause(cr)

		learnt, btLevel := s.analyze(cr)
		s.cancelUntil(btLevel)
		if len(learnt) == 1 {
			s.uncheckedEnqueue(learnt[0], CRefUndef)
			s.Stats.NbUnitLearned++
		} else {
			lr := s.ca.alloc(learnt, true)
			s.learnts = append(s.learnts, lr)
			s.attachClause(lr)
			s.claBumpActivity(s.ca.clause(lr))
			s.uncheckedEnqueue(learnt[0], lr)
		}
		s.Stats.NbLearned++

	default:
		// A single literal at the top level: the clause is already asserting
		// after a backjump to the second-highest level in it.
		if len(c) > 1 {
			s.cancelUntil(s.level(c[1].Var()))
			cr := s.ca.alloc(c, false)
			for _, l := range c {
				s.varBumpActivity(l.Var())
			}
			s.clauses = append(s.clauses, cr)
			s.attachClause(cr)
			s.uncheckedEnqueue(c[0], cr)
		} else {
			s.cancelUntil(0)
			s.uncheckedEnqueue(c[0], CRefUndef)
		}
	}
	return true
}

// AddClauseIntsDuringSearch is AddClauseDuringSearch over CNF literals.
func (s *Solver) AddClauseIntsDuringSearch(lits []int) bool {
	ps := make([]Lit, len(lits))
	for i, val := range lits {
		ps[i] = IntToLit(val)
	}
	return s.AddClauseDuringSearch(ps)
}
