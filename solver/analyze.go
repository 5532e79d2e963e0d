package solver

// analyze derives a learnt clause from the conflict clause confl, following
// the first-UIP scheme, then minimizes it.
//
// Preconditions: the current decision level is greater than root level.
// Postconditions: learnt[0] is the asserting literal at level btLevel; if
// len(learnt) > 1 then learnt[1] has the greatest decision level among the
// remaining literals.
//
// The returned slice aliases an internal buffer; it is only valid until the
// next call.
func (s *Solver) analyze(confl ClauseRef) (learnt []Lit, btLevel int) {
	pathC := 0
	p := LitUndef

	learnt = append(s.learntBuf[:0], LitUndef) // Leave room for the asserting literal
	index := len(s.trail) - 1

	for {
		c := s.ca.clause(confl)
		if c.learnt() {
			s.claBumpActivity(c)
		}
		start := 0
		if p != LitUndef {
			start = 1
		}
		for j := start; j < c.Len(); j++ {
			q := c.Get(j)
			if v := q.Var(); s.seen[v] == seenUndef && s.level(v) > 0 {
				s.varBumpActivity(v)
				s.seen[v] = seenSource
				if s.level(v) >= s.decisionLevel() {
					pathC++
				} else {
					learnt = append(learnt, q)
				}
			}
		}
		// Select the next clause to look at:
		for s.seen[s.trail[index].Var()] == seenUndef {
			index--
		}
		p = s.trail[index]
		index--
		confl = s.reason(p.Var())
		s.seen[p.Var()] = seenUndef
		pathC--
		if pathC <= 0 {
			break
		}
	}
	learnt[0] = p.Negation()

	// Minimize the conflict clause:
	s.analyzeToClear = append(s.analyzeToClear[:0], learnt...)
	s.Stats.MaxLiterals += int64(len(learnt))
	switch s.opts.CcminMode {
	case 2:
		j := 1
		for i := 1; i < len(learnt); i++ {
			if s.reason(learnt[i].Var()) == CRefUndef || !s.litRedundant(learnt[i]) {
				learnt[j] = learnt[i]
				j++
			}
		}
		learnt = learnt[:j]
	case 1:
		j := 1
		for i := 1; i < len(learnt); i++ {
			x := learnt[i].Var()
			if s.reason(x) == CRefUndef {
				learnt[j] = learnt[i]
				j++
			} else {
				c := s.ca.clause(s.reason(x))
				for k := 1; k < c.Len(); k++ {
					if v := c.Get(k).Var(); s.seen[v] == seenUndef && s.level(v) > 0 {
						learnt[j] = learnt[i]
						j++
						break
					}
				}
			}
		}
		learnt = learnt[:j]
	}
	s.Stats.TotLiterals += int64(len(learnt))

	// Find the correct backtrack level:
	if len(learnt) == 1 {
		btLevel = 0
	} else {
		maxI := 1
		// Find the first literal assigned at the next-highest level:
		for i := 2; i < len(learnt); i++ {
			if s.level(learnt[i].Var()) > s.level(learnt[maxI].Var()) {
				maxI = i
			}
		}
		// Swap-in this literal at index 1:
		learnt[maxI], learnt[1] = learnt[1], learnt[maxI]
		btLevel = s.level(learnt[1].Var())
	}

	for _, l := range s.analyzeToClear {
		s.seen[l.Var()] = seenUndef // seen is now cleared
	}
	s.analyzeToClear = s.analyzeToClear[:0]
	s.learntBuf = learnt
	return learnt, btLevel
}

// litRedundant checks whether p can be removed from the learnt clause, i.e
// whether every literal of its reason is at level 0, already part of the
// clause, or recursively redundant. Outcomes are memoized in the seen marks
// and undone through analyzeToClear.
func (s *Solver) litRedundant(p Lit) bool {
	s.analyzeStack = s.analyzeStack[:0]
	c := s.ca.clause(s.reason(p.Var()))
	for i := 1; ; i++ {
		if i < c.Len() {
			// Examine p's parent l:
			l := c.Get(i)

			// Variable at level 0 or previously removable:
			if s.level(l.Var()) == 0 || s.seen[l.Var()] == seenSource || s.seen[l.Var()] == seenRemovable {
				continue
			}

			// Check whether the variable cannot be removed for some local reason:
			if s.reason(l.Var()) == CRefUndef || s.seen[l.Var()] == seenFailed {
				s.analyzeStack = append(s.analyzeStack, shrinkElem{0, p})
				for _, e := range s.analyzeStack {
					if s.seen[e.l.Var()] == seenUndef {
						s.seen[e.l.Var()] = seenFailed
						s.analyzeToClear = append(s.analyzeToClear, e.l)
					}
				}
				return false
			}

			// Recursively check l:
			s.analyzeStack = append(s.analyzeStack, shrinkElem{i, p})
			i = 0
			p = l
			c = s.ca.clause(s.reason(p.Var()))
		} else {
			// Finished with the current element p and reason c:
			if s.seen[p.Var()] == seenUndef {
				s.seen[p.Var()] = seenRemovable
				s.analyzeToClear = append(s.analyzeToClear, p)
			}

			if len(s.analyzeStack) == 0 {
				break // Success
			}

			// Continue with the top element on the stack:
			last := s.analyzeStack[len(s.analyzeStack)-1]
			i = last.i
			p = last.l
			c = s.ca.clause(s.reason(p.Var()))
			s.analyzeStack = s.analyzeStack[:len(s.analyzeStack)-1]
		}
	}
	return true
}

// analyzeFinal expresses the final conflict in terms of assumptions: it
// computes the set of assumptions that led to the assignment of p and stores
// the result in out.
func (s *Solver) analyzeFinal(p Lit, out *[]Lit) {
	*out = append((*out)[:0], p)
	if s.decisionLevel() == 0 {
		return
	}

	s.seen[p.Var()] = seenSource
	for i := len(s.trail) - 1; i >= s.trailLim[0]; i-- {
		x := s.trail[i].Var()
		if s.seen[x] == seenUndef {
			continue
		}
		if s.reason(x) == CRefUndef {
			*out = append(*out, s.trail[i].Negation())
		} else {
			c := s.ca.clause(s.reason(x))
			for j := 1; j < c.Len(); j++ {
				if s.level(c.Get(j).Var()) > 0 {
					s.seen[c.Get(j).Var()] = seenSource
				}
			}
		}
		s.seen[x] = seenUndef
	}
	s.seen[p.Var()] = seenUndef
}
