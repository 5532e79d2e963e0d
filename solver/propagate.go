package solver

// propagate propagates all enqueued facts under the two-watched-literal
// scheme. If a conflict arises the conflicting clause is returned, otherwise
// CRefUndef. The propagation queue is empty on return, even on conflict.
func (s *Solver) propagate() ClauseRef {
	confl := CRefUndef
	numProps := 0

	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead] // 'p' is the enqueued fact to propagate
		s.qhead++
		ws := s.watches.lookup(&s.ca, p)
		numProps++

		i, j := 0, 0
		for i < len(ws) {
			// Try to avoid inspecting the clause:
			blocker := ws[i].blocker
			if s.value(blocker) == Sat {
				ws[j] = ws[i]
				i++
				j++
				continue
			}

			// Make sure the false literal is c[1]:
			cr := ws[i].cref
			c := s.ca.clause(cr)
			falseLit := p.Negation()
			if c.First() == falseLit {
				c.Set(0, c.Second())
				c.Set(1, falseLit)
			}
			i++

			// If the 0th watch is true, the clause is already satisfied.
			first := c.First()
			w := watcher{cref: cr, blocker: first}
			if first != blocker && s.value(first) == Sat {
				ws[j] = w
				j++
				continue
			}

			// Look for a new literal to watch:
			found := false
			for k := 2; k < c.Len(); k++ {
				if l := c.Get(k); s.value(l) != Unsat {
					c.Set(1, l)
					c.Set(k, falseLit)
					s.watches.watch(c.Second().Negation(), w)
					found = true
					break
				}
			}
			if found {
				continue
			}

			// Did not find a watch: the clause is unit under the assignment.
			ws[j] = w
			j++
			if s.value(first) == Unsat {
				confl = cr
				s.qhead = len(s.trail)
				// Copy the remaining watches:
				for i < len(ws) {
					ws[j] = ws[i]
					i++
					j++
				}
			} else {
				s.uncheckedEnqueue(first, cr)
			}
		}
		s.watches.occs[p] = ws[:j]
	}
	s.Stats.NbPropagations += int64(numProps)
	s.simpDBProps -= int64(numProps)
	return confl
}
