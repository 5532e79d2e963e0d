/*
Package solver implements a conflict-driven clause-learning SAT solver with
two extension points: an external propagator consulted on stable partial
assignments, and a stepwise interface letting an outside agent co-drive the
search.

Clauses are stored in a relocatable arena and referred to by offset; the
search uses two-watched-literal propagation, first-UIP conflict analysis
with recursive minimization, activity-driven decisions with phase saving,
Luby restarts and an activity-based reduction of the learnt database.

Describing a problem

A problem can be loaded from a DIMACS stream:

	s, err := solver.ParseCNF(f, solver.DefaultOptions())

or built programmatically:

	s := solver.New()
	s.AddClauseInts(1, 2, 3)
	s.AddClauseInts(-1, -2)

Solving

	if s.Solve() == solver.Sat {
		model := s.Model()
		...
	}

Stepwise driving

The same solver can be driven operation by operation:

	res := s.AssignLiteral(1) // decide 1, propagate
	res = s.LearnClause()     // analyze a cached conflict, backjump, learn
	_ = s.Backtrack(1)        // undo one decision level

and the trail can be inspected with RequestPropagationScope and NextPropLit.

External propagation

A theory check registered with SetExternal is invoked whenever unit
propagation reaches a fixpoint with no pending conflict. Its lemmas enter
the solver through AddClauseDuringSearch, which reconciles a new clause
with the current trail at any decision level.
*/
package solver
