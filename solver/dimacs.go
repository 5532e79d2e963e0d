package solver

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// DIMACS CNF output of the current clause database. Satisfied clauses are
// omitted, literals false at root level are stripped, and assumptions are
// emitted as unit clauses. Variables are renumbered compactly.

func mapVar(x Var, vmap map[Var]Var, next *Var) Var {
	m, ok := vmap[x]
	if !ok {
		m = *next
		*next = m + 1
		vmap[x] = m
	}
	return m
}

func (s *Solver) clauseToDimacs(w *bufio.Writer, c clause, vmap map[Var]Var, next *Var) error {
	if s.satisfied(c) {
		return nil
	}
	for i := 0; i < c.Len(); i++ {
		if l := c.Get(i); s.value(l) != Unsat {
			neg := ""
			if !l.IsPositive() {
				neg = "-"
			}
			if _, err := fmt.Fprintf(w, "%s%d ", neg, mapVar(l.Var(), vmap, next)+1); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "0\n")
	return err
}

// ToDimacs writes the solver's clauses as a DIMACS CNF problem, with the
// given assumptions as unit clauses.
func (s *Solver) ToDimacs(f io.Writer, assumps []Lit) error {
	w := bufio.NewWriter(f)

	// A contradictory solver prints a canonical trivially-false problem:
	if !s.ok {
		if _, err := fmt.Fprintf(w, "p cnf 1 2\n1 0\n-1 0\n"); err != nil {
			return err
		}
		return errors.Wrap(w.Flush(), "cannot write DIMACS output")
	}

	vmap := make(map[Var]Var)
	next := Var(0)

	cnt := 0
	for _, cr := range s.clauses {
		c := s.ca.clause(cr)
		if s.satisfied(c) {
			continue
		}
		cnt++
		for i := 0; i < c.Len(); i++ {
			if l := c.Get(i); s.value(l) != Unsat {
				mapVar(l.Var(), vmap, &next)
			}
		}
	}

	// Assumptions are added as unit clauses:
	cnt += len(assumps)
	for _, a := range assumps {
		mapVar(a.Var(), vmap, &next)
	}

	if _, err := fmt.Fprintf(w, "p cnf %d %d\n", next, cnt); err != nil {
		return err
	}
	for _, a := range assumps {
		neg := ""
		if !a.IsPositive() {
			neg = "-"
		}
		if _, err := fmt.Fprintf(w, "%s%d 0\n", neg, vmap[a.Var()]+1); err != nil {
			return err
		}
	}
	for _, cr := range s.clauses {
		if err := s.clauseToDimacs(w, s.ca.clause(cr), vmap, &next); err != nil {
			return err
		}
	}
	return errors.Wrap(w.Flush(), "cannot write DIMACS output")
}

// OutputModel writes the result and model, if any, in the solver
// competition format.
func (s *Solver) OutputModel(f io.Writer) {
	if s.model != nil {
		fmt.Fprintf(f, "s SATISFIABLE\nv ")
		for i, val := range s.model {
			if val == Unsat {
				fmt.Fprintf(f, "%d ", -i-1)
			} else {
				fmt.Fprintf(f, "%d ", i+1)
			}
		}
		fmt.Fprintf(f, "0\n")
	} else if !s.ok {
		fmt.Fprintf(f, "s UNSATISFIABLE\n")
	} else {
		fmt.Fprintf(f, "s INDETERMINATE\n")
	}
}
