package solver

import (
	"bytes"
	"strings"
	"testing"
)

func TestToDimacs(t *testing.T) {
	s := New()
	s.AddClauseInts(1, 2, 3)
	s.AddClauseInts(-1, -2)
	var buf bytes.Buffer
	if err := s.ToDimacs(&buf, nil); err != nil {
		t.Fatal(err)
	}
	want := "p cnf 3 2\n1 2 3 0\n-1 -2 0\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestToDimacsSimplified(t *testing.T) {
	// The root unit 1 satisfies the first clause and propagates -2, which
	// satisfies the second one: both clauses are omitted.
	s := New()
	s.AddClauseInts(1, 2, 3)
	s.AddClauseInts(-1, -2)
	s.AddClauseInts(1)
	var buf bytes.Buffer
	if err := s.ToDimacs(&buf, nil); err != nil {
		t.Fatal(err)
	}
	want := "p cnf 0 0\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestToDimacsAssumptions(t *testing.T) {
	s := New()
	s.AddClauseInts(1, 2)
	var buf bytes.Buffer
	if err := s.ToDimacs(&buf, []Lit{IntToLit(-2)}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "p cnf 2 2" {
		t.Errorf("wrong header: %q", lines[0])
	}
	if lines[1] != "-2 0" { // the assumption comes first, as a unit clause
		t.Errorf("wrong assumption line: %q", lines[1])
	}
	if lines[2] != "1 2 0" {
		t.Errorf("wrong clause line: %q", lines[2])
	}
}

func TestToDimacsUnsat(t *testing.T) {
	s := New()
	s.AddClauseInts(1)
	s.AddClauseInts(-1)
	var buf bytes.Buffer
	if err := s.ToDimacs(&buf, nil); err != nil {
		t.Fatal(err)
	}
	want := "p cnf 1 2\n1 0\n-1 0\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestOutputModel(t *testing.T) {
	s := ParseSlice([][]int{{1}, {-2}})
	if s.Solve() != Sat {
		t.Fatal("expected Sat")
	}
	var buf bytes.Buffer
	s.OutputModel(&buf)
	want := "s SATISFIABLE\nv 1 -2 0\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
