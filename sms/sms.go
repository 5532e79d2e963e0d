// Package sms connects a graph-shaped SAT encoding to external
// symmetry-breaking checkers, following the SAT-modulo-symmetries
// discipline: whenever the solver reaches a stable trail, the current
// partial adjacency matrix is handed to a minimality checker whose lemmas
// are fed back into the running search.
package sms

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crillab/symsat/solver"
)

// TriState is the value of an edge in a partially defined graph.
type TriState byte

const (
	// Unknown means the edge variable is not assigned yet.
	Unknown = TriState(iota)
	// True means the edge is present.
	True
	// False means the edge is absent.
	False
)

// AdjacencyMatrix is a symmetric n x n view of the edge-variable assignment.
type AdjacencyMatrix [][]TriState

// CheckResult is the verdict of a checker on a (partial) graph. No lemma
// means the graph was accepted. A lemma is a clause over signed CNF
// literals of the solver; an empty lemma means the problem is
// unsatisfiable.
type CheckResult struct {
	Lemmas [][]int
}

// ResultOK is the accepting verdict.
var ResultOK = CheckResult{}

// A Checker decides whether a (partially defined) graph can still be
// canonical, and produces blocking lemmas when it cannot. Implementations
// must be pure with respect to the snapshot they are given and must not
// retain it across calls.
type Checker interface {
	Check(m AdjacencyMatrix, full bool) CheckResult
}

// Config carries the graph shape and the check policy.
type Config struct {
	Vertices  int // Number of vertices of the graph model
	Cutoff    int // Recursion cutoff for the minimality checker; not read by the Propagator, and Check does not pass it on
	Frequency int // Check partial assignments only every Frequency-th call; <=1 means always

	// The cube blocker: once PrerunTime of search has elapsed, a partial
	// assignment covering at least AssignmentCutoff edge variables is traced
	// as a cube and blocked. Zero disables it.
	AssignmentCutoff int
	PrerunTime       time.Duration
}

// A Propagator bridges the solver and the checkers. It implements
// solver.External.
type Propagator struct {
	s   *solver.Solver
	cfg Config

	checker    Checker
	checker010 Checker // Optional triangle-coloring checker

	edges [][]int // CNF variable of each edge; symmetric, 0 on the diagonal

	calls    int64
	accepted int64
	lemmas   int64
	start    time.Time

	cubeOut io.Writer // Destination of "a ... 0" cube trace lines
}

// New registers a propagator for an n-vertex graph model on s. The first
// n(n-1)/2 variables of the solver are taken to encode the edges, in
// colexicographic order.
func New(s *solver.Solver, cfg Config, checker Checker) *Propagator {
	n := cfg.Vertices
	p := &Propagator{
		s:       s,
		cfg:     cfg,
		checker: checker,
		edges:   edgeVarMap(n),
		start:   time.Now(),
	}
	for s.NVars() < n*(n-1)/2 {
		s.NewVar(solver.Indet, true)
	}
	s.SetEdgeVars(n * (n - 1) / 2)
	s.SetExternal(p)
	return p
}

// Attach010 registers the optional triangle-coloring checker.
func (p *Propagator) Attach010(c Checker) {
	p.checker010 = c
}

// SetCubeWriter sets the destination of the cube trace lines.
func (p *Propagator) SetCubeWriter(w io.Writer) {
	p.cubeOut = w
}

// edgeVarMap builds the edge-to-variable map: edge {i,j} with j < i is the
// CNF variable i*(i-1)/2 + j + 1.
func edgeVarMap(n int) [][]int {
	edges := make([][]int, n)
	for i := range edges {
		edges[i] = make([]int, n)
	}
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			v := i*(i-1)/2 + j + 1
			edges[i][j] = v
			edges[j][i] = v
		}
	}
	return edges
}

// AdjMatrix snapshots the current edge assignment as a symmetric matrix.
func (p *Propagator) AdjMatrix() AdjacencyMatrix {
	n := p.cfg.Vertices
	m := make(AdjacencyMatrix, n)
	for i := range m {
		m[i] = make([]TriState, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch p.s.LitValue(p.edges[i][j]) {
			case solver.Sat:
				m[i][j], m[j][i] = True, True
			case solver.Unsat:
				m[i][j], m[j][i] = False, False
			default:
				m[i][j], m[j][i] = Unknown, Unknown
			}
		}
	}
	return m
}

// Check implements solver.External. It snapshots the assignment, consults
// the checkers and absorbs at most one lemma into the running search.
func (p *Propagator) Check(full bool) solver.ExtVerdict {
	p.calls++
	if !full && p.cfg.Frequency > 1 && p.calls%int64(p.cfg.Frequency) != 0 {
		return solver.ExtAccept
	}
	if p.cfg.AssignmentCutoff > 0 && !full {
		if v, blocked := p.maybeBlockCube(); blocked {
			return v
		}
	}

	snapshot := p.AdjMatrix()
	if v, done := p.absorb(p.checker.Check(snapshot, full)); done {
		return v
	}
	if p.checker010 != nil {
		if v, done := p.absorb(p.checker010.Check(snapshot, full)); done {
			return v
		}
	}
	p.accepted++
	return solver.ExtAccept
}

// absorb feeds the first lemma of res, if any, to the solver. Remaining
// lemmas are dropped: the search retries propagation after every absorbed
// clause anyway.
func (p *Propagator) absorb(res CheckResult) (solver.ExtVerdict, bool) {
	if len(res.Lemmas) == 0 {
		return solver.ExtAccept, false
	}
	lemma := res.Lemmas[0]
	if len(lemma) == 0 {
		return solver.ExtUnsat, true
	}
	p.lemmas++
	if !p.s.AddClauseIntsDuringSearch(lemma) {
		return solver.ExtUnsat, true
	}
	return solver.ExtLemma, true
}

// maybeBlockCube emits the current edge assignment as a cube trace line and
// blocks it, once the prerun time has elapsed and enough edge variables are
// assigned.
func (p *Propagator) maybeBlockCube() (solver.ExtVerdict, bool) {
	if time.Since(p.start) < p.cfg.PrerunTime {
		return solver.ExtAccept, false
	}
	n := p.cfg.Vertices
	cube := make([]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch p.s.LitValue(p.edges[i][j]) {
			case solver.Sat:
				cube = append(cube, p.edges[i][j])
			case solver.Unsat:
				cube = append(cube, -p.edges[i][j])
			}
		}
	}
	if len(cube) < p.cfg.AssignmentCutoff {
		return solver.ExtAccept, false
	}
	if p.cubeOut != nil {
		fmt.Fprintf(p.cubeOut, "a %s 0\n", joinInts(cube))
	}
	logrus.WithField("size", len(cube)).Debug("blocking cube")
	blocking := make([]int, len(cube))
	for i, l := range cube {
		blocking[i] = -l
	}
	if !p.s.AddClauseIntsDuringSearch(blocking) {
		return solver.ExtUnsat, true
	}
	return solver.ExtLemma, true
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, " ")
}

// LogStats writes the check counters to the logger.
func (p *Propagator) LogStats() {
	logrus.WithFields(logrus.Fields{
		"calls":    p.calls,
		"accepted": p.accepted,
		"lemmas":   p.lemmas,
	}).Info("propagator statistics")
}
