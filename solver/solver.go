package solver

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Stats are statistics about the resolution of the problem.
// They are provided for information purpose only.
type Stats struct {
	NbSolves       int
	NbRestarts     int
	NbConflicts    int64
	NbDecisions    int64
	NbRndDecisions int64
	NbPropagations int64
	NbLearned      int   // How many clauses were learned
	NbUnitLearned  int   // How many unit clauses were learned
	NbDeleted      int   // How many clauses were deleted
	MaxLiterals    int64 // Total size of learnt clauses before minimization
	TotLiterals    int64 // Total size of learnt clauses after minimization
}

type varData struct {
	reason ClauseRef
	level  int32
}

// Values of the seen marks during conflict analysis.
const (
	seenUndef byte = iota
	seenSource
	seenRemovable
	seenFailed
)

type shrinkElem struct {
	i int
	l Lit
}

// ExtVerdict is the answer of an external propagator consulted on a stable trail.
type ExtVerdict int8

const (
	// ExtUnsat means the propagator proved the current root infeasible.
	ExtUnsat = ExtVerdict(-1)
	// ExtLemma means a lemma was absorbed; propagation must be retried.
	ExtLemma = ExtVerdict(0)
	// ExtAccept means the assignment passed the external check.
	ExtAccept = ExtVerdict(1)
)

// External is a theory check consulted by the search loop whenever
// propagation has reached a fixpoint with no pending conflict. It typically
// reads the solver state through accessors and feeds lemmas back through
// AddClauseDuringSearch.
type External interface {
	Check(full bool) ExtVerdict
}

// A Solver holds the whole state of a CDCL search. It is the main data structure.
type Solver struct {
	Verbose bool // Indicates whether the solver should log information during solving. False by default.

	opts Options
	ok   bool // false means the solver is in a conflicting state at root level

	ca      arena
	clauses []ClauseRef // Problem clauses
	learnts []ClauseRef // Learnt clauses
	watches watcherList

	assigns  []Status   // Current assignment of each var
	vardata  []varData  // Reason and level of each assignment
	activity []float64  // How often each var is involved in conflicts
	polarity []bool     // Saved phase of each var; true means negative
	userPol  []Status   // Forced phase of each var; Indet means unset
	decision []bool     // Whether the var may be used as a decision
	seen     []byte     // Temporary marks for analysis
	trail    []Lit      // Assignment stack, in chronological order
	trailLim []int      // Separator indices for decision levels in trail
	qhead    int        // Head of the propagation queue, as an index into trail

	assumptions []Lit // Set of assumption literals tried before free decisions
	conflict    []Lit // Final conflict over assumptions, if any
	conflictIdx int   // Iterator position into conflict, for the stepwise API

	varQueue queue
	varInc   float64
	claInc   float32

	nextVar  Var
	freeVars []Var // Released variables ready for reuse
	released []Var // Released variables still on the trail

	clausesLiterals int64
	learntsLiterals int64
	simpDBAssigns   int
	simpDBProps     int64
	removeSatisfied bool

	maxLearnts            float64
	learntsizeAdjustConfl float64
	learntsizeAdjustCnt   int

	cflr      ClauseRef // Cached conflict from the last propagation; CRefUndef when clean
	literator int       // Trail iterator of the stepwise API; -1 when exhausted

	learntBuf      []Lit
	analyzeToClear []Lit
	analyzeStack   []shrinkElem

	ext      External
	edgeVars int // Leading variables encoding the graph; 0 means all of them

	rand rng

	// Resource constraints. Negative values mean no limit.
	ConflictBudget    int64
	PropagationBudget int64
	TimeBudget        float64 // Wall-clock seconds spent searching, cumulated over restarts

	solveTime float64
	interrupt bool

	model  []Status // Last model found, if any
	numSol int

	Stats Stats // Statistics about the solving process.
}

// New makes an empty solver with the default options.
func New() *Solver {
	return NewSolver(DefaultOptions())
}

// NewSolver makes an empty solver with the given options. Variables and
// clauses are added afterwards, through NewVar and AddClause.
func NewSolver(opts Options) *Solver {
	s := &Solver{
		opts:              opts,
		ok:                true,
		varInc:            1,
		claInc:            1,
		removeSatisfied:   true,
		simpDBAssigns:     -1,
		cflr:              CRefUndef,
		literator:         -1,
		ConflictBudget:    -1,
		PropagationBudget: -1,
		TimeBudget:        -1,
		rand:              rng{seed: opts.RandomSeed},
	}
	s.varQueue = newQueue(&s.activity)
	return s
}

// NewVar creates a new variable with the given forced polarity (Indet for
// none) and decision flag, reusing a released variable when possible.
func (s *Solver) NewVar(upol Status, dvar bool) Var {
	var v Var
	if len(s.freeVars) > 0 {
		v = s.freeVars[len(s.freeVars)-1]
		s.freeVars = s.freeVars[:len(s.freeVars)-1]
		s.assigns[v] = Indet
		s.vardata[v] = varData{reason: CRefUndef}
		s.activity[v] = s.initialActivity()
		s.seen[v] = seenUndef
		s.polarity[v] = true
		s.userPol[v] = upol
		s.decision[v] = false
	} else {
		v = s.nextVar
		s.nextVar++
		s.watches.initVar(v)
		s.assigns = append(s.assigns, Indet)
		s.vardata = append(s.vardata, varData{reason: CRefUndef})
		s.activity = append(s.activity, s.initialActivity())
		s.seen = append(s.seen, seenUndef)
		s.polarity = append(s.polarity, true)
		s.userPol = append(s.userPol, upol)
		s.decision = append(s.decision, false)
	}
	s.SetDecisionVar(v, dvar)
	return v
}

func (s *Solver) initialActivity() float64 {
	if s.opts.RndInitAct {
		return s.rand.float() * 0.00001
	}
	return 0
}

// ReleaseVar retires the variable of l: l becomes a root unit and the
// variable is recycled after the next top-level simplification. Only
// unassigned variables can be released.
func (s *Solver) ReleaseVar(l Lit) {
	if s.value(l) == Indet {
		s.AddClause(l)
		s.released = append(s.released, l.Var())
	}
}

// SetDecisionVar declares whether v may be picked as a decision variable.
func (s *Solver) SetDecisionVar(v Var, b bool) {
	s.decision[v] = b
	s.insertVarOrder(v)
}

// SetExternal registers the external propagator consulted on stable trails.
func (s *Solver) SetExternal(ext External) {
	s.ext = ext
}

// SetEdgeVars declares that the first n variables encode the graph model.
// They determine assignment fullness for the external check and the scope of
// enumeration blocking clauses.
func (s *Solver) SetEdgeVars(n int) {
	s.edgeVars = n
}

// SetAssumptions installs the assumption literals tried, in order, before
// any free decision during the next Solve call.
func (s *Solver) SetAssumptions(lits []Lit) {
	s.assumptions = append(s.assumptions[:0], lits...)
}

// NVars returns the number of variables.
func (s *Solver) NVars() int { return int(s.nextVar) }

// NClauses returns the number of original clauses.
func (s *Solver) NClauses() int { return len(s.clauses) }

// NLearnts returns the number of learnt clauses.
func (s *Solver) NLearnts() int { return len(s.learnts) }

func (s *Solver) nAssigns() int { return len(s.trail) }

func (s *Solver) decisionLevel() int { return len(s.trailLim) }

// DecisionLevel returns the current decision level.
func (s *Solver) DecisionLevel() int { return s.decisionLevel() }

// Ok returns false once the solver was proven infeasible at root level.
func (s *Solver) Ok() bool { return s.ok }

// value returns the current status of l: Sat if true, Unsat if false,
// Indet if unbound.
func (s *Solver) value(l Lit) Status {
	assign := s.assigns[l.Var()]
	if assign == Indet {
		return Indet
	}
	if (assign == Sat) == l.IsPositive() {
		return Sat
	}
	return Unsat
}

// VarValue returns the current assignment of v.
func (s *Solver) VarValue(v Var) Status { return s.assigns[v] }

// LitValue returns the current status of the CNF literal i.
func (s *Solver) LitValue(i int) Status { return s.value(IntToLit(i)) }

func (s *Solver) level(v Var) int { return int(s.vardata[v].level) }

func (s *Solver) reason(v Var) ClauseRef { return s.vardata[v].reason }

// locked is true iff c is the reason of its first literal's assignment.
// Locked clauses must not be removed.
func (s *Solver) locked(c clause) bool {
	v := c.First().Var()
	return s.value(c.First()) == Sat && s.reason(v) != CRefUndef && s.reason(v) == c.ref
}

func (s *Solver) insertVarOrder(v Var) {
	if !s.varQueue.contains(int(v)) && s.decision[v] {
		s.varQueue.insert(int(v))
	}
}

func (s *Solver) varDecayActivity() {
	s.varInc *= 1 / s.opts.VarDecay
}

func (s *Solver) varBumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > 1e100 { // Rescaling is needed to avoid overflowing
		for i := range s.activity {
			s.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	if s.varQueue.contains(int(v)) {
		s.varQueue.decrease(int(v))
	}
}

// Decays each clause's activity.
func (s *Solver) claDecayActivity() {
	s.claInc *= 1 / float32(s.opts.ClauseDecay)
}

// Bumps the given clause's activity.
func (s *Solver) claBumpActivity(c clause) {
	c.setActivity(c.activity() + s.claInc)
	if c.activity() > 1e20 { // Rescale to avoid overflow
		for _, cr := range s.learnts {
			c2 := s.ca.clause(cr)
			c2.setActivity(c2.activity() * 1e-20)
		}
		s.claInc *= 1e-20
	}
}

// AddClause adds a clause at root level. It returns false if the solver
// became infeasible.
func (s *Solver) AddClause(lits ...Lit) bool {
	if !s.ok {
		return false
	}
	ps := make([]Lit, len(lits))
	copy(ps, lits)
	// Check if the clause is satisfied and remove false/duplicate literals:
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	p := LitUndef
	j := 0
	for i := 0; i < len(ps); i++ {
		if s.value(ps[i]) == Sat || ps[i] == p.Negation() {
			return true
		}
		if s.value(ps[i]) != Unsat && ps[i] != p {
			p = ps[i]
			ps[j] = p
			j++
		}
	}
	ps = ps[:j]
	switch len(ps) {
	case 0:
		s.ok = false
		return false
	case 1:
		s.uncheckedEnqueue(ps[0], CRefUndef)
		s.ok = s.propagate() == CRefUndef
		return s.ok
	default:
		cr := s.ca.alloc(ps, false)
		s.clauses = append(s.clauses, cr)
		s.attachClause(cr)
	}
	return true
}

// AddClauseInts adds a clause given as CNF literals, creating decision
// variables as needed.
func (s *Solver) AddClauseInts(lits ...int) bool {
	ps := make([]Lit, len(lits))
	for i, val := range lits {
		l := IntToLit(val)
		for l.Var() >= s.nextVar {
			s.NewVar(Indet, true)
		}
		ps[i] = l
	}
	return s.AddClause(ps...)
}

func (s *Solver) attachClause(cr ClauseRef) {
	c := s.ca.clause(cr)
	s.watches.watch(c.First().Negation(), watcher{cref: cr, blocker: c.Second()})
	s.watches.watch(c.Second().Negation(), watcher{cref: cr, blocker: c.First()})
	if c.learnt() {
		s.learntsLiterals += int64(c.Len())
	} else {
		s.clausesLiterals += int64(c.Len())
	}
}

func (s *Solver) detachClause(cr ClauseRef, strict bool) {
	c := s.ca.clause(cr)
	if strict {
		s.watches.unwatch(c.First().Negation(), cr)
		s.watches.unwatch(c.Second().Negation(), cr)
	} else {
		s.watches.smudge(c.First().Negation())
		s.watches.smudge(c.Second().Negation())
	}
	if c.learnt() {
		s.learntsLiterals -= int64(c.Len())
	} else {
		s.clausesLiterals -= int64(c.Len())
	}
}

func (s *Solver) removeClause(cr ClauseRef) {
	c := s.ca.clause(cr)
	s.detachClause(cr, false)
	// Don't leave a reason pointing at freed data
	if s.locked(c) {
		s.vardata[c.First().Var()].reason = CRefUndef
	}
	c.setMark(1)
	s.ca.free(cr)
}

func (s *Solver) isRemoved(cr ClauseRef) bool {
	return s.ca.clause(cr).mark() == 1
}

func (s *Solver) satisfied(c clause) bool {
	for i := 0; i < c.Len(); i++ {
		if s.value(c.Get(i)) == Sat {
			return true
		}
	}
	return false
}

func (s *Solver) uncheckedEnqueue(p Lit, from ClauseRef) {
	v := p.Var()
	if p.IsPositive() {
		s.assigns[v] = Sat
	} else {
		s.assigns[v] = Unsat
	}
	s.vardata[v] = varData{reason: from, level: int32(s.decisionLevel())}
	s.trail = append(s.trail, p)
}

func (s *Solver) newDecisionLevel() {
	s.trailLim = append(s.trailLim, len(s.trail))
}

// cancelUntil reverts to the state at the given level, keeping all
// assignments at 'level' but not beyond.
func (s *Solver) cancelUntil(level int) {
	if s.decisionLevel() <= level {
		return
	}
	s.cflr = CRefUndef
	for c := len(s.trail) - 1; c >= s.trailLim[level]; c-- {
		x := s.trail[c].Var()
		s.assigns[x] = Indet
		if s.opts.PhaseSaving > 1 || (s.opts.PhaseSaving == 1 && c > s.trailLim[len(s.trailLim)-1]) {
			s.polarity[x] = !s.trail[c].IsPositive()
		}
		s.insertVarOrder(x)
	}
	s.qhead = s.trailLim[level]
	s.trail = s.trail[:s.trailLim[level]]
	s.trailLim = s.trailLim[:level]
}

func (s *Solver) rebuildOrderHeap() {
	vs := make([]int, 0, s.NVars())
	for v := Var(0); v < s.nextVar; v++ {
		if s.decision[v] && s.assigns[v] == Indet {
			vs = append(vs, int(v))
		}
	}
	s.varQueue.build(vs)
}

// removeSatisfiedIn deletes satisfied clauses from cs and strips literals
// false at root level from the remaining ones.
func (s *Solver) removeSatisfiedIn(cs *[]ClauseRef) {
	j := 0
	for _, cr := range *cs {
		c := s.ca.clause(cr)
		if s.satisfied(c) {
			s.removeClause(cr)
			continue
		}
		// Trim clause:
		for k := 2; k < c.Len(); k++ {
			if s.value(c.Get(k)) == Unsat {
				c.Set(k, c.Get(c.Len()-1))
				c.pop()
				k--
			}
		}
		(*cs)[j] = cr
		j++
	}
	*cs = (*cs)[:j]
}

// simplify cleans the clause database according to the current root-level
// assignment. It must be called at decision level 0 and returns false if the
// solver became infeasible.
func (s *Solver) simplify() bool {
	if !s.ok || s.propagate() != CRefUndef {
		s.ok = false
		return false
	}
	if s.nAssigns() == s.simpDBAssigns || s.simpDBProps > 0 {
		return true
	}
	s.removeSatisfiedIn(&s.learnts)
	if s.removeSatisfied {
		s.removeSatisfiedIn(&s.clauses)

		// Remove all released variables from the trail:
		for _, v := range s.released {
			s.seen[v] = 1
		}
		j := 0
		for i := 0; i < len(s.trail); i++ {
			if s.seen[s.trail[i].Var()] == seenUndef {
				s.trail[j] = s.trail[i]
				j++
			}
		}
		s.trail = s.trail[:j]
		s.qhead = len(s.trail)
		for _, v := range s.released {
			s.seen[v] = seenUndef
		}
		// Released variables are now ready to be reused:
		s.freeVars = append(s.freeVars, s.released...)
		s.released = s.released[:0]
	}
	s.checkGarbage()
	s.rebuildOrderHeap()

	s.simpDBAssigns = s.nAssigns()
	s.simpDBProps = s.clausesLiterals + s.learntsLiterals
	return true
}

// reduceDB removes half of the learnt clauses, minus the clauses locked by
// the current assignment. Binary clauses are never removed.
func (s *Solver) reduceDB() {
	extraLim := float64(s.claInc) / float64(len(s.learnts)) // Remove any clause below this activity

	sort.Slice(s.learnts, func(i, j int) bool {
		x := s.ca.clause(s.learnts[i])
		y := s.ca.clause(s.learnts[j])
		return x.Len() > 2 && (y.Len() == 2 || x.activity() < y.activity())
	})
	j := 0
	for i, cr := range s.learnts {
		c := s.ca.clause(cr)
		if c.Len() > 2 && !s.locked(c) && (i < len(s.learnts)/2 || float64(c.activity()) < extraLim) {
			s.removeClause(cr)
			s.Stats.NbDeleted++
		} else {
			s.learnts[j] = cr
			j++
		}
	}
	s.learnts = s.learnts[:j]
	if s.Verbose {
		logrus.WithFields(logrus.Fields{
			"kept":    len(s.learnts),
			"deleted": s.Stats.NbDeleted,
		}).Debug("reduced learnt database")
	}
	s.checkGarbage()
}

// Garbage collection. Compaction copies live clauses into a fresh arena and
// rewrites every held reference through the forwarding offsets.

func (s *Solver) checkGarbage() {
	if len(s.ca.data) > 0 && float64(s.ca.wasted)/float64(len(s.ca.data)) > s.opts.GcFrac {
		s.garbageCollect()
	}
}

func (s *Solver) garbageCollect() {
	// Size the next region to the estimated utilization to avoid growth
	// reallocations while relocating.
	to := arena{data: make([]uint32, 0, len(s.ca.data)-s.ca.wasted)}
	s.relocAll(&to)
	if s.Verbose {
		logrus.WithFields(logrus.Fields{
			"before": len(s.ca.data),
			"after":  len(to.data),
		}).Debug("collected garbage")
	}
	s.ca = to
}

func (s *Solver) relocAll(to *arena) {
	// All watchers:
	s.watches.cleanAll(&s.ca)
	for v := Var(0); v < s.nextVar; v++ {
		for sign := 0; sign < 2; sign++ {
			p := v.SignedLit(sign == 1)
			ws := s.watches.occs[p]
			for i := range ws {
				s.ca.reloc(&ws[i].cref, to)
			}
		}
	}

	// All reasons:
	for _, l := range s.trail {
		v := l.Var()
		// It is not safe to call locked on a relocated clause, so dangling
		// reasons of unlocked clauses are kept as-is.
		if r := s.reason(v); r != CRefUndef && (s.ca.clause(r).reloced() || s.locked(s.ca.clause(r))) {
			s.ca.reloc(&s.vardata[v].reason, to)
		}
	}

	// All learnt:
	j := 0
	for _, cr := range s.learnts {
		if !s.isRemoved(cr) {
			s.ca.reloc(&cr, to)
			s.learnts[j] = cr
			j++
		}
	}
	s.learnts = s.learnts[:j]

	// All original:
	j = 0
	for _, cr := range s.clauses {
		if !s.isRemoved(cr) {
			s.ca.reloc(&cr, to)
			s.clauses[j] = cr
			j++
		}
	}
	s.clauses = s.clauses[:j]
}

// Interrupt asks the solver to stop at the next restart boundary. The
// current Solve call will return Indet.
func (s *Solver) Interrupt() { s.interrupt = true }

// ClearInterrupt resets the interrupt flag.
func (s *Solver) ClearInterrupt() { s.interrupt = false }

func (s *Solver) withinBudget() bool {
	return !s.interrupt &&
		(s.ConflictBudget < 0 || s.Stats.NbConflicts < s.ConflictBudget) &&
		(s.PropagationBudget < 0 || s.Stats.NbPropagations < s.PropagationBudget) &&
		(s.TimeBudget < 0 || s.solveTime < s.TimeBudget)
}

// Model returns the last model found. It panics if no model was found yet.
func (s *Solver) Model() []bool {
	if s.model == nil {
		panic("cannot call Model() from a non-Sat solver")
	}
	res := make([]bool, len(s.model))
	for i, val := range s.model {
		res[i] = val == Sat
	}
	return res
}

func (s *Solver) modelValue(v Var) Status {
	if int(v) >= len(s.model) {
		return Indet
	}
	return s.model[v]
}

// ModelValue returns true iff the CNF literal i is true in the last model.
func (s *Solver) ModelValue(i int) bool {
	l := IntToLit(i)
	val := s.modelValue(l.Var())
	if val == Indet {
		return false
	}
	return (val == Sat) == l.IsPositive()
}
