package solver

// A watcher pairs a clause reference with a blocker, i.e a literal of the
// clause that was true last time the clause was inspected. A clause whose
// blocker is still true never needs to be loaded during propagation.
type watcher struct {
	cref    ClauseRef
	blocker Lit
}

// A watcherList stores, for each literal, the clauses to inspect when that
// literal becomes true, i.e. when its negation becomes false. Detaching is lazy: lists are smudged and compacted
// on the next lookup.
type watcherList struct {
	occs    [][]watcher // For each literal, the clauses watching its negation
	dirty   []bool      // Whether the list needs cleaning before use
	dirties []Lit       // Literals whose list is dirty
}

// initVar makes room for the two literals of v.
func (wl *watcherList) initVar(v Var) {
	for len(wl.occs) <= int(v.SignedLit(true)) {
		wl.occs = append(wl.occs, nil)
		wl.dirty = append(wl.dirty, false)
	}
}

// watch registers w on the list of p.
func (wl *watcherList) watch(p Lit, w watcher) {
	wl.occs[p] = append(wl.occs[p], w)
}

// unwatch removes the watcher for cr from the list of p. The entry must be
// present.
func (wl *watcherList) unwatch(p Lit, cr ClauseRef) {
	ws := wl.occs[p]
	i := 0
	for ws[i].cref != cr {
		i++
	}
	copy(ws[i:], ws[i+1:])
	wl.occs[p] = ws[:len(ws)-1]
}

// smudge marks the list of p as needing a cleaning pass.
func (wl *watcherList) smudge(p Lit) {
	if !wl.dirty[p] {
		wl.dirty[p] = true
		wl.dirties = append(wl.dirties, p)
	}
}

// clean removes watchers of deleted clauses from the list of p.
func (wl *watcherList) clean(ar *arena, p Lit) {
	ws := wl.occs[p]
	j := 0
	for i := 0; i < len(ws); i++ {
		if ar.clause(ws[i].cref).mark() != 1 {
			ws[j] = ws[i]
			j++
		}
	}
	wl.occs[p] = ws[:j]
	wl.dirty[p] = false
}

// cleanAll cleans every smudged list.
func (wl *watcherList) cleanAll(ar *arena) {
	for _, p := range wl.dirties {
		if wl.dirty[p] {
			wl.clean(ar, p)
		}
	}
	wl.dirties = wl.dirties[:0]
}

// lookup returns the list of p, cleaning it first if needed.
func (wl *watcherList) lookup(ar *arena, p Lit) []watcher {
	if wl.dirty[p] {
		wl.clean(ar, p)
	}
	return wl.occs[p]
}
