package domains

import "container/heap"

// Explainer is implemented by each reasoner (SAT, STN, EQ, CP) to justify
// one of its own inferences: given the literal it inferred and the Origin
// it tagged the inference with, it must return a conjunction of literals,
// entailed in the domains snapshot at inference time, that together imply
// the literal.
type Explainer interface {
	Explain(lit Lit, origin Origin, domains *Domains) []Lit
}

// Conflict is the output of explanation: an asserting clause (at most one
// literal non-false at the backjump level) plus the set of literals
// resolved away while deriving it, for use by activity-based heuristics.
type Conflict struct {
	Clause   []Lit
	Resolved map[Lit]struct{}
}

// firstImplyingEvent walks sv's event chain to find the event that first
// made lit true, per the invariant that every entailed literal has a
// unique first implying event. It returns ok=false if lit holds
// unconditionally (no event — true since the root).
func (d *Domains) firstImplyingEvent(lit Lit) (idx int, ok bool) {
	if !d.Entails(lit) {
		return -1, false
	}
	idx = d.prevEvent[lit.SVar]
	for idx != -1 {
		ev := d.events[idx]
		if ev.Previous > lit.UB {
			return idx, true
		}
		idx = ev.PrevEventIndex
	}
	return -1, false
}

// truncateTo undoes events back to (but not including) index `to`,
// returning the undone suffix so it can be restored with restore. This is
// the "backtrack within the current decision level" step spec.md 4.1
// requires so that an explainer sees the exact state at inference time.
func (d *Domains) truncateTo(to int) []Event {
	saved := append([]Event(nil), d.events[to:]...)
	for i := len(d.events) - 1; i >= to; i-- {
		ev := d.events[i]
		d.bounds[ev.Affected] = ev.Previous
		d.prevEvent[ev.Affected] = ev.PrevEventIndex
	}
	d.events = d.events[:to]
	return saved
}

// restore re-applies a suffix of events previously removed by truncateTo.
func (d *Domains) restore(saved []Event) {
	for _, ev := range saved {
		d.bounds[ev.Affected] = ev.New
		d.prevEvent[ev.Affected] = len(d.events)
		d.events = append(d.events, ev)
	}
}

// ImplyingLiterals returns a conjunction of literals entailing lit, or
// ok=false if lit is a decision or holds unconditionally.
func (d *Domains) ImplyingLiterals(lit Lit, explainer Explainer) (conj []Lit, ok bool) {
	idx, found := d.firstImplyingEvent(lit)
	if !found {
		return nil, false
	}
	ev := d.events[idx]
	if ev.Cause.Kind == Decision {
		return nil, false
	}
	saved := d.truncateTo(idx + 1)
	conj = explainer.Explain(lit, ev.Cause, d)
	d.restore(saved)
	return conj, true
}

// eventIdxHeap is a max-heap of event indices: resolving the latest event
// first is what drives the 1-UIP search toward the conflict's first unique
// implication point.
type eventIdxHeap []int

func (h eventIdxHeap) Len() int            { return len(h) }
func (h eventIdxHeap) Less(i, j int) bool  { return h[i] > h[j] }
func (h eventIdxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *eventIdxHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *eventIdxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// RefineExplanation runs the 1-UIP derivation loop starting from seed: a
// disjunction of literals already entailed by the domains. It walks the
// trail from the latest event backward, asking the supplied explainer to
// justify each inference still pending at the current decision level,
// until exactly one such literal remains (the first unique implication
// point), and returns the resulting asserting clause.
func (d *Domains) RefineExplanation(seed []Lit, explainer Explainer) Conflict {
	currentLevel := d.CurrentLevel()
	resolved := make(map[Lit]struct{})
	var clauseOut []Lit
	pending := make(map[int]Lit)
	h := &eventIdxHeap{}

	enqueue := func(lit Lit) {
		idx, ok := d.firstImplyingEvent(lit)
		if !ok {
			// Holds unconditionally: contributes nothing to the clause.
			return
		}
		lvl := d.LevelOfEvent(idx)
		if lvl == 0 {
			return
		}
		if lvl < currentLevel {
			clauseOut = append(clauseOut, lit.Negation())
			return
		}
		if existing, already := pending[idx]; already {
			if lit.UB > existing.UB {
				pending[idx] = lit
			}
			return
		}
		pending[idx] = lit
		heap.Push(h, idx)
	}

	for _, lit := range seed {
		enqueue(lit)
	}

	for h.Len() > 1 {
		idx := heap.Pop(h).(int)
		lit := pending[idx]
		delete(pending, idx)
		resolved[lit] = struct{}{}

		ev := d.events[idx]
		saved := d.truncateTo(idx + 1)
		conj := explainer.Explain(lit, ev.Cause, d)
		d.restore(saved)

		for _, l := range conj {
			enqueue(l)
		}
	}

	if h.Len() == 1 {
		idx := heap.Pop(h).(int)
		clauseOut = append(clauseOut, pending[idx].Negation())
	}

	return Conflict{Clause: clauseOut, Resolved: resolved}
}

// ClauseForInvalidUpdate derives an asserting clause from a failed update
// at a non-root decision level. At the root level it returns the empty
// clause, signaling UNSAT.
func (d *Domains) ClauseForInvalidUpdate(err *InvalidUpdateError, explainer Explainer) Conflict {
	if d.CurrentLevel() == 0 {
		return Conflict{}
	}
	v := err.Lit.SVar.Var()
	var symmetric Lit
	if err.Lit.SVar.IsPlus() {
		symmetric = Lit{SVar: Minus(v), UB: d.bounds[Minus(v)]}
	} else {
		symmetric = Lit{SVar: Plus(v), UB: d.bounds[Plus(v)]}
	}
	seed := explainer.Explain(err.Lit, err.Origin, d)
	seed = append(append([]Lit(nil), seed...), symmetric)
	return d.RefineExplanation(seed, explainer)
}
