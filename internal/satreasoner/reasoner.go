package satreasoner

import (
	"sort"

	"github.com/solverkit/lcg/internal/domains"
)

// Reasoner is the SAT clause database and its two-watched-literal
// propagator. Watched literals are registered by exact value: this
// reasoner's clause literals are always in the canonical boolean form
// produced by reification (the positive atom v >= 1 is UB == -1 on the
// negative SVar, its negation v <= 0 is UB == 0 on the positive SVar), so
// "the literal that most recently became false" is exactly the negation
// of the most recently tightened literal on its SVar — no range search
// over intermediate bounds is needed.
type Reasoner struct {
	dom      *domains.Domains
	clauses  []Clause
	watchers map[domains.Lit][]ClauseID
	// processed is how far into dom.Events() this reasoner has scanned.
	processed int

	clauseInc   float64
	clauseDecay float64

	lockedLBD int
}

// New creates a Reasoner over dom.
func New(dom *domains.Domains) *Reasoner {
	return &Reasoner{
		dom:         dom,
		watchers:    make(map[domains.Lit][]ClauseID),
		clauseInc:   1,
		clauseDecay: 1.0 / 0.999,
		lockedLBD:   2,
	}
}

// SetLockedLBD sets the LBD at or below which reduce_db never removes a
// learnt clause (section 6 "Configuration": "Clause DB locked LBD level").
func (r *Reasoner) SetLockedLBD(level int) { r.lockedLBD = level }

// AddClause posts a (possibly scoped, possibly learnt) clause and returns
// its id. A scoped clause absorbs ¬scope as an extra disjunct.
func (r *Reasoner) AddClause(lits []domains.Lit, scope domains.Lit, learnt bool) (ClauseID, bool) {
	full := lits
	if scope != domains.TrueLit {
		full = append(append([]domains.Lit(nil), lits...), scope.Negation())
	}
	norm, ok := normalize(full)
	if !ok {
		return -1, false // tautology; nothing to store
	}
	id := ClauseID(len(r.clauses))
	lbd := countLevels(r.dom, norm)
	r.clauses = append(r.clauses, Clause{Lits: norm, Scope: scope, Learnt: learnt, LBD: lbd})
	r.watch(id)
	return id, true
}

// countLevels computes the clause's LBD: the number of distinct decision
// levels among its (false, at add time) literals. The opposite SVar of each
// literal carries its most recent event, which is the event that drove it
// false, so EventIndexOf/LevelOfEvent gives the level directly without
// re-deriving an explanation.
func countLevels(dom *domains.Domains, lits []domains.Lit) int {
	levels := make(map[int]struct{})
	for _, l := range lits {
		idx := dom.EventIndexOf(l.SVar.Negate())
		if idx == -1 {
			continue
		}
		levels[dom.LevelOfEvent(idx)] = struct{}{}
	}
	if len(levels) == 0 {
		return 1
	}
	return len(levels)
}

// watch registers the clause's first two literals (or, for a unit clause,
// its single literal; Propagate reports a conflict once it is false) as
// watches.
func (r *Reasoner) watch(id ClauseID) {
	cls := r.clauses[id]
	n := len(cls.Lits)
	if n == 0 {
		return
	}
	r.watchers[cls.Lits[0]] = append(r.watchers[cls.Lits[0]], id)
	if n > 1 {
		r.watchers[cls.Lits[1]] = append(r.watchers[cls.Lits[1]], id)
	}
}

// Propagate runs two-watched-literal propagation to fixpoint over every
// event appended to the trail since the last call, mirroring
// cespare/saturday's bcp() watch-swap dance generalized to scoped clauses.
// It returns a non-nil *domains.InvalidUpdateError-wrapping error on
// conflict.
func (r *Reasoner) Propagate() error {
	for {
		events := r.dom.Events()
		if r.processed >= len(events) {
			return nil
		}
		ev := events[r.processed]
		r.processed++

		newlyTrue := domains.Lit{SVar: ev.Affected, UB: ev.New}
		falseLit := newlyTrue.Negation()
		ws := r.watchers[falseLit]
		if len(ws) == 0 {
			continue
		}
		keep := ws[:0]
		for _, id := range ws {
			cls := &r.clauses[id]
			if cls.Tautological {
				continue
			}
			if len(cls.Lits) == 1 {
				// Unit clause: its only literal has just become false.
				return &domains.InvalidUpdateError{Lit: falseLit, Origin: domains.FromReasoner(ReasonerID, uint32(id))}
			}
			if cls.Lits[0] == falseLit {
				cls.Lits[0], cls.Lits[1] = cls.Lits[1], cls.Lits[0]
			}
			other := cls.Lits[0]
			if r.dom.Entails(other) {
				keep = append(keep, id)
				continue
			}
			replaced := false
			for j := 2; j < len(cls.Lits); j++ {
				cand := cls.Lits[j]
				if r.dom.Entails(cand.Negation()) {
					continue // already false
				}
				r.watchers[cand] = append(r.watchers[cand], id)
				cls.Lits[1], cls.Lits[j] = cls.Lits[j], cls.Lits[1]
				replaced = true
				break
			}
			if replaced {
				continue
			}
			keep = append(keep, id)
			if r.dom.Entails(other.Negation()) {
				return &domains.InvalidUpdateError{Lit: other, Origin: domains.FromReasoner(ReasonerID, uint32(id))}
			}
			if _, err := r.dom.Set(other, domains.FromReasoner(ReasonerID, uint32(id))); err != nil {
				return err
			}
		}
		r.watchers[falseLit] = keep
	}
}

// Explain implements domains.Explainer: the conjunction entailing a clause-
// forced literal is the negation of every other literal in the clause
// (they were all false when the clause went unit).
func (r *Reasoner) Explain(lit domains.Lit, origin domains.Origin, _ *domains.Domains) []domains.Lit {
	id := ClauseID(origin.Payload)
	cls := r.clauses[id]
	out := make([]domains.Lit, 0, len(cls.Lits)-1)
	for _, l := range cls.Lits {
		if l == lit {
			continue
		}
		out = append(out, l.Negation())
	}
	return out
}

// BumpActivity increases id's activity after it participates in a
// conflict, rescaling every clause's activity if it grows too large; the
// geometric decay itself is DecayActivity.
func (r *Reasoner) BumpActivity(id ClauseID) {
	r.clauses[id].Activity += r.clauseInc
	if r.clauses[id].Activity > 1e100 {
		for i := range r.clauses {
			r.clauses[i].Activity *= 1e-100
		}
		r.clauseInc *= 1e-100
	}
}

// DecayActivity applies the geometric activity decay (called once per
// conflict, before bumping the clauses actually involved).
func (r *Reasoner) DecayActivity() { r.clauseInc *= r.clauseDecay }

// ReduceDB removes roughly half of the learnt clauses, sorted by ascending
// activity, but never one with LBD <= the locked level (spec.md 4.3
// "Database management"). Removed slots are left as tautological
// placeholders so ClauseIDs stay stable.
func (r *Reasoner) ReduceDB() {
	var candidates []ClauseID
	for i, c := range r.clauses {
		if c.Learnt && !c.Tautological && c.LBD > r.lockedLBD {
			candidates = append(candidates, ClauseID(i))
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return r.clauses[candidates[i]].Activity < r.clauses[candidates[j]].Activity
	})
	cut := len(candidates) / 2
	for _, id := range candidates[:cut] {
		r.removeClause(id)
	}
}

func (r *Reasoner) removeClause(id ClauseID) {
	cls := &r.clauses[id]
	for _, l := range cls.Lits {
		ws := r.watchers[l]
		for i, w := range ws {
			if w == id {
				ws[i] = ws[len(ws)-1]
				ws = ws[:len(ws)-1]
				break
			}
		}
		r.watchers[l] = ws
	}
	cls.Lits = nil
	cls.Tautological = true
}

// NumClauses reports how many clause slots exist (including removed
// placeholders).
func (r *Reasoner) NumClauses() int { return len(r.clauses) }

// Clause returns clause id's current literals (for diagnostics/tests).
func (r *Reasoner) Clause(id ClauseID) Clause { return r.clauses[id] }
