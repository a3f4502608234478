// Package satreasoner implements the SAT reasoner (spec.md 4.3): a clause
// database indexed by a dense ClauseID, two-watched-literal propagation,
// and activity/LBD-based learnt-clause reduction.
package satreasoner

import (
	"sort"

	"github.com/solverkit/lcg/internal/domains"
)

// ClauseID indexes the clause database.
type ClauseID int

// ReasonerID tags Origin.ExternalInference values produced by this
// reasoner, so Domains.RefineExplanation knows to route back to Explain.
const ReasonerID = 1

// Clause is a disjunction in normal form: sorted, no literal entails
// another, watches are Lits[0] and Lits[1]. A clause with a non-trivial
// scope has ¬scope already absorbed as a disjunct (spec.md 3 "Clause":
// "the encoding absorbs ¬s into the disjunction").
type Clause struct {
	Lits     []domains.Lit
	Scope    domains.Lit
	Learnt   bool
	Activity float64
	LBD      int
	// Tautological marks a placeholder left behind by reduce_db so that
	// ClauseIDs stay stable across removals.
	Tautological bool
}

// normalize reduces lits to the clause normal form from spec.md 3: sorted,
// and no literal entails another. Two literals can only entail each other
// if they share a signed variable, so per SVar only the weakest (largest
// upper bound) literal is kept — if A entails B (A's bound is tighter),
// A ∨ B is equivalent to B alone. The clause is dropped entirely
// (ok=false) if it is a tautology: a literal and its own negation both
// present after reduction.
func normalize(lits []domains.Lit) (out []domains.Lit, ok bool) {
	weakest := make(map[domains.SVar]domains.UB, len(lits))
	for _, l := range lits {
		if cur, exists := weakest[l.SVar]; !exists || l.UB > cur {
			weakest[l.SVar] = l.UB
		}
	}
	out = make([]domains.Lit, 0, len(weakest))
	for sv, ub := range weakest {
		out = append(out, domains.Lit{SVar: sv, UB: ub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	for _, l := range out {
		if neg, negPresent := weakest[l.SVar.Negate()]; negPresent {
			if l.Negation().UB <= neg {
				return nil, false // l ∨ ¬l-or-weaker: tautology
			}
		}
	}
	return out, true
}
