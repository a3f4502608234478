package scopes

import (
	"fmt"
	"sort"

	set "github.com/hashicorp/go-set/v2"

	"github.com/solverkit/lcg/internal/domains"
)

// Registry interns expressions to scoped optional literals and maintains
// the conjunctive-scope registry (spec.md 4.2).
type Registry struct {
	dom *domains.Domains

	reified map[string]domains.Lit // canonical expr key -> reification literal
	boundTo map[string]domains.Lit // canonical expr key -> literal it was bound to, if any

	conjunctive map[string]domains.Lit // sorted presence-literal-set key -> scope literal
	tautology   map[domains.Lit]domains.Lit
}

// NewRegistry creates a Registry backed by dom.
func NewRegistry(dom *domains.Domains) *Registry {
	return &Registry{
		dom:         dom,
		reified:     make(map[string]domains.Lit),
		boundTo:     make(map[string]domains.Lit),
		conjunctive: make(map[string]domains.Lit),
		tautology:   make(map[domains.Lit]domains.Lit),
	}
}

// scopeOf computes the validity scope of e: the conjunction of presence
// literals of every variable it mentions.
func (r *Registry) scopeOf(e Expr) domains.Lit {
	vs := Vars(e)
	lits := make([]domains.Lit, 0, len(vs))
	for _, v := range vs {
		lits = append(lits, r.dom.Presence(v))
	}
	return r.GetConjunctiveScope(lits)
}

// presenceSetKey canonicalizes a set of presence literals (deduplicated,
// then sorted for a deterministic key) using go-set for the dedup step.
func presenceSetKey(lits []domains.Lit) (string, []domains.Lit) {
	s := set.From(lits)
	uniq := s.Slice()
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].Less(uniq[j]) })
	key := ""
	for _, l := range uniq {
		key += l.String() + "|"
	}
	return key, uniq
}

// GetConjunctiveScope interns the conjunction of lits to a single scope
// literal, applying the simplifications from spec.md 4.2:
//   - a singleton {v} maps to v;
//   - {v1, v2} where one literal already holds maps to the other one; no
//     other implication between v1 and v2 is detected, and neither is
//     exclusivity, so such pairs fall through to the general case, which
//     remains correct, only less compact;
//   - otherwise, a fresh literal l is introduced with l => vi for each vi
//     and the clause l ∨ ⋁¬vi (left to the SAT reasoner to post; this
//     registry only allocates l and records its defining conjunction via
//     AddImplication, which is sufficient for literals on non-optional
//     presence variables).
func (r *Registry) GetConjunctiveScope(lits []domains.Lit) domains.Lit {
	key, uniq := presenceSetKey(lits)
	if len(uniq) == 0 {
		return domains.TrueLit
	}
	if len(uniq) == 1 {
		return uniq[0]
	}
	if s, ok := r.conjunctive[key]; ok {
		return s
	}
	// One literal already holds (so the other implies it): the conjunction
	// reduces to the other one.
	if len(uniq) == 2 {
		a, b := uniq[0], uniq[1]
		if r.dom.Entails(b) || a == b {
			r.conjunctive[key] = a
			return a
		}
		if r.dom.Entails(a) {
			r.conjunctive[key] = b
			return b
		}
	}
	v := r.dom.NewVar(0, 1)
	scopeLit := domains.Leq(v, 0).Negation() // v == 1
	for _, l := range uniq {
		r.dom.AddImplication(scopeLit, l)
	}
	r.conjunctive[key] = scopeLit
	return scopeLit
}

// GetTautologyOfScope returns the literal that is true exactly when scope
// holds, interning one per distinct scope so repeated enforce() calls in
// the same scope don't flood the clause database with redundant
// always-true literals (design note, spec.md 9).
func (r *Registry) GetTautologyOfScope(scope domains.Lit) domains.Lit {
	if scope == domains.TrueLit {
		return domains.TrueLit
	}
	if t, ok := r.tautology[scope]; ok {
		return t
	}
	// An optional variable whose domain is the singleton {1} and whose
	// presence literal is scope is, by construction, true exactly when
	// scope holds: its own presence literal already has the tautology
	// property, so no further encoding is needed beyond interning it
	// once per scope.
	v := r.dom.NewOptionalVar(1, 1, scope)
	t := r.dom.Presence(v)
	r.tautology[scope] = t
	return t
}

// Reify interns expr's canonicalized form to a reification literal,
// creating a fresh optional variable scoped to expr's validity scope the
// first time a given canonical expression is seen.
func (r *Registry) Reify(expr Expr) domains.Lit {
	ce := Canonicalize(expr)
	if ce.Op == OpAtom {
		return ce.Lit
	}
	if ce.Op == OpConst {
		if ce.Const != 0 {
			return domains.TrueLit
		}
		return domains.FalseLit
	}
	key := Key(ce)
	if l, ok := r.reified[key]; ok {
		return l
	}
	scope := r.scopeOf(ce)
	v := r.dom.NewOptionalVar(0, 1, scope)
	l := domains.Leq(v, 0).Negation() // v == 1 <=> expr holds
	r.reified[key] = l
	return l
}

// Bind equates expr's reification literal with lit (a no-op if expr was
// already bound to a structurally-equal literal; a programmer error if
// expr was already bound to a conflicting one).
func (r *Registry) Bind(expr Expr, lit domains.Lit) {
	ce := Canonicalize(expr)
	key := Key(ce)
	if existing, ok := r.boundTo[key]; ok {
		if existing != lit {
			panic(fmt.Sprintf("scopes: %s already bound to a different literal", key))
		}
		return
	}
	reifLit := r.Reify(expr)
	if reifLit != lit {
		// AddImplication is a Domains-level shortcut restricted to
		// non-optional variables (spec.md 4.1's contract). When either
		// side is optional, the equivalence must instead be posted as a
		// clause pair by whichever reasoner owns lit (typically the SAT
		// reasoner, as "reifLit <=> lit"); this registry only records
		// that the binding happened.
		if !r.dom.IsOptional(reifLit.SVar.Var()) && !r.dom.IsOptional(lit.SVar.Var()) {
			r.dom.AddImplication(reifLit, lit)
			r.dom.AddImplication(lit, reifLit)
		}
	}
	r.boundTo[key] = lit
}

// Enforce reifies expr and equates it with the tautology literal of scope,
// i.e. posts "scope => expr".
func (r *Registry) Enforce(expr Expr, scope domains.Lit) {
	r.Bind(expr, r.GetTautologyOfScope(scope))
}
