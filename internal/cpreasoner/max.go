package cpreasoner

import "github.com/solverkit/lcg/internal/domains"

// Elem is one operand of a Max constraint: its own variable, an additive
// constant, and the literal that must hold for it to participate.
type Elem struct {
	Var      domains.VarID
	Const    int64
	Presence domains.Lit
}

// Max propagates "max <= max_i(elements[i].Var + elements[i].Const)" for
// whichever elements are currently present, following
// reasoners/cp/max.rs's LeftUbMax: this is deliberately only the
// upper-bound-from-elements direction of the full Max constraint (tightening
// elements' own bounds downward from max's lower bound is a distinct
// propagator in the original decomposition and is out of scope here).
type Max struct {
	MaxVar   domains.VarID
	MaxPres  domains.Lit
	Elements []Elem
}

// Setup wakes this propagator when any element's variable or presence
// changes.
func (m *Max) Setup() []domains.VarID {
	vars := make([]domains.VarID, 0, len(m.Elements)*2+1)
	vars = append(vars, m.MaxVar)
	for _, e := range m.Elements {
		vars = append(vars, e.Var)
		if e.Presence != domains.TrueLit {
			vars = append(vars, e.Presence.SVar.Var())
		}
	}
	return vars
}

// Propagate implements Propagator.
func (m *Max) Propagate(dom *domains.Domains, cause domains.Origin) error {
	var anyPresent bool
	var ub int64 = minInt64
	for _, e := range m.Elements {
		if dom.Entails(e.Presence.Negation()) {
			continue
		}
		anyPresent = true
		_, eub := dom.Bounds(e.Var)
		if v := eub + e.Const; v > ub {
			ub = v
		}
	}
	if anyPresent {
		if _, err := dom.Set(domains.Leq(m.MaxVar, domains.UB(ub)), cause); err != nil {
			return err
		}
		return nil
	}
	if m.MaxPres != domains.TrueLit {
		if _, err := dom.Set(m.MaxPres.Negation(), cause); err != nil {
			return err
		}
	}
	return nil
}

// Explain implements Propagator: max <= k is implied by every present
// element's "var + const <= k" (or its own absence).
func (m *Max) Explain(lit domains.Lit, dom *domains.Domains) []domains.Lit {
	var maxUB int64
	if lit.SVar == domains.Plus(m.MaxVar) {
		maxUB = int64(lit.UB)
	} else {
		_, maxUB = dom.Bounds(m.MaxVar)
	}
	out := make([]domains.Lit, 0, len(m.Elements))
	for _, e := range m.Elements {
		if dom.Entails(e.Presence.Negation()) {
			out = append(out, e.Presence.Negation())
			continue
		}
		out = append(out, domains.Leq(e.Var, domains.UB(maxUB-e.Const)))
	}
	return out
}

const minInt64 = -1 << 63
