package cpreasoner

import "github.com/solverkit/lcg/internal/domains"

// VarEqVarMulLit propagates "Reified <=> Original * Lit" (Lit ∈ {0,1}),
// grounded on reasoners/cp/mul_lit.rs: when Lit is true, Reified and
// Original are forced equal; when Lit is false, Reified is forced to 0;
// while Lit is unfixed, an empty intersection between Reified's and
// Original's domains forces Lit false, and a nonzero-only Reified domain
// forces Lit true.
type VarEqVarMulLit struct {
	Reified  domains.VarID
	Original domains.VarID
	Lit      domains.Lit
}

// Setup wakes this propagator on any of its three participants.
func (p *VarEqVarMulLit) Setup() []domains.VarID {
	return []domains.VarID{p.Reified, p.Original, p.Lit.SVar.Var()}
}

// Propagate implements Propagator.
func (p *VarEqVarMulLit) Propagate(dom *domains.Domains, cause domains.Origin) error {
	if dom.Entails(p.Lit) {
		origLB, origUB := dom.Bounds(p.Original)
		reifLB, reifUB := dom.Bounds(p.Reified)
		if _, err := dom.Set(domains.Geq(p.Reified, domains.UB(origLB)), cause); err != nil {
			return err
		}
		if _, err := dom.Set(domains.Leq(p.Reified, domains.UB(origUB)), cause); err != nil {
			return err
		}
		if _, err := dom.Set(domains.Geq(p.Original, domains.UB(reifLB)), cause); err != nil {
			return err
		}
		if _, err := dom.Set(domains.Leq(p.Original, domains.UB(reifUB)), cause); err != nil {
			return err
		}
		return nil
	}
	if dom.Entails(p.Lit.Negation()) {
		if _, err := dom.Set(domains.Geq(p.Reified, 0), cause); err != nil {
			return err
		}
		if _, err := dom.Set(domains.Leq(p.Reified, 0), cause); err != nil {
			return err
		}
		return nil
	}

	reifLB, reifUB := dom.Bounds(p.Reified)
	origLB, origUB := dom.Bounds(p.Original)
	switch {
	case reifLB > origUB || reifUB < origLB:
		if _, err := dom.Set(p.Lit.Negation(), cause); err != nil {
			return err
		}
		if _, err := dom.Set(domains.Geq(p.Reified, 0), cause); err != nil {
			return err
		}
		if _, err := dom.Set(domains.Leq(p.Reified, 0), cause); err != nil {
			return err
		}
	case reifLB > 0 || reifUB < 0:
		if _, err := dom.Set(p.Lit, cause); err != nil {
			return err
		}
	}
	return nil
}

// Explain implements Propagator.
func (p *VarEqVarMulLit) Explain(lit domains.Lit, dom *domains.Domains) []domains.Lit {
	reifLB, reifUB := dom.Bounds(p.Reified)
	origLB, origUB := dom.Bounds(p.Original)

	switch {
	case lit.SVar == p.Lit.SVar:
		// Lit was set from an empty reified/original intersection, or from
		// a nonzero-only reified domain.
		if reifLB > origUB {
			return []domains.Lit{domains.Geq(p.Reified, domains.UB(reifLB)), domains.Leq(p.Original, domains.UB(origUB))}
		}
		if reifUB < origLB {
			return []domains.Lit{domains.Leq(p.Reified, domains.UB(reifUB)), domains.Geq(p.Original, domains.UB(origLB))}
		}
		if reifLB > 0 {
			return []domains.Lit{domains.Geq(p.Reified, domains.UB(reifLB))}
		}
		return []domains.Lit{domains.Leq(p.Reified, domains.UB(reifUB))}
	case dom.Entails(p.Lit):
		// While Lit holds, Reified and Original copy each other's bounds: a
		// bound on one side follows from Lit and the same bound on the other.
		other := p.Original
		if lit.SVar.Var() == p.Original {
			other = p.Reified
		}
		src := domains.Plus(other)
		if !lit.SVar.IsPlus() {
			src = domains.Minus(other)
		}
		return []domains.Lit{p.Lit, domains.NewLit(src, lit.UB)}
	default:
		return []domains.Lit{p.Lit.Negation()}
	}
}
