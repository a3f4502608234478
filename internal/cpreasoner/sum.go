package cpreasoner

import "github.com/solverkit/lcg/internal/domains"

// Term is a coefficient applied to a variable in a linear sum.
type Term struct {
	Coeff int64
	Var   domains.VarID
}

// Sum propagates bound consistency for "Σ Coeff_i * Var_i <= Bound": each
// term's own bound is tightened from the slack left once every other
// term contributes its minimum. Terms are assumed mandatory (non-optional);
// an optional summand would need its presence folded into the slack
// computation the way Max folds Elem.Presence, which this constraint does
// not yet need (see DESIGN.md).
type Sum struct {
	Terms []Term
	Bound int64
}

// Setup wakes this propagator when any term's variable changes.
func (s *Sum) Setup() []domains.VarID {
	vars := make([]domains.VarID, len(s.Terms))
	for i, t := range s.Terms {
		vars[i] = t.Var
	}
	return vars
}

func contributionMin(dom *domains.Domains, t Term) int64 {
	lb, ub := dom.Bounds(t.Var)
	if t.Coeff >= 0 {
		return t.Coeff * lb
	}
	return t.Coeff * ub
}

// Propagate implements Propagator.
func (s *Sum) Propagate(dom *domains.Domains, cause domains.Origin) error {
	var total int64
	for _, t := range s.Terms {
		total += contributionMin(dom, t)
	}
	for _, t := range s.Terms {
		if t.Coeff == 0 {
			continue
		}
		rhs := s.Bound - (total - contributionMin(dom, t))
		if t.Coeff > 0 {
			newUB := floorDiv(rhs, t.Coeff)
			if _, err := dom.Set(domains.Leq(t.Var, domains.UB(newUB)), cause); err != nil {
				return err
			}
		} else {
			newLB := ceilDiv(rhs, t.Coeff)
			if _, err := dom.Set(domains.Geq(t.Var, domains.UB(newLB)), cause); err != nil {
				return err
			}
		}
	}
	return nil
}

// Explain implements Propagator: the tightened term's bound follows from
// every other term's own current bound (the values that produced the
// slack it was derived from).
func (s *Sum) Explain(lit domains.Lit, dom *domains.Domains) []domains.Lit {
	tightenedVar := lit.SVar.Var()
	out := make([]domains.Lit, 0, len(s.Terms)-1)
	for _, t := range s.Terms {
		if t.Var == tightenedVar {
			continue
		}
		lb, ub := dom.Bounds(t.Var)
		if t.Coeff >= 0 {
			out = append(out, domains.Geq(t.Var, domains.UB(lb)))
		} else {
			out = append(out, domains.Leq(t.Var, domains.UB(ub)))
		}
	}
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
