package cpreasoner

import "github.com/solverkit/lcg/internal/domains"

// Element propagates bounds consistency for "Result == Array[Index]":
// Result's bounds are tightened to the union of the bounds of every array
// slot the index could still select, and Index's own bounds are trimmed
// when the array's extreme slots fall entirely outside Result's range.
// Every element reasons over interval bounds rather than the sparse,
// hole-punching domains a fully domain-consistent element constraint would
// need (this solver's bound store has no representation for a domain with
// holes — see package domains) — this is the standard LCG-style relaxation,
// not a shortcut specific to this constraint.
type Element struct {
	Array  []domains.VarID
	Index  domains.VarID
	Result domains.VarID
}

// Setup wakes this propagator when the index, the result, or any array
// slot changes.
func (e *Element) Setup() []domains.VarID {
	vars := make([]domains.VarID, 0, len(e.Array)+2)
	vars = append(vars, e.Index, e.Result)
	vars = append(vars, e.Array...)
	return vars
}

func (e *Element) indexRange(dom *domains.Domains) (lo, hi int64) {
	lo, hi = dom.Bounds(e.Index)
	if lo < 0 {
		lo = 0
	}
	if hi > int64(len(e.Array))-1 {
		hi = int64(len(e.Array)) - 1
	}
	return lo, hi
}

// Propagate implements Propagator.
func (e *Element) Propagate(dom *domains.Domains, cause domains.Origin) error {
	lo, hi := e.indexRange(dom)
	if lo > hi {
		return nil
	}

	resLo, resHi := int64(1)<<62, -(int64(1) << 62)
	for i := lo; i <= hi; i++ {
		slotLB, slotUB := dom.Bounds(e.Array[i])
		if slotLB < resLo {
			resLo = slotLB
		}
		if slotUB > resHi {
			resHi = slotUB
		}
	}
	if _, err := dom.Set(domains.Geq(e.Result, domains.UB(resLo)), cause); err != nil {
		return err
	}
	if _, err := dom.Set(domains.Leq(e.Result, domains.UB(resHi)), cause); err != nil {
		return err
	}

	resultLB, resultUB := dom.Bounds(e.Result)
	for lo <= hi {
		slotLB, slotUB := dom.Bounds(e.Array[lo])
		if slotUB < resultLB || slotLB > resultUB {
			lo++
			continue
		}
		break
	}
	for hi >= lo {
		slotLB, slotUB := dom.Bounds(e.Array[hi])
		if slotUB < resultLB || slotLB > resultUB {
			hi--
			continue
		}
		break
	}
	if _, err := dom.Set(domains.Geq(e.Index, domains.UB(lo)), cause); err != nil {
		return err
	}
	if _, err := dom.Set(domains.Leq(e.Index, domains.UB(hi)), cause); err != nil {
		return err
	}
	return nil
}

// Explain implements Propagator.
func (e *Element) Explain(lit domains.Lit, dom *domains.Domains) []domains.Lit {
	lo, hi := e.indexRange(dom)
	out := []domains.Lit{domains.Geq(e.Index, domains.UB(lo)), domains.Leq(e.Index, domains.UB(hi))}
	for i := lo; i <= hi; i++ {
		slotLB, slotUB := dom.Bounds(e.Array[i])
		out = append(out, domains.Geq(e.Array[i], domains.UB(slotLB)), domains.Leq(e.Array[i], domains.UB(slotUB)))
	}
	return out
}
