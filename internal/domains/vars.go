// Package domains implements the optional-domain bound store: the single
// source of truth for every integer variable's current bounds, the trail of
// bound-tightening events that produced them, and the 1-UIP explanation
// protocol the rest of the solver uses to turn a failed update into a
// learnt clause.
//
// Every value in the store is represented as an upper bound of some signed
// variable (section 3 "Signed variable" in the design notes): `+v` is the
// upper bound of v, `-v` is the negation of the lower bound. This lets a
// single dense array of upper bounds, indexed by SVar, serve both bound
// directions.
package domains

import "fmt"

// VarID is a dense identifier for an integer variable. Valid ids start at
// 0; ZeroVar and OneVar are reserved for the process-wide constants with
// domains {0} and {1} respectively.
type VarID uint32

const (
	ZeroVar VarID = 0
	OneVar  VarID = 1
)

// SVar is a signed view of a variable: the variable paired with a sign bit
// packed into the low bit, so SVar is dense and can index arrays directly.
// Plus(v) denotes the upper bound of v; Minus(v) denotes the negation of
// its lower bound.
type SVar uint32

// Plus returns the positive (upper-bound) view of v.
func Plus(v VarID) SVar { return SVar(v)<<1 | 1 }

// Minus returns the negative (lower-bound) view of v.
func Minus(v VarID) SVar { return SVar(v) << 1 }

// Negate flips the sign of a signed variable, leaving the variable fixed.
func (sv SVar) Negate() SVar { return sv ^ 1 }

// Var returns the underlying variable.
func (sv SVar) Var() VarID { return VarID(sv >> 1) }

// IsPlus reports whether sv is the positive (upper-bound) view.
func (sv SVar) IsPlus() bool { return sv&1 == 1 }

func (sv SVar) String() string {
	if sv.IsPlus() {
		return fmt.Sprintf("+%d", sv.Var())
	}
	return fmt.Sprintf("-%d", sv.Var())
}

// UB is an absolute upper bound on a signed variable. Kept as a distinct
// type from BoundDelta so that "tighten by a delta" and "compare two
// absolute bounds" can never be confused at the type level.
type UB int64

// BoundDelta is the difference between two upper bounds, or a propagator's
// edge weight.
type BoundDelta int64

// Add tightens (or loosens) an upper bound by a delta.
func (u UB) Add(d BoundDelta) UB { return u + UB(d) }

// Sub computes the delta between two upper bounds.
func (u UB) Sub(o UB) BoundDelta { return BoundDelta(u - o) }

// Lit is a one-sided bound constraint: "the upper bound of SVar is <= UB".
// Negation flips both the sign and the bound.
type Lit struct {
	SVar SVar
	UB   UB
}

// NewLit builds the literal "sv <= ub".
func NewLit(sv SVar, ub UB) Lit { return Lit{SVar: sv, UB: ub} }

// Leq builds the literal "v <= k".
func Leq(v VarID, k UB) Lit { return Lit{SVar: Plus(v), UB: k} }

// Geq builds the literal "v >= k", i.e. "-v <= -k".
func Geq(v VarID, k UB) Lit { return Lit{SVar: Minus(v), UB: -k} }

// Negation returns !l: "(-sv) <= -k-1".
func (l Lit) Negation() Lit {
	return Lit{SVar: l.SVar.Negate(), UB: -l.UB - 1}
}

// Entails reports whether l being true implies o is true: they must share
// the signed variable, and l's bound must be at least as tight (<=) as o's.
func (l Lit) Entails(o Lit) bool {
	return l.SVar == o.SVar && l.UB <= o.UB
}

// Less gives literals a total order: by signed variable, then by bound.
func (l Lit) Less(o Lit) bool {
	if l.SVar != o.SVar {
		return l.SVar < o.SVar
	}
	return l.UB < o.UB
}

func (l Lit) String() string {
	return fmt.Sprintf("%s<=%d", l.SVar, l.UB)
}

// TrueLit and FalseLit are the literals of the ZERO/ONE constants used as
// always-true / always-false placeholders (e.g. scope tautologies, clause
// padding).
var (
	TrueLit  = Lit{SVar: Plus(OneVar), UB: 1}
	FalseLit = TrueLit.Negation()
)
