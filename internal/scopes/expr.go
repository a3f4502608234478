// Package scopes implements expression reification and the conjunctive
// validity-scope registry (spec.md 4.2): canonicalizing and interning
// expressions to scoped optional literals so that structurally equal
// sub-expressions share a single reification literal, and so that the
// presence conditions of an optional expression share a single tautology
// literal per distinct scope.
package scopes

import (
	"fmt"
	"sort"

	"github.com/solverkit/lcg/internal/domains"
)

// Op identifies one of the built-in function symbols in the closed
// expression grammar (section 6 "External interfaces").
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpNot
	OpEq
	OpLt
	OpSum   // linear sum: args are (coefficient, term) pairs folded into Terms
	OpDiff  // difference <=: two-argument STN-style comparison
	OpElem  // element constraint
	OpMax   // max constraint
	OpAtom  // wraps a single domains.Lit (already-built atom)
	OpVar   // wraps a single domains.VarID (bare integer variable)
	OpConst // boolean/int constant
)

// Term is a coefficient applied to a variable, used by OpSum.
type Term struct {
	Coeff int64
	Var   domains.VarID
}

// Expr is a node in the closed expression grammar: atoms (bool, int,
// variable) and list forms headed by one of the Op constants.
type Expr struct {
	Op    Op
	Const int64 // valid when Op == OpConst, and the bound k when Op == OpDiff
	Lit   domains.Lit
	VarID domains.VarID // valid when Op == OpVar
	Terms []Term        // valid when Op == OpSum
	Args  []Expr
}

// Bool builds a boolean constant expression.
func Bool(b bool) Expr {
	if b {
		return Expr{Op: OpConst, Const: 1}
	}
	return Expr{Op: OpConst, Const: 0}
}

// Int builds an integer constant expression.
func Int(n int64) Expr { return Expr{Op: OpConst, Const: n} }

// Atom wraps an already-built literal as an expression leaf.
func Atom(l domains.Lit) Expr { return Expr{Op: OpAtom, Lit: l} }

// Var wraps a bare integer variable as an expression leaf, for the
// arithmetic forms (Diff, Max, Elem) that compare or select among
// variables rather than boolean atoms.
func Var(v domains.VarID) Expr { return Expr{Op: OpVar, VarID: v} }

// And/Or/Not/Eq/Lt build the corresponding list forms.
func And(args ...Expr) Expr { return Expr{Op: OpAnd, Args: args} }
func Or(args ...Expr) Expr  { return Expr{Op: OpOr, Args: args} }
func Not(e Expr) Expr       { return Expr{Op: OpNot, Args: []Expr{e}} }
func Eq(a, b Expr) Expr     { return Expr{Op: OpEq, Args: []Expr{a, b}} }
func Lt(a, b Expr) Expr     { return Expr{Op: OpLt, Args: []Expr{a, b}} }

// Diff builds an "a - b <= k" difference-logic comparison (spec.md 4.3
// "Difference constraints"), the form the STN reasoner consumes directly
// as an edge.
func Diff(a, b Expr, k int64) Expr { return Expr{Op: OpDiff, Const: k, Args: []Expr{a, b}} }

// Max builds a max(args...) == result constraint over variable leaves.
func Max(result Expr, args ...Expr) Expr {
	return Expr{Op: OpMax, Args: append([]Expr{result}, args...)}
}

// Elem builds an arr[index] == result element constraint over variable
// leaves; arr is given in index order.
func Elem(result, index Expr, arr ...Expr) Expr {
	return Expr{Op: OpElem, Args: append([]Expr{result, index}, arr...)}
}

// Canonicalize folds constants out of And/Or/Not, removes duplicate
// conjuncts/disjuncts, and orders Eq's two operands by key so that two
// structurally-equal expressions produce an identical key (spec.md 4.2
// "Behavior"). Constant operands of the other forms are left as they are.
func Canonicalize(e Expr) Expr {
	switch e.Op {
	case OpAnd, OpOr:
		seen := make(map[string]struct{}, len(e.Args))
		var out []Expr
		for _, a := range e.Args {
			ca := Canonicalize(a)
			if ca.Op == OpConst {
				if (ca.Const != 0) == (e.Op == OpOr) {
					return Bool(e.Op == OpOr) // absorbing constant
				}
				continue // neutral constant
			}
			k := Key(ca)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, ca)
		}
		if len(out) == 0 {
			return Bool(e.Op == OpAnd)
		}
		sort.Slice(out, func(i, j int) bool { return Key(out[i]) < Key(out[j]) })
		return Expr{Op: e.Op, Args: out}
	case OpNot:
		inner := Canonicalize(e.Args[0])
		if inner.Op == OpConst {
			return Bool(inner.Const == 0)
		}
		if inner.Op == OpNot {
			return inner.Args[0]
		}
		return Expr{Op: OpNot, Args: []Expr{inner}}
	case OpEq:
		a, b := Canonicalize(e.Args[0]), Canonicalize(e.Args[1])
		if Key(b) < Key(a) {
			a, b = b, a
		}
		return Expr{Op: OpEq, Args: []Expr{a, b}}
	default:
		out := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			out[i] = Canonicalize(a)
		}
		return Expr{Op: e.Op, Const: e.Const, Lit: e.Lit, VarID: e.VarID, Terms: e.Terms, Args: out}
	}
}

// Key returns a deterministic string key for a canonicalized expression,
// used both to intern reification literals and to detect structurally
// equal expressions.
func Key(e Expr) string {
	switch e.Op {
	case OpConst:
		return fmt.Sprintf("c%d", e.Const)
	case OpAtom:
		return fmt.Sprintf("l%s", e.Lit)
	case OpVar:
		return fmt.Sprintf("v%d", e.VarID)
	case OpSum:
		s := "sum("
		for _, t := range e.Terms {
			s += fmt.Sprintf("%d*%d,", t.Coeff, t.Var)
		}
		return s + ")"
	case OpDiff:
		s := fmt.Sprintf("diff%d(", e.Const)
		for _, a := range e.Args {
			s += Key(a) + ","
		}
		return s + ")"
	default:
		s := fmt.Sprintf("op%d(", e.Op)
		for _, a := range e.Args {
			s += Key(a) + ","
		}
		return s + ")"
	}
}

// Vars returns the set of variables mentioned by e, used to compute its
// validity scope.
func Vars(e Expr) []domains.VarID {
	var out []domains.VarID
	var walk func(Expr)
	walk = func(e Expr) {
		switch e.Op {
		case OpAtom:
			out = append(out, e.Lit.SVar.Var())
		case OpVar:
			out = append(out, e.VarID)
		case OpSum:
			for _, t := range e.Terms {
				out = append(out, t.Var)
			}
		default:
			for _, a := range e.Args {
				walk(a)
			}
		}
	}
	walk(e)
	return out
}
