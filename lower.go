package lcg

import (
	"fmt"

	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/eqreasoner"
	"github.com/solverkit/lcg/internal/scopes"
)

// scopeOf computes the validity scope of ce the same way
// scopes.Registry's own (unexported) scopeOf does, via the registry's
// exported interning entry point, so the two agree on the same scope
// literal for the same variable set.
func (m *Model) scopeOf(ce scopes.Expr) domains.Lit {
	vs := scopes.Vars(ce)
	lits := make([]domains.Lit, 0, len(vs))
	for _, v := range vs {
		lits = append(lits, m.Dom.Presence(v))
	}
	return m.reg.GetConjunctiveScope(lits)
}

// nodeOf converts an OpVar/OpConst leaf to an eqreasoner.Node.
func (m *Model) nodeOf(e scopes.Expr) eqreasoner.Node {
	switch e.Op {
	case scopes.OpVar:
		return eqreasoner.VarNode(e.VarID)
	case scopes.OpConst:
		return eqreasoner.ConstNode(e.Const)
	default:
		panic(fmt.Sprintf("lcg: Eq operand must be a variable or constant, got op %d", e.Op))
	}
}

// varOf converts an OpVar/OpConst leaf to a domains.VarID, materializing a
// fixed-domain auxiliary variable for a constant leaf.
func (m *Model) varOf(e scopes.Expr) domains.VarID {
	switch e.Op {
	case scopes.OpVar:
		return e.VarID
	case scopes.OpConst:
		return m.constVar(e.Const)
	default:
		panic(fmt.Sprintf("lcg: Diff/Lt operand must be a variable or constant, got op %d", e.Op))
	}
}

// Reify interns expr to a literal that holds exactly when expr does, and
// posts whatever defining constraints are needed to make that hold.
//
// The boolean connective fragment (And/Or/Not over Atom/Const leaves) gets
// a full bidirectional Tseitin encoding. Eq, Lt, and Diff are only posted
// in the forward direction ("the literal implies the relation holds"). The
// EQ reasoner also sets an Eq literal true once other active equality edges
// connect its two endpoints, but a false Eq literal does not make them
// differ; the STN reasoner only derives the symmetric fact (forcing an
// edge's own presence false) under STNPropagationBounds or above. A caller
// that needs the reverse
// direction for a relational expression must also Enforce its negation
// under the literal's own negation, establishing both edges explicitly.
// See DESIGN.md.
func (m *Model) Reify(expr scopes.Expr) domains.Lit {
	ce := scopes.Canonicalize(expr)
	lit := m.reg.Reify(ce)
	switch ce.Op {
	case scopes.OpAtom, scopes.OpConst:
		return lit
	case scopes.OpAnd, scopes.OpOr, scopes.OpNot:
		m.lowerBoolean(ce, lit)
	default:
		m.enforceUnder(ce, lit)
	}
	return lit
}

// lowerBoolean posts the bidirectional Tseitin clauses defining lit as
// ce's truth value, once per distinct canonicalized ce.
func (m *Model) lowerBoolean(ce scopes.Expr, lit domains.Lit) {
	key := scopes.Key(ce)
	if m.lowered[key] {
		return
	}
	m.lowered[key] = true
	scope := m.scopeOf(ce)

	switch ce.Op {
	case scopes.OpAnd:
		negAll := make([]domains.Lit, 0, len(ce.Args)+1)
		for _, a := range ce.Args {
			al := m.Reify(a)
			m.Sat.AddClause([]domains.Lit{lit.Negation(), al}, scope, false) // lit => a_i
			negAll = append(negAll, al.Negation())
		}
		negAll = append(negAll, lit)
		m.Sat.AddClause(negAll, scope, false) // (AND a_i) => lit
	case scopes.OpOr:
		all := make([]domains.Lit, 0, len(ce.Args)+1)
		for _, a := range ce.Args {
			al := m.Reify(a)
			m.Sat.AddClause([]domains.Lit{al.Negation(), lit}, scope, false) // a_i => lit
			all = append(all, al)
		}
		all = append(all, lit.Negation())
		m.Sat.AddClause(all, scope, false) // lit => (OR a_i)
	case scopes.OpNot:
		il := m.Reify(ce.Args[0])
		m.Sat.AddClause([]domains.Lit{lit.Negation(), il.Negation()}, scope, false) // lit => ¬il
		m.Sat.AddClause([]domains.Lit{lit, il}, scope, false)                       // ¬lit => il
	}
}

// enforceUnder posts the forward-only definition "presence => ce holds"
// for a relational expression, caching on (ce, presence) so repeated Reify
// or Enforce calls over the same pair don't duplicate edges.
func (m *Model) enforceUnder(ce scopes.Expr, presence domains.Lit) {
	key := scopes.Key(ce) + "@" + presence.String()
	if m.lowered[key] {
		return
	}
	m.lowered[key] = true

	switch ce.Op {
	case scopes.OpEq:
		m.Eq.AddEq(m.nodeOf(ce.Args[0]), m.nodeOf(ce.Args[1]), presence)
	case scopes.OpNot:
		inner := ce.Args[0]
		if inner.Op == scopes.OpEq {
			m.Eq.AddDiseq(m.nodeOf(inner.Args[0]), m.nodeOf(inner.Args[1]), presence)
			return
		}
		il := m.Reify(inner)
		m.Sat.AddClause([]domains.Lit{il.Negation()}, presence, false) // presence => ¬il
	case scopes.OpLt:
		m.Stn.AddEdge(m.varOf(ce.Args[1]), m.varOf(ce.Args[0]), -1, presence) // a - b <= -1
	case scopes.OpDiff:
		m.Stn.AddEdge(m.varOf(ce.Args[1]), m.varOf(ce.Args[0]), domains.BoundDelta(ce.Const), presence)
	case scopes.OpAtom:
		m.Sat.AddClause([]domains.Lit{ce.Lit}, presence, false)
	case scopes.OpConst:
		if ce.Const == 0 {
			m.Sat.AddClause(nil, presence, false) // presence can never hold
		}
	default:
		panic(fmt.Sprintf("lcg: Op %d has no generic Enforce/Reify lowering; use the dedicated Enforce* helper", ce.Op))
	}
}

// Enforce posts "scope => expr holds" directly, without allocating a
// reification literal for expr itself (spec.md 6 "External interfaces").
func (m *Model) Enforce(expr scopes.Expr, scope domains.Lit) {
	ce := scopes.Canonicalize(expr)
	switch ce.Op {
	case scopes.OpAnd:
		for _, a := range ce.Args {
			m.Enforce(a, scope)
		}
	case scopes.OpAtom, scopes.OpConst, scopes.OpEq, scopes.OpNot, scopes.OpLt, scopes.OpDiff:
		m.enforceUnder(ce, scope)
	case scopes.OpOr:
		lits := make([]domains.Lit, 0, len(ce.Args))
		for _, a := range ce.Args {
			lits = append(lits, m.Reify(a))
		}
		m.Sat.AddClause(lits, scope, false)
	default:
		panic(fmt.Sprintf("lcg: Op %d has no generic Enforce lowering; use the dedicated Enforce* helper", ce.Op))
	}
}

// Bind equates expr's reification literal with lit, lowering expr's own
// definition first so the equivalence has something to attach to.
//
// scopes.Registry.Bind posts the equivalence itself via AddImplication when
// both literals sit on non-optional variables, but that path is a
// Domains-level shortcut unavailable when either side is optional (spec.md
// 4.1). This is the "whichever reasoner owns lit" caller the registry's own
// comment defers to: it posts the equivalence as a clause pair through the
// SAT reasoner instead, scoped to both sides' presence so the clauses are
// vacuous whenever either literal's underlying variable is absent.
func (m *Model) Bind(expr scopes.Expr, lit domains.Lit) {
	reifLit := m.Reify(expr)
	m.reg.Bind(expr, lit)
	if reifLit == lit {
		return
	}
	if !m.Dom.IsOptional(reifLit.SVar.Var()) && !m.Dom.IsOptional(lit.SVar.Var()) {
		return // already handled by AddImplication inside reg.Bind
	}
	key := "bind@" + reifLit.String() + "<=>" + lit.String()
	if m.lowered[key] {
		return
	}
	m.lowered[key] = true
	scope := m.reg.GetConjunctiveScope([]domains.Lit{
		m.Dom.Presence(reifLit.SVar.Var()),
		m.Dom.Presence(lit.SVar.Var()),
	})
	m.Sat.AddClause([]domains.Lit{reifLit.Negation(), lit}, scope, false) // reifLit => lit
	m.Sat.AddClause([]domains.Lit{reifLit, lit.Negation()}, scope, false) // lit => reifLit
}
