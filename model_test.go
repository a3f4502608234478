package lcg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/scopes"
	"github.com/solverkit/lcg/internal/search"
)

func newTestModel() *Model {
	cfg := DefaultConfig()
	cfg.RestartBase = 0
	cfg.ReduceDBEvery = 0
	return NewModel(cfg)
}

func TestReifyAndBooleanEncodesTseitinClauses(t *testing.T) {
	m := newTestModel()
	a := m.NewVar(0, 1)
	b := m.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	litB := domains.Leq(b, 0).Negation()
	m.RegisterDecisionVar(a)
	m.RegisterDecisionVar(b)

	conj := m.Reify(scopes.And(scopes.Atom(litA), scopes.Atom(litB)))
	before := m.Sat.NumClauses()
	require.Equal(t, conj, m.Reify(scopes.And(scopes.Atom(litA), scopes.Atom(litB))))
	require.Equal(t, before, m.Sat.NumClauses(), "re-reifying the same expression must not duplicate clauses")

	m.Sat.AddClause([]domains.Lit{litA}, domains.TrueLit, false)
	m.Sat.AddClause([]domains.Lit{litB}, domains.TrueLit, false)

	res, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, search.Sat, res)
	require.True(t, m.Dom.Entails(conj))
}

func TestEnforceOrRequiresOneDisjunct(t *testing.T) {
	m := newTestModel()
	a := m.NewVar(0, 1)
	b := m.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	litB := domains.Leq(b, 0).Negation()
	m.RegisterDecisionVar(a)
	m.RegisterDecisionVar(b)

	m.Enforce(scopes.Or(scopes.Atom(litA), scopes.Atom(litB)), domains.TrueLit)
	m.Sat.AddClause([]domains.Lit{litA.Negation()}, domains.TrueLit, false)

	res, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, search.Sat, res)
	require.True(t, m.Dom.Entails(litB))
}

func TestEnforceDiffPostsStnEdge(t *testing.T) {
	m := newTestModel()
	x := m.NewVar(0, 10)
	y := m.NewVar(0, 10)
	m.RegisterDecisionVar(x)
	m.RegisterDecisionVar(y)

	// x - y <= -3, i.e. x <= y - 3. Forcing y <= 7 should tighten x's
	// upper bound to 4 once the STN reasoner relaxes the edge.
	m.Enforce(scopes.Diff(scopes.Var(x), scopes.Var(y), -3), domains.TrueLit)
	m.Sat.AddClause([]domains.Lit{domains.Leq(y, 7)}, domains.TrueLit, false)

	res, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, search.Sat, res)
	_, ub := m.Dom.Bounds(x)
	require.LessOrEqual(t, ub, int64(4))
}

func TestEnforceEqAndDiseqDetectTransitiveConflict(t *testing.T) {
	m := newTestModel()
	x := m.NewVar(0, 10)
	y := m.NewVar(0, 10)
	z := m.NewVar(0, 10)
	p := m.NewVar(0, 1)
	diseqPresence := domains.Leq(p, 0).Negation()

	// x == y, y == z, and (assumed true) x != z: the disequality reasoner
	// only ever detects the conflict this creates, it does not itself
	// tighten x/y/z's bounds (see DESIGN.md).
	m.Enforce(scopes.Eq(scopes.Var(x), scopes.Var(y)), domains.TrueLit)
	m.Enforce(scopes.Eq(scopes.Var(y), scopes.Var(z)), domains.TrueLit)
	m.Enforce(scopes.Not(scopes.Eq(scopes.Var(x), scopes.Var(z))), diseqPresence)
	m.Sat.AddClause([]domains.Lit{diseqPresence}, domains.TrueLit, false)

	res, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, search.Unsat, res)
}

func TestBindPostsEquivalenceClausesForOptionalLiteral(t *testing.T) {
	m := newTestModel()
	p := m.NewVar(0, 1)
	presence := domains.Leq(p, 0).Negation()
	m.RegisterDecisionVar(p)

	w := m.NewOptionalVar(0, 1, presence)
	litW := domains.Leq(w, 0).Negation() // w == 1, optional on presence

	a := m.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	m.RegisterDecisionVar(a)

	// litW is optional (its variable's own presence is "presence", not
	// TrueLit), so reg.Bind alone can't post the equivalence via
	// AddImplication; Model.Bind must fall back to the SAT clause pair.
	m.Bind(scopes.Atom(litA), litW)

	m.Sat.AddClause([]domains.Lit{presence}, domains.TrueLit, false)
	m.Sat.AddClause([]domains.Lit{litA}, domains.TrueLit, false)

	res, err := m.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, search.Sat, res)
	require.True(t, m.Dom.Entails(litW), "litA and presence are both forced true, so the bound literal must follow")
}

func TestNewAssumptionsProducesUnsatCore(t *testing.T) {
	m := newTestModel()
	a := m.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	m.Sat.AddClause([]domains.Lit{litA.Negation()}, domains.TrueLit, false)

	asm := m.NewAssumptions()
	err := asm.Push(litA)
	require.Error(t, err)
	conflict, ok := m.ConflictFor(err)
	require.True(t, ok)
	core := asm.UnsatCore(conflict)
	require.Empty(t, core, "litA was never pushed successfully, so it can't appear in its own core")
	asm.DiscardFailed()
}
