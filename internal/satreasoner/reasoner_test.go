package satreasoner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
)

func TestUnitPropagationThroughWatches(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 1)
	b := d.NewVar(0, 1)
	c := d.NewVar(0, 1)

	litA := domains.Leq(a, 0).Negation() // a == 1
	litB := domains.Leq(b, 0).Negation()
	litC := domains.Leq(c, 0).Negation()

	// (¬a ∨ ¬b ∨ c): a=1, b=1 forces c=1.
	_, ok := r.AddClause([]domains.Lit{litA.Negation(), litB.Negation(), litC}, domains.TrueLit, false)
	require.True(t, ok)

	d.SaveState()
	_, err := d.Set(litA, domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())

	_, err = d.Set(litB, domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())

	require.True(t, d.Entails(litC))
}

func TestConflictReturnsInvalidUpdateError(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 1)
	b := d.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	litB := domains.Leq(b, 0).Negation()

	// (¬a ∨ b) and (¬a ∨ ¬b): a=1 forces both b and ¬b.
	_, ok1 := r.AddClause([]domains.Lit{litA.Negation(), litB}, domains.TrueLit, false)
	_, ok2 := r.AddClause([]domains.Lit{litA.Negation(), litB.Negation()}, domains.TrueLit, false)
	require.True(t, ok1)
	require.True(t, ok2)

	d.SaveState()
	_, err := d.Set(litA, domains.DecisionOrigin())
	require.NoError(t, err)
	err = r.Propagate()
	require.Error(t, err)
}

func TestScopedClauseAbsorbsNegatedScope(t *testing.T) {
	d := domains.New()
	r := New(d)

	p := d.NewVar(0, 1)
	a := d.NewVar(0, 1)
	scope := domains.Leq(p, 0).Negation()
	litA := domains.Leq(a, 0).Negation()

	id, ok := r.AddClause([]domains.Lit{litA}, scope, false)
	require.True(t, ok)
	cls := r.Clause(id)
	require.Contains(t, cls.Lits, scope.Negation())
}

func TestNormalizeDropsTautology(t *testing.T) {
	d := domains.New()
	a := d.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()

	_, ok := normalize([]domains.Lit{litA, litA.Negation()})
	require.False(t, ok)
	_ = d
}

func TestExplainReturnsOtherLiteralsNegated(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 1)
	b := d.NewVar(0, 1)
	c := d.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	litB := domains.Leq(b, 0).Negation()
	litC := domains.Leq(c, 0).Negation()

	id, ok := r.AddClause([]domains.Lit{litA.Negation(), litB.Negation(), litC}, domains.TrueLit, false)
	require.True(t, ok)

	out := r.Explain(litC, domains.FromReasoner(ReasonerID, uint32(id)), d)
	require.ElementsMatch(t, []domains.Lit{litA, litB}, out)
}
