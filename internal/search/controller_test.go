package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/satreasoner"
)

func newTestController(d *domains.Domains) (*Controller, *satreasoner.Reasoner) {
	sat := satreasoner.New(d)
	c := New(d, sat, nil, Config{RestartBase: 0, ReduceDBEvery: 0})
	return c, sat
}

func TestSolveFindsSatisfyingAssignment(t *testing.T) {
	d := domains.New()
	c, sat := newTestController(d)

	a := d.NewVar(0, 1)
	b := d.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	litB := domains.Leq(b, 0).Negation()

	// (a ∨ b): at least one of them must end up true.
	_, ok := sat.AddClause([]domains.Lit{litA, litB}, domains.TrueLit, false)
	require.True(t, ok)
	c.RegisterDecisionVar(a)
	c.RegisterDecisionVar(b)

	res, err := c.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, Sat, res)
	require.True(t, d.Entails(litA) || d.Entails(litB))
}

func TestSolveDetectsRootUnsat(t *testing.T) {
	d := domains.New()
	c, sat := newTestController(d)

	a := d.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()

	_, ok1 := sat.AddClause([]domains.Lit{litA}, domains.TrueLit, false)
	_, ok2 := sat.AddClause([]domains.Lit{litA.Negation()}, domains.TrueLit, false)
	require.True(t, ok1)
	require.True(t, ok2)
	c.RegisterDecisionVar(a)

	res, err := c.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, Unsat, res)
}

func TestSolveBackjumpsAfterWrongDecision(t *testing.T) {
	d := domains.New()
	c, sat := newTestController(d)

	p := d.NewVar(0, 1)
	q := d.NewVar(0, 1)
	litP := domains.Leq(p, 0).Negation()
	litQ := domains.Leq(q, 0).Negation()
	c.RegisterDecisionVar(p)
	c.RegisterDecisionVar(q)

	// decide() defaults to excluding the top value first for a variable
	// with no saved phase, so p=0 is tried before p=1. Both clauses below
	// only admit p=1, so the first decision
	// drives q into a genuine unit-propagation conflict that
	// analyzeAndBackjump must resolve by learning p and backjumping to the
	// root before the search can proceed to a model.
	_, ok1 := sat.AddClause([]domains.Lit{litP, litQ}, domains.TrueLit, false)
	_, ok2 := sat.AddClause([]domains.Lit{litP, litQ.Negation()}, domains.TrueLit, false)
	require.True(t, ok1)
	require.True(t, ok2)

	res, err := c.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, Sat, res)
	require.True(t, d.Entails(litP))
}

func TestMinimizeFindsOptimalBound(t *testing.T) {
	d := domains.New()
	c, _ := newTestController(d)

	obj := d.NewVar(0, 10)
	c.RegisterDecisionVar(obj)

	res, best, err := c.Minimize(context.Background(), obj)
	require.NoError(t, err)
	require.Equal(t, Sat, res)
	require.Equal(t, int64(0), best)
}

func TestAssumptionsPushPopAndUnsatCore(t *testing.T) {
	d := domains.New()
	c, sat := newTestController(d)

	a := d.NewVar(0, 1)
	b := d.NewVar(0, 1)
	litA := domains.Leq(a, 0).Negation()
	litB := domains.Leq(b, 0).Negation()

	// ¬a ∨ ¬b: a and b can't both hold.
	_, ok := sat.AddClause([]domains.Lit{litA.Negation(), litB.Negation()}, domains.TrueLit, false)
	require.True(t, ok)

	asm := NewAssumptions(c)
	require.NoError(t, asm.Push(litA))

	err := asm.Push(litB)
	require.Error(t, err)

	var iu *domains.InvalidUpdateError
	require.True(t, asInvalidUpdate(err, &iu))
	conflict := d.ClauseForInvalidUpdate(iu, c)
	core := asm.UnsatCore(conflict)
	require.Contains(t, core, litA)

	asm.DiscardFailed()
	asm.Pop()
	require.False(t, d.Entails(litA))
}
