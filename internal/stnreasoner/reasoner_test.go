package stnreasoner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
)

func TestPropagationTightensHeadFromTail(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 100)
	b := d.NewVar(0, 100)
	r.AddEdge(a, b, 5, domains.TrueLit) // b - a <= 5

	d.SaveState()
	_, err := d.Set(domains.Leq(a, 10), domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())

	_, ub := d.Bounds(b)
	require.Equal(t, int64(15), ub)
}

func TestNegativeCycleIsAContradiction(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 100)
	b := d.NewVar(0, 100)
	r.AddEdge(a, b, -1, domains.TrueLit) // b - a <= -1
	r.AddEdge(b, a, -1, domains.TrueLit) // a - b <= -1 : together force an empty range

	d.SaveState()
	_, err := d.Set(domains.Leq(a, 0), domains.DecisionOrigin())
	require.NoError(t, err)
	err = r.Propagate()
	require.Error(t, err)
}

func TestOptionalEdgeInactiveUntilPresent(t *testing.T) {
	d := domains.New()
	r := New(d)

	p := d.NewVar(0, 1)
	presence := domains.Leq(p, 0).Negation()
	a := d.NewVar(0, 100)
	b := d.NewVar(0, 100)
	r.AddEdge(a, b, 0, presence)

	d.SaveState()
	_, err := d.Set(domains.Leq(a, 5), domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())
	_, ub := d.Bounds(b)
	require.Equal(t, int64(100), ub, "edge must stay inactive until its presence literal is entailed")

	_, err = d.Set(presence, domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())
	_, ub = d.Bounds(b)
	require.Equal(t, int64(5), ub)
}

func TestTheoryPropagateBoundsForcesAbsence(t *testing.T) {
	d := domains.New()
	r := New(d)

	p := d.NewVar(0, 1)
	presence := domains.Leq(p, 0).Negation()
	a := d.NewVar(10, 10)
	b := d.NewVar(20, 20)
	r.AddEdge(a, b, 0, presence) // b - a <= 0, but a=10 and b=20: impossible if active

	require.NoError(t, r.TheoryPropagateBounds())
	require.True(t, d.Entails(presence.Negation()))
}
