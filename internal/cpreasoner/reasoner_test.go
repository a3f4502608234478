package cpreasoner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
)

func TestMaxPropagatesUpperBoundFromElements(t *testing.T) {
	d := domains.New()
	r := New(d)

	m := d.NewVar(0, 20)
	a := d.NewVar(0, 10)
	b := d.NewVar(0, 12)
	r.Add(&Max{
		MaxVar:  m,
		MaxPres: domains.TrueLit,
		Elements: []Elem{
			{Var: a, Presence: domains.TrueLit},
			{Var: b, Presence: domains.TrueLit},
		},
	})

	require.NoError(t, r.Propagate())
	_, ub := d.Bounds(m)
	require.Equal(t, int64(12), ub)

	d.SaveState()
	_, err := d.Set(domains.Leq(b, 3), domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())
	_, ub = d.Bounds(m)
	require.Equal(t, int64(10), ub)
}

func TestSumPropagatesSlackAcrossTerms(t *testing.T) {
	d := domains.New()
	r := New(d)

	x := d.NewVar(0, 10)
	y := d.NewVar(0, 10)
	r.Add(&Sum{Terms: []Term{{Coeff: 1, Var: x}, {Coeff: 1, Var: y}}, Bound: 12})

	d.SaveState()
	_, err := d.Set(domains.Geq(x, 8), domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())

	_, yub := d.Bounds(y)
	require.Equal(t, int64(4), yub)
}

func TestVarEqVarMulLitForcesZeroWhenLitFalse(t *testing.T) {
	d := domains.New()
	r := New(d)

	p := d.NewVar(0, 1)
	lit := domains.Leq(p, 0).Negation()
	orig := d.NewVar(0, 10)
	reified := d.NewVar(-5, 10)
	r.Add(&VarEqVarMulLit{Reified: reified, Original: orig, Lit: lit})

	d.SaveState()
	_, err := d.Set(lit.Negation(), domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())

	lb, ub := d.Bounds(reified)
	require.Equal(t, int64(0), lb)
	require.Equal(t, int64(0), ub)
}
