package eqreasoner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
)

func TestDisequalityConflictsWithTransitiveEquality(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 10)
	b := d.NewVar(0, 10)
	c := d.NewVar(0, 10)

	r.AddEq(VarNode(a), VarNode(b), domains.TrueLit)
	r.AddEq(VarNode(b), VarNode(c), domains.TrueLit)

	p := d.NewVar(0, 1)
	diseqPresence := domains.Leq(p, 0).Negation()
	r.AddDiseq(VarNode(a), VarNode(c), diseqPresence)

	d.SaveState()
	_, err := d.Set(diseqPresence, domains.DecisionOrigin())
	require.NoError(t, err)

	err = r.Propagate()
	require.Error(t, err)
}

func TestNoConflictWithoutTransitivePath(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 10)
	b := d.NewVar(0, 10)
	c := d.NewVar(0, 10)
	r.AddEq(VarNode(a), VarNode(b), domains.TrueLit)

	p := d.NewVar(0, 1)
	diseqPresence := domains.Leq(p, 0).Negation()
	r.AddDiseq(VarNode(a), VarNode(c), diseqPresence)

	d.SaveState()
	_, err := d.Set(diseqPresence, domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate())
}

func TestOptionalEqualityEdgeInactiveUntilPresent(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 10)
	b := d.NewVar(0, 10)
	p := d.NewVar(0, 1)
	eqPresence := domains.Leq(p, 0).Negation()
	r.AddEq(VarNode(a), VarNode(b), eqPresence)

	q := d.NewVar(0, 1)
	diseqPresence := domains.Leq(q, 0).Negation()
	r.AddDiseq(VarNode(a), VarNode(b), diseqPresence)

	d.SaveState()
	_, err := d.Set(diseqPresence, domains.DecisionOrigin())
	require.NoError(t, err)
	require.NoError(t, r.Propagate(), "the equality edge is not yet active, so no conflict")
}

func TestUndeterminedEqualityForcedTrueByTransitivePath(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 10)
	b := d.NewVar(0, 10)
	c := d.NewVar(0, 10)
	r.AddEq(VarNode(a), VarNode(b), domains.TrueLit)
	r.AddEq(VarNode(b), VarNode(c), domains.TrueLit)

	p := d.NewVar(0, 1)
	eqPresence := domains.Leq(p, 0).Negation()
	r.AddEq(VarNode(a), VarNode(c), eqPresence)

	require.Nil(t, d.Value(eqPresence))
	require.NoError(t, r.Propagate())
	require.True(t, d.Entails(eqPresence), "a=b and b=c already force a=c, so the third edge's own presence should be set without ever having been asserted")
}

func TestUndeterminedDisequalityForcedFalseByTransitiveEquality(t *testing.T) {
	d := domains.New()
	r := New(d)

	a := d.NewVar(0, 10)
	b := d.NewVar(0, 10)
	c := d.NewVar(0, 10)
	r.AddEq(VarNode(a), VarNode(b), domains.TrueLit)
	r.AddEq(VarNode(b), VarNode(c), domains.TrueLit)

	q := d.NewVar(0, 1)
	diseqPresence := domains.Leq(q, 0).Negation()
	r.AddDiseq(VarNode(a), VarNode(c), diseqPresence)

	require.Nil(t, d.Value(diseqPresence))
	require.NoError(t, r.Propagate())
	require.True(t, d.Entails(diseqPresence.Negation()), "a=b and b=c already rule out a!=c, so the disequality's presence should be forced false before ever being asserted")
}
