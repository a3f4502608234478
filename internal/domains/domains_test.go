package domains

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// trivialExplainer treats every ExternalInference/ImplicationPropagation
// origin as self-explanatory via its ImpliedBy field; sufficient for the
// Domains-only scenarios exercised here (no reasoner is involved).
type trivialExplainer struct{}

func (trivialExplainer) Explain(lit Lit, origin Origin, d *Domains) []Lit {
	switch origin.Kind {
	case ImplicationPropagation:
		return []Lit{origin.ImpliedBy}
	case PresenceOfEmptyDomain:
		return []Lit{origin.OffendingLit}
	default:
		return nil
	}
}

func TestImplicationPropagation(t *testing.T) {
	d := New()
	a := d.NewVar(0, 1)
	b := d.NewVar(0, 1)
	d.AddImplication(Leq(a, 0).Negation(), Leq(b, 0).Negation()) // a=1 => b=1

	d.SaveState()
	_, err := d.Set(Leq(a, 0).Negation(), DecisionOrigin())
	require.NoError(t, err)
	require.True(t, d.Entails(Leq(b, 0).Negation()), "b should have been forced to 1")

	d.RestoreLast()
	require.False(t, d.Entails(Leq(a, 0).Negation()))

	d.SaveState()
	_, err = d.Set(Leq(b, 0), DecisionOrigin())
	require.NoError(t, err)
	require.True(t, d.Entails(Leq(a, 0)), "a should have been forced to 0 by contraposition")
}

func TestOptionalEmptying(t *testing.T) {
	d := New()
	p := d.NewVar(0, 1)
	presence := Leq(p, 0).Negation()
	i := d.NewOptionalVar(0, 10, presence)

	d.SaveState()
	_, err := d.Set(Geq(i, 6), DecisionOrigin())
	require.NoError(t, err)
	_, err = d.Set(Leq(i, 5), DecisionOrigin())
	require.NoError(t, err)

	require.True(t, d.Entails(presence.Negation()), "presence should be forced false on empty domain")
}

func TestOptionalVarImmediatelyForcedAbsent(t *testing.T) {
	d := New()
	p := d.NewVar(0, 1)
	presence := Leq(p, 0).Negation()
	_ = d.NewOptionalVar(5, 2, presence) // lb > ub
	require.True(t, d.Entails(presence.Negation()))
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	d := New()
	a := d.NewVar(0, 10)
	lb0, ub0 := d.Bounds(a)

	d.SaveState()
	_, err := d.Set(Leq(a, 5), DecisionOrigin())
	require.NoError(t, err)
	d.RestoreLast()

	lb1, ub1 := d.Bounds(a)
	require.Equal(t, lb0, lb1)
	require.Equal(t, ub0, ub1)
}

func TestRootLevelContradictionIsEmptyClause(t *testing.T) {
	d := New()
	a := d.NewVar(0, 10)
	_, err := d.Set(Leq(a, 3), DecisionOrigin())
	require.NoError(t, err)
	_, err = d.Set(Geq(a, 4), DecisionOrigin())
	require.Error(t, err)

	var iu *InvalidUpdateError
	require.ErrorAs(t, err, &iu)
	conflict := d.ClauseForInvalidUpdate(iu, trivialExplainer{})
	require.Empty(t, conflict.Clause, "a root-level contradiction must learn the empty clause")
}

func TestOneUIPAnalysis(t *testing.T) {
	d := New()
	n := d.NewVar(0, 10)
	a := d.NewVar(0, 1)
	b := d.NewVar(0, 1)
	aTrue := Leq(a, 0).Negation()
	bTrue := Leq(b, 0).Negation()
	d.AddImplication(aTrue, Leq(n, 4))
	d.AddImplication(bTrue, Geq(n, 5))

	d.SaveState()
	_, err := d.Set(aTrue, DecisionOrigin())
	require.NoError(t, err)
	require.True(t, d.Entails(Leq(n, 4)))

	d.SaveState()
	_, err = d.Set(Geq(n, 1), DecisionOrigin())
	require.NoError(t, err)

	d.SaveState()
	_, err = d.Set(bTrue, DecisionOrigin())
	require.Error(t, err, "b forces n>=5 which contradicts n<=4")

	var iu *InvalidUpdateError
	require.ErrorAs(t, err, &iu)
	conflict := d.ClauseForInvalidUpdate(iu, trivialExplainer{})
	require.NotEmpty(t, conflict.Clause)
}
