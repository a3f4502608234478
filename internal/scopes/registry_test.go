package scopes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
)

func TestReifyIsIdempotentForEqualExpressions(t *testing.T) {
	d := domains.New()
	r := NewRegistry(d)
	a := d.NewVar(0, 10)
	b := d.NewVar(0, 10)

	e1 := Lt(Atom(domains.Leq(a, 0)), Atom(domains.Leq(b, 0)))
	e2 := Lt(Atom(domains.Leq(a, 0)), Atom(domains.Leq(b, 0)))

	require.Equal(t, r.Reify(e1), r.Reify(e2))
}

func TestConjunctiveScopeSingleton(t *testing.T) {
	d := domains.New()
	r := NewRegistry(d)
	p := d.NewVar(0, 1)
	presence := domains.Leq(p, 0).Negation()

	require.Equal(t, presence, r.GetConjunctiveScope([]domains.Lit{presence}))
}

func TestConjunctiveScopeCaching(t *testing.T) {
	d := domains.New()
	r := NewRegistry(d)
	p1 := d.NewVar(0, 1)
	p2 := d.NewVar(0, 1)
	l1 := domains.Leq(p1, 0).Negation()
	l2 := domains.Leq(p2, 0).Negation()

	s1 := r.GetConjunctiveScope([]domains.Lit{l1, l2})
	s2 := r.GetConjunctiveScope([]domains.Lit{l2, l1})
	require.Equal(t, s1, s2, "order of the presence-literal set must not matter")
}

func TestTautologyOfScopeIsCached(t *testing.T) {
	d := domains.New()
	r := NewRegistry(d)
	p := d.NewVar(0, 1)
	scope := domains.Leq(p, 0).Negation()

	t1 := r.GetTautologyOfScope(scope)
	t2 := r.GetTautologyOfScope(scope)
	require.Equal(t, t1, t2)
}
