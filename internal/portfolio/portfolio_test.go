package portfolio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/satreasoner"
	"github.com/solverkit/lcg/internal/search"
)

func newTestWorker(id int, setup func(d *domains.Domains, sat *satreasoner.Reasoner)) *Worker {
	d := domains.New()
	sat := satreasoner.New(d)
	setup(d, sat)
	ctrl := search.New(d, sat, nil, search.Config{RestartBase: 0, ReduceDBEvery: 0})
	return New(id, d, sat, ctrl)
}

func TestSolveReturnsFirstSatResultAcrossWorkers(t *testing.T) {
	setup := func(d *domains.Domains, sat *satreasoner.Reasoner) {
		a := d.NewVar(0, 1)
		lit := domains.Leq(a, 0).Negation()
		_, ok := sat.AddClause([]domains.Lit{lit}, domains.TrueLit, false)
		require.True(t, ok)
	}
	w1 := newTestWorker(1, setup)
	w2 := newTestWorker(2, setup)
	p := New([]*Worker{w1, w2}, nil)

	res, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, search.Sat, res)
}

func TestSolveReturnsUnsatWhenAllWorkersContradictAtRoot(t *testing.T) {
	setup := func(d *domains.Domains, sat *satreasoner.Reasoner) {
		a := d.NewVar(0, 1)
		lit := domains.Leq(a, 0).Negation()
		_, ok1 := sat.AddClause([]domains.Lit{lit}, domains.TrueLit, false)
		_, ok2 := sat.AddClause([]domains.Lit{lit.Negation()}, domains.TrueLit, false)
		require.True(t, ok1)
		require.True(t, ok2)
	}
	w1 := newTestWorker(1, setup)
	w2 := newTestWorker(2, setup)
	p := New([]*Worker{w1, w2}, nil)

	res, err := p.Solve(context.Background())
	require.NoError(t, err)
	require.Equal(t, search.Unsat, res)
}

func TestImportClauseIsAbsorbedAtNextRoot(t *testing.T) {
	d := domains.New()
	sat := satreasoner.New(d)
	a := d.NewVar(0, 1)
	ctrl := search.New(d, sat, nil, search.Config{})
	w := New(7, d, sat, ctrl)

	lit := domains.Leq(a, 0).Negation()
	w.importClause([]domains.Lit{lit})
	require.Equal(t, 0, sat.NumClauses())

	w.applyPendingAtRoot()
	require.Equal(t, 1, sat.NumClauses())
	require.Empty(t, w.pending)
}
