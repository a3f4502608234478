// Package portfolio races several full solver clones against one
// another (spec.md 4.8), sharing learnt clauses between them and
// returning the first definitive result.
package portfolio

import (
	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/satreasoner"
	"github.com/solverkit/lcg/internal/search"
)

// Worker is one solver clone racing the others. Each worker owns its
// Domains and reasoners privately — nothing here is shared mutable state
// across workers (spec.md 5 "Across workers"). Per-worker strategy
// (brancher seed, STN theory-propagation level, symmetry-breaking mode)
// is the caller's responsibility: build each Worker's Dom/Sat/Controller
// already adapted, the way original_source's ParSolver::new takes an
// `adapt` closure applied per worker index.
type Worker struct {
	ID         int
	Dom        *domains.Domains
	Sat        *satreasoner.Reasoner
	Controller *search.Controller

	bus     chan<- Signal
	pending [][]domains.Lit
}

// New creates a Worker and wires its Controller to absorb clauses
// broadcast by the rest of the portfolio at its next root state.
func New(id int, dom *domains.Domains, sat *satreasoner.Reasoner, ctrl *search.Controller) *Worker {
	w := &Worker{ID: id, Dom: dom, Sat: sat, Controller: ctrl}
	ctrl.SetRootHook(w.applyPendingAtRoot)
	ctrl.SetLearntClauseHook(w.broadcast)
	return w
}

// importClause queues a clause learnt by another worker. It is absorbed
// into this worker's clause database the next time the worker is at the
// root decision level (spec.md 4.8: "a worker applies imported clauses
// at its next root state").
func (w *Worker) importClause(lits []domains.Lit) {
	w.pending = append(w.pending, lits)
}

// applyPendingAtRoot absorbs any queued imported clauses. It's registered
// as the Controller's root hook, so it only ever runs when the worker is
// already at level 0.
func (w *Worker) applyPendingAtRoot() {
	for _, lits := range w.pending {
		w.Sat.AddClause(lits, domains.TrueLit, true)
	}
	w.pending = nil
}

// broadcast fans a clause this worker just learnt out to the portfolio,
// if this worker is currently racing as part of one.
func (w *Worker) broadcast(lits []domains.Lit) {
	if w.bus == nil {
		return
	}
	cp := append([]domains.Lit(nil), lits...)
	select {
	case w.bus <- Signal{From: w.ID, Clause: cp}:
	default:
		// Bus is saturated; dropping a shared clause never affects
		// soundness, only how much other workers benefit from it.
	}
}
