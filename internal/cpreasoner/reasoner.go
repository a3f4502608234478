package cpreasoner

import "github.com/solverkit/lcg/internal/domains"

// Reasoner wakes each registered Propagator when one of the variables it
// declared interest in (via Setup) changes, and re-runs it to a fixpoint,
// mirroring the teacher corpus's Watches-driven dispatch in
// reasoners/cp/mod.rs.
type Reasoner struct {
	dom   *domains.Domains
	props []Propagator
	watch map[domains.VarID][]PropagatorID

	processed int
}

// New creates a Reasoner over dom.
func New(dom *domains.Domains) *Reasoner {
	return &Reasoner{dom: dom, watch: make(map[domains.VarID][]PropagatorID)}
}

// Add registers a propagator and wires its declared watches.
func (r *Reasoner) Add(p Propagator) PropagatorID {
	id := PropagatorID(len(r.props))
	r.props = append(r.props, p)
	for _, v := range p.Setup() {
		r.watch[v] = append(r.watch[v], id)
	}
	return id
}

// Propagate wakes every propagator whose watched variables changed since
// the last call, and each newly awoken propagator is run again if it
// itself produced further changes, until no propagator has anything left
// to do.
func (r *Reasoner) Propagate() error {
	woken := make(map[PropagatorID]bool)
	var queue []PropagatorID
	push := func(id PropagatorID) {
		if !woken[id] {
			woken[id] = true
			queue = append(queue, id)
		}
	}

	events := r.dom.Events()
	for ; r.processed < len(events); r.processed++ {
		v := events[r.processed].Affected.Var()
		for _, id := range r.watch[v] {
			push(id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		woken[id] = false

		before := len(r.dom.Events())
		if err := r.props[id].Propagate(r.dom, domains.FromReasoner(ReasonerID, uint32(id))); err != nil {
			return err
		}
		after := r.dom.Events()
		for i := before; i < len(after); i++ {
			v := after[i].Affected.Var()
			for _, wid := range r.watch[v] {
				if wid != id {
					push(wid)
				}
			}
		}
		r.processed = len(after)
	}
	return nil
}

// Explain implements domains.Explainer by delegating to the propagator
// identified by origin.Payload.
func (r *Reasoner) Explain(lit domains.Lit, origin domains.Origin, dom *domains.Domains) []domains.Lit {
	id := PropagatorID(origin.Payload)
	return r.props[id].Explain(lit, dom)
}

// NumPropagators reports how many propagators have been registered.
func (r *Reasoner) NumPropagators() int { return len(r.props) }
