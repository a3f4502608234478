package stnreasoner

import (
	"fmt"

	"github.com/solverkit/lcg/internal/domains"
)

// Reasoner is an incremental difference-logic propagator: each active edge
// tightens its head's upper bound from its tail's, and a contradiction
// (a negative cycle through active edges) is reported as a failed
// Domains.Set wrapped by the usual InvalidUpdateError/explanation path.
//
// Propagation here is a worklist (SPFA-style) relaxation over active edges
// rather than the teacher corpus's Cesta96 incremental algorithm (which
// tracks per-node timestamps to bound the frontier more tightly — see
// DESIGN.md); it is correct and terminates (each node's bound only ever
// decreases, and bounds are themselves bounded below by the timepoints'
// domain floors) but re-examines more of the graph per update than the
// timestamped version would.
type Reasoner struct {
	dom   *domains.Domains
	edges []Edge
	// out[v] holds the ids of edges leaving v, scanned each time v's upper
	// bound tightens.
	out map[domains.VarID][]EdgeID
	// byPresenceVar maps an edge's presence variable to the edge's tail, so
	// that the edge's tail bound gets re-examined once the edge itself
	// becomes active (an event on the presence variable alone would
	// otherwise go unnoticed, since out[] is keyed by From/To, not by
	// presence).
	byPresenceVar map[domains.VarID][]domains.VarID

	processed int
	inQueue   map[domains.VarID]bool
	queue     []domains.VarID

	deepExplanation bool
}

// New creates a Reasoner over dom.
func New(dom *domains.Domains) *Reasoner {
	return &Reasoner{
		dom:           dom,
		out:           make(map[domains.VarID][]EdgeID),
		byPresenceVar: make(map[domains.VarID][]domains.VarID),
		inQueue:       make(map[domains.VarID]bool),
	}
}

// SetDeepExplanation records the deep-explanation setting (section 6
// "ARIES_STN_DEEP_EXPLANATION" equivalent). Explain does not read it: an
// explanation always names only the edge's tail bound (and presence), and
// any further chasing of the edge chain is left to the 1-UIP loop.
func (r *Reasoner) SetDeepExplanation(deep bool) { r.deepExplanation = deep }

// AddEdge registers a (possibly optional) difference constraint
// "to - from <= weight" and returns its id.
func (r *Reasoner) AddEdge(from, to domains.VarID, weight domains.BoundDelta, presence domains.Lit) EdgeID {
	id := EdgeID(len(r.edges))
	r.edges = append(r.edges, Edge{From: from, To: to, Weight: weight, Presence: presence})
	r.out[from] = append(r.out[from], id)
	if presence != domains.TrueLit {
		pv := presence.SVar.Var()
		r.byPresenceVar[pv] = append(r.byPresenceVar[pv], from)
	}
	return id
}

func (r *Reasoner) active(e Edge) bool {
	return e.Presence == domains.TrueLit || r.dom.Entails(e.Presence)
}

// Propagate relaxes every active edge to fixpoint, starting from the nodes
// touched since the last call.
func (r *Reasoner) Propagate() error {
	events := r.dom.Events()
	for ; r.processed < len(events); r.processed++ {
		v := events[r.processed].Affected.Var()
		r.push(v)
		for _, tail := range r.byPresenceVar[v] {
			r.push(tail)
		}
	}
	for len(r.queue) > 0 {
		v := r.queue[0]
		r.queue = r.queue[1:]
		r.inQueue[v] = false

		_, ub := r.dom.Bounds(v)
		for _, id := range r.out[v] {
			e := r.edges[id]
			if !r.active(e) {
				continue
			}
			candidate := domains.UB(ub).Add(e.Weight)
			_, curUB := r.dom.Bounds(e.To)
			if int64(candidate) >= curUB {
				continue
			}
			tightened, err := r.dom.Set(domains.Leq(e.To, candidate), domains.FromReasoner(ReasonerID, uint32(id)))
			if err != nil {
				return err
			}
			if tightened {
				r.push(e.To)
			}
		}
	}
	return nil
}

func (r *Reasoner) push(v domains.VarID) {
	if r.inQueue[v] {
		return
	}
	r.inQueue[v] = true
	r.queue = append(r.queue, v)
}

// CheckInvariants re-derives, for every currently active edge, whether its
// head's upper bound is still consistent with its tail's (section 6
// "ARIES_STN_EXTENSIVE_TESTS" equivalent): a developer aid meant to be run
// after Propagate in a debug build, never part of the default propagation
// path, since a fixpoint Propagate call should make this trivially true by
// construction and re-deriving it again here is pure double-checking.
func (r *Reasoner) CheckInvariants() error {
	for id, e := range r.edges {
		if !r.active(e) {
			continue
		}
		_, fromUB := r.dom.Bounds(e.From)
		_, toUB := r.dom.Bounds(e.To)
		if int64(domains.UB(fromUB).Add(e.Weight)) < toUB {
			return fmt.Errorf("stnreasoner: invariant violated on edge %d: to=%d exceeds from=%d+weight=%d", id, toUB, fromUB, e.Weight)
		}
	}
	return nil
}

// TheoryPropagateBounds implements the "bounds" level of theory propagation
// (spec.md 4.4 / ARIES_STN_THEORY_PROPAGATION=Bounds): an inactive optional
// edge whose activation would immediately make its head's domain empty has
// its presence literal forced false.
func (r *Reasoner) TheoryPropagateBounds() error {
	for id, e := range r.edges {
		if e.Presence == domains.TrueLit || r.dom.Value(e.Presence) != nil {
			continue
		}
		_, fromUB := r.dom.Bounds(e.From)
		toLB, _ := r.dom.Bounds(e.To)
		if domains.UB(fromUB).Add(e.Weight) < domains.UB(toLB) {
			if _, err := r.dom.Set(e.Presence.Negation(), domains.FromReasoner(ReasonerID, uint32(id))); err != nil {
				return err
			}
		}
	}
	return nil
}

// Explain implements domains.Explainer. The tightened literal "to <= k" was
// produced by edge id from "from <= k - weight"; when the edge is optional
// its presence literal is also part of the justification. Domains.
// RefineExplanation re-enqueues the returned "from <= ..." literal and
// recurses into this same Explain for its own predecessor edge, so chasing
// the full edge chain (what ARIES_STN_DEEP_EXPLANATION toggles on the
// original reasoner) falls out of the generic 1-UIP loop for free; the
// deepExplanation flag is stored but not read here.
func (r *Reasoner) Explain(lit domains.Lit, origin domains.Origin, dom *domains.Domains) []domains.Lit {
	id := EdgeID(origin.Payload)
	e := r.edges[id]
	_, fromUB := dom.Bounds(e.From)
	out := []domains.Lit{domains.Leq(e.From, domains.UB(fromUB))}
	if e.Presence != domains.TrueLit {
		out = append(out, e.Presence)
	}
	return out
}

// NumEdges reports how many edges have been registered.
func (r *Reasoner) NumEdges() int { return len(r.edges) }

// EdgeAt returns edge id (for diagnostics/tests).
func (r *Reasoner) EdgeAt(id EdgeID) Edge { return r.edges[id] }
