package eqreasoner

import (
	set "github.com/hashicorp/go-set/v2"

	"github.com/solverkit/lcg/internal/domains"
)

// Reasoner propagates equality/disequality edges by recomputing connected
// components over whichever edges are currently active. This trades the
// teacher corpus's incremental component-merge bookkeeping (graph/mod.rs,
// subsets.rs) for a from-scratch rebuild on every Propagate call: correct
// and simple, at the cost of redoing O(E) work per propagation round
// instead of amortizing it — acceptable at the scale this reasoner is
// exercised at here (see DESIGN.md).
type Reasoner struct {
	dom   *domains.Domains
	edges []edge
}

// New creates a Reasoner over dom.
func New(dom *domains.Domains) *Reasoner {
	return &Reasoner{dom: dom}
}

// AddEq registers an equality edge active once presence is entailed.
func (r *Reasoner) AddEq(a, b Node, presence domains.Lit) EdgeID {
	id := EdgeID(len(r.edges))
	r.edges = append(r.edges, edge{A: a, B: b, Presence: presence})
	return id
}

// AddDiseq registers a disequality edge active once presence is entailed.
func (r *Reasoner) AddDiseq(a, b Node, presence domains.Lit) EdgeID {
	id := EdgeID(len(r.edges))
	r.edges = append(r.edges, edge{A: a, B: b, Presence: presence, Diseq: true})
	return id
}

func active(dom *domains.Domains, presence domains.Lit) bool {
	return presence == domains.TrueLit || dom.Entails(presence)
}

// unionFind is a plain (uncompressed) forest over Node, built fresh each
// time: `via[n]` is the edge that attached n to parent[n], so the path from
// any node up to its component root can be walked directly without a
// separate path-recording pass.
type unionFind struct {
	parent map[Node]Node
	via    map[Node]EdgeID
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[Node]Node), via: make(map[Node]EdgeID)}
}

func (u *unionFind) find(n Node) Node {
	for {
		p, ok := u.parent[n]
		if !ok {
			u.parent[n] = n
			return n
		}
		if p == n {
			return n
		}
		n = p
	}
}

func (u *unionFind) union(a, b Node, id EdgeID) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	u.parent[ra] = rb
	u.via[ra] = id
	return true
}

// pathToRoot returns the chain of edges from n up to its component root.
func (u *unionFind) pathToRoot(n Node) []EdgeID {
	var out []EdgeID
	for {
		p, ok := u.parent[n]
		if !ok || p == n {
			return out
		}
		out = append(out, u.via[n])
		n = p
	}
}

func build(dom *domains.Domains, edges []edge) *unionFind {
	u := newUnionFind()
	for id, e := range edges {
		if e.Diseq || !active(dom, e.Presence) {
			continue
		}
		u.union(e.A, e.B, EdgeID(id))
	}
	return u
}

// Propagate rebuilds the equality graph's connected components (from the
// currently active equality edges only — see build) and checks every
// edge's own relation against them, in both directions: a disequality
// whose endpoints land in the same component is forced false (a
// contradiction if it was already asserted true, a new implication
// otherwise), and an equality whose presence is not yet entailed but whose
// endpoints are already in the same component via other edges is forced
// true (a contradiction if it was already asserted false). Both
// directions are grounded on original_source's paths_requiring_eq/
// paths_requiring_neq, whose job is exactly to find edges whose relation
// the rest of the graph already entails regardless of whether the edge
// itself is active.
func (r *Reasoner) Propagate() error {
	u := build(r.dom, r.edges)
	for id, e := range r.edges {
		same := u.find(e.A) == u.find(e.B)
		switch {
		case e.Diseq && same:
			// The endpoints are already proven equal by edges other than
			// this one. If this disequality's presence was already
			// asserted true, forcing its negation surfaces the usual
			// InvalidUpdateError; if not, this is a new implication
			// setting it false outright.
			if _, err := r.dom.Set(e.Presence.Negation(), domains.FromReasoner(ReasonerID, uint32(id))); err != nil {
				return err
			}
		case !e.Diseq && !active(r.dom, e.Presence) && same:
			// This equality's own presence is not entailed, but its
			// endpoints are already equal via other edges: the
			// reification literal is forced true (a new implication if it
			// was undetermined, a contradiction if it was already false).
			if _, err := r.dom.Set(e.Presence, domains.FromReasoner(ReasonerID, uint32(id))); err != nil {
				return err
			}
		}
	}
	return nil
}

// Explain implements domains.Explainer: the conjunction of equality edges'
// presence literals connecting the disequality's two endpoints is what
// forces the disequality false.
func (r *Reasoner) Explain(lit domains.Lit, origin domains.Origin, dom *domains.Domains) []domains.Lit {
	id := EdgeID(origin.Payload)
	e := r.edges[id]
	u := build(dom, r.edges)

	// Both endpoints' paths to the component root can share a prefix (the
	// root itself, or further down if the chain happened to meet earlier);
	// go-set dedups the resulting literal conjunction so the learnt clause
	// doesn't carry a literal twice.
	lits := set.New[domains.Lit](0)
	collect := func(n Node) {
		for _, eid := range u.pathToRoot(n) {
			if p := r.edges[eid].Presence; p != domains.TrueLit {
				lits.Insert(p)
			}
		}
	}
	collect(e.A)
	collect(e.B)
	return lits.Slice()
}

// NumEdges reports how many edges have been registered.
func (r *Reasoner) NumEdges() int { return len(r.edges) }
