// Package cpreasoner implements the arithmetic constraint-propagator
// reasoner (spec.md 4.6): a small set of built-in propagators behind a
// shared setup/propagate/explain contract, each independently explainable.
package cpreasoner

import "github.com/solverkit/lcg/internal/domains"

// PropagatorID indexes the propagator table.
type PropagatorID int

// ReasonerID tags Origin.ExternalInference values produced by this
// reasoner.
const ReasonerID = 4

// Propagator is the contract every CP constraint implements, following the
// teacher corpus's reasoners/cp Propagator trait verbatim: Setup declares
// which variables wake it, Propagate tightens bounds (or fails) to a
// fixpoint of its own constraint, and Explain justifies one of the
// literals it set.
type Propagator interface {
	// Setup returns the variables whose bound changes should wake this
	// propagator.
	Setup() []domains.VarID
	Propagate(dom *domains.Domains, cause domains.Origin) error
	Explain(lit domains.Lit, dom *domains.Domains) []domains.Lit
}
