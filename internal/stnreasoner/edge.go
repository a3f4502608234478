// Package stnreasoner implements the difference-logic (Simple Temporal
// Network) reasoner (spec.md 4.4): edges "to - from <= weight", each
// optionally scoped by a presence literal, propagated incrementally and
// explained by following the edge chain that produced a tightened bound.
package stnreasoner

import "github.com/solverkit/lcg/internal/domains"

// EdgeID indexes the edge table.
type EdgeID int

// ReasonerID tags Origin.ExternalInference values produced by this
// reasoner.
const ReasonerID = 2

// Edge encodes the difference constraint "to - from <= Weight", active only
// when Presence holds (domains.TrueLit for an always-active edge).
type Edge struct {
	From, To domains.VarID
	Weight   domains.BoundDelta
	Presence domains.Lit
}
