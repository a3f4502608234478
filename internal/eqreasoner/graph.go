// Package eqreasoner implements the equality-logic reasoner (spec.md 4.5):
// a graph of (possibly optional) equality and disequality edges between
// variable or constant nodes, propagated by recomputing connected
// components over the edges currently active, and explained by finding the
// path of equality edges that connected two now-conflicting endpoints.
package eqreasoner

import (
	"fmt"

	"github.com/solverkit/lcg/internal/domains"
)

// EdgeID indexes the edge table.
type EdgeID int

// ReasonerID tags Origin.ExternalInference values produced by this
// reasoner.
const ReasonerID = 3

// Node is either a variable or an integer constant, mirroring the eq graph
// nodes in the teacher corpus's Rust counterpart (a variable unifies with
// its own bound when fixed to a single value; a constant is always fixed).
type Node struct {
	IsConst bool
	Var     domains.VarID
	Const   int64
}

// VarNode wraps a variable as a graph node.
func VarNode(v domains.VarID) Node { return Node{Var: v} }

// ConstNode wraps an integer constant as a graph node.
func ConstNode(c int64) Node { return Node{IsConst: true, Const: c} }

func (n Node) String() string {
	if n.IsConst {
		return fmt.Sprintf("#%d", n.Const)
	}
	return fmt.Sprintf("v%d", n.Var)
}

// edge is an equality or disequality constraint between two nodes, active
// only once Presence is entailed.
type edge struct {
	A, B     Node
	Presence domains.Lit
	Diseq    bool
}
