// Package lcg implements a lazy-clause-generation constraint solver
// (spec.md 1): a small, bounds-consistent CP engine built on a CDCL SAT
// core, with difference-logic, equality, and arithmetic theories feeding
// explanations back into the same conflict-driven search loop.
//
// Model is the external model-building surface (spec.md 6): callers
// declare variables, reify or enforce expressions against them, and drive
// the resulting problem with Solve, Minimize, or an assumption stack.
package lcg

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"github.com/solverkit/lcg/internal/cpreasoner"
	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/eqreasoner"
	"github.com/solverkit/lcg/internal/satreasoner"
	"github.com/solverkit/lcg/internal/scopes"
	"github.com/solverkit/lcg/internal/search"
	"github.com/solverkit/lcg/internal/stnreasoner"
)

// stnTheoryAdapter wraps the STN reasoner so that Propagate also runs
// TheoryPropagateBounds when the configured propagation level calls for
// it, without internal/stnreasoner needing to know about Config.
type stnTheoryAdapter struct {
	*stnreasoner.Reasoner
	level           STNPropagationLevel
	extensiveChecks bool
}

func (a stnTheoryAdapter) Propagate() error {
	if err := a.Reasoner.Propagate(); err != nil {
		return err
	}
	if a.level >= STNPropagationBounds {
		if err := a.Reasoner.TheoryPropagateBounds(); err != nil {
			return err
		}
	}
	if a.extensiveChecks {
		if err := a.Reasoner.CheckInvariants(); err != nil {
			panic(err) // a developer aid: a real violation is a solver bug, not a normal outcome
		}
	}
	return nil
}

// Model ties the bound store, the four reasoners, the expression registry,
// and the search controller together, and is the surface every caller
// builds a problem against.
type Model struct {
	Dom *domains.Domains
	Sat *satreasoner.Reasoner
	Stn *stnreasoner.Reasoner
	Eq  *eqreasoner.Reasoner
	Cp  *cpreasoner.Reasoner

	reg  *scopes.Registry
	ctrl *search.Controller
	log  hclog.Logger

	// lowered remembers which canonicalized expressions already had their
	// defining constraints posted, since scopes.Registry itself only
	// dedups the reification literal, not the constraint plumbing a root
	// package must additionally post for every non-trivial Op.
	lowered map[string]bool

	// constVars caches the auxiliary fixed-domain variable created for an
	// integer constant appearing where a bare variable is required (e.g.
	// the fixed side of a difference constraint), one per distinct value.
	constVars map[int64]domains.VarID
}

// NewModel creates an empty Model configured per cfg.
func NewModel(cfg Config) *Model {
	dom := domains.New()
	sat := satreasoner.New(dom)
	sat.SetLockedLBD(cfg.LockedLBD)
	stn := stnreasoner.New(dom)
	stn.SetDeepExplanation(cfg.STNDeepExplain)
	eq := eqreasoner.New(dom)
	cp := cpreasoner.New(dom)

	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	theories := []search.NamedReasoner{
		{ID: stnreasoner.ReasonerID, Reasoner: stnTheoryAdapter{Reasoner: stn, level: cfg.STNPropagation, extensiveChecks: cfg.STNExtensiveChecks}},
		{ID: eqreasoner.ReasonerID, Reasoner: eq},
		{ID: cpreasoner.ReasonerID, Reasoner: cp},
	}
	ctrl := search.New(dom, sat, theories, search.Config{
		RestartBase:   cfg.RestartBase,
		RestartFactor: cfg.RestartFactor,
		ReduceDBEvery: cfg.ReduceDBEvery,
		Logger:        log,
	})

	return &Model{
		Dom:       dom,
		Sat:       sat,
		Stn:       stn,
		Eq:        eq,
		Cp:        cp,
		reg:       scopes.NewRegistry(dom),
		ctrl:      ctrl,
		log:       log.Named("lcg"),
		lowered:   make(map[string]bool),
		constVars: make(map[int64]domains.VarID),
	}
}

// NewVar creates a mandatory integer variable with the given bounds.
func (m *Model) NewVar(lb, ub int64) domains.VarID { return m.Dom.NewVar(lb, ub) }

// NewOptionalVar creates a variable whose existence is conditioned on
// presence.
func (m *Model) NewOptionalVar(lb, ub int64, presence domains.Lit) domains.VarID {
	return m.Dom.NewOptionalVar(lb, ub, presence)
}

// RegisterDecisionVar makes v eligible for the search controller's
// activity-based branching (spec.md 4.7).
func (m *Model) RegisterDecisionVar(v domains.VarID) { m.ctrl.RegisterDecisionVar(v) }

// constVar returns the fixed-domain variable representing the integer
// constant c, creating it the first time c is needed.
func (m *Model) constVar(c int64) domains.VarID {
	if v, ok := m.constVars[c]; ok {
		return v
	}
	v := m.Dom.NewVar(c, c)
	m.constVars[c] = v
	return v
}

// EnforceSum posts "Σ terms <= bound" unconditionally (spec.md 4.6).
// Terms are mandatory; there is no per-constraint scope, matching
// cpreasoner.Sum's own contract (see DESIGN.md).
func (m *Model) EnforceSum(terms []cpreasoner.Term, bound int64) {
	m.Cp.Add(&cpreasoner.Sum{Terms: terms, Bound: bound})
}

// EnforceMax posts "maxVar == max(elements)" unconditionally, restricted
// to the upper-bound-from-elements direction cpreasoner.Max implements.
func (m *Model) EnforceMax(maxVar domains.VarID, maxPres domains.Lit, elements []cpreasoner.Elem) {
	m.Cp.Add(&cpreasoner.Max{MaxVar: maxVar, MaxPres: maxPres, Elements: elements})
}

// EnforceElement posts "result == array[index]" unconditionally.
func (m *Model) EnforceElement(array []domains.VarID, index, result domains.VarID) {
	m.Cp.Add(&cpreasoner.Element{Array: array, Index: index, Result: result})
}

// EnforceMulByLit posts "reified == original * lit" unconditionally.
func (m *Model) EnforceMulByLit(reified, original domains.VarID, lit domains.Lit) {
	m.Cp.Add(&cpreasoner.VarEqVarMulLit{Reified: reified, Original: original, Lit: lit})
}

// Solve runs the search controller to completion or cancellation
// (spec.md 4.7).
func (m *Model) Solve(ctx context.Context) (search.Result, error) { return m.ctrl.Solve(ctx) }

// Minimize searches for the assignment minimizing objective, re-solving
// with a tightened bound after each improvement (spec.md 4.7 "Branch and
// bound").
func (m *Model) Minimize(ctx context.Context, objective domains.VarID) (search.Result, int64, error) {
	return m.ctrl.Minimize(ctx, objective)
}

// NewAssumptions opens an assumption stack over this model's controller
// (spec.md 4.9).
func (m *Model) NewAssumptions() *search.Assumptions { return search.NewAssumptions(m.ctrl) }

// ConflictFor derives the asserting clause behind a failed
// Assumptions.Push, for feeding to Assumptions.UnsatCore. It returns false
// if err is not a domain contradiction (e.g. a context cancellation).
func (m *Model) ConflictFor(err error) (domains.Conflict, bool) {
	iu, ok := err.(*domains.InvalidUpdateError)
	if !ok {
		return domains.Conflict{}, false
	}
	return m.Dom.ClauseForInvalidUpdate(iu, m.ctrl), true
}
