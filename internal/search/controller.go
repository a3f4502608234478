// Package search implements the search controller (spec.md 4.7): the
// decide/propagate/analyze-conflict/backjump loop tying every reasoner
// together, activity-based branching, geometric restarts, an optimization
// loop built on repeated bounding, and assumption-based solving with
// UNSAT-core extraction.
package search

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/satreasoner"
)

// Reasoner is what every theory reasoner (STN, EQ, CP — SAT is handled
// separately since it alone owns the learnt-clause database) must
// implement to participate in the propagate-to-fixpoint loop.
type Reasoner interface {
	domains.Explainer
	Propagate() error
}

// Result is the outcome of a Solve call.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Controller is the search loop: it owns no constraints of its own, only
// the decision/propagation/backjump machinery driving the reasoners
// registered with it. Grounded on cespare/saturday's solve()/bcp()/
// resolveConflict() loop (saturday.go), with the teacher's chronological
// flip-last-decision backtracking replaced by 1-UIP conflict-driven
// backjumping per original_source/solver/src/solver/search.rs.
type Controller struct {
	dom *domains.Domains
	sat *satreasoner.Reasoner

	theories   []Reasoner
	explainers map[int]domains.Explainer

	brancher *brancher
	restart  restartSchedule
	log      hclog.Logger

	conflictsSinceRestart int
	numConflicts          int64
	numDecisions          int64

	reduceDBEvery   int
	conflictsAtLast int

	// rootHook, if set, runs once per outer-loop iteration whenever the
	// search is back at the root decision level, before the next decision
	// is made. internal/portfolio uses it to absorb clauses imported from
	// other workers at "the worker's next root state" (spec.md 4.8).
	rootHook func()

	// learntHook, if set, is called with each clause this controller
	// learns from a conflict, for internal/portfolio to
	// broadcast to the rest of a racing pool.
	learntHook func(lits []domains.Lit)
}

// SetRootHook installs fn to run on every return to the root decision
// level. A nil fn disables the hook.
func (c *Controller) SetRootHook(fn func()) { c.rootHook = fn }

// SetLearntClauseHook installs fn to run on every clause learnt from a
// conflict. A nil fn disables the hook.
func (c *Controller) SetLearntClauseHook(fn func(lits []domains.Lit)) { c.learntHook = fn }

// NamedReasoner pairs a theory reasoner with the ReasonerID it tags its
// inferences with, so Controller can route ExternalInference origins back
// to the reasoner that produced them.
type NamedReasoner struct {
	ID       int
	Reasoner Reasoner
}

// Config tunes the controller's search policy (section 6 "Configuration").
type Config struct {
	RestartBase   int     // conflicts before the first restart; 0 disables restarts
	RestartFactor float64 // geometric growth factor between restarts
	ReduceDBEvery int     // conflicts between clause-database reductions; 0 disables
	Logger        hclog.Logger
}

// DefaultConfig mirrors the teacher/original's usual defaults: a modest
// geometric restart policy and periodic clause-db reduction.
func DefaultConfig() Config {
	return Config{RestartBase: 100, RestartFactor: 1.5, ReduceDBEvery: 2000}
}

// New creates a Controller over dom, wired to the SAT reasoner (the
// learnt-clause owner) and zero or more theory reasoners.
func New(dom *domains.Domains, sat *satreasoner.Reasoner, theories []NamedReasoner, cfg Config) *Controller {
	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	explainers := map[int]domains.Explainer{satreasoner.ReasonerID: sat}
	plain := make([]Reasoner, 0, len(theories))
	for _, th := range theories {
		explainers[th.ID] = th.Reasoner
		plain = append(plain, th.Reasoner)
	}
	return &Controller{
		dom:           dom,
		sat:           sat,
		theories:      plain,
		explainers:    explainers,
		brancher:      newBrancher(),
		restart:       newRestartSchedule(cfg.RestartBase, cfg.RestartFactor),
		log:           log.Named("search"),
		reduceDBEvery: cfg.ReduceDBEvery,
	}
}

// RegisterDecisionVar makes v available to the activity-based brancher.
func (c *Controller) RegisterDecisionVar(v domains.VarID) { c.brancher.addVar(v) }

// Explain implements domains.Explainer, dispatching ExternalInference
// origins to the reasoner that produced them and handling the two
// Domains-internal origin kinds directly.
func (c *Controller) Explain(lit domains.Lit, origin domains.Origin, dom *domains.Domains) []domains.Lit {
	switch origin.Kind {
	case domains.ImplicationPropagation:
		return []domains.Lit{origin.ImpliedBy}
	case domains.PresenceOfEmptyDomain:
		return []domains.Lit{origin.OffendingLit}
	case domains.ExternalInference:
		if e, ok := c.explainers[origin.ReasonerID]; ok {
			return e.Explain(lit, origin, dom)
		}
	}
	return nil
}

// propagateToFixpoint runs the SAT reasoner and every theory reasoner in
// rounds until a round produces no further bound changes.
func (c *Controller) propagateToFixpoint() error {
	for {
		before := len(c.dom.Events())
		if err := c.sat.Propagate(); err != nil {
			return err
		}
		for _, th := range c.theories {
			if err := th.Propagate(); err != nil {
				return err
			}
		}
		if len(c.dom.Events()) == before {
			return nil
		}
	}
}

// levelOfClauseLit returns the decision level of the event that made
// lit's negation true — i.e. the level at which lit (a disjunct of a
// learnt clause) itself became false.
func (c *Controller) levelOfClauseLit(lit domains.Lit) int {
	idx := c.dom.EventIndexOf(lit.Negation().SVar)
	if idx == -1 {
		return 0
	}
	return c.dom.LevelOfEvent(idx)
}

// analyzeAndBackjump handles a propagation failure: it derives the
// asserting clause, backjumps to the second-highest level among its
// literals, posts the clause to the SAT reasoner, and reasserts the
// asserting literal. It returns false if the conflict was at the root
// level (UNSAT).
func (c *Controller) analyzeAndBackjump(failure error) (bool, error) {
	var iu *domains.InvalidUpdateError
	if !asInvalidUpdate(failure, &iu) {
		return false, failure
	}
	conflict := c.dom.ClauseForInvalidUpdate(iu, c)
	c.numConflicts++
	c.conflictsSinceRestart++

	if len(conflict.Clause) == 0 {
		return false, nil // root-level contradiction: UNSAT
	}

	// VSIDS-style decay happens once per conflict, before the bumps below,
	// for both the variable and the clause activity tables.
	c.brancher.decayActivity()
	c.sat.DecayActivity()
	for l := range conflict.Resolved {
		c.bumpLiteralActivity(l)
		c.bumpClauseInvolved(l)
	}

	assertLevel := -1
	backjumpLevel := 0
	var assertLit domains.Lit
	for _, l := range conflict.Clause {
		lvl := c.levelOfClauseLit(l)
		c.bumpLiteralActivity(l)
		if lvl > assertLevel {
			if assertLevel > backjumpLevel {
				backjumpLevel = assertLevel
			}
			assertLevel = lvl
			assertLit = l
		} else if lvl > backjumpLevel {
			backjumpLevel = lvl
		}
	}

	for c.dom.CurrentLevel() > backjumpLevel {
		c.dom.RestoreLast()
	}

	id, ok := c.sat.AddClause(conflict.Clause, domains.TrueLit, true)
	if ok && c.learntHook != nil {
		c.learntHook(conflict.Clause)
	}
	if !ok {
		// The clause simplified away to a tautology; nothing further to
		// assert, but the backjump itself already recovers a consistent
		// state for the next decision.
		return true, nil
	}
	if _, err := c.dom.Set(assertLit, domains.FromReasoner(satreasoner.ReasonerID, uint32(id))); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) bumpLiteralActivity(l domains.Lit) {
	c.brancher.bump(l.SVar.Var())
}

// bumpClauseInvolved bumps the activity of whichever clause is responsible
// for l's most recent tightening event, if that event's cause was the SAT
// reasoner (a resolved literal can equally be owed to a theory reasoner or a
// decision, neither of which own a clause to bump).
func (c *Controller) bumpClauseInvolved(l domains.Lit) {
	idx := c.dom.EventIndexOf(l.SVar)
	if idx == -1 {
		return
	}
	cause := c.dom.Events()[idx].Cause
	if cause.Kind == domains.ExternalInference && cause.ReasonerID == satreasoner.ReasonerID {
		c.sat.BumpActivity(satreasoner.ClauseID(cause.Payload))
	}
}

func asInvalidUpdate(err error, target **domains.InvalidUpdateError) bool {
	if iu, ok := err.(*domains.InvalidUpdateError); ok {
		*target = iu
		return true
	}
	return false
}

// decide picks the next branching literal: the highest-activity
// undecided variable. Without a saved phase the decision excludes its top
// value (false, in boolean encodings); a saved top-value phase takes the
// top value instead.
func (c *Controller) decide() (domains.Lit, bool) {
	for {
		v, ok := c.brancher.next()
		if !ok {
			return domains.Lit{}, false
		}
		presence := c.dom.Presence(v)
		if presence != domains.TrueLit && !c.dom.Entails(presence) {
			// Not yet known to be present: its own presence is itself a
			// pending decision if nothing else has forced it.
			if c.dom.Value(presence) == nil {
				c.brancher.addVar(v)
				return presence, true
			}
			continue // already known absent: nothing to decide here
		}
		lb, ub := c.dom.Bounds(v)
		if lb == ub {
			continue // already fixed by propagation since it left the heap
		}
		if c.brancher.preferHigh(v) {
			return domains.Geq(v, domains.UB(ub)), true // phase-saved: v was last seen at its top value
		}
		return domains.Leq(v, domains.UB(ub-1)), true // default: exclude top value first
	}
}

// Solve runs decide/propagate/analyze to completion, honoring ctx
// cancellation between decisions.
func (c *Controller) Solve(ctx context.Context) (Result, error) {
	if err := c.propagateToFixpoint(); err != nil {
		for {
			ok, ferr := c.analyzeAndBackjump(err)
			if ferr != nil {
				return Unknown, ferr
			}
			if !ok {
				return Unsat, nil
			}
			c.brancher.resync(c.dom)
			if err = c.propagateToFixpoint(); err == nil {
				break
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return Unknown, ctx.Err()
		default:
		}

		if c.restart.due(c.conflictsSinceRestart) {
			c.log.Debug("restarting", "conflicts", c.numConflicts, "decisions", c.numDecisions)
			c.restart.advance()
			c.conflictsSinceRestart = 0
			for c.dom.CurrentLevel() > 0 {
				c.dom.RestoreLast()
			}
			c.brancher.resync(c.dom)
		}
		if c.reduceDBEvery > 0 && int(c.numConflicts)-c.conflictsAtLast >= c.reduceDBEvery {
			c.log.Debug("reducing clause database", "clauses", c.sat.NumClauses())
			c.sat.ReduceDB()
			c.conflictsAtLast = int(c.numConflicts)
		}
		if c.rootHook != nil && c.dom.CurrentLevel() == 0 {
			c.rootHook()
		}

		lit, ok := c.decide()
		if !ok {
			return Sat, nil
		}
		c.numDecisions++
		c.dom.SaveState()
		_, err := c.dom.Set(lit, domains.DecisionOrigin())
		if err == nil {
			c.brancher.setPolarity(lit.SVar.Var(), !lit.SVar.IsPlus())
			err = c.propagateToFixpoint()
		}
		for err != nil {
			ok, ferr := c.analyzeAndBackjump(err)
			if ferr != nil {
				return Unknown, ferr
			}
			if !ok {
				return Unsat, nil
			}
			c.brancher.resync(c.dom)
			err = c.propagateToFixpoint()
		}
	}
}

// Minimize repeatedly solves, tightening objective's upper bound below the
// best solution found so far, until UNSAT proves the last solution
// optimal (spec.md 4.7 "minimize"/"minimize_with").
func (c *Controller) Minimize(ctx context.Context, objective domains.VarID) (Result, int64, error) {
	var (
		best    int64
		found   bool
		lastErr error
	)
	for {
		res, err := c.Solve(ctx)
		if err != nil {
			lastErr = multierror.Append(lastErr, err).ErrorOrNil()
			return Unknown, 0, lastErr
		}
		if res == Unsat {
			if found {
				return Sat, best, nil
			}
			return Unsat, 0, nil
		}
		_, ub := c.dom.Bounds(objective)
		best = ub
		found = true

		for c.dom.CurrentLevel() > 0 {
			c.dom.RestoreLast()
		}
		c.brancher.resync(c.dom)
		c.dom.SaveState()
		if _, err := c.dom.Set(domains.Leq(objective, domains.UB(best-1)), domains.EncodingOriginValue()); err != nil {
			return Sat, best, nil // no room left below the incumbent: it's optimal
		}
	}
}

// Assumptions is a LIFO stack of externally-forced literals (spec.md 4.9),
// pushed as decisions at level 1..N so that a contradiction among them
// can be explained the same way any other conflict is.
type Assumptions struct {
	c     *Controller
	stack []domains.Lit
}

// NewAssumptions creates an assumption stack bound to c.
func NewAssumptions(c *Controller) *Assumptions { return &Assumptions{c: c} }

// Push asserts lit as an assumption, returning an error immediately if it
// conflicts with what's already been established. On failure the trail is
// left exactly as it stood at the conflict (not yet popped) so the caller
// can derive a Conflict/UnsatCore from it before retracting the failed
// level itself with DiscardFailed.
func (a *Assumptions) Push(lit domains.Lit) error {
	a.c.dom.SaveState()
	if _, err := a.c.dom.Set(lit, domains.DecisionOrigin()); err != nil {
		return err
	}
	if err := a.c.propagateToFixpoint(); err != nil {
		return err
	}
	a.stack = append(a.stack, lit)
	return nil
}

// Pop retracts the most recently pushed assumption.
func (a *Assumptions) Pop() {
	if len(a.stack) == 0 {
		return
	}
	a.stack = a.stack[:len(a.stack)-1]
	a.c.dom.RestoreLast()
}

// DiscardFailed retracts the level left behind by a Push call that
// returned an error, once the caller is done deriving a Conflict/
// UnsatCore from it. It does not touch the assumption stack itself,
// since a failed Push was never appended to it.
func (a *Assumptions) DiscardFailed() { a.c.dom.RestoreLast() }

// UnsatCore derives a minimal-subset-property core from a conflict
// encountered while assumptions were active: the subset of pushed
// assumptions that the 1-UIP clause actually blames, read off the clause's
// literals that correspond to an assumption's own SVar.
func (a *Assumptions) UnsatCore(conflict domains.Conflict) []domains.Lit {
	inStack := make(map[domains.SVar]domains.Lit, len(a.stack))
	for _, l := range a.stack {
		inStack[l.SVar] = l
	}
	var core []domains.Lit
	for _, l := range conflict.Clause {
		if assumed, ok := inStack[l.SVar.Negate()]; ok {
			core = append(core, assumed)
		}
	}
	if len(core) == 0 {
		return nil
	}
	return core
}
