package portfolio

import (
	"context"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/solverkit/lcg/internal/domains"
	"github.com/solverkit/lcg/internal/search"
)

// Signal is a message broadcast from one worker to the rest of the
// portfolio. Grounded on original_source's signals.rs OutputSignal enum,
// narrowed to the one payload this repo's workers actually produce
// (learnt clauses); solution broadcasting (the original's
// SolutionFound) is not implemented because this repo's
// search.Controller.Minimize has no mid-solve incumbent callback to
// source one from — see DESIGN.md.
type Signal struct {
	From   int
	Clause []domains.Lit
}

// Portfolio races a fixed set of pre-adapted worker clones against a
// shared deadline, grounded on
// original_source/solver/src/solver/parallel/parallel_solver.rs's
// ParSolver::race_solvers: start every worker, relay each one's learnt
// clauses to the rest, and return as soon as one of them reaches a
// definitive (Sat/Unsat) result, interrupting the others.
type Portfolio struct {
	workers []*Worker
	log     hclog.Logger
	tag     string
}

// New wraps a set of already-adapted workers (distinct brancher seeds,
// STN propagation levels, symmetry-breaking modes — the caller's
// responsibility, mirroring the original's per-index `adapt` closure).
func New(workers []*Worker, log hclog.Logger) *Portfolio {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Portfolio{workers: workers, log: log.Named("portfolio"), tag: uuid.NewString()}
}

type outcome struct {
	workerID int
	res      search.Result
	err      error
}

// run wires up the clause-sharing bus, starts every worker against solve,
// and returns the first definitive (non-Unknown) outcome, or a combined
// error if every worker failed without one.
func (p *Portfolio) run(ctx context.Context, solve func(*Worker, context.Context) (search.Result, error)) (search.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus := make(chan Signal, 256*len(p.workers))
	for _, w := range p.workers {
		w.bus = bus
	}
	defer func() {
		for _, w := range p.workers {
			w.bus = nil
		}
	}()

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		for sig := range bus {
			for _, w := range p.workers {
				if w.ID != sig.From {
					w.importClause(sig.Clause)
				}
			}
		}
	}()

	results := make(chan outcome, len(p.workers))
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range p.workers {
		w := w
		g.Go(func() error {
			res, err := solve(w, gctx)
			results <- outcome{workerID: w.ID, res: res, err: err}
			return nil // a single worker's failure doesn't abort the race; it's reported via results
		})
	}
	go func() {
		g.Wait()
		close(results)
		close(bus)
	}()

	var (
		errs  error
		heard int
	)
	for o := range results {
		heard++
		switch {
		case o.err != nil:
			p.log.Debug("worker failed", "worker", o.workerID, "error", o.err)
			errs = multierror.Append(errs, o.err)
		case o.res == search.Sat || o.res == search.Unsat:
			p.log.Debug("worker finished", "worker", o.workerID, "result", o.res.String(), "tag", p.tag)
			cancel()
			<-relayDone
			return o.res, nil
		}
		if heard == len(p.workers) {
			break
		}
	}
	<-relayDone
	if errs != nil {
		return search.Unknown, errs
	}
	return search.Unknown, ctx.Err()
}

// Solve races every worker's Solve and returns the first definitive
// result (spec.md 4.8 "races workers on the same problem with a shared
// deadline").
func (p *Portfolio) Solve(ctx context.Context) (search.Result, error) {
	return p.run(ctx, func(w *Worker, ctx context.Context) (search.Result, error) {
		return w.Controller.Solve(ctx)
	})
}

// Minimize races every worker's Minimize and returns the result from
// whichever worker finishes first along with the objective bound it
// certified. Unlike the original's minimize_with, incumbents aren't
// streamed across workers mid-search (see Signal's doc comment); each
// worker simply optimizes independently and the first to finish wins.
func (p *Portfolio) Minimize(ctx context.Context, objective domains.VarID) (search.Result, int64, error) {
	type bound struct {
		value int64
	}
	bounds := make(chan bound, len(p.workers))
	res, err := p.run(ctx, func(w *Worker, ctx context.Context) (search.Result, error) {
		r, v, err := w.Controller.Minimize(ctx, objective)
		if err == nil {
			bounds <- bound{value: v}
		}
		return r, err
	})
	select {
	case b := <-bounds:
		return res, b.value, err
	default:
		return res, 0, err
	}
}
