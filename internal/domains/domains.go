package domains

import "fmt"

// InvalidUpdateError reports that tightening lit on a non-optional variable
// would make its domain empty.
type InvalidUpdateError struct {
	Lit    Lit
	Origin Origin
}

func (e *InvalidUpdateError) Error() string {
	return fmt.Sprintf("invalid update: %s is unsatisfiable", e.Lit)
}

// varInfo is the per-variable bookkeeping that doesn't fit densely into the
// SVar-indexed bound array.
type varInfo struct {
	presence Lit
}

// Domains is the bound store: dense arrays of current upper bounds indexed
// by SVar, an append-only trail of the events that produced them, and a
// registry of eagerly-propagated implications between non-optional
// literals.
type Domains struct {
	bounds    []UB  // indexed by SVar
	prevEvent []int // indexed by SVar; -1 if the bound has held since the root
	vars      []varInfo
	events    []Event
	// levelStart[i] is the index into events where decision level i begins.
	// levelStart[0] == 0 always (the root level).
	levelStart []int
	implies    map[Lit][]Lit
}

// New creates a Domains with the ZERO and ONE constants pre-registered.
func New() *Domains {
	d := &Domains{
		levelStart: []int{0},
		implies:    make(map[Lit][]Lit),
	}
	zero := d.NewVar(0, 0)
	one := d.NewVar(1, 1)
	if zero != ZeroVar || one != OneVar {
		panic("domains: ZERO/ONE must be the first two variables created")
	}
	return d
}

func (d *Domains) grow(v VarID, lb, ub UB, presence Lit) {
	need := int(v)*2 + 2
	for len(d.bounds) < need {
		d.bounds = append(d.bounds, 0)
		d.prevEvent = append(d.prevEvent, -1)
	}
	d.bounds[Plus(v)] = ub
	d.bounds[Minus(v)] = -lb
	d.vars = append(d.vars, varInfo{presence: presence})
}

// NewVar creates a non-optional variable with an initial domain [lb, ub].
// An empty initial domain is a programmer error.
func (d *Domains) NewVar(lb, ub int64) VarID {
	if lb > ub {
		panic("domains: NewVar called with an empty domain")
	}
	v := VarID(len(d.vars))
	d.grow(v, UB(lb), UB(ub), TrueLit)
	return v
}

// NewOptionalVar creates a variable with initial domain [lb, ub] that is
// only present when presence holds. If lb > ub the variable is immediately
// forced absent (spec.md 8, "optional variable with lb > ub").
func (d *Domains) NewOptionalVar(lb, ub int64, presence Lit) VarID {
	v := VarID(len(d.vars))
	if lb > ub {
		// Force an obviously-empty domain so the first Set call on either
		// bound triggers PresenceOfEmptyDomain non-recursively.
		d.grow(v, UB(lb), UB(lb-1), presence)
	} else {
		d.grow(v, UB(lb), UB(ub), presence)
	}
	if lb > ub {
		if _, err := d.Set(presence.Negation(), FromEmptyDomain(Leq(v, UB(ub)), DecisionOrigin())); err != nil {
			panic("domains: contradictory presence literal at variable creation")
		}
	}
	return v
}

// Presence returns v's presence literal (TrueLit for non-optional variables).
func (d *Domains) Presence(v VarID) Lit { return d.vars[v].presence }

// IsOptional reports whether v may be proven absent.
func (d *Domains) IsOptional(v VarID) bool { return d.vars[v].presence != TrueLit }

// Bounds returns the current [lb, ub] of v.
func (d *Domains) Bounds(v VarID) (lb, ub int64) {
	return int64(-d.bounds[Minus(v)]), int64(d.bounds[Plus(v)])
}

// Entails reports whether lit currently holds.
func (d *Domains) Entails(lit Lit) bool {
	return d.bounds[lit.SVar] <= lit.UB
}

// Value returns a pointer to true/false if lit's truth is determined, or
// nil if it is still unknown.
func (d *Domains) Value(lit Lit) *bool {
	t, f := true, false
	if d.Entails(lit) {
		return &t
	}
	if d.Entails(lit.Negation()) {
		return &f
	}
	return nil
}

// CurrentLevel returns the current decision level (0 = root).
func (d *Domains) CurrentLevel() int { return len(d.levelStart) - 1 }

// SaveState starts a new decision level and returns it.
func (d *Domains) SaveState() int {
	d.levelStart = append(d.levelStart, len(d.events))
	return d.CurrentLevel()
}

// RestoreLast discards the most recent decision level, undoing every event
// recorded since it began.
func (d *Domains) RestoreLast() {
	if d.CurrentLevel() == 0 {
		panic("domains: RestoreLast called at the root level")
	}
	start := d.levelStart[len(d.levelStart)-1]
	d.undoTo(start)
	d.levelStart = d.levelStart[:len(d.levelStart)-1]
}

// undoTo pops events back to (but not including) index `to`.
func (d *Domains) undoTo(to int) {
	for i := len(d.events) - 1; i >= to; i-- {
		ev := d.events[i]
		d.bounds[ev.Affected] = ev.Previous
		d.prevEvent[ev.Affected] = ev.PrevEventIndex
	}
	d.events = d.events[:to]
}

// Set tightens lit's bound. It returns true if this strictly tightened the
// bound, false if lit already held (a no-op), and a non-nil error if the
// update is invalid: for a non-optional variable this is the tightening
// itself; for an optional variable an invalid update is transparently
// rewritten as a presence-false inference instead (per spec.md 4.1 step 1),
// and Set errors in that case only if the presence literal already holds.
func (d *Domains) Set(lit Lit, cause Origin) (bool, error) {
	tightened, err := d.tighten(lit, cause)
	if !tightened || err != nil {
		return tightened, err
	}
	if err := d.propagateImplications(lit); err != nil {
		return true, err
	}
	return true, nil
}

// tighten performs a single bound update (step 1-2 of spec.md 4.1's
// tighten-and-propagate algorithm) without walking the implication graph.
func (d *Domains) tighten(lit Lit, cause Origin) (bool, error) {
	if d.Entails(lit) {
		return false, nil
	}
	v := lit.SVar.Var()
	// The symmetric bound is the *other* side of v's domain: if lit
	// tightens the upper bound, the lower bound is the symmetric one, and
	// vice versa. A conflict occurs when the new bound would cross it.
	var crosses bool
	if lit.SVar.IsPlus() {
		crosses = lit.UB < -d.bounds[Minus(v)] // new ub below current lb
	} else {
		crosses = -lit.UB > d.bounds[Plus(v)] // new lb above current ub
	}
	if crosses {
		if d.IsOptional(v) {
			presence := d.vars[v].presence
			if _, err := d.Set(presence.Negation(), FromEmptyDomain(lit, cause)); err != nil {
				// presence was already pinned true: truly contradictory.
				return false, &InvalidUpdateError{Lit: lit, Origin: cause}
			}
			return true, nil
		}
		return false, &InvalidUpdateError{Lit: lit, Origin: cause}
	}

	prevIdx := d.prevEvent[lit.SVar]
	d.events = append(d.events, Event{
		Affected:       lit.SVar,
		New:            lit.UB,
		Previous:       d.bounds[lit.SVar],
		PrevEventIndex: prevIdx,
		Cause:          cause,
	})
	d.bounds[lit.SVar] = lit.UB
	d.prevEvent[lit.SVar] = len(d.events) - 1
	return true, nil
}

// propagateImplications runs a breadth-first walk of the non-optional
// implication graph seeded by lit, stopping at the first conflict.
func (d *Domains) propagateImplications(seed Lit) error {
	queue := []Lit{seed}
	for len(queue) > 0 {
		lit := queue[0]
		queue = queue[1:]
		for _, other := range d.implies[lit] {
			tightened, err := d.tighten(other, FromImplication(lit))
			if err != nil {
				return err
			}
			if tightened {
				queue = append(queue, other)
			}
		}
	}
	return nil
}

// AddImplication records a ⇒ b between two literals on non-optional
// variables, and immediately propagates a and ¬b. Both literals must be
// non-optional; violating this is a programmer error (contract, not an
// error return), per spec.md 4.1.
func (d *Domains) AddImplication(a, b Lit) {
	if d.IsOptional(a.SVar.Var()) || d.IsOptional(b.SVar.Var()) {
		panic("domains: AddImplication requires non-optional variables")
	}
	d.implies[a] = append(d.implies[a], b)
	d.implies[b.Negation()] = append(d.implies[b.Negation()], a.Negation())
	if d.Entails(a) {
		if _, err := d.Set(b, FromImplication(a)); err != nil {
			panic("domains: AddImplication produced an immediate contradiction")
		}
	}
	if d.Entails(b.Negation()) {
		if _, err := d.Set(a.Negation(), FromImplication(b.Negation())); err != nil {
			panic("domains: AddImplication produced an immediate contradiction")
		}
	}
}

// Events exposes the trail for explainers that need to inspect causes.
func (d *Domains) Events() []Event { return d.events }

// EventIndexOf returns the index of the most recent event touching sv, or
// -1 if sv's bound has held since the root.
func (d *Domains) EventIndexOf(sv SVar) int { return d.prevEvent[sv] }

// LevelOfEvent returns the decision level an event index belongs to.
func (d *Domains) LevelOfEvent(idx int) int {
	for lvl := len(d.levelStart) - 1; lvl >= 0; lvl-- {
		if idx >= d.levelStart[lvl] {
			return lvl
		}
	}
	return 0
}
