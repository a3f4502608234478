package search

import (
	"container/heap"

	"github.com/solverkit/lcg/internal/domains"
)

// brancher picks the next undecided literal using an activity-ordered max
// heap, the same shape as cespare/saturday's litHeap (there keyed by watch
// list length; here by a VSIDS-style decayed activity score bumped on
// every literal of a learnt clause and every literal resolved away while
// deriving it).
type brancher struct {
	items []brancherItem
	index map[domains.VarID]int

	activity map[domains.VarID]float64
	polarity map[domains.VarID]bool // preferred polarity, last seen value
	inc      float64
	decay    float64

	// registered is every variable ever handed to addVar, kept around so
	// resync can repopulate the heap after a backtrack un-decides some of
	// them (next()/decide() removes a variable from items once it's
	// picked, but backtracking doesn't know that and never re-adds it).
	registered map[domains.VarID]bool
}

type brancherItem struct {
	v domains.VarID
}

func newBrancher() *brancher {
	return &brancher{
		index:      make(map[domains.VarID]int),
		activity:   make(map[domains.VarID]float64),
		polarity:   make(map[domains.VarID]bool),
		registered: make(map[domains.VarID]bool),
		inc:        1,
		decay:      1.0 / 0.95,
	}
}

func (b *brancher) Len() int { return len(b.items) }
func (b *brancher) Less(i, j int) bool {
	return b.activity[b.items[i].v] > b.activity[b.items[j].v]
}
func (b *brancher) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.index[b.items[i].v] = i
	b.index[b.items[j].v] = j
}
func (b *brancher) Push(x interface{}) {
	it := x.(brancherItem)
	b.index[it.v] = len(b.items)
	b.items = append(b.items, it)
}
func (b *brancher) Pop() interface{} {
	old := b.items
	n := len(old)
	it := old[n-1]
	b.items = old[:n-1]
	delete(b.index, it.v)
	return it
}

// addVar registers v as a decidable variable if it isn't already.
func (b *brancher) addVar(v domains.VarID) {
	b.registered[v] = true
	if _, ok := b.index[v]; ok {
		return
	}
	if _, ok := b.activity[v]; !ok {
		b.activity[v] = 0
	}
	heap.Push(b, brancherItem{v: v})
}

// resync re-admits every registered variable that is not currently queued,
// not fixed, and not known absent, so variables decided before a backtrack
// become choosable again. Called after every backjump and restart.
func (b *brancher) resync(dom *domains.Domains) {
	for v := range b.registered {
		if _, queued := b.index[v]; queued {
			continue
		}
		presence := dom.Presence(v)
		if presence != domains.TrueLit && dom.Value(presence) == nil {
			heap.Push(b, brancherItem{v: v})
			continue
		}
		if presence != domains.TrueLit && !dom.Entails(presence) {
			continue // known absent: stays out of the pool
		}
		if lb, ub := dom.Bounds(v); lb != ub {
			heap.Push(b, brancherItem{v: v})
		}
	}
}

// removeVar takes v out of the decidable pool (it's been assigned).
func (b *brancher) removeVar(v domains.VarID) {
	if i, ok := b.index[v]; ok {
		heap.Remove(b, i)
	}
}

// bump increases v's activity after it participates in a conflict, then
// rescales the whole table if it grows too large (VSIDS' standard
// overflow guard).
func (b *brancher) bump(v domains.VarID) {
	b.activity[v] += b.inc
	if b.activity[v] > 1e100 {
		for k := range b.activity {
			b.activity[k] *= 1e-100
		}
		b.inc *= 1e-100
	}
	if i, ok := b.index[v]; ok {
		heap.Fix(b, i)
	}
}

// decay applies the geometric activity decay, called once per conflict.
func (b *brancher) decayActivity() { b.inc *= b.decay }

// setPolarity records the phase of v's most recent decision (phase saving):
// positive means the decision took v's top value (a Geq branch), false means
// it excluded it (a Leq branch). decide() consults this the next time v
// becomes choosable again, so search repeats a phase that didn't
// immediately backtrack instead of always re-trying "exclude the top value".
func (b *brancher) setPolarity(v domains.VarID, positive bool) { b.polarity[v] = positive }

// preferHigh reports v's saved decision phase, defaulting to false (exclude
// the top value first) for a variable never yet decided.
func (b *brancher) preferHigh(v domains.VarID) bool { return b.polarity[v] }

// next pops the highest-activity undecided variable, or ok=false if none
// remain.
func (b *brancher) next() (domains.VarID, bool) {
	if b.Len() == 0 {
		return 0, false
	}
	it := heap.Pop(b).(brancherItem)
	return it.v, true
}
