package vm

import (
	"slices"

	"github.com/coregx/pikegrep/internal/sparse"
)

// PikeVM executes a bytecode Program against byte strings. It simulates
// the program's NFA by advancing all feasible threads in lockstep: at
// each input position, every non-consuming instruction is discharged to
// quiescence before the byte itself is consumed.
//
// All scratch state (the three thread lists and the visited set) is
// allocated once and reused across searches, so a PikeVM must not be
// shared between goroutines. The Program it runs is read-only and may be
// shared freely.
type PikeVM struct {
	prog *Program

	// Thread lists, role-swapped at every step: current is drained,
	// epsilon successors land in temp, byte-consuming successors in
	// next. The three must stay physically distinct or draining would
	// corrupt itself.
	current *threadList
	temp    *threadList
	next    *threadList

	// visited tracks PCs dispatched during one step, so each PC's
	// instruction runs at most once per input position. This is what
	// makes the epsilon loop quiesce even on degenerate jump cycles.
	visited *sparse.Set

	matches []candidate
}

// candidate is one Match-instruction firing: an overall span plus the
// capture vector of the thread that produced it.
type candidate struct {
	start, end int
	caps       []int
}

// Match is a successful search result. Captures[i] holds the [start, end)
// pair of submatch i, or nil if the group never matched; Captures[0] is
// the overall match.
type Match struct {
	Start    int
	End      int
	Captures [][]int
}

// NewPikeVM creates a VM for the given program.
func NewPikeVM(p *Program) *PikeVM {
	n := p.Len()
	return &PikeVM{
		prog:    p,
		current: newThreadList(n),
		temp:    newThreadList(n),
		next:    newThreadList(n),
		visited: sparse.New(uint32(n)),
	}
}

// Search finds the longest match anywhere in input, returning its span as
// byte offsets. Among equally long matches the earliest-found wins.
func (v *PikeVM) Search(input []byte) (start, end int, ok bool) {
	v.run(input, false)
	best, ok := v.best()
	if !ok {
		return -1, -1, false
	}
	return best.start, best.end, true
}

// SearchCaptures is Search with submatch extraction. Returns nil when
// there is no match.
func (v *PikeVM) SearchCaptures(input []byte) *Match {
	v.run(input, false)
	best, ok := v.best()
	if !ok {
		return nil
	}
	return v.buildMatch(best)
}

// IsMatch reports whether input contains any match. It stops at the first
// Match firing instead of hunting for the longest span, which makes it
// the cheap variant for hit/no-hit filtering.
func (v *PikeVM) IsMatch(input []byte) bool {
	return v.run(input, true)
}

// run drives the step engine over input. Seeding PC 0 with a fresh group
// at every position, the final no-byte step included, is what makes the
// search unanchored and lets empty-match programs fire on empty input.
// Reports whether any match was found; with earlyExit it returns as soon
// as one is.
func (v *PikeVM) run(input []byte, earlyExit bool) bool {
	v.current.clear()
	v.temp.clear()
	v.next.clear()
	v.matches = v.matches[:0]

	for pos := 0; pos <= len(input); pos++ {
		v.current.add(0, newGroup(v.prog.Slots(), pos))

		eof := pos == len(input)
		var b byte
		if !eof {
			b = input[pos]
		}
		v.step(pos, b, eof)

		if earlyExit && len(v.matches) > 0 {
			return true
		}
	}
	return len(v.matches) > 0
}

// step performs one input position's worth of work: discharge all
// non-consuming instructions until no thread remains, then promote the
// byte-consuming successors to the next position's thread set.
func (v *PikeVM) step(pos int, b byte, eof bool) {
	v.visited.Clear()
	for !v.current.isEmpty() {
		v.current.drain(func(pc uint32, g *Group) {
			v.dispatch(pc, g, pos, b, eof)
		})
		v.current, v.temp = v.temp, v.current
	}
	v.current, v.next = v.next, v.current
}

// dispatch executes the instruction at pc for the group parked there.
// Epsilon successors go to temp (re-processed this position), consuming
// successors to next (processed at the following position).
func (v *PikeVM) dispatch(pc uint32, g *Group, pos int, b byte, eof bool) {
	v.visited.Insert(pc)

	switch in := v.prog.Inst(pc); in.Op {
	case OpMatch:
		for _, vec := range g.Vectors() {
			end := vec[1]
			if end < 0 {
				end = pos
			}
			v.matches = append(v.matches, candidate{
				start: vec[0],
				end:   end,
				caps:  slices.Clone(vec),
			})
		}

	case OpDie:
		// Thread dies silently.

	case OpConsume:
		if !eof {
			v.next.add(pc+1, g)
		}

	case OpRange:
		if !eof && in.Matches(b) {
			v.next.add(pc+1, g)
		}

	case OpRangeBranch:
		if eof {
			return
		}
		if in.Matches(b) {
			v.addEpsilon(in.X, g)
		} else {
			v.addEpsilon(pc+1, g)
		}

	case OpJump:
		v.addEpsilon(in.X, g)

	case OpSplit:
		v.addEpsilon(in.X, g.Clone())
		v.addEpsilon(in.Y, g)

	case OpSave:
		g.Save(int(in.X), pos)
		v.addEpsilon(pc+1, g)
	}
}

// addEpsilon enqueues an epsilon successor for this position. A PC whose
// instruction already ran this step is dropped: re-running it could not
// change the set of reachable PCs, only duplicate capture variants, and
// skipping it is what bounds the epsilon loop at one dispatch per PC.
func (v *PikeVM) addEpsilon(pc uint32, g *Group) {
	if v.visited.Contains(pc) {
		return
	}
	// A PC still waiting in the list being drained has not run yet: join
	// its group so the PC is dispatched once, not again next round.
	if v.current.set.Contains(pc) && v.current.groups[pc] != nil {
		v.current.groups[pc].Merge(g)
		return
	}
	v.temp.add(pc, g)
}

// best folds the accumulated candidates into the winning match: greatest
// end-start, ties resolved to the earliest-found candidate.
func (v *PikeVM) best() (candidate, bool) {
	if len(v.matches) == 0 {
		return candidate{}, false
	}
	best := v.matches[0]
	for _, c := range v.matches[1:] {
		if c.end-c.start > best.end-best.start {
			best = c
		}
	}
	return best, true
}

// buildMatch converts a winning candidate's capture vector into the
// public result shape.
func (v *PikeVM) buildMatch(c candidate) *Match {
	numGroups := v.prog.Slots() / 2
	m := &Match{
		Start:    c.start,
		End:      c.end,
		Captures: make([][]int, numGroups),
	}
	m.Captures[0] = []int{c.start, c.end}
	for i := 1; i < numGroups; i++ {
		lo, hi := c.caps[2*i], c.caps[2*i+1]
		if lo >= 0 && hi >= 0 {
			m.Captures[i] = []int{lo, hi}
		}
	}
	return m
}
