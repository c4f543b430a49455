package vm

import "slices"

// Group holds every thread currently parked at one program counter.
// The threads' capture vectors form a bag: merging two groups at the same
// PC unions their vectors, collapsing duplicates that arrived over
// identical paths. All vectors in a group have the same length, fixed by
// the program's highest save slot.
type Group struct {
	vecs [][]int
}

// newGroup creates a group containing a single fresh capture vector.
// Every slot is unset (-1) except slot 0, which records the position the
// thread was seeded at; it stands in for the match start until an
// explicit Save 0 overwrites it.
func newGroup(slots, seedPos int) *Group {
	vec := make([]int, slots)
	for i := range vec {
		vec[i] = -1
	}
	vec[0] = seedPos
	return &Group{vecs: [][]int{vec}}
}

// Save records pos into the given slot of every capture vector in the
// bag. Saving can make previously distinct vectors identical; the bag is
// re-deduplicated so it cannot grow across identical paths.
func (g *Group) Save(slot, pos int) {
	for _, vec := range g.vecs {
		if slot < len(vec) {
			vec[slot] = pos
		}
	}
	g.dedup()
}

// Clone returns an independent deep copy of the group. Used when Split
// fans a thread out to two successors.
func (g *Group) Clone() *Group {
	vecs := make([][]int, len(g.vecs))
	for i, vec := range g.vecs {
		vecs[i] = slices.Clone(vec)
	}
	return &Group{vecs: vecs}
}

// Merge unions other's capture vectors into g, dropping vectors already
// present. other must not be used afterwards.
func (g *Group) Merge(other *Group) {
	for _, vec := range other.vecs {
		if !g.contains(vec) {
			g.vecs = append(g.vecs, vec)
		}
	}
}

// Vectors returns the capture vectors in the bag, in arrival order.
// The slice and its contents must not be modified.
func (g *Group) Vectors() [][]int {
	return g.vecs
}

// ExtractMatch returns the (start, end) pair of submatch i from every
// vector in the bag, skipping vectors where the pair is unset.
func (g *Group) ExtractMatch(i int) [][2]int {
	var pairs [][2]int
	for _, vec := range g.vecs {
		lo, hi := 2*i, 2*i+1
		if hi >= len(vec) || vec[lo] < 0 || vec[hi] < 0 {
			continue
		}
		pairs = append(pairs, [2]int{vec[lo], vec[hi]})
	}
	return pairs
}

func (g *Group) contains(vec []int) bool {
	for _, have := range g.vecs {
		if slices.Equal(have, vec) {
			return true
		}
	}
	return false
}

func (g *Group) dedup() {
	if len(g.vecs) < 2 {
		return
	}
	kept := g.vecs[:1]
	for _, vec := range g.vecs[1:] {
		dup := false
		for _, have := range kept {
			if slices.Equal(have, vec) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, vec)
		}
	}
	g.vecs = kept
}
