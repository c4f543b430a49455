package vm

import (
	"github.com/coregx/pikegrep/internal/sparse"
)

// threadList is a set of pending threads keyed by program counter.
// At most one group exists per PC: threads converging on the same PC have
// their capture bags merged instead of being enqueued twice, which is
// what bounds the VM's work per input byte to the program length.
//
// PC membership lives in a sparse set whose dense array doubles as the
// iteration order, so draining visits PCs in insertion order and Split
// priority is preserved.
type threadList struct {
	set    *sparse.Set
	groups []*Group
}

// newThreadList creates an empty list for programs of n instructions.
func newThreadList(n int) *threadList {
	return &threadList{
		set:    sparse.New(uint32(n)),
		groups: make([]*Group, n),
	}
}

// add enqueues g at pc. If a group is already parked there, the bags are
// merged and g must not be used afterwards. PCs outside the program are
// dropped silently: a half-valid program degrades to dead threads, never
// to a fault.
func (l *threadList) add(pc uint32, g *Group) {
	if int(pc) >= len(l.groups) {
		return
	}
	if !l.set.Insert(pc) {
		l.groups[pc].Merge(g)
		return
	}
	l.groups[pc] = g
}

// isEmpty reports whether no PC has a pending group.
func (l *threadList) isEmpty() bool {
	return l.set.IsEmpty()
}

// clear drops all pending groups.
func (l *threadList) clear() {
	for _, pc := range l.set.Values() {
		l.groups[pc] = nil
	}
	l.set.Clear()
}

// drain calls f for each (pc, group) pair and leaves the list empty.
// f may add threads to other lists but must not add to this one.
func (l *threadList) drain(f func(pc uint32, g *Group)) {
	for _, pc := range l.set.Values() {
		g := l.groups[pc]
		l.groups[pc] = nil
		f(pc, g)
	}
	l.set.Clear()
}
