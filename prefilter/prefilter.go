// Package prefilter rejects inputs that cannot match a bytecode program
// before the VM runs. It extracts the mandatory literal prefixes of a
// program and scans for them with primitives far cheaper than the full
// thread simulation: a SWAR byte search for a single-byte literal, an
// Aho-Corasick automaton for anything richer.
//
// A prefilter is advisory about where a match might start but definitive
// about absence: Find returning -1 proves the VM would find nothing.
package prefilter

import (
	"github.com/coregx/ahocorasick"

	"github.com/coregx/pikegrep/vm"
)

// Prefilter scans for candidate match positions.
type Prefilter interface {
	// Find returns the first position at or after start where a match
	// could begin, or -1 if the haystack cannot contain one.
	Find(haystack []byte, start int) int
}

// Build selects a prefilter for the program, or nil when its literal
// prefixes are not extractable (the VM must then run unconditionally).
func Build(p *vm.Program) Prefilter {
	return BuildWithConfig(p, DefaultConfig())
}

// BuildWithConfig is Build with explicit extraction limits.
func BuildWithConfig(p *vm.Program, cfg Config) Prefilter {
	lits, ok := ExtractPrefixes(p, cfg)
	if !ok {
		return nil
	}

	if len(lits) == 1 && len(lits[0]) == 1 {
		return &memchrPrefilter{needle: lits[0][0]}
	}

	builder := ahocorasick.NewBuilder()
	for _, lit := range lits {
		builder.AddPattern(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &acPrefilter{auto: auto}
}

// memchrPrefilter scans for a single mandatory first byte.
type memchrPrefilter struct {
	needle byte
}

func (f *memchrPrefilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := memchr(haystack[start:], f.needle)
	if i < 0 {
		return -1
	}
	return start + i
}

// acPrefilter scans for any of several mandatory literal prefixes with an
// Aho-Corasick automaton.
type acPrefilter struct {
	auto *ahocorasick.Automaton
}

func (f *acPrefilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	m := f.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}
