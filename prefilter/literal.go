package prefilter

import (
	"github.com/coregx/pikegrep/vm"
)

// Config bounds literal extraction so pathological programs cannot blow
// up the prefilter build.
type Config struct {
	// MaxLiterals limits how many alternation prefixes are collected
	// before extraction gives up.
	MaxLiterals int

	// MaxLiteralLen truncates each collected prefix. A truncated prefix
	// is still a mandatory prefix, just a less selective one.
	MaxLiteralLen int

	// MaxVisits bounds the total exploration work across all paths.
	MaxVisits int
}

// DefaultConfig returns extraction limits suitable for typical programs.
func DefaultConfig() Config {
	return Config{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxVisits:     1024,
	}
}

// ExtractPrefixes walks a program from PC 0 and collects a set of
// literal byte strings such that every match of the program starts with
// one of them. Save and Jump are transparent; Split explores both arms;
// a run of single-byte non-inverted Range instructions extends the
// current prefix.
//
// Exploration of a path stops at the first instruction that is not a
// fixed byte (a wide or inverted range, Consume, RangeBranch, Match) and
// at the first revisited PC — revisiting means a loop, and truncating
// there is safe because a prefix of a mandatory prefix is still
// mandatory. If any path yields an empty prefix, the program can match
// starting with an arbitrary byte: extraction fails and ok is false.
func ExtractPrefixes(p *vm.Program, cfg Config) (lits [][]byte, ok bool) {
	type frame struct {
		pc      uint32
		prefix  []byte
		visited map[uint32]bool
	}

	stack := []frame{{pc: 0, prefix: nil, visited: map[uint32]bool{}}}
	visits := 0

	emit := func(prefix []byte) bool {
		if len(prefix) == 0 || len(lits) >= cfg.MaxLiterals {
			return false
		}
		for _, have := range lits {
			if string(have) == string(prefix) {
				return true
			}
		}
		lits = append(lits, prefix)
		return true
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for {
			visits++
			if visits > cfg.MaxVisits || f.visited[f.pc] {
				if !emit(f.prefix) {
					return nil, false
				}
				break
			}
			f.visited[f.pc] = true

			in := p.Inst(f.pc)
			switch {
			case in.Op == vm.OpSave:
				f.pc++
				continue
			case in.Op == vm.OpJump:
				f.pc = in.X
				continue
			case in.Op == vm.OpSplit:
				// The forked arm gets copies; the fallthrough arm
				// keeps this frame's state.
				forked := frame{
					pc:      in.X,
					prefix:  append([]byte(nil), f.prefix...),
					visited: make(map[uint32]bool, len(f.visited)),
				}
				for pc := range f.visited {
					forked.visited[pc] = true
				}
				stack = append(stack, forked)
				f.pc = in.Y
				continue
			case in.Op == vm.OpDie:
				// Dead arm: contributes no matches, so no literal.
			case in.Op == vm.OpRange && !in.Inverted && in.Lo == in.Hi && len(f.prefix) < cfg.MaxLiteralLen:
				f.prefix = append(f.prefix, in.Lo)
				f.pc++
				continue
			default:
				// Opaque from here on; the gathered prefix stands.
				if !emit(f.prefix) {
					return nil, false
				}
			}
			break
		}
	}

	if len(lits) == 0 {
		return nil, false
	}
	return lits, true
}
