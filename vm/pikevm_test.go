package vm

import (
	"strings"
	"testing"
)

// Instruction shorthands for hand-assembled test programs.
func iMatch() Inst   { return Inst{Op: OpMatch} }
func iDie() Inst     { return Inst{Op: OpDie} }
func iConsume() Inst { return Inst{Op: OpConsume} }

func iRange(lo, hi byte) Inst    { return Inst{Op: OpRange, Lo: lo, Hi: hi} }
func iInvRange(lo, hi byte) Inst { return Inst{Op: OpRange, Lo: lo, Hi: hi, Inverted: true} }
func iJump(d uint32) Inst        { return Inst{Op: OpJump, X: d} }
func iSplit(a, b uint32) Inst    { return Inst{Op: OpSplit, X: a, Y: b} }
func iSave(slot uint32) Inst     { return Inst{Op: OpSave, X: slot} }

func iBranch(lo, hi byte, d uint32) Inst {
	return Inst{Op: OpRangeBranch, Lo: lo, Hi: hi, X: d}
}

func TestPikeVM_Search(t *testing.T) {
	tests := []struct {
		name      string
		prog      []Inst
		input     string
		wantStart int
		wantEnd   int
		wantFound bool
	}{
		{
			name:      "match-only program empty input",
			prog:      []Inst{iMatch()},
			input:     "",
			wantStart: 0, wantEnd: 0, wantFound: true,
		},
		{
			name:      "match-only program nonempty input",
			prog:      []Inst{iMatch()},
			input:     "xyz",
			wantStart: 0, wantEnd: 0, wantFound: true,
		},
		{
			name:      "single char exact",
			prog:      []Inst{iSave(0), iRange('a', 'a'), iSave(1), iMatch()},
			input:     "a",
			wantStart: 0, wantEnd: 1, wantFound: true,
		},
		{
			name:      "consuming program empty input",
			prog:      []Inst{iSave(0), iRange('a', 'a'), iSave(1), iMatch()},
			input:     "",
			wantFound: false,
		},
		{
			name:      "dead thread only",
			prog:      []Inst{iDie(), iMatch()},
			input:     "aaa",
			wantFound: false,
		},
		{
			name: "star loop matches longest",
			prog: []Inst{
				iSave(0),
				iSplit(2, 4),
				iRange('a', 'a'),
				iJump(1),
				iSave(1),
				iMatch(),
			},
			input:     "aaa",
			wantStart: 0, wantEnd: 3, wantFound: true,
		},
		{
			name: "unanchored inner match",
			prog: []Inst{
				iSave(0),
				iRange('a', 'a'),
				iRange('b', 'b'),
				iSave(1),
				iMatch(),
			},
			input:     "xxabyy",
			wantStart: 2, wantEnd: 4, wantFound: true,
		},
		{
			name: "class star then literal",
			prog: []Inst{
				iSplit(1, 4),
				iRange('a', 'c'),
				iJump(0),
				iDie(),
				iSave(0),
				iRange('z', 'z'),
				iSave(1),
				iMatch(),
			},
			input:     "abcz",
			wantStart: 3, wantEnd: 4, wantFound: true,
		},
		{
			name: "class star then literal no hit",
			prog: []Inst{
				iSplit(1, 4),
				iRange('a', 'c'),
				iJump(0),
				iDie(),
				iSave(0),
				iRange('z', 'z'),
				iSave(1),
				iMatch(),
			},
			input:     "abcq",
			wantFound: false,
		},
		{
			name:      "inverted range consumes",
			prog:      []Inst{iSave(0), iInvRange('a', 'a'), iSave(1), iMatch()},
			input:     "bax",
			wantStart: 0, wantEnd: 1, wantFound: true,
		},
		{
			name:      "consume wildcard",
			prog:      []Inst{iConsume(), iConsume(), iMatch()},
			input:     "xy",
			wantStart: 0, wantEnd: 2, wantFound: true,
		},
		{
			name:      "consume needs input",
			prog:      []Inst{iConsume(), iMatch()},
			input:     "",
			wantFound: false,
		},
		{
			name: "range branch routes in-range",
			prog: []Inst{
				iBranch('a', 'z', 2),
				iDie(),
				iConsume(),
				iMatch(),
			},
			input:     "q",
			wantStart: 0, wantEnd: 1, wantFound: true,
		},
		{
			name: "range branch routes out-of-range",
			prog: []Inst{
				iBranch('a', 'z', 2),
				iDie(),
				iConsume(),
				iMatch(),
			},
			input:     "9",
			wantFound: false,
		},
		{
			name:      "epsilon cycle terminates",
			prog:      []Inst{iJump(0), iMatch()},
			input:     "ab",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewPikeVM(MustProgram(tt.prog))
			start, end, found := v.Search([]byte(tt.input))
			if found != tt.wantFound {
				t.Fatalf("Search(%q) found=%v, want %v", tt.input, found, tt.wantFound)
			}
			if found && (start != tt.wantStart || end != tt.wantEnd) {
				t.Errorf("Search(%q) = (%d, %d), want (%d, %d)",
					tt.input, start, end, tt.wantStart, tt.wantEnd)
			}
			if found != v.IsMatch([]byte(tt.input)) {
				t.Errorf("IsMatch(%q) disagrees with Search", tt.input)
			}
		})
	}
}

func TestPikeVM_Determinism(t *testing.T) {
	prog := MustProgram([]Inst{
		iSave(0),
		iSplit(2, 4),
		iRange('a', 'b'),
		iJump(1),
		iSave(1),
		iMatch(),
	})
	v := NewPikeVM(prog)
	input := []byte("xabbaxbab")

	s0, e0, ok0 := v.Search(input)
	for i := 0; i < 10; i++ {
		s, e, ok := v.Search(input)
		if s != s0 || e != e0 || ok != ok0 {
			t.Fatalf("run %d: Search = (%d, %d, %v), first run (%d, %d, %v)",
				i, s, e, ok, s0, e0, ok0)
		}
	}
}

func TestPikeVM_LongestWinsEarliestTie(t *testing.T) {
	// Any non-'a' byte matches, length 1: "bax" has length-1 candidates
	// at 0 and 2; the earliest-found one must win the tie.
	prog := MustProgram([]Inst{iSave(0), iInvRange('a', 'a'), iSave(1), iMatch()})
	v := NewPikeVM(prog)

	start, end, ok := v.Search([]byte("bax"))
	if !ok || start != 0 || end != 1 {
		t.Errorf("Search = (%d, %d, %v), want (0, 1, true)", start, end, ok)
	}
}

func TestPikeVM_PrefixDoesNotShortenMatch(t *testing.T) {
	// ab program: prepending unmatched bytes must shift, not shorten.
	prog := MustProgram([]Inst{
		iSave(0), iRange('a', 'a'), iRange('b', 'b'), iSave(1), iMatch(),
	})
	v := NewPikeVM(prog)

	s1, e1, ok1 := v.Search([]byte("ab"))
	s2, e2, ok2 := v.Search([]byte("zzzab"))
	if !ok1 || !ok2 {
		t.Fatal("both inputs should match")
	}
	if e1-s1 != e2-s2 {
		t.Errorf("match shrank: (%d,%d) vs (%d,%d)", s1, e1, s2, e2)
	}
	if s2 != 3 || e2 != 5 {
		t.Errorf("prefixed Search = (%d, %d), want (3, 5)", s2, e2)
	}
}

func TestPikeVM_SearchCaptures(t *testing.T) {
	// (a+)(b+) with explicit submatch slots 2..5.
	prog := MustProgram([]Inst{
		iSave(0),
		iSave(2),
		iRange('a', 'a'),
		iSplit(2, 4),
		iSave(3),
		iSave(4),
		iRange('b', 'b'),
		iSplit(6, 8),
		iSave(5),
		iSave(1),
		iMatch(),
	})
	v := NewPikeVM(prog)

	m := v.SearchCaptures([]byte("xaabby"))
	if m == nil {
		t.Fatal("expected a match")
	}
	if m.Start != 1 || m.End != 5 {
		t.Fatalf("match = (%d, %d), want (1, 5)", m.Start, m.End)
	}
	wantGroups := [][]int{{1, 5}, {1, 3}, {3, 5}}
	if len(m.Captures) != len(wantGroups) {
		t.Fatalf("got %d groups, want %d", len(m.Captures), len(wantGroups))
	}
	for i, want := range wantGroups {
		got := m.Captures[i]
		if got == nil || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("group %d = %v, want %v", i, got, want)
		}
	}
}

func TestPikeVM_SearchCapturesNoMatch(t *testing.T) {
	prog := MustProgram([]Inst{iSave(0), iRange('a', 'a'), iSave(1), iMatch()})
	if m := NewPikeVM(prog).SearchCaptures([]byte("zzz")); m != nil {
		t.Errorf("expected nil match, got %+v", m)
	}
}

func TestPikeVM_AdversarialLinearInput(t *testing.T) {
	// (a?){n}a{n} against a^n: exponential for a backtracker, one pass
	// here. The test would hang long before failing if dedup broke.
	const n = 24
	v := NewPikeVM(pathological(n))
	input := []byte(strings.Repeat("a", n))

	start, end, ok := v.Search(input)
	if !ok || start != 0 || end != n {
		t.Errorf("Search = (%d, %d, %v), want (0, %d, true)", start, end, ok, n)
	}
}

// pathological builds the (a?){n}a{n} program.
func pathological(n int) *Program {
	var insts []Inst
	for i := 0; i < n; i++ {
		pc := uint32(len(insts))
		insts = append(insts, iSplit(pc+1, pc+2), iRange('a', 'a'))
	}
	for i := 0; i < n; i++ {
		insts = append(insts, iRange('a', 'a'))
	}
	insts = append(insts, iMatch())
	return MustProgram(insts)
}
