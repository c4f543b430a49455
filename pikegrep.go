// Package pikegrep matches pre-compiled regular-expression bytecode
// against byte strings and files, grep-style.
//
// Programs are loaded from the textual assembly format or the packed
// binary format (see the asm package) and executed on a Pike VM: all
// feasible alternatives advance through the input in lockstep, so
// matching is worst-case linear in the input with no backtracking.
// Programs with extractable literal prefixes additionally get a
// prefilter that rejects non-matching lines without running the VM.
//
// Basic usage:
//
//	re, err := pikegrep.LoadFile("pattern.pvm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if re.Match([]byte("haystack")) {
//	    fmt.Println("hit")
//	}
package pikegrep

import (
	"os"
	"sync"

	"github.com/coregx/pikegrep/asm"
	"github.com/coregx/pikegrep/prefilter"
	"github.com/coregx/pikegrep/vm"
)

// Regex is a loaded bytecode program together with its prefilter.
//
// A Regex is safe for concurrent use: the program is immutable and each
// search borrows a VM from an internal pool.
type Regex struct {
	prog *vm.Program
	pf   prefilter.Prefilter
	vms  sync.Pool
}

// Load parses a program from src, auto-detecting the packed binary
// format by its magic and falling back to textual assembly. The name is
// used in parse errors.
func Load(src []byte, name string) (*Regex, error) {
	var prog *vm.Program
	var err error
	if asm.IsBinary(src) {
		prog, err = asm.Decode(src)
	} else {
		prog, err = asm.Parse(src, name)
	}
	if err != nil {
		return nil, err
	}
	return fromProgram(prog), nil
}

// LoadBinary loads a program from the packed binary format, without the
// format auto-detection Load performs.
func LoadBinary(data []byte) (*Regex, error) {
	prog, err := asm.Decode(data)
	if err != nil {
		return nil, err
	}
	return fromProgram(prog), nil
}

// LoadFile reads and loads a program file.
func LoadFile(path string) (*Regex, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(src, path)
}

// fromProgram wraps a validated program into a Regex.
func fromProgram(prog *vm.Program) *Regex {
	re := &Regex{
		prog: prog,
		pf:   prefilter.Build(prog),
	}
	re.vms.New = func() any {
		return vm.NewPikeVM(prog)
	}
	return re
}

// Match reports whether b contains a match.
func (re *Regex) Match(b []byte) bool {
	if re.pf != nil && re.pf.Find(b, 0) < 0 {
		return false
	}
	v := re.vms.Get().(*vm.PikeVM)
	defer re.vms.Put(v)
	return v.IsMatch(b)
}

// Find returns the span of the longest match in b. Among equally long
// matches the earliest-found wins.
func (re *Regex) Find(b []byte) (start, end int, ok bool) {
	if re.pf != nil && re.pf.Find(b, 0) < 0 {
		return -1, -1, false
	}
	v := re.vms.Get().(*vm.PikeVM)
	defer re.vms.Put(v)
	return v.Search(b)
}

// FindSubmatch returns the longest match with capture group spans, or
// nil when b does not match.
func (re *Regex) FindSubmatch(b []byte) *vm.Match {
	if re.pf != nil && re.pf.Find(b, 0) < 0 {
		return nil
	}
	v := re.vms.Get().(*vm.PikeVM)
	defer re.vms.Put(v)
	return v.SearchCaptures(b)
}

// NumSlots returns the program's capture vector length: one start/end
// pair per submatch, never fewer than two.
func (re *Regex) NumSlots() int {
	return re.prog.Slots()
}

// Program returns the underlying validated program.
func (re *Regex) Program() *vm.Program {
	return re.prog
}

// String returns the program's disassembly.
func (re *Regex) String() string {
	return re.prog.String()
}
