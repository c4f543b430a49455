// Package vm executes pre-compiled regular-expression bytecode on the
// Pike VM model: every feasible alternative of the program advances in
// lockstep through the input, one byte at a time, with concurrent threads
// de-duplicated by program counter. Worst-case work is O(len(program) *
// len(input)) with no backtracking.
package vm

import (
	"errors"
	"fmt"
	"strings"
)

// Common program errors.
var (
	// ErrEmptyProgram indicates a program with no instructions.
	ErrEmptyProgram = errors.New("empty program")

	// ErrNoTerminalMatch indicates a program that does not end with Match.
	ErrNoTerminalMatch = errors.New("program must end with a Match instruction")
)

// maxSaveSlot bounds capture slots so a malformed Save cannot force an
// absurd capture vector. Matches the 12-bit operand field of the packed
// binary encoding.
const maxSaveSlot = 1<<12 - 1

// ProgramError reports an invalid instruction found during program
// construction, identified by its program counter.
type ProgramError struct {
	PC  uint32
	Msg string
}

// Error implements the error interface.
func (e *ProgramError) Error() string {
	return fmt.Sprintf("invalid instruction at pc %d: %s", e.PC, e.Msg)
}

// Program is an immutable, validated instruction sequence. Programs are
// produced by a loader and shared read-only by any number of searches.
type Program struct {
	insts []Inst
	slots int
}

// NewProgram validates insts and wraps them into a Program. It enforces
// the contract the VM assumes: every destination PC in range, every save
// slot bounded, and a terminal Match in the final position.
func NewProgram(insts []Inst) (*Program, error) {
	if len(insts) == 0 {
		return nil, ErrEmptyProgram
	}

	n := uint32(len(insts))
	maxSlot := -1
	for pc, in := range insts {
		switch in.Op {
		case OpMatch, OpDie, OpConsume:
		case OpRange:
			if in.Hi < in.Lo {
				return nil, &ProgramError{PC: uint32(pc), Msg: fmt.Sprintf("range upper bound %d below lower bound %d", in.Hi, in.Lo)}
			}
		case OpRangeBranch:
			if in.Hi < in.Lo {
				return nil, &ProgramError{PC: uint32(pc), Msg: fmt.Sprintf("range upper bound %d below lower bound %d", in.Hi, in.Lo)}
			}
			if in.X >= n {
				return nil, &ProgramError{PC: uint32(pc), Msg: fmt.Sprintf("branch target %d out of range", in.X)}
			}
		case OpJump:
			if in.X >= n {
				return nil, &ProgramError{PC: uint32(pc), Msg: fmt.Sprintf("jump target %d out of range", in.X)}
			}
		case OpSplit:
			if in.X >= n || in.Y >= n {
				return nil, &ProgramError{PC: uint32(pc), Msg: fmt.Sprintf("split target out of range: %d, %d", in.X, in.Y)}
			}
		case OpSave:
			if in.X > maxSaveSlot {
				return nil, &ProgramError{PC: uint32(pc), Msg: fmt.Sprintf("save slot %d too large", in.X)}
			}
			if int(in.X) > maxSlot {
				maxSlot = int(in.X)
			}
		default:
			return nil, &ProgramError{PC: uint32(pc), Msg: fmt.Sprintf("unknown opcode %d", uint8(in.Op))}
		}
	}
	if insts[len(insts)-1].Op != OpMatch {
		return nil, ErrNoTerminalMatch
	}

	// Capture vectors always carry at least the overall-match pair, and
	// an even number of slots overall.
	slots := maxSlot + 1
	if slots%2 != 0 {
		slots++
	}
	if slots < 2 {
		slots = 2
	}

	p := &Program{insts: make([]Inst, len(insts)), slots: slots}
	copy(p.insts, insts)
	return p, nil
}

// MustProgram is like NewProgram but panics on invalid input.
// Intended for tests and hand-assembled programs.
func MustProgram(insts []Inst) *Program {
	p, err := NewProgram(insts)
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.insts)
}

// Inst returns the instruction at pc. The caller must ensure pc is in
// range; programs only ever hand out valid PCs.
func (p *Program) Inst(pc uint32) Inst {
	return p.insts[pc]
}

// Insts returns the instruction sequence. The returned slice must not be
// modified.
func (p *Program) Insts() []Inst {
	return p.insts
}

// Slots returns the capture vector length implied by the program's Save
// instructions: one start/end pair per submatch, never fewer than two.
func (p *Program) Slots() int {
	return p.slots
}

// String returns a disassembly listing, one instruction per line.
func (p *Program) String() string {
	var b strings.Builder
	for pc, in := range p.insts {
		fmt.Fprintf(&b, "%3d: %s\n", pc, in)
	}
	return b.String()
}
