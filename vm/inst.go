package vm

import "fmt"

// Op identifies the kind of a bytecode instruction and determines which
// operand fields are meaningful.
type Op uint8

const (
	// OpMatch is the accepting terminal: the thread has found a match
	// ending at the current input position.
	OpMatch Op = iota

	// OpDie is the failing terminal: the thread is discarded silently.
	OpDie

	// OpConsume advances one input byte unconditionally.
	OpConsume

	// OpRange advances one input byte iff it lies inside [Lo, Hi]
	// (outside, when Inverted).
	OpRange

	// OpRangeBranch routes control without consuming input: to X when
	// the current byte lies inside [Lo, Hi], to pc+1 otherwise.
	OpRangeBranch

	// OpJump transfers control to X without consuming input.
	OpJump

	// OpSplit forks the thread to both X and Y without consuming input.
	// X has queue priority.
	OpSplit

	// OpSave records the current input index into capture slot X
	// without consuming input.
	OpSave
)

// String returns the opcode mnemonic.
func (op Op) String() string {
	switch op {
	case OpMatch:
		return "Match"
	case OpDie:
		return "Die"
	case OpConsume:
		return "Consume"
	case OpRange:
		return "Range"
	case OpRangeBranch:
		return "RangeBranch"
	case OpJump:
		return "Jump"
	case OpSplit:
		return "Split"
	case OpSave:
		return "Save"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(op))
	}
}

// Inst is a single decoded bytecode instruction.
//
// Operand usage by opcode:
//
//	OpRange       Lo, Hi, Inverted
//	OpRangeBranch Lo, Hi, X (branch target)
//	OpJump        X (target)
//	OpSplit       X, Y (targets; X has priority)
//	OpSave        X (capture slot)
type Inst struct {
	Op       Op
	Lo, Hi   byte
	Inverted bool
	X, Y     uint32
}

// Matches reports whether b satisfies the instruction's byte test.
// Only meaningful for OpRange and OpRangeBranch.
func (i Inst) Matches(b byte) bool {
	in := b >= i.Lo && b <= i.Hi
	if i.Op == OpRange {
		return in != i.Inverted
	}
	return in
}

// String returns a human-readable rendering of the instruction.
func (i Inst) String() string {
	switch i.Op {
	case OpRange:
		if i.Inverted {
			return fmt.Sprintf("Range [^%q-%q]", i.Lo, i.Hi)
		}
		return fmt.Sprintf("Range [%q-%q]", i.Lo, i.Hi)
	case OpRangeBranch:
		return fmt.Sprintf("RangeBranch [%q-%q] -> %d", i.Lo, i.Hi, i.X)
	case OpJump:
		return fmt.Sprintf("Jump -> %d", i.X)
	case OpSplit:
		return fmt.Sprintf("Split -> [%d, %d]", i.X, i.Y)
	case OpSave:
		return fmt.Sprintf("Save %d", i.X)
	default:
		return i.Op.String()
	}
}
