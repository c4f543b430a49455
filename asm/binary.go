package asm

import (
	"encoding/binary"
	"fmt"

	"github.com/coregx/pikegrep/vm"
)

// Packed binary format: a 4-byte magic, a uint32 LE instruction count,
// then one 32-bit LE word per instruction.
//
// Word layout (bit 31 is the most significant):
//
//	31..29  opcode (vm.Op numbering)
//	28..21  range lower byte         (Range, RangeBranch)
//	20..13  range upper byte         (Range, RangeBranch)
//	12      inverted flag            (Range)
//	23..12  first split destination  (Split)
//	11..0   destination / slot       (RangeBranch, Jump, Split, Save)
//
// The 12-bit destination fields cap encodable programs at 4096
// instructions.
const (
	binaryMagic = "PVM1"

	opShift   = 29
	loShift   = 21
	hiShift   = 13
	invBit    = 1 << 12
	splitXLow = 12

	destMask = 1<<12 - 1
	byteMask = 0xFF

	// MaxBinaryProgram is the longest program the packed encoding can
	// address.
	MaxBinaryProgram = 1 << 12
)

// FormatError reports malformed packed binary input at a byte offset.
type FormatError struct {
	Offset int
	Msg    string
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("bad binary program at offset %d: %s", e.Offset, e.Msg)
}

// IsBinary reports whether data starts with the packed format's magic.
func IsBinary(data []byte) bool {
	return len(data) >= len(binaryMagic) && string(data[:len(binaryMagic)]) == binaryMagic
}

// Encode packs a program into the binary format. Fails if the program is
// too long for the 12-bit destination fields.
func Encode(p *vm.Program) ([]byte, error) {
	if p.Len() > MaxBinaryProgram {
		return nil, fmt.Errorf("program of %d instructions exceeds binary limit %d", p.Len(), MaxBinaryProgram)
	}

	out := make([]byte, 0, len(binaryMagic)+4+4*p.Len())
	out = append(out, binaryMagic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(p.Len()))

	for pc, in := range p.Insts() {
		word := uint32(in.Op) << opShift
		switch in.Op {
		case vm.OpRange:
			word |= uint32(in.Lo)<<loShift | uint32(in.Hi)<<hiShift
			if in.Inverted {
				word |= invBit
			}
		case vm.OpRangeBranch:
			if in.X > destMask {
				return nil, fmt.Errorf("pc %d: branch target %d exceeds 12-bit field", pc, in.X)
			}
			word |= uint32(in.Lo)<<loShift | uint32(in.Hi)<<hiShift | in.X
		case vm.OpJump, vm.OpSave:
			if in.X > destMask {
				return nil, fmt.Errorf("pc %d: operand %d exceeds 12-bit field", pc, in.X)
			}
			word |= in.X
		case vm.OpSplit:
			if in.X > destMask || in.Y > destMask {
				return nil, fmt.Errorf("pc %d: split targets %d, %d exceed 12-bit field", pc, in.X, in.Y)
			}
			word |= in.X<<splitXLow | in.Y
		}
		out = binary.LittleEndian.AppendUint32(out, word)
	}
	return out, nil
}

// Decode unpacks a binary program and validates it the same way the
// textual loader does.
func Decode(data []byte) (*vm.Program, error) {
	if !IsBinary(data) {
		return nil, &FormatError{Offset: 0, Msg: "missing PVM1 magic"}
	}
	body := data[len(binaryMagic):]
	if len(body) < 4 {
		return nil, &FormatError{Offset: len(binaryMagic), Msg: "truncated instruction count"}
	}
	count := binary.LittleEndian.Uint32(body)
	body = body[4:]
	if count > MaxBinaryProgram {
		return nil, &FormatError{Offset: len(binaryMagic), Msg: fmt.Sprintf("instruction count %d exceeds limit %d", count, MaxBinaryProgram)}
	}
	if uint32(len(body)) != 4*count {
		return nil, &FormatError{
			Offset: len(binaryMagic) + 4,
			Msg:    fmt.Sprintf("expected %d instruction bytes, have %d", 4*count, len(body)),
		}
	}

	insts := make([]vm.Inst, 0, count)
	for i := uint32(0); i < count; i++ {
		word := binary.LittleEndian.Uint32(body[4*i:])
		insts = append(insts, decodeWord(word))
	}

	prog, err := vm.NewProgram(insts)
	if err != nil {
		return nil, &FormatError{Offset: len(binaryMagic) + 4, Msg: err.Error()}
	}
	return prog, nil
}

func decodeWord(word uint32) vm.Inst {
	op := vm.Op(word >> opShift)
	in := vm.Inst{Op: op}
	switch op {
	case vm.OpRange:
		in.Lo = byte(word >> loShift & byteMask)
		in.Hi = byte(word >> hiShift & byteMask)
		in.Inverted = word&invBit != 0
	case vm.OpRangeBranch:
		in.Lo = byte(word >> loShift & byteMask)
		in.Hi = byte(word >> hiShift & byteMask)
		in.X = word & destMask
	case vm.OpJump, vm.OpSave:
		in.X = word & destMask
	case vm.OpSplit:
		in.X = word >> splitXLow & destMask
		in.Y = word & destMask
	}
	return in
}
