// Package asm loads regular-expression bytecode for the VM, from either
// the textual assembly format or the packed binary format. Loading is
// where all validation happens: the VM assumes programs it receives are
// well-formed.
package asm

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/coregx/pikegrep/vm"
)

// ParseError reports a malformed line in a textual assembly file.
type ParseError struct {
	File string
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("error parsing regex from %s at line %d: %s", e.File, e.Line, e.Msg)
}

// Parse reads a textual assembly program. One instruction per line; blank
// lines and lines starting with '#' are skipped.
//
// Mnemonics:
//
//	Match
//	Save <slot>
//	Compare <min> <max>
//	InvCompare <min> <max>
//	OptCompare <min> <max> <pc>
//	Jump <pc>
//	Split <pc1> <pc2>
//
// Byte operands are single literal characters or %NNN decimal escapes
// (0-255). Compare %255 %255 is the conventional spelling of Die, and
// InvCompare %255 %255 of Consume (an impossible range and its inverse).
// The name is used only for error reporting.
func Parse(src []byte, name string) (*vm.Program, error) {
	var insts []vm.Inst

	lines := strings.Split(string(src), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		opcode := fields[0]
		rest := strings.Join(fields[1:], " ")

		var in vm.Inst
		var err error
		switch opcode {
		case "Match":
			in, err = parseMatch(rest)
		case "Save":
			in, err = parseSave(rest)
		case "Compare":
			in, err = parseCompare(rest, false)
		case "InvCompare":
			in, err = parseCompare(rest, true)
		case "OptCompare":
			in, err = parseOptCompare(rest)
		case "Jump":
			in, err = parseJump(rest)
		case "Split":
			in, err = parseSplit(rest)
		default:
			err = fmt.Errorf("unrecognized opcode %q", opcode)
		}
		if err != nil {
			return nil, &ParseError{File: name, Line: i + 1, Msg: err.Error()}
		}
		insts = append(insts, in)
	}

	prog, err := vm.NewProgram(insts)
	if err != nil {
		return nil, &ParseError{File: name, Line: len(lines), Msg: err.Error()}
	}
	return prog, nil
}

// ParseFile reads and parses a textual assembly file.
func ParseFile(path string) (*vm.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(src, path)
}

// parseByte reads a byte operand: either a single literal character or a
// %NNN decimal escape.
func parseByte(tok string) (byte, error) {
	if strings.HasPrefix(tok, "%") {
		n, err := strconv.ParseUint(tok[1:], 10, 16)
		if err != nil {
			return 0, fmt.Errorf("bad escaped byte %q: %v", tok, err)
		}
		if n > 255 {
			return 0, fmt.Errorf("escaped byte %d out of range", n)
		}
		return byte(n), nil
	}
	if len(tok) != 1 {
		return 0, fmt.Errorf("operand %q is not a single byte", tok)
	}
	return tok[0], nil
}

// parsePC reads a program-counter operand. Range checking against the
// final program happens in vm.NewProgram.
func parsePC(tok string) (uint32, error) {
	n, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad program counter %q: %v", tok, err)
	}
	return uint32(n), nil
}

func parseMatch(args string) (vm.Inst, error) {
	if args != "" {
		return vm.Inst{}, fmt.Errorf("Match expects 0 arguments, got %q", args)
	}
	return vm.Inst{Op: vm.OpMatch}, nil
}

func parseSave(args string) (vm.Inst, error) {
	slot, err := strconv.ParseUint(args, 10, 32)
	if err != nil {
		return vm.Inst{}, fmt.Errorf("bad save slot %q: %v", args, err)
	}
	return vm.Inst{Op: vm.OpSave, X: uint32(slot)}, nil
}

func parseCompare(args string, inverted bool) (vm.Inst, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return vm.Inst{}, fmt.Errorf("Compare expects 2 arguments, got %d: %q", len(fields), args)
	}

	// The impossible range %255 %255 inverted-or-not is the assembly
	// spelling of the Consume and Die terminals.
	if fields[0] == "%255" && fields[1] == "%255" {
		if inverted {
			return vm.Inst{Op: vm.OpConsume}, nil
		}
		return vm.Inst{Op: vm.OpDie}, nil
	}

	lo, err := parseByte(fields[0])
	if err != nil {
		return vm.Inst{}, err
	}
	hi, err := parseByte(fields[1])
	if err != nil {
		return vm.Inst{}, err
	}
	if hi < lo {
		return vm.Inst{}, fmt.Errorf("invalid range: %d is less than %d", hi, lo)
	}
	return vm.Inst{Op: vm.OpRange, Lo: lo, Hi: hi, Inverted: inverted}, nil
}

func parseOptCompare(args string) (vm.Inst, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return vm.Inst{}, fmt.Errorf("OptCompare expects 3 arguments, got %d: %q", len(fields), args)
	}
	lo, err := parseByte(fields[0])
	if err != nil {
		return vm.Inst{}, err
	}
	hi, err := parseByte(fields[1])
	if err != nil {
		return vm.Inst{}, err
	}
	if hi < lo {
		return vm.Inst{}, fmt.Errorf("invalid range: %d is less than %d", hi, lo)
	}
	dest, err := parsePC(fields[2])
	if err != nil {
		return vm.Inst{}, err
	}
	return vm.Inst{Op: vm.OpRangeBranch, Lo: lo, Hi: hi, X: dest}, nil
}

func parseJump(args string) (vm.Inst, error) {
	dest, err := parsePC(args)
	if err != nil {
		return vm.Inst{}, err
	}
	return vm.Inst{Op: vm.OpJump, X: dest}, nil
}

func parseSplit(args string) (vm.Inst, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return vm.Inst{}, fmt.Errorf("Split expects 2 arguments, got %d: %q", len(fields), args)
	}
	d1, err := parsePC(fields[0])
	if err != nil {
		return vm.Inst{}, err
	}
	d2, err := parsePC(fields[1])
	if err != nil {
		return vm.Inst{}, err
	}
	return vm.Inst{Op: vm.OpSplit, X: d1, Y: d2}, nil
}
