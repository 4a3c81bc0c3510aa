package engine

import (
	"fmt"

	"github.com/dekarrin/hoshi/internal/source"
	"github.com/dekarrin/hoshi/internal/vmgen"
)

// Scanner walks the merged-DFA bytecode (compiled by vmgen.CompileScanner)
// against a source.Buffer, one token at a time (spec §4.G scanner opcode
// family; spec §4.I step 1, "the engine calls the scanner to refill its
// lookahead ring buffer").
type Scanner struct {
	buf      *source.Buffer
	instrs   []vmgen.Instruction
	operands []int32
	strings  []string
	entry    int // instruction index of the scanner's ScanStart
	pos      int // next unread rune index
}

// NewScanner builds a Scanner over buf using the given compiled program.
// entry is the instruction index of the program's OpScanStart (pdata's
// VMTables.ScannerEntry).
func NewScanner(buf *source.Buffer, instrs []vmgen.Instruction, operands []int32, strings []string, entry int) *Scanner {
	return &Scanner{buf: buf, instrs: instrs, operands: operands, strings: strings, entry: entry}
}

// ErrScanFailed reports that no token could be matched starting at Offset.
type ErrScanFailed struct {
	Offset int
	Pos    source.Position
}

func (e *ErrScanFailed) Error() string {
	return fmt.Sprintf("%d:%d: no token matches input", e.Pos.Line, e.Pos.Column)
}

// AtEOF reports whether the scanner has consumed the entire buffer.
func (s *Scanner) AtEOF() bool {
	return s.pos >= s.buf.Len()
}

// Next runs the scanner DFA from its start state, following ScanChar
// transitions rune by rune (maximal munch). Before attempting each state's
// transition, Next checks whether that state is itself accepting (a
// ScanAccept immediately follows its ScanChar in the compiled program) and
// records it as the current fallback; when no further transition fires, the
// most recently recorded fallback wins, so the DFA always resolves to the
// longest prefix that matches some token.
func (s *Scanner) Next() (Token, error) {
	start := s.pos
	pc := s.entry
	if pc < len(s.instrs) && s.instrs[pc].Op == vmgen.OpScanStart {
		pc++
	}

	cur := s.pos
	lastAcceptPC := -1
	lastAcceptAt := -1

	for {
		if pc >= len(s.instrs) || s.instrs[pc].Op != vmgen.OpScanChar {
			return Token{}, fmt.Errorf("scanner: expected scan_char at pc %d", pc)
		}
		instr := s.instrs[pc]

		if pc+1 < len(s.instrs) && s.instrs[pc+1].Op == vmgen.OpScanAccept {
			lastAcceptPC = pc + 1
			lastAcceptAt = cur
		}

		r := s.buf.At(cur)
		if to, matched := s.matchRune(instr, r); matched {
			cur++
			pc = to
			continue
		}

		if lastAcceptPC >= 0 {
			return s.emit(start, lastAcceptAt, lastAcceptPC)
		}
		return Token{}, &ErrScanFailed{Offset: start, Pos: s.buf.Position(start)}
	}
}

// matchRune scans a ScanChar instruction's (lo, hi, target) operand triples
// for one that contains r, returning the target instruction index.
func (s *Scanner) matchRune(instr vmgen.Instruction, r rune) (int, bool) {
	if r == source.EOFRune {
		return 0, false
	}
	ops := s.operands[instr.OperandOff : instr.OperandOff+instr.NumOperand]
	for i := 0; i+2 < len(ops); i += 3 {
		lo, hi, to := ops[i], ops[i+1], ops[i+2]
		if rune(lo) <= r && r <= rune(hi) {
			return int(to), true
		}
	}
	return 0, false
}

// emit resolves the accepting ScanAccept instruction at acceptPC and returns
// the matched token, rewinding s.pos to acceptAt (maximal-munch backoff to
// the longest prefix actually accepted).
func (s *Scanner) emit(start, acceptAt, acceptPC int) (Token, error) {
	instr := s.instrs[acceptPC]
	ops := s.operands[instr.OperandOff : instr.OperandOff+instr.NumOperand]
	name := ""
	if len(ops) > 0 {
		idx := int(ops[0])
		if idx >= 0 && idx < len(s.strings) {
			name = s.strings[idx]
		}
	}
	s.pos = acceptAt
	return Token{
		Symbol: name,
		Lexeme: s.buf.Slice(start, acceptAt),
		Offset: start,
		Pos:    s.buf.Position(start),
	}, nil
}
