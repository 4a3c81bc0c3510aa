// Package vmgen lowers regexes, AST-former expressions and guard actions
// into the bytecode spec §4.G describes: a flat instruction list over a
// contiguous operand array. Opcodes have a name table for String and
// OpcodeByName; serialized bytecode stores each opcode as its integer value.
package vmgen

// Opcode enumerates every bytecode instruction (spec §4.G "Opcode families").
type Opcode int

const (
	OpNull Opcode = iota

	// Control
	OpHalt
	OpLabel
	OpCall
	OpReturn
	OpBranch
	OpBranchEq
	OpBranchNe
	OpBranchLt
	OpBranchLe
	OpBranchGt
	OpBranchGe

	// Scanner
	OpScanStart
	OpScanChar
	OpScanAccept
	OpScanToken
	OpScanError

	// AST build
	OpAstStart
	OpAstFinish
	OpAstNew
	OpAstForm
	OpAstLoad
	OpAstIndex
	OpAstChild
	OpAstChildSlice
	OpAstKind
	OpAstKindNum
	OpAstLocation
	OpAstLocationNum
	OpAstLexeme
	OpAstLexemeString
	OpAstMergeChildren

	// Arithmetic/compare
	OpAssign
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpNeg

	// Debug
	OpDumpStack
)

// opcodeNames maps each Opcode to its name, for String and OpcodeByName.
// The wire format (internal/pdata) does not use it: it stores each
// Instruction's Opcode as its integer value, so reordering this const
// block changes the meaning of previously encoded artifacts.
var opcodeNames = map[Opcode]string{
	OpNull:             "null",
	OpHalt:              "halt",
	OpLabel:             "label",
	OpCall:               "call",
	OpReturn:            "return",
	OpBranch:            "branch",
	OpBranchEq:          "branch_eq",
	OpBranchNe:          "branch_ne",
	OpBranchLt:          "branch_lt",
	OpBranchLe:          "branch_le",
	OpBranchGt:          "branch_gt",
	OpBranchGe:          "branch_ge",
	OpScanStart:         "scan_start",
	OpScanChar:          "scan_char",
	OpScanAccept:        "scan_accept",
	OpScanToken:         "scan_token",
	OpScanError:         "scan_error",
	OpAstStart:          "ast_start",
	OpAstFinish:         "ast_finish",
	OpAstNew:            "ast_new",
	OpAstForm:           "ast_form",
	OpAstLoad:           "ast_load",
	OpAstIndex:          "ast_index",
	OpAstChild:          "ast_child",
	OpAstChildSlice:     "ast_child_slice",
	OpAstKind:           "ast_kind",
	OpAstKindNum:        "ast_kind_num",
	OpAstLocation:       "ast_location",
	OpAstLocationNum:    "ast_location_num",
	OpAstLexeme:         "ast_lexeme",
	OpAstLexemeString:   "ast_lexeme_string",
	OpAstMergeChildren:  "ast_merge_children",
	OpAssign:            "assign",
	OpAdd:               "add",
	OpSub:               "sub",
	OpMul:               "mul",
	OpDiv:               "div",
	OpNeg:               "neg",
	OpDumpStack:         "dump_stack",
}

var namesToOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// String returns the opcode's portable name.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "unknown"
}

// OpcodeByName resolves a portable name back to an Opcode, for decoding a
// serialized ParserData artifact (spec §4.G, pdata.ParserData).
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := namesToOpcode[name]
	return op, ok
}

// Instruction is one fixed-size bytecode instruction (spec §4.G: "handler,
// source-location, operand-offset").
type Instruction struct {
	Op         Opcode
	SourceLine int // for DumpStack / runtime error attribution
	OperandOff int // index into the owning Program's Operands array
	NumOperand int // number of contiguous operands beginning at OperandOff
}

// Program is a complete compiled bytecode unit: one scanner DFA's
// ScanChar/ScanAccept instructions, or one rule's AST-former/guard-action
// instructions, depending on which compiler produced it. Multiple Programs
// are concatenated into one flat instruction/operand array when frozen into
// pdata.ParserData.
type Program struct {
	Instructions []Instruction
	Operands     []int32
	Strings      []string // string constant pool, indexed by AstLexemeString etc.
}

// Append adds an instruction with its operands to p, returning the
// instruction's index (used as a branch/call target).
func (p *Program) Append(op Opcode, line int, operands ...int32) int {
	off := len(p.Operands)
	p.Operands = append(p.Operands, operands...)
	idx := len(p.Instructions)
	p.Instructions = append(p.Instructions, Instruction{
		Op:         op,
		SourceLine: line,
		OperandOff: off,
		NumOperand: len(operands),
	})
	return idx
}

// InternString adds s to the program's string pool (deduplicated) and
// returns its index.
func (p *Program) InternString(s string) int32 {
	for i, existing := range p.Strings {
		if existing == s {
			return int32(i)
		}
	}
	p.Strings = append(p.Strings, s)
	return int32(len(p.Strings) - 1)
}
