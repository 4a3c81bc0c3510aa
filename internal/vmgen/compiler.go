package vmgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/hoshi/internal/grammar"
)

// CompileScannerFromPatterns is the public front door for building a
// scanner program: it parses each token's regex, merges them into one DFA,
// and compiles that DFA to bytecode, so a caller outside this package never
// needs to name the unexported regexNFA/ScannerDFA intermediates directly.
func CompileScannerFromPatterns(tokens []string, patterns []string) (*Program, map[int]int, error) {
	if len(tokens) != len(patterns) {
		return nil, nil, fmt.Errorf("vmgen: %d tokens but %d patterns", len(tokens), len(patterns))
	}
	nfas := make([]*regexNFA, len(patterns))
	for i, p := range patterns {
		n, err := ParseRegex(p)
		if err != nil {
			return nil, nil, fmt.Errorf("vmgen: token %q: %w", tokens[i], err)
		}
		nfas[i] = n
	}
	dfa, err := BuildScannerDFA(tokens, nfas)
	if err != nil {
		return nil, nil, err
	}
	prog, entry := CompileScanner(dfa)
	return prog, entry, nil
}

// CompileScanner lowers a merged scanner DFA into bytecode (spec §4.G: a
// single ScanStart prologue followed by one ScanChar dispatch block per DFA
// state, with ScanAccept/ScanToken at accepting states). Returns the
// program along with a state->instruction-index table so the engine can
// set its initial PC per scanner-start.
func CompileScanner(dfa *ScannerDFA) (*Program, map[int]int) {
	// First pass: compute each state's instruction-block length so that
	// ScanChar's (lo, hi, target) triples can encode *instruction indices*
	// (what the engine actually dispatches on) rather than abstract DFA
	// state numbers — the two coincide only if every state's block is
	// exactly one instruction long, which isn't true once ScanAccept/
	// ScanToken/ScanError are added.
	blockLen := make([]int, dfa.NumStates)
	for state := 0; state < dfa.NumStates; state++ {
		n := 1 // ScanChar, always present
		_, accepting := dfa.AcceptToken[state]
		if accepting {
			n++
		}
		if len(dfa.Trans[state]) == 0 {
			n++ // ScanToken or ScanError
		}
		blockLen[state] = n
	}

	stateEntry := make([]int, dfa.NumStates)
	offset := 1 // instruction 0 is the single ScanStart prologue
	for state := 0; state < dfa.NumStates; state++ {
		stateEntry[state] = offset
		offset += blockLen[state]
	}

	prog := &Program{}
	prog.Append(OpScanStart, 0)

	for state := 0; state < dfa.NumStates; state++ {
		ranges := dfa.Trans[state]
		operands := make([]int32, 0, len(ranges)*3)
		for _, r := range ranges {
			operands = append(operands, int32(r.Lo), int32(r.Hi), int32(stateEntry[r.To]))
		}
		prog.Append(OpScanChar, 0, operands...)

		if tok, ok := dfa.AcceptToken[state]; ok {
			prog.Append(OpScanAccept, 0, int32(prog.InternString(tok)))
		}
		if len(ranges) == 0 {
			if _, ok := dfa.AcceptToken[state]; ok {
				prog.Append(OpScanToken, 0)
			} else {
				prog.Append(OpScanError, 0)
			}
		}
	}

	entryMap := make(map[int]int, dfa.NumStates)
	for state, idx := range stateEntry {
		entryMap[state] = idx
	}
	return prog, entryMap
}

// CompileRule compiles one rule's AST-former and guard-action bytecode
// (spec §4.G: "Guard actions and AST-formers are compiled rule-by-rule;
// rule_pc[rule] is the entry point executed on each reduce").
//
// AST-former mini-syntax (consumed from grammar.Rule.FormerSource, produced
// by internal/extract's default-former synthesis or given literally by the
// grammar author): `Kind(arg, arg, ...)` where each arg is `$N` (the Nth
// RHS child, 1-indexed), `$N.M` (the 0-indexed Mth child of that child,
// resolved by AstIndex), or a bare identifier, compiled as a literal string
// that AstNew turns into a kind-0 leaf whose Lexeme is that string. An empty FormerSource on a rule of size 1 means "pass the
// single child through unchanged"; size != 1 always has a synthesized
// former by the time this runs (spec §4.D).
//
// Guard-action mini-syntax (GuardSource): a single comparison
// `$N <op> $M` or `$N.M <op> literal`, where <op> is one of
// `== != < <= > >=`; compiles to an AstLoad/AstIndex pair per operand
// followed by the matching compare-branch opcode. This is a deliberately
// small subset of what a real guard-action language would support — no
// retrieved example implements one, so the shape here is inferred directly
// from spec §4.G's opcode list (the six compare-branches exist for exactly
// this).
func CompileRule(r *grammar.Rule) (*Program, error) {
	prog := &Program{}
	prog.Append(OpAstStart, r.SourceOffset)

	if err := compileFormer(prog, r); err != nil {
		return nil, fmt.Errorf("rule %d former: %w", r.Num, err)
	}
	if r.GuardSource != "" {
		if err := compileGuard(prog, r); err != nil {
			return nil, fmt.Errorf("rule %d guard: %w", r.Num, err)
		}
	}

	prog.Append(OpAstFinish, r.SourceOffset)
	return prog, nil
}

// CompileAnyRule dispatches to CompileListConsRule for a synthesized EBNF
// cons rule, or CompileRule otherwise, so callers that walk a grammar's full
// rule list don't need to know about the cons-rule special case themselves.
func CompileAnyRule(r *grammar.Rule) (*Program, error) {
	if r.IsListCons {
		return CompileListConsRule(r, r.LHS.Name)
	}
	return CompileRule(r)
}

// CompileListConsRule compiles the bytecode for an EBNF repetition's
// recursive "cons" rule (`LHS ::= elem LHS`, spec §4.A's `X*`/`X+`
// expansion): the produced node has kind, a single new child $1, and every
// child already accumulated on $2's list node spliced in after it, so
// repeated reduction builds one flat node instead of nesting a wrapper per
// repetition. Bypasses the textual `Kind($1,...)` AST-former mini-syntax
// entirely (compileFormer has no notion of splicing another node's
// children), since this bytecode is synthesized directly by the extractor,
// never written by hand in grammar source.
func CompileListConsRule(r *grammar.Rule, kind string) (*Program, error) {
	if len(r.RHS) != 2 {
		return nil, fmt.Errorf("list cons rule must have size 2, got %d", len(r.RHS))
	}
	prog := &Program{}
	prog.Append(OpAstStart, r.SourceOffset)
	prog.Append(OpAstLoad, r.SourceOffset, 1)
	prog.Append(OpAstNew, r.SourceOffset, int32(prog.InternString(kind)), 1)
	prog.Append(OpAstLoad, r.SourceOffset, 2)
	prog.Append(OpAstMergeChildren, r.SourceOffset)
	prog.Append(OpAstForm, r.SourceOffset)
	prog.Append(OpAstFinish, r.SourceOffset)
	return prog, nil
}

func compileFormer(prog *Program, r *grammar.Rule) error {
	src := strings.TrimSpace(r.FormerSource)
	if src == "" {
		if len(r.RHS) == 1 {
			prog.Append(OpAstLoad, r.SourceOffset, 1)
			return nil
		}
		return fmt.Errorf("rule of size %d has no AST-former", len(r.RHS))
	}

	open := strings.IndexByte(src, '(')
	if open < 0 || !strings.HasSuffix(src, ")") {
		return fmt.Errorf("malformed AST-former %q", src)
	}
	kind := strings.TrimSpace(src[:open])
	argsSrc := src[open+1 : len(src)-1]

	var args []string
	if strings.TrimSpace(argsSrc) != "" {
		args = strings.Split(argsSrc, ",")
	}

	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if err := compileFormerArg(prog, r, arg); err != nil {
			return err
		}
	}

	prog.Append(OpAstNew, r.SourceOffset, int32(prog.InternString(kind)), int32(len(args)))
	prog.Append(OpAstForm, r.SourceOffset)
	return nil
}

// compileFormerArg compiles one `$N` or `$N.M` former argument. The `.M`
// suffix is a 0-indexed sub-child selector (AstIndex), not a named field:
// internal/ast.Ast only tracks an ordered Children slice, with no field-name
// map, so a dotted reference descends into the Nth child's own Mth child.
func compileFormerArg(prog *Program, r *grammar.Rule, arg string) error {
	if !strings.HasPrefix(arg, "$") {
		// A bare identifier is a literal string constant, not a node
		// accessor, so it compiles to the "String" variant (the operand
		// already names the interned constant) rather than AstLexeme
		// (which pops a node and reads its own Lexeme).
		prog.Append(OpAstLexemeString, r.SourceOffset, int32(prog.InternString(arg)))
		return nil
	}
	rest := arg[1:]
	idxStr, fieldStr, hasField := strings.Cut(rest, ".")
	n, err := strconv.Atoi(idxStr)
	if err != nil {
		return fmt.Errorf("bad child reference %q", arg)
	}
	if n < 1 || n > len(r.RHS) {
		return fmt.Errorf("child reference $%d out of range for rule of size %d", n, len(r.RHS))
	}
	prog.Append(OpAstLoad, r.SourceOffset, int32(n))
	if hasField {
		field, err := strconv.Atoi(fieldStr)
		if err != nil {
			return fmt.Errorf("bad sub-child selector %q in %q", fieldStr, arg)
		}
		prog.Append(OpAstIndex, r.SourceOffset, int32(field))
	}
	return nil
}

var compareOps = map[string]Opcode{
	"==": OpBranchEq,
	"!=": OpBranchNe,
	"<":  OpBranchLt,
	"<=": OpBranchLe,
	">":  OpBranchGt,
	">=": OpBranchGe,
}

func compileGuard(prog *Program, r *grammar.Rule) error {
	src := strings.TrimSpace(r.GuardSource)
	for _, op := range []string{"==", "!=", "<=", ">=", "<", ">"} {
		code := compareOps[op]
		idx := strings.Index(src, op)
		if idx < 0 {
			continue
		}
		left := strings.TrimSpace(src[:idx])
		right := strings.TrimSpace(src[idx+len(op):])
		if err := compileOperand(prog, r, left); err != nil {
			return err
		}
		if err := compileOperand(prog, r, right); err != nil {
			return err
		}
		prog.Append(code, r.SourceOffset)
		return nil
	}
	return fmt.Errorf("guard %q has no recognized comparison operator", src)
}

func compileOperand(prog *Program, r *grammar.Rule, operand string) error {
	if strings.HasPrefix(operand, "$") {
		return compileFormerArg(prog, r, operand)
	}
	n, err := strconv.Atoi(operand)
	if err != nil {
		return fmt.Errorf("unsupported guard operand %q", operand)
	}
	prog.Append(OpAssign, r.SourceOffset, int32(n))
	return nil
}
