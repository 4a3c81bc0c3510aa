// Package generate implements spec §4's generation pipeline end to end:
// first sets, the LALR(1) automaton, conflict/lookahead resolution, error
// recovery, symbol renumbering, sparse action-table packing, and bytecode
// compilation/assembly, producing a frozen pdata.ParserData from a
// normalized grammar.Grammar. It is the missing link between
// internal/extract's output and internal/engine's input, grounded directly
// on the pipeline order automaton_test.go's own tests already exercise
// stage-by-stage (ComputeFirstSets -> BuildLALR1 -> BuildActions ->
// ExtendLookaheads -> BuildErrorRecovery -> table.RenumberSymbols ->
// table.Build).
package generate

import (
	"fmt"
	"io"

	"github.com/dekarrin/hoshi/internal/automaton"
	"github.com/dekarrin/hoshi/internal/config"
	"github.com/dekarrin/hoshi/internal/diag"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/pdata"
	"github.com/dekarrin/hoshi/internal/rtlog"
	"github.com/dekarrin/hoshi/internal/table"
	"github.com/dekarrin/hoshi/internal/vmgen"
)

// FromGrammar runs the full generation pipeline over g and returns a ready-
// to-parse ParserData. kinds may be nil, in which case a fresh KindMap is
// created (every AST-kind name and terminal gets an auto-assigned id). The
// returned diag.Bag carries every diagnostic recorded along the way
// (conflicts, word overflow, recovery advisories); a non-nil error means
// generation could not produce a usable artifact at all (the bag's
// HasErrors() should always be checked even on a nil error, since a
// recorded-but-non-fatal issue like an unresolved LALR conflict still
// leaves a (possibly imprecise) table behind, per spec §4.E E.6).
//
// When flags.Has(config.DebugLALRDump) is set, the resolved automaton and
// the final packed action table are each rendered as a rosed table (spec
// §7's `lalr-dump` trace facility) and written to trace before returning.
func FromGrammar(g *grammar.Grammar, opts config.GrammarOptions, genOpts config.GeneratorOptions, kinds *grammar.KindMap, flags config.DebugFlags, trace io.Writer) (*pdata.ParserData, *diag.Bag, error) {
	bag := &diag.Bag{}
	g.StripEpsilonRHS()

	fs := automaton.ComputeFirstSets(g)

	aut, err := automaton.BuildLALR1(g, fs)
	if err != nil {
		return nil, bag, fmt.Errorf("generate: building LALR(1) automaton: %w", err)
	}
	automaton.BuildActions(aut, g)

	// The grammar declares how many lookaheads it wants (opts.Lookaheads);
	// the generator config caps how far E.6 extension may recurse in
	// pursuit of that before giving up (genOpts.MaxLookaheads).
	maxLookaheads := opts.Lookaheads
	if genOpts.MaxLookaheads > 0 && maxLookaheads > genOpts.MaxLookaheads {
		maxLookaheads = genOpts.MaxLookaheads
	}
	if err := automaton.ExtendLookaheads(aut, g, fs, maxLookaheads, opts.Conflicts, bag); err != nil {
		return nil, bag, fmt.Errorf("generate: resolving conflicts: %w", err)
	}

	if opts.ErrorRecovery {
		automaton.BuildErrorRecovery(aut, g)
	} else {
		aut.RestartState = -1
	}

	symbols := table.RenumberSymbols(g, aut)
	tbl, err := table.Build(g, aut, symbols)
	if err != nil {
		return nil, bag, fmt.Errorf("generate: packing action table: %w", err)
	}

	if logger := rtlog.New(trace, "[lalr-dump] ", flags.Has(config.DebugLALRDump)); logger.Enabled() {
		logger.Tracef("resolved automaton:\n%s", automaton.Dump(g, aut))
		logger.Tracef("packed action table:\n%s", tbl.Dump(symbols))
	}

	vm, entryPCs, scannerEntry, err := assembleBytecode(g)
	if err != nil {
		return nil, bag, fmt.Errorf("generate: compiling bytecode: %w", err)
	}
	vm.ScannerEntry = scannerEntry

	if kinds == nil {
		kinds = grammar.NewKindMap()
	}
	tokens := buildTokenTable(g, kinds)
	rules := buildRuleTable(g, entryPCs)
	symbolInfos := make([]pdata.SymbolInfo, len(symbols))
	for i, s := range symbols {
		symbolInfos[i] = pdata.SymbolInfo{Name: s.Name, Num: s.Num, IsTerminal: s.IsTerminal}
	}

	pd := pdata.New(tokens, rules, pdata.FromTable(tbl), vm).
		WithSymbols(symbolInfos).
		WithKinds(kinds)

	return pd, bag, nil
}

func buildTokenTable(g *grammar.Grammar, kinds *grammar.KindMap) []pdata.TokenInfo {
	terms := g.Terminals()
	out := make([]pdata.TokenInfo, len(terms))
	for i, s := range terms {
		out[i] = pdata.TokenInfo{
			Name:         s.Name,
			IsTerminal:   true,
			Kind:         kinds.IDFor(s.Name),
			LexemeNeeded: s.LexemeNeeded,
		}
	}
	return out
}

func buildRuleTable(g *grammar.Grammar, entryPCs []int) []pdata.RuleInfo {
	rules := g.Rules()
	out := make([]pdata.RuleInfo, len(rules))
	for i, r := range rules {
		out[i] = pdata.RuleInfo{
			Size:    r.Size(),
			LHS:     r.LHS.Name,
			LHSNum:  r.LHS.Num,
			Text:    r.String(),
			EntryPC: entryPCs[i],
		}
	}
	return out
}

// assembler concatenates one or more vmgen.Programs into a single flat
// pdata.VMTables, rebasing each program's operand offsets and deduplicating
// every program's private string pool into one shared pool (Program's own
// doc comment: "Multiple Programs are concatenated into one flat
// instruction/operand array when frozen into pdata.ParserData" — this is
// that concatenation step).
type assembler struct {
	vm          pdata.VMTables
	stringIndex map[string]int32
}

func newAssembler() *assembler {
	return &assembler{stringIndex: map[string]int32{}}
}

func (a *assembler) internString(s string) int32 {
	if idx, ok := a.stringIndex[s]; ok {
		return idx
	}
	idx := int32(len(a.vm.Strings))
	a.vm.Strings = append(a.vm.Strings, s)
	a.stringIndex[s] = idx
	return idx
}

// append appends prog onto the merged tables and returns the absolute
// instruction index prog now starts at. Two kinds of operand values need
// rewriting on the way in: the string-pool index carried by
// AstNew/AstLexemeString/ScanAccept (remapped through the shared pool), and
// the in-program instruction-index targets carried by ScanChar's (lo, hi,
// target) triples (rebased by this program's own instruction-index base,
// since CompileScanner computes them relative to its own program start).
func (a *assembler) append(prog *vmgen.Program) int {
	instrBase := len(a.vm.Instructions)
	operandBase := len(a.vm.Operands)

	remap := make([]int32, len(prog.Strings))
	for i, s := range prog.Strings {
		remap[i] = a.internString(s)
	}

	operands := append([]int32(nil), prog.Operands...)
	for _, instr := range prog.Instructions {
		switch instr.Op {
		case vmgen.OpAstNew, vmgen.OpAstLexemeString, vmgen.OpScanAccept:
			idx := operands[instr.OperandOff]
			operands[instr.OperandOff] = remap[idx]
		case vmgen.OpScanChar:
			for i := instr.OperandOff + 2; i < instr.OperandOff+instr.NumOperand; i += 3 {
				operands[i] += int32(instrBase)
			}
		}
	}
	a.vm.Operands = append(a.vm.Operands, operands...)

	for _, instr := range prog.Instructions {
		a.vm.Instructions = append(a.vm.Instructions, vmgen.Instruction{
			Op:         instr.Op,
			SourceLine: instr.SourceLine,
			OperandOff: instr.OperandOff + operandBase,
			NumOperand: instr.NumOperand,
		})
	}
	return instrBase
}

// assembleBytecode compiles the scanner DFA (over every IsScanned terminal)
// and every rule's AST-former/guard program, then merges them into one
// pdata.VMTables. The scanner program is appended first so its ScanChar
// target rebasing lines up with entryPCs[0]'s own instruction 0.
func assembleBytecode(g *grammar.Grammar) (pdata.VMTables, []int, int, error) {
	var names, patterns []string
	for _, s := range g.Terminals() {
		if !s.IsScanned {
			continue
		}
		names = append(names, s.Name)
		patterns = append(patterns, s.RegexSource)
	}

	scannerProg, _, err := vmgen.CompileScannerFromPatterns(names, patterns)
	if err != nil {
		return pdata.VMTables{}, nil, 0, err
	}

	asm := newAssembler()
	scannerEntry := asm.append(scannerProg)

	rules := g.Rules()
	entryPCs := make([]int, len(rules))
	for i, r := range rules {
		prog, err := vmgen.CompileAnyRule(r)
		if err != nil {
			return pdata.VMTables{}, nil, 0, fmt.Errorf("rule %d (%s): %w", r.Num, r.String(), err)
		}
		entryPCs[i] = asm.append(prog)
	}

	return asm.vm, entryPCs, scannerEntry, nil
}
