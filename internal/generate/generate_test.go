package generate

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/hoshi/internal/ast"
	"github.com/dekarrin/hoshi/internal/config"
	"github.com/dekarrin/hoshi/internal/engine"
	"github.com/dekarrin/hoshi/internal/extract"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/meta"
	"github.com/dekarrin/hoshi/internal/source"
	"github.com/dekarrin/hoshi/internal/vmgen"
)

// buildRightRecursiveGrammar builds the right-recursive seed grammar by
// hand, the same way automaton_test.go's buildExprGrammar does, so the
// pipeline can be unit-tested without going through the front end:
//
//	*accept* ::= S
//	S        ::= 'a' S : S($1, $2)
//	           | 'a'
func buildRightRecursiveGrammar() *grammar.Grammar {
	g := grammar.New()

	s, _ := g.InternSymbol("S")
	s.IsNonterminal = true
	a, _ := g.InternSymbol("a")
	a.IsTerminal = true
	a.IsScanned = true
	a.RegexSource = "a"

	g.SetStartSymbol(s)
	g.AddRule(g.AcceptSymbol(), []*grammar.Symbol{s})

	r1 := g.AddRule(s, []*grammar.Symbol{a, s})
	r1.FormerSource = "S($1, $2)"

	g.AddRule(s, []*grammar.Symbol{a})

	return g
}

func countLeaves(n *ast.Ast) int {
	if len(n.Children) == 0 {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += countLeaves(c)
	}
	return total
}

func Test_FromGrammar_ProducesRunnableParserData(t *testing.T) {
	assert := assert.New(t)
	g := buildRightRecursiveGrammar()

	pd, bag, err := FromGrammar(g, config.DefaultGrammarOptions(), config.DefaultGeneratorOptions(), nil, 0, io.Discard)
	assert.NoError(err)
	assert.False(bag.HasErrors())
	assert.NotNil(pd)

	// Every rule has a distinct, in-range entry pc into the merged program.
	seen := map[int]bool{}
	for _, r := range pd.Rules {
		assert.GreaterOrEqual(r.EntryPC, 0)
		assert.Less(r.EntryPC, len(pd.VM.Instructions))
		assert.False(seen[r.EntryPC], "duplicate EntryPC %d", r.EntryPC)
		seen[r.EntryPC] = true
	}

	// The scanner program is appended to the assembler first, so its
	// entry instruction sits at index 0.
	assert.Equal(0, pd.VM.ScannerEntry)

	buf, err := source.New("aaa")
	assert.NoError(err)

	eng := engine.New(pd, buf)
	tree, perr := eng.Parse()
	assert.NoError(perr)
	assert.NotNil(tree)
	assert.Equal(3, countLeaves(tree))
}

// Test_assembler_RebasesAcrossPrograms exercises the merge logic directly
// against two independently compiled scanner programs, confirming a second
// program's ScanChar targets land on the right absolute instruction once
// appended after the first, and that a string constant shared by two
// programs collapses to one pool slot.
func Test_assembler_RebasesAcrossPrograms(t *testing.T) {
	assert := assert.New(t)

	progA, _, err := vmgen.CompileScannerFromPatterns([]string{"x"}, []string{"x"})
	assert.NoError(err)
	progB, _, err := vmgen.CompileScannerFromPatterns([]string{"x"}, []string{"x"})
	assert.NoError(err)

	asm := newAssembler()
	baseA := asm.append(progA)
	assert.Equal(0, baseA)
	baseB := asm.append(progB)
	assert.Equal(len(progA.Instructions), baseB)
	assert.Equal(len(progA.Instructions)+len(progB.Instructions), len(asm.vm.Instructions))

	// Both programs intern the same token name "x"; the shared pool should
	// dedup it to a single slot rather than carrying two copies.
	count := 0
	for _, s := range asm.vm.Strings {
		if s == "x" {
			count++
		}
	}
	assert.Equal(1, count)

	// progB's ScanChar target operands must point at or beyond baseB, not
	// progB's own original range starting at 0.
	for _, instr := range asm.vm.Instructions[baseB:] {
		if instr.Op != vmgen.OpScanChar {
			continue
		}
		for i := instr.OperandOff + 2; i < instr.OperandOff+instr.NumOperand; i += 3 {
			assert.GreaterOrEqual(int(asm.vm.Operands[i]), baseB)
		}
	}
}

func Test_FromGrammar_ReportsAmbiguousGrammarWithoutCrashing(t *testing.T) {
	assert := assert.New(t)
	// Two identical-shaped alternatives for S force a genuine reduce/reduce
	// conflict that single-level E.6 lookahead extension cannot resolve;
	// generation must still complete and hand back a (possibly imprecise)
	// table plus a recorded diagnostic, per automaton.ExtendLookaheads's own
	// contract, rather than erroring out.
	g := grammar.New()
	s, _ := g.InternSymbol("S")
	s.IsNonterminal = true
	a, _ := g.InternSymbol("a")
	a.IsTerminal = true
	a.IsScanned = true
	a.RegexSource = "a"

	g.SetStartSymbol(s)
	g.AddRule(g.AcceptSymbol(), []*grammar.Symbol{s})
	g.AddRule(s, []*grammar.Symbol{a, s})
	g.AddRule(s, []*grammar.Symbol{a, s})

	opts := config.DefaultGrammarOptions()
	opts.Conflicts = 0
	pd, bag, err := FromGrammar(g, opts, config.DefaultGeneratorOptions(), nil, 0, io.Discard)
	assert.NoError(err)
	assert.NotNil(pd)
	assert.True(bag.HasErrors())
}

// Test_FromGrammar_LALRDumpFlagWritesTrace covers the DebugLALRDump facility
// (spec §7): when set, FromGrammar writes a rendered automaton table and a
// rendered packed-table dump to trace via internal/rtlog.
func Test_FromGrammar_LALRDumpFlagWritesTrace(t *testing.T) {
	assert := assert.New(t)
	g := buildRightRecursiveGrammar()

	var buf bytes.Buffer
	pd, bag, err := FromGrammar(g, config.DefaultGrammarOptions(), config.DefaultGeneratorOptions(), nil, config.DebugLALRDump, &buf)
	assert.NoError(err)
	assert.False(bag.HasErrors())
	assert.NotNil(pd)

	assert.Contains(buf.String(), "resolved automaton")
	assert.Contains(buf.String(), "packed action table")
}

func Test_FromGrammar_EndToEndFromSource(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a' S : (S($1, $2))
      | 'a'
}
`
	buf, err := source.New(src)
	assert.NoError(err)
	root, bag := meta.ReadGrammar(buf)
	assert.False(bag.HasErrors())

	g, opts, bag := extract.FromNode(root, buf)
	assert.False(bag.HasErrors())

	pd, genBag, err := FromGrammar(g, opts, config.DefaultGeneratorOptions(), nil, 0, io.Discard)
	assert.NoError(err)
	assert.False(genBag.HasErrors())

	srcBuf, err := source.New("aaa")
	assert.NoError(err)
	eng := engine.New(pd, srcBuf)
	tree, perr := eng.Parse()
	assert.NoError(perr)
	assert.NotNil(tree)
	assert.Equal(3, countLeaves(tree))
}
