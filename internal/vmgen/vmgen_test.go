package vmgen

import (
	"testing"

	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/stretchr/testify/assert"
)

func Test_ParseRegex_Literal(t *testing.T) {
	assert := assert.New(t)
	n, err := ParseRegex("abc")
	assert.NoError(err)
	assert.NotNil(n)
}

func Test_ParseRegex_ClassAndStar(t *testing.T) {
	assert := assert.New(t)
	_, err := ParseRegex("[a-zA-Z_][a-zA-Z0-9_]*")
	assert.NoError(err)
}

func Test_BuildScannerDFA_DisjointTokensAccept(t *testing.T) {
	assert := assert.New(t)

	idRe, err := ParseRegex("[a-z]+")
	assert.NoError(err)
	numRe, err := ParseRegex("[0-9]+")
	assert.NoError(err)

	dfa, err := BuildScannerDFA([]string{"ID", "NUM"}, []*regexNFA{idRe, numRe})
	assert.NoError(err)
	assert.NotZero(dfa.NumStates)

	foundID, foundNum := false, false
	for _, tok := range dfa.AcceptToken {
		if tok == "ID" {
			foundID = true
		}
		if tok == "NUM" {
			foundNum = true
		}
	}
	assert.True(foundID)
	assert.True(foundNum)
}

func Test_CompileScanner_ProducesScanStartPrologue(t *testing.T) {
	assert := assert.New(t)
	re, err := ParseRegex("ab")
	assert.NoError(err)
	dfa, err := BuildScannerDFA([]string{"AB"}, []*regexNFA{re})
	assert.NoError(err)

	prog, entry := CompileScanner(dfa)
	assert.Equal(OpScanStart, prog.Instructions[0].Op)
	assert.Contains(entry, dfa.Start)
}

func Test_CompileRule_DefaultPassthroughForSizeOne(t *testing.T) {
	assert := assert.New(t)
	g := grammar.New()
	a, _ := g.InternSymbol("A")
	b, _ := g.InternSymbol("B")
	r := g.AddRule(a, []*grammar.Symbol{b})

	prog, err := CompileRule(r)
	assert.NoError(err)
	assert.Equal(OpAstStart, prog.Instructions[0].Op)
	assert.Equal(OpAstLoad, prog.Instructions[1].Op)
	assert.Equal(OpAstFinish, prog.Instructions[len(prog.Instructions)-1].Op)
}

func Test_CompileRule_FormerWithArgs(t *testing.T) {
	assert := assert.New(t)
	g := grammar.New()
	a, _ := g.InternSymbol("Expr")
	b, _ := g.InternSymbol("Term")
	c, _ := g.InternSymbol("+")
	d, _ := g.InternSymbol("Term2")
	r := g.AddRule(a, []*grammar.Symbol{b, c, d})
	r.FormerSource = "BinOp($1, $3)"

	prog, err := CompileRule(r)
	assert.NoError(err)

	var sawNew bool
	for _, instr := range prog.Instructions {
		if instr.Op == OpAstNew {
			sawNew = true
		}
	}
	assert.True(sawNew)
}

func Test_CompileRule_GuardComparison(t *testing.T) {
	assert := assert.New(t)
	g := grammar.New()
	a, _ := g.InternSymbol("A")
	b, _ := g.InternSymbol("B")
	r := g.AddRule(a, []*grammar.Symbol{b})
	r.GuardSource = "$1 == 1"

	prog, err := CompileRule(r)
	assert.NoError(err)

	var sawBranch bool
	for _, instr := range prog.Instructions {
		if instr.Op == OpBranchEq {
			sawBranch = true
		}
	}
	assert.True(sawBranch)
}
