package table

import (
	"testing"

	"github.com/dekarrin/hoshi/internal/automaton"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/stretchr/testify/assert"
)

func buildTinyGrammar() *grammar.Grammar {
	g := grammar.New()
	s, _ := g.InternSymbol("S")
	s.IsNonterminal = true
	a, _ := g.InternSymbol("a")
	a.IsTerminal = true

	g.SetStartSymbol(s)
	g.AddRule(g.AcceptSymbol(), []*grammar.Symbol{s})
	g.AddRule(s, []*grammar.Symbol{a})
	return g
}

func Test_RenumberSymbols_AndBuild(t *testing.T) {
	assert := assert.New(t)

	g := buildTinyGrammar()
	fs := automaton.ComputeFirstSets(g)
	aut, err := automaton.BuildLALR1(g, fs)
	assert.NoError(err)
	automaton.BuildActions(aut, g)

	symbols := RenumberSymbols(g, aut)
	assert.NotEmpty(symbols)

	tbl, err := Build(g, aut, symbols)
	assert.NoError(err)
	assert.Equal(aut.StartState, tbl.StartState)

	a, _ := g.LookupSymbol("a")
	entry, ok := tbl.Lookup(aut.StartState, a.Num)
	assert.True(ok)
	assert.Equal(automaton.ActionShift, entry.Action)
}

func Test_Layout_EncodeDecodeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	l, err := ComputeLayout(20, 15, 40)
	assert.NoError(err)

	e := Entry{SymbolNum: 7, Action: automaton.ActionShift, Rule: 3, State: 12, Fallback: 5}
	words := l.Encode(e)
	assert.LessOrEqual(len(words), maxRowWords)

	got := l.Decode(words)
	assert.Equal(e, got)
}

func Test_Layout_EncodeDecodeNoFallback(t *testing.T) {
	assert := assert.New(t)

	l, err := ComputeLayout(5, 5, 5)
	assert.NoError(err)

	e := Entry{SymbolNum: 1, Action: automaton.ActionReduce, Rule: 2, State: 0, Fallback: -1}
	got := l.Decode(l.Encode(e))
	assert.Equal(-1, got.Fallback)
	assert.Equal(e.SymbolNum, got.SymbolNum)
	assert.Equal(e.Rule, got.Rule)
}

func Test_ComputeLayout_Overflow(t *testing.T) {
	assert := assert.New(t)

	_, err := ComputeLayout(1<<30, 1<<30, 1<<30)
	assert.Error(err)
	var overflow *ErrWordOverflow
	assert.ErrorAs(err, &overflow)
}
