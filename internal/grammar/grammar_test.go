package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Grammar_InternSymbolReusesExisting(t *testing.T) {
	assert := assert.New(t)

	g := New()
	a, existed := g.InternSymbol("a")
	assert.False(existed)

	again, existed := g.InternSymbol("a")
	assert.True(existed)
	assert.Same(a, again)
}

func Test_Grammar_PredefinedSymbols(t *testing.T) {
	assert := assert.New(t)

	g := New()
	eof, ok := g.LookupSymbol(EOF)
	assert.True(ok)
	assert.True(eof.IsTerminal)

	accept, ok := g.LookupSymbol(Accept)
	assert.True(ok)
	assert.True(accept.IsNonterminal)
}

func Test_Grammar_StripEpsilonRHS(t *testing.T) {
	assert := assert.New(t)

	g := New()
	a, _ := g.InternSymbol("A")
	b, _ := g.InternSymbol("B")
	eps, _ := g.LookupSymbol(Epsilon)

	r := g.AddRule(a, []*Symbol{b, eps})
	g.StripEpsilonRHS()

	assert.Equal([]*Symbol{b}, r.RHS)
}

func Test_Item_AdvanceAndString(t *testing.T) {
	assert := assert.New(t)

	g := New()
	a, _ := g.InternSymbol("A")
	b, _ := g.InternSymbol("B")
	c, _ := g.InternSymbol("C")
	r := g.AddRule(a, []*Symbol{b, c})

	it := Item{RuleNum: r.Num, Dot: 0}
	assert.Equal("A -> . B C", it.String(g))
	assert.False(it.AtEnd(g))
	assert.Same(b, it.NextSymbol(g))

	it = it.Advance(g)
	assert.Equal("A -> B . C", it.String(g))

	it = it.Advance(g)
	assert.True(it.AtEnd(g))
	assert.Equal("A -> B C .", it.String(g))
}

func Test_Grammar_GenerateUniqueName(t *testing.T) {
	assert := assert.New(t)

	g := New()
	g.InternSymbol("A")
	g.InternSymbol("A:1")

	name := g.GenerateUniqueName("A")
	assert.Equal("A:2", name)
}
