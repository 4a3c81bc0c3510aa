package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/meta"
	"github.com/dekarrin/hoshi/internal/source"
)

func mustRead(t *testing.T, src string) (*meta.Node, *source.Buffer) {
	t.Helper()
	buf, err := source.New(src)
	assert.NoError(t, err)
	root, bag := meta.ReadGrammar(buf)
	assert.False(t, bag.HasErrors())
	return root, buf
}

func rulesFor(g *grammar.Grammar, lhsName string) []*grammar.Rule {
	var out []*grammar.Rule
	for _, r := range g.Rules() {
		if r.LHS.Name == lhsName {
			out = append(out, r)
		}
	}
	return out
}

func Test_FromNode_SimpleRecursiveRule_DefaultFormerSynthesized(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a' S : (S($1, $2))
      | 'a'
}
`
	root, buf := mustRead(t, src)
	g, opts, bag := FromNode(root, buf)
	assert.False(bag.HasErrors())
	assert.True(opts.CaseSensitive)
	assert.False(opts.KeepWhitespace)

	sSym, ok := g.LookupSymbol("S")
	assert.True(ok)
	assert.True(sSym.IsNonterminal)
	assert.Equal(sSym, g.StartSymbol())

	rules := rulesFor(g, "S")
	assert.Len(rules, 2)

	// First alt has an explicit former, kept verbatim.
	assert.Equal("S($1, $2)", rules[0].FormerSource)
	assert.False(rules[0].IsASTSynthesized)

	// Second alt is size 1, so no former is needed at all (pass-through).
	assert.Equal(1, rules[1].Size())
	assert.Equal("", rules[1].FormerSource)

	// The accept rule (rule 0) points at the first declared LHS.
	accept := g.Rule(0)
	assert.Equal(grammar.Accept, accept.LHS.Name)
	assert.Equal([]string{"S"}, accept.RHSNames())

	// The literal 'a' was auto-installed as a terminal with a synthesized
	// regex, since no tokens block declared it.
	aSym, ok := g.LookupSymbol("a")
	assert.True(ok)
	assert.True(aSym.IsTerminal)
	assert.Equal("a", aSym.RegexSource)

	// Whitespace is auto-installed and ignored by default.
	ws, ok := g.LookupSymbol("whitespace")
	assert.True(ok)
	assert.True(ws.IsIgnored)
}

func Test_FromNode_DefaultFormerSynthesizedForMultiChildRule(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    Pair = 'a' 'b'
}
`
	root, buf := mustRead(t, src)
	g, _, bag := FromNode(root, buf)
	assert.False(bag.HasErrors())

	rules := rulesFor(g, "Pair")
	assert.Len(rules, 1)
	assert.True(rules[0].IsASTSynthesized)
	assert.Equal("Pair($1, $2)", rules[0].FormerSource)
}

func Test_FromNode_TokensBlockWithTemplateAndOverride(t *testing.T) {
	assert := assert.New(t)
	src := `
tokens {
    <num> : template(integer), precedence(5)
}
rules {
    S = <num>
}
`
	root, buf := mustRead(t, src)
	g, _, bag := FromNode(root, buf)
	assert.False(bag.HasErrors())

	numSym, ok := g.LookupSymbol("num")
	assert.True(ok)
	assert.True(numSym.IsTerminal)
	assert.True(numSym.LexemeNeeded)
	assert.Equal(5, numSym.Precedence) // explicit override beats the template's 100
	assert.Equal(`[0-9]+`, numSym.RegexSource)
}

func Test_FromNode_DuplicateTokenReportsDiagnostic(t *testing.T) {
	assert := assert.New(t)
	src := `
tokens {
    <num> : template(integer)
    <num> : template(integer)
}
rules {
    S = <num>
}
`
	root, buf := mustRead(t, src)
	_, _, bag := FromNode(root, buf)
	assert.True(bag.HasErrors())
}

func Test_FromNode_UnknownTemplateReportsDiagnostic(t *testing.T) {
	assert := assert.New(t)
	src := `
tokens {
    <num> : template(not_a_real_template)
}
rules {
    S = <num>
}
`
	root, buf := mustRead(t, src)
	_, _, bag := FromNode(root, buf)
	assert.True(bag.HasErrors())
}

func Test_FromNode_StarRepetitionFlattensOntoLHS(t *testing.T) {
	assert := assert.New(t)
	src := `
tokens {
    <integer> : template(integer)
}
rules {
    L = <integer>*
}
`
	root, buf := mustRead(t, src)
	g, _, bag := FromNode(root, buf)
	assert.False(bag.HasErrors())

	rules := rulesFor(g, "L")
	assert.Len(rules, 2)

	var base, cons *grammar.Rule
	for _, r := range rules {
		if r.Size() == 0 {
			base = r
		} else {
			cons = r
		}
	}
	assert.NotNil(base)
	assert.NotNil(cons)

	assert.Equal("L()", base.FormerSource)
	assert.True(cons.IsListCons)
	assert.Equal(2, cons.Size())
	assert.Equal("integer", cons.RHS[0].Name)
	assert.Equal("L", cons.RHS[1].Name)
}

func Test_FromNode_PlusRepetitionUsesStarHelper(t *testing.T) {
	assert := assert.New(t)
	src := `
tokens {
    <integer> : template(integer)
}
rules {
    L = <integer>+
}
`
	root, buf := mustRead(t, src)
	g, _, bag := FromNode(root, buf)
	assert.False(bag.HasErrors())

	rules := rulesFor(g, "L")
	assert.Len(rules, 1)
	assert.True(rules[0].IsListCons)
	assert.Equal(2, rules[0].Size())
	assert.Equal("integer", rules[0].RHS[0].Name)

	// The second RHS symbol is a synthesized star-helper with its own
	// ε/cons rules.
	helperName := rules[0].RHS[1].Name
	helperRules := rulesFor(g, helperName)
	assert.Len(helperRules, 2)
}

func Test_FromNode_BareAngleTokenResolvesAgainstBuiltinTemplate(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = <integer>
}
`
	root, buf := mustRead(t, src)
	g, _, bag := FromNode(root, buf)
	assert.False(bag.HasErrors())

	sym, ok := g.LookupSymbol("integer")
	assert.True(ok)
	assert.True(sym.IsTerminal)
	assert.False(sym.IsNonterminal)
	assert.Equal(`[0-9]+`, sym.RegexSource)
	assert.True(sym.LexemeNeeded)
}

func Test_FromNode_UndeclaredAngleTokenWithNoTemplateReportsDiagnostic(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = <nope>
}
`
	root, buf := mustRead(t, src)
	g, _, bag := FromNode(root, buf)
	assert.True(bag.HasErrors())

	sym, ok := g.LookupSymbol("nope")
	assert.True(ok)
	assert.True(sym.IsTerminal)
}

func Test_FromNode_PrecedenceTiersRewriteIntoClimbingGrammar(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    E = E '+' E
      | E '*' E
      | <integer>
      precedence {
          '+' <<
          '*' <<
      }
}
`
	root, buf := mustRead(t, src)
	g, _, bag := FromNode(root, buf)
	assert.False(bag.HasErrors())

	// E itself (lowest-precedence tier) should have exactly a pass-through
	// rule and a '+' rule; '*' belongs to a higher synthesized tier.
	eRules := rulesFor(g, "E")
	assert.Len(eRules, 2)

	var plusRule *grammar.Rule
	for _, r := range eRules {
		if r.Size() == 3 {
			plusRule = r
		}
	}
	assert.NotNil(plusRule)
	assert.Equal("+", plusRule.FormerSource[:1])
	assert.Equal("+", plusRule.RHS[1].Name)
	assert.Equal("E", plusRule.RHS[0].Name) // left-recursive onto E itself

	// Scenario 4 ("1+2*3"): '*' lives one tier up from '+', as its own
	// synthesized helper nonterminal, not E itself.
	higherTierSym := plusRule.RHS[2]
	assert.NotEqual("E", higherTierSym.Name)
	higherTierRules := rulesFor(g, higherTierSym.Name)
	var starRule *grammar.Rule
	for _, r := range higherTierRules {
		if r.Size() == 3 {
			starRule = r
		}
	}
	assert.NotNil(starRule)
	assert.Equal("*", starRule.RHS[1].Name)
}
