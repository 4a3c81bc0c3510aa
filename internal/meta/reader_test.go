package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/hoshi/internal/source"
)

func mustBuf(t *testing.T, s string) *source.Buffer {
	t.Helper()
	buf, err := source.New(s)
	assert.NoError(t, err)
	return buf
}

func findChild(n *Node, k Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == k {
			return c
		}
	}
	return nil
}

func Test_ReadGrammar_MinimalRulesOnly(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a' S : (S($1, $2))
      | 'a' : (S($1))
}
`
	root, bag := ReadGrammar(mustBuf(t, src))
	assert.False(bag.HasErrors())
	assert.Equal(KindGrammar, root.Kind)

	rules := findChild(root, KindRules)
	assert.NotNil(rules)
	assert.Len(rules.Children, 1)

	rule := rules.Children[0]
	assert.Equal(KindRule, rule.Kind)
	assert.Equal("S", rule.Text)
	assert.Len(rule.Children, 2)

	alt1 := rule.Children[0]
	assert.Equal(KindAlternative, alt1.Kind)
	assert.Len(alt1.Children, 2)
	assert.Equal("S($1, $2)", alt1.FormerSrc)

	alt2 := rule.Children[1]
	assert.Equal("S($1)", alt2.FormerSrc)
}

func Test_ReadGrammar_OptionsBlock(t *testing.T) {
	assert := assert.New(t)
	src := `
options {
    lookaheads = 1
    error_recovery = true
    keep_whitespace = false
}
rules {
    S = 'a'
}
`
	root, bag := ReadGrammar(mustBuf(t, src))
	assert.False(bag.HasErrors())

	opts := findChild(root, KindOptions)
	assert.NotNil(opts)
	assert.Len(opts.Children, 3)
	assert.Equal("lookaheads=1", opts.Children[0].Text)
	assert.Equal("error_recovery=true", opts.Children[1].Text)
	assert.Equal("keep_whitespace=false", opts.Children[2].Text)
}

func Test_ReadGrammar_TokensWithTemplateAndRegex(t *testing.T) {
	assert := assert.New(t)
	src := `
tokens {
    <integer> : template(integer)
    '+' : regex(\+), precedence(10)
}
rules {
    E = <integer> '+' <integer>
}
`
	root, bag := ReadGrammar(mustBuf(t, src))
	assert.False(bag.HasErrors())

	toks := findChild(root, KindTokens)
	assert.NotNil(toks)
	assert.Len(toks.Children, 2)

	intDecl := toks.Children[0]
	assert.Equal("integer", intDecl.Text)
	assert.Len(intDecl.Children, 1)
	assert.Equal("template", intDecl.Children[0].Text)

	plusDecl := toks.Children[1]
	assert.Equal("+", plusDecl.Text)
	assert.Len(plusDecl.Children, 2)
	assert.Equal("regex", plusDecl.Children[0].Text)
	assert.Equal("precedence", plusDecl.Children[1].Text)
}

func Test_ReadGrammar_EBNFPostfixOperators(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    L = <integer>*
    M = <integer>+
    N = <integer>?
}
`
	root, bag := ReadGrammar(mustBuf(t, src))
	assert.False(bag.HasErrors())

	rules := findChild(root, KindRules)
	assert.Len(rules.Children, 3)

	starAlt := rules.Children[0].Children[0]
	assert.Equal(KindStar, starAlt.Children[0].Kind)

	plusAlt := rules.Children[1].Children[0]
	assert.Equal(KindPlus, plusAlt.Children[0].Kind)

	optAlt := rules.Children[2].Children[0]
	assert.Equal(KindOptional, optAlt.Children[0].Kind)
}

func Test_ReadGrammar_ActionGroupNestsAnAlternative(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a' { 'b' 'c' : (BC($1, $2)) } 'd'
}
`
	root, bag := ReadGrammar(mustBuf(t, src))
	assert.False(bag.HasErrors())

	rules := findChild(root, KindRules)
	alt := rules.Children[0].Children[0]
	assert.Len(alt.Children, 3)

	group := alt.Children[1]
	assert.Equal(KindActionGroup, group.Kind)
	assert.Len(group.Children, 1)

	inner := group.Children[0]
	assert.Equal(KindAlternative, inner.Kind)
	assert.Equal("BC($1, $2)", inner.FormerSrc)
	assert.Len(inner.Children, 2)
}

func Test_ReadGrammar_PrecedenceTiers(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    E = E '+' E
      | E '*' E
      | <integer>
    precedence {
        '+'
        << '*'
    }
}
`
	root, bag := ReadGrammar(mustBuf(t, src))
	assert.False(bag.HasErrors())

	rules := findChild(root, KindRules)
	rule := rules.Children[0]

	prec := findChild(rule, KindPrecedence)
	assert.NotNil(prec)
	assert.Len(prec.Children, 2)
	assert.Equal("+", prec.Children[0].Children[0].Text)
	assert.Equal("*", prec.Children[1].Children[0].Text)
}

func Test_ReadGrammar_UnterminatedBlockRecordsDiagnostic(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a'
`
	_, bag := ReadGrammar(mustBuf(t, src))
	assert.True(bag.HasErrors())
}

func Test_ReadGrammar_GuardActionIsCaptured(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a' 'a' : (Pair($1, $2)) => { $1 == $2 }
}
`
	root, bag := ReadGrammar(mustBuf(t, src))
	assert.False(bag.HasErrors())

	rules := findChild(root, KindRules)
	alt := rules.Children[0].Children[0]
	assert.Equal("Pair($1, $2)", alt.FormerSrc)
	assert.Equal("$1 == $2", alt.GuardSrc)
}
