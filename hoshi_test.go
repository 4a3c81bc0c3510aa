package hoshi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/hoshi/internal/diag"
	"github.com/dekarrin/hoshi/internal/grammar"
)

// Test_SeedScenario1_RightRecursiveChain covers spec seed scenario 1:
// the right-recursive `S ::= 'a' S | 'a'` on "aaa" builds a single S chain
// of depth 3 with zero diagnostics.
func Test_SeedScenario1_RightRecursiveChain(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a' S : (S($1, $2))
      | 'a'
}
`
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))
	assert.True(p.IsGrammarLoaded())

	tree, err := p.Parse(strings.NewReader("aaa"), 0)
	assert.NoError(err)
	assert.True(p.IsSourceLoaded())
	assert.Empty(p.GetErrorMessages())

	depth := 0
	for n := tree; n != nil; {
		depth++
		if len(n.Children) == 2 {
			n = n.Children[1]
		} else {
			n = nil
		}
	}
	assert.Equal(3, depth)
}

// Test_SeedScenario2_WhitespaceSeparatedSameAST covers spec seed scenario 2:
// the same grammar as scenario 1, with implicit whitespace skipping, on
// "a a a" produces the identical shaped tree as scenario 1.
func Test_SeedScenario2_WhitespaceSeparatedSameAST(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a' S : (S($1, $2))
      | 'a'
}
`
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))

	tree, err := p.Parse(strings.NewReader("a a a"), 0)
	assert.NoError(err)
	assert.Empty(p.GetErrorMessages())

	depth := 0
	for n := tree; n != nil; {
		depth++
		if len(n.Children) == 2 {
			n = n.Children[1]
		} else {
			n = nil
		}
	}
	assert.Equal(3, depth)
}

// Test_SeedScenario3_AmbiguousPrecedenceReportsConflict covers spec seed
// scenario 3: a binary-operator grammar with no declared precedence tiers
// is genuinely ambiguous (the same '+'/'*' alternative shape appears twice
// at the same level), and generation must surface that as a recorded LALR
// conflict rather than silently picking an action.
func Test_SeedScenario3_AmbiguousPrecedenceReportsConflict(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    E = E '+' E
      | E '*' E
      | <integer>
}
`
	p := New()
	err := p.Generate(strings.NewReader(src), grammar.KindMap{}, 0)
	// Generation itself still completes (a conflict is recorded, not a
	// hard failure), but the conflict must show up in the diagnostics.
	assert.NoError(err)
	msgs := p.GetErrorMessages()
	found := false
	for _, m := range msgs {
		if strings.Contains(m.String(), "conflict") || strings.Contains(m.Message, "conflict") {
			found = true
		}
	}
	assert.True(found, "expected an LALR conflict diagnostic, got %v", msgs)
}

// Test_SeedScenario4_PrecedenceTiersBindCorrectly covers spec seed scenario
// 4: the same grammar with `'+' << '*'` precedence tiers, on "1+2*3",
// builds a tree rooted at '+' whose second child is the '*' subtree.
func Test_SeedScenario4_PrecedenceTiersBindCorrectly(t *testing.T) {
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
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))

	tree, err := p.Parse(strings.NewReader("1+2*3"), 0)
	assert.NoError(err)
	assert.Empty(p.GetErrorMessages())

	// Each synthesized operator node carries its full RHS as children
	// (left operand, the operator literal itself, right operand), per
	// extract's defaultFormer(opText, 3) — not just the two operands.
	assert.Len(tree.Children, 3)
	assert.Equal("1", tree.Children[0].Lexeme)
	assert.Equal("+", tree.Children[1].Lexeme)
	assert.Len(tree.Children[2].Children, 3)
	assert.Equal("2", tree.Children[2].Children[0].Lexeme)
	assert.Equal("*", tree.Children[2].Children[1].Lexeme)
	assert.Equal("3", tree.Children[2].Children[2].Lexeme)
}

// Test_SeedScenario5_StarRepetitionFlattensChildren covers spec seed
// scenario 5: `L ::= <integer>*` on "1 2 3" builds one node with exactly
// three integer children in order.
func Test_SeedScenario5_StarRepetitionFlattensChildren(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    L = <integer>*
}
`
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))

	tree, err := p.Parse(strings.NewReader("1 2 3"), 0)
	assert.NoError(err)
	assert.Empty(p.GetErrorMessages())

	assert.Len(tree.Children, 3)
	assert.Equal("1", tree.Children[0].Lexeme)
	assert.Equal("2", tree.Children[1].Lexeme)
	assert.Equal("3", tree.Children[2].Lexeme)
}

// Test_SeedScenario6_RecoveredSyntaxErrorReportsDiagnostic covers spec seed
// scenario 6: `S ::= 'a' 'b' 'c'` with error_recovery on, parsing "a c c"
// (a token valid elsewhere in the grammar but wrong in this position, so
// the scanner itself still succeeds and the mismatch is a genuine parser-
// level Syntax diagnostic at the offending token's offset), records at
// least one Syntax diagnostic and still fails the overall parse.
func Test_SeedScenario6_RecoveredSyntaxErrorReportsDiagnostic(t *testing.T) {
	assert := assert.New(t)
	src := `
options {
    error_recovery = true
}
rules {
    S = 'a' 'b' 'c'
}
`
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))

	_, err := p.Parse(strings.NewReader("a c c"), 0)
	assert.Error(err)

	msgs := p.GetErrorMessages()
	assert.NotEmpty(msgs)
	assert.Equal(diag.CodeSyntax, msgs[0].Code)
	assert.Equal(2, msgs[0].Offset)
}

func Test_Parser_CopySharesGeneratedArtifact(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a'
}
`
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))

	clone := p.Copy()
	assert.True(clone.IsGrammarLoaded())

	_, err := clone.Parse(strings.NewReader("a"), 0)
	assert.NoError(err)
}

func Test_Parser_EncodeDecodeRoundTrip(t *testing.T) {
	assert := assert.New(t)
	src := `
rules {
    S = 'a'
}
`
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))

	data, err := p.Encode()
	assert.NoError(err)

	decoded, err := Decode(data, grammar.KindMap{})
	assert.NoError(err)
	assert.True(decoded.IsGrammarLoaded())

	tree, err := decoded.Parse(strings.NewReader("a"), 0)
	assert.NoError(err)
	assert.NotNil(tree)
}

func Test_Parser_ExportCPPReturnsUnsupported(t *testing.T) {
	assert := assert.New(t)
	p := New()
	err := p.ExportCPP("/tmp/out.cpp", "MyParser")
	assert.ErrorIs(err, ErrExportUnsupported)
}

func Test_Parser_ParseBeforeGenerateFails(t *testing.T) {
	assert := assert.New(t)
	p := New()
	_, err := p.Parse(strings.NewReader("a"), 0)
	assert.Error(err)
	assert.True(p.IsSourceFailed())
}

func Test_Parser_GenerateWithCaseSensitiveOption(t *testing.T) {
	assert := assert.New(t)
	src := `
options {
    case_sensitive = false
}
rules {
    S = 'a'
}
`
	p := New()
	assert.NoError(p.Generate(strings.NewReader(src), grammar.KindMap{}, 0))
	_, err := p.Parse(strings.NewReader("A"), 0)
	assert.NoError(err)
}
