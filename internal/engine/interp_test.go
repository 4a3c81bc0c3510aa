package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/hoshi/internal/ast"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/source"
	"github.com/dekarrin/hoshi/internal/vmgen"
)

func makeLeaf(t *testing.T, lexeme string) *ast.Ast {
	t.Helper()
	buf, err := source.New(lexeme)
	assert.NoError(t, err)
	return ast.New(0, 0, buf.Position(0), lexeme)
}

func compileRule(t *testing.T, lhs string, rhsLen int, former, guard string) (*vmgen.Program, int) {
	t.Helper()
	g := grammar.New()
	lhsSym, _ := g.InternSymbol(lhs)
	rhs := make([]*grammar.Symbol, rhsLen)
	for i := range rhs {
		s, _ := g.InternSymbol("sym")
		rhs[i] = s
	}
	r := g.AddRule(lhsSym, rhs)
	r.FormerSource = former
	r.GuardSource = guard

	prog, err := vmgen.CompileRule(r)
	assert.NoError(t, err)
	return prog, 0
}

func Test_Interpreter_DefaultFormerPassesThroughSingleChild(t *testing.T) {
	assert := assert.New(t)
	prog, entry := compileRule(t, "expr", 1, "", "")
	in := NewInterpreter(prog.Instructions, prog.Operands, prog.Strings, nil)

	leaf := makeLeaf(t, "x")
	node, pass, err := in.RunRule(entry, []*ast.Ast{leaf}, leaf.Location, leaf.Offset)
	assert.NoError(err)
	assert.True(pass)
	assert.Same(leaf, node)
}

func Test_Interpreter_FormerBuildsNewNodeFromChildren(t *testing.T) {
	assert := assert.New(t)
	prog, entry := compileRule(t, "expr", 3, "Binary($1, $2, $3)", "")
	in := NewInterpreter(prog.Instructions, prog.Operands, prog.Strings, nil)

	left := makeLeaf(t, "1")
	op := makeLeaf(t, "+")
	right := makeLeaf(t, "2")

	node, pass, err := in.RunRule(entry, []*ast.Ast{left, op, right}, op.Location, op.Offset)
	assert.NoError(err)
	assert.True(pass)
	assert.Equal("Binary", in.KindName(node.Kind))
	assert.Equal([]*ast.Ast{left, op, right}, node.Children)
}

func Test_Interpreter_FormerSubChildSelectorUsesAstIndex(t *testing.T) {
	assert := assert.New(t)
	prog, entry := compileRule(t, "expr", 1, "Lifted($1.0)", "")
	in := NewInterpreter(prog.Instructions, prog.Operands, prog.Strings, nil)

	grandchild := makeLeaf(t, "inner")
	parent := makeLeaf(t, "outer")
	parent.AddChild(grandchild)

	node, pass, err := in.RunRule(entry, []*ast.Ast{parent}, parent.Location, parent.Offset)
	assert.NoError(err)
	assert.True(pass)
	assert.Equal("Lifted", in.KindName(node.Kind))
	assert.Equal([]*ast.Ast{grandchild}, node.Children)
}

func Test_Interpreter_FormerBareIdentifierIsLiteralLeaf(t *testing.T) {
	assert := assert.New(t)
	prog, entry := compileRule(t, "expr", 1, "Wrapped(marker)", "")
	in := NewInterpreter(prog.Instructions, prog.Operands, prog.Strings, nil)

	leaf := makeLeaf(t, "x")
	node, pass, err := in.RunRule(entry, []*ast.Ast{leaf}, leaf.Location, leaf.Offset)
	assert.NoError(err)
	assert.True(pass)
	assert.Equal("Wrapped", in.KindName(node.Kind))
	assert.Len(node.Children, 1)
	assert.Equal("marker", node.Children[0].Lexeme)
}

func Test_Interpreter_GuardPassesWhenComparisonHolds(t *testing.T) {
	assert := assert.New(t)
	prog, entry := compileRule(t, "expr", 2, "Pair($1, $2)", "$1 == $2")
	in := NewInterpreter(prog.Instructions, prog.Operands, prog.Strings, nil)

	same := makeLeaf(t, "same")
	_, pass, err := in.RunRule(entry, []*ast.Ast{same, same}, same.Location, same.Offset)
	assert.NoError(err)
	assert.True(pass)
}

func Test_Interpreter_GuardFailsWhenComparisonDoesNotHold(t *testing.T) {
	assert := assert.New(t)
	prog, entry := compileRule(t, "expr", 2, "Pair($1, $2)", "$1 == $2")
	in := NewInterpreter(prog.Instructions, prog.Operands, prog.Strings, nil)

	left := makeLeaf(t, "left")
	left.Kind = 1
	right := makeLeaf(t, "right")
	right.Kind = 2

	_, pass, err := in.RunRule(entry, []*ast.Ast{left, right}, left.Location, left.Offset)
	assert.NoError(err)
	assert.False(pass)
}

func Test_Interpreter_KindIDIsStableAcrossRuns(t *testing.T) {
	assert := assert.New(t)
	prog, entry := compileRule(t, "expr", 1, "Same($1)", "")
	in := NewInterpreter(prog.Instructions, prog.Operands, prog.Strings, nil)

	leaf1 := makeLeaf(t, "a")
	node1, _, err := in.RunRule(entry, []*ast.Ast{leaf1}, leaf1.Location, leaf1.Offset)
	assert.NoError(err)

	leaf2 := makeLeaf(t, "b")
	node2, _, err := in.RunRule(entry, []*ast.Ast{leaf2}, leaf2.Location, leaf2.Offset)
	assert.NoError(err)

	assert.Equal(node1.Kind, node2.Kind)
}
