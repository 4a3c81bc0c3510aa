package ast

import (
	"testing"

	"github.com/dekarrin/hoshi/internal/source"
	"github.com/stretchr/testify/assert"
)

func Test_AddChild_SetsParent(t *testing.T) {
	assert := assert.New(t)
	root := New(1, 0, source.Position{}, "")
	child := New(2, 1, source.Position{}, "x")
	root.AddChild(child)

	assert.Same(root, child.Parent)
	assert.Same(child, root.Child(0))
}

func Test_Copy_IsDeepAndDetached(t *testing.T) {
	assert := assert.New(t)
	root := New(1, 0, source.Position{}, "")
	child := New(2, 1, source.Position{}, "x")
	root.AddChild(child)

	clone := root.Copy()
	assert.Nil(clone.Parent)
	assert.NotSame(root.Child(0), clone.Child(0))
	assert.Equal(root.Child(0).Lexeme, clone.Child(0).Lexeme)
}

func Test_Detach_RemovesFromParent(t *testing.T) {
	assert := assert.New(t)
	root := New(1, 0, source.Position{}, "")
	child := New(2, 1, source.Position{}, "x")
	root.AddChild(child)

	child.Detach()
	assert.Nil(child.Parent)
	assert.Equal(0, len(root.Children))
}

func Test_ChildSlice_ClampsBounds(t *testing.T) {
	assert := assert.New(t)
	root := New(1, 0, source.Position{}, "")
	for i := 0; i < 3; i++ {
		root.AddChild(New(2, i, source.Position{}, "x"))
	}
	assert.Len(root.ChildSlice(1, 10), 2)
	assert.Nil(root.ChildSlice(5, 10))
}
