package diag

import (
	"testing"

	"github.com/dekarrin/hoshi/internal/source"
	"github.com/stretchr/testify/assert"
)

func Test_Bag_SortedByOffsetStableOnTies(t *testing.T) {
	assert := assert.New(t)

	var b Bag
	b.Add(CodeSyntax, 5, source.Position{}, "second at 5")
	b.Add(CodeLexical, 1, source.Position{}, "first at 1")
	b.Add(CodeSyntax, 5, source.Position{}, "third at 5, inserted after second")

	sorted := b.Sorted()
	assert.Len(sorted, 3)
	assert.Equal("first at 1", sorted[0].Message)
	assert.Equal("second at 5", sorted[1].Message)
	assert.Equal("third at 5, inserted after second", sorted[2].Message)
}

func Test_Bag_HasErrors(t *testing.T) {
	assert := assert.New(t)

	var b Bag
	assert.False(b.HasErrors())

	b.Add(CodeUnusedTerm, 0, source.Position{}, "unused")
	assert.False(b.HasErrors(), "UnusedTerm is a warning, not an error")

	b.Add(CodeLalrConflict, 0, source.Position{}, "conflict")
	assert.True(b.HasErrors())
}
