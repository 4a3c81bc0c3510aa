package engine

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/hoshi/internal/config"
	"github.com/dekarrin/hoshi/internal/extract"
	"github.com/dekarrin/hoshi/internal/generate"
	"github.com/dekarrin/hoshi/internal/meta"
	"github.com/dekarrin/hoshi/internal/source"
)

// Test_DateTimeFixture_ParsesSlashAndDashFormats drives testdata/
// datetime.hoshi (adapted from original_source/cpp/tstsrc/DateTime.cpp)
// through the full front-end-to-bytecode pipeline, the same shape
// internal/generate's Test_FromGrammar_EndToEndFromSource uses for its own
// hand-written seed grammar, but against a grammar with real alternation
// between two distinct date-field separators rather than a toy recursive
// rule.
func Test_DateTimeFixture_ParsesSlashAndDashFormats(t *testing.T) {
	assert := assert.New(t)

	grammarSrc, err := os.ReadFile(filepath.Join("testdata", "datetime.hoshi"))
	assert.NoError(err)

	buf, err := source.New(string(grammarSrc))
	assert.NoError(err)

	root, bag := meta.ReadGrammar(buf)
	assert.False(bag.HasErrors())

	g, opts, bag := extract.FromNode(root, buf)
	assert.False(bag.HasErrors())

	pd, genBag, err := generate.FromGrammar(g, opts, config.DefaultGeneratorOptions(), nil, 0, io.Discard)
	assert.NoError(err)
	assert.False(genBag.HasErrors())

	for _, tc := range []struct {
		name  string
		input string
	}{
		{"slash", "3/14/2024"},
		{"dash", "3-14-2024"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			srcBuf, err := source.New(tc.input)
			assert.NoError(err)

			eng := New(pd, srcBuf)
			tree, perr := eng.Parse()
			assert.NoError(perr)
			assert.NotNil(tree)

			// (Date($1, $3, $5)) over <integer> '/' <integer> '/' <integer>
			// keeps the month, day, and year fields and drops the two
			// separator literals.
			assert.Len(tree.Children, 3)
			assert.Equal("3", tree.Children[0].Lexeme)
			assert.Equal("14", tree.Children[1].Lexeme)
			assert.Equal("2024", tree.Children[2].Lexeme)
		})
	}
}
