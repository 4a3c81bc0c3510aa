package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Buffer_AtAndSlice(t *testing.T) {
	assert := assert.New(t)

	b, err := New("ab\ncd")
	assert.NoError(err)

	assert.Equal('a', b.At(0))
	assert.Equal('\n', b.At(2))
	assert.Equal('d', b.At(-1))
	assert.Equal(EOFRune, b.At(100))

	assert.Equal("ab", b.Slice(0, 2))
	assert.Equal("cd", b.Slice(-2, 100))
}

func Test_Buffer_Position(t *testing.T) {
	assert := assert.New(t)

	b, err := New("ab\ncd\nef")
	assert.NoError(err)

	pos := b.Position(0)
	assert.Equal(Position{Line: 1, Column: 1, LineText: "ab"}, pos)

	// index 3 is 'c', first char of line 2
	pos = b.Position(3)
	assert.Equal(Position{Line: 2, Column: 1, LineText: "cd"}, pos)

	pos = b.Position(7) // 'f' on line 3
	assert.Equal(Position{Line: 3, Column: 2, LineText: "ef"}, pos)
}

func Test_Buffer_InvalidUTF8(t *testing.T) {
	_, err := New(string([]byte{0xff, 0xfe}))
	assert.Error(t, err)
}
