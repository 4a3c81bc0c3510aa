package engine

import "github.com/dekarrin/hoshi/internal/source"

// Token is one scanned lexeme, ready to be shifted onto the AST stack or
// consumed as a lookahead.
type Token struct {
	Symbol string
	Lexeme string
	Offset int
	Pos    source.Position
}
