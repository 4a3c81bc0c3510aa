// Package grammar implements the normalized symbol/rule model Hoshi's
// generator works over (spec §3, §4.C), grounded on the flyweight
// interning pattern of internal/ictiobus/grammar in the teacher repo (whose
// own Grammar type was not present in the retrieved sources — only
// item.go survived extraction — so the struct below is built fresh from
// spec §3/§4.C; the Item type it backs is a (rule, dot) pair rather than
// that file's string-chain representation; see item.go).
package grammar

// Predefined symbol names. Every Grammar always contains exactly these four,
// interned once at construction.
const (
	EOF     = "*eof*"
	Error   = "*error*"
	Accept  = "*accept*"
	Epsilon = "*epsilon*"
)

// DefaultPrecedence is the precedence assigned to a symbol that declares
// none explicitly.
const DefaultPrecedence = 100

// Associativity describes how a precedence-tier operator associates,
// spec §4.D "operator precedence."
type Associativity int

const (
	AssocNone Associativity = iota
	AssocLeft
	AssocRight
)

// Symbol is a uniquely-named terminal, nonterminal, or predefined marker
// symbol (spec §3 "Symbol").
type Symbol struct {
	Name string

	// Num is the symbol's renumbered index, assigned once by the action
	// encoder (internal/table) after generation completes, sorted
	// descending by usage frequency. It is -1 until then.
	Num int

	IsTerminal    bool
	IsNonterminal bool
	IsScanned     bool
	IsIgnored     bool
	IsError       bool

	Precedence    int
	Associativity Associativity
	LexemeNeeded  bool

	Description  string
	ErrorMessage string

	// RegexSource is the token's regex option text, or "" if none was given
	// (in which case the extractor synthesizes a literal-match regex from
	// Name per spec §4.D "Default synthesis"). Left as source text rather
	// than a parsed tree here; internal/vmgen.ParseRegex parses it into a
	// regex AST when the scanner is compiled, keeping this package free of a dependency
	// on the front end.
	RegexSource string

	// ActionSource is the token's `action={...}` guard/transform source
	// text, if any, consumed the same way as RegexSource.
	ActionSource string
}

// newPredefined creates one of the four always-present marker symbols.
func newPredefined(name string) *Symbol {
	s := &Symbol{Name: name, Num: -1, Precedence: DefaultPrecedence}
	switch name {
	case EOF:
		s.IsTerminal = true
	case Error:
		s.IsTerminal = true
		s.IsError = true
	case Accept:
		s.IsNonterminal = true
	case Epsilon:
		// neither terminal nor nonterminal; represents the empty string.
	}
	return s
}
