// Package meta implements the grammar-source front end spec §4.D describes
// as "a surface AST whose node kinds are an enumerated set": a hand-rolled
// recursive-descent reader (no generated tables — the front end is
// explicitly out of scope for engineering depth per the spec) that turns
// grammar source text into a Node tree for internal/extract to walk.
package meta

// Kind enumerates every surface-AST node kind ReadGrammar can produce.
// internal/extract.FromNode dispatches on this exhaustively; an unrecognized
// kind reaching a handler is a hard logic error (spec §4.D).
type Kind int

const (
	KindGrammar Kind = iota
	KindOptions
	KindOption
	KindTokens
	KindTokenDecl
	KindTokenOption
	KindRules
	KindRule
	KindAlternative
	KindTermLiteral
	KindTermRef
	KindTermToken
	KindActionGroup
	KindOptional
	KindStar
	KindPlus
	KindPrecedence
	KindPrecTier
)

var kindNames = map[Kind]string{
	KindGrammar:     "Grammar",
	KindOptions:     "Options",
	KindOption:      "Option",
	KindTokens:      "Tokens",
	KindTokenDecl:   "TokenDecl",
	KindTokenOption: "TokenOption",
	KindRules:       "Rules",
	KindRule:        "Rule",
	KindAlternative: "Alternative",
	KindTermLiteral: "TermLiteral",
	KindTermRef:     "TermRef",
	KindTermToken:   "TermToken",
	KindActionGroup: "ActionGroup",
	KindOptional:    "Optional",
	KindStar:        "Star",
	KindPlus:        "Plus",
	KindPrecedence:  "Precedence",
	KindPrecTier:    "PrecTier",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Node is one surface-AST node (spec §4.D's "surface AST"). Text carries a
// node-kind-specific payload: an identifier, a literal's quoted text, or an
// option's raw value text. FormerSrc/GuardSrc, set only on KindAlternative,
// carry the as-written source of an AST-former/guard expression verbatim —
// opaque text for internal/vmgen to compile, not further surface-AST
// structure.
type Node struct {
	Kind     Kind
	Text     string
	Offset   int
	Children []*Node

	FormerSrc string
	GuardSrc  string
}
