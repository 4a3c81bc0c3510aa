package meta

import (
	"strings"
	"unicode"

	"github.com/dekarrin/hoshi/internal/diag"
	"github.com/dekarrin/hoshi/internal/source"
)

// reader is a hand-rolled recursive-descent scanner+parser over a
// source.Buffer, grounded on the teacher's own preference for a single
// straight-line lexer/parser pair over generated tables for small,
// hand-maintained surface languages (internal/ictiobus/lex's
// CreateBootstrapLexer precedent) — compact by design, per spec §4.D's note
// that the front end is out of scope for engineering depth.
type reader struct {
	buf *source.Buffer
	pos int
	bag *diag.Bag
}

// ReadGrammar parses grammar source text into a surface AST (spec §4.D).
// Lexical/syntax errors are recorded in the returned diag.Bag; a nil Node is
// returned only if the source could not be parsed at all (bag.HasErrors()
// is then always true).
func ReadGrammar(buf *source.Buffer) (*Node, *diag.Bag) {
	r := &reader{buf: buf, bag: &diag.Bag{}}
	root := r.parseGrammar()
	return root, r.bag
}

func (r *reader) errorf(format string, args ...any) {
	pos := r.buf.Position(r.pos)
	r.bag.Add(diag.CodeSyntax, r.pos, pos, format, args...)
}

// --- low-level scanning ---

func (r *reader) peek() rune { return r.buf.At(r.pos) }

func (r *reader) advance() rune {
	c := r.buf.At(r.pos)
	r.pos++
	return c
}

func (r *reader) skipSpaceAndComments() {
	for {
		c := r.peek()
		if c == source.EOFRune {
			return
		}
		if unicode.IsSpace(c) {
			r.pos++
			continue
		}
		if c == '#' {
			for r.peek() != source.EOFRune && r.peek() != '\n' {
				r.pos++
			}
			continue
		}
		return
	}
}

func (r *reader) atEOF() bool {
	r.skipSpaceAndComments()
	return r.peek() == source.EOFRune
}

// expect consumes lit as the next non-space token, literally, erroring if it
// doesn't match.
func (r *reader) expect(lit string) bool {
	r.skipSpaceAndComments()
	if r.lookingAt(lit) {
		r.pos += len([]rune(lit))
		return true
	}
	r.errorf("expected %q", lit)
	return false
}

func (r *reader) lookingAt(lit string) bool {
	runes := []rune(lit)
	for i, want := range runes {
		if r.buf.At(r.pos+i) != want {
			return false
		}
	}
	return true
}

func (r *reader) tryConsume(lit string) bool {
	r.skipSpaceAndComments()
	if r.lookingAt(lit) {
		r.pos += len([]rune(lit))
		return true
	}
	return false
}

// readIdent reads a bare identifier: letter/underscore followed by
// letters/digits/underscores. Colons are not accepted, so EBNF-synthesized
// names like `A:1` cannot be written in grammar source.
func (r *reader) readIdent() (string, bool) {
	r.skipSpaceAndComments()
	c := r.peek()
	if !unicode.IsLetter(c) && c != '_' {
		return "", false
	}
	var sb strings.Builder
	for {
		c := r.peek()
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' {
			sb.WriteRune(c)
			r.pos++
			continue
		}
		break
	}
	return sb.String(), true
}

// readQuotedLiteral reads a single- or double-quoted literal, returning its
// unescaped text (backslash-escapes its own quote character or backslash
// itself; anything else passes through literally, so regex-meaningful
// characters like `+` or `*` survive into the synthesized token regex
// unchanged).
func (r *reader) readQuotedLiteral() (string, bool) {
	r.skipSpaceAndComments()
	quote := r.peek()
	if quote != '\'' && quote != '"' {
		return "", false
	}
	r.pos++
	var sb strings.Builder
	for {
		c := r.peek()
		if c == source.EOFRune {
			r.errorf("unterminated quoted literal")
			return sb.String(), false
		}
		if c == '\\' {
			r.pos++
			sb.WriteRune(r.advance())
			continue
		}
		if c == quote {
			r.pos++
			return sb.String(), true
		}
		sb.WriteRune(c)
		r.pos++
	}
}

// readBalanced reads raw source text up to (not including) the first
// occurrence of close at paren-nesting depth 0, used for FormerSrc/GuardSrc
// capture — the mini-syntax itself is internal/vmgen's concern, not the
// reader's, so it's just balanced-paren text extraction here.
func (r *reader) readBalanced(open, close rune) (string, bool) {
	r.skipSpaceAndComments()
	if r.peek() != open {
		return "", false
	}
	start := r.pos
	r.pos++
	depth := 1
	for depth > 0 {
		c := r.peek()
		if c == source.EOFRune {
			r.errorf("unterminated %c...%c block", open, close)
			return "", false
		}
		if c == open {
			depth++
		} else if c == close {
			depth--
		}
		r.pos++
	}
	// exclude the delimiters themselves
	return r.buf.Slice(start+1, r.pos-1), true
}

// --- grammar-level parsing ---

func (r *reader) parseGrammar() *Node {
	root := &Node{Kind: KindGrammar, Offset: r.pos}

	if r.tryConsume("options") {
		root.Children = append(root.Children, r.parseOptions())
	}
	if r.tryConsume("tokens") {
		root.Children = append(root.Children, r.parseTokens())
	}
	r.expect("rules")
	root.Children = append(root.Children, r.parseRules())

	if !r.atEOF() {
		r.errorf("unexpected trailing input")
	}
	return root
}

func (r *reader) parseOptions() *Node {
	n := &Node{Kind: KindOptions, Offset: r.pos}
	r.expect("{")
	for {
		if r.tryConsume("}") {
			return n
		}
		if r.atEOF() {
			r.errorf("unterminated options block")
			return n
		}
		name, ok := r.readIdent()
		if !ok {
			r.errorf("expected option name")
			r.pos++
			continue
		}
		r.expect("=")
		r.skipSpaceAndComments()
		valStart := r.pos
		for {
			c := r.peek()
			if c == source.EOFRune || unicode.IsSpace(c) || c == '}' {
				break
			}
			r.pos++
		}
		val := r.buf.Slice(valStart, r.pos)
		n.Children = append(n.Children, &Node{Kind: KindOption, Text: name + "=" + val, Offset: valStart})
	}
}

func (r *reader) parseTokens() *Node {
	n := &Node{Kind: KindTokens, Offset: r.pos}
	r.expect("{")
	for {
		if r.tryConsume("}") {
			return n
		}
		if r.atEOF() {
			r.errorf("unterminated tokens block")
			return n
		}
		n.Children = append(n.Children, r.parseTokenDecl())
	}
}

func (r *reader) parseTokenDecl() *Node {
	decl := &Node{Kind: KindTokenDecl, Offset: r.pos}

	r.skipSpaceAndComments()
	switch {
	case r.tryConsume("<"):
		name, ok := r.readIdent()
		if !ok {
			r.errorf("expected token name after '<'")
		}
		r.expect(">")
		decl.Text = name
	default:
		lit, ok := r.readQuotedLiteral()
		if !ok {
			r.errorf("expected token name or quoted literal")
		}
		decl.Text = lit
	}

	r.expect(":")
	for {
		decl.Children = append(decl.Children, r.parseTokenOption())
		if !r.tryConsume(",") {
			break
		}
	}
	return decl
}

func (r *reader) parseTokenOption() *Node {
	name, ok := r.readIdent()
	opt := &Node{Kind: KindTokenOption, Offset: r.pos}
	if !ok {
		r.errorf("expected token option name")
		return opt
	}
	body, ok := r.readBalanced('(', ')')
	if !ok {
		r.errorf("expected '(' after token option %q", name)
	}
	opt.Text = name
	opt.Children = []*Node{{Kind: KindTermLiteral, Text: strings.TrimSpace(body)}}
	return opt
}

func (r *reader) parseRules() *Node {
	n := &Node{Kind: KindRules, Offset: r.pos}
	r.expect("{")
	for {
		if r.tryConsume("}") {
			return n
		}
		if r.atEOF() {
			r.errorf("unterminated rules block")
			return n
		}
		n.Children = append(n.Children, r.parseRule())
	}
}

func (r *reader) parseRule() *Node {
	rule := &Node{Kind: KindRule, Offset: r.pos}
	lhs, ok := r.readIdent()
	if !ok {
		r.errorf("expected rule LHS identifier")
		r.pos++
		return rule
	}
	rule.Text = lhs
	r.expect("=")

	for {
		rule.Children = append(rule.Children, r.parseAlternative())
		if !r.tryConsume("|") {
			break
		}
	}
	if r.tryConsume("precedence") {
		rule.Children = append(rule.Children, r.parsePrecedence())
	}
	return rule
}

func (r *reader) parseAlternative() *Node {
	alt := &Node{Kind: KindAlternative, Offset: r.pos}
	for {
		r.skipSpaceAndComments()
		c := r.peek()
		if c == '|' || c == ':' || c == source.EOFRune || r.lookingAt("=>") || r.lookingAt("precedence") || c == '}' {
			break
		}
		// An identifier followed by a lone '=' starts the next rule.
		save := r.pos
		if _, ok := r.readIdent(); ok {
			r.skipSpaceAndComments()
			nextRule := r.lookingAt("=") && !r.lookingAt("=>")
			r.pos = save
			if nextRule {
				break
			}
		}
		alt.Children = append(alt.Children, r.parseTerm())
	}
	if r.tryConsume(":") {
		body, ok := r.readBalanced('(', ')')
		if !ok {
			r.errorf("expected '(' to start AST-former")
		}
		alt.FormerSrc = strings.TrimSpace(body)
	}
	if r.tryConsume("=>") {
		body, ok := r.readBalanced('{', '}')
		if !ok {
			r.errorf("expected '{' to start guard action")
		}
		alt.GuardSrc = strings.TrimSpace(body)
	}
	return alt
}

func (r *reader) parseTerm() *Node {
	var term *Node

	r.skipSpaceAndComments()
	switch {
	case r.lookingAt("{"):
		body, ok := r.readBalanced('{', '}')
		if !ok {
			r.errorf("expected '}' to close action group")
		}
		inner, innerBag := ReadGrammarFragment(body, r.buf, r.pos)
		r.bag.Merge(innerBag)
		term = &Node{Kind: KindActionGroup, Children: []*Node{inner}}
	case r.tryConsume("<"):
		name, ok := r.readIdent()
		if !ok {
			r.errorf("expected token name after '<'")
		}
		r.expect(">")
		term = &Node{Kind: KindTermToken, Text: name}
	default:
		if lit, ok := r.readQuotedLiteral(); ok {
			term = &Node{Kind: KindTermLiteral, Text: lit}
		} else if name, ok := r.readIdent(); ok {
			term = &Node{Kind: KindTermRef, Text: name}
		} else {
			r.errorf("expected a term (literal, <token>, identifier, or '{' group)")
			r.pos++
			return &Node{Kind: KindTermRef, Text: ""}
		}
	}

	switch {
	case r.tryConsume("?"):
		return &Node{Kind: KindOptional, Children: []*Node{term}}
	case r.tryConsume("*"):
		return &Node{Kind: KindStar, Children: []*Node{term}}
	case r.tryConsume("+"):
		return &Node{Kind: KindPlus, Children: []*Node{term}}
	default:
		return term
	}
}

// parsePrecedence reads a `precedence { ... }` block. Each tier's
// associativity is carried on its own KindPrecTier.Text ("left" or "right"),
// taken from whichever separator closes it (`<<` closes a left-associative
// tier, `>>` a right-associative one); the final tier, closed by `}` with no
// separator, defaults to "left".
func (r *reader) parsePrecedence() *Node {
	n := &Node{Kind: KindPrecedence, Offset: r.pos}
	r.expect("{")
	tier := &Node{Kind: KindPrecTier}
	for {
		r.skipSpaceAndComments()
		if r.tryConsume("}") {
			if len(tier.Children) > 0 {
				tier.Text = "left"
				n.Children = append(n.Children, tier)
			}
			return n
		}
		if r.tryConsume("<<") {
			tier.Text = "left"
			n.Children = append(n.Children, tier)
			tier = &Node{Kind: KindPrecTier}
			continue
		}
		if r.tryConsume(">>") {
			tier.Text = "right"
			n.Children = append(n.Children, tier)
			tier = &Node{Kind: KindPrecTier}
			continue
		}
		lit, ok := r.readQuotedLiteral()
		if !ok {
			r.errorf("expected operator literal in precedence block")
			r.pos++
			continue
		}
		tier.Children = append(tier.Children, &Node{Kind: KindTermLiteral, Text: lit})
	}
}

// ReadGrammarFragment re-parses a nested `{ ... }` action-group's interior
// (already extracted as balanced text by the enclosing readBalanced call)
// as a single alternative, reusing the same grammar so `{ α : (former) }`
// groups nest arbitrarily. baseOffset is used only for the invalid-UTF-8
// diagnostic; diagnostics from parsing the fragment carry offsets and
// positions relative to the fragment text, starting at 0.
func ReadGrammarFragment(text string, outer *source.Buffer, baseOffset int) (*Node, *diag.Bag) {
	buf, err := source.New(text)
	if err != nil {
		bag := &diag.Bag{}
		bag.Add(diag.CodeSyntax, baseOffset, outer.Position(baseOffset), "invalid UTF-8 in action group")
		return &Node{Kind: KindAlternative}, bag
	}
	fr := &reader{buf: buf, bag: &diag.Bag{}}
	alt := fr.parseAlternative()
	return alt, fr.bag
}
