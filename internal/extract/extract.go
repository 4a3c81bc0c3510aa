// Package extract implements grammar normalization (spec §4.C, §4.D): lowering
// internal/meta's surface AST into a grammar.Grammar ready for
// internal/automaton, expanding EBNF (`?`, `*`, `+`, `{...}` groups,
// precedence tiers) into plain BNF, and synthesizing default token regexes
// and default AST-formers where the grammar source left them implicit.
package extract

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dekarrin/hoshi/internal/config"
	"github.com/dekarrin/hoshi/internal/diag"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/meta"
	"github.com/dekarrin/hoshi/internal/source"
)

// extractor walks one meta.Node surface AST into a grammar.Grammar. A fresh
// extractor is used per FromNode call; its maps only track duplicate- and
// first-use bookkeeping for that one grammar.
type extractor struct {
	g    *grammar.Grammar
	bag  *diag.Bag
	opts config.GrammarOptions
	buf  *source.Buffer

	// declaredTokens tracks every terminal symbol name that has already been
	// installed, whether via an explicit `tokens { ... }` declaration or an
	// implicit first use as a quoted literal in a rule, so a second explicit
	// declaration of the same name is caught as ErrorDupToken (spec §4.D)
	// while a rule referencing an already-known literal just reuses it.
	declaredTokens map[string]bool
}

// FromNode normalizes root (internal/meta.ReadGrammar's output) into a
// grammar.Grammar plus its effective GrammarOptions (spec §4.D's
// `options { ... }` block, or the spec-mandated defaults if absent). buf is
// the source.Buffer root was read from, used only to resolve diagnostic
// offsets to line/column positions; a nil buf is fine for tests that don't
// care about Position. Faults discovered along the way (duplicate
// declarations, unknown templates, malformed option values) are recorded in
// the returned diag.Bag — callers should check bag.HasErrors() before
// handing the grammar to internal/automaton.
func FromNode(root *meta.Node, buf *source.Buffer) (*grammar.Grammar, config.GrammarOptions, *diag.Bag) {
	ex := &extractor{
		g:              grammar.New(),
		bag:            &diag.Bag{},
		opts:           config.DefaultGrammarOptions(),
		buf:            buf,
		declaredTokens: map[string]bool{},
	}

	var optionsNode, tokensNode, rulesNode *meta.Node
	for _, child := range root.Children {
		switch child.Kind {
		case meta.KindOptions:
			optionsNode = child
		case meta.KindTokens:
			tokensNode = child
		case meta.KindRules:
			rulesNode = child
		}
	}

	if optionsNode != nil {
		ex.processOptions(optionsNode)
	}
	if tokensNode != nil {
		ex.processTokens(tokensNode)
	}
	if rulesNode == nil {
		ex.bag.AddAt(diag.CodeError, "grammar has no rules block")
		return ex.g, ex.opts, ex.bag
	}
	ex.processRules(rulesNode)

	if !ex.opts.KeepWhitespace {
		ex.installImplicitWhitespace()
	}

	return ex.g, ex.opts, ex.bag
}

func (ex *extractor) posOf(offset int) source.Position {
	if ex.buf == nil {
		return source.Position{}
	}
	return ex.buf.Position(offset)
}

func (ex *extractor) errorAt(offset int, code diag.Code, format string, args ...any) {
	ex.bag.Add(code, offset, ex.posOf(offset), format, args...)
}

// --- options ---

func (ex *extractor) processOptions(node *meta.Node) {
	seen := map[string]bool{}
	for _, child := range node.Children {
		name, value, ok := strings.Cut(child.Text, "=")
		if !ok {
			ex.errorAt(child.Offset, diag.CodeError, "malformed grammar option %q", child.Text)
			continue
		}
		if seen[name] {
			ex.errorAt(child.Offset, diag.CodeDupGrammarOption, "duplicate grammar option %q", name)
			continue
		}
		seen[name] = true

		switch name {
		case "lookaheads":
			ex.opts.Lookaheads = ex.parseIntOption(child.Offset, name, value)
		case "conflicts":
			ex.opts.Conflicts = ex.parseIntOption(child.Offset, name, value)
		case "error_recovery":
			ex.opts.ErrorRecovery = ex.parseBoolOption(child.Offset, name, value)
		case "keep_whitespace":
			ex.opts.KeepWhitespace = ex.parseBoolOption(child.Offset, name, value)
		case "case_sensitive":
			ex.opts.CaseSensitive = ex.parseBoolOption(child.Offset, name, value)
		default:
			ex.errorAt(child.Offset, diag.CodeError, "unknown grammar option %q", name)
		}
	}
}

func (ex *extractor) parseIntOption(offset int, name, value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		ex.errorAt(offset, diag.CodeError, "option %q expects an integer, got %q", name, value)
		return 0
	}
	return n
}

func (ex *extractor) parseBoolOption(offset int, name, value string) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		ex.errorAt(offset, diag.CodeError, "option %q expects a bool, got %q", name, value)
		return false
	}
	return b
}

// --- tokens ---

func (ex *extractor) processTokens(node *meta.Node) {
	for _, decl := range node.Children {
		ex.processTokenDecl(decl)
	}
}

// processTokenDecl installs a token's symbol and runs its option list in two
// passes (spec §4.D: "template options first ... then specific options"),
// so a specific option always wins over whatever a template filled in.
func (ex *extractor) processTokenDecl(decl *meta.Node) {
	name := decl.Text
	if ex.declaredTokens[name] {
		ex.errorAt(decl.Offset, diag.CodeDupToken, "duplicate token %q", name)
		return
	}
	ex.declaredTokens[name] = true

	sym, _ := ex.g.InternSymbol(name)
	sym.IsTerminal = true
	sym.IsScanned = true

	seenOpt := map[string]bool{}
	lexemeSet := false

	for _, opt := range decl.Children {
		if opt.Text != "template" {
			continue
		}
		if seenOpt["template"] {
			ex.errorAt(opt.Offset, diag.CodeDupTokenOption, "duplicate token option %q on %q", opt.Text, name)
			continue
		}
		seenOpt["template"] = true
		if ex.applyTemplate(sym, opt) {
			lexemeSet = true
		}
	}

	for _, opt := range decl.Children {
		if opt.Text == "template" {
			continue
		}
		if seenOpt[opt.Text] {
			ex.errorAt(opt.Offset, diag.CodeDupTokenOption, "duplicate token option %q on %q", opt.Text, name)
			continue
		}
		seenOpt[opt.Text] = true

		val := ""
		if len(opt.Children) > 0 {
			val = opt.Children[0].Text
		}
		switch opt.Text {
		case "description":
			sym.Description = val
		case "regex":
			sym.RegexSource = val
		case "precedence":
			sym.Precedence = ex.parseIntOption(opt.Offset, "precedence", val)
		case "action":
			sym.ActionSource = val
		case "lexeme":
			sym.LexemeNeeded = ex.parseBoolOption(opt.Offset, "lexeme", val)
			lexemeSet = true
		case "ignore":
			sym.IsIgnored = ex.parseBoolOption(opt.Offset, "ignore", val)
		case "error":
			sym.ErrorMessage = val
			sym.IsError = true
		default:
			ex.errorAt(opt.Offset, diag.CodeError, "unknown token option %q", opt.Text)
		}
	}

	if sym.RegexSource == "" {
		sym.RegexSource = literalRegex(name, ex.opts.CaseSensitive)
	}
	if !lexemeSet {
		sym.LexemeNeeded = sym.RegexSource != ""
	}
}

// applyTemplate fills sym's regex/precedence/lexeme/ignore fields from the
// named built-in template (spec §4.D "fill defaults from a built-in library
// such as whitespace, integer, identifier, etc."). Reports
// diag.CodeUnknownMacro for an unrecognized name. Returns whether the
// template set LexemeNeeded explicitly (so the caller's "infer from regex"
// fallback doesn't clobber it).
func (ex *extractor) applyTemplate(sym *grammar.Symbol, opt *meta.Node) bool {
	tname := ""
	if len(opt.Children) > 0 {
		tname = opt.Children[0].Text
	}
	t, ok := lookupTemplate(tname)
	if !ok {
		ex.errorAt(opt.Offset, diag.CodeUnknownMacro, "unknown token template %q", tname)
		return false
	}
	sym.RegexSource = t.Regex
	sym.Precedence = t.Precedence
	sym.LexemeNeeded = t.LexemeNeeded
	sym.IsIgnored = t.IsIgnored
	return true
}

// internLiteralTerm resolves a quoted-literal term used directly in a rule
// (spec §4.D "Auto-installing implicit literal terminals"), reusing any
// existing symbol of the same name (whether declared explicitly in
// `tokens { ... }` or already referenced by an earlier rule) and otherwise
// installing a fresh terminal with a default regex synthesized from the
// literal text.
func (ex *extractor) internLiteralTerm(text string) *grammar.Symbol {
	if sym, ok := ex.g.LookupSymbol(text); ok {
		return sym
	}
	sym, _ := ex.g.InternSymbol(text)
	sym.IsTerminal = true
	sym.IsScanned = true
	sym.RegexSource = literalRegex(text, ex.opts.CaseSensitive)
	ex.declaredTokens[text] = true
	return sym
}

// internTokenRef resolves a `<name>` term used directly in a rule. Unlike a
// bare identifier, angle brackets unambiguously name a terminal (spec §4.D
// "terminal refs `'lit'` or `<name>`, nonterminal refs by bare name"), so a
// name with no explicit `tokens { ... }` declaration still resolves against
// the built-in template library by matching name, rather than falling
// through to the undeclared-nonterminal handling bare KindTermRef gets.
func (ex *extractor) internTokenRef(name string, offset int) *grammar.Symbol {
	if sym, ok := ex.g.LookupSymbol(name); ok {
		return sym
	}
	t, ok := lookupTemplate(name)
	if !ok {
		ex.errorAt(offset, diag.CodeError, "undefined token <%s>: not declared in a tokens block and no built-in template of that name exists", name)
		sym, _ := ex.g.InternSymbol(name)
		sym.IsTerminal = true
		sym.IsScanned = true
		ex.declaredTokens[name] = true
		return sym
	}
	sym, _ := ex.g.InternSymbol(name)
	sym.IsTerminal = true
	sym.IsScanned = true
	sym.RegexSource = t.Regex
	sym.Precedence = t.Precedence
	sym.LexemeNeeded = t.LexemeNeeded
	sym.IsIgnored = t.IsIgnored
	ex.declaredTokens[name] = true
	return sym
}

// literalRegex synthesizes a default regex matching text exactly, in the
// internal/vmgen.ParseRegex dialect: every metacharacter the dialect
// recognizes (`\ ( ) [ ] . * + ? |`) is escaped, and under case-insensitive
// mode every letter becomes a two-character class of its upper/lower form.
func literalRegex(text string, caseSensitive bool) string {
	var sb strings.Builder
	for _, r := range text {
		if !caseSensitive && unicode.IsLetter(r) {
			lo, hi := unicode.ToLower(r), unicode.ToUpper(r)
			if lo != hi {
				sb.WriteByte('[')
				sb.WriteRune(hi)
				sb.WriteRune(lo)
				sb.WriteByte(']')
				continue
			}
		}
		if isRegexMeta(r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isRegexMeta(r rune) bool {
	switch r {
	case '\\', '(', ')', '[', ']', '.', '*', '+', '?', '|':
		return true
	}
	return false
}

// installImplicitWhitespace auto-installs the `whitespace` template token as
// an ignored terminal when `keep_whitespace` is false (the default) and the
// grammar hasn't already declared something under that name itself (spec
// §4.D).
func (ex *extractor) installImplicitWhitespace() {
	if ex.declaredTokens["whitespace"] {
		return
	}
	t, _ := lookupTemplate("whitespace")
	sym, _ := ex.g.InternSymbol("whitespace")
	sym.IsTerminal = true
	sym.IsScanned = true
	sym.IsIgnored = true
	sym.RegexSource = t.Regex
	sym.Precedence = t.Precedence
	sym.LexemeNeeded = t.LexemeNeeded
	ex.declaredTokens["whitespace"] = true
}

// --- rules ---

func (ex *extractor) processRules(node *meta.Node) {
	var firstLHS *grammar.Symbol
	for _, ruleNode := range node.Children {
		sym, _ := ex.g.InternSymbol(ruleNode.Text)
		sym.IsNonterminal = true
		if firstLHS == nil {
			firstLHS = sym
		}
	}
	if firstLHS == nil {
		ex.bag.AddAt(diag.CodeError, "grammar has no rules")
		return
	}
	ex.g.SetStartSymbol(firstLHS)
	ex.g.AddRule(ex.g.AcceptSymbol(), []*grammar.Symbol{firstLHS})

	for _, ruleNode := range node.Children {
		ex.processRule(ruleNode)
	}
}

func (ex *extractor) processRule(ruleNode *meta.Node) {
	lhs, _ := ex.g.LookupSymbol(ruleNode.Text)

	var precNode *meta.Node
	var alts []*meta.Node
	for _, child := range ruleNode.Children {
		switch child.Kind {
		case meta.KindAlternative:
			alts = append(alts, child)
		case meta.KindPrecedence:
			precNode = child
		}
	}

	if precNode != nil {
		ex.expandPrecedence(lhs, precNode, alts, ruleNode.Offset)
		return
	}

	for _, alt := range alts {
		ex.addAlternative(lhs, alt, ruleNode.Offset)
	}
}

// addAlternative installs one `lhs ::= ...` alternative. An alternative
// consisting of exactly one bare `X*`/`X+` term (no former/guard of its own)
// is special-cased to expand directly onto lhs itself (see
// expandRepeatOntoLHS), so the repetition's matches become lhs's own
// children instead of being nested in a wrapper.
func (ex *extractor) addAlternative(lhs *grammar.Symbol, alt *meta.Node, ruleOffset int) {
	if len(alt.Children) == 1 && alt.FormerSrc == "" && alt.GuardSrc == "" {
		switch alt.Children[0].Kind {
		case meta.KindStar:
			ex.expandRepeatOntoLHS(lhs, alt.Children[0].Children[0], false, ruleOffset)
			return
		case meta.KindPlus:
			ex.expandRepeatOntoLHS(lhs, alt.Children[0].Children[0], true, ruleOffset)
			return
		}
	}

	rhs := ex.expandTerms(lhs, alt.Children, ruleOffset)
	r := ex.g.AddRule(lhs, rhs)
	r.SourceOffset = ruleOffset
	r.GuardSource = alt.GuardSrc
	switch {
	case alt.FormerSrc != "":
		r.FormerSource = alt.FormerSrc
	case len(rhs) != 1:
		r.FormerSource = ex.defaultFormer(lhs.Name, len(rhs))
		r.IsASTSynthesized = true
	}
}

// defaultFormer synthesizes "<kind>($1, $2, ..., $n)" (spec §4.D: a rule
// with no AST-former and size != 1 gets one synthesized automatically,
// since vmgen.compileFormer has nothing to fall back to in that case).
func (ex *extractor) defaultFormer(kind string, n int) string {
	args := make([]string, n)
	for i := range args {
		args[i] = fmt.Sprintf("$%d", i+1)
	}
	return kind + "(" + strings.Join(args, ", ") + ")"
}

func (ex *extractor) expandTerms(lhs *grammar.Symbol, terms []*meta.Node, offset int) []*grammar.Symbol {
	rhs := make([]*grammar.Symbol, 0, len(terms))
	for _, t := range terms {
		rhs = append(rhs, ex.expandTerm(lhs, t, offset))
	}
	return rhs
}

// expandTerm lowers one surface term into a single RHS symbol, synthesizing
// helper nonterminals (and their rules) for anything that isn't already a
// plain literal or reference (spec §4.A EBNF expansion).
func (ex *extractor) expandTerm(lhs *grammar.Symbol, t *meta.Node, offset int) *grammar.Symbol {
	switch t.Kind {
	case meta.KindTermLiteral:
		return ex.internLiteralTerm(t.Text)

	case meta.KindTermRef:
		sym, existed := ex.g.InternSymbol(t.Text)
		if !existed {
			// Referenced before any declaration (forward/undefined name):
			// assume nonterminal, since every declared rule LHS was already
			// interned in processRules' first pass before any term is
			// expanded. A name that's still undefined once every rule has
			// been processed is not reported; it stays a nonterminal with
			// no rules.
			sym.IsNonterminal = true
		}
		return sym

	case meta.KindTermToken:
		return ex.internTokenRef(t.Text, offset)

	case meta.KindActionGroup:
		inner := t.Children[0]
		name := ex.g.GenerateUniqueName(lhs.Name)
		helper, _ := ex.g.InternSymbol(name)
		helper.IsNonterminal = true

		rhs := ex.expandTerms(helper, inner.Children, offset)
		r := ex.g.AddRule(helper, rhs)
		r.SourceOffset = offset
		r.GuardSource = inner.GuardSrc
		switch {
		case inner.FormerSrc != "":
			r.FormerSource = inner.FormerSrc
		case len(rhs) != 1:
			r.FormerSource = ex.defaultFormer(name, len(rhs))
			r.IsASTSynthesized = true
		}
		return helper

	case meta.KindOptional:
		return ex.expandOptional(lhs, t.Children[0], offset)

	case meta.KindStar:
		elemSym := ex.expandTerm(lhs, t.Children[0], offset)
		return ex.expandRepeatHelper(lhs, elemSym, false, offset)

	case meta.KindPlus:
		elemSym := ex.expandTerm(lhs, t.Children[0], offset)
		return ex.expandRepeatHelper(lhs, elemSym, true, offset)

	default:
		ex.errorAt(offset, diag.CodeError, "unexpected term kind %s", t.Kind)
		errSym, _ := ex.g.InternSymbol(grammar.Error)
		return errSym
	}
}

// expandOptional installs `helper ::= inner | ε` for a bare `X?` term
// appearing among other terms in an alternative. The ε alternative's former
// synthesizes an empty marker node (kind == helper's own name) rather than
// leaving the slot truly absent, since every RHS position must still
// produce exactly one node for the enclosing rule's own former to load.
func (ex *extractor) expandOptional(lhs *grammar.Symbol, inner *meta.Node, offset int) *grammar.Symbol {
	name := ex.g.GenerateUniqueName(lhs.Name)
	helper, _ := ex.g.InternSymbol(name)
	helper.IsNonterminal = true

	innerSym := ex.expandTerm(lhs, inner, offset)
	present := ex.g.AddRule(helper, []*grammar.Symbol{innerSym})
	present.SourceOffset = offset

	absent := ex.g.AddRule(helper, nil)
	absent.SourceOffset = offset
	absent.FormerSource = ex.defaultFormer(name, 0)
	absent.IsASTSynthesized = true

	return helper
}

// expandRepeatHelper installs a `*`/`+` repetition's rules onto a freshly
// synthesized helper nonterminal, for a repeated term that appears amid
// other terms in an alternative (as opposed to the whole-alternative
// shortcut in expandRepeatOntoLHS).
func (ex *extractor) expandRepeatHelper(lhs *grammar.Symbol, elemSym *grammar.Symbol, plus bool, offset int) *grammar.Symbol {
	name := ex.g.GenerateUniqueName(lhs.Name)
	sym, _ := ex.g.InternSymbol(name)
	sym.IsNonterminal = true
	if plus {
		ex.expandPlusRules(sym, elemSym, offset)
	} else {
		ex.expandStarRules(sym, elemSym, offset)
	}
	return sym
}

// expandRepeatOntoLHS expands a `lhs ::= elem*` / `lhs ::= elem+` rule
// directly against lhs itself rather than via a helper nonterminal, so the
// repeated matches become lhs's own flattened children with no wrapper node
// in between (spec seed scenario: `L ::= <integer>*` on "1 2 3" yields
// exactly three integer children on L's own node).
func (ex *extractor) expandRepeatOntoLHS(lhs *grammar.Symbol, elemTerm *meta.Node, plus bool, offset int) {
	elemSym := ex.expandTerm(lhs, elemTerm, offset)
	if plus {
		ex.expandPlusRules(lhs, elemSym, offset)
	} else {
		ex.expandStarRules(lhs, elemSym, offset)
	}
}

// expandStarRules installs `sym ::= ε | elem sym` onto sym, with the cons
// alternative compiled by vmgen.CompileListConsRule (Rule.IsListCons) so
// reduction splices elem onto the front of whatever list sym's own
// recursive occurrence already accumulated, rather than nesting a wrapper
// node per repetition.
func (ex *extractor) expandStarRules(sym *grammar.Symbol, elemSym *grammar.Symbol, offset int) {
	base := ex.g.AddRule(sym, nil)
	base.SourceOffset = offset
	base.FormerSource = ex.defaultFormer(sym.Name, 0)
	base.IsASTSynthesized = true

	cons := ex.g.AddRule(sym, []*grammar.Symbol{elemSym, sym})
	cons.SourceOffset = offset
	cons.IsASTSynthesized = true
	cons.IsListCons = true
}

// expandPlusRules installs `sym ::= elem starHelper`, where starHelper is a
// synthesized `*`-helper over the same element, so sym always matches one or
// more elem and flattens them the same way expandStarRules does.
func (ex *extractor) expandPlusRules(sym *grammar.Symbol, elemSym *grammar.Symbol, offset int) {
	starName := ex.g.GenerateUniqueName(sym.Name)
	starSym, _ := ex.g.InternSymbol(starName)
	starSym.IsNonterminal = true
	ex.expandStarRules(starSym, elemSym, offset)

	cons := ex.g.AddRule(sym, []*grammar.Symbol{elemSym, starSym})
	cons.SourceOffset = offset
	cons.IsASTSynthesized = true
	cons.IsListCons = true
}

// expandPrecedence rewrites a `rule precedence { ops_1 << ops_2 >> ... }`
// block into a precedence-climbing tier of helper nonterminals (spec §4.A
// "Precedence tiers"): tier i becomes `L_i ::= L_{i+1}`, plus `L_i ::= L_i
// op L_{i+1}` for each left-associative op in that tier (`L_i ::= L_{i+1}
// op L_i` if right-associative); the lowest-precedence tier (first declared)
// becomes lhs itself, and the highest-precedence tier uses the rule's own
// operand alternative ("term") as its right neighbor. The operand
// alternative is whichever declared alternative contains none of the
// block's operator literals — every other alternative is redundant surface
// documentation, superseded by this rewrite.
func (ex *extractor) expandPrecedence(lhs *grammar.Symbol, precNode *meta.Node, alts []*meta.Node, offset int) {
	type tier struct {
		ops   []string
		assoc grammar.Associativity
	}

	opSet := map[string]bool{}
	var tiers []tier
	for _, tierNode := range precNode.Children {
		var ops []string
		for _, opNode := range tierNode.Children {
			ops = append(ops, opNode.Text)
			opSet[opNode.Text] = true
		}
		assoc := grammar.AssocLeft
		if tierNode.Text == "right" {
			assoc = grammar.AssocRight
		}
		tiers = append(tiers, tier{ops: ops, assoc: assoc})
	}

	var termRHS []*grammar.Symbol
	for _, alt := range alts {
		usesOp := false
		for _, t := range alt.Children {
			if t.Kind == meta.KindTermLiteral && opSet[t.Text] {
				usesOp = true
				break
			}
		}
		if !usesOp {
			termRHS = ex.expandTerms(lhs, alt.Children, offset)
			break
		}
	}
	if termRHS == nil {
		ex.errorAt(offset, diag.CodeError, "precedence block on %q has no operand alternative", lhs.Name)
		return
	}

	termSym := lhs
	if len(tiers) > 0 {
		name := ex.g.GenerateUniqueName(lhs.Name + ":term")
		termSym, _ = ex.g.InternSymbol(name)
		termSym.IsNonterminal = true
	}
	term := ex.g.AddRule(termSym, termRHS)
	term.SourceOffset = offset
	if len(termRHS) != 1 {
		term.FormerSource = ex.defaultFormer(termSym.Name, len(termRHS))
		term.IsASTSynthesized = true
	}

	prevSym := termSym
	for i := len(tiers) - 1; i >= 0; i-- {
		var levelSym *grammar.Symbol
		if i == 0 {
			levelSym = lhs
		} else {
			name := ex.g.GenerateUniqueName(fmt.Sprintf("%s:%d", lhs.Name, i))
			levelSym, _ = ex.g.InternSymbol(name)
			levelSym.IsNonterminal = true
		}

		pass := ex.g.AddRule(levelSym, []*grammar.Symbol{prevSym})
		pass.SourceOffset = offset

		for _, opText := range tiers[i].ops {
			opSym := ex.internLiteralTerm(opText)
			opSym.Associativity = tiers[i].assoc
			var rhs []*grammar.Symbol
			if tiers[i].assoc == grammar.AssocRight {
				rhs = []*grammar.Symbol{prevSym, opSym, levelSym}
			} else {
				rhs = []*grammar.Symbol{levelSym, opSym, prevSym}
			}
			opRule := ex.g.AddRule(levelSym, rhs)
			opRule.SourceOffset = offset
			opRule.FormerSource = ex.defaultFormer(opText, 3)
			opRule.IsASTSynthesized = true
		}

		prevSym = levelSym
	}
}
