// Package engine implements the execution side of the Hoshi pipeline (spec
// §4.I): scanning source text against compiled bytecode, driving the
// flattened LALR action table, and running each reduce's AST-former/guard
// bytecode to build the parse tree.
package engine

import (
	"errors"
	"fmt"

	"github.com/dekarrin/hoshi/internal/ast"
	"github.com/dekarrin/hoshi/internal/automaton"
	"github.com/dekarrin/hoshi/internal/diag"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/pdata"
	"github.com/dekarrin/hoshi/internal/source"
	"github.com/dekarrin/hoshi/internal/table"
)

// Engine drives one parse of a source.Buffer against a ParserData artifact
// (spec §4.I steps 1-2: "the engine calls the scanner to refill its
// lookahead ring buffer ... dispatches on checked_index/checked_data decoded
// actions"). It is not safe for concurrent use; hoshi.Parser.Parse
// constructs a fresh Engine per call.
type Engine struct {
	pd      *pdata.ParserData
	tbl     *table.Table
	scanner *Scanner
	interp  *Interpreter
	symNum  map[string]int
	tokKind map[string]int

	stateStack []int
	nodeStack  []*ast.Ast
	lookahead  []Token
	scanFailed bool

	diags *diag.Bag
}

// New builds an Engine ready to parse buf against pd, resolving AstNew kind
// names against pd.Kinds (spec §6's caller-supplied Kind map, frozen into
// the artifact at generation time so a decoded artifact resolves kind names
// identically to how it did when generated). pd.Symbols must be populated
// (table.RenumberSymbols's output, carried via ParserData.WithSymbols) so
// Shift/Goto lookups can resolve a symbol name to its table-relative Num.
func New(pd *pdata.ParserData, buf *source.Buffer) *Engine {
	symNum := make(map[string]int, len(pd.Symbols))
	for _, s := range pd.Symbols {
		symNum[s.Name] = s.Num
	}
	tokKind := make(map[string]int, len(pd.Tokens))
	for _, t := range pd.Tokens {
		tokKind[t.Name] = t.Kind
	}

	return &Engine{
		pd:      pd,
		tbl:     pd.LALR.ToTable(),
		scanner: NewScanner(buf, pd.VM.Instructions, pd.VM.Operands, pd.VM.Strings, pd.VM.ScannerEntry),
		interp:  NewInterpreter(pd.VM.Instructions, pd.VM.Operands, pd.VM.Strings, pd.Kinds),
		symNum:  symNum,
		tokKind: tokKind,
		diags:   &diag.Bag{},
	}
}

// maxDiscardOnError bounds panic-mode recovery: after this many consecutive
// discarded lookahead tokens with no successful resynchronization, Parse
// gives up rather than looping over the remainder of a badly broken input.
const maxDiscardOnError = 1000

// Parse runs the engine to completion, returning the accepted AST's root.
// Diagnostics recorded along the way (syntax errors that were still
// recovered from, failed guards) are available via Diagnostics. If the input
// is accepted after errors were recorded, Parse returns the root together
// with a non-nil *SourceError; a nil tree with an error means recovery was
// exhausted and no tree could be formed.
func (e *Engine) Parse() (*ast.Ast, error) {
	e.stateStack = []int{e.tbl.StartState}
	e.nodeStack = nil
	e.fillLookahead()

	discards := 0
	for {
		state := e.currentState()
		tok := e.lookahead[0]

		symNum, ok := e.symNum[tok.Symbol]
		if !ok {
			e.diags.Add(diag.CodeSyntax, tok.Offset, tok.Pos, "unrecognized token symbol %q", tok.Symbol)
			if !e.recoverFromError() {
				return nil, fmt.Errorf("engine: unrecoverable syntax error at %d:%d", tok.Pos.Line, tok.Pos.Column)
			}
			discards++
			if discards > maxDiscardOnError {
				return nil, fmt.Errorf("engine: too many recovery attempts, giving up")
			}
			continue
		}

		entry, ok := e.tbl.Lookup(state, symNum)
		if ok && entry.Action == automaton.ActionLAShift {
			entry, ok = e.resolveLAShift(entry)
		}
		if !ok {
			e.diags.Add(diag.CodeSyntax, tok.Offset, tok.Pos, "unexpected token %q", tok.Symbol)
			if !e.recoverFromError() {
				return nil, fmt.Errorf("engine: unrecoverable syntax error at %d:%d", tok.Pos.Line, tok.Pos.Column)
			}
			discards++
			if discards > maxDiscardOnError {
				return nil, fmt.Errorf("engine: too many recovery attempts, giving up")
			}
			continue
		}
		discards = 0

		switch entry.Action {
		case automaton.ActionShift:
			e.shift(entry.State, tok)

		case automaton.ActionAccept:
			if len(e.nodeStack) == 0 {
				return nil, fmt.Errorf("engine: accept with empty node stack")
			}
			root := e.nodeStack[len(e.nodeStack)-1]
			if e.diags.HasErrors() {
				return root, &SourceError{Diagnostics: e.diags}
			}
			return root, nil

		case automaton.ActionReduce:
			if err := e.reduce(entry); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("engine: unexpected action kind %s at state %d", entry.Action, state)
		}
	}
}

// Diagnostics returns every diagnostic recorded during Parse so far.
func (e *Engine) Diagnostics() *diag.Bag {
	return e.diags
}

// SourceError reports that parsing reached Accept but recorded diagnostics
// along the way (recovered syntax errors, failed guards).
type SourceError struct {
	Diagnostics *diag.Bag
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("engine: %d diagnostic(s) recorded during parse", e.Diagnostics.Len())
}

func (e *Engine) currentState() int {
	return e.stateStack[len(e.stateStack)-1]
}

// fillLookahead tops the ring buffer up to two tokens (spec §4.E's
// lookahead-extension design needs to peek one token past the current one
// to resolve an ActionLAShift). A scan failure is recorded as a diagnostic
// and treated as end-of-input from then on, rather than aborting the parse
// outright: the LALR error-recovery machinery can still make progress (or
// fail cleanly via the usual unexpected-EOF path) once the scanner can no
// longer produce real tokens.
func (e *Engine) fillLookahead() {
	for len(e.lookahead) < 2 {
		if e.scanFailed || e.scanner.AtEOF() {
			e.lookahead = append(e.lookahead, Token{Symbol: grammar.EOF})
			continue
		}
		tok, err := e.scanner.Next()
		if err != nil {
			var scanErr *ErrScanFailed
			if errors.As(err, &scanErr) {
				e.diags.Add(diag.CodeLexical, scanErr.Offset, scanErr.Pos, "%s", scanErr.Error())
			}
			e.scanFailed = true
			e.lookahead = append(e.lookahead, Token{Symbol: grammar.EOF})
			continue
		}
		e.lookahead = append(e.lookahead, tok)
	}
}

// resolveLAShift peeks the second lookahead token to resolve an
// ActionLAShift cell into the real action (spec §4.E E.6: the LA-state's
// Actions map is keyed by the token one past the conflict).
func (e *Engine) resolveLAShift(laEntry table.Entry) (table.Entry, bool) {
	second := e.lookahead[1]
	symNum, ok := e.symNum[second.Symbol]
	if !ok {
		return table.Entry{}, false
	}
	return e.tbl.Lookup(laEntry.State, symNum)
}

// shift consumes the current lookahead token, pushing its leaf node and
// destination state.
func (e *Engine) shift(toState int, tok Token) {
	node := ast.New(e.tokKind[tok.Symbol], tok.Offset, tok.Pos, tok.Lexeme)
	e.nodeStack = append(e.nodeStack, node)
	e.stateStack = append(e.stateStack, toState)
	e.popLookahead()
}

func (e *Engine) popLookahead() {
	e.lookahead = e.lookahead[1:]
	e.fillLookahead()
}

// reduce pops |RHS| symbols, runs the rule's AST-former/guard bytecode, and
// pushes the formed node along with the Goto destination. If the stack holds
// fewer states than the rule needs (a shape that can arise once error
// recovery has altered the stack), it falls back to entry.Fallback's
// powerset state instead of computing Goto normally (spec §4.E E.7).
func (e *Engine) reduce(entry table.Entry) error {
	rule := e.pd.Rules[entry.Rule]
	n := rule.Size

	if len(e.nodeStack) < n || len(e.stateStack)-1 < n {
		return e.reduceWithFallback(entry, rule)
	}

	children := append([]*ast.Ast(nil), e.nodeStack[len(e.nodeStack)-n:]...)
	e.nodeStack = e.nodeStack[:len(e.nodeStack)-n]
	e.stateStack = e.stateStack[:len(e.stateStack)-n]

	tok := e.lookahead[0]
	formed, pass, err := e.interp.RunRule(rule.EntryPC, children, tok.Pos, tok.Offset)
	if err != nil {
		return fmt.Errorf("engine: rule %d: %w", entry.Rule, err)
	}
	if !pass {
		e.diags.Add(diag.CodeSyntax, tok.Offset, tok.Pos, "guard failed on rule %d (%s)", entry.Rule, rule.Text)
	}

	gotoEntry, ok := e.tbl.Lookup(e.currentState(), rule.LHSNum)
	if !ok {
		return fmt.Errorf("engine: no goto for state %d on %q", e.currentState(), rule.LHS)
	}
	e.stateStack = append(e.stateStack, gotoEntry.State)
	e.nodeStack = append(e.nodeStack, formed)
	return nil
}

// reduceWithFallback is the underflow path: the rule's Fallback powerset
// state substitutes directly for the state Goto would otherwise compute,
// since there aren't enough real states left on the stack to look one up
// (spec §4.E E.7's fallback_state, attached to every Reduce action during
// BuildErrorRecovery).
func (e *Engine) reduceWithFallback(entry table.Entry, rule pdata.RuleInfo) error {
	if entry.Fallback < 0 {
		return fmt.Errorf("engine: stack underflow on reduce of rule %d with no fallback state", entry.Rule)
	}

	popN := len(e.nodeStack)
	if rule.Size < popN {
		popN = rule.Size
	}
	children := append([]*ast.Ast(nil), e.nodeStack[len(e.nodeStack)-popN:]...)
	e.nodeStack = e.nodeStack[:len(e.nodeStack)-popN]

	stackPopN := len(e.stateStack) - 1
	if rule.Size < stackPopN {
		stackPopN = rule.Size
	}
	e.stateStack = e.stateStack[:len(e.stateStack)-stackPopN]

	tok := e.lookahead[0]
	formed, pass, err := e.interp.RunRule(rule.EntryPC, children, tok.Pos, tok.Offset)
	if err != nil {
		return fmt.Errorf("engine: rule %d (fallback): %w", entry.Rule, err)
	}
	if !pass {
		e.diags.Add(diag.CodeSyntax, tok.Offset, tok.Pos, "guard failed on rule %d (%s)", entry.Rule, rule.Text)
	}

	e.stateStack = append(e.stateStack, entry.Fallback)
	e.nodeStack = append(e.nodeStack, formed)
	return nil
}

// recoverFromError implements panic-mode recovery for a genuine syntax
// error (no table entry at all): transition onto the automaton's restart
// state, which BuildErrorRecovery expanded into a powerset of "where
// execution could resume from any plausible state"; if the restart state
// itself has no entry for the offending token either, the token is
// discarded and scanning continues. Returns false only once input is
// exhausted with no way forward.
func (e *Engine) recoverFromError() bool {
	if e.currentState() != e.tbl.RestartState {
		e.stateStack = append(e.stateStack, e.tbl.RestartState)
		return true
	}

	tok := e.lookahead[0]
	if tok.Symbol == grammar.EOF {
		return false
	}
	e.popLookahead()
	return true
}
