// Package pdata implements the frozen, shareable ParserData artifact (spec
// §3 "ParserData", §4.H): grammar metadata, token/rule tables, the LALR
// action table, and the compiled VM bytecode, serialized with
// github.com/dekarrin/rezi the same way the teacher's
// server/dao/sqlite/sessions.go round-trips its session-state blob.
package pdata

import (
	"sync"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"

	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/table"
	"github.com/dekarrin/hoshi/internal/vmgen"
)

// TokenInfo is one row of the token table (spec §3: "token tables (name,
// is-terminal, kind, lexeme-needed)").
type TokenInfo struct {
	Name         string
	IsTerminal   bool
	Kind         int
	LexemeNeeded bool
}

// RuleInfo is one row of the rule table (spec §3: "rule tables (size, lhs,
// text, bytecode entry-pc)").
type RuleInfo struct {
	Size    int
	LHS     string
	LHSNum  int // renumbered symbol id of LHS, for the post-reduce Goto lookup
	Text    string
	EntryPC int
}

// SymbolInfo is one row of the renumbered symbol table (spec §4.F
// "Renumber symbols by descending frequency"): the engine needs every
// symbol's table-relative Num, not just terminals, to drive both Shift
// (terminal) and Goto (nonterminal) lookups against table.Table.
type SymbolInfo struct {
	Name       string
	Num        int
	IsTerminal bool
}

// LALRTables holds the flattened action table (spec §3 "LALR tables").
type LALRTables struct {
	StartState   int
	RestartState int
	NumOffsets   int
	CheckedIndex []int
	CheckedData  []uint32

	SymbolBits, ActionBits, RuleBits, StateBits, FallbackBits int
	SymbolOff, ActionOff, RuleOff, StateOff, FallbackOff      int
	WordsPerEntry                                             int
}

// VMTables holds the compiled bytecode (spec §3 "VM tables").
type VMTables struct {
	Instructions []vmgen.Instruction
	Operands     []int32
	Strings      []string
	ScannerEntry int // instruction index of the scanner's ScanStart
}

// ParserData is the immutable artifact produced by generation and consumed
// by the execution engine (spec §3). Once attached to a Parser it is never
// mutated; Retain/Release implement the reference counting spec §3 and §5
// require for copy-on-write sharing across Parser.Copy() instances.
type ParserData struct {
	ArtifactID uuid.UUID

	Tokens  []TokenInfo
	Rules   []RuleInfo
	Symbols []SymbolInfo
	LALR    LALRTables
	VM      VMTables

	// Kinds is the AST-kind name<->int table (spec §6 "Kind map") that was
	// in effect when this artifact was generated, carried along so a
	// decoded artifact resolves AstNew kind names identically to how it did
	// at generation time, without the caller having to supply an
	// equivalent KindMap by hand at Parse time.
	Kinds *grammar.KindMap

	mu   sync.Mutex
	refs int
}

// New wraps the given tables into a ParserData with one reference held.
func New(tokens []TokenInfo, rules []RuleInfo, lalr LALRTables, vm VMTables) *ParserData {
	return &ParserData{
		ArtifactID: uuid.New(),
		Tokens:     tokens,
		Rules:      rules,
		LALR:       lalr,
		VM:         vm,
		Kinds:      grammar.NewKindMap(),
		refs:       1,
	}
}

// WithKinds attaches the AST-kind map and returns pd for chaining.
func (pd *ParserData) WithKinds(kinds *grammar.KindMap) *ParserData {
	pd.Kinds = kinds
	return pd
}

// WithSymbols attaches the renumbered symbol table and returns pd for
// chaining, used by the generation pipeline once table.RenumberSymbols has
// run.
func (pd *ParserData) WithSymbols(symbols []SymbolInfo) *ParserData {
	pd.Symbols = symbols
	return pd
}

// Retain increments the reference count, returning pd for chaining. Called
// by Parser.Copy() when a copy-on-write clone starts sharing pd rather than
// deep-copying it (spec §5 concurrency model).
func (pd *ParserData) Retain() *ParserData {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.refs++
	return pd
}

// Release decrements the reference count. The caller must not use pd again
// after a Release that brings the count to zero.
func (pd *ParserData) Release() {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	pd.refs--
}

// RefCount reports the current reference count, chiefly for tests.
func (pd *ParserData) RefCount() int {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	return pd.refs
}

// wireFormat is the rezi-serializable shape of ParserData: the plain data
// fields only, never the mutex/refcount (those are per-process bookkeeping,
// not part of the portable artifact).
type wireFormat struct {
	ArtifactID  string
	Tokens      []TokenInfo
	Rules       []RuleInfo
	Symbols     []SymbolInfo
	LALR        LALRTables
	VM          VMTables
	KindEntries map[string]int
}

// Encode serializes pd with rezi, the same binary-round-trip library the
// teacher's session DAO uses for its state blob.
func (pd *ParserData) Encode() ([]byte, error) {
	var entries map[string]int
	if pd.Kinds != nil {
		entries = pd.Kinds.Entries()
	}
	w := wireFormat{
		ArtifactID:  pd.ArtifactID.String(),
		Tokens:      pd.Tokens,
		Rules:       pd.Rules,
		Symbols:     pd.Symbols,
		LALR:        pd.LALR,
		VM:          pd.VM,
		KindEntries: entries,
	}
	return rezi.Enc(w)
}

// Decode deserializes a ParserData artifact produced by Encode, returning a
// fresh instance with a single reference held. A version mismatch between
// the decoding binary's opcode set and what the artifact was generated
// against isn't separately flagged here: rezi.Dec already fails outright on
// a wire shape it can't decode, which is the detectable half of "decoded
// artifact does not match the binary's opcode set" (spec §4.H); the other
// half (same shape, different opcode meanings) has no wire signal to check
// against and is out of scope.
func Decode(data []byte) (*ParserData, error) {
	var w wireFormat
	if _, err := rezi.Dec(data, &w); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(w.ArtifactID)
	if err != nil {
		return nil, err
	}
	return &ParserData{
		ArtifactID: id,
		Tokens:     w.Tokens,
		Rules:      w.Rules,
		Symbols:    w.Symbols,
		LALR:       w.LALR,
		VM:         w.VM,
		Kinds:      grammar.NewKindMapFromEntries(w.KindEntries),
		refs:       1,
	}, nil
}

// FromTable copies an automaton/table.Table's flattened fields into the
// LALRTables wire shape.
func FromTable(t *table.Table) LALRTables {
	return LALRTables{
		StartState:    t.StartState,
		RestartState:  t.RestartState,
		NumOffsets:    t.NumOffsets,
		CheckedIndex:  t.CheckedIndex,
		CheckedData:   t.CheckedData,
		SymbolBits:    t.Layout.SymbolBits,
		ActionBits:    t.Layout.ActionBits,
		RuleBits:      t.Layout.RuleBits,
		StateBits:     t.Layout.StateBits,
		FallbackBits:  t.Layout.FallbackBits,
		SymbolOff:     t.Layout.SymbolOff,
		ActionOff:     t.Layout.ActionOff,
		RuleOff:       t.Layout.RuleOff,
		StateOff:      t.Layout.StateOff,
		FallbackOff:   t.Layout.FallbackOff,
		WordsPerEntry: t.Layout.WordsPerEntry,
	}
}

// ToTable reconstructs a table.Table view over lt, for the execution engine
// to run table.Table.Lookup against a decoded artifact without engine
// needing to know the wire layout's field names.
func (lt LALRTables) ToTable() *table.Table {
	return &table.Table{
		Layout: table.Layout{
			SymbolBits:    lt.SymbolBits,
			ActionBits:    lt.ActionBits,
			RuleBits:      lt.RuleBits,
			StateBits:     lt.StateBits,
			FallbackBits:  lt.FallbackBits,
			SymbolOff:     lt.SymbolOff,
			ActionOff:     lt.ActionOff,
			RuleOff:       lt.RuleOff,
			StateOff:      lt.StateOff,
			FallbackOff:   lt.FallbackOff,
			WordsPerEntry: lt.WordsPerEntry,
		},
		NumOffsets:   lt.NumOffsets,
		CheckedIndex: lt.CheckedIndex,
		CheckedData:  lt.CheckedData,
		StartState:   lt.StartState,
		RestartState: lt.RestartState,
	}
}
