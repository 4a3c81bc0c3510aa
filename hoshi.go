// Package hoshi is the root-level lifecycle API (spec §6): load a grammar,
// generate a parser artifact from it, and run that artifact against source
// text, all through one Parser value.
package hoshi

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"os"

	"github.com/dekarrin/hoshi/internal/ast"
	"github.com/dekarrin/hoshi/internal/config"
	"github.com/dekarrin/hoshi/internal/diag"
	"github.com/dekarrin/hoshi/internal/engine"
	"github.com/dekarrin/hoshi/internal/extract"
	"github.com/dekarrin/hoshi/internal/generate"
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/meta"
	"github.com/dekarrin/hoshi/internal/pdata"
	"github.com/dekarrin/hoshi/internal/source"
)

// ErrExportUnsupported is returned by ExportCPP: this build only ever
// targets the bytecode VM internal/engine runs, never C++ source emission
// (spec §1 Non-goals — "source-code emission").
var ErrExportUnsupported = errors.New("hoshi: C++ source export is not supported by this generator")

// Parser is the lifecycle object a caller drives through Generate then
// Parse (spec §6). It is not safe for concurrent use by multiple
// goroutines without external synchronization beyond what Copy gives you:
// Copy hands back an independent Parser sharing the same underlying
// ParserData via reference counting, so two Parsers from one Copy can each
// Parse concurrently, but neither is safe to Generate/Parse from two
// goroutines at once.
type Parser struct {
	mu sync.Mutex

	pd *pdata.ParserData

	grammarLoaded bool
	grammarFailed bool
	sourceLoaded  bool
	sourceFailed  bool

	genDiag   *diag.Bag
	parseDiag *diag.Bag

	lastAST *ast.Ast
}

// New returns an empty Parser with no grammar loaded.
func New() *Parser {
	return &Parser{genDiag: &diag.Bag{}, parseDiag: &diag.Bag{}}
}

// Generate reads a grammar-source document from src, extracts and expands
// it (internal/meta, internal/extract), and runs the full generation
// pipeline (internal/generate) to build a ready-to-parse artifact. kindMap
// seeds the AST-kind name<->int table the generated artifact resolves
// AstNew kind names against; it is taken by value (not *grammar.KindMap)
// so the caller's own variable is never mutated by generation auto-
// assigning ids to kind names it didn't list explicitly — the artifact
// gets its own private copy to extend.
func (p *Parser) Generate(src io.Reader, kindMap grammar.KindMap, flags config.DebugFlags) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.grammarLoaded = false
	p.grammarFailed = false
	p.genDiag = &diag.Bag{}

	buf, err := readBuffer(src)
	if err != nil {
		p.grammarFailed = true
		return fmt.Errorf("hoshi: reading grammar source: %w", err)
	}

	root, bag := meta.ReadGrammar(buf)
	p.genDiag.Merge(bag)
	if bag.HasErrors() {
		p.grammarFailed = true
		return fmt.Errorf("hoshi: parsing grammar source: %d diagnostic(s)", bag.Len())
	}

	g, opts, bag := extract.FromNode(root, buf)
	p.genDiag.Merge(bag)
	if bag.HasErrors() {
		p.grammarFailed = true
		return fmt.Errorf("hoshi: extracting grammar: %d diagnostic(s)", bag.Len())
	}

	// kindMap arrives by value and may be an uninitialized zero value (its
	// maps nil) if the caller never went through NewKindMap; rebuild a
	// properly initialized copy from its entries rather than trust the
	// struct's internal fields directly.
	km := grammar.NewKindMapFromEntries(kindMap.Entries())
	pd, bag, err := generate.FromGrammar(g, opts, config.DefaultGeneratorOptions(), km, flags, os.Stderr)
	p.genDiag.Merge(bag)
	if err != nil {
		p.grammarFailed = true
		return fmt.Errorf("hoshi: generating parser: %w", err)
	}

	p.pd = pd
	p.grammarLoaded = true
	return nil
}

// Parse runs the generated artifact against src (spec §6). Generate must
// have succeeded first.
func (p *Parser) Parse(src io.Reader, flags config.DebugFlags) (*ast.Ast, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sourceLoaded = false
	p.sourceFailed = false
	p.parseDiag = &diag.Bag{}

	if p.pd == nil {
		p.sourceFailed = true
		return nil, errors.New("hoshi: no grammar loaded, call Generate first")
	}

	buf, err := readBuffer(src)
	if err != nil {
		p.sourceFailed = true
		return nil, fmt.Errorf("hoshi: reading source: %w", err)
	}

	_ = flags // VM/scanner trace destinations are a future cmd/ concern; no-op here

	eng := engine.New(p.pd, buf)
	tree, err := eng.Parse()
	p.parseDiag.Merge(eng.Diagnostics())

	// A *SourceError means the parse reached Accept but still recorded
	// diagnostics along the way (recovered syntax errors, failed guards):
	// tree is non-nil and usable, so it's still surfaced rather than
	// discarded, the same way engine.Parse itself returns both.
	var srcErr *engine.SourceError
	if err != nil && !errors.As(err, &srcErr) {
		p.sourceFailed = true
		return nil, fmt.Errorf("hoshi: parsing source: %w", err)
	}

	p.lastAST = tree
	p.sourceLoaded = true
	return tree, err
}

// GetAST returns the AST produced by the most recent successful Parse, or
// nil if none has succeeded yet.
func (p *Parser) GetAST() *ast.Ast {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastAST
}

// GetErrorMessages returns every diagnostic recorded across both the most
// recent Generate and the most recent Parse, sorted by source position
// (spec §5 "Ordering guarantees").
func (p *Parser) GetErrorMessages() []diag.Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()
	merged := &diag.Bag{}
	merged.Merge(p.genDiag)
	merged.Merge(p.parseDiag)
	return merged.Sorted()
}

// Encode serializes the generated artifact, for reuse without re-running
// generation (spec §3 "ParserData").
func (p *Parser) Encode() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pd == nil {
		return nil, errors.New("hoshi: no grammar loaded, nothing to encode")
	}
	return p.pd.Encode()
}

// Decode rebuilds a Parser from a previously Encoded artifact. kindMap
// overlays any additional name<->id pairs the caller wants guaranteed
// present (e.g. constants their own code already references); the
// artifact's own embedded kind table, which is authoritative for
// everything recorded at generation time, is installed first, and entries
// already present in it are left untouched rather than overwritten.
func Decode(data []byte, kindMap grammar.KindMap) (*Parser, error) {
	pd, err := pdata.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("hoshi: decoding artifact: %w", err)
	}
	existing := pd.Kinds.Entries()
	for name, num := range kindMap.Entries() {
		if _, taken := existing[name]; !taken && pd.Kinds.NameFor(num) == "" {
			pd.Kinds.Set(name, num)
		}
	}
	return &Parser{
		pd:            pd,
		grammarLoaded: true,
		genDiag:       &diag.Bag{},
		parseDiag:     &diag.Bag{},
	}, nil
}

// ExportCPP is not implemented: this generator only ever targets
// internal/engine's bytecode VM, never C++ source emission (spec §1
// Non-goals).
func (p *Parser) ExportCPP(path, identifier string) error {
	return ErrExportUnsupported
}

// IsGrammarLoaded reports whether the most recent Generate succeeded.
func (p *Parser) IsGrammarLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grammarLoaded
}

// IsGrammarFailed reports whether the most recent Generate failed.
func (p *Parser) IsGrammarFailed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grammarFailed
}

// IsSourceLoaded reports whether the most recent Parse succeeded.
func (p *Parser) IsSourceLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sourceLoaded
}

// IsSourceFailed reports whether the most recent Parse failed.
func (p *Parser) IsSourceFailed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sourceFailed
}

// Copy returns an independent Parser sharing the same underlying
// ParserData via reference counting (spec §5's copy-on-write model):
// cheap to call, and safe to Parse from concurrently with the original
// since neither Parser ever mutates pd after generation.
func (p *Parser) Copy() *Parser {
	p.mu.Lock()
	defer p.mu.Unlock()

	clone := &Parser{
		grammarLoaded: p.grammarLoaded,
		grammarFailed: p.grammarFailed,
		genDiag:       &diag.Bag{},
		parseDiag:     &diag.Bag{},
	}
	clone.genDiag.Merge(p.genDiag)
	if p.pd != nil {
		clone.pd = p.pd.Retain()
	}
	return clone
}

func readBuffer(src io.Reader) (*source.Buffer, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return source.New(string(data))
}
