// Package diag implements the ordered diagnostic list shared by grammar
// generation and source parsing (spec §3 "Error handler", §7).
package diag

import (
	"fmt"
	"sort"

	"github.com/dekarrin/hoshi/internal/source"
)

// Code enumerates every diagnostic Hoshi can raise, matching the surface
// Error enum from spec §6.
type Code int

const (
	CodeError Code = iota
	CodeWarning
	CodeUnknownMacro
	CodeDupGrammarOption
	CodeDupToken
	CodeDupTokenOption
	CodeUnusedTerm
	CodeUndefinedNonterm
	CodeUnusedNonterm
	CodeUselessNonterm
	CodeUselessRule
	CodeReadsCycle
	CodeSymbolSelfProduce
	CodeLalrConflict
	CodeWordOverflow
	CodeCharacterRange
	CodeRegexConflict
	CodeDupAstItem
	CodeSyntax
	CodeLexical
	CodeAstIndex
)

var codeNames = [...]string{
	"Error", "Warning", "UnknownMacro", "DupGrammarOption", "DupToken",
	"DupTokenOption", "UnusedTerm", "UndefinedNonterm", "UnusedNonterm",
	"UselessNonterm", "UselessRule", "ReadsCycle", "SymbolSelfProduce",
	"LalrConflict", "WordOverflow", "CharacterRange", "RegexConflict",
	"DupAstItem", "Syntax", "Lexical", "AstIndex",
}

func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return codeNames[c]
}

// Severity distinguishes faults that abort generation/parsing from ones that
// are merely reported.
type Severity int

const (
	SevWarning Severity = iota
	SevError
)

// gradeFault reports whether Code normally carries SevError severity. Most
// codes are hard errors; only the explicit Warning code and UnusedTerm/
// UnusedNonterm/UselessNonterm/UselessRule "dead grammar" advisories are
// warnings by default.
func gradeFault(c Code) Severity {
	switch c {
	case CodeWarning, CodeUnusedTerm, CodeUnusedNonterm, CodeUselessNonterm, CodeUselessRule:
		return SevWarning
	default:
		return SevError
	}
}

// Diagnostic is a single reported fault, keyed by its position in the source
// it was discovered in.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Offset   int // rune offset into the originating source.Buffer, or -1
	Position source.Position
	Message  string
}

func (d Diagnostic) String() string {
	if d.Offset < 0 {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %d:%d: %s", d.Code, d.Position.Line, d.Position.Column, d.Message)
}

// Bag accumulates diagnostics during generation or parsing. Diagnostics are
// sorted by source offset before being handed back to a caller; insertion
// order is preserved for diagnostics at the same offset (spec §5 "Ordering
// guarantees").
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic whose severity is derived from its code
// (gradeFault).
func (b *Bag) Add(code Code, offset int, pos source.Position, format string, args ...any) {
	b.items = append(b.items, Diagnostic{
		Code:     code,
		Severity: gradeFault(code),
		Offset:   offset,
		Position: pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddAt is like Add but for diagnostics with no meaningful source offset
// (internal faults, whole-grammar faults discovered after extraction).
func (b *Bag) AddAt(code Code, format string, args ...any) {
	b.Add(code, -1, source.Position{}, format, args...)
}

// Len returns the number of diagnostics recorded.
func (b *Bag) Len() int {
	return len(b.items)
}

// HasErrors returns whether any recorded diagnostic has SevError severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SevError {
			return true
		}
	}
	return false
}

// Sorted returns the diagnostics ordered by source offset, ties broken by
// insertion order. The Bag's internal order is left untouched.
func (b *Bag) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Offset < out[j].Offset
	})

	return out
}

// Merge appends all diagnostics from other into b, preserving other's
// internal order.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}
