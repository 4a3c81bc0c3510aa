// Package table implements spec §4.F: renumbering symbols by descending
// action-frequency, bit-packing ParseAction fields into fixed-width rows,
// and Tarjan-Yao sparse-row compression of the resulting action table.
package table

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/dekarrin/hoshi/internal/automaton"
	"github.com/dekarrin/hoshi/internal/grammar"
)

// maxRowWords is the 8-machine-word budget spec §4.F allocates for the five
// packed fields of one action entry.
const maxRowWords = 8

// wordBits is the width of one "machine word" slot in the packed table.
// Chosen as 32 (matching the teacher corpus's general preference for
// fixed-width int32-shaped wire formats — e.g. rezi's own varint framing)
// rather than 64, so the 8-word budget is meaningfully exercised by
// realistic grammars instead of always fitting in one word.
const wordBits = 32

// ErrWordOverflow is returned when the five packed fields don't fit in
// maxRowWords machine words (spec §4.F, diag.CodeWordOverflow).
type ErrWordOverflow struct {
	NeededBits int
}

func (e *ErrWordOverflow) Error() string {
	return fmt.Sprintf("table: packed row needs %d bits, exceeds %d-word budget", e.NeededBits, maxRowWords*wordBits)
}

// Layout records the bit width and starting bit offset of each of the five
// packed fields (spec §4.F "Allocate five bit-fields ... symbol_num,
// action_type, rule_num, state_num (goto), fallback_state_num").
type Layout struct {
	SymbolBits, ActionBits, RuleBits, StateBits, FallbackBits int
	SymbolOff, ActionOff, RuleOff, StateOff, FallbackOff      int
	TotalBits                                                 int
	WordsPerEntry                                             int
}

func bitsFor(domainSize int) int {
	if domainSize <= 1 {
		return 1
	}
	return bits.Len(uint(domainSize - 1))
}

// ComputeLayout derives field widths from the domain sizes actually present
// in the automaton/grammar: number of (renumbered) symbols, number of
// ActionKind variants, number of rules, and number of automaton states
// (which bounds both goto and fallback targets).
func ComputeLayout(numSymbols, numRules, numStates int) (Layout, error) {
	l := Layout{
		SymbolBits:   bitsFor(numSymbols),
		ActionBits:   bitsFor(int(automaton.ActionRestart) + 1),
		RuleBits:     bitsFor(numRules),
		StateBits:    bitsFor(numStates),
		FallbackBits: bitsFor(numStates + 1), // +1 for "no fallback" sentinel
	}
	l.SymbolOff = 0
	l.ActionOff = l.SymbolOff + l.SymbolBits
	l.RuleOff = l.ActionOff + l.ActionBits
	l.StateOff = l.RuleOff + l.RuleBits
	l.FallbackOff = l.StateOff + l.StateBits
	l.TotalBits = l.FallbackOff + l.FallbackBits
	l.WordsPerEntry = (l.TotalBits + wordBits - 1) / wordBits
	if l.WordsPerEntry > maxRowWords {
		return l, &ErrWordOverflow{NeededBits: l.TotalBits}
	}
	if l.WordsPerEntry == 0 {
		l.WordsPerEntry = 1
	}
	return l, nil
}

// Entry is a decoded packed row slot.
type Entry struct {
	SymbolNum int
	Action    automaton.ActionKind
	Rule      int
	State     int
	Fallback  int // -1 if none
}

// Encode packs e into WordsPerEntry uint32 words according to l.
func (l Layout) Encode(e Entry) []uint32 {
	var bitval uint64
	bitval |= uint64(e.SymbolNum) << l.SymbolOff
	bitval |= uint64(e.Action) << l.ActionOff
	bitval |= uint64(e.Rule) << l.RuleOff
	bitval |= uint64(e.State) << l.StateOff
	fallback := e.Fallback
	if fallback < 0 {
		fallback = (1 << l.FallbackBits) - 1
	}
	bitval |= uint64(fallback) << l.FallbackOff

	words := make([]uint32, l.WordsPerEntry)
	for i := 0; i < l.WordsPerEntry; i++ {
		words[i] = uint32(bitval >> (i * wordBits))
	}
	return words
}

// Decode unpacks words (of length WordsPerEntry) back into an Entry.
func (l Layout) Decode(words []uint32) Entry {
	var bitval uint64
	for i, w := range words {
		bitval |= uint64(w) << (i * wordBits)
	}
	mask := func(width, off int) uint64 {
		return (bitval >> off) & ((1 << width) - 1)
	}

	fallback := int(mask(l.FallbackBits, l.FallbackOff))
	if fallback == (1<<l.FallbackBits)-1 {
		fallback = -1
	}

	return Entry{
		SymbolNum: int(mask(l.SymbolBits, l.SymbolOff)),
		Action:    automaton.ActionKind(mask(l.ActionBits, l.ActionOff)),
		Rule:      int(mask(l.RuleBits, l.RuleOff)),
		State:     int(mask(l.StateBits, l.StateOff)),
		Fallback:  fallback,
	}
}

// RenumberSymbols assigns each symbol's Num by descending frequency of
// appearance across every state's resolved Actions map, tie-broken
// terminal-before-nonterminal-before-everything-else and then by original
// name for determinism (spec §4.F "Renumber symbols by descending
// frequency ... ties broken terminal-before-nonterminal-before-everything-
// else"). Returns the symbols in their new numeric order.
func RenumberSymbols(g *grammar.Grammar, aut *automaton.Automaton) []*grammar.Symbol {
	freq := map[string]int{}
	for _, st := range aut.States {
		for sym := range st.Actions {
			freq[sym]++
		}
	}

	syms := g.Symbols()
	rank := func(s *grammar.Symbol) int {
		switch {
		case s.IsTerminal:
			return 0
		case s.IsNonterminal:
			return 1
		default:
			return 2
		}
	}

	sort.SliceStable(syms, func(i, j int) bool {
		fi, fj := freq[syms[i].Name], freq[syms[j].Name]
		if fi != fj {
			return fi > fj
		}
		ri, rj := rank(syms[i]), rank(syms[j])
		if ri != rj {
			return ri < rj
		}
		return syms[i].Name < syms[j].Name
	})

	for i, s := range syms {
		s.Num = i
	}
	return syms
}
