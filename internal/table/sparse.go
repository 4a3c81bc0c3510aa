package table

import (
	"sort"

	"github.com/dekarrin/hoshi/internal/automaton"
	"github.com/dekarrin/hoshi/internal/grammar"
)

// freeWord is the sentinel marking an as-yet-unclaimed word slot in
// CheckedData, distinguished from any real packed value by being all-ones
// (spec §4.F: "mark those words used and record checked_index[state]=i ...
// mismatch is implicit Error" — a slot whose decoded symbol_num doesn't
// match the probing symbol, which an untouched freeWord slot never will,
// since no real SymbolBits pattern is reserved for it specially; the
// decoder's bounds check treats an out-of-range SymbolNum as "never
// written" too).
const freeWord uint32 = 0xFFFFFFFF

// Table is the flattened, sparse-row-compressed action table (spec §4.F,
// feeding directly into pdata.ParserData's LALR tables).
type Table struct {
	Layout       Layout
	NumOffsets   int // stride between a state's own symbol slots = len(symbols)
	CheckedIndex []int
	CheckedData  []uint32
	StartState   int
	RestartState int
}

// Build runs the Tarjan-Yao displacement algorithm (spec §4.F "Sparse row
// compression"): order states by descending action-count; for each state,
// find the smallest offset i (stride NumOffsets) such that every word the
// row would occupy is currently free and no other state already uses i,
// reserve those words, and record checked_index[state] = i. Distinct offsets
// are what make a decoded symbol_num match only for the owning state. Grounded on the teacher's
// internal/ictiobus/parse/lraction.go LRAction/ParseAction shape (the five
// logical fields it models) — the sparse-row displacement mechanics
// themselves aren't present in any retrieved file (the teacher's own
// lrParser keeps one dense map[state][symbol]LRAction per table instead of
// flattening it), so this compression pass is built directly from spec
// §4.F's description.
func Build(g *grammar.Grammar, aut *automaton.Automaton, symbols []*grammar.Symbol) (*Table, error) {
	numStates := len(aut.States)
	numSymbols := len(symbols)

	layout, err := ComputeLayout(numSymbols, len(g.Rules()), numStates)
	if err != nil {
		return nil, err
	}

	type stateRow struct {
		stateNum int
		entries  map[int]Entry // symbolNum -> entry
	}

	rows := make([]stateRow, numStates)
	for i, st := range aut.States {
		row := stateRow{stateNum: st.Num, entries: map[int]Entry{}}
		for sym, a := range st.Actions {
			s, ok := g.LookupSymbol(sym)
			if !ok {
				continue
			}
			row.entries[s.Num] = Entry{
				SymbolNum: s.Num,
				Action:    a.Kind,
				Rule:      a.Rule,
				State:     a.Goto,
				Fallback:  a.Fallback,
			}
		}
		rows[i] = row
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return len(rows[i].entries) > len(rows[j].entries)
	})

	wordsPerSlot := layout.WordsPerEntry
	checkedIndex := make([]int, numStates)
	for i := range checkedIndex {
		checkedIndex[i] = -1
	}

	var data []uint32
	isFree := func(wordIdx int) bool {
		return wordIdx >= len(data) || data[wordIdx] == freeWord
	}
	ensureLen := func(n int) {
		for len(data) < n {
			data = append(data, freeWord)
		}
	}

	usedOffsets := map[int]bool{}
	for _, row := range rows {
		offset := 0
		for {
			fits := true
			for symNum := range row.entries {
				base := (offset + symNum) * wordsPerSlot
				for w := 0; w < wordsPerSlot; w++ {
					if !isFree(base + w) {
						fits = false
						break
					}
				}
				if !fits {
					break
				}
			}
			if fits && !usedOffsets[offset] {
				break
			}
			offset++
		}
		usedOffsets[offset] = true

		checkedIndex[row.stateNum] = offset
		for symNum, entry := range row.entries {
			base := (offset + symNum) * wordsPerSlot
			ensureLen(base + wordsPerSlot)
			words := layout.Encode(entry)
			copy(data[base:base+wordsPerSlot], words)
		}
	}

	return &Table{
		Layout:       layout,
		NumOffsets:   numSymbols,
		CheckedIndex: checkedIndex,
		CheckedData:  data,
		StartState:   aut.StartState,
		RestartState: aut.RestartState,
	}, nil
}

// Lookup decodes the action for (state, symbolNum), returning ok=false if
// the slot is unwritten or its decoded symbol_num doesn't match (implicit
// Error per spec §4.F/§4.I step 1).
func (t *Table) Lookup(state, symbolNum int) (Entry, bool) {
	idx := t.CheckedIndex[state]
	base := (idx + symbolNum) * t.Layout.WordsPerEntry
	if base+t.Layout.WordsPerEntry > len(t.CheckedData) {
		return Entry{}, false
	}
	words := t.CheckedData[base : base+t.Layout.WordsPerEntry]
	allFree := true
	for _, w := range words {
		if w != freeWord {
			allFree = false
			break
		}
	}
	if allFree {
		return Entry{}, false
	}
	e := t.Layout.Decode(words)
	if e.SymbolNum != symbolNum {
		return Entry{}, false
	}
	return e, true
}
