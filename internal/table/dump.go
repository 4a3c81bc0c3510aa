package table

import (
	"fmt"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/hoshi/internal/automaton"
	"github.com/dekarrin/hoshi/internal/grammar"
)

// Dump renders t's sparse-packed rows back out as a dense per-state action
// table, decoding each (state, symbol) slot through Lookup rather than
// reading the CheckedData words directly — the physical-layout counterpart
// to automaton.Dump's pre-packing logical table, following the same
// row-of-states/column-of-symbols shape internal/ictiobus/parse/lalr.go's
// lalr1Table.String() rendered before this table's bit-packing replaced it.
// Intended for -debug-trace dumps (spec §7) of the table actually shipped in
// pdata.ParserData, not for anything the parser reads at runtime.
func (t *Table) Dump(symbols []*grammar.Symbol) string {
	header := []string{"S", "idx", "|"}
	for _, s := range symbols {
		header = append(header, s.Name)
	}

	data := [][]string{header}
	for state := 0; state < len(t.CheckedIndex); state++ {
		row := []string{fmt.Sprintf("%d", state), fmt.Sprintf("%d", t.CheckedIndex[state]), "|"}
		for _, s := range symbols {
			cell := ""
			if e, ok := t.Lookup(state, s.Num); ok {
				cell = entryCell(e)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func entryCell(e Entry) string {
	switch e.Action {
	case automaton.ActionAccept:
		return "acc"
	case automaton.ActionReduce:
		return fmt.Sprintf("r%d", e.Rule)
	case automaton.ActionShift, automaton.ActionLAShift:
		return fmt.Sprintf("s%d", e.State)
	case automaton.ActionRestart:
		return fmt.Sprintf("e%d", e.State)
	case automaton.ActionGoto:
		return fmt.Sprintf("%d", e.State)
	default:
		return ""
	}
}
