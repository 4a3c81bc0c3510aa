package automaton

import (
	"fmt"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/hoshi/internal/grammar"
)

// Dump renders aut as a dense ACTION/GOTO table, one row per state, columns
// "A:<terminal>" for resolved actions and "G:<nonterminal>" for goto edges —
// the same shape internal/ictiobus/parse/lalr.go's lalr1Table.String() used
// to debug the teacher's own table before it was superseded by
// internal/table's bit-packed encoding. Intended for -debug-trace dumps
// (spec §7), not for anything the parser itself reads at runtime.
func Dump(g *grammar.Grammar, aut *Automaton) string {
	terms := g.Terminals()
	nonterms := g.NonTerminals()

	header := []string{"S", "|"}
	for _, t := range terms {
		header = append(header, fmt.Sprintf("A:%s", t.Name))
	}
	header = append(header, "|")
	for _, nt := range nonterms {
		header = append(header, fmt.Sprintf("G:%s", nt.Name))
	}

	data := [][]string{header}
	for _, num := range sortedStateNums(aut) {
		st := aut.States[num]
		row := []string{fmt.Sprintf("%d", num), "|"}

		for _, t := range terms {
			cell := ""
			if a, ok := st.Actions[t.Name]; ok {
				cell = actionCell(a)
			}
			row = append(row, cell)
		}

		row = append(row, "|")

		for _, nt := range nonterms {
			cell := ""
			if dest, ok := st.Goto[nt.Name]; ok {
				cell = fmt.Sprintf("%d", dest)
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

func actionCell(a Action) string {
	switch a.Kind {
	case ActionAccept:
		return "acc"
	case ActionReduce:
		return fmt.Sprintf("r%d", a.Rule)
	case ActionShift:
		return fmt.Sprintf("s%d", a.Goto)
	case ActionLAShift:
		return fmt.Sprintf("la%d", a.Goto)
	case ActionRestart:
		return fmt.Sprintf("e%d", a.Goto)
	default:
		return ""
	}
}
