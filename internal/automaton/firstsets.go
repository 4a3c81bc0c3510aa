// Package automaton builds the LALR(k) automaton from a normalized grammar:
// first-sets, the canonical LR(0)/LR(1) item collections, LALR(1) lookahead
// merging, lookahead extension to resolve conflicts, and the powerset
// error-recovery states (spec §4.E, phases E.1-E.7).
package automaton

import (
	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/setx"
)

// FirstSets holds the nullable-set and FIRST-set tables for a grammar (spec
// §4.E E.1). Built once per generation run and threaded through closure/goto.
type FirstSets struct {
	nullable setx.StringSet
	first    map[string]setx.StringSet
}

// ComputeFirstSets computes nullability and FIRST sets for every symbol in g
// by iterative fixpoint. Spec §4.E describes this as a three-step process
// (nullable fixpoint, propagate-map construction, seeded propagation); the
// two-pass iteration below computes the same fixpoint directly rather than
// building the propagate map as an intermediate structure, since Go's map
// iteration plus a dirty flag gets to the same fixpoint without the extra
// bookkeeping the original describes (no pack example builds an explicit
// propagate-graph for this either; it's a standard dataflow fixpoint).
func ComputeFirstSets(g *grammar.Grammar) *FirstSets {
	fs := &FirstSets{
		nullable: setx.NewStringSet(),
		first:    map[string]setx.StringSet{},
	}

	for _, sym := range g.Symbols() {
		if sym.IsTerminal {
			fs.first[sym.Name] = setx.StringSetOf([]string{sym.Name})
		} else {
			fs.first[sym.Name] = setx.NewStringSet()
		}
	}
	// *epsilon* is nullable by definition and is its own "first".
	fs.nullable.Add(grammar.Epsilon)

	changed := true
	for changed {
		changed = false

		for _, r := range g.Rules() {
			allNullable := true
			for _, sym := range r.RHS {
				if sym.Name == grammar.Epsilon {
					continue
				}
				if !fs.nullable.Has(sym.Name) {
					allNullable = false
					break
				}
			}
			if (len(r.RHS) == 0 || allNullable) && !fs.nullable.Has(r.LHS.Name) {
				fs.nullable.Add(r.LHS.Name)
				changed = true
			}

			lhsFirst := fs.first[r.LHS.Name]
			for _, sym := range r.RHS {
				if sym.Name == grammar.Epsilon {
					continue
				}
				before := lhsFirst.Len()
				lhsFirst.AddAll(fs.first[sym.Name])
				if lhsFirst.Len() != before {
					changed = true
				}
				if !fs.nullable.Has(sym.Name) {
					break
				}
			}
			fs.first[r.LHS.Name] = lhsFirst
		}
	}

	return fs
}

// Nullable reports whether symbol name can derive the empty string.
func (fs *FirstSets) Nullable(name string) bool {
	return fs.nullable.Has(name)
}

// First returns the FIRST set of the single symbol name.
func (fs *FirstSets) First(name string) setx.StringSet {
	return fs.first[name]
}

// FirstOfSequence computes FIRST(names[0] names[1] ...), along with whether
// the whole sequence is nullable (spec §3 Item's "first_set of the suffix").
func (fs *FirstSets) FirstOfSequence(names []string) (setx.StringSet, bool) {
	out := setx.NewStringSet()
	for _, name := range names {
		if name == grammar.Epsilon {
			continue
		}
		out.AddAll(fs.first[name])
		if !fs.nullable.Has(name) {
			return out, false
		}
	}
	return out, true
}
