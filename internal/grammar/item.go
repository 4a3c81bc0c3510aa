package grammar

import "fmt"

// Item is an LR(0) item: a rule with a dot marking how much of the RHS has
// been recognized (spec §3 "Item"). It is a lightweight value — rule/dot —
// rather than an allocated node with explicit prev/next pointers; since a
// rule's items for dot=0..len(RHS) are just consecutive positions into its
// RHS slice, "doubly-linked chains within a rule" (spec §3) fall out of
// slice indexing for free; Prev/Advance below exist only to make that
// adjacency explicit at call sites, mirroring the LR0Item/LR1Item pattern
// of internal/ictiobus/grammar/item.go (there represented by copying
// Left/Right string slices; here by a rule number and a dot offset, which
// is cheaper to hash and compare when used as a set key).
type Item struct {
	RuleNum int
	Dot     int
}

// Rule returns the rule this item points into.
func (it Item) Rule(g *Grammar) *Rule {
	return g.Rule(it.RuleNum)
}

// AtEnd reports whether the dot has reached the end of the RHS (a
// "completed" item).
func (it Item) AtEnd(g *Grammar) bool {
	return it.Dot >= len(it.Rule(g).RHS)
}

// NextSymbol returns the symbol immediately after the dot, or nil if the
// item is complete.
func (it Item) NextSymbol(g *Grammar) *Symbol {
	r := it.Rule(g)
	if it.Dot >= len(r.RHS) {
		return nil
	}
	return r.RHS[it.Dot]
}

// Advance returns the item with the dot moved one position to the right.
// Panics if the item is already complete, since advancing past the end is
// always a programmer error in this codebase's callers (goto construction
// always checks NextSymbol first).
func (it Item) Advance(g *Grammar) Item {
	if it.AtEnd(g) {
		panic(fmt.Sprintf("grammar: cannot advance completed item %s", it.String(g)))
	}
	return Item{RuleNum: it.RuleNum, Dot: it.Dot + 1}
}

// Prev returns the item one dot position to the left, and whether one
// exists (false at Dot==0).
func (it Item) Prev() (Item, bool) {
	if it.Dot == 0 {
		return Item{}, false
	}
	return Item{RuleNum: it.RuleNum, Dot: it.Dot - 1}, true
}

// String renders the item as `LHS -> alpha . beta`.
func (it Item) String(g *Grammar) string {
	r := it.Rule(g)
	out := r.LHS.Name + " ->"
	for i, s := range r.RHS {
		if i == it.Dot {
			out += " ."
		}
		out += " " + s.Name
	}
	if it.Dot == len(r.RHS) {
		out += " ."
	}
	return out
}

// LookaheadItem is an LR(1) item: an LR(0) item annotated with a single
// lookahead terminal (spec §3).
type LookaheadItem struct {
	Item
	Lookahead string
}

func (li LookaheadItem) String(g *Grammar) string {
	return fmt.Sprintf("%s, %s", li.Item.String(g), li.Lookahead)
}
