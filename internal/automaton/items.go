package automaton

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/hoshi/internal/grammar"
)

// itemKey is the map key for a bare LR(0) item: "rule:dot".
func itemKey(it grammar.Item) string {
	return fmt.Sprintf("%d:%d", it.RuleNum, it.Dot)
}

// laItemKey is the map key for an LR(1) item: "rule:dot:lookahead".
func laItemKey(it grammar.LookaheadItem) string {
	return fmt.Sprintf("%d:%d:%s", it.RuleNum, it.Dot, it.Lookahead)
}

// ClosureLR0 computes the epsilon-closure (spec §4.E E.3 "closure-item sets")
// of a kernel of LR(0) items: for every item with the dot before a
// nonterminal A, add `A -> .gamma` for every rule with LHS A, repeating to a
// fixpoint.
func ClosureLR0(g *grammar.Grammar, kernel map[string]grammar.Item) map[string]grammar.Item {
	out := make(map[string]grammar.Item, len(kernel))
	for k, v := range kernel {
		out[k] = v
	}

	worklist := make([]grammar.Item, 0, len(kernel))
	for _, v := range kernel {
		worklist = append(worklist, v)
	}

	for len(worklist) > 0 {
		it := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		next := it.NextSymbol(g)
		if next == nil || !next.IsNonterminal {
			continue
		}
		for _, r := range g.Rules() {
			if r.LHS != next {
				continue
			}
			cand := grammar.Item{RuleNum: r.Num, Dot: 0}
			k := itemKey(cand)
			if _, ok := out[k]; ok {
				continue
			}
			out[k] = cand
			worklist = append(worklist, cand)
		}
	}
	return out
}

// GotoLR0 advances every item in items whose next symbol is sym, returning
// the (un-closed) kernel of the resulting state.
func GotoLR0(g *grammar.Grammar, items map[string]grammar.Item, sym string) map[string]grammar.Item {
	out := map[string]grammar.Item{}
	for _, it := range items {
		next := it.NextSymbol(g)
		if next == nil || next.Name != sym {
			continue
		}
		adv := it.Advance(g)
		out[itemKey(adv)] = adv
	}
	return out
}

// ClosureLR1 computes the closure of a set of LR(1) items: for every item
// `[A -> alpha . B beta, a]` with B a nonterminal, add `[B -> .gamma, b]` for
// every rule `B ::= gamma` and every b in FIRST(beta a), repeating to a
// fixpoint (purple-dragon Fig. 4.40, referenced by the teacher's
// internal/ictiobus/parse/lalr.go comments as `g.LR1_CLOSURE`, whose
// implementation was not present among the retrieved grammar-package files).
func ClosureLR1(g *grammar.Grammar, fs *FirstSets, kernel map[string]grammar.LookaheadItem) map[string]grammar.LookaheadItem {
	out := make(map[string]grammar.LookaheadItem, len(kernel))
	for k, v := range kernel {
		out[k] = v
	}

	worklist := make([]grammar.LookaheadItem, 0, len(kernel))
	for _, v := range kernel {
		worklist = append(worklist, v)
	}

	for len(worklist) > 0 {
		li := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		r := li.Rule(g)
		next := li.NextSymbol(g)
		if next == nil || !next.IsNonterminal {
			continue
		}

		beta := r.RHS[li.Dot+1:]
		betaNames := append(append([]string{}, namesOf(beta)...), li.Lookahead)
		lookaheads, _ := fs.FirstOfSequence(betaNames)

		for _, rule := range g.Rules() {
			if rule.LHS != next {
				continue
			}
			for _, la := range lookaheads.Elements() {
				cand := grammar.LookaheadItem{
					Item:       grammar.Item{RuleNum: rule.Num, Dot: 0},
					Lookahead:  la,
				}
				k := laItemKey(cand)
				if _, ok := out[k]; ok {
					continue
				}
				out[k] = cand
				worklist = append(worklist, cand)
			}
		}
	}
	return out
}

// GotoLR1 advances every item in items whose next symbol is sym, returning
// the (un-closed) kernel of the resulting LR(1) state.
func GotoLR1(g *grammar.Grammar, items map[string]grammar.LookaheadItem, sym string) map[string]grammar.LookaheadItem {
	out := map[string]grammar.LookaheadItem{}
	for _, li := range items {
		next := li.NextSymbol(g)
		if next == nil || next.Name != sym {
			continue
		}
		adv := grammar.LookaheadItem{Item: li.Advance(g), Lookahead: li.Lookahead}
		out[laItemKey(adv)] = adv
	}
	return out
}

func namesOf(syms []*grammar.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Name
	}
	return out
}

// coreKey canonicalizes an LR(1) item set's underlying LR(0) core (its
// `(rule, dot)` pairs, lookaheads stripped) to a sorted, order-independent
// string. Two LR(1) states with equal coreKey are merge candidates under
// LALR(1) construction (spec §4.E E.4; grounded on
// internal/ictiobus/automaton/automaton.go's `NewLALR1ViablePrefixDFA`, which
// merges canonical-LR(1) states sharing a core via `grammar.CoreSet` — the
// "easy, but space-consuming" Algorithm 4.59 construction, which is what the
// teacher's code actually runs; the more efficient kernel-propagation
// Algorithm 4.62/4.63 in internal/ictiobus/parse/lalr.go is present only as
// an abandoned, commented-out stub that always returns an empty table).
func coreKey(items map[string]grammar.LookaheadItem) string {
	cores := make([]string, 0, len(items))
	seen := map[string]bool{}
	for _, li := range items {
		k := itemKey(li.Item)
		if !seen[k] {
			seen[k] = true
			cores = append(cores, k)
		}
	}
	sort.Strings(cores)
	return strings.Join(cores, "|")
}

// setKey canonicalizes a full LR(1) item set (core and lookahead both) to a
// sorted string, used to intern canonical-LR(1) states before merging.
func setKey(items map[string]grammar.LookaheadItem) string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}
