package automaton

import (
	"strconv"
	"strings"

	"github.com/dekarrin/hoshi/internal/grammar"
)

// BuildActions fills every state's ActionMulti (and, where there is no
// conflict, Actions) per spec §4.E E.5: terminal gotos become Shift,
// nonterminal gotos become Goto, completed items whose LHS is *accept*
// become Accept, and other completed items become Reduce. Multiple actions
// on the same symbol are kept in ActionMulti for E.6 to resolve.
func BuildActions(aut *Automaton, g *grammar.Grammar) {
	for _, st := range aut.States {
		for sym, destNum := range st.Goto {
			s, _ := g.LookupSymbol(sym)
			var a Action
			if s != nil && s.IsTerminal {
				a = Action{Kind: ActionShift, Goto: destNum}
			} else {
				a = Action{Kind: ActionGoto, Goto: destNum}
			}
			st.ActionMulti[sym] = append(st.ActionMulti[sym], a)
		}

		for _, ik := range st.Closure.Elements() {
			it := itemFromKey(ik)
			if !it.AtEnd(g) {
				continue
			}
			rule := it.Rule(g)
			var a Action
			if rule.LHS == g.AcceptSymbol() {
				a = Action{Kind: ActionAccept}
			} else {
				a = Action{Kind: ActionReduce, Rule: rule.Num, Fallback: -1}
			}
			for _, la := range st.Lookaheads[ik].Elements() {
				st.ActionMulti[la] = append(st.ActionMulti[la], a)
			}
		}

		for sym, actions := range st.ActionMulti {
			if len(actions) == 1 {
				st.Actions[sym] = actions[0]
			}
		}
	}
}

// itemFromKey parses an itemKey ("rule:dot") back into a grammar.Item.
func itemFromKey(key string) grammar.Item {
	parts := strings.SplitN(key, ":", 2)
	rule, _ := strconv.Atoi(parts[0])
	dot, _ := strconv.Atoi(parts[1])
	return grammar.Item{RuleNum: rule, Dot: dot}
}

// Conflicts returns, for every state, the set of terminals whose
// ActionMulti holds more than one candidate action — the input to E.6's
// lookahead extension.
func Conflicts(aut *Automaton) map[int][]string {
	out := map[int][]string{}
	for _, st := range aut.States {
		for sym, actions := range st.ActionMulti {
			if len(actions) > 1 {
				out[st.Num] = append(out[st.Num], sym)
			}
		}
	}
	return out
}
