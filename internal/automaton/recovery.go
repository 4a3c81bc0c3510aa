package automaton

import (
	"fmt"

	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/setx"
)

// BuildErrorRecovery implements spec §4.E E.7: compute after_shift for every
// (state, symbol), synthesize a single restart state whose base set is every
// LR(0)/LALR(1) state, attach a fallback_state to every Reduce action, and
// expand each distinct after_shift powerset into its own recovery state.
func BuildErrorRecovery(aut *Automaton, g *grammar.Grammar) {
	computeAfterShift(aut, g)

	restart := newState(len(aut.States))
	restart.BaseStates = setx.NewStringSet()
	for _, st := range aut.States {
		restart.BaseStates.Add(fmt.Sprintf("%d", st.Num))
	}
	aut.States = append(aut.States, restart)
	aut.RestartState = restart.Num
	expandPowerset(aut, g, restart)

	// Attach fallback_state to every Reduce action: the interned powerset
	// state of after_shift[originState, rule.LHS], i.e. "where execution
	// could resume, as if this reduce's goto had just been taken, from any
	// state that could plausibly be on the stack."
	powersets := map[string]int{} // sorted base-state key -> state num

	for _, st := range aut.States[:aut.RestartState] {
		for sym, a := range st.Actions {
			if a.Kind != ActionReduce {
				continue
			}
			rule := g.Rule(a.Rule)
			destSet, ok := st.AfterShift[rule.LHS.Name]
			if !ok || destSet.Empty() {
				continue
			}
			base := setx.NewStringSet()
			base.AddAll(destSet)
			key := base.StringOrdered()
			num, ok := powersets[key]
			if !ok {
				ps := newState(len(aut.States))
				ps.BaseStates = base
				aut.States = append(aut.States, ps)
				expandPowerset(aut, g, ps)
				powersets[key] = ps.Num
				num = ps.Num
			}
			a.Fallback = num
			st.Actions[sym] = a
		}
	}
}

// computeAfterShift fills st.AfterShift[symbol] = set of LR(0) states
// reachable immediately after shifting symbol from st. It records only the
// direct targets of st's own Shift/LAShift/Goto actions and Goto entries;
// nothing is propagated through Reduce actions or lookahead predecessors.
func computeAfterShift(aut *Automaton, g *grammar.Grammar) {
	for _, st := range aut.States {
		st.AfterShift = map[string]setx.StringSet{}
		for sym, a := range st.Actions {
			switch a.Kind {
			case ActionShift, ActionLAShift, ActionGoto:
				if _, ok := st.AfterShift[sym]; !ok {
					st.AfterShift[sym] = setx.NewStringSet()
				}
				st.AfterShift[sym].Add(fmt.Sprintf("%d", a.Goto))
			}
		}
		for sym, destNum := range st.Goto {
			if _, ok := st.AfterShift[sym]; !ok {
				st.AfterShift[sym] = setx.NewStringSet()
			}
			st.AfterShift[sym].Add(fmt.Sprintf("%d", destNum))
		}
	}
}

// expandPowerset merges the actions of ps.BaseStates's member states, one
// symbol at a time, into a single resolved action per spec §4.E E.7:
// Accept wins if any base state accepts; unanimous Shift merges goto sets
// into a further powerset (reusing an existing state with the same base
// set); unanimous same-rule Reduce becomes that Reduce with Fallback -1, so
// the members' fallback sets are not merged; anything else becomes Restart
// pointing at aut.RestartState, not at a union powerset of the members.
func expandPowerset(aut *Automaton, g *grammar.Grammar, ps *State) {
	bySymbol := map[string][]Action{}
	for _, baseStr := range ps.BaseStates.Elements() {
		var baseNum int
		fmt.Sscanf(baseStr, "%d", &baseNum)
		if baseNum >= len(aut.States) || baseNum == ps.Num {
			continue
		}
		base := aut.States[baseNum]
		for sym, a := range base.Actions {
			bySymbol[sym] = append(bySymbol[sym], a)
		}
	}

	for sym, actions := range bySymbol {
		if len(actions) == 0 {
			continue
		}

		anyAccept := false
		allShift, allReduceSameRule := true, true
		shiftTargets := setx.NewStringSet()
		reduceRule := actions[0].Rule
		for _, a := range actions {
			switch a.Kind {
			case ActionAccept:
				anyAccept = true
			case ActionShift, ActionLAShift:
				shiftTargets.Add(fmt.Sprintf("%d", a.Goto))
				allReduceSameRule = false
			case ActionReduce:
				allShift = false
				if a.Rule != reduceRule {
					allReduceSameRule = false
				}
			default:
				allShift = false
				allReduceSameRule = false
			}
		}

		switch {
		case anyAccept:
			ps.Actions[sym] = Action{Kind: ActionAccept}
		case allShift:
			key := shiftTargets.StringOrdered()
			target := -1
			for _, cand := range aut.States {
				if cand.BaseStates != nil && cand.BaseStates.StringOrdered() == key {
					target = cand.Num
					break
				}
			}
			if target < 0 {
				targetPS := newState(len(aut.States))
				targetPS.BaseStates = shiftTargets
				aut.States = append(aut.States, targetPS)
				expandPowerset(aut, g, targetPS)
				target = targetPS.Num
			}
			ps.Actions[sym] = Action{Kind: ActionShift, Goto: target}
		case allReduceSameRule:
			ps.Actions[sym] = Action{Kind: ActionReduce, Rule: reduceRule, Fallback: -1}
		default:
			ps.Actions[sym] = Action{Kind: ActionRestart, Goto: aut.RestartState}
		}
		ps.ActionMulti[sym] = actions
	}
}
