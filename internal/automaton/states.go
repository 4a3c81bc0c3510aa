package automaton

import (
	"sort"

	"github.com/dekarrin/hoshi/internal/grammar"
	"github.com/dekarrin/hoshi/internal/setx"
)

// ActionKind enumerates the ParseAction variants (spec §3 "ParseAction"), in
// the priority order used to break undecided conflicts (spec §4.E E.6:
// "Shift > Accept > lowest-numbered Reduce").
type ActionKind int

const (
	ActionError ActionKind = iota
	ActionReduce
	ActionAccept
	ActionShift
	ActionLAShift
	ActionGoto
	ActionRestart
)

func (k ActionKind) String() string {
	switch k {
	case ActionShift:
		return "shift"
	case ActionLAShift:
		return "la-shift"
	case ActionReduce:
		return "reduce"
	case ActionGoto:
		return "goto"
	case ActionRestart:
		return "restart"
	case ActionAccept:
		return "accept"
	default:
		return "error"
	}
}

// Action is a resolved or candidate ParseAction (spec §3). Fallback is only
// meaningful on Reduce actions attached during error recovery (E.7); it is
// -1 until then.
type Action struct {
	Kind     ActionKind
	Goto     int // target state for Shift/LAShift/Goto/Restart
	Rule     int // rule number for Reduce
	Fallback int // fallback_state for Reduce, -1 if unset
}

// priority ranks actions for deterministic conflict resolution: Shift wins
// over Accept wins over the lowest-numbered Reduce (spec §4.E E.6). LAShift
// shares Shift's rank. Goto and Restart never compete with
// Shift/Reduce/Accept on the same terminal in a well-formed automaton, so
// they get the last rank (lowest priority) only to give priority() a total
// order; they never actually arise in a conflict set in practice.
func priority(a Action) (rank int, tiebreak int) {
	switch a.Kind {
	case ActionShift, ActionLAShift:
		return 0, a.Goto
	case ActionAccept:
		return 1, 0
	case ActionReduce:
		return 2, a.Rule
	default:
		return 3, a.Goto
	}
}

// Less gives Action a total order for use as a map key / for deterministic
// resolution, per spec §3 "Totally ordered for use as a map key."
func (a Action) Less(b Action) bool {
	ar, at := priority(a)
	br, bt := priority(b)
	if ar != br {
		return ar < br
	}
	return at < bt
}

// State is a node of the LALR automaton (spec §3 "State"). Kernel/Closure
// are item-set keys ("rule:dot"); Lookaheads maps an item key to its LALR(1)
// lookahead terminals. Num is an arena index, not a pointer, per spec §9's
// cycle-free-arena design note (states reference each other only by Num).
type State struct {
	Num int

	Kernel  setx.StringSet // item keys, "rule:dot"
	Closure setx.StringSet // item keys, "rule:dot" (kernel ∪ derived)

	// Lookaheads holds, for every item key in Closure, its LALR(1)
	// lookahead terminal set (merged from every canonical-LR(1) state that
	// collapsed into this one).
	Lookaheads map[string]setx.StringSet

	Goto     map[string]int // symbol -> state num
	Lookback []int          // incoming state nums (one-step predecessors)

	ActionMulti map[string][]Action // symbol -> candidate actions, pre-resolution
	Actions     map[string]Action   // symbol -> resolved action

	// LASymbol is set only on auxiliary lookahead states synthesized by E.6:
	// it is the terminal that was disambiguated by consuming one more token
	// to reach this state (spec §3 "lookahead-goto map and lookahead
	// symbol"). LAGoto is not populated by any phase; a lookahead state's
	// own transitions are held in its Actions map.
	LAGoto   map[string]int
	LASymbol string

	// AfterShift and BaseStates are populated only during E.7 recovery-state
	// construction (spec §3 "after-shift map", "base-state set").
	AfterShift map[string]setx.StringSet
	BaseStates setx.StringSet
}

func newState(num int) *State {
	return &State{
		Num:         num,
		Kernel:      setx.NewStringSet(),
		Closure:     setx.NewStringSet(),
		Lookaheads:  map[string]setx.StringSet{},
		Goto:        map[string]int{},
		ActionMulti: map[string][]Action{},
		Actions:     map[string]Action{},
	}
}

// Automaton is the full LALR(k) state collection (spec §4.E).
type Automaton struct {
	States     []*State
	StartState int

	// RestartState is populated by E.7 and is -1 until then. Lookahead
	// states synthesized by E.6 are appended to States; there is no
	// separate list of them.
	RestartState int
}

// BuildLALR1 runs the canonical-LR(1) construction (E.3-equivalent, but
// directly over LR(1) item sets rather than LR(0)) and then merges states
// sharing an LR(0) core (E.4), exactly mirroring the teacher's actual
// working algorithm in internal/ictiobus/automaton/automaton.go's
// `NewLALR1ViablePrefixDFA` (build canonical LR(1), then repeatedly merge
// states whose `grammar.CoreSet` matches) rather than the abandoned
// kernel-propagation algorithm in internal/ictiobus/parse/lalr.go.
func BuildLALR1(g *grammar.Grammar, fs *FirstSets) (*Automaton, error) {
	accept := g.AcceptSymbol()
	var acceptRule *grammar.Rule
	for _, r := range g.Rules() {
		if r.LHS == accept {
			acceptRule = r
			break
		}
	}
	if acceptRule == nil {
		panic("automaton: grammar has no *accept* rule; extractor must call AddRule(accept, [start])")
	}

	startItem := grammar.LookaheadItem{
		Item:      grammar.Item{RuleNum: acceptRule.Num, Dot: 0},
		Lookahead: grammar.EOF,
	}
	startKernel := map[string]grammar.LookaheadItem{laItemKey(startItem): startItem}
	startClosure := ClosureLR1(g, fs, startKernel)

	type canonState struct {
		kernel  map[string]grammar.LookaheadItem
		closure map[string]grammar.LookaheadItem
		goTo    map[string]string // symbol -> canonical key of destination
	}

	canon := map[string]*canonState{}
	order := []string{}

	startKey := setKey(startKernel)
	canon[startKey] = &canonState{kernel: startKernel, closure: startClosure, goTo: map[string]string{}}
	order = append(order, startKey)

	worklist := []string{startKey}
	for len(worklist) > 0 {
		key := worklist[0]
		worklist = worklist[1:]
		cs := canon[key]

		symbols := setx.NewStringSet()
		for _, li := range cs.closure {
			if next := li.NextSymbol(g); next != nil {
				symbols.Add(next.Name)
			}
		}

		for _, sym := range symbols.Elements() {
			destKernel := GotoLR1(g, cs.closure, sym)
			if len(destKernel) == 0 {
				continue
			}
			destKey := setKey(destKernel)
			if _, ok := canon[destKey]; !ok {
				destClosure := ClosureLR1(g, fs, destKernel)
				canon[destKey] = &canonState{kernel: destKernel, closure: destClosure, goTo: map[string]string{}}
				order = append(order, destKey)
				worklist = append(worklist, destKey)
			}
			cs.goTo[sym] = destKey
		}
	}

	// Group canonical-LR(1) states by LR(0) core; each group becomes one
	// LALR(1) State (E.4's merge step).
	coreOf := map[string]string{}
	groupMembers := map[string][]string{}
	groupOrder := []string{}
	for _, key := range order {
		ck := coreKey(canon[key].closure)
		if _, ok := groupMembers[ck]; !ok {
			groupOrder = append(groupOrder, ck)
		}
		coreOf[key] = ck
		groupMembers[ck] = append(groupMembers[ck], key)
	}

	stateNumOf := map[string]int{} // core key -> state num
	aut := &Automaton{RestartState: -1}
	for i, ck := range groupOrder {
		stateNumOf[ck] = i
		st := newState(i)
		for _, member := range groupMembers[ck] {
			cs := canon[member]
			for k, li := range cs.kernel {
				_ = li
				st.Kernel.Add(itemKeyFromLAKey(k))
			}
			for k, li := range cs.closure {
				ik := itemKeyFromLAKey(k)
				st.Closure.Add(ik)
				if _, ok := st.Lookaheads[ik]; !ok {
					st.Lookaheads[ik] = setx.NewStringSet()
				}
				st.Lookaheads[ik].Add(li.Lookahead)
			}
		}
		aut.States = append(aut.States, st)
	}

	// Wire goto edges and lookback (reverse of goto) now that every
	// canonical state has a final merged state number.
	for _, ck := range groupOrder {
		st := aut.States[stateNumOf[ck]]
		for _, member := range groupMembers[ck] {
			cs := canon[member]
			for sym, destKey := range cs.goTo {
				destNum := stateNumOf[coreOf[destKey]]
				st.Goto[sym] = destNum
			}
		}
	}
	for _, st := range aut.States {
		for _, destNum := range st.Goto {
			dest := aut.States[destNum]
			dest.Lookback = appendUnique(dest.Lookback, st.Num)
		}
	}

	aut.StartState = stateNumOf[coreOf[startKey]]
	return aut, nil
}

func itemKeyFromLAKey(laKey string) string {
	// laKey is "rule:dot:lookahead"; strip the trailing ":lookahead".
	idx := -1
	colons := 0
	for i, c := range laKey {
		if c == ':' {
			colons++
			if colons == 2 {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return laKey
	}
	return laKey[:idx]
}

func appendUnique(states []int, n int) []int {
	for _, s := range states {
		if s == n {
			return states
		}
	}
	return append(states, n)
}

// sortedStateNums returns every state number in aut in ascending order, for
// deterministic iteration during encoding and dumps.
func sortedStateNums(aut *Automaton) []int {
	nums := make([]int, len(aut.States))
	for i := range aut.States {
		nums[i] = i
	}
	sort.Ints(nums)
	return nums
}
