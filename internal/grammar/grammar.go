package grammar

import "fmt"

// Grammar is the flyweight owner of every Symbol and Rule in a normalized
// grammar (spec §3, §4.C). Symbols are keyed by name; interning the same
// name twice returns the existing instance rather than failing, matching
// the teacher's `intern_symbol` contract described in spec §4.C ("duplicate
// intern fails and returns the existing instance" — read here as: the
// second call does not create a new Symbol, it hands back the first one,
// which is what every caller in internal/extract actually wants; true
// "this name was already used in a context that forbids reuse" failures,
// like duplicate token declarations, are the extractor's job to detect by
// checking InternSymbol's `existed` return, not Grammar's).
type Grammar struct {
	symbols map[string]*Symbol
	order   []string // insertion order, for deterministic iteration
	rules   []*Rule

	// startSymbol is the first declared (non-augmented) LHS, set once by
	// the extractor.
	startSymbol *Symbol
}

// New returns an empty Grammar with the four predefined symbols interned.
func New() *Grammar {
	g := &Grammar{symbols: map[string]*Symbol{}}
	for _, name := range []string{EOF, Error, Accept, Epsilon} {
		g.symbols[name] = newPredefined(name)
		g.order = append(g.order, name)
	}
	return g
}

// InternSymbol returns the Symbol named name, creating it if it doesn't yet
// exist. existed reports whether it was already present.
func (g *Grammar) InternSymbol(name string) (sym *Symbol, existed bool) {
	if s, ok := g.symbols[name]; ok {
		return s, true
	}
	s := &Symbol{Name: name, Num: -1, Precedence: DefaultPrecedence}
	g.symbols[name] = s
	g.order = append(g.order, name)
	return s, false
}

// LookupSymbol returns the Symbol named name without creating it.
func (g *Grammar) LookupSymbol(name string) (*Symbol, bool) {
	s, ok := g.symbols[name]
	return s, ok
}

// AddRule appends a fresh rule with the next rule number and returns it.
func (g *Grammar) AddRule(lhs *Symbol, rhs []*Symbol) *Rule {
	r := &Rule{LHS: lhs, RHS: rhs, Num: len(g.rules)}
	g.rules = append(g.rules, r)
	return r
}

// Rules returns all rules in insertion (rule-number) order.
func (g *Grammar) Rules() []*Rule {
	return g.rules
}

// Rule returns the rule with the given number.
func (g *Grammar) Rule(num int) *Rule {
	return g.rules[num]
}

// Symbols returns every interned symbol in first-interned order.
func (g *Grammar) Symbols() []*Symbol {
	out := make([]*Symbol, len(g.order))
	for i, name := range g.order {
		out[i] = g.symbols[name]
	}
	return out
}

// Terminals returns every terminal symbol, including the predefined ones
// that are terminals (*eof*, *error*), in first-interned order.
func (g *Grammar) Terminals() []*Symbol {
	var out []*Symbol
	for _, name := range g.order {
		if s := g.symbols[name]; s.IsTerminal {
			out = append(out, s)
		}
	}
	return out
}

// NonTerminals returns every nonterminal symbol, including *accept*, in
// first-interned order.
func (g *Grammar) NonTerminals() []*Symbol {
	var out []*Symbol
	for _, name := range g.order {
		if s := g.symbols[name]; s.IsNonterminal {
			out = append(out, s)
		}
	}
	return out
}

// SetStartSymbol records the grammar's (non-augmented) start symbol. Called
// once by the extractor, with the first declared rule's LHS, after every
// declared rule LHS has been interned and before any rule is processed.
func (g *Grammar) SetStartSymbol(s *Symbol) {
	g.startSymbol = s
}

// StartSymbol returns the grammar's declared start symbol.
func (g *Grammar) StartSymbol() *Symbol {
	return g.startSymbol
}

// AcceptSymbol returns the predefined *accept* symbol.
func (g *Grammar) AcceptSymbol() *Symbol {
	return g.symbols[Accept]
}

// GenerateUniqueName returns a symbol name not currently interned, derived
// from prefix. Used when synthesizing EBNF-expansion LHS names (`A:n`) and
// internal marker symbols that must not collide with anything the grammar
// source declared.
func (g *Grammar) GenerateUniqueName(prefix string) string {
	if _, ok := g.symbols[prefix]; !ok {
		return prefix
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s:%d", prefix, n)
		if _, ok := g.symbols[candidate]; !ok {
			return candidate
		}
	}
}

// StripEpsilonRHS removes the predefined Epsilon symbol from every rule's
// RHS, enforcing the spec §4.D invariant that "ε never appears in any saved
// rule's rhs" — rules that actually mean to produce nothing simply end up
// with an empty RHS slice.
func (g *Grammar) StripEpsilonRHS() {
	eps := g.symbols[Epsilon]
	for _, r := range g.rules {
		if !containsSymbol(r.RHS, eps) {
			continue
		}
		filtered := r.RHS[:0:0]
		for _, s := range r.RHS {
			if s != eps {
				filtered = append(filtered, s)
			}
		}
		r.RHS = filtered
	}
}

func containsSymbol(rhs []*Symbol, s *Symbol) bool {
	for _, x := range rhs {
		if x == s {
			return true
		}
	}
	return false
}
