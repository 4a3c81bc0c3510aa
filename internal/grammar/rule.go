package grammar

// Rule is `lhs ::= rhs...` with an insertion-order rule number (spec §3
// "Rule").
type Rule struct {
	LHS *Symbol
	RHS []*Symbol // ordered, possibly empty

	Num int

	// SourceOffset is the rune offset in the grammar source this rule was
	// declared at (or synthesized near, for EBNF-expansion rules), used for
	// diagnostic positioning.
	SourceOffset int

	// FormerSource/GuardSource are the rule's `: (...)` AST-former and
	// `=> {...}` guard-action source text, captured verbatim by
	// internal/meta and parsed and lowered to bytecode by internal/vmgen. Nil/"" if the rule has none
	// (a default former is synthesized for size != 1 rules without one,
	// per spec §4.D).
	FormerSource string
	GuardSource  string

	// IsASTSynthesized marks rules whose former was synthesized by the
	// extractor rather than given explicitly in the grammar source (e.g.
	// EBNF-expansion rules, or the default former for a size != 1 rule).
	IsASTSynthesized bool

	// IsListCons marks an EBNF repetition's recursive `LHS ::= elem LHS`
	// rule (spec §4.A `X*`/`X+` expansion): its bytecode is produced by
	// vmgen.CompileListConsRule instead of the normal FormerSource
	// mini-syntax, since building a flat child list requires splicing
	// another node's children rather than just loading/new-ing fixed
	// arguments. FormerSource is unused when this is set.
	IsListCons bool
}

// Size returns len(RHS), for readability at call sites that talk about
// "rules of size N" per spec §4.D.
func (r *Rule) Size() int {
	return len(r.RHS)
}

// RHSNames returns the RHS symbol names, used by Item/String formatting and
// by the Tarjan-Yao encoder's rule-text tables.
func (r *Rule) RHSNames() []string {
	names := make([]string, len(r.RHS))
	for i, s := range r.RHS {
		names[i] = s.Name
	}
	return names
}

// String renders the rule as `LHS -> RHS...` (or `LHS -> ε` if empty), for
// debug output and test fixtures.
func (r *Rule) String() string {
	if len(r.RHS) == 0 {
		return r.LHS.Name + " -> " + Epsilon
	}
	out := r.LHS.Name + " ->"
	for _, s := range r.RHS {
		out += " " + s.Name
	}
	return out
}
