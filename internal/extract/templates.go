package extract

// template is one entry of the built-in token library (spec §4.D "template
// token library"): a name usable in `template(name)`, carrying the same
// fields a user token declaration can set explicitly. A template cannot be
// interpolated into another regex via `{name}`: the regex dialect has no
// macro references. Grounded directly on LibraryToken.cpp/.H's
// library_token_list (original_source/cpp/libsrc/LibraryToken.cpp) — eleven
// entries, same regex/precedence/lexeme_needed/is_ignored values,
// translated from the original's POSIX-ish class syntax to the
// internal/vmgen.ParseRegex dialect (explicit classes/alternation/grouping,
// no named-macro interpolation, so the cpp_comment and number templates
// that referenced `{slash_prefix_comment}`/`{c_comment}`/`{integer}`/`{float}`
// in the original are inlined here instead of re-implementing macro
// expansion).
type template struct {
	Name         string
	Regex        string
	Precedence   int
	LexemeNeeded bool
	IsIgnored    bool
}

// templates is looked up by name as a map; its entries are listed in
// roughly alphabetical order, not a strict sort (identifier comes before
// hexinteger).
// The regex column below deliberately avoids \s/\d/\D/\S shorthand escapes:
// internal/vmgen.ParseRegex's escapeRune only unescapes \n, \t, \r and
// otherwise passes the escaped character through literally (it has no
// shorthand-class table), so every class here is spelled out explicitly.
var templates = map[string]template{
	"c_comment": {
		Name:       "c_comment",
		Regex:      `/\*([^*]|(\*+[^*/]))*\*+/`,
		Precedence: 100,
		IsIgnored:  true,
	},
	"cpp_comment": {
		Name:       "cpp_comment",
		Regex:      `(//[^\n]*)|(/\*([^*]|(\*+[^*/]))*\*+/)`,
		Precedence: 100,
		IsIgnored:  true,
	},
	"float": {
		Name:         "float",
		Regex:        `[0-9]+\.[0-9]+([eE][+\-]?[1-9][0-9]*)?`,
		Precedence:   100,
		LexemeNeeded: true,
	},
	"identifier": {
		Name:         "identifier",
		Regex:        `[A-Za-z][A-Za-z0-9_]*`,
		Precedence:   50,
		LexemeNeeded: true,
	},
	"hexinteger": {
		Name:         "hexinteger",
		Regex:        `0[xX][0-9A-Fa-f]+`,
		Precedence:   100,
		LexemeNeeded: true,
	},
	"integer": {
		Name:         "integer",
		Regex:        `[0-9]+`,
		Precedence:   100,
		LexemeNeeded: true,
	},
	"number": {
		Name:         "number",
		Regex:        `([0-9]+\.[0-9]+([eE][+\-]?[1-9][0-9]*)?)|([0-9]+)`,
		Precedence:   100,
		LexemeNeeded: true,
	},
	"pascal_comment": {
		Name:       "pascal_comment",
		Regex:      `\(\*([^*]|(\*+[^*)]))*\*+\)`,
		Precedence: 100,
		IsIgnored:  true,
	},
	"slash_prefix_comment": {
		Name:       "slash_prefix_comment",
		Regex:      `//[^\n]*`,
		Precedence: 100,
		IsIgnored:  true,
	},
	"string": {
		Name:         "string",
		Regex:        `"([^"\\]|\\"|\\\\)*"`,
		Precedence:   100,
		LexemeNeeded: true,
	},
	"whitespace": {
		Name:       "whitespace",
		Regex:      `[ \t\n\r]+`,
		Precedence: 100,
		IsIgnored:  true,
	},
}

// lookupTemplate returns the library token named name, or false if no such
// template exists.
func lookupTemplate(name string) (template, bool) {
	t, ok := templates[name]
	return t, ok
}
