package config

import (
	"fmt"
	"strings"
)

// DebugFlags is the bit mask of tracing/dump facilities spec §6 names. It
// implements pflag.Value so a host command line (out of scope for this
// module, but a plausible future `cmd/`) could register it directly with
// `fs.Var(&flags, "debug", ...)` without any further glue.
type DebugFlags uint32

const (
	DebugProgress DebugFlags = 1 << iota
	DebugASTTrace
	DebugGrammarDump
	DebugGrammarASTDump
	DebugLALRDump
	DebugScannerTrace
	DebugActionsTrace
	DebugICodeDump
	DebugVCodeExecTrace
	DebugScanTokenTrace
	DebugParseActionTrace
)

var debugFlagNames = map[string]DebugFlags{
	"progress":        DebugProgress,
	"ast-trace":       DebugASTTrace,
	"grammar-dump":    DebugGrammarDump,
	"grammar-ast":     DebugGrammarASTDump,
	"lalr-dump":       DebugLALRDump,
	"scanner-trace":   DebugScannerTrace,
	"actions-trace":   DebugActionsTrace,
	"icode-dump":      DebugICodeDump,
	"vcode-trace":     DebugVCodeExecTrace,
	"scan-token":      DebugScanTokenTrace,
	"parse-action":    DebugParseActionTrace,
}

// Has reports whether every bit in want is set in f.
func (f DebugFlags) Has(want DebugFlags) bool {
	return f&want == want
}

// String renders the set flags as a comma-separated, deterministically
// ordered list of names, satisfying pflag.Value / flag.Value.
func (f DebugFlags) String() string {
	if f == 0 {
		return ""
	}

	// iterate names in a fixed, declaration order rather than map order
	order := []string{
		"progress", "ast-trace", "grammar-dump", "grammar-ast", "lalr-dump",
		"scanner-trace", "actions-trace", "icode-dump", "vcode-trace",
		"scan-token", "parse-action",
	}

	var set []string
	for _, name := range order {
		if f.Has(debugFlagNames[name]) {
			set = append(set, name)
		}
	}
	return strings.Join(set, ",")
}

// Set parses a comma-separated list of flag names (as produced by String)
// into f, replacing its previous value. Satisfies pflag.Value / flag.Value.
func (f *DebugFlags) Set(s string) error {
	var parsed DebugFlags
	if strings.TrimSpace(s) == "" {
		*f = 0
		return nil
	}

	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		bit, ok := debugFlagNames[name]
		if !ok {
			return fmt.Errorf("config: unknown debug flag %q", name)
		}
		parsed |= bit
	}

	*f = parsed
	return nil
}

// Type satisfies pflag.Value.
func (f DebugFlags) Type() string {
	return "debugflags"
}
