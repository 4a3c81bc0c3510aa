package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// GrammarOptions mirrors the options block of the grammar source language
// (spec §4.D, §6): `lookaheads = N`, `conflicts = N`, `error_recovery = bool`,
// `keep_whitespace = bool`, `case_sensitive = bool`. These are parsed out of
// the grammar source itself by internal/meta; GeneratorOptions below is a
// separate, optional TOML overlay for knobs that live outside the grammar
// source (how far lookahead extension is allowed to recurse, where traces
// go).
type GrammarOptions struct {
	Lookaheads     int
	Conflicts      int
	ErrorRecovery  bool
	KeepWhitespace bool
	CaseSensitive  bool
}

// DefaultGrammarOptions returns the spec-mandated defaults.
func DefaultGrammarOptions() GrammarOptions {
	return GrammarOptions{
		Lookaheads:    1,
		Conflicts:     0,
		ErrorRecovery: true,
		// KeepWhitespace and CaseSensitive default false/true respectively;
		// Go's zero value for bool already gives KeepWhitespace=false.
		CaseSensitive: true,
	}
}

// GeneratorOptions is a TOML-loadable overlay of generation knobs that are
// not part of the grammar source language. Grounded on the teacher's own use
// of BurntSushi/toml for small, human-edited config structs (see
// DESIGN.md).
type GeneratorOptions struct {
	// MaxLookaheads caps how far E.6 lookahead extension is allowed to
	// recurse past the grammar's declared `lookaheads` value before giving
	// up and reporting a conflict.
	MaxLookaheads int `toml:"max_lookaheads"`

	// TracePath, if non-empty, is where debug traces requested by
	// DebugFlags are written instead of stderr.
	TracePath string `toml:"trace_path"`
}

// DefaultGeneratorOptions returns conservative defaults usable without any
// config file at all.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		MaxLookaheads: 4,
	}
}

// LoadGeneratorOptions reads a TOML file at path and overlays it onto the
// defaults. A missing file is not an error; it simply yields the defaults.
func LoadGeneratorOptions(path string) (GeneratorOptions, error) {
	opts := DefaultGeneratorOptions()

	if path == "" {
		return opts, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return opts, nil
	}

	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return opts, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	return opts, nil
}
