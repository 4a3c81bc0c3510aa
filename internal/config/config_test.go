package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func Test_DebugFlags_SetAndString(t *testing.T) {
	assert := assert.New(t)

	var f DebugFlags
	assert.NoError(f.Set("progress,lalr-dump"))
	assert.True(f.Has(DebugProgress))
	assert.True(f.Has(DebugLALRDump))
	assert.False(f.Has(DebugScannerTrace))
	assert.Equal("progress,lalr-dump", f.String())

	assert.Error(f.Set("not-a-real-flag"))
}

func Test_DebugFlags_SetEmptyClears(t *testing.T) {
	assert := assert.New(t)

	f := DebugProgress | DebugLALRDump
	assert.NoError(f.Set(""))
	assert.Equal(DebugFlags(0), f)
}

// Test_DebugFlags_RegistersWithPflag covers spec §6's "a plausible future
// cmd/" claim that DebugFlags is a drop-in pflag.Value: a host command line
// registers it with fs.Var directly, with no adapter glue, the same way
// cmd/tqi/main.go and cmd/tqserver/main.go register their own flag.Value
// implementations against a pflag.FlagSet in the teacher repo.
func Test_DebugFlags_RegistersWithPflag(t *testing.T) {
	assert := assert.New(t)

	var flags DebugFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&flags, "debug", "comma-separated debug trace facilities")

	assert.NoError(fs.Parse([]string{"--debug=lalr-dump,ast-trace"}))
	assert.True(flags.Has(DebugLALRDump))
	assert.True(flags.Has(DebugASTTrace))
	assert.False(flags.Has(DebugScannerTrace))
}

func Test_LoadGeneratorOptions_MissingFileUsesDefaults(t *testing.T) {
	assert := assert.New(t)

	opts, err := LoadGeneratorOptions(filepath.Join(t.TempDir(), "nope.toml"))
	assert.NoError(err)
	assert.Equal(DefaultGeneratorOptions(), opts)
}

func Test_LoadGeneratorOptions_Overlay(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "hoshi.toml")
	assert.NoError(os.WriteFile(path, []byte("max_lookaheads = 8\ntrace_path = \"out.log\"\n"), 0o644))

	opts, err := LoadGeneratorOptions(path)
	assert.NoError(err)
	assert.Equal(8, opts.MaxLookaheads)
	assert.Equal("out.log", opts.TracePath)
}
