package config

import (
	"testing"

	"github.com/jbctechsolutions/ctxprobe/internal/domain/errors"
	"github.com/jbctechsolutions/ctxprobe/internal/domain/probe"
	"github.com/jbctechsolutions/ctxprobe/internal/infrastructure/testutil"
)

func TestBuiltinPresets(t *testing.T) {
	store := NewPresetStore("")

	for _, name := range []string{"quick", "standard", "thorough"} {
		preset, err := store.Get(name)
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, preset.Builtin, true)

		// Every builtin must produce a runnable configuration.
		cfg := preset.Apply("test-model")
		testutil.AssertNoError(t, cfg.Validate())
	}
}

func TestPresetApplyBindsModel(t *testing.T) {
	store := NewPresetStore("")
	preset, err := store.Get("thorough")
	testutil.AssertNoError(t, err)

	cfg := preset.Apply("claude-sonnet-4-20250514")
	testutil.AssertEqual(t, cfg.ModelID, "claude-sonnet-4-20250514")
	testutil.AssertEqual(t, cfg.Strategy, probe.StrategyAdaptive)
}

func TestPresetNotFound(t *testing.T) {
	store := NewPresetStore("")
	_, err := store.Get("nonexistent")
	testutil.AssertErrorIs(t, err, errors.ErrPresetNotFound)
}

func TestReloadLoadsUserPresets(t *testing.T) {
	dir := testutil.TempDir(t)
	testutil.WriteFile(t, dir, "ci.yaml", `
name: ci
description: Probe used in the nightly pipeline
config:
  strategy: binary
  min_tokens: 1000
  max_tokens: 128000
  precision: 1000
  max_attempts: 15
  request_timeout: 60s
  output_budget: 64
  retry_count: 1
`)

	store := NewPresetStore(dir)
	testutil.AssertNoError(t, store.Reload())

	preset, err := store.Get("ci")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, preset.Builtin, false)
	testutil.AssertEqual(t, preset.Config.MaxTokens, 128000)
	testutil.AssertNoError(t, preset.Apply("m").Validate())
}

func TestReloadNamesPresetAfterFile(t *testing.T) {
	dir := testutil.TempDir(t)
	testutil.WriteFile(t, dir, "nightly.yml", `
config:
  strategy: linear
  min_tokens: 1000
  max_tokens: 32000
  step_size: 4000
  precision: 500
  max_attempts: 20
  request_timeout: 30s
  retry_count: 0
`)

	store := NewPresetStore(dir)
	testutil.AssertNoError(t, store.Reload())

	_, err := store.Get("nightly")
	testutil.AssertNoError(t, err)
}

func TestReloadUserPresetShadowsBuiltin(t *testing.T) {
	dir := testutil.TempDir(t)
	testutil.WriteFile(t, dir, "quick.yaml", `
name: quick
config:
  strategy: linear
  min_tokens: 1000
  max_tokens: 16000
  step_size: 1000
  precision: 500
  max_attempts: 20
  request_timeout: 30s
  retry_count: 0
`)

	store := NewPresetStore(dir)
	testutil.AssertNoError(t, store.Reload())

	preset, err := store.Get("quick")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, preset.Builtin, false)
	testutil.AssertEqual(t, preset.Config.Strategy, probe.StrategyLinear)

	// Builtins are restored once the user file disappears.
	emptyStore := NewPresetStore(testutil.TempDir(t))
	testutil.AssertNoError(t, emptyStore.Reload())
	restored, err := emptyStore.Get("quick")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, restored.Builtin, true)
}

func TestReloadMissingDirKeepsBuiltins(t *testing.T) {
	store := NewPresetStore("/nonexistent/preset/dir")
	testutil.AssertNoError(t, store.Reload())
	testutil.AssertEqual(t, len(store.List()), 3)
}

func TestReloadInvalidPresetFile(t *testing.T) {
	dir := testutil.TempDir(t)
	testutil.WriteFile(t, dir, "broken.yaml", "config: [not valid")

	store := NewPresetStore(dir)
	testutil.AssertError(t, store.Reload())
}

func TestListSorted(t *testing.T) {
	store := NewPresetStore("")
	list := store.List()

	testutil.AssertEqual(t, len(list), 3)
	testutil.AssertEqual(t, list[0].Name, "quick")
	testutil.AssertEqual(t, list[1].Name, "standard")
	testutil.AssertEqual(t, list[2].Name, "thorough")
}
