package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/agent-chat/internal/config"
	"github.com/petasbytes/agent-chat/internal/provider"
	"github.com/petasbytes/agent-chat/memory"
)

// chdirTemp runs the test from an empty directory so no stray config.yaml is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, memory.DefaultMaxHistory, cfg.Memory.MaxHistory)
	assert.Equal(t, "conversation.json", cfg.Memory.StoragePath)
	assert.Equal(t, string(provider.DefaultModel), cfg.Agent.Model)
	assert.Equal(t, int64(1024), cfg.Agent.MaxTokens)
	assert.True(t, cfg.Agent.ReplayHistory)
	assert.Equal(t, 8, cfg.Agent.MaxSteps)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Telemetry.Observe)
	assert.Equal(t, ".agent", cfg.Telemetry.ArtifactsDir)
	assert.False(t, cfg.UI.Plain)
}

func TestLoad_UnchangedFlagsKeepDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := config.Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, memory.DefaultMaxHistory, cfg.Memory.MaxHistory)
	assert.True(t, cfg.Agent.ReplayHistory)
}

func TestLoad_ConfigFileInWorkingDir(t *testing.T) {
	dir := chdirTemp(t)
	yaml := "memory:\n  max_history: 4\n  storage_path: history.json\nagent:\n  replay_history: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := config.Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Memory.MaxHistory)
	assert.Equal(t, "history.json", cfg.Memory.StoragePath)
	assert.False(t, cfg.Agent.ReplayHistory)
}

func TestLoad_Precedence_FileEnvFlag(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	yaml := "memory:\n  max_history: 4\nlog:\n  level: debug\nagent:\n  max_steps: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("CHAT_MEMORY_MAX_HISTORY", "10")
	t.Setenv("CHAT_AGENT_MAX_STEPS", "5")

	cfg, err := config.Load(newFlags(t, "--config", path, "--max-history", "20"))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Memory.MaxHistory, "flag beats env and file")
	assert.Equal(t, 5, cfg.Agent.MaxSteps, "env beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "file beats default")
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	_, err := config.Load(newFlags(t, "--config", filepath.Join(dir, "nope.yaml")))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	chdirTemp(t)

	_, err := config.Load(newFlags(t, "--max-history", "0"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory.max_history")

	_, err = config.Load(newFlags(t, "--storage-path", " "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory.storage_path")
}

func TestLoad_MaxHistoryBounds(t *testing.T) {
	chdirTemp(t)

	for _, v := range []string{"0", "-1"} {
		_, err := config.Load(newFlags(t, "--max-history="+v))
		assert.ErrorContains(t, err, "memory.max_history must be at least 1", v)
	}
	for _, v := range []string{"1", "3"} {
		cfg, err := config.Load(newFlags(t, "--max-history="+v))
		require.NoError(t, err, v)
		assert.Equal(t, v, fmt.Sprint(cfg.Memory.MaxHistory))
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := config.Config{}
	err := cfg.Validate()
	require.Error(t, err)
	for _, key := range []string{"max_history", "storage_path", "agent.model", "max_tokens", "max_steps", "context_budget"} {
		assert.Contains(t, err.Error(), key)
	}
}
