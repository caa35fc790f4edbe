package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	// Unset sections keep defaults.
	assert.Equal(t, "gpt-4o-mini", cfg.Model.Name)
	assert.Equal(t, 4, cfg.Pipeline.MemoryPairs)
	assert.Equal(t, "csv", cfg.Transcript.Sink)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
model:
  provider: "ollama"
  name: "llama3"
  base_url: "http://localhost:11434"
pipeline:
  memory_pairs: 8
  terse_prompt_tokens: 6
transcript:
  sink: "redis"
log:
  level: "debug"
  format: "json"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Model.Provider)
	assert.Equal(t, "llama3", cfg.Model.Name)
	assert.Equal(t, 8, cfg.Pipeline.MemoryPairs)
	assert.Equal(t, 6, cfg.Pipeline.TersePromptTokens)
	assert.Equal(t, "redis", cfg.Transcript.Sink)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	// t.Setenv registers the restore; unset so the default applies.
	t.Setenv("BACKEND_URL", "placeholder")
	os.Unsetenv("BACKEND_URL")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", env.OpenAIAPIKey)
	assert.Equal(t, "http://localhost:8000/query", env.BackendURL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://queryd:8000/query")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://queryd:8000/query", env.BackendURL)
}
