package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ais-rag/internal/llm"
)

func TestLoadDefaults(t *testing.T) {
	loader := &Loader{
		filePath: filepath.Join(t.TempDir(), "config.json"),
	}

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3000, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 60, cfg.LLM.TimeoutSecs)
	assert.Zero(t, cfg.LLM.MaxRetries)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.Equal(t, llm.DefaultApologyFormat, cfg.Chat.ApologyFormat)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	loader := &Loader{filePath: path}

	cfg := Defaults()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKey = "test-key"
	cfg.Chat.HistoryLimit = 12

	require.NoError(t, loader.Save(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := (&Loader{filePath: path}).Load()
	require.NoError(t, err)

	assert.Equal(t, "anthropic", loaded.LLM.Provider)
	assert.Equal(t, "test-key", loaded.LLM.APIKey)
	assert.Equal(t, 12, loaded.Chat.HistoryLimit)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `llm:
  model: gpt-4o-mini
  base_url: https://proxy.example.com/v1
  timeout_secs: 30
chat:
  system_prompt: You answer in Thai.
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := (&Loader{filePath: path}).Load()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "https://proxy.example.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 30, cfg.LLM.TimeoutSecs)
	assert.Equal(t, "You answer in Thai.", cfg.Chat.SystemPrompt)
	// untouched keys keep their defaults
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3000, cfg.LLM.MaxTokens)
}

func TestSaveYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	loader := &Loader{filePath: path}

	cfg := Defaults()
	cfg.LLM.Model = "databricks-meta-llama"
	require.NoError(t, loader.Save(cfg))

	loaded, err := (&Loader{filePath: path}).Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := (&Loader{filePath: path}).Load()
	assert.ErrorContains(t, err, "parse "+path)
}

func TestGetBeforeLoad(t *testing.T) {
	loader := &Loader{filePath: filepath.Join(t.TempDir(), "config.json")}
	assert.Equal(t, Defaults(), loader.Get())
}
