package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ais-rag/internal/llm"
)

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	assert.NoError(t, LoadDotEnv(""))
}

func TestLoadDotEnv(t *testing.T) {
	const key = "AIS_RAG_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestLoadDotEnvKeepsProcessValue(t *testing.T) {
	const key = "AIS_RAG_DOTENV_TEST_EXISTING"
	t.Setenv(key, "from-process")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-process", os.Getenv(key))
}

func TestConfigSettings(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.TimeoutSecs = 15
	cfg.LLM.Model = "gpt-4o-mini"

	env := map[string]string{llm.EnvOpenAIKey: "sk-env"}
	s := cfg.Settings(func(k string) string { return env[k] })

	assert.Equal(t, "sk-env", s.APIKey)
	assert.Equal(t, "gpt-4o-mini", s.Model)
	assert.Equal(t, 15*time.Second, s.Timeout)
	assert.Equal(t, llm.SourceOpenAI, s.Source)
}
