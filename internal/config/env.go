package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"ais-rag/internal/llm"
)

// LoadDotEnv loads environment variables from path. Missing files are
// ignored and variables already set in the process win.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Settings resolves the LLM section against getenv.
func (c *Config) Settings(getenv func(string) string) llm.Settings {
	return llm.Resolve(c.LLM.Overrides(), getenv)
}
