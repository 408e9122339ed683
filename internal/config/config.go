package config

import (
	"time"

	"ais-rag/internal/llm"
)

// Config is the top-level application configuration.
type Config struct {
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Chat     ChatConfig     `json:"chat" yaml:"chat"`
	Security SecurityConfig `json:"security" yaml:"security"`
}

// LLMConfig holds explicit provider settings. Empty values fall through to
// the environment when resolved.
type LLMConfig struct {
	Provider    string  `json:"provider" yaml:"provider"`
	Model       string  `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	MaxRetries  int     `json:"max_retries" yaml:"max_retries"`
	TimeoutSecs int     `json:"timeout_secs" yaml:"timeout_secs"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// Overrides converts the file settings into resolver overrides.
func (c LLMConfig) Overrides() llm.Overrides {
	return llm.Overrides{
		Provider:   c.Provider,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Model:      c.Model,
		Timeout:    time.Duration(c.TimeoutSecs) * time.Second,
		MaxRetries: c.MaxRetries,
	}
}

type ChatConfig struct {
	SystemPrompt  string `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	ApologyFormat string `json:"apology_format,omitempty" yaml:"apology_format,omitempty"`
	HistoryPath   string `json:"history_path,omitempty" yaml:"history_path,omitempty"`
	HistoryLimit  int    `json:"history_limit" yaml:"history_limit"`
}

type SecurityConfig struct {
	VaultDir     string          `json:"vault_dir,omitempty" yaml:"vault_dir,omitempty"`
	PIIFiltering PIIFilterConfig `json:"pii_filtering" yaml:"pii_filtering"`
}

type PIIFilterConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	FilterEmails bool `json:"filter_emails" yaml:"filter_emails"`
	FilterPhones bool `json:"filter_phones" yaml:"filter_phones"`
	FilterCards  bool `json:"filter_cards" yaml:"filter_cards"`
	FilterIPs    bool `json:"filter_ips" yaml:"filter_ips"`
	FilterSSN    bool `json:"filter_ssn" yaml:"filter_ssn"`
}
