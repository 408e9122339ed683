package config

import "ais-rag/internal/llm"

// Defaults returns a Config with sensible default values.
// Credentials and endpoint are left empty so the environment can supply them.
func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    llm.DefaultProvider,
			MaxRetries:  0,
			TimeoutSecs: int(llm.DefaultTimeout.Seconds()),
			MaxTokens:   llm.DefaultMaxTokens,
			Temperature: llm.DefaultTemperature,
		},
		Chat: ChatConfig{
			ApologyFormat: llm.DefaultApologyFormat,
			HistoryLimit:  50,
		},
		Security: SecurityConfig{
			PIIFiltering: PIIFilterConfig{
				Enabled:      false,
				FilterEmails: true,
				FilterPhones: true,
				FilterCards:  true,
				FilterIPs:    false,
				FilterSSN:    true,
			},
		},
	}
}
