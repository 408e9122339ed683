package llm

import (
	"fmt"
	"net/http"
)

// NewProvider creates an LLM provider from resolved settings.
// httpClient may be nil to use the SDK default transport.
func NewProvider(s Settings, httpClient *http.Client) (Provider, error) {
	switch s.Provider {
	case "openai", "databricks", "local", "":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Timeout:    s.Timeout,
			MaxRetries: s.MaxRetries,
			HTTPClient: httpClient,
		}), nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Timeout:    s.Timeout,
			MaxRetries: s.MaxRetries,
			HTTPClient: httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", s.Provider)
	}
}
