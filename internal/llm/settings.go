package llm

import "time"

// Environment variables consulted by Resolve.
const (
	EnvDatabricksToken    = "DATABRICKS_TOKEN"
	EnvDatabricksEndpoint = "DATABRICKS_ENDPOINT"
	EnvOpenAIKey          = "OPENAI_API_KEY"
)

const (
	DefaultDatabricksModel = "databricks-claude-sonnet-4-5"
	DefaultOpenAIModel     = "gpt-4o"
	DefaultProvider        = "openai"
	DefaultTimeout         = 60 * time.Second
)

// CredentialSource records where the resolved API key came from.
type CredentialSource string

const (
	SourceExplicit   CredentialSource = "explicit"
	SourceDatabricks CredentialSource = "databricks"
	SourceOpenAI     CredentialSource = "openai"
	SourceNone       CredentialSource = "none"
)

// Overrides are caller-supplied values. Empty strings and zero values mean
// "not supplied".
type Overrides struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Settings are the resolved connection parameters for a Client.
// Model is never empty. An empty BaseURL selects the provider's default
// endpoint. An empty APIKey is allowed; requests will fail at call time.
type Settings struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	Source     CredentialSource
	Timeout    time.Duration
	MaxRetries int
}

// Resolve computes Settings from overrides, falling back to Databricks
// variables and then to the plain OpenAI key. getenv is consulted for the
// variables above only; an empty value counts as unset.
//
// When the OpenAI fallback is taken the base URL is cleared, and the model
// switches to DefaultOpenAIModel unless the caller supplied one.
func Resolve(o Overrides, getenv func(string) string) Settings {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	s := Settings{
		Provider:   o.Provider,
		APIKey:     o.APIKey,
		BaseURL:    o.BaseURL,
		Model:      o.Model,
		Source:     SourceExplicit,
		Timeout:    o.Timeout,
		MaxRetries: o.MaxRetries,
	}
	if s.Provider == "" {
		s.Provider = DefaultProvider
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}

	if s.APIKey == "" {
		s.APIKey = getenv(EnvDatabricksToken)
		s.Source = SourceDatabricks
	}
	if s.BaseURL == "" {
		s.BaseURL = getenv(EnvDatabricksEndpoint)
	}
	if s.Model == "" {
		s.Model = DefaultDatabricksModel
	}

	if s.APIKey == "" {
		s.APIKey = getenv(EnvOpenAIKey)
		s.Source = SourceOpenAI
		s.BaseURL = ""
		if o.Model == "" {
			s.Model = DefaultOpenAIModel
		}
	}

	if s.APIKey == "" {
		s.Source = SourceNone
	}
	return s
}
