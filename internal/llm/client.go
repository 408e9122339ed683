package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

const (
	DefaultMaxTokens   = 3000
	DefaultTemperature = 0.3

	// DefaultApologyFormat is the reply Generate returns when a request
	// fails; %s receives the error text.
	DefaultApologyFormat = "ขออภัยค่ะ ระบบขัดข้อง: %s"
)

// Result is the outcome of a single completion. Err is nil on success.
type Result struct {
	Text  string
	Usage Usage
	Err   *LLMError
}

// OK reports whether the completion succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Client is the generation facade used by the chat front end. It owns one
// provider for its lifetime and is safe for concurrent use as long as the
// provider is.
type Client struct {
	settings      Settings
	provider      Provider
	logger        *slog.Logger
	apologyFormat string
}

type clientOptions struct {
	logger        *slog.Logger
	provider      Provider
	httpClient    *http.Client
	apologyFormat string
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger used for warnings and request failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithProvider bypasses NewProvider and uses p directly.
func WithProvider(p Provider) Option {
	return func(o *clientOptions) { o.provider = p }
}

// WithHTTPClient sets the HTTP client handed to the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithApologyFormat replaces DefaultApologyFormat. The format must contain a
// single %s verb.
func WithApologyFormat(format string) Option {
	return func(o *clientOptions) {
		if format != "" {
			o.apologyFormat = format
		}
	}
}

// New builds a Client from resolved settings. Missing credentials only log a
// warning; requests made later are expected to fail at the transport layer.
func New(s Settings, opts ...Option) (*Client, error) {
	o := clientOptions{apologyFormat: DefaultApologyFormat}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger.With("component", "llm")

	if s.Model == "" {
		s.Model = DefaultOpenAIModel
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}

	provider := o.provider
	if provider == nil {
		p, err := NewProvider(s, o.httpClient)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	if s.APIKey == "" {
		logger.Warn("no API key found; LLM calls will fail",
			"checked", []string{EnvDatabricksToken, EnvOpenAIKey})
	}
	logger.Debug("llm client ready",
		"provider", provider.Name(),
		"model", s.Model,
		"source", string(s.Source),
		"base_url", s.BaseURL)

	return &Client{
		settings:      s,
		provider:      provider,
		logger:        logger,
		apologyFormat: o.apologyFormat,
	}, nil
}

// Settings returns the settings the client was built with.
func (c *Client) Settings() Settings { return c.settings }

// GenerateOption adjusts a single request.
type GenerateOption func(*ChatRequest)

// WithMaxTokens bounds the reply length.
func WithMaxTokens(n int) GenerateOption {
	return func(r *ChatRequest) {
		if n > 0 {
			r.MaxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) GenerateOption {
	return func(r *ChatRequest) { r.Temperature = t }
}

// Complete sends messages in order as one request, bounded by the configured
// timeout. It never retries; every failure is reported in Result.Err.
func (c *Client) Complete(ctx context.Context, messages []Message, opts ...GenerateOption) Result {
	req := &ChatRequest{
		Model:       c.settings.Model,
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(req)
	}

	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	resp, err := c.provider.Chat(ctx, req)
	if err != nil {
		llmErr := asLLMError(c.provider.Name(), err)
		c.logger.Error("llm request failed",
			"model", req.Model,
			"kind", llmErr.Type.String(),
			"err", llmErr)
		return Result{Err: llmErr}
	}

	return Result{Text: resp.Content, Usage: resp.Usage}
}

// Generate is Complete with failures rendered as the apology reply. It always
// returns a string the chat front end can show.
func (c *Client) Generate(ctx context.Context, messages []Message, opts ...GenerateOption) string {
	res := c.Complete(ctx, messages, opts...)
	if !res.OK() {
		return c.Apology(res.Err)
	}
	return res.Text
}

// Apology renders err with the client's apology format.
func (c *Client) Apology(err error) string {
	return fmt.Sprintf(c.apologyFormat, err.Error())
}
