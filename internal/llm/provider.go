package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Provider is the interface all LLM backends must implement.
type Provider interface {
	// Chat sends a chat completion request and returns the full response.
	// Errors returned are *LLMError.
	Chat(ctx context.Context, req *ChatRequest) (*LLMResponse, error)

	// Name returns the provider name (e.g. "openai", "anthropic").
	Name() string
}

// LLMError wraps an error with a classification.
type LLMError struct {
	Type     ErrorType
	Provider string
	Err      error
}

func (e *LLMError) Error() string {
	msg := e.Type.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider != "" {
		return e.Provider + ": " + msg
	}
	return msg
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

func newLLMError(provider string, typ ErrorType, format string, args ...any) *LLMError {
	return &LLMError{Type: typ, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// asLLMError returns err as an *LLMError, classifying it as unknown when it
// is not one already.
func asLLMError(provider string, err error) *LLMError {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr
	}
	return &LLMError{Type: classifyTransport(err), Provider: provider, Err: err}
}

// classifyStatus maps an HTTP status code returned by a provider API.
func classifyStatus(code int) ErrorType {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorAuth
	case code == http.StatusTooManyRequests:
		return ErrorRateLimit
	case code == http.StatusBadRequest || code == http.StatusNotFound || code == http.StatusUnprocessableEntity:
		return ErrorInvalidInput
	case code == http.StatusRequestTimeout:
		return ErrorTimeout
	case code >= 500:
		return ErrorServerError
	default:
		return ErrorUnknown
	}
}

// classifyTransport handles errors that never produced an API response.
func classifyTransport(err error) ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTimeout
		}
		return ErrorNetwork
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "403") || strings.Contains(lower, "unauthorized"):
		return ErrorAuth
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return ErrorRateLimit
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return ErrorTimeout
	case strings.Contains(lower, "connection") || strings.Contains(lower, "dns") || strings.Contains(lower, "refused"):
		return ErrorNetwork
	default:
		return ErrorUnknown
	}
}
