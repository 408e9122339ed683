package llm

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the roles providers accept.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a chat message. A slice of messages is a conversation
// in chronological order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LLMResponse is the response from an LLM provider.
type LLMResponse struct {
	Content    string `json:"content"`
	Usage      Usage  `json:"usage"`
	StopReason string `json:"stop_reason"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChatRequest is the input for a chat completion.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ErrorType classifies LLM errors.
type ErrorType int

const (
	ErrorUnknown       ErrorType = iota
	ErrorRateLimit               // 429
	ErrorAuth                    // 401/403
	ErrorInvalidInput            // 400
	ErrorServerError             // 500+
	ErrorTimeout                 // context deadline exceeded
	ErrorNetwork                 // connection refused, DNS, etc.
	ErrorEmptyResponse           // no choices / no text
)

func (t ErrorType) String() string {
	switch t {
	case ErrorRateLimit:
		return "rate_limit"
	case ErrorAuth:
		return "auth"
	case ErrorInvalidInput:
		return "invalid_input"
	case ErrorServerError:
		return "server_error"
	case ErrorTimeout:
		return "timeout"
	case ErrorNetwork:
		return "network"
	case ErrorEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}
