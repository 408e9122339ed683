package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	reqs  []*ChatRequest
	resp  *LLMResponse
	err   error
	delay time.Duration
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Chat(ctx context.Context, req *ChatRequest) (*LLMResponse, error) {
	m.reqs = append(m.reqs, req)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// roundTripFunc lets tests answer SDK requests without a listener.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestGenerate_ReturnsFirstChoice(t *testing.T) {
	p := &mockProvider{resp: &LLMResponse{Content: "hello"}}
	s := Resolve(Overrides{APIKey: "sk-test", Model: "gpt-4o-mini"}, nil)

	c, err := New(s, WithProvider(p), WithLogger(newTestLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	got := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.Equal(t, "hello", got)

	require.Len(t, p.reqs, 1)
	req := p.reqs[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.InDelta(t, DefaultTemperature, req.Temperature, 1e-9)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}}, req.Messages)
}

func TestGenerate_ContentUnmodified(t *testing.T) {
	reply := "  line one\n\nline two  "
	p := &mockProvider{resp: &LLMResponse{Content: reply}}

	c, err := New(Settings{Model: "m"}, WithProvider(p), WithLogger(newTestLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	assert.Equal(t, reply, c.Generate(context.Background(), nil))
}

func TestGenerate_Options(t *testing.T) {
	p := &mockProvider{resp: &LLMResponse{Content: "ok"}}
	c, err := New(Settings{Model: "m"}, WithProvider(p), WithLogger(newTestLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	c.Generate(context.Background(), nil, WithMaxTokens(128), WithTemperature(0))
	c.Generate(context.Background(), nil, WithMaxTokens(0))

	require.Len(t, p.reqs, 2)
	assert.Equal(t, 128, p.reqs[0].MaxTokens)
	assert.Zero(t, p.reqs[0].Temperature)
	assert.Equal(t, DefaultMaxTokens, p.reqs[1].MaxTokens)
}

func TestGenerate_FailureReturnsApology(t *testing.T) {
	var logs bytes.Buffer
	p := &mockProvider{err: errors.New("connection refused")}

	c, err := New(Settings{APIKey: "k", Model: "m"}, WithProvider(p), WithLogger(newTestLogger(&logs)))
	require.NoError(t, err)

	var got string
	require.NotPanics(t, func() {
		got = c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	})

	assert.True(t, strings.HasPrefix(got, "ขออภัยค่ะ ระบบขัดข้อง: "), got)
	assert.Contains(t, got, "connection refused")
	assert.Contains(t, logs.String(), "llm request failed")
}

func TestComplete_TypedFailure(t *testing.T) {
	p := &mockProvider{err: &LLMError{Type: ErrorRateLimit, Provider: "mock", Err: errors.New("slow down")}}

	c, err := New(Settings{Model: "m"}, WithProvider(p), WithLogger(newTestLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	res := c.Complete(context.Background(), nil)
	assert.False(t, res.OK())
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrorRateLimit, res.Err.Type)
	assert.Equal(t, "mock: slow down", res.Err.Error())
	assert.Empty(t, res.Text)
}

func TestComplete_Timeout(t *testing.T) {
	p := &mockProvider{delay: time.Second, resp: &LLMResponse{Content: "late"}}

	c, err := New(Settings{Model: "m", Timeout: 20 * time.Millisecond},
		WithProvider(p), WithLogger(newTestLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	res := c.Complete(context.Background(), nil)
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrorTimeout, res.Err.Type)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestComplete_Usage(t *testing.T) {
	p := &mockProvider{resp: &LLMResponse{Content: "ok", Usage: Usage{InputTokens: 7, OutputTokens: 2}}}
	c, err := New(Settings{Model: "m"}, WithProvider(p), WithLogger(newTestLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	res := c.Complete(context.Background(), nil)
	require.True(t, res.OK())
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 2}, res.Usage)
}

func TestApologyFormat(t *testing.T) {
	c, err := New(Settings{Model: "m"}, WithProvider(&mockProvider{}),
		WithLogger(newTestLogger(&bytes.Buffer{})), WithApologyFormat("Sorry: %s"))
	require.NoError(t, err)

	assert.Equal(t, "Sorry: boom", c.Apology(errors.New("boom")))
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Settings{Provider: "nope", Model: "m"}, WithLogger(newTestLogger(&bytes.Buffer{})))
	assert.EqualError(t, err, "unknown LLM provider: nope")
}

func TestNew_ReusesProvider(t *testing.T) {
	c, err := New(Resolve(Overrides{APIKey: "sk-test"}, nil), WithLogger(newTestLogger(&bytes.Buffer{})))
	require.NoError(t, err)

	_, ok := c.provider.(*OpenAIProvider)
	assert.True(t, ok)
	assert.Equal(t, "sk-test", c.Settings().APIKey)
}

func TestNew_NoCredentialsWarnsAndFailsLater(t *testing.T) {
	var logs bytes.Buffer
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		body := `{"error":{"message":"You didn't provide an API key.","type":"invalid_request_error","code":null}}`
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Status:     "401 Unauthorized",
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})}

	s := Resolve(Overrides{}, envMap(nil))
	c, err := New(s, WithHTTPClient(httpClient), WithLogger(newTestLogger(&logs)))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "no API key found")
	assert.Contains(t, logs.String(), "level=WARN")

	res := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NotNil(t, res.Err)
	assert.Equal(t, ErrorAuth, res.Err.Type)

	got := c.Generate(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.True(t, strings.HasPrefix(got, "ขออภัยค่ะ ระบบขัดข้อง: "), got)
	assert.Contains(t, got, "401")
}
