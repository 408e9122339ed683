// Package chat runs a conversation on top of the llm facade: it replays
// stored history, sends the new turn and records successful exchanges.
package chat

import (
	"context"
	"errors"
	"log/slog"

	"ais-rag/internal/history"
	"ais-rag/internal/llm"
	"ais-rag/internal/security"
)

// Completer is the part of *llm.Client a session needs.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) llm.Result
	Apology(err error) string
}

// Config controls a single session.
type Config struct {
	ChatID       string
	SystemPrompt string
	HistoryLimit int
	MaxTokens    int
	Temperature  float64
}

// Reply is what the user sees for one turn. Failed replies carry the
// apology text and are not recorded.
type Reply struct {
	Text   string
	Failed bool
	Usage  llm.Usage
}

// Session holds one conversation. It is not safe for concurrent use.
type Session struct {
	client   Completer
	store    history.Store
	redactor *security.Redactor
	cfg      Config
	logger   *slog.Logger

	local []llm.Message // used when store is nil
}

// NewSession creates a session. store and redactor may be nil; without a
// store the transcript lives only in memory.
func NewSession(client Completer, store history.Store, redactor *security.Redactor, cfg Config, logger *slog.Logger) (*Session, error) {
	if client == nil {
		return nil, errors.New("llm client is required")
	}
	if cfg.ChatID == "" {
		cfg.ChatID = "default"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		client:   client,
		store:    store,
		redactor: redactor,
		cfg:      cfg,
		logger:   logger.With("component", "chat", "chat_id", cfg.ChatID),
	}, nil
}

// Send runs one turn and always returns something to show.
func (s *Session) Send(ctx context.Context, text string) Reply {
	past := s.history(ctx)

	msgs := make([]llm.Message, 0, len(past)+2)
	if s.cfg.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.cfg.SystemPrompt})
	}
	msgs = append(msgs, past...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: text})

	outgoing := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		outgoing[i] = llm.Message{Role: m.Role, Content: s.redactor.Redact(m.Content)}
	}

	res := s.client.Complete(ctx, outgoing,
		llm.WithMaxTokens(s.cfg.MaxTokens),
		llm.WithTemperature(s.cfg.Temperature))
	if !res.OK() {
		return Reply{Text: s.client.Apology(res.Err), Failed: true}
	}

	answer := s.redactor.Restore(res.Text)
	s.record(ctx,
		llm.Message{Role: llm.RoleUser, Content: text},
		llm.Message{Role: llm.RoleAssistant, Content: answer})

	s.logger.Debug("turn complete",
		"input_tokens", res.Usage.InputTokens,
		"output_tokens", res.Usage.OutputTokens)
	return Reply{Text: answer, Usage: res.Usage}
}

// Reset forgets the conversation.
func (s *Session) Reset(ctx context.Context) error {
	s.local = nil
	s.redactor.Reset()
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx, s.cfg.ChatID)
}

func (s *Session) history(ctx context.Context) []llm.Message {
	if s.store == nil {
		return s.tail(s.local)
	}
	msgs, err := s.store.Recent(ctx, s.cfg.ChatID, s.cfg.HistoryLimit)
	if err != nil {
		s.logger.Warn("failed to load history", "err", err)
		return nil
	}
	return msgs
}

func (s *Session) record(ctx context.Context, msgs ...llm.Message) {
	if s.store == nil {
		s.local = append(s.local, msgs...)
		return
	}
	if err := s.store.Append(ctx, s.cfg.ChatID, msgs...); err != nil {
		s.logger.Warn("failed to save turn", "err", err)
	}
}

func (s *Session) tail(msgs []llm.Message) []llm.Message {
	if s.cfg.HistoryLimit <= 0 {
		return nil
	}
	if len(msgs) > s.cfg.HistoryLimit {
		msgs = msgs[len(msgs)-s.cfg.HistoryLimit:]
	}
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out
}
