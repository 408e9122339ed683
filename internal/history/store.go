// Package history persists chat transcripts so a conversation can resume
// with its earlier turns in order.
package history

import (
	"context"

	"ais-rag/internal/llm"
)

// Store is the interface for persistent conversation storage.
type Store interface {
	Append(ctx context.Context, chatID string, msgs ...llm.Message) error
	// Recent returns up to limit of the latest messages, oldest first.
	Recent(ctx context.Context, chatID string, limit int) ([]llm.Message, error)
	Clear(ctx context.Context, chatID string) error
	Close() error
}
