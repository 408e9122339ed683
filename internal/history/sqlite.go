package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ais-rag/internal/llm"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at the given path.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append stores msgs in order within one transaction.
func (s *SQLiteStore) Append(ctx context.Context, chatID string, msgs ...llm.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO turns (chat_id, role, content) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range msgs {
		if !m.Role.Valid() {
			return fmt.Errorf("append: unsupported role %q", m.Role)
		}
		if _, err := stmt.ExecContext(ctx, chatID, string(m.Role), m.Content); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Recent(ctx context.Context, chatID string, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM (
			SELECT role, content, id
			FROM turns WHERE chat_id = ? ORDER BY id DESC LIMIT ?
		) sub ORDER BY id ASC`,
		chatID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []llm.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		msgs = append(msgs, llm.Message{Role: llm.Role(role), Content: content})
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) Clear(ctx context.Context, chatID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE chat_id = ?`, chatID)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
