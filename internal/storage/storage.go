package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// ErrNotFound возвращается, когда сообщение уже удалено или никогда не существовало.
var ErrNotFound = errors.New("storage: message not found")

type Message struct {
	ID        int64
	Username  string
	Kind      string
	Content   string
	CreatedAt time.Time
	EditedAt  sql.NullTime
	Edited    bool
}

type Storage struct {
	db *sql.DB
}

func NewStorage(connStr string) (*Storage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s := &Storage{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return s, nil
}

// migrate создает таблицы при первом запуске.
func (s *Storage) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id         BIGSERIAL PRIMARY KEY,
			username   TEXT NOT NULL,
			kind       TEXT NOT NULL DEFAULT 'text',
			content    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			edited_at  TIMESTAMPTZ,
			edited     BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS messages_created_at_idx ON messages (created_at, id)`,
		`CREATE TABLE IF NOT EXISTS users (
			username      TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveMessage добавляет сообщение в журнал. created_at назначает база —
// это и есть авторитетный порядок сообщений.
func (s *Storage) SaveMessage(ctx context.Context, msg Message) (Message, error) {
	if msg.Kind == "" {
		msg.Kind = "text"
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (username, kind, content) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		msg.Username, msg.Kind, msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("storage: save message: %w", err)
	}
	return msg, nil
}

func (s *Storage) GetMessage(ctx context.Context, id int64) (Message, error) {
	var m Message
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, kind, content, created_at, edited_at, edited
		 FROM messages WHERE id = $1`, id,
	).Scan(&m.ID, &m.Username, &m.Kind, &m.Content, &m.CreatedAt, &m.EditedAt, &m.Edited)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("storage: get message: %w", err)
	}
	return m, nil
}

// UpdateMessage меняет текст сообщения. created_at не трогаем никогда.
func (s *Storage) UpdateMessage(ctx context.Context, id int64, content string, editedAt time.Time) (Message, error) {
	var m Message
	err := s.db.QueryRowContext(ctx,
		`UPDATE messages SET content = $2, edited = TRUE, edited_at = $3
		 WHERE id = $1
		 RETURNING id, username, kind, content, created_at, edited_at, edited`,
		id, content, editedAt,
	).Scan(&m.ID, &m.Username, &m.Kind, &m.Content, &m.CreatedAt, &m.EditedAt, &m.Edited)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("storage: update message: %w", err)
	}
	return m, nil
}

// DeleteMessage удаляет сообщение физически, без tombstone.
func (s *Storage) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: delete message: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentMessages возвращает последние limit сообщений в порядке от старых
// к новым. Внутренний запрос берет хвост журнала, внешний разворачивает.
func (s *Storage) RecentMessages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, kind, content, created_at, edited_at, edited FROM (
			SELECT id, username, kind, content, created_at, edited_at, edited
			FROM messages ORDER BY created_at DESC, id DESC LIMIT $1
		 ) tail ORDER BY created_at ASC, id ASC`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: recent messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Username, &m.Kind, &m.Content, &m.CreatedAt, &m.EditedAt, &m.Edited); err != nil {
			return nil, fmt.Errorf("storage: recent messages: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *Storage) Close() error {
	return s.db.Close()
}
