package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

var (
	ErrUserExists   = errors.New("storage: user already exists")
	ErrUserNotFound = errors.New("storage: user not found")
)

type User struct {
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// CreateUser регистрирует пользователя. Повторная регистрация того же
// имени дает ErrUserExists (уникальность обеспечивает база, не мы).
func (s *Storage) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)`,
		u.Username, u.PasswordHash, u.Role,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("storage: create user: %w", err)
	}
	return nil
}

func (s *Storage) GetUser(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, role, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("storage: get user: %w", err)
	}
	return u, nil
}
