package websocket

import (
	"errors"
	"time"

	"Hermes/internal/storage"
)

// Роли пользователей (назначает Auth Service).
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Окна, в течение которых автор может править и удалять свои сообщения.
// Проверяются по часам в момент запроса, фоновых задач нет.
const (
	EditWindow   = 30 * time.Minute
	DeleteWindow = 10 * time.Minute
)

var (
	ErrUnauthorized = errors.New("websocket: operation not authorized")
	ErrEmptyMessage = errors.New("websocket: empty message body")
)

// Identity — привязка сессии к пользователю, установленная при login.
// После привязки имя из входящих событий больше не читается.
type Identity struct {
	Username string
	Role     string
}

// authorizeEdit: править может только автор и только внутри EditWindow.
// Граница окна включительно.
func authorizeEdit(actor Identity, m storage.Message, now time.Time) error {
	if actor.Username != m.Username {
		return ErrUnauthorized
	}
	if now.Sub(m.CreatedAt) > EditWindow {
		return ErrUnauthorized
	}
	return nil
}

// authorizeDelete: админ удаляет что угодно, автор — внутри DeleteWindow,
// остальные — никогда.
func authorizeDelete(actor Identity, m storage.Message, now time.Time) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if actor.Username != m.Username {
		return ErrUnauthorized
	}
	if now.Sub(m.CreatedAt) > DeleteWindow {
		return ErrUnauthorized
	}
	return nil
}
