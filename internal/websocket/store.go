package websocket

import (
	"context"
	"time"

	"Hermes/internal/storage"
)

// MessageStore — контракт внешнего хранилища журнала сообщений.
// Реализуется storage.Storage; в тестах подменяется на in-memory фейк.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg storage.Message) (storage.Message, error)
	GetMessage(ctx context.Context, id int64) (storage.Message, error)
	UpdateMessage(ctx context.Context, id int64, content string, editedAt time.Time) (storage.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	RecentMessages(ctx context.Context, limit int) ([]storage.Message, error)
}

// RoleResolver выдает роль пользователя. За ним стоит Auth Service по gRPC.
type RoleResolver interface {
	RoleFor(ctx context.Context, username string) (string, error)
}
