package websocket

import (
	"context"
	"errors"
	"strings"
	"time"

	"Hermes/internal/models"
	"Hermes/internal/storage"
)

// handleEvent маршрутизирует входящее событие по типу. Контекст фоновый
// нарочно: начатая запись в хранилище не отменяется из-за того, что
// отправитель отключился сразу после отправки.
func (c *Client) handleEvent(ev models.Event) {
	ctx := context.Background()

	if !c.authenticated && ev.Type != models.EventTypeLogin {
		c.sendError("Login required")
		return
	}

	switch ev.Type {
	case models.EventTypeLogin:
		c.handleLogin(ctx, ev)
	case models.EventTypeMessage:
		c.handleMessage(ctx, ev)
	case models.EventTypeEdit:
		c.handleEdit(ctx, ev)
	case models.EventTypeDelete:
		c.handleDelete(ctx, ev)
	case models.EventTypeTyping:
		c.handleTyping()
	default:
		c.sendError("Unknown event type: " + ev.Type)
	}
}

// handleLogin привязывает имя к сессии и отдает снимок истории.
// Имя принимается со слов клиента — сокет не переаутентифицируется
// (known gap, см. DESIGN.md); роль при этом спрашиваем у Auth Service,
// клиентской роли не верим.
func (c *Client) handleLogin(ctx context.Context, ev models.Event) {
	if c.authenticated {
		c.sendError("Already logged in")
		return
	}
	username := strings.TrimSpace(ev.Username)
	if username == "" {
		c.sendError("Username is required")
		return
	}

	role, err := c.hub.roles.RoleFor(ctx, username)
	if err != nil {
		// Auth Service недоступен: впускаем как user, но говорим об этом
		// клиенту — молча терять админские права нельзя.
		hubLogger.Warn("role lookup failed, defaulting to user",
			"username", username, "error", err)
		role = RoleUser
		c.sendError("Could not verify role, continuing as user")
	}
	c.identity = Identity{Username: username, Role: role}
	c.authenticated = true

	// Подписка строго до снимка: событие, пришедшее между ними, ждет
	// в очереди, а его дубликат в снимке гасится по seen.
	c.hub.Register(c)

	// При отказе хранилища клиент получает error и пустой снимок: на
	// проводе это неотличимо от пустой комнаты, error-событие — единственный
	// признак деградации.
	msgs, err := c.hub.store.RecentMessages(ctx, historyLimit)
	if err != nil {
		hubLogger.Error("failed to load history", "error", err, "username", username)
		c.sendError("Failed to load history")
		msgs = nil
	}
	c.seen = make(map[int64]struct{}, len(msgs))
	for _, m := range msgs {
		c.seen[m.ID] = struct{}{}
	}
	// Открываем шлюз даже при пустой истории, иначе Send не разгребается.
	c.history <- historyEvent(msgs)
}

func (c *Client) handleMessage(ctx context.Context, ev models.Event) {
	if _, err := c.hub.PostMessage(ctx, c.identity, ev.Kind, ev.Text); err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			c.sendError("Message cannot be empty")
		default:
			c.sendError("Failed to save message")
		}
	}
}

func (c *Client) handleEdit(ctx context.Context, ev models.Event) {
	if _, err := c.hub.EditMessage(ctx, c.identity, ev.MessageID, ev.Text); err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage):
			c.sendError("Message cannot be empty")
		case errors.Is(err, storage.ErrNotFound):
			c.sendError("Message not found")
		case errors.Is(err, ErrUnauthorized):
			c.sendError("Unauthorized: you can only edit your own messages within 30 minutes")
		default:
			c.sendError("Failed to edit message")
		}
	}
}

func (c *Client) handleDelete(ctx context.Context, ev models.Event) {
	if err := c.hub.DeleteMessage(ctx, c.identity, ev.MessageID); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.sendError("Message not found")
		case errors.Is(err, ErrUnauthorized):
			c.sendError("Unauthorized: only admins can delete old messages")
		default:
			c.sendError("Failed to delete message")
		}
	}
}

// handleTyping рассылает индикатор всем, кроме отправителя, не чаще
// одного раза за интервал. Ничего не сохраняется.
func (c *Client) handleTyping() {
	if !c.typing.allow(time.Now()) {
		return
	}
	c.hub.broadcastExcept(typingEvent(c.identity.Username), c)
}
