package models

import "time"

// Event — единый формат сообщений протокола. Поле Type определяет,
// какие остальные поля заполнены (см. константы ниже).
type Event struct {
	Type      string           `json:"type"`
	ID        int64            `json:"id,omitempty"`
	MessageID int64            `json:"messageId,omitempty"`
	Username  string           `json:"username,omitempty"`
	Kind      string           `json:"kind,omitempty"`
	Text      string           `json:"text,omitempty"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Edited    bool             `json:"edited,omitempty"`
	Status    string           `json:"status,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
	Message   string           `json:"message,omitempty"` // текст ошибки для type=error
}

// HistoryMessage — снимок одного сообщения внутри события history.
type HistoryMessage struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Edited    bool      `json:"edited"`
}

// Входящие события (клиент -> сервер)
const (
	EventTypeLogin   = "login"
	EventTypeMessage = "message"
	EventTypeEdit    = "edit"
	EventTypeDelete  = "delete"
	EventTypeTyping  = "typing"
)

// Исходящие события (сервер -> клиент)
const (
	EventTypeHistory = "history"
	EventTypeError   = "error"
)

// Виды сообщений в журнале
const (
	KindText = "text"
	KindFile = "file"
)

// StatusSent проставляется на каждом разосланном message-событии:
// по нему клиент сверяет свою оптимистичную локальную копию.
const StatusSent = "sent"

// NewErrorEvent создает событие об ошибке для инициатора.
func NewErrorEvent(msg string) Event {
	return Event{Type: EventTypeError, Message: msg}
}
