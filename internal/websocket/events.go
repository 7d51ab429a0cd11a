package websocket

import (
	"Hermes/internal/models"
	"Hermes/internal/storage"
)

// Конструкторы исходящих событий. Формат описан в internal/models.

func messageEvent(m storage.Message) models.Event {
	ts := m.CreatedAt
	return models.Event{
		Type:      models.EventTypeMessage,
		ID:        m.ID,
		Username:  m.Username,
		Kind:      m.Kind,
		Text:      m.Content,
		Timestamp: &ts,
		Status:    models.StatusSent,
	}
}

func editEvent(m storage.Message) models.Event {
	// Timestamp остается временем создания: порядок в ленте не меняется.
	ts := m.CreatedAt
	return models.Event{
		Type:      models.EventTypeEdit,
		ID:        m.ID,
		Username:  m.Username,
		Text:      m.Content,
		Timestamp: &ts,
		Edited:    true,
	}
}

func deleteEvent(id int64) models.Event {
	return models.Event{Type: models.EventTypeDelete, MessageID: id}
}

func typingEvent(username string) models.Event {
	return models.Event{Type: models.EventTypeTyping, Username: username}
}

func historyEvent(msgs []storage.Message) models.Event {
	entries := make([]models.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, models.HistoryMessage{
			ID:        m.ID,
			Username:  m.Username,
			Kind:      m.Kind,
			Text:      m.Content,
			Timestamp: m.CreatedAt,
			Edited:    m.Edited,
		})
	}
	return models.Event{Type: models.EventTypeHistory, Messages: entries}
}
