package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"Hermes/internal/storage"
	wsHub "Hermes/internal/websocket"
)

var messagesLogger = slog.With("component", "messages-http")

// MessageHandler — REST-путь для правки и удаления сообщений. Правила
// авторизации и рассылка тут ровно те же, что на сокете: оба пути
// сходятся в методах Hub.
type MessageHandler struct {
	Hub   *wsHub.Hub
	Roles wsHub.RoleResolver
}

func NewMessageHandler(hub *wsHub.Hub, roles wsHub.RoleResolver) *MessageHandler {
	return &MessageHandler{Hub: hub, Roles: roles}
}

type mutateRequest struct {
	Username string `json:"username"`
	Text     string `json:"text,omitempty"`
}

// identify собирает Identity по имени из запроса. Имени верим так же,
// как на сокете; роль всегда спрашиваем у Auth Service.
func (h *MessageHandler) identify(r *http.Request, username string) (wsHub.Identity, bool) {
	username = strings.TrimSpace(username)
	if username == "" {
		return wsHub.Identity{}, false
	}
	role, err := h.Roles.RoleFor(r.Context(), username)
	if err != nil {
		messagesLogger.Warn("role lookup failed, defaulting to user",
			"username", username, "error", err)
		role = wsHub.RoleUser
	}
	return wsHub.Identity{Username: username, Role: role}, true
}

// Delete обрабатывает DELETE /delete-message/{id}.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid message ID"})
		return
	}

	var req mutateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	actor, ok := h.identify(r, req.Username)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username is required"})
		return
	}

	switch err := h.Hub.DeleteMessage(r.Context(), actor, id); {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted successfully"})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Message not found"})
	case errors.Is(err, wsHub.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Only admins can delete old messages"})
	default:
		messagesLogger.Error("delete failed", "error", err, "message_id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
	}
}

// Edit обрабатывает PUT /edit-message/{id}.
func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid message ID"})
		return
	}

	var req mutateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	actor, ok := h.identify(r, req.Username)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username is required"})
		return
	}

	switch _, err := h.Hub.EditMessage(r.Context(), actor, id, req.Text); {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Message edited successfully"})
	case errors.Is(err, wsHub.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Message cannot be empty"})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Message not found"})
	case errors.Is(err, wsHub.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "You can only edit your own messages within 30 minutes"})
	default:
		messagesLogger.Error("edit failed", "error", err, "message_id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
	}
}
