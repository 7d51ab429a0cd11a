package handlers

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/websocket"

	wsHub "Hermes/internal/websocket"
)

var chatLogger = slog.With("component", "chat")

type ChatHandler struct {
	Hub *wsHub.Hub
}

func NewChatHandler(hub *wsHub.Hub) *ChatHandler {
	return &ChatHandler{Hub: hub}
}

// ServeWS обрабатывает WebSocket подключения. Сессия создается
// неавторизованной; имя она получит после события login.
func (ch *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	chatLogger.Info("WebSocket connection attempt",
		"origin", r.Header.Get("Origin"),
		"remote", r.RemoteAddr)

	upgrader := &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true // не-браузерные клиенты
			}
			allowed := os.Getenv("HERMES_ALLOWED_ORIGIN")
			if allowed == "" {
				return true // для разработки
			}
			return origin == allowed
		},
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		chatLogger.Error("Error WebSocket upgrade", "error", err)
		return
	}

	client := wsHub.NewClient(ch.Hub, conn)
	chatLogger.Info("WebSocket connection established", "connection_id", client.ID)

	// Запускаем горутины для чтения и записи
	go client.WritePump()
	go client.ReadPump()
}
