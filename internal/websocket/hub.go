package websocket

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"Hermes/internal/models"
	"Hermes/internal/storage"
)

var hubLogger = slog.With("component", "hub")

// Сколько сообщений отдаем новому клиенту в history.
const historyLimit = 100

// outbound — событие на рассылку; exclude позволяет не слать отправителю
// (нужно только для typing).
type outbound struct {
	event   models.Event
	exclude *Client
}

// Hub управляет всеми живыми сессиями и рассылкой событий.
// Множеством клиентов владеет только цикл Run; снаружи к нему ходят
// через каналы. Запись в Store в цикле не выполняется никогда —
// медленная база не должна останавливать рассылку.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	store MessageStore
	roles RoleResolver

	// Сериализация мутаций по id сообщения: конкурентные edit/delete
	// одного id выстраиваются в очередь, проигравший получает
	// ErrNotFound или ErrUnauthorized, а не частичную запись.
	msgLocks [64]sync.Mutex

	done     chan struct{}
	stopOnce sync.Once
}

func NewHub(store MessageStore, roles RoleResolver) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		store:      store,
		roles:      roles,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			hubLogger.Info("client registered",
				"connection_id", client.ID,
				"username", client.identity.Username,
				"total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				hubLogger.Info("client unregistered",
					"connection_id", client.ID,
					"total", len(h.clients))
			}

		case out := <-h.broadcast:
			for client := range h.clients {
				if client == out.exclude {
					continue
				}
				select {
				case client.Send <- out.event:
				default:
					// Очередь клиента переполнена — выбрасываем его,
					// остальные получают событие без задержки.
					delete(h.clients, client)
					close(client.Send)
					hubLogger.Warn("client dropped: send queue full",
						"connection_id", client.ID)
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			return
		}
	}
}

// Stop завершает цикл Run и закрывает очереди всех клиентов.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register подписывает сессию на рассылку. Вызывается при успешном login,
// строго до снимка истории.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast отправляет событие всем живым сессиям.
func (h *Hub) Broadcast(ev models.Event) {
	select {
	case h.broadcast <- outbound{event: ev}:
	case <-h.done:
	}
}

func (h *Hub) broadcastExcept(ev models.Event, exclude *Client) {
	select {
	case h.broadcast <- outbound{event: ev, exclude: exclude}:
	case <-h.done:
	}
}

func (h *Hub) lockFor(id int64) *sync.Mutex {
	return &h.msgLocks[uint64(id)%uint64(len(h.msgLocks))]
}

// PostMessage валидирует и сохраняет новое сообщение, затем рассылает его
// всем, включая отправителя: по id из рассылки клиент сверяет свою
// оптимистичную копию. При ошибке хранилища рассылки нет.
func (h *Hub) PostMessage(ctx context.Context, actor Identity, kind, text string) (storage.Message, error) {
	if strings.TrimSpace(text) == "" {
		return storage.Message{}, ErrEmptyMessage
	}
	if kind != models.KindFile {
		kind = models.KindText
	}
	msg, err := h.store.SaveMessage(ctx, storage.Message{
		Username: actor.Username,
		Kind:     kind,
		Content:  text,
	})
	if err != nil {
		hubLogger.Error("failed to save message", "error", err, "username", actor.Username)
		return storage.Message{}, err
	}
	h.Broadcast(messageEvent(msg))
	return msg, nil
}

// EditMessage меняет текст сообщения, если actor — автор и окно правки
// не истекло. Успех рассылается всем; отказ возвращается вызывающему.
func (h *Hub) EditMessage(ctx context.Context, actor Identity, id int64, text string) (storage.Message, error) {
	if strings.TrimSpace(text) == "" {
		return storage.Message{}, ErrEmptyMessage
	}
	lock := h.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, err := h.store.GetMessage(ctx, id)
	if err != nil {
		return storage.Message{}, err
	}
	if err := authorizeEdit(actor, m, time.Now()); err != nil {
		return storage.Message{}, err
	}
	updated, err := h.store.UpdateMessage(ctx, id, text, time.Now())
	if err != nil {
		hubLogger.Error("failed to update message", "error", err, "message_id", id)
		return storage.Message{}, err
	}
	h.Broadcast(editEvent(updated))
	return updated, nil
}

// DeleteMessage удаляет сообщение: админ — любое, автор — внутри окна
// удаления. Удаление физическое.
func (h *Hub) DeleteMessage(ctx context.Context, actor Identity, id int64) error {
	lock := h.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	m, err := h.store.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeDelete(actor, m, time.Now()); err != nil {
		return err
	}
	if err := h.store.DeleteMessage(ctx, id); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			hubLogger.Error("failed to delete message", "error", err, "message_id", id)
		}
		return err
	}
	h.Broadcast(deleteEvent(id))
	return nil
}
