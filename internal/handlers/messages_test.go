package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Hermes/internal/models"
	"Hermes/internal/storage"
	wsHub "Hermes/internal/websocket"
)

// memStore — in-memory MessageStore для HTTP тестов.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	msgs   map[int64]storage.Message
}

func newMemStore() *memStore {
	return &memStore{msgs: make(map[int64]storage.Message)}
}

func (m *memStore) put(username, content string, createdAt time.Time) storage.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg := storage.Message{
		ID: m.nextID, Username: username, Kind: models.KindText,
		Content: content, CreatedAt: createdAt,
	}
	m.msgs[msg.ID] = msg
	return msg
}

func (m *memStore) SaveMessage(_ context.Context, msg storage.Message) (storage.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = time.Now()
	m.msgs[msg.ID] = msg
	return msg, nil
}

func (m *memStore) GetMessage(_ context.Context, id int64) (storage.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	if !ok {
		return storage.Message{}, storage.ErrNotFound
	}
	return msg, nil
}

func (m *memStore) UpdateMessage(_ context.Context, id int64, content string, editedAt time.Time) (storage.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[id]
	if !ok {
		return storage.Message{}, storage.ErrNotFound
	}
	msg.Content = content
	msg.Edited = true
	msg.EditedAt.Valid = true
	msg.EditedAt.Time = editedAt
	m.msgs[id] = msg
	return msg, nil
}

func (m *memStore) DeleteMessage(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.msgs[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.msgs, id)
	return nil
}

func (m *memStore) RecentMessages(_ context.Context, _ int) ([]storage.Message, error) {
	return nil, nil
}

// staticRoles — RoleResolver на карте.
type staticRoles map[string]string

func (s staticRoles) RoleFor(_ context.Context, username string) (string, error) {
	if role, ok := s[username]; ok {
		return role, nil
	}
	return wsHub.RoleUser, nil
}

func newTestMux(t *testing.T, store *memStore, roles staticRoles) *http.ServeMux {
	t.Helper()
	if roles == nil {
		roles = staticRoles{}
	}
	hub := wsHub.NewHub(store, roles)
	go hub.Run()
	t.Cleanup(hub.Stop)

	h := NewMessageHandler(hub, roles)
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /delete-message/{id}", h.Delete)
	mux.HandleFunc("PUT /edit-message/{id}", h.Edit)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func TestEditEndpoint(t *testing.T) {
	store := newMemStore()
	msg := store.put("alice", "original", time.Now())
	mux := newTestMux(t, store, nil)

	rec, resp := doJSON(t, mux, http.MethodPut, "/edit-message/1",
		`{"username":"alice","text":"fixed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Message edited successfully", resp["message"])

	got, err := store.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Equal(t, "fixed", got.Content)
	require.True(t, got.Edited)
}

func TestEditEndpointRejectsNonAuthor(t *testing.T) {
	store := newMemStore()
	store.put("alice", "original", time.Now())
	mux := newTestMux(t, store, nil)

	rec, resp := doJSON(t, mux, http.MethodPut, "/edit-message/1",
		`{"username":"bob","text":"hacked"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "You can only edit your own messages within 30 minutes", resp["message"])
}

func TestEditEndpointOutsideWindow(t *testing.T) {
	store := newMemStore()
	store.put("alice", "old", time.Now().Add(-time.Hour))
	mux := newTestMux(t, store, nil)

	rec, _ := doJSON(t, mux, http.MethodPut, "/edit-message/1",
		`{"username":"alice","text":"late"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEditEndpointValidation(t *testing.T) {
	store := newMemStore()
	store.put("alice", "original", time.Now())
	mux := newTestMux(t, store, nil)

	rec, resp := doJSON(t, mux, http.MethodPut, "/edit-message/abc",
		`{"username":"alice","text":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid message ID", resp["message"])

	rec, resp = doJSON(t, mux, http.MethodPut, "/edit-message/1", `{"text":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Username is required", resp["message"])

	rec, resp = doJSON(t, mux, http.MethodPut, "/edit-message/1",
		`{"username":"alice","text":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Message cannot be empty", resp["message"])

	rec, _ = doJSON(t, mux, http.MethodPut, "/edit-message/404",
		`{"username":"alice","text":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEndpoint(t *testing.T) {
	store := newMemStore()
	msg := store.put("alice", "bye", time.Now())
	mux := newTestMux(t, store, nil)

	rec, resp := doJSON(t, mux, http.MethodDelete, "/delete-message/1",
		`{"username":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Message deleted successfully", resp["message"])

	_, err := store.GetMessage(context.Background(), msg.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Повтор — 404
	rec, _ = doJSON(t, mux, http.MethodDelete, "/delete-message/1",
		`{"username":"alice"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEndpointAdminOverridesWindow(t *testing.T) {
	store := newMemStore()
	store.put("alice", "ancient", time.Now().Add(-24*time.Hour))
	mux := newTestMux(t, store, staticRoles{"root": wsHub.RoleAdmin})

	// Автор вне окна — запрет
	rec, resp := doJSON(t, mux, http.MethodDelete, "/delete-message/1",
		`{"username":"alice"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "Only admins can delete old messages", resp["message"])

	// Админ — можно
	rec, _ = doJSON(t, mux, http.MethodDelete, "/delete-message/1",
		`{"username":"root"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteEndpointBadBody(t *testing.T) {
	store := newMemStore()
	store.put("alice", "x", time.Now())
	mux := newTestMux(t, store, nil)

	rec, resp := doJSON(t, mux, http.MethodDelete, "/delete-message/1", "{broken")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid request body", resp["message"])
}
