package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
)

// Тесты гоняются против живого Postgres. Без HERMES_DB_CONN — скип.
func testStorage(t *testing.T) *Storage {
	t.Helper()
	godotenv.Load("../../.env")
	connStr := os.Getenv("HERMES_DB_CONN")
	if connStr == "" {
		t.Skip("HERMES_DB_CONN не задан, пропускаем интеграционные тесты")
	}
	store, err := NewStorage(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndGetMessage(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	saved, err := store.SaveMessage(ctx, Message{
		Username: "testuser",
		Content:  "Тестовое сообщение",
	})
	require.NoError(t, err)
	require.NotZero(t, saved.ID)
	require.False(t, saved.CreatedAt.IsZero(), "created_at назначает база")
	require.Equal(t, "text", saved.Kind)

	got, err := store.GetMessage(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, saved.Username, got.Username)
	require.Equal(t, saved.Content, got.Content)
	require.False(t, got.Edited)
	require.False(t, got.EditedAt.Valid)
}

func TestUpdateMessagePreservesCreatedAt(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	saved, err := store.SaveMessage(ctx, Message{Username: "testuser", Content: "до правки"})
	require.NoError(t, err)

	updated, err := store.UpdateMessage(ctx, saved.ID, "после правки", time.Now())
	require.NoError(t, err)
	require.Equal(t, "после правки", updated.Content)
	require.True(t, updated.Edited)
	require.True(t, updated.EditedAt.Valid)
	require.True(t, updated.CreatedAt.Equal(saved.CreatedAt), "created_at не должен меняться")
}

func TestDeleteMessage(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	saved, err := store.SaveMessage(ctx, Message{Username: "testuser", Content: "на удаление"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteMessage(ctx, saved.ID))

	_, err = store.GetMessage(ctx, saved.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.DeleteMessage(ctx, saved.ID), ErrNotFound)
}

func TestUpdateMissingMessage(t *testing.T) {
	store := testStorage(t)

	_, err := store.UpdateMessage(context.Background(), -1, "пусто", time.Now())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecentMessagesOldestFirst(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		saved, err := store.SaveMessage(ctx, Message{
			Username: "testuser",
			Content:  fmt.Sprintf("ordering-%d", i),
		})
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	messages, err := store.RecentMessages(ctx, 100)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(messages), 3)

	// Хвост журнала, от старых к новым
	for i := 1; i < len(messages); i++ {
		prev, cur := messages[i-1], messages[i]
		require.False(t, cur.CreatedAt.Before(prev.CreatedAt))
		if cur.CreatedAt.Equal(prev.CreatedAt) {
			require.Greater(t, cur.ID, prev.ID)
		}
	}

	// Наши три — в конце и в порядке вставки
	tail := messages[len(messages)-3:]
	for i, m := range tail {
		require.Equal(t, ids[i], m.ID)
	}
}

func TestRecentMessagesLimit(t *testing.T) {
	store := testStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.SaveMessage(ctx, Message{Username: "testuser", Content: "filler"})
		require.NoError(t, err)
	}

	messages, err := store.RecentMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}
