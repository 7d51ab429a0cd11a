package blobstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveKeepsExtensionAndContent(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://localhost:8080/")
	require.NoError(t, err)

	url, err := store.Save("photo.png", strings.NewReader("fake-png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/"), url)
	require.True(t, strings.HasSuffix(url, ".png"), url)

	name := url[strings.LastIndex(url, "/")+1:]
	// Имя на диске случайное, не имя клиента
	require.NotEqual(t, "photo.png", name)

	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	require.Equal(t, "fake-png-bytes", string(data))
}

func TestSaveWithoutExtension(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	url, err := store.Save("README", strings.NewReader("text"))
	require.NoError(t, err)
	require.NotContains(t, url[strings.LastIndex(url, "/")+1:], ".")
}

func TestSaveUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	first, err := store.Save("a.txt", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := store.Save("a.txt", strings.NewReader("two"))
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestNewStoreCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	_, err := NewStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
