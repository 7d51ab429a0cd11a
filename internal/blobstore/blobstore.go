package blobstore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var blobLogger = slog.With("component", "blobstore")

// Store принимает байты файла и возвращает публичный URL.
// Хранение — каталог на диске, который cmd/server раздает по /uploads/.
type Store struct {
	dir     string
	baseURL string
}

// NewStore создает каталог для загрузок, если его еще нет.
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create upload dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save пишет файл под случайным именем, сохраняя расширение оригинала,
// и возвращает URL, по которому файл будет отдан.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + filepath.Ext(originalName)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("blobstore: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("blobstore: write file: %w", err)
	}

	url := s.baseURL + "/uploads/" + name
	blobLogger.Info("file saved", "name", name, "url", url)
	return url, nil
}

// Dir возвращает каталог хранения для монтирования FileServer.
func (s *Store) Dir() string {
	return s.dir
}
