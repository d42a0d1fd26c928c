package local

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStorage сохраняет файлы (подтверждения вручения, подписи) на локальный диск
// и возвращает URL вида <baseURL>/<bucket>/<path>.
type FileStorage struct {
	root    string
	baseURL string
}

// NewFileStorage создаёт локальное файловое хранилище с корнем root.
func NewFileStorage(root, baseURL string) *FileStorage {
	return &FileStorage{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *FileStorage) Store(data []byte, bucket, path, contentType string) (string, error) {
	full := filepath.Join(s.root, bucket, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create storage dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return s.baseURL + "/" + bucket + "/" + path, nil
}
