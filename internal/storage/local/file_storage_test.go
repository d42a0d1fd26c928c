package local_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Harish222600/sonica-backend/internal/storage/local"
)

func TestFileStorage_Store(t *testing.T) {
	root := t.TempDir()
	storage := local.NewFileStorage(root, "http://localhost:8080/files/")

	url, err := storage.Store([]byte("jpeg-bytes"), "delivery-proofs", "d1", "image/jpeg")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	// Хвостовой слэш baseURL не удваивается.
	if url != "http://localhost:8080/files/delivery-proofs/d1" {
		t.Fatalf("unexpected url %q", url)
	}

	data, err := os.ReadFile(filepath.Join(root, "delivery-proofs", "d1"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestFileStorage_StoreNestedPath(t *testing.T) {
	root := t.TempDir()
	storage := local.NewFileStorage(root, "http://files.local")

	url, err := storage.Store([]byte("sig"), "signatures", "2026/08/d2", "image/png")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if url != "http://files.local/signatures/2026/08/d2" {
		t.Fatalf("unexpected url %q", url)
	}

	if _, err := os.Stat(filepath.Join(root, "signatures", "2026", "08", "d2")); err != nil {
		t.Fatalf("nested file missing: %v", err)
	}
}

func TestFileStorage_Overwrite(t *testing.T) {
	root := t.TempDir()
	storage := local.NewFileStorage(root, "http://files.local")

	if _, err := storage.Store([]byte("v1"), "b", "f", "text/plain"); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if _, err := storage.Store([]byte("v2"), "b", "f", "text/plain"); err != nil {
		t.Fatalf("second store: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "b", "f"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}
