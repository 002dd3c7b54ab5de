package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func TestBatchUploader_Upload(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	srcDir := t.TempDir()

	var files []string
	for i := 0; i < 6; i++ {
		files = append(files, writeFile(t, srcDir, fmt.Sprintf("%d_(25_0.3_-1.7).txt", i), "x"))
	}

	result := NewBatchUploader(storage, 2).Upload(context.Background(), "runs/r1", files)
	if result.Failed() {
		t.Fatalf("unexpected failures: %v", result.Err())
	}
	if len(result.ObjectPaths) != len(files) {
		t.Fatalf("uploaded %d objects, want %d", len(result.ObjectPaths), len(files))
	}
	if got := result.ObjectPaths[files[0]]; got != "runs/r1/0_(25_0.3_-1.7).txt" {
		t.Errorf("object path = %s", got)
	}

	objects, err := storage.ListObjects(context.Background(), "runs/r1")
	if err != nil || len(objects) != len(files) {
		t.Errorf("ListObjects = %v, %v", objects, err)
	}
}

type failingStorage struct {
	*LocalStorage
	mu    sync.Mutex
	calls int
}

func (f *failingStorage) Upload(ctx context.Context, localPath, objectPath string) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if filepath.Base(localPath) == "bad.txt" {
		return ErrUploadFailed
	}
	return f.LocalStorage.Upload(ctx, localPath, objectPath)
}

func TestBatchUploader_PartialFailure(t *testing.T) {
	local, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create local storage: %v", err)
	}
	storage := &failingStorage{LocalStorage: local}
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "g")
	bad := writeFile(t, dir, "bad.txt", "b")

	result := NewBatchUploader(storage, 0).Upload(context.Background(), "p", []string{good, bad})
	if !result.Failed() {
		t.Fatal("expected a failure")
	}
	if !errors.Is(result.Err(), ErrUploadFailed) {
		t.Errorf("Err() = %v, want wrapped ErrUploadFailed", result.Err())
	}
	if _, ok := result.ObjectPaths[good]; !ok {
		t.Error("good file should have been uploaded")
	}
	if storage.calls != 2 {
		t.Errorf("Upload called %d times, want 2", storage.calls)
	}
}
