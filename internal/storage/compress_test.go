package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompressFile_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("50        0.3       -1.7      100       13        0.13      1         12Aug     a.csv     \n", 200)
	src := writeFile(t, dir, "database.txt", content)

	compressed, size, err := CompressFile(src)
	if err != nil {
		t.Fatalf("CompressFile failed: %v", err)
	}
	if compressed != src+CompressedSuffix {
		t.Errorf("compressed path = %s", compressed)
	}
	if size <= 0 || size >= int64(len(content)) {
		t.Errorf("compressed size %d not smaller than %d", size, len(content))
	}

	restored := filepath.Join(dir, "restored.txt")
	got, err := DecompressFile(compressed, restored)
	if err != nil {
		t.Fatalf("DecompressFile failed: %v", err)
	}
	if got != restored {
		t.Errorf("DecompressFile returned %s, want %s", got, restored)
	}
	data, err := os.ReadFile(restored)
	if err != nil {
		t.Fatalf("failed to read restored file: %v", err)
	}
	if string(data) != content {
		t.Error("restored content differs from original")
	}
}

func TestDecompressFile_DefaultDestination(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "fit.txt", "hello")
	compressed, _, err := CompressFile(src)
	if err != nil {
		t.Fatalf("CompressFile failed: %v", err)
	}
	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}

	got, err := DecompressFile(compressed, "")
	if err != nil {
		t.Fatalf("DecompressFile failed: %v", err)
	}
	if got != src {
		t.Errorf("DecompressFile wrote %s, want %s", got, src)
	}

	if _, err := DecompressFile(src, ""); err == nil {
		t.Error("expected an error for a path without the compressed suffix")
	}
}
