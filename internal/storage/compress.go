package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"
)

// CompressedSuffix marks snappy framed files.
const CompressedSuffix = ".sz"

// CompressFile writes a snappy framed copy of src to src+".sz" and returns
// the new path and its size.
func CompressFile(src string) (string, int64, error) {
	dst := src + CompressedSuffix

	in, err := os.Open(src)
	if err != nil {
		return "", 0, fmt.Errorf("compress: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", 0, fmt.Errorf("compress: %w", err)
	}
	defer out.Close()

	w := snappy.NewBufferedWriter(out)
	if _, err := io.Copy(w, in); err != nil {
		return "", 0, fmt.Errorf("compress %s: %w", src, err)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("compress %s: %w", src, err)
	}

	info, err := out.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("compress: %w", err)
	}
	return dst, info.Size(), out.Close()
}

// DecompressFile expands a snappy framed file into dst. When dst is empty the
// ".sz" suffix is stripped from src.
func DecompressFile(src, dst string) (string, error) {
	if dst == "" {
		if !strings.HasSuffix(src, CompressedSuffix) {
			return "", fmt.Errorf("decompress: %s has no %s suffix", src, CompressedSuffix)
		}
		dst = strings.TrimSuffix(src, CompressedSuffix)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("decompress: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, snappy.NewReader(in)); err != nil {
		return "", fmt.Errorf("decompress %s: %w", src, err)
	}
	return dst, out.Close()
}
