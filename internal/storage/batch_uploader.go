package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchUploader publishes several local files in parallel under a common
// object prefix.
type BatchUploader struct {
	storage     ObjectStorage
	concurrency int
}

// BatchUploadResult maps each local file to its object path or error.
type BatchUploadResult struct {
	ObjectPaths map[string]string
	Errors      map[string]error
}

// Failed reports whether any upload failed.
func (r *BatchUploadResult) Failed() bool {
	return len(r.Errors) > 0
}

// Err summarizes the failures, or returns nil.
func (r *BatchUploadResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	files := make([]string, 0, len(r.Errors))
	for f := range r.Errors {
		files = append(files, f)
	}
	sort.Strings(files)
	return fmt.Errorf("%d upload(s) failed, first %s: %w", len(files), files[0], r.Errors[files[0]])
}

// NewBatchUploader creates a BatchUploader running at most concurrency
// uploads at once.
func NewBatchUploader(storage ObjectStorage, concurrency int) *BatchUploader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchUploader{storage: storage, concurrency: concurrency}
}

// ObjectPath returns the object a local file is published to.
func ObjectPath(prefix, localPath string) string {
	return path.Join(prefix, filepath.Base(localPath))
}

// Upload publishes every file in localPaths to prefix/<base name>.
func (b *BatchUploader) Upload(ctx context.Context, prefix string, localPaths []string) *BatchUploadResult {
	result := &BatchUploadResult{
		ObjectPaths: make(map[string]string),
		Errors:      make(map[string]error),
	}

	sem := semaphore.NewWeighted(int64(b.concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, local := range localPaths {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors[local] = fmt.Errorf("semaphore acquire failed: %w", err)
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(local string) {
			defer sem.Release(1)
			defer wg.Done()

			object := ObjectPath(prefix, local)
			err := b.storage.Upload(ctx, local, object)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[local] = err
				return
			}
			result.ObjectPaths[local] = object
		}(local)
	}

	wg.Wait()
	return result
}
