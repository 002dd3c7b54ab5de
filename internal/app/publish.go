package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wormsim/sweeping/internal/config"
	"github.com/wormsim/sweeping/internal/manifest"
	"github.com/wormsim/sweeping/internal/storage"
)

// PublishOptions adjusts a publish run.
type PublishOptions struct {
	// Prune deletes objects under the prefix that this run did not upload,
	// such as fit outputs whose fitness changed
	Prune bool
}

// PublishReport summarizes a publish run.
type PublishReport struct {
	RunID   string
	Objects []string
	Pruned  []string
	Bytes   int64
}

// Publish uploads the databases, the error log and every fit output to the
// configured object storage.
func (a *App) Publish(ctx context.Context, opts PublishOptions) (*PublishReport, error) {
	started := a.now()
	prefix := a.cfg.Storage.Prefix
	if opts.Prune && prefix == "" {
		return nil, fmt.Errorf("publish: pruning requires storage.prefix")
	}

	dest, err := a.destination(ctx)
	if err != nil {
		return nil, err
	}

	artifacts, err := a.artifacts()
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("publish: nothing to publish under %s", a.cfg.DataDir)
	}

	uploads := make([]string, 0, len(artifacts))
	var total int64
	for _, local := range artifacts {
		if a.cfg.Storage.Compress {
			compressed, size, err := storage.CompressFile(local)
			if err != nil {
				return nil, err
			}
			defer os.Remove(compressed)
			log.Printf("publish: %s compressed to %s", filepath.Base(local), humanize.Bytes(uint64(size)))
			local = compressed
			total += size
		} else {
			info, err := os.Stat(local)
			if err != nil {
				return nil, fmt.Errorf("publish: %w", err)
			}
			log.Printf("publish: %s (%s)", filepath.Base(local), humanize.Bytes(uint64(info.Size())))
			total += info.Size()
		}
		uploads = append(uploads, local)
	}

	result := storage.NewBatchUploader(dest, a.cfg.Storage.Concurrency).Upload(ctx, prefix, uploads)
	if result.Failed() {
		return nil, result.Err()
	}

	objects := make([]string, 0, len(result.ObjectPaths))
	uploaded := make(map[string]bool, len(result.ObjectPaths))
	for _, object := range result.ObjectPaths {
		objects = append(objects, object)
		uploaded[object] = true
	}
	sort.Strings(objects)
	log.Printf("publish: uploaded %d objects, %s total", len(objects), humanize.Bytes(uint64(total)))

	var pruned []string
	if opts.Prune {
		existing, err := dest.ListObjects(ctx, prefix+"/")
		if err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
		for _, object := range existing {
			if uploaded[object] {
				continue
			}
			if err := dest.Delete(ctx, object); err != nil {
				return nil, err
			}
			pruned = append(pruned, object)
		}
		log.Printf("publish: pruned %d stale objects", len(pruned))
	}

	runID, err := a.recordRun(ctx, &manifest.Run{
		Kind:      manifest.RunPublish,
		Input:     a.cfg.DataDir,
		Output:    a.location(),
		StartedAt: started,
		RowCount:  int64(len(objects)),
	}, false)
	if err != nil {
		return nil, err
	}
	return &PublishReport{RunID: runID, Objects: objects, Pruned: pruned, Bytes: total}, a.flushMetrics()
}

// FetchReport summarizes a fetch run.
type FetchReport struct {
	RunID string

	// Files are the local paths written, in object order
	Files []string
}

// Fetch downloads published artifacts back into the local layout: the
// databases and the error log to their configured paths, anything else into
// the fit output directory. Compressed objects are expanded. Names select
// artifacts by file name; with none, every object under the prefix is
// fetched.
func (a *App) Fetch(ctx context.Context, names ...string) (*FetchReport, error) {
	started := a.now()

	src, err := a.destination(ctx)
	if err != nil {
		return nil, err
	}

	objects, err := a.publishedObjects(ctx, src, names)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(objects))
	for _, object := range objects {
		name := path.Base(object)
		compressed := strings.HasSuffix(name, storage.CompressedSuffix)
		target := a.localTarget(strings.TrimSuffix(name, storage.CompressedSuffix))

		if !compressed {
			if err := src.Download(ctx, object, target); err != nil {
				return nil, fmt.Errorf("fetch %s: %w", object, err)
			}
		} else {
			staged := target + storage.CompressedSuffix
			if err := src.Download(ctx, object, staged); err != nil {
				return nil, fmt.Errorf("fetch %s: %w", object, err)
			}
			_, err := storage.DecompressFile(staged, target)
			os.Remove(staged)
			if err != nil {
				return nil, err
			}
		}
		log.Printf("fetch: %s -> %s", object, target)
		files = append(files, target)
	}

	runID, err := a.recordRun(ctx, &manifest.Run{
		Kind:      manifest.RunFetch,
		Input:     a.location(),
		Output:    a.cfg.DataDir,
		StartedAt: started,
		RowCount:  int64(len(files)),
	}, false)
	if err != nil {
		return nil, err
	}
	return &FetchReport{RunID: runID, Files: files}, nil
}

// publishedObjects resolves names to object paths, preferring the plain
// object over its compressed form.
func (a *App) publishedObjects(ctx context.Context, src storage.ObjectStorage, names []string) ([]string, error) {
	prefix := a.cfg.Storage.Prefix
	if len(names) == 0 {
		listPrefix := prefix
		if listPrefix != "" {
			listPrefix += "/"
		}
		objects, err := src.ListObjects(ctx, listPrefix)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if len(objects) == 0 {
			return nil, fmt.Errorf("fetch: nothing published at %s", a.location())
		}
		return objects, nil
	}

	objects := make([]string, 0, len(names))
	for _, name := range names {
		object := storage.ObjectPath(prefix, name)
		found := false
		for _, candidate := range []string{object, object + storage.CompressedSuffix} {
			ok, err := src.Exists(ctx, candidate)
			if err != nil {
				return nil, fmt.Errorf("fetch %s: %w", name, err)
			}
			if ok {
				objects = append(objects, candidate)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("fetch %s: %w", name, storage.ErrObjectNotFound)
		}
	}
	return objects, nil
}

// localTarget maps a published file name to where it belongs locally.
func (a *App) localTarget(name string) string {
	paths := a.cfg.Paths
	for _, p := range []string{paths.Database, paths.IgnoredDatabase, paths.ErrorLog} {
		if filepath.Base(p) == name {
			return p
		}
	}
	return filepath.Join(paths.FitOutputDir, name)
}

// location describes the configured storage for the run ledger.
func (a *App) location() string {
	return a.cfg.Storage.Type + ":" + a.cfg.Storage.Prefix
}

func (a *App) destination(ctx context.Context) (storage.ObjectStorage, error) {
	if a.storage != nil {
		return a.storage, nil
	}

	var (
		dest storage.ObjectStorage
		err  error
	)
	switch a.cfg.Storage.Type {
	case config.StorageLocal:
		dest, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case config.StorageS3:
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		dest, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		return nil, fmt.Errorf("storage type %q has no destination (use local or s3)", a.cfg.Storage.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Printf("Storage initialized: type=%s", a.cfg.Storage.Type)
	return dest, nil
}

// artifacts lists the existing output files in a stable order.
func (a *App) artifacts() ([]string, error) {
	paths := a.cfg.Paths
	var files []string
	for _, f := range []string{paths.Database, paths.IgnoredDatabase, paths.ErrorLog} {
		if info, err := os.Stat(f); err == nil && info.Mode().IsRegular() {
			files = append(files, f)
		}
	}

	entries, err := os.ReadDir(paths.FitOutputDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("publish: %w", err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(paths.FitOutputDir, e.Name()))
		}
	}
	return files, nil
}
