// Package app wires the sweeping components into the batch operations the
// command line exposes.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/wormsim/sweeping/internal/bloom"
	"github.com/wormsim/sweeping/internal/config"
	"github.com/wormsim/sweeping/internal/fit"
	"github.com/wormsim/sweeping/internal/manifest"
	"github.com/wormsim/sweeping/internal/observability"
	"github.com/wormsim/sweeping/internal/pipeline"
	"github.com/wormsim/sweeping/internal/storage"
	"github.com/wormsim/sweeping/internal/table"
	"github.com/wormsim/sweeping/pkg/types"
)

// App runs batch operations against one configuration.
type App struct {
	cfg     *config.Config
	store   *table.Store
	metrics *observability.Metrics
	out     io.Writer
	now     func() time.Time

	// storage overrides the configured publish destination when set
	storage storage.ObjectStorage
}

// New creates an App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg:     cfg,
		store:   table.NewStore(cfg.Table.ColumnWidth),
		metrics: observability.NewMetrics(),
		out:     os.Stdout,
		now:     time.Now,
	}, nil
}

// WithOutput redirects user-facing output (warnings, query rows, run lists).
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// WithClock replaces the time source of error log lines and run timestamps.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// WithStorage replaces the publish destination.
func (a *App) WithStorage(s storage.ObjectStorage) *App {
	a.storage = s
	return a
}

// Config returns the resolved configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Metrics returns the counters of this App's runs.
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}

// ExtractReport summarizes an extract run.
type ExtractReport struct {
	RunID    string
	Result   *pipeline.Result
	Kept     int
	Ignored  int
	Database string
}

// Extract builds the main and ignored databases from the results tree.
func (a *App) Extract(ctx context.Context) (*ExtractReport, error) {
	started := a.now()
	paths := a.cfg.Paths

	extractor := pipeline.NewExtractor(a.cfg.DiscoveryOptions()).
		WithMetrics(a.metrics).
		WithClock(a.now)
	result, err := extractor.Extract(ctx, paths.ResultsDir, paths.ErrorLog)
	if err != nil {
		return nil, err
	}
	log.Printf("extract: %d files discovered, %d records, %d failures",
		result.Discovered, len(result.Records), len(result.Failures))

	kept, ignored, err := a.split(result.Records)
	if err != nil {
		return nil, err
	}

	if result.Warning != pipeline.NoWarning {
		fmt.Fprintln(a.out, result.Warning)
	}

	runID, err := a.recordRun(ctx, &manifest.Run{
		Kind:         manifest.RunExtract,
		Input:        paths.ResultsDir,
		Output:       paths.Database,
		StartedAt:    started,
		RowCount:     int64(kept),
		FailureCount: int64(len(result.Failures)),
	}, true)
	if err != nil {
		return nil, err
	}

	return &ExtractReport{
		RunID:    runID,
		Result:   result,
		Kept:     kept,
		Ignored:  ignored,
		Database: paths.Database,
	}, a.flushMetrics()
}

// TidyReport summarizes a tidy run.
type TidyReport struct {
	RunID   string
	Kept    int
	Ignored int
}

// Tidy re-sanitizes the database at src into the configured main and
// ignored databases. An empty src means the configured main database.
func (a *App) Tidy(ctx context.Context, src string) (*TidyReport, error) {
	started := a.now()
	if src == "" {
		src = a.cfg.Paths.Database
	}

	records, err := a.store.Read(src)
	if err != nil {
		return nil, err
	}
	kept, ignored, err := a.split(records)
	if err != nil {
		return nil, err
	}

	runID, err := a.recordRun(ctx, &manifest.Run{
		Kind:      manifest.RunTidy,
		Input:     src,
		Output:    a.cfg.Paths.Database,
		StartedAt: started,
		RowCount:  int64(kept),
	}, true)
	if err != nil {
		return nil, err
	}
	return &TidyReport{RunID: runID, Kept: kept, Ignored: ignored}, a.flushMetrics()
}

// split sanitizes and sorts records, then writes both databases.
func (a *App) split(records []types.Record) (kept, ignored int, err error) {
	complete, incomplete, err := table.Partition(records)
	if err != nil {
		return 0, 0, err
	}
	sorted, err := table.Sort(complete)
	if err != nil {
		return 0, 0, err
	}

	if err := a.store.Write(a.cfg.Paths.Database, sorted); err != nil {
		return 0, 0, err
	}
	if err := a.store.Write(a.cfg.Paths.IgnoredDatabase, incomplete); err != nil {
		return 0, 0, err
	}
	a.metrics.RecordsIgnored.Add(float64(len(incomplete)))

	log.Printf("table: wrote %d records to %s, %d to %s",
		len(sorted), a.cfg.Paths.Database, len(incomplete), a.cfg.Paths.IgnoredDatabase)
	return len(sorted), len(incomplete), nil
}

// Query prints the rows of db matching the FIELD=VALUE terms, header
// first, and returns them. An empty db means the configured main database.
func (a *App) Query(ctx context.Context, db string, terms []string) ([]types.Record, error) {
	if db == "" {
		db = a.cfg.Paths.Database
	}
	q, err := types.ParseQuery(terms)
	if err != nil {
		return nil, err
	}
	records, err := a.store.Read(db)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matches := table.Query(records, q)
	header := make([]string, len(types.Columns))
	for i, f := range types.Columns {
		header[i] = string(f)
	}
	fmt.Fprint(a.out, a.store.FormatRow(header))
	for _, r := range matches {
		fmt.Fprint(a.out, a.store.FormatRow(r.Values()))
	}
	return matches, nil
}

// FitReport summarizes a fit run.
type FitReport struct {
	RunID      string
	Candidates []fit.Candidate
	OutputDir  string
}

// Fit runs the parameter search over the main database.
func (a *App) Fit(ctx context.Context) (*FitReport, error) {
	started := a.now()
	paths := a.cfg.Paths

	records, err := a.store.Read(paths.Database)
	if err != nil {
		return nil, err
	}

	opts := fit.Options{
		Molarities: a.cfg.Fit.Molarities,
		Uni:        fit.Reference(a.cfg.Fit.UniReference),
		Multi:      fit.Reference(a.cfg.Fit.MultiReference),
		MaxFR:      a.cfg.Fit.MaxFR,
	}
	searcher, err := fit.NewSearcher(records, a.store, opts, a.cfg.Table.QueryCacheSize)
	if err != nil {
		return nil, err
	}
	candidates, err := searcher.WithMetrics(a.metrics).Search(ctx, paths.FitOutputDir)
	if err != nil {
		return nil, err
	}

	hits, misses := searcher.Index().Stats()
	log.Printf("fit: %d candidates accepted from %d records (query cache %d hits, %d misses)",
		len(candidates), len(records), hits, misses)

	runID, err := a.recordRun(ctx, &manifest.Run{
		Kind:      manifest.RunFit,
		Input:     paths.Database,
		Output:    paths.FitOutputDir,
		StartedAt: started,
		RowCount:  int64(len(candidates)),
	}, false)
	if err != nil {
		return nil, err
	}
	return &FitReport{RunID: runID, Candidates: candidates, OutputDir: paths.FitOutputDir}, a.flushMetrics()
}

// Runs returns manifest entries newest first.
func (a *App) Runs(ctx context.Context, kind manifest.RunKind, limit int) ([]*manifest.Run, error) {
	catalog, err := manifest.NewCatalog(a.cfg.Paths.Manifest)
	if err != nil {
		return nil, err
	}
	defer catalog.Close()
	return catalog.ListRuns(ctx, kind, limit)
}

// Run returns the manifest entry with the given ID.
func (a *App) Run(ctx context.Context, id string) (*manifest.Run, error) {
	catalog, err := manifest.NewCatalog(a.cfg.Paths.Manifest)
	if err != nil {
		return nil, err
	}
	defer catalog.Close()
	return catalog.GetRun(ctx, id)
}

// PrintRuns writes one line per run. When the table schema changed between
// two listed runs, the columns the newer one added are noted under it.
func (a *App) PrintRuns(ctx context.Context, runs []*manifest.Run) error {
	catalog, err := manifest.NewCatalog(a.cfg.Paths.Manifest)
	if err != nil {
		return err
	}
	defer catalog.Close()
	versions := manifest.NewSchemaVersionManager(catalog)

	for i, r := range runs {
		fmt.Fprintf(a.out, "%s  %-8s %s  rows=%d failures=%d  %s -> %s\n",
			r.ID, r.Kind, r.StartedAt.Format(time.RFC3339), r.RowCount, r.FailureCount, r.Input, r.Output)

		older := previousSchemaVersion(runs[i+1:])
		if r.SchemaVersion == 0 || older == 0 || older == r.SchemaVersion {
			continue
		}
		added, err := versions.GetColumnDiff(ctx, older, r.SchemaVersion)
		if err != nil {
			return err
		}
		names := make([]string, len(added))
		for j, c := range added {
			names[j] = string(c.Name)
		}
		fmt.Fprintf(a.out, "    schema v%d -> v%d, added columns: %s\n",
			older, r.SchemaVersion, strings.Join(names, " "))
	}
	return nil
}

// previousSchemaVersion returns the first nonzero schema version in runs.
func previousSchemaVersion(runs []*manifest.Run) int {
	for _, r := range runs {
		if r.SchemaVersion != 0 {
			return r.SchemaVersion
		}
	}
	return 0
}

// recordRun stores run in the manifest. With fingerprint set, the output
// table's checksum and the current schema version are recorded too.
func (a *App) recordRun(ctx context.Context, run *manifest.Run, fingerprint bool) (string, error) {
	catalog, err := manifest.NewCatalog(a.cfg.Paths.Manifest)
	if err != nil {
		return "", err
	}
	defer catalog.Close()

	if fingerprint {
		sum, err := bloom.ChecksumFile(run.Output)
		if err != nil {
			return "", err
		}
		run.Checksum = sum

		version, err := manifest.NewSchemaVersionManager(catalog).RegisterSchema(ctx, types.Schema)
		if err != nil {
			return "", err
		}
		run.SchemaVersion = version
	}
	run.FinishedAt = a.now()

	return catalog.RegisterRun(ctx, run)
}

func (a *App) flushMetrics() error {
	if a.cfg.Metrics.Textfile == "" {
		return nil
	}
	return a.metrics.WriteTextfile(a.cfg.Metrics.Textfile)
}
