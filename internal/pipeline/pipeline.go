// Package pipeline turns a results tree into table records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wormsim/sweeping/internal/bloom"
	"github.com/wormsim/sweeping/internal/discovery"
	swerrors "github.com/wormsim/sweeping/internal/errors"
	"github.com/wormsim/sweeping/internal/naming"
	"github.com/wormsim/sweeping/internal/observability"
	"github.com/wormsim/sweeping/internal/summary"
	"github.com/wormsim/sweeping/pkg/types"
)

// Warning is a condition worth telling the user about that does not fail
// the run.
type Warning int

const (
	NoWarning Warning = iota

	// NoDataFound means no record was extracted at all.
	NoDataFound

	// PartialExtractionFailure means some files were skipped.
	PartialExtractionFailure
)

// String returns the message shown to the user.
func (w Warning) String() string {
	switch w {
	case NoDataFound:
		return "WARNING: Could not extract a shred of data! Perhaps the results directory is incorrectly specified?"
	case PartialExtractionFailure:
		return "WARNING: Some files weren't parsed properly, check error logs for more details!"
	}
	return ""
}

// Failure is a file skipped because of a recoverable error.
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of an extraction run.
type Result struct {
	// Records are in discovery order
	Records []types.Record

	// Failures are in discovery order
	Failures []Failure

	// Warning summarizes the run
	Warning Warning

	// Duplicates lists paths of records whose parameters and date match a
	// record extracted earlier in the run
	Duplicates []string

	// Discovered is the number of data files found
	Discovered int
}

// Extractor runs discovery, path parsing and content summarizing.
type Extractor struct {
	opts    discovery.Options
	metrics *observability.Metrics
	now     func() time.Time
}

// NewExtractor creates an Extractor with the given discovery options.
func NewExtractor(opts discovery.Options) *Extractor {
	return &Extractor{opts: opts, now: time.Now}
}

// WithMetrics makes the Extractor count its work in m.
func (e *Extractor) WithMetrics(m *observability.Metrics) *Extractor {
	e.metrics = m
	return e
}

// WithClock replaces the timestamp source of error log entries.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract builds one record per data file under root.
//
// The error log at errorLogPath is cleared first. A file that fails with a
// recoverable error is logged there and skipped; any other error aborts the
// run and is returned.
func (e *Extractor) Extract(ctx context.Context, root, errorLogPath string) (*Result, error) {
	errLog := observability.NewErrorLog(errorLogPath).WithClock(e.now)
	if err := errLog.Init(); err != nil {
		return nil, err
	}

	candidates, err := discovery.Discover(ctx, root, e.opts)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.FilesDiscovered.Add(float64(len(candidates)))
	}

	result := &Result{
		Records:    make([]types.Record, 0, len(candidates)),
		Discovered: len(candidates),
	}
	seen := newDuplicateSet(bloom.NewFilter(len(candidates), bloom.DefaultFalsePositiveRate))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := extractOne(c)
		if err != nil {
			if !swerrors.IsRecoverable(err) {
				return nil, err
			}
			if err := errLog.Append(logMessage(err)); err != nil {
				return nil, err
			}
			result.Failures = append(result.Failures, Failure{Path: c.Source, Err: err})
			if e.metrics != nil {
				e.metrics.ExtractFailures.WithLabelValues(swerrors.GetCode(err)).Inc()
			}
			continue
		}

		if seen.repeat(parameterKey(record)) {
			log.Printf("pipeline: %s repeats the parameters of an earlier file", record.Path)
			result.Duplicates = append(result.Duplicates, record.Path)
			if e.metrics != nil {
				e.metrics.DuplicatePaths.Inc()
			}
		}
		result.Records = append(result.Records, record)
	}

	if e.metrics != nil {
		e.metrics.RecordsExtracted.Add(float64(len(result.Records)))
	}

	switch {
	case len(result.Records) == 0:
		result.Warning = NoDataFound
	case len(result.Failures) > 0:
		result.Warning = PartialExtractionFailure
	}
	return result, nil
}

func extractOne(c discovery.Candidate) (types.Record, error) {
	pathFields, err := naming.Parse(c.Rel)
	if err != nil {
		return types.Record{}, err
	}
	contentFields, err := summary.Summarize(c.Source)
	if err != nil {
		return types.Record{}, err
	}
	return types.NewRecord(pathFields.Merge(contentFields))
}

// duplicateSet reports repeated keys exactly. The bloom filter answers the
// common first sighting; its hits are confirmed against the key set.
type duplicateSet struct {
	filter *bloom.Filter
	keys   map[string]struct{}
}

func newDuplicateSet(filter *bloom.Filter) *duplicateSet {
	return &duplicateSet{filter: filter, keys: make(map[string]struct{})}
}

// repeat records key and reports whether it was recorded before.
func (d *duplicateSet) repeat(key string) bool {
	hit := d.filter.Seen(key)
	_, exact := d.keys[key]
	d.keys[key] = struct{}{}
	return hit && exact
}

// parameterKey identifies a simulation setting on a given date.
func parameterKey(r types.Record) string {
	return strings.Join([]string{r.FR, r.ASH, r.AWA, r.Multi, r.Date}, "|")
}

// logMessage drops the category prefix so log lines read as plain sentences.
func logMessage(err error) string {
	var se *swerrors.SweepError
	if !errors.As(err, &se) {
		return err.Error()
	}
	if se.Cause != nil {
		return fmt.Sprintf("%s: %v", se.Message, se.Cause)
	}
	return se.Message
}
