// Package fit searches the table for parameter sets whose exit ratios match
// the reference chemotaxis data across molarities.
//
// A record proposes a one-molar FR of floor(FR/2) together with its ASH and
// AWA. The proposal is scored against every configured molarity m by
// querying the single-worm runs {FR: m*oneMolar, ASH, MULTI: 0} and the
// multi-worm runs {FR: m*oneMolar, ASH, AWA, MULTI: 1} and summing a
// chi-square style distance between each run's exit percentage and the
// reference percentage for m.
package fit

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	swerrors "github.com/wormsim/sweeping/internal/errors"
	"github.com/wormsim/sweeping/internal/observability"
	"github.com/wormsim/sweeping/internal/table"
	"github.com/wormsim/sweeping/pkg/types"
)

// Reference maps a molarity to the observed exit percentage.
type Reference map[int]float64

// Options configures a search.
type Options struct {
	// Molarities are scored in order; the first one selects the rows written
	// to each candidate file
	Molarities []int

	// Uni is the reference for single-worm runs
	Uni Reference

	// Multi is the reference for multi-worm runs
	Multi Reference

	// MaxFR bounds oneMolar times the largest molarity
	MaxFR int
}

// DefaultOptions returns the published reference data.
func DefaultOptions() Options {
	return Options{
		Molarities: []int{2, 3, 4},
		Uni:        Reference{2: 35, 3: 7, 4: 0},
		Multi:      Reference{2: 80, 3: 50, 4: 0},
		MaxFR:      100,
	}
}

// Candidate is an accepted parameter set.
type Candidate struct {
	OneMolar int64
	ASH      string
	AWA      string

	// Fitness is the truncated total distance; lower is better
	Fitness int

	// Records are the sorted single and multi-worm matches at the first molarity
	Records []types.Record

	// File is where Records were written
	File string
}

// FileName returns "<fitness>_(<oneMolar>_<ash>_<awa>).txt".
func (c Candidate) FileName() string {
	return fmt.Sprintf("%d_(%d_%s_%s).txt", c.Fitness, c.OneMolar, c.ASH, c.AWA)
}

// Searcher evaluates every record of a table as a candidate.
type Searcher struct {
	opts    Options
	index   *table.Index
	store   *table.Store
	metrics *observability.Metrics
}

// NewSearcher creates a Searcher over records. Candidate files are written
// with store.
func NewSearcher(records []types.Record, store *table.Store, opts Options, cacheSize int) (*Searcher, error) {
	if len(opts.Molarities) == 0 {
		return nil, swerrors.New(swerrors.ErrCategoryFit, swerrors.CodeInvalidReference, "no molarities configured")
	}
	for _, m := range opts.Molarities {
		_, uniOK := opts.Uni[m]
		_, multiOK := opts.Multi[m]
		if !uniOK || !multiOK {
			return nil, swerrors.New(swerrors.ErrCategoryFit, swerrors.CodeInvalidReference,
				fmt.Sprintf("no reference value for molarity %d", m))
		}
	}

	index, err := table.NewIndex(records, cacheSize)
	if err != nil {
		return nil, err
	}
	return &Searcher{opts: opts, index: index, store: store}, nil
}

// WithMetrics makes the Searcher count candidates in m.
func (s *Searcher) WithMetrics(m *observability.Metrics) *Searcher {
	s.metrics = m
	return s
}

// Index returns the memoizing query index.
func (s *Searcher) Index() *table.Index {
	return s.index
}

// candidateKey compares ASH and AWA numerically, as the queries do, so
// "0.3" and "0.30" propose the same candidate.
type candidateKey struct {
	oneMolar int64
	ash, awa float64
}

// Search scores every distinct (oneMolar, ASH, AWA) proposal and writes one
// file per accepted candidate into outputDir, creating it if needed.
// Candidates are returned in the order their first proposing record appears.
func (s *Searcher) Search(ctx context.Context, outputDir string) ([]Candidate, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, swerrors.NewIOError(swerrors.CodeWriteFailed,
			fmt.Sprintf("failed to create fit output directory %s", outputDir), err)
	}

	maxMolarity := 0
	for _, m := range s.opts.Molarities {
		if m > maxMolarity {
			maxMolarity = m
		}
	}

	seen := make(map[candidateKey]bool)
	accepted := make([]Candidate, 0)

	for _, r := range s.index.Records() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fr, err := r.Float(types.FieldFR)
		if err != nil {
			return nil, err
		}
		oneMolar := int64(math.Floor(fr / 2))
		if oneMolar*int64(maxMolarity) > int64(s.opts.MaxFR) {
			continue
		}

		ash, err := r.Float(types.FieldASH)
		if err != nil {
			return nil, err
		}
		awa, err := r.Float(types.FieldAWA)
		if err != nil {
			return nil, err
		}

		key := candidateKey{oneMolar: oneMolar, ash: ash, awa: awa}
		if seen[key] {
			continue
		}
		seen[key] = true

		if s.metrics != nil {
			s.metrics.FitCandidates.Inc()
		}
		c, ok, err := s.evaluate(r, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		c.File = filepath.Join(outputDir, c.FileName())
		if err := s.store.Write(c.File, c.Records); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.FitAccepted.Inc()
		}
		accepted = append(accepted, c)
	}

	return accepted, nil
}

// evaluate scores one proposal. It reports false when some molarity has no
// single-worm or no multi-worm run.
func (s *Searcher) evaluate(r types.Record, key candidateKey) (Candidate, bool, error) {
	oneMolar, ash, awa := key.oneMolar, key.ash, key.awa

	var uniTotal, multiTotal float64
	var firstRows []types.Record

	for i, m := range s.opts.Molarities {
		fr := float64(int64(m) * oneMolar)
		uni := s.index.Query(types.Query{
			types.FieldFR:    fr,
			types.FieldASH:   ash,
			types.FieldMulti: 0,
		})
		multi := s.index.Query(types.Query{
			types.FieldFR:    fr,
			types.FieldASH:   ash,
			types.FieldAWA:   awa,
			types.FieldMulti: 1,
		})
		if len(uni) == 0 || len(multi) == 0 {
			return Candidate{}, false, nil
		}

		u, err := distance(uni, s.opts.Uni[m])
		if err != nil {
			return Candidate{}, false, err
		}
		mu, err := distance(multi, s.opts.Multi[m])
		if err != nil {
			return Candidate{}, false, err
		}
		uniTotal += u
		multiTotal += mu

		if i == 0 {
			firstRows = make([]types.Record, 0, len(uni)+len(multi))
			firstRows = append(firstRows, uni...)
			firstRows = append(firstRows, multi...)
		}
	}

	sorted, err := table.Sort(firstRows)
	if err != nil {
		return Candidate{}, false, err
	}

	return Candidate{
		OneMolar: oneMolar,
		ASH:      r.ASH,
		AWA:      r.AWA,
		Fitness:  int(uniTotal + multiTotal),
		Records:  sorted,
	}, true, nil
}

// distance sums (observed-expected)^2/expected over runs, where expected is
// the run's exit percentage. A zero expectation is shifted by one.
func distance(runs []types.Record, observed float64) (float64, error) {
	var total float64
	for _, r := range runs {
		exit, err := r.Float(types.FieldExit)
		if err != nil {
			return 0, err
		}
		expected := exit * 100
		if expected == 0 {
			expected = 1
		}
		d := observed - expected
		total += d * d / expected
	}
	return total, nil
}
