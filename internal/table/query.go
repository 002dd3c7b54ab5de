package table

import (
	"sort"

	"github.com/wormsim/sweeping/pkg/types"
)

// subjectBatch is the run size the simulator is configured with. A subject
// count that is not a positive multiple of it means the run was cut short.
const subjectBatch = 100

// Query returns the records matching every criterion of q, in input order.
// An empty query returns every record.
func Query(records []types.Record, q types.Query) []types.Record {
	matches := make([]types.Record, 0)
	for _, r := range records {
		if q.Matches(r) {
			matches = append(matches, r)
		}
	}
	return matches
}

// Sort returns a copy of records ordered by FR then ASH, both numerically.
// Records with equal keys keep their relative order.
func Sort(records []types.Record) ([]types.Record, error) {
	type keyed struct {
		fr, ash float64
		rec     types.Record
	}

	rows := make([]keyed, len(records))
	for i, r := range records {
		fr, err := r.Float(types.FieldFR)
		if err != nil {
			return nil, err
		}
		ash, err := r.Float(types.FieldASH)
		if err != nil {
			return nil, err
		}
		rows[i] = keyed{fr: fr, ash: ash, rec: r}
	}

	// Stable sort preserves insertion order for equal elements
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].fr != rows[j].fr {
			return rows[i].fr < rows[j].fr
		}
		return rows[i].ash < rows[j].ash
	})

	sorted := make([]types.Record, len(rows))
	for i, k := range rows {
		sorted[i] = k.rec
	}
	return sorted, nil
}

// Partition splits records into those from complete runs (N a nonzero
// multiple of 100) and the rest. Both keep input order.
func Partition(records []types.Record) (kept, ignored []types.Record, err error) {
	kept = make([]types.Record, 0, len(records))
	ignored = make([]types.Record, 0)
	for _, r := range records {
		n, err := r.Int(types.FieldN)
		if err != nil {
			return nil, nil, err
		}
		if n != 0 && n%subjectBatch == 0 {
			kept = append(kept, r)
		} else {
			ignored = append(ignored, r)
		}
	}
	return kept, ignored, nil
}

// Sanitize returns only the records from complete runs.
func Sanitize(records []types.Record) ([]types.Record, error) {
	kept, _, err := Partition(records)
	return kept, err
}
