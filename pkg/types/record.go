// Package types provides the core data types of the consolidated simulation table.
package types

import (
	"fmt"
	"strconv"
	"strings"

	swerrors "github.com/wormsim/sweeping/internal/errors"
)

// ExitSentinel is stored in the EXIT column when a run had no subjects.
const ExitSentinel = "-"

// Record is a single row of the consolidated table. Every column is kept as
// the text that appears in the table file; typed accessors parse on demand.
type Record struct {
	// FR is the fructose concentration code (0-100)
	FR string `json:"fr"`

	// ASH is the ASH sensory parameter
	ASH string `json:"ash"`

	// AWA is the AWA sensory parameter
	AWA string `json:"awa"`

	// N is the total number of simulated subjects
	N string `json:"n"`

	// NOut is the number of subjects that exited
	NOut string `json:"n_out"`

	// Exit is NOut/N, or ExitSentinel when N is zero
	Exit string `json:"exit"`

	// Multi is "0" for single-worm and "1" for multi-worm simulations
	Multi string `json:"multi"`

	// Date is the simulation run date as written in the folder name (e.g. "12Aug")
	Date string `json:"date"`

	// Path is the source file the record was extracted from
	Path string `json:"path"`
}

// Fields is a partial set of column values, as produced by a single
// extraction step before merging.
type Fields map[Field]string

// Merge returns the union of f and other. Values in other win on collision.
func (f Fields) Merge(other Fields) Fields {
	merged := make(Fields, len(f)+len(other))
	for k, v := range f {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// NewRecord builds a Record from a complete field set. Unknown fields and
// missing fields are rejected.
func NewRecord(fields Fields) (Record, error) {
	for f := range fields {
		if !f.Valid() {
			return Record{}, swerrors.NewTableError(swerrors.CodeUnknownColumn,
				fmt.Sprintf("unknown field %q", string(f)))
		}
	}

	var r Record
	for _, f := range Columns {
		v, ok := fields[f]
		if !ok {
			return Record{}, swerrors.NewTableError(swerrors.CodeMissingField,
				fmt.Sprintf("missing field %q", string(f)))
		}
		r.set(f, v)
	}
	return r, nil
}

// ZipRecord pairs header columns with row values positionally. Columns without
// a value stay empty and surplus values are dropped; no validation is done.
func ZipRecord(header []Field, values []string) Record {
	var r Record
	for i, f := range header {
		if i >= len(values) {
			break
		}
		r.set(f, values[i])
	}
	return r
}

// Get returns the text value of a column.
func (r Record) Get(f Field) string {
	switch f {
	case FieldFR:
		return r.FR
	case FieldASH:
		return r.ASH
	case FieldAWA:
		return r.AWA
	case FieldN:
		return r.N
	case FieldNOut:
		return r.NOut
	case FieldExit:
		return r.Exit
	case FieldMulti:
		return r.Multi
	case FieldDate:
		return r.Date
	case FieldPath:
		return r.Path
	}
	return ""
}

func (r *Record) set(f Field, v string) {
	switch f {
	case FieldFR:
		r.FR = v
	case FieldASH:
		r.ASH = v
	case FieldAWA:
		r.AWA = v
	case FieldN:
		r.N = v
	case FieldNOut:
		r.NOut = v
	case FieldExit:
		r.Exit = v
	case FieldMulti:
		r.Multi = v
	case FieldDate:
		r.Date = v
	case FieldPath:
		r.Path = v
	}
}

// Values returns the column values in canonical column order.
func (r Record) Values() []string {
	values := make([]string, len(Columns))
	for i, f := range Columns {
		values[i] = r.Get(f)
	}
	return values
}

// Float parses a column as a floating-point number.
func (r Record) Float(f Field) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Get(f)), 64)
	if err != nil {
		return 0, swerrors.NewTableError(swerrors.CodeNonNumericField,
			fmt.Sprintf("field %s of %s is not numeric: %q", f, r.Path, r.Get(f)))
	}
	return v, nil
}

// Int parses a column as an integer.
func (r Record) Int(f Field) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(r.Get(f)), 10, 64)
	if err != nil {
		return 0, swerrors.NewTableError(swerrors.CodeNonNumericField,
			fmt.Sprintf("field %s of %s is not an integer: %q", f, r.Path, r.Get(f)))
	}
	return v, nil
}

// FormatExit renders the exit ratio of nOut out of n subjects. The ratio is
// written in its shortest decimal form with at least one fractional digit, and
// ExitSentinel is returned when n is zero.
func FormatExit(nOut, n int) string {
	if n == 0 {
		return ExitSentinel
	}
	s := strconv.FormatFloat(float64(nOut)/float64(n), 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
