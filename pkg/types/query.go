package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	swerrors "github.com/wormsim/sweeping/internal/errors"
)

// Query maps columns to required values. A record matches when every listed
// column, read as a float, equals the value exactly. An empty Query matches
// every record.
type Query map[Field]float64

// ParseQuery builds a Query from "FIELD=VALUE" terms.
func ParseQuery(terms []string) (Query, error) {
	q := make(Query, len(terms))
	for _, term := range terms {
		name, value, ok := strings.Cut(term, "=")
		if !ok {
			return nil, fmt.Errorf("query term %q: expected FIELD=VALUE", term)
		}
		f, ok := ParseField(strings.ToUpper(strings.TrimSpace(name)))
		if !ok {
			return nil, swerrors.NewTableError(swerrors.CodeUnknownColumn,
				fmt.Sprintf("query term %q: unknown field %q", term, name))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, swerrors.NewTableError(swerrors.CodeNonNumericField,
				fmt.Sprintf("query term %q: value is not numeric", term))
		}
		q[f] = v
	}
	return q, nil
}

// Matches reports whether r satisfies every criterion of q. A column that does
// not parse as a number never matches.
func (q Query) Matches(r Record) bool {
	for f, want := range q {
		got, err := r.Float(f)
		if err != nil || got != want {
			return false
		}
	}
	return true
}

// Key returns a canonical string for q, independent of map iteration order.
func (q Query) Key() string {
	fields := make([]string, 0, len(q))
	for f := range q {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(f)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(q[Field(f)], 'g', -1, 64))
	}
	return b.String()
}
