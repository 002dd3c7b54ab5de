// Package table reads, writes and filters the consolidated flat-text table.
//
// The table file is a header row naming the columns followed by one row per
// record. Every value is left-justified and padded to a fixed column width;
// readers split rows on whitespace and pair tokens with the header.
package table

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	swerrors "github.com/wormsim/sweeping/internal/errors"
	"github.com/wormsim/sweeping/pkg/types"
)

const (
	// DefaultColumnWidth is the padded width of every column.
	DefaultColumnWidth = 10

	// MinColumnWidth fits the longest header name (N_OUT, MULTI) plus a separator.
	MinColumnWidth = 9
)

// Store reads and writes table files with a fixed column width.
type Store struct {
	width int
}

// NewStore creates a Store. Widths below MinColumnWidth are raised to it.
func NewStore(width int) *Store {
	if width < MinColumnWidth {
		width = MinColumnWidth
	}
	return &Store{width: width}
}

// Width returns the column width used when writing.
func (s *Store) Width() int {
	return s.width
}

// Read parses a table file into records in file order.
//
// Rows are not validated: a short row leaves its trailing columns empty and
// surplus tokens are dropped, so a malformed row yields a misaligned record.
// A header naming an unknown column is an error.
func (s *Store) Read(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, swerrors.NewIOError(swerrors.CodeReadFailed,
			fmt.Sprintf("failed to open table %s", path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var header []types.Field
	records := make([]types.Record, 0)

	for scanner.Scan() {
		tokens := strings.Fields(scanner.Text())
		if header == nil {
			if len(tokens) == 0 {
				continue
			}
			header, err = parseHeader(tokens)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", path, err)
			}
			continue
		}
		if len(tokens) == 0 {
			continue
		}
		records = append(records, types.ZipRecord(header, tokens))
	}
	if err := scanner.Err(); err != nil {
		return nil, swerrors.NewIOError(swerrors.CodeReadFailed,
			fmt.Sprintf("failed to read table %s", path), err)
	}

	return records, nil
}

func parseHeader(tokens []string) ([]types.Field, error) {
	header := make([]types.Field, len(tokens))
	for i, tok := range tokens {
		f, ok := types.ParseField(tok)
		if !ok {
			return nil, swerrors.NewTableError(swerrors.CodeUnknownColumn,
				fmt.Sprintf("unknown column %q in header", tok))
		}
		header[i] = f
	}
	return header, nil
}

// Write truncates or creates path and writes the header followed by one row
// per record. An empty record set produces a header-only table.
func (s *Store) Write(path string, records []types.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return swerrors.NewIOError(swerrors.CodeWriteFailed,
			fmt.Sprintf("failed to create table %s", path), err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	header := make([]string, len(types.Columns))
	for i, c := range types.Columns {
		header[i] = string(c)
	}
	if _, err := w.WriteString(s.FormatRow(header)); err != nil {
		return swerrors.NewIOError(swerrors.CodeWriteFailed, "failed to write table header", err)
	}
	for _, r := range records {
		if _, err := w.WriteString(s.FormatRow(r.Values())); err != nil {
			return swerrors.NewIOError(swerrors.CodeWriteFailed, "failed to write table row", err)
		}
	}
	if err := w.Flush(); err != nil {
		return swerrors.NewIOError(swerrors.CodeWriteFailed, "failed to flush table", err)
	}
	return f.Close()
}

// FormatRow renders values as one newline-terminated fixed-width row. A value
// that fills or overflows its column is followed by a single space.
func (s *Store) FormatRow(values []string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(v)
		pad := s.width - len(v)
		if pad < 1 {
			pad = 1
		}
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteByte('\n')
	return b.String()
}
