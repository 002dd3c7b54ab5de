package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	swerrors "github.com/wormsim/sweeping/internal/errors"
	"github.com/wormsim/sweeping/pkg/types"
)

func sampleRecords() []types.Record {
	base := types.Record{
		FR: "100", ASH: "0.30", AWA: "-0.55", N: "100", NOut: "0", Exit: "0.0",
		Multi: "1", Date: "16Aug",
		Path: "../test/results/type_a_subset/16Aug_m_100/exit_time_raw_output_1&-0.55&0.3.csv",
	}
	r1, r2, r3 := base, base, base
	r1.FR = "50"
	r2.FR = "40"
	r3.FR = "30"
	return []types.Record{r1, r2, r3}
}

func TestStore_FormatRow(t *testing.T) {
	s := NewStore(DefaultColumnWidth)

	got := s.FormatRow([]string{"FR", "ASH", "N_OUT"})
	want := "FR        ASH       N_OUT     \n"
	if got != want {
		t.Errorf("FormatRow = %q, want %q", got, want)
	}

	got = s.FormatRow([]string{"0.123456789", "x"})
	want = "0.123456789 x         \n"
	if got != want {
		t.Errorf("overflowing value: FormatRow = %q, want %q", got, want)
	}
}

func TestStore_WriteHeaderOnly(t *testing.T) {
	s := NewStore(DefaultColumnWidth)
	path := filepath.Join(t.TempDir(), "database.txt")

	if err := s.Write(path, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read table: %v", err)
	}
	want := "FR        ASH       AWA       N         N_OUT     EXIT      MULTI     DATE      PATH      \n"
	if string(data) != want {
		t.Errorf("header-only table = %q, want %q", data, want)
	}

	records, err := s.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records from a header-only table", len(records))
	}
}

func TestStore_WriteTruncates(t *testing.T) {
	s := NewStore(DefaultColumnWidth)
	path := filepath.Join(t.TempDir(), "database.txt")

	if err := s.Write(path, sampleRecords()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Write(path, sampleRecords()[:1]); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	records, err := s.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 after rewrite", len(records))
	}
}

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(DefaultColumnWidth)
	path := filepath.Join(t.TempDir(), "database.txt")
	records := sampleRecords()

	if err := s.Write(path, records); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read table: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows", len(lines))
	}
	if !strings.HasPrefix(lines[1], "50        0.30      -0.55     100       0         0.0       1         16Aug     ") {
		t.Errorf("unexpected row layout: %q", lines[1])
	}

	got, err := s.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("got %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestStore_ReadMisalignedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.txt")
	content := "FR  ASH  AWA  N  N_OUT  EXIT  MULTI  DATE  PATH\n" +
		"50  0.3  -1.7  100  10  0.1  0  12Aug\n" +
		"\n" +
		"60  0.3  -1.7  100  10  0.1  0  12Aug  a/b.csv  surplus\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}

	records, err := NewStore(DefaultColumnWidth).Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Path != "" || records[0].Date != "12Aug" {
		t.Errorf("short row should leave PATH empty: %+v", records[0])
	}
	if records[1].Path != "a/b.csv" {
		t.Errorf("surplus tokens should be dropped: %+v", records[1])
	}
}

func TestStore_ReadUnknownColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.txt")
	if err := os.WriteFile(path, []byte("FR COLOUR\n1 blue\n"), 0644); err != nil {
		t.Fatalf("failed to write table: %v", err)
	}

	_, err := NewStore(DefaultColumnWidth).Read(path)
	if !errors.Is(err, swerrors.ErrUnknownColumn) {
		t.Fatalf("expected UnknownColumn, got %v", err)
	}
}

func TestStore_ReadMissingFile(t *testing.T) {
	_, err := NewStore(DefaultColumnWidth).Read(filepath.Join(t.TempDir(), "missing.txt"))
	if swerrors.GetCategory(err) != swerrors.ErrCategoryIO {
		t.Fatalf("expected IO error, got %v", err)
	}
}

func TestNewStore_MinimumWidth(t *testing.T) {
	if w := NewStore(3).Width(); w != MinColumnWidth {
		t.Errorf("Width() = %d, want %d", w, MinColumnWidth)
	}
	if w := NewStore(12).Width(); w != 12 {
		t.Errorf("Width() = %d, want 12", w)
	}
}
