package observability

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2024, time.August, 16, 9, 5, 7, 0, time.UTC)
}

func TestErrorLog_AppendFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	log := NewErrorLog(path).WithClock(fixedClock)

	if err := log.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := log.Append("unable to parse line 3 from the following file: a.csv"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Append("second"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	want := "08/16 09:05:07, unable to parse line 3 from the following file: a.csv\n" +
		"08/16 09:05:07, second\n"
	if string(data) != want {
		t.Errorf("log = %q, want %q", data, want)
	}
	if log.Count() != 2 {
		t.Errorf("Count() = %d, want 2", log.Count())
	}
}

func TestErrorLog_InitRemovesPreviousLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	if err := os.WriteFile(path, []byte("stale\n"), 0644); err != nil {
		t.Fatalf("failed to seed log: %v", err)
	}

	log := NewErrorLog(path)
	if err := log.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected log to be removed, stat err = %v", err)
	}

	// A missing log is not an error.
	if err := log.Init(); err != nil {
		t.Errorf("second Init failed: %v", err)
	}
}

func TestErrorLog_ConcurrentAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")
	log := NewErrorLog(path).WithClock(fixedClock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if err := log.Append("boom"); err != nil {
					t.Errorf("Append failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 200 {
		t.Errorf("got %d lines, want 200", lines)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.FilesDiscovered.Add(3)
	m.RecordsExtracted.Add(2)
	m.ExtractFailures.WithLabelValues("MALFORMED_ROW").Inc()

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	values := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				values[mf.GetName()] += c.GetValue()
			}
		}
	}
	if values["sweeping_extract_files_discovered_total"] != 3 {
		t.Errorf("files discovered = %v, want 3", values["sweeping_extract_files_discovered_total"])
	}
	if values["sweeping_extract_failures_total"] != 1 {
		t.Errorf("failures = %v, want 1", values["sweeping_extract_failures_total"])
	}

	path := filepath.Join(t.TempDir(), "sweeping.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	for _, want := range []string{
		"sweeping_extract_records_total 2",
		`sweeping_extract_failures_total{code="MALFORMED_ROW"} 1`,
		"sweeping_last_run_timestamp_seconds",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}
