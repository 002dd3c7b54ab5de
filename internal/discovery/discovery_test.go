package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	swerrors "github.com/wormsim/sweeping/internal/errors"
)

func makeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte("worm,exit\n"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
}

func rels(candidates []Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = filepath.ToSlash(c.Rel)
	}
	return out
}

func TestDiscover_FiltersByNameAndExtension(t *testing.T) {
	root := filepath.Join(t.TempDir(), "results")
	makeTree(t, root,
		"a/exit_time_raw_output_x.csv",
		"a/notes.txt",
		"b/in_spot_processed_output_x.csv",
	)

	candidates, err := Discover(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	got := rels(candidates)
	if len(got) != 1 || got[0] != "a/exit_time_raw_output_x.csv" {
		t.Fatalf("got %v, want only a/exit_time_raw_output_x.csv", got)
	}
	if candidates[0].Source != filepath.Join(root, "a", "exit_time_raw_output_x.csv") {
		t.Errorf("unexpected source path %q", candidates[0].Source)
	}
}

func TestDiscover_KeepsImmediateFolderOnly(t *testing.T) {
	root := filepath.Join(t.TempDir(), "results")
	makeTree(t, root,
		"type_a/12Aug_m_50/exit_time_raw_output_1&-2.2&0.32.csv",
		"12Aug_m_40/exit_time_raw_output_0&-2.2&0.32.csv",
	)

	candidates, err := Discover(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	got := rels(candidates)
	want := []string{
		"12Aug_m_40/exit_time_raw_output_0&-2.2&0.32.csv",
		"12Aug_m_50/exit_time_raw_output_1&-2.2&0.32.csv",
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiscover_StrictRootCheck(t *testing.T) {
	root := filepath.Join(t.TempDir(), "results")
	makeTree(t, root,
		"12Aug_m_50/exit_time_raw_output_1&-2.2&0.32.csv",
		"12Aug_m_50/notes.txt",
	)

	opts := DefaultOptions()
	opts.Policy = StrictRootCheck

	candidates, err := Discover(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("strict discovery of a flat tree failed: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}

	makeTree(t, root, "nested/deeper/exit_time_raw_output_1&-2.2&0.32.csv")
	_, err = Discover(context.Background(), root, opts)
	if !errors.Is(err, swerrors.ErrInconsistentFolderName) {
		t.Fatalf("expected InconsistentFolderName, got %v", err)
	}

	// The lenient policy accepts the same tree.
	if _, err := Discover(context.Background(), root, DefaultOptions()); err != nil {
		t.Fatalf("lenient discovery failed: %v", err)
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(context.Background(), filepath.Join(t.TempDir(), "nope"), DefaultOptions())
	if swerrors.GetCategory(err) != swerrors.ErrCategoryIO {
		t.Fatalf("expected IO error, got %v", err)
	}
}

func TestDiscover_Cancelled(t *testing.T) {
	root := filepath.Join(t.TempDir(), "results")
	makeTree(t, root, "a/exit_time_raw_output_x.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Discover(ctx, root, DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"strict", StrictRootCheck, false},
		{"STRICT", StrictRootCheck, false},
		{"lenient", NoRootCheck, false},
		{"", NoRootCheck, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, %v", tt.in, got, err)
		}
	}
}
