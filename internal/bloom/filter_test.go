package bloom

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFilter_NoFalseNegatives(t *testing.T) {
	f := NewFilter(500, 0.01)
	for i := 0; i < 500; i++ {
		f.Add(fmt.Sprintf("16Aug_m_%d/exit_time_raw_output_1&-0.55&0.3.csv", i))
	}
	for i := 0; i < 500; i++ {
		if !f.Contains(fmt.Sprintf("16Aug_m_%d/exit_time_raw_output_1&-0.55&0.3.csv", i)) {
			t.Fatalf("item %d reported absent after Add", i)
		}
	}
	if f.Count() != 500 {
		t.Errorf("Count() = %d, want 500", f.Count())
	}
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	f := NewFilter(1000, 0.01)
	for i := 0; i < 1000; i++ {
		f.Add(fmt.Sprintf("present-%d", i))
	}

	falsePositives := 0
	for i := 0; i < 10000; i++ {
		if f.Contains(fmt.Sprintf("absent-%d", i)) {
			falsePositives++
		}
	}
	if rate := float64(falsePositives) / 10000; rate > 0.03 {
		t.Errorf("false positive rate %.4f far above target 0.01", rate)
	}
}

func TestFilter_Seen(t *testing.T) {
	f := NewFilter(10, 0)
	if f.Seen("a/b.csv") {
		t.Error("first sighting reported as seen")
	}
	if !f.Seen("a/b.csv") {
		t.Error("second sighting reported as unseen")
	}
	if f.Count() != 1 {
		t.Errorf("Count() = %d, want 1", f.Count())
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		name       string
		expected   int
		fpr        float64
		wantBits   int
		wantHashes int
	}{
		{"thousand at one percent", 1000, 0.01, 9586, 7},
		{"tiny set floors at 64 bits", 1, 0.9, 64, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits, hashes := Size(tt.expected, tt.fpr)
			if bits != tt.wantBits || hashes != tt.wantHashes {
				t.Errorf("Size(%d, %v) = (%d, %d), want (%d, %d)",
					tt.expected, tt.fpr, bits, hashes, tt.wantBits, tt.wantHashes)
			}
		})
	}

	if f := NewFilter(1000, 0.01); f.NumBits()%64 != 0 || f.NumHashes() != 7 {
		t.Errorf("NewFilter rounded to %d bits, %d hashes", f.NumBits(), f.NumHashes())
	}
}

func TestChecksum(t *testing.T) {
	a, err := Checksum(strings.NewReader("FR ASH\n50 0.3\n"))
	if err != nil {
		t.Fatalf("Checksum failed: %v", err)
	}
	b, _ := Checksum(strings.NewReader("FR ASH\n50 0.3\n"))
	c, _ := Checksum(strings.NewReader("FR ASH\n60 0.3\n"))
	if a != b {
		t.Errorf("identical input gave %s and %s", a, b)
	}
	if a == c {
		t.Error("different input gave the same checksum")
	}
	if len(a) != 16 {
		t.Errorf("checksum %q is not 16 hex digits", a)
	}

	path := filepath.Join(t.TempDir(), "database.txt")
	if err := os.WriteFile(path, []byte("FR ASH\n50 0.3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	fromFile, err := ChecksumFile(path)
	if err != nil {
		t.Fatalf("ChecksumFile failed: %v", err)
	}
	if fromFile != a {
		t.Errorf("ChecksumFile = %s, want %s", fromFile, a)
	}
}
