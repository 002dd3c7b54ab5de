// Package discovery finds the simulator's exit-time data files under a
// results directory.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	swerrors "github.com/wormsim/sweeping/internal/errors"
)

// Policy selects how strictly the results tree layout is checked.
type Policy string

const (
	// StrictRootCheck requires every file to sit exactly two levels below the
	// results root: <root>/<folder>/<file>.
	StrictRootCheck Policy = "strict"

	// NoRootCheck accepts data files at any depth.
	NoRootCheck Policy = "lenient"
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case StrictRootCheck:
		return StrictRootCheck, nil
	case NoRootCheck, "":
		return NoRootCheck, nil
	}
	return "", fmt.Errorf("invalid discovery mode: %s (must be strict or lenient)", s)
}

// Options controls which files are returned.
type Options struct {
	// Policy is the depth check applied to every regular file
	Policy Policy

	// Extension is the required file name suffix
	Extension string

	// Marker must appear in the file name
	Marker string
}

// DefaultOptions returns the simulator's naming conventions with no depth check.
func DefaultOptions() Options {
	return Options{
		Policy:    NoRootCheck,
		Extension: ".csv",
		Marker:    "exit_time_raw_output",
	}
}

// Candidate is a discovered data file.
type Candidate struct {
	// Rel is the immediate folder and file name, e.g. "12Aug_m_50/exit_time_raw_output_1&-2.2&0.32.csv"
	Rel string

	// Source is the path of the file as found by the walk, rooted at the results root
	Source string
}

// Discover walks root and returns the data files in lexical walk order.
// Under StrictRootCheck any regular file whose grandparent directory is not
// named like root fails the whole walk with InconsistentFolderName.
func Discover(ctx context.Context, root string, opts Options) ([]Candidate, error) {
	expectedRoot := filepath.Base(filepath.Clean(root))
	var candidates []Candidate

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		dir := filepath.Dir(path)
		if opts.Policy == StrictRootCheck && filepath.Base(filepath.Dir(dir)) != expectedRoot {
			return swerrors.NewDiscoveryError(path)
		}

		name := d.Name()
		if !strings.HasSuffix(name, opts.Extension) || !strings.Contains(name, opts.Marker) {
			return nil
		}

		candidates = append(candidates, Candidate{
			Rel:    filepath.Join(filepath.Base(dir), name),
			Source: path,
		})
		return nil
	})
	if err != nil {
		if swerrors.GetCategory(err) != "" {
			return nil, err
		}
		return nil, swerrors.NewIOError(swerrors.CodeReadFailed,
			fmt.Sprintf("failed to walk results directory %s", root), err)
	}

	return candidates, nil
}
