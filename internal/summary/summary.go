// Package summary computes per-file subject counts from the simulator's raw
// exit-time output.
package summary

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	swerrors "github.com/wormsim/sweeping/internal/errors"
	"github.com/wormsim/sweeping/pkg/types"
)

// notExited is the exit time the simulator writes for a subject that never left.
const notExited = -1.0

// MaxLineBytes bounds a single row. A longer row makes the file malformed.
const MaxLineBytes = 1024 * 1024

// Summarize reads a raw output file and returns N, N_OUT, EXIT and PATH.
//
// The first line is a header and is skipped, as are blank lines. Every other
// line must be "<subjectId>,<exitTime>"; a subject counts as exited unless its
// exit time is exactly -1.
func Summarize(path string) (types.Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, swerrors.NewIOError(swerrors.CodeReadFailed, "failed to open data file", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	total, exited := 0, 0
	line := 0

	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		entry := strings.TrimSpace(scanner.Text())
		if entry == "" {
			continue
		}

		cols := strings.Split(entry, ",")
		if len(cols) != 2 {
			return nil, swerrors.NewMalformedRowError(line, path)
		}

		exitTime, err := strconv.ParseFloat(strings.TrimSpace(cols[1]), 64)
		if err != nil {
			return nil, swerrors.NewParseError(
				fmt.Sprintf("invalid exit time on line %d of %s", line, path), err)
		}

		total++
		if exitTime != notExited {
			exited++
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, swerrors.NewMalformedRowError(line+1, path)
		}
		return nil, swerrors.NewIOError(swerrors.CodeReadFailed, "failed to read data file", err)
	}

	return types.Fields{
		types.FieldN:    strconv.Itoa(total),
		types.FieldNOut: strconv.Itoa(exited),
		types.FieldExit: types.FormatExit(exited, total),
		types.FieldPath: path,
	}, nil
}
