// Package observability provides the per-run error log and the run metrics
// registry.
package observability

import (
	"fmt"
	"os"
	"sync"
	"time"

	swerrors "github.com/wormsim/sweeping/internal/errors"
)

// ErrorLogTimeLayout renders entry timestamps as month/day hour:minute:second.
const ErrorLogTimeLayout = "01/02 15:04:05"

// ErrorLog appends one timestamped line per recovered failure.
type ErrorLog struct {
	mu    sync.Mutex
	path  string
	now   func() time.Time
	count int
}

// NewErrorLog creates an ErrorLog writing to path. The file is not touched
// until Init or Append is called.
func NewErrorLog(path string) *ErrorLog {
	return &ErrorLog{path: path, now: time.Now}
}

// WithClock replaces the timestamp source.
func (l *ErrorLog) WithClock(now func() time.Time) *ErrorLog {
	l.now = now
	return l
}

// Path returns the log file path.
func (l *ErrorLog) Path() string {
	return l.path
}

// Init discards any log left over from a previous run.
func (l *ErrorLog) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count = 0
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return swerrors.NewIOError(swerrors.CodeWriteFailed,
			fmt.Sprintf("failed to clear error log %s", l.path), err)
	}
	return nil
}

// Append writes "MM/DD HH:MM:SS, message" as a new line.
func (l *ErrorLog) Append(message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return swerrors.NewIOError(swerrors.CodeWriteFailed,
			fmt.Sprintf("failed to open error log %s", l.path), err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s, %s\n", l.now().Format(ErrorLogTimeLayout), message); err != nil {
		return swerrors.NewIOError(swerrors.CodeWriteFailed, "failed to append to error log", err)
	}
	l.count++
	return nil
}

// Count returns the number of entries appended since Init.
func (l *ErrorLog) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}
