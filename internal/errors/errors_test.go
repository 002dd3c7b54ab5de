package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSweepError_Error(t *testing.T) {
	err := New(ErrCategoryTable, CodeUnknownColumn, "unknown column FOO")
	expected := "[TABLE:UNKNOWN_COLUMN] unknown column FOO"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestSweepError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(ErrCategoryIO, CodeReadFailed, "read failed", cause)
	expected := "[IO:READ_FAILED] read failed: permission denied"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestSweepError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryContent, CodeParseFailure, "bad float", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestSweepError_Is(t *testing.T) {
	err1 := New(ErrCategoryContent, CodeMalformedRow, "first")
	err2 := New(ErrCategoryContent, CodeMalformedRow, "second")
	err3 := New(ErrCategoryContent, CodeParseFailure, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}

	wrapped := fmt.Errorf("pipeline: %w", NewPathError("a/b.csv"))
	if !errors.Is(wrapped, ErrInvalidPathFormat) {
		t.Error("wrapped path error should match ErrInvalidPathFormat")
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		category    ErrorCategory
		code        string
		recoverable bool
	}{
		{ErrCategoryPath, CodeInvalidPathFormat, true},
		{ErrCategoryContent, CodeMalformedRow, true},
		{ErrCategoryContent, CodeParseFailure, true},
		{ErrCategoryDiscovery, CodeInconsistentFolderName, false},
		{ErrCategoryTable, CodeNonNumericField, false},
		{ErrCategoryIO, CodeReadFailed, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRecoverable(err) != tt.recoverable {
			t.Errorf("%s:%s recoverable=%v, want %v", tt.category, tt.code, IsRecoverable(err), tt.recoverable)
		}
	}

	if IsRecoverable(fmt.Errorf("plain error")) {
		t.Error("plain errors are never recoverable")
	}
	if !IsRecoverable(fmt.Errorf("wrapped: %w", NewMalformedRowError(3, "x.csv"))) {
		t.Error("recoverability should survive wrapping")
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategoryFit, CodeInvalidReference, "bad table")
	if GetCategory(err) != ErrCategoryFit {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategoryFit)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-SweepError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := NewDiscoveryError("results/x/y/z.csv")
	if GetCode(err) != CodeInconsistentFolderName {
		t.Errorf("got %q, want %q", GetCode(err), CodeInconsistentFolderName)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-SweepError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryTable, CodeMissingField, "missing PATH")
	detailed := err.WithDetails(map[string]interface{}{"field": "PATH"})

	if detailed.Details["field"] != "PATH" {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	p := NewPathError("12Aug_50/file.csv")
	if p.Category != ErrCategoryPath || p.Details["path"] != "12Aug_50/file.csv" {
		t.Error("NewPathError mismatch")
	}
	if !strings.Contains(p.Error(), "12Aug_50/file.csv") {
		t.Errorf("path error should name the path: %s", p.Error())
	}

	m := NewMalformedRowError(7, "data.csv")
	if m.Details["line"] != 7 || !strings.Contains(m.Message, "line 7") {
		t.Error("NewMalformedRowError mismatch")
	}

	c := NewParseError("bad exit time", cause)
	if c.Category != ErrCategoryContent || !errors.Is(c, cause) {
		t.Error("NewParseError mismatch")
	}

	d := NewDiscoveryError("x")
	if d.Category != ErrCategoryDiscovery || d.Recoverable {
		t.Error("NewDiscoveryError mismatch")
	}

	tb := NewTableError(CodeNonNumericField, "FR is not numeric")
	if tb.Category != ErrCategoryTable {
		t.Error("NewTableError mismatch")
	}

	io := NewIOError(CodeWriteFailed, "disk full", cause)
	if io.Category != ErrCategoryIO || !errors.Is(io, cause) {
		t.Error("NewIOError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
