package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"simple error", errors.New("something went wrong"), "Error: something went wrong"},
		{
			name:     "validation error is unwrapped",
			err:      fmt.Errorf("create repeating-task: %w", models.NewValidationError("interval_days", "must be at least 1")),
			expected: "Error: invalid interval_days: must be at least 1",
		},
		{
			name:     "not loaded",
			err:      fmt.Errorf("list: %w", storage.ErrNotLoaded),
			expected: "Error: storage not initialized, run 'nudge init' first",
		},
		{
			name:     "not found keeps context",
			err:      storage.NotFound("action", "abc"),
			expected: "Error: action abc: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	if got := Formatf("bad date %q", "24-13-01"); got != `Error: bad date "24-13-01"` {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("disk full"), 1},
		{models.NewValidationError("title", "must not be empty"), 2},
		{fmt.Errorf("get: %w", storage.NotFound("one-time-task", "x")), 3},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
