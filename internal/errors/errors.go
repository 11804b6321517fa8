// Package errors turns engine errors into one-line messages for the
// terminal.
package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/nudge/internal/logger"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

// ExitCode maps an error to the process exit status: 2 for rejected input,
// 3 for a missing record, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, models.ErrInvalidEntity):
		return 2
	case stderrors.Is(err, storage.ErrNotFound):
		return 3
	default:
		return 1
	}
}

// Format prefixes err with "Error: ". Validation failures are reduced to
// the offending field.
func Format(err error) string {
	if err == nil {
		return ""
	}
	var ve *models.ValidationError
	if stderrors.As(err, &ve) {
		return fmt.Sprintf("Error: %s", ve.Error())
	}
	if stderrors.Is(err, storage.ErrNotLoaded) {
		return "Error: storage not initialized, run 'nudge init' first"
	}
	return fmt.Sprintf("Error: %v", err)
}

func Formatf(format string, args ...any) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs err and exits with ExitCode(err).
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, Format(err))
		os.Exit(ExitCode(err))
	}
}

func Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintln(os.Stderr, Formatf(format, args...))
	os.Exit(1)
}
