package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/sqirvy-health/internal/logger"
)

var (
	// ErrConstraintViolation is returned when a write breaks a uniqueness,
	// foreign-key or check constraint.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrStorageUnavailable is returned when the store cannot be opened or an
	// I/O level failure occurs mid-operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvariantBreach is returned when stored data is internally inconsistent,
	// e.g. a cached day total that differs from its items or two active goals.
	ErrInvariantBreach = errors.New("invariant breach")
	// ErrNotFound is used by commands that target a specific record. Store reads
	// report absence with a found flag instead.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned by validation before anything is written
	ErrInvalidInput = errors.New("invalid input")
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// ExitCode maps an error to a process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound):
		return 2
	case errors.Is(err, ErrStorageUnavailable):
		return 3
	case errors.Is(err, ErrInvariantBreach):
		return 4
	default:
		return 1
	}
}

// Fatal logs an error and exits the program with a non-zero exit code
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
