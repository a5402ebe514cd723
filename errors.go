package procbench

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/procbench/stats"
)

// RuntimeError represents an operational error that should lead to exit code 2.
// Examples include an unreadable config file or a failure to append to the
// results file.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// UsageError reports malformed or missing positional arguments. The usage
// message is printed and the process exits with code 0.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage error: %s", e.Message)
}

// NewUsageError creates a new UsageError
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// IsUsageError checks if the error is or wraps a UsageError
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return err != nil && errors.As(err, &usageErr)
}

// IsEmptyBatchError checks if the error is or wraps a stats.EmptyBatchError
func IsEmptyBatchError(err error) bool {
	var emptyErr *stats.EmptyBatchError
	return err != nil && errors.As(err, &emptyErr)
}
