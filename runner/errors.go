package runner

import (
	"errors"
	"fmt"
)

// ErrProcessExited is returned by memory queries against a process that is
// no longer running.
var ErrProcessExited = errors.New("process has exited")

// LaunchError is returned when the target executable could not be started:
// it is missing, not executable, or the OS refused to create the process.
// It is the only failure the orchestrator tolerates per run.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchError checks if the error is or wraps a LaunchError
func IsLaunchError(err error) bool {
	var launchErr *LaunchError
	return err != nil && errors.As(err, &launchErr)
}

// SamplingError is returned when a memory counter query fails. The sampler
// skips the sample and keeps its previous peaks.
type SamplingError struct {
	Pid int
	Err error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("failed to sample memory of pid %d: %v", e.Pid, e.Err)
}

func (e *SamplingError) Unwrap() error {
	return e.Err
}
