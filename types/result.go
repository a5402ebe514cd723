package types

import (
	"fmt"
	"time"
)

// BytesPerKB is the divisor used to convert memory counters to kilobytes.
const BytesPerKB = 1024.0

// MemoryCounters is a single reading of a live process's memory usage.
type MemoryCounters struct {
	WorkingSetBytes uint64 // resident physical memory
	PageFileBytes   uint64 // committed virtual memory
}

// RunResult captures the measurements of one successful monitored run.
// It is created once by the supervisor and must not be modified afterwards.
type RunResult struct {
	CPUSeconds       float64
	PeakWorkingSetKB float64
	PeakPageFileKB   float64
	Stdout           string
	Stderr           string

	ExitCode  int           // exit status of the target, reported but not judged
	Duration  time.Duration // wall-clock time from launch to the end of monitoring
	AttemptID string        // correlates log lines and spans of one run
}

// RunOutcome is the result of one attempted run: either a RunResult or the
// reason the run could not be measured.
type RunOutcome struct {
	Index  int // 1-based position of the run inside its batch
	Result *RunResult
	Err    error
}

// Success builds a successful outcome.
func Success(index int, result *RunResult) RunOutcome {
	return RunOutcome{Index: index, Result: result}
}

// Failure builds a failed outcome.
func Failure(index int, err error) RunOutcome {
	return RunOutcome{Index: index, Err: err}
}

// Succeeded reports whether the run produced a measurement.
func (o RunOutcome) Succeeded() bool {
	return o.Err == nil && o.Result != nil
}

// Reason returns the failure reason, or an empty string for successful runs.
func (o RunOutcome) Reason() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	if o.Result == nil {
		return "no result"
	}
	return ""
}

// BatchSummary holds the aggregate statistics of one batch.
type BatchSummary struct {
	MeanCPU   float64
	StddevCPU float64
	MeanWSS   float64
	StddevWSS float64
	MeanPF    float64
	StddevPF  float64
	RunID     string
}

// BatchResult is everything a batch produced: the per-run outcomes in
// execution order and, if at least one run succeeded, the summary.
type BatchResult struct {
	RunID     string
	Outcomes  []RunOutcome
	Summary   *BatchSummary
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Failures returns the outcomes of the runs that could not be measured.
func (b *BatchResult) Failures() []RunOutcome {
	var failures []RunOutcome
	for _, o := range b.Outcomes {
		if !o.Succeeded() {
			failures = append(failures, o)
		}
	}
	return failures
}

// String returns a one-line description of the batch.
func (b *BatchResult) String() string {
	return fmt.Sprintf("batch %s: %d runs, %d succeeded, %d failed (%s)",
		b.RunID, len(b.Outcomes), b.Succeeded, b.Failed, b.Duration.Round(time.Millisecond))
}
