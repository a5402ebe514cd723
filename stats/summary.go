package stats

import (
	"fmt"

	"github.com/ethereum-optimism/infra/procbench/types"
)

// EmptyBatchError is returned when a batch summary is requested but no run
// of the batch succeeded.
type EmptyBatchError struct {
	RunID    string
	Attempts int
}

func (e *EmptyBatchError) Error() string {
	return fmt.Sprintf("no aggregate could be computed for batch %q: 0 of %d runs succeeded", e.RunID, e.Attempts)
}

// Unwrap lets errors.Is match ErrEmptySeries.
func (e *EmptyBatchError) Unwrap() error {
	return ErrEmptySeries
}

// BatchSeries groups the three series a batch accumulates.
type BatchSeries struct {
	CPUSeconds       *Accumulator[float64]
	PeakWorkingSetKB *Accumulator[float64]
	PeakPageFileKB   *Accumulator[float64]
}

// NewBatchSeries returns three empty series.
func NewBatchSeries() *BatchSeries {
	return &BatchSeries{
		CPUSeconds:       NewAccumulator[float64](),
		PeakWorkingSetKB: NewAccumulator[float64](),
		PeakPageFileKB:   NewAccumulator[float64](),
	}
}

// Add records the measurements of one successful run.
func (s *BatchSeries) Add(r *types.RunResult) {
	s.CPUSeconds.Add(r.CPUSeconds)
	s.PeakWorkingSetKB.Add(r.PeakWorkingSetKB)
	s.PeakPageFileKB.Add(r.PeakPageFileKB)
}

// Count returns the number of runs recorded.
func (s *BatchSeries) Count() int {
	return s.CPUSeconds.Count()
}

// Summarize computes the batch summary. attempts is only used to describe
// the failure when no run was recorded.
func (s *BatchSeries) Summarize(runID string, attempts int) (*types.BatchSummary, error) {
	if s.Count() == 0 {
		return nil, &EmptyBatchError{RunID: runID, Attempts: attempts}
	}

	summary := &types.BatchSummary{RunID: runID}
	fields := []struct {
		acc          *Accumulator[float64]
		mean, stddev *float64
	}{
		{s.CPUSeconds, &summary.MeanCPU, &summary.StddevCPU},
		{s.PeakWorkingSetKB, &summary.MeanWSS, &summary.StddevWSS},
		{s.PeakPageFileKB, &summary.MeanPF, &summary.StddevPF},
	}
	for _, f := range fields {
		mean, err := f.acc.Mean()
		if err != nil {
			return nil, err
		}
		stddev, err := f.acc.StandardDeviation()
		if err != nil {
			return nil, err
		}
		*f.mean, *f.stddev = mean, stddev
	}
	return summary, nil
}
