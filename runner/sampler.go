package runner

import (
	"context"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/procbench/metrics"
	"github.com/ethereum-optimism/infra/procbench/types"
)

// Peaks are the highest memory readings of a run, in kilobytes.
type Peaks struct {
	WorkingSetKB float64
	PageFileKB   float64
}

// ResourceSampler polls the memory counters of a live process and keeps the
// running maximum of each. Peaks start at zero and never decrease. It is
// owned by a single monitoring loop and is not safe for concurrent use.
type ResourceSampler struct {
	proc    LiveProcess
	log     log.Logger
	metrics metrics.Recorder

	peakWorkingSet uint64
	peakPageFile   uint64
	samples        int
	failures       int
}

// NewResourceSampler creates a sampler for proc.
func NewResourceSampler(proc LiveProcess, logger log.Logger, recorder metrics.Recorder) *ResourceSampler {
	if logger == nil {
		logger = log.New()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &ResourceSampler{proc: proc, log: logger, metrics: recorder}
}

// SampleOnce takes one reading if the process is still running and folds it
// into the peaks. A failed query is skipped and leaves the peaks unchanged.
// It reports whether a reading was taken.
func (s *ResourceSampler) SampleOnce(ctx context.Context) bool {
	if s.proc.HasExited() {
		return false
	}
	counters, err := s.proc.QueryMemoryCounters(ctx)
	if err != nil {
		s.failures++
		s.metrics.RecordSamplingError()
		s.log.Debug("Skipping memory sample", "pid", s.proc.Pid(), "err", err)
		return false
	}
	s.observe(counters)
	return true
}

func (s *ResourceSampler) observe(c types.MemoryCounters) {
	s.samples++
	s.peakWorkingSet = max(s.peakWorkingSet, c.WorkingSetBytes)
	s.peakPageFile = max(s.peakPageFile, c.PageFileBytes)
}

// Peaks returns the current peaks converted to kilobytes.
func (s *ResourceSampler) Peaks() Peaks {
	return Peaks{
		WorkingSetKB: float64(s.peakWorkingSet) / types.BytesPerKB,
		PageFileKB:   float64(s.peakPageFile) / types.BytesPerKB,
	}
}

// Samples returns how many readings were taken and how many were skipped.
func (s *ResourceSampler) Samples() (taken, skipped int) {
	return s.samples, s.failures
}
