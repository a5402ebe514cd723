package metrics

import (
	"errors"
	"regexp"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ethereum-optimism/infra/procbench/types"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("launch error"),
		},
		{
			name: "error with path",
			err:  errors.New(`failed to launch "/no/such/bin": no such file or directory`),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("launch   error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errToLabel(tt.err)
			validLabelRegex := regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
			if !validLabelRegex.MatchString(result) {
				t.Errorf("errToLabel() = %v, is not a valid Prometheus label", result)
			}
		})
	}
}

func TestRecordRun(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRun(types.Success(1, &types.RunResult{CPUSeconds: 0.25, PeakWorkingSetKB: 2048, PeakPageFileKB: 4096}))
	m.RecordRun(types.Success(2, &types.RunResult{CPUSeconds: 0.5}))
	m.RecordRun(types.Failure(3, errors.New("not found")))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runsTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues(ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.launchFailures.WithLabelValues("not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.runCPUSeconds))
}

func TestRecordSamplingError(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordSamplingError()
	m.RecordSamplingError()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.samplingErrorsTotal))
}

func TestRecordBatch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordBatch(&types.BatchResult{
		RunID:     "r1",
		Succeeded: 3,
		Failed:    2,
		Summary:   &types.BatchSummary{RunID: "r1", MeanCPU: 1.5, StddevPF: 7},
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.batchRuns.WithLabelValues("r1", ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.batchRuns.WithLabelValues("r1", ResultFailure)))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.batchAggregates.WithLabelValues("r1", "cpu_seconds", "mean")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.batchAggregates.WithLabelValues("r1", "peak_page_file_kb", "stddev")))
}

func TestRecordBatchWithoutSummary(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordBatch(&types.BatchResult{RunID: "r2", Failed: 3})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.batchRuns.WithLabelValues("r2", ResultFailure)))
	assert.Equal(t, 0, testutil.CollectAndCount(m.batchAggregates))
}
