package metrics

import (
	"regexp"
	"strings"

	"github.com/ethereum-optimism/infra/procbench/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "procbench"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

// Recorder receives measurement events from the runner.
type Recorder interface {
	RecordRun(outcome types.RunOutcome)
	RecordSamplingError()
	RecordBatch(result *types.BatchResult)
}

// Metrics is the Prometheus implementation of Recorder.
type Metrics struct {
	runsTotal           *prometheus.CounterVec
	launchFailures      *prometheus.CounterVec
	samplingErrorsTotal prometheus.Counter
	runCPUSeconds       prometheus.Histogram
	runPeakWorkingSet   prometheus.Histogram
	runPeakPageFile     prometheus.Histogram
	batchAggregates     *prometheus.GaugeVec
	batchRuns           *prometheus.GaugeVec
}

var _ Recorder = (*Metrics)(nil)

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "runs_total",
			Help:      "Count of attempted runs by result",
		}, []string{"result"}),
		launchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "launch_failures_total",
			Help:      "Count of runs that could not be launched",
		}, []string{"error"}),
		samplingErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "sampling_errors_total",
			Help:      "Count of skipped memory samples",
		}),
		runCPUSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "run_cpu_seconds",
			Help:      "Total processor time of successful runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		runPeakWorkingSet: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "run_peak_working_set_kb",
			Help:      "Peak working set of successful runs",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		runPeakPageFile: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "run_peak_page_file_kb",
			Help:      "Peak page file usage of successful runs",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		batchAggregates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "batch_aggregate",
			Help:      "Aggregates of the last batch",
		}, []string{"run_id", "metric", "stat"}),
		batchRuns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "batch_runs",
			Help:      "Run counts of the last batch by result",
		}, []string{"run_id", "result"}),
	}
}

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func (m *Metrics) RecordRun(outcome types.RunOutcome) {
	if !outcome.Succeeded() {
		log.Debug("metric inc", "m", "runs_total", "result", ResultFailure, "run", outcome.Index)
		m.runsTotal.WithLabelValues(ResultFailure).Inc()
		m.launchFailures.WithLabelValues(errToLabel(outcome.Err)).Inc()
		return
	}
	m.runsTotal.WithLabelValues(ResultSuccess).Inc()
	m.runCPUSeconds.Observe(outcome.Result.CPUSeconds)
	m.runPeakWorkingSet.Observe(outcome.Result.PeakWorkingSetKB)
	m.runPeakPageFile.Observe(outcome.Result.PeakPageFileKB)
}

func (m *Metrics) RecordSamplingError() {
	m.samplingErrorsTotal.Inc()
}

func (m *Metrics) RecordBatch(result *types.BatchResult) {
	m.batchRuns.WithLabelValues(result.RunID, ResultSuccess).Set(float64(result.Succeeded))
	m.batchRuns.WithLabelValues(result.RunID, ResultFailure).Set(float64(result.Failed))
	if result.Summary == nil {
		return
	}
	s := result.Summary
	for _, v := range []struct {
		metric, stat string
		value        float64
	}{
		{"cpu_seconds", "mean", s.MeanCPU},
		{"cpu_seconds", "stddev", s.StddevCPU},
		{"peak_working_set_kb", "mean", s.MeanWSS},
		{"peak_working_set_kb", "stddev", s.StddevWSS},
		{"peak_page_file_kb", "mean", s.MeanPF},
		{"peak_page_file_kb", "stddev", s.StddevPF},
	} {
		m.batchAggregates.WithLabelValues(result.RunID, v.metric, v.stat).Set(v.value)
	}
}

// NoopRecorder discards every event.
type NoopRecorder struct{}

func (NoopRecorder) RecordRun(types.RunOutcome) {}

func (NoopRecorder) RecordSamplingError() {}

func (NoopRecorder) RecordBatch(*types.BatchResult) {}
