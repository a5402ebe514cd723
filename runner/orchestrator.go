package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/procbench/metrics"
	"github.com/ethereum-optimism/infra/procbench/stats"
	"github.com/ethereum-optimism/infra/procbench/types"
)

// OrchestratorConfig holds configuration for creating an Orchestrator
type OrchestratorConfig struct {
	Supervisor RunSupervisor
	Log        log.Logger
	Metrics    metrics.Recorder
	// OnRunStart and OnRunComplete are optional hooks called on the
	// orchestrator's goroutine around every run.
	OnRunStart    func(index, total int)
	OnRunComplete func(outcome types.RunOutcome)
}

// Orchestrator executes the runs of a batch strictly one after another and
// aggregates the successful ones.
type Orchestrator struct {
	supervisor    RunSupervisor
	log           log.Logger
	metrics       metrics.Recorder
	onRunStart    func(index, total int)
	onRunComplete func(outcome types.RunOutcome)
	tracer        trace.Tracer
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Supervisor == nil {
		return nil, fmt.Errorf("supervisor is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopRecorder{}
	}
	return &Orchestrator{
		supervisor:    cfg.Supervisor,
		log:           cfg.Log,
		metrics:       cfg.Metrics,
		onRunStart:    cfg.OnRunStart,
		onRunComplete: cfg.OnRunComplete,
		tracer:        otel.Tracer("procbench orchestrator"),
	}, nil
}

// RunBatch runs the target runCount times and summarizes the successful
// runs. A run that fails to launch is reported and skipped. When no run
// succeeds, the returned BatchResult still lists every failure and the error
// is a *stats.EmptyBatchError.
func (o *Orchestrator) RunBatch(ctx context.Context, runID string, path string, args []string, runCount int) (*types.BatchResult, error) {
	if runCount < MinRunCount {
		return nil, fmt.Errorf("run count must be at least %d, got %d", MinRunCount, runCount)
	}

	ctx, span := o.tracer.Start(ctx, fmt.Sprintf("batch %s", runID),
		trace.WithAttributes(attribute.String("run_id", runID), attribute.Int("run_count", runCount)))
	defer span.End()

	start := time.Now()
	o.log.Info("Starting batch", "run_id", runID, "path", path, "args", args, "runs", runCount)

	result := &types.BatchResult{
		RunID:    runID,
		Outcomes: make([]types.RunOutcome, 0, runCount),
	}
	series := stats.NewBatchSeries()

	for i := 1; i <= runCount; i++ {
		if o.onRunStart != nil {
			o.onRunStart(i, runCount)
		}
		o.log.Info("Starting run", "run", i, "of", runCount)

		outcome := o.supervisor.Supervise(ctx, i, path, args)
		outcome.Index = i
		result.Outcomes = append(result.Outcomes, outcome)
		o.metrics.RecordRun(outcome)

		if outcome.Succeeded() {
			series.Add(outcome.Result)
			result.Succeeded++
			o.log.Info("Run succeeded", "run", i,
				"cpu_seconds", outcome.Result.CPUSeconds,
				"peak_working_set_kb", outcome.Result.PeakWorkingSetKB,
				"peak_page_file_kb", outcome.Result.PeakPageFileKB,
				"exit_code", outcome.Result.ExitCode)
		} else {
			result.Failed++
			o.log.Warn("Run failed, continuing with next run", "run", i, "err", outcome.Err)
		}

		if o.onRunComplete != nil {
			o.onRunComplete(outcome)
		}
	}

	result.Duration = time.Since(start)
	summary, err := series.Summarize(runID, runCount)
	result.Summary = summary
	o.metrics.RecordBatch(result)
	if err != nil {
		o.log.Error("No aggregate could be computed", "run_id", runID, "failed", result.Failed)
		span.RecordError(err)
		return result, err
	}

	o.log.Info("Batch complete", "run_id", runID, "succeeded", result.Succeeded, "failed", result.Failed,
		"duration", result.Duration)
	return result, nil
}
