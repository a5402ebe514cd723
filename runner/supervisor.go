package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/procbench/metrics"
	"github.com/ethereum-optimism/infra/procbench/types"
)

var _ RunSupervisor = (*Supervisor)(nil)

// RunSupervisor performs one monitored run.
type RunSupervisor interface {
	// Supervise launches the target and monitors it until it exited and both
	// output streams ended. Launch failures are returned as a failed outcome.
	Supervise(ctx context.Context, index int, path string, args []string) types.RunOutcome
}

// SupervisorConfig holds configuration for creating a Supervisor
type SupervisorConfig struct {
	Launcher     ProcessLauncher
	PollInterval time.Duration
	Log          log.Logger
	Metrics      metrics.Recorder
}

// Supervisor composes the launcher, the output capture and the resource
// sampler into one monitored run.
type Supervisor struct {
	launcher     ProcessLauncher
	pollInterval time.Duration
	log          log.Logger
	metrics      metrics.Recorder
	tracer       trace.Tracer
}

// NewSupervisor creates a new Supervisor
func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	if cfg.Launcher == nil {
		return nil, fmt.Errorf("launcher is required")
	}
	if cfg.PollInterval < 0 {
		return nil, fmt.Errorf("poll interval cannot be negative: %s", cfg.PollInterval)
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoopRecorder{}
	}
	return &Supervisor{
		launcher:     cfg.Launcher,
		pollInterval: cfg.PollInterval,
		log:          cfg.Log,
		metrics:      cfg.Metrics,
		tracer:       otel.Tracer("procbench supervisor"),
	}, nil
}

func (s *Supervisor) Supervise(ctx context.Context, index int, path string, args []string) types.RunOutcome {
	attemptID := uuid.New().String()
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("run %d", index),
		trace.WithAttributes(attribute.String("attempt_id", attemptID), attribute.String("path", path)))
	defer span.End()

	logger := s.log.New("run", index, "attempt_id", attemptID)
	start := time.Now()

	proc, err := s.launcher.Launch(path, args)
	if err != nil {
		if !IsLaunchError(err) {
			err = &LaunchError{Path: path, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "launch failed")
		return types.Failure(index, err)
	}
	defer func() {
		if err := proc.Release(); err != nil {
			logger.Debug("Failed to release output pipes", "err", err)
		}
	}()
	logger.Debug("Monitoring process", "pid", proc.Pid())

	capture := StartCapture(logger, proc.Stdout(), proc.Stderr())
	sampler := NewResourceSampler(proc, logger, s.metrics)

	s.monitor(ctx, proc, capture, sampler)
	capture.Join()
	if err := capture.Err(); err != nil {
		logger.Warn("Output capture incomplete", "err", err)
	}

	peaks := sampler.Peaks()
	taken, skipped := sampler.Samples()
	result := &types.RunResult{
		CPUSeconds:       proc.CPUTime().Seconds(),
		PeakWorkingSetKB: peaks.WorkingSetKB,
		PeakPageFileKB:   peaks.PageFileKB,
		Stdout:           capture.Stdout(),
		Stderr:           capture.Stderr(),
		ExitCode:         proc.ExitCode(),
		Duration:         time.Since(start),
		AttemptID:        attemptID,
	}
	logger.Debug("Run complete", "exit_code", result.ExitCode, "samples", taken, "skipped_samples", skipped,
		"duration", result.Duration)
	span.SetAttributes(
		attribute.Float64("cpu_seconds", result.CPUSeconds),
		attribute.Float64("peak_working_set_kb", result.PeakWorkingSetKB),
		attribute.Float64("peak_page_file_kb", result.PeakPageFileKB),
		attribute.Int("exit_code", result.ExitCode),
	)
	return types.Success(index, result)
}

// monitor samples the process once per poll interval until the process has
// exited and both output streams have ended.
func (s *Supervisor) monitor(ctx context.Context, proc LiveProcess, capture *OutputCapture, sampler *ResourceSampler) {
	for {
		sampler.SampleOnce(ctx)
		if !proc.WaitForExit(s.pollInterval) {
			continue
		}
		// a grandchild may still hold the pipes open
		if capture.WaitDone(s.pollInterval) {
			return
		}
	}
}
