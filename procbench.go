package procbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethereum-optimism/infra/procbench/metrics"
	"github.com/ethereum-optimism/infra/procbench/reporting"
	"github.com/ethereum-optimism/infra/procbench/runner"
	"github.com/ethereum-optimism/infra/procbench/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/httputil"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

var _ cliapp.Lifecycle = (*Bench)(nil)

// Bench runs one batch of the target executable, reports every run and
// appends the batch summary to the configured sinks.
type Bench struct {
	config       *Config
	version      string
	orchestrator *runner.Orchestrator
	console      *reporting.Console
	sinks        []reporting.SummarySink
	postgres     *reporting.PostgresSink

	registry      *prometheus.Registry
	metricsServer *httputil.HTTPServer

	result  *types.BatchResult
	stopped atomic.Bool

	shutdownCallback func(error)
}

// New wires the launcher, supervisor, orchestrator and sinks for config.
// shutdownCallback is called once a successful batch has been reported.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Bench, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		config.Log = log.New()
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}

	config.Log.Debug("Creating bench with config",
		"runCount", config.RunCount,
		"outputPath", config.OutputPath,
		"runID", config.RunID,
		"executable", config.ExecutablePath,
		"args", config.Args,
		"pollInterval", config.PollInterval)

	registry := opmetrics.NewRegistry()
	m := metrics.New(registry)

	launcher := config.Launcher
	if launcher == nil {
		launcher = runner.NewProcessLauncher(config.Log.New("component", "launcher"), runner.QueryProcessMemory)
	}
	supervisor, err := runner.NewSupervisor(runner.SupervisorConfig{
		Launcher:     launcher,
		PollInterval: config.PollInterval,
		Log:          config.Log.New("component", "supervisor"),
		Metrics:      m,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create supervisor: %w", err)
	}

	console := reporting.NewConsole(config.Out, config.ShowOutput, config.StripANSI)
	orchestrator, err := runner.NewOrchestrator(runner.OrchestratorConfig{
		Supervisor:    supervisor,
		Log:           config.Log.New("component", "orchestrator"),
		Metrics:       m,
		OnRunStart:    console.RunStarted,
		OnRunComplete: console.RunCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	b := &Bench{
		config:           config,
		version:          version,
		orchestrator:     orchestrator,
		console:          console,
		sinks:            []reporting.SummarySink{reporting.NewCSVWriter(config.OutputPath)},
		registry:         registry,
		shutdownCallback: shutdownCallback,
	}

	if config.PostgresDSN != "" {
		pg, err := reporting.NewPostgresSink(ctx, config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres sink: %w", err)
		}
		b.postgres = pg
		b.sinks = append(b.sinks, pg)
	}
	return b, nil
}

// Start runs the batch and persists its summary.
// Start implements the cliapp.Lifecycle interface.
func (b *Bench) Start(ctx context.Context) error {
	if err := b.initMetricsServer(); err != nil {
		return NewRuntimeError(err)
	}

	b.config.Log.Info("Starting procbench", "version", b.version, "run_id", b.config.RunID, "runs", b.config.RunCount)
	result, err := b.orchestrator.RunBatch(ctx, b.config.RunID, b.config.ExecutablePath, b.config.Args, b.config.RunCount)
	if result != nil {
		b.result = result
		b.console.BatchCompleted(result)
	}
	if err != nil {
		if IsEmptyBatchError(err) {
			return err
		}
		return NewRuntimeError(err)
	}

	for _, sink := range b.sinks {
		if err := sink.AppendSummary(ctx, result.Summary); err != nil {
			b.config.Log.Error("Failed to persist summary", "sink", sink.Name(), "err", err)
			return NewRuntimeError(fmt.Errorf("failed to persist summary to %s: %w", sink.Name(), err))
		}
		b.config.Log.Info("Summary persisted", "sink", sink.Name(), "run_id", result.Summary.RunID)
	}

	go func() {
		b.shutdownCallback(nil)
	}()
	return nil
}

func (b *Bench) initMetricsServer() error {
	cfg := b.config.MetricsConfig
	if !cfg.Enabled {
		return nil
	}
	b.config.Log.Info("Starting metrics server", "addr", cfg.ListenAddr, "port", cfg.ListenPort)
	server, err := opmetrics.StartServer(b.registry, cfg.ListenAddr, cfg.ListenPort)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	b.config.Log.Info("Started metrics server", "endpoint", server.Addr())
	b.metricsServer = server
	return nil
}

// Stop releases the metrics server and the database pool.
// Stop implements the cliapp.Lifecycle interface.
func (b *Bench) Stop(ctx context.Context) error {
	if b.stopped.Swap(true) {
		return nil
	}
	var result error
	if b.metricsServer != nil {
		if err := b.metricsServer.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	if b.postgres != nil {
		b.postgres.Close()
	}
	b.config.Log.Info("procbench stopped")
	return result
}

// Stopped implements the cliapp.Lifecycle interface.
func (b *Bench) Stopped() bool {
	return b.stopped.Load()
}

// Result returns the result of the batch once Start has run.
func (b *Bench) Result() *types.BatchResult {
	return b.result
}

// Registry exposes the prometheus registry the batch metrics are recorded in.
func (b *Bench) Registry() *prometheus.Registry {
	return b.registry
}
