package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/procbench"
	"github.com/ethereum-optimism/infra/procbench/exitcodes"
	"github.com/ethereum-optimism/infra/procbench/flags"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "procbench"
	app.Usage = "Measure processor time and peak memory of an executable over repeated runs"
	app.Description = "procbench runs an executable run-count times, samples its memory while it runs " +
		"and appends the mean and standard deviation of every measurement to a CSV file"
	app.ArgsUsage = flags.ArgsUsage
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
			return
		}
		if procbench.IsUsageError(err) {
			// Malformed arguments print the usage and still exit with 0
			fmt.Fprintln(c.App.ErrWriter, err)
			_ = cli.ShowAppHelp(c)
			cli.HandleExitCoder(cli.Exit("", exitcodes.Success))
			return
		}
		if err != nil {
			cli.HandleExitCoder(cli.Exit(err.Error(), exitCodeFor(err)))
		}
	}

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

// exitCodeFor maps an error returned by the application to the process exit
// code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case procbench.IsUsageError(err):
		return exitcodes.Success
	case procbench.IsEmptyBatchError(err):
		return exitcodes.EmptyBatch
	default:
		return exitcodes.RuntimeErr
	}
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := procbench.NewConfig(ctx, log)
	if err != nil {
		if procbench.IsUsageError(err) {
			return nil, err
		}
		// Wrap in RuntimeError to signal this should exit with code 2
		return nil, procbench.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	cfg.Log.Debug("Config", "config", cfg)

	bench, err := procbench.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, procbench.NewRuntimeError(fmt.Errorf("failed to create procbench: %w", err))
	}
	return bench, nil
}
