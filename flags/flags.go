package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "PROCBENCH"

// ArgsUsage describes the positional arguments.
const ArgsUsage = "<run-count> <output-csv-path> <run-id> <executable-path> [args...]"

var (
	PollInterval = &cli.DurationFlag{
		Name:    "poll-interval",
		Value:   time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "POLL_INTERVAL"),
		Usage:   "Interval between memory samples of the target process",
		Action:  validatePollInterval,
	}
	ShowOutput = &cli.BoolFlag{
		Name:    "show-output",
		Value:   true,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_OUTPUT"),
		Usage:   "Print the captured standard output and standard error of every run",
	}
	StripANSI = &cli.BoolFlag{
		Name:    "strip-ansi",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STRIP_ANSI"),
		Usage:   "Remove ANSI escape sequences from printed run output",
	}
	PostgresDSN = &cli.StringFlag{
		Name:    "postgres-dsn",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "POSTGRES_DSN"),
		Usage:   "If set, batch summaries are also stored in this PostgreSQL database",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to a YAML file with defaults for the other flags (eg. 'procbench.yaml')",
	}
)

func validatePollInterval(_ *cli.Context, v time.Duration) error {
	if v <= 0 {
		return fmt.Errorf("poll-interval must be positive, got %s", v)
	}
	return nil
}

var optionalFlags = []cli.Flag{
	PollInterval,
	ShowOutput,
	StripANSI,
	PostgresDSN,
	ConfigFile,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = optionalFlags
}
