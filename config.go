package procbench

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/procbench/flags"
	"github.com/ethereum-optimism/infra/procbench/runner"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

// minPositionalArgs is run-count, output-csv-path, run-id and executable-path.
const minPositionalArgs = 4

// Config holds the application configuration
type Config struct {
	RunCount       int      // Number of times the executable is run
	OutputPath     string   // CSV file the batch summary is appended to
	RunID          string   // Label stored with the summary
	ExecutablePath string   // Target executable, started without a shell
	Args           []string // Arguments forwarded to the target

	PollInterval time.Duration // Interval between memory samples
	ShowOutput   bool          // Print captured output of every run
	StripANSI    bool          // Remove escape sequences from printed output
	PostgresDSN  string        // Optional second summary sink

	MetricsConfig opmetrics.CLIConfig

	Log      log.Logger
	Out      io.Writer              // Console report destination, stdout if nil
	Launcher runner.ProcessLauncher // Process launcher, os/exec based if nil
}

// FileConfig is the optional YAML config file. Unset keys leave the flag
// defaults in place.
type FileConfig struct {
	PollInterval *time.Duration `yaml:"poll_interval"`
	ShowOutput   *bool          `yaml:"show_output"`
	StripANSI    *bool          `yaml:"strip_ansi"`
	PostgresDSN  *string        `yaml:"postgres_dsn"`
}

// LoadFileConfig reads and parses the YAML config file at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	if cfg.PollInterval != nil && *cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive, got %s", *cfg.PollInterval)
	}
	return &cfg, nil
}

// Invocation is the positional part of the command line.
type Invocation struct {
	RunCount       int
	OutputPath     string
	RunID          string
	ExecutablePath string
	Args           []string
}

// ParseInvocation parses
// <run-count> <output-csv-path> <run-id> <executable-path> [args...].
// Malformed arguments are reported as *UsageError.
func ParseInvocation(args []string) (*Invocation, error) {
	if len(args) < minPositionalArgs {
		return nil, NewUsageError("expected at least %d arguments, got %d", minPositionalArgs, len(args))
	}
	runCount, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, NewUsageError("run count %q is not a number", args[0])
	}
	if runCount < runner.MinRunCount {
		return nil, NewUsageError("run count must be at least %d, got %d", runner.MinRunCount, runCount)
	}
	for i, name := range []string{"output-csv-path", "run-id", "executable-path"} {
		if args[i+1] == "" {
			return nil, NewUsageError("%s cannot be empty", name)
		}
	}
	return &Invocation{
		RunCount:       runCount,
		OutputPath:     args[1],
		RunID:          args[2],
		ExecutablePath: args[3],
		Args:           runner.ForwardedArgs(args[minPositionalArgs:]),
	}, nil
}

// NewConfig creates a new Config from cli context. Flags that were set
// explicitly win over values from the config file.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	inv, err := ParseInvocation(ctx.Args().Slice())
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RunCount:       inv.RunCount,
		OutputPath:     inv.OutputPath,
		RunID:          inv.RunID,
		ExecutablePath: inv.ExecutablePath,
		Args:           inv.Args,
		PollInterval:   ctx.Duration(flags.PollInterval.Name),
		ShowOutput:     ctx.Bool(flags.ShowOutput.Name),
		StripANSI:      ctx.Bool(flags.StripANSI.Name),
		PostgresDSN:    ctx.String(flags.PostgresDSN.Name),
		MetricsConfig:  opmetrics.ReadCLIConfig(ctx),
		Log:            log,
	}

	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		file, err := LoadFileConfig(path)
		if err != nil {
			return nil, err
		}
		cfg.applyFile(file, ctx.IsSet)
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(file *FileConfig, isSet func(name string) bool) {
	if file.PollInterval != nil && !isSet(flags.PollInterval.Name) {
		c.PollInterval = *file.PollInterval
	}
	if file.ShowOutput != nil && !isSet(flags.ShowOutput.Name) {
		c.ShowOutput = *file.ShowOutput
	}
	if file.StripANSI != nil && !isSet(flags.StripANSI.Name) {
		c.StripANSI = *file.StripANSI
	}
	if file.PostgresDSN != nil && !isSet(flags.PostgresDSN.Name) {
		c.PostgresDSN = *file.PostgresDSN
	}
}

// Check validates the non-positional settings.
func (c *Config) Check() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if err := c.MetricsConfig.Check(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}
	return nil
}
