package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/ethereum-optimism/infra/procbench/types"
)

var _ ProcessLauncher = (*execLauncher)(nil)

// ProcessLauncher starts the target executable.
type ProcessLauncher interface {
	// Launch spawns path directly, without a shell, with stdout and stderr
	// redirected to pipes. Failures to start are returned as *LaunchError.
	Launch(path string, args []string) (LiveProcess, error)
}

// LiveProcess is a started target process.
type LiveProcess interface {
	Pid() int
	HasExited() bool
	// WaitForExit blocks until the process exits or the timeout elapses and
	// reports whether it exited.
	WaitForExit(timeout time.Duration) bool
	// ExitCode and CPUTime are only meaningful once the process has exited.
	ExitCode() int
	CPUTime() time.Duration
	// QueryMemoryCounters reads the current memory counters. It fails with
	// a *SamplingError once the process has exited.
	QueryMemoryCounters(ctx context.Context) (types.MemoryCounters, error)
	Stdout() io.Reader
	Stderr() io.Reader
	// Release closes the read ends of the output pipes.
	Release() error
}

// MemoryQuery reads the memory counters of the process with the given pid.
type MemoryQuery func(ctx context.Context, pid int) (types.MemoryCounters, error)

// QueryProcessMemory reads the resident set as the working set and the
// virtual size as committed memory. On Windows gopsutil maps these to
// WorkingSetSize and PagefileUsage.
func QueryProcessMemory(ctx context.Context, pid int) (types.MemoryCounters, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return types.MemoryCounters{}, err
	}
	info, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return types.MemoryCounters{}, err
	}
	return types.MemoryCounters{
		WorkingSetBytes: info.RSS,
		PageFileBytes:   info.VMS,
	}, nil
}

type execLauncher struct {
	log         log.Logger
	memoryQuery MemoryQuery
}

// NewProcessLauncher creates a launcher backed by os/exec. A nil query
// defaults to QueryProcessMemory.
func NewProcessLauncher(logger log.Logger, query MemoryQuery) ProcessLauncher {
	if logger == nil {
		logger = log.New()
	}
	if query == nil {
		query = QueryProcessMemory
	}
	return &execLauncher{log: logger, memoryQuery: query}
}

func (l *execLauncher) Launch(path string, args []string) (LiveProcess, error) {
	if path == "" {
		return nil, &LaunchError{Path: path, Err: errors.New("executable path cannot be empty")}
	}

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, &LaunchError{Path: path, Err: fmt.Errorf("failed to create stdout pipe: %w", err)}
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeAll(stdoutR, stdoutW)
		return nil, &LaunchError{Path: path, Err: fmt.Errorf("failed to create stderr pipe: %w", err)}
	}

	// The write ends are plain files so exec does not start copy goroutines
	// and Wait never closes the read ends under the drainers.
	cmd := exec.Command(path, args...)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		closeAll(stdoutR, stdoutW, stderrR, stderrW)
		return nil, &LaunchError{Path: path, Err: err}
	}
	// The child holds its own copies now; the drainers see EOF once it exits.
	closeAll(stdoutW, stderrW)

	l.log.Debug("Launched process", "path", path, "args", args, "pid", cmd.Process.Pid)

	p := &execProcess{
		cmd:         cmd,
		stdout:      stdoutR,
		stderr:      stderrR,
		exited:      make(chan struct{}),
		memoryQuery: l.memoryQuery,
		log:         l.log,
	}
	go p.wait()
	return p, nil
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

type execProcess struct {
	cmd         *exec.Cmd
	stdout      *os.File
	stderr      *os.File
	exited      chan struct{}
	waitErr     error
	memoryQuery MemoryQuery
	log         log.Logger
}

func (p *execProcess) wait() {
	defer close(p.exited)
	p.waitErr = p.cmd.Wait()
	var exitErr *exec.ExitError
	if p.waitErr != nil && !errors.As(p.waitErr, &exitErr) {
		p.log.Warn("Failed to wait for process", "pid", p.Pid(), "err", p.waitErr)
	}
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) HasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

func (p *execProcess) WaitForExit(timeout time.Duration) bool {
	if timeout <= 0 {
		return p.HasExited()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.exited:
		return true
	case <-timer.C:
		return false
	}
}

func (p *execProcess) ExitCode() int {
	if !p.HasExited() || p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

func (p *execProcess) CPUTime() time.Duration {
	if !p.HasExited() || p.cmd.ProcessState == nil {
		return 0
	}
	return p.cmd.ProcessState.UserTime() + p.cmd.ProcessState.SystemTime()
}

func (p *execProcess) QueryMemoryCounters(ctx context.Context) (types.MemoryCounters, error) {
	if p.HasExited() {
		return types.MemoryCounters{}, &SamplingError{Pid: p.Pid(), Err: ErrProcessExited}
	}
	counters, err := p.memoryQuery(ctx, p.Pid())
	if err != nil {
		return types.MemoryCounters{}, &SamplingError{Pid: p.Pid(), Err: err}
	}
	return counters, nil
}

func (p *execProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *execProcess) Stderr() io.Reader {
	return p.stderr
}

func (p *execProcess) Release() error {
	return errors.Join(p.stdout.Close(), p.stderr.Close())
}
