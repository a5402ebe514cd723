package runner

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ethereum-optimism/infra/procbench/types"
)

var _ LiveProcess = (*fakeProcess)(nil)

// fakeProcess exits after a fixed number of WaitForExit calls and replays
// scripted memory readings.
type fakeProcess struct {
	pid            int
	exitAfterWaits int
	readings       []types.MemoryCounters
	failQueries    map[int]bool // 0-based query indexes that fail
	stdout, stderr io.Reader
	cpu            time.Duration
	exitCode       int

	waits    int
	queries  int
	released bool
}

func newFakeProcess(exitAfterWaits int, stdout, stderr string) *fakeProcess {
	return &fakeProcess{
		pid:            4242,
		exitAfterWaits: exitAfterWaits,
		stdout:         strings.NewReader(stdout),
		stderr:         strings.NewReader(stderr),
		cpu:            250 * time.Millisecond,
	}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) HasExited() bool { return p.waits >= p.exitAfterWaits }

func (p *fakeProcess) WaitForExit(time.Duration) bool {
	p.waits++
	return p.HasExited()
}

func (p *fakeProcess) ExitCode() int { return p.exitCode }

func (p *fakeProcess) CPUTime() time.Duration { return p.cpu }

func (p *fakeProcess) QueryMemoryCounters(context.Context) (types.MemoryCounters, error) {
	i := p.queries
	p.queries++
	if p.HasExited() {
		return types.MemoryCounters{}, &SamplingError{Pid: p.pid, Err: ErrProcessExited}
	}
	if p.failQueries[i] {
		return types.MemoryCounters{}, &SamplingError{Pid: p.pid, Err: errors.New("transient")}
	}
	if len(p.readings) == 0 {
		return types.MemoryCounters{}, nil
	}
	if i >= len(p.readings) {
		return p.readings[len(p.readings)-1], nil
	}
	return p.readings[i], nil
}

func (p *fakeProcess) Stdout() io.Reader { return p.stdout }

func (p *fakeProcess) Stderr() io.Reader { return p.stderr }

func (p *fakeProcess) Release() error {
	p.released = true
	return nil
}

var _ ProcessLauncher = (*fakeLauncher)(nil)

// fakeLauncher fails the calls listed in failOn (1-based) and otherwise
// hands out processes built by newProcess.
type fakeLauncher struct {
	mu         sync.Mutex
	calls      int
	failOn     map[int]bool
	newProcess func(call int) *fakeProcess
	launched   []*fakeProcess
}

func (l *fakeLauncher) Launch(path string, args []string) (LiveProcess, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.failOn[l.calls] {
		return nil, &LaunchError{Path: path, Err: errors.New("no such file or directory")}
	}
	var p *fakeProcess
	if l.newProcess != nil {
		p = l.newProcess(l.calls)
	} else {
		p = newFakeProcess(1, "", "")
	}
	l.launched = append(l.launched, p)
	return p, nil
}
