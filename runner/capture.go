package runner

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sourcegraph/conc"
)

// OutputCapture drains both output streams of a process concurrently. Each
// stream is read by its own goroutine into a private buffer, and each
// goroutine closes its done channel exactly once when it reaches the end of
// its stream.
type OutputCapture struct {
	stdout *streamDrain
	stderr *streamDrain
	wg     conc.WaitGroup
}

type streamDrain struct {
	name string
	log  log.Logger
	buf  strings.Builder
	err  error
	done chan struct{}
}

// StartCapture starts draining stdout and stderr.
func StartCapture(logger log.Logger, stdout, stderr io.Reader) *OutputCapture {
	if logger == nil {
		logger = log.New()
	}
	c := &OutputCapture{
		stdout: newStreamDrain("stdout", logger),
		stderr: newStreamDrain("stderr", logger),
	}
	c.wg.Go(func() { c.stdout.drain(stdout) })
	c.wg.Go(func() { c.stderr.drain(stderr) })
	return c
}

func newStreamDrain(name string, logger log.Logger) *streamDrain {
	return &streamDrain{
		name: name,
		log:  logger,
		done: make(chan struct{}),
	}
}

// drain appends every line to the buffer, newline-terminated, in arrival
// order. A read error other than EOF ends the stream early.
func (d *streamDrain) drain(r io.Reader) {
	defer close(d.done)
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			d.buf.WriteString(line)
			d.buf.WriteByte('\n')
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.err = err
				d.log.Warn("Stopped reading output stream", "stream", d.name, "err", err)
			}
			return
		}
	}
}

// StdoutDone is closed when stdout reached its end.
func (c *OutputCapture) StdoutDone() <-chan struct{} {
	return c.stdout.done
}

// StderrDone is closed when stderr reached its end.
func (c *OutputCapture) StderrDone() <-chan struct{} {
	return c.stderr.done
}

// Done reports, without blocking, whether both streams have ended.
func (c *OutputCapture) Done() bool {
	return isClosed(c.stdout.done) && isClosed(c.stderr.done)
}

// WaitDone waits up to timeout for both streams to end and reports whether
// they have. A non-positive timeout makes it a non-blocking check.
func (c *OutputCapture) WaitDone(timeout time.Duration) bool {
	if timeout <= 0 {
		return c.Done()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for _, done := range []chan struct{}{c.stdout.done, c.stderr.done} {
		select {
		case <-done:
		case <-timer.C:
			return c.Done()
		}
	}
	return true
}

// Join waits for both drain goroutines to return and re-raises a panic from
// either of them.
func (c *OutputCapture) Join() {
	c.wg.Wait()
}

// Stdout returns the captured standard output. It blocks until stdout ended.
func (c *OutputCapture) Stdout() string {
	<-c.stdout.done
	return c.stdout.buf.String()
}

// Stderr returns the captured standard error. It blocks until stderr ended.
func (c *OutputCapture) Stderr() string {
	<-c.stderr.done
	return c.stderr.buf.String()
}

// Err returns the first read error of either stream, if any. It is only
// meaningful after both streams ended.
func (c *OutputCapture) Err() error {
	return errors.Join(c.stdout.err, c.stderr.err)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
