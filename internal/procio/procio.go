// Package procio runs the interpreter and filter subprocesses.
package procio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fungerunner/internal/logging"
)

var log = logging.GetLogger("procio")

// waitDelay bounds how long Wait keeps draining pipes held open by
// grandchildren after the process itself was killed.
const waitDelay = time.Second

// Result is what a finished interpreter run produced. It is returned for
// zero and non-zero exits alike.
type Result struct {
	// ExitCode is -N when the process was killed by signal N.
	ExitCode int
	// Signal is the signal that killed the process, or nil.
	Signal   os.Signal
	Stdout   []byte
	Duration time.Duration
}

type Command struct {
	Path string
	Args []string
	// Env is the complete child environment. Nil inherits the parent's.
	Env []string
	// Dir is the working directory; empty means the current one.
	Dir    string
	Stderr io.Writer
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Run executes c to completion and collects its stdout. The error return is
// reserved for failures to launch or wait on the process, including ctx
// expiring; a non-zero exit status is reported through Result.ExitCode.
func Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = c.Stderr
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	log.Debugf("exec %s", c)
	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Duration: time.Since(start)}
	if err == nil {
		log.Debugf("%s exited 0 after %s (%d bytes)", c.Path, res.Duration.Round(time.Millisecond), len(res.Stdout))
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", c.Path, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.Signal = ws.Signal()
			res.ExitCode = -int(ws.Signal())
		}
		log.Debugf("%s exited %d after %s (%d bytes)", c.Path, res.ExitCode, res.Duration.Round(time.Millisecond), len(res.Stdout))
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", c.Path, err)
}

// FilterError reports a filter that terminated with a non-zero status.
type FilterError struct {
	Path     string
	ExitCode int
	Output   []byte
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s exited with status %d, output: %q", e.Path, e.ExitCode, e.Output)
}

// Filter feeds input to the program at path and returns everything it wrote
// to stdout. Stdin is written from its own goroutine while stdout is drained,
// so neither side can stall on a full pipe buffer.
func Filter(ctx context.Context, path string, input []byte, stderr io.Writer) ([]byte, error) {
	cmd := exec.CommandContext(ctx, path)
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", path, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start filter %s: %w", path, err)
	}
	log.Debugf("filter %s: pumping %d bytes", path, len(input))

	var out bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, werr := stdin.Write(input)
		cerr := stdin.Close()
		// A filter may legitimately stop reading early.
		if werr != nil && !errors.Is(werr, syscall.EPIPE) {
			return werr
		}
		return cerr
	})
	g.Go(func() error {
		_, rerr := io.Copy(&out, stdout)
		return rerr
	})
	pumpErr := g.Wait()
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return out.Bytes(), fmt.Errorf("filter %s: %w", path, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return out.Bytes(), &FilterError{Path: path, ExitCode: exitErr.ExitCode(), Output: out.Bytes()}
	}
	if waitErr != nil {
		return out.Bytes(), fmt.Errorf("filter %s: %w", path, waitErr)
	}
	if pumpErr != nil {
		return out.Bytes(), fmt.Errorf("filter %s: %w", path, pumpErr)
	}
	return out.Bytes(), nil
}
