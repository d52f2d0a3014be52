// Package runner runs one Funge test program against its golden files.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"fungerunner/internal/config"
	"fungerunner/internal/diag"
	"fungerunner/internal/dialect"
	"fungerunner/internal/golden"
	"fungerunner/internal/logging"
	"fungerunner/internal/procio"
	"fungerunner/internal/termio"
)

var log = logging.GetLogger("runner")

// The interpreter always sees TEST_ENV=test.
const (
	MarkerEnv   = "TEST_ENV"
	MarkerValue = "test"
)

// NoFilter is the positional placeholder for "compare raw output".
const NoFilter = "none"

const outputLabel = "Output"

type Options struct {
	Interpreter string
	TestFile    string
	// Filter is a program every compared payload passes through. Empty or
	// NoFilter disables filtering.
	Filter string
	// ExitCode is the status the interpreter must exit with.
	ExitCode int
	// Dir is the interpreter's working directory, where the artifact and
	// the actual file live. Empty means the current directory.
	Dir    string
	Config *config.Config
	// Stderr is the diagnostic channel; the interpreter's and filter's
	// stderr are forwarded to it too.
	Stderr io.Writer
	Styler *termio.Styler
}

// Report describes a completed run. Checks that did not apply stay false.
type Report struct {
	Passed           bool
	InterpreterExit  int
	ExitCodeOK       bool
	OutputOK         bool
	ArtifactCompared bool
	ArtifactOK       bool
	Duration         time.Duration
}

type Runner struct {
	opts     Options
	cfg      *config.Config
	comparer *golden.Comparer
}

func New(opts Options) *Runner {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	filter := opts.Filter
	if filter == NoFilter {
		filter = ""
	}
	return &Runner{
		opts: opts,
		cfg:  cfg,
		comparer: &golden.Comparer{
			Filter:       filter,
			ActualPath:   inDir(opts.Dir, cfg.ActualFile),
			Out:          opts.Stderr,
			Styler:       opts.Styler,
			FilterStderr: opts.Stderr,
		},
	}
}

// Run executes the test. A returned error means the suite itself is broken
// (unknown extension, missing expectation, failed filter, launch failure)
// and the Report is incomplete. Otherwise Report.Passed is the verdict; every
// check runs even after an earlier one failed.
func (r *Runner) Run(ctx context.Context) (rep Report, err error) {
	test := r.opts.TestFile
	d, err := dialect.Lookup(test)
	if err != nil {
		return rep, err
	}

	artifact := inDir(r.opts.Dir, r.cfg.Artifact)
	defer r.cleanup(artifact)

	runCtx, cancel := r.withTimeout(ctx)
	res, err := procio.Run(runCtx, procio.Command{
		Path:   r.opts.Interpreter,
		Args:   d.Args(test),
		Env:    r.environ(),
		Dir:    r.opts.Dir,
		Stderr: r.opts.Stderr,
	})
	cancel()
	if err != nil {
		return rep, fmt.Errorf("interpreter: %w", err)
	}
	rep.InterpreterExit = res.ExitCode
	rep.Duration = res.Duration

	rep.ExitCodeOK = res.ExitCode == r.opts.ExitCode
	if !rep.ExitCodeOK {
		if res.Signal != nil {
			diag.Failuref("Incorrect exit code %d (signal: %v, expected %d)", res.ExitCode, res.Signal, r.opts.ExitCode).Print(r.opts.Stderr, test, r.opts.Styler)
		} else {
			diag.Failuref("Incorrect exit code %d (expected %d)", res.ExitCode, r.opts.ExitCode).Print(r.opts.Stderr, test, r.opts.Styler)
		}
	}

	expected, err := os.ReadFile(dialect.ExpectedPath(test))
	if err != nil {
		return rep, fmt.Errorf("expected output: %w", err)
	}
	rep.OutputOK, err = r.compare(ctx, outputLabel, expected, res.Stdout)
	if err != nil {
		return rep, err
	}

	rep.ArtifactCompared, rep.ArtifactOK, err = r.compareArtifact(ctx, artifact)
	if err != nil {
		return rep, err
	}

	rep.Passed = rep.ExitCodeOK && rep.OutputOK && (!rep.ArtifactCompared || rep.ArtifactOK)
	log.Infof("%s: passed=%t exit=%d output=%t artifact=%t/%t", test, rep.Passed, rep.InterpreterExit, rep.OutputOK, rep.ArtifactCompared, rep.ArtifactOK)
	return rep, nil
}

func (r *Runner) compareArtifact(ctx context.Context, artifact string) (compared, ok bool, err error) {
	actual, err := os.ReadFile(artifact)
	if errors.Is(err, fs.ErrNotExist) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("artifact: %w", err)
	}
	expected, err := os.ReadFile(dialect.ArtifactExpectedPath(r.opts.TestFile, r.cfg.ArtifactSuffix))
	if err != nil {
		return true, false, fmt.Errorf("expected %s: %w", r.artifactLabel(), err)
	}
	ok, err = r.compare(ctx, r.artifactLabel(), expected, actual)
	return true, ok, err
}

func (r *Runner) compare(ctx context.Context, label string, expected, actual []byte) (bool, error) {
	cmpCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.comparer.Compare(cmpCtx, label, expected, actual)
}

func (r *Runner) artifactLabel() string {
	return r.cfg.ArtifactSuffix + " image"
}

// cleanup removes the artifact. Absence is the normal case; other failures
// are only reported.
func (r *Runner) cleanup(artifact string) {
	err := os.Remove(artifact)
	if err == nil {
		log.Debugf("removed %s", artifact)
		return
	}
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	diag.Warningf("cleanup: %v", err).Print(r.opts.Stderr, r.opts.TestFile, r.opts.Styler)
}

func (r *Runner) environ() []string {
	set := make(map[string]string, len(r.cfg.Env)+1)
	for k, v := range r.cfg.Env {
		set[k] = v
	}
	set[MarkerEnv] = MarkerValue
	var base []string
	if !r.cfg.IsolateEnv {
		base = os.Environ()
	}
	return procio.MergeEnv(base, set)
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(r.cfg.Timeout))
}

func inDir(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
