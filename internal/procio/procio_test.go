package procio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestRunCapturesNonZeroExit(t *testing.T) {
	path := writeScript(t, "interp", `printf 'partial'; exit 3`)

	res, err := Run(context.Background(), Command{Path: path, Stderr: io.Discard})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.ExitCode != 3 || res.Signal != nil {
		t.Fatalf("expected exit code 3 without signal, got %d (%v)", res.ExitCode, res.Signal)
	}
	if string(res.Stdout) != "partial" {
		t.Fatalf("expected stdout %q, got %q", "partial", res.Stdout)
	}
}

func TestRunKilledBySignal(t *testing.T) {
	path := writeScript(t, "interp", `printf 'before'; kill -KILL $$`)

	res, err := Run(context.Background(), Command{Path: path, Stderr: io.Discard})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Signal != syscall.SIGKILL {
		t.Fatalf("expected SIGKILL, got %v", res.Signal)
	}
	if res.ExitCode != -int(syscall.SIGKILL) {
		t.Fatalf("expected exit code %d, got %d", -int(syscall.SIGKILL), res.ExitCode)
	}
	if string(res.Stdout) != "before" {
		t.Fatalf("expected stdout %q, got %q", "before", res.Stdout)
	}
}

func TestRunPassesArgs(t *testing.T) {
	path := writeScript(t, "interp", `printf '%s|' "$@"`)

	res, err := Run(context.Background(), Command{Path: path, Args: []string{"-s", "98", "a b.b98"}, Stderr: io.Discard})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got, want := string(res.Stdout), "-s|98|a b.b98|"; got != want {
		t.Fatalf("expected args %q, got %q", want, got)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-interpreter")
	_, err := Run(context.Background(), Command{Path: missing, Stderr: io.Discard})
	if err == nil {
		t.Fatalf("expected launch error, got nil")
	}
	var ferr *FilterError
	if errors.As(err, &ferr) {
		t.Fatalf("launch failure must not look like a filter error: %v", err)
	}
}

func TestRunIsolatedEnv(t *testing.T) {
	path := writeScript(t, "interp", `printf '%s:%s' "$TEST_ENV" "$HOME"`)

	res, err := Run(context.Background(), Command{
		Path:   path,
		Env:    MergeEnv(nil, map[string]string{"TEST_ENV": "test"}),
		Stderr: io.Discard,
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := string(res.Stdout); got != "test:" {
		t.Fatalf("expected only TEST_ENV in environment, got %q", got)
	}
}

func TestRunTimeout(t *testing.T) {
	path := writeScript(t, "interp", `exec sleep 10`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := Run(ctx, Command{Path: path, Stderr: io.Discard})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout did not stop the process promptly (%s)", elapsed)
	}
}

func TestFilterLargePayload(t *testing.T) {
	path := writeScript(t, "filter", `exec cat`)

	input := bytes.Repeat([]byte("0123456789abcdef\n"), 1<<18)
	out, err := Filter(context.Background(), path, input, io.Discard)
	if err != nil {
		t.Fatalf("Filter error: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("filter output differs: got %d bytes, want %d", len(out), len(input))
	}
}

func TestFilterNonZeroExit(t *testing.T) {
	path := writeScript(t, "filter", `printf 'part'; exit 2`)

	out, err := Filter(context.Background(), path, []byte("payload"), io.Discard)
	var ferr *FilterError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FilterError, got %v", err)
	}
	if ferr.ExitCode != 2 {
		t.Fatalf("expected filter exit code 2, got %d", ferr.ExitCode)
	}
	if string(ferr.Output) != "part" || string(out) != "part" {
		t.Fatalf("expected partial output %q, got %q / %q", "part", ferr.Output, out)
	}
}

func TestFilterMissing(t *testing.T) {
	_, err := Filter(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, io.Discard)
	if err == nil {
		t.Fatalf("expected start error, got nil")
	}
	var ferr *FilterError
	if errors.As(err, &ferr) {
		t.Fatalf("start failure must not be a FilterError: %v", err)
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "TEST_ENV=prod", "HOME=/root"}
	got := MergeEnv(base, map[string]string{"TEST_ENV": "test", "A": "1"})
	want := []string{"PATH=/bin", "HOME=/root", "A=1", "TEST_ENV=test"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("MergeEnv mismatch (-want +got):\n%s", diff)
	}
}
