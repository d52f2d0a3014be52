package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"fungerunner/internal/config"
	"fungerunner/internal/diag"
	"fungerunner/internal/logging"
	"fungerunner/internal/runner"
	"fungerunner/internal/termio"
)

const (
	exitPass  = 0
	exitFail  = 1
	exitFatal = 2
)

const usage = "usage: fungerunner [--exit-code N] [--config PATH] [-v] <interpreter> <test_file> [filter]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type cliArgs struct {
	interpreter string
	testFile    string
	filter      string
	exitCode    int
	configPath  string
	verbosity   verbosity
}

// verbosity is a counting flag: -v, -v -v, or -v=N.
type verbosity int

func (v *verbosity) String() string { return strconv.Itoa(int(*v)) }

func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	if s == "true" {
		*v++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*v = verbosity(n)
	return nil
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	a, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitPass
		}
		fmt.Fprintln(stderr, "fungerunner:", err)
		fmt.Fprintln(stderr, usage)
		return exitFatal
	}
	logging.Configure(int(a.verbosity), stderr)

	styler := termio.NewStyler(stderr)
	cfg := config.Default()
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
		if err != nil {
			diag.Errorf("config: %v", err).Print(stderr, "fungerunner", styler)
			return exitFatal
		}
	}

	r := runner.New(runner.Options{
		Interpreter: a.interpreter,
		TestFile:    a.testFile,
		Filter:      a.filter,
		ExitCode:    a.exitCode,
		Config:      cfg,
		Stderr:      stderr,
		Styler:      styler,
	})
	rep, err := r.Run(ctx)
	if err != nil {
		diag.Errorf("%v", err).Print(stderr, a.testFile, styler)
		return exitFatal
	}
	if !rep.Passed {
		return exitFail
	}
	return exitPass
}

// parseArgs accepts flags anywhere among the positionals, so
// "cfunge test.b98 --exit-code 3" and "--exit-code 3 cfunge test.b98" agree.
func parseArgs(args []string, stderr io.Writer) (cliArgs, error) {
	var a cliArgs
	fs := flag.NewFlagSet("fungerunner", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}
	fs.IntVar(&a.exitCode, "exit-code", 0, "expected interpreter exit code")
	fs.StringVar(&a.configPath, "config", "", "YAML run configuration")
	fs.Var(&a.verbosity, "v", "log verbosity (repeat or -v=N)")

	// Split flags from positionals ourselves: flag.Parse stops at the first
	// positional, and only a "--" in flag position ends the flags, never
	// one given as a flag's value.
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}
		flags = append(flags, arg)
		if takesValue(fs, arg) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if err := fs.Parse(flags); err != nil {
		return a, err
	}

	switch len(positional) {
	case 2:
		a.filter = runner.NoFilter
	case 3:
		a.filter = positional[2]
	default:
		return a, fmt.Errorf("expected 2 or 3 arguments, got %d", len(positional))
	}
	a.interpreter = positional[0]
	a.testFile = positional[1]
	if a.interpreter == "" || a.testFile == "" {
		return a, errors.New("interpreter and test file must not be empty")
	}
	return a, nil
}

// takesValue reports whether arg names a flag that consumes the next
// argument as its value.
func takesValue(fs *flag.FlagSet, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if strings.Contains(name, "=") {
		return false
	}
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return false
	}
	return true
}
