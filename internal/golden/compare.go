// Package golden compares actual bytes against expectation files.
package golden

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"fungerunner/internal/diag"
	"fungerunner/internal/logging"
	"fungerunner/internal/procio"
	"fungerunner/internal/termio"
)

var log = logging.GetLogger("golden")

// DefaultActualPath receives the compared bytes of the last mismatch.
const DefaultActualPath = "actual"

type Comparer struct {
	// Filter is the program actual bytes pass through before comparison.
	// Empty means compare raw bytes.
	Filter string
	// ActualPath is overwritten with the compared bytes on every mismatch.
	ActualPath string
	// Out is the diagnostic channel.
	Out    io.Writer
	Styler *termio.Styler
	// FilterStderr receives the filter's stderr; nil discards it.
	FilterStderr io.Writer
}

// Compare reports whether actual, after filtering, equals expected. On a
// mismatch both sides are printed under label and the compared bytes are
// saved to ActualPath. A filter that fails is returned as an error, never as
// a mismatch.
func (c *Comparer) Compare(ctx context.Context, label string, expected, actual []byte) (bool, error) {
	got := actual
	if c.Filter != "" {
		filtered, err := procio.Filter(ctx, c.Filter, actual, c.FilterStderr)
		if err != nil {
			return false, fmt.Errorf("%s: %w", label, err)
		}
		log.Debugf("%s: filter turned %d bytes into %d", label, len(actual), len(filtered))
		got = filtered
	}
	if bytes.Equal(expected, got) {
		log.Debugf("%s: match (%d bytes)", label, len(got))
		return true, nil
	}

	c.report(label, expected, got)
	path := c.ActualPath
	if path == "" {
		path = DefaultActualPath
	}
	if err := os.WriteFile(path, got, 0o644); err != nil {
		diag.Warningf("could not save actual %s: %v", label, err).Print(c.out(), "", c.Styler)
	}
	return false, nil
}

func (c *Comparer) report(label string, expected, got []byte) {
	w := c.out()
	st := c.Styler
	if st == nil {
		st = termio.Plain()
	}
	fmt.Fprintln(w, st.Expected("Expected "+label+":"))
	fmt.Fprintf(w, "%q\n", expected)
	fmt.Fprintln(w, st.Actual("Actual "+label+":"))
	fmt.Fprintf(w, "%q\n", got)
	if d, ok := lineDiff(expected, got); ok {
		fmt.Fprintln(w, "Diff "+label+" (-expected +actual):")
		fmt.Fprint(w, d)
	}
}

func (c *Comparer) out() io.Writer {
	if c.Out == nil {
		return os.Stderr
	}
	return c.Out
}
