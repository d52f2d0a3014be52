package diag

import (
	"fmt"
	"io"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityFailure
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityFailure:
		return "FAIL"
	default:
		return "warning"
	}
}

type Diagnostic struct {
	Severity Severity
	Message  string
}

func Errorf(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

func Failuref(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityFailure, Message: fmt.Sprintf(format, args...)}
}

func Warningf(format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}

// Styler paints severity labels; *termio.Styler satisfies it.
type Styler interface {
	Failure(text string) string
}

// Format renders d for the test at path, e.g.
// "tests/hello.b98: FAIL: Incorrect exit code 0 (expected 3)".
func (d Diagnostic) Format(path string) string {
	return d.format(path, d.Severity.String())
}

// Print writes d as one line to w. Errors and failures have their severity
// painted by st, which may be nil.
func (d Diagnostic) Print(w io.Writer, path string, st Styler) {
	sev := d.Severity.String()
	if st != nil && d.Severity != SeverityWarning {
		sev = st.Failure(sev)
	}
	_, _ = fmt.Fprintln(w, d.format(path, sev))
}

func (d Diagnostic) format(path, sev string) string {
	if path == "" {
		return fmt.Sprintf("%s: %s", sev, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", path, sev, d.Message)
}
