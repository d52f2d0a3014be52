// Package termio styles the runner's error channel when it is a terminal.
package termio

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

type fder interface {
	Fd() uintptr
}

// IsTerminal reports whether w is backed by a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(fder)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Styler colors labels. On anything but a color terminal it returns its input
// unchanged, so redirected output stays byte-clean.
type Styler struct {
	out   *termenv.Output
	color bool
}

func NewStyler(w io.Writer) *Styler {
	color := IsTerminal(w) && os.Getenv("NO_COLOR") == ""
	if !color {
		return &Styler{out: termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))}
	}
	out := termenv.NewOutput(w)
	return &Styler{out: out, color: out.Profile != termenv.Ascii}
}

// Plain returns a Styler that never emits escape sequences.
func Plain() *Styler {
	return &Styler{}
}

func (s *Styler) Color() bool { return s != nil && s.color }

func (s *Styler) Expected(text string) string { return s.paint(text, "2", false) }

func (s *Styler) Actual(text string) string { return s.paint(text, "1", false) }

func (s *Styler) Failure(text string) string { return s.paint(text, "1", true) }

func (s *Styler) paint(text, color string, bold bool) string {
	if !s.Color() {
		return text
	}
	st := s.out.String(text).Foreground(s.out.Color(color))
	if bold {
		st = st.Bold()
	}
	return st.String()
}
