package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigureVerbosity(t *testing.T) {
	defer Configure(Silent, nil)

	cases := []struct {
		verbosity int
		want      []string
		absent    []string
	}{
		{Silent, nil, []string{"debug line", "info line", "notice line"}},
		{0, []string{"notice line"}, []string{"debug line", "info line"}},
		{1, []string{"notice line", "info line"}, []string{"debug line"}},
		{2, []string{"notice line", "info line", "debug line", "[fungerunner.test]"}, nil},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		Configure(tc.verbosity, &buf)
		l := GetLogger("test")
		l.Debugf("debug line")
		l.Infof("info line")
		l.Noticef("notice line")

		out := buf.String()
		for _, s := range tc.want {
			if !strings.Contains(out, s) {
				t.Errorf("verbosity %d: missing %q in:\n%s", tc.verbosity, s, out)
			}
		}
		for _, s := range tc.absent {
			if strings.Contains(out, s) {
				t.Errorf("verbosity %d: unexpected %q in:\n%s", tc.verbosity, s, out)
			}
		}
	}
}

// Lines must reach the writer as they are logged, not when the process exits.
func TestConfigureWritesImmediately(t *testing.T) {
	defer Configure(Silent, nil)

	var buf bytes.Buffer
	Configure(2, &buf)
	l := GetLogger("test")
	for i := 0; i < 3; i++ {
		l.Debugf("line %d", i)
		if got := strings.Count(buf.String(), "\n"); got != i+1 {
			t.Fatalf("after %d messages the writer holds %d lines:\n%s", i+1, got, buf.String())
		}
	}
}
