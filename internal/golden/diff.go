package golden

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// maxDiffBytes keeps the line diff readable; larger payloads only get the
// quoted dumps.
const maxDiffBytes = 64 << 10

// lineDiff renders a line-oriented diff of two texts. It declines binary or
// oversized input.
func lineDiff(want, got []byte) (string, bool) {
	if len(want) > maxDiffBytes || len(got) > maxDiffBytes {
		return "", false
	}
	if !utf8.Valid(want) || !utf8.Valid(got) {
		return "", false
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(want), string(got))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n\\ no newline at end\n")
			}
		}
	}
	return sb.String(), true
}
