// Package dialect maps Funge test file extensions to the standard selector
// passed to the interpreter with -s.
package dialect

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

type Dialect string

const (
	Befunge93  Dialect = "93"
	Befunge98  Dialect = "98"
	Befunge109 Dialect = "109"
)

const expectedSuffix = ".expected"

var ErrUnknownExtension = errors.New("unknown test file extension")

var byExtension = map[string]Dialect{
	"b109": Befunge109,
	"b93":  Befunge93,
	"b98":  Befunge98,
	"bf":   Befunge93,
}

// Lookup returns the dialect selected by the extension of path.
func Lookup(path string) (Dialect, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	d, ok := byExtension[ext]
	if !ok {
		return "", fmt.Errorf("%w %q (known: %s)", ErrUnknownExtension, ext, strings.Join(Extensions(), ", "))
	}
	return d, nil
}

// Extensions lists the recognized extensions in sorted order.
func Extensions() []string {
	out := make([]string, 0, len(byExtension))
	for ext := range byExtension {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Base strips the final extension from path.
func Base(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// ExpectedPath is the golden output file for a test.
func ExpectedPath(testPath string) string {
	return Base(testPath) + expectedSuffix
}

// ArtifactExpectedPath is the golden file for a named side artifact, e.g.
// tests/turtle.TURT.expected for tests/turtle.b98 and suffix TURT.
func ArtifactExpectedPath(testPath, suffix string) string {
	return Base(testPath) + "." + suffix + expectedSuffix
}

// Args builds the interpreter argument list for a test.
func (d Dialect) Args(testPath string) []string {
	return []string{"-s", string(d), testPath}
}
