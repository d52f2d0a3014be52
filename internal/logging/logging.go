// Package logging wires commonlog's simple backend for the runner's
// packages. Importing it guarantees the backend is registered before any
// package-level logger is created.
package logging

import (
	"io"
	"os"

	"github.com/tliron/commonlog"
	"github.com/tliron/commonlog/simple"
	"github.com/tliron/kutil/util"
)

const prefix = "fungerunner."

// Silent is the commonlog verbosity that disables all output.
const Silent = -4

func init() {
	Configure(Silent, os.Stderr)
}

func GetLogger(name string) commonlog.Logger {
	return commonlog.GetLogger(prefix + name)
}

// Configure installs a fresh backend writing to w. Verbosity 0 shows notices
// and worse, 1 adds info, 2 and above add debug.
//
// Writes are unbuffered: the runner leaves through os.Exit, which never runs
// the exit hooks that flush kutil's buffered writer.
func Configure(verbosity int, w io.Writer) {
	backend := simple.NewBackend()
	backend.Buffered = false
	backend.Configure(verbosity, nil)
	if commonlog.VerbosityToMaxLevel(verbosity) != commonlog.None {
		backend.Writer = util.NewSyncedWriter(w)
	}
	commonlog.SetBackend(backend)
}
