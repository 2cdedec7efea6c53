package huffpack

import (
	"io"
	"strings"

	"github.com/op/go-logging"
)

const logModule = "huffpack"

var log = logging.MustGetLogger(logModule)

// The library stays quiet unless the program raises the level or installs
// its own backend.
func init() {
	logging.SetLevel(logging.WARNING, logModule)
}

type dumper interface {
	Dump(w io.Writer) (int64, error)
}

// debugDump logs the Dump output of x when debug logging is enabled.
func debugDump(what string, x dumper) {
	if !log.IsEnabledFor(logging.DEBUG) {
		return
	}
	var buf strings.Builder
	_, _ = x.Dump(&buf)
	log.Debugf("%s:\n%s", what, buf.String())
}
