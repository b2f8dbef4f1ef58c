// Package rpclog provides the error-reporting callback NanoRPC hands to
// its client and server components. There is no package-level logger to
// mutate from afar — callers get a Handler back and pass it in explicitly,
// per the "no hidden global" note in spec §9.
package rpclog

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
)

// Handler receives a best-effort diagnostic: a retry notice, a dropped
// connection, a handler panic recovered at dispatch. It must not block or
// panic itself.
type Handler func(error)

var stderrFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.6s} nanorpc/%{module} ▶ %{message}`,
)

// New returns a Handler backed by an op/go-logging logger named module,
// writing to stderr at NOTICE level and above.
func New(module string) Handler {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, stderrFormat)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(logging.NOTICE, module)

	log := logging.MustGetLogger(module)
	log.SetBackend(leveled)

	return func(err error) {
		if err == nil {
			return
		}
		log.Notice(err)
	}
}

var defaultHandler Handler

// Default returns the package's fallback Handler, lazily constructed on
// first use under the module name "nanorpc".
func Default() Handler {
	if defaultHandler == nil {
		defaultHandler = New("nanorpc")
	}
	return defaultHandler
}

// Discard is a Handler that drops every error; useful in tests that expect
// transient failures and don't want them on stderr.
func Discard(error) {}

// Recovered turns a recovered panic value into an error, for callers that
// wrap handler invocation in a defer/recover and want to funnel the result
// through a Handler alongside ordinary errors.
func Recovered(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return fmt.Errorf("recovered panic: %w", err)
	}
	return fmt.Errorf("recovered panic: %v", v)
}
