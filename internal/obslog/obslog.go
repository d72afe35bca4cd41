// Package obslog is the structured-logging seam the rest of the tree logs
// through. It wraps github.com/joeycumines/logiface with the
// github.com/joeycumines/stumpy JSON backend behind a narrow helper, so
// the logging library's full API doesn't get sprayed across every file
// that needs to write a log line.
package obslog

import (
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the event logger used throughout this server.
type Logger = *logiface.Logger[*stumpy.Event]

var root = stumpy.L.New(
	stumpy.L.WithStumpy(),
	stumpy.L.WithWriter(logiface.WriterFunc[*stumpy.Event](func(e *stumpy.Event) error {
		_, err := os.Stderr.Write(append(e.Bytes(), '\n'))
		return err
	})),
)

// New returns the process-wide root logger. component is not attached to
// the entries it produces; Info and Err are the helpers that tag each
// entry with a component.
func New(component string) Logger {
	return root
}

// Info starts an info-level entry tagged with component.
func Info(component string) *logiface.Builder[*stumpy.Event] {
	return root.Info().Str("component", component)
}

// Err starts an error-level entry tagged with component.
func Err(component string, err error) *logiface.Builder[*stumpy.Event] {
	return root.Err().Str("component", component).Err(err)
}
