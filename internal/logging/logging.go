// Package logging builds the go-kit logger used by the command line tool.
package logging

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New returns a logfmt logger writing to w. Debug lines are dropped unless
// debug is set.
func New(w io.Writer, debug bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	allow := level.AllowInfo()
	if debug {
		allow = level.AllowDebug()
	}
	return level.NewFilter(logger, allow)
}
