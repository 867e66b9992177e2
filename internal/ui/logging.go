package ui

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. debug and trace force their level
// over the configured one; format is "text" or "json".
func NewLogger(out io.Writer, level, format string, debug, trace bool) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)

	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	parsed := logrus.InfoLevel
	if level != "" {
		var err error
		if parsed, err = logrus.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	switch {
	case trace:
		parsed = logrus.TraceLevel
	case debug && parsed < logrus.DebugLevel:
		parsed = logrus.DebugLevel
	}
	l.SetLevel(parsed)

	return l, nil
}

// DiscardLogger is the logger used when none is injected.
func DiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
