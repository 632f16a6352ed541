// Package logger builds the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger writing to stdout at the given level, stamping
// entries in loc.
func New(level string, loc *time.Location) *logrus.Logger {
	return NewWithWriter(os.Stdout, level, loc)
}

func NewWithWriter(w io.Writer, level string, loc *time.Location) *logrus.Logger {
	if loc == nil {
		loc = time.UTC
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&locationFormatter{
		loc: loc,
		inner: &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyTime: "ts"},
		},
	})
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps LOG_LEVEL values to logrus levels, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type locationFormatter struct {
	loc   *time.Location
	inner logrus.Formatter
}

func (f *locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(f.loc)
	return f.inner.Format(e)
}
