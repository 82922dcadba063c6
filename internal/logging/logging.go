// Package logging configures the logrus logger shared by the hp commands.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Environment variables read by New.
const (
	EnvLevel  = "HP_LOG_LEVEL"  // panic, fatal, error, warn, info, debug, trace
	EnvFormat = "HP_LOG_FORMAT" // text (default) or json
)

// Options controls logger construction.
type Options struct {
	Output  io.Writer // Defaults to os.Stderr
	Level   string    // Overrides HP_LOG_LEVEL when non-empty
	Format  string    // Overrides HP_LOG_FORMAT when non-empty
	Verbose bool      // Forces debug level
}

// New builds a logger from options and the environment.
// Unknown levels fall back to info.
func New(opts Options) *logrus.Logger {
	l := logrus.New()

	l.Out = opts.Output
	if l.Out == nil {
		l.Out = os.Stderr
	}

	format := opts.Format
	if format == "" {
		format = os.Getenv(EnvFormat)
	}
	if strings.EqualFold(format, "json") {
		l.Formatter = &logrus.JSONFormatter{}
	} else {
		l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}

	level := opts.Level
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	l.Level = logrus.InfoLevel
	if parsed, err := logrus.ParseLevel(level); err == nil && level != "" {
		l.Level = parsed
	}
	if opts.Verbose {
		l.Level = logrus.DebugLevel
	}

	return l
}

// Discard returns a logger that drops everything. Packages use it when the
// caller passes a nil logger.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

// OrDiscard returns l, or a discarding logger if l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}
