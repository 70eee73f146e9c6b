// Package logger holds the process-wide structured logger. Output goes to a
// file because the terminal belongs to the TUI.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the global instance. Until Init runs it discards everything.
var Logger = newLogger()

var service = "scheduler-tui"

// Options configures Init.
type Options struct {
	Service string
	// Level is a logrus level name; LOG_LEVEL overrides it.
	Level string
	// Path is the log file. Empty means stderr.
	Path string
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(formatter())
	return l
}

func formatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	}
}

// Init configures the global logger in place, so entries created earlier
// with For follow the new settings. The returned closer releases the log
// file.
func Init(opts Options) (io.Closer, error) {
	if opts.Service != "" {
		service = opts.Service
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closer = f, f
	}

	Logger.SetOutput(out)
	Logger.SetFormatter(formatter())
	Logger.SetLevel(ParseLevel(opts.Level))
	return closer, nil
}

// ParseLevel resolves the effective level: LOG_LEVEL wins over name, and
// anything unparseable falls back to info.
func ParseLevel(name string) logrus.Level {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		name = env
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(name))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// For returns an entry tagged with the service and component names.
func For(component string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"service":   service,
		"component": component,
	})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
