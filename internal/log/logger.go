// Package log provides the logging facade for the culld application. It wraps
// logrus behind a small field-based API so call sites stay stable if the
// backend changes.
package log

import (
	"fmt"
	"io"
	"os"

	"culld/internal/errors"

	"github.com/sirupsen/logrus"
)

var logger = NewLogger()

// Field is a single structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a structured logging field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger wraps a logrus logger plus the optional log file it owns
type Logger struct {
	lr   *logrus.Logger
	file *os.File
}

// Option configures a Logger
type Option func(*Logger)

// WithOutput sends log output to w instead of stdout
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.lr.SetOutput(w)
	}
}

// WithJSON switches the output format to JSON
func WithJSON() Option {
	return func(l *Logger) {
		l.lr.SetFormatter(&logrus.JSONFormatter{})
	}
}

// WithFile duplicates log output to the given file in addition to stdout
func WithFile(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: cannot open %s: %v\n", path, err)
			return
		}
		l.file = f
		l.lr.SetOutput(io.MultiWriter(os.Stdout, f))
	}
}

// WithLevel sets the minimum level by name (debug, info, warn, error)
func WithLevel(level string) Option {
	return func(l *Logger) {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			parsed = logrus.InfoLevel
		}
		l.lr.SetLevel(parsed)
	}
}

// NewLogger creates a logger writing text output to stdout at info level
func NewLogger(opts ...Option) *Logger {
	lr := logrus.New()
	lr.SetOutput(os.Stdout)
	lr.SetLevel(logrus.InfoLevel)
	lr.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l := &Logger{lr: lr}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Configure replaces the package-level logger
func Configure(opts ...Option) {
	if logger.file != nil {
		logger.file.Close()
	}
	logger = NewLogger(opts...)
}

// Close releases the log file, if any
func Close() error {
	if logger.file != nil {
		return logger.file.Close()
	}
	return nil
}

// SetDebug toggles debug-level output on the package-level logger
func SetDebug(debug bool) {
	if debug {
		logger.lr.SetLevel(logrus.DebugLevel)
	} else {
		logger.lr.SetLevel(logrus.InfoLevel)
	}
}

// Entry is a log entry carrying structured fields
type Entry struct {
	e *logrus.Entry
}

func (en *Entry) Debug(args ...interface{})                 { en.e.Debug(args...) }
func (en *Entry) Debugf(format string, args ...interface{}) { en.e.Debugf(format, args...) }
func (en *Entry) Info(args ...interface{})                  { en.e.Info(args...) }
func (en *Entry) Infof(format string, args ...interface{})  { en.e.Infof(format, args...) }
func (en *Entry) Warn(args ...interface{})                  { en.e.Warn(args...) }
func (en *Entry) Warnf(format string, args ...interface{})  { en.e.Warnf(format, args...) }
func (en *Entry) Error(args ...interface{})                 { en.e.Error(args...) }
func (en *Entry) Errorf(format string, args ...interface{}) { en.e.Errorf(format, args...) }

// With attaches more fields to the entry
func (en *Entry) With(fields ...Field) *Entry {
	return &Entry{e: en.e.WithFields(toLogrusFields(fields))}
}

func toLogrusFields(fields []Field) logrus.Fields {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return lf
}

// With creates an entry carrying the given fields
func (l *Logger) With(fields ...Field) *Entry {
	return &Entry{e: l.lr.WithFields(toLogrusFields(fields))}
}

func (l *Logger) Debug(args ...interface{})                 { l.lr.Debug(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.lr.Debugf(format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.lr.Info(args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.lr.Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.lr.Warn(args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.lr.Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.lr.Error(args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.lr.Errorf(format, args...) }

// LogWithFields creates an entry on the package-level logger
func LogWithFields(fields ...Field) *Entry {
	return logger.With(fields...)
}

// LogWithError creates an entry annotated with the error message, its kind,
// and the file path when the error carries one
func LogWithError(err error) *Entry {
	if err == nil {
		return logger.With(F("error", "<nil>"))
	}
	fields := []Field{
		F("error", err.Error()),
		F("error_kind", int(errors.KindOf(err))),
	}
	if path := errors.PathOf(err); path != "" {
		fields = append(fields, F("path", path))
	}
	return logger.With(fields...)
}

// LogError logs an error with a message at error level
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}

func Debug(args ...interface{})                 { logger.Debug(args...) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
func Info(args ...interface{})                  { logger.Info(args...) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warn(args ...interface{})                  { logger.Warn(args...) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(args ...interface{})                 { logger.Error(args...) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
