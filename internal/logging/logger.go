package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	// LogLevelQuiet suppresses all output except errors
	LogLevelQuiet LogLevel = "quiet"
	// LogLevelNormal shows standard operational messages
	LogLevelNormal LogLevel = "normal"
	// LogLevelVerbose shows detailed operational information
	LogLevelVerbose LogLevel = "verbose"
	// LogLevelDebug shows all debug information
	LogLevelDebug LogLevel = "debug"
)

// ParseLogLevel maps a user supplied level name to a LogLevel.
// Unknown names resolve to LogLevelNormal.
func ParseLogLevel(name string) LogLevel {
	switch LogLevel(name) {
	case LogLevelQuiet, LogLevelNormal, LogLevelVerbose, LogLevelDebug:
		return LogLevel(name)
	}
	switch name {
	case "error":
		return LogLevelQuiet
	case "info":
		return LogLevelNormal
	case "trace":
		return LogLevelDebug
	}
	return LogLevelNormal
}

// Logger provides structured logging capabilities
type Logger struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// Config holds logger configuration
type Config struct {
	Level   LogLevel
	Output  io.Writer
	Format  string // "text" or "json"
	LogFile string
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(config Config) (*Logger, error) {
	logger := logrus.New()

	if config.Output != nil {
		logger.SetOutput(config.Output)
	} else {
		logger.SetOutput(os.Stdout)
	}

	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			DisableColors:   config.LogFile != "",
		})
	}

	logger.SetLevel(toLogrusLevel(config.Level))

	// The backup log file is tailed by the dashboard, so output goes to both.
	if config.LogFile != "" {
		file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFile, err)
		}

		if config.Output == nil {
			logger.SetOutput(io.MultiWriter(os.Stdout, file))
		} else {
			logger.SetOutput(io.MultiWriter(config.Output, file))
		}
	}

	return &Logger{
		logger: logger,
		fields: logrus.Fields{},
	}, nil
}

// NewDefaultLogger creates a logger with default configuration
func NewDefaultLogger() *Logger {
	logger, _ := NewLogger(Config{
		Level:  LogLevelNormal,
		Output: os.Stdout,
		Format: "text",
	})
	return logger
}

// NewNopLogger returns a logger that discards everything. Handy in tests.
func NewNopLogger() *Logger {
	logger, _ := NewLogger(Config{
		Level:  LogLevelQuiet,
		Output: io.Discard,
		Format: "text",
	})
	return logger
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case LogLevelQuiet:
		return logrus.ErrorLevel
	case LogLevelVerbose:
		return logrus.DebugLevel
	case LogLevelDebug:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

// With returns a child logger that attaches fields to every line it writes.
// The child shares output and level with its parent.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{
		logger: l.logger,
		fields: merged,
	}
}

func (l *Logger) entry() *logrus.Entry {
	return l.logger.WithFields(l.fields)
}

// WithFields returns a logger entry with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry().WithFields(fields)
}

// WithField returns a logger entry with a single additional field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.entry().WithField(key, value)
}

// Retention operation logging methods

// LogListing logs the outcome of a remote catalog listing.
func (l *Logger) LogListing(location string, listed, admitted int, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": "remote_list",
		"location":  location,
		"listed":    listed,
		"admitted":  admitted,
		"duration":  duration.String(),
	}

	if err != nil {
		fields["error"] = err.Error()
		l.entry().WithFields(fields).Error("Error listing files")
		return
	}
	l.entry().WithFields(fields).Info("Remote listing completed")
}

// LogArtifactScheduled writes the audit line for one artifact about to be deleted.
func (l *Logger) LogArtifactScheduled(name, path string, size int64, created time.Time) {
	l.entry().WithFields(logrus.Fields{
		"operation": "delete_scheduled",
		"artifact":  name,
		"path":      path,
		"size":      size,
		"created":   created.Format(time.RFC3339),
	}).Infof("  -> DELETE: %s", name)
}

// LogDeletion logs the outcome of a batch delete call.
func (l *Logger) LogDeletion(location string, count int, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": "remote_delete",
		"location":  location,
		"count":     count,
		"duration":  duration.String(),
	}

	if err != nil {
		fields["error"] = err.Error()
		l.entry().WithFields(fields).Error("Delete operation failed")
		return
	}
	l.entry().WithFields(fields).Info("Delete operation completed.")
}

// Standard logging methods

// Info logs an info message
func (l *Logger) Info(msg string) {
	l.entry().Info(msg)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) {
	l.entry().Debug(msg)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.entry().Debugf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) {
	l.entry().Warn(msg)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry().Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string) {
	l.entry().Error(msg)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry().Errorf(format, args...)
}

// LogOperationStart logs the start of a remote call at debug level and
// returns a function that logs its completion and reports how long it took.
// The outcome itself is reported by LogListing and LogDeletion.
func (l *Logger) LogOperationStart(operation string, fields map[string]interface{}) func(error) time.Duration {
	startTime := time.Now()

	logFields := logrus.Fields{
		"operation": operation,
		"status":    "started",
	}
	for k, v := range fields {
		logFields[k] = v
	}

	l.entry().WithFields(logFields).Debug("Operation started")

	return func(err error) time.Duration {
		elapsed := time.Since(startTime)
		logFields["status"] = "completed"
		logFields["duration"] = elapsed.String()
		logFields["success"] = err == nil
		if err != nil {
			logFields["error"] = err.Error()
		}

		l.entry().WithFields(logFields).Debug("Operation completed")
		return elapsed
	}
}
