package bootstrap

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/najoast/sumgo/config"
)

// Logger is a leveled wrapper around log.Logger
type Logger struct {
	level  config.LogLevel
	logger *log.Logger
	closer io.Closer
}

// NewLogger creates a logger writing to output ("stdout", "stderr" or a file path)
func NewLogger(level config.LogLevel, output string) (*Logger, error) {
	var (
		w      io.Writer
		closer io.Closer
	)

	switch output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log output %s: %w", output, err)
		}
		w, closer = f, f
	}

	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
		closer: closer,
	}, nil
}

// NewWriterLogger creates a logger writing to w
func NewWriterLogger(level config.LogLevel, w io.Writer) *Logger {
	return &Logger{
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
	}
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level config.LogLevel) bool {
	return level.Rank() >= l.level.Rank()
}

func (l *Logger) logf(level config.LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.logger.Printf("["+level.String()+"] "+format, args...)
}

// Debugf logs at debug level
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(config.LogLevelDebug, format, args...)
}

// Infof logs at info level
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(config.LogLevelInfo, format, args...)
}

// Warnf logs at warn level
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(config.LogLevelWarn, format, args...)
}

// Errorf logs at error level
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(config.LogLevelError, format, args...)
}

// Close closes the log file, if any
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
