// Package logger provides leveled logging for cra with optional key/value fields
// and rotating file output.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the logging level
type Level int

// LoggerInterface defines the logging interface
type LoggerInterface interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string into a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects the line encoding
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Logger is a leveled logger writing to one or more writers
type Logger struct {
	level     Level
	writers   []io.Writer
	prefix    string
	timestamp bool
	format    Format
	fields    []field
	mu        *sync.Mutex
}

type field struct {
	key   string
	value interface{}
}

// Config holds logger configuration
type Config struct {
	Level     Level
	LogFile   string
	Debug     bool
	Timestamp bool
	Prefix    string
	Format    Format

	// Rotation enables size based rotation of LogFile.
	Rotation   bool
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// New creates a new logger with the given configuration
func New(config Config) (*Logger, error) {
	writers := []io.Writer{}

	// Don't write to stdout during tests
	if !testing.Testing() {
		writers = append(writers, os.Stderr)
	}

	level := config.Level
	if config.Debug {
		level = LevelDebug
	}

	format := config.Format
	if format == "" {
		format = FormatText
	}

	logger := &Logger{
		level:     level,
		prefix:    config.Prefix,
		timestamp: config.Timestamp,
		format:    format,
		writers:   writers,
		mu:        &sync.Mutex{},
	}

	if config.LogFile != "" {
		w, err := fileWriter(config)
		if err != nil {
			return nil, err
		}
		logger.writers = append(logger.writers, w)
	}

	return logger, nil
}

func fileWriter(config Config) (io.Writer, error) {
	logDir := filepath.Dir(config.LogFile)
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}

	if config.Rotation {
		return &lumberjack.Logger{
			Filename:   config.LogFile,
			MaxSize:    config.MaxSizeMB,
			MaxAge:     config.MaxAgeDays,
			MaxBackups: config.MaxBackups,
			Compress:   config.Compress,
		}, nil
	}

	file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFile, err)
	}
	return file, nil
}

// NewDefault creates a logger with default settings
func NewDefault() *Logger {
	logger, _ := New(Config{ //nolint:errcheck // no file output, cannot fail
		Level:     LevelInfo,
		Timestamp: true,
		Prefix:    "cra",
	})
	return logger
}

// NewWithWriter creates a logger that writes only to w
func NewWithWriter(w io.Writer, level Level) *Logger {
	return &Logger{
		level:   level,
		writers: []io.Writer{w},
		format:  FormatText,
		mu:      &sync.Mutex{},
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// Level returns the current threshold
func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	message := fmt.Sprintf(format, args...)

	var line string
	if l.format == FormatJSON {
		line = l.jsonLine(level, message)
	} else {
		line = l.textLine(level, message)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, writer := range l.writers {
		_, _ = io.WriteString(writer, line) //nolint:errcheck // logging output errors are not critical
	}
}

func (l *Logger) textLine(level Level, message string) string {
	var parts []string
	if l.timestamp {
		parts = append(parts, time.Now().Format("2006-01-02 15:04:05"))
	}
	parts = append(parts, fmt.Sprintf("[%s]", level.String()))
	if l.prefix != "" {
		parts = append(parts, fmt.Sprintf("[%s]", l.prefix))
	}
	parts = append(parts, message)
	for _, f := range l.fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f.key, f.value))
	}
	return strings.Join(parts, " ") + "\n"
}

func (l *Logger) jsonLine(level Level, message string) string {
	entry := map[string]interface{}{
		"level": strings.ToLower(level.String()),
		"msg":   message,
	}
	if l.timestamp {
		entry["time"] = time.Now().Format(time.RFC3339)
	}
	if l.prefix != "" {
		entry["component"] = l.prefix
	}
	for _, f := range l.fields {
		if err, ok := f.value.(error); ok {
			entry[f.key] = err.Error()
			continue
		}
		entry[f.key] = f.value
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":"error","msg":"unencodable log entry: %s"}`+"\n", err)
	}
	return string(data) + "\n"
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// WithPrefix creates a new logger with an additional prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	newLogger := *l
	if l.prefix != "" {
		newLogger.prefix = l.prefix + ":" + prefix
	} else {
		newLogger.prefix = prefix
	}
	return &newLogger
}

// With returns a logger that appends key=value to every line
func (l *Logger) With(key string, value interface{}) *Logger {
	newLogger := *l
	newLogger.fields = append(append([]field{}, l.fields...), field{key: key, value: value})
	return &newLogger
}

// WithFields is With for several pairs, applied in key order
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	newLogger := l
	for _, k := range keys {
		newLogger = newLogger.With(k, fields[k])
	}
	return newLogger
}

// Global logger instance
var globalLogger = NewDefault()

func Debug(format string, args ...interface{}) {
	globalLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	globalLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	globalLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	globalLogger.Error(format, args...)
}

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	return globalLogger
}
