// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var _ Logger = (*DefaultLogger)(nil)

// FileOptions selects a rotating log file as the log destination.
type FileOptions struct {
	// Path of the log file. Parent directories are created on first write.
	Path string
	// MaxSizeMB is the size at which the file is rotated. Defaults to 10.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Zero keeps all.
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// LoggerOptions configures a logger built by New or NewLoggerWithOptions.
type LoggerOptions struct {
	// Level sets the minimum log level to output.
	Level LogLevel
	// Format selects the output format. Ignored if Formatter is set.
	Format LogFormat
	// Formatter overrides the formatter derived from Format.
	// Not supported by FormatZap.
	Formatter Formatter
	// Output sets the destination. Defaults to os.Stdout.
	Output io.Writer
	// File, when set, replaces Output with a rotating log file.
	File *FileOptions
	// TimeFormat sets the time format for text logs. Empty omits timestamps.
	TimeFormat string
	// ShowLevel prefixes text entries with their level.
	ShowLevel bool
}

// DefaultLoggerOptions returns the default logger options.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Level:  LevelInfo,
		Format: FormatText,
		Output: os.Stdout,
	}
}

// writer resolves the destination of opts.
func (opts LoggerOptions) writer() io.Writer {
	if opts.File != nil && opts.File.Path != "" {
		maxSize := opts.File.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		return &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    maxSize,
			MaxBackups: opts.File.MaxBackups,
			Compress:   opts.File.Compress,
		}
	}
	if opts.Output == nil {
		return os.Stdout
	}
	return opts.Output
}

// New builds the logger selected by opts.Format.
func New(opts LoggerOptions) Logger {
	if opts.Format == FormatZap && opts.Formatter == nil {
		return NewZapLogger(opts.Level, opts.writer())
	}
	return NewLoggerWithOptions(opts)
}

// DefaultLogger writes entries rendered by a Formatter.
type DefaultLogger struct {
	mu        sync.Mutex
	level     LogLevel
	formatter Formatter
	out       io.Writer
	fields    map[string]interface{}
}

// NewLogger creates a text logger on stdout. verbose selects LevelDebug,
// otherwise LevelInfo.
func NewLogger(verbose bool) *DefaultLogger {
	level := LevelInfo
	if verbose {
		level = LevelDebug
	}
	return &DefaultLogger{
		level:     level,
		formatter: &TextFormatter{},
		out:       os.Stdout,
	}
}

// NewLoggerWithOptions creates a DefaultLogger. FormatZap falls back to
// JSONFormatter here; use New to get a zap-backed logger.
func NewLoggerWithOptions(opts LoggerOptions) *DefaultLogger {
	formatter := opts.Formatter
	if formatter == nil {
		switch opts.Format {
		case FormatJSON, FormatZap:
			formatter = &JSONFormatter{TimeFormat: opts.TimeFormat}
		default:
			formatter = &TextFormatter{TimeFormat: opts.TimeFormat, ShowLevel: opts.ShowLevel}
		}
	}
	return &DefaultLogger{
		level:     opts.Level,
		formatter: formatter,
		out:       opts.writer(),
	}
}

// WithFields returns a copy of the logger that attaches fields to every entry.
func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &DefaultLogger{
		level:     l.level,
		formatter: l.formatter,
		out:       l.out,
		fields:    mergeFields(l.fields, fields),
	}
}

// WithField returns a copy of the logger that attaches key=value to every entry.
func (l *DefaultLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// SetLevel sets the minimum log level.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// GetLevel returns the current log level.
func (l *DefaultLogger) GetLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetOutput sets the output writer.
func (l *DefaultLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

func (l *DefaultLogger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level || l.level == LevelSilent {
		return
	}

	data, err := l.formatter.Format(LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
		Fields:    l.fields,
	})
	if err != nil {
		fmt.Fprintf(l.out, "logging error: %v\n", err)
		return
	}
	_, _ = l.out.Write(data)
}

// Debug logs a message at debug level.
func (l *DefaultLogger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Debugln logs a line at debug level.
func (l *DefaultLogger) Debugln(msg string) { l.log(LevelDebug, "%s", msg) }

// Info logs a message at info level.
func (l *DefaultLogger) Info(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Infoln logs a line at info level.
func (l *DefaultLogger) Infoln(msg string) { l.log(LevelInfo, "%s", msg) }

// Warn logs a message at warn level.
func (l *DefaultLogger) Warn(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Warnln logs a line at warn level.
func (l *DefaultLogger) Warnln(msg string) { l.log(LevelWarn, "%s", msg) }

// Error logs a message at error level.
func (l *DefaultLogger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// Errorln logs a line at error level.
func (l *DefaultLogger) Errorln(msg string) { l.log(LevelError, "%s", msg) }

// Silent returns true if debug output is suppressed.
func (l *DefaultLogger) Silent() bool {
	return l.GetLevel() > LevelDebug
}
