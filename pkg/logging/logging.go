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

// Package logging provides the leveled logger used by the signing and
// verification pipelines and the pdf-signing CLI.
//
// Callers depend on the Logger interface. DefaultLogger renders text or
// JSON through a Formatter; ZapLogger hands entries to go.uber.org/zap for
// production JSON output. Either can write to a rotating log file.
package logging

import (
	"fmt"
	"io"
	"strings"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// LevelDebug shows pipeline configuration and per-step detail.
	LevelDebug LogLevel = iota
	// LevelInfo shows step progress.
	LevelInfo
	// LevelWarn shows recoverable problems.
	LevelWarn
	// LevelError shows failures.
	LevelError
	// LevelSilent disables all output.
	LevelSilent
)

var levelNames = map[LogLevel]string{
	LevelDebug:  "debug",
	LevelInfo:   "info",
	LevelWarn:   "warn",
	LevelError:  "error",
	LevelSilent: "silent",
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a string into a LogLevel.
// Returns LevelInfo if the string is not recognized.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "none", "off":
		return LevelSilent
	default:
		return LevelInfo
	}
}

// LogFormat represents the output format for log messages.
type LogFormat int

const (
	// FormatText outputs human-readable text logs.
	FormatText LogFormat = iota
	// FormatJSON outputs one JSON object per entry via JSONFormatter.
	FormatJSON
	// FormatZap outputs zap's production JSON encoding.
	FormatZap
)

// String returns the string representation of a log format.
func (f LogFormat) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatZap:
		return "zap"
	default:
		return "unknown"
	}
}

// ParseLogFormat parses a string into a LogFormat.
func ParseLogFormat(s string) (LogFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "plain":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "zap":
		return FormatZap, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q (valid: text, json, zap)", s)
	}
}

// Logger defines the interface for leveled, structured logging.
type Logger interface {
	// Debug logs a message at debug level with printf-style formatting.
	Debug(format string, args ...interface{})
	// Debugln logs a message at debug level.
	Debugln(msg string)
	// Info logs a message at info level with printf-style formatting.
	Info(format string, args ...interface{})
	// Infoln logs a message at info level.
	Infoln(msg string)
	// Warn logs a message at warn level with printf-style formatting.
	Warn(format string, args ...interface{})
	// Warnln logs a message at warn level.
	Warnln(msg string)
	// Error logs a message at error level with printf-style formatting.
	Error(format string, args ...interface{})
	// Errorln logs a message at error level.
	Errorln(msg string)

	// GetLevel returns the current minimum log level.
	GetLevel() LogLevel
	// Silent returns true if the logger suppresses debug output.
	Silent() bool

	// WithField returns a new Logger with the given key-value pair added.
	WithField(key string, value interface{}) Logger
	// WithFields returns a new Logger with the given fields added.
	WithFields(fields map[string]interface{}) Logger
}

// Default returns a new Logger with info-level text logging.
func Default() Logger {
	return NewLogger(false)
}

// Discard returns a logger that drops every entry.
func Discard() Logger {
	return NewLoggerWithOptions(LoggerOptions{Level: LevelSilent, Output: io.Discard})
}

// EnsureLogger returns l if non-nil, otherwise a default logger.
func EnsureLogger(l Logger) Logger {
	if l == nil {
		return Default()
	}
	return l
}

// mergeFields returns a new map holding base overlaid with extra.
func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
