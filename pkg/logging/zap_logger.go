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
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ Logger = (*ZapLogger)(nil)

// ZapLogger adapts a zap.Logger to the Logger interface.
type ZapLogger struct {
	level LogLevel
	z     *zap.Logger
}

// NewZapLogger creates a logger that encodes entries with zap's production
// JSON encoder and writes them to w.
func NewZapLogger(level LogLevel, w io.Writer) *ZapLogger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(w), zapLevel(level))
	return &ZapLogger{level: level, z: zap.New(core)}
}

// NewZapLoggerFrom wraps an existing zap.Logger.
func NewZapLoggerFrom(z *zap.Logger, level LogLevel) *ZapLogger {
	return &ZapLogger{level: level, z: z}
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelSilent:
		return zapcore.FatalLevel + 1
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) enabled(level LogLevel) bool {
	return l.level != LevelSilent && level >= l.level
}

// Debug logs a message at debug level.
func (l *ZapLogger) Debug(format string, args ...interface{}) {
	if l.enabled(LevelDebug) {
		l.z.Debug(fmt.Sprintf(format, args...))
	}
}

// Debugln logs a line at debug level.
func (l *ZapLogger) Debugln(msg string) { l.Debug("%s", msg) }

// Info logs a message at info level.
func (l *ZapLogger) Info(format string, args ...interface{}) {
	if l.enabled(LevelInfo) {
		l.z.Info(fmt.Sprintf(format, args...))
	}
}

// Infoln logs a line at info level.
func (l *ZapLogger) Infoln(msg string) { l.Info("%s", msg) }

// Warn logs a message at warn level.
func (l *ZapLogger) Warn(format string, args ...interface{}) {
	if l.enabled(LevelWarn) {
		l.z.Warn(fmt.Sprintf(format, args...))
	}
}

// Warnln logs a line at warn level.
func (l *ZapLogger) Warnln(msg string) { l.Warn("%s", msg) }

// Error logs a message at error level.
func (l *ZapLogger) Error(format string, args ...interface{}) {
	if l.enabled(LevelError) {
		l.z.Error(fmt.Sprintf(format, args...))
	}
}

// Errorln logs a line at error level.
func (l *ZapLogger) Errorln(msg string) { l.Error("%s", msg) }

// GetLevel returns the current log level.
func (l *ZapLogger) GetLevel() LogLevel { return l.level }

// Silent returns true if debug output is suppressed.
func (l *ZapLogger) Silent() bool { return l.level > LevelDebug }

// WithField returns a logger that adds key to every entry.
func (l *ZapLogger) WithField(key string, value interface{}) Logger {
	return &ZapLogger{level: l.level, z: l.z.With(zap.Any(key, value))}
}

// WithFields returns a logger that adds fields to every entry.
func (l *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	zf := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	return &ZapLogger{level: l.level, z: l.z.With(zf...)}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}
