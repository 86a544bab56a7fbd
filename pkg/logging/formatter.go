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
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// LogEntry is a single entry handed to a Formatter.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	Fields    map[string]interface{}
}

// Formatter renders a LogEntry, including the trailing newline.
type Formatter interface {
	Format(entry LogEntry) ([]byte, error)
}

// TextFormatter renders entries as a single human-readable line.
type TextFormatter struct {
	// TimeFormat sets the time layout. Empty disables timestamps.
	TimeFormat string
	// ShowLevel adds a prefix such as [INFO].
	ShowLevel bool
}

// Format renders entry as "[time] [LEVEL] message {k=v, ...}".
// Fields are printed in key order.
func (f *TextFormatter) Format(entry LogEntry) ([]byte, error) {
	var b strings.Builder
	if f.TimeFormat != "" {
		b.WriteString(entry.Timestamp.Format(f.TimeFormat))
		b.WriteByte(' ')
	}
	if f.ShowLevel {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(entry.Level.String()))
	}
	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, entry.Fields[k])
		}
		b.WriteByte('}')
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

type jsonEntry struct {
	Timestamp string                 `json:"timestamp,omitempty"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// JSONFormatter renders entries as one JSON object per line.
type JSONFormatter struct {
	// TimeFormat sets the time layout. Defaults to time.RFC3339.
	TimeFormat string
}

// Format renders entry as JSON. Fields that cannot be marshalled are
// replaced by their %v rendering.
func (f *JSONFormatter) Format(entry LogEntry) ([]byte, error) {
	layout := f.TimeFormat
	if layout == "" {
		layout = time.RFC3339
	}
	je := jsonEntry{
		Timestamp: entry.Timestamp.Format(layout),
		Level:     entry.Level.String(),
		Message:   entry.Message,
	}
	if len(entry.Fields) > 0 {
		je.Fields = entry.Fields
	}

	data, err := json.Marshal(je)
	if err != nil {
		je.Fields = make(map[string]interface{}, len(entry.Fields))
		for k, v := range entry.Fields {
			je.Fields[k] = fmt.Sprintf("%v", v)
		}
		if data, err = json.Marshal(je); err != nil {
			return nil, err
		}
	}
	return append(data, '\n'), nil
}
