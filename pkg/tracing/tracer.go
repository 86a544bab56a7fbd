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

// Package tracing wraps span creation for the signing and verification
// workflows. The default build uses a no-op tracer; building with
// -tags=otel exports spans over OTLP when the environment configures it.
package tracing

import (
	"context"
	"sync/atomic"
)

// Span is one timed operation in a trace.
type Span interface {
	SetAttribute(key string, value interface{})
	// RecordError marks the span as failed. A nil err is ignored.
	RecordError(err error)
	End()
}

// Tracer starts spans.
type Tracer interface {
	Start(ctx context.Context, name string) (context.Context, Span)
}

// installed holds the active Tracer; nil means tracing is off.
var installed atomic.Pointer[Tracer]

// SetTracer installs t process-wide. nil switches tracing off.
func SetTracer(t Tracer) {
	if t == nil {
		installed.Store(nil)
		return
	}
	installed.Store(&t)
}

// Enabled reports whether a tracer is installed.
func Enabled() bool {
	return installed.Load() != nil
}

// Run calls fn inside a span named name carrying attrs. The span records
// the error fn returns. Without a tracer fn is called directly.
func Run(ctx context.Context, name string, attrs map[string]interface{}, fn func(context.Context) error) error {
	t := installed.Load()
	if t == nil {
		return fn(ctx)
	}
	ctx, span := (*t).Start(ctx, name)
	defer span.End()
	for k, v := range attrs {
		span.SetAttribute(k, v)
	}
	err := fn(ctx)
	span.RecordError(err)
	return err
}
