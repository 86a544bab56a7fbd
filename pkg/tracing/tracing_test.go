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

package tracing

import (
	"context"
	"errors"
	"testing"
)

type recordingSpan struct {
	attrs map[string]interface{}
	err   error
	ended bool
}

func (s *recordingSpan) SetAttribute(k string, v interface{}) { s.attrs[k] = v }
func (s *recordingSpan) RecordError(err error) {
	if err != nil {
		s.err = err
	}
}
func (s *recordingSpan) End() { s.ended = true }

type recordingTracer struct {
	spans map[string]*recordingSpan
}

func (t *recordingTracer) Start(ctx context.Context, name string) (context.Context, Span) {
	s := &recordingSpan{attrs: map[string]interface{}{}}
	t.spans[name] = s
	return ctx, s
}

func TestRun_Noop(t *testing.T) {
	SetTracer(nil)
	if Enabled() {
		t.Fatal("Enabled() = true with the no-op tracer")
	}
	called := false
	if err := Run(context.Background(), "op", nil, func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Errorf("Run() = %v, called = %v", err, called)
	}
}

func TestRun_RecordsSpan(t *testing.T) {
	rec := &recordingTracer{spans: map[string]*recordingSpan{}}
	SetTracer(rec)
	defer SetTracer(nil)

	want := errors.New("boom")
	err := Run(context.Background(), "sign", map[string]interface{}{"pdf.size": 10}, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Run() error = %v, want %v", err, want)
	}

	span := rec.spans["sign"]
	if span == nil {
		t.Fatal("no span recorded")
	}
	if !span.ended {
		t.Error("span not ended")
	}
	if span.attrs["pdf.size"] != 10 {
		t.Errorf("attrs = %v", span.attrs)
	}
	if !errors.Is(span.err, want) {
		t.Errorf("recorded error = %v", span.err)
	}
}
