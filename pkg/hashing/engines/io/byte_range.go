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

// Package io hashes selected byte ranges of a document.
package io

import (
	"fmt"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// ByteRange is a contiguous span of a document's bytes.
type ByteRange struct {
	Offset int64
	Length int64
}

// End returns the offset one past the last byte of the range.
func (r ByteRange) End() int64 {
	return r.Offset + r.Length
}

// String formats the range as "[offset, end)".
func (r ByteRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Offset, r.End())
}

// ValidateRanges checks that every range lies inside a document of size
// bytes. Violations are reported as signerr.KindIO.
func ValidateRanges(ranges []ByteRange, size int64) error {
	if len(ranges) == 0 {
		return signerr.New(signerr.KindIO, "no byte ranges to hash")
	}
	for i, r := range ranges {
		if r.Offset < 0 || r.Length < 0 {
			return signerr.Newf(signerr.KindIO, "byte range %d %s is negative", i, r)
		}
		if r.Offset > size || r.Length > size-r.Offset {
			return signerr.Newf(signerr.KindIO, "byte range %d %s exceeds document size %d", i, r, size)
		}
	}
	return nil
}

// Ordered reports whether ranges are ascending and non-overlapping.
func Ordered(ranges []ByteRange) bool {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Offset < ranges[i-1].End() {
			return false
		}
	}
	return true
}

// TotalLength returns the number of bytes covered by ranges.
func TotalLength(ranges []ByteRange) int64 {
	var n int64
	for _, r := range ranges {
		n += r.Length
	}
	return n
}

// Gaps returns the spans of [0, size) not covered by ordered ranges.
func Gaps(ranges []ByteRange, size int64) []ByteRange {
	var gaps []ByteRange
	var pos int64
	for _, r := range ranges {
		if r.Offset > pos {
			gaps = append(gaps, ByteRange{Offset: pos, Length: r.Offset - pos})
		}
		if r.End() > pos {
			pos = r.End()
		}
	}
	if pos < size {
		gaps = append(gaps, ByteRange{Offset: pos, Length: size - pos})
	}
	return gaps
}
