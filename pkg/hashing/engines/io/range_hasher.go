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

package io

import (
	"fmt"
	"io"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	hashengines "github.com/minchaudhary/digital-signature/pkg/hashing/engines"
	_ "github.com/minchaudhary/digital-signature/pkg/hashing/engines/memory" // registers sha2 engines
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// DefaultChunkSize is the read buffer size used when none is configured.
const DefaultChunkSize = 32 * 1024

// RangeHasher streams selected byte ranges of a document through a hash engine.
//
// Only the bytes inside the ranges are read, in the order given. The
// reserved signature placeholder is never touched.
type RangeHasher struct {
	engine    hashengines.StreamingHashEngine
	chunkSize int
}

// NewRangeHasher creates a hasher for algorithm. A chunkSize of zero
// selects DefaultChunkSize.
func NewRangeHasher(algorithm digests.Algorithm, chunkSize int) (*RangeHasher, error) {
	if !algorithm.Valid() {
		return nil, signerr.Newf(signerr.KindUnsupportedAlgorithm, "unsupported digest algorithm %q", algorithm)
	}
	if chunkSize < 0 {
		return nil, fmt.Errorf("chunk size must be non-negative, got %d", chunkSize)
	}
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	engine, err := hashengines.Create(algorithm)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindUnsupportedAlgorithm, "creating hash engine", err)
	}

	return &RangeHasher{engine: engine, chunkSize: chunkSize}, nil
}

// Algorithm returns the digest algorithm.
func (h *RangeHasher) Algorithm() digests.Algorithm {
	return h.engine.Algorithm()
}

// Compute hashes ranges of r, a document of size bytes.
//
// Ranges are validated up front; a range outside the document fails with
// signerr.KindIO before any byte is hashed.
func (h *RangeHasher) Compute(r io.ReaderAt, size int64, ranges []ByteRange) (digests.Digest, error) {
	if err := ValidateRanges(ranges, size); err != nil {
		return digests.Digest{}, err
	}

	h.engine.Reset(nil)
	buf := make([]byte, h.chunkSize)

	for i, br := range ranges {
		section := io.NewSectionReader(r, br.Offset, br.Length)
		n, err := io.CopyBuffer(h.engine, section, buf)
		if err != nil {
			return digests.Digest{}, signerr.Wrap(signerr.KindIO, fmt.Sprintf("reading byte range %d %s", i, br), err)
		}
		if n != br.Length {
			return digests.Digest{}, signerr.Newf(signerr.KindIO,
				"short read in byte range %d %s: got %d bytes", i, br, n)
		}
	}

	d, err := h.engine.Compute()
	if err != nil {
		return digests.Digest{}, fmt.Errorf("compute range digest: %w", err)
	}
	return d, nil
}

// DigestRanges hashes ranges of r with a fresh RangeHasher for algorithm.
func DigestRanges(r io.ReaderAt, size int64, ranges []ByteRange, algorithm digests.Algorithm) (digests.Digest, error) {
	h, err := NewRangeHasher(algorithm, 0)
	if err != nil {
		return digests.Digest{}, err
	}
	return h.Compute(r, size, ranges)
}
