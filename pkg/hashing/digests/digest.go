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

// Package digests provides types for representing cryptographic hash digests.
//
// A Digest carries both the algorithm and the computed value, so that a
// verifier can reselect the same hash function that produced it.
package digests

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// Digest represents a computed cryptographic hash digest.
//
// Fields are unexported and accessors copy the underlying bytes, so a
// Digest is effectively immutable.
type Digest struct {
	algorithm Algorithm
	value     []byte
}

// NewDigest creates a new Digest with the specified algorithm and hash value.
// The value slice is copied.
func NewDigest(algorithm Algorithm, value []byte) Digest {
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)

	return Digest{
		algorithm: algorithm,
		value:     valueCopy,
	}
}

// Algorithm returns the hash algorithm used to compute this digest.
func (d Digest) Algorithm() Algorithm {
	return d.algorithm
}

// Value returns a copy of the raw digest bytes.
func (d Digest) Value() []byte {
	valueCopy := make([]byte, len(d.value))
	copy(valueCopy, d.value)
	return valueCopy
}

// Hex returns the lowercase hexadecimal encoding of the digest value.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.value)
}

// Size returns the length in bytes of the digest value.
func (d Digest) Size() int {
	return len(d.value)
}

// IsZero reports whether the digest holds no value.
func (d Digest) IsZero() bool {
	return len(d.value) == 0
}

// String returns the digest as "algorithm:hexvalue" (e.g., "sha256:abc123...").
func (d Digest) String() string {
	return fmt.Sprintf("%s:%s", d.algorithm, d.Hex())
}

// Equal reports whether both digests use the same algorithm and hold
// identical values.
func (d Digest) Equal(other Digest) bool {
	if d.algorithm != other.algorithm {
		return false
	}
	return bytes.Equal(d.value, other.value)
}
