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

// Package memory provides in-memory streaming hash engines.
package memory

import (
	"hash"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	hashengines "github.com/minchaudhary/digital-signature/pkg/hashing/engines"
)

var _ hashengines.StreamingHashEngine = (*GenericHashEngine)(nil)

// HashFactoryFunc returns a fresh hash.Hash.
type HashFactoryFunc func() (hash.Hash, error)

// GenericHashEngine adapts any hash.Hash to StreamingHashEngine.
type GenericHashEngine struct {
	algorithm digests.Algorithm
	size      int
	factory   HashFactoryFunc
	h         hash.Hash
}

// NewGenericHashEngine creates an engine for algorithm, seeded with initialData.
func NewGenericHashEngine(algorithm digests.Algorithm, size int, factory HashFactoryFunc, initialData []byte) (*GenericHashEngine, error) {
	h, err := factory()
	if err != nil {
		return nil, err
	}

	engine := &GenericHashEngine{
		algorithm: algorithm,
		size:      size,
		factory:   factory,
		h:         h,
	}

	if len(initialData) > 0 {
		// hash.Hash.Write never returns an error
		_, _ = engine.h.Write(initialData)
	}

	return engine, nil
}

// Write feeds p into the hash.
func (e *GenericHashEngine) Write(p []byte) (int, error) {
	return e.h.Write(p)
}

// Update feeds data into the hash.
func (e *GenericHashEngine) Update(data []byte) {
	if len(data) > 0 {
		_, _ = e.h.Write(data)
	}
}

// Reset starts a new computation seeded with data.
func (e *GenericHashEngine) Reset(data []byte) {
	// factory already succeeded once in the constructor
	h, _ := e.factory()
	e.h = h

	if len(data) > 0 {
		_, _ = e.h.Write(data)
	}
}

// Compute returns the digest of everything fed so far.
func (e *GenericHashEngine) Compute() (digests.Digest, error) {
	return digests.NewDigest(e.algorithm, e.h.Sum(nil)), nil
}

// Algorithm returns the engine's algorithm.
func (e *GenericHashEngine) Algorithm() digests.Algorithm {
	return e.algorithm
}

// DigestSize returns the digest length in bytes.
func (e *GenericHashEngine) DigestSize() int {
	return e.size
}
