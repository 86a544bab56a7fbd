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

package memory

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	hashengines "github.com/minchaudhary/digital-signature/pkg/hashing/engines"
)

func init() {
	hashengines.MustRegister(digests.SHA256, func() (hashengines.StreamingHashEngine, error) {
		return NewSHA256Engine(nil)
	})
	hashengines.MustRegister(digests.SHA384, func() (hashengines.StreamingHashEngine, error) {
		return NewSHA384Engine(nil)
	})
	hashengines.MustRegister(digests.SHA512, func() (hashengines.StreamingHashEngine, error) {
		return NewSHA512Engine(nil)
	})
}

// NewSHA256Engine creates a SHA-256 engine seeded with initialData.
func NewSHA256Engine(initialData []byte) (*GenericHashEngine, error) {
	return NewGenericHashEngine(digests.SHA256, sha256.Size,
		func() (hash.Hash, error) { return sha256.New(), nil }, initialData)
}

// NewSHA384Engine creates a SHA-384 engine seeded with initialData.
func NewSHA384Engine(initialData []byte) (*GenericHashEngine, error) {
	return NewGenericHashEngine(digests.SHA384, sha512.Size384,
		func() (hash.Hash, error) { return sha512.New384(), nil }, initialData)
}

// NewSHA512Engine creates a SHA-512 engine seeded with initialData.
func NewSHA512Engine(initialData []byte) (*GenericHashEngine, error) {
	return NewGenericHashEngine(digests.SHA512, sha512.Size,
		func() (hash.Hash, error) { return sha512.New(), nil }, initialData)
}
