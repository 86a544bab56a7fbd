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

// Package hashengines defines the hash engine contract and the registry
// that maps digest algorithms to engine factories.
package hashengines

import (
	"io"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
)

// StreamingHashEngine hashes data fed to it in pieces. An engine is not
// safe for concurrent use; create one per computation through Create.
type StreamingHashEngine interface {
	// Write feeds p into the hash. It never returns an error.
	io.Writer

	// Update is Write without the return values.
	Update(data []byte)

	// Reset discards the state and seeds a new computation with data.
	Reset(data []byte)

	// Compute returns the digest of everything fed since the last Reset.
	// It does not change the state.
	Compute() (digests.Digest, error)

	Algorithm() digests.Algorithm
	DigestSize() int
}
