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

package digests

import (
	"crypto"
	"fmt"
	"strings"
)

// Algorithm names a supported digest algorithm.
//
// The set is closed: values other than the constants below are rejected by
// ParseAlgorithm and reported as invalid by Valid.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = SHA256

var algorithms = map[Algorithm]crypto.Hash{
	SHA256: crypto.SHA256,
	SHA384: crypto.SHA384,
	SHA512: crypto.SHA512,
}

// Algorithms returns the supported algorithms in ascending strength.
func Algorithms() []Algorithm {
	return []Algorithm{SHA256, SHA384, SHA512}
}

// ParseAlgorithm parses a user-supplied algorithm name. It accepts the
// canonical names as well as the dashed forms ("SHA-256").
func ParseAlgorithm(s string) (Algorithm, error) {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	alg := Algorithm(name)
	if !alg.Valid() {
		return "", fmt.Errorf("unsupported digest algorithm %q (supported: %v)", s, Algorithms())
	}
	return alg, nil
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	_, ok := algorithms[a]
	return ok
}

// Hash returns the crypto.Hash for a, or 0 if a is not supported.
func (a Algorithm) Hash() crypto.Hash {
	return algorithms[a]
}

// Size returns the digest length in bytes, or 0 if a is not supported.
func (a Algorithm) Size() int {
	h := a.Hash()
	if h == 0 {
		return 0
	}
	return h.Size()
}

// String returns the canonical name.
func (a Algorithm) String() string {
	return string(a)
}
