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

package crypto

import (
	"bytes"
	"crypto"
	"fmt"

	"github.com/sigstore/sigstore/pkg/signature"
)

// VerifyPKCS1v15 verifies an RSA PKCS#1 v1.5 signature over message, which
// is hashed with hash before comparison.
// Returns nil if verification succeeds.
func VerifyPKCS1v15(pub crypto.PublicKey, hash crypto.Hash, message, sig []byte) error {
	key, err := RequireRSA(pub)
	if err != nil {
		return err
	}
	verifier, err := signature.LoadRSAPKCS1v15Verifier(key, hash)
	if err != nil {
		return fmt.Errorf("loading RSA verifier: %w", err)
	}
	if err := verifier.VerifySignature(bytes.NewReader(sig), bytes.NewReader(message)); err != nil {
		return fmt.Errorf("RSA signature verification failed: %w", err)
	}
	return nil
}
