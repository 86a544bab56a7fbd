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

// Package crypto provides the RSA PKCS#1 v1.5 primitives used to sign and
// verify CMS signer infos.
//
// External consumers should use the higher-level APIs in pkg/signing and
// pkg/verify instead.
package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"io"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// MinRSAKeyBits is the smallest modulus accepted for signing.
const MinRSAKeyBits = 2048

// RequireRSA returns pub as an RSA public key, or a
// signerr.KindUnsupportedKeyType error for any other key type.
func RequireRSA(pub crypto.PublicKey) (*rsa.PublicKey, error) {
	key, ok := pub.(*rsa.PublicKey)
	if !ok || key == nil {
		return nil, signerr.Newf(signerr.KindUnsupportedKeyType,
			"only RSA keys are supported, got %T", pub)
	}
	if key.N.BitLen() < MinRSAKeyBits {
		return nil, signerr.Newf(signerr.KindUnsupportedKeyType,
			"RSA key is %d bits, minimum is %d", key.N.BitLen(), MinRSAKeyBits)
	}
	return key, nil
}

// SignatureSize returns the length of a PKCS#1 v1.5 signature produced by
// pub, or 0 if pub is not an RSA key.
func SignatureSize(pub crypto.PublicKey) int {
	key, ok := pub.(*rsa.PublicKey)
	if !ok || key == nil {
		return 0
	}
	return key.Size()
}

// SignDigest signs a precomputed digest with RSA PKCS#1 v1.5.
//
// The signer may be an in-memory key or a hardware token; either way it
// receives the hash function as its SignerOpts, which selects PKCS#1 v1.5
// padding for RSA.
func SignDigest(signer crypto.Signer, hash crypto.Hash, digest []byte) ([]byte, error) {
	return SignDigestWithRand(rand.Reader, signer, hash, digest)
}

// SignDigestWithRand is SignDigest with an explicit entropy source.
func SignDigestWithRand(rnd io.Reader, signer crypto.Signer, hash crypto.Hash, digest []byte) ([]byte, error) {
	if signer == nil {
		return nil, signerr.New(signerr.KindSigning, "no signing key")
	}
	pub, err := RequireRSA(signer.Public())
	if err != nil {
		return nil, err
	}
	if !hash.Available() {
		return nil, signerr.Newf(signerr.KindUnsupportedAlgorithm, "hash function %v is not available", hash)
	}
	if len(digest) != hash.Size() {
		return nil, signerr.Newf(signerr.KindSigning,
			"digest is %d bytes, %v produces %d", len(digest), hash, hash.Size())
	}

	sig, err := signer.Sign(rnd, digest, hash)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "RSA PKCS#1 v1.5 signing failed", err)
	}
	if len(sig) != pub.Size() {
		return nil, signerr.New(signerr.KindSigning,
			fmt.Sprintf("signer returned %d bytes, want %d", len(sig), pub.Size()))
	}
	return sig, nil
}
