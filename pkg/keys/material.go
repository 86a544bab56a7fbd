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

// Package keys supplies signing key material: an RSA private key, or a
// handle to one, together with its certificate and chain.
//
// Providers load material from PKCS#12 bundles, PEM files or (in the
// pkcs11 subpackage) hardware tokens. Material is a scoped resource:
// callers must Close it, which wipes in-memory private keys.
package keys

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"math/big"
	"sync"

	"github.com/sigstore/sigstore/pkg/cryptoutils"

	internalcrypto "github.com/minchaudhary/digital-signature/internal/crypto"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// KeyMaterial is a signer with its certificate.
type KeyMaterial struct {
	// Signer produces signatures. It is nil after Close.
	Signer crypto.Signer
	// Certificate is the signer's certificate.
	Certificate *x509.Certificate
	// Chain holds intermediate certificates, leaf excluded.
	Chain []*x509.Certificate

	mu       sync.Mutex
	closed   bool
	releases []func() error
}

// NewKeyMaterial pairs signer with cert after checking that their public
// keys match.
func NewKeyMaterial(signer crypto.Signer, cert *x509.Certificate, chain []*x509.Certificate) (*KeyMaterial, error) {
	if signer == nil {
		return nil, signerr.New(signerr.KindSigning, "no private key")
	}
	if cert == nil {
		return nil, signerr.New(signerr.KindSigning, "no certificate for the private key")
	}
	if err := cryptoutils.EqualKeys(signer.Public(), cert.PublicKey); err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "certificate does not match the private key", err)
	}

	km := &KeyMaterial{Signer: signer, Certificate: cert, Chain: chain}
	if key, ok := signer.(*rsa.PrivateKey); ok {
		km.OnClose(func() error {
			zeroRSA(key)
			return nil
		})
	}
	return km, nil
}

// OnClose registers fn to run when the material is closed. Hooks run in
// reverse registration order.
func (k *KeyMaterial) OnClose(fn func() error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.releases = append(k.releases, fn)
}

// Close wipes the private key and releases any token session. It is safe
// to call more than once.
func (k *KeyMaterial) Close() error {
	if k == nil {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	k.Signer = nil

	var errs []error
	for i := len(k.releases) - 1; i >= 0; i-- {
		if err := k.releases[i](); err != nil {
			errs = append(errs, err)
		}
	}
	k.releases = nil
	return errors.Join(errs...)
}

// Closed reports whether Close has been called.
func (k *KeyMaterial) Closed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

// RequireRSA fails with signerr.KindUnsupportedKeyType unless the
// material holds an RSA key.
func (k *KeyMaterial) RequireRSA() error {
	_, err := internalcrypto.RequireRSA(k.Certificate.PublicKey)
	return err
}

// SignatureSize returns the length in bytes of a signature made with this key.
func (k *KeyMaterial) SignatureSize() int {
	return internalcrypto.SignatureSize(k.Certificate.PublicKey)
}

// ChainSize returns the DER length of the intermediate certificates.
func (k *KeyMaterial) ChainSize() int {
	n := 0
	for _, c := range k.Chain {
		n += len(c.Raw)
	}
	return n
}

// zeroRSA overwrites the private parts of key. Values held in unexported
// fields by crypto/rsa are out of reach.
func zeroRSA(key *rsa.PrivateKey) {
	if key == nil {
		return
	}
	zeroInt(key.D)
	for _, p := range key.Primes {
		zeroInt(p)
	}
	zeroInt(key.Precomputed.Dp)
	zeroInt(key.Precomputed.Dq)
	zeroInt(key.Precomputed.Qinv)
	for i := range key.Precomputed.CRTValues {
		zeroInt(key.Precomputed.CRTValues[i].Exp)
		zeroInt(key.Precomputed.CRTValues[i].Coeff)
		zeroInt(key.Precomputed.CRTValues[i].R)
	}
}

func zeroInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	n.SetInt64(0)
}
