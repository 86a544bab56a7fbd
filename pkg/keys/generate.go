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

package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"time"

	"github.com/sigstore/sigstore/pkg/cryptoutils"

	internalcrypto "github.com/minchaudhary/digital-signature/internal/crypto"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

const (
	// DefaultCommonName is the subject CN of generated certificates.
	DefaultCommonName = "Test Certificate"
	// DefaultKeyBits is the modulus size of generated keys.
	DefaultKeyBits = 2048
	// DefaultValidity is how long generated certificates stay valid.
	DefaultValidity = 365 * 24 * time.Hour
)

// DefaultSubject is the distinguished name of generated certificates.
func DefaultSubject() pkix.Name {
	return pkix.Name{
		CommonName:         DefaultCommonName,
		OrganizationalUnit: []string{"Development"},
		Organization:       []string{"My Company"},
		Country:            []string{"US"},
	}
}

// GenerateOptions tunes GenerateSelfSigned. Zero values select defaults.
type GenerateOptions struct {
	Subject  pkix.Name
	KeyBits  int
	Validity time.Duration
	// Now is the start of the validity period. Defaults to time.Now.
	Now func() time.Time
}

// GenerateSelfSigned creates an RSA key and a self-signed certificate for
// it that allows digital signatures and non-repudiation.
func GenerateSelfSigned(opts GenerateOptions) (*KeyMaterial, error) {
	bits := opts.KeyBits
	if bits == 0 {
		bits = DefaultKeyBits
	}
	if bits < internalcrypto.MinRSAKeyBits {
		return nil, signerr.Newf(signerr.KindUnsupportedKeyType,
			"RSA keys must be at least %d bits, got %d", internalcrypto.MinRSAKeyBits, bits)
	}
	validity := opts.Validity
	if validity <= 0 {
		validity = DefaultValidity
	}
	subject := opts.Subject
	if subject.CommonName == "" {
		subject = DefaultSubject()
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "generating RSA key", err)
	}

	serial, err := cryptoutils.GenerateSerialNumber()
	if err != nil {
		zeroRSA(key)
		return nil, signerr.Wrap(signerr.KindSigning, "generating serial number", err)
	}

	notBefore := now().UTC().Truncate(time.Second)
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               subject,
		Issuer:                subject,
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
		BasicConstraintsValid: true,
		IsCA:                  false,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		zeroRSA(key)
		return nil, signerr.Wrap(signerr.KindSigning, "creating certificate", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		zeroRSA(key)
		return nil, signerr.Wrap(signerr.KindSigning, "parsing generated certificate", err)
	}

	km, err := NewKeyMaterial(key, cert, nil)
	if err != nil {
		zeroRSA(key)
		return nil, fmt.Errorf("pairing generated key: %w", err)
	}
	return km, nil
}
