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

package config

import (
	"bytes"
	"crypto/x509"
	"time"
)

// VerifierConfig holds the trust settings used when verifying signatures.
type VerifierConfig struct {
	roots         *x509.CertPool
	intermediates *x509.CertPool
	clock         func() time.Time
}

// NewVerifierConfig creates a verification configuration with no trust
// anchors, checking certificates against the current time.
func NewVerifierConfig() *VerifierConfig {
	return &VerifierConfig{clock: time.Now}
}

// AddTrustedCertificates loads PEM certificates from paths. Self-signed
// certificates become roots; the others are used as intermediates.
func (c *VerifierConfig) AddTrustedCertificates(paths ...string) error {
	for _, p := range paths {
		certs, err := LoadCertificateFile(p)
		if err != nil {
			return err
		}
		c.AddCertificates(certs...)
	}
	return nil
}

// AddCertificates adds already parsed trust anchors and intermediates.
func (c *VerifierConfig) AddCertificates(certs ...*x509.Certificate) *VerifierConfig {
	for _, cert := range certs {
		if isSelfSigned(cert) {
			if c.roots == nil {
				c.roots = x509.NewCertPool()
			}
			c.roots.AddCert(cert)
			continue
		}
		if c.intermediates == nil {
			c.intermediates = x509.NewCertPool()
		}
		c.intermediates.AddCert(cert)
	}
	return c
}

// SetClock replaces the time source used for validity checks.
func (c *VerifierConfig) SetClock(clock func() time.Time) *VerifierConfig {
	c.clock = clock
	return c
}

// HasTrustAnchors reports whether chain verification is configured.
func (c *VerifierConfig) HasTrustAnchors() bool {
	return c.roots != nil
}

// Roots returns the trusted root pool, nil when none are configured.
func (c *VerifierConfig) Roots() *x509.CertPool {
	return c.roots
}

// Intermediates returns the configured intermediate pool.
func (c *VerifierConfig) Intermediates() *x509.CertPool {
	return c.intermediates
}

// Now returns the verification time.
func (c *VerifierConfig) Now() time.Time {
	if c.clock == nil {
		return time.Now()
	}
	return c.clock()
}

// isSelfSigned checks the signature with the certificate's own key, without
// the CA constraint CheckSignatureFrom applies.
func isSelfSigned(cert *x509.Certificate) bool {
	if !bytes.Equal(cert.RawIssuer, cert.RawSubject) {
		return false
	}
	return cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
}
