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

// Package keystest provides RSA identities for tests. Keys are generated
// once per test binary; every call returns independent KeyMaterial so that
// closing one does not wipe another.
package keystest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/minchaudhary/digital-signature/pkg/keys"
)

var (
	once      sync.Once
	leafDER   []byte
	caDER     []byte
	caCertDER []byte
	selfDER   []byte
	setupErr  error
)

func setup() {
	leaf, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		setupErr = err
		return
	}
	ca, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		setupErr = err
		return
	}
	leafDER = x509.MarshalPKCS1PrivateKey(leaf)
	caDER = x509.MarshalPKCS1PrivateKey(ca)

	now := time.Now().Add(-time.Hour).Truncate(time.Second)
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Test Root CA", Organization: []string{"My Company"}},
		NotBefore:             now,
		NotAfter:              now.Add(10 * 365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caCertDER, setupErr = x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &ca.PublicKey, ca)
	if setupErr != nil {
		return
	}

	self, err := newCert(leaf, CertOptions{})
	if err != nil {
		setupErr = err
		return
	}
	selfDER = self.Raw
}

func parseKey(t testing.TB, der []byte) *rsa.PrivateKey {
	t.Helper()
	key, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		t.Fatalf("parsing test key: %v", err)
	}
	return key
}

func parseCert(t testing.TB, der []byte) *x509.Certificate {
	t.Helper()
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parsing test certificate: %v", err)
	}
	return cert
}

func ready(t testing.TB) {
	t.Helper()
	once.Do(setup)
	if setupErr != nil {
		t.Fatalf("generating test identities: %v", setupErr)
	}
}

// Material returns a self-signed "Test Certificate" identity.
func Material(t testing.TB) *keys.KeyMaterial {
	t.Helper()
	ready(t)
	km, err := keys.NewKeyMaterial(parseKey(t, leafDER), parseCert(t, selfDER), nil)
	if err != nil {
		t.Fatal(err)
	}
	return km
}

// CertOptions describes a certificate for the shared test key.
type CertOptions struct {
	// NotBefore and NotAfter default to one hour ago and one year later.
	NotBefore time.Time
	NotAfter  time.Time
	// KeyUsage defaults to digitalSignature and nonRepudiation.
	KeyUsage x509.KeyUsage
	// Issued makes the test root CA sign the certificate and adds the CA to
	// the returned chain.
	Issued bool
}

// WithCertificate returns the shared key with a certificate built from opts.
func WithCertificate(t testing.TB, opts CertOptions) *keys.KeyMaterial {
	t.Helper()
	ready(t)
	key := parseKey(t, leafDER)

	var (
		cert *x509.Certificate
		err  error
	)
	var chain []*x509.Certificate
	if opts.Issued {
		ca := RootCA(t)
		cert, err = issueCert(key, opts, ca, parseKey(t, caDER))
		chain = []*x509.Certificate{ca}
	} else {
		cert, err = newCert(key, opts)
	}
	if err != nil {
		t.Fatalf("creating test certificate: %v", err)
	}
	km, err := keys.NewKeyMaterial(key, cert, chain)
	if err != nil {
		t.Fatal(err)
	}
	return km
}

// RootCA returns the test root certificate.
func RootCA(t testing.TB) *x509.Certificate {
	t.Helper()
	ready(t)
	return parseCert(t, caCertDER)
}

func template(opts CertOptions) *x509.Certificate {
	notBefore := opts.NotBefore
	if notBefore.IsZero() {
		notBefore = time.Now().Add(-time.Hour)
	}
	notAfter := opts.NotAfter
	if notAfter.IsZero() {
		notAfter = notBefore.Add(keys.DefaultValidity)
	}
	usage := opts.KeyUsage
	if usage == 0 {
		usage = x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment
	}
	serial, _ := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	return &x509.Certificate{
		SerialNumber:          serial,
		Subject:               keys.DefaultSubject(),
		NotBefore:             notBefore.Truncate(time.Second),
		NotAfter:              notAfter.Truncate(time.Second),
		KeyUsage:              usage,
		BasicConstraintsValid: true,
	}
}

func newCert(key *rsa.PrivateKey, opts CertOptions) (*x509.Certificate, error) {
	tmpl := template(opts)
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}

func issueCert(key *rsa.PrivateKey, opts CertOptions, ca *x509.Certificate, caKey *rsa.PrivateKey) (*x509.Certificate, error) {
	tmpl := template(opts)
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca, &key.PublicKey, caKey)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}
