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
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

var (
	identityOnce sync.Once
	identityPEM  struct{ key, cert []byte }
)

// testIdentity generates one identity per test binary; callers get a
// fresh KeyMaterial decoded from PEM so Close does not affect others.
func testIdentity(t *testing.T) *KeyMaterial {
	t.Helper()
	identityOnce.Do(func() {
		km, err := GenerateSelfSigned(GenerateOptions{})
		if err != nil {
			panic(err)
		}
		der, err := x509.MarshalPKCS8PrivateKey(km.Signer)
		if err != nil {
			panic(err)
		}
		identityPEM.key = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
		identityPEM.cert = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: km.Certificate.Raw})
	})

	block, _ := pem.Decode(identityPEM.key)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	block, _ = pem.Decode(identityPEM.cert)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	km, err := NewKeyMaterial(key.(*rsa.PrivateKey), cert, nil)
	require.NoError(t, err)
	return km
}

func TestGenerateSelfSigned(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	km, err := GenerateSelfSigned(GenerateOptions{Now: func() time.Time { return now }})
	require.NoError(t, err)
	defer km.Close()

	cert := km.Certificate
	assert.Equal(t, "Test Certificate", cert.Subject.CommonName)
	assert.Equal(t, []string{"My Company"}, cert.Subject.Organization)
	assert.Equal(t, []string{"Development"}, cert.Subject.OrganizationalUnit)
	assert.Equal(t, []string{"US"}, cert.Subject.Country)
	assert.Equal(t, cert.Subject.String(), cert.Issuer.String())
	assert.Equal(t, x509.KeyUsageDigitalSignature|x509.KeyUsageContentCommitment, cert.KeyUsage)
	assert.False(t, cert.IsCA)
	assert.True(t, cert.NotBefore.Equal(now))
	assert.True(t, cert.NotAfter.Equal(now.Add(365*24*time.Hour)))
	assert.Equal(t, 1, cert.SerialNumber.Sign())

	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	require.True(t, ok)
	assert.Equal(t, 2048, pub.N.BitLen())
	assert.Equal(t, 256, km.SignatureSize())
	assert.NoError(t, km.RequireRSA())
	assert.NoError(t, cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature))
}

func TestGenerateSelfSigned_SmallKey(t *testing.T) {
	_, err := GenerateSelfSigned(GenerateOptions{KeyBits: 1024})
	assert.True(t, signerr.IsKind(err, signerr.KindUnsupportedKeyType), "got %v", err)
}

func TestKeyMaterial_Close(t *testing.T) {
	km := testIdentity(t)
	key := km.Signer.(*rsa.PrivateKey)

	var order []int
	km.OnClose(func() error { order = append(order, 1); return nil })
	km.OnClose(func() error { order = append(order, 2); return errors.New("release failed") })

	err := km.Close()
	assert.EqualError(t, err, "release failed")
	assert.Equal(t, []int{2, 1}, order)
	assert.True(t, km.Closed())
	assert.Nil(t, km.Signer)

	assert.Equal(t, 0, key.D.Sign())
	for _, p := range key.Primes {
		assert.Equal(t, 0, p.Sign())
	}

	assert.NoError(t, km.Close(), "second Close")
	assert.Equal(t, []int{2, 1}, order)
}

func TestNewKeyMaterial_Errors(t *testing.T) {
	km := testIdentity(t)
	defer km.Close()
	other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	_, err = NewKeyMaterial(nil, km.Certificate, nil)
	assert.True(t, signerr.IsKind(err, signerr.KindSigning))
	_, err = NewKeyMaterial(km.Signer, nil, nil)
	assert.True(t, signerr.IsKind(err, signerr.KindSigning))
	_, err = NewKeyMaterial(other, km.Certificate, nil)
	assert.True(t, signerr.IsKind(err, signerr.KindSigning), "mismatched key: %v", err)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"load", PolicyLoad, false},
		{"LOAD-OR-GENERATE", PolicyLoadOrGenerate, false},
		{"", PolicyLoadOrGenerate, false},
		{"create", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.True(t, signerr.IsKind(err, signerr.KindConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Policy {
	t.Helper()
	p, err := ParsePolicy(s)
	require.NoError(t, err)
	return p
}

func TestPKCS12Provider_LoadOrGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.p12")
	provider, err := NewPKCS12Provider(PKCS12Options{Path: path, Password: "secret"})
	require.NoError(t, err)

	first, err := provider.Load(context.Background())
	require.NoError(t, err)
	serial := first.Certificate.SerialNumber
	require.NoError(t, first.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := provider.Load(context.Background())
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, 0, serial.Cmp(second.Certificate.SerialNumber), "existing store must be reused")
	assert.Equal(t, "Test Certificate", second.Certificate.Subject.CommonName)
}

func TestPKCS12Provider_Errors(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.p12")

	_, err := NewPKCS12Provider(PKCS12Options{Path: missing, Policy: PolicyLoad})
	assert.True(t, signerr.IsKind(err, signerr.KindIO), "got %v", err)

	_, err = NewPKCS12Provider(PKCS12Options{})
	assert.True(t, signerr.IsKind(err, signerr.KindConfiguration))

	km := testIdentity(t)
	data, err := EncodePKCS12(km, "right")
	require.NoError(t, err)
	require.NoError(t, km.Close())
	path := filepath.Join(dir, "store.p12")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	provider, err := NewPKCS12Provider(PKCS12Options{Path: path, Password: "wrong", Policy: PolicyLoad})
	require.NoError(t, err)
	_, err = provider.Load(context.Background())
	assert.True(t, signerr.IsKind(err, signerr.KindSigning), "got %v", err)

	garbage := filepath.Join(dir, "garbage.p12")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key store"), 0o600))
	provider, err = NewPKCS12Provider(PKCS12Options{Path: garbage, Policy: PolicyLoad})
	require.NoError(t, err)
	_, err = provider.Load(context.Background())
	assert.True(t, signerr.IsKind(err, signerr.KindSigning), "got %v", err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = provider.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPEMProvider(t *testing.T) {
	km := testIdentity(t)
	defer km.Close()
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.pem")
	certPath := filepath.Join(dir, "cert.pem")
	require.NoError(t, os.WriteFile(keyPath, identityPEM.key, 0o600))
	require.NoError(t, os.WriteFile(certPath, identityPEM.cert, 0o644))

	provider, err := NewPEMProvider(config.KeyConfig{Path: keyPath}, config.CertificateConfig{Path: certPath})
	require.NoError(t, err)
	loaded, err := provider.Load(context.Background())
	require.NoError(t, err)
	defer loaded.Close()
	assert.True(t, loaded.Certificate.Equal(km.Certificate))

	_, err = NewPEMProvider(config.KeyConfig{Path: filepath.Join(dir, "nope.pem")}, config.CertificateConfig{Path: certPath})
	assert.Error(t, err)
}
