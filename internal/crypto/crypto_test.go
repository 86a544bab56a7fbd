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
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

var (
	keyOnce sync.Once
	rsaKey  *rsa.PrivateKey
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		rsaKey, err = rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("Failed to generate RSA key: %v", err)
		}
	})
	return rsaKey
}

type failingSigner struct{ crypto.Signer }

func (f failingSigner) Sign(io.Reader, []byte, crypto.SignerOpts) ([]byte, error) {
	return nil, errors.New("token removed")
}

func TestSignDigest_RoundTrip(t *testing.T) {
	key := testKey(t)
	message := []byte("signed attributes")

	tests := []struct {
		name   string
		hash   crypto.Hash
		digest []byte
	}{
		{"SHA-256", crypto.SHA256, func() []byte { h := sha256.Sum256(message); return h[:] }()},
		{"SHA-384", crypto.SHA384, func() []byte { h := sha512.Sum384(message); return h[:] }()},
		{"SHA-512", crypto.SHA512, func() []byte { h := sha512.Sum512(message); return h[:] }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := SignDigest(key, tt.hash, tt.digest)
			if err != nil {
				t.Fatalf("SignDigest() error = %v", err)
			}
			if len(sig) != SignatureSize(&key.PublicKey) {
				t.Errorf("SignDigest() length = %d, want %d", len(sig), SignatureSize(&key.PublicKey))
			}
			if err := VerifyPKCS1v15(&key.PublicKey, tt.hash, message, sig); err != nil {
				t.Errorf("VerifyPKCS1v15() error = %v", err)
			}
			if err := rsa.VerifyPKCS1v15(&key.PublicKey, tt.hash, tt.digest, sig); err != nil {
				t.Errorf("rsa.VerifyPKCS1v15() error = %v", err)
			}

			sig[0] ^= 0xff
			if err := VerifyPKCS1v15(&key.PublicKey, tt.hash, message, sig); err == nil {
				t.Error("VerifyPKCS1v15() accepted a corrupted signature")
			}
		})
	}
}

func TestSignDigest_Errors(t *testing.T) {
	key := testKey(t)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("Failed to generate ECDSA key: %v", err)
	}
	digest := sha256.Sum256([]byte("x"))

	tests := []struct {
		name   string
		signer crypto.Signer
		digest []byte
		want   signerr.Kind
	}{
		{"nil signer", nil, digest[:], signerr.KindSigning},
		{"ecdsa key", ecKey, digest[:], signerr.KindUnsupportedKeyType},
		{"short digest", key, digest[:10], signerr.KindSigning},
		{"signer failure", failingSigner{key}, digest[:], signerr.KindSigning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SignDigest(tt.signer, crypto.SHA256, tt.digest)
			if err == nil {
				t.Fatal("SignDigest() error = nil, want error")
			}
			if got := signerr.KindOf(err); got != tt.want {
				t.Errorf("SignDigest() kind = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireRSA(t *testing.T) {
	small, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	if _, err := RequireRSA(&small.PublicKey); !signerr.IsKind(err, signerr.KindUnsupportedKeyType) {
		t.Errorf("RequireRSA(1024-bit) error = %v, want UnsupportedKeyType", err)
	}
	if _, err := RequireRSA(&testKey(t).PublicKey); err != nil {
		t.Errorf("RequireRSA(2048-bit) error = %v", err)
	}
	if SignatureSize("not a key") != 0 {
		t.Error("SignatureSize() of a non-RSA key should be 0")
	}
}

func TestVerifyPKCS1v15_WrongKey(t *testing.T) {
	key := testKey(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	message := []byte("payload")
	digest := sha256.Sum256(message)
	sig, err := SignDigest(key, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatalf("SignDigest() error = %v", err)
	}
	if err := VerifyPKCS1v15(&other.PublicKey, crypto.SHA256, message, sig); err == nil {
		t.Error("VerifyPKCS1v15() with the wrong key error = nil")
	}
}
