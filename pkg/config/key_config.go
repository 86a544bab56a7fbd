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
	"crypto"
	"crypto/x509"
	"os"

	"github.com/sigstore/sigstore/pkg/cryptoutils"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// KeyConfig locates a PEM private key.
type KeyConfig struct {
	// Path is the file path to the key (PEM format).
	Path string

	// Password decrypts an encrypted key. Empty means unencrypted.
	Password string
}

// LoadPrivateKey loads and parses the private key.
//
// PKCS#1, PKCS#8 and encrypted keys are accepted. The key type is not
// checked here; signing rejects non-RSA keys.
func (c *KeyConfig) LoadPrivateKey() (crypto.Signer, error) {
	if c.Path == "" {
		return nil, signerr.New(signerr.KindConfiguration, "private key path is required")
	}
	pemBytes, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, signerr.WrapPath(signerr.KindIO, c.Path, "reading private key", err)
	}

	var passFunc cryptoutils.PassFunc
	if c.Password != "" {
		passFunc = cryptoutils.StaticPasswordFunc([]byte(c.Password))
	}
	key, err := cryptoutils.UnmarshalPEMToPrivateKey(pemBytes, passFunc)
	if err != nil {
		return nil, signerr.WrapPath(signerr.KindSigning, c.Path, "parsing private key", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, signerr.Newf(signerr.KindUnsupportedKeyType, "private key of type %T cannot sign", key)
	}
	return signer, nil
}

// CertificateConfig locates PEM certificates.
type CertificateConfig struct {
	// Path is the signer certificate file. Additional certificates in the
	// same file are treated as its chain.
	Path string

	// ChainPaths are extra files holding intermediate certificates.
	ChainPaths []string
}

// LoadCertificates returns the signer certificate followed by its chain.
func (c *CertificateConfig) LoadCertificates() (*x509.Certificate, []*x509.Certificate, error) {
	if c.Path == "" {
		return nil, nil, signerr.New(signerr.KindConfiguration, "certificate path is required")
	}
	certs, err := LoadCertificateFile(c.Path)
	if err != nil {
		return nil, nil, err
	}
	chain := certs[1:]
	for _, p := range c.ChainPaths {
		extra, err := LoadCertificateFile(p)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, extra...)
	}
	return certs[0], chain, nil
}

// LoadCertificateFile reads every certificate of a PEM file.
func LoadCertificateFile(path string) ([]*x509.Certificate, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, signerr.WrapPath(signerr.KindIO, path, "reading certificates", err)
	}
	certs, err := cryptoutils.UnmarshalCertificatesFromPEM(pemBytes)
	if err != nil {
		return nil, signerr.WrapPath(signerr.KindConfiguration, path, "parsing certificates", err)
	}
	if len(certs) == 0 {
		return nil, signerr.WrapPath(signerr.KindConfiguration, path, "no certificates found", nil)
	}
	return certs, nil
}
