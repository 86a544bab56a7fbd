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
	"crypto"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
	"github.com/minchaudhary/digital-signature/pkg/utils"
)

// Policy decides what a provider does when its key store is missing.
type Policy int

const (
	// PolicyLoadOrGenerate creates and saves a self-signed identity when
	// the store does not exist.
	PolicyLoadOrGenerate Policy = iota
	// PolicyLoad fails when the store does not exist.
	PolicyLoad
)

func (p Policy) String() string {
	switch p {
	case PolicyLoad:
		return "load"
	case PolicyLoadOrGenerate:
		return "load-or-generate"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy accepts "load" and "load-or-generate".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "load":
		return PolicyLoad, nil
	case "", "load-or-generate", "generate":
		return PolicyLoadOrGenerate, nil
	default:
		return 0, signerr.Newf(signerr.KindConfiguration,
			"unknown key store policy %q (want load or load-or-generate)", s)
	}
}

// PKCS12Options configures a PKCS12Provider.
type PKCS12Options struct {
	// Path of the .p12/.pfx bundle.
	Path     string
	Password string
	Policy   Policy

	// Subject, KeyBits and Validity apply to generated identities.
	Subject  pkix.Name
	KeyBits  int
	Validity time.Duration
	Now      func() time.Time

	Logger logging.Logger
}

// PKCS12Provider loads key material from a password protected PKCS#12
// bundle, generating one first when the policy allows it.
type PKCS12Provider struct {
	opts   PKCS12Options
	logger logging.Logger
}

// NewPKCS12Provider validates opts and returns a provider.
func NewPKCS12Provider(opts PKCS12Options) (*PKCS12Provider, error) {
	if opts.Path == "" {
		return nil, signerr.New(signerr.KindConfiguration, "PKCS#12 path is required")
	}
	if opts.Policy == PolicyLoad {
		if err := utils.ValidateFileExists("key store", opts.Path); err != nil {
			return nil, signerr.WrapPath(signerr.KindIO, opts.Path, "key store not found", err)
		}
	}
	logger := logging.EnsureLogger(opts.Logger)
	logger.Debug("Key store %s (policy %s, password %s)", opts.Path, opts.Policy, utils.MaskToken(opts.Password))
	return &PKCS12Provider{opts: opts, logger: logger}, nil
}

// Load returns the bundle's key material.
func (p *PKCS12Provider) Load(ctx context.Context) (*KeyMaterial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.opts.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && p.opts.Policy == PolicyLoadOrGenerate:
		return p.generate()
	case err != nil:
		return nil, signerr.WrapPath(signerr.KindIO, p.opts.Path, "reading key store", err)
	}

	km, err := DecodePKCS12(data, p.opts.Password)
	if err != nil {
		var se *signerr.Error
		if errors.As(err, &se) && se.Path == "" {
			se.Path = p.opts.Path
		}
		return nil, err
	}
	p.logger.Debug("Loaded key store %s (subject %s)", p.opts.Path, km.Certificate.Subject)
	return km, nil
}

func (p *PKCS12Provider) generate() (*KeyMaterial, error) {
	p.logger.Info("Key store %s not found, generating a self-signed certificate", p.opts.Path)

	km, err := GenerateSelfSigned(GenerateOptions{
		Subject:  p.opts.Subject,
		KeyBits:  p.opts.KeyBits,
		Validity: p.opts.Validity,
		Now:      p.opts.Now,
	})
	if err != nil {
		return nil, err
	}

	data, err := EncodePKCS12(km, p.opts.Password)
	if err != nil {
		_ = km.Close()
		return nil, err
	}
	if err := utils.WriteFileAtomic(p.opts.Path, data, 0o600); err != nil {
		_ = km.Close()
		return nil, signerr.WrapPath(signerr.KindIO, p.opts.Path, "saving key store", err)
	}
	p.logger.Info("Saved key store %s (valid until %s)", p.opts.Path,
		km.Certificate.NotAfter.Format(time.RFC3339))
	return km, nil
}

// EncodePKCS12 serializes km with modern encryption.
func EncodePKCS12(km *KeyMaterial, password string) ([]byte, error) {
	if km == nil || km.Signer == nil {
		return nil, signerr.New(signerr.KindSigning, "no private key to encode")
	}
	data, err := pkcs12.Modern.Encode(km.Signer, km.Certificate, km.Chain, password)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "encoding PKCS#12", err)
	}
	return data, nil
}

// DecodePKCS12 parses a PKCS#12 bundle holding one key and its chain.
func DecodePKCS12(data []byte, password string) (*KeyMaterial, error) {
	key, cert, chain, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, signerr.Wrap(signerr.KindSigning, "wrong key store password", err)
		}
		return nil, signerr.Wrap(signerr.KindSigning, "decoding PKCS#12", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, signerr.Newf(signerr.KindUnsupportedKeyType, "key store holds a %T, which cannot sign", key)
	}
	return NewKeyMaterial(signer, cert, chain)
}
