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

package pkcs11

import (
	"context"
	"crypto"
	"crypto/x509"

	"github.com/ThalesGroup/crypto11"

	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/keys"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
	"github.com/minchaudhary/digital-signature/pkg/utils"
)

// Options configures a Provider.
type Options struct {
	URI string
	// ModuleDirs are searched for the library when the URI has no
	// module-path.
	ModuleDirs []string
	// Certificate optionally supplies the certificate from PEM instead of
	// the token.
	Certificate config.CertificateConfig
	Logger      logging.Logger
}

// Provider opens a token session per Load. The session is closed together
// with the returned key material.
type Provider struct {
	uri    *URI
	opts   Options
	logger logging.Logger
}

// NewProvider parses the URI eagerly so configuration errors surface
// before any signing work.
func NewProvider(opts Options) (*Provider, error) {
	uri, err := ParseURI(opts.URI)
	if err != nil {
		return nil, err
	}
	return &Provider{uri: uri, opts: opts, logger: logging.EnsureLogger(opts.Logger)}, nil
}

// Load opens the token and locates the key pair and its certificate.
func (p *Provider) Load(ctx context.Context) (*keys.KeyMaterial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg, err := p.config()
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Opening PKCS#11 module %s (PIN %s)", cfg.Path, utils.MaskToken(cfg.Pin))

	tok, err := crypto11.Configure(cfg)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "opening PKCS#11 token", err)
	}

	km, err := p.load(tok)
	if err != nil {
		_ = tok.Close()
		return nil, err
	}
	km.OnClose(tok.Close)
	return km, nil
}

func (p *Provider) config() (*crypto11.Config, error) {
	module, err := p.uri.ModulePath(p.opts.ModuleDirs)
	if err != nil {
		return nil, err
	}
	pin, err := p.uri.PIN()
	if err != nil {
		return nil, err
	}
	cfg := &crypto11.Config{Path: module, Pin: pin}
	if slot, ok := p.uri.SlotID(); ok {
		cfg.SlotNumber = &slot
	} else if label := p.uri.Token(); label != "" {
		cfg.TokenLabel = label
	} else {
		return nil, uriError("token or slot-id is required to open a session")
	}
	return cfg, nil
}

func (p *Provider) load(tok *crypto11.Context) (*keys.KeyMaterial, error) {
	signer, err := findSigner(tok, p.uri)
	if err != nil {
		return nil, err
	}

	var cert *x509.Certificate
	var chain []*x509.Certificate
	if p.opts.Certificate.Path != "" {
		cert, chain, err = p.opts.Certificate.LoadCertificates()
		if err != nil {
			return nil, err
		}
	} else {
		cert, err = tok.FindCertificate(p.uri.KeyID(), labelBytes(p.uri.KeyLabel()), nil)
		if err != nil {
			return nil, signerr.Wrap(signerr.KindSigning, "reading certificate from token", err)
		}
		if cert == nil {
			return nil, signerr.New(signerr.KindSigning,
				"no certificate found on the token for this key; supply one with a certificate file")
		}
	}
	return keys.NewKeyMaterial(signer, cert, chain)
}

// findSigner looks the key up by id, then by label. With neither given it
// falls back to the only key pair on the token.
func findSigner(tok *crypto11.Context, uri *URI) (crypto.Signer, error) {
	id, label := uri.KeyID(), uri.KeyLabel()
	if id != nil || label != "" {
		signer, err := tok.FindKeyPair(id, labelBytes(label))
		if err != nil {
			return nil, signerr.Wrap(signerr.KindSigning, "searching for key pair", err)
		}
		if signer == nil {
			return nil, signerr.Newf(signerr.KindSigning, "no key pair with id %x / label %q on token", id, label)
		}
		return signer, nil
	}

	all, err := tok.FindAllKeyPairs()
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "listing key pairs", err)
	}
	switch len(all) {
	case 0:
		return nil, signerr.New(signerr.KindSigning, "token holds no key pairs")
	case 1:
		return all[0], nil
	default:
		return nil, signerr.Newf(signerr.KindSigning,
			"token holds %d key pairs; select one with id or object", len(all))
	}
}

func labelBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
