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

	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/utils"
)

// PEMProvider loads a private key and certificate chain from PEM files.
type PEMProvider struct {
	key  config.KeyConfig
	cert config.CertificateConfig
}

// NewPEMProvider checks that the files exist.
func NewPEMProvider(key config.KeyConfig, cert config.CertificateConfig) (*PEMProvider, error) {
	if err := utils.ValidateFileExists("private key", key.Path); err != nil {
		return nil, err
	}
	if err := utils.ValidateFileExists("certificate", cert.Path); err != nil {
		return nil, err
	}
	if err := utils.ValidateMultiple("certificate chain", cert.ChainPaths, utils.PathTypeFile); err != nil {
		return nil, err
	}
	return &PEMProvider{key: key, cert: cert}, nil
}

func (p *PEMProvider) Load(ctx context.Context) (*KeyMaterial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	signer, err := p.key.LoadPrivateKey()
	if err != nil {
		return nil, err
	}
	leaf, chain, err := p.cert.LoadCertificates()
	if err != nil {
		return nil, err
	}
	return NewKeyMaterial(signer, leaf, chain)
}
