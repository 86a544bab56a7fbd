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
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// SignatureProfile is a reusable set of signature settings stored as YAML:
//
//	name: Jane Doe
//	reason: Approved
//	location: Berlin
//	contact_info: jane@example.com
//	field_name: Approval
//	digest_algorithm: sha384
//	placeholder_size: 16384
//
// Unset keys leave the corresponding setting unchanged.
type SignatureProfile struct {
	Name            string `yaml:"name,omitempty"`
	Reason          string `yaml:"reason,omitempty"`
	Location        string `yaml:"location,omitempty"`
	ContactInfo     string `yaml:"contact_info,omitempty"`
	FieldName       string `yaml:"field_name,omitempty"`
	DigestAlgorithm string `yaml:"digest_algorithm,omitempty"`
	PlaceholderSize int    `yaml:"placeholder_size,omitempty"`
}

// LoadSignatureProfile reads a profile from path. Unknown keys are rejected.
func LoadSignatureProfile(path string) (*SignatureProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, signerr.WrapPath(signerr.KindIO, path, "reading signature profile", err)
	}
	p, err := ParseSignatureProfile(data)
	if err != nil {
		var serr *signerr.Error
		if errors.As(err, &serr) {
			serr.Path = path
		}
		return nil, err
	}
	return p, nil
}

// ParseSignatureProfile decodes a YAML profile.
func ParseSignatureProfile(data []byte) (*SignatureProfile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p SignatureProfile
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, signerr.Wrap(signerr.KindConfiguration, "parsing signature profile", err)
	}
	if p.DigestAlgorithm != "" {
		if _, err := digests.ParseAlgorithm(p.DigestAlgorithm); err != nil {
			return nil, signerr.Wrap(signerr.KindConfiguration, "signature profile", err)
		}
	}
	return &p, nil
}

// Apply copies the profile's settings onto c.
func (p *SignatureProfile) Apply(c *SignatureConfig) *SignatureConfig {
	if p.Name != "" {
		c.SetName(p.Name)
	}
	if p.Reason != "" {
		c.SetReason(p.Reason)
	}
	if p.Location != "" {
		c.SetLocation(p.Location)
	}
	if p.ContactInfo != "" {
		c.SetContactInfo(p.ContactInfo)
	}
	if p.FieldName != "" {
		c.SetFieldName(p.FieldName)
	}
	if alg, err := digests.ParseAlgorithm(p.DigestAlgorithm); err == nil {
		c.SetDigestAlgorithm(alg)
	}
	if p.PlaceholderSize != 0 {
		c.SetPlaceholderSize(p.PlaceholderSize)
	}
	return c
}

// Marshal encodes the profile as YAML.
func (p *SignatureProfile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
