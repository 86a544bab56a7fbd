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

// Package config holds the user-facing configuration of signing and
// verification: signature metadata, YAML signature profiles, key and
// certificate files, and verification trust anchors.
package config

import (
	"time"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	"github.com/minchaudhary/digital-signature/pkg/pdf"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

const (
	// DefaultReason is written as /Reason when none is configured.
	DefaultReason = "Test Signature"
	// DefaultLocation is written as /Location when none is configured.
	DefaultLocation = "Virtual Office"

	// MaxPlaceholderSize bounds an explicit reservation.
	MaxPlaceholderSize = 1 << 20
)

// SignatureConfig holds the metadata and sizing of a new signature.
//
// It is built with NewSignatureConfig and customized via method chaining.
type SignatureConfig struct {
	fieldName   string
	name        string
	reason      string
	location    string
	contactInfo string

	digestAlgorithm digests.Algorithm

	// placeholderSize is the reserved container size in bytes.
	// Zero derives it from the key material.
	placeholderSize int

	clock func() time.Time
}

// NewSignatureConfig creates a signature configuration with defaults.
//
// Defaults: reason "Test Signature", location "Virtual Office", SHA-256,
// automatic placeholder sizing, current wall-clock time.
func NewSignatureConfig() *SignatureConfig {
	return &SignatureConfig{
		reason:          DefaultReason,
		location:        DefaultLocation,
		digestAlgorithm: digests.DefaultAlgorithm,
		clock:           time.Now,
	}
}

// SetFieldName sets the signature field name. Empty generates one.
func (c *SignatureConfig) SetFieldName(name string) *SignatureConfig {
	c.fieldName = name
	return c
}

// SetName sets the signer name written as /Name.
func (c *SignatureConfig) SetName(name string) *SignatureConfig {
	c.name = name
	return c
}

// SetReason sets /Reason.
func (c *SignatureConfig) SetReason(reason string) *SignatureConfig {
	c.reason = reason
	return c
}

// SetLocation sets /Location.
func (c *SignatureConfig) SetLocation(location string) *SignatureConfig {
	c.location = location
	return c
}

// SetContactInfo sets /ContactInfo.
func (c *SignatureConfig) SetContactInfo(info string) *SignatureConfig {
	c.contactInfo = info
	return c
}

// SetDigestAlgorithm selects the digest algorithm.
func (c *SignatureConfig) SetDigestAlgorithm(alg digests.Algorithm) *SignatureConfig {
	c.digestAlgorithm = alg
	return c
}

// SetPlaceholderSize sets an explicit container reservation in bytes.
// Zero restores automatic sizing.
func (c *SignatureConfig) SetPlaceholderSize(size int) *SignatureConfig {
	c.placeholderSize = size
	return c
}

// SetClock replaces the time source used for the signing time.
func (c *SignatureConfig) SetClock(clock func() time.Time) *SignatureConfig {
	c.clock = clock
	return c
}

// DigestAlgorithm returns the configured digest algorithm.
func (c *SignatureConfig) DigestAlgorithm() digests.Algorithm {
	return c.digestAlgorithm
}

// PlaceholderSize returns the explicit reservation, or zero for automatic.
func (c *SignatureConfig) PlaceholderSize() int {
	return c.placeholderSize
}

// Now returns the signing time from the configured clock, truncated to
// whole seconds since both /M and the CMS signing time drop fractions.
func (c *SignatureConfig) Now() time.Time {
	clock := c.clock
	if clock == nil {
		clock = time.Now
	}
	return clock().Truncate(time.Second)
}

// Validate reports configuration errors as signerr.KindConfiguration.
func (c *SignatureConfig) Validate() error {
	if !c.digestAlgorithm.Valid() {
		return signerr.Newf(signerr.KindConfiguration, "unsupported digest algorithm %q (supported: %v)",
			c.digestAlgorithm, digests.Algorithms())
	}
	if c.placeholderSize < 0 || c.placeholderSize > MaxPlaceholderSize {
		return signerr.Newf(signerr.KindConfiguration, "placeholder size %d is outside 0..%d",
			c.placeholderSize, MaxPlaceholderSize)
	}
	return nil
}

// SignatureInfo returns the dictionary metadata for a signature made at signingTime.
func (c *SignatureConfig) SignatureInfo(signingTime time.Time) pdf.SignatureInfo {
	return pdf.SignatureInfo{
		FieldName:   c.fieldName,
		Name:        c.name,
		Reason:      c.reason,
		Location:    c.location,
		ContactInfo: c.contactInfo,
		SigningTime: signingTime,
	}
}
