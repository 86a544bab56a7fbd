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

// Package verify checks the signatures embedded in PDF documents.
//
// Verification failures are results, not errors: each signature yields a
// Result whose Status says whether the signed bytes, the signature and the
// certificate hold up. Errors are returned only when the document itself
// cannot be read.
package verify

import (
	"context"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	hashio "github.com/minchaudhary/digital-signature/pkg/hashing/engines/io"
)

// Status is the outcome of verifying one signature.
type Status int

const (
	StatusOK Status = iota
	StatusDigestMismatch
	StatusSignatureInvalid
	StatusCertificateInvalid
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDigestMismatch:
		return "digest mismatch"
	case StatusSignatureInvalid:
		return "signature invalid"
	case StatusCertificateInvalid:
		return "certificate invalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText renders the status for JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the verdict for one signature.
type Result struct {
	FieldName string `json:"field_name"`
	Status    Status `json:"status"`
	// Verified is Status == StatusOK.
	Verified bool   `json:"verified"`
	Message  string `json:"message"`

	Signer          string             `json:"signer,omitempty"`
	Issuer          string             `json:"issuer,omitempty"`
	SigningTime     time.Time          `json:"signing_time"`
	DigestAlgorithm string             `json:"digest_algorithm,omitempty"`
	ByteRanges      []hashio.ByteRange `json:"byte_ranges,omitempty"`
	// CoversWholeDocument is false when bytes were appended after signing.
	CoversWholeDocument bool `json:"covers_whole_document"`
	// Trusted is set when the certificate chains to a configured root.
	Trusted bool `json:"trusted"`

	Certificate *x509.Certificate `json:"-"`
}

func (r Result) String() string {
	var b strings.Builder
	name := r.FieldName
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "%s: %s", name, r.Status)
	if r.Signer != "" {
		fmt.Fprintf(&b, " [signer: %s]", r.Signer)
	}
	if r.Message != "" {
		fmt.Fprintf(&b, " - %s", r.Message)
	}
	return b.String()
}

// AllVerified reports whether results is non-empty and every result is ok.
func AllVerified(results []Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Verified {
			return false
		}
	}
	return true
}

// Verifier verifies every signature of one document.
type Verifier interface {
	Verify(ctx context.Context) ([]Result, error)
}

var _ Verifier = (*DocumentVerifier)(nil)
