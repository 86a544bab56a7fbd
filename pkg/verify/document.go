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

package verify

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minchaudhary/digital-signature/pkg/cms"
	"github.com/minchaudhary/digital-signature/pkg/config"
	hashio "github.com/minchaudhary/digital-signature/pkg/hashing/engines/io"
	"github.com/minchaudhary/digital-signature/pkg/interfaces"
	"github.com/minchaudhary/digital-signature/pkg/pdf"
	"github.com/minchaudhary/digital-signature/pkg/tracing"
)

// VerifyDocument verifies every signature in doc. A nil cfg checks
// certificates against the current time with no trust anchors. An
// unsigned document yields no results.
func VerifyDocument(ctx context.Context, doc []byte, cfg *config.VerifierConfig) ([]Result, error) {
	return verifyAll(ctx, doc, pdf.Incremental{}, cfg)
}

func verifyAll(ctx context.Context, doc []byte, enum interfaces.SignatureEnumerator, cfg *config.VerifierConfig) ([]Result, error) {
	if cfg == nil {
		cfg = config.NewVerifierConfig()
	}
	fields := enum.FindSignatures(doc)
	results := make([]Result, 0, len(fields))
	for i := range fields {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r Result
		// The error only marks the span as failed; r carries the outcome.
		_ = tracing.Run(ctx, "pdf.verify_signature", map[string]interface{}{"pdf.field": fields[i].FieldName},
			func(context.Context) error {
				r = verifyField(doc, &fields[i], cfg)
				if !r.Verified {
					return errors.New(r.Status.String())
				}
				return nil
			})
		results = append(results, r)
	}
	return results, nil
}

// verifyField runs the checks in order; the first failure decides the status.
func verifyField(doc []byte, f *pdf.SignatureField, cfg *config.VerifierConfig) Result {
	size := int64(len(doc))
	r := Result{
		FieldName:           f.FieldName,
		ByteRanges:          f.ByteRanges,
		SigningTime:         f.SigningTime,
		CoversWholeDocument: f.CoversWholeDocument(size),
	}
	fail := func(s Status, format string, args ...interface{}) Result {
		r.Status = s
		r.Message = fmt.Sprintf(format, args...)
		return r
	}

	if len(f.ByteRanges) == 0 {
		return fail(StatusDigestMismatch, "signature has no usable /ByteRange: %v", f.Err)
	}
	if err := hashio.ValidateRanges(f.ByteRanges, size); err != nil {
		return fail(StatusDigestMismatch, "byte ranges do not fit the document: %v", err)
	}
	if !hashio.Ordered(f.ByteRanges) {
		return fail(StatusDigestMismatch, "byte ranges overlap or are out of order")
	}
	if !excludesOnlyContents(f) {
		return fail(StatusDigestMismatch, "byte ranges do not leave out exactly the /Contents string")
	}
	if f.Contents == nil {
		return fail(StatusSignatureInvalid, "signature has no readable /Contents: %v", f.Err)
	}

	container, err := cms.Parse(f.Contents)
	if err != nil {
		return fail(StatusSignatureInvalid, "malformed signature container: %v", err)
	}
	cert := container.Certificate
	r.Certificate = cert
	r.Signer = cert.Subject.String()
	r.Issuer = cert.Issuer.String()
	r.DigestAlgorithm = container.DigestAlgorithm.String()
	if !container.SigningTime.IsZero() {
		r.SigningTime = container.SigningTime
	}

	digest, err := hashio.DigestRanges(bytes.NewReader(doc), size, f.ByteRanges, container.DigestAlgorithm)
	if err != nil {
		return fail(StatusDigestMismatch, "hashing byte ranges: %v", err)
	}
	if !digest.Equal(container.Digest) {
		return fail(StatusDigestMismatch, "document digest %s does not match signed digest %s",
			digest.Hex(), container.Digest.Hex())
	}

	if err := container.VerifySignature(); err != nil {
		return fail(StatusSignatureInvalid, "signature does not verify: %v", err)
	}

	if err := checkCertificate(cert, cfg.Now()); err != nil {
		return fail(StatusCertificateInvalid, "%v", err)
	}

	var notes []string
	if cfg.HasTrustAnchors() {
		if err := verifyChain(cert, container.Chain(), cfg); err != nil {
			notes = append(notes, fmt.Sprintf("certificate is not trusted: %v", err))
		} else {
			r.Trusted = true
		}
	}
	if !r.CoversWholeDocument {
		notes = append(notes, "signature does not cover the whole document")
	}

	r.Status = StatusOK
	r.Verified = true
	r.Message = "signature verified"
	if len(notes) > 0 {
		r.Message += "; " + strings.Join(notes, "; ")
	}
	return r
}

// excludesOnlyContents reports whether the single hole between the first
// and last byte range is the /Contents string. Any other hole means bytes
// of the signed revision are not covered by the digest.
func excludesOnlyContents(f *pdf.SignatureField) bool {
	first := f.ByteRanges[0]
	last := f.ByteRanges[len(f.ByteRanges)-1]
	var holes []hashio.ByteRange
	for _, g := range hashio.Gaps(f.ByteRanges, last.End()) {
		if g.Offset >= first.Offset {
			holes = append(holes, g)
		}
	}
	return len(holes) == 1 && holes[0] == f.ContentsRange
}

// checkCertificate requires the certificate to be valid at now and, when
// key usage is present, to allow digital signatures or non-repudiation.
func checkCertificate(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not valid until %s", cert.NotBefore.UTC().Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired at %s", cert.NotAfter.UTC().Format(time.RFC3339))
	}
	const signing = x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment
	if cert.KeyUsage != 0 && cert.KeyUsage&signing == 0 {
		return errors.New("certificate key usage does not permit signing")
	}
	return nil
}

func verifyChain(cert *x509.Certificate, embedded []*x509.Certificate, cfg *config.VerifierConfig) error {
	intermediates := x509.NewCertPool()
	if pool := cfg.Intermediates(); pool != nil {
		intermediates = pool.Clone()
	}
	for _, c := range embedded {
		intermediates.AddCert(c)
	}
	_, err := cert.Verify(x509.VerifyOptions{
		Roots:         cfg.Roots(),
		Intermediates: intermediates,
		CurrentTime:   cfg.Now(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	return err
}
