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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minchaudhary/digital-signature/pkg/cms"
	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	"github.com/minchaudhary/digital-signature/pkg/keys"
	"github.com/minchaudhary/digital-signature/pkg/keys/keystest"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/pdf"
	"github.com/minchaudhary/digital-signature/pkg/pdf/pdftest"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
	"github.com/minchaudhary/digital-signature/pkg/signing"
)

func sign(t *testing.T, doc []byte, km *keys.KeyMaterial) []byte {
	t.Helper()
	signed, err := signing.SignDocument(context.Background(), doc, km, config.NewSignatureConfig())
	require.NoError(t, err)
	return signed.Data
}

func verifyOne(t *testing.T, doc []byte, cfg *config.VerifierConfig) Result {
	t.Helper()
	results, err := VerifyDocument(context.Background(), doc, cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0]
}

func TestVerifyDocument_RoundTrip(t *testing.T) {
	km := keystest.Material(t)
	defer km.Close()
	signed := sign(t, pdftest.Document(1024), km)

	r := verifyOne(t, signed, nil)
	assert.Equal(t, StatusOK, r.Status, r.Message)
	assert.True(t, r.Verified)
	assert.True(t, r.CoversWholeDocument)
	assert.False(t, r.Trusted)
	assert.Equal(t, "Signature1", r.FieldName)
	assert.Contains(t, r.Signer, "CN=Test Certificate")
	assert.Equal(t, digests.SHA256.String(), r.DigestAlgorithm)
	assert.False(t, r.SigningTime.IsZero())
	assert.True(t, r.Certificate.Equal(km.Certificate))
	assert.True(t, AllVerified([]Result{r}))
}

func TestVerifyDocument_Unsigned(t *testing.T) {
	results, err := VerifyDocument(context.Background(), pdftest.Document(0), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.False(t, AllVerified(results))

	results, err = VerifyDocument(context.Background(), []byte("plain text"), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVerifyDocument_Tampering(t *testing.T) {
	km := keystest.Material(t)
	defer km.Close()
	signed := sign(t, pdftest.Document(2048), km)
	field := pdf.FindSignatures(signed)[0]
	container, err := cms.Parse(field.Contents)
	require.NoError(t, err)

	// hexDigit returns the document offset of the first hex digit
	// encoding container byte i.
	hexDigit := func(i int) int64 { return field.ContentsRange.Offset + 1 + 2*int64(i) }
	flipHex := func(doc []byte, pos int64) {
		if doc[pos] == '0' {
			doc[pos] = '1'
		} else {
			doc[pos] = '0'
		}
	}

	tests := []struct {
		name   string
		tamper func(doc []byte) []byte
		want   Status
	}{
		{
			name:   "bit flip before placeholder",
			tamper: func(doc []byte) []byte { doc[100] ^= 0x01; return doc },
			want:   StatusDigestMismatch,
		},
		{
			name: "bit flip after placeholder",
			tamper: func(doc []byte) []byte {
				doc[field.ContentsRange.End()+5] ^= 0x01
				return doc
			},
			want: StatusDigestMismatch,
		},
		{
			name: "signature byte",
			tamper: func(doc []byte) []byte {
				idx := bytes.Index(field.Contents, container.Signature)
				require.Positive(t, idx)
				flipHex(doc, hexDigit(idx+len(container.Signature)/2))
				return doc
			},
			want: StatusSignatureInvalid,
		},
		{
			name: "placeholder padding",
			tamper: func(doc []byte) []byte {
				flipHex(doc, hexDigit(len(field.Contents)-1))
				return doc
			},
			want: StatusSignatureInvalid,
		},
		{
			name: "signed /Contents key",
			tamper: func(doc []byte) []byte {
				doc[field.ContentsRange.Offset-2] ^= 0x01
				return doc
			},
			want: StatusDigestMismatch,
		},
		{
			name: "container header",
			tamper: func(doc []byte) []byte {
				copy(doc[hexDigit(0):], "ffff")
				return doc
			},
			want: StatusSignatureInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.tamper(append([]byte(nil), signed...))
			r := verifyOne(t, doc, nil)
			assert.Equal(t, tt.want, r.Status, r.Message)
			assert.False(t, r.Verified)
		})
	}
}

func TestVerifyDocument_SignatureObjectBitFlips(t *testing.T) {
	km := keystest.Material(t)
	defer km.Close()
	signed := sign(t, pdftest.Document(2048), km)
	field := pdf.FindSignatures(signed)[0]

	start := bytes.LastIndex(signed, []byte(fmt.Sprintf("\n%d %d obj", field.Num, field.Gen))) + 1
	require.Positive(t, start)
	end := start + bytes.Index(signed[start:], []byte("endobj")) + len("endobj")
	require.Greater(t, int64(end), field.ContentsRange.End())

	doc := make([]byte, len(signed))
	for pos := start; pos < end; pos++ {
		if int64(pos) >= field.ContentsRange.Offset && int64(pos) < field.ContentsRange.End() {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			copy(doc, signed)
			doc[pos] ^= 1 << bit

			results, err := VerifyDocument(context.Background(), doc, nil)
			require.NoError(t, err)
			where := fmt.Sprintf("bit %d of offset %d (%q)", bit, pos, signed[pos])
			if !assert.Len(t, results, 1, where) {
				continue
			}
			assert.Equal(t, StatusDigestMismatch, results[0].Status, "%s: %s", where, results[0].Message)
		}
	}
}

func TestVerifyDocument_AppendedData(t *testing.T) {
	km := keystest.Material(t)
	defer km.Close()
	signed := sign(t, pdftest.Document(0), km)
	extended := append(append([]byte(nil), signed...), "% appended later\n"...)

	r := verifyOne(t, extended, nil)
	assert.Equal(t, StatusOK, r.Status)
	assert.False(t, r.CoversWholeDocument)
	assert.Contains(t, r.Message, "does not cover the whole document")
}

func TestVerifyDocument_BadRanges(t *testing.T) {
	km := keystest.Material(t)
	defer km.Close()
	signed := sign(t, pdftest.Document(0), km)

	// Point the second range past the end of the file without moving anything.
	truncated := signed[:len(signed)-10]
	r := verifyOne(t, truncated, nil)
	assert.Equal(t, StatusDigestMismatch, r.Status)
	assert.Contains(t, r.Message, "byte ranges")
}

func TestVerifyDocument_Certificates(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		opts    keystest.CertOptions
		roots   []*x509.Certificate
		clock   time.Time
		want    Status
		trusted bool
	}{
		{
			name: "expired",
			opts: keystest.CertOptions{NotBefore: now.AddDate(-2, 0, 0), NotAfter: now.AddDate(-1, 0, 0)},
			want: StatusCertificateInvalid,
		},
		{
			name: "not yet valid",
			opts: keystest.CertOptions{NotBefore: now.AddDate(0, 1, 0)},
			want: StatusCertificateInvalid,
		},
		{
			name:  "expired relative to verification clock",
			opts:  keystest.CertOptions{},
			clock: now.AddDate(5, 0, 0),
			want:  StatusCertificateInvalid,
		},
		{
			name: "key usage without signing",
			opts: keystest.CertOptions{KeyUsage: x509.KeyUsageKeyEncipherment},
			want: StatusCertificateInvalid,
		},
		{
			name:    "issued by trusted root",
			opts:    keystest.CertOptions{Issued: true},
			roots:   []*x509.Certificate{keystest.RootCA(t)},
			want:    StatusOK,
			trusted: true,
		},
		{
			name: "issued without trust anchors",
			opts: keystest.CertOptions{Issued: true},
			want: StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km := keystest.WithCertificate(t, tt.opts)
			defer km.Close()
			signed := sign(t, pdftest.Document(0), km)

			cfg := config.NewVerifierConfig().AddCertificates(tt.roots...)
			if !tt.clock.IsZero() {
				cfg.SetClock(func() time.Time { return tt.clock })
			}
			r := verifyOne(t, signed, cfg)
			assert.Equal(t, tt.want, r.Status, r.Message)
			assert.Equal(t, tt.trusted, r.Trusted)
		})
	}
}

func TestVerifyDocument_UntrustedRoot(t *testing.T) {
	km := keystest.Material(t)
	defer km.Close()
	signed := sign(t, pdftest.Document(0), km)

	cfg := config.NewVerifierConfig().AddCertificates(keystest.RootCA(t))

	r := verifyOne(t, signed, cfg)
	assert.Equal(t, StatusOK, r.Status)
	assert.False(t, r.Trusted)
	assert.Contains(t, r.Message, "not trusted")
}

// TestSignVerifyScenario signs a 10 KB document with a freshly generated
// PKCS#12 identity, verifies it and then corrupts a byte in the middle.
func TestSignVerifyScenario(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.pdf")
	output := filepath.Join(dir, "signed.pdf")
	doc := pdftest.Document(10 * 1024)
	require.GreaterOrEqual(t, len(doc), 10*1024)
	require.NoError(t, os.WriteFile(input, doc, 0o644))

	provider, err := keys.NewPKCS12Provider(keys.PKCS12Options{
		Path:     filepath.Join(dir, "keystore.p12"),
		Password: "changeit",
		Policy:   keys.PolicyLoadOrGenerate,
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)

	signer, err := signing.NewDocumentSigner(signing.SignerOptions{
		InputPath:   input,
		OutputPath:  output,
		KeyProvider: provider,
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)
	result, err := signer.Sign(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Signer, "CN=Test Certificate")

	signed, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(signed)-len(doc), result.ContainerSize)

	verifier, err := NewDocumentVerifier(VerifierOptions{Path: output, Logger: logging.Discard()})
	require.NoError(t, err)
	results, err := verifier.Verify(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusOK, results[0].Status, results[0].Message)
	assert.Equal(t, 2048, results[0].Certificate.PublicKey.(interface{ Size() int }).Size()*8)

	signed[len(doc)/2] ^= 0xff
	require.NoError(t, os.WriteFile(output, signed, 0o644))
	results, err = verifier.Verify(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusDigestMismatch, results[0].Status)
}

func TestDocumentVerifier_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.pdf")
	_, err := NewDocumentVerifier(VerifierOptions{Path: missing})
	assert.True(t, signerr.IsKind(err, signerr.KindIO), "got %v", err)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Document(0), 0o644))
	v, err := NewDocumentVerifier(VerifierOptions{Path: path, Logger: logging.Discard()})
	require.NoError(t, err)
	results, err := v.Verify(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)

	require.NoError(t, os.Remove(path))
	_, err = v.Verify(context.Background())
	assert.True(t, signerr.IsKind(err, signerr.KindIO), "got %v", err)
}

func TestResultRendering(t *testing.T) {
	r := Result{FieldName: "Signature1", Status: StatusDigestMismatch, Message: "bytes changed"}
	assert.Equal(t, "Signature1: digest mismatch - bytes changed", r.String())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"status":"digest mismatch"`)
	assert.Equal(t, "Status(9)", Status(9).String())
}
