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

// Package cms builds and parses the detached CMS SignedData containers
// (RFC 5652) embedded in PDF signature dictionaries.
//
// A container has exactly one signer, identified by issuer and serial
// number, and always carries signed attributes: content type, signing
// time and the message digest of the signed byte ranges. The signature is
// RSA PKCS#1 v1.5 over the DER encoding of those attributes.
package cms

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/asn1"
	"sort"
	"time"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	internalcrypto "github.com/minchaudhary/digital-signature/internal/crypto"
	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	hashengines "github.com/minchaudhary/digital-signature/pkg/hashing/engines"
	_ "github.com/minchaudhary/digital-signature/pkg/hashing/engines/memory" // register SHA-2 engines
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// tagContext0 is the [0] constructed tag.
var tagContext0 = cbasn1.Tag(0).ContextSpecific().Constructed()

// BuildOptions carries the optional inputs of Build.
type BuildOptions struct {
	// SigningTime is recorded as the signing-time attribute.
	// Zero uses the current time.
	SigningTime time.Time

	// Chain holds intermediate certificates embedded after the signer's.
	Chain []*x509.Certificate
}

// Build produces a DER-encoded detached SignedData over digest.
//
// signer must hold the private key matching cert. Non-RSA keys fail with
// signerr.KindUnsupportedKeyType; failures of the key itself are reported
// as signerr.KindSigning.
func Build(digest digests.Digest, signer crypto.Signer, cert *x509.Certificate, opts BuildOptions) ([]byte, error) {
	alg := digest.Algorithm()
	digestAlgID, ok := digestOID(alg)
	if !ok {
		return nil, signerr.Newf(signerr.KindUnsupportedAlgorithm, "unsupported digest algorithm %q", alg)
	}
	if digest.Size() != alg.Size() {
		return nil, signerr.Newf(signerr.KindSigning,
			"%s digest is %d bytes, want %d", alg, digest.Size(), alg.Size())
	}
	if cert == nil {
		return nil, signerr.New(signerr.KindSigning, "no signer certificate")
	}
	if signer == nil {
		return nil, signerr.New(signerr.KindSigning, "no signing key")
	}
	if _, err := internalcrypto.RequireRSA(signer.Public()); err != nil {
		return nil, err
	}
	if err := cryptoutils.EqualKeys(signer.Public(), cert.PublicKey); err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "signing key does not match the certificate", err)
	}

	signingTime := opts.SigningTime
	if signingTime.IsZero() {
		signingTime = time.Now()
	}

	attrs, err := signedAttributes(digest.Value(), signingTime.UTC())
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "encoding signed attributes", err)
	}

	attrsDigest, err := hashBytes(alg, attrs)
	if err != nil {
		return nil, err
	}
	sig, err := internalcrypto.SignDigest(signer, alg.Hash(), attrsDigest)
	if err != nil {
		return nil, err
	}

	// The signed form is a SET OF; inside SignerInfo the same content is
	// tagged [0] IMPLICIT.
	attrsImplicit := append([]byte{}, attrs...)
	attrsImplicit[0] = byte(tagContext0)

	certs := append([]*x509.Certificate{cert}, opts.Chain...)

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(ci *cryptobyte.Builder) {
		ci.AddASN1ObjectIdentifier(oidSignedData)
		ci.AddASN1(tagContext0, func(explicit *cryptobyte.Builder) {
			explicit.AddASN1(cbasn1.SEQUENCE, func(sd *cryptobyte.Builder) {
				sd.AddASN1Int64(1)
				sd.AddASN1(cbasn1.SET, func(set *cryptobyte.Builder) {
					addAlgorithmIdentifier(set, digestAlgID, false)
				})
				sd.AddASN1(cbasn1.SEQUENCE, func(eci *cryptobyte.Builder) {
					eci.AddASN1ObjectIdentifier(oidData)
				})
				sd.AddASN1(tagContext0, func(cs *cryptobyte.Builder) {
					for _, c := range certs {
						cs.AddBytes(c.Raw)
					}
				})
				sd.AddASN1(cbasn1.SET, func(sis *cryptobyte.Builder) {
					sis.AddASN1(cbasn1.SEQUENCE, func(si *cryptobyte.Builder) {
						si.AddASN1Int64(1)
						si.AddASN1(cbasn1.SEQUENCE, func(sid *cryptobyte.Builder) {
							sid.AddBytes(cert.RawIssuer)
							sid.AddASN1BigInt(cert.SerialNumber)
						})
						addAlgorithmIdentifier(si, digestAlgID, false)
						si.AddBytes(attrsImplicit)
						addAlgorithmIdentifier(si, oidRSAEncryption, true)
						si.AddASN1OctetString(sig)
					})
				})
			})
		})
	})

	out, err := b.Bytes()
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "encoding SignedData", err)
	}
	return out, nil
}

func addAlgorithmIdentifier(b *cryptobyte.Builder, oid asn1.ObjectIdentifier, nullParams bool) {
	b.AddASN1(cbasn1.SEQUENCE, func(alg *cryptobyte.Builder) {
		alg.AddASN1ObjectIdentifier(oid)
		if nullParams {
			alg.AddASN1NULL()
		}
	})
}

// signedAttributes returns the DER SET OF the three signed attributes.
// DER requires SET OF members sorted by their encodings.
func signedAttributes(messageDigest []byte, signingTime time.Time) ([]byte, error) {
	encoded := make([][]byte, 0, 3)
	values := []struct {
		oid asn1.ObjectIdentifier
		add func(*cryptobyte.Builder)
	}{
		{oidAttributeContentType, func(b *cryptobyte.Builder) { b.AddASN1ObjectIdentifier(oidData) }},
		{oidAttributeSigningTime, func(b *cryptobyte.Builder) { addTime(b, signingTime) }},
		{oidAttributeMessageDigest, func(b *cryptobyte.Builder) { b.AddASN1OctetString(messageDigest) }},
	}
	for _, v := range values {
		var b cryptobyte.Builder
		b.AddASN1(cbasn1.SEQUENCE, func(attr *cryptobyte.Builder) {
			attr.AddASN1ObjectIdentifier(v.oid)
			attr.AddASN1(cbasn1.SET, v.add)
		})
		der, err := b.Bytes()
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, der)
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SET, func(set *cryptobyte.Builder) {
		for _, der := range encoded {
			set.AddBytes(der)
		}
	})
	return b.Bytes()
}

// addTime encodes t as UTCTime, or GeneralizedTime outside 1950-2049.
func addTime(b *cryptobyte.Builder, t time.Time) {
	if t.Year() >= 1950 && t.Year() < 2050 {
		b.AddASN1UTCTime(t)
		return
	}
	b.AddASN1GeneralizedTime(t)
}

// hashBytes digests data with the registered engine for alg.
func hashBytes(alg digests.Algorithm, data []byte) ([]byte, error) {
	engine, err := hashengines.Create(alg)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindUnsupportedAlgorithm, "creating hash engine", err)
	}
	engine.Update(data)
	d, err := engine.Compute()
	if err != nil {
		return nil, signerr.Wrap(signerr.KindSigning, "hashing signed attributes", err)
	}
	return d.Value(), nil
}
