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

package cms

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"

	internalcrypto "github.com/minchaudhary/digital-signature/internal/crypto"
	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

var (
	tagContext1     = cbasn1.Tag(1).ContextSpecific().Constructed()
	tagSubjectKeyID = cbasn1.Tag(0).ContextSpecific()

	errMissingSignedAttrs = errors.New("signer info has no signed attributes")
)

// Container is a parsed SignedData with a single signer.
type Container struct {
	// DigestAlgorithm is the signer's digest algorithm.
	DigestAlgorithm digests.Algorithm

	// Digest is the message-digest signed attribute: the digest of the
	// signed byte ranges as claimed by the signer.
	Digest digests.Digest

	// Certificate is the signer's certificate.
	Certificate *x509.Certificate

	// Certificates holds every embedded certificate, signer included.
	Certificates []*x509.Certificate

	// Signature is the RSA signature over SignedAttributes.
	Signature []byte

	// SignedAttributes is the DER SET OF signed attributes, the exact
	// bytes the signature covers.
	SignedAttributes []byte

	// SigningTime is the signing-time attribute, zero when absent.
	SigningTime time.Time

	// SignatureAlgorithm is the signer's signature algorithm identifier.
	SignatureAlgorithm asn1.ObjectIdentifier

	// SignerCount is the number of signer infos present. Only the first
	// is decoded.
	SignerCount int
}

// Parse decodes a DER SignedData. Trailing zero bytes, as left by an
// oversized placeholder, are ignored. Any structural problem, an
// unrecognized digest algorithm or a missing signer certificate is
// reported as signerr.KindMalformedContainer.
func Parse(der []byte) (*Container, error) {
	c, err := parse(der)
	if err != nil {
		return nil, signerr.Wrap(signerr.KindMalformedContainer, "parsing signature container", err)
	}
	return c, nil
}

func parse(der []byte) (*Container, error) {
	input := cryptobyte.String(der)
	var contentInfo cryptobyte.String
	if !input.ReadASN1(&contentInfo, cbasn1.SEQUENCE) {
		return nil, errors.New("not a DER ContentInfo")
	}
	if len(bytes.Trim(input, "\x00")) != 0 {
		return nil, errors.New("trailing data after ContentInfo")
	}

	var contentType asn1.ObjectIdentifier
	if !contentInfo.ReadASN1ObjectIdentifier(&contentType) {
		return nil, errors.New("reading content type")
	}
	if !contentType.Equal(oidSignedData) {
		return nil, fmt.Errorf("content type %v is not SignedData", contentType)
	}

	var explicit, sd cryptobyte.String
	if !contentInfo.ReadASN1(&explicit, tagContext0) || !explicit.ReadASN1(&sd, cbasn1.SEQUENCE) {
		return nil, errors.New("reading SignedData")
	}

	var version int
	var digestAlgs, encap cryptobyte.String
	if !sd.ReadASN1Integer(&version) ||
		!sd.ReadASN1(&digestAlgs, cbasn1.SET) ||
		!sd.ReadASN1(&encap, cbasn1.SEQUENCE) {
		return nil, errors.New("reading SignedData header")
	}
	var eContentType asn1.ObjectIdentifier
	if !encap.ReadASN1ObjectIdentifier(&eContentType) {
		return nil, errors.New("reading encapsulated content type")
	}
	if !encap.Empty() {
		return nil, errors.New("container is not detached: encapsulated content present")
	}

	c := &Container{}
	if sd.PeekASN1Tag(tagContext0) {
		var certs cryptobyte.String
		if !sd.ReadASN1(&certs, tagContext0) {
			return nil, errors.New("reading certificates")
		}
		for !certs.Empty() {
			var raw cryptobyte.String
			if !certs.ReadASN1Element(&raw, cbasn1.SEQUENCE) {
				return nil, errors.New("reading certificate")
			}
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return nil, fmt.Errorf("parsing certificate: %w", err)
			}
			c.Certificates = append(c.Certificates, cert)
		}
	}
	if !sd.SkipOptionalASN1(tagContext1) {
		return nil, errors.New("reading revocation info")
	}

	var signerInfos cryptobyte.String
	if !sd.ReadASN1(&signerInfos, cbasn1.SET) {
		return nil, errors.New("reading signer infos")
	}
	var first cryptobyte.String
	for !signerInfos.Empty() {
		var si cryptobyte.String
		if !signerInfos.ReadASN1(&si, cbasn1.SEQUENCE) {
			return nil, errors.New("reading signer info")
		}
		if c.SignerCount == 0 {
			first = si
		}
		c.SignerCount++
	}
	if c.SignerCount == 0 {
		return nil, errors.New("container has no signer")
	}

	if err := c.parseSignerInfo(first); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) parseSignerInfo(si cryptobyte.String) error {
	var version int
	if !si.ReadASN1Integer(&version) {
		return errors.New("reading signer info version")
	}

	var issuer cryptobyte.String
	serial := new(big.Int)
	var subjectKeyID cryptobyte.String
	switch {
	case si.PeekASN1Tag(cbasn1.SEQUENCE):
		var sid cryptobyte.String
		if !si.ReadASN1(&sid, cbasn1.SEQUENCE) ||
			!sid.ReadASN1Element(&issuer, cbasn1.SEQUENCE) ||
			!sid.ReadASN1Integer(serial) {
			return errors.New("reading issuer and serial number")
		}
	case si.PeekASN1Tag(tagSubjectKeyID):
		if !si.ReadASN1(&subjectKeyID, tagSubjectKeyID) {
			return errors.New("reading subject key identifier")
		}
	default:
		return errors.New("unrecognized signer identifier")
	}

	var digestAlg cryptobyte.String
	var digestOIDValue asn1.ObjectIdentifier
	if !si.ReadASN1(&digestAlg, cbasn1.SEQUENCE) || !digestAlg.ReadASN1ObjectIdentifier(&digestOIDValue) {
		return errors.New("reading digest algorithm")
	}
	alg, ok := algorithmForOID(digestOIDValue)
	if !ok {
		return fmt.Errorf("unrecognized digest algorithm %v", digestOIDValue)
	}
	c.DigestAlgorithm = alg

	if !si.PeekASN1Tag(tagContext0) {
		return errMissingSignedAttrs
	}
	var attrsElement cryptobyte.String
	if !si.ReadASN1Element(&attrsElement, tagContext0) {
		return errors.New("reading signed attributes")
	}
	if err := c.parseSignedAttributes(attrsElement); err != nil {
		return err
	}

	var sigAlg cryptobyte.String
	if !si.ReadASN1(&sigAlg, cbasn1.SEQUENCE) || !sigAlg.ReadASN1ObjectIdentifier(&c.SignatureAlgorithm) {
		return errors.New("reading signature algorithm")
	}
	var sig cryptobyte.String
	if !si.ReadASN1(&sig, cbasn1.OCTET_STRING) {
		return errors.New("reading signature value")
	}
	c.Signature = append([]byte{}, sig...)

	if len(subjectKeyID) > 0 {
		c.Certificate = c.findBySubjectKeyID(subjectKeyID)
	} else {
		c.Certificate = c.findByIssuerSerial(issuer, serial)
	}
	if c.Certificate == nil {
		return errors.New("signer certificate not present in container")
	}
	return nil
}

// parseSignedAttributes decodes the [0] IMPLICIT signed attributes and
// keeps their SET OF re-encoding for signature verification.
func (c *Container) parseSignedAttributes(element cryptobyte.String) error {
	signed := append([]byte{}, element...)
	signed[0] = byte(cbasn1.SET)
	c.SignedAttributes = signed

	var attrs cryptobyte.String
	if !element.ReadASN1(&attrs, tagContext0) {
		return errors.New("reading signed attributes")
	}

	var haveDigest bool
	for !attrs.Empty() {
		var attr, values cryptobyte.String
		var attrType asn1.ObjectIdentifier
		if !attrs.ReadASN1(&attr, cbasn1.SEQUENCE) ||
			!attr.ReadASN1ObjectIdentifier(&attrType) ||
			!attr.ReadASN1(&values, cbasn1.SET) {
			return errors.New("reading signed attribute")
		}

		switch {
		case attrType.Equal(oidAttributeMessageDigest):
			var md cryptobyte.String
			if !values.ReadASN1(&md, cbasn1.OCTET_STRING) {
				return errors.New("reading message digest attribute")
			}
			if len(md) != c.DigestAlgorithm.Size() {
				return fmt.Errorf("message digest is %d bytes, %s produces %d",
					len(md), c.DigestAlgorithm, c.DigestAlgorithm.Size())
			}
			c.Digest = digests.NewDigest(c.DigestAlgorithm, md)
			haveDigest = true
		case attrType.Equal(oidAttributeSigningTime):
			var t time.Time
			var ok bool
			switch {
			case values.PeekASN1Tag(cbasn1.UTCTime):
				ok = values.ReadASN1UTCTime(&t)
			case values.PeekASN1Tag(cbasn1.GeneralizedTime):
				ok = values.ReadASN1GeneralizedTime(&t)
			}
			if !ok {
				return errors.New("reading signing time attribute")
			}
			c.SigningTime = t
		case attrType.Equal(oidAttributeContentType):
			var ct asn1.ObjectIdentifier
			if !values.ReadASN1ObjectIdentifier(&ct) {
				return errors.New("reading content type attribute")
			}
			if !ct.Equal(oidData) {
				return fmt.Errorf("signed content type %v is not data", ct)
			}
		}
	}
	if !haveDigest {
		return errors.New("signed attributes carry no message digest")
	}
	return nil
}

func (c *Container) findByIssuerSerial(issuer []byte, serial *big.Int) *x509.Certificate {
	for _, cert := range c.Certificates {
		if bytes.Equal(cert.RawIssuer, issuer) && cert.SerialNumber.Cmp(serial) == 0 {
			return cert
		}
	}
	return nil
}

func (c *Container) findBySubjectKeyID(id []byte) *x509.Certificate {
	for _, cert := range c.Certificates {
		if bytes.Equal(cert.SubjectKeyId, id) {
			return cert
		}
	}
	return nil
}

// Chain returns the embedded certificates other than the signer's.
func (c *Container) Chain() []*x509.Certificate {
	var chain []*x509.Certificate
	for _, cert := range c.Certificates {
		if cert != c.Certificate {
			chain = append(chain, cert)
		}
	}
	return chain
}

// VerifySignature checks the signer's RSA signature over the signed
// attributes using the public key of the embedded certificate.
func (c *Container) VerifySignature() error {
	if !isRSASignatureOID(c.SignatureAlgorithm) {
		return signerr.Newf(signerr.KindUnsupportedAlgorithm,
			"unsupported signature algorithm %v", c.SignatureAlgorithm)
	}
	if c.Certificate == nil {
		return signerr.New(signerr.KindMalformedContainer, "no signer certificate")
	}
	return internalcrypto.VerifyPKCS1v15(c.Certificate.PublicKey, c.DigestAlgorithm.Hash(),
		c.SignedAttributes, c.Signature)
}
