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
	"encoding/asn1"

	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
)

var (
	oidData       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}

	oidAttributeContentType   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 3}
	oidAttributeMessageDigest = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 4}
	oidAttributeSigningTime   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 5}

	oidRSAEncryption   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}
	oidSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	oidSHA384WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	oidSHA512WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	rsaSignatureOIDs   = []asn1.ObjectIdentifier{oidRSAEncryption, oidSHA256WithRSA, oidSHA384WithRSA, oidSHA512WithRSA}
	digestAlgorithmIDs = map[digests.Algorithm]asn1.ObjectIdentifier{
		digests.SHA256: {2, 16, 840, 1, 101, 3, 4, 2, 1},
		digests.SHA384: {2, 16, 840, 1, 101, 3, 4, 2, 2},
		digests.SHA512: {2, 16, 840, 1, 101, 3, 4, 2, 3},
	}
)

// digestOID returns the object identifier of alg.
func digestOID(alg digests.Algorithm) (asn1.ObjectIdentifier, bool) {
	oid, ok := digestAlgorithmIDs[alg]
	return oid, ok
}

// algorithmForOID maps a digest algorithm identifier back to its name.
func algorithmForOID(oid asn1.ObjectIdentifier) (digests.Algorithm, bool) {
	for alg, id := range digestAlgorithmIDs {
		if id.Equal(oid) {
			return alg, true
		}
	}
	return "", false
}

func isRSASignatureOID(oid asn1.ObjectIdentifier) bool {
	for _, id := range rsaSignatureOIDs {
		if id.Equal(oid) {
			return true
		}
	}
	return false
}
