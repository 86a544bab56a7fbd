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

package interfaces

import "github.com/minchaudhary/digital-signature/pkg/pdf"

// SignatureEnumerator lists the signature dictionaries of a document.
type SignatureEnumerator interface {
	FindSignatures(doc []byte) []pdf.SignatureField
}

var (
	_ PlaceholderReserver = pdf.Incremental{}
	_ SignatureEnumerator = pdf.Incremental{}
)
