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

// PlaceholderReserver prepares a document for signing and later embeds
// the finished container.
type PlaceholderReserver interface {
	// Reserve appends a signature field whose contents can hold capacity
	// bytes. The input is not modified.
	Reserve(doc []byte, capacity int, info pdf.SignatureInfo) (*pdf.Prepared, error)
	// Fill writes container into the placeholder of doc in place.
	Fill(doc []byte, ph pdf.Placeholder, container []byte) error
}
