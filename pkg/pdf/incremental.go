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

package pdf

// Incremental signs through incremental updates, leaving earlier
// revisions byte for byte intact.
type Incremental struct{}

func (Incremental) Reserve(doc []byte, capacity int, info SignatureInfo) (*Prepared, error) {
	return Reserve(doc, capacity, info)
}

func (Incremental) Fill(doc []byte, ph Placeholder, container []byte) error {
	return Fill(doc, ph, container)
}

func (Incremental) FindSignatures(doc []byte) []SignatureField {
	return FindSignatures(doc)
}
