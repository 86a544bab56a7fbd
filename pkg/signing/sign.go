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

// Package signing embeds detached CMS signatures into PDF documents.
package signing

import (
	"context"
	"time"
)

// Result describes a completed signing operation.
type Result struct {
	OutputPath string
	FieldName  string
	// Signer is the subject of the signing certificate.
	Signer      string
	SigningTime time.Time
	// Digest is the hex digest of the signed byte ranges.
	Digest        string
	ContainerSize int
	Capacity      int
	Message       string
}

// Signer signs one document end to end.
type Signer interface {
	Sign(ctx context.Context) (Result, error)
}

var _ Signer = (*DocumentSigner)(nil)
