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

// Package interfaces holds the seams between the signing and verification
// workflows and their collaborators.
package interfaces

import (
	"context"

	"github.com/minchaudhary/digital-signature/pkg/keys"
)

// KeyProvider supplies the key material for one signing operation.
//
// The caller owns the returned material and must Close it on every path.
type KeyProvider interface {
	Load(ctx context.Context) (*keys.KeyMaterial, error)
}

// KeyProviderFunc adapts a function to KeyProvider.
type KeyProviderFunc func(ctx context.Context) (*keys.KeyMaterial, error)

// Load calls f.
func (f KeyProviderFunc) Load(ctx context.Context) (*keys.KeyMaterial, error) {
	return f(ctx)
}
