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
	"context"
	"os"
	"path/filepath"

	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/interfaces"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/pdf"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
	"github.com/minchaudhary/digital-signature/pkg/utils"
)

//nolint:revive
type VerifierOptions struct {
	Path string
	// Config defaults to config.NewVerifierConfig().
	Config *config.VerifierConfig
	// Enumerator defaults to pdf.Incremental.
	Enumerator interfaces.SignatureEnumerator
	Logger     logging.Logger
}

// DocumentVerifier verifies the signatures of the document at Path.
type DocumentVerifier struct {
	opts   VerifierOptions
	logger logging.Logger
}

// NewDocumentVerifier checks that the document exists.
func NewDocumentVerifier(opts VerifierOptions) (*DocumentVerifier, error) {
	if err := utils.ValidateFileExists("document", opts.Path); err != nil {
		return nil, signerr.WrapPath(signerr.KindIO, opts.Path, "document", err)
	}
	if opts.Config == nil {
		opts.Config = config.NewVerifierConfig()
	}
	if opts.Enumerator == nil {
		opts.Enumerator = pdf.Incremental{}
	}
	return &DocumentVerifier{opts: opts, logger: logging.EnsureLogger(opts.Logger)}, nil
}

// Verify returns one result per signature, in file order. Only a failure
// to read the document is an error.
func (v *DocumentVerifier) Verify(ctx context.Context) ([]Result, error) {
	v.logger.Debug("PDF Verification")
	v.logger.Debug("  DOCUMENT:           %s", filepath.Clean(v.opts.Path))
	v.logger.Debug("  --certificate-chain: %v", v.opts.Config.HasTrustAnchors())

	v.logger.Info("Step 1: Reading document...")
	doc, err := os.ReadFile(v.opts.Path)
	if err != nil {
		return nil, signerr.WrapPath(signerr.KindIO, v.opts.Path, "reading document", err)
	}

	v.logger.Info("Step 2: Verifying signatures...")
	results, err := verifyAll(ctx, doc, v.opts.Enumerator, v.opts.Config)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		v.logger.Warnln("  No signatures found")
		return results, nil
	}
	for _, r := range results {
		if r.Verified {
			v.logger.Info("  %s", r)
		} else {
			v.logger.Warn("  %s", r)
		}
	}
	return results, nil
}
