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

package signing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/interfaces"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/pdf"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
	"github.com/minchaudhary/digital-signature/pkg/utils"
)

// outputPerm is the mode of signed documents.
const outputPerm = 0o644

//nolint:revive
type SignerOptions struct {
	InputPath  string
	OutputPath string

	KeyProvider interfaces.KeyProvider
	// Reserver defaults to incremental updates.
	Reserver interfaces.PlaceholderReserver
	// Config defaults to config.NewSignatureConfig().
	Config *config.SignatureConfig
	Logger logging.Logger
}

// DocumentSigner signs the file at InputPath into OutputPath.
type DocumentSigner struct {
	opts     SignerOptions
	logger   logging.Logger
	pipeline *pipeline
}

// NewDocumentSigner validates the options.
func NewDocumentSigner(opts SignerOptions) (*DocumentSigner, error) {
	if err := utils.ValidateFileExists("input document", opts.InputPath); err != nil {
		return nil, signerr.WrapPath(signerr.KindIO, opts.InputPath, "input document", err)
	}
	if err := utils.ValidateOutputPath("output document", opts.OutputPath); err != nil {
		return nil, signerr.WrapPath(signerr.KindIO, opts.OutputPath, "output document", err)
	}
	if utils.SamePath(opts.InputPath, opts.OutputPath) {
		return nil, signerr.New(signerr.KindConfiguration, "output path must differ from the input path")
	}
	if opts.KeyProvider == nil {
		return nil, signerr.New(signerr.KindConfiguration, "a key provider is required")
	}
	if opts.Reserver == nil {
		opts.Reserver = pdf.Incremental{}
	}
	if opts.Config == nil {
		opts.Config = config.NewSignatureConfig()
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := logging.EnsureLogger(opts.Logger)
	return &DocumentSigner{
		opts:     opts,
		logger:   logger,
		pipeline: &pipeline{reserver: opts.Reserver, cfg: opts.Config, logger: logger},
	}, nil
}

// State returns how far the last Sign call progressed.
func (s *DocumentSigner) State() State {
	return s.pipeline.state
}

// Sign runs the full pipeline. On any error no output file exists and the
// error keeps its signerr kind. Key material is closed before returning.
func (s *DocumentSigner) Sign(ctx context.Context) (Result, error) {
	s.pipeline.state = StateStart
	s.logger.Debug("PDF Signing")
	s.logger.Debug("  INPUT:              %s", filepath.Clean(s.opts.InputPath))
	s.logger.Debug("  --output:           %s", filepath.Clean(s.opts.OutputPath))
	s.logger.Debug("  --digest-algorithm: %s", s.opts.Config.DigestAlgorithm())
	s.logger.Debug("  --placeholder-size: %d", s.opts.Config.PlaceholderSize())

	doc, err := os.ReadFile(s.opts.InputPath)
	if err != nil {
		return Result{Message: "Failed to read input document"},
			signerr.WrapPath(signerr.KindIO, s.opts.InputPath, "reading input document", err)
	}

	km, err := s.opts.KeyProvider.Load(ctx)
	if err != nil {
		return Result{Message: fmt.Sprintf("Failed to load key material: %v", err)}, err
	}
	defer func() {
		if cerr := km.Close(); cerr != nil {
			s.logger.Warn("Releasing key material: %v", cerr)
		}
	}()

	signed, err := s.pipeline.run(ctx, doc, km)
	if err != nil {
		return Result{Message: fmt.Sprintf("Signing failed at %q: %v", s.pipeline.state, err)}, err
	}

	s.logger.Info("Step 5: Writing %s...", s.opts.OutputPath)
	if err := utils.WriteFileAtomic(s.opts.OutputPath, signed.Data, outputPerm); err != nil {
		return Result{Message: "Failed to write signed document"},
			signerr.WrapPath(signerr.KindIO, s.opts.OutputPath, "writing signed document", err)
	}
	s.pipeline.advance(StateDone)

	return Result{
		OutputPath:    s.opts.OutputPath,
		FieldName:     signed.FieldName,
		Signer:        km.Certificate.Subject.String(),
		SigningTime:   signed.SigningTime,
		Digest:        signed.Digest.Hex(),
		ContainerSize: signed.ContainerSize,
		Capacity:      signed.Capacity,
		Message:       fmt.Sprintf("Signed %s as %s", s.opts.OutputPath, signed.FieldName),
	}, nil
}
