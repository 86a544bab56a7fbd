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

package options

import (
	"github.com/spf13/cobra"

	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/verify"
)

type VerifyOptions struct {
	CertificateChain []string // --certificate-chain
	JSON             bool     // --json
}

func (o *VerifyOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&o.CertificateChain, "certificate-chain", nil,
		"File paths of trusted certificates. Self-signed ones become roots, the rest intermediates.")
	cmd.Flags().BoolVar(&o.JSON, "json", false, "Print results as JSON.")
}

// ToStandardOptions converts CLI options to library options for document verification.
func (o *VerifyOptions) ToStandardOptions(path string, logger logging.Logger) (verify.VerifierOptions, error) {
	cfg := config.NewVerifierConfig()
	if err := cfg.AddTrustedCertificates(o.CertificateChain...); err != nil {
		return verify.VerifierOptions{}, err
	}
	return verify.VerifierOptions{
		Path:   path,
		Config: cfg,
		Logger: logger,
	}, nil
}
