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

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/minchaudhary/digital-signature/cmd/pdf-signing/cli/options"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/tracing"
	"github.com/minchaudhary/digital-signature/pkg/verify"
)

// Verify creates the verify command.
//
// It prints one line per signature, or a JSON array with --json, and
// exits with ExitFailure unless at least one signature was found and all
// of them verified.
func Verify(ro *options.RootOptions) *cobra.Command {
	o := &options.VerifyOptions{}

	long := `Verify the signatures of a PDF document.

    Every signature of DOCUMENT is checked: the digest of its byte ranges must
    match the signed digest, the CMS signature must verify with the embedded
    certificate, and that certificate must be valid now and allowed to sign
    documents.

    To also check the root of trust, pass trusted certificates using
    --certificate-chain (this option can be repeated as needed, or all
    certificates could be placed in a single file). Self-signed certificates
    become trust anchors. Results then report whether the signer is trusted.

    The command fails when the document has no signature or any signature
    does not verify.`

	cmd := &cobra.Command{
		Use:   "verify [OPTIONS] DOCUMENT",
		Short: "Verify PDF signatures.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			logger := ro.NewObservability(cmd.ErrOrStderr()).Logger
			opts, err := o.ToStandardOptions(path, logger)
			if err != nil {
				return withExitCode(err)
			}
			attrs := map[string]interface{}{
				"pdf_signing.document":          path,
				"pdf_signing.certificate_chain": o.CertificateChain,
			}
			err = tracing.Run(cmd.Context(), "Verify", attrs, func(ctx context.Context) error {
				verifier, err := verify.NewDocumentVerifier(opts)
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(ctx, ro.Timeout)
				defer cancel()

				results, err := verifier.Verify(ctx)
				if err != nil {
					return err
				}
				if o.JSON {
					if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
						return err
					}
				} else if ro.GetLogLevel() < logging.LevelSilent {
					writeResults(cmd.OutOrStdout(), results)
				}
				return verdict(results)
			})
			return withExitCode(err)
		},
	}

	o.AddFlags(cmd)
	return cmd
}

func writeResults(w io.Writer, results []verify.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No signatures found")
		return
	}
	for _, r := range results {
		fmt.Fprintln(w, r.String())
	}
}

func writeJSON(w io.Writer, results []verify.Result) error {
	if results == nil {
		results = []verify.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// verdict converts the results into the command error.
func verdict(results []verify.Result) error {
	if verify.AllVerified(results) {
		return nil
	}
	if len(results) == 0 {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("no signatures found")}
	}
	failed := 0
	for _, r := range results {
		if !r.Verified {
			failed++
		}
	}
	return &ExitError{Code: ExitFailure,
		Err: fmt.Errorf("%d of %d signatures failed verification", failed, len(results))}
}
