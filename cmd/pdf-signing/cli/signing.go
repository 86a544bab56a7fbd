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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minchaudhary/digital-signature/cmd/pdf-signing/cli/options"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/signing"
	"github.com/minchaudhary/digital-signature/pkg/tracing"
)

// runSign signs the document at inputPath with the key of o.
// Shared by every signing subcommand and by Sign (default).
func runSign(cmd *cobra.Command, ro *options.RootOptions, o options.SignOptions, inputPath string) error {
	logger := ro.NewObservability(cmd.ErrOrStderr()).Logger
	sigFlags, out := o.Signature()

	cfg, err := sigFlags.ToSignatureConfig(cmd.Flags())
	if err != nil {
		return withExitCode(err)
	}
	provider, err := o.KeyProvider(logger)
	if err != nil {
		return withExitCode(err)
	}
	opts := options.ToStandardOptions(o, inputPath, cfg, provider, logger)

	attrs := map[string]interface{}{
		"pdf_signing.method":           o.Method(),
		"pdf_signing.input":            inputPath,
		"pdf_signing.output":           out.OutputPath,
		"pdf_signing.digest_algorithm": cfg.DigestAlgorithm().String(),
		"pdf_signing.placeholder_size": cfg.PlaceholderSize(),
		"pdf_signing.profile":          sigFlags.ProfilePath,
	}
	err = tracing.Run(cmd.Context(), "Sign", attrs, func(ctx context.Context) error {
		signer, err := signing.NewDocumentSigner(opts)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, ro.Timeout)
		defer cancel()

		result, err := signer.Sign(ctx)
		if ro.GetLogLevel() < logging.LevelSilent {
			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		}
		return err
	})
	return withExitCode(err)
}

// NewPKCS12Signer creates the pkcs12 subcommand for document signing.
// The key and certificate come from a PKCS#12 keystore, generated with a
// self-signed certificate when missing.
//
// Returns a *cobra.Command configured for PKCS#12 signing.
func NewPKCS12Signer(ro *options.RootOptions) *cobra.Command {
	o := &options.PKCS12SignOptions{}
	cmd := &cobra.Command{
		Use:   "pkcs12 [OPTIONS] INPUT",
		Short: "Sign using a PKCS#12 keystore (DEFAULT signing method).",
		Long:  pkcs12Long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, ro, o, args[0])
		},
	}
	o.AddFlags(cmd)
	return cmd
}

const pkcs12Long = `Sign using a PKCS#12 keystore (DEFAULT signing method).

    Signs the PDF at INPUT and writes the signed document to OUTPUT (given via
    --output). The input is never modified.

    The signing key and certificate are read from the keystore given via
    --keystore, protected by --password (or PDF_SIGNING_PASSWORD). With the
    default --policy load-or-generate, a missing keystore is created with a
    new RSA-2048 key and a self-signed "Test Certificate" valid for one year.
    Use --policy load to fail instead.`

// NewKeySigner creates the key subcommand for document signing.
// This command signs with a PEM private key and certificate.
//
// Returns a *cobra.Command configured for PEM key signing.
func NewKeySigner(ro *options.RootOptions) *cobra.Command {
	o := &options.KeySignOptions{}

	long := `Sign using a private key and certificate.

    Signs the PDF at INPUT and writes the signed document to OUTPUT (given via
    --output). Pass the private signing key using --private-key and the signing
    certificate via --signing-certificate. Optionally, pass intermediate
    certificates via --certificate-chain; they are embedded in the signature
    (this option can be repeated as needed, or all certificates could be
    placed in a single file).

    Only RSA keys of at least 2048 bits are supported.`

	cmd := &cobra.Command{
		Use:   "key [OPTIONS] INPUT",
		Short: "Sign using a PEM private key.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, ro, o, args[0])
		},
	}

	o.AddFlags(cmd)
	return cmd
}

// NewPKCS11Signer creates the pkcs11 subcommand for document signing.
// The key stays on a hardware token addressed by a PKCS #11 URI.
//
// Returns a *cobra.Command configured for PKCS #11 signing.
func NewPKCS11Signer(ro *options.RootOptions) *cobra.Command {
	o := &options.PKCS11SignOptions{}

	long := `Sign using a key held by a PKCS #11 token.

    Signs the PDF at INPUT and writes the signed document to OUTPUT (given via
    --output). The key is addressed by an RFC 7512 URI given via --pkcs11-uri,
    for example:

        pkcs11:token=signing;object=doc-key?module-name=softhsm2&pin-value=1234

    The PIN may also be given with pin-source or the PKCS11_PIN environment
    variable. The certificate is read from the token unless
    --signing-certificate is given.`

	cmd := &cobra.Command{
		Use:   "pkcs11 [OPTIONS] INPUT",
		Short: "Sign using a PKCS #11 token.",
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, ro, o, args[0])
		},
	}

	o.AddFlags(cmd)
	return cmd
}
