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
	"github.com/spf13/cobra"

	"github.com/minchaudhary/digital-signature/cmd/pdf-signing/cli/options"
)

// Sign creates the sign command with all key source subcommands.
// Without a subcommand it signs with a PKCS#12 keystore.
func Sign(ro *options.RootOptions) *cobra.Command {
	o := &options.PKCS12SignOptions{}
	cmd := &cobra.Command{
		Use:   "sign [OPTIONS] [KEY_SOURCE] INPUT",
		Short: "Sign PDF documents.",
		Long: `Sign PDF documents.

    Signing the PDF at INPUT produces a copy at OUTPUT (as per --output) with
    one detached CMS signature embedded in an incremental update. The signature
    covers every byte of the document except the signature value itself.

    The signing key is taken from a PKCS#12 keystore by default. Use the key
    or pkcs11 subcommands for PEM files or hardware tokens.

    Signature metadata is set with --name, --reason, --location and
    --contact-info, or loaded from a YAML --profile. Flags given explicitly
    override the profile.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, ro, o, args[0])
		},
	}
	o.AddFlags(cmd)

	// Add key source subcommands. Each owns its own flags.
	cmd.AddCommand(NewPKCS12Signer(ro))
	cmd.AddCommand(NewKeySigner(ro))
	cmd.AddCommand(NewPKCS11Signer(ro))

	return cmd
}
