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
	"github.com/spf13/pflag"

	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

// FlagAdder is implemented by any flag group that can register itself to a cobra command.
type FlagAdder interface {
	AddFlags(cmd *cobra.Command)
}

// AddAllFlags is a helper function to register multiple flag groups at once.
func AddAllFlags(cmd *cobra.Command, flagGroups ...FlagAdder) {
	for _, fg := range flagGroups {
		fg.AddFlags(cmd)
	}
}

// OutputFlags holds the destination of a signed document.
type OutputFlags struct {
	// OutputPath is where the signed document is written. It must differ
	// from the input.
	OutputPath string
}

// AddFlags adds the required --output flag.
func (o *OutputFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.OutputPath, "output", "o", "", "Location of the signed PDF to write. [required]")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagFilename("output", "pdf")
}

// SignatureFlags holds the signature dictionary metadata and sizing.
// They are shared by all signing commands.
type SignatureFlags struct {
	FieldName       string
	Name            string
	Reason          string
	Location        string
	ContactInfo     string
	DigestAlgorithm string
	PlaceholderSize int
	// ProfilePath names a YAML signature profile applied before any
	// explicitly given flag.
	ProfilePath string
}

// AddFlags adds signature metadata flags to the cobra command.
func (o *SignatureFlags) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.FieldName, "field-name", "", "Name of the signature field. Generated when empty.")
	cmd.Flags().StringVar(&o.Name, "name", "", "Signer name recorded in the signature.")
	cmd.Flags().StringVar(&o.Reason, "reason", config.DefaultReason, "Reason for signing.")
	cmd.Flags().StringVar(&o.Location, "location", config.DefaultLocation, "Location of signing.")
	cmd.Flags().StringVar(&o.ContactInfo, "contact-info", "", "Contact information of the signer.")
	cmd.Flags().StringVar(&o.DigestAlgorithm, "digest-algorithm", string(digests.DefaultAlgorithm),
		"Digest algorithm (sha256, sha384, sha512).")
	cmd.Flags().IntVar(&o.PlaceholderSize, "placeholder-size", 0,
		"Bytes reserved for the signature container. 0 sizes it from the key and certificates.")
	cmd.Flags().StringVar(&o.ProfilePath, "profile", "", "YAML signature profile to apply.")
	_ = cmd.MarkFlagFilename("profile", "yaml", "yml")
}

// ToSignatureConfig builds the signature configuration. The profile, if
// any, is applied over the defaults and flags set in fs override it.
func (o *SignatureFlags) ToSignatureConfig(fs *pflag.FlagSet) (*config.SignatureConfig, error) {
	cfg := config.NewSignatureConfig()
	if o.ProfilePath != "" {
		profile, err := config.LoadSignatureProfile(o.ProfilePath)
		if err != nil {
			return nil, err
		}
		profile.Apply(cfg)
	}

	changed := func(name string) bool {
		// Without a profile the flag defaults are the config defaults.
		return o.ProfilePath == "" || fs.Changed(name)
	}
	if changed("field-name") {
		cfg.SetFieldName(o.FieldName)
	}
	if changed("name") {
		cfg.SetName(o.Name)
	}
	if changed("reason") {
		cfg.SetReason(o.Reason)
	}
	if changed("location") {
		cfg.SetLocation(o.Location)
	}
	if changed("contact-info") {
		cfg.SetContactInfo(o.ContactInfo)
	}
	if changed("digest-algorithm") {
		alg, err := digests.ParseAlgorithm(o.DigestAlgorithm)
		if err != nil {
			return nil, signerr.Wrap(signerr.KindConfiguration, "--digest-algorithm", err)
		}
		cfg.SetDigestAlgorithm(alg)
	}
	if changed("placeholder-size") {
		cfg.SetPlaceholderSize(o.PlaceholderSize)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CertificateFlags locate a PEM signing certificate and its chain.
type CertificateFlags struct {
	CertificatePath  string
	CertificateChain []string
}

// addFlags adds certificate flags. required marks --signing-certificate
// as mandatory.
func (o *CertificateFlags) addFlags(cmd *cobra.Command, required bool) {
	usage := "Path to the signing certificate, as a PEM-encoded file."
	if required {
		usage += " [required]"
	}
	cmd.Flags().StringVar(&o.CertificatePath, "signing-certificate", "", usage)
	if required {
		_ = cmd.MarkFlagRequired("signing-certificate")
	}
	cmd.Flags().StringSliceVar(&o.CertificateChain, "certificate-chain", nil,
		"File paths of intermediate certificates embedded with the signature")
}

// ToCertificateConfig converts the flags to a certificate configuration.
func (o *CertificateFlags) ToCertificateConfig() config.CertificateConfig {
	return config.CertificateConfig{Path: o.CertificatePath, ChainPaths: o.CertificateChain}
}
