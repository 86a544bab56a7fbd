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
	"github.com/minchaudhary/digital-signature/pkg/interfaces"
	"github.com/minchaudhary/digital-signature/pkg/keys"
	"github.com/minchaudhary/digital-signature/pkg/keys/pkcs11"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/signing"
)

// SignOptions is implemented by the options of every signing method.
type SignOptions interface {
	Interface
	// Signature returns the shared metadata and output flags.
	Signature() (*SignatureFlags, *OutputFlags)
	// KeyProvider builds the provider of the signing key.
	KeyProvider(logger logging.Logger) (interfaces.KeyProvider, error)
	// Method names the signing method in logs and traces.
	Method() string
}

// signFlags are embedded by every signing method.
type signFlags struct {
	SignatureFlags
	OutputFlags
}

func (o *signFlags) addFlags(cmd *cobra.Command) {
	o.OutputFlags.AddFlags(cmd)
	o.SignatureFlags.AddFlags(cmd)
}

// Signature implements SignOptions.
func (o *signFlags) Signature() (*SignatureFlags, *OutputFlags) {
	return &o.SignatureFlags, &o.OutputFlags
}

// ToStandardOptions converts CLI options to library options for document signing.
func ToStandardOptions(o SignOptions, inputPath string, cfg *config.SignatureConfig,
	provider interfaces.KeyProvider, logger logging.Logger) signing.SignerOptions {
	_, out := o.Signature()
	return signing.SignerOptions{
		InputPath:   inputPath,
		OutputPath:  out.OutputPath,
		KeyProvider: provider,
		Config:      cfg,
		Logger:      logger,
	}
}

type PKCS12SignOptions struct {
	signFlags
	KeystorePath string // --keystore
	Password     string // --password
	Policy       string // --policy
}

func (o *PKCS12SignOptions) AddFlags(cmd *cobra.Command) {
	o.signFlags.addFlags(cmd)

	cmd.Flags().StringVar(&o.KeystorePath, "keystore", "keystore.p12", "Path to the PKCS#12 keystore.")
	_ = cmd.MarkFlagFilename("keystore", "p12", "pfx")
	cmd.Flags().StringVar(&o.Password, "password", "", "Password of the keystore (or "+EnvName("password")+").")
	cmd.Flags().StringVar(&o.Policy, "policy", keys.PolicyLoadOrGenerate.String(),
		"What to do when the keystore is missing: generate a self-signed identity, or load (fail).")
}

func (o *PKCS12SignOptions) Method() string { return "pkcs12" }

// KeyProvider returns a PKCS#12 provider.
func (o *PKCS12SignOptions) KeyProvider(logger logging.Logger) (interfaces.KeyProvider, error) {
	policy, err := keys.ParsePolicy(o.Policy)
	if err != nil {
		return nil, err
	}
	provider, err := keys.NewPKCS12Provider(keys.PKCS12Options{
		Path:     o.KeystorePath,
		Password: o.Password,
		Policy:   policy,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

type KeySignOptions struct {
	signFlags
	CertificateFlags
	PrivateKeyPath string // --private-key (required)
	Password       string // --password
}

func (o *KeySignOptions) AddFlags(cmd *cobra.Command) {
	o.signFlags.addFlags(cmd)
	o.CertificateFlags.addFlags(cmd, true)

	cmd.Flags().StringVar(&o.PrivateKeyPath, "private-key", "", "Path to the private key, as a PEM-encoded file. [required]")
	_ = cmd.MarkFlagRequired("private-key")
	cmd.Flags().StringVar(&o.Password, "password", "", "Password for the key encryption, if any.")
}

func (o *KeySignOptions) Method() string { return "key" }

// KeyProvider returns a PEM provider.
func (o *KeySignOptions) KeyProvider(logging.Logger) (interfaces.KeyProvider, error) {
	provider, err := keys.NewPEMProvider(
		config.KeyConfig{Path: o.PrivateKeyPath, Password: o.Password},
		o.ToCertificateConfig(),
	)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

type PKCS11SignOptions struct {
	signFlags
	CertificateFlags
	URI        string   // --pkcs11-uri (required)
	ModuleDirs []string // --module-paths
}

func (o *PKCS11SignOptions) AddFlags(cmd *cobra.Command) {
	o.signFlags.addFlags(cmd)
	o.CertificateFlags.addFlags(cmd, false)

	cmd.Flags().StringVar(&o.URI, "pkcs11-uri", "", "PKCS #11 URI of the signing key. [required]")
	_ = cmd.MarkFlagRequired("pkcs11-uri")
	cmd.Flags().StringSliceVar(&o.ModuleDirs, "module-paths", nil,
		"Directories searched for the PKCS #11 module named by module-name.")
}

func (o *PKCS11SignOptions) Method() string { return "pkcs11" }

// KeyProvider returns a PKCS #11 provider. The certificate is read from
// the token unless --signing-certificate is given.
func (o *PKCS11SignOptions) KeyProvider(logger logging.Logger) (interfaces.KeyProvider, error) {
	provider, err := pkcs11.NewProvider(pkcs11.Options{
		URI:         o.URI,
		ModuleDirs:  o.ModuleDirs,
		Certificate: o.ToCertificateConfig(),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}
