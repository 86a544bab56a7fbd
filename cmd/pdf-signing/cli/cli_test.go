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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minchaudhary/digital-signature/cmd/pdf-signing/cli/options"
	"github.com/minchaudhary/digital-signature/pkg/keys/keystest"
	"github.com/minchaudhary/digital-signature/pkg/pdf"
	"github.com/minchaudhary/digital-signature/pkg/pdf/pdftest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeDocument(t *testing.T, dir string, size int) string {
	t.Helper()
	path := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(path, pdftest.Document(size), 0o644))
	return path
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var ee *ExitError
	require.True(t, errors.As(err, &ee), "error %v carries no exit code", err)
	return ee.ExitCode()
}

func TestSignVerify_PKCS12(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, 10*1024)
	output := filepath.Join(dir, "signed.pdf")
	keystore := filepath.Join(dir, "keystore.p12")

	stdout, err := execute(t, "sign", input, "--output", output,
		"--keystore", keystore, "--password", "secret",
		"--reason", "Approved", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed "+output)
	assert.FileExists(t, keystore)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	fields := pdf.FindSignatures(data)
	require.Len(t, fields, 1)
	assert.Equal(t, "Approved", fields[0].Reason)
	assert.Equal(t, "Virtual Office", fields[0].Location)

	stdout, err = execute(t, "verify", output, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, stdout, ": ok")
	assert.Contains(t, stdout, "Test Certificate")
}

func TestSign_PKCS12PasswordFromEnv(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, 0)
	keystore := filepath.Join(dir, "keystore.p12")
	t.Setenv(options.EnvName("password"), "from-env")

	_, err := execute(t, "sign", "pkcs12", input, "-o", filepath.Join(dir, "a.pdf"),
		"--keystore", keystore, "--log-level", "silent")
	require.NoError(t, err)

	// The generated keystore is reused.
	_, err = execute(t, "sign", "pkcs12", input, "-o", filepath.Join(dir, "b.pdf"),
		"--keystore", keystore, "--policy", "load", "--log-level", "silent")
	require.NoError(t, err)

	_, err = execute(t, "sign", "pkcs12", input, "-o", filepath.Join(dir, "c.pdf"),
		"--keystore", keystore, "--password", "wrong", "--log-level", "silent")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.NoFileExists(t, filepath.Join(dir, "c.pdf"))
}

func TestSignVerify_KeyWithTrustedChain(t *testing.T) {
	dir := t.TempDir()
	km := keystest.WithCertificate(t, keystest.CertOptions{Issued: true})

	keyPEM, err := cryptoutils.MarshalPrivateKeyToPEM(km.Signer)
	require.NoError(t, err)
	certPEM, err := cryptoutils.MarshalCertificateToPEM(km.Certificate)
	require.NoError(t, err)
	rootPEM, err := cryptoutils.MarshalCertificateToPEM(keystest.RootCA(t))
	require.NoError(t, err)
	require.NoError(t, km.Close())

	keyPath := filepath.Join(dir, "key.pem")
	certPath := filepath.Join(dir, "cert.pem")
	rootPath := filepath.Join(dir, "root.pem")
	require.NoError(t, os.WriteFile(keyPath, keyPEM, 0o600))
	require.NoError(t, os.WriteFile(certPath, certPEM, 0o644))
	require.NoError(t, os.WriteFile(rootPath, rootPEM, 0o644))

	input := writeDocument(t, dir, 0)
	output := filepath.Join(dir, "signed.pdf")
	_, err = execute(t, "sign", "key", input, "-o", output,
		"--private-key", keyPath, "--signing-certificate", certPath,
		"--certificate-chain", rootPath, "--digest-algorithm", "sha384",
		"--log-level", "silent")
	require.NoError(t, err)

	stdout, err := execute(t, "verify", output, "--certificate-chain", rootPath, "--json",
		"--log-level", "silent")
	require.NoError(t, err)

	var results []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0]["status"])
	assert.Equal(t, true, results[0]["trusted"])
	assert.Equal(t, "sha384", results[0]["digest_algorithm"])
}

func TestSign_ProfileWithOverrides(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, 0)
	output := filepath.Join(dir, "signed.pdf")
	profile := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(
		"reason: From profile\nlocation: Profile City\nfield_name: Approval\n"), 0o644))

	_, err := execute(t, "sign", input, "-o", output,
		"--keystore", filepath.Join(dir, "ks.p12"), "--password", "pw",
		"--profile", profile, "--location", "Flag City", "--log-level", "silent")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	fields := pdf.FindSignatures(data)
	require.Len(t, fields, 1)
	assert.Equal(t, "Approval", fields[0].FieldName)
	assert.Equal(t, "From profile", fields[0].Reason)
	assert.Equal(t, "Flag City", fields[0].Location)
}

func TestSign_InvalidOptions(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, 0)
	keystore := filepath.Join(dir, "ks.p12")

	tests := []struct {
		name string
		args []string
	}{
		{"digest algorithm", []string{"--digest-algorithm", "md5"}},
		{"policy", []string{"--policy", "sometimes"}},
		{"placeholder size", []string{"--placeholder-size", "-1"}},
		{"missing profile", []string{"--profile", filepath.Join(dir, "nope.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := filepath.Join(dir, "out.pdf")
			args := append([]string{"sign", input, "-o", output, "--keystore", keystore,
				"--password", "pw", "--log-level", "silent"}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.NoFileExists(t, output)
		})
	}

	t.Run("same input and output", func(t *testing.T) {
		_, err := execute(t, "sign", input, "-o", input, "--keystore", keystore,
			"--password", "pw", "--log-level", "silent")
		require.Error(t, err)
		assert.Equal(t, ExitUsage, exitCode(t, err))
	})

	t.Run("missing output", func(t *testing.T) {
		_, err := execute(t, "sign", input, "--keystore", keystore)
		require.Error(t, err)
	})

	t.Run("log level", func(t *testing.T) {
		_, err := execute(t, "verify", input, "--log-level", "loud")
		require.Error(t, err)
	})
}

func TestVerify_Unsigned(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, 0)

	stdout, err := execute(t, "verify", input, "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, stdout, "No signatures found")

	stdout, err = execute(t, "verify", input, "--json", "--log-level", "silent")
	require.Error(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestVerify_Tampered(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, 4096)
	output := filepath.Join(dir, "signed.pdf")
	_, err := execute(t, "sign", input, "-o", output,
		"--keystore", filepath.Join(dir, "ks.p12"), "--password", "pw", "--log-level", "silent")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	data[2048] ^= 0x01
	require.NoError(t, os.WriteFile(output, data, 0o644))

	stdout, err := execute(t, "verify", output, "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(t, err))
	assert.Contains(t, stdout, "digest mismatch")
	assert.Contains(t, err.Error(), "1 of 1 signatures failed verification")
}

func TestVerify_MissingDocument(t *testing.T) {
	_, err := execute(t, "verify", filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, exitCode(t, err))
}

func TestOutputFile(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir, 0)
	outFile := filepath.Join(dir, "out.txt")

	_, err := execute(t, "verify", input, "--output-file", outFile, "--log-level", "error")
	require.Error(t, err)

	content, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "No signatures found")
}
