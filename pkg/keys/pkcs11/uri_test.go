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

package pkcs11

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		wantErr bool
		token   string
		label   string
		id      []byte
	}{
		{name: "token and object", uri: "pkcs11:token=signing;object=doc-key", token: "signing", label: "doc-key"},
		{name: "encoded id", uri: "pkcs11:token=t;id=%01%02%ff", token: "t", id: []byte{1, 2, 0xff}},
		{name: "encoded label", uri: "pkcs11:object=my%20key?module-name=softhsm2", label: "my key"},
		{name: "type", uri: "pkcs11:object=k;type=private", label: "k"},
		{name: "missing prefix", uri: "token=signing", wantErr: true},
		{name: "nothing to find", uri: "pkcs11:", wantErr: true},
		{name: "malformed attribute", uri: "pkcs11:token", wantErr: true},
		{name: "bad slot", uri: "pkcs11:token=t;slot-id=abc", wantErr: true},
		{name: "bad type", uri: "pkcs11:token=t;type=secret", wantErr: true},
		{name: "both pins", uri: "pkcs11:token=t?pin-value=1&pin-source=/tmp/pin", wantErr: true},
		{name: "relative module", uri: "pkcs11:token=t?module-path=lib.so", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseURI(tt.uri)
			if tt.wantErr {
				if !signerr.IsKind(err, signerr.KindConfiguration) {
					t.Fatalf("ParseURI() error = %v, want configuration error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI() error = %v", err)
			}
			if u.Token() != tt.token {
				t.Errorf("Token() = %q, want %q", u.Token(), tt.token)
			}
			if u.KeyLabel() != tt.label {
				t.Errorf("KeyLabel() = %q, want %q", u.KeyLabel(), tt.label)
			}
			if string(u.KeyID()) != string(tt.id) {
				t.Errorf("KeyID() = %x, want %x", u.KeyID(), tt.id)
			}
		})
	}
}

func TestURI_SlotID(t *testing.T) {
	u, err := ParseURI("pkcs11:slot-id=7;object=k")
	if err != nil {
		t.Fatal(err)
	}
	if slot, ok := u.SlotID(); !ok || slot != 7 {
		t.Errorf("SlotID() = %d, %v", slot, ok)
	}
	u, _ = ParseURI("pkcs11:token=t")
	if _, ok := u.SlotID(); ok {
		t.Error("SlotID() ok = true without slot-id")
	}
}

func TestURI_PIN(t *testing.T) {
	pinFile := filepath.Join(t.TempDir(), "pin")
	if err := os.WriteFile(pinFile, []byte("4321\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PINEnvVar, "env-pin")

	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{uri: "pkcs11:token=t?pin-value=1234", want: "1234"},
		{uri: "pkcs11:token=t?pin-source=file:" + pinFile, want: "4321"},
		{uri: "pkcs11:token=t?pin-source=" + pinFile, want: "4321"},
		{uri: "pkcs11:token=t", want: "env-pin"},
		{uri: "pkcs11:token=t?pin-source=https://example.com/pin", wantErr: true},
		{uri: "pkcs11:token=t?pin-source=relative/pin", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			u, err := ParseURI(tt.uri)
			if err != nil {
				t.Fatal(err)
			}
			got, err := u.PIN()
			if (err != nil) != tt.wantErr {
				t.Fatalf("PIN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PIN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestURI_ModulePath(t *testing.T) {
	dir := t.TempDir()
	softhsm := filepath.Join(dir, "libsofthsm2.so")
	other := filepath.Join(dir, "libother.so")
	for _, p := range []string{softhsm, other, filepath.Join(dir, "README")} {
		if err := os.WriteFile(p, []byte("mock"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		uri     string
		dirs    []string
		want    string
		wantErr bool
	}{
		{name: "explicit file", uri: "pkcs11:token=t?module-path=" + other, want: other},
		{name: "directory by name", uri: "pkcs11:token=t?module-path=" + dir + "&module-name=SoftHSM", want: softhsm},
		{name: "search dirs", uri: "pkcs11:token=t?module-name=other", dirs: []string{dir}, want: other},
		{name: "no match", uri: "pkcs11:token=t?module-name=yubikey", dirs: []string{dir}, wantErr: true},
		{name: "missing file", uri: "pkcs11:token=t?module-path=" + filepath.Join(dir, "gone.so"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := ParseURI(tt.uri)
			if err != nil {
				t.Fatal(err)
			}
			got, err := u.ModulePath(tt.dirs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ModulePath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ModulePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(Options{URI: "not-a-uri"}); err == nil {
		t.Error("NewProvider() error = nil for invalid URI")
	}
	p, err := NewProvider(Options{URI: "pkcs11:object=k?module-path=/nonexistent/lib.so"})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if _, err := p.config(); !signerr.IsKind(err, signerr.KindConfiguration) {
		t.Errorf("config() error = %v, want configuration error", err)
	}
}
