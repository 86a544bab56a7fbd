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

package digests

import (
	"crypto"
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"sha256", SHA256, false},
		{"SHA-256", SHA256, false},
		{" sha384 ", SHA384, false},
		{"SHA512", SHA512, false},
		{"md5", "", true},
		{"blake2b", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAlgorithm() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAlgorithm() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAlgorithm_HashAndSize(t *testing.T) {
	tests := []struct {
		alg      Algorithm
		wantHash crypto.Hash
		wantSize int
	}{
		{SHA256, crypto.SHA256, 32},
		{SHA384, crypto.SHA384, 48},
		{SHA512, crypto.SHA512, 64},
		{Algorithm("sha1"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			if got := tt.alg.Hash(); got != tt.wantHash {
				t.Errorf("Hash() = %v, want %v", got, tt.wantHash)
			}
			if got := tt.alg.Size(); got != tt.wantSize {
				t.Errorf("Size() = %d, want %d", got, tt.wantSize)
			}
		})
	}
}

func TestDigest_CopiesValue(t *testing.T) {
	raw := []byte{1, 2, 3}
	d := NewDigest(SHA256, raw)
	raw[0] = 9

	if d.Value()[0] != 1 {
		t.Error("NewDigest() did not copy the value")
	}

	v := d.Value()
	v[1] = 9
	if d.Value()[1] != 2 {
		t.Error("Value() exposed internal state")
	}
}

func TestDigest_Equal(t *testing.T) {
	a := NewDigest(SHA256, []byte{0xab, 0xcd})
	b := NewDigest(SHA256, []byte{0xab, 0xcd})
	c := NewDigest(SHA384, []byte{0xab, 0xcd})
	d := NewDigest(SHA256, []byte{0xab})

	if !a.Equal(b) {
		t.Error("Equal() = false for identical digests")
	}
	if a.Equal(c) {
		t.Error("Equal() = true for different algorithms")
	}
	if a.Equal(d) {
		t.Error("Equal() = true for different values")
	}
	if got := a.String(); got != "sha256:abcd" {
		t.Errorf("String() = %q, want %q", got, "sha256:abcd")
	}
	if a.IsZero() || !(Digest{}).IsZero() {
		t.Error("IsZero() mismatch")
	}
}
