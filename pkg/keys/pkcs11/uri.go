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

// Package pkcs11 loads signing keys held on PKCS#11 tokens.
//
// Keys are addressed with RFC 7512 URIs such as
//
//	pkcs11:token=signing;object=doc-key?module-name=softhsm2&pin-value=1234
//
// The certificate is read from the token next to the key unless a PEM
// certificate file is supplied.
package pkcs11

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

const uriScheme = "pkcs11:"

// PINEnvVar is consulted when the URI carries no PIN.
const PINEnvVar = "PKCS11_PIN"

var objectTypes = map[string]bool{
	"public": true, "private": true, "cert": true, "secret-key": true, "data": true,
}

// URI is a parsed PKCS#11 URI.
type URI struct {
	path  map[string]string
	query map[string]string
}

// ParseURI parses s and checks that it names a token or a key.
func ParseURI(s string) (*URI, error) {
	if !strings.HasPrefix(s, uriScheme) {
		return nil, uriError("missing %q prefix", uriScheme)
	}
	u := &URI{path: map[string]string{}, query: map[string]string{}}

	rest := strings.TrimPrefix(s, uriScheme)
	pathPart, queryPart, hasQuery := strings.Cut(rest, "?")
	if err := parseAttributes(pathPart, ";", u.path); err != nil {
		return nil, err
	}
	if hasQuery {
		if err := parseAttributes(queryPart, "&", u.query); err != nil {
			return nil, err
		}
	}
	if err := u.validate(); err != nil {
		return nil, err
	}
	if u.Token() == "" && u.path["id"] == "" && u.KeyLabel() == "" {
		return nil, uriError("must name at least one of token, id or object")
	}
	return u, nil
}

func parseAttributes(s, sep string, into map[string]string) error {
	if s == "" {
		return nil
	}
	for _, attr := range strings.Split(s, sep) {
		k, v, ok := strings.Cut(attr, "=")
		if !ok || k == "" {
			return uriError("malformed attribute %q", attr)
		}
		decoded, err := url.PathUnescape(v)
		if err != nil {
			return signerr.Wrap(signerr.KindConfiguration, "pkcs11 URI: decoding "+k, err)
		}
		into[k] = decoded
	}
	return nil
}

func (u *URI) validate() error {
	if v, ok := u.path["slot-id"]; ok {
		if _, err := strconv.ParseUint(v, 10, 32); err != nil {
			return uriError("slot-id %q is not a 32-bit number", v)
		}
	}
	if v, ok := u.path["type"]; ok && !objectTypes[v] {
		return uriError("invalid type %q", v)
	}
	_, hasSource := u.query["pin-source"]
	_, hasValue := u.query["pin-value"]
	if hasSource && hasValue {
		return uriError("pin-source and pin-value are mutually exclusive")
	}
	if v, ok := u.query["module-path"]; ok && !filepath.IsAbs(v) {
		return uriError("module-path %q must be absolute", v)
	}
	return nil
}

// Token returns the token label.
func (u *URI) Token() string { return u.path["token"] }

// KeyID returns the raw CKA_ID, nil when absent.
func (u *URI) KeyID() []byte {
	if v, ok := u.path["id"]; ok {
		return []byte(v)
	}
	return nil
}

// KeyLabel returns the object label.
func (u *URI) KeyLabel() string { return u.path["object"] }

// SlotID returns the slot number and whether one was given.
func (u *URI) SlotID() (int, bool) {
	v, ok := u.path["slot-id"]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PIN returns the user PIN from pin-value, pin-source or PKCS11_PIN, in
// that order. An empty PIN is not an error.
func (u *URI) PIN() (string, error) {
	if v, ok := u.query["pin-value"]; ok {
		return v, nil
	}
	if src, ok := u.query["pin-source"]; ok {
		parsed, err := url.Parse(src)
		if err != nil {
			return "", signerr.Wrap(signerr.KindConfiguration, "pkcs11 URI: parsing pin-source", err)
		}
		if parsed.Scheme != "" && parsed.Scheme != "file" {
			return "", uriError("pin-source scheme %q is not supported", parsed.Scheme)
		}
		if !filepath.IsAbs(parsed.Path) {
			return "", uriError("pin-source path %q is not absolute", parsed.Path)
		}
		data, err := os.ReadFile(parsed.Path)
		if err != nil {
			return "", signerr.WrapPath(signerr.KindIO, parsed.Path, "reading PIN", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return os.Getenv(PINEnvVar), nil
}

// ModulePath resolves the PKCS#11 library: module-path when it names a
// file, otherwise the first library in dirs (or module-path when it is a
// directory) whose name contains module-name.
func (u *URI) ModulePath(dirs []string) (string, error) {
	if p, ok := u.query["module-path"]; ok {
		info, err := os.Stat(p)
		if err != nil {
			return "", signerr.WrapPath(signerr.KindConfiguration, p, "module-path", err)
		}
		if info.Mode().IsRegular() {
			return p, nil
		}
		if !info.IsDir() {
			return "", uriError("module-path %q is neither a file nor a directory", p)
		}
		dirs = []string{p}
	}
	if len(dirs) == 0 {
		dirs = DefaultModuleDirs
	}

	name := strings.ToLower(u.query["module-name"])
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			lower := strings.ToLower(e.Name())
			if !strings.HasSuffix(lower, ".so") && !strings.HasSuffix(lower, ".dylib") && !strings.HasSuffix(lower, ".dll") {
				continue
			}
			if name == "" || strings.Contains(lower, name) {
				return filepath.Join(dir, e.Name()), nil
			}
		}
	}
	if name == "" {
		return "", signerr.Newf(signerr.KindConfiguration, "no PKCS#11 module found in %v", dirs)
	}
	return "", signerr.Newf(signerr.KindConfiguration, "no PKCS#11 module matching %q found in %v", name, dirs)
}

// DefaultModuleDirs are searched when neither the URI nor the caller
// names a module location.
var DefaultModuleDirs = []string{
	"/usr/lib64/pkcs11",
	"/usr/lib/pkcs11",
	"/usr/lib/x86_64-linux-gnu/softhsm",
	"/usr/lib/softhsm",
	"/usr/local/lib/softhsm",
	"/opt/homebrew/lib/softhsm",
}

func uriError(format string, args ...interface{}) error {
	return signerr.Newf(signerr.KindConfiguration, "pkcs11 URI: "+format, args...)
}
