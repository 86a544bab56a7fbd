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

// Package utils holds the path validation and file helpers shared by the
// signing and verification commands.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathType is the kind of filesystem entry a path must name.
type PathType int

const (
	// PathTypeFile expects a regular file.
	PathTypeFile PathType = iota
	// PathTypeFolder expects a directory.
	PathTypeFolder
)

func (t PathType) String() string {
	if t == PathTypeFolder {
		return "directory"
	}
	return "file"
}

// checkPath reports a missing, unreadable or mistyped path. Messages name
// the flag or option through what.
func checkPath(what, path string, want PathType) error {
	if path == "" {
		return fmt.Errorf("%s is required", what)
	}
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%s %q does not exist", what, path)
	case err != nil:
		return fmt.Errorf("checking %s %q: %w", what, path, err)
	}

	got := PathTypeFile
	if info.IsDir() {
		got = PathTypeFolder
	}
	if got != want {
		return fmt.Errorf("%s %q is a %s, expected %s", what, path, got, want)
	}
	return nil
}

// ValidateFileExists checks that path names an existing file.
func ValidateFileExists(what, path string) error {
	return checkPath(what, path, PathTypeFile)
}

// ValidateMultiple checks every entry of paths and returns the first
// failure. Empty entries are rejected; an empty slice is valid.
func ValidateMultiple(what string, paths []string, want PathType) error {
	for i, path := range paths {
		if path == "" {
			return fmt.Errorf("%s contains empty path at index %d", what, i)
		}
		if err := checkPath(fmt.Sprintf("%s[%d]", what, i), path, want); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOutputPath checks that path can be created: it is set, is not a
// directory, and its parent directory exists.
func ValidateOutputPath(what, path string) error {
	if path == "" {
		return fmt.Errorf("%s is required", what)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%s %q is a directory, expected file", what, path)
	}
	return checkPath(what+" directory", filepath.Dir(path), PathTypeFolder)
}

// SamePath reports whether a and b name the same file. Paths that do not
// exist yet are compared after cleaning and resolving to absolute form.
func SamePath(a, b string) bool {
	if ai, err := os.Stat(a); err == nil {
		if bi, err := os.Stat(b); err == nil {
			return os.SameFile(ai, bi)
		}
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
