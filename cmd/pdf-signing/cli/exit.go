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
	"errors"

	"github.com/minchaudhary/digital-signature/pkg/signerr"
)

const (
	// ExitFailure is returned for operational errors and failed verification.
	ExitFailure = 1
	// ExitUsage is returned for invalid options or configuration.
	ExitUsage = 2
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int { return e.Code }

// withExitCode maps configuration errors to ExitUsage and everything else
// to ExitFailure.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return err
	}
	code := ExitFailure
	if signerr.IsKind(err, signerr.KindConfiguration) {
		code = ExitUsage
	}
	return &ExitError{Code: code, Err: err}
}
