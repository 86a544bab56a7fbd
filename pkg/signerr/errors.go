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

// Package signerr defines the error kinds surfaced by document signing.
//
// Signing failures are fatal and are returned as *Error values carrying a
// Kind. Verification outcomes such as a digest mismatch are not errors and
// live in the verify package as result statuses.
package signerr

import (
	"errors"
	"fmt"
)

// Kind represents the category of a signing error.
type Kind int

const (
	// KindUnknown indicates an unclassified error.
	KindUnknown Kind = iota

	// KindIO indicates a file could not be read or written, or a byte
	// range falls outside the document.
	KindIO

	// KindContainerTooLarge indicates the signature container does not
	// fit the reserved placeholder. Retry with a larger reservation.
	KindContainerTooLarge

	// KindUnsupportedKeyType indicates a private key type other than RSA.
	KindUnsupportedKeyType

	// KindUnsupportedAlgorithm indicates an unknown digest or signature algorithm.
	KindUnsupportedAlgorithm

	// KindSigning indicates the private key was unusable or the
	// signing operation failed.
	KindSigning

	// KindMalformedContainer indicates an embedded container could not be parsed.
	KindMalformedContainer

	// KindAlreadySigned indicates the input document already carries a signature.
	KindAlreadySigned

	// KindInvalidDocument indicates the input is not a PDF this package can update.
	KindInvalidDocument

	// KindConfiguration indicates invalid options.
	KindConfiguration
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IOError"
	case KindContainerTooLarge:
		return "ContainerTooLarge"
	case KindUnsupportedKeyType:
		return "UnsupportedKeyType"
	case KindUnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	case KindSigning:
		return "SigningError"
	case KindMalformedContainer:
		return "MalformedContainer"
	case KindAlreadySigned:
		return "AlreadySigned"
	case KindInvalidDocument:
		return "InvalidDocument"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return "UnknownError"
	}
}

// Error is a structured signing error.
//
// Example usage:
//
//	var serr *signerr.Error
//	if errors.As(err, &serr) && serr.Kind == signerr.KindContainerTooLarge {
//	    // retry with a larger placeholder
//	}
type Error struct {
	// Kind categorizes the error for programmatic handling.
	Kind Kind

	// Path is the file path involved, if any.
	Path string

	// Message is a human-readable description of what went wrong.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("%s: %s (path: %s): %v", e.Kind, e.Message, e.Path, e.Cause)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Kind, e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WrapPath creates an error of the given kind for a file path.
func WrapPath(kind Kind, path, message string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Message: message, Cause: cause}
}

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return KindUnknown
}
