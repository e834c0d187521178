// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import "errors"

// Sentinel errors for bundle operations. Use errors.Is in callers.
var (
	// ErrIO means a filesystem read, write, or rename failed.
	ErrIO = errors.New("bundle I/O failure")
	// ErrFormat means the container is malformed or corrupt.
	ErrFormat = errors.New("invalid bundle container")
	// ErrJSON means manifest.json is not well-formed JSON.
	ErrJSON = errors.New("malformed bundle JSON")
	// ErrValidation means well-formed content is missing required parts.
	ErrValidation = errors.New("invalid bundle")
	// ErrMissingEntry means the named path is absent from the archive.
	ErrMissingEntry = errors.New("missing file in bundle")
	// ErrInvalidEntryPath means an entry path is empty or not a canonical archive path.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrDuplicateEntryPath means two entries resolve to the same archive path.
	ErrDuplicateEntryPath = errors.New("duplicate entry path")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrUnsupportedMedia means the payload type is not handled by the operation.
	ErrUnsupportedMedia = errors.New("unsupported media type")
	// ErrNilState means the bundle state is nil.
	ErrNilState = errors.New("bundle state is nil")
	// ErrInvalidStoreRules means one or more store rules are invalid.
	ErrInvalidStoreRules = errors.New("invalid store rules")
)

// ErrorKind is the coarse failure class reported to callers.
type ErrorKind string

// Failure classes.
const (
	KindIO           ErrorKind = "io"
	KindFormat       ErrorKind = "format"
	KindJSON         ErrorKind = "json"
	KindValidation   ErrorKind = "validation"
	KindMissingEntry ErrorKind = "missing_entry"
	KindOther        ErrorKind = "other"
)

// KindOf classifies err. Nil errors report an empty kind.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingEntry):
		return KindMissingEntry
	case errors.Is(err, ErrJSON):
		return KindJSON
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicateEntryPath), errors.Is(err, ErrInvalidEntryPath):
		return KindValidation
	case errors.Is(err, ErrFormat):
		return KindFormat
	case errors.Is(err, ErrIO):
		return KindIO
	default:
		return KindOther
	}
}
