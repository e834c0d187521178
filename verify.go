// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"errors"
	"fmt"
)

// ProblemKind classifies one media verification finding.
type ProblemKind string

// Verification findings.
const (
	ProblemMissing ProblemKind = "missing"
	ProblemSize    ProblemKind = "size"
	ProblemDigest  ProblemKind = "digest"
)

// MediaProblem is one mismatch between a media entry record and the bundle payload.
type MediaProblem struct {
	Path     string      `json:"path" yaml:"path"`
	Kind     ProblemKind `json:"kind" yaml:"kind"`
	Expected string      `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty" yaml:"actual,omitempty"`
}

// String renders the problem for logs and CLI output.
func (p MediaProblem) String() string {
	if p.Kind == ProblemMissing {
		return fmt.Sprintf("%s: missing", p.Path)
	}

	return fmt.Sprintf("%s: %s mismatch: expected %s, got %s", p.Path, p.Kind, p.Expected, p.Actual)
}

// VerifyMedia checks that every entry is present in the bundle with the recorded
// size and SHA-256. Mismatches are reported as problems; the error is reserved
// for container and I/O failures.
func VerifyMedia(bundlePath string, entries []MediaEntry) ([]MediaProblem, error) {
	r, err := openArchive(bundlePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	var problems []MediaProblem
	for _, entry := range entries {
		problem, err := verifyMediaEntry(r, entry)
		if err != nil {
			return nil, err
		}

		if problem != nil {
			problems = append(problems, *problem)
		}
	}

	return problems, nil
}

// verifyMediaEntry hashes one payload in streaming mode and compares it to entry.
func verifyMediaEntry(r *archiveReader, entry MediaEntry) (*MediaProblem, error) {
	rc, f, err := r.openEntry(entry.Path)
	if errors.Is(err, ErrMissingEntry) {
		return &MediaProblem{Path: entry.Path, Kind: ProblemMissing}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	if f.UncompressedSize64 != entry.ByteSize {
		return &MediaProblem{
			Path:     entry.Path,
			Kind:     ProblemSize,
			Expected: fmt.Sprint(entry.ByteSize),
			Actual:   fmt.Sprint(f.UncompressedSize64),
		}, nil
	}

	digest, _, err := HashReader(rc)
	if err != nil {
		return nil, classifyEntryError(r.path, entry.Path, "hash", err)
	}

	if digest != entry.SHA256 {
		return &MediaProblem{
			Path:     entry.Path,
			Kind:     ProblemDigest,
			Expected: entry.SHA256,
			Actual:   digest,
		}, nil
	}

	return nil, nil
}
