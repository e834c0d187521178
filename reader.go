// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Open opens the bundle at path, validates its manifest, and returns the text payloads.
// Media payloads are not loaded; use ReadMedia for those.
func Open(path string) (*ParsedBundle, error) {
	r, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	manifest, err := readValidatedManifest(r)
	if err != nil {
		return nil, err
	}

	slides, err := r.readText(SlidesFile)
	if err != nil {
		return nil, err
	}

	arrangement, err := r.readText(ArrangementFile)
	if err != nil {
		return nil, err
	}

	themes, err := readThemes(r)
	if err != nil {
		return nil, err
	}

	return &ParsedBundle{
		Manifest:    manifest,
		Slides:      slides,
		Arrangement: arrangement,
		Themes:      themes,
	}, nil
}

// ReadManifest opens the bundle at path and returns only the validated manifest text.
func ReadManifest(path string) (string, error) {
	r, err := openArchive(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	return readValidatedManifest(r)
}

// ValidateManifest checks that manifest text is a JSON object with the required keys.
func ValidateManifest(manifest string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(manifest), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return fmt.Errorf("%w: %s must be a JSON object, got %s", ErrValidation, ManifestFile, typeErr.Value)
		}

		return fmt.Errorf("%w: %s: %w", ErrJSON, ManifestFile, err)
	}

	if fields == nil {
		return fmt.Errorf("%w: %s must be a JSON object, got null", ErrValidation, ManifestFile)
	}

	for _, key := range []string{ManifestKeyFormatVersion, ManifestKeyPresentationID} {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%w: missing %s in %s", ErrValidation, key, ManifestFile)
		}
	}

	return nil
}

// readValidatedManifest reads manifest.json and validates the required keys.
func readValidatedManifest(r *archiveReader) (string, error) {
	manifest, err := r.readText(ManifestFile)
	if err != nil {
		return "", err
	}

	if err := ValidateManifest(manifest); err != nil {
		return "", fmt.Errorf("%s: %w", r.path, err)
	}

	return manifest, nil
}

// readThemes collects themes/*.json entries in archive order.
func readThemes(r *archiveReader) ([]ThemeFile, error) {
	themes := make([]ThemeFile, 0, 4)
	seen := make(map[string]struct{}, 4)
	for _, f := range r.entries() {
		name := f.Name
		if !isThemePath(name) {
			continue
		}

		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		content, err := r.readText(name)
		if err != nil {
			return nil, err
		}

		themes = append(themes, ThemeFile{
			Filename: name,
			Content:  content,
		})
	}

	return themes, nil
}
