// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/woozymasta/pathrules"
)

// storeMatcher holds compiled rules selecting entries written without compression.
type storeMatcher struct {
	matcher *pathrules.Matcher
}

// DefaultStoreRules returns store rules for payloads that are already compressed
// (common image, video, audio, and web font formats).
func DefaultStoreRules() []pathrules.Rule {
	patterns := []string{
		"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp",
		"*.mp4", "*.webm", "*.mov",
		"*.mp3", "*.ogg",
		"*.woff", "*.woff2",
	}

	return StoreRules(patterns...)
}

// StoreRules builds include rules from raw gitignore-style patterns.
// Patterns prefixed with "!" become exclude rules.
func StoreRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		action := pathrules.ActionInclude
		if len(pattern) > 1 && pattern[0] == '!' {
			action = pathrules.ActionExclude
			pattern = pattern[1:]
		}

		pattern = normalizePathForMatching(pattern)
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{Action: action, Pattern: pattern})
	}

	return rules
}

// newStoreMatcher compiles store path rules. No rules yields a nil matcher.
func newStoreMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*storeMatcher, error) {
	rules = normalizeStoreRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidStoreRules, err)
	}

	return &storeMatcher{matcher: matcher}, nil
}

// normalizeStoreRules normalizes rule patterns and drops empty patterns.
func normalizeStoreRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether path is selected for stored (uncompressed) write.
func (m *storeMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// methodFor returns the zip method for an entry path.
func (m *storeMatcher) methodFor(path string) uint16 {
	if m.Match(path) {
		return zip.Store
	}

	return zip.Deflate
}

// deflateCompressor returns a zip compressor using the given flate level.
func deflateCompressor(level int) zip.Compressor {
	return func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	}
}
