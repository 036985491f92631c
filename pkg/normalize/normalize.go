// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalizes source sentences and terms before they are
// used as translation memory keys.
//
// # Usage
//
// Two sentences that differ only in case, surrounding whitespace, internal
// whitespace runs, or terminal punctuation must map to the same key, so that
// a re-validated sentence hits the existing TranslationUnit instead of
// creating a near-duplicate.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Source converts a raw sentence into its canonical translation-memory key.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFC so composed and decomposed accents compare equal.
// 2. Case-folds (Unicode-aware, stronger than ToLower for ß, İ, etc.).
// 3. Collapses every whitespace run to a single ASCII space and trims.
// 4. Strips terminal punctuation (".", "!", "?", "…", their CJK forms).
//
// Inner punctuation is preserved: "red, green" and "red green" are
// different sentences.
func Source(s string) string {
	// 1. Canonical composition
	s = norm.NFC.String(s)

	// 2. Case fold. A cases.Caser is stateful, so one is built per call
	// rather than shared across goroutines.
	s = cases.Fold().String(s)

	// 3. Collapse whitespace
	s = strings.Join(strings.Fields(s), " ")

	// 4. Strip terminal punctuation
	s = strings.TrimRightFunc(s, isTerminalPunct)

	return strings.TrimSpace(s)
}

// Term canonicalizes a terminology key. Terms are short noun phrases, so the
// sentence pipeline applies unchanged.
func Term(s string) string {
	return Source(s)
}

// isTerminalPunct reports whether r is sentence-final punctuation.
func isTerminalPunct(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？', ';', ':':
		return true
	}
	return false
}
