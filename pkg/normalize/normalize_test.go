// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/concord/pkg/normalize"
)

/*
TestSource_Canonicalization verifies that equivalent sentences map to one key.
*/
func TestSource_Canonicalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "The Incumbent Manages A Team.", "the incumbent manages a team"},
		{"collapses_whitespace", "the  incumbent\tmanages\n a team", "the incumbent manages a team"},
		{"strips_terminal_punctuation", "does it work?!", "does it work"},
		{"strips_ellipsis", "to be continued…", "to be continued"},
		{"keeps_inner_punctuation", "red, green and blue.", "red, green and blue"},
		{"trims_edges", "   bonjour   ", "bonjour"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Source(tt.input))
		})
	}
}

/*
TestSource_UnicodeEquivalence verifies NFC + case folding behaviour.
*/
func TestSource_UnicodeEquivalence(t *testing.T) {
	// "é" precomposed vs "e" + combining acute must normalize identically.
	composed := "café"
	decomposed := "café"
	assert.Equal(t, normalize.Source(composed), normalize.Source(decomposed))

	// Case folding handles the German sharp S.
	assert.Equal(t, normalize.Source("STRASSE"), normalize.Source("strasse"))
}

/*
TestTerm_MatchesSourcePipeline verifies terms share the sentence pipeline.
*/
func TestTerm_MatchesSourcePipeline(t *testing.T) {
	assert.Equal(t, "line manager", normalize.Term("  Line   Manager "))
}
