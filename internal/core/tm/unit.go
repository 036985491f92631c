// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tm implements the translation memory: the append-only corpus of
validated sentence pairs and the lookup paths over it.

A translation unit enters the corpus exactly once, through publication. Units
are immutable after creation except for their usage count, which grows when an
identical pair is published again.
*/
package tm

import (
	"time"

	"github.com/taibuivan/concord/pkg/normalize"
)

// Context captures the document circumstances a unit was validated under.
// Matches from an identical context rank above matches from a different one.
type Context struct {
	SectionCategory    string `json:"section_category"`
	ClassificationTier string `json:"classification_tier"`
}

// TranslationUnit is one validated sentence pair in the memory.
type TranslationUnit struct {
	ID               string    `json:"id"`
	SourceLang       string    `json:"source_lang"`
	TargetLang       string    `json:"target_lang"`
	NormalizedSource string    `json:"normalized_source"`
	SourceText       string    `json:"source_text"`
	TargetText       string    `json:"target_text"`
	Context          Context   `json:"context"`
	ValidatorID      string    `json:"validator_id"`
	ValidatedAt      time.Time `json:"validated_at"`
	UsageCount       int       `json:"usage_count"`
	Embedding        []float32 `json:"-"`
}

// Draft is the input to a commit: a validated pair that may or may not
// already exist in the corpus.
type Draft struct {
	SourceLang  string
	TargetLang  string
	SourceText  string
	TargetText  string
	Context     Context
	ValidatorID string
	Embedding   []float32
}

// Key is the identity of a unit for exact matching and idempotent commits.
//
// Two publications of the same normalized source into the same target language
// and context are the same unit; only the usage count moves.
type Key struct {
	NormalizedSource   string
	TargetLang         string
	SectionCategory    string
	ClassificationTier string
}

// KeyOf derives the identity key from a draft.
func KeyOf(d Draft) Key {
	return Key{
		NormalizedSource:   normalize.Source(d.SourceText),
		TargetLang:         d.TargetLang,
		SectionCategory:    d.Context.SectionCategory,
		ClassificationTier: d.Context.ClassificationTier,
	}
}

// String renders the key in its cache form.
func (k Key) String() string {
	return k.NormalizedSource + "|" + k.TargetLang + "|" + k.SectionCategory + "|" + k.ClassificationTier
}
