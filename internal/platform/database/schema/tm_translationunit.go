// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema centralizes table and column names for the tm schema.
// Queries reference these definitions instead of string literals so a rename
// touches exactly one file.
package schema

// TranslationUnitTable represents the 'tm.translation_unit' table
type TranslationUnitTable struct {
	Table              string
	ID                 string
	SourceLang         string
	TargetLang         string
	NormalizedSource   string
	SourceText         string
	TargetText         string
	SectionCategory    string
	ClassificationTier string
	ValidatorID        string
	ValidatedAt        string
	UsageCount         string
	Embedding          string
}

// TranslationUnit is the schema definition for tm.translation_unit
var TranslationUnit = TranslationUnitTable{
	Table:              "tm.translation_unit",
	ID:                 "id",
	SourceLang:         "source_lang",
	TargetLang:         "target_lang",
	NormalizedSource:   "normalized_source",
	SourceText:         "source_text",
	TargetText:         "target_text",
	SectionCategory:    "section_category",
	ClassificationTier: "classification_tier",
	ValidatorID:        "validator_id",
	ValidatedAt:        "validated_at",
	UsageCount:         "usage_count",
	Embedding:          "embedding",
}

func (t TranslationUnitTable) Columns() []string {
	return []string{
		t.ID, t.SourceLang, t.TargetLang, t.NormalizedSource, t.SourceText,
		t.TargetText, t.SectionCategory, t.ClassificationTier, t.ValidatorID,
		t.ValidatedAt, t.UsageCount, t.Embedding,
	}
}
