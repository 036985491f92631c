// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package matcher implements the suggestion cascade for a source segment:
exact translation memory hit, then fuzzy similarity retrieval, then machine
translation as the fallback of last resort.

Confidence is a strict ladder. An exact hit is 1. A fuzzy hit carries its
(possibly context-boosted) similarity, capped below 1. Machine translation is
always 0: it has never been validated by anyone.
*/
package matcher

import (
	"context"
	"log/slog"

	"github.com/taibuivan/concord/internal/core/tm"
	"github.com/taibuivan/concord/internal/provider"
)

// Source tells the advisor where a suggestion came from.
type Source string

const (
	SourceExactTM            Source = "exact_tm"
	SourceFuzzyTM            Source = "fuzzy_tm"
	SourceMachineTranslation Source = "machine_translation"
	// SourceManual marks target text typed or edited by the advisor; the
	// matcher never produces it.
	SourceManual Source = "manual"
)

// Suggestion is the matcher's answer for one source segment.
type Suggestion struct {
	Source     Source  `json:"source"`
	TargetText string  `json:"target_text"`
	Confidence float64 `json:"confidence"`
	// UnitID references the memory unit behind a TM suggestion.
	UnitID string `json:"unit_id,omitempty"`
	// Embedding is the source segment's vector, retained so publication
	// does not have to embed the same text again. Empty for exact hits,
	// which skip the embedding call entirely.
	Embedding []float32 `json:"-"`
}

// Config carries the matching tunables.
type Config struct {
	// AutoAcceptThreshold is the boosted-similarity level at or above which
	// a fuzzy hit is flagged auto-acceptable for the advisor.
	AutoAcceptThreshold float64
	// FuzzyFloor is the minimum boosted similarity for a fuzzy hit to be
	// offered at all.
	FuzzyFloor float64
	// ContextBoost multiplies the similarity of candidates validated under
	// the same section category.
	ContextBoost float64
	// TopK is how many fuzzy candidates to retrieve before banding.
	TopK int
}

// Matcher runs the suggestion cascade.
type Matcher struct {
	memory     *tm.Service
	embedder   provider.Embedder
	translator provider.Translator
	cfg        Config
	logger     *slog.Logger
}

// New wires the matcher.
func New(memory *tm.Service, embedder provider.Embedder, translator provider.Translator, cfg Config, logger *slog.Logger) *Matcher {
	return &Matcher{
		memory:     memory,
		embedder:   embedder,
		translator: translator,
		cfg:        cfg,
		logger:     logger,
	}
}

// fuzzyCeiling keeps every fuzzy confidence strictly below an exact hit,
// boost included.
const fuzzyCeiling = 0.99

// Suggest produces the best available suggestion for a source segment.
//
// The cascade short-circuits: an exact hit returns without touching the
// embedding provider, and machine translation runs only when the memory has
// nothing at or above the fuzzy floor.
func (m *Matcher) Suggest(ctx context.Context, sourceText, sourceLang, targetLang string, docContext tm.Context) (*Suggestion, error) {
	unit, err := m.memory.LookupExact(ctx, sourceText, targetLang, docContext)
	if err == nil {
		return &Suggestion{
			Source:     SourceExactTM,
			TargetText: unit.TargetText,
			Confidence: 1,
			UnitID:     unit.ID,
		}, nil
	}
	if !tm.IsNotFound(err) {
		return nil, err
	}

	embedding, err := m.embedder.Embed(ctx, sourceText)
	if err != nil {
		return nil, err
	}

	// Retrieve on raw similarity at floor/boost so a boosted candidate just
	// under the raw floor is not lost before banding.
	rawFloor := m.cfg.FuzzyFloor
	if m.cfg.ContextBoost > 1 {
		rawFloor = m.cfg.FuzzyFloor / m.cfg.ContextBoost
	}

	matches, err := m.memory.LookupFuzzy(ctx, embedding, targetLang, m.cfg.TopK, rawFloor)
	if err != nil {
		return nil, err
	}

	if best := m.pickFuzzy(matches, docContext); best != nil {
		best.Embedding = embedding
		return best, nil
	}

	translation, err := m.translator.Translate(ctx, sourceText, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}

	return &Suggestion{
		Source:     SourceMachineTranslation,
		TargetText: translation,
		Confidence: 0,
		Embedding:  embedding,
	}, nil
}

// pickFuzzy applies the context boost, re-ranks and bands the candidates.
// Returns nil when nothing clears the fuzzy floor.
func (m *Matcher) pickFuzzy(matches []tm.FuzzyMatch, docContext tm.Context) *Suggestion {
	var best *Suggestion
	for _, match := range matches {
		score := match.Similarity
		// The boost keys on section category alone: a duties sentence
		// validated at another classification tier is still a duties sentence.
		if match.Unit.Context.SectionCategory == docContext.SectionCategory {
			score *= m.cfg.ContextBoost
		}
		if score > fuzzyCeiling {
			score = fuzzyCeiling
		}
		if score < m.cfg.FuzzyFloor {
			continue
		}
		if best == nil || score > best.Confidence {
			best = &Suggestion{
				Source:     SourceFuzzyTM,
				TargetText: match.Unit.TargetText,
				Confidence: score,
				UnitID:     match.Unit.ID,
			}
		}
	}
	return best
}

// AutoAcceptable reports whether a suggestion clears the auto-accept
// threshold. Exact hits always do; machine translation never does.
func (m *Matcher) AutoAcceptable(suggestion *Suggestion) bool {
	switch suggestion.Source {
	case SourceExactTM:
		return true
	case SourceFuzzyTM:
		return suggestion.Confidence >= m.cfg.AutoAcceptThreshold
	default:
		return false
	}
}
