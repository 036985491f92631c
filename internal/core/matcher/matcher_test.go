// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package matcher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/concord/internal/core/matcher"
	"github.com/taibuivan/concord/internal/core/similarity"
	"github.com/taibuivan/concord/internal/core/tm"
)

// stubEmbedder returns a fixed vector per text and counts calls.
type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	vector, ok := s.vectors[text]
	if !ok {
		return nil, errors.New("no stub vector for text")
	}
	return vector, nil
}

// stubTranslator returns a fixed translation and counts calls.
type stubTranslator struct {
	translation string
	calls       int
}

func (s *stubTranslator) Translate(_ context.Context, _, _, _ string) (string, error) {
	s.calls++
	return s.translation, nil
}

var defaultConfig = matcher.Config{
	AutoAcceptThreshold: 0.95,
	FuzzyFloor:          0.70,
	ContextBoost:        1.1,
	TopK:                5,
}

var dutiesContext = tm.Context{SectionCategory: "duties", ClassificationTier: "AS-02"}

func newMatcher(t *testing.T, embedder *stubEmbedder, translator *stubTranslator) (*matcher.Matcher, *tm.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	memory := tm.NewService(tm.NewMemoryUnitStore(), nil, similarity.NewIndex(), logger)
	return matcher.New(memory, embedder, translator, defaultConfig, logger), memory
}

func commit(t *testing.T, memory *tm.Service, source, target string, docContext tm.Context, embedding []float32) *tm.TranslationUnit {
	t.Helper()
	unit, err := memory.Commit(context.Background(), tm.Draft{
		SourceLang:  "en",
		TargetLang:  "fr",
		SourceText:  source,
		TargetText:  target,
		Context:     docContext,
		ValidatorID: "advisor-17",
		Embedding:   embedding,
	})
	require.NoError(t, err)
	return unit
}

/* TestSuggestExact verifies that an exact memory hit wins with confidence 1
and that the embedding provider is never consulted for it. */
func TestSuggestExact(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	translator := &stubTranslator{translation: "unused"}
	m, memory := newMatcher(t, embedder, translator)

	unit := commit(t, memory, "The incumbent manages a team.", "Le titulaire dirige une équipe.", dutiesContext, []float32{1, 0, 0})

	suggestion, err := m.Suggest(context.Background(), "the incumbent manages a team", "en", "fr", dutiesContext)
	require.NoError(t, err)

	assert.Equal(t, matcher.SourceExactTM, suggestion.Source)
	assert.Equal(t, "Le titulaire dirige une équipe.", suggestion.TargetText)
	assert.Equal(t, 1.0, suggestion.Confidence)
	assert.Equal(t, unit.ID, suggestion.UnitID)
	assert.Zero(t, embedder.calls)
	assert.Zero(t, translator.calls)
	assert.True(t, m.AutoAcceptable(suggestion))
}

/* TestSuggestFuzzy covers similarity banding: a close neighbour is offered
with its score, the context boost lifts same-context candidates, and nothing
below the floor is offered. */
func TestSuggestFuzzy(t *testing.T) {
	t.Run("close neighbour is suggested with its similarity", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{
			"Manages a large team.": {1, 0.3, 0},
		}}
		translator := &stubTranslator{translation: "unused"}
		m, memory := newMatcher(t, embedder, translator)

		unit := commit(t, memory, "Manages a small team.", "Dirige une petite équipe.", dutiesContext, []float32{1, 0.2, 0})

		suggestion, err := m.Suggest(context.Background(), "Manages a large team.", "en", "fr", dutiesContext)
		require.NoError(t, err)

		assert.Equal(t, matcher.SourceFuzzyTM, suggestion.Source)
		assert.Equal(t, unit.ID, suggestion.UnitID)
		assert.GreaterOrEqual(t, suggestion.Confidence, defaultConfig.FuzzyFloor)
		assert.Less(t, suggestion.Confidence, 1.0)
		assert.Zero(t, translator.calls)
		assert.NotEmpty(t, suggestion.Embedding)
	})

	t.Run("same-section candidate outranks a closer foreign-section one", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{
			"Manages a large team.": {1, 0, 0},
		}}
		translator := &stubTranslator{translation: "unused"}
		m, memory := newMatcher(t, embedder, translator)

		otherContext := tm.Context{SectionCategory: "qualifications", ClassificationTier: "AS-02"}
		// Foreign section scores ~0.958 unboosted; same section scores
		// ~0.894, boosted to ~0.984.
		commit(t, memory, "Manages a big team.", "Dirige une grande équipe.", otherContext, []float32{1, 0.3, 0})
		sameCtx := commit(t, memory, "Manages several teams.", "Dirige plusieurs équipes.", dutiesContext, []float32{1, 0.5, 0})

		suggestion, err := m.Suggest(context.Background(), "Manages a large team.", "en", "fr", dutiesContext)
		require.NoError(t, err)

		assert.Equal(t, sameCtx.ID, suggestion.UnitID)
		assert.True(t, m.AutoAcceptable(suggestion))
	})

	t.Run("section match alone earns the boost across tiers", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{
			"Manages a large team.": {1, 0, 0},
		}}
		translator := &stubTranslator{translation: "unused"}
		m, memory := newMatcher(t, embedder, translator)

		foreignSection := tm.Context{SectionCategory: "qualifications", ClassificationTier: "AS-02"}
		otherTier := tm.Context{SectionCategory: "duties", ClassificationTier: "EX-01"}
		// Foreign section scores ~0.958 unboosted; the duties candidate at a
		// different tier scores ~0.894, boosted to ~0.984.
		commit(t, memory, "Manages a big team.", "Dirige une grande équipe.", foreignSection, []float32{1, 0.3, 0})
		sameSection := commit(t, memory, "Manages several teams.", "Dirige plusieurs équipes.", otherTier, []float32{1, 0.5, 0})

		suggestion, err := m.Suggest(context.Background(), "Manages a large team.", "en", "fr", dutiesContext)
		require.NoError(t, err)

		assert.Equal(t, sameSection.ID, suggestion.UnitID)
	})

	t.Run("confidence stays strictly below an exact hit", func(t *testing.T) {
		embedder := &stubEmbedder{vectors: map[string][]float32{
			"Manages a team.": {1, 0, 0},
		}}
		translator := &stubTranslator{translation: "unused"}
		m, memory := newMatcher(t, embedder, translator)

		// Identical vector and identical context: boosted score would
		// exceed 1 without the ceiling.
		commit(t, memory, "Manages the team.", "Dirige l'équipe.", dutiesContext, []float32{1, 0, 0})

		suggestion, err := m.Suggest(context.Background(), "Manages a team.", "en", "fr", dutiesContext)
		require.NoError(t, err)
		assert.Less(t, suggestion.Confidence, 1.0)
	})
}

/* TestSuggestMachineTranslation verifies the fallback of last resort: no
memory candidate above the floor yields the raw machine translation with
confidence zero, never auto-acceptable. */
func TestSuggestMachineTranslation(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"The incumbent manages a team.": {0, 0, 1},
	}}
	translator := &stubTranslator{translation: "Le titulaire gère une équipe."}
	m, memory := newMatcher(t, embedder, translator)

	// Orthogonal vector: similarity 0, far below the floor.
	commit(t, memory, "Prepares the annual budget.", "Prépare le budget annuel.", dutiesContext, []float32{1, 0, 0})

	suggestion, err := m.Suggest(context.Background(), "The incumbent manages a team.", "en", "fr", dutiesContext)
	require.NoError(t, err)

	assert.Equal(t, matcher.SourceMachineTranslation, suggestion.Source)
	assert.Equal(t, "Le titulaire gère une équipe.", suggestion.TargetText)
	assert.Equal(t, 0.0, suggestion.Confidence)
	assert.Equal(t, 1, translator.calls)
	assert.False(t, m.AutoAcceptable(suggestion))
	assert.NotEmpty(t, suggestion.Embedding)
}
