// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/concord/internal/core/concurrence"
	"github.com/taibuivan/concord/internal/core/matcher"
	"github.com/taibuivan/concord/internal/core/publication"
	"github.com/taibuivan/concord/internal/core/session"
	"github.com/taibuivan/concord/internal/core/similarity"
	"github.com/taibuivan/concord/internal/core/terminology"
	"github.com/taibuivan/concord/internal/core/tm"
)

// worldDocuments is a tiny document store for the full-cycle scenario.
type worldDocuments struct {
	segments  map[string][]string
	published map[string]bool
}

func (w *worldDocuments) Segments(_ context.Context, documentID string) ([]string, error) {
	return w.segments[documentID], nil
}

func (w *worldDocuments) SegmentCount(_ context.Context, documentID string) (int, error) {
	return len(w.segments[documentID]), nil
}

func (w *worldDocuments) PublishPair(_ context.Context, sourceID, targetID string) error {
	w.published[sourceID] = true
	w.published[targetID] = true
	return nil
}

// worldEmbedder returns a deterministic vector per text.
type worldEmbedder struct {
	vectors map[string][]float32
}

func (w *worldEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if vector, ok := w.vectors[text]; ok {
		return vector, nil
	}
	return []float32{0, 0, 1}, nil
}

// worldTranslator returns a canned machine translation.
type worldTranslator struct{}

func (worldTranslator) Translate(_ context.Context, _, _, _ string) (string, error) {
	return "Le titulaire gère une équipe.", nil
}

// worldExtractor finds no terms; terminology is not the point here.
type worldExtractor struct{}

func (worldExtractor) Extract(_ context.Context, _, _ string) ([]string, error) {
	return nil, nil
}

/* TestMemoryGrowthCycle is the full learning loop: a fresh memory offers
only machine translation at confidence zero; the advisor corrects and
publishes; a second session over the same sentence gets the human
translation back as an exact hit at confidence one, without any collaborator
involved. */
func TestMemoryGrowthCycle(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sentence := "The incumbent manages a team."
	documents := &worldDocuments{
		segments: map[string][]string{
			"doc-src-1": {sentence},
			"doc-tgt-1": {""},
			"doc-src-2": {sentence},
			"doc-tgt-2": {""},
		},
		published: map[string]bool{},
	}
	embedder := &worldEmbedder{vectors: map[string][]float32{
		sentence: {0.6, 0.8, 0},
	}}

	units := tm.NewMemoryUnitStore()
	entries := terminology.NewMemoryEntryStore()
	memory := tm.NewService(units, nil, similarity.NewIndex(), logger)
	ledger := terminology.NewLedger(entries, 3, logger)

	match := matcher.New(memory, embedder, worldTranslator{}, matcher.Config{
		AutoAcceptThreshold: 0.95,
		FuzzyFloor:          0.70,
		ContextBoost:        1.1,
		TopK:                5,
	}, logger)
	validator := concurrence.New(documents, worldExtractor{}, ledger, false, logger)
	coordinator := publication.NewCoordinator(
		publication.NewMemoryStagingStore(units, entries),
		documents, embedder, worldExtractor{}, memory, logger,
	)
	service := session.NewService(session.NewMemoryRepository(), documents, match, validator, coordinator, logger)

	open := func(sourceDoc, targetDoc string) *session.Session {
		opened, err := service.Open(ctx, session.OpenRequest{
			SourceDocumentID: sourceDoc,
			TargetDocumentID: targetDoc,
			SourceLang:       "en",
			TargetLang:       "fr",
			Context:          tm.Context{SectionCategory: "duties", ClassificationTier: "AS-02"},
			EditorID:         "advisor-17",
		})
		require.NoError(t, err)
		return opened
	}

	// First pass: the memory is empty, so the cascade bottoms out at
	// machine translation.
	first := open("doc-src-1", "doc-tgt-1")
	suggested, err := service.Suggest(ctx, first.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, matcher.SourceMachineTranslation, suggested.Session.Pair(0).MatchSource)
	assert.Equal(t, 0.0, suggested.Session.Pair(0).MatchConfidence)
	assert.False(t, suggested.AutoAcceptable)

	// The advisor corrects the machine output.
	_, err = service.Resolve(ctx, first.ID, 0, session.ResolveRequest{
		Action:          session.ActionModify,
		TargetText:      "Le titulaire dirige une équipe.",
		ExpectedVersion: suggested.Session.Pair(0).Version,
	})
	require.NoError(t, err)

	validated, err := service.RequestValidation(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, session.StatusValid, validated.Status)

	result, err := service.Publish(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UnitsCommitted)
	assert.True(t, documents.published["doc-src-1"])
	assert.True(t, documents.published["doc-tgt-1"])

	// Second pass: the same sentence now comes straight from the memory.
	second := open("doc-src-2", "doc-tgt-2")
	resuggested, err := service.Suggest(ctx, second.ID, 0)
	require.NoError(t, err)

	pair := resuggested.Session.Pair(0)
	assert.Equal(t, matcher.SourceExactTM, pair.MatchSource)
	assert.Equal(t, 1.0, pair.MatchConfidence)
	assert.Equal(t, "Le titulaire dirige une équipe.", pair.TargetText)
	assert.Equal(t, session.StateSuggested, pair.State)
	assert.True(t, resuggested.AutoAcceptable)
	assert.NotEmpty(t, pair.SourceUnitID)

	// One click, not one retranslation.
	accepted, err := service.Resolve(ctx, second.ID, 0, session.ResolveRequest{
		Action:          session.ActionAccept,
		ExpectedVersion: pair.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, session.StateAccepted, accepted.Pair(0).State)
}
