// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package concurrence_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/concord/internal/core/concurrence"
	"github.com/taibuivan/concord/internal/core/matcher"
	"github.com/taibuivan/concord/internal/core/session"
	"github.com/taibuivan/concord/internal/core/terminology"
)

// stubDocuments serves fixed segment counts per document ID.
type stubDocuments struct {
	counts map[string]int
}

func (s *stubDocuments) Segments(_ context.Context, documentID string) ([]string, error) {
	return make([]string, s.counts[documentID]), nil
}

func (s *stubDocuments) SegmentCount(_ context.Context, documentID string) (int, error) {
	return s.counts[documentID], nil
}

func (s *stubDocuments) PublishPair(_ context.Context, _, _ string) error {
	return nil
}

// stubExtractor returns preconfigured terms per text.
type stubExtractor struct {
	terms map[string][]string
}

func (s *stubExtractor) Extract(_ context.Context, text, _ string) ([]string, error) {
	return s.terms[text], nil
}

func resolvedSession(states ...session.SegmentState) *session.Session {
	pairs := make([]session.SentencePair, len(states))
	for i, state := range states {
		pairs[i] = session.SentencePair{
			OrderIndex:  i,
			SourceText:  "source",
			TargetText:  "cible",
			State:       state,
			MatchSource: matcher.SourceManual,
		}
	}
	return &session.Session{
		ID:               "sess-1",
		SourceDocumentID: "doc-src",
		TargetDocumentID: "doc-tgt",
		SourceLang:       "en",
		TargetLang:       "fr",
		Status:           session.StatusInProgress,
		Pairs:            pairs,
	}
}

func newValidator(t *testing.T, documents *stubDocuments, extractor *stubExtractor, ledger *terminology.Ledger, strict bool) *concurrence.Validator {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if ledger == nil {
		ledger = terminology.NewLedger(terminology.NewMemoryEntryStore(), 3, logger)
	}
	if extractor == nil {
		extractor = &stubExtractor{terms: map[string][]string{}}
	}
	return concurrence.New(documents, extractor, ledger, strict, logger)
}

/* TestValidateStructure covers the blocking structural checks: unresolved
segments, rejected segments, and document imbalance. */
func TestValidateStructure(t *testing.T) {
	ctx := context.Background()

	t.Run("fully resolved and balanced session passes", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 2}}
		validator := newValidator(t, documents, nil, nil, false)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted, session.StateModified))
		require.NoError(t, err)
		assert.True(t, report.Passed)
		assert.Empty(t, report.Discrepancies)
	})

	t.Run("unresolved segment blocks", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 2}}
		validator := newValidator(t, documents, nil, nil, false)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted, session.StateSuggested))
		require.NoError(t, err)
		assert.False(t, report.Passed)
		require.Len(t, report.Discrepancies, 1)
		assert.Equal(t, session.DiscrepancyUnresolvedSegment, report.Discrepancies[0].Kind)
		assert.Equal(t, 1, report.Discrepancies[0].OrderIndex)
		assert.True(t, report.Discrepancies[0].Blocking)
	})

	t.Run("rejected segment blocks as a missing translation", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 2}}
		validator := newValidator(t, documents, nil, nil, false)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted, session.StateRejected))
		require.NoError(t, err)
		assert.False(t, report.Passed)
		require.Len(t, report.Discrepancies, 1)
		assert.Equal(t, session.DiscrepancyMissingTranslation, report.Discrepancies[0].Kind)
	})

	t.Run("segment imbalance blocks at document level", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 5}}
		validator := newValidator(t, documents, nil, nil, false)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted, session.StateAccepted))
		require.NoError(t, err)
		assert.False(t, report.Passed)
		require.Len(t, report.Discrepancies, 1)
		assert.Equal(t, session.DiscrepancyExtraSegment, report.Discrepancies[0].Kind)
		assert.Equal(t, -1, report.Discrepancies[0].OrderIndex)
	})

	t.Run("collects every discrepancy in one pass", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 5}}
		validator := newValidator(t, documents, nil, nil, false)

		report, err := validator.Validate(ctx, resolvedSession(session.StateUnmatched, session.StateRejected))
		require.NoError(t, err)
		assert.False(t, report.Passed)
		assert.Len(t, report.Discrepancies, 3)
	})
}

/* TestValidateTerminology covers the advisory/strict split on terminology
conflicts. */
func TestValidateTerminology(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	conflictedLedger := func(t *testing.T) *terminology.Ledger {
		t.Helper()
		ledger := terminology.NewLedger(terminology.NewMemoryEntryStore(), 3, logger)
		for i := 0; i < 3; i++ {
			require.NoError(t, ledger.RecordOccurrence(ctx, "deliverable", "fr", "livrable"))
		}
		return ledger
	}

	extractor := &stubExtractor{terms: map[string][]string{
		"source": {"deliverable"},
		"cible":  {"produit livrable"},
	}}

	t.Run("conflict is advisory by default", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 1}}
		validator := newValidator(t, documents, extractor, conflictedLedger(t), false)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted))
		require.NoError(t, err)
		assert.True(t, report.Passed)
		require.Len(t, report.Discrepancies, 1)
		assert.Equal(t, session.DiscrepancyTerminologyConflict, report.Discrepancies[0].Kind)
		assert.False(t, report.Discrepancies[0].Blocking)
	})

	t.Run("conflict blocks under strict terminology", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 1}}
		validator := newValidator(t, documents, extractor, conflictedLedger(t), true)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted))
		require.NoError(t, err)
		assert.False(t, report.Passed)
		require.Len(t, report.Discrepancies, 1)
		assert.True(t, report.Discrepancies[0].Blocking)
	})

	t.Run("consistent rendering passes clean", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 1}}
		consistent := &stubExtractor{terms: map[string][]string{
			"source": {"deliverable"},
			"cible":  {"livrable"},
		}}
		validator := newValidator(t, documents, consistent, conflictedLedger(t), true)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted))
		require.NoError(t, err)
		assert.True(t, report.Passed)
		assert.Empty(t, report.Discrepancies)
	})

	t.Run("mismatched term counts are skipped, not misaligned", func(t *testing.T) {
		documents := &stubDocuments{counts: map[string]int{"doc-tgt": 1}}
		lopsided := &stubExtractor{terms: map[string][]string{
			"source": {"deliverable", "stakeholder"},
			"cible":  {"livrable"},
		}}
		validator := newValidator(t, documents, lopsided, conflictedLedger(t), true)

		report, err := validator.Validate(ctx, resolvedSession(session.StateAccepted))
		require.NoError(t, err)
		assert.True(t, report.Passed)
		assert.Empty(t, report.Discrepancies)
	})
}
