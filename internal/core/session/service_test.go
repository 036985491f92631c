// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/concord/internal/core/matcher"
	"github.com/taibuivan/concord/internal/core/session"
	"github.com/taibuivan/concord/internal/core/tm"
	"github.com/taibuivan/concord/internal/platform/apperr"
)

// stubDocuments serves fixed segments per document ID.
type stubDocuments struct {
	segments map[string][]string
}

func (s *stubDocuments) Segments(_ context.Context, documentID string) ([]string, error) {
	segments, ok := s.segments[documentID]
	if !ok {
		return nil, apperr.NotFound("Document")
	}
	return segments, nil
}

func (s *stubDocuments) SegmentCount(_ context.Context, documentID string) (int, error) {
	return len(s.segments[documentID]), nil
}

func (s *stubDocuments) PublishPair(_ context.Context, _, _ string) error {
	return nil
}

// stubSuggester returns a fixed suggestion.
type stubSuggester struct {
	suggestion *matcher.Suggestion
	err        error
}

func (s *stubSuggester) Suggest(_ context.Context, _, _, _ string, _ tm.Context) (*matcher.Suggestion, error) {
	if s.err != nil {
		return nil, s.err
	}
	clone := *s.suggestion
	return &clone, nil
}

func (s *stubSuggester) AutoAcceptable(suggestion *matcher.Suggestion) bool {
	return suggestion.Source == matcher.SourceExactTM
}

// stubValidator returns a fixed report and counts calls.
type stubValidator struct {
	report *session.ConcurrenceReport
	err    error
	calls  int
}

func (s *stubValidator) Validate(_ context.Context, _ *session.Session) (*session.ConcurrenceReport, error) {
	s.calls++
	return s.report, s.err
}

// stubPublisher counts calls and can fail.
type stubPublisher struct {
	result *session.PublishResult
	err    error
	calls  int
}

func (s *stubPublisher) Publish(_ context.Context, _ *session.Session) (*session.PublishResult, error) {
	s.calls++
	return s.result, s.err
}

type deps struct {
	documents *stubDocuments
	suggester *stubSuggester
	validator *stubValidator
	publisher *stubPublisher
}

func defaultDeps() *deps {
	return &deps{
		documents: &stubDocuments{segments: map[string][]string{
			"doc-src": {"The incumbent manages a team.", "Prepares the annual budget."},
			"doc-tgt": {"", ""},
		}},
		suggester: &stubSuggester{suggestion: &matcher.Suggestion{
			Source:     matcher.SourceMachineTranslation,
			TargetText: "Le titulaire gère une équipe.",
			Confidence: 0,
		}},
		validator: &stubValidator{report: &session.ConcurrenceReport{Passed: true, Discrepancies: []session.Discrepancy{}}},
		publisher: &stubPublisher{result: &session.PublishResult{RecordID: "rec-1", UnitsCommitted: 2}},
	}
}

func newService(t *testing.T, d *deps) *session.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.NewService(session.NewMemoryRepository(), d.documents, d.suggester, d.validator, d.publisher, logger)
}

func openSession(t *testing.T, service *session.Service) *session.Session {
	t.Helper()
	opened, err := service.Open(context.Background(), session.OpenRequest{
		SourceDocumentID: "doc-src",
		TargetDocumentID: "doc-tgt",
		SourceLang:       "en",
		TargetLang:       "fr",
		Context:          tm.Context{SectionCategory: "duties", ClassificationTier: "AS-02"},
		EditorID:         "advisor-17",
	})
	require.NoError(t, err)
	return opened
}

/* TestOpen covers session creation from the source document's segments. */
func TestOpen(t *testing.T) {
	t.Run("creates one unmatched pair per segment", func(t *testing.T) {
		service := newService(t, defaultDeps())

		opened := openSession(t, service)

		assert.Equal(t, session.StatusInProgress, opened.Status)
		require.Len(t, opened.Pairs, 2)
		for i, pair := range opened.Pairs {
			assert.Equal(t, i, pair.OrderIndex)
			assert.Equal(t, session.StateUnmatched, pair.State)
			assert.Zero(t, pair.Version)
		}
	})

	t.Run("unknown source document fails", func(t *testing.T) {
		service := newService(t, defaultDeps())

		_, err := service.Open(context.Background(), session.OpenRequest{
			SourceDocumentID: "doc-missing",
			TargetDocumentID: "doc-tgt",
			SourceLang:       "en",
			TargetLang:       "fr",
			EditorID:         "advisor-17",
		})
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	})
}

/* TestResolve covers the advisor rulings and the optimistic-concurrency
guard: a write carrying a stale version is rejected without clobbering. */
func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("modify sets manual target text", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)

		updated, err := service.Resolve(ctx, opened.ID, 0, session.ResolveRequest{
			Action:          session.ActionModify,
			TargetText:      "Le titulaire dirige une équipe.",
			ExpectedVersion: 0,
		})
		require.NoError(t, err)

		pair := updated.Pair(0)
		assert.Equal(t, session.StateModified, pair.State)
		assert.Equal(t, "Le titulaire dirige une équipe.", pair.TargetText)
		assert.Equal(t, matcher.SourceManual, pair.MatchSource)
		assert.Equal(t, 1, pair.Version)
	})

	t.Run("stale version is rejected and the newer edit survives", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)

		_, err := service.Resolve(ctx, opened.ID, 0, session.ResolveRequest{
			Action:          session.ActionModify,
			TargetText:      "Le titulaire dirige une équipe.",
			ExpectedVersion: 0,
		})
		require.NoError(t, err)

		// A second advisor still holds version 0.
		_, err = service.Resolve(ctx, opened.ID, 0, session.ResolveRequest{
			Action:          session.ActionModify,
			TargetText:      "Texte concurrent.",
			ExpectedVersion: 0,
		})
		assert.True(t, apperr.IsCode(err, "STALE_SEGMENT"))

		current, err := service.Get(ctx, opened.ID)
		require.NoError(t, err)
		assert.Equal(t, "Le titulaire dirige une équipe.", current.Pair(0).TargetText)
	})

	t.Run("accept without a suggestion is an invalid transition", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)

		_, err := service.Resolve(ctx, opened.ID, 0, session.ResolveRequest{
			Action:          session.ActionAccept,
			ExpectedVersion: 0,
		})
		assert.True(t, apperr.IsCode(err, "INVALID_TRANSITION"))
	})

	t.Run("out-of-range segment is not found", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)

		_, err := service.Resolve(ctx, opened.ID, 99, session.ResolveRequest{
			Action:          session.ActionModify,
			TargetText:      "x",
			ExpectedVersion: 0,
		})
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	})
}

/* TestSuggest covers applying the matcher's answer, including the stale
check between snapshot and apply. */
func TestSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("suggestion fills the pair", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)

		outcome, err := service.Suggest(ctx, opened.ID, 0)
		require.NoError(t, err)

		pair := outcome.Session.Pair(0)
		assert.Equal(t, session.StateSuggested, pair.State)
		assert.Equal(t, "Le titulaire gère une équipe.", pair.TargetText)
		assert.Equal(t, matcher.SourceMachineTranslation, pair.MatchSource)
		assert.Equal(t, 0.0, pair.MatchConfidence)
		assert.Equal(t, 1, pair.Version)
		assert.False(t, outcome.AutoAcceptable)
	})

	t.Run("exact suggestions still wait for the advisor", func(t *testing.T) {
		d := defaultDeps()
		d.suggester.suggestion = &matcher.Suggestion{
			Source:     matcher.SourceExactTM,
			TargetText: "Le titulaire dirige une équipe.",
			Confidence: 1,
			UnitID:     "unit-1",
		}
		service := newService(t, d)
		opened := openSession(t, service)

		outcome, err := service.Suggest(ctx, opened.ID, 0)
		require.NoError(t, err)

		pair := outcome.Session.Pair(0)
		assert.Equal(t, session.StateSuggested, pair.State)
		assert.Equal(t, "unit-1", pair.SourceUnitID)
		assert.True(t, outcome.AutoAcceptable)

		// Acceptance is the advisor's ruling, not the matcher's.
		resolved, err := service.Resolve(ctx, opened.ID, 0, session.ResolveRequest{
			Action:          session.ActionAccept,
			ExpectedVersion: pair.Version,
		})
		require.NoError(t, err)
		assert.Equal(t, session.StateAccepted, resolved.Pair(0).State)
	})

	t.Run("collaborator failure surfaces unchanged", func(t *testing.T) {
		d := defaultDeps()
		d.suggester.err = apperr.CollaboratorFailure("embedding", errors.New("down"))
		service := newService(t, d)
		opened := openSession(t, service)

		_, err := service.Suggest(ctx, opened.ID, 0)
		assert.True(t, apperr.IsCode(err, "COLLABORATOR_FAILURE"))
	})
}

/* TestLifecycle covers the session state machine: validation verdicts, the
mutation reset, publish preconditions and the stays-valid-on-failure rule. */
func TestLifecycle(t *testing.T) {
	ctx := context.Background()

	resolveAll := func(t *testing.T, service *session.Service, id string) {
		t.Helper()
		current, err := service.Get(ctx, id)
		require.NoError(t, err)
		for _, pair := range current.Pairs {
			_, err := service.Resolve(ctx, id, pair.OrderIndex, session.ResolveRequest{
				Action:          session.ActionModify,
				TargetText:      "Texte validé.",
				ExpectedVersion: pair.Version,
			})
			require.NoError(t, err)
		}
	}

	t.Run("passing validation makes the session valid", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)
		resolveAll(t, service, opened.ID)

		validated, err := service.RequestValidation(ctx, opened.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StatusValid, validated.Status)
		require.NotNil(t, validated.Report)
		assert.True(t, validated.Report.Passed)
	})

	t.Run("failing validation makes the session invalid", func(t *testing.T) {
		d := defaultDeps()
		d.validator.report = &session.ConcurrenceReport{
			Passed: false,
			Discrepancies: []session.Discrepancy{
				{Kind: session.DiscrepancyTerminologyConflict, OrderIndex: 1, Blocking: true},
			},
		}
		service := newService(t, d)
		opened := openSession(t, service)
		resolveAll(t, service, opened.ID)

		validated, err := service.RequestValidation(ctx, opened.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StatusInvalid, validated.Status)
	})

	t.Run("validation refuses unresolved segments", func(t *testing.T) {
		d := defaultDeps()
		service := newService(t, d)
		opened := openSession(t, service)

		// Freshly opened: every pair is still unmatched.
		_, err := service.RequestValidation(ctx, opened.ID)
		assert.True(t, apperr.IsCode(err, "INVALID_TRANSITION"))

		// A pending suggestion is not a ruling either.
		_, err = service.Suggest(ctx, opened.ID, 0)
		require.NoError(t, err)
		_, err = service.RequestValidation(ctx, opened.ID)
		assert.True(t, apperr.IsCode(err, "INVALID_TRANSITION"))

		assert.Zero(t, d.validator.calls)

		current, err := service.Get(ctx, opened.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StatusInProgress, current.Status)
	})

	t.Run("mutation after a verdict resets to in progress", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)
		resolveAll(t, service, opened.ID)

		validated, err := service.RequestValidation(ctx, opened.ID)
		require.NoError(t, err)
		require.Equal(t, session.StatusValid, validated.Status)

		mutated, err := service.Resolve(ctx, opened.ID, 0, session.ResolveRequest{
			Action:          session.ActionModify,
			TargetText:      "Texte retravaillé.",
			ExpectedVersion: validated.Pair(0).Version,
		})
		require.NoError(t, err)
		assert.Equal(t, session.StatusInProgress, mutated.Status)
		assert.Nil(t, mutated.Report)
	})

	t.Run("publish requires a valid session", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)

		_, err := service.Publish(ctx, opened.ID)
		assert.True(t, apperr.IsCode(err, "INVALID_TRANSITION"))
	})

	t.Run("failed publish leaves the session valid for retry", func(t *testing.T) {
		d := defaultDeps()
		d.publisher.err = apperr.CommitFailure(errors.New("tx broke"))
		service := newService(t, d)
		opened := openSession(t, service)
		resolveAll(t, service, opened.ID)

		_, err := service.RequestValidation(ctx, opened.ID)
		require.NoError(t, err)

		_, err = service.Publish(ctx, opened.ID)
		assert.True(t, apperr.IsCode(err, "COMMIT_FAILURE"))

		current, err := service.Get(ctx, opened.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StatusValid, current.Status)

		// Retry succeeds once the backend recovers.
		d.publisher.err = nil
		result, err := service.Publish(ctx, opened.ID)
		require.NoError(t, err)
		assert.Equal(t, "rec-1", result.RecordID)

		published, err := service.Get(ctx, opened.ID)
		require.NoError(t, err)
		assert.Equal(t, session.StatusPublished, published.Status)
	})

	t.Run("published sessions are frozen", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)
		resolveAll(t, service, opened.ID)

		_, err := service.RequestValidation(ctx, opened.ID)
		require.NoError(t, err)
		_, err = service.Publish(ctx, opened.ID)
		require.NoError(t, err)

		_, err = service.Resolve(ctx, opened.ID, 0, session.ResolveRequest{
			Action:          session.ActionModify,
			TargetText:      "Trop tard.",
			ExpectedVersion: 1,
		})
		assert.True(t, apperr.IsCode(err, "INVALID_TRANSITION"))

		_, err = service.RequestValidation(ctx, opened.ID)
		assert.True(t, apperr.IsCode(err, "INVALID_TRANSITION"))
	})

	t.Run("report is not found before the first validation", func(t *testing.T) {
		service := newService(t, defaultDeps())
		opened := openSession(t, service)

		_, err := service.Report(ctx, opened.ID)
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	})
}
