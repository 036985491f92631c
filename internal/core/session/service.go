// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/concord/internal/core/matcher"
	"github.com/taibuivan/concord/internal/core/tm"
	"github.com/taibuivan/concord/internal/platform/apperr"
	"github.com/taibuivan/concord/internal/provider"
	"github.com/taibuivan/concord/pkg/uuid"
)

// Service orchestrates the session lifecycle.
//
// Long-running collaborator calls (matching, validation, publication) happen
// on a snapshot outside the session lock; their results are applied under the
// lock with version checks, so a slow embedding call never blocks another
// advisor's read and never overwrites a concurrent edit.
type Service struct {
	repo      Repository
	documents provider.DocumentStore
	suggester Suggester
	validator Validator
	publisher Publisher
	logger    *slog.Logger
}

// NewService wires the session service.
func NewService(repo Repository, documents provider.DocumentStore, suggester Suggester, validator Validator, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		documents: documents,
		suggester: suggester,
		validator: validator,
		publisher: publisher,
		logger:    logger,
	}
}

// OpenRequest carries everything needed to open a session.
type OpenRequest struct {
	SourceDocumentID string
	TargetDocumentID string
	SourceLang       string
	TargetLang       string
	Context          tm.Context
	EditorID         string
}

// Open fetches the source document's segments and creates a fresh session
// with every pair unmatched.
func (s *Service) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	segments, err := s.documents.Segments(ctx, req.SourceDocumentID)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, apperr.Unprocessable("Source document has no segments")
	}

	now := time.Now().UTC()
	session := &Session{
		ID:               uuid.New(),
		SourceDocumentID: req.SourceDocumentID,
		TargetDocumentID: req.TargetDocumentID,
		SourceLang:       req.SourceLang,
		TargetLang:       req.TargetLang,
		Context:          req.Context,
		Status:           StatusInProgress,
		EditorID:         req.EditorID,
		Pairs:            make([]SentencePair, len(segments)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for i, text := range segments {
		session.Pairs[i] = SentencePair{
			OrderIndex: i,
			SourceText: text,
			State:      StateUnmatched,
		}
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "session_opened",
		slog.String("session_id", session.ID),
		slog.String("source_document_id", req.SourceDocumentID),
		slog.Int("segments", len(segments)),
	)
	return session, nil
}

// Get returns a read-only snapshot of the session.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.repo.Get(ctx, id)
}

// Abandon discards the session. Nothing durable is lost.
func (s *Service) Abandon(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// SuggestOutcome pairs the updated session with the matcher's rendering hint.
type SuggestOutcome struct {
	Session *Session `json:"session"`
	// AutoAcceptable reports that the suggestion cleared the auto-accept
	// threshold. It is advisory: the pair waits in Suggested until an
	// advisor resolves it.
	AutoAcceptable bool `json:"auto_acceptable"`
}

// Suggest runs the matching cascade for one segment and applies the result.
// The pair lands in Suggested regardless of confidence; only an advisor's
// resolution can accept it.
//
// The cascade runs on a snapshot; if the pair was mutated meanwhile, the
// result is discarded with a stale-segment conflict rather than clobbering
// the newer edit.
func (s *Service) Suggest(ctx context.Context, id string, orderIndex int) (*SuggestOutcome, error) {
	snapshot, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutable(snapshot); err != nil {
		return nil, err
	}

	pair := snapshot.Pair(orderIndex)
	if pair == nil {
		return nil, apperr.NotFound("Segment")
	}
	snapshotVersion := pair.Version

	suggestion, err := s.suggester.Suggest(ctx, pair.SourceText, snapshot.SourceLang, snapshot.TargetLang, snapshot.Context)
	if err != nil {
		return nil, err
	}

	err = s.repo.Mutate(ctx, id, func(session *Session) error {
		if err := mutable(session); err != nil {
			return err
		}
		current := session.Pair(orderIndex)
		if current == nil {
			return apperr.NotFound("Segment")
		}
		if current.Version != snapshotVersion {
			return apperr.StaleSegment(orderIndex, snapshotVersion, current.Version)
		}

		current.TargetText = suggestion.TargetText
		current.MatchSource = suggestion.Source
		current.MatchConfidence = suggestion.Confidence
		current.SourceUnitID = suggestion.UnitID
		current.Embedding = suggestion.Embedding
		current.State = StateSuggested
		current.Version++

		touch(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SuggestOutcome{
		Session:        updated,
		AutoAcceptable: s.suggester.AutoAcceptable(suggestion),
	}, nil
}

// ResolveAction is the advisor's ruling on a suggested pair.
type ResolveAction string

const (
	ActionAccept ResolveAction = "accept"
	ActionReject ResolveAction = "reject"
	ActionModify ResolveAction = "modify"
)

// ResolveRequest carries one segment resolution.
type ResolveRequest struct {
	Action ResolveAction
	// TargetText is required for modify and ignored otherwise.
	TargetText string
	// ExpectedVersion is the pair version the advisor last saw. A mismatch
	// means someone else got there first.
	ExpectedVersion int
}

// Resolve applies an advisor's ruling to one segment.
func (s *Service) Resolve(ctx context.Context, id string, orderIndex int, req ResolveRequest) (*Session, error) {
	err := s.repo.Mutate(ctx, id, func(session *Session) error {
		if err := mutable(session); err != nil {
			return err
		}
		pair := session.Pair(orderIndex)
		if pair == nil {
			return apperr.NotFound("Segment")
		}
		if pair.Version != req.ExpectedVersion {
			return apperr.StaleSegment(orderIndex, req.ExpectedVersion, pair.Version)
		}

		switch req.Action {
		case ActionAccept:
			if pair.State != StateSuggested && pair.State != StateAccepted {
				return apperr.InvalidTransition("accept", string(pair.State))
			}
			pair.State = StateAccepted

		case ActionReject:
			if pair.State == StateUnmatched {
				return apperr.InvalidTransition("reject", string(pair.State))
			}
			pair.State = StateRejected
			pair.TargetText = ""
			pair.MatchSource = ""
			pair.MatchConfidence = 0
			pair.SourceUnitID = ""

		case ActionModify:
			if req.TargetText == "" {
				return apperr.ValidationError("Modified target text must not be empty", apperr.FieldError{
					Field:   "target_text",
					Message: "This field is required for modify",
				})
			}
			pair.State = StateModified
			pair.TargetText = req.TargetText
			pair.MatchSource = matcher.SourceManual
			pair.MatchConfidence = 0
			pair.SourceUnitID = ""

		default:
			return apperr.ValidationError("Unknown resolve action", apperr.FieldError{
				Field:   "action",
				Message: "Must be one of: accept, reject, modify",
			})
		}

		pair.Version++
		touch(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// RequestValidation runs the concurrence checks and settles the session into
// valid or invalid. Every segment must already carry a terminal resolution;
// an unmatched or merely suggested pair has no advisor ruling to validate.
//
// The checks run on a snapshot while the session sits in
// validation_requested, which blocks segment mutation for the duration.
func (s *Service) RequestValidation(ctx context.Context, id string) (*Session, error) {
	var snapshot *Session
	err := s.repo.Mutate(ctx, id, func(session *Session) error {
		switch session.Status {
		case StatusInProgress, StatusValid, StatusInvalid:
		default:
			return apperr.InvalidTransition("request_validation", string(session.Status))
		}
		for i := range session.Pairs {
			if !session.Pairs[i].State.Terminal() {
				return apperr.InvalidTransition("request_validation", string(session.Pairs[i].State))
			}
		}
		session.Status = StatusValidationRequested
		session.UpdatedAt = time.Now().UTC()
		snapshot = copySession(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report, validateErr := s.validator.Validate(ctx, snapshot)

	err = s.repo.Mutate(ctx, id, func(session *Session) error {
		if validateErr != nil {
			// The run never completed; the session goes back to work.
			session.Status = StatusInProgress
			session.UpdatedAt = time.Now().UTC()
			return nil
		}
		session.Report = report
		if report.Passed {
			session.Status = StatusValid
		} else {
			session.Status = StatusInvalid
		}
		session.UpdatedAt = time.Now().UTC()
		return nil
	})
	if validateErr != nil {
		return nil, validateErr
	}
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, id)
}

// Publish commits a valid session atomically.
//
// On any failure the session stays valid and publish can simply be retried;
// the idempotent unit commits make the retry safe.
func (s *Service) Publish(ctx context.Context, id string) (*PublishResult, error) {
	var snapshot *Session
	err := s.repo.Mutate(ctx, id, func(session *Session) error {
		if session.Status != StatusValid {
			return apperr.InvalidTransition("publish", string(session.Status))
		}
		if session.publishing {
			return apperr.Conflict("Publication already in progress")
		}
		session.publishing = true
		snapshot = copySession(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, publishErr := s.publisher.Publish(ctx, snapshot)

	err = s.repo.Mutate(ctx, id, func(session *Session) error {
		session.publishing = false
		if publishErr == nil {
			session.Status = StatusPublished
			session.UpdatedAt = time.Now().UTC()
		}
		return nil
	})
	if publishErr != nil {
		return nil, publishErr
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "session_published",
		slog.String("session_id", id),
		slog.String("record_id", result.RecordID),
		slog.Int("units_committed", result.UnitsCommitted),
	)
	return result, nil
}

// Report returns the latest concurrence report.
func (s *Service) Report(ctx context.Context, id string) (*ConcurrenceReport, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Report == nil {
		return nil, apperr.NotFound("Concurrence report")
	}
	return session.Report, nil
}

// mutable rejects segment mutation in states where the session must hold
// still.
func mutable(session *Session) error {
	switch session.Status {
	case StatusPublished:
		return apperr.InvalidTransition("edit", string(StatusPublished))
	case StatusValidationRequested:
		return apperr.InvalidTransition("edit", string(StatusValidationRequested))
	}
	if session.publishing {
		return apperr.Conflict("Publication in progress")
	}
	return nil
}

// touch records a mutation: a previously settled verdict no longer describes
// the session, so it is discarded.
func touch(session *Session) {
	if session.Status == StatusValid || session.Status == StatusInvalid {
		session.Status = StatusInProgress
		session.Report = nil
	}
	session.UpdatedAt = time.Now().UTC()
}
