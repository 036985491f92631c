// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements translation working sessions: the mutable,
in-flight state between opening a document pair and publishing it.

A session is transient. Everything durable lives in the translation memory
and the terminology ledger; abandoning a session loses nothing that was ever
validated.

# State machine

Session statuses move in_progress → validation_requested → valid → published,
with invalid as the detour when concurrence fails. Any segment mutation while
valid or invalid throws the session back to in_progress: the previous verdict
described a document that no longer exists.
*/
package session

import (
	"context"
	"time"

	"github.com/taibuivan/concord/internal/core/matcher"
	"github.com/taibuivan/concord/internal/core/tm"
)

// Status is the session-level state.
type Status string

const (
	StatusInProgress          Status = "in_progress"
	StatusValidationRequested Status = "validation_requested"
	StatusValid               Status = "valid"
	StatusInvalid             Status = "invalid"
	StatusPublished           Status = "published"
)

// SegmentState is the per-pair resolution state.
type SegmentState string

const (
	// StateUnmatched: no suggestion has been requested yet.
	StateUnmatched SegmentState = "unmatched"
	// StateSuggested: the matcher proposed a target; the advisor has not
	// ruled on it.
	StateSuggested SegmentState = "suggested"
	// StateAccepted: the advisor accepted the suggestion as-is.
	StateAccepted SegmentState = "accepted"
	// StateRejected: the advisor refused the suggestion; the pair carries no
	// usable translation.
	StateRejected SegmentState = "rejected"
	// StateModified: the advisor supplied or edited the target text.
	StateModified SegmentState = "modified"
)

// Terminal reports whether the advisor has ruled on the pair.
func (s SegmentState) Terminal() bool {
	return s == StateAccepted || s == StateRejected || s == StateModified
}

// SentencePair is one aligned source/target segment within a session.
type SentencePair struct {
	OrderIndex      int            `json:"order_index"`
	SourceText      string         `json:"source_text"`
	TargetText      string         `json:"target_text"`
	State           SegmentState   `json:"state"`
	MatchSource     matcher.Source `json:"match_source,omitempty"`
	MatchConfidence float64        `json:"match_confidence"`
	// SourceUnitID references the memory unit a TM suggestion came from.
	SourceUnitID string `json:"source_unit_id,omitempty"`
	// Version is the optimistic-concurrency counter; it grows on every
	// mutation of this pair.
	Version int `json:"version"`
	// Embedding is the source segment's vector, cached from the suggestion
	// step so publication does not embed the same text twice.
	Embedding []float32 `json:"-"`
}

// Session is one advisor's in-flight work on a document pair.
type Session struct {
	ID               string         `json:"id"`
	SourceDocumentID string         `json:"source_document_id"`
	TargetDocumentID string         `json:"target_document_id"`
	SourceLang       string         `json:"source_lang"`
	TargetLang       string         `json:"target_lang"`
	Context          tm.Context     `json:"context"`
	Status           Status         `json:"status"`
	EditorID         string         `json:"editor_id"`
	Pairs            []SentencePair `json:"pairs"`
	// Report is the latest concurrence verdict, nil before the first
	// validation and after any mutation since.
	Report    *ConcurrenceReport `json:"report,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`

	// publishing guards against a second publish racing the first.
	publishing bool
}

// Pair returns the pair at orderIndex, or nil when out of range.
func (s *Session) Pair(orderIndex int) *SentencePair {
	if orderIndex < 0 || orderIndex >= len(s.Pairs) {
		return nil
	}
	return &s.Pairs[orderIndex]
}

// DiscrepancyKind classifies a concurrence finding.
type DiscrepancyKind string

const (
	// DiscrepancyMissingTranslation: a rejected pair leaves a source segment
	// without any translation.
	DiscrepancyMissingTranslation DiscrepancyKind = "missing_translation"
	// DiscrepancyExtraSegment: the linked target document disagrees with the
	// session on segment count.
	DiscrepancyExtraSegment DiscrepancyKind = "extra_segment"
	// DiscrepancyUnresolvedSegment: a pair the advisor never ruled on.
	DiscrepancyUnresolvedSegment DiscrepancyKind = "unresolved_segment"
	// DiscrepancyTerminologyConflict: a term rendered against the ledger's
	// established choice. Advisory unless strict terminology is on.
	DiscrepancyTerminologyConflict DiscrepancyKind = "terminology_conflict"
)

// Discrepancy is one concurrence finding.
type Discrepancy struct {
	Kind DiscrepancyKind `json:"kind"`
	// OrderIndex locates the offending pair; -1 for document-level findings.
	OrderIndex int    `json:"order_index"`
	Detail     string `json:"detail"`
	// Blocking findings fail the validation; the rest are advisory.
	Blocking bool `json:"blocking"`
}

// ConcurrenceReport is the outcome of one validation run.
type ConcurrenceReport struct {
	Passed        bool          `json:"passed"`
	CheckedAt     time.Time     `json:"checked_at"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// PublishResult is what a successful publication returns.
type PublishResult struct {
	RecordID       string    `json:"record_id"`
	UnitsCommitted int       `json:"units_committed"`
	PublishedAt    time.Time `json:"published_at"`
}

// Suggester produces target-text suggestions for source segments.
// Implemented by the matcher.
type Suggester interface {
	Suggest(ctx context.Context, sourceText, sourceLang, targetLang string, docContext tm.Context) (*matcher.Suggestion, error)
	AutoAcceptable(suggestion *matcher.Suggestion) bool
}

// Validator runs the concurrence checks over a session snapshot.
// Implemented by the concurrence validator.
type Validator interface {
	Validate(ctx context.Context, session *Session) (*ConcurrenceReport, error)
}

// Publisher atomically commits a validated session. Implemented by the
// publication coordinator.
type Publisher interface {
	Publish(ctx context.Context, session *Session) (*PublishResult, error)
}
