// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publication

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/concord/internal/core/session"
	"github.com/taibuivan/concord/internal/core/tm"
	"github.com/taibuivan/concord/internal/platform/apperr"
	"github.com/taibuivan/concord/internal/provider"
	"github.com/taibuivan/concord/pkg/normalize"
	"github.com/taibuivan/concord/pkg/uuid"
)

// Coordinator runs the two-phase publication. It implements
// [session.Publisher].
type Coordinator struct {
	staging   StagingStore
	documents provider.DocumentStore
	embedder  provider.Embedder
	extractor provider.TermExtractor
	memory    *tm.Service
	logger    *slog.Logger
}

// NewCoordinator wires the publication coordinator.
func NewCoordinator(staging StagingStore, documents provider.DocumentStore, embedder provider.Embedder, extractor provider.TermExtractor, memory *tm.Service, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		staging:   staging,
		documents: documents,
		embedder:  embedder,
		extractor: extractor,
		memory:    memory,
		logger:    logger,
	}
}

// publishable are the pair states that produce a translation unit.
func publishable(pair session.SentencePair) bool {
	return pair.State == session.StateAccepted || pair.State == session.StateModified
}

// Publish commits a validated session snapshot.
//
// Phase one resolves every collaborator dependency (embeddings, term
// extraction) before anything is written. Phase two stages all database
// writes in one transaction, flips the document pair while the transaction
// is still open, and commits only after the flip succeeds.
func (c *Coordinator) Publish(ctx context.Context, snapshot *session.Session) (*session.PublishResult, error) {
	drafts, err := c.prepareDrafts(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	occurrences, err := c.prepareOccurrences(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	record := Record{
		ID:               uuid.New(),
		SessionID:        snapshot.ID,
		SourceDocumentID: snapshot.SourceDocumentID,
		TargetDocumentID: snapshot.TargetDocumentID,
		Report:           snapshot.Report,
		PublishedAt:      time.Now().UTC(),
	}

	staging, err := c.staging.Begin(ctx)
	if err != nil {
		return nil, apperr.CommitFailure(err)
	}

	created, err := c.stage(ctx, staging, drafts, occurrences, record)
	if err != nil {
		c.rollback(ctx, staging, snapshot.ID)
		return nil, err
	}

	// The flip happens against the still-open transaction: a failure here
	// rolls every staged write back and the session stays valid.
	if err := c.documents.PublishPair(ctx, snapshot.SourceDocumentID, snapshot.TargetDocumentID); err != nil {
		c.rollback(ctx, staging, snapshot.ID)
		return nil, err
	}

	if err := staging.Commit(ctx); err != nil {
		// The documents are flipped but the memory writes are lost. This is
		// the one window the protocol cannot close; it is loud on purpose.
		c.logger.ErrorContext(ctx, "publication_commit_failed_after_flip",
			slog.String("session_id", snapshot.ID),
			slog.String("error", err.Error()),
		)
		return nil, apperr.CommitFailure(err)
	}

	c.absorb(ctx, snapshot, drafts, created)

	c.logger.InfoContext(ctx, "publication_committed",
		slog.String("session_id", snapshot.ID),
		slog.String("record_id", record.ID),
		slog.Int("units", len(drafts)),
	)
	return &session.PublishResult{
		RecordID:       record.ID,
		UnitsCommitted: len(drafts),
		PublishedAt:    record.PublishedAt,
	}, nil
}

// prepareDrafts builds one unit draft per publishable pair, embedding any
// pair that does not already carry its vector from the suggestion step.
func (c *Coordinator) prepareDrafts(ctx context.Context, snapshot *session.Session) ([]tm.Draft, error) {
	var drafts []tm.Draft
	for _, pair := range snapshot.Pairs {
		if !publishable(pair) {
			continue
		}

		embedding := pair.Embedding
		if len(embedding) == 0 {
			var err error
			embedding, err = c.embedder.Embed(ctx, pair.SourceText)
			if err != nil {
				return nil, err
			}
		}

		drafts = append(drafts, tm.Draft{
			SourceLang:  snapshot.SourceLang,
			TargetLang:  snapshot.TargetLang,
			SourceText:  pair.SourceText,
			TargetText:  pair.TargetText,
			Context:     snapshot.Context,
			ValidatorID: snapshot.EditorID,
			Embedding:   embedding,
		})
	}
	return drafts, nil
}

// prepareOccurrences extracts (term, rendering) pairs from every publishable
// pair. Alignment is positional; pairs whose two sides disagree on term
// count are skipped rather than misattributed.
func (c *Coordinator) prepareOccurrences(ctx context.Context, snapshot *session.Session) ([]stagedOccurrence, error) {
	var occurrences []stagedOccurrence
	for _, pair := range snapshot.Pairs {
		if !publishable(pair) {
			continue
		}

		terms, err := c.extractor.Extract(ctx, pair.SourceText, snapshot.SourceLang)
		if err != nil {
			return nil, err
		}
		if len(terms) == 0 {
			continue
		}

		renderings, err := c.extractor.Extract(ctx, pair.TargetText, snapshot.TargetLang)
		if err != nil {
			return nil, err
		}
		if len(renderings) != len(terms) {
			continue
		}

		for i, term := range terms {
			occurrences = append(occurrences, stagedOccurrence{
				term:      normalize.Term(term),
				lang:      snapshot.TargetLang,
				rendering: renderings[i],
			})
		}
	}
	return occurrences, nil
}

// stage writes everything into the open transaction and reports which drafts
// created new units.
func (c *Coordinator) stage(ctx context.Context, staging Staging, drafts []tm.Draft, occurrences []stagedOccurrence, record Record) ([]bool, error) {
	created := make([]bool, len(drafts))
	for i, draft := range drafts {
		_, isNew, err := staging.CommitUnit(ctx, draft)
		if err != nil {
			return nil, apperr.CommitFailure(err)
		}
		created[i] = isNew
	}

	for _, occurrence := range occurrences {
		if err := staging.RecordOccurrence(ctx, occurrence.term, occurrence.lang, occurrence.rendering); err != nil {
			return nil, apperr.CommitFailure(err)
		}
	}

	if err := staging.SaveRecord(ctx, record); err != nil {
		return nil, apperr.CommitFailure(err)
	}
	return created, nil
}

func (c *Coordinator) rollback(ctx context.Context, staging Staging, sessionID string) {
	if err := staging.Rollback(ctx); err != nil {
		c.logger.ErrorContext(ctx, "publication_rollback_failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// absorb folds the committed units into the in-process similarity index and
// exact-match cache. Runs after the transaction is durable; failures here
// degrade suggestions until the next reindex but never the publication.
func (c *Coordinator) absorb(ctx context.Context, snapshot *session.Session, drafts []tm.Draft, created []bool) {
	for i, draft := range drafts {
		unit, err := c.memory.Repository().LookupExact(ctx, tm.KeyOf(draft))
		if err != nil {
			c.logger.WarnContext(ctx, "publication_absorb_lookup_failed",
				slog.String("session_id", snapshot.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		c.memory.AbsorbCommitted(ctx, unit, created[i])
	}
}
