// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package publication implements the atomic commit of a validated session:
translation units into the memory, term occurrences into the ledger, an
audit record, and the document pair's published flip — all or nothing.

# Two-phase ordering

Everything database-bound is staged in one open transaction first. The
external document-store flip happens while that transaction is still
uncommitted: if the flip fails, the rollback erases every staged write and
the session remains valid for a clean retry. Only after the flip succeeds is
the transaction committed.
*/
package publication

import (
	"context"
	"time"

	"github.com/taibuivan/concord/internal/core/session"
	"github.com/taibuivan/concord/internal/core/tm"
)

// Record is the audit trail of one publication.
type Record struct {
	ID               string
	SessionID        string
	SourceDocumentID string
	TargetDocumentID string
	Report           *session.ConcurrenceReport
	PublishedAt      time.Time
}

// Staging is one open publication transaction. Nothing written through it is
// visible until Commit; Rollback discards everything.
type Staging interface {
	// CommitUnit stages one idempotent unit upsert.
	CommitUnit(ctx context.Context, draft tm.Draft) (*tm.TranslationUnit, bool, error)

	// RecordOccurrence stages one terminology tally.
	RecordOccurrence(ctx context.Context, normalizedTerm, targetLang, rendering string) error

	// SaveRecord stages the publication audit record.
	SaveRecord(ctx context.Context, record Record) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// StagingStore opens publication transactions.
//
// Implementations: [PostgresStagingStore] for production, [MemoryStagingStore]
// for tests.
type StagingStore interface {
	Begin(ctx context.Context) (Staging, error)
}
