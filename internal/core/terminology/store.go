// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package terminology

import "context"

// EntryRepository is the persistence contract for the terminology ledger.
//
// Implementations: [PostgresEntryStore] for production, [MemoryEntryStore]
// for tests.
type EntryRepository interface {
	// Get returns the entry for a normalized term and target language with
	// its renderings, or dberr.ErrNotFound.
	Get(ctx context.Context, normalizedTerm, targetLang string) (*Entry, error)

	// RecordOccurrence upserts the entry and bumps the rendering's count.
	// Counts only ever grow.
	RecordOccurrence(ctx context.Context, normalizedTerm, targetLang, rendering string) error

	// SetCanonical sets or clears (empty string) the canonical override on an
	// entry, creating the entry if the term has never been observed.
	SetCanonical(ctx context.Context, normalizedTerm, targetLang, canonical string) (*Entry, error)
}
