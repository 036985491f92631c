// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tm

import (
	"context"

	"github.com/taibuivan/concord/pkg/pagination"
)

// UnitRepository is the persistence contract for translation units.
//
// Implementations: [PostgresUnitStore] for production, [MemoryUnitStore] for
// tests and local development without a database.
type UnitRepository interface {
	// LookupExact returns the unit with the given identity key, or
	// dberr.ErrNotFound when no such unit exists.
	LookupExact(ctx context.Context, key Key) (*TranslationUnit, error)

	// GetByIDs hydrates units by ID. Missing IDs are silently skipped; the
	// result preserves the order of the input IDs.
	GetByIDs(ctx context.Context, ids []string) ([]*TranslationUnit, error)

	// Commit inserts the draft or, when a unit with the same identity key
	// already exists, increments that unit's usage count. The returned flag
	// reports whether a new unit was created.
	Commit(ctx context.Context, draft Draft) (*TranslationUnit, bool, error)

	// List returns a page of units ordered by validation time, newest first,
	// together with the total count.
	List(ctx context.Context, params pagination.Params) ([]*TranslationUnit, int, error)

	// ForEachEmbedding streams (id, embedding) for every unit. Used to rebuild
	// the similarity index at startup.
	ForEachEmbedding(ctx context.Context, fn func(unitID string, embedding []float32) error) error
}
