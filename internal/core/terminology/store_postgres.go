// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package terminology

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/concord/internal/platform/database/schema"
	"github.com/taibuivan/concord/internal/platform/dberr"
	"github.com/taibuivan/concord/pkg/uuid"
)

// PostgresEntryStore is the PostgreSQL-backed [EntryRepository].
type PostgresEntryStore struct {
	pool *pgxpool.Pool
}

// NewPostgresEntryStore creates an entry store backed by the given pool.
func NewPostgresEntryStore(pool *pgxpool.Pool) *PostgresEntryStore {
	return &PostgresEntryStore{pool: pool}
}

// rowExecer is the pgx surface shared writes need; pgxpool.Pool and pgx.Tx
// both satisfy it.
type rowExecer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Get returns the entry and its renderings ordered by descending count.
func (s *PostgresEntryStore) Get(ctx context.Context, normalizedTerm, targetLang string) (*Entry, error) {
	e := schema.TerminologyEntry
	r := schema.TerminologyRendering

	entryQuery := fmt.Sprintf(`
		SELECT %s, %s, %s, COALESCE(%s, ''), %s FROM %s
		WHERE %s = $1 AND %s = $2`,
		e.ID, e.NormalizedTerm, e.TargetLang, e.CanonicalOverride, e.CreatedAt, e.Table,
		e.NormalizedTerm, e.TargetLang,
	)

	var entry Entry
	err := s.pool.QueryRow(ctx, entryQuery, normalizedTerm, targetLang).Scan(
		&entry.ID, &entry.NormalizedTerm, &entry.TargetLang,
		&entry.CanonicalOverride, &entry.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "terminology.get")
	}

	renderingQuery := fmt.Sprintf(`
		SELECT %s, %s, %s, %s FROM %s
		WHERE %s = $1
		ORDER BY %s DESC, %s`,
		r.Rendering, r.Count, r.FirstSeen, r.LastSeen, r.Table,
		r.EntryID, r.Count, r.Rendering,
	)

	rows, err := s.pool.Query(ctx, renderingQuery, entry.ID)
	if err != nil {
		return nil, dberr.Wrap(err, "terminology.get_renderings")
	}
	defer rows.Close()

	for rows.Next() {
		var rendering Rendering
		if err := rows.Scan(&rendering.Text, &rendering.Count, &rendering.FirstSeen, &rendering.LastSeen); err != nil {
			return nil, dberr.Wrap(err, "terminology.get_renderings")
		}
		entry.Renderings = append(entry.Renderings, rendering)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "terminology.get_renderings")
	}

	return &entry, nil
}

// RecordOccurrence bumps the rendering count for a term, creating the entry
// and rendering rows on first sight.
func (s *PostgresEntryStore) RecordOccurrence(ctx context.Context, normalizedTerm, targetLang, rendering string) error {
	return recordOccurrence(ctx, s.pool, normalizedTerm, targetLang, rendering)
}

// RecordOccurrenceInTx runs the same upserts inside a caller-owned
// transaction, for publication staging.
func RecordOccurrenceInTx(ctx context.Context, tx pgx.Tx, normalizedTerm, targetLang, rendering string) error {
	return recordOccurrence(ctx, tx, normalizedTerm, targetLang, rendering)
}

// recordOccurrence is shared with publication staging, which runs the same
// upserts inside its transaction.
func recordOccurrence(ctx context.Context, q rowExecer, normalizedTerm, targetLang, rendering string) error {
	e := schema.TerminologyEntry
	r := schema.TerminologyRendering

	entryQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (%s, %s) DO UPDATE SET %s = %s.%s
		RETURNING %s`,
		e.Table, e.ID, e.NormalizedTerm, e.TargetLang, e.CreatedAt,
		e.NormalizedTerm, e.TargetLang, e.NormalizedTerm, e.Table, e.NormalizedTerm,
		e.ID,
	)

	var entryID string
	if err := q.QueryRow(ctx, entryQuery, uuid.New(), normalizedTerm, targetLang).Scan(&entryID); err != nil {
		return dberr.Wrap(err, "terminology.record_entry")
	}

	renderingQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, 1, now(), now())
		ON CONFLICT (%s, %s) DO UPDATE
			SET %s = %s.%s + 1, %s = now()`,
		r.Table, r.EntryID, r.Rendering, r.Count, r.FirstSeen, r.LastSeen,
		r.EntryID, r.Rendering,
		r.Count, r.Table, r.Count, r.LastSeen,
	)

	if _, err := q.Exec(ctx, renderingQuery, entryID, rendering); err != nil {
		return dberr.Wrap(err, "terminology.record_rendering")
	}
	return nil
}

// SetCanonical sets or clears the canonical override, creating the entry if
// the term has never been observed.
func (s *PostgresEntryStore) SetCanonical(ctx context.Context, normalizedTerm, targetLang, canonical string) (*Entry, error) {
	e := schema.TerminologyEntry

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, NULLIF($4, ''), now())
		ON CONFLICT (%s, %s) DO UPDATE SET %s = NULLIF($4, '')`,
		e.Table, e.ID, e.NormalizedTerm, e.TargetLang, e.CanonicalOverride, e.CreatedAt,
		e.NormalizedTerm, e.TargetLang, e.CanonicalOverride,
	)

	if _, err := s.pool.Exec(ctx, query, uuid.New(), normalizedTerm, targetLang, canonical); err != nil {
		return nil, dberr.Wrap(err, "terminology.set_canonical")
	}

	return s.Get(ctx, normalizedTerm, targetLang)
}
