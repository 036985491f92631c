// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/concord/internal/platform/database/schema"
	"github.com/taibuivan/concord/internal/platform/dberr"
	"github.com/taibuivan/concord/pkg/pagination"
	"github.com/taibuivan/concord/pkg/uuid"
)

// PostgresUnitStore is the PostgreSQL-backed [UnitRepository].
type PostgresUnitStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUnitStore creates a unit store backed by the given pool.
func NewPostgresUnitStore(pool *pgxpool.Pool) *PostgresUnitStore {
	return &PostgresUnitStore{pool: pool}
}

// rowQuerier lets the same scan helpers serve both the pool and a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var unitColumns = strings.Join(schema.TranslationUnit.Columns(), ", ")

func scanUnit(row pgx.Row) (*TranslationUnit, error) {
	var unit TranslationUnit
	err := row.Scan(
		&unit.ID, &unit.SourceLang, &unit.TargetLang, &unit.NormalizedSource,
		&unit.SourceText, &unit.TargetText,
		&unit.Context.SectionCategory, &unit.Context.ClassificationTier,
		&unit.ValidatorID, &unit.ValidatedAt, &unit.UsageCount, &unit.Embedding,
	)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// LookupExact returns the unit with the given identity key.
func (s *PostgresUnitStore) LookupExact(ctx context.Context, key Key) (*TranslationUnit, error) {
	t := schema.TranslationUnit
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = $3 AND %s = $4`,
		unitColumns, t.Table,
		t.NormalizedSource, t.TargetLang, t.SectionCategory, t.ClassificationTier,
	)

	unit, err := scanUnit(s.pool.QueryRow(ctx, query,
		key.NormalizedSource, key.TargetLang, key.SectionCategory, key.ClassificationTier))
	if err != nil {
		return nil, dberr.Wrap(err, "tm.lookup_exact")
	}
	return unit, nil
}

// GetByIDs hydrates units by ID, preserving input order and skipping misses.
func (s *PostgresUnitStore) GetByIDs(ctx context.Context, ids []string) ([]*TranslationUnit, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	t := schema.TranslationUnit
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`, unitColumns, t.Table, t.ID)

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, dberr.Wrap(err, "tm.get_by_ids")
	}
	defer rows.Close()

	byID := make(map[string]*TranslationUnit, len(ids))
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "tm.get_by_ids")
		}
		byID[unit.ID] = unit
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "tm.get_by_ids")
	}

	units := make([]*TranslationUnit, 0, len(byID))
	for _, id := range ids {
		if unit, ok := byID[id]; ok {
			units = append(units, unit)
		}
	}
	return units, nil
}

// Commit upserts a draft on its identity key.
//
// The ON CONFLICT path makes commit idempotent: publishing the same pair
// twice bumps usage_count instead of creating a second unit.
func (s *PostgresUnitStore) Commit(ctx context.Context, draft Draft) (*TranslationUnit, bool, error) {
	return commitUnit(ctx, s.pool, draft)
}

// CommitInTx runs the same idempotent upsert inside a caller-owned
// transaction. Publication staging uses it so every unit commit of a session
// lands or rolls back together.
func CommitInTx(ctx context.Context, tx pgx.Tx, draft Draft) (*TranslationUnit, bool, error) {
	return commitUnit(ctx, tx, draft)
}

// commitUnit is shared with the publication staging store, which runs the
// same upsert inside a transaction.
func commitUnit(ctx context.Context, q rowQuerier, draft Draft) (*TranslationUnit, bool, error) {
	key := KeyOf(draft)
	t := schema.TranslationUnit

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), 1, $10)
		ON CONFLICT (%s, %s, %s, %s) DO UPDATE
			SET %s = %s.%s + 1
		RETURNING %s, (xmax = 0) AS inserted`,
		t.Table, unitColumns,
		t.NormalizedSource, t.TargetLang, t.SectionCategory, t.ClassificationTier,
		t.UsageCount, t.Table, t.UsageCount,
		unitColumns,
	)

	row := q.QueryRow(ctx, query,
		uuid.New(), draft.SourceLang, draft.TargetLang, key.NormalizedSource,
		draft.SourceText, draft.TargetText,
		draft.Context.SectionCategory, draft.Context.ClassificationTier,
		draft.ValidatorID, draft.Embedding,
	)

	var unit TranslationUnit
	var inserted bool
	err := row.Scan(
		&unit.ID, &unit.SourceLang, &unit.TargetLang, &unit.NormalizedSource,
		&unit.SourceText, &unit.TargetText,
		&unit.Context.SectionCategory, &unit.Context.ClassificationTier,
		&unit.ValidatorID, &unit.ValidatedAt, &unit.UsageCount, &unit.Embedding,
		&inserted,
	)
	if err != nil {
		return nil, false, dberr.Wrap(err, "tm.commit")
	}
	return &unit, inserted, nil
}

// List returns a page of units, newest first.
func (s *PostgresUnitStore) List(ctx context.Context, params pagination.Params) ([]*TranslationUnit, int, error) {
	t := schema.TranslationUnit

	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s`, t.Table)
	if err := s.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "tm.list_count")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY %s DESC, %s
		LIMIT $1 OFFSET $2`,
		unitColumns, t.Table, t.ValidatedAt, t.ID,
	)

	rows, err := s.pool.Query(ctx, query, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err, "tm.list")
	}
	defer rows.Close()

	var units []*TranslationUnit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "tm.list")
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "tm.list")
	}

	return units, total, nil
}

// ForEachEmbedding streams every unit's embedding for index rebuilds.
func (s *PostgresUnitStore) ForEachEmbedding(ctx context.Context, fn func(unitID string, embedding []float32) error) error {
	t := schema.TranslationUnit
	query := fmt.Sprintf(`SELECT %s, %s FROM %s ORDER BY %s`, t.ID, t.Embedding, t.Table, t.ValidatedAt)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return dberr.Wrap(err, "tm.for_each_embedding")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var embedding []float32
		if err := rows.Scan(&id, &embedding); err != nil {
			return dberr.Wrap(err, "tm.for_each_embedding")
		}
		if err := fn(id, embedding); err != nil {
			return err
		}
	}
	return dberr.Wrap(rows.Err(), "tm.for_each_embedding")
}
