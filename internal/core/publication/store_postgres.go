// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publication

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/concord/internal/core/terminology"
	"github.com/taibuivan/concord/internal/core/tm"
	"github.com/taibuivan/concord/internal/platform/database/schema"
	"github.com/taibuivan/concord/internal/platform/dberr"
)

// PostgresStagingStore opens pgx transactions for publication staging.
type PostgresStagingStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStagingStore creates a staging store backed by the given pool.
func NewPostgresStagingStore(pool *pgxpool.Pool) *PostgresStagingStore {
	return &PostgresStagingStore{pool: pool}
}

// Begin opens one publication transaction.
func (s *PostgresStagingStore) Begin(ctx context.Context) (Staging, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, dberr.Wrap(err, "publication.begin")
	}
	return &postgresStaging{tx: tx}, nil
}

type postgresStaging struct {
	tx pgx.Tx
}

func (s *postgresStaging) CommitUnit(ctx context.Context, draft tm.Draft) (*tm.TranslationUnit, bool, error) {
	return tm.CommitInTx(ctx, s.tx, draft)
}

func (s *postgresStaging) RecordOccurrence(ctx context.Context, normalizedTerm, targetLang, rendering string) error {
	return terminology.RecordOccurrenceInTx(ctx, s.tx, normalizedTerm, targetLang, rendering)
}

func (s *postgresStaging) SaveRecord(ctx context.Context, record Record) error {
	report, err := json.Marshal(record.Report)
	if err != nil {
		return dberr.Wrap(err, "publication.save_record")
	}

	p := schema.PublishRecord
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.Table, p.ID, p.SessionID, p.SourceDocumentID, p.TargetDocumentID, p.Report, p.PublishedAt,
	)

	_, err = s.tx.Exec(ctx, query,
		record.ID, record.SessionID, record.SourceDocumentID,
		record.TargetDocumentID, report, record.PublishedAt,
	)
	return dberr.Wrap(err, "publication.save_record")
}

func (s *postgresStaging) Commit(ctx context.Context) error {
	return s.tx.Commit(ctx)
}

func (s *postgresStaging) Rollback(ctx context.Context) error {
	return s.tx.Rollback(ctx)
}
