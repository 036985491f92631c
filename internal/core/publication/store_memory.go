// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publication

import (
	"context"
	"sync"

	"github.com/taibuivan/concord/internal/core/terminology"
	"github.com/taibuivan/concord/internal/core/tm"
)

// MemoryStagingStore is an in-memory [StagingStore] for tests. It buffers
// staged writes and applies them to the backing stores only on Commit,
// mirroring the transaction semantics of Postgres.
type MemoryStagingStore struct {
	mu      sync.Mutex
	units   *tm.MemoryUnitStore
	entries *terminology.MemoryEntryStore
	records []Record
}

// NewMemoryStagingStore creates a staging store over in-memory backends.
func NewMemoryStagingStore(units *tm.MemoryUnitStore, entries *terminology.MemoryEntryStore) *MemoryStagingStore {
	return &MemoryStagingStore{units: units, entries: entries}
}

// Records returns the committed audit records.
func (s *MemoryStagingStore) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

// Begin opens a buffered staging. Only one publication commits at a time.
func (s *MemoryStagingStore) Begin(_ context.Context) (Staging, error) {
	return &memoryStaging{store: s}, nil
}

type stagedOccurrence struct {
	term      string
	lang      string
	rendering string
}

type memoryStaging struct {
	store       *MemoryStagingStore
	drafts      []tm.Draft
	occurrences []stagedOccurrence
	records     []Record
	done        bool
}

// CommitUnit buffers the draft. The returned unit is a preview computed
// against the backing store; the real write happens on Commit.
func (m *memoryStaging) CommitUnit(ctx context.Context, draft tm.Draft) (*tm.TranslationUnit, bool, error) {
	m.drafts = append(m.drafts, draft)

	// Preview against current state for callers that inspect the result.
	key := tm.KeyOf(draft)
	existing, err := m.store.units.LookupExact(ctx, key)
	if err == nil {
		preview := *existing
		preview.UsageCount++
		return &preview, false, nil
	}
	return &tm.TranslationUnit{
		SourceLang:       draft.SourceLang,
		TargetLang:       draft.TargetLang,
		NormalizedSource: key.NormalizedSource,
		SourceText:       draft.SourceText,
		TargetText:       draft.TargetText,
		Context:          draft.Context,
		ValidatorID:      draft.ValidatorID,
		UsageCount:       1,
		Embedding:        append([]float32(nil), draft.Embedding...),
	}, true, nil
}

func (m *memoryStaging) RecordOccurrence(_ context.Context, normalizedTerm, targetLang, rendering string) error {
	m.occurrences = append(m.occurrences, stagedOccurrence{normalizedTerm, targetLang, rendering})
	return nil
}

func (m *memoryStaging) SaveRecord(_ context.Context, record Record) error {
	m.records = append(m.records, record)
	return nil
}

func (m *memoryStaging) Commit(ctx context.Context) error {
	if m.done {
		return nil
	}
	m.done = true

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, draft := range m.drafts {
		if _, _, err := m.store.units.Commit(ctx, draft); err != nil {
			return err
		}
	}
	for _, occurrence := range m.occurrences {
		if err := m.store.entries.RecordOccurrence(ctx, occurrence.term, occurrence.lang, occurrence.rendering); err != nil {
			return err
		}
	}
	m.store.records = append(m.store.records, m.records...)
	return nil
}

func (m *memoryStaging) Rollback(_ context.Context) error {
	m.done = true
	m.drafts = nil
	m.occurrences = nil
	m.records = nil
	return nil
}
