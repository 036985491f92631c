// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tm

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/concord/internal/platform/dberr"
	"github.com/taibuivan/concord/pkg/pagination"
	"github.com/taibuivan/concord/pkg/uuid"
)

// MemoryUnitStore is an in-memory [UnitRepository] for tests and local
// development. It honors the same idempotent-commit contract as Postgres.
type MemoryUnitStore struct {
	mu     sync.RWMutex
	byID   map[string]*TranslationUnit
	byKey  map[Key]string
	inTime []string
}

// NewMemoryUnitStore creates an empty in-memory unit store.
func NewMemoryUnitStore() *MemoryUnitStore {
	return &MemoryUnitStore{
		byID:  make(map[string]*TranslationUnit),
		byKey: make(map[Key]string),
	}
}

func (s *MemoryUnitStore) LookupExact(_ context.Context, key Key) (*TranslationUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return copyUnit(s.byID[id]), nil
}

func (s *MemoryUnitStore) GetByIDs(_ context.Context, ids []string) ([]*TranslationUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units := make([]*TranslationUnit, 0, len(ids))
	for _, id := range ids {
		if unit, ok := s.byID[id]; ok {
			units = append(units, copyUnit(unit))
		}
	}
	return units, nil
}

func (s *MemoryUnitStore) Commit(_ context.Context, draft Draft) (*TranslationUnit, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := KeyOf(draft)
	if id, ok := s.byKey[key]; ok {
		existing := s.byID[id]
		existing.UsageCount++
		return copyUnit(existing), false, nil
	}

	unit := &TranslationUnit{
		ID:               uuid.New(),
		SourceLang:       draft.SourceLang,
		TargetLang:       draft.TargetLang,
		NormalizedSource: key.NormalizedSource,
		SourceText:       draft.SourceText,
		TargetText:       draft.TargetText,
		Context:          draft.Context,
		ValidatorID:      draft.ValidatorID,
		ValidatedAt:      time.Now().UTC(),
		UsageCount:       1,
		Embedding:        append([]float32(nil), draft.Embedding...),
	}

	s.byID[unit.ID] = unit
	s.byKey[key] = unit.ID
	s.inTime = append(s.inTime, unit.ID)

	return copyUnit(unit), true, nil
}

func (s *MemoryUnitStore) List(_ context.Context, params pagination.Params) ([]*TranslationUnit, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.inTime)

	// Newest first.
	ordered := make([]string, len(s.inTime))
	copy(ordered, s.inTime)
	for i, j := 0, len(ordered)-1; i < j; i, j = i+1, j-1 {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	offset := params.Offset()
	if offset >= total {
		return nil, total, nil
	}
	end := offset + params.Limit
	if end > total {
		end = total
	}

	units := make([]*TranslationUnit, 0, end-offset)
	for _, id := range ordered[offset:end] {
		units = append(units, copyUnit(s.byID[id]))
	}
	return units, total, nil
}

func (s *MemoryUnitStore) ForEachEmbedding(_ context.Context, fn func(unitID string, embedding []float32) error) error {
	s.mu.RLock()
	snapshot := make([]*TranslationUnit, 0, len(s.inTime))
	for _, id := range s.inTime {
		snapshot = append(snapshot, copyUnit(s.byID[id]))
	}
	s.mu.RUnlock()

	for _, unit := range snapshot {
		if err := fn(unit.ID, unit.Embedding); err != nil {
			return err
		}
	}
	return nil
}

func copyUnit(unit *TranslationUnit) *TranslationUnit {
	clone := *unit
	clone.Embedding = append([]float32(nil), unit.Embedding...)
	return &clone
}
