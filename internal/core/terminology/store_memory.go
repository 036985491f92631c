// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package terminology

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/concord/internal/platform/dberr"
	"github.com/taibuivan/concord/pkg/uuid"
)

type memoryEntry struct {
	id         string
	canonical  string
	createdAt  time.Time
	renderings map[string]*Rendering
}

type entryKey struct {
	term string
	lang string
}

// MemoryEntryStore is an in-memory [EntryRepository] for tests.
type MemoryEntryStore struct {
	mu      sync.Mutex
	entries map[entryKey]*memoryEntry
}

// NewMemoryEntryStore creates an empty in-memory entry store.
func NewMemoryEntryStore() *MemoryEntryStore {
	return &MemoryEntryStore{entries: make(map[entryKey]*memoryEntry)}
}

func (s *MemoryEntryStore) Get(_ context.Context, normalizedTerm, targetLang string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[entryKey{normalizedTerm, targetLang}]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return s.toEntry(normalizedTerm, targetLang, stored), nil
}

func (s *MemoryEntryStore) RecordOccurrence(_ context.Context, normalizedTerm, targetLang, rendering string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{normalizedTerm, targetLang}
	stored, ok := s.entries[key]
	if !ok {
		stored = &memoryEntry{
			id:         uuid.New(),
			createdAt:  time.Now().UTC(),
			renderings: make(map[string]*Rendering),
		}
		s.entries[key] = stored
	}

	now := time.Now().UTC()
	if existing, ok := stored.renderings[rendering]; ok {
		existing.Count++
		existing.LastSeen = now
	} else {
		stored.renderings[rendering] = &Rendering{
			Text:      rendering,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	return nil
}

func (s *MemoryEntryStore) SetCanonical(_ context.Context, normalizedTerm, targetLang, canonical string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{normalizedTerm, targetLang}
	stored, ok := s.entries[key]
	if !ok {
		stored = &memoryEntry{
			id:         uuid.New(),
			createdAt:  time.Now().UTC(),
			renderings: make(map[string]*Rendering),
		}
		s.entries[key] = stored
	}
	stored.canonical = canonical

	return s.toEntry(normalizedTerm, targetLang, stored), nil
}

// toEntry builds the public view, renderings ordered by descending count.
// Caller must hold the lock.
func (s *MemoryEntryStore) toEntry(term, lang string, stored *memoryEntry) *Entry {
	entry := &Entry{
		ID:                stored.id,
		NormalizedTerm:    term,
		TargetLang:        lang,
		CanonicalOverride: stored.canonical,
		CreatedAt:         stored.createdAt,
	}
	for _, rendering := range stored.renderings {
		entry.Renderings = append(entry.Renderings, *rendering)
	}
	sort.Slice(entry.Renderings, func(a, b int) bool {
		if entry.Renderings[a].Count != entry.Renderings[b].Count {
			return entry.Renderings[a].Count > entry.Renderings[b].Count
		}
		return entry.Renderings[a].Text < entry.Renderings[b].Text
	})
	return entry
}
