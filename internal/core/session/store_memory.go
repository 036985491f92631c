// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"

	"github.com/taibuivan/concord/internal/platform/apperr"
	"github.com/taibuivan/concord/internal/platform/dberr"
)

// MemoryRepository is the in-memory [Repository].
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// sessionEntry pairs a stored session with its own write lock so mutations
// of different sessions never contend.
type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// NewMemoryRepository creates an empty session store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*sessionEntry)}
}

func (r *MemoryRepository) Create(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return apperr.Conflict("Session already exists")
	}
	r.sessions[session.ID] = &sessionEntry{session: copySession(session)}
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, dberr.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return copySession(entry.session), nil
}

func (r *MemoryRepository) Mutate(_ context.Context, id string, fn func(session *Session) error) error {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return dberr.ErrNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// fn works on a copy; a failed mutation leaves the stored session
	// untouched.
	working := copySession(entry.session)
	if err := fn(working); err != nil {
		return err
	}
	entry.session = working
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func copySession(session *Session) *Session {
	clone := *session
	clone.Pairs = make([]SentencePair, len(session.Pairs))
	copy(clone.Pairs, session.Pairs)
	for i := range clone.Pairs {
		clone.Pairs[i].Embedding = append([]float32(nil), session.Pairs[i].Embedding...)
	}
	if session.Report != nil {
		report := *session.Report
		report.Discrepancies = append([]Discrepancy(nil), session.Report.Discrepancies...)
		clone.Report = &report
	}
	return &clone
}
