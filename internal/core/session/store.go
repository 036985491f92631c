// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import "context"

// Repository is the storage contract for working sessions.
//
// Sessions are transient working state: the only implementation is in-memory
// and a restart abandons open sessions. Durable state belongs to the
// translation memory, never here.
type Repository interface {
	// Create stores a new session. Fails on a duplicate ID.
	Create(ctx context.Context, session *Session) error

	// Get returns a deep copy of the session, or dberr.ErrNotFound. Callers
	// may read the copy freely; it never aliases stored state.
	Get(ctx context.Context, id string) (*Session, error)

	// Mutate applies fn to the stored session under the session's write
	// lock. Mutations of the same session are serialized; fn returning an
	// error discards the changes.
	Mutate(ctx context.Context, id string, fn func(session *Session) error) error

	// Delete removes the session. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error
}
