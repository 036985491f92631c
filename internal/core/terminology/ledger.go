// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package terminology

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taibuivan/concord/internal/platform/dberr"
	"github.com/taibuivan/concord/pkg/normalize"
)

// Ledger is the terminology domain service.
type Ledger struct {
	repo EntryRepository
	// conflictThreshold is the minimum dominant-rendering count before a
	// deviation counts as a conflict rather than normal early churn.
	conflictThreshold int
	logger            *slog.Logger
}

// NewLedger wires the terminology ledger.
func NewLedger(repo EntryRepository, conflictThreshold int, logger *slog.Logger) *Ledger {
	return &Ledger{
		repo:              repo,
		conflictThreshold: conflictThreshold,
		logger:            logger,
	}
}

// Entry returns the full ledger entry for a term.
func (l *Ledger) Entry(ctx context.Context, term, targetLang string) (*Entry, error) {
	return l.repo.Get(ctx, normalize.Term(term), targetLang)
}

// RecordOccurrence tallies one observed (term, rendering) pair.
func (l *Ledger) RecordOccurrence(ctx context.Context, term, targetLang, rendering string) error {
	return l.repo.RecordOccurrence(ctx, normalize.Term(term), targetLang, rendering)
}

// DominantRendering returns the ledger's preferred rendering for a term.
//
// A canonical override always wins with confidence 1. Otherwise the most
// frequent rendering wins with confidence count/total; ties break
// lexicographically so the answer is deterministic.
func (l *Ledger) DominantRendering(ctx context.Context, term, targetLang string) (*Dominant, error) {
	entry, err := l.repo.Get(ctx, normalize.Term(term), targetLang)
	if err != nil {
		return nil, err
	}
	return dominantOf(entry)
}

func dominantOf(entry *Entry) (*Dominant, error) {
	if entry.CanonicalOverride != "" {
		return &Dominant{Rendering: entry.CanonicalOverride, Confidence: 1, Overridden: true}, nil
	}
	if len(entry.Renderings) == 0 {
		return nil, dberr.ErrNotFound
	}

	// Renderings arrive ordered by count desc, text asc.
	total := 0
	for _, rendering := range entry.Renderings {
		total += rendering.Count
	}
	top := entry.Renderings[0]

	return &Dominant{
		Rendering:  top.Text,
		Confidence: float64(top.Count) / float64(total),
	}, nil
}

// CheckConsistency classifies a candidate rendering against the ledger.
//
// A deviation only becomes a conflict once the dominant rendering has been
// seen at least conflictThreshold times; before that the ledger has no
// standing to object.
func (l *Ledger) CheckConsistency(ctx context.Context, term, targetLang, candidate string) (*ConsistencyCheck, error) {
	check := &ConsistencyCheck{Term: term, Candidate: candidate}

	entry, err := l.repo.Get(ctx, normalize.Term(term), targetLang)
	if errors.Is(err, dberr.ErrNotFound) {
		check.Verdict = VerdictNewTerm
		return check, nil
	}
	if err != nil {
		return nil, err
	}

	dominant, err := dominantOf(entry)
	if errors.Is(err, dberr.ErrNotFound) {
		check.Verdict = VerdictNewTerm
		return check, nil
	}
	if err != nil {
		return nil, err
	}
	check.Dominant = dominant.Rendering

	if candidate == dominant.Rendering {
		check.Verdict = VerdictConsistent
		return check, nil
	}

	if dominant.Overridden || dominantCount(entry, dominant.Rendering) >= l.conflictThreshold {
		check.Verdict = VerdictConflict
		return check, nil
	}

	// Deviation from a weakly-established rendering: treat as still-new.
	check.Verdict = VerdictNewTerm
	return check, nil
}

func dominantCount(entry *Entry, rendering string) int {
	for _, r := range entry.Renderings {
		if r.Text == rendering {
			return r.Count
		}
	}
	return 0
}

// SetCanonical installs (or clears, with an empty canonical) a
// terminologist's override for a term.
func (l *Ledger) SetCanonical(ctx context.Context, term, targetLang, canonical string) (*Entry, error) {
	entry, err := l.repo.SetCanonical(ctx, normalize.Term(term), targetLang, canonical)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "terminology_canonical_set",
		slog.String("term", entry.NormalizedTerm),
		slog.String("target_lang", targetLang),
		slog.String("canonical", canonical),
	)
	return entry, nil
}
