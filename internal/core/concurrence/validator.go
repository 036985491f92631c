// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package concurrence implements the validation gate a session must clear
before publication: every segment ruled on, no translation gaps, the linked
documents in structural balance, and terminology consistent with the ledger.

Structural findings always block. Terminology findings are advisory by
default and block only when strict terminology is on, because the ledger
records usage, not law.
*/
package concurrence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/concord/internal/core/session"
	"github.com/taibuivan/concord/internal/core/terminology"
	"github.com/taibuivan/concord/internal/provider"
)

// Validator runs the concurrence checks. It implements [session.Validator].
type Validator struct {
	documents provider.DocumentStore
	extractor provider.TermExtractor
	ledger    *terminology.Ledger
	// strict turns terminology conflicts from advisory into blocking.
	strict bool
	logger *slog.Logger
}

// New wires the concurrence validator.
func New(documents provider.DocumentStore, extractor provider.TermExtractor, ledger *terminology.Ledger, strict bool, logger *slog.Logger) *Validator {
	return &Validator{
		documents: documents,
		extractor: extractor,
		ledger:    ledger,
		strict:    strict,
		logger:    logger,
	}
}

// Validate checks one session snapshot and returns the full report.
//
// It never stops at the first finding: the advisor gets everything wrong with
// the document in one pass.
func (v *Validator) Validate(ctx context.Context, snapshot *session.Session) (*session.ConcurrenceReport, error) {
	report := &session.ConcurrenceReport{
		CheckedAt:     time.Now().UTC(),
		Discrepancies: []session.Discrepancy{},
	}

	v.checkResolution(snapshot, report)
	if err := v.checkBalance(ctx, snapshot, report); err != nil {
		return nil, err
	}
	if err := v.checkTerminology(ctx, snapshot, report); err != nil {
		return nil, err
	}

	report.Passed = true
	for _, discrepancy := range report.Discrepancies {
		if discrepancy.Blocking {
			report.Passed = false
			break
		}
	}

	v.logger.InfoContext(ctx, "concurrence_checked",
		slog.String("session_id", snapshot.ID),
		slog.Bool("passed", report.Passed),
		slog.Int("discrepancies", len(report.Discrepancies)),
	)
	return report, nil
}

// checkResolution flags pairs the advisor never ruled on and rejected pairs
// that leave a source segment untranslated.
func (v *Validator) checkResolution(snapshot *session.Session, report *session.ConcurrenceReport) {
	for _, pair := range snapshot.Pairs {
		switch {
		case !pair.State.Terminal():
			report.Discrepancies = append(report.Discrepancies, session.Discrepancy{
				Kind:       session.DiscrepancyUnresolvedSegment,
				OrderIndex: pair.OrderIndex,
				Detail:     fmt.Sprintf("Segment %d has not been resolved", pair.OrderIndex),
				Blocking:   true,
			})
		case pair.State == session.StateRejected:
			report.Discrepancies = append(report.Discrepancies, session.Discrepancy{
				Kind:       session.DiscrepancyMissingTranslation,
				OrderIndex: pair.OrderIndex,
				Detail:     fmt.Sprintf("Segment %d was rejected and has no translation", pair.OrderIndex),
				Blocking:   true,
			})
		}
	}
}

// checkBalance compares the session's segment count against the linked
// target document.
func (v *Validator) checkBalance(ctx context.Context, snapshot *session.Session, report *session.ConcurrenceReport) error {
	targetCount, err := v.documents.SegmentCount(ctx, snapshot.TargetDocumentID)
	if err != nil {
		return err
	}

	if targetCount != len(snapshot.Pairs) {
		report.Discrepancies = append(report.Discrepancies, session.Discrepancy{
			Kind:       session.DiscrepancyExtraSegment,
			OrderIndex: -1,
			Detail: fmt.Sprintf("Target document has %d segments, session has %d",
				targetCount, len(snapshot.Pairs)),
			Blocking: true,
		})
	}
	return nil
}

// checkTerminology extracts terms from both sides of each translated pair
// and checks the renderings against the ledger.
//
// Term-to-rendering alignment is positional: when the two sides disagree on
// term count, the pair is skipped rather than misattributed.
func (v *Validator) checkTerminology(ctx context.Context, snapshot *session.Session, report *session.ConcurrenceReport) error {
	for _, pair := range snapshot.Pairs {
		if pair.State != session.StateAccepted && pair.State != session.StateModified {
			continue
		}

		terms, err := v.extractor.Extract(ctx, pair.SourceText, snapshot.SourceLang)
		if err != nil {
			return err
		}
		if len(terms) == 0 {
			continue
		}

		renderings, err := v.extractor.Extract(ctx, pair.TargetText, snapshot.TargetLang)
		if err != nil {
			return err
		}
		if len(renderings) != len(terms) {
			continue
		}

		for i, term := range terms {
			check, err := v.ledger.CheckConsistency(ctx, term, snapshot.TargetLang, renderings[i])
			if err != nil {
				return err
			}
			if check.Verdict != terminology.VerdictConflict {
				continue
			}
			report.Discrepancies = append(report.Discrepancies, session.Discrepancy{
				Kind:       session.DiscrepancyTerminologyConflict,
				OrderIndex: pair.OrderIndex,
				Detail: fmt.Sprintf("Term %q rendered as %q; ledger prefers %q",
					term, renderings[i], check.Dominant),
				Blocking: v.strict,
			})
		}
	}
	return nil
}
