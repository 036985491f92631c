// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package terminology_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/concord/internal/core/terminology"
)

func newLedger(t *testing.T, conflictThreshold int) *terminology.Ledger {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return terminology.NewLedger(terminology.NewMemoryEntryStore(), conflictThreshold, logger)
}

func record(t *testing.T, ledger *terminology.Ledger, term, rendering string, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		require.NoError(t, ledger.RecordOccurrence(context.Background(), term, "fr", rendering))
	}
}

/* TestDominantRendering covers frequency-based dominance, confidence
arithmetic and the canonical override. */
func TestDominantRendering(t *testing.T) {
	ctx := context.Background()

	t.Run("most frequent rendering wins with proportional confidence", func(t *testing.T) {
		ledger := newLedger(t, 3)
		record(t, ledger, "deliverable", "livrable", 3)
		record(t, ledger, "deliverable", "produit livrable", 1)

		dominant, err := ledger.DominantRendering(ctx, "deliverable", "fr")
		require.NoError(t, err)
		assert.Equal(t, "livrable", dominant.Rendering)
		assert.InDelta(t, 0.75, dominant.Confidence, 0.001)
		assert.False(t, dominant.Overridden)
	})

	t.Run("canonical override beats frequency", func(t *testing.T) {
		ledger := newLedger(t, 3)
		record(t, ledger, "deliverable", "produit livrable", 10)

		_, err := ledger.SetCanonical(ctx, "deliverable", "fr", "livrable")
		require.NoError(t, err)

		dominant, err := ledger.DominantRendering(ctx, "deliverable", "fr")
		require.NoError(t, err)
		assert.Equal(t, "livrable", dominant.Rendering)
		assert.Equal(t, 1.0, dominant.Confidence)
		assert.True(t, dominant.Overridden)
	})

	t.Run("term variants normalize to one entry", func(t *testing.T) {
		ledger := newLedger(t, 3)
		record(t, ledger, "Deliverable", "livrable", 1)
		record(t, ledger, "  deliverable ", "livrable", 1)

		entry, err := ledger.Entry(ctx, "DELIVERABLE", "fr")
		require.NoError(t, err)
		require.Len(t, entry.Renderings, 1)
		assert.Equal(t, 2, entry.Renderings[0].Count)
	})
}

/* TestCheckConsistency covers the three verdicts and the conflict
threshold: early churn is tolerated, established dominance is defended. */
func TestCheckConsistency(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown term is a new term", func(t *testing.T) {
		ledger := newLedger(t, 3)

		check, err := ledger.CheckConsistency(ctx, "deliverable", "fr", "livrable")
		require.NoError(t, err)
		assert.Equal(t, terminology.VerdictNewTerm, check.Verdict)
	})

	t.Run("matching the dominant rendering is consistent", func(t *testing.T) {
		ledger := newLedger(t, 3)
		record(t, ledger, "deliverable", "livrable", 5)

		check, err := ledger.CheckConsistency(ctx, "deliverable", "fr", "livrable")
		require.NoError(t, err)
		assert.Equal(t, terminology.VerdictConsistent, check.Verdict)
		assert.Equal(t, "livrable", check.Dominant)
	})

	t.Run("deviation below the threshold is tolerated", func(t *testing.T) {
		ledger := newLedger(t, 3)
		record(t, ledger, "deliverable", "livrable", 2)

		check, err := ledger.CheckConsistency(ctx, "deliverable", "fr", "produit livrable")
		require.NoError(t, err)
		assert.Equal(t, terminology.VerdictNewTerm, check.Verdict)
	})

	t.Run("deviation from an established rendering is a conflict", func(t *testing.T) {
		ledger := newLedger(t, 3)
		record(t, ledger, "deliverable", "livrable", 3)

		check, err := ledger.CheckConsistency(ctx, "deliverable", "fr", "produit livrable")
		require.NoError(t, err)
		assert.Equal(t, terminology.VerdictConflict, check.Verdict)
		assert.Equal(t, "livrable", check.Dominant)
	})

	t.Run("deviation from a canonical override is always a conflict", func(t *testing.T) {
		ledger := newLedger(t, 3)
		_, err := ledger.SetCanonical(ctx, "deliverable", "fr", "livrable")
		require.NoError(t, err)

		check, err := ledger.CheckConsistency(ctx, "deliverable", "fr", "produit livrable")
		require.NoError(t, err)
		assert.Equal(t, terminology.VerdictConflict, check.Verdict)
	})
}
