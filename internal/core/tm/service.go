// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taibuivan/concord/internal/core/similarity"
	"github.com/taibuivan/concord/internal/platform/dberr"
	"github.com/taibuivan/concord/pkg/normalize"
	"github.com/taibuivan/concord/pkg/pagination"
)

// FuzzyMatch pairs a hydrated unit with its similarity score.
type FuzzyMatch struct {
	Unit       *TranslationUnit
	Similarity float64
}

// Service is the translation memory domain service.
//
// It front-ends the repository with the exact-match cache and the similarity
// index, and is the only writer of both.
type Service struct {
	repo   UnitRepository
	cache  UnitCache
	index  *similarity.Index
	logger *slog.Logger
}

// NewService wires the TM service. cache may be nil, in which case every
// exact lookup goes to the repository.
func NewService(repo UnitRepository, cache UnitCache, index *similarity.Index, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		index:  index,
		logger: logger,
	}
}

// LookupExact finds the unit whose normalized source, target language and
// context match exactly. Returns dberr.ErrNotFound on a miss.
func (s *Service) LookupExact(ctx context.Context, sourceText, targetLang string, docContext Context) (*TranslationUnit, error) {
	key := Key{
		NormalizedSource:   normalize.Source(sourceText),
		TargetLang:         targetLang,
		SectionCategory:    docContext.SectionCategory,
		ClassificationTier: docContext.ClassificationTier,
	}

	if s.cache != nil {
		unit, err := s.cache.Get(ctx, key)
		if err == nil {
			return unit, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			// Cache trouble must never fail a lookup.
			s.logger.WarnContext(ctx, "tm_cache_get_failed", slog.String("error", err.Error()))
		}
	}

	unit, err := s.repo.LookupExact(ctx, key)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, unit); err != nil {
			s.logger.WarnContext(ctx, "tm_cache_set_failed", slog.String("error", err.Error()))
		}
	}
	return unit, nil
}

// LookupFuzzy returns up to topK units similar to the given embedding,
// restricted to the target language and at or above minSimilarity.
//
// The index is language-agnostic, so it is over-queried and the hydrated
// results are filtered down to the requested target language.
func (s *Service) LookupFuzzy(ctx context.Context, embedding []float32, targetLang string, topK int, minSimilarity float64) ([]FuzzyMatch, error) {
	if topK <= 0 {
		return nil, nil
	}

	candidates := s.index.Query(embedding, topK*4, minSimilarity)
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	scores := make(map[string]float64, len(candidates))
	for i, candidate := range candidates {
		ids[i] = candidate.UnitID
		scores[candidate.UnitID] = candidate.Similarity
	}

	units, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	matches := make([]FuzzyMatch, 0, topK)
	for _, unit := range units {
		if unit.TargetLang != targetLang {
			continue
		}
		matches = append(matches, FuzzyMatch{Unit: unit, Similarity: scores[unit.ID]})
		if len(matches) == topK {
			break
		}
	}
	return matches, nil
}

// Commit writes a validated draft into the corpus and keeps the cache and
// similarity index coherent with it.
func (s *Service) Commit(ctx context.Context, draft Draft) (*TranslationUnit, error) {
	unit, created, err := s.repo.Commit(ctx, draft)
	if err != nil {
		return nil, err
	}

	s.AbsorbCommitted(ctx, unit, created)
	return unit, nil
}

// AbsorbCommitted folds an already-persisted unit into the in-process state:
// new units join the similarity index, and the exact-match cache entry is
// refreshed either way. The publication coordinator calls this after its
// transaction commits.
func (s *Service) AbsorbCommitted(ctx context.Context, unit *TranslationUnit, created bool) {
	if created && len(unit.Embedding) > 0 {
		if err := s.index.Insert(unit.ID, unit.Embedding); err != nil {
			s.logger.ErrorContext(ctx, "tm_index_insert_failed",
				slog.String("unit_id", unit.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.cache == nil {
		return
	}
	key := Key{
		NormalizedSource:   unit.NormalizedSource,
		TargetLang:         unit.TargetLang,
		SectionCategory:    unit.Context.SectionCategory,
		ClassificationTier: unit.Context.ClassificationTier,
	}
	if err := s.cache.Set(ctx, key, unit); err != nil {
		s.logger.WarnContext(ctx, "tm_cache_set_failed", slog.String("error", err.Error()))
		// A stale entry is worse than a missing one.
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "tm_cache_invalidate_failed", slog.String("error", err.Error()))
		}
	}
}

// List returns a page of units, newest first.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]*TranslationUnit, int, error) {
	return s.repo.List(ctx, params)
}

// ReindexAll rebuilds the similarity index from the unit table. Called once
// at startup before the server accepts traffic.
func (s *Service) ReindexAll(ctx context.Context) (int, error) {
	count := 0
	err := s.repo.ForEachEmbedding(ctx, func(unitID string, embedding []float32) error {
		if len(embedding) == 0 {
			return nil
		}
		if err := s.index.Insert(unitID, embedding); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	s.logger.InfoContext(ctx, "tm_index_rebuilt", slog.Int("units", count))
	return count, nil
}

// Repository exposes the underlying repository for components that need raw
// access, such as publication staging.
func (s *Service) Repository() UnitRepository {
	return s.repo
}

// IsNotFound reports whether err is the repository's miss sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, dberr.ErrNotFound)
}
