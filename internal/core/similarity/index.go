// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package similarity implements the in-process nearest-neighbour index over
translation unit embeddings.

The index is the retrieval arm of the translation memory: it holds one
fixed-dimension vector per unit, keyed by unit ID, and answers top-K cosine
similarity queries. It is append-only — a changed sentence pair is a new
unit, never a vector mutation — and is rebuilt from the unit table at boot.

# Concurrency

Reads never block on other reads. Inserts take the write lock briefly to
append; queries scan under the read lock, so a query never blocks a
concurrent query and never observes a half-written vector.
*/
package similarity

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Match is a single nearest-neighbour result.
type Match struct {
	UnitID     string
	Similarity float64
}

// Index is a brute-force cosine similarity index.
//
// The corpus grows one validated sentence pair at a time, so a query is a
// linear scan over precomputed float32 norms. No approximate structure is
// maintained.
type Index struct {
	mu        sync.RWMutex
	dimension int
	ids       []string
	vectors   [][]float32
	norms     []float64
	seen      map[string]struct{}
}

// NewIndex creates an empty index. The dimension is fixed by the first insert.
func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// Insert appends a unit's embedding to the index.
//
// Inserting the same unit ID twice is rejected: vectors are immutable for a
// given unit, and a changed pair must arrive as a new unit.
func (index *Index) Insert(unitID string, embedding []float32) error {
	if unitID == "" {
		return fmt.Errorf("similarity: empty unit id")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("similarity: empty embedding for unit %s", unitID)
	}

	index.mu.Lock()
	defer index.mu.Unlock()

	if index.dimension == 0 {
		index.dimension = len(embedding)
	} else if len(embedding) != index.dimension {
		return fmt.Errorf("similarity: dimension mismatch for unit %s: got %d, index holds %d",
			unitID, len(embedding), index.dimension)
	}

	if _, duplicate := index.seen[unitID]; duplicate {
		return fmt.Errorf("similarity: unit %s already indexed", unitID)
	}

	// Copy so the caller cannot mutate the stored vector afterwards.
	vector := make([]float32, len(embedding))
	copy(vector, embedding)

	index.ids = append(index.ids, unitID)
	index.vectors = append(index.vectors, vector)
	index.norms = append(index.norms, l2Norm(vector))
	index.seen[unitID] = struct{}{}

	return nil
}

// Query returns up to topK unit IDs ordered by descending cosine similarity,
// excluding results below minSimilarity.
//
// An empty index yields an empty slice, never an error.
func (index *Index) Query(embedding []float32, topK int, minSimilarity float64) []Match {
	if topK <= 0 || len(embedding) == 0 {
		return nil
	}

	queryNorm := l2Norm(embedding)
	if queryNorm == 0 {
		return nil
	}

	index.mu.RLock()
	defer index.mu.RUnlock()

	if len(index.vectors) == 0 || len(embedding) != index.dimension {
		return nil
	}

	matches := make([]Match, 0, len(index.vectors))
	for i, vector := range index.vectors {
		similarity := cosine(embedding, vector, queryNorm, index.norms[i])
		if similarity >= minSimilarity {
			matches = append(matches, Match{UnitID: index.ids[i], Similarity: similarity})
		}
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Similarity != matches[b].Similarity {
			return matches[a].Similarity > matches[b].Similarity
		}
		// Stable tie-break so equal scores rank deterministically.
		return matches[a].UnitID < matches[b].UnitID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// Len returns the number of indexed units.
func (index *Index) Len() int {
	index.mu.RLock()
	defer index.mu.RUnlock()
	return len(index.ids)
}

// Dimension returns the vector dimension the index is locked to (0 if empty).
func (index *Index) Dimension() int {
	index.mu.RLock()
	defer index.mu.RUnlock()
	return index.dimension
}

// cosine computes cosine similarity with pre-calculated L2 norms.
func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

// l2Norm computes the L2 norm of a vector.
func l2Norm(vector []float32) float64 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
