// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package provider defines the contracts for the external collaborators the
engine consumes, plus their HTTP client implementations.

The engine never generates content itself: embeddings, machine translation,
term extraction, and document metadata all come from these collaborators.
Each client call is timeout-guarded so a slow collaborator cannot stall a
session, and every failure is surfaced as a COLLABORATOR_FAILURE naming the
step that failed.
*/
package provider

import "context"

// Step names used in COLLABORATOR_FAILURE errors.
const (
	StepEmbedding     = "embedding"
	StepTranslation   = "machine_translation"
	StepTermExtractor = "term_extractor"
	StepDocumentStore = "document_store"
)

// Embedder produces fixed-dimension embedding vectors for source sentences.
//
// Vectors are opaque to the engine: deterministic for identical input within
// one provider version, but not comparable across provider versions.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Translator is the machine-translation collaborator, used only as the
// Matcher's last fallback.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// TermExtractor identifies the terminology-bearing substrings of a sentence.
// The engine does not itself decide what counts as a term.
type TermExtractor interface {
	Extract(ctx context.Context, text, lang string) ([]string, error)
}

// DocumentStore owns the two linked documents of a bilingual pair. The engine
// reads segment boundaries from it and asks it to flip the published flags.
type DocumentStore interface {
	// Segments returns the ordered segment texts of a document.
	Segments(ctx context.Context, documentID string) ([]string, error)

	// SegmentCount returns the number of segments without fetching them.
	SegmentCount(ctx context.Context, documentID string) (int, error)

	// PublishPair atomically marks both linked documents as published.
	PublishPair(ctx context.Context, sourceDocumentID, targetDocumentID string) error
}
