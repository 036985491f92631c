// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package terminology implements the terminology ledger: per-term tallies of
how each source term has been rendered in each target language, with optional
canonical overrides from a terminologist.

The ledger is observational. It records what published documents actually did
and reports dominance and conflicts; it never blocks a publication on its own
(strict mode is the validator's decision, not the ledger's).
*/
package terminology

import "time"

// Rendering is one observed target-language rendering of a term.
type Rendering struct {
	Text      string    `json:"text"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Entry is the ledger record for one (term, target language) pair.
type Entry struct {
	ID                string      `json:"id"`
	NormalizedTerm    string      `json:"normalized_term"`
	TargetLang        string      `json:"target_lang"`
	CanonicalOverride string      `json:"canonical_override,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	Renderings        []Rendering `json:"renderings"`
}

// Dominant is the ledger's current preferred rendering for a term.
type Dominant struct {
	Rendering  string  `json:"rendering"`
	Confidence float64 `json:"confidence"`
	// Overridden reports whether a terminologist's canonical choice is in
	// effect, in which case Confidence is 1.
	Overridden bool `json:"overridden"`
}

// Verdict classifies a candidate rendering against the ledger.
type Verdict string

const (
	// VerdictConsistent: the candidate matches the dominant rendering.
	VerdictConsistent Verdict = "consistent"
	// VerdictNewTerm: the ledger has no entry for this term yet.
	VerdictNewTerm Verdict = "new_term"
	// VerdictConflict: the candidate deviates from an established dominant
	// rendering.
	VerdictConflict Verdict = "conflict"
)

// ConsistencyCheck is the result of checking one candidate rendering.
type ConsistencyCheck struct {
	Term      string  `json:"term"`
	Candidate string  `json:"candidate"`
	Verdict   Verdict `json:"verdict"`
	// Dominant is set for consistent and conflict verdicts.
	Dominant string `json:"dominant,omitempty"`
}
