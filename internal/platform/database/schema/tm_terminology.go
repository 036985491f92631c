// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// TerminologyEntryTable represents the 'tm.terminology_entry' table
type TerminologyEntryTable struct {
	Table             string
	ID                string
	NormalizedTerm    string
	TargetLang        string
	CanonicalOverride string
	CreatedAt         string
}

// TerminologyEntry is the schema definition for tm.terminology_entry
var TerminologyEntry = TerminologyEntryTable{
	Table:             "tm.terminology_entry",
	ID:                "id",
	NormalizedTerm:    "normalized_term",
	TargetLang:        "target_lang",
	CanonicalOverride: "canonical_override",
	CreatedAt:         "created_at",
}

func (t TerminologyEntryTable) Columns() []string {
	return []string{t.ID, t.NormalizedTerm, t.TargetLang, t.CanonicalOverride, t.CreatedAt}
}

// TerminologyRenderingTable represents the 'tm.terminology_rendering' table.
// One row per (entry, rendering); counts only ever grow.
type TerminologyRenderingTable struct {
	Table     string
	EntryID   string
	Rendering string
	Count     string
	FirstSeen string
	LastSeen  string
}

// TerminologyRendering is the schema definition for tm.terminology_rendering
var TerminologyRendering = TerminologyRenderingTable{
	Table:     "tm.terminology_rendering",
	EntryID:   "entry_id",
	Rendering: "rendering",
	Count:     "occurrence_count",
	FirstSeen: "first_seen",
	LastSeen:  "last_seen",
}

func (t TerminologyRenderingTable) Columns() []string {
	return []string{t.EntryID, t.Rendering, t.Count, t.FirstSeen, t.LastSeen}
}
