// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// PublishRecordTable represents the 'tm.publish_record' table
type PublishRecordTable struct {
	Table            string
	ID               string
	SessionID        string
	SourceDocumentID string
	TargetDocumentID string
	Report           string
	PublishedAt      string
}

// PublishRecord is the schema definition for tm.publish_record.
// The concurrence report that authorized the publication is archived here
// as JSONB for audit.
var PublishRecord = PublishRecordTable{
	Table:            "tm.publish_record",
	ID:               "id",
	SessionID:        "session_id",
	SourceDocumentID: "source_document_id",
	TargetDocumentID: "target_document_id",
	Report:           "report",
	PublishedAt:      "published_at",
}

func (t PublishRecordTable) Columns() []string {
	return []string{t.ID, t.SessionID, t.SourceDocumentID, t.TargetDocumentID, t.Report, t.PublishedAt}
}
