// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/taibuivan/concord/internal/platform/apperr"
)

// DocumentStoreClient talks to the document management collaborator that owns
// segment boundaries and the published flags of linked documents.
type DocumentStoreClient struct {
	baseURL string
	client  *http.Client
}

// NewDocumentStoreClient constructs the document-store collaborator client.
func NewDocumentStoreClient(baseURL string, timeout time.Duration) *DocumentStoreClient {
	return &DocumentStoreClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Segments returns the ordered segment texts of a document.
func (c *DocumentStoreClient) Segments(ctx context.Context, documentID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/documents/%s/segments", c.baseURL, url.PathEscape(documentID))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepDocumentStore, err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepDocumentStore, err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFound("Document")
	}
	if response.StatusCode >= 300 {
		return nil, apperr.CollaboratorFailure(StepDocumentStore, fmt.Errorf("document store returned %s", response.Status))
	}

	var decoded struct {
		Segments []string `json:"segments"`
	}
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, apperr.CollaboratorFailure(StepDocumentStore, err)
	}

	return decoded.Segments, nil
}

// SegmentCount returns the number of segments in a document.
func (c *DocumentStoreClient) SegmentCount(ctx context.Context, documentID string) (int, error) {
	segments, err := c.Segments(ctx, documentID)
	if err != nil {
		return 0, err
	}
	return len(segments), nil
}

// PublishPair atomically marks both linked documents as published.
//
// The document store treats the pair flip as one operation; the engine relies
// on that for the final step of two-phase publication.
func (c *DocumentStoreClient) PublishPair(ctx context.Context, sourceDocumentID, targetDocumentID string) error {
	payload, err := json.Marshal(map[string]string{
		"source_document_id": sourceDocumentID,
		"target_document_id": targetDocumentID,
	})
	if err != nil {
		return apperr.CollaboratorFailure(StepDocumentStore, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/documents/publish-pair", bytes.NewReader(payload))
	if err != nil {
		return apperr.CollaboratorFailure(StepDocumentStore, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return apperr.CollaboratorFailure(StepDocumentStore, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return apperr.CollaboratorFailure(StepDocumentStore, fmt.Errorf("document store returned %s", response.Status))
	}

	return nil
}
