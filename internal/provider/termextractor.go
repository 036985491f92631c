// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/taibuivan/concord/internal/platform/apperr"
)

// TermExtractorClient calls the terminology extraction collaborator.
type TermExtractorClient struct {
	baseURL string
	client  *http.Client
}

// NewTermExtractorClient constructs the term-extraction collaborator client.
func NewTermExtractorClient(baseURL string, timeout time.Duration) *TermExtractorClient {
	return &TermExtractorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Extract returns the normalized terms found in text.
func (c *TermExtractorClient) Extract(ctx context.Context, text, lang string) ([]string, error) {
	payload, err := json.Marshal(map[string]string{
		"text": text,
		"lang": lang,
	})
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepTermExtractor, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepTermExtractor, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepTermExtractor, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return nil, apperr.CollaboratorFailure(StepTermExtractor, fmt.Errorf("term extractor returned %s", response.Status))
	}

	var decoded struct {
		Terms []string `json:"terms"`
	}
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, apperr.CollaboratorFailure(StepTermExtractor, err)
	}

	return decoded.Terms, nil
}
