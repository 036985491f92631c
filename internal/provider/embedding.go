// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/concord/internal/platform/apperr"
)

// EmbeddingClient calls an OpenAI-compatible embeddings endpoint.
//
// # Deduplication
//
// Concurrent Embed calls for the same text are collapsed into a single
// upstream request via singleflight. Segment matching frequently embeds the
// same sentence from several advisors at once.
type EmbeddingClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	group   singleflight.Group
}

// NewEmbeddingClient constructs the embeddings collaborator client.
func NewEmbeddingClient(baseURL, apiKey, model string, timeout time.Duration) *EmbeddingClient {
	return &EmbeddingClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Embed returns the embedding vector for the given text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	value, err, _ := c.group.Do(text, func() (interface{}, error) {
		// The shared call must not inherit the first caller's cancellation:
		// other waiters are deduplicated onto it. The HTTP client's timeout
		// still bounds the request.
		return c.embed(context.WithoutCancel(ctx), text)
	})
	if err != nil {
		return nil, err
	}
	return value.([]float32), nil
}

func (c *EmbeddingClient) embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{
		"input": text,
		"model": c.model,
	})
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepEmbedding, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepEmbedding, err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepEmbedding, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return nil, apperr.CollaboratorFailure(StepEmbedding, fmt.Errorf("embeddings endpoint returned %s", response.Status))
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, apperr.CollaboratorFailure(StepEmbedding, err)
	}

	var decoded struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil || len(decoded.Data) == 0 || len(decoded.Data[0].Embedding) == 0 {
		return nil, apperr.CollaboratorFailure(StepEmbedding, fmt.Errorf("no embedding in response"))
	}

	return decoded.Data[0].Embedding, nil
}
