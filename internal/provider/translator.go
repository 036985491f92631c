// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/concord/internal/platform/apperr"
)

// TranslatorClient calls the machine-translation collaborator.
//
// This is the only engine step with externally-variable latency, so the
// client timeout doubles as the cancellation guard demanded of the Matcher
// fallback.
type TranslatorClient struct {
	baseURL string
	client  *http.Client
}

// NewTranslatorClient constructs the machine-translation collaborator client.
func NewTranslatorClient(baseURL string, timeout time.Duration) *TranslatorClient {
	return &TranslatorClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Translate returns the raw machine translation of text.
func (c *TranslatorClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"text":        text,
		"source_lang": sourceLang,
		"target_lang": targetLang,
	})
	if err != nil {
		return "", apperr.CollaboratorFailure(StepTranslation, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", apperr.CollaboratorFailure(StepTranslation, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		return "", apperr.CollaboratorFailure(StepTranslation, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return "", apperr.CollaboratorFailure(StepTranslation, fmt.Errorf("translator endpoint returned %s", response.Status))
	}

	var decoded struct {
		Translation string `json:"translation"`
	}
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return "", apperr.CollaboratorFailure(StepTranslation, err)
	}

	translation := strings.TrimSpace(decoded.Translation)
	if translation == "" {
		return "", apperr.CollaboratorFailure(StepTranslation, fmt.Errorf("empty translation in response"))
	}

	return translation, nil
}
