// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/concord/internal/platform/apperr"
	"github.com/taibuivan/concord/internal/platform/constants"
	"github.com/taibuivan/concord/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
IntParam retrieves a named URL parameter and parses it as a non-negative integer.

Returns:
  - int: Parsed value
  - error: apperr.ValidationError if the parameter is missing or not an integer
*/
func IntParam(request *http.Request, name string) (int, error) {
	raw := chi.URLParam(request, name)
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, apperr.ValidationError("Invalid path parameter", apperr.FieldError{
			Field:   name,
			Message: "Must be a non-negative integer",
		})
	}
	return value, nil
}

/*
EditorID returns the advisor identity from the X-Editor-ID header.

Returns:
  - string: Editor identifier
  - error: apperr.ValidationError if the header is absent
*/
func EditorID(request *http.Request) (string, error) {
	editor := request.Header.Get(constants.HeaderXEditorID)
	if editor == "" {
		return "", apperr.ValidationError("Missing editor identity", apperr.FieldError{
			Field:   constants.HeaderXEditorID,
			Message: "Header is required for session writes",
		})
	}
	return editor, nil
}
