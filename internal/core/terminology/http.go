// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package terminology

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/concord/internal/platform/request"
	"github.com/taibuivan/concord/internal/platform/respond"
	"github.com/taibuivan/concord/internal/platform/validate"
)

// Handler exposes the terminology ledger over HTTP.
type Handler struct {
	ledger *Ledger
}

// NewHandler creates the terminology handler.
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// RegisterRoutes mounts the terminology endpoints on the router.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/terminology/{term}", func(r chi.Router) {
		r.Get("/", h.getEntry)
		r.Put("/canonical", h.setCanonical)
	})
}

// getEntry handles GET /terminology/{term}?lang=.
func (h *Handler) getEntry(writer http.ResponseWriter, request *http.Request) {
	term := requestutil.Param(request, "term")
	targetLang := request.URL.Query().Get("lang")

	validator := validate.New().
		Required("term", term).
		Required("lang", targetLang).
		LanguageTag("lang", targetLang)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := h.ledger.Entry(request.Context(), term, targetLang)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}

type setCanonicalRequest struct {
	TargetLang string `json:"target_lang"`
	// Canonical is the override rendering; an empty string clears it.
	Canonical string `json:"canonical"`
}

// setCanonical handles PUT /terminology/{term}/canonical.
func (h *Handler) setCanonical(writer http.ResponseWriter, request *http.Request) {
	term := requestutil.Param(request, "term")

	var payload setCanonicalRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := validate.New().
		Required("term", term).
		Required("target_lang", payload.TargetLang).
		LanguageTag("target_lang", payload.TargetLang).
		MaxLen("canonical", payload.Canonical, 500)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	entry, err := h.ledger.SetCanonical(request.Context(), term, payload.TargetLang, payload.Canonical)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entry)
}
