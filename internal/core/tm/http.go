// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tm

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/concord/internal/platform/respond"
	"github.com/taibuivan/concord/internal/platform/validate"
	"github.com/taibuivan/concord/pkg/pagination"
)

// Handler exposes read access to the translation memory.
//
// Writes have no HTTP surface here on purpose: units enter the corpus only
// through session publication.
type Handler struct {
	service *Service
}

// NewHandler creates the TM read handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the TM endpoints on the router.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/tm", func(r chi.Router) {
		r.Get("/units", h.listUnits)
		r.Get("/lookup", h.lookupExact)
	})
}

// listUnits handles GET /tm/units.
func (h *Handler) listUnits(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	units, total, err := h.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if units == nil {
		units = []*TranslationUnit{}
	}
	respond.Paginated(writer, units, pagination.NewMeta(params.Page, params.Limit, total))
}

// lookupExact handles GET /tm/lookup.
//
// Query parameters: source_text, target_lang, section_category,
// classification_tier. The match is on normalized source text within the
// given target language and context.
func (h *Handler) lookupExact(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	sourceText := query.Get("source_text")
	targetLang := query.Get("target_lang")
	docContext := Context{
		SectionCategory:    query.Get("section_category"),
		ClassificationTier: query.Get("classification_tier"),
	}

	validator := validate.New().
		Required("source_text", sourceText).
		Required("target_lang", targetLang).
		LanguageTag("target_lang", targetLang)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	unit, err := h.service.LookupExact(request.Context(), sourceText, targetLang, docContext)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, unit)
}
