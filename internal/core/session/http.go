// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/concord/internal/core/tm"
	requestutil "github.com/taibuivan/concord/internal/platform/request"
	"github.com/taibuivan/concord/internal/platform/respond"
	"github.com/taibuivan/concord/internal/platform/validate"
)

// Handler exposes the session lifecycle over HTTP.
//
// Every write carries the advisor's identity in X-Editor-ID; the engine
// trusts the gateway in front of it for authentication.
type Handler struct {
	service *Service
}

// NewHandler creates the session handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the session endpoints on the router.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.open)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Delete("/", h.abandon)
			r.Get("/report", h.report)
			r.Post("/validate", h.requestValidation)
			r.Post("/publish", h.publish)
			r.Route("/segments/{index}", func(r chi.Router) {
				r.Post("/suggest", h.suggest)
				r.Post("/resolve", h.resolve)
			})
		})
	})
}

type openRequest struct {
	SourceDocumentID   string `json:"source_document_id"`
	TargetDocumentID   string `json:"target_document_id"`
	SourceLang         string `json:"source_lang"`
	TargetLang         string `json:"target_lang"`
	SectionCategory    string `json:"section_category"`
	ClassificationTier string `json:"classification_tier"`
}

// open handles POST /sessions.
func (h *Handler) open(writer http.ResponseWriter, request *http.Request) {
	editorID, err := requestutil.EditorID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload openRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := validate.New().
		Required("source_document_id", payload.SourceDocumentID).
		Required("target_document_id", payload.TargetDocumentID).
		Required("source_lang", payload.SourceLang).
		LanguageTag("source_lang", payload.SourceLang).
		Required("target_lang", payload.TargetLang).
		LanguageTag("target_lang", payload.TargetLang).
		Custom("target_lang", payload.SourceLang == payload.TargetLang, "Must differ from source_lang")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := h.service.Open(request.Context(), OpenRequest{
		SourceDocumentID: payload.SourceDocumentID,
		TargetDocumentID: payload.TargetDocumentID,
		SourceLang:       payload.SourceLang,
		TargetLang:       payload.TargetLang,
		Context: tm.Context{
			SectionCategory:    payload.SectionCategory,
			ClassificationTier: payload.ClassificationTier,
		},
		EditorID: editorID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, session)
}

// get handles GET /sessions/{id}.
func (h *Handler) get(writer http.ResponseWriter, request *http.Request) {
	session, err := h.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, session)
}

// abandon handles DELETE /sessions/{id}.
func (h *Handler) abandon(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.EditorID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if err := h.service.Abandon(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// suggest handles POST /sessions/{id}/segments/{index}/suggest.
func (h *Handler) suggest(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.EditorID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	orderIndex, err := requestutil.IntParam(request, "index")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := h.service.Suggest(request.Context(), requestutil.Param(request, "id"), orderIndex)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, outcome)
}

type resolveRequest struct {
	Action          string `json:"action"`
	TargetText      string `json:"target_text"`
	ExpectedVersion int    `json:"expected_version"`
}

// resolve handles POST /sessions/{id}/segments/{index}/resolve.
func (h *Handler) resolve(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.EditorID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	orderIndex, err := requestutil.IntParam(request, "index")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload resolveRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := validate.New().
		OneOf("action", payload.Action, string(ActionAccept), string(ActionReject), string(ActionModify)).
		Custom("expected_version", payload.ExpectedVersion < 0, "Must be non-negative")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := h.service.Resolve(request.Context(), requestutil.Param(request, "id"), orderIndex, ResolveRequest{
		Action:          ResolveAction(payload.Action),
		TargetText:      payload.TargetText,
		ExpectedVersion: payload.ExpectedVersion,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, session)
}

// requestValidation handles POST /sessions/{id}/validate.
func (h *Handler) requestValidation(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.EditorID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := h.service.RequestValidation(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, session)
}

// publish handles POST /sessions/{id}/publish.
func (h *Handler) publish(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.EditorID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := h.service.Publish(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

// report handles GET /sessions/{id}/report.
func (h *Handler) report(writer http.ResponseWriter, request *http.Request) {
	report, err := h.service.Report(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, report)
}
