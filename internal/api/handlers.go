package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/docservice"
	"github.com/starford/inkwell/internal/transform"
)

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// documentKey extracts the document key from the URL (everything after the
// route prefix). Encoded slashes and a trailing ".md" are accepted.
func documentKey(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return transform.Key(decoded)
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /api/documents/*.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	key := documentKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	doc, err := h.svc.GetDocument(r.Context(), key)
	if err != nil {
		h.fail(w, "get document", key, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Preview handles GET /api/preview/*. The response is the rendered HTML
// fragment of the document; nothing is written to the public root.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	key := documentKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("key is required"))
		return
	}
	body, err := h.svc.Preview(r.Context(), key)
	if err != nil {
		h.fail(w, "preview", key, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Build handles POST /api/build.
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.BuildAll(r.Context())
	if err != nil {
		slog.Error("build failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("build failed"))
		return
	}
	resp := BuildResponse{Built: report.Built, Failed: report.Failed}
	if resp.Failed == nil {
		resp.Failed = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, op, key string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error(op+" failed", slog.String("document", key), slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}
