package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/starford/inkwell/internal/apperr"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadMedia handles POST /api/media (multipart/form-data, field "file").
// The file lands in the upload folder of the markdown root, from where
// documents embed it.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := header.Filename
	if strings.ContainsAny(name, `/\`) || name != path.Clean(name) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid filename: "+name))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to read file"))
		return
	}

	rel, err := h.svc.UploadMedia(r.Context(), name, data)
	if errors.Is(err, apperr.ErrAlreadyExists) {
		writeJSON(w, http.StatusConflict, errorBody("file already exists"))
		return
	}
	if err != nil {
		slog.Error("media upload failed", slog.String("filename", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, MediaUploadResponse{
		Filename: name,
		Path:     rel,
		Size:     int64(len(data)),
		Embed:    "![[" + rel + "]]",
	})
}
