package api

import (
	"github.com/starford/inkwell/internal/docservice"
	"github.com/starford/inkwell/internal/site"
)

// DocumentDetail is the full document response type (aliased from the domain layer).
type DocumentDetail = docservice.DocumentDetail

// DocumentItem is a lightweight item in a list response (aliased from the domain layer).
type DocumentItem = docservice.DocumentItem

// DocumentListResponse wraps document listings.
type DocumentListResponse struct {
	Documents []DocumentItem `json:"documents"`
	Total     int            `json:"total"`
}

// BuildResponse summarises a full site build.
type BuildResponse struct {
	Built  []site.Result `json:"built"`
	Failed []string      `json:"failed"`
}

// MediaUploadResponse is returned after a successful media upload.
type MediaUploadResponse struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Embed    string `json:"embed"`
}
