package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrSourceNotFound   = errors.New("source file not found")
	ErrEmbedCycle       = errors.New("embed cycle")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
