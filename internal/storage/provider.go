// Package storage provides root-confined file access for the markdown
// source tree and the public output tree.
package storage

import (
	"io"
	"time"
)

// File describes one file found by List.
type File struct {
	// Path is relative to the root and always "/"-separated.
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for file operations below a root directory.
type Provider interface {
	// List returns every file under dir whose name ends in ext.
	List(dir, ext string) ([]File, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Open opens the file at path for reading.
	Open(path string) (io.ReadCloser, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) (bool, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root returns the absolute root directory.
	Root() string
}
