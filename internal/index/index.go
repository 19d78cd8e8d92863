package index

import "github.com/starford/inkwell/internal/transform"

// DocumentIndex defines the interface for document index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocumentIndex interface {
	UpsertDocument(d DocumentRow, links []Link) error
	DeleteDocument(key string) error
	GetDocument(key string) (*DocumentRow, error)
	DocumentByURL(url string) (*DocumentRow, error)
	ListDocuments() ([]DocumentRow, error)
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
	Lookup(key string) (string, bool)
	Permalinks() (transform.Permalinks, error)
	Backlinks(target string) ([]string, error)
	Embedders(target string) ([]string, error)
	Affected(key string) ([]string, error)
	Close() error
}

// Verify *DB satisfies DocumentIndex and transform.PermalinkIndex at compile time.
var (
	_ DocumentIndex            = (*DB)(nil)
	_ transform.PermalinkIndex = (*DB)(nil)
)
