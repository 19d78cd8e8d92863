package index

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/transform"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	// Key is the path relative to the markdown root without ".md".
	Key       string
	Path      string
	URL       string
	Title     string
	Checksum  string
	UpdatedAt time.Time
}

// Link is one outgoing wikilink of a document.
type Link struct {
	Target string `json:"target"`
	Embed  bool   `json:"embed"`
}

// UpsertDocument inserts or replaces a document and its outgoing links
// within a transaction.
func (db *DB) UpsertDocument(d DocumentRow, links []Link) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO documents (key, path, url, title, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			path       = excluded.path,
			url        = excluded.url,
			title      = excluded.title,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, d.Key, d.Path, d.URL, d.Title, d.Checksum, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, d.Key); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, embed) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(d.Key, l.Target, l.Embed); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteDocument removes a document and its outgoing links.
func (db *DB) DeleteDocument(key string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, key)
	_, _ = tx.Exec(`DELETE FROM documents WHERE key = ?`, key)

	return tx.Commit()
}

const documentColumns = `key, path, url, title, checksum, updated_at`

func scanDocument(row interface{ Scan(...any) error }) (*DocumentRow, error) {
	var d DocumentRow
	if err := row.Scan(&d.Key, &d.Path, &d.URL, &d.Title, &d.Checksum, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDocument returns the document with key, or apperr.ErrNotFound.
func (db *DB) GetDocument(key string) (*DocumentRow, error) {
	d, err := scanDocument(db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return d, nil
}

// DocumentByURL returns the document published at url, or
// apperr.ErrNotFound.
func (db *DB) DocumentByURL(url string) (*DocumentRow, error) {
	if url == "" {
		return nil, apperr.ErrNotFound
	}
	d, err := scanDocument(db.conn.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE url = ?`, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: document by url: %w", err)
	}
	return d, nil
}

// ListDocuments returns every document ordered by key.
func (db *DB) ListDocuments() ([]DocumentRow, error) {
	rows, err := db.conn.Query(`SELECT ` + documentColumns + ` FROM documents ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetChecksum returns the stored checksum for a document path, or empty
// string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed document by path.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Lookup returns the permalink of the document with key.
func (db *DB) Lookup(key string) (string, bool) {
	var url string
	err := db.conn.QueryRow(`SELECT url FROM documents WHERE key = ?`, key).Scan(&url)
	return url, err == nil && url != ""
}

// Permalinks returns a snapshot of every key with a permalink.
func (db *DB) Permalinks() (transform.Permalinks, error) {
	rows, err := db.conn.Query(`SELECT key, url FROM documents WHERE url != ''`)
	if err != nil {
		return nil, fmt.Errorf("index: permalinks: %w", err)
	}
	defer rows.Close()
	out := transform.Permalinks{}
	for rows.Next() {
		var k, u string
		if err := rows.Scan(&k, &u); err != nil {
			return nil, err
		}
		out[k] = u
	}
	return out, rows.Err()
}

// Backlinks returns all document keys that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	return db.sources(`SELECT DISTINCT source FROM links WHERE target = ? AND embed = 0 ORDER BY source`, target)
}

// Embedders returns all document keys that embed the given target.
func (db *DB) Embedders(target string) ([]string, error) {
	return db.sources(`SELECT DISTINCT source FROM links WHERE target = ? AND embed = 1 ORDER BY source`, target)
}

func (db *DB) sources(query, target string) ([]string, error) {
	rows, err := db.conn.Query(query, target)
	if err != nil {
		return nil, fmt.Errorf("index: link sources: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Affected returns the keys whose output depends on key: key itself, the
// documents linking to it and everything that embeds any of those,
// transitively. The result is sorted.
func (db *DB) Affected(key string) ([]string, error) {
	seen := map[string]bool{key: true}
	queue := []string{key}

	linkers, err := db.Backlinks(key)
	if err != nil {
		return nil, err
	}
	for _, k := range linkers {
		if !seen[k] {
			seen[k] = true
			queue = append(queue, k)
		}
	}

	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		embedders, err := db.Embedders(k)
		if err != nil {
			return nil, err
		}
		for _, e := range embedders {
			if !seen[e] {
				seen[e] = true
				queue = append(queue, e)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}
