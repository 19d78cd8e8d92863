package index

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/transform"
)

// Sync walks the markdown root and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
//
// It returns the keys of every document that was indexed or removed.
func Sync(db *DB, store storage.Provider, p *markdown.Parser, logger *slog.Logger) ([]string, error) {
	files, err := store.List("", ".md")
	if err != nil {
		return nil, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, err
	}

	var changed []string
	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}

		if checksums[f.Path] == f.Checksum {
			continue
		}

		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, p, f.Path, data, logger); err != nil {
			logger.Warn("sync: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", f.Path))
		changed = append(changed, transform.Key(f.Path))
	}

	// Remove stale entries.
	for stale := range checksums {
		if _, ok := disk[stale]; !ok {
			key := transform.Key(stale)
			if err := db.DeleteDocument(key); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", stale), slog.String("error", err.Error()))
				continue
			}
			logger.Debug("sync: removed stale", slog.String("path", stale))
			changed = append(changed, key)
		}
	}

	return changed, nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, p *markdown.Parser, file string, data []byte, logger *slog.Logger) error {
	doc, err := p.Parse(data)
	if err != nil {
		return err
	}
	key := transform.Key(file)

	url := Permalink(doc, key)
	owner, err := db.DocumentByURL(url)
	if err == nil && owner.Key != key {
		logger.Warn("sync: permalink taken",
			slog.String("path", file),
			slog.String("url", url),
			slog.String("owner", owner.Key))
		url = ""
	}

	title := doc.Title()
	if title == "" {
		title = path.Base(key)
	}

	row := DocumentRow{
		Key:       key,
		Path:      file,
		URL:       url,
		Title:     title,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.UpsertDocument(row, Links(doc)); err != nil {
		return fmt.Errorf("index: %s: %w", file, err)
	}
	return nil
}

// Permalink returns the URL a document is published under: its front
// matter permalink, or "/" followed by the lower-cased key with spaces
// turned into dashes.
func Permalink(doc *markdown.Document, key string) string {
	if v, ok := doc.FrontMatter["permalink"].(string); ok && strings.TrimSpace(v) != "" {
		v = strings.TrimSpace(v)
		if !strings.HasPrefix(v, "/") {
			v = "/" + v
		}
		return v
	}
	return "/" + strings.ToLower(strings.ReplaceAll(key, " ", "-"))
}

// Links returns the outgoing links of doc as index keys. External links and
// fragment-only links are skipped; media embeds keep their extension.
func Links(doc *markdown.Document) []Link {
	var out []Link
	for _, wl := range doc.WikiLinks() {
		target := strings.ToLower(wl.Target)
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			continue
		}
		file, _, _ := strings.Cut(wl.Target, "#")
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		out = append(out, Link{Target: transform.Key(file), Embed: wl.Embed})
	}
	return out
}
