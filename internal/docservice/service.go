// Package docservice coordinates the document index, the site builder and
// the live-reload event stream. The HTTP API and the watch loop both go
// through it.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/site"
	"github.com/starford/inkwell/internal/sse"
	"github.com/starford/inkwell/internal/storage"
)

// DefaultUploadDir is the markdown-root folder uploaded media is stored in.
const DefaultUploadDir = "attachments"

// DocumentItem is a lightweight item in a list response.
type DocumentItem struct {
	Key       string    `json:"key"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentDetail is the full representation of an indexed document.
type DocumentDetail struct {
	DocumentItem
	FrontMatter map[string]any `json:"frontmatter,omitempty"`
	Links       []index.Link   `json:"links"`
	Backlinks   []string       `json:"backlinks"`
	Embedders   []string       `json:"embedders"`
}

// Events receives build notifications. *sse.Broker implements it.
type Events interface {
	PublishDocumentEvent(kind, key, url string)
}

// Service coordinates index, builder and event operations.
type Service struct {
	source    storage.Provider
	db        index.DocumentIndex
	parser    *markdown.Parser
	builder   *site.Builder
	events    Events
	logger    *slog.Logger
	uploadDir string
	// sync re-indexes the markdown root before a full build. Nil skips it.
	sync func() ([]string, error)
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes build outcomes to e.
func WithEvents(e Events) Option {
	return func(s *Service) {
		s.events = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithUploadDir sets the markdown-root folder uploads are written to.
func WithUploadDir(dir string) Option {
	return func(s *Service) {
		s.uploadDir = dir
	}
}

// NewService creates a document service. When db is an *index.DB, full
// builds re-sync the index from source first.
func NewService(source storage.Provider, db index.DocumentIndex, p *markdown.Parser, b *site.Builder, opts ...Option) *Service {
	s := &Service{
		source:    source,
		db:        db,
		parser:    p,
		builder:   b,
		logger:    slog.New(slog.DiscardHandler),
		uploadDir: DefaultUploadDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	if concrete, ok := db.(*index.DB); ok {
		s.sync = func() ([]string, error) {
			return index.Sync(concrete, source, p, s.logger)
		}
	}
	return s
}

// ListDocuments returns every indexed document ordered by key.
func (s *Service) ListDocuments(_ context.Context) ([]DocumentItem, error) {
	rows, err := s.db.ListDocuments()
	if err != nil {
		return nil, err
	}
	items := make([]DocumentItem, len(rows))
	for i, r := range rows {
		items[i] = toItem(r)
	}
	return items, nil
}

// GetDocument returns the indexed document with key, its front matter and
// its link neighbourhood.
func (s *Service) GetDocument(_ context.Context, key string) (*DocumentDetail, error) {
	row, err := s.db.GetDocument(key)
	if err != nil {
		return nil, err
	}
	data, err := s.source.Read(row.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc, err := s.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(key)
	if err != nil {
		return nil, err
	}
	em, err := s.db.Embedders(key)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{
		DocumentItem: toItem(*row),
		FrontMatter:  doc.FrontMatter,
		Links:        nonNilSlice(index.Links(doc)),
		Backlinks:    nonNilSlice(bl),
		Embedders:    nonNilSlice(em),
	}, nil
}

// Preview renders the document with key to an HTML fragment without
// publishing its page.
func (s *Service) Preview(_ context.Context, key string) ([]byte, error) {
	return s.builder.Preview(key)
}

// BuildAll re-syncs the index and builds the whole site.
func (s *Service) BuildAll(ctx context.Context) (site.Report, error) {
	if s.sync != nil {
		if _, err := s.sync(); err != nil {
			return site.Report{}, fmt.Errorf("docservice: sync: %w", err)
		}
	}
	report, err := s.builder.BuildAll(ctx)
	s.publish(report)
	return report, err
}

// HandleChange reacts to one watcher event: it rebuilds every page whose
// output depends on the changed document or media file and drops pages of
// deleted documents.
func (s *Service) HandleChange(ctx context.Context, kind, name string) error {
	var keys []string
	switch kind {
	case index.EventCreated, index.EventUpdated:
		affected, err := s.db.Affected(name)
		if err != nil {
			return fmt.Errorf("docservice: affected %s: %w", name, err)
		}
		keys = affected
	case index.EventDeleted:
		if err := s.builder.Remove(name); err != nil {
			return err
		}
		if s.events != nil {
			s.events.PublishDocumentEvent(sse.KindRemoved, name, "")
		}
		affected, err := s.db.Affected(name)
		if err != nil {
			return fmt.Errorf("docservice: affected %s: %w", name, err)
		}
		keys = affected
	case index.EventMedia:
		embedders, err := s.mediaEmbedders(name)
		if err != nil {
			return err
		}
		keys = embedders
	default:
		return nil
	}
	if len(keys) == 0 {
		return nil
	}
	s.logger.Info("docservice: rebuilding",
		slog.String("trigger", name),
		slog.String("event", kind),
		slog.Int("documents", len(keys)))
	report, err := s.builder.Rebuild(ctx, keys)
	s.publish(report)
	return err
}

// UploadMedia stores data under the upload folder of the markdown root and
// returns its relative path, ready to be embedded with ![[path]]. Existing
// files are never overwritten.
func (s *Service) UploadMedia(_ context.Context, name string, data []byte) (string, error) {
	if name == "" || name != path.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid filename: %q", name)
	}
	rel := path.Join(s.uploadDir, name)
	exists, err := s.source.Exists(rel)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("%s: %w", rel, apperr.ErrAlreadyExists)
	}
	if err := s.source.Write(rel, data); err != nil {
		return "", err
	}
	s.logger.Info("docservice: media uploaded", slog.String("path", rel), slog.Int("size", len(data)))
	return rel, nil
}

// mediaEmbedders returns the documents embedding the media file at rel,
// either by its full path or by its bare name.
func (s *Service) mediaEmbedders(rel string) ([]string, error) {
	seen := make(map[string]bool)
	for _, target := range []string{rel, path.Base(rel)} {
		keys, err := s.db.Embedders(target)
		if err != nil {
			return nil, fmt.Errorf("docservice: embedders %s: %w", target, err)
		}
		for _, k := range keys {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) publish(report site.Report) {
	if s.events == nil {
		return
	}
	for _, r := range report.Built {
		s.events.PublishDocumentEvent(sse.KindBuilt, r.Key, r.URL)
	}
	for _, key := range report.Failed {
		s.events.PublishDocumentEvent(sse.KindFailed, key, "")
	}
}

func toItem(r index.DocumentRow) DocumentItem {
	return DocumentItem{
		Key:       r.Key,
		Path:      r.Path,
		URL:       r.URL,
		Title:     r.Title,
		Checksum:  r.Checksum,
		UpdatedAt: r.UpdatedAt,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
