// Package site builds the public tree: every indexed markdown document is
// transformed, rendered and written below the public root.
package site

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/media"
	"github.com/starford/inkwell/internal/metrics"
	"github.com/starford/inkwell/internal/render"
	"github.com/starford/inkwell/internal/storage"
	"github.com/starford/inkwell/internal/transform"
)

// CodeCSSPath is where the code highlighting stylesheet is published.
const CodeCSSPath = "assets/code.css"

//go:embed templates/*.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/page.html"))

// Index is the part of the document index the builder reads.
type Index interface {
	ListDocuments() ([]index.DocumentRow, error)
	GetDocument(key string) (*index.DocumentRow, error)
	Permalinks() (transform.Permalinks, error)
}

// Config holds the builder settings.
type Config struct {
	ImageMaxWidth int
	LinkForm      transform.LinkForm
	// Workers bounds concurrent document builds; 0 means 4.
	Workers int
	// LiveReload adds the preview reload script to every page.
	LiveReload bool
}

// Result describes one built document.
type Result struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Output string `json:"output"`
}

// Report summarises a build run.
type Report struct {
	Built  []Result
	Failed []string
}

// Builder renders documents from the markdown root into the public root.
// It is safe for concurrent use.
type Builder struct {
	source   storage.Provider
	public   storage.Provider
	index    Index
	parser   *markdown.Parser
	renderer *render.Renderer
	media    *media.Resolver
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	built map[string]string // key -> url of the last successful build
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithMetrics records build outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// WithRenderer replaces the default HTML renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(b *Builder) {
		b.renderer = r
	}
}

// WithParser replaces the default markdown parser.
func WithParser(p *markdown.Parser) Option {
	return func(b *Builder) {
		b.parser = p
	}
}

// New returns a Builder reading documents listed by idx from source and
// writing pages and media into public.
func New(source, public storage.Provider, idx Index, res *media.Resolver, cfg Config, opts ...Option) *Builder {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	b := &Builder{
		source: source,
		public: public,
		index:  idx,
		media:  res,
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		built:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.parser == nil {
		b.parser = markdown.NewParser()
	}
	if b.renderer == nil {
		b.renderer = render.New(render.WithLogger(b.logger))
	}
	return b
}

// OutputPath returns the public path of the page published at url.
func OutputPath(url string) string {
	p := strings.Trim(path.Clean("/"+url), "/")
	if p == "" {
		return "index.html"
	}
	return p + "/index.html"
}

// BuildAll builds every indexed document and the code stylesheet.
func (b *Builder) BuildAll(ctx context.Context) (Report, error) {
	rows, err := b.index.ListDocuments()
	if err != nil {
		return Report{}, fmt.Errorf("site: list documents: %w", err)
	}
	if err := b.writeCSS(); err != nil {
		return Report{}, err
	}
	return b.build(ctx, rows)
}

// Rebuild builds the documents with the given keys. Keys no longer in the
// index are skipped.
func (b *Builder) Rebuild(ctx context.Context, keys []string) (Report, error) {
	var rows []index.DocumentRow
	for _, key := range keys {
		row, err := b.index.GetDocument(key)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return Report{}, fmt.Errorf("site: get document %s: %w", key, err)
		}
		rows = append(rows, *row)
	}
	return b.build(ctx, rows)
}

// Remove deletes the published page of a document built earlier.
func (b *Builder) Remove(key string) error {
	b.mu.Lock()
	url, ok := b.built[key]
	delete(b.built, key)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	out := OutputPath(url)
	if err := b.public.Delete(out); err != nil {
		return fmt.Errorf("site: remove %s: %w", out, err)
	}
	b.logger.Info("site: page removed", slog.String("document", key), slog.String("url", url))
	return nil
}

func (b *Builder) build(ctx context.Context, rows []index.DocumentRow) (Report, error) {
	defer b.metrics.BuildFinished(time.Now())

	pipeline, err := b.pipeline()
	if err != nil {
		return Report{}, err
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for _, row := range rows {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := b.buildOne(pipeline, row)
			b.metrics.DocumentBuilt(err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				b.logger.Error("site: build failed",
					slog.String("document", row.Key),
					slog.String("error", err.Error()))
				report.Failed = append(report.Failed, row.Key)
				return nil
			}
			report.Built = append(report.Built, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("site: build: %w", err)
	}

	sort.Slice(report.Built, func(i, j int) bool { return report.Built[i].Key < report.Built[j].Key })
	sort.Strings(report.Failed)
	b.logger.Info("site: build finished",
		slog.Int("built", len(report.Built)),
		slog.Int("failed", len(report.Failed)))
	return report, nil
}

// Preview transforms and renders the document with key without writing
// its page. Media embeds are still published.
func (b *Builder) Preview(key string) ([]byte, error) {
	row, err := b.index.GetDocument(key)
	if err != nil {
		return nil, err
	}
	pipeline, err := b.pipeline()
	if err != nil {
		return nil, err
	}
	doc, err := b.transform(pipeline, *row)
	if err != nil {
		return nil, err
	}
	return b.renderer.HTML(doc)
}

func (b *Builder) pipeline() (*transform.Pipeline, error) {
	perma, err := b.index.Permalinks()
	if err != nil {
		return nil, fmt.Errorf("site: permalinks: %w", err)
	}
	return transform.New(transform.Config{
		Source:        b.source,
		Media:         b.media,
		Permalinks:    perma,
		ImageMaxWidth: b.cfg.ImageMaxWidth,
		LinkForm:      b.cfg.LinkForm,
		Parser:        b.parser,
		Logger:        b.logger,
	}), nil
}

func (b *Builder) transform(pipeline *transform.Pipeline, row index.DocumentRow) (*markdown.Document, error) {
	data, err := b.source.Read(row.Path)
	if err != nil {
		return nil, err
	}
	doc, err := b.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	pipeline.Transform(doc, row.Key)
	return doc, nil
}

type page struct {
	Title      string
	Key        string
	URL        string
	CodeCSS    string
	Body       template.HTML
	LiveReload bool
}

func (b *Builder) buildOne(pipeline *transform.Pipeline, row index.DocumentRow) (Result, error) {
	if row.URL == "" {
		return Result{}, fmt.Errorf("no permalink for %s", row.Key)
	}
	doc, err := b.transform(pipeline, row)
	if err != nil {
		return Result{}, err
	}
	body, err := b.renderer.HTML(doc)
	if err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, page{
		Title:      row.Title,
		Key:        row.Key,
		URL:        row.URL,
		CodeCSS:    "/" + CodeCSSPath,
		Body:       template.HTML(body),
		LiveReload: b.cfg.LiveReload,
	})
	if err != nil {
		return Result{}, fmt.Errorf("execute page template: %w", err)
	}

	out := OutputPath(row.URL)
	if err := b.public.Write(out, buf.Bytes()); err != nil {
		return Result{}, err
	}

	b.mu.Lock()
	if prev, ok := b.built[row.Key]; ok && prev != row.URL {
		_ = b.public.Delete(OutputPath(prev))
	}
	b.built[row.Key] = row.URL
	b.mu.Unlock()

	b.logger.Debug("site: page written", slog.String("document", row.Key), slog.String("output", out))
	return Result{Key: row.Key, URL: row.URL, Output: out}, nil
}

func (b *Builder) writeCSS() error {
	var buf bytes.Buffer
	if err := b.renderer.WriteCSS(&buf); err != nil {
		return err
	}
	if err := b.public.Write(CodeCSSPath, buf.Bytes()); err != nil {
		return fmt.Errorf("site: write stylesheet: %w", err)
	}
	return nil
}
