package media

import (
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/checksum"
	"github.com/starford/inkwell/internal/extension"
	"github.com/starford/inkwell/internal/metrics"
	"github.com/starford/inkwell/internal/storage"
)

// Record describes one resolved media file. It is derived from the file
// system on every resolution and never stored.
type Record struct {
	SourcePath string
	PublicURI  string
	Hash       string
	// Copied is false when the public copy was already up to date.
	Copied bool
}

// Resolver copies media files from the markdown root into the media folder
// of the public root. Resolutions of the same target are serialised, so a
// Resolver may be shared by concurrent document builds.
type Resolver struct {
	source  storage.Provider
	public  storage.Provider
	folder  string
	logger  *slog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithMetrics records resolution outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver returns a Resolver reading from source and publishing below
// mediaFolder in public.
func NewResolver(source, public storage.Provider, mediaFolder string, opts ...Option) *Resolver {
	r := &Resolver{
		source: source,
		public: public,
		folder: strings.Trim(mediaFolder, "/"),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// URI returns the public URI a media file is published under.
func (r *Resolver) URI(filename string) string {
	return path.Join("/", r.folder, filename)
}

// Resolve publishes filename and returns its record. A public copy whose
// hash equals the source is left untouched. A missing source returns
// apperr.ErrSourceNotFound.
func (r *Resolver) Resolve(filename string) (Record, error) {
	uri := r.URI(filename)
	target := strings.TrimPrefix(uri, "/")
	v, err, _ := r.group.Do(target, func() (any, error) {
		return r.sync(filename, uri, target)
	})
	if err != nil {
		return Record{}, err
	}
	return v.(Record), nil
}

func (r *Resolver) sync(filename, uri, target string) (Record, error) {
	ok, err := r.source.Exists(filename)
	if err != nil {
		return Record{}, fmt.Errorf("media: resolve %s: %w", filename, err)
	}
	if !ok {
		r.metrics.MediaResolved(metrics.MediaMissing)
		return Record{}, fmt.Errorf("media: resolve %s: %w", filename, apperr.ErrSourceNotFound)
	}
	data, err := r.source.Read(filename)
	if err != nil {
		return Record{}, fmt.Errorf("media: resolve %s: %w", filename, err)
	}

	rec := Record{
		SourcePath: filepath.Join(r.source.Root(), filepath.FromSlash(filename)),
		PublicURI:  uri,
		Hash:       checksum.Sum(data),
	}

	published, err := r.publishedHash(target)
	if err != nil {
		return Record{}, err
	}
	if published == rec.Hash {
		r.logger.Info("media: already synchronized",
			slog.String("uri", uri),
			slog.String("hash", rec.Hash))
		r.metrics.MediaResolved(metrics.MediaSkipped)
		return rec, nil
	}

	if err := r.public.Write(target, data); err != nil {
		return Record{}, fmt.Errorf("media: publish %s: %w", filename, err)
	}
	rec.Copied = true
	r.logger.Info("media: copied",
		slog.String("source", rec.SourcePath),
		slog.String("uri", uri))
	r.metrics.MediaResolved(metrics.MediaCopied)
	return rec, nil
}

// publishedHash returns the hash of the public copy, or "" when absent.
func (r *Resolver) publishedHash(target string) (string, error) {
	ok, err := r.public.Exists(target)
	if err != nil || !ok {
		return "", err
	}
	rc, err := r.public.Open(target)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return checksum.SumReader(rc)
}

// ResolveWikilink resolves the first ![[file]] embed found in s.
func (r *Resolver) ResolveWikilink(s string) (Record, error) {
	for i := strings.Index(s, "![["); i >= 0; {
		if node, _, ok := extension.ScanWikiLink([]byte(s[i:])); ok {
			file, _, _ := strings.Cut(node.Target, "#")
			return r.Resolve(file)
		}
		next := strings.Index(s[i+1:], "![[")
		if next < 0 {
			break
		}
		i += next + 1
	}
	return Record{}, fmt.Errorf("media: no embed in %q: %w", s, apperr.ErrNotFound)
}

// DisplaySize returns the size an image published at uri is shown at:
// its probed size fitted to maxWidth, or the default size when the file
// cannot be decoded.
func (r *Resolver) DisplaySize(uri string, maxWidth int) (int, int) {
	rc, err := r.public.Open(strings.TrimPrefix(uri, "/"))
	if err != nil {
		r.logger.Debug("media: open for probe failed", slog.String("uri", uri), slog.String("error", err.Error()))
		return DefaultWidth, DefaultHeight
	}
	defer rc.Close()
	w, h, err := Probe(rc)
	if err != nil {
		r.logger.Debug("media: probe failed", slog.String("uri", uri), slog.String("error", err.Error()))
		return DefaultWidth, DefaultHeight
	}
	return Fit(w, h, maxWidth)
}
