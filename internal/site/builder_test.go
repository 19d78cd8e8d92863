package site

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/media"
	"github.com/starford/inkwell/internal/metrics"
	"github.com/starford/inkwell/internal/storage"
)

type testSite struct {
	source *storage.FS
	public *storage.FS
	db     *index.DB
	b      *Builder
}

func newTestSite(t *testing.T, files map[string]string) *testSite {
	t.Helper()
	source, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	public, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := source.Write(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	p := markdown.NewParser()
	if _, err := index.Sync(db, source, p, discard()); err != nil {
		t.Fatal(err)
	}
	res := media.NewResolver(source, public, "media")
	b := New(source, public, db, res, Config{ImageMaxWidth: 400, Workers: 2},
		WithParser(p), WithMetrics(metrics.New()))
	return &testSite{source: source, public: public, db: db, b: b}
}

func (s *testSite) page(t *testing.T, out string) string {
	t.Helper()
	data, err := s.public.Read(out)
	if err != nil {
		t.Fatalf("read %s: %v", out, err)
	}
	return string(data)
}

func TestOutputPath(t *testing.T) {
	tests := map[string]string{
		"/":             "index.html",
		"":              "index.html",
		"/notes/a":      "notes/a/index.html",
		"/notes/a/":     "notes/a/index.html",
		"/../../escape": "escape/index.html",
	}
	for in, want := range tests {
		if got := OutputPath(in); got != want {
			t.Errorf("OutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildAll(t *testing.T) {
	s := newTestSite(t, map[string]string{
		"Home.md":       "# Home\n\nGo to [[Guide]] and ==see== this.\n\n![[pic.png|Sky]]\n",
		"Guide.md":      "---\ntitle: The Guide\npermalink: /guide/\n---\n## Intro\n\n![[Home#Home]]\n",
		"pic.png":       "not really a png",
		"notes/Deep.md": "deep",
	})

	report, err := s.b.BuildAll(context.Background())
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(report.Built) != 3 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if report.Built[0].Key != "Guide" || report.Built[0].Output != "guide/index.html" {
		t.Errorf("first result = %+v", report.Built[0])
	}

	home := s.page(t, "home/index.html")
	for _, want := range []string{
		"<title>Home</title>",
		`<a href="/guide/" target="_self">Guide</a>`,
		"<mark>see</mark>",
		`src="/media/pic.png"`,
		"<figcaption>Sky</figcaption>",
	} {
		if !strings.Contains(home, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if ok, _ := s.public.Exists("media/pic.png"); !ok {
		t.Error("media not published")
	}

	guide := s.page(t, "guide/index.html")
	if !strings.Contains(guide, "<title>The Guide</title>") || !strings.Contains(guide, `class="ref"`) {
		t.Errorf("guide page = %s", guide)
	}
	if ok, _ := s.public.Exists(CodeCSSPath); !ok {
		t.Error("stylesheet not written")
	}
	if ok, _ := s.public.Exists("notes/deep/index.html"); !ok {
		t.Error("nested document not built")
	}
}

func TestRebuildAndRemove(t *testing.T) {
	s := newTestSite(t, map[string]string{
		"a.md": "alpha",
		"b.md": "beta",
	})
	if _, err := s.b.BuildAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	_ = s.source.Write("a.md", []byte("alpha two"))
	if _, err := index.Sync(s.db, s.source, markdown.NewParser(), discard()); err != nil {
		t.Fatal(err)
	}
	report, err := s.b.Rebuild(context.Background(), []string{"a", "missing"})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if len(report.Built) != 1 || report.Built[0].Key != "a" {
		t.Errorf("report = %+v", report)
	}
	if !strings.Contains(s.page(t, "a/index.html"), "alpha two") {
		t.Error("page not rebuilt")
	}

	if err := s.b.Remove("b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := s.public.Exists("b/index.html"); ok {
		t.Error("removed page still published")
	}
	if err := s.b.Remove("never-built"); err != nil {
		t.Errorf("Remove unknown = %v", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	s := newTestSite(t, map[string]string{"a.md": "alpha", "b.md": "beta"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.b.BuildAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestLiveReloadScript(t *testing.T) {
	s := newTestSite(t, map[string]string{"a.md": "alpha"})
	s.b.cfg.LiveReload = true
	if _, err := s.b.BuildAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	page := s.page(t, "a/index.html")
	if !strings.Contains(page, "EventSource") || !strings.Contains(page, `"site.updated"`) {
		t.Error("reload script missing")
	}
}

func TestPreview(t *testing.T) {
	s := newTestSite(t, map[string]string{"a.md": "==alpha=="})
	body, err := s.b.Preview("a")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !strings.Contains(string(body), "<mark>alpha</mark>") {
		t.Errorf("body = %s", body)
	}
	if ok, _ := s.public.Exists("a/index.html"); ok {
		t.Error("preview wrote a page")
	}
	if _, err := s.b.Preview("missing"); err == nil {
		t.Error("preview of missing document succeeded")
	}
}
