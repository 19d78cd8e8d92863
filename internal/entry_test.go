package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/inkwell/internal/docservice"
	"github.com/starford/inkwell/internal/index"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/media"
	"github.com/starford/inkwell/internal/metrics"
	"github.com/starford/inkwell/internal/site"
	"github.com/starford/inkwell/internal/storage"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.LogLevel = 8 // above error: keep test output quiet
	cfg.Vault.MarkdownRoot = filepath.Join(dir, "content")
	cfg.Vault.PublicRoot = filepath.Join(dir, "public")
	cfg.SQLite.Path = filepath.Join(dir, "index.db")
	return cfg
}

func TestRun_BuildMode(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Vault.MarkdownRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Vault.MarkdownRoot, "Home.md"), []byte("---\npermalink: /\n---\n# Home\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Run(context.Background(), WithConfig(cfg), WithMode(ModeBuild)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Vault.PublicRoot, "index.html"))
	if err != nil {
		t.Fatalf("home page not built: %v", err)
	}
	if !strings.Contains(string(data), "<title>Home</title>") {
		t.Errorf("page = %s", data)
	}
	if _, err := os.Stat(filepath.Join(cfg.Vault.PublicRoot, site.CodeCSSPath)); err != nil {
		t.Errorf("stylesheet not built: %v", err)
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Error("Run without config should fail")
	}
}

func TestRun_UnknownMode(t *testing.T) {
	err := Run(context.Background(), WithConfig(testConfig(t)), WithMode("deploy"))
	if err == nil || !strings.Contains(err.Error(), "unknown mode") {
		t.Errorf("err = %v, want unknown mode", err)
	}
}

func TestNewRouter(t *testing.T) {
	cfg := testConfig(t)
	source, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	public, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = source.Write("a.md", []byte("alpha"))
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	p := markdown.NewParser()
	m := metrics.New()
	b := site.New(source, public, db, media.NewResolver(source, public, "media"), site.Config{},
		site.WithParser(p), site.WithMetrics(m))
	svc := docservice.NewService(source, db, p, b)
	if _, err := svc.BuildAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	h := newRouter(cfg, svc, nil, m, public)

	tests := []struct {
		target string
		want   string
	}{
		{"/health/live", `"ok"`},
		{"/health/ready", `"ok"`},
		{"/metrics", "inkwell_documents_built_total 1"},
		{"/api/documents", `"key":"a"`},
		{"/a/", "alpha"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", tt.target, w.Code)
			continue
		}
		if !strings.Contains(w.Body.String(), tt.want) {
			t.Errorf("GET %s body missing %q: %s", tt.target, tt.want, w.Body.String())
		}
	}
}
