package index

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/starford/inkwell/internal/apperr"
	"github.com/starford/inkwell/internal/markdown"
	"github.com/starford/inkwell/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Key:       "notes/hello",
		Path:      "notes/hello.md",
		URL:       "/notes/hello",
		Title:     "Hello World",
		Checksum:  "abc123",
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.UpsertDocument(row, []Link{{Target: "other"}}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("notes/hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
	got, err := db.GetDocument("notes/hello")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "Hello World" || got.URL != "/notes/hello" {
		t.Errorf("document = %+v", got)
	}
	byURL, err := db.DocumentByURL("/notes/hello")
	if err != nil || byURL.Key != "notes/hello" {
		t.Errorf("DocumentByURL = %+v, %v", byURL, err)
	}
	if url, ok := db.Lookup("notes/hello"); !ok || url != "/notes/hello" {
		t.Errorf("Lookup = %q, %v", url, ok)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDocument("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := db.DocumentByURL(""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, ok := db.Lookup("nope"); ok {
		t.Error("Lookup hit for missing key")
	}
}

func TestBacklinksAndEmbedders(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{Key: "a", Path: "a.md", UpdatedAt: now}, []Link{{Target: "b"}})
	_ = db.UpsertDocument(DocumentRow{Key: "c", Path: "c.md", UpdatedAt: now}, []Link{{Target: "b", Embed: true}})

	bl, err := db.Backlinks("b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if !reflect.DeepEqual(bl, []string{"a"}) {
		t.Errorf("backlinks = %v, want [a]", bl)
	}
	em, err := db.Embedders("b")
	if err != nil {
		t.Fatalf("Embedders: %v", err)
	}
	if !reflect.DeepEqual(em, []string{"c"}) {
		t.Errorf("embedders = %v, want [c]", em)
	}
}

func TestAffected(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	// d links to a; b embeds a; c embeds b; e embeds d; f is unrelated.
	_ = db.UpsertDocument(DocumentRow{Key: "a", Path: "a.md", UpdatedAt: now}, nil)
	_ = db.UpsertDocument(DocumentRow{Key: "b", Path: "b.md", UpdatedAt: now}, []Link{{Target: "a", Embed: true}})
	_ = db.UpsertDocument(DocumentRow{Key: "c", Path: "c.md", UpdatedAt: now}, []Link{{Target: "b", Embed: true}})
	_ = db.UpsertDocument(DocumentRow{Key: "d", Path: "d.md", UpdatedAt: now}, []Link{{Target: "a"}})
	_ = db.UpsertDocument(DocumentRow{Key: "e", Path: "e.md", UpdatedAt: now}, []Link{{Target: "d", Embed: true}})
	_ = db.UpsertDocument(DocumentRow{Key: "f", Path: "f.md", UpdatedAt: now}, []Link{{Target: "c"}})

	got, err := db.Affected("a")
	if err != nil {
		t.Fatalf("Affected: %v", err)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("affected = %v, want %v", got, want)
	}
}

func TestAffectedStopsOnCycle(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{Key: "x", Path: "x.md", UpdatedAt: now}, []Link{{Target: "y", Embed: true}})
	_ = db.UpsertDocument(DocumentRow{Key: "y", Path: "y.md", UpdatedAt: now}, []Link{{Target: "x", Embed: true}})

	got, err := db.Affected("x")
	if err != nil {
		t.Fatalf("Affected: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("affected = %v", got)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Key: "del", Path: "del.md", Checksum: "x", UpdatedAt: time.Now()}, []Link{{Target: "target"}})

	if err := db.DeleteDocument("del"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{Key: "up", Path: "up.md", Title: "Old", Checksum: "1", UpdatedAt: now}, []Link{{Target: "x"}})
	_ = db.UpsertDocument(DocumentRow{Key: "up", Path: "up.md", Title: "New", Checksum: "2", UpdatedAt: now}, []Link{{Target: "y"}})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func syncEnv(t *testing.T, files map[string]string) (string, *storage.FS, *DB) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store, testDB(t)
}

func TestSync(t *testing.T) {
	root, store, db := syncEnv(t, map[string]string{
		"Home.md":           "# Welcome\n\nSee [[notes/My Note#Part]] and ![[notes/part]] ![[pic.png]] [[https://go.dev]] [[#local]].\n",
		"notes/My Note.md":  "no title here\n",
		"notes/part.md":     "---\npermalink: custom/part\ntitle: The Part\n---\nbody\n",
		"notes/clash.md":    "---\npermalink: /custom/part\n---\nclash\n",
		"notes/.hidden.md":  "hidden",
		"notes/ignored.txt": "text",
	})
	p := markdown.NewParser()

	changed, err := Sync(db, store, p, discard())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(changed) != 4 {
		t.Errorf("changed = %v, want 4 keys", changed)
	}

	perma, err := db.Permalinks()
	if err != nil {
		t.Fatalf("Permalinks: %v", err)
	}
	want := map[string]string{
		"Home":          "/home",
		"notes/My Note": "/notes/my-note",
		"notes/clash":   "/custom/part",
	}
	for k, v := range want {
		if perma[k] != v {
			t.Errorf("permalink %q = %q, want %q", k, perma[k], v)
		}
	}
	// notes/clash is indexed first and keeps the URL.
	if url, ok := perma["notes/part"]; ok {
		t.Errorf("notes/part permalink = %q, want none", url)
	}
	part, _ := db.GetDocument("notes/part")
	if part.Title != "The Part" {
		t.Errorf("front matter title = %q", part.Title)
	}

	home, _ := db.GetDocument("Home")
	if home.Title != "Welcome" {
		t.Errorf("title = %q, want %q", home.Title, "Welcome")
	}
	note, _ := db.GetDocument("notes/My Note")
	if note.Title != "My Note" {
		t.Errorf("fallback title = %q, want %q", note.Title, "My Note")
	}

	bl, _ := db.Backlinks("notes/My Note")
	if !reflect.DeepEqual(bl, []string{"Home"}) {
		t.Errorf("backlinks = %v", bl)
	}
	em, _ := db.Embedders("pic.png")
	if !reflect.DeepEqual(em, []string{"Home"}) {
		t.Errorf("media embedders = %v", em)
	}

	// A second sync with no changes indexes nothing.
	changed, _ = Sync(db, store, p, discard())
	if len(changed) != 0 {
		t.Errorf("resync changed = %v", changed)
	}

	_ = os.Remove(filepath.Join(root, "notes", "My Note.md"))
	changed, _ = Sync(db, store, p, discard())
	if !reflect.DeepEqual(changed, []string{"notes/My Note"}) {
		t.Errorf("changed after delete = %v", changed)
	}
	if _, err := db.GetDocument("notes/My Note"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("stale document kept: %v", err)
	}
}

func TestPermalink(t *testing.T) {
	p := markdown.NewParser()
	tests := []struct {
		src, key, want string
	}{
		{"body", "Some Dir/A Note", "/some-dir/a-note"},
		{"---\npermalink: about\n---\n", "x", "/about"},
		{"---\npermalink: /a/b/\n---\n", "x", "/a/b/"},
		{"---\npermalink: 3\n---\n", "Y", "/y"},
	}
	for _, tt := range tests {
		doc, err := p.Parse([]byte(tt.src))
		if err != nil {
			t.Fatal(err)
		}
		if got := Permalink(doc, tt.key); got != tt.want {
			t.Errorf("Permalink(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}
