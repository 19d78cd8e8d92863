package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgconfig "github.com/starford/inkwell/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestVaultConfig_SameRoots(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.PublicRoot = cfg.Vault.MarkdownRoot
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Errorf("err = %v, want roots-must-differ error", err)
	}
}

func TestVaultConfig_MediaFolderRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Vault.MediaFolder = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty media folder should fail validation")
	}
}

func TestRenderConfig_LinkForm(t *testing.T) {
	for _, form := range []string{"anchor", "component"} {
		cfg := RenderConfig{LinkForm: form}
		if err := cfg.Validate(); err != nil {
			t.Errorf("link form %q: %v", form, err)
		}
	}
	cfg := RenderConfig{LinkForm: "button"}
	if err := cfg.Validate(); err == nil {
		t.Error("unknown link form should fail validation")
	}
}

func TestRenderConfig_NegativeWidth(t *testing.T) {
	cfg := RenderConfig{LinkForm: "anchor", ImageMaxWidth: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("negative image width should fail validation")
	}
}

func TestBuildConfig_Workers(t *testing.T) {
	cfg := BuildConfig{Workers: 1000}
	if err := cfg.Validate(); err == nil {
		t.Error("too many workers should fail validation")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	t.Setenv("INKWELL_TEST_TOKEN", "s3cret")
	data := `
app:
  log_level: debug
  http:
    port: 9000
vault:
  markdown_root: ./notes
  public_root: ./site
  media_folder: assets
  upload_folder: uploads
render:
  image_max_width: 640
  link_form: component
  sanitize: true
sqlite:
  path: ./x.db
auth:
  mode: token
  token: ${INKWELL_TEST_TOKEN}
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(file, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9000 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Vault.MediaFolder != "assets" || cfg.Render.LinkForm != "component" || !cfg.Render.Sanitize {
		t.Errorf("vault = %+v, render = %+v", cfg.Vault, cfg.Render)
	}
	if cfg.Render.CodeStyle != "github" || cfg.Build.Workers != 4 {
		t.Errorf("defaults lost: render = %+v, build = %+v", cfg.Render, cfg.Build)
	}
	if cfg.Auth.Token != "s3cret" {
		t.Errorf("token = %q, want expanded env value", cfg.Auth.Token)
	}
}
