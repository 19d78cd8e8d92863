package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inkwell/internal/transform"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	Render RenderConfig      `yaml:"render"`
	Build  BuildConfig       `yaml:"build"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if err := c.Build.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig locates the markdown root, the public root and the public
// media folder.
type VaultConfig struct {
	MarkdownRoot string `yaml:"markdown_root"`
	PublicRoot   string `yaml:"public_root"`
	MediaFolder  string `yaml:"media_folder"`
	// UploadFolder is where media uploaded through the API is stored,
	// relative to the markdown root.
	UploadFolder string `yaml:"upload_folder"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MarkdownRoot, validation.Required),
		validation.Field(&c.PublicRoot, validation.Required),
		validation.Field(&c.MediaFolder, validation.Required),
		validation.Field(&c.UploadFolder, validation.Required),
	); err != nil {
		return err
	}
	if c.MarkdownRoot == c.PublicRoot {
		return fmt.Errorf("vault: markdown_root and public_root must differ")
	}
	return nil
}

// RenderConfig holds transform and HTML output settings.
type RenderConfig struct {
	ImageMaxWidth int    `yaml:"image_max_width"`
	LinkForm      string `yaml:"link_form"`
	CodeStyle     string `yaml:"code_style"`
	// CodeClasses emits CSS classes for highlighted code instead of inline
	// styles. Forced on when Sanitize is set.
	CodeClasses bool `yaml:"code_classes"`
	Sanitize    bool `yaml:"sanitize"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ImageMaxWidth, validation.Min(0)),
		validation.Field(&c.LinkForm, validation.Required,
			validation.In(string(transform.LinkFormAnchor), string(transform.LinkFormComponent))),
	)
}

// BuildConfig holds site build settings.
type BuildConfig struct {
	Workers int `yaml:"workers"`
	// LiveReload adds the reload script to pages built by watch and serve.
	LiveReload bool `yaml:"live_reload"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			MarkdownRoot: "./content",
			PublicRoot:   "./public",
			MediaFolder:  "media",
			UploadFolder: "attachments",
		},
		Render: RenderConfig{
			ImageMaxWidth: 800,
			LinkForm:      string(transform.LinkFormAnchor),
			CodeStyle:     "github",
		},
		Build: BuildConfig{
			Workers: 4,
		},
		SQLite: SQLiteConfig{
			Path: "./inkwell.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
