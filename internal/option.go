package internal

// Run modes.
const (
	// ModeBuild syncs the index, builds the site once and exits.
	ModeBuild = "build"
	// ModeWatch builds the site and rebuilds affected pages on change.
	ModeWatch = "watch"
	// ModeServe watches and also serves the public root and the API.
	ModeServe = "serve"
	// ModeMCP watches and exposes the document tools over MCP on stdio.
	ModeMCP = "mcp"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode. The default is ModeBuild.
func WithMode(mode string) Option {
	return func(a *application) {
		a.mode = mode
	}
}
