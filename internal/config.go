package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/search"
	"github.com/starford/folio/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Site    SiteConfig        `yaml:"site"`
	Storage storage.Config    `yaml:"storage"`
	Index   IndexConfig       `yaml:"index"`
	Auth    AuthConfig        `yaml:"auth"`
	Search  SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search: %w", err)
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
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// SiteConfig wraps the locale settings shared with the content layer.
type SiteConfig struct {
	models.SiteConfig `yaml:",inline"`
}

// Validate checks that every locale has a code and that the default locale is
// one of them.
func (c *SiteConfig) Validate() error {
	codes := make([]any, 0, len(c.Locales))
	for i := range c.Locales {
		l := &c.Locales[i]
		if err := validation.ValidateStruct(l,
			validation.Field(&l.Code, validation.Required),
		); err != nil {
			return fmt.Errorf("locales[%d]: %w", i, err)
		}
		codes = append(codes, l.Code)
	}
	return validation.ValidateStruct(&c.SiteConfig,
		validation.Field(&c.DefaultLocale, validation.Required, validation.In(codes...)),
	)
}

// IndexConfig controls the SQLite content index.
//
// When Enabled is false, search scans storage directly. Watch only applies to
// the local backend: remote writes never touch the local tree.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	Watch   bool   `yaml:"watch"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// SearchConfig holds search tuning.
type SearchConfig struct {
	MaxResults int `yaml:"max_results"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxResults, validation.Min(0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how writes are protected:
//   - "disabled" (default): every request may write, suitable for local dev.
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
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		Site: SiteConfig{models.SiteConfig{
			DefaultLocale: "en",
			Locales: []models.Locale{
				{Code: "en", Name: "English", Enabled: true},
			},
		}},
		Storage: storage.Config{
			Backend: storage.BackendLocal,
			Local:   storage.LocalConfig{Root: "./data"},
			Remote:  storage.RemoteConfig{Timeout: 5 * time.Second},
		},
		Index: IndexConfig{
			Enabled: true,
			Path:    "./folio.db",
			Watch:   true,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Search: SearchConfig{
			MaxResults: search.DefaultLimit,
		},
	}
}
