package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the project-local configuration file
const DefaultPath = "booklist.toml"

// Environment variables that override file settings
const (
	EnvCatalogURL = "BOOKLIST_CATALOG_URL"
	EnvAPIKey     = "BOOKLIST_API_KEY"
	EnvUsername   = "BOOKLIST_USERNAME"
	EnvPassword   = "BOOKLIST_PASSWORD"
	EnvIssuesDir  = "BOOKLIST_ISSUES_DIR"
)

// Paths contains directory configuration.
type Paths struct {
	IssuesDir string `toml:"issues_dir"`
	LoginFile string `toml:"login_file"`
}

// Catalog contains the remote catalog connection.
type Catalog struct {
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	Username          string  `toml:"username"`
	Password          string  `toml:"password"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	UserAgent         string  `toml:"user_agent"`
}

// Cache contains the lookup cache settings.
type Cache struct {
	Backend string `toml:"backend"` // file, sqlite or memory
	MaxAge  string `toml:"max_age"` // Go duration, "0" keeps entries forever
}

// Pipeline contains processing settings.
type Pipeline struct {
	Concurrency    int  `toml:"concurrency"`
	DownloadCovers bool `toml:"download_covers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"` // text, json or auto
	Level  string `toml:"level"`
}

// Category is one section of the printed catalogue.
type Category struct {
	Name    string `toml:"name"`
	Heading string `toml:"heading"`
	Page    int    `toml:"page"`
	// Season limits the section to spring or autumn issues; empty means both
	Season string `toml:"season,omitempty"`
}

// Config encapsulates all configuration values for booklist.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Catalog    Catalog    `toml:"catalog"`
	Cache      Cache      `toml:"cache"`
	Pipeline   Pipeline   `toml:"pipeline"`
	Logging    Logging    `toml:"logging"`
	Categories []Category `toml:"categories"`
}

// Load parses the configuration file at path on top of the defaults, then
// applies login file and environment overrides. A missing file is only an
// error when required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
		slog.Debug("No config file, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		// categories given in the file replace the default structure
		var fileCategories struct {
			Categories []Category `toml:"categories"`
		}
		if err := toml.Unmarshal(data, &fileCategories); err == nil && len(fileCategories.Categories) > 0 {
			cfg.Categories = fileCategories.Categories
		}
		slog.Debug("Loaded config file", "path", path)
	}

	if err := cfg.loadLogin(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadLogin fills catalog credentials from the login file when the config
// carries none
func (c *Config) loadLogin() error {
	if c.Paths.LoginFile == "" || c.Catalog.APIKey != "" || c.Catalog.Username != "" {
		return nil
	}

	data, err := os.ReadFile(c.Paths.LoginFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read login file %s: %w", c.Paths.LoginFile, err)
	}

	var login struct {
		APIKey   string `json:"api_key"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(data, &login); err != nil {
		return fmt.Errorf("failed to parse login file %s: %w", c.Paths.LoginFile, err)
	}

	c.Catalog.APIKey = login.APIKey
	c.Catalog.Username = login.Username
	c.Catalog.Password = login.Password
	return nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvCatalogURL, &c.Catalog.BaseURL},
		{EnvAPIKey, &c.Catalog.APIKey},
		{EnvUsername, &c.Catalog.Username},
		{EnvPassword, &c.Catalog.Password},
		{EnvIssuesDir, &c.Paths.IssuesDir},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

// Timeout returns the per-request catalog timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Catalog.TimeoutSeconds) * time.Second
}

// MaxAge returns the parsed cache entry lifetime; zero means forever
func (c *Config) MaxAge() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Cache.MaxAge))
	if err != nil {
		return 0
	}
	return d
}

// CategoryNames returns the configured categories in document order,
// skipping sections that belong to the other season
func (c *Config) CategoryNames(season string) []string {
	names := make([]string, 0, len(c.Categories))
	for _, category := range c.Categories {
		if category.Season != "" && season != "" && category.Season != season {
			continue
		}
		names = append(names, category.Name)
	}
	return names
}

// Category looks up a category by name
func (c *Config) Category(name string) (Category, bool) {
	for _, category := range c.Categories {
		if category.Name == name {
			return category, true
		}
	}
	return Category{}, false
}

// HeadingFor renders a category heading for an issue year; "{next_year}"
// is replaced by the year after it
func (cat Category) HeadingFor(issueYear int) string {
	return strings.ReplaceAll(cat.Heading, "{next_year}", fmt.Sprint(issueYear+1))
}
