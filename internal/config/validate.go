package config

import (
	"fmt"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var categoryName = regexp.MustCompile(`^[a-z0-9_-]+$`)

func init() {
	// report the keys operators write in booklist.toml
	validation.ErrorTag = "toml"
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Paths),
		validation.Field(&c.Catalog),
		validation.Field(&c.Cache),
		validation.Field(&c.Pipeline),
		validation.Field(&c.Logging),
		validation.Field(&c.Categories, validation.Required.Error("at least one category is required")),
	)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Categories))
	for _, category := range c.Categories {
		if seen[category.Name] {
			return fmt.Errorf("invalid config: duplicate category %q", category.Name)
		}
		seen[category.Name] = true
	}

	return nil
}

func (p Paths) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.IssuesDir, validation.Required),
	)
}

func (c Catalog) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, is.URL),
		validation.Field(&c.TimeoutSeconds, validation.Min(1)),
		validation.Field(&c.RequestsPerSecond, validation.Min(0.0)),
	)
}

func (c Cache) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.In("file", "sqlite", "memory")),
		validation.Field(&c.MaxAge, validation.By(func(value any) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("must be a duration such as 720h")
			}
			if d < 0 {
				return fmt.Errorf("must not be negative")
			}
			return nil
		})),
	)
}

func (p Pipeline) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Concurrency, validation.Min(1), validation.Max(64)),
	)
}

func (l Logging) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Format, validation.In("text", "json", "auto")),
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Match(categoryName)),
		validation.Field(&c.Season, validation.In("spring", "autumn")),
	)
}
