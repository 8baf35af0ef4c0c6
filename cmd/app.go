package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/lehigh-university-libraries/booklist/internal/catalog"
	"github.com/lehigh-university-libraries/booklist/internal/config"
	"github.com/lehigh-university-libraries/booklist/internal/images"
	"github.com/lehigh-university-libraries/booklist/internal/issue"
	"github.com/lehigh-university-libraries/booklist/internal/overrides"
	"github.com/lehigh-university-libraries/booklist/internal/pipeline"
	"github.com/lehigh-university-libraries/booklist/internal/store"
)

// session bundles what fetch and process share: the locked issue, its cache
// and the catalog service on top of it
type session struct {
	layout  issue.Layout
	cache   store.Cache
	service *catalog.Service
	runner  *pipeline.Runner
	unlock  func()
}

func (o *rootOptions) openCache(layout issue.Layout) (store.Cache, error) {
	cache, err := store.Open(o.cfg.Cache.Backend, layout.CacheDir(), store.Options{MaxAge: o.cfg.MaxAge()})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache, nil
}

// openSession locks the issue and wires the pipeline. Close must be called.
func (o *rootOptions) openSession(concurrency int) (*session, error) {
	if o.cfg.Catalog.BaseURL == "" {
		return nil, fmt.Errorf("catalog.base_url is required. Set %s or edit %s", config.EnvCatalogURL, o.configPath)
	}

	layout, err := o.existingLayout()
	if err != nil {
		return nil, err
	}

	// broken override files stop the run before anything is written
	ov, err := overrides.Load(layout.ConfigDir())
	if err != nil {
		return nil, err
	}

	unlock, err := layout.Lock()
	if err != nil {
		return nil, err
	}

	cache, err := o.openCache(layout)
	if err != nil {
		unlock()
		return nil, err
	}

	service := catalog.NewService(o.catalogClient(), cache)

	runner := pipeline.New(layout, ov, service)
	runner.Concurrency = o.cfg.Pipeline.Concurrency
	if concurrency > 0 {
		runner.Concurrency = concurrency
	}
	runner.Headings = o.headings(layout)
	if o.cfg.Pipeline.DownloadCovers {
		runner.Covers = images.NewDownloader(o.cfg.Catalog.BaseURL, o.cfg.Catalog.RequestsPerSecond)
	}

	return &session{
		layout:  layout,
		cache:   cache,
		service: service,
		runner:  runner,
		unlock:  unlock,
	}, nil
}

func (o *rootOptions) catalogClient() *catalog.Client {
	return catalog.NewClient(catalog.ClientConfig{
		BaseURL: o.cfg.Catalog.BaseURL,
		Credentials: catalog.Credentials{
			APIKey:   o.cfg.Catalog.APIKey,
			Username: o.cfg.Catalog.Username,
			Password: o.cfg.Catalog.Password,
		},
		Timeout:           o.cfg.Timeout(),
		RequestsPerSecond: o.cfg.Catalog.RequestsPerSecond,
		UserAgent:         o.cfg.Catalog.UserAgent,
	})
}

func (s *session) Close() error {
	err := s.cache.Close()
	s.unlock()
	return err
}

func (o *rootOptions) headings(layout issue.Layout) map[string]string {
	year, _ := strconv.Atoi(layout.Year())
	headings := make(map[string]string, len(o.cfg.Categories))
	for _, category := range o.cfg.Categories {
		headings[category.Name] = category.HeadingFor(year)
	}
	return headings
}

// categories returns args when given, otherwise every category with a
// source file in configured document order
func (o *rootOptions) categories(layout issue.Layout, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	categories := layout.Categories(o.cfg.CategoryNames(string(layout.Season())))
	if len(categories) == 0 {
		return nil, errors.New("no category source files found in " + layout.SrcDir())
	}
	return categories, nil
}
