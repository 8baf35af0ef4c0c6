package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the catalog has no record for an ISBN
var ErrNotFound = errors.New("isbn not found in catalog")

// Lookuper is the remote catalog boundary
type Lookuper interface {
	Lookup(ctx context.Context, isbn string) ([]byte, error)
}

// Credentials authenticate against the catalog. An API key takes precedence
// over username and password.
type Credentials struct {
	APIKey   string `json:"api_key,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ClientConfig configures the remote catalog client
type ClientConfig struct {
	BaseURL           string
	Credentials       Credentials
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
}

// Client represents the remote catalog API client
type Client struct {
	BaseURL     string
	credentials Credentials
	userAgent   string
	limiter     *rate.Limiter
	httpClient  *http.Client
}

// NewClient creates a new catalog client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		BaseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		credentials: cfg.Credentials,
		userAgent:   cfg.UserAgent,
		limiter:     limiter,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup fetches the raw product payload for one ISBN
func (c *Client) Lookup(ctx context.Context, isbn string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	productURL := fmt.Sprintf("%s/products/%s", c.BaseURL, url.PathEscape(isbn))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, productURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	switch {
	case c.credentials.APIKey != "":
		req.Header.Set("Authorization", "Bearer "+c.credentials.APIKey)
	case c.credentials.Username != "":
		req.SetBasicAuth(c.credentials.Username, c.credentials.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog response: %w", err)
	}

	return payload, nil
}
