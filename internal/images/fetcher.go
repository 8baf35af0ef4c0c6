package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/booklist/internal/fsutil"
	"golang.org/x/time/rate"
)

// OpenLibraryCovers is the public cover service used as the last fallback
const OpenLibraryCovers = "https://covers.openlibrary.org/b/isbn/{isbn}-L.jpg?default=false"

// MinCoverSize is the smallest body accepted as a cover; smaller bodies are
// placeholder images
const MinCoverSize = 1000

// ErrPlaceholder is returned when a source only has a placeholder image
var ErrPlaceholder = errors.New("cover image too small (likely placeholder)")

// DownloadError reports a failed cover download for one ISBN. It never aborts a batch.
type DownloadError struct {
	ISBN string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("cover %s: %v", e.ISBN, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Downloader retrieves cover images
type Downloader struct {
	HTTPClient *http.Client
	// Sources are URL templates tried in order after the record's own cover
	// URL; "{isbn}" is replaced by the ISBN
	Sources []string
	limiter *rate.Limiter
}

// NewDownloader creates a downloader trying the catalog's cover endpoint
// first and Open Library second. requestsPerSecond <= 0 disables throttling.
func NewDownloader(catalogBaseURL string, requestsPerSecond float64) *Downloader {
	var sources []string
	if catalogBaseURL != "" {
		sources = append(sources, strings.TrimRight(catalogBaseURL, "/")+"/covers/{isbn}")
	}
	sources = append(sources, OpenLibraryCovers)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &Downloader{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Sources: sources,
		limiter: limiter,
	}
}

// CoverFileName is the file a cover is stored under
func CoverFileName(slug string) string {
	return slug + ".jpg"
}

// DownloadCover stores the cover of isbn as <dir>/<slug>.jpg. Existing files
// are kept. Every error is a *DownloadError.
func (d *Downloader) DownloadCover(ctx context.Context, isbn, coverURL, slug, dir string) error {
	if slug == "" {
		return &DownloadError{ISBN: isbn, Err: errors.New("empty file name")}
	}

	outputPath := filepath.Join(dir, CoverFileName(slug))
	if _, err := os.Stat(outputPath); err == nil {
		slog.Debug("Cover already present", "isbn", isbn, "path", outputPath)
		return nil
	}

	var urls []string
	if coverURL != "" {
		urls = append(urls, coverURL)
	}
	for _, source := range d.Sources {
		urls = append(urls, strings.ReplaceAll(source, "{isbn}", isbn))
	}
	if len(urls) == 0 {
		return &DownloadError{ISBN: isbn, Err: errors.New("no cover source configured")}
	}

	var errs []error
	for _, url := range urls {
		imageData, err := d.download(ctx, url)
		if err != nil {
			slog.Debug("Cover source failed", "isbn", isbn, "url", url, "error", err)
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if err := fsutil.WriteFile(outputPath, imageData, 0o644); err != nil {
			return &DownloadError{ISBN: isbn, Err: err}
		}

		slog.Debug("Downloaded cover image", "isbn", isbn, "path", outputPath)
		return nil
	}

	return &DownloadError{ISBN: isbn, Err: errors.Join(errs...)}
}

// download fetches one image and rejects placeholder bodies
func (d *Downloader) download(ctx context.Context, url string) ([]byte, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover source returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cover data: %w", err)
	}

	if len(imageData) < MinCoverSize {
		return nil, ErrPlaceholder
	}

	return imageData, nil
}
