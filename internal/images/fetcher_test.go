package images

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

var jpeg = append([]byte{0xff, 0xd8, 0xff}, bytes.Repeat([]byte{0x42}, 4096)...)

func newDownloader(server *httptest.Server) *Downloader {
	d := NewDownloader(server.URL, 0)
	d.Sources = d.Sources[:1] // never reach out to Open Library in tests
	return d
}

func TestDownloadCoverFallsBackToCatalog(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/broken.jpg":
			w.WriteHeader(http.StatusNotFound)
		case "/covers/9780000000001":
			w.Write(jpeg)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	d := newDownloader(server)

	err := d.DownloadCover(context.Background(), "9780000000001", server.URL+"/broken.jpg", "der-grueffelo", dir)
	if err != nil {
		t.Fatalf("DownloadCover failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "der-grueffelo.jpg"))
	if err != nil {
		t.Fatalf("Expected cover file: %v", err)
	}
	if !bytes.Equal(data, jpeg) {
		t.Error("Cover content mismatch")
	}

	// an existing cover is not downloaded again
	before := requests.Load()
	if err := d.DownloadCover(context.Background(), "9780000000001", "", "der-grueffelo", dir); err != nil {
		t.Fatalf("Second DownloadCover failed: %v", err)
	}
	if requests.Load() != before {
		t.Error("Expected no request for an existing cover")
	}
}

func TestDownloadCoverRejectsPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("GIF89a"))
	}))
	defer server.Close()

	dir := t.TempDir()
	err := newDownloader(server).DownloadCover(context.Background(), "9780000000002", "", "momo", dir)

	var downloadErr *DownloadError
	if !errors.As(err, &downloadErr) {
		t.Fatalf("Expected DownloadError, got %v", err)
	}
	if downloadErr.ISBN != "9780000000002" {
		t.Errorf("Unexpected ISBN %q", downloadErr.ISBN)
	}
	if !errors.Is(err, ErrPlaceholder) {
		t.Errorf("Expected placeholder error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "momo.jpg")); !os.IsNotExist(err) {
		t.Error("Placeholder must not be written")
	}
}

func TestDownloadCoverEmptySlug(t *testing.T) {
	err := NewDownloader("", 0).DownloadCover(context.Background(), "1", "", "", t.TempDir())
	var downloadErr *DownloadError
	if !errors.As(err, &downloadErr) {
		t.Fatalf("Expected DownloadError, got %v", err)
	}
}
