package denylist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
)

// DefaultMaxAge is how long a cached list is reused before it is fetched again.
const DefaultMaxAge = 7 * 24 * time.Hour

// maxListSize bounds the size of a downloaded list.
const maxListSize = 64 * 1024 * 1024

// ErrUnexpectedStatus is returned when the list server answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status fetching common-PIN list")

// Fetcher downloads ranked lists into an lz4 cache directory.
type Fetcher struct {
	// client performs the download. It may route through Tor.
	client *http.Client

	// cacheDir holds the lz4 cache files.
	cacheDir string

	// maxAge is how long a cache file stays fresh.
	maxAge time.Duration

	// refresh forces a download even when the cache is fresh.
	refresh bool

	// logger is used for fetch diagnostics.
	logger *slog.Logger

	// now returns the current time.
	now func() time.Time
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxAge sets how long a cached list is reused.
func WithMaxAge(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.maxAge = d
	}
}

// WithRefresh forces a download even when the cache is fresh.
func WithRefresh(refresh bool) FetcherOption {
	return func(f *Fetcher) {
		f.refresh = refresh
	}
}

// WithFetchLogger sets a custom logger.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher caching lists under cacheDir.
func NewFetcher(cacheDir string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		cacheDir: cacheDir,
		maxAge:   DefaultMaxAge,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// CachePath returns the cache file used for lists of the given length.
func (f *Fetcher) CachePath(length int) string {
	return filepath.Join(f.cacheDir, fmt.Sprintf("common_pins_%d.txt.lz4", length))
}

// Fresh reports whether the cached list for length can be used without a
// download.
func (f *Fetcher) Fresh(length int) bool {
	if f.refresh {
		return false
	}
	info, err := os.Stat(f.CachePath(length))
	return err == nil && f.now().Sub(info.ModTime()) < f.maxAge
}

// Fetch returns the cached list for length, downloading it from url when the
// cache is missing, stale or a refresh was requested.
func (f *Fetcher) Fetch(ctx context.Context, length int, url string) (CachedResource, error) {
	path := f.CachePath(length)

	if f.Fresh(length) {
		f.logger.Debug("using cached common-PIN list", "path", path, "length", length)
		return CachedResource{Path: path}, nil
	}

	if err := os.MkdirAll(f.cacheDir, 0750); err != nil {
		return CachedResource{}, fmt.Errorf("failed to create cache directory: %w", err)
	}

	f.logger.Info("downloading common-PIN list", "url", url, "length", length)
	if err := f.download(ctx, url, path); err != nil {
		return CachedResource{}, err
	}
	return CachedResource{Path: path}, nil
}

// download streams url into an lz4 frame at path, replacing it atomically.
func (f *Fetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download common-PIN list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	tmp, err := os.CreateTemp(f.cacheDir, ".common_pins_*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // Already renamed on success

	zw := lz4.NewWriter(tmp)
	if _, err := io.Copy(zw, io.LimitReader(resp.Body, maxListSize)); err != nil {
		_ = tmp.Close() //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("failed to store common-PIN list: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close() //nolint:errcheck // Best effort cleanup
		return fmt.Errorf("failed to finish lz4 frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	return os.Rename(tmpPath, path)
}
