// Package fetch downloads the dataset files over HTTP with a plain
// file-exists cache: a file already on disk is never re-downloaded.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// Fetcher downloads files with a shared HTTP client.
type Fetcher struct {
	rest *resty.Client
}

// New creates a fetcher with the given request timeout.
func New(timeout time.Duration) *Fetcher {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second)
	}
	return &Fetcher{rest: r}
}

// Download fetches url into dest unless dest already exists. Returns true
// when the on-disk copy was used.
func (f *Fetcher) Download(ctx context.Context, url, dest string) (cached bool, err error) {
	if _, err := os.Stat(dest); err == nil {
		log.Debug().Str("file", dest).Msg("Using cached download")
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("create download directory: %w", err)
	}

	resp, err := f.rest.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		os.Remove(dest)
		return false, fmt.Errorf("download %s: status %d", url, resp.StatusCode())
	}

	log.Info().Str("url", url).Str("file", dest).Msg("Downloaded dataset")
	return false, nil
}
