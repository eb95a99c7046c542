// Package fetch retrieves release artifacts over HTTP, trying an ordered
// list of downloader backends.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/helpers"
	"github.com/scruffaluff/binstall/internal/ui"
)

// Downloader is one download backend. Backends are tried in order and the
// first available one is used.
type Downloader interface {
	Name() string
	Available() bool
	Download(ctx context.Context, url, destFile string, quiet bool) error
}

// Fetcher downloads URLs to local files through the first usable backend.
type Fetcher struct {
	Backends []Downloader
	Client   *http.Client
	Quiet    bool
	Log      *zerolog.Logger
}

// NewFetcher creates a Fetcher with the default backend order: the native
// HTTP client, then curl, then wget.
func NewFetcher(timeout time.Duration, runner helpers.CommandRunner, log *zerolog.Logger, quiet bool) *Fetcher {
	client := &http.Client{Timeout: timeout}
	return &Fetcher{
		Backends: []Downloader{
			&httpDownloader{client: client},
			&commandDownloader{runner: runner, name: "curl", args: []string{"--fail", "--location", "--silent", "--show-error", "--output"}},
			&commandDownloader{runner: runner, name: "wget", args: []string{"--quiet", "--output-document"}},
		},
		Client: client,
		Quiet:  quiet,
		Log:    log,
	}
}

// Fetch downloads url to destFile. The write goes to a sibling temp name
// first and is renamed into place, so destFile never holds a partial
// download. A non-zero mode is applied after the write.
func (f *Fetcher) Fetch(ctx context.Context, url, destFile string, mode os.FileMode) error {
	backend, err := f.pickBackend()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destFile), 0755); err != nil {
		return fmt.Errorf("%w: create parent directory: %v", core.ErrFetchFailed, err)
	}

	staging := destFile + ".download"
	f.Log.Debug().Str("url", url).Str("backend", backend.Name()).Msg("fetching artifact")

	if err := backend.Download(ctx, url, staging, f.Quiet); err != nil {
		os.Remove(staging)
		return classify(err)
	}

	if err := os.Rename(staging, destFile); err != nil {
		os.Remove(staging)
		return fmt.Errorf("%w: place download: %v", core.ErrFetchFailed, err)
	}

	if mode != 0 {
		if err := os.Chmod(destFile, mode); err != nil {
			return fmt.Errorf("%w: chmod download: %v", core.ErrFetchFailed, err)
		}
	}

	return nil
}

// FetchBytes downloads url into memory, for chaining into sub-installers.
func (f *Fetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrFetchFailed, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d for %s", core.ErrFetchFailed, resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

func (f *Fetcher) pickBackend() (Downloader, error) {
	for _, backend := range f.Backends {
		if backend.Available() {
			return backend, nil
		}
	}
	return nil, core.ErrDownloaderUnavailable
}

// classify maps transport errors onto the fetch error taxonomy.
func classify(err error) error {
	if errors.Is(err, core.ErrFetchFailed) || errors.Is(err, core.ErrFetchTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("%w: %v", core.ErrFetchTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", core.ErrFetchTimeout, err)
	}
	return fmt.Errorf("%w: %v", core.ErrFetchFailed, err)
}

// httpDownloader is the native backend. It is always available.
type httpDownloader struct {
	client *http.Client
}

func (d *httpDownloader) Name() string    { return "http" }
func (d *httpDownloader) Available() bool { return true }

func (d *httpDownloader) Download(ctx context.Context, url, destFile string, quiet bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d for %s", core.ErrFetchFailed, resp.StatusCode, url)
	}

	out, err := os.Create(destFile)
	if err != nil {
		return err
	}
	defer out.Close()

	var dst io.Writer = out
	if !quiet && resp.ContentLength > 0 {
		pw := ui.NewProgressWriter(out, resp.ContentLength, "downloading")
		defer pw.Close()
		dst = pw
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return err
	}
	return out.Sync()
}

// commandDownloader shells out to an external download program such as curl
// or wget.
type commandDownloader struct {
	runner helpers.CommandRunner
	name   string
	args   []string
}

func (d *commandDownloader) Name() string    { return d.name }
func (d *commandDownloader) Available() bool { return d.runner.CommandExists(d.name) }

func (d *commandDownloader) Download(ctx context.Context, url, destFile string, quiet bool) error {
	if err := d.runner.RequireCommand(d.name); err != nil {
		return err
	}

	args := append(append([]string{}, d.args...), destFile, url)
	if _, err := d.runner.RunCommand(ctx, d.name, args...); err != nil {
		return fmt.Errorf("%s exited with code %d: %w", d.name, d.runner.GetExitCode(err), err)
	}
	return nil
}
