package resolve

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/logging"
	"github.com/scruffaluff/binstall/internal/platform"
	"github.com/scruffaluff/binstall/internal/tools"
)

func newTestLocator(t *testing.T) *Locator {
	t.Helper()
	return NewLocator(5*time.Second, logging.NewTestLogger(io.Discard))
}

func TestResolveExplicitVersionURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tool    string
		version string
		plat    platform.Info
		wantURL string
	}{
		{
			tool:    "just",
			version: "1.37.0",
			plat:    platform.Info{OS: "linux", Arch: "amd64"},
			wantURL: "https://github.com/casey/just/releases/download/1.37.0/just-1.37.0-x86_64-unknown-linux-musl.tar.gz",
		},
		{
			tool:    "just",
			version: "1.37.0",
			plat:    platform.Info{OS: "windows", Arch: "amd64"},
			wantURL: "https://github.com/casey/just/releases/download/1.37.0/just-1.37.0-x86_64-pc-windows-msvc.zip",
		},
		{
			tool:    "uv",
			version: "0.5.2",
			plat:    platform.Info{OS: "darwin", Arch: "arm64"},
			wantURL: "https://github.com/astral-sh/uv/releases/download/0.5.2/uv-aarch64-apple-darwin.tar.gz",
		},
		{
			tool:    "deno",
			version: "2.1.4",
			plat:    platform.Info{OS: "linux", Arch: "amd64"},
			wantURL: "https://github.com/denoland/deno/releases/download/v2.1.4/deno-x86_64-unknown-linux-gnu.zip",
		},
		{
			tool:    "jq",
			version: "1.7.1",
			plat:    platform.Info{OS: "linux", Arch: "amd64"},
			wantURL: "https://github.com/jqlang/jq/releases/download/jq-1.7.1/jq-linux-amd64",
		},
		{
			tool:    "jq",
			version: "1.7.1",
			plat:    platform.Info{OS: "windows", Arch: "amd64"},
			wantURL: "https://github.com/jqlang/jq/releases/download/jq-1.7.1/jq-windows-amd64.exe",
		},
	}

	l := newTestLocator(t)
	for _, tt := range tests {
		t.Run(tt.tool+"/"+tt.plat.Key(), func(t *testing.T) {
			t.Parallel()

			d, err := tools.Lookup(tt.tool)
			require.NoError(t, err)

			resolved, err := l.Resolve(context.Background(), d, tt.version, tt.plat)
			require.NoError(t, err)
			assert.Equal(t, tt.version, resolved.Version)
			assert.Equal(t, tt.wantURL, resolved.URL)
		})
	}
}

func TestResolveLatestFromIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"versions":{"stable":"0.5.2"}}`))
	}))
	defer srv.Close()

	d, err := tools.Lookup("uv")
	require.NoError(t, err)
	d.IndexURL = srv.URL

	l := newTestLocator(t)
	resolved, err := l.Resolve(context.Background(), d, "", platform.Info{OS: "linux", Arch: "amd64"})
	require.NoError(t, err)
	assert.Equal(t, "0.5.2", resolved.Version)
	assert.Contains(t, resolved.URL, "/0.5.2/")
}

func TestResolveUnsupportedPlatformSkipsNetwork(t *testing.T) {
	t.Parallel()

	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	d, err := tools.Lookup("deno")
	require.NoError(t, err)
	d.IndexURL = srv.URL

	l := newTestLocator(t)
	_, err = l.Resolve(context.Background(), d, "", platform.Info{OS: "windows", Arch: "arm64"})
	assert.True(t, errors.Is(err, core.ErrUnsupportedPlatform))
	assert.False(t, hit, "unsupported platform must fail before any index request")
}

func TestResolveIndexFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"versions":`))
			},
		},
		{
			name: "missing stable field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"versions":{}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			d, err := tools.Lookup("just")
			require.NoError(t, err)
			d.IndexURL = srv.URL

			l := newTestLocator(t)
			_, err = l.Resolve(context.Background(), d, "", platform.Info{OS: "linux", Arch: "amd64"})
			assert.True(t, errors.Is(err, core.ErrVersionLookupFailed))
		})
	}
}

func TestResolveIndexUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	d, err := tools.Lookup("just")
	require.NoError(t, err)
	d.IndexURL = srv.URL

	l := newTestLocator(t)
	_, err = l.Resolve(context.Background(), d, "", platform.Info{OS: "linux", Arch: "amd64"})
	assert.True(t, errors.Is(err, core.ErrVersionLookupFailed))
}
