package workflow

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scruffaluff/binstall/internal/config"
	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/elevate"
	"github.com/scruffaluff/binstall/internal/fetch"
	"github.com/scruffaluff/binstall/internal/helpers"
	"github.com/scruffaluff/binstall/internal/install"
	"github.com/scruffaluff/binstall/internal/logging"
	"github.com/scruffaluff/binstall/internal/pathenv"
	"github.com/scruffaluff/binstall/internal/platform"
	"github.com/scruffaluff/binstall/internal/resolve"
	"github.com/scruffaluff/binstall/internal/tools"
)

// demoTarGz builds a release-style tar.gz holding a single executable script.
func demoTarGz(t *testing.T, binName, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	hdr := &tar.Header{
		Name:     "demo-1.2.3/" + binName,
		Mode:     0755,
		Size:     int64(len(body)),
		Typeflag: tar.TypeReg,
	}
	require.NoError(t, tw.WriteHeader(hdr))
	_, err := tw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gzw.Close())
	return buf.Bytes()
}

// demoServer serves a formula-style version index and a tar.gz release asset.
func demoServer(t *testing.T, archiveData []byte) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"versions":{"stable":"1.2.3"}}`))
	})
	mux.HandleFunc("/releases/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archiveData)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func registerDemoTool(t *testing.T, srv *httptest.Server) {
	t.Helper()

	tools.Register(tools.Descriptor{
		Name:        "demo",
		Summary:     "Test fixture tool",
		URLTemplate: srv.URL + "/releases/{version}/demo-{version}-{target}{ext}",
		IndexURL:    srv.URL + "/index.json",
		Targets: map[string]string{
			"linux/amd64": "x86_64-unknown-linux-musl",
		},
		Kind:        core.ArchiveTarGz,
		VersionArgs: []string{"--version"},
	})
	t.Cleanup(func() { tools.Deregister("demo") })
}

func newTestWorkflow(t *testing.T, destDir string, runner helpers.CommandRunner) *Workflow {
	t.Helper()

	log := logging.NewTestLogger(io.Discard)
	cfg := &config.Config{}
	cfg.Paths.UserBinDir = destDir
	cfg.Paths.SystemBinDir = destDir
	cfg.Install.FetchTimeoutSecs = 5

	return &Workflow{
		Cfg:    cfg,
		Log:    log,
		Runner: runner,
		Elevator: &elevate.Resolver{
			Fs:     afero.NewOsFs(),
			Runner: runner,
			GOOS:   "linux",
			Log:    log,
		},
		Locator: resolve.NewLocator(5*time.Second, log),
		Fetcher: fetch.NewFetcher(5*time.Second, runner, log, true),
		Installer: &install.Installer{
			Fs:     afero.NewOsFs(),
			Runner: runner,
			Env:    func(string) string { return "" },
			GOOS:   "linux",
			Log:    log,
		},
		Updater: &pathenv.Updater{
			Fs:      afero.NewMemMapFs(),
			Env:     func(key string) string { return "" },
			HomeDir: "/home/user",
			Log:     log,
		},
		Platform: platform.Info{OS: "linux", Arch: "amd64"},
	}
}

func TestRunInstallsFromArchive(t *testing.T) {
	archiveData := demoTarGz(t, "demo", "#!/bin/sh\necho demo 1.2.3\n")
	srv := demoServer(t, archiveData)
	registerDemoTool(t, srv)

	destDir := t.TempDir()
	runner := &helpers.MockCommandRunner{
		RunCommandWithOutputFunc: func(ctx context.Context, name string, args ...string) (string, string, error) {
			return "demo 1.2.3\n", "", nil
		},
	}
	w := newTestWorkflow(t, destDir, runner)

	result, err := w.Run(context.Background(), core.InstallRequest{
		Tool:  "demo",
		Scope: core.ScopeUser,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "1.2.3", result.Resolved.Version)
	assert.Equal(t, "1.2.3", result.Artifact.Version)
	assert.False(t, result.Elevation.Required)
	assert.Empty(t, result.Warnings)

	installed := filepath.Join(destDir, "demo")
	assert.Equal(t, installed, result.Artifact.Path)

	data, err := os.ReadFile(installed)
	require.NoError(t, err)
	assert.Contains(t, string(data), "demo 1.2.3")

	info, err := os.Stat(installed)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "installed binary must be executable")

	// PATH registration went to the in-memory profile.
	assert.True(t, result.EnvUpdated)
	profile, err := afero.ReadFile(w.Updater.Fs, "/home/user/.bashrc")
	require.NoError(t, err)
	assert.Contains(t, string(profile), destDir)
}

func TestRunExplicitVersionSkipsIndex(t *testing.T) {
	archiveData := demoTarGz(t, "demo", "#!/bin/sh\necho demo 9.9.9\n")

	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		t.Error("explicit version must not query the index")
	})
	mux.HandleFunc("/releases/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archiveData)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	registerDemoTool(t, srv)

	destDir := t.TempDir()
	runner := &helpers.MockCommandRunner{
		RunCommandWithOutputFunc: func(ctx context.Context, name string, args ...string) (string, string, error) {
			return "demo 9.9.9\n", "", nil
		},
	}
	w := newTestWorkflow(t, destDir, runner)

	result, err := w.Run(context.Background(), core.InstallRequest{
		Tool:    "demo",
		Version: "9.9.9",
		Scope:   core.ScopeUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", result.Resolved.Version)
}

func TestRunRejectsMalformedVersion(t *testing.T) {
	srv := demoServer(t, nil)
	registerDemoTool(t, srv)

	w := newTestWorkflow(t, t.TempDir(), &helpers.MockCommandRunner{})

	_, err := w.Run(context.Background(), core.InstallRequest{
		Tool:    "demo",
		Version: "1.2.3; rm -rf /",
		Scope:   core.ScopeUser,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangerous pattern")
}

func TestRunUnknownTool(t *testing.T) {
	w := newTestWorkflow(t, t.TempDir(), &helpers.MockCommandRunner{})

	_, err := w.Run(context.Background(), core.InstallRequest{
		Tool:  "no-such-tool",
		Scope: core.ScopeUser,
	})
	assert.True(t, errors.Is(err, core.ErrUnknownTool))
}

func TestRunFailedFetchLeavesPriorInstall(t *testing.T) {
	archiveData := demoTarGz(t, "demo", "#!/bin/sh\necho demo 1.2.3\n")
	srv := demoServer(t, archiveData)
	registerDemoTool(t, srv)

	destDir := t.TempDir()
	runner := &helpers.MockCommandRunner{
		RunCommandWithOutputFunc: func(ctx context.Context, name string, args ...string) (string, string, error) {
			return "demo 1.2.3\n", "", nil
		},
	}
	w := newTestWorkflow(t, destDir, runner)

	_, err := w.Run(context.Background(), core.InstallRequest{Tool: "demo", Scope: core.ScopeUser})
	require.NoError(t, err)

	installed := filepath.Join(destDir, "demo")
	before, err := os.ReadFile(installed)
	require.NoError(t, err)

	// Point the descriptor at a dead release URL and rerun.
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.json" {
			_, _ = w.Write([]byte(`{"versions":{"stable":"1.2.4"}}`))
			return
		}
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(broken.Close)
	registerDemoTool(t, broken)

	_, err = w.Run(context.Background(), core.InstallRequest{Tool: "demo", Scope: core.ScopeUser})
	assert.True(t, errors.Is(err, core.ErrFetchFailed))

	after, err := os.ReadFile(installed)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed run must leave the prior install byte-identical")

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "failed run must leave no staging files in the destination")
}

func TestRunVerificationFailureIsWarning(t *testing.T) {
	archiveData := demoTarGz(t, "demo", "#!/bin/sh\necho demo 1.2.3\n")
	srv := demoServer(t, archiveData)
	registerDemoTool(t, srv)

	destDir := t.TempDir()
	runner := &helpers.MockCommandRunner{
		RunCommandWithOutputFunc: func(ctx context.Context, name string, args ...string) (string, string, error) {
			return "", "", errors.New("exec format error")
		},
	}
	w := newTestWorkflow(t, destDir, runner)

	result, err := w.Run(context.Background(), core.InstallRequest{Tool: "demo", Scope: core.ScopeUser})
	require.NoError(t, err, "verification failure must not fail the install")
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "could not verify")

	_, statErr := os.Stat(filepath.Join(destDir, "demo"))
	assert.NoError(t, statErr)
}

func TestDestDir(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Paths.UserBinDir = "/home/user/.local/bin"
	cfg.Paths.SystemBinDir = "/usr/local/bin"
	w := &Workflow{Cfg: cfg}

	assert.Equal(t, "/custom", w.DestDir(core.InstallRequest{DestDir: "/custom"}))
	assert.Equal(t, "/home/user/.local/bin", w.DestDir(core.InstallRequest{Scope: core.ScopeUser}))
	assert.Equal(t, "/usr/local/bin", w.DestDir(core.InstallRequest{Scope: core.ScopeSystem}))
}
