// Package resolve turns a tool name plus optional explicit version into a
// concrete version string and download URL.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/platform"
	"github.com/scruffaluff/binstall/internal/tools"
)

// formulaIndex is the shape of the version index payload. Only the stable
// field is consumed.
type formulaIndex struct {
	Versions struct {
		Stable string `json:"stable"`
	} `json:"versions"`
}

// Locator resolves versions and synthesizes download URLs.
type Locator struct {
	Client *http.Client
	Log    *zerolog.Logger
}

// NewLocator creates a Locator with a bounded-timeout HTTP client.
func NewLocator(timeout time.Duration, log *zerolog.Logger) *Locator {
	return &Locator{
		Client: &http.Client{Timeout: timeout},
		Log:    log,
	}
}

// Resolve produces the ResolvedVersion for a tool on a platform. Platform
// support is checked first so unsupported hosts fail before any network
// call. An explicit version skips the index lookup entirely.
func (l *Locator) Resolve(ctx context.Context, d tools.Descriptor, explicitVersion string, plat platform.Info) (core.ResolvedVersion, error) {
	target, ok := d.Targets[plat.Key()]
	if !ok {
		return core.ResolvedVersion{}, fmt.Errorf("%w: %s has no %s artifact", core.ErrUnsupportedPlatform, d.Name, plat.Key())
	}

	version := explicitVersion
	if version == "" {
		latest, err := l.latestVersion(ctx, d.IndexURL)
		if err != nil {
			return core.ResolvedVersion{}, err
		}
		version = latest
		l.Log.Debug().Str("tool", d.Name).Str("version", version).Msg("resolved latest version from index")
	}

	kind := d.KindFor(plat.OS)
	ext := "." + string(kind)
	if kind == core.ArchiveRaw {
		ext = plat.ExeSuffix()
	}

	url := strings.NewReplacer(
		"{version}", version,
		"{target}", target,
		"{ext}", ext,
	).Replace(d.URLTemplate)

	return core.ResolvedVersion{Version: version, URL: url, Kind: kind}, nil
}

// latestVersion queries the version index and extracts the stable version
// field.
func (l *Locator) latestVersion(ctx context.Context, indexURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrVersionLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrVersionLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: index returned HTTP %d", core.ErrVersionLookupFailed, resp.StatusCode)
	}

	var index formulaIndex
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		return "", fmt.Errorf("%w: malformed index payload: %v", core.ErrVersionLookupFailed, err)
	}

	if index.Versions.Stable == "" {
		return "", fmt.Errorf("%w: index payload missing stable version", core.ErrVersionLookupFailed)
	}

	return index.Versions.Stable, nil
}
