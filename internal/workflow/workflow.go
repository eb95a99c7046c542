// Package workflow runs the install pipeline: privilege resolution, version
// resolution, fetch, install, environment update.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/scruffaluff/binstall/internal/archive"
	"github.com/scruffaluff/binstall/internal/config"
	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/elevate"
	"github.com/scruffaluff/binstall/internal/fetch"
	"github.com/scruffaluff/binstall/internal/fsops"
	"github.com/scruffaluff/binstall/internal/helpers"
	"github.com/scruffaluff/binstall/internal/install"
	"github.com/scruffaluff/binstall/internal/pathenv"
	"github.com/scruffaluff/binstall/internal/platform"
	"github.com/scruffaluff/binstall/internal/resolve"
	"github.com/scruffaluff/binstall/internal/security"
	"github.com/scruffaluff/binstall/internal/tools"
	"github.com/scruffaluff/binstall/internal/transaction"
)

// Stage names the steps of the pipeline state machine. Any stage can
// transition to failure, which is terminal; no stage retries.
type Stage string

const (
	StageStart              Stage = "start"
	StagePrivilegeResolved  Stage = "privilege_resolved"
	StageVersionResolved    Stage = "version_resolved"
	StageFetched            Stage = "fetched"
	StageInstalled          Stage = "installed"
	StageEnvironmentUpdated Stage = "environment_updated"
	StageDone               Stage = "done"
)

// Result is the outcome of a successful run. Warnings carry non-fatal
// problems (failed verification, failed PATH registration) for the CLI to
// surface.
type Result struct {
	Artifact   core.InstalledArtifact
	Resolved   core.ResolvedVersion
	Elevation  core.ElevationContext
	EnvUpdated bool
	Warnings   []string
}

// Workflow wires the pipeline components together.
type Workflow struct {
	Cfg       *config.Config
	Log       *zerolog.Logger
	Runner    helpers.CommandRunner
	Elevator  *elevate.Resolver
	Locator   *resolve.Locator
	Fetcher   *fetch.Fetcher
	Installer *install.Installer
	Updater   *pathenv.Updater
	Platform  platform.Info
}

// New builds a Workflow with production components.
func New(cfg *config.Config, log *zerolog.Logger, quiet bool) *Workflow {
	runner := helpers.NewOSCommandRunner()
	timeout := time.Duration(cfg.Install.FetchTimeoutSecs) * time.Second
	return &Workflow{
		Cfg:       cfg,
		Log:       log,
		Runner:    runner,
		Elevator:  elevate.NewResolver(runner, log),
		Locator:   resolve.NewLocator(timeout, log),
		Fetcher:   fetch.NewFetcher(timeout, runner, log, quiet),
		Installer: install.NewInstaller(runner, log),
		Updater:   pathenv.NewUpdater(log),
		Platform:  platform.Current(),
	}
}

// DestDir returns the effective destination directory for a request.
func (w *Workflow) DestDir(req core.InstallRequest) string {
	if req.DestDir != "" {
		return req.DestDir
	}
	if req.Scope == core.ScopeSystem {
		return w.Cfg.Paths.SystemBinDir
	}
	return w.Cfg.Paths.UserBinDir
}

// Run executes the pipeline for one request. Failures before the install
// stage leave the destination untouched; failures after it are downgraded
// to warnings.
func (w *Workflow) Run(ctx context.Context, req core.InstallRequest) (*Result, error) {
	stage := StageStart
	d, err := tools.Lookup(req.Tool)
	if err != nil {
		return nil, err
	}
	if req.Version != "" {
		if err := security.ValidateVersion(req.Version); err != nil {
			return nil, err
		}
	}

	destDir := w.DestDir(req)
	result := &Result{}

	elev, err := w.Elevator.Resolve(ctx, destDir, req.Scope, d.ElevationOrder)
	if err != nil {
		return nil, w.fail(stage, err)
	}
	result.Elevation = elev
	stage = StagePrivilegeResolved

	resolved, err := w.Locator.Resolve(ctx, d, req.Version, w.Platform)
	if err != nil {
		return nil, w.fail(stage, err)
	}
	result.Resolved = resolved
	stage = StageVersionResolved
	w.Log.Info().
		Str("tool", d.Name).
		Str("version", resolved.Version).
		Str("url", resolved.URL).
		Msg("resolved artifact")

	tx := transaction.NewManager(w.Log)
	tmpDir, err := fsops.CreateTempDir(w.Installer.Fs, "binstall-")
	if err != nil {
		return nil, w.fail(stage, err)
	}
	tx.Add("remove temp dir", func() error { return os.RemoveAll(tmpDir) })
	defer tx.Rollback() //nolint:errcheck // best-effort cleanup

	artifactFile := filepath.Join(tmpDir, path.Base(resolved.URL))
	var fetchMode os.FileMode
	if resolved.Kind == core.ArchiveRaw {
		fetchMode = 0755
	}
	if err := w.Fetcher.Fetch(ctx, resolved.URL, artifactFile, fetchMode); err != nil {
		return nil, w.fail(stage, err)
	}
	stage = StageFetched

	srcExe := artifactFile
	binName := d.Name + w.Platform.ExeSuffix()
	if resolved.Kind != core.ArchiveRaw {
		extractDir := filepath.Join(tmpDir, "extract")
		if err := w.extract(artifactFile, extractDir, resolved.Kind); err != nil {
			return nil, w.fail(stage, err)
		}
		srcExe, err = install.FindExecutable(extractDir, binName)
		if err != nil {
			return nil, w.fail(stage, err)
		}
	}

	installedPath, err := w.Installer.Place(ctx, srcExe, destDir, binName, elev)
	if err != nil {
		return nil, w.fail(stage, err)
	}
	stage = StageInstalled
	result.Artifact = core.InstalledArtifact{
		Tool:    d.Name,
		Path:    installedPath,
		Version: resolved.Version,
		DestDir: destDir,
	}

	// Destination now holds the new binary; remaining failures are warnings.
	tx.Commit()
	os.RemoveAll(tmpDir)

	reported, err := w.Installer.Verify(ctx, d, installedPath)
	if err != nil {
		w.Log.Warn().Err(err).Str("tool", d.Name).Msg("post-install verification failed")
		result.Warnings = append(result.Warnings, fmt.Sprintf("could not verify %s: %v", d.Name, err))
	} else {
		result.Artifact.Version = reported
	}

	updated, err := w.Updater.EnsureOnPath(destDir, req.Scope, req.PreserveEnv)
	if err != nil {
		w.Log.Warn().Err(err).Str("dest", destDir).Msg("path registration failed")
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("could not add %s to PATH: %v (add it manually)", destDir, err))
	}
	result.EnvUpdated = updated
	stage = StageEnvironmentUpdated

	if d.PostInstall != nil {
		if err := d.PostInstall(ctx, w.Runner, &result.Artifact, w.Log); err != nil {
			w.Log.Warn().Err(err).Str("tool", d.Name).Msg("post-install hook failed")
			result.Warnings = append(result.Warnings, fmt.Sprintf("post-install hook failed: %v", err))
		}
	}

	stage = StageDone
	w.Log.Info().
		Str("tool", d.Name).
		Str("path", installedPath).
		Str("version", result.Artifact.Version).
		Str("stage", string(stage)).
		Msg("install complete")
	return result, nil
}

func (w *Workflow) extract(artifactFile, extractDir string, kind core.ArchiveKind) error {
	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return fmt.Errorf("%w: create extraction dir: %v", core.ErrExtractionFailed, err)
	}
	return archive.Extract(artifactFile, extractDir, kind)
}

func (w *Workflow) fail(stage Stage, err error) error {
	w.Log.Error().Err(err).Str("stage", string(stage)).Msg("install failed")
	return err
}
