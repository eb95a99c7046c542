// Package install places a fetched artifact into its destination directory
// and verifies the result.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/elevate"
	"github.com/scruffaluff/binstall/internal/fsops"
	"github.com/scruffaluff/binstall/internal/helpers"
	"github.com/scruffaluff/binstall/internal/tools"
)

// Installer moves extracted artifacts into place and runs post-install
// verification. The final move is the only mutation of the destination and
// the last step, so earlier failures leave any prior install untouched.
type Installer struct {
	Fs     afero.Fs
	Runner helpers.CommandRunner
	Env    func(string) string
	GOOS   string
	Log    *zerolog.Logger
}

// NewInstaller creates an Installer bound to the real filesystem.
func NewInstaller(runner helpers.CommandRunner, log *zerolog.Logger) *Installer {
	return &Installer{
		Fs:     afero.NewOsFs(),
		Runner: runner,
		Env:    os.Getenv,
		GOOS:   runtime.GOOS,
		Log:    log,
	}
}

// Place puts the executable at srcExe into destDir under the tool's binary
// name. Without elevation the move is temp-then-rename through fsops;
// with elevation it goes through the elevation command.
func (i *Installer) Place(ctx context.Context, srcExe, destDir, binName string, elev core.ElevationContext) (string, error) {
	destPath := filepath.Join(destDir, binName)

	if elev.Required && elev.Command != "" {
		if _, err := elevate.Run(ctx, i.Runner, elev, "mkdir", "-p", destDir); err != nil {
			return "", fmt.Errorf("%w: create destination: %v", core.ErrInstallWriteFailed, err)
		}
		if _, err := elevate.Run(ctx, i.Runner, elev, "cp", srcExe, destPath); err != nil {
			return "", fmt.Errorf("%w: copy into destination: %v", core.ErrInstallWriteFailed, err)
		}
		if _, err := elevate.Run(ctx, i.Runner, elev, "chmod", "755", destPath); err != nil {
			return "", fmt.Errorf("%w: set mode: %v", core.ErrInstallWriteFailed, err)
		}
		return destPath, nil
	}

	if err := fsops.EnsureDir(i.Fs, destDir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInstallWriteFailed, err)
	}
	if err := i.Fs.Chmod(srcExe, 0755); err != nil {
		return "", fmt.Errorf("%w: set mode: %v", core.ErrInstallWriteFailed, err)
	}
	if err := fsops.MoveFile(i.Fs, srcExe, destPath); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInstallWriteFailed, err)
	}

	return destPath, nil
}

// Verify re-invokes the installed binary's own version flag and returns the
// reported version. A failure here wraps ErrPostInstallVerification, which
// callers treat as a warning. The tool's override environment variable, when
// set, names the binary to invoke instead of the installed path. Some
// binaries print their version report on stderr, so both streams are read.
func (i *Installer) Verify(ctx context.Context, d tools.Descriptor, installedPath string) (string, error) {
	binary := installedPath
	if override := i.Env(d.EnvOverrideVar); override != "" {
		binary = override
	}

	stdout, stderr, err := i.Runner.RunCommandWithOutput(ctx, binary, d.VersionArgs...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrPostInstallVerification, err)
	}

	out := stdout
	if strings.TrimSpace(out) == "" {
		out = stderr
	}

	version := ParseVersionOutput(d.Name, out)
	if version == "" {
		return "", fmt.Errorf("%w: could not parse version from %q", core.ErrPostInstallVerification, helpers.FirstLine(out))
	}

	i.Log.Debug().Str("tool", d.Name).Str("version", version).Msg("post-install verification passed")
	return version, nil
}

// ParseVersionOutput extracts a bare version string from a binary's version
// report. Handles "tool 1.2.3", "tool-1.2.3", and bare "1.2.3" forms.
func ParseVersionOutput(toolName, out string) string {
	line := helpers.FirstLine(out)
	if line == "" {
		return ""
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	if len(fields) >= 2 && strings.EqualFold(fields[0], toolName) {
		return fields[1]
	}

	first := fields[0]
	if trimmed := strings.TrimPrefix(first, toolName+"-"); trimmed != first {
		return trimmed
	}

	for _, f := range fields {
		if strings.IndexFunc(f, func(r rune) bool { return r >= '0' && r <= '9' }) == 0 {
			return f
		}
	}
	return first
}
