// Package pathenv makes an install directory discoverable on the search
// path, either by editing a shell profile on POSIX or the persistent
// environment store on Windows.
package pathenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/scruffaluff/binstall/internal/core"
)

// ShellFamily identifies the syntax family of an interactive shell.
type ShellFamily string

const (
	ShellBash    ShellFamily = "bash"
	ShellZsh     ShellFamily = "zsh"
	ShellFish    ShellFamily = "fish"
	ShellNushell ShellFamily = "nushell"
)

const markerComment = "# Added by binstall."

// Updater mutates shell profiles or the platform environment store so a
// destination directory ends up on PATH. All filesystem access goes through
// afero and all environment reads through Env, so tests inject both.
type Updater struct {
	Fs      afero.Fs
	Env     func(string) string
	HomeDir string
	Log     *zerolog.Logger
}

// NewUpdater creates an Updater bound to the real filesystem and process
// environment.
func NewUpdater(log *zerolog.Logger) *Updater {
	homeDir, _ := os.UserHomeDir()
	return &Updater{
		Fs:      afero.NewOsFs(),
		Env:     os.Getenv,
		HomeDir: homeDir,
		Log:     log,
	}
}

// EnsureOnPath guarantees destDir is discoverable on the search path. It
// reports whether any persistent mutation was performed. A no-op happens
// when preserveEnv is set or destDir is already on the live PATH.
func (u *Updater) EnsureOnPath(destDir string, scope core.Scope, preserveEnv bool) (bool, error) {
	if preserveEnv {
		u.Log.Debug().Str("dest", destDir).Msg("preserve-env set, skipping path registration")
		return false, nil
	}

	if OnPath(destDir, u.Env("PATH")) {
		u.Log.Debug().Str("dest", destDir).Msg("destination already on PATH")
		return false, nil
	}

	if runtime.GOOS == "windows" {
		if err := ensureRegistryPath(destDir, scope); err != nil {
			return false, err
		}
		u.Log.Info().Str("dest", destDir).Str("scope", string(scope)).Msg("registered destination in environment store")
		return true, nil
	}

	return u.appendProfileExport(destDir)
}

// appendProfileExport appends a marked export block to the profile of the
// detected shell. The marker is content-scanned first so repeated installs
// never duplicate the stanza.
func (u *Updater) appendProfileExport(destDir string) (bool, error) {
	family := DetectShell(u.Env("SHELL"))
	profile := ProfilePath(family, u.HomeDir)
	line := ExportLine(family, destDir)

	existing, err := afero.ReadFile(u.Fs, profile)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read profile %s: %w", profile, err)
	}
	if strings.Contains(string(existing), line) {
		u.Log.Debug().Str("profile", profile).Msg("export block already present")
		return false, nil
	}

	if err := u.Fs.MkdirAll(filepath.Dir(profile), 0755); err != nil {
		return false, fmt.Errorf("create profile directory: %w", err)
	}

	f, err := u.Fs.OpenFile(profile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return false, fmt.Errorf("open profile %s: %w", profile, err)
	}
	defer f.Close()

	block := "\n" + markerComment + "\n" + line + "\n"
	if _, err := f.WriteString(block); err != nil {
		return false, fmt.Errorf("append to profile %s: %w", profile, err)
	}

	u.Log.Info().
		Str("profile", profile).
		Str("shell", string(family)).
		Str("dest", destDir).
		Msg("added destination to shell profile")
	return true, nil
}

// caseInsensitivePaths matches the registry guard: Windows paths compare
// case-insensitively, POSIX paths do not.
var caseInsensitivePaths = runtime.GOOS == "windows"

// OnPath reports whether dir is present in a PATH-style value.
func OnPath(dir, pathValue string) bool {
	clean := filepath.Clean(dir)
	for _, entry := range filepath.SplitList(pathValue) {
		if entry == "" {
			continue
		}
		if pathsEqual(filepath.Clean(entry), clean) {
			return true
		}
	}
	return false
}

func pathsEqual(a, b string) bool {
	if caseInsensitivePaths {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// DetectShell maps the SHELL environment value to a shell family. Unknown
// or empty values fall back to bash, the most common login shell.
func DetectShell(shellEnv string) ShellFamily {
	name := filepath.Base(shellEnv)
	switch {
	case strings.Contains(name, "zsh"):
		return ShellZsh
	case strings.Contains(name, "fish"):
		return ShellFish
	case strings.Contains(name, "nu"):
		return ShellNushell
	case strings.Contains(name, "bash"):
		return ShellBash
	default:
		return ShellBash
	}
}

// ProfilePath returns the startup file edited for a shell family.
func ProfilePath(family ShellFamily, homeDir string) string {
	switch family {
	case ShellZsh:
		return filepath.Join(homeDir, ".zshrc")
	case ShellFish:
		return filepath.Join(homeDir, ".config", "fish", "config.fish")
	case ShellNushell:
		return filepath.Join(homeDir, ".config", "nushell", "env.nu")
	default:
		return filepath.Join(homeDir, ".bashrc")
	}
}

// ExportLine returns the PATH export statement in the syntax of a shell
// family.
func ExportLine(family ShellFamily, dir string) string {
	switch family {
	case ShellFish:
		return fmt.Sprintf("set --export PATH \"%s\" $PATH", dir)
	case ShellNushell:
		return fmt.Sprintf("$env.PATH = ($env.PATH | prepend \"%s\")", dir)
	default:
		return fmt.Sprintf("export PATH=\"%s:$PATH\"", dir)
	}
}
