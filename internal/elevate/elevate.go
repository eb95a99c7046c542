// Package elevate decides whether a destination requires elevated
// privileges and locates an elevation command.
package elevate

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/fsops"
	"github.com/scruffaluff/binstall/internal/helpers"
)

// DefaultOrder is the elevation command preference used when a tool
// descriptor does not carry its own.
var DefaultOrder = []string{"doas", "sudo"}

// Resolver probes destinations and searches for elevation commands.
type Resolver struct {
	Fs     afero.Fs
	Runner helpers.CommandRunner
	GOOS   string
	Log    *zerolog.Logger
}

// NewResolver creates a Resolver bound to the real filesystem and PATH.
func NewResolver(runner helpers.CommandRunner, log *zerolog.Logger) *Resolver {
	return &Resolver{
		Fs:     afero.NewOsFs(),
		Runner: runner,
		GOOS:   runtime.GOOS,
		Log:    log,
	}
}

// Resolve determines whether writing dest needs elevation and which command
// provides it. System scope always requires elevation; user scope is decided
// by a non-destructive write probe. order lists elevation commands by
// preference; nil means DefaultOrder.
func (r *Resolver) Resolve(ctx context.Context, dest string, scope core.Scope, order []string) (core.ElevationContext, error) {
	elev := core.ElevationContext{Scope: scope}

	if scope == core.ScopeSystem {
		elev.Required = true
	} else {
		if err := fsops.EnsureDir(r.Fs, dest, 0755); err != nil {
			elev.Required = true
		} else if err := fsops.CheckWritable(r.Fs, dest); err != nil {
			elev.Required = true
		}
	}

	if !elev.Required {
		r.Log.Debug().Str("dest", dest).Msg("destination writable without elevation")
		return elev, nil
	}

	if r.GOOS == "windows" {
		// Scripted elevation is unsupported on Windows; the user must run
		// from an elevated prompt instead.
		return elev, fmt.Errorf("%w: rerun from an administrator prompt", core.ErrElevationUnavailable)
	}

	if order == nil {
		order = DefaultOrder
	}
	for _, candidate := range order {
		if r.Runner.CommandExists(candidate) {
			elev.Command = candidate
			r.Log.Debug().Str("command", candidate).Msg("elevation command selected")
			return elev, nil
		}
	}

	return elev, fmt.Errorf("%w: none of %v found in PATH", core.ErrElevationUnavailable, order)
}

// Run executes a command through the elevation command when one is set, or
// directly otherwise.
func Run(ctx context.Context, runner helpers.CommandRunner, elev core.ElevationContext, name string, args ...string) (string, error) {
	if elev.Required && elev.Command != "" {
		full := append([]string{name}, args...)
		return runner.RunCommand(ctx, elev.Command, full...)
	}
	return runner.RunCommand(ctx, name, args...)
}
