package tools

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/helpers"
	"github.com/scruffaluff/binstall/internal/pathenv"
)

// denoPostInstall registers .js files to run under deno on Windows and adds
// the extension to the executable-extension list. Elsewhere it is a no-op.
func denoPostInstall(ctx context.Context, runner helpers.CommandRunner, artifact *core.InstalledArtifact, log *zerolog.Logger) error {
	if runtime.GOOS != "windows" {
		return nil
	}

	if err := pathenv.RegisterScriptExtension(".js", "DenoScript", artifact.Path); err != nil {
		return err
	}

	log.Debug().
		Str("extension", ".js").
		Str("handler", artifact.Path).
		Msg("registered script extension")
	return nil
}
