//go:build !windows

package pathenv

import (
	"fmt"

	"github.com/scruffaluff/binstall/internal/core"
)

// ensureRegistryPath is only reachable on Windows; the POSIX path goes
// through profile editing instead.
func ensureRegistryPath(destDir string, scope core.Scope) error {
	return fmt.Errorf("environment store registration is windows-only")
}

// RegisterScriptExtension is a no-op outside Windows.
func RegisterScriptExtension(ext, progID, handlerPath string) error {
	return nil
}
