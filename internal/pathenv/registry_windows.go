//go:build windows

package pathenv

import (
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"

	"github.com/scruffaluff/binstall/internal/core"
)

const systemEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// ensureRegistryPath prepends destDir to the persistent PATH value at the
// requested scope. The existing value is substring-checked first so repeated
// installs do not grow the entry.
func ensureRegistryPath(destDir string, scope core.Scope) error {
	root := registry.CURRENT_USER
	keyPath := "Environment"
	if scope == core.ScopeSystem {
		root = registry.LOCAL_MACHINE
		keyPath = systemEnvKey
	}

	key, err := registry.OpenKey(root, keyPath, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open environment key: %w", err)
	}
	defer key.Close()

	current, _, err := key.GetStringValue("Path")
	if err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("read Path value: %w", err)
	}

	if strings.Contains(strings.ToLower(current), strings.ToLower(destDir)) {
		return nil
	}

	updated := destDir
	if current != "" {
		updated = destDir + ";" + current
	}
	if err := key.SetStringValue("Path", updated); err != nil {
		return fmt.Errorf("write Path value: %w", err)
	}
	return nil
}

// RegisterScriptExtension associates a file extension with the given handler
// executable and appends the extension to the user's PATHEXT list so scripts
// run directly from a prompt.
func RegisterScriptExtension(ext, progID, handlerPath string) error {
	classes, _, err := registry.CreateKey(registry.CURRENT_USER, `Software\Classes\`+ext, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create extension key: %w", err)
	}
	defer classes.Close()
	if err := classes.SetStringValue("", progID); err != nil {
		return fmt.Errorf("set extension prog id: %w", err)
	}

	command, _, err := registry.CreateKey(registry.CURRENT_USER,
		`Software\Classes\`+progID+`\shell\open\command`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("create command key: %w", err)
	}
	defer command.Close()
	if err := command.SetStringValue("", fmt.Sprintf(`"%s" run "%%1" %%*`, handlerPath)); err != nil {
		return fmt.Errorf("set open command: %w", err)
	}

	env, err := registry.OpenKey(registry.CURRENT_USER, "Environment", registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("open environment key: %w", err)
	}
	defer env.Close()

	pathExt, _, err := env.GetStringValue("PATHEXT")
	if err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("read PATHEXT: %w", err)
	}
	upper := strings.ToUpper(ext)
	if strings.Contains(strings.ToUpper(pathExt), upper) {
		return nil
	}
	if pathExt != "" {
		pathExt += ";"
	}
	if err := env.SetStringValue("PATHEXT", pathExt+upper); err != nil {
		return fmt.Errorf("write PATHEXT: %w", err)
	}
	return nil
}
