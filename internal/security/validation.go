package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ValidVersionRegex allows standard version formats.
var ValidVersionRegex = regexp.MustCompile(`^[a-zA-Z0-9._+-]+$`)

// ValidateVersion validates a user-supplied version string before it is
// interpolated into download URLs and filesystem paths.
func ValidateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("invalid version: version cannot be empty")
	}

	if len(version) >= 100 {
		return fmt.Errorf("version string too long (max 100 characters)")
	}

	if strings.Contains(version, "\x00") {
		return fmt.Errorf("invalid version: contains null byte")
	}

	// Path traversal and command injection characters
	dangerousPatterns := []string{
		"..", "/", "\\", ";", "&", "|", "`", "$", "\n", "\r",
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(version, pattern) {
			return fmt.Errorf("invalid version: contains dangerous pattern: %s", pattern)
		}
	}

	if !ValidVersionRegex.MatchString(version) {
		return fmt.Errorf("invalid version format: must be alphanumeric with dots, dashes, or plus signs")
	}

	return nil
}

// ValidateExtractPath ensures an archive member name stays inside destDir
// once joined, rejecting absolute names and .. traversal.
func ValidateExtractPath(destDir, name string) error {
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("archive member name contains null byte")
	}

	if filepath.IsAbs(name) {
		return fmt.Errorf("archive member has absolute path: %s", name)
	}

	target := filepath.Join(destDir, name)
	cleanDest := filepath.Clean(destDir)
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(filepath.Separator)) {
		return fmt.Errorf("archive member escapes destination: %s", name)
	}

	return nil
}

// ValidateSymlink ensures a symlink created during extraction cannot point
// outside destDir.
func ValidateSymlink(destDir, linkPath, linkTarget string) error {
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf("symlink target is absolute: %s", linkTarget)
	}

	resolved := filepath.Join(filepath.Dir(linkPath), linkTarget)
	cleanDest := filepath.Clean(destDir)
	if resolved != cleanDest && !strings.HasPrefix(resolved, cleanDest+string(filepath.Separator)) {
		return fmt.Errorf("symlink escapes destination: %s -> %s", linkPath, linkTarget)
	}

	return nil
}
