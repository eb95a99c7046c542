// Package platform canonicalizes the host OS and architecture into the
// vocabulary release artifacts use.
package platform

import (
	"fmt"
	"runtime"

	"github.com/scruffaluff/binstall/internal/core"
)

// Info identifies a target platform in Go's GOOS/GOARCH vocabulary.
type Info struct {
	OS   string
	Arch string
}

// Current returns the platform of the running process.
func Current() Info {
	return Info{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Key returns the "os/arch" form used by descriptor target tables.
func (i Info) Key() string {
	return i.OS + "/" + i.Arch
}

// ExeSuffix returns the executable filename suffix for the platform.
func (i Info) ExeSuffix() string {
	if i.OS == "windows" {
		return ".exe"
	}
	return ""
}

// CanonicalArch maps a Go architecture name to the name used by release
// artifacts: amd64 becomes x86_64, arm64 becomes aarch64.
func CanonicalArch(goarch string) (string, error) {
	switch goarch {
	case "amd64":
		return "x86_64", nil
	case "arm64":
		return "aarch64", nil
	case "386":
		return "i686", nil
	default:
		return "", fmt.Errorf("%w: architecture %q", core.ErrUnsupportedPlatform, goarch)
	}
}

// Triple returns the target triple for the platform, matching the naming of
// Rust-toolchain release artifacts (just, uv, deno).
func Triple(info Info) (string, error) {
	arch, err := CanonicalArch(info.Arch)
	if err != nil {
		return "", err
	}

	switch info.OS {
	case "linux":
		return arch + "-unknown-linux-musl", nil
	case "darwin":
		return arch + "-apple-darwin", nil
	case "windows":
		return arch + "-pc-windows-msvc", nil
	default:
		return "", fmt.Errorf("%w: operating system %q", core.ErrUnsupportedPlatform, info.OS)
	}
}
