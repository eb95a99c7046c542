// Package tools holds the per-tool descriptors consumed by the shared
// install workflow. Adding a tool means adding a descriptor here; the
// control flow never changes.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/helpers"
)

// PostInstallHook runs after a successful install for tool-specific
// environment registration. Hooks are best effort: a failing hook is logged
// and does not fail the run.
type PostInstallHook func(ctx context.Context, runner helpers.CommandRunner, artifact *core.InstalledArtifact, log *zerolog.Logger) error

// Descriptor is the static metadata of one installable tool.
type Descriptor struct {
	// Name is the tool identifier and the installed executable base name.
	Name string

	// Summary is a one-line description shown by list.
	Summary string

	// URLTemplate builds the download URL. Placeholders: {version},
	// {target}, {ext}. {ext} includes the leading dot for archives and is
	// the platform executable suffix for raw binaries.
	URLTemplate string

	// IndexURL is the version index queried when no explicit version is
	// given. The endpoint serves formula-style JSON with a
	// versions.stable field.
	IndexURL string

	// Targets maps "os/arch" keys to the target token the release assets
	// use. A missing key means the platform is unsupported for this tool.
	Targets map[string]string

	// Kind is how the artifact is packaged. WindowsKind overrides it on
	// windows when non-empty (several tools ship zip there and tar.gz
	// elsewhere).
	Kind        core.ArchiveKind
	WindowsKind core.ArchiveKind

	// VersionArgs invoke the installed binary's own version report.
	VersionArgs []string

	// EnvOverrideVar names the environment variable that points at an
	// already-installed binary, checked before PATH during verification.
	EnvOverrideVar string

	// ElevationOrder is the preference order of elevation commands on
	// POSIX. The order differs between tool families and is preserved
	// for compatibility with the original installers.
	ElevationOrder []string

	// PostInstall is an optional tool-specific hook.
	PostInstall PostInstallHook
}

// KindFor returns the archive kind of the artifact for an operating system.
func (d Descriptor) KindFor(goos string) core.ArchiveKind {
	if goos == "windows" && d.WindowsKind != "" {
		return d.WindowsKind
	}
	return d.Kind
}

// registry is keyed by tool name.
var registry = map[string]Descriptor{
	"just": {
		Name:        "just",
		Summary:     "Command runner with make-like justfiles",
		URLTemplate: "https://github.com/casey/just/releases/download/{version}/just-{version}-{target}{ext}",
		IndexURL:    "https://formulae.brew.sh/api/formula/just.json",
		Targets: map[string]string{
			"linux/amd64":   "x86_64-unknown-linux-musl",
			"linux/arm64":   "aarch64-unknown-linux-musl",
			"darwin/amd64":  "x86_64-apple-darwin",
			"darwin/arm64":  "aarch64-apple-darwin",
			"windows/amd64": "x86_64-pc-windows-msvc",
			"windows/arm64": "aarch64-pc-windows-msvc",
		},
		Kind:           core.ArchiveTarGz,
		WindowsKind:    core.ArchiveZip,
		VersionArgs:    []string{"--version"},
		EnvOverrideVar: "BINSTALL_TOOL_JUST",
		ElevationOrder: []string{"doas", "sudo"},
	},
	"uv": {
		Name:        "uv",
		Summary:     "Python package and project manager",
		URLTemplate: "https://github.com/astral-sh/uv/releases/download/{version}/uv-{target}{ext}",
		IndexURL:    "https://formulae.brew.sh/api/formula/uv.json",
		Targets: map[string]string{
			"linux/amd64":   "x86_64-unknown-linux-musl",
			"linux/arm64":   "aarch64-unknown-linux-musl",
			"darwin/amd64":  "x86_64-apple-darwin",
			"darwin/arm64":  "aarch64-apple-darwin",
			"windows/amd64": "x86_64-pc-windows-msvc",
			"windows/arm64": "aarch64-pc-windows-msvc",
		},
		Kind:           core.ArchiveTarGz,
		WindowsKind:    core.ArchiveZip,
		VersionArgs:    []string{"--version"},
		EnvOverrideVar: "BINSTALL_TOOL_UV",
		ElevationOrder: []string{"doas", "sudo"},
	},
	"deno": {
		Name:        "deno",
		Summary:     "JavaScript and TypeScript runtime",
		URLTemplate: "https://github.com/denoland/deno/releases/download/v{version}/deno-{target}{ext}",
		IndexURL:    "https://formulae.brew.sh/api/formula/deno.json",
		Targets: map[string]string{
			"linux/amd64":   "x86_64-unknown-linux-gnu",
			"linux/arm64":   "aarch64-unknown-linux-gnu",
			"darwin/amd64":  "x86_64-apple-darwin",
			"darwin/arm64":  "aarch64-apple-darwin",
			"windows/amd64": "x86_64-pc-windows-msvc",
		},
		Kind:           core.ArchiveZip,
		VersionArgs:    []string{"--version"},
		EnvOverrideVar: "BINSTALL_TOOL_DENO",
		ElevationOrder: []string{"sudo", "doas"},
		PostInstall:    denoPostInstall,
	},
	"jq": {
		Name:        "jq",
		Summary:     "Command-line JSON processor",
		URLTemplate: "https://github.com/jqlang/jq/releases/download/jq-{version}/jq-{target}{ext}",
		IndexURL:    "https://formulae.brew.sh/api/formula/jq.json",
		Targets: map[string]string{
			"linux/amd64":   "linux-amd64",
			"linux/arm64":   "linux-arm64",
			"darwin/amd64":  "macos-amd64",
			"darwin/arm64":  "macos-arm64",
			"windows/amd64": "windows-amd64",
		},
		Kind:           core.ArchiveRaw,
		VersionArgs:    []string{"--version"},
		EnvOverrideVar: "BINSTALL_TOOL_JQ",
		ElevationOrder: []string{"sudo", "doas"},
	},
}

// Register adds or replaces a descriptor. Front ends use it to supply
// custom tool metadata without touching the shared workflow.
func Register(d Descriptor) {
	registry[strings.ToLower(d.Name)] = d
}

// Deregister removes a descriptor added through Register.
func Deregister(name string) {
	delete(registry, strings.ToLower(name))
}

// Lookup returns the descriptor for a tool name. Unknown names return
// core.ErrUnknownTool with close-match suggestions when any exist.
func Lookup(name string) (Descriptor, error) {
	d, ok := registry[strings.ToLower(name)]
	if !ok {
		if suggestions := Suggest(name); len(suggestions) > 0 {
			return Descriptor{}, fmt.Errorf("%w: %q (did you mean %s?)",
				core.ErrUnknownTool, name, strings.Join(suggestions, ", "))
		}
		return Descriptor{}, fmt.Errorf("%w: %q", core.ErrUnknownTool, name)
	}
	return d, nil
}

// Suggest returns registered tool names fuzzy-matching the given input,
// best match first.
func Suggest(name string) []string {
	ranks := fuzzy.RankFindNormalizedFold(name, Names())
	sort.Sort(ranks)

	suggestions := make([]string, 0, len(ranks))
	for _, r := range ranks {
		suggestions = append(suggestions, r.Target)
	}
	return suggestions
}

// Names returns all registered tool names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all descriptors sorted by name.
func All() []Descriptor {
	names := Names()
	all := make([]Descriptor, 0, len(names))
	for _, name := range names {
		all = append(all, registry[name])
	}
	return all
}
