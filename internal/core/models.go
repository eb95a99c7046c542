package core

import "time"

// Scope determines whether an install targets the current user or the whole
// machine.
type Scope string

const (
	ScopeUser   Scope = "user"
	ScopeSystem Scope = "system"
)

// ArchiveKind describes how a release artifact is packaged.
type ArchiveKind string

const (
	ArchiveRaw   ArchiveKind = "raw" // standalone executable, no unpacking
	ArchiveTarGz ArchiveKind = "tar.gz"
	ArchiveTarXz ArchiveKind = "tar.xz"
	ArchiveZip   ArchiveKind = "zip"
)

// InstallRequest is the validated input of one installer run. It is
// constructed once by the CLI layer and never mutated afterwards.
type InstallRequest struct {
	Tool        string
	Version     string // empty means "resolve latest"
	DestDir     string // empty means per-OS, per-scope default
	Scope       Scope
	PreserveEnv bool
	Quiet       bool
}

// ResolvedVersion is the output of version resolution: a concrete version
// string plus the download URL derived from the tool's template.
type ResolvedVersion struct {
	Version string
	URL     string
	Kind    ArchiveKind
}

// ElevationContext reports whether elevated privileges are needed to write
// the destination and which command provides them. Required=false implies
// Command is empty.
type ElevationContext struct {
	Required bool
	Command  string
	Scope    Scope
}

// InstalledArtifact is the terminal state of a successful run.
type InstalledArtifact struct {
	Tool    string
	Path    string
	Version string // as reported by the binary itself, best effort
	DestDir string
}

// InstallRecord is one row of the install manifest.
type InstallRecord struct {
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	Scope       string    `json:"scope"`
	InstallDate time.Time `json:"install_date"`
}

// Exit codes (align with the CLI contract)
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)
