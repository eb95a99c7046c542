package core

import "errors"

// Error taxonomy for the installer pipeline. Commands match on these with
// errors.Is to pick exit codes and user-facing hints; lower layers wrap them
// with %w and context.
var (
	// ErrUnknownTool is returned when the requested tool has no descriptor.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnsupportedPlatform is returned when the local OS/arch pair has no
	// release artifact. Raised before any network activity.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrElevationUnavailable is returned when elevated privileges are
	// required but no elevation command exists. Fatal for the whole run.
	ErrElevationUnavailable = errors.New("elevation required but unavailable")

	// ErrVersionLookupFailed is returned when the version index is
	// unreachable or its payload is malformed.
	ErrVersionLookupFailed = errors.New("version lookup failed")

	// ErrDownloaderUnavailable is returned when every downloader backend was
	// tried and none is usable.
	ErrDownloaderUnavailable = errors.New("no downloader available")

	// ErrFetchFailed is returned for transport errors and non-success HTTP
	// statuses.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrFetchTimeout is returned when a download exceeds its deadline.
	ErrFetchTimeout = errors.New("fetch timed out")

	// ErrExtractionFailed is returned when an archive cannot be unpacked or
	// contains no matching executable.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrInstallWriteFailed is returned when the destination cannot be
	// written even after elevation.
	ErrInstallWriteFailed = errors.New("install write failed")

	// ErrPostInstallVerification is a warning-grade error: the installed
	// binary did not report its version. The run still succeeds.
	ErrPostInstallVerification = errors.New("post-install verification failed")
)
