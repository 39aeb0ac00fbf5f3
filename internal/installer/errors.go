package installer

import "errors"

var (
	// ErrBuildFailed is returned when the build fallback ran but the entry
	// point still does not exist.
	ErrBuildFailed = errors.New("build failed")
	// ErrBuildOutputMissing is returned by Link when the plugin has not been
	// built yet.
	ErrBuildOutputMissing = errors.New("build output missing")
	// ErrNonCanonicalEntryName is returned by Link when "main" is not index.js.
	ErrNonCanonicalEntryName = errors.New("entry point is not index.js")
	// ErrInstallIO wraps filesystem failures after validation passed.
	ErrInstallIO = errors.New("install I/O error")
)
