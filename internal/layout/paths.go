// Package layout maps plugin identities to install locations under a target
// root and reports what is currently installed there.
//
// The filesystem is the only install record: every operation probes the tree
// instead of consulting stored metadata.
package layout

import "path/filepath"

const (
	// EntryFile is the canonical entry point name at every install location.
	EntryFile = "index.js"
	// SourceMapFile is the companion source map of EntryFile.
	SourceMapFile = EntryFile + ".map"
)

// BasePath returns root/publisher/name.
func BasePath(root, publisher, name string) string {
	return filepath.Join(root, publisher, name)
}

// VersionedPath returns base in dev mode and base/version otherwise.
func VersionedPath(base, version string, dev bool) string {
	if dev {
		return base
	}
	return filepath.Join(base, version)
}
