package installer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kb-labs/plugins/internal/layout"
	"github.com/kb-labs/plugins/internal/manifest"
)

// LinkResult is returned after a successful Link.
type LinkResult struct {
	Plugin *manifest.Plugin
	// BasePath is the symlink; Target is the dist directory it points at.
	BasePath string
	Target   string
}

// Link points root/publisher/name at the built dist directory of the local
// plugin in dir. The plugin must already be built and its entry point must
// already be named index.js. Whatever was at the base path is replaced.
func (ins *Installer) Link(root, dir string) (*LinkResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
	}
	p, err := manifest.Read(abs)
	if err != nil {
		return nil, err
	}

	if p.MainEntryFilename != layout.EntryFile {
		return nil, fmt.Errorf("%w: %s declares main %q; linked plugins must build to %s",
			ErrNonCanonicalEntryName, p, filepath.Join(p.DistDir, p.MainEntryFilename), layout.EntryFile)
	}
	target := filepath.Join(abs, p.DistDir)
	if !fileExists(filepath.Join(target, p.MainEntryFilename)) {
		return nil, fmt.Errorf("%w: %s not found; build %s before linking",
			ErrBuildOutputMissing, filepath.Join(target, p.MainEntryFilename), p)
	}

	base := layout.BasePath(root, p.Publisher, p.PluginName)
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
	}
	if err := os.RemoveAll(base); err != nil {
		return nil, fmt.Errorf("%w: remove previous install: %w", ErrInstallIO, err)
	}
	if err := os.Symlink(target, base); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
	}

	ins.Log.Printf("linked %s -> %s", base, target)
	return &LinkResult{Plugin: p, BasePath: base, Target: target}, nil
}
