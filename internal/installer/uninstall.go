package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kb-labs/plugins/internal/layout"
	"github.com/kb-labs/plugins/internal/manifest"
	"github.com/kb-labs/plugins/internal/naming"
)

// Removed tells what an uninstall took away.
type Removed int

const (
	RemovedNothing Removed = iota // no matching install; not an error
	RemovedLink                   // a dev-link
	RemovedBase                   // the whole plugin directory
	RemovedVersion                // one version directory
)

func (r Removed) String() string {
	switch r {
	case RemovedNothing:
		return "nothing"
	case RemovedLink:
		return "link"
	case RemovedBase:
		return "all versions"
	case RemovedVersion:
		return "version"
	}
	return "unknown"
}

// Removal is returned by Uninstall and Remove.
type Removal struct {
	ID      string // publisher/name
	Version string
	Base    string
	// Path is what was deleted; empty when nothing was.
	Path    string
	Removed Removed
}

const uninstallSteps = 3

// Uninstall re-derives the identity of id from its manifest and removes the
// matching install under root. With all set every version goes, provided
// the resolved one is installed; a flat install or a dev-link is always
// removed whole.
func (ins *Installer) Uninstall(ctx context.Context, ws *Workspace, root, id string, all bool) (*Removal, error) {
	pkgDir, release, err := ins.fetch(ctx, ws, id, uninstallSteps)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := manifest.Read(pkgDir)
	if err != nil {
		return nil, err
	}
	ins.Log.Printf("resolved %s (%s)", p, id)

	ins.step(3, uninstallSteps, "Removing "+p.String())
	return ins.Remove(root, p.Publisher, p.PluginName, p.Version, all)
}

// Remove deletes the install of publisher/name under root. A versioned
// install is only touched when version is installed; all then removes every
// version instead of just that one.
// Emptied plugin and publisher directories are pruned; root never is.
func (ins *Installer) Remove(root, publisher, name, version string, all bool) (*Removal, error) {
	if err := naming.ValidatePublisher(publisher); err != nil {
		return nil, err
	}
	if err := naming.ValidatePluginName(name); err != nil {
		return nil, err
	}

	base := layout.BasePath(root, publisher, name)
	rm := &Removal{ID: publisher + "/" + name, Version: version, Base: base}

	st, err := layout.Probe(ins.fsys(), base)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %w", ErrInstallIO, base, err)
	}

	switch st.Kind {
	case layout.Symlinked:
		if err := os.Remove(base); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
		}
		rm.Path, rm.Removed = base, RemovedLink

	case layout.Flat:
		if err := os.RemoveAll(base); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
		}
		rm.Path, rm.Removed = base, RemovedBase

	case layout.Versioned:
		switch {
		case all && st.HasVersion(version):
			if err := os.RemoveAll(base); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
			}
			rm.Path, rm.Removed = base, RemovedBase
		case !all && st.HasVersion(version):
			path := layout.VersionedPath(base, version, false)
			if err := os.RemoveAll(path); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
			}
			rm.Path, rm.Removed = path, RemovedVersion
		}
	}

	if rm.Removed == RemovedNothing {
		if version == "" {
			ins.Log.Warnf("%s is not installed under %s", rm.ID, root)
		} else {
			ins.Log.Warnf("%s@%s is not installed under %s", rm.ID, version, root)
		}
		return rm, nil
	}
	ins.Log.Printf("removed %s (%s)", rm.Path, rm.Removed)

	if err := prune(base, filepath.Dir(base)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
	}
	return rm, nil
}

// prune removes each dir in order while it is empty and stops at the first
// one that is not.
func prune(dirs ...string) error {
	for _, dir := range dirs {
		removed, err := layout.PruneEmpty(dir)
		if err != nil {
			return err
		}
		if !removed {
			if _, statErr := os.Stat(dir); statErr == nil {
				return nil
			}
		}
	}
	return nil
}
