// Package installer places plugin packages under a target root, removes them
// and dev-links local builds. It delegates fetching to a source.Source and
// building to a pm.PackageManager; the target tree itself is the only record
// of what is installed.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kb-labs/plugins/internal/layout"
	"github.com/kb-labs/plugins/internal/logger"
	"github.com/kb-labs/plugins/internal/manifest"
	"github.com/kb-labs/plugins/internal/pm"
	"github.com/kb-labs/plugins/internal/source"
)

// Installer installs, uninstalls and links plugins.
type Installer struct {
	Source source.Source
	PM     pm.PackageManager
	Log    *logger.Logger
	// FS is used to probe install state; nil means layout.OS.
	FS     layout.FS
	OnStep func(step, total int, label string) // called at each named stage
	OnLine func(line string)                   // called for each raw output line from pm
}

// Result is returned after a successful Install.
type Result struct {
	Plugin *manifest.Plugin
	// Path is the install location holding index.js.
	Path     string
	BasePath string
	// Replaced is the kind of prior install that was cleared to make room,
	// Absent when nothing was.
	Replaced layout.Kind
}

const installSteps = 4

// Install fetches id, builds it if needed and copies its distributable
// directory to root/publisher/name[/version]. In dev mode the version level
// is skipped and whatever was at the base path is replaced.
func (ins *Installer) Install(ctx context.Context, ws *Workspace, root, id string, dev bool) (*Result, error) {
	pkgDir, release, err := ins.fetch(ctx, ws, id, installSteps)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := manifest.Read(pkgDir)
	if err != nil {
		return nil, err
	}
	ins.Log.Printf("resolved %s (%s)", p, id)

	ins.step(3, installSteps, fmt.Sprintf("Checking build output of %s", p))
	entry := filepath.Join(pkgDir, p.DistDir, p.MainEntryFilename)
	if !fileExists(entry) {
		if err := ins.buildFallback(ctx, pkgDir, p); err != nil {
			return nil, err
		}
	}

	base := layout.BasePath(root, p.Publisher, p.PluginName)
	path := layout.VersionedPath(base, p.Version, dev)
	ins.step(4, installSteps, fmt.Sprintf("Installing %s to %s", p, path))

	replaced, err := ins.reconcile(base, path, p.Version, dev)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
	}
	if err := layout.CopyDir(filepath.Join(pkgDir, p.DistDir), path, nil); err != nil {
		return nil, fmt.Errorf("%w: copy %s: %w", ErrInstallIO, p.DistDir, err)
	}
	if err := canonicalizeEntry(path, p.MainEntryFilename); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInstallIO, err)
	}

	ins.Log.Printf("installed %s at %s", p, path)
	return &Result{Plugin: p, Path: path, BasePath: base, Replaced: replaced}, nil
}

// reconcile clears stale state at base so path can be written. Other version
// directories of a versioned install are kept.
func (ins *Installer) reconcile(base, path, version string, dev bool) (layout.Kind, error) {
	st, err := layout.Probe(ins.fsys(), base)
	if err != nil {
		return layout.Absent, fmt.Errorf("probe %s: %w", base, err)
	}

	switch st.Kind {
	case layout.Symlinked:
		ins.Log.Printf("replacing dev-link %s -> %s", base, st.Target)
		if err := os.Remove(base); err != nil {
			return layout.Absent, err
		}
		return layout.Symlinked, nil

	case layout.Flat:
		ins.Log.Printf("replacing flat install at %s", base)
		if err := os.RemoveAll(base); err != nil {
			return layout.Absent, err
		}
		return layout.Flat, nil

	case layout.Versioned:
		if dev {
			ins.Log.Printf("replacing versioned install at %s with a dev install", base)
			if err := os.RemoveAll(base); err != nil {
				return layout.Absent, err
			}
			return layout.Versioned, nil
		}
		// A leftover or same-version directory is overwritten from scratch.
		if err := os.RemoveAll(path); err != nil {
			return layout.Absent, err
		}
		if st.HasVersion(version) {
			ins.Log.Printf("reinstalling %s", path)
			return layout.Versioned, nil
		}
	}
	return layout.Absent, nil
}

// canonicalizeEntry renames the entry file and its source map to index.js
// and index.js.map.
func canonicalizeEntry(dir, entry string) error {
	if entry == layout.EntryFile {
		return nil
	}
	if err := os.Rename(filepath.Join(dir, entry), filepath.Join(dir, layout.EntryFile)); err != nil {
		return fmt.Errorf("rename entry point: %w", err)
	}
	srcMap := filepath.Join(dir, entry+".map")
	if !fileExists(srcMap) {
		return nil
	}
	if err := os.Rename(srcMap, filepath.Join(dir, layout.SourceMapFile)); err != nil {
		return fmt.Errorf("rename source map: %w", err)
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// fetch resolves id and materializes it in a fresh cache directory of ws.
// The returned release func must be called once the package is no longer
// needed.
func (ins *Installer) fetch(ctx context.Context, ws *Workspace, id string, total int) (string, func(), error) {
	ins.step(1, total, "Resolving "+id)
	info, err := ins.Source.Resolve(ctx, id)
	if err != nil {
		return "", nil, err
	}
	label := info.Name
	if info.Version != "" {
		label += "@" + info.Version
	}
	if info.Location != "" {
		ins.Log.Printf("%s resolves to %s via %s at %s", id, label, info.Kind, info.Location)
	} else {
		ins.Log.Printf("%s resolves to %s via %s", id, label, info.Kind)
	}

	cache, release, err := ws.Acquire()
	if err != nil {
		return "", nil, err
	}
	ins.step(2, total, "Fetching "+label)
	pkgDir := filepath.Join(cache, "package")
	if err := ins.Source.Fetch(ctx, id, pkgDir); err != nil {
		release()
		return "", nil, err
	}
	return pkgDir, release, nil
}

func (ins *Installer) step(n, total int, label string) {
	ins.Log.Printf("[%d/%d] %s", n, total, label)
	if ins.OnStep != nil {
		ins.OnStep(n, total, label)
	}
}

// runGroup runs op with a progress channel, draining lines to the log and
// forwarding each to OnLine if set. It waits for the drain goroutine so no
// buffered output is lost.
func (ins *Installer) runGroup(op func(chan<- pm.Progress) error) error {
	ch := make(chan pm.Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range ch {
			if p.Line == "" {
				continue
			}
			ins.Log.Printf("  %s", p.Line)
			if ins.OnLine != nil {
				ins.OnLine(p.Line)
			}
		}
	}()
	err := op(ch)
	close(ch)
	<-done
	return err
}

func (ins *Installer) fsys() layout.FS {
	if ins.FS != nil {
		return ins.FS
	}
	return layout.OS
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
