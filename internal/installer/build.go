package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kb-labs/plugins/internal/manifest"
	"github.com/kb-labs/plugins/internal/pm"
)

// buildFallback builds a package fetched from source. Dependencies are
// installed first; packages with a prepare hook build themselves during that
// step, otherwise the build script runs explicitly when present. Toolchain
// exit codes are only logged: the entry point existing afterwards is what
// counts.
func (ins *Installer) buildFallback(ctx context.Context, dir string, p *manifest.Plugin) error {
	entry := filepath.Join(p.DistDir, p.MainEntryFilename)
	if ins.PM == nil {
		return fmt.Errorf("%w: %s is missing and no package manager is available", ErrBuildFailed, entry)
	}
	ins.Log.Printf("%s not found, building %s from source with %s", entry, p, ins.PM.Name())

	err := ins.runGroup(func(ch chan<- pm.Progress) error {
		return ins.PM.InstallDependencies(ctx, dir, ch)
	})
	if err != nil {
		ins.Log.Warnf("installing dependencies of %s: %v", p, err)
	}

	if !p.HasPrepareHook && p.HasBuildHook {
		err := ins.runGroup(func(ch chan<- pm.Progress) error {
			return ins.PM.RunScript(ctx, dir, "build", ch)
		})
		if err != nil {
			ins.Log.Warnf("running build script of %s: %v", p, err)
		}
	}

	if !fileExists(filepath.Join(dir, entry)) {
		return fmt.Errorf("%w: %s still missing after building %s with %s", ErrBuildFailed, entry, p, ins.PM.Name())
	}
	return nil
}
