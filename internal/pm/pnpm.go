package pm

import "context"

// PnpmManager implements PackageManager using pnpm.
type PnpmManager struct{}

func (p *PnpmManager) Name() string { return "pnpm" }

func (p *PnpmManager) InstallDependencies(ctx context.Context, dir string, progress chan<- Progress) error {
	// --ignore-workspace: a fetched package must not attach to a workspace
	// found in some parent of the temp directory.
	return run(ctx, "pnpm", dir, []string{"install", "--dir", dir, "--ignore-workspace"}, progress)
}

func (p *PnpmManager) RunScript(ctx context.Context, dir, script string, progress chan<- Progress) error {
	return run(ctx, "pnpm", dir, []string{"--dir", dir, "run", script}, progress)
}
