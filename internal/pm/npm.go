package pm

import "context"

// NpmManager implements PackageManager using npm.
type NpmManager struct{}

func (n *NpmManager) Name() string { return "npm" }

func (n *NpmManager) InstallDependencies(ctx context.Context, dir string, progress chan<- Progress) error {
	// Dev dependencies are needed to build from source.
	return run(ctx, "npm", dir, []string{"install", "--include=dev", "--no-audit", "--no-fund"}, progress)
}

func (n *NpmManager) RunScript(ctx context.Context, dir, script string, progress chan<- Progress) error {
	return run(ctx, "npm", dir, []string{"run", script}, progress)
}
