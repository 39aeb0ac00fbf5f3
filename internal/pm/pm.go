// Package pm abstracts node package manager operations behind a common interface.
// Use Detect() to obtain the appropriate manager for the current environment.
package pm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Progress carries one raw output line from a package manager subprocess.
type Progress struct {
	Line string
}

// PackageManager runs the build toolchain inside a fetched package.
// All methods run synchronously and stream output lines via the channel.
// The caller owns the channel and closes it after the call returns.
type PackageManager interface {
	// Name returns "npm" or "pnpm".
	Name() string
	// InstallDependencies installs the package's own dependencies in dir.
	InstallDependencies(ctx context.Context, dir string, progress chan<- Progress) error
	// RunScript runs a package.json script in dir.
	RunScript(ctx context.Context, dir, script string, progress chan<- Progress) error
}

// Detect returns pnpm if available, otherwise npm.
func Detect() PackageManager {
	if _, err := exec.LookPath("pnpm"); err == nil {
		return &PnpmManager{}
	}
	return &NpmManager{}
}

// ByName returns the manager called name, or Detect() for "" and "auto".
func ByName(name string) (PackageManager, error) {
	switch name {
	case "", "auto":
		return Detect(), nil
	case "npm":
		return &NpmManager{}, nil
	case "pnpm":
		return &PnpmManager{}, nil
	}
	return nil, fmt.Errorf("unknown package manager %q (want npm, pnpm or auto)", name)
}

// run starts bin with args in dir and streams stdout and stderr as progress lines.
func run(ctx context.Context, bin, dir string, args []string, progress chan<- Progress) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", bin, err)
	}

	done := make(chan struct{}, 2)
	pipe := func(r io.Reader) {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimSpace(line) != "" && progress != nil {
				progress <- Progress{Line: line}
			}
		}
		done <- struct{}{}
	}
	go pipe(stdout)
	go pipe(stderr)
	<-done
	<-done

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return nil
}
