package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

var commitPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

func (r *Resolver) resolveGit(ctx context.Context, ref Ref) (*Info, error) {
	args := []string{"ls-remote", ref.URL}
	if ref.Commitish != "" && !commitPattern.MatchString(ref.Commitish) {
		args = append(args, ref.Commitish)
	}
	out, err := r.git(ctx, "", args...)
	if err != nil {
		return nil, err
	}
	if ref.Commitish != "" && !commitPattern.MatchString(ref.Commitish) && out == "" {
		return nil, fmt.Errorf("%s has no branch or tag %q", ref.URL, ref.Commitish)
	}
	name := strings.TrimSuffix(filepath.Base(ref.URL), ".git")
	return &Info{Name: name, Version: ref.Commitish, Location: ref.URL}, nil
}

func (r *Resolver) fetchGit(ctx context.Context, ref Ref, dest string) error {
	switch {
	case ref.Commitish == "":
		if _, err := r.git(ctx, "", "clone", "--depth", "1", ref.URL, dest); err != nil {
			return err
		}
	case commitPattern.MatchString(ref.Commitish):
		// Shallow clones cannot check out an arbitrary commit.
		if _, err := r.git(ctx, "", "clone", ref.URL, dest); err != nil {
			return err
		}
		if _, err := r.git(ctx, dest, "checkout", "--quiet", ref.Commitish); err != nil {
			return err
		}
	default:
		if _, err := r.git(ctx, "", "clone", "--depth", "1", "--branch", ref.Commitish, ref.URL, dest); err != nil {
			return err
		}
	}
	return os.RemoveAll(filepath.Join(dest, ".git"))
}

// git runs a git command and returns trimmed stdout. stderr is folded into
// the error so authentication and network failures stay readable.
func (r *Resolver) git(ctx context.Context, dir string, args ...string) (string, error) {
	bin := r.Git
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s failed: %s", args[0], msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}
