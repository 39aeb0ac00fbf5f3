// Package source turns a package identifier into a local directory holding
// the package contents. Identifiers may be registry references
// (name, name@1.2.x, @scope/name@latest), git references
// (github:owner/repo#v1, git+https://host/repo.git, owner/repo), local
// directories or local npm tarballs.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrResolutionFailed wraps every failure to resolve or fetch an identifier.
var ErrResolutionFailed = errors.New("package source resolution failed")

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

// Kind tells how an identifier is materialized.
type Kind int

const (
	Registry Kind = iota
	Git
	LocalDir
	Tarball
)

func (k Kind) String() string {
	switch k {
	case Registry:
		return "registry"
	case Git:
		return "git"
	case LocalDir:
		return "directory"
	case Tarball:
		return "tarball"
	}
	return "unknown"
}

// Ref is a parsed package identifier.
type Ref struct {
	Raw  string
	Kind Kind
	// Path is set for LocalDir and Tarball.
	Path string
	// URL and Commitish are set for Git.
	URL       string
	Commitish string
	// Name and Spec are set for Registry; Spec is a version, range or dist-tag.
	Name string
	Spec string
}

// Info is what Resolve learns about a package without fetching it.
type Info struct {
	Name     string
	Version  string
	Location string
	Kind     Kind
}

// Source resolves and fetches package identifiers.
type Source interface {
	// Resolve checks that id can be fetched and reports what it points at.
	Resolve(ctx context.Context, id string) (*Info, error)
	// Fetch materializes the package root of id at dest, which must not exist
	// or be empty.
	Fetch(ctx context.Context, id, dest string) error
}

var (
	registryName = regexp.MustCompile(`^(?:@[a-z0-9~-][a-z0-9._~-]*/)?[a-z0-9~-][a-z0-9._~-]*$`)
	githubShort  = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

// Parse classifies id. Paths that exist on disk win over every other reading.
func Parse(id string) (Ref, error) {
	raw := id
	id = strings.TrimSpace(id)
	if id == "" {
		return Ref{}, fmt.Errorf("%w: empty package identifier", ErrResolutionFailed)
	}

	if p, ok := strings.CutPrefix(id, "file:"); ok {
		return parsePath(raw, p)
	}
	if _, err := os.Stat(id); err == nil {
		return parsePath(raw, id)
	}
	if strings.HasPrefix(id, ".") || strings.HasPrefix(id, "/") || strings.HasPrefix(id, "~") || filepath.IsAbs(id) {
		return Ref{}, fmt.Errorf("%w: no such file or directory %s", ErrResolutionFailed, id)
	}

	if ref, ok := parseGit(raw, id); ok {
		return ref, nil
	}

	name, spec := splitRegistrySpec(id)
	if !registryName.MatchString(name) {
		return Ref{}, fmt.Errorf("%w: %q is not a registry name, git reference or path", ErrResolutionFailed, id)
	}
	return Ref{Raw: raw, Kind: Registry, Name: name, Spec: spec}, nil
}

func parsePath(raw, p string) (Ref, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	if info.IsDir() {
		return Ref{Raw: raw, Kind: LocalDir, Path: abs}, nil
	}
	if strings.HasSuffix(abs, ".tgz") || strings.HasSuffix(abs, ".tar.gz") {
		return Ref{Raw: raw, Kind: Tarball, Path: abs}, nil
	}
	return Ref{}, fmt.Errorf("%w: %s is neither a directory nor a .tgz tarball", ErrResolutionFailed, p)
}

func parseGit(raw, id string) (Ref, bool) {
	repo, commitish, _ := strings.Cut(id, "#")
	switch {
	case strings.HasPrefix(repo, "git+"):
		repo = strings.TrimPrefix(repo, "git+")
	case strings.HasPrefix(repo, "github:"):
		repo = "https://github.com/" + strings.TrimSuffix(strings.TrimPrefix(repo, "github:"), ".git") + ".git"
	case strings.HasPrefix(repo, "git://"), strings.HasPrefix(repo, "ssh://"), strings.HasPrefix(repo, "git@"):
	case strings.HasSuffix(repo, ".git") && strings.Contains(repo, "://"):
	case !strings.HasPrefix(repo, "@") && githubShort.MatchString(repo):
		repo = "https://github.com/" + strings.TrimSuffix(repo, ".git") + ".git"
	default:
		return Ref{}, false
	}
	return Ref{Raw: raw, Kind: Git, URL: repo, Commitish: commitish}, true
}

// splitRegistrySpec splits "name@spec" and "@scope/name@spec".
func splitRegistrySpec(id string) (name, spec string) {
	at := strings.LastIndex(id, "@")
	if at <= 0 {
		return id, ""
	}
	return id[:at], id[at+1:]
}

// Resolver is the default Source. The zero value is not usable; call New.
type Resolver struct {
	Registry string
	Client   *http.Client
	// Git is the git executable, "git" by default.
	Git string

	packuments map[string]*packument
}

// New returns a Resolver backed by the given registry URL.
func New(registry string) *Resolver {
	if registry == "" {
		registry = DefaultRegistry
	}
	return &Resolver{
		Registry:   strings.TrimSuffix(registry, "/"),
		Client:     &http.Client{Timeout: 60 * time.Second},
		Git:        "git",
		packuments: make(map[string]*packument),
	}
}

// Resolve implements Source.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Info, error) {
	ref, err := Parse(id)
	if err != nil {
		return nil, err
	}
	var info *Info
	switch ref.Kind {
	case LocalDir:
		info, err = resolveDir(ref)
	case Tarball:
		info = &Info{Name: filepath.Base(ref.Path), Location: ref.Path}
	case Git:
		info, err = r.resolveGit(ctx, ref)
	case Registry:
		info, err = r.resolveRegistry(ctx, ref)
	}
	if err != nil {
		return nil, wrap(id, err)
	}
	info.Kind = ref.Kind
	return info, nil
}

// Fetch implements Source.
func (r *Resolver) Fetch(ctx context.Context, id, dest string) error {
	ref, err := Parse(id)
	if err != nil {
		return err
	}
	switch ref.Kind {
	case LocalDir:
		err = fetchDir(ref, dest)
	case Tarball:
		err = fetchTarball(ref, dest)
	case Git:
		err = r.fetchGit(ctx, ref, dest)
	case Registry:
		err = r.fetchRegistry(ctx, ref, dest)
	}
	if err != nil {
		return wrap(id, err)
	}
	return nil
}

func wrap(id string, err error) error {
	if errors.Is(err, ErrResolutionFailed) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrResolutionFailed, id, err)
}
