package layout

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// FS is the subset of filesystem calls the probe needs.
// OS implements it with the os package; tests substitute an in-memory tree.
type FS interface {
	Lstat(name string) (fs.FileInfo, error)
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Readlink(name string) (string, error)
}

// OS is the real filesystem.
var OS FS = osFS{}

type osFS struct{}

func (osFS) Lstat(name string) (fs.FileInfo, error)     { return os.Lstat(name) }
func (osFS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (osFS) Readlink(name string) (string, error)       { return os.Readlink(name) }

// Kind is the installed-state kind found at a base path.
type Kind int

const (
	Absent    Kind = iota // nothing at the base path
	Symlinked             // base path is a symbolic link (dev-link)
	Flat                  // real directory with the entry file directly inside
	Versioned             // real directory holding version subdirectories
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Symlinked:
		return "linked"
	case Flat:
		return "flat"
	case Versioned:
		return "versioned"
	}
	return "unknown"
}

// State is the result of probing one base path.
type State struct {
	// Target is the link destination when Kind is Symlinked.
	Target string
	// Versions lists subdirectories containing an entry file when Kind is
	// Versioned. It may be empty for a leftover directory.
	Versions []string
	Kind     Kind
}

// HasVersion reports whether version is installed in a versioned layout.
func (s State) HasVersion(version string) bool {
	return s.Kind == Versioned && slices.Contains(s.Versions, version)
}

// Probe inspects base and classifies it. Only unexpected filesystem errors
// are returned; a missing path is reported as Absent.
func Probe(fsys FS, base string) (State, error) {
	info, err := fsys.Lstat(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{Kind: Absent}, nil
		}
		return State{}, err
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := fsys.Readlink(base)
		if err != nil {
			return State{}, err
		}
		return State{Kind: Symlinked, Target: target}, nil
	}

	if !info.IsDir() {
		// A stray file where a plugin directory belongs; treat it like a flat
		// install so callers replace or remove it wholesale.
		return State{Kind: Flat}, nil
	}

	if isFile(fsys, filepath.Join(base, EntryFile)) {
		return State{Kind: Flat}, nil
	}

	entries, err := fsys.ReadDir(base)
	if err != nil {
		return State{}, err
	}
	st := State{Kind: Versioned}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if isFile(fsys, filepath.Join(base, e.Name(), EntryFile)) {
			st.Versions = append(st.Versions, e.Name())
		}
	}
	return st, nil
}

func isFile(fsys FS, path string) bool {
	info, err := fsys.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
