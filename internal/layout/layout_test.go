package layout

import (
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// ── fake filesystem ──────────────────────────────────────────────────────────

// fakeFS is an in-memory tree keyed by slash paths. Directories are implied by
// their children or listed explicitly in dirs.
type fakeFS struct {
	files map[string]bool   // regular files
	dirs  map[string]bool   // explicit directories
	links map[string]string // symlink -> target
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: map[string]bool{}, dirs: map[string]bool{}, links: map[string]string{}}
}

func (f *fakeFS) addFile(p string) { f.files[p] = true }

func (f *fakeFS) isDir(p string) bool {
	if f.dirs[p] {
		return true
	}
	prefix := p + "/"
	for k := range f.files {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	for k := range f.dirs {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	for k := range f.links {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (f *fakeFS) Lstat(name string) (fs.FileInfo, error) {
	switch {
	case f.links[name] != "":
		return fakeInfo{name: filepath.Base(name), mode: fs.ModeSymlink}, nil
	case f.files[name]:
		return fakeInfo{name: filepath.Base(name)}, nil
	case f.isDir(name):
		return fakeInfo{name: filepath.Base(name), mode: fs.ModeDir}, nil
	}
	return nil, &fs.PathError{Op: "lstat", Path: name, Err: fs.ErrNotExist}
}

func (f *fakeFS) Stat(name string) (fs.FileInfo, error) {
	if t := f.links[name]; t != "" {
		return f.Stat(t)
	}
	return f.Lstat(name)
}

func (f *fakeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !f.isDir(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	seen := map[string]bool{}
	var out []fs.DirEntry
	add := func(p string) {
		rest, ok := strings.CutPrefix(p, name+"/")
		if !ok {
			return
		}
		child, _, _ := strings.Cut(rest, "/")
		if seen[child] {
			return
		}
		seen[child] = true
		info, _ := f.Lstat(name + "/" + child)
		out = append(out, fs.FileInfoToDirEntry(info))
	}
	for k := range f.files {
		add(k)
	}
	for k := range f.dirs {
		add(k)
	}
	for k := range f.links {
		add(k)
	}
	return out, nil
}

func (f *fakeFS) Readlink(name string) (string, error) {
	if t := f.links[name]; t != "" {
		return t, nil
	}
	return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
}

type fakeInfo struct {
	name string
	mode fs.FileMode
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return 0 }
func (i fakeInfo) Mode() fs.FileMode  { return i.mode }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.mode.IsDir() }
func (i fakeInfo) Sys() any           { return nil }

// ── paths ────────────────────────────────────────────────────────────────────

// TestBasePath verifies the root/publisher/name layout.
func TestBasePath(t *testing.T) {
	got := BasePath("/plugins", "acme", "my-plugin")
	want := filepath.Join("/plugins", "acme", "my-plugin")
	if got != want {
		t.Errorf("BasePath = %q, want %q", got, want)
	}
}

// TestVersionedPath verifies that dev mode drops the version segment.
func TestVersionedPath(t *testing.T) {
	base := filepath.Join("/plugins", "acme", "my-plugin")
	if got := VersionedPath(base, "1.2.3", false); got != filepath.Join(base, "1.2.3") {
		t.Errorf("VersionedPath(dev=false) = %q", got)
	}
	if got := VersionedPath(base, "1.2.3", true); got != base {
		t.Errorf("VersionedPath(dev=true) = %q, want %q", got, base)
	}
}

// ── Probe ────────────────────────────────────────────────────────────────────

// TestProbeAbsent verifies that a missing base path is Absent.
func TestProbeAbsent(t *testing.T) {
	st, err := Probe(newFakeFS(), "/p/acme/x")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if st.Kind != Absent {
		t.Errorf("Kind = %v, want absent", st.Kind)
	}
}

// TestProbeSymlinked verifies that a link is reported with its target and
// never inspected further.
func TestProbeSymlinked(t *testing.T) {
	f := newFakeFS()
	f.addFile("/dev/x/dist/index.js")
	f.links["/p/acme/x"] = "/dev/x/dist"

	st, err := Probe(f, "/p/acme/x")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if st.Kind != Symlinked || st.Target != "/dev/x/dist" {
		t.Errorf("State = %+v, want linked to /dev/x/dist", st)
	}
}

// TestProbeFlat verifies that an entry file directly under base is Flat.
func TestProbeFlat(t *testing.T) {
	f := newFakeFS()
	f.addFile("/p/acme/x/index.js")
	f.addFile("/p/acme/x/1.0.0/index.js")

	st, err := Probe(f, "/p/acme/x")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if st.Kind != Flat {
		t.Errorf("Kind = %v, want flat", st.Kind)
	}
}

// TestProbeVersioned verifies that only subdirectories holding an entry file
// are listed as versions.
func TestProbeVersioned(t *testing.T) {
	f := newFakeFS()
	f.addFile("/p/acme/x/1.0.0/index.js")
	f.addFile("/p/acme/x/2.0.0/index.js")
	f.addFile("/p/acme/x/broken/readme.md")

	st, err := Probe(f, "/p/acme/x")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if st.Kind != Versioned {
		t.Fatalf("Kind = %v, want versioned", st.Kind)
	}
	SortVersions(st.Versions)
	if !reflect.DeepEqual(st.Versions, []string{"1.0.0", "2.0.0"}) {
		t.Errorf("Versions = %v, want [1.0.0 2.0.0]", st.Versions)
	}
	if !st.HasVersion("2.0.0") || st.HasVersion("3.0.0") {
		t.Errorf("HasVersion mismatch for %v", st.Versions)
	}
}

// TestProbeEmptyDirectory verifies that a real directory without entries is
// Versioned with no versions.
func TestProbeEmptyDirectory(t *testing.T) {
	f := newFakeFS()
	f.dirs["/p/acme/x"] = true

	st, err := Probe(f, "/p/acme/x")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if st.Kind != Versioned || len(st.Versions) != 0 {
		t.Errorf("State = %+v, want versioned with no versions", st)
	}
}

// TestProbeRealFilesystem verifies Probe against an actual directory tree and
// symlink.
func TestProbeRealFilesystem(t *testing.T) {
	root := t.TempDir()
	dist := filepath.Join(root, "src", "dist")
	if err := os.MkdirAll(dist, 0o755); err != nil {
		t.Fatal(err)
	}
	base := BasePath(root, "acme", "x")
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(dist, base); err != nil {
		t.Fatal(err)
	}

	st, err := Probe(OS, base)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if st.Kind != Symlinked || st.Target != dist {
		t.Errorf("State = %+v, want linked to %s", st, dist)
	}
}

// ── Scan ─────────────────────────────────────────────────────────────────────

// TestScanListsEveryKind verifies that Scan reports each plugin under the
// root with its probed state and skips hidden entries.
func TestScanListsEveryKind(t *testing.T) {
	f := newFakeFS()
	f.addFile("/p/acme/flat/index.js")
	f.addFile("/p/acme/ver/10.0.0/index.js")
	f.addFile("/p/acme/ver/9.0.0/index.js")
	f.links["/p/other/linked"] = "/src/dist"
	f.addFile("/p/.cache/junk/index.js")

	got, err := Scan(f, "/p")
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	kinds := map[string]Kind{}
	for _, in := range got {
		kinds[in.ID()] = in.State.Kind
		if in.ID() == "acme/ver" && !reflect.DeepEqual(in.State.Versions, []string{"9.0.0", "10.0.0"}) {
			t.Errorf("acme/ver versions = %v, want semver order", in.State.Versions)
		}
	}
	want := map[string]Kind{"acme/flat": Flat, "acme/ver": Versioned, "other/linked": Symlinked}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("Scan kinds = %v, want %v", kinds, want)
	}
}

// TestScanMissingRoot verifies that a missing target root yields no plugins.
func TestScanMissingRoot(t *testing.T) {
	got, err := Scan(newFakeFS(), "/nowhere")
	if err != nil || len(got) != 0 {
		t.Errorf("Scan(missing) = %v, %v; want empty, nil", got, err)
	}
}

// TestSortVersionsInvalidLast verifies that unparsable names sort after
// valid versions.
func TestSortVersionsInvalidLast(t *testing.T) {
	v := []string{"zeta", "1.10.0", "1.2.0", "1.2.0-beta.1", "alpha"}
	SortVersions(v)
	want := []string{"1.2.0-beta.1", "1.2.0", "1.10.0", "alpha", "zeta"}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("SortVersions = %v, want %v", v, want)
	}
}

// ── copy helpers ─────────────────────────────────────────────────────────────

// TestCopyDirPreservesTree verifies nested files, modes and skipped names.
func TestCopyDirPreservesTree(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(src, "node_modules", "dep"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(src, "run.sh"), []byte("#!/bin/sh\n"), 0o755)
	os.WriteFile(filepath.Join(src, "nested", "a.txt"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(src, "node_modules", "dep", "x.js"), []byte("x"), 0o644)

	dest := filepath.Join(t.TempDir(), "out")
	skip := func(name string) bool { return name == "node_modules" }
	if err := CopyDir(src, dest, skip); err != nil {
		t.Fatalf("CopyDir() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "nested", "a.txt"))
	if err != nil || string(data) != "a" {
		t.Errorf("nested/a.txt = %q, %v", data, err)
	}
	info, err := os.Stat(filepath.Join(dest, "run.sh"))
	if err != nil || info.Mode().Perm()&0o100 == 0 {
		t.Errorf("run.sh mode not preserved: %v, %v", info, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "node_modules")); !os.IsNotExist(err) {
		t.Errorf("node_modules copied despite skip, err = %v", err)
	}
}

// TestPruneEmpty verifies that only empty directories are removed.
func TestPruneEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	os.MkdirAll(empty, 0o755)
	os.MkdirAll(full, 0o755)
	os.WriteFile(filepath.Join(full, "f"), nil, 0o644)

	if removed, err := PruneEmpty(empty); err != nil || !removed {
		t.Errorf("PruneEmpty(empty) = %v, %v; want true, nil", removed, err)
	}
	if removed, err := PruneEmpty(full); err != nil || removed {
		t.Errorf("PruneEmpty(full) = %v, %v; want false, nil", removed, err)
	}
	if removed, err := PruneEmpty(filepath.Join(dir, "missing")); err != nil || removed {
		t.Errorf("PruneEmpty(missing) = %v, %v; want false, nil", removed, err)
	}
}

// TestMatch verifies fuzzy filtering by publisher/name.
func TestMatch(t *testing.T) {
	plugins := []Installed{
		{Publisher: "acme", Name: "my-plugin"},
		{Publisher: "acme", Name: "other"},
		{Publisher: "zeta.io", Name: "charts"},
	}
	if got := Match(plugins, ""); len(got) != 3 {
		t.Errorf("Match(\"\") returned %d plugins, want 3", len(got))
	}
	got := Match(plugins, "mypl")
	if len(got) != 1 || got[0].ID() != "acme/my-plugin" {
		t.Errorf("Match(mypl) = %v, want acme/my-plugin", got)
	}
	if got := Match(plugins, "ZETA"); len(got) != 1 || got[0].Name != "charts" {
		t.Errorf("Match(ZETA) = %v, want zeta.io/charts", got)
	}
	if got := Match(plugins, "xyz"); len(got) != 0 {
		t.Errorf("Match(xyz) = %v, want none", got)
	}
}
