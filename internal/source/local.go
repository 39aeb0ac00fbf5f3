package source

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/kb-labs/plugins/internal/layout"
)

// resolveDir reads name and version from a local package without validating
// the plugin contract; that happens after fetch.
func resolveDir(ref Ref) (*Info, error) {
	info := &Info{Name: filepath.Base(ref.Path), Location: ref.Path}
	data, err := os.ReadFile(filepath.Join(ref.Path, "package.json"))
	if err != nil {
		return info, nil
	}
	var meta struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if json.Unmarshal(data, &meta) == nil && meta.Name != "" {
		info.Name = meta.Name
		info.Version = meta.Version
	}
	return info, nil
}

func fetchDir(ref Ref, dest string) error {
	return layout.CopyDir(ref.Path, dest, func(name string) bool {
		return name == "node_modules" || name == ".git"
	})
}

func fetchTarball(ref Ref, dest string) error {
	f, err := os.Open(ref.Path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return extractTarGz(f, dest)
}

// extractTarGz unpacks an npm-style tarball into dest. The single top-level
// directory every npm tarball carries ("package/") is stripped. Entries that
// would land outside dest are rejected.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}

		name := strings.TrimPrefix(filepath.ToSlash(hdr.Name), "./")
		_, rest, found := strings.Cut(name, "/")
		if !found || rest == "" {
			continue
		}
		rel := filepath.FromSlash(strings.TrimSuffix(rest, "/"))
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("tar entry %q escapes the package root", hdr.Name)
		}
		target := filepath.Join(dest, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			mode := os.FileMode(hdr.Mode).Perm() | 0o600
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		default:
			// Links and devices are never part of a published package.
		}
	}
}
