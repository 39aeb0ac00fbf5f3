package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyDir recursively copies src into dest, creating dest if needed.
// File modes are preserved and symlinks are recreated, not followed.
// Entries whose base name makes skip return true are left out; skip may be nil.
func CopyDir(src, dest string, skip func(name string) bool) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}
	if err := os.MkdirAll(dest, srcInfo.Mode().Perm()|0o700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if skip != nil && skip(entry.Name()) {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())

		info, err := os.Lstat(srcPath)
		if err != nil {
			return err
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(srcPath)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, destPath); err != nil {
				return err
			}
		case info.IsDir():
			if err := CopyDir(srcPath, destPath, skip); err != nil {
				return err
			}
		default:
			if err := CopyFile(srcPath, destPath, info.Mode().Perm()); err != nil {
				return err
			}
		}
	}
	return nil
}

// CopyFile copies a single regular file, truncating dest if it exists.
func CopyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// PruneEmpty removes dir if it exists and is empty. It reports whether the
// directory was removed.
func PruneEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil {
		return false, err
	}
	return true, nil
}
