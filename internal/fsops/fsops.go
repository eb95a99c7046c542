package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CreateTempDir creates a temporary directory with the given prefix.
func CreateTempDir(fs afero.Fs, prefix string) (string, error) {
	dir, err := afero.TempDir(fs, os.TempDir(), prefix)
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	return dir, nil
}

// CheckWritable checks if a path is writable by creating and removing a
// sentinel file. The probe is non-destructive.
func CheckWritable(fs afero.Fs, path string) error {
	testFile := filepath.Join(path, ".write_test")
	f, err := fs.Create(testFile)
	if err != nil {
		return fmt.Errorf("path not writable: %w", err)
	}
	f.Close()
	fs.Remove(testFile)
	return nil
}

// EnsureDir ensures a directory exists with the given permissions.
func EnsureDir(fs afero.Fs, path string, perm os.FileMode) error {
	if err := fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}
	return nil
}

// Exists checks if a path exists.
func Exists(fs afero.Fs, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}

// CopyFile copies a file from src to dst, preserving the source mode.
func CopyFile(fs afero.Fs, src, dst string) error {
	srcFile, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	info, err := fs.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dstFile, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}

	return nil
}

// MoveFile moves src to dst. Rename is attempted first; a cross-device move
// falls back to copy into a same-directory temp name followed by rename, so
// dst is only ever replaced atomically.
func MoveFile(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err == nil {
		return nil
	}

	staging := dst + ".partial"
	if err := CopyFile(fs, src, staging); err != nil {
		fs.Remove(staging)
		return fmt.Errorf("stage file: %w", err)
	}
	if err := fs.Rename(staging, dst); err != nil {
		fs.Remove(staging)
		return fmt.Errorf("replace destination: %w", err)
	}
	fs.Remove(src)
	return nil
}
