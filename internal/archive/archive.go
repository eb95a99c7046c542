// Package archive unpacks release artifacts into a directory with path
// traversal protection.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/scruffaluff/binstall/internal/core"
	"github.com/scruffaluff/binstall/internal/security"
)

// Extract unpacks archivePath into destDir according to kind. ArchiveRaw is
// rejected: raw artifacts are placed directly, not extracted.
func Extract(archivePath, destDir string, kind core.ArchiveKind) error {
	switch kind {
	case core.ArchiveTarGz:
		return ExtractTarGz(archivePath, destDir)
	case core.ArchiveTarXz:
		return ExtractTarXz(archivePath, destDir)
	case core.ArchiveZip:
		return ExtractZip(archivePath, destDir)
	default:
		return fmt.Errorf("%w: cannot extract %q artifact", core.ErrExtractionFailed, kind)
	}
}

// ExtractTarGz extracts a .tar.gz archive with security checks.
func ExtractTarGz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open archive: %v", core.ErrExtractionFailed, err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("%w: gzip reader: %v", core.ErrExtractionFailed, err)
	}
	defer gzr.Close()

	return extractTar(gzr, destDir)
}

// ExtractTarXz extracts a .tar.xz archive with security checks.
func ExtractTarXz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open archive: %v", core.ErrExtractionFailed, err)
	}
	defer file.Close()

	xzr, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("%w: xz reader: %v", core.ErrExtractionFailed, err)
	}

	return extractTar(xzr, destDir)
}

func extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: tar read: %v", core.ErrExtractionFailed, err)
		}

		if err := security.ValidateExtractPath(destDir, header.Name); err != nil {
			return fmt.Errorf("%w: %v", core.ErrExtractionFailed, err)
		}

		target := filepath.Join(destDir, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("%w: create directory: %v", core.ErrExtractionFailed, err)
			}

		case tar.TypeReg:
			if err := extractFile(tr, target, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("%w: extract %s: %v", core.ErrExtractionFailed, header.Name, err)
			}

		case tar.TypeSymlink:
			if err := security.ValidateSymlink(destDir, target, header.Linkname); err != nil {
				return fmt.Errorf("%w: %v", core.ErrExtractionFailed, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("%w: create symlink: %v", core.ErrExtractionFailed, err)
			}

		default:
			// Skip unsupported member types
			continue
		}
	}

	return nil
}

func extractFile(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// ExtractZip extracts a .zip archive with security checks.
func ExtractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: open zip: %v", core.ErrExtractionFailed, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := security.ValidateExtractPath(destDir, f.Name); err != nil {
			return fmt.Errorf("%w: %v", core.ErrExtractionFailed, err)
		}

		target := filepath.Join(destDir, f.Name)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, f.Mode()); err != nil {
				return fmt.Errorf("%w: create directory: %v", core.ErrExtractionFailed, err)
			}
			continue
		}

		if err := extractZipFile(f, target); err != nil {
			return fmt.Errorf("%w: extract %s: %v", core.ErrExtractionFailed, f.Name, err)
		}
	}

	return nil
}

func extractZipFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, rc); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
