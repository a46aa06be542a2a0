package feedsource

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

// ErrUnsafePath is returned when an archive entry would be written outside
// the extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes extraction directory")

// maxExtractedBytes bounds the total uncompressed size of one archive
const maxExtractedBytes = 4 << 30

// extractZip unpacks src into dest and returns the feed root: dest itself,
// or its single subdirectory when the archive wraps the feed in a folder.
func extractZip(src, dest string) (string, error) {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return "", fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return "", err
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", err
	}
	base := filepath.Clean(dest) + string(os.PathSeparator)

	var written int64
	for _, f := range zr.File {
		target := filepath.Join(dest, f.Name)
		if target == filepath.Clean(dest) {
			continue
		}
		if !strings.HasPrefix(target, base) {
			return "", fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		n, err := extractFile(f, target, maxExtractedBytes-written)
		if err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		written += n
	}

	return feedRoot(dest)
}

func extractFile(f *zip.File, target string, limit int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, err
	}

	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, errors.New("archive exceeds maximum extracted size")
	}
	return n, nil
}

func feedRoot(dir string) (string, error) {
	for _, name := range gtfs.KnownFiles {
		if gtfs.Exists(filepath.Join(dir, name)) {
			return dir, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var subdirs []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), "__MACOSX") {
			subdirs = append(subdirs, entry.Name())
		}
	}
	if len(subdirs) == 1 {
		return filepath.Join(dir, subdirs[0]), nil
	}
	return dir, nil
}
