package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// MigrateLegacy moves the first existing legacy path into place. A legacy
// file becomes dst; the entries of a legacy directory are moved into dst's
// directory, keeping any entry that is already there. Nothing happens when
// dst already exists or no legacy path is found. It returns the path that
// was migrated, or "".
func MigrateLegacy(dst string, legacy []string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(dst); err == nil {
		return "", nil
	}

	for _, src := range legacy {
		if src == "" || src == dst {
			continue
		}
		info, err := os.Stat(src)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("settings: stat legacy %s: %w", src, err)
		}

		dstDir := filepath.Dir(dst)
		if err := os.MkdirAll(dstDir, 0755); err != nil {
			return "", fmt.Errorf("settings: create dir: %w", err)
		}
		if info.IsDir() {
			if err := mergeDir(src, dstDir, logger); err != nil {
				return "", fmt.Errorf("settings: migrate %s: %w", src, err)
			}
			logger.Info("Migrated legacy directory", zap.String("from", src), zap.String("to", dstDir))
			return src, nil
		}
		if err := moveFile(src, dst); err != nil {
			return "", fmt.Errorf("settings: migrate %s: %w", src, err)
		}
		logger.Info("Migrated legacy file", zap.String("from", src), zap.String("to", dst))
		return src, nil
	}
	return "", nil
}

// mergeDir moves every entry of src into dstDir, then removes src if it
// ended up empty. Entries already present in dstDir are left in src.
func mergeDir(src, dstDir string, logger *zap.Logger) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dstDir, e.Name())
		if _, err := os.Lstat(to); err == nil {
			logger.Warn("Not overwriting existing entry", zap.String("path", to))
			continue
		}
		if err := moveEntry(from, to, e.IsDir()); err != nil {
			return err
		}
	}
	_ = os.Remove(src) // fails while skipped entries remain
	return nil
}

// moveEntry renames a file or directory tree, copying across filesystems.
func moveEntry(src, dst string, isDir bool) error {
	if !isDir {
		return moveFile(src, dst)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := moveEntry(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name()), e.IsDir()); err != nil {
			return err
		}
	}
	return os.Remove(src)
}

// moveFile renames src to dst, falling back to copy and remove across
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return os.Remove(src)
}
