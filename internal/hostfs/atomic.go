package hostfs

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"

	"github.com/hnrobert/hostcheck/internal/logger"
)

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial report.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	m := muFor(path)
	m.Lock()
	defer m.Unlock()

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := afero.TempFile(fsys, dir, ".hostcheck-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = fsys.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fsys.Chmod(tmpName, perm); err != nil {
		return err
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		// Bind-mounted targets refuse rename with EBUSY/EXDEV.
		if errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EPERM) {
			logger.Warn("WriteFileAtomic rename failed for %s (%v); falling back to in-place rewrite", path, err)
			return afero.WriteFile(fsys, path, data, perm)
		}
		return err
	}
	return nil
}
