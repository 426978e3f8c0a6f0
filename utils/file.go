package utils

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// outputPerm is the mode of every file written through this package.
const outputPerm os.FileMode = 0o644

// WriteFileAtomic writes the output of write to a pending file next to path and moves it into place
// only when write succeeded. A failed write leaves nothing at path and keeps any previous content.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	pending, err := newPendingFile(path)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(pending.Cleanup)
	if err := write(pending); err != nil {
		return err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return errors.Wrapf(err, "replacing %q", path)
	}
	return nil
}

// WriteFileExclusive behaves like WriteFileAtomic but fails with os.ErrExist when path already
// exists. renameio only replaces, so the synced pending file is hard linked into place instead; a
// link never replaces an existing file, and of two concurrent writers at most one succeeds.
func WriteFileExclusive(path string, write func(w io.Writer) error) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Wrapf(os.ErrExist, "%q", path)
	}
	pending, err := newPendingFile(path)
	if err != nil {
		return err
	}
	// the pending name goes away either way; a successful link keeps the data at path
	defer utils.UncheckedErrorFunc(pending.Cleanup)
	if err := write(pending); err != nil {
		return err
	}
	if err := pending.Sync(); err != nil {
		return errors.Wrapf(err, "syncing %q", pending.Name())
	}
	if err := os.Link(pending.Name(), path); err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(os.ErrExist, "%q", path)
		}
		return errors.Wrapf(err, "linking into %q", path)
	}
	return nil
}

func newPendingFile(path string) (*renameio.PendingFile, error) {
	pending, err := renameio.NewPendingFile(path,
		renameio.WithTempDir(filepath.Dir(path)),
		renameio.WithPermissions(outputPerm))
	if err != nil {
		return nil, errors.Wrapf(err, "creating pending file for %q", path)
	}
	return pending, nil
}

// FileExists reports whether path names an existing file.
func FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// RemoveFileNoError will remove the file at the given path if it exists. Any
// errors will be suppressed.
func RemoveFileNoError(path string) {
	utils.UncheckedErrorFunc(func() error {
		if _, err := os.Stat(path); err == nil {
			return os.Remove(path)
		}
		return nil
	})
}
