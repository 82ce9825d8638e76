package host

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"

	"github.com/hnrobert/hostcheck/internal/hostfs"
	"github.com/hnrobert/hostcheck/internal/userdb"
)

// Local reads files directly below a filesystem root. Owner and group names
// come from the root's own etc/passwd and etc/group.
type Local struct {
	name  string
	fs    *hostfs.FS
	users *userdb.DB
}

func NewLocal(root string) *Local {
	return NewLocalFs("local://", hostfs.New(root))
}

func NewLocalFs(name string, fsys *hostfs.FS) *Local {
	return &Local{name: name, fs: fsys, users: userdb.New(fsys)}
}

func (h *Local) Name() string { return h.name }

func (h *Local) File(path string) File {
	return &localFile{h: h, path: path}
}

type localFile struct {
	h    *Local
	path string
}

func (f *localFile) Path() string { return f.path }

func (f *localFile) Exists() (bool, error) {
	_, err := f.h.fs.Stat(f.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (f *localFile) Contains(substr string) (bool, error) {
	b, err := f.h.fs.ReadFile(f.path)
	if err != nil {
		return false, err
	}
	return bytes.Contains(b, []byte(substr)), nil
}

func (f *localFile) owner() (hostfs.Info, error) {
	info, err := f.h.fs.Stat(f.path)
	if err != nil {
		return hostfs.Info{}, err
	}
	if !info.HasOwner {
		return hostfs.Info{}, fmt.Errorf("%s: %w", f.path, ErrOwnerUnavailable)
	}
	return info, nil
}

func (f *localFile) User() (string, error) {
	info, err := f.owner()
	if err != nil {
		return "", err
	}
	return f.h.users.UserName(info.UID)
}

func (f *localFile) Group() (string, error) {
	info, err := f.owner()
	if err != nil {
		return "", err
	}
	return f.h.users.GroupName(info.GID)
}

func (f *localFile) Mode() (Perm, error) {
	info, err := f.h.fs.Stat(f.path)
	if err != nil {
		return 0, err
	}
	return Perm(info.Mode), nil
}
