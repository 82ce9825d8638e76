package hostfs

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

var ErrInvalidPath = errors.New("invalid host path")

var globalMu sync.Mutex
var fileMu = map[string]*sync.Mutex{}

func muFor(path string) *sync.Mutex {
	globalMu.Lock()
	defer globalMu.Unlock()
	if m := fileMu[path]; m != nil {
		return m
	}
	m := &sync.Mutex{}
	fileMu[path] = m
	return m
}

// FS resolves absolute host paths below Root.
type FS struct {
	Root string
	fs   afero.Fs
}

// New returns an FS over the real filesystem. An empty root means "/".
func New(root string) *FS {
	if root == "" {
		root = "/"
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if root == "/" {
		return &FS{Root: root, fs: afero.NewOsFs()}
	}
	return &FS{Root: root, fs: afero.NewBasePathFs(afero.NewOsFs(), root)}
}

// NewWithFs wraps an existing afero filesystem. Paths are used as-is.
func NewWithFs(fsys afero.Fs) *FS {
	return &FS{Root: "/", fs: fsys}
}

// Clean validates an absolute host path and returns its cleaned form.
// Example: Clean("/etc/../etc/passwd") -> /etc/passwd
func Clean(abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return clean, nil
}

func (f *FS) key(clean string) string {
	return filepath.Join(f.Root, clean)
}

func (f *FS) ReadFile(abs string) ([]byte, error) {
	clean, err := Clean(abs)
	if err != nil {
		return nil, err
	}
	m := muFor(f.key(clean))
	m.Lock()
	defer m.Unlock()
	return afero.ReadFile(f.fs, clean)
}

// Info is the subset of file metadata checks care about.
type Info struct {
	Mode     uint32 // permission bits, 0o7777 mask
	UID      int
	GID      int
	HasOwner bool
}

func (f *FS) Stat(abs string) (Info, error) {
	clean, err := Clean(abs)
	if err != nil {
		return Info{}, err
	}
	fi, err := f.fs.Stat(clean)
	if err != nil {
		return Info{}, err
	}
	info := Info{Mode: PermBits(fi.Mode())}
	info.UID, info.GID, info.HasOwner = ownerOf(fi)
	return info, nil
}

// PermBits converts an fs.FileMode into the Unix 12-bit permission value.
func PermBits(m fs.FileMode) uint32 {
	bits := uint32(m.Perm())
	if m&fs.ModeSetuid != 0 {
		bits |= 0o4000
	}
	if m&fs.ModeSetgid != 0 {
		bits |= 0o2000
	}
	if m&fs.ModeSticky != 0 {
		bits |= 0o1000
	}
	return bits
}
