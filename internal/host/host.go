// Package host resolves files on a target machine and exposes them as
// lazily evaluated file resources.
//
// A Host is either a local filesystem root, read directly, or any target
// that can run shell commands (a container, an SSH peer, the local machine
// through sudo or su). Every accessor on a File performs a fresh lookup;
// nothing is cached between calls.
package host

import (
	"errors"
	"fmt"
)

var (
	ErrOwnerUnavailable  = errors.New("file ownership unavailable")
	ErrUnsupportedScheme = errors.New("unsupported host scheme")
)

// Perm is a Unix permission value including setuid, setgid and sticky bits.
type Perm uint32

func (p Perm) String() string {
	return fmt.Sprintf("%04o", uint32(p))
}

// Host is the handle checks receive.
type Host interface {
	Name() string
	File(path string) File
}

// File is a path on a Host. Accessors return errors from the backend
// unchanged; a missing file is an error for everything except Exists.
type File interface {
	Path() string
	Exists() (bool, error)
	Contains(substr string) (bool, error)
	User() (string, error)
	Group() (string, error)
	Mode() (Perm, error)
}
