package userdb

import (
	"errors"
	"io/fs"
	"strconv"

	"github.com/hnrobert/hostcheck/internal/hostfs"
)

// DB resolves numeric ids against the account files under a host root.
// Files are re-read on every lookup so edits on the target are visible.
type DB struct {
	fs *hostfs.FS
}

func New(fsys *hostfs.FS) *DB {
	return &DB{fs: fsys}
}

func (d *DB) LoadPasswd() (*PasswdFile, error) {
	b, err := d.fs.ReadFile(hostfs.EtcPasswd)
	if err != nil {
		return nil, err
	}
	return ParsePasswd(b)
}

func (d *DB) LoadGroup() (*GroupFile, error) {
	b, err := d.fs.ReadFile(hostfs.EtcGroup)
	if err != nil {
		return nil, err
	}
	return ParseGroup(b)
}

// UserName maps uid to a login name. Unknown ids, or a target without
// /etc/passwd, yield the decimal id.
func (d *DB) UserName(uid int) (string, error) {
	pw, err := d.LoadPasswd()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return strconv.Itoa(uid), nil
		}
		return "", err
	}
	if e := pw.FindByUID(uid); e != nil {
		return e.Name, nil
	}
	return strconv.Itoa(uid), nil
}

// GroupName maps gid to a group name with the same fallback as UserName.
func (d *DB) GroupName(gid int) (string, error) {
	gr, err := d.LoadGroup()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return strconv.Itoa(gid), nil
		}
		return "", err
	}
	if e := gr.FindByGID(gid); e != nil {
		return e.Name, nil
	}
	return strconv.Itoa(gid), nil
}
