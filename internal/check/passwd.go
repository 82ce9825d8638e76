package check

import (
	"github.com/hnrobert/hostcheck/internal/host"
	"github.com/hnrobert/hostcheck/internal/hostfs"
)

// PasswdFile validates /etc/passwd: it mentions root, is owned by
// root:root and has mode 0644.
func PasswdFile(h host.Host) error {
	passwd := h.File(hostfs.EtcPasswd)
	return Sequence(
		FileContains(passwd, "root"),
		FileUser(passwd, "root"),
		FileGroup(passwd, "root"),
		FileMode(passwd, 0o644),
	)
}
