// Package hostfs gives read access to a target host's filesystem through a
// root directory.
//
// The root is usually "/" for the machine running hostcheck, or a bind mount
// of another machine's root:
//
//	/etc/passwd -> /host/etc/passwd
//	/etc/group  -> /host/etc/group
//
// Paths handed to FS are always absolute host paths; the root prefix is
// applied internally.
package hostfs
