// Package userdb reads a target host's account databases (/etc/passwd and
// /etc/group) so file ownership can be reported by name as the target sees
// it, independent of the inspecting machine's own user database.
package userdb
