package hostfs

// Well-known host file locations.
const (
	EtcPasswd = "/etc/passwd"
	EtcGroup  = "/etc/group"
)
