package userdb

type PasswdEntry struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

type GroupEntry struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}
