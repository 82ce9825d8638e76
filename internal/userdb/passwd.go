package userdb

type PasswdFile struct {
	entries []PasswdEntry
}

func ParsePasswd(b []byte) (*PasswdFile, error) {
	var f PasswdFile
	err := splitRecords(b, 7, func(line int, parts []string) error {
		uid, err := atoi(parts[2], "passwd.uid", line)
		if err != nil {
			return err
		}
		gid, err := atoi(parts[3], "passwd.gid", line)
		if err != nil {
			return err
		}
		f.entries = append(f.entries, PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    uid,
			GID:    gid,
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindByUID returns the first entry with uid, matching getpwuid(3).
func (f *PasswdFile) FindByUID(uid int) *PasswdEntry {
	for i := range f.entries {
		if f.entries[i].UID == uid {
			return &f.entries[i]
		}
	}
	return nil
}
