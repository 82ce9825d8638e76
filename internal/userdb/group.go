package userdb

import "strings"

type GroupFile struct {
	entries []GroupEntry
}

func ParseGroup(b []byte) (*GroupFile, error) {
	var f GroupFile
	err := splitRecords(b, 4, func(line int, parts []string) error {
		gid, err := atoi(parts[2], "group.gid", line)
		if err != nil {
			return err
		}
		members := []string{}
		if parts[3] != "" {
			members = strings.Split(parts[3], ",")
		}
		f.entries = append(f.entries, GroupEntry{Name: parts[0], Passwd: parts[1], GID: gid, Members: members})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *GroupFile) FindByGID(gid int) *GroupEntry {
	for i := range f.entries {
		if f.entries[i].GID == gid {
			return &f.entries[i]
		}
	}
	return nil
}
