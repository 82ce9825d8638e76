package hostfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "/etc/passwd", want: "/etc/passwd"},
		{in: "/etc/../etc/group", want: "/etc/group"},
		{in: "etc/passwd", wantErr: true},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
		{in: "/..", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Clean(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidPath, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestPermBits(t *testing.T) {
	assert.Equal(t, uint32(0o644), PermBits(0o644))
	assert.Equal(t, uint32(0o4755), PermBits(0o755|fs.ModeSetuid))
	assert.Equal(t, uint32(0o2775), PermBits(0o775|fs.ModeSetgid))
	assert.Equal(t, uint32(0o1777), PermBits(0o777|fs.ModeSticky|fs.ModeDir))
}

func TestReadAndStatMemFs(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/etc/passwd", []byte("root:x:0:0::/root:/bin/sh\n"), 0o644))

	f := NewWithFs(mem)
	b, err := f.ReadFile("/etc/passwd")
	require.NoError(t, err)
	assert.Contains(t, string(b), "root")

	info, err := f.Stat("/etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, uint32(0o644), info.Mode)
	assert.False(t, info.HasOwner)

	_, err = f.Stat("/etc/shadow")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRootedOsFs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "passwd"), []byte("root\n"), 0o600))
	require.NoError(t, os.Chmod(filepath.Join(root, "etc", "passwd"), 0o640))

	f := New(root)
	assert.Equal(t, root, f.Root)

	info, err := f.Stat(EtcPasswd)
	require.NoError(t, err)
	assert.Equal(t, uint32(0o640), info.Mode)
	assert.True(t, info.HasOwner)
	assert.Equal(t, os.Getuid(), info.UID)

	_, err = f.ReadFile("/../../etc/passwd")
	require.NoError(t, err, "dot-dot is cleaned back under the root")
}

func TestWriteFileAtomic(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, WriteFileAtomic(mem, "/reports/run.yaml", []byte("a: 1\n"), 0o640))
	require.NoError(t, WriteFileAtomic(mem, "/reports/run.yaml", []byte("a: 2\n"), 0o640))

	b, err := afero.ReadFile(mem, "/reports/run.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a: 2\n", string(b))

	fi, err := mem.Stat("/reports/run.yaml")
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o640), fi.Mode().Perm())

	entries, err := afero.ReadDir(mem, "/reports")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}
