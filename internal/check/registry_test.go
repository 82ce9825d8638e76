package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/hostcheck/internal/host"
)

func nop(host.Host) error { return nil }

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Check{Name: "test_a", Fn: nop}))
	assert.ErrorIs(t, r.Register(Check{Name: "test_a", Fn: nop}), ErrDuplicateCheck)
	assert.ErrorIs(t, r.Register(Check{Name: "passwd", Fn: nop}), ErrCheckName)
	assert.ErrorIs(t, r.Register(Check{Name: "test_", Fn: nop}), ErrCheckName)
	assert.Error(t, r.Register(Check{Name: "test_b"}))
	assert.Len(t, r.All(), 1)

	assert.Panics(t, func() { r.MustRegister(Check{Name: "test_a", Fn: nop}) })
}

func TestMatchKeyword(t *testing.T) {
	tests := []struct {
		expr string
		name string
		want bool
	}{
		{"", "test_passwd_file", true},
		{"passwd", "test_passwd_file", true},
		{"shadow", "test_passwd_file", false},
		{"not shadow", "test_passwd_file", true},
		{"not passwd", "test_passwd_file", false},
		{"not not passwd", "test_passwd_file", true},
		{"passwd and file", "test_passwd_file", true},
		{"passwd and not file", "test_passwd_file", false},
		{"shadow or passwd", "test_passwd_file", true},
		{"shadow or group", "test_passwd_file", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchKeyword(tt.expr, tt.name), "%q vs %q", tt.expr, tt.name)
	}
}

func TestSelect(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Check{Name: "test_passwd_file", Markers: []string{"files"}, Fn: nop})
	r.MustRegister(Check{Name: "test_sshd_running", Markers: []string{"services"}, Fn: nop})
	r.MustRegister(Check{Name: "test_group_file", Markers: []string{"files"}, Fn: nop})

	names := func(cs []Check) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}
	assert.Equal(t, []string{"test_passwd_file", "test_sshd_running", "test_group_file"}, names(r.Select("", "")))
	assert.Equal(t, []string{"test_passwd_file", "test_group_file"}, names(r.Select("", "files")))
	assert.Equal(t, []string{"test_group_file"}, names(r.Select("not passwd", "files")))
	assert.Empty(t, r.Select("", "network"))
}

func TestBuiltin(t *testing.T) {
	all := Builtin().All()
	require.Len(t, all, 1)
	assert.Equal(t, "test_passwd_file", all[0].Name)
	assert.Equal(t, []string{"files"}, all[0].Markers)
}
