package host

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/hostcheck/internal/hostfs"
)

type closingExecutor struct {
	fakeExecutor
	closed bool
}

func (c *closingExecutor) Close() error {
	c.closed = true
	return nil
}

func TestEnvExecutorWrap(t *testing.T) {
	ex := &EnvExecutor{Env: map[string]string{"PIP_INDEX_URL": "http://mirror/simple", "A": "it's"}}
	assert.Equal(t, `export A='it'\''s'; export PIP_INDEX_URL='http://mirror/simple'; id -u`, ex.wrap("id -u"))
	assert.Equal(t, "id -u", (&EnvExecutor{}).wrap("id -u"))
}

func TestEnvExecutorRunsInsideSudo(t *testing.T) {
	inner := &fakeExecutor{}
	ex := &EnvExecutor{Next: &SudoExecutor{Next: inner}, Env: map[string]string{"LANG": "C"}}
	_, err := ex.Run(context.Background(), "true")
	require.NoError(t, err)
	require.Len(t, inner.commands, 1)
	assert.Equal(t, `sudo -n sh -c 'export LANG='\''C'\''; true'`, inner.commands[0])
}

func TestEnvExecutorLocalShell(t *testing.T) {
	ex := &EnvExecutor{Next: LocalShell(), Env: map[string]string{"GREETING": "hello world"}}
	res, err := ex.Run(context.Background(), `printf %s "$GREETING"`)
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Stdout)
}

func TestCloseReachesWrappedTransport(t *testing.T) {
	base := &closingExecutor{}
	h := NewCommandHost("ssh://ops@db1", &EnvExecutor{Next: &SudoExecutor{Next: base}}, 0)
	require.NoError(t, h.Close())
	assert.True(t, base.closed)
}

func TestOpenWithEnv(t *testing.T) {
	spec, err := ParseURI("docker://abc")
	require.NoError(t, err)
	h, err := Open(spec, Options{Sudo: true, Env: map[string]string{"LANG": "C"}})
	require.NoError(t, err)
	env, ok := h.(*CommandHost).Executor().(*EnvExecutor)
	require.True(t, ok)
	assert.IsType(t, &SudoExecutor{}, env.Next)
}

func TestPrepareCommandHost(t *testing.T) {
	ex := &fakeExecutor{results: map[string]Result{
		"apt-get install -y coreutils": {},
		"false":                        {ExitStatus: 1, Stderr: "boom"},
	}}
	h := NewCommandHost("docker://abc", ex, 0)
	require.NoError(t, Prepare(context.Background(), h, "apt-get install -y coreutils", nil))

	err := Prepare(context.Background(), h, "false", nil)
	var ce *CommandError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.ExitStatus)
	assert.Contains(t, err.Error(), "docker://abc")

	ex.err = errors.New("transport down")
	assert.ErrorContains(t, Prepare(context.Background(), h, "true", nil), "transport down")
}

func TestPrepareLocal(t *testing.T) {
	h := NewLocal("/")
	require.NoError(t, Prepare(context.Background(), h, `test "$STAGE" = ci`, map[string]string{"STAGE": "ci"}))
	assert.Error(t, Prepare(context.Background(), h, `test "$STAGE" = ci`, nil))

	rooted := NewLocalFs("mem://", hostfs.NewWithFs(afero.NewMemMapFs()))
	rooted.fs.Root = "/srv/image"
	assert.ErrorContains(t, Prepare(context.Background(), rooted, "true", nil), "host root")
}
