package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSu behaves like `su -s SHELL -c CMD USER`: it prompts on the
// terminal, leaves echo on, and accepts only "secret".
const fakeSu = `#!/bin/sh
printf 'Password: '
read pw
if [ "$pw" != "secret" ]; then
	echo "su: Authentication failure"
	exit 1
fi
exec "$2" -c "$4"
`

func suBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "su")
	require.NoError(t, os.WriteFile(path, []byte(fakeSu), 0o755))
	return path
}

func TestSuExecutorRun(t *testing.T) {
	ex := &SuExecutor{User: "ops", Password: "secret", Su: suBinary(t)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := ex.Run(ctx, "echo hi")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", res.Stdout)
	assert.Equal(t, 0, res.ExitStatus)
}

func TestSuExecutorExitStatus(t *testing.T) {
	ex := &SuExecutor{User: "ops", Password: "secret", Su: suBinary(t)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := ex.Run(ctx, "echo hi; exit 3")
	require.NoError(t, err, "the command's own failure is a result")
	assert.Equal(t, 3, res.ExitStatus)
	assert.Equal(t, "hi\n", res.Stdout)
}

func TestSuExecutorBadPassword(t *testing.T) {
	ex := &SuExecutor{User: "ops", Password: "hunter2", Su: suBinary(t)}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := ex.Run(ctx, "echo hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "su to ops failed: su: Authentication failure")
	assert.NotContains(t, err.Error(), "hunter2")
}

func TestSuExecutorEmptyUser(t *testing.T) {
	_, err := (&SuExecutor{}).Run(context.Background(), "true")
	assert.Error(t, err)
}

func TestSuFailure(t *testing.T) {
	assert.Equal(t, "su: Authentication failure",
		suFailure("Password: hunter2\r\nsu: Authentication failure\r\n", 1))
	assert.Equal(t, "exit status 1", suFailure("Password: hunter2\r\n", 1))
	assert.Equal(t, "exit status 125", suFailure("", 125))
}
