package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// Result is the outcome of one command on a target.
type Result struct {
	Stdout     string
	Stderr     string
	ExitStatus int
}

// Executor runs a shell command on a target. A non-zero exit is reported
// through Result.ExitStatus; the error is reserved for transport failures.
type Executor interface {
	Run(ctx context.Context, command string) (Result, error)
}

// ExecExecutor runs commands through a local process whose argv ends with
// the shell command, e.g. ["docker", "exec", "id", "sh", "-c"].
type ExecExecutor struct {
	Argv []string
}

func LocalShell() *ExecExecutor {
	return &ExecExecutor{Argv: []string{"sh", "-c"}}
}

// Container returns an executor for docker, podman or lxc targets.
func Container(engine, id string) (*ExecExecutor, error) {
	switch engine {
	case "docker", "podman":
		return &ExecExecutor{Argv: []string{engine, "exec", id, "sh", "-c"}}, nil
	case "lxc":
		return &ExecExecutor{Argv: []string{"lxc", "exec", id, "--", "sh", "-c"}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, engine)
}

func (e *ExecExecutor) Run(ctx context.Context, command string) (Result, error) {
	if len(e.Argv) == 0 {
		return Result{}, errors.New("empty executor argv")
	}
	args := append(append([]string{}, e.Argv[1:]...), command)
	cmd := exec.CommandContext(ctx, e.Argv[0], args...)
	// Orphaned grandchildren must not hold the pipes open past cancellation.
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitStatus = exitErr.ExitCode()
			return res, nil
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("%s: %w", e.Argv[0], ctx.Err())
		}
		s := strings.TrimSpace(stderr.String())
		if s == "" {
			return res, err
		}
		return res, fmt.Errorf("%s: %s", e.Argv[0], s)
	}
	return res, nil
}

// SudoExecutor wraps every command in sudo, optionally as another user.
type SudoExecutor struct {
	Next Executor
	User string
}

func (s *SudoExecutor) Run(ctx context.Context, command string) (Result, error) {
	return s.Next.Run(ctx, s.wrap(command))
}

func (s *SudoExecutor) wrap(command string) string {
	if s.User != "" {
		return "sudo -n -u " + Quote(s.User) + " sh -c " + Quote(command)
	}
	return "sudo -n sh -c " + Quote(command)
}

// Close releases the wrapped executor.
func (s *SudoExecutor) Close() error { return closeExecutor(s.Next) }

// EnvExecutor exports variables before every command. It wraps any
// privilege executor so the variables survive sudo's environment reset.
type EnvExecutor struct {
	Next Executor
	Env  map[string]string
}

func (e *EnvExecutor) Run(ctx context.Context, command string) (Result, error) {
	return e.Next.Run(ctx, e.wrap(command))
}

func (e *EnvExecutor) wrap(command string) string {
	if len(e.Env) == 0 {
		return command
	}
	keys := make([]string, 0, len(e.Env))
	for k := range e.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString("export " + k + "=" + Quote(e.Env[k]) + "; ")
	}
	return b.String() + command
}

func (e *EnvExecutor) Close() error { return closeExecutor(e.Next) }

func closeExecutor(ex Executor) error {
	if c, ok := ex.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Quote single-quotes s for POSIX sh.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
