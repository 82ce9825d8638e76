package host

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CommandError reports a command that exited with an unexpected status.
type CommandError struct {
	Command    string
	ExitStatus int
	Stderr     string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%q exited with status %d", e.Command, e.ExitStatus)
	}
	return fmt.Sprintf("%q exited with status %d: %s", e.Command, e.ExitStatus, msg)
}

// CommandHost inspects files by running coreutils on the target.
type CommandHost struct {
	name    string
	exec    Executor
	Timeout time.Duration
}

func NewCommandHost(name string, ex Executor, timeout time.Duration) *CommandHost {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CommandHost{name: name, exec: ex, Timeout: timeout}
}

func (h *CommandHost) Name() string { return h.name }

// Executor exposes the underlying transport, e.g. for closing SSH clients.
func (h *CommandHost) Executor() Executor { return h.exec }

func (h *CommandHost) File(path string) File {
	return &commandFile{h: h, path: path}
}

func (h *CommandHost) run(command string) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
	defer cancel()
	return h.exec.Run(ctx, command)
}

// Close releases the executor when it holds a connection.
func (h *CommandHost) Close() error {
	return closeExecutor(h.exec)
}

type commandFile struct {
	h    *CommandHost
	path string
}

func (f *commandFile) Path() string { return f.path }

// test runs a predicate command: status 0 is true, 1 is false.
func (f *commandFile) test(command string) (bool, error) {
	res, err := f.h.run(command)
	if err != nil {
		return false, err
	}
	switch res.ExitStatus {
	case 0:
		return true, nil
	case 1:
		return false, nil
	}
	return false, &CommandError{Command: command, ExitStatus: res.ExitStatus, Stderr: res.Stderr}
}

func (f *commandFile) stat(format string) (string, error) {
	command := "stat -c " + format + " -- " + Quote(f.path)
	res, err := f.h.run(command)
	if err != nil {
		return "", err
	}
	if res.ExitStatus != 0 {
		return "", &CommandError{Command: command, ExitStatus: res.ExitStatus, Stderr: res.Stderr}
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (f *commandFile) Exists() (bool, error) {
	return f.test("test -e " + Quote(f.path))
}

func (f *commandFile) Contains(substr string) (bool, error) {
	// grep exits 2 for a missing or unreadable file, surfaced as an error.
	return f.test("grep -qsF -- " + Quote(substr) + " " + Quote(f.path))
}

func (f *commandFile) User() (string, error) {
	return f.stat("%U")
}

func (f *commandFile) Group() (string, error) {
	return f.stat("%G")
}

func (f *commandFile) Mode() (Perm, error) {
	out, err := f.stat("%a")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(out, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("parse mode %q of %s: %w", out, f.path, err)
	}
	return Perm(n), nil
}
