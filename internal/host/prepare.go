package host

import (
	"context"
	"fmt"
)

// Prepare runs command once on h before any check, typically to install
// what the checks rely on. Local hosts run it in a local shell, which only
// makes sense when the host root is the real root.
func Prepare(ctx context.Context, h Host, command string, env map[string]string) error {
	var ex Executor
	switch h := h.(type) {
	case *CommandHost:
		ex = h.exec
	case *Local:
		if h.fs.Root != "/" {
			return fmt.Errorf("host %s: install command cannot run inside host root %s", h.Name(), h.fs.Root)
		}
		ex = &EnvExecutor{Next: LocalShell(), Env: env}
	default:
		return fmt.Errorf("host %s cannot run commands", h.Name())
	}

	res, err := ex.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("host %s: install command: %w", h.Name(), err)
	}
	if res.ExitStatus != 0 {
		return fmt.Errorf("host %s: install command: %w", h.Name(),
			&CommandError{Command: command, ExitStatus: res.ExitStatus, Stderr: res.Stderr})
	}
	return nil
}
