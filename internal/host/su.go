package host

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

const suMarker = "__hostcheck_output__"

// SuExecutor runs local commands as another user through su(1). su reads
// the password from a terminal, so the command runs behind a PTY. The PTY
// merges stdout and stderr; everything after the marker line is returned
// as Stdout.
type SuExecutor struct {
	User     string
	Password string
	// Path to su; empty means "su" from PATH.
	Su string
}

func (s *SuExecutor) Run(ctx context.Context, command string) (Result, error) {
	if strings.TrimSpace(s.User) == "" {
		return Result{}, errors.New("su: empty user")
	}
	bin := s.Su
	if bin == "" {
		bin = "su"
	}
	wrapped := "printf '%s\\n' " + suMarker + "; " + command
	cmd := exec.CommandContext(ctx, bin, "-s", "/bin/sh", "-c", wrapped, s.User)
	f, err := pty.Start(cmd)
	if err != nil {
		return Result{}, fmt.Errorf("start su: %w", err)
	}
	defer func() { _ = f.Close() }()

	var (
		mu       sync.Mutex
		out      bytes.Buffer
		prompted bool
	)
	readerDone := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(readerDone)
		br := bufio.NewReader(f)
		buf := make([]byte, 4096)
		for {
			_ = f.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			n, rerr := br.Read(buf)
			if n > 0 {
				mu.Lock()
				out.Write(buf[:n])
				lower := strings.ToLower(out.String())
				if !prompted && !strings.Contains(lower, suMarker) && strings.Contains(lower, "password") {
					prompted = true
					_, _ = io.WriteString(f, s.Password+"\n")
				}
				mu.Unlock()
			}
			if rerr != nil {
				if errors.Is(rerr, os.ErrDeadlineExceeded) {
					select {
					case <-exited:
						return
					default:
						continue
					}
				}
				// EIO once the child side closes.
				return
			}
		}
	}()

	err = cmd.Wait()
	close(exited)
	<-readerDone

	mu.Lock()
	raw := out.String()
	mu.Unlock()

	res := Result{Stdout: afterMarker(raw)}
	if err != nil {
		if ctx.Err() != nil {
			return res, fmt.Errorf("su: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if !strings.Contains(raw, suMarker) {
				// su itself failed, usually authentication.
				return res, fmt.Errorf("su to %s failed: %s", s.User, suFailure(raw, exitErr.ExitCode()))
			}
			res.ExitStatus = exitErr.ExitCode()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

func afterMarker(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	i := strings.Index(raw, suMarker+"\n")
	if i < 0 {
		return ""
	}
	return raw[i+len(suMarker)+1:]
}

// suFailure picks the last line of the transcript that is not the password
// prompt. A terminal echoing input would otherwise leak the password.
func suFailure(raw string, code int) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.Contains(strings.ToLower(line), "password") {
			continue
		}
		return line
	}
	return fmt.Sprintf("exit status %d", code)
}
