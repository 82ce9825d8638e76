package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/hnrobert/hostcheck/internal/logger"
)

var ErrNoSSHAuth = errors.New("no ssh authentication available")

type SSHConfig struct {
	User         string
	Password     string
	Addr         string // host:port
	IdentityFile string
	KnownHosts   string // empty disables host key verification
	Timeout      time.Duration
}

// SSHExecutor runs commands over a single lazily dialled SSH connection.
type SSHExecutor struct {
	cfg SSHConfig

	mu     sync.Mutex
	client *ssh.Client
	agent  net.Conn
}

func NewSSHExecutor(cfg SSHConfig) *SSHExecutor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &SSHExecutor{cfg: cfg}
}

// authMethods picks password, then private key, then agent.
func (s *SSHExecutor) authMethods() ([]ssh.AuthMethod, error) {
	if s.cfg.Password != "" {
		logger.Debug("ssh %s: using password authentication", s.cfg.Addr)
		return []ssh.AuthMethod{ssh.Password(s.cfg.Password)}, nil
	}
	if s.cfg.IdentityFile != "" {
		path, err := homedir.Expand(s.cfg.IdentityFile)
		if err != nil {
			return nil, err
		}
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read identity file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse identity file %s: %w", path, err)
		}
		logger.Debug("ssh %s: using private key %s", s.cfg.Addr, path)
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if s.agent == nil {
			conn, err := net.Dial("unix", sock)
			if err != nil {
				return nil, fmt.Errorf("connect ssh agent: %w", err)
			}
			s.agent = conn
		}
		logger.Debug("ssh %s: using ssh agent", s.cfg.Addr)
		return []ssh.AuthMethod{ssh.PublicKeysCallback(agent.NewClient(s.agent).Signers)}, nil
	}
	return nil, ErrNoSSHAuth
}

func (s *SSHExecutor) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if s.cfg.KnownHosts == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path, err := homedir.Expand(s.cfg.KnownHosts)
	if err != nil {
		return nil, err
	}
	return knownhosts.New(path)
}

func (s *SSHExecutor) dial() (*ssh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	auth, err := s.authMethods()
	if err != nil {
		return nil, err
	}
	hkc, err := s.hostKeyCallback()
	if err != nil {
		s.closeAgent()
		return nil, err
	}
	client, err := ssh.Dial("tcp", s.cfg.Addr, &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            auth,
		HostKeyCallback: hkc,
		Timeout:         s.cfg.Timeout,
	})
	if err != nil {
		s.closeAgent()
		return nil, fmt.Errorf("ssh dial %s: %w", s.cfg.Addr, err)
	}
	s.client = client
	return client, nil
}

func (s *SSHExecutor) Run(ctx context.Context, command string) (Result, error) {
	client, err := s.dial()
	if err != nil {
		return Result{}, err
	}
	sess, err := client.NewSession()
	if err != nil {
		return Result{}, err
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		_ = sess.Signal(ssh.SIGKILL)
		return Result{}, fmt.Errorf("ssh %s: %w", s.cfg.Addr, ctx.Err())
	case err = <-done:
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitStatus = exitErr.ExitStatus()
			return res, nil
		}
		return res, err
	}
	return res, nil
}

func (s *SSHExecutor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if s.client != nil {
		err = s.client.Close()
		s.client = nil
	}
	s.closeAgent()
	return err
}

func (s *SSHExecutor) closeAgent() {
	if s.agent != nil {
		_ = s.agent.Close()
		s.agent = nil
	}
}
