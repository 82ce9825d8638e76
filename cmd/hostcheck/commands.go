package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hnrobert/hostcheck/internal/check"
	"github.com/hnrobert/hostcheck/internal/config"
	"github.com/hnrobert/hostcheck/internal/host"
	"github.com/hnrobert/hostcheck/internal/logger"
	"github.com/hnrobert/hostcheck/internal/report"
	"github.com/hnrobert/hostcheck/internal/suite"
	"github.com/hnrobert/hostcheck/internal/version"
)

const (
	exitChecks = 1
	exitConfig = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error {
	return &exitError{code: exitConfig, err: err}
}

var bold = color.New(color.Bold).SprintFunc()

func newRootCommand() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "hostcheck",
		Short:         "Assert the state of files on local and remote hosts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./hostcheck.yaml)")
	root.PersistentFlags().CountP("verbose", "v", "increase verbosity, repeatable up to 4")
	root.PersistentFlags().String("log-dir", "", "also write logs to daily files under this directory")

	root.AddCommand(
		newRunCommand(&cfgPath),
		newListCommand(&cfgPath),
		newConfigCommand(&cfgPath),
		newVersionCommand(),
	)
	return root
}

// loadConfig reads, validates and applies the logging settings.
func loadConfig(path string, flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(path, flags)
	if err != nil {
		return nil, configError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, configError(err)
	}
	logger.SetVerbosity(cfg.Verbose)
	if cfg.LogDir != "" {
		if err := logger.Init(cfg.LogDir); err != nil {
			return nil, configError(fmt.Errorf("log dir: %w", err))
		}
	}
	return cfg, nil
}

func newRunCommand(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the selected checks against every host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
	f := cmd.Flags()
	f.StringSlice("hosts", nil, "host URIs, e.g. local://, ssh://user@host, docker://id")
	f.StringP("keyword", "k", "", `only run checks matching the expression, e.g. "passwd and not shadow"`)
	f.StringP("marker", "m", "", "only run checks with this marker")
	f.Bool("parallel", false, "run checks in parallel")
	f.Bool("sudo", false, "run commands through sudo")
	f.String("sudo-user", "", "run commands as this user")
	f.Bool("compact", false, "only print failures, without header or summary")
	f.Duration("timeout", 10*time.Second, "per-command timeout")
	f.StringSlice("env", nil, "NAME=value exported before every command, repeatable")
	f.String("install-cmd", "", "command run once on every host before the checks")
	f.String("ssh-identity", "", "default ssh private key")
	f.String("ssh-known-hosts", "", "known_hosts file; empty skips host key verification")
	f.String("format", "text", "report format: text, yaml, markdown, html")
	f.StringP("output", "o", "", "write the report to this file instead of stdout")
	f.String("metrics-textfile", "", "write prometheus metrics to this file")
	return cmd
}

func run(ctx context.Context, stdout io.Writer, cfg *config.Config) error {
	checks := check.Builtin().Select(cfg.Keyword, cfg.Marker)
	if len(checks) == 0 {
		logger.Warn("no checks match keyword %q marker %q", cfg.Keyword, cfg.Marker)
	}

	hosts, err := openHosts(cfg)
	defer closeHosts(hosts)
	if err != nil {
		return configError(err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.InstallCmd != "" {
		env := cfg.HostOptions().Env
		for _, h := range hosts {
			logger.Info("%s: running install command", h.Name())
			if err := host.Prepare(ctx, h, cfg.InstallCmd, env); err != nil {
				return &exitError{code: exitChecks, err: err}
			}
		}
	}

	runner := &suite.Runner{Checks: checks, Parallel: cfg.Parallel}
	started := time.Now()
	results, runErr := runner.Run(ctx, hosts)
	rep := report.New(started, results)

	format := report.Format(cfg.Report.Format)
	opts := report.Options{Compact: cfg.Compact, Verbose: cfg.Verbose}
	if cfg.Report.Path == "" {
		if err := report.Write(stdout, rep, format, opts); err != nil {
			return err
		}
	} else {
		if err := report.WriteFile(afero.NewOsFs(), cfg.Report.Path, rep, format, opts); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("report %s written to %s", rep.RunID, cfg.Report.Path)
	}

	if cfg.MetricsTextfile != "" {
		if err := report.WriteMetrics(cfg.MetricsTextfile, rep); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if runErr != nil {
		logger.Debug("%v", runErr)
		return &exitError{
			code: exitChecks,
			err:  fmt.Errorf("%d of %d checks did not pass", rep.Summary.Failed+rep.Summary.Errors, rep.Summary.Total),
		}
	}
	return nil
}

func openHosts(cfg *config.Config) ([]host.Host, error) {
	opts := cfg.HostOptions()
	hosts := make([]host.Host, 0, len(cfg.Hosts))
	for _, raw := range cfg.Hosts {
		spec, err := host.ParseURI(raw)
		if err != nil {
			return hosts, err
		}
		h, err := host.Open(spec, opts)
		if err != nil {
			return hosts, err
		}
		logger.Debug("opened host %s", h.Name())
		hosts = append(hosts, h)
	}
	return hosts, nil
}

func closeHosts(hosts []host.Host) {
	for _, h := range hosts {
		if c, ok := h.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("close %s: %v", h.Name(), err)
			}
		}
	}
}

func newListCommand(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range check.Builtin().Select(cfg.Keyword, cfg.Marker) {
				fmt.Fprintf(w, "%s  [%s]  %s\n", bold(c.Name), strings.Join(c.Markers, ","), c.Doc)
			}
			return nil
		},
	}
	cmd.Flags().StringP("keyword", "k", "", "keyword expression")
	cmd.Flags().StringP("marker", "m", "", "marker")
	return cmd
}

func newConfigCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			b, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hostcheck %s\n", version.Get())
		},
	}
}
