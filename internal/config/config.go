// Package config loads hostcheck settings from a YAML file, HOSTCHECK_*
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/hostcheck/internal/host"
	"github.com/hnrobert/hostcheck/internal/logger"
	"github.com/hnrobert/hostcheck/internal/report"
)

const EnvPrefix = "HOSTCHECK"

type SSH struct {
	IdentityFile string `mapstructure:"identity_file" yaml:"identity_file"`
	KnownHosts   string `mapstructure:"known_hosts" yaml:"known_hosts"`
}

type Report struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"`
}

type Config struct {
	Hosts           []string      `mapstructure:"hosts" yaml:"hosts"`
	Keyword         string        `mapstructure:"keyword" yaml:"keyword"`
	Marker          string        `mapstructure:"marker" yaml:"marker"`
	Parallel        bool          `mapstructure:"parallel" yaml:"parallel"`
	Sudo            bool          `mapstructure:"sudo" yaml:"sudo"`
	SudoUser        string        `mapstructure:"sudo_user" yaml:"sudo_user"`
	SudoPassword    string        `mapstructure:"sudo_password" yaml:"sudo_password"`
	Verbose         int           `mapstructure:"verbose" yaml:"verbose"`
	Compact         bool          `mapstructure:"compact" yaml:"compact"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Env             []string      `mapstructure:"env" yaml:"env"`
	InstallCmd      string        `mapstructure:"install_cmd" yaml:"install_cmd"`
	SSH             SSH           `mapstructure:"ssh" yaml:"ssh"`
	Report          Report        `mapstructure:"report" yaml:"report"`
	MetricsTextfile string        `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`
	LogDir          string        `mapstructure:"log_dir" yaml:"log_dir"`
}

var defaults = map[string]any{
	"hosts":             []string{"local://"},
	"keyword":           "",
	"marker":            "",
	"parallel":          false,
	"sudo":              false,
	"sudo_user":         "",
	"sudo_password":     "",
	"verbose":           0,
	"compact":           false,
	"timeout":           10 * time.Second,
	"env":               []string{},
	"install_cmd":       "",
	"ssh.identity_file": "",
	"ssh.known_hosts":   "",
	"report.format":     string(report.FormatText),
	"report.path":       "",
	"metrics_textfile":  "",
	"log_dir":           "",
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"hosts":            "hosts",
	"keyword":          "keyword",
	"marker":           "marker",
	"parallel":         "parallel",
	"sudo":             "sudo",
	"sudo-user":        "sudo_user",
	"verbose":          "verbose",
	"compact":          "compact",
	"timeout":          "timeout",
	"env":              "env",
	"install-cmd":      "install_cmd",
	"ssh-identity":     "ssh.identity_file",
	"ssh-known-hosts":  "ssh.known_hosts",
	"format":           "report.format",
	"output":           "report.path",
	"metrics-textfile": "metrics_textfile",
	"log-dir":          "log_dir",
}

// Load reads configuration. An empty path searches ./hostcheck.yaml and
// ~/.config/hostcheck/hostcheck.yaml, and a missing file is not an error
// in that case. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	v.SetConfigType("yaml")
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", expanded, err)
		}
	} else {
		v.SetConfigName("hostcheck")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home + "/.config/hostcheck")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file %s", used)
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Validate normalises c in place and returns every problem found.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if len(c.Hosts) == 0 {
		errs = multierror.Append(errs, errors.New("no hosts configured"))
	}
	for _, h := range c.Hosts {
		if _, err := host.ParseURI(h); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	format, err := report.ParseFormat(c.Report.Format)
	if err != nil {
		errs = multierror.Append(errs, err)
	} else {
		c.Report.Format = string(format)
	}

	switch {
	case c.Verbose < 0:
		errs = multierror.Append(errs, fmt.Errorf("verbose must be between 0 and %d, got %d", logger.MaxVerbosity, c.Verbose))
	case c.Verbose > logger.MaxVerbosity:
		logger.Warn("verbose %d is above the maximum, using %d", c.Verbose, logger.MaxVerbosity)
		c.Verbose = logger.MaxVerbosity
	}

	if c.Timeout <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	if _, err := c.Environment(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if c.Sudo && c.SudoUser != "" {
		logger.Warn("sudo and sudo_user are both set, ignoring sudo_user %q", c.SudoUser)
		c.SudoUser = ""
		c.SudoPassword = ""
	}

	for _, p := range []*string{&c.SSH.IdentityFile, &c.SSH.KnownHosts, &c.Report.Path, &c.MetricsTextfile, &c.LogDir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		*p = expanded
	}

	return errs.ErrorOrNil()
}

// Environment parses the KEY=VALUE entries of Env.
func (c *Config) Environment() (map[string]string, error) {
	env := make(map[string]string, len(c.Env))
	var errs *multierror.Error
	for _, kv := range c.Env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !validEnvName(k) {
			errs = multierror.Append(errs, fmt.Errorf("env entry %q must look like NAME=value", kv))
			continue
		}
		env[k] = v
	}
	return env, errs.ErrorOrNil()
}

func validEnvName(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// HostOptions are the per-run settings passed to host.Open. Call it after
// Validate; invalid env entries are dropped.
func (c *Config) HostOptions() host.Options {
	env, _ := c.Environment()
	return host.Options{
		Env:          env,
		Sudo:         c.Sudo,
		SudoUser:     c.SudoUser,
		SudoPassword: c.SudoPassword,
		Timeout:      c.Timeout,
		IdentityFile: c.SSH.IdentityFile,
		KnownHosts:   c.SSH.KnownHosts,
	}
}

// YAML renders the effective configuration with secrets masked.
func (c Config) YAML() ([]byte, error) {
	if c.SudoPassword != "" {
		c.SudoPassword = "xxxxx"
	}
	hosts := make([]string, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		if spec, err := host.ParseURI(h); err == nil {
			h = spec.Display()
		}
		hosts = append(hosts, h)
	}
	c.Hosts = hosts
	return yaml.Marshal(c)
}
