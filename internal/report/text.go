package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/hostcheck/internal/suite"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

func paint(opts Options, fn func(a ...interface{}) string, s string) string {
	if opts.NoColor {
		return s
	}
	return fn(s)
}

func statusLabel(s suite.Status, opts Options) string {
	switch s {
	case suite.StatusPassed:
		return paint(opts, green, "PASSED")
	case suite.StatusFailed:
		return paint(opts, red, "FAILED")
	}
	return paint(opts, yellow, "ERROR")
}

func writeText(w io.Writer, r *Report, opts Options) error {
	if !opts.Compact {
		fmt.Fprintf(w, "hostcheck run %s: %d checks\n", r.RunID, r.Summary.Total)
	}
	for _, res := range r.Results {
		if res.Status == suite.StatusPassed && opts.Compact && opts.Verbose == 0 {
			continue
		}
		line := fmt.Sprintf("%s::%s %s", res.Host, res.Check, statusLabel(res.Status, opts))
		if opts.Verbose > 0 {
			line += " " + paint(opts, gray, fmt.Sprintf("(%s)", res.Duration.Round(time.Millisecond)))
		}
		fmt.Fprintln(w, line)
		if res.Message != "" {
			fmt.Fprintf(w, "    %s\n", res.Message)
		}
	}
	if opts.Compact {
		return nil
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed, %d errors in %s\n",
		r.Summary.Passed, r.Summary.Failed, r.Summary.Errors, r.Duration.Round(time.Millisecond))
	return err
}

func writeYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
