// Package report renders suite results for people and machines.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/hnrobert/hostcheck/internal/hostfs"
	"github.com/hnrobert/hostcheck/internal/suite"
)

type Format string

const (
	FormatText     Format = "text"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var Formats = []Format{FormatText, FormatYAML, FormatMarkdown, FormatHTML}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	case FormatText, FormatYAML, FormatMarkdown, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q (want one of %v)", s, Formats)
}

type Summary struct {
	Total  int `yaml:"total"`
	Passed int `yaml:"passed"`
	Failed int `yaml:"failed"`
	Errors int `yaml:"errors"`
}

type Report struct {
	RunID     string         `yaml:"run_id"`
	StartedAt time.Time      `yaml:"started_at"`
	Duration  time.Duration  `yaml:"duration"`
	Summary   Summary        `yaml:"summary"`
	Results   []suite.Result `yaml:"results"`
}

func New(started time.Time, results []suite.Result) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		Duration:  time.Since(started),
		Results:   results,
	}
	for _, res := range results {
		r.Summary.Total++
		switch res.Status {
		case suite.StatusPassed:
			r.Summary.Passed++
		case suite.StatusFailed:
			r.Summary.Failed++
		default:
			r.Summary.Errors++
		}
	}
	return r
}

func (r *Report) OK() bool {
	return r.Summary.Failed == 0 && r.Summary.Errors == 0
}

// Options tune the text format.
type Options struct {
	Compact bool
	Verbose int
	// NoColor forces plain text whatever the terminal.
	NoColor bool
}

func Write(w io.Writer, r *Report, format Format, opts Options) error {
	switch format {
	case FormatText, "":
		return writeText(w, r, opts)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case FormatHTML:
		return writeHTML(w, r)
	}
	return fmt.Errorf("unknown report format %q", format)
}

// WriteFile renders the report and replaces path atomically.
func WriteFile(fsys afero.Fs, path string, r *Report, format Format, opts Options) error {
	var buf bytes.Buffer
	opts.NoColor = true
	if err := Write(&buf, r, format, opts); err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(fsys, path, buf.Bytes(), os.FileMode(0o644))
}
