package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Markdown renders the report as a GitHub-flavoured table.
func Markdown(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# hostcheck run %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Started %s, %d passed, %d failed, %d errors.\n\n",
		r.StartedAt.Format("2006-01-02 15:04:05 MST"), r.Summary.Passed, r.Summary.Failed, r.Summary.Errors)
	b.WriteString("| Host | Check | Status | Message |\n")
	b.WriteString("|------|-------|--------|---------|\n")
	for _, res := range r.Results {
		fmt.Fprintf(&b, "| `%s` | `%s` | %s | %s |\n", cell(res.Host), res.Check, res.Status, cell(res.Message))
	}
	return b.String()
}

func writeHTML(w io.Writer, r *Report) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(r)), &body); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>hostcheck %s</title></head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(r.RunID), body.String())
	return err
}
