package userdb

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// splitRecords yields the colon-separated fields of every record line,
// skipping blanks and comments. Lines with fewer than min fields are ignored.
func splitRecords(b []byte, min int, fn func(lineNo int, parts []string) error) error {
	s := bufio.NewScanner(bytes.NewReader(b))
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	n := 0
	for s.Scan() {
		n++
		line := s.Text()
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		// Keep trailing empty fields.
		parts := strings.Split(line, ":")
		if len(parts) < min {
			continue
		}
		if err := fn(n, parts); err != nil {
			return err
		}
	}
	return s.Err()
}

func atoi(field, ctx string, line int) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid int %q in %s (line %d): %w", field, ctx, line, err)
	}
	return n, nil
}
