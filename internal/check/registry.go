package check

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hnrobert/hostcheck/internal/host"
)

// NamePrefix is the discovery convention for check names.
const NamePrefix = "test_"

var (
	ErrDuplicateCheck = errors.New("duplicate check")
	ErrCheckName      = errors.New("check name must start with " + NamePrefix)
)

// Func receives the host explicitly and returns nil on pass.
type Func func(h host.Host) error

type Check struct {
	Name    string
	Doc     string
	Markers []string
	Fn      Func
}

type Registry struct {
	checks []Check
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(c Check) error {
	if !strings.HasPrefix(c.Name, NamePrefix) || len(c.Name) == len(NamePrefix) {
		return fmt.Errorf("%q: %w", c.Name, ErrCheckName)
	}
	if c.Fn == nil {
		return fmt.Errorf("%q: nil check function", c.Name)
	}
	for _, have := range r.checks {
		if have.Name == c.Name {
			return fmt.Errorf("%q: %w", c.Name, ErrDuplicateCheck)
		}
	}
	r.checks = append(r.checks, c)
	return nil
}

func (r *Registry) MustRegister(c Check) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// All returns checks in registration order.
func (r *Registry) All() []Check {
	return slices.Clone(r.checks)
}

// Select filters by keyword expression and marker; empty values match all.
func (r *Registry) Select(keyword, marker string) []Check {
	var out []Check
	for _, c := range r.checks {
		if marker != "" && !slices.Contains(c.Markers, marker) {
			continue
		}
		if !MatchKeyword(keyword, c.Name) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// MatchKeyword evaluates a small keyword expression against name: terms are
// substrings, combined with "or" and "and" (and binds tighter), each
// optionally prefixed by "not".
func MatchKeyword(expr, name string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true
	}
	for _, alt := range strings.Split(expr, " or ") {
		all := true
		for _, term := range strings.Split(alt, " and ") {
			term = strings.TrimSpace(term)
			negate := false
			for strings.HasPrefix(term, "not ") {
				negate = !negate
				term = strings.TrimSpace(strings.TrimPrefix(term, "not "))
			}
			if strings.Contains(name, term) == negate {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// Builtin returns the registry of checks shipped with hostcheck.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(Check{
		Name:    "test_passwd_file",
		Doc:     "validate passwd file",
		Markers: []string{"files"},
		Fn:      PasswdFile,
	})
	return r
}
