package check

import (
	"errors"
	"fmt"

	"github.com/hnrobert/hostcheck/internal/host"
)

// AssertionError is a condition that evaluated false. Collaborator errors
// (missing files, unreachable hosts) are never wrapped in it.
type AssertionError struct {
	Condition string
	Expected  string
	Actual    string
}

func (e *AssertionError) Error() string {
	if e.Expected == "" && e.Actual == "" {
		return "assert " + e.Condition
	}
	return fmt.Sprintf("assert %s (expected %s, got %s)", e.Condition, e.Expected, e.Actual)
}

// IsAssertion reports whether err is, or wraps, an AssertionError.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// Step is one lazily evaluated condition.
type Step func() error

// Sequence evaluates steps in order and returns the first error. Steps after
// a failure are never called.
func Sequence(steps ...Step) error {
	for _, s := range steps {
		if err := s(); err != nil {
			return err
		}
	}
	return nil
}

func FileContains(f host.File, substr string) Step {
	return func() error {
		ok, err := f.Contains(substr)
		if err != nil {
			return err
		}
		if !ok {
			return &AssertionError{Condition: fmt.Sprintf("%s.contains(%q)", f.Path(), substr)}
		}
		return nil
	}
}

func FileUser(f host.File, want string) Step {
	return func() error {
		got, err := f.User()
		if err != nil {
			return err
		}
		if got != want {
			return &AssertionError{Condition: fmt.Sprintf("%s.user == %q", f.Path(), want), Expected: fmt.Sprintf("%q", want), Actual: fmt.Sprintf("%q", got)}
		}
		return nil
	}
}

func FileGroup(f host.File, want string) Step {
	return func() error {
		got, err := f.Group()
		if err != nil {
			return err
		}
		if got != want {
			return &AssertionError{Condition: fmt.Sprintf("%s.group == %q", f.Path(), want), Expected: fmt.Sprintf("%q", want), Actual: fmt.Sprintf("%q", got)}
		}
		return nil
	}
}

func FileMode(f host.File, want host.Perm) Step {
	return func() error {
		got, err := f.Mode()
		if err != nil {
			return err
		}
		if got != want {
			return &AssertionError{Condition: fmt.Sprintf("%s.mode == 0o%o", f.Path(), uint32(want)), Expected: want.String(), Actual: got.String()}
		}
		return nil
	}
}
