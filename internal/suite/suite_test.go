package suite

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/hostcheck/internal/check"
	"github.com/hnrobert/hostcheck/internal/host"
)

type namedHost string

func (h namedHost) Name() string { return string(h) }

func (h namedHost) File(string) host.File { return nil }

func checks() []check.Check {
	return []check.Check{
		{Name: "test_pass", Fn: func(host.Host) error { return nil }},
		{Name: "test_fail", Fn: func(host.Host) error { return &check.AssertionError{Condition: "1 == 2"} }},
		{Name: "test_error", Fn: func(host.Host) error { return errors.New("host unreachable") }},
		{Name: "test_panic", Fn: func(host.Host) error { panic("boom") }},
	}
}

func TestRunClassifiesResults(t *testing.T) {
	r := &Runner{Checks: checks()}
	results, err := r.Run(context.Background(), []host.Host{namedHost("a")})
	require.Error(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, StatusPassed, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, "assert 1 == 2", results[1].Message)
	assert.Equal(t, StatusError, results[2].Status)
	assert.Equal(t, "host unreachable", results[2].Message)
	assert.Equal(t, StatusError, results[3].Status)
	assert.Contains(t, results[3].Message, "panic: boom")

	assert.Contains(t, err.Error(), "3 errors occurred")
	assert.Contains(t, err.Error(), "test_fail on a failed")
}

func TestRunAllPassed(t *testing.T) {
	r := &Runner{Checks: checks()[:1]}
	results, err := r.Run(context.Background(), []host.Host{namedHost("a"), namedHost("b")})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Host)
	assert.Equal(t, "b", results[1].Host)
}

func TestRunParallelKeepsOrder(t *testing.T) {
	var calls atomic.Int32
	cs := []check.Check{
		{Name: "test_one", Fn: func(host.Host) error { calls.Add(1); return nil }},
		{Name: "test_two", Fn: func(host.Host) error { calls.Add(1); return nil }},
	}
	hosts := []host.Host{namedHost("a"), namedHost("b"), namedHost("c")}

	r := &Runner{Checks: cs, Parallel: true, Limit: 2}
	results, err := r.Run(context.Background(), hosts)
	require.NoError(t, err)
	assert.Equal(t, int32(6), calls.Load())

	var got []string
	for _, res := range results {
		got = append(got, res.Host+"/"+res.Check)
	}
	assert.Equal(t, []string{"a/test_one", "a/test_two", "b/test_one", "b/test_two", "c/test_one", "c/test_two"}, got)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called bool
	r := &Runner{Checks: []check.Check{{Name: "test_x", Fn: func(host.Host) error { called = true; return nil }}}}
	results, err := r.Run(ctx, []host.Host{namedHost("a")})
	require.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, StatusError, results[0].Status)
	assert.Equal(t, context.Canceled.Error(), results[0].Message)
}
