// Package suite runs selected checks against a set of hosts.
package suite

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/hnrobert/hostcheck/internal/check"
	"github.com/hnrobert/hostcheck/internal/host"
	"github.com/hnrobert/hostcheck/internal/logger"
)

type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	StatusError  Status = "error"
)

type Result struct {
	Host     string        `yaml:"host"`
	Check    string        `yaml:"check"`
	Status   Status        `yaml:"status"`
	Message  string        `yaml:"message,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

type Runner struct {
	Checks   []check.Check
	Parallel bool
	// Limit bounds parallel checks; zero means one per CPU.
	Limit int
}

type job struct {
	h host.Host
	c check.Check
}

// Run executes every check on every host. Results are ordered by host, then
// check, whatever the parallelism. The error aggregates every pair that did
// not pass.
func (r *Runner) Run(ctx context.Context, hosts []host.Host) ([]Result, error) {
	jobs := make([]job, 0, len(hosts)*len(r.Checks))
	for _, h := range hosts {
		for _, c := range r.Checks {
			jobs = append(jobs, job{h: h, c: c})
		}
	}
	results := make([]Result, len(jobs))

	if r.Parallel {
		limit := r.Limit
		if limit <= 0 {
			limit = runtime.NumCPU()
		}
		logger.Debug("running %d checks with up to %d in parallel", len(jobs), limit)
		var g errgroup.Group
		g.SetLimit(limit)
		for i, j := range jobs {
			g.Go(func() error {
				results[i] = runJob(ctx, j)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, j := range jobs {
			results[i] = runJob(ctx, j)
		}
	}

	var errs *multierror.Error
	for _, res := range results {
		if res.Status != StatusPassed {
			errs = multierror.Append(errs, fmt.Errorf("%s on %s %s: %s", res.Check, res.Host, res.Status, res.Message))
		}
	}
	return results, errs.ErrorOrNil()
}

func runJob(ctx context.Context, j job) (res Result) {
	res = Result{Host: j.h.Name(), Check: j.c.Name}
	if err := ctx.Err(); err != nil {
		res.Status = StatusError
		res.Message = err.Error()
		return res
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if p := recover(); p != nil {
			res.Status = StatusError
			res.Message = fmt.Sprintf("panic: %v", p)
		}
		logger.Debug("%s on %s: %s in %s", res.Check, res.Host, res.Status, res.Duration)
	}()

	err := j.c.Fn(j.h)
	switch {
	case err == nil:
		res.Status = StatusPassed
	case check.IsAssertion(err):
		res.Status = StatusFailed
		res.Message = err.Error()
	default:
		res.Status = StatusError
		res.Message = err.Error()
	}
	return res
}
