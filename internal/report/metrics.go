package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hnrobert/hostcheck/internal/suite"
)

// Registry builds a private registry describing the report, suitable for
// the node_exporter textfile collector.
func Registry(r *Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	passed := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hostcheck",
		Subsystem: "check",
		Name:      "passed",
		Help:      "1 if the check passed on the host, 0 otherwise",
	}, []string{"host", "check"})
	results := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hostcheck",
		Name:      "results_total",
		Help:      "Check results of the last run by status",
	}, []string{"status"})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hostcheck",
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})
	reg.MustRegister(passed, results, duration)

	for _, s := range []suite.Status{suite.StatusPassed, suite.StatusFailed, suite.StatusError} {
		results.WithLabelValues(string(s))
	}
	for _, res := range r.Results {
		v := 0.0
		if res.Status == suite.StatusPassed {
			v = 1
		}
		passed.WithLabelValues(res.Host, res.Check).Set(v)
		results.WithLabelValues(string(res.Status)).Inc()
	}
	duration.Set(r.Duration.Seconds())
	return reg
}

// WriteMetrics writes the report's metrics in the text exposition format.
func WriteMetrics(path string, r *Report) error {
	return prometheus.WriteToTextfile(path, Registry(r))
}
