// Package metrics exposes Prometheus collectors describing a sitefix run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/sitefix/internal/issue"
)

// File results recorded by ObserveFile.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Recorder owns the collectors for one run on a private registry, so tests
// and repeated runs never collide on registration. A nil *Recorder discards
// every observation.
type Recorder struct {
	registry *prometheus.Registry

	filesTotal      *prometheus.CounterVec
	issuesTotal     *prometheus.CounterVec
	decodeErrors    prometheus.Counter
	readRetries     prometheus.Counter
	analysisSeconds prometheus.Histogram
}

// New registers the collectors and returns a Recorder.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitefix_files_total",
				Help: "Total number of HTML files analysed, labeled by result.",
			},
			[]string{"result"},
		),
		issuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitefix_issues_total",
				Help: "Total number of issues found, labeled by kind.",
			},
			[]string{"kind"},
		),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitefix_decode_errors_total",
			Help: "Total number of href values that could not be percent-decoded.",
		}),
		readRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitefix_read_retries_total",
			Help: "Total number of retried file opens and reads.",
		}),
		analysisSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitefix_file_analysis_seconds",
			Help:    "Histogram of per-file analysis latency.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
	r.registry.MustRegister(r.filesTotal, r.issuesTotal, r.decodeErrors, r.readRetries, r.analysisSeconds)
	return r
}

// Registry returns the registry holding the run's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveFile records one analysed file and how long it took.
func (r *Recorder) ObserveFile(result string, duration time.Duration) {
	if r == nil {
		return
	}
	r.filesTotal.WithLabelValues(result).Inc()
	r.analysisSeconds.Observe(duration.Seconds())
}

// ObserveIssues counts issues by kind.
func (r *Recorder) ObserveIssues(issues []issue.Issue) {
	if r == nil {
		return
	}
	for _, i := range issues {
		r.issuesTotal.WithLabelValues(string(i.Kind)).Inc()
	}
}

// IncDecodeErrors counts undecodable href values.
func (r *Recorder) IncDecodeErrors(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.decodeErrors.Add(float64(n))
}

// IncReadRetries counts one retried file operation.
func (r *Recorder) IncReadRetries() {
	if r == nil {
		return
	}
	r.readRetries.Inc()
}

// WriteTextfile writes every collector to path in the Prometheus text format,
// suitable for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
