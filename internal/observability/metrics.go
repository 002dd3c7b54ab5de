package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sweeping"

// Metrics counts pipeline and fit activity on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FilesDiscovered  prometheus.Counter
	RecordsExtracted prometheus.Counter
	ExtractFailures  *prometheus.CounterVec
	DuplicatePaths   prometheus.Counter
	RecordsIgnored   prometheus.Counter
	FitCandidates    prometheus.Counter
	FitAccepted      prometheus.Counter
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates and registers every counter.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "files_discovered_total",
			Help: "Result files found under the results directory.",
		}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "records_total",
			Help: "Records merged from path and content.",
		}),
		ExtractFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "failures_total",
			Help: "Files skipped because of a recoverable error.",
		}, []string{"code"}),
		DuplicatePaths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "duplicate_paths_total",
			Help: "Records whose parameters and date were probably seen earlier in the run.",
		}),
		RecordsIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "table", Name: "records_ignored_total",
			Help: "Records moved to the ignored database by sanitization.",
		}),
		FitCandidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fit", Name: "candidates_total",
			Help: "Parameter combinations evaluated by the fit search.",
		}),
		FitAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fit", Name: "accepted_total",
			Help: "Parameter combinations that produced a candidate file.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds",
			Help: "Unix time the last command finished.",
		}),
	}
	m.registry.MustRegister(
		m.FilesDiscovered,
		m.RecordsExtracted,
		m.ExtractFailures,
		m.DuplicatePaths,
		m.RecordsIgnored,
		m.FitCandidates,
		m.FitAccepted,
		m.LastRunTimestamp,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes every metric in the Prometheus text format, for
// pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	m.LastRunTimestamp.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, m.registry)
}
