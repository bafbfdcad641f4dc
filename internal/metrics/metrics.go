package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for ingestion and filtering.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	LinesTotal         prometheus.Counter
	RecordsTotal       prometheus.Counter
	FilesTotal         *prometheus.CounterVec
	DecompressFailures prometheus.Counter
	FilterRunsTotal    *prometheus.CounterVec
	FilterRecordsOut   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LinesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "syslens",
			Subsystem: "ingest",
			Name:      "lines_total",
			Help:      "Total number of lines read from sources.",
		}),
		RecordsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "syslens",
			Subsystem: "ingest",
			Name:      "records_total",
			Help:      "Total number of lines accepted as syslog records.",
		}),
		FilesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslens",
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "Total number of sources loaded by status.",
		}, []string{"status"}), // status: ok, empty, error, archive_error
		DecompressFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "syslens",
			Subsystem: "archive",
			Name:      "decompress_failures_total",
			Help:      "Total number of .zst members that could not be decompressed.",
		}),
		FilterRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslens",
			Subsystem: "filter",
			Name:      "runs_total",
			Help:      "Total number of filter stage executions.",
		}, []string{"stage"}), // stage: day, instant, keyword
		FilterRecordsOut: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "syslens",
			Subsystem: "filter",
			Name:      "records_out_total",
			Help:      "Total number of records emitted by filter stages.",
		}, []string{"stage"}),
	}
}

// ObserveLoad records one loaded source.
func (m *Metrics) ObserveLoad(status string, lines, records int) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(status).Inc()
	m.LinesTotal.Add(float64(lines))
	m.RecordsTotal.Add(float64(records))
}

// ObserveDecompressFailures adds n failed members.
func (m *Metrics) ObserveDecompressFailures(n int) {
	if m == nil || n == 0 {
		return
	}
	m.DecompressFailures.Add(float64(n))
}

// ObserveFilter records one run of a filter stage.
func (m *Metrics) ObserveFilter(stage string, out int) {
	if m == nil {
		return
	}
	m.FilterRunsTotal.WithLabelValues(stage).Inc()
	m.FilterRecordsOut.WithLabelValues(stage).Add(float64(out))
}
