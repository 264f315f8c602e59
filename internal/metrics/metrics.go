package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records decode throughput and outcomes for one run.
// Each instance owns its registry so runs and tests never collide on the
// default registerer.
type Metrics struct {
	registry *prometheus.Registry

	FilesProcessed   *prometheus.CounterVec
	Interchanges     prometheus.Counter
	Groups           prometheus.Counter
	Transactions     prometheus.Counter
	ValidationErrors prometheus.Counter
	Warnings         prometheus.Counter
	Failures         *prometheus.CounterVec
	DecodeDuration   prometheus.Histogram
}

// New creates a Metrics instance with all decoder metrics registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FilesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "x12dec_files_processed_total",
			Help: "Files processed, by outcome (success, failed, skipped)",
		}, []string{"outcome"}),
		Interchanges: factory.NewCounter(prometheus.CounterOpts{
			Name: "x12dec_interchanges_total",
			Help: "Interchanges decoded",
		}),
		Groups: factory.NewCounter(prometheus.CounterOpts{
			Name: "x12dec_groups_total",
			Help: "Functional groups decoded",
		}),
		Transactions: factory.NewCounter(prometheus.CounterOpts{
			Name: "x12dec_transactions_total",
			Help: "Transaction sets decoded",
		}),
		ValidationErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "x12dec_validation_errors_total",
			Help: "Structural validation errors recorded on decoded entities",
		}),
		Warnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "x12dec_warnings_total",
			Help: "Envelopes dropped because they were left open or reset",
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "x12dec_decode_failures_total",
			Help: "Fatal decode failures, by error kind",
		}, []string{"kind"}),
		DecodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "x12dec_decode_duration_seconds",
			Help:    "Duration of decoding a single file",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBatch adds the contents of one decoded file.
func (m *Metrics) ObserveBatch(interchanges, groups, transactions, validationErrors, warnings int) {
	m.Interchanges.Add(float64(interchanges))
	m.Groups.Add(float64(groups))
	m.Transactions.Add(float64(transactions))
	m.ValidationErrors.Add(float64(validationErrors))
	m.Warnings.Add(float64(warnings))
}

// IncrementFile records a file outcome.
func (m *Metrics) IncrementFile(outcome string) {
	m.FilesProcessed.WithLabelValues(outcome).Inc()
}

// IncrementFailure records a fatal decode failure of the given kind.
func (m *Metrics) IncrementFailure(kind string) {
	m.Failures.WithLabelValues(kind).Inc()
}

// ObserveDecode records the duration of one file decode.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDecode(start time.Time) {
	m.DecodeDuration.Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every metric in the Prometheus text format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
