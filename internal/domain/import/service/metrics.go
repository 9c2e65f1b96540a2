package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/FACorreiaa/statement-import/internal/domain/import/model"
)

// Metrics records import activity. A nil *Metrics records nothing.
type Metrics struct {
	sessions      *prometheus.CounterVec
	inserted      prometheus.Counter
	duplicates    prometheus.Counter
	warnings      prometheus.Counter
	stageDuration *prometheus.HistogramVec
}

// NewMetrics registers the import collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "sessions_total",
			Help:      "Import sessions reaching a stopping point (committed, failed, needs_mapping, superseded) by format.",
		}, []string{"format", "outcome"}),
		inserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "transactions_inserted_total",
			Help:      "Transactions written to the ledger.",
		}),
		duplicates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "duplicates_skipped_total",
			Help:      "Transactions skipped because the ledger already had them.",
		}),
		warnings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "statement_import",
			Name:      "warnings_total",
			Help:      "Row and rule warnings reported to callers.",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "statement_import",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
	}
}

func (m *Metrics) session(format model.Format, outcome string) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.sessions.WithLabelValues(string(format), outcome).Inc()
}

func (m *Metrics) committed(inserted, duplicates, warnings int) {
	if m == nil {
		return
	}
	m.inserted.Add(float64(inserted))
	m.duplicates.Add(float64(duplicates))
	m.warnings.Add(float64(warnings))
}

func (m *Metrics) observeStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
