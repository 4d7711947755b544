package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jturner1120/pheno-hunter-alpha-sub001/internal/model"
)

const namespace = "phenohunter"

// Prometheus is a Recorder backed by Prometheus metrics.
type Prometheus struct {
	JobsTotal   *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	ItemsTotal  *prometheus.CounterVec
	UndosTotal  *prometheus.CounterVec
}

// NewPrometheus creates and registers the bulk engine metrics on the given registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "jobs_total",
			Help:      "Total number of finished bulk jobs, by operation and state.",
		}, []string{"operation", "state"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "job_duration_seconds",
			Help:      "Duration of bulk jobs in seconds, by operation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		ItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "items_total",
			Help:      "Total number of processed items, by operation and result.",
		}, []string{"operation", "result"}),
		UndosTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bulk",
			Name:      "undos_total",
			Help:      "Total number of undo attempts, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(p.JobsTotal, p.JobDuration, p.ItemsTotal, p.UndosTotal)
	return p
}

func (p *Prometheus) ObserveJob(_ context.Context, kind model.OperationKind, state model.JobState, duration time.Duration) {
	p.JobsTotal.WithLabelValues(string(kind), string(state)).Inc()
	p.JobDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}

func (p *Prometheus) AddItems(_ context.Context, kind model.OperationKind, result string, n int) {
	if n <= 0 {
		return
	}
	p.ItemsTotal.WithLabelValues(string(kind), result).Add(float64(n))
}

func (p *Prometheus) IncUndo(_ context.Context, result string) {
	p.UndosTotal.WithLabelValues(result).Inc()
}

var _ Recorder = &Prometheus{}
